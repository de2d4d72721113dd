package objects

import (
	"context"

	"github.com/zeebo/xxh3"
)

// Info identifies an object exported by another client: the bus name of its owner and its object path.
type Info struct {
	BusName string
	Path    string
}

// Hash returns a stable 64-bit key for the object. It is printed next to the object in logs.
func (i Info) Hash() uint64 {
	return xxh3.HashString(i.BusName + "\x00" + i.Path)
}

func (i Info) String() string {
	return i.BusName + i.Path
}

// EventKind is the kind of change a discovery feed reports.
type EventKind uint8

const (
	// NewMatch is sent when an object starts matching the query.
	NewMatch EventKind = iota
	// Modified is sent when an object that already matched is replaced or changes its handle.
	Modified
	// MatchLost is sent when an object stops matching, usually because it went away.
	MatchLost
)

func (k EventKind) String() string {
	switch k {
	case NewMatch:
		return "new_match"
	case Modified:
		return "modified"
	case MatchLost:
		return "match_lost"
	}
	return "unknown"
}

// Event is a single change reported by a Feed. Handle is the zero value for MatchLost.
type Event[H any] struct {
	Kind   EventKind
	Info   Info
	Handle H
}

// Feed is a live subscription to objects matching a query.
type Feed[H any] interface {
	// Events returns the channel events are delivered on. It is closed when the feed ends.
	Events() <-chan Event[H]
	// Close ends the subscription.
	Close() error
}

// Registry hands out discovery feeds for objects advertising a capability.
type Registry[H any] interface {
	Query(ctx context.Context, capability string) (Feed[H], error)
}

package objects

import (
	"context"
	"errors"
	"time"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

// Hooks are called by a Set as objects come and go. Either may be nil.
type Hooks[H any] struct {
	// Attach is called for every newly matched object. The object is tracked regardless of the result,
	// but only objects that attached successfully are later passed to Detach.
	Attach func(ctx context.Context, info Info, handle H) error
	// Detach is called exactly once for every attached object, when it stops matching or when the set
	// is drained.
	Detach func(ctx context.Context, info Info, handle H) error
}

type entry[H any] struct {
	handle   H
	attached bool
}

// Set maintains the objects matched by a discovery feed. A single goroutine running Listen writes to the
// set; any number of goroutines may read it.
type Set[H any] struct {
	log            *logrus.Logger
	hooks          Hooks[H]
	cleanupTimeout time.Duration

	mu      deadlock.RWMutex
	entries *orderedmap.OrderedMap[Info, *entry[H]]

	processed atomic.Uint64
}

// NewSet creates an empty set. cleanupTimeout bounds every attach call, and the detach calls made once Listen
// has been cancelled.
func NewSet[H any](log *logrus.Logger, hooks Hooks[H], cleanupTimeout time.Duration) *Set[H] {
	return &Set[H]{
		log:            log,
		hooks:          hooks,
		cleanupTimeout: cleanupTimeout,
		entries:        orderedmap.NewOrderedMap[Info, *entry[H]](),
	}
}

// Listen applies events from feed until ctx is cancelled or the feed ends. Before returning it closes the
// feed and drains the set, detaching every attached object even though ctx may already be cancelled.
func (s *Set[H]) Listen(ctx context.Context, feed Feed[H]) error {
	defer func() {
		if err := feed.Close(); err != nil {
			s.log.Warnf("unable to close discovery feed: %v", err)
		}
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cleanupTimeout)
		defer cancel()
		s.drain(cleanupCtx)
	}()

	events := feed.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			s.apply(ctx, ev)
		}
	}
}

// apply applies a single event to the set.
func (s *Set[H]) apply(ctx context.Context, ev Event[H]) {
	defer s.processed.Inc()

	switch ev.Kind {
	case NewMatch, Modified:
		s.mu.RLock()
		existing, ok := s.entries.Get(ev.Info)
		s.mu.RUnlock()

		attached := ok && existing.attached
		if !attached {
			attached = s.attach(ctx, ev.Info, ev.Handle)
		}

		s.mu.Lock()
		s.entries.Set(ev.Info, &entry[H]{handle: ev.Handle, attached: attached})
		s.mu.Unlock()
	case MatchLost:
		s.mu.Lock()
		e, ok := s.entries.Get(ev.Info)
		s.entries.Delete(ev.Info)
		s.mu.Unlock()

		if ok && e.attached {
			s.detach(ctx, ev.Info, e.handle)
		}
	default:
		s.log.Warnf("ignoring discovery event of unknown kind %d for %s", ev.Kind, ev.Info)
	}
}

// drain removes every entry and detaches the ones that were attached. Every detach is attempted, even if
// earlier ones fail.
func (s *Set[H]) drain(ctx context.Context) {
	s.mu.Lock()
	old := s.entries
	s.entries = orderedmap.NewOrderedMap[Info, *entry[H]]()
	s.mu.Unlock()

	for el := old.Front(); el != nil; el = el.Next() {
		if el.Value.attached {
			s.detach(ctx, el.Key, el.Value.handle)
		}
	}
}

// attach runs the attach hook. Cancelling Listen does not interrupt a call in flight. A call that runs out
// of time counts as attached so that the drain still detaches it.
func (s *Set[H]) attach(ctx context.Context, info Info, handle H) bool {
	if s.hooks.Attach == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cleanupTimeout)
	defer cancel()
	if err := s.hooks.Attach(ctx, info, handle); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.log.Warnf("attaching %s [%016x] timed out, assuming it took effect", info, info.Hash())
			return true
		}
		s.log.Errorf("unable to attach %s [%016x]: %v", info, info.Hash(), err)
		return false
	}
	return true
}

func (s *Set[H]) detach(ctx context.Context, info Info, handle H) {
	if s.hooks.Detach == nil {
		return
	}
	if err := s.hooks.Detach(ctx, info, handle); err != nil {
		s.log.Errorf("unable to detach %s [%016x]: %v", info, info.Hash(), err)
	}
}

// Get returns the handle of the object, if it currently matches.
func (s *Set[H]) Get(info Info) (H, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries.Get(info)
	if !ok {
		var zero H
		return zero, false
	}
	return e.handle, true
}

// Len returns the amount of objects currently matching.
func (s *Set[H]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries.Len()
}

// Attached returns the objects that are currently attached, in the order they were first matched.
func (s *Set[H]) Attached() []Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	infos := make([]Info, 0, s.entries.Len())
	for el := s.entries.Front(); el != nil; el = el.Next() {
		if el.Value.attached {
			infos = append(infos, el.Key)
		}
	}
	return infos
}

// Snapshot returns every matching object, in the order they were first matched.
func (s *Set[H]) Snapshot() []Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries.Keys()
}

// Processed returns the amount of events applied so far.
func (s *Set[H]) Processed() uint64 {
	return s.processed.Load()
}

package objects

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanFeed struct {
	events chan Event[*mockHandle]
	once   sync.Once
	closed chan struct{}
}

func newChanFeed() *chanFeed {
	return &chanFeed{events: make(chan Event[*mockHandle], 16), closed: make(chan struct{})}
}

func (f *chanFeed) Events() <-chan Event[*mockHandle] {
	return f.events
}

func (f *chanFeed) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

type mockHandle struct {
	mu          sync.Mutex
	attaches    int
	detaches    int
	failAttach  bool
	failDetach  bool
	lastContext error
}

func (h *mockHandle) counts() (attaches, detaches int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attaches, h.detaches
}

func mockHooks() Hooks[*mockHandle] {
	return Hooks[*mockHandle]{
		Attach: func(ctx context.Context, info Info, h *mockHandle) error {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.attaches++
			if h.failAttach {
				return errors.New("attach refused")
			}
			return nil
		},
		Detach: func(ctx context.Context, info Info, h *mockHandle) error {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.detaches++
			h.lastContext = ctx.Err()
			if h.failDetach {
				return errors.New("detach refused")
			}
			return nil
		},
	}
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// startListening runs Listen in the background and returns a function that cancels it and waits for the drain.
func startListening(t *testing.T, s *Set[*mockHandle], feed *chanFeed) (stop func() error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() { errs <- s.Listen(ctx, feed) }()
	return func() error {
		cancel()
		select {
		case err := <-errs:
			return err
		case <-time.After(time.Second):
			t.Fatal("listener did not stop")
			return nil
		}
	}
}

func waitProcessed(t *testing.T, s *Set[*mockHandle], n uint64) {
	t.Helper()
	require.Eventually(t, func() bool { return s.Processed() >= n }, time.Second, time.Millisecond)
}

func TestInfoHashStable(t *testing.T) {
	a := Info{BusName: ":1.42", Path: "/window/1"}
	b := Info{BusName: ":1.42", Path: "/window/1"}
	c := Info{BusName: ":1.42/window", Path: "/1"}
	require.Equal(t, a.Hash(), b.Hash())
	require.NotEqual(t, a.Hash(), c.Hash())
}

func TestSetTracksMatches(t *testing.T) {
	s := NewSet(testLogger(), mockHooks(), time.Second)
	feed := newChanFeed()
	stop := startListening(t, s, feed)

	a, b := &mockHandle{}, &mockHandle{}
	infoA, infoB := Info{BusName: ":1.1", Path: "/a"}, Info{BusName: ":1.2", Path: "/b"}
	feed.events <- Event[*mockHandle]{Kind: NewMatch, Info: infoA, Handle: a}
	feed.events <- Event[*mockHandle]{Kind: NewMatch, Info: infoB, Handle: b}
	waitProcessed(t, s, 2)

	require.Equal(t, 2, s.Len())
	require.Equal(t, []Info{infoA, infoB}, s.Snapshot())
	require.Equal(t, []Info{infoA, infoB}, s.Attached())
	h, ok := s.Get(infoA)
	require.True(t, ok)
	require.Same(t, a, h)

	require.ErrorIs(t, stop(), context.Canceled)
}

func TestMatchLostDetachesExactlyOnce(t *testing.T) {
	s := NewSet(testLogger(), mockHooks(), time.Second)
	feed := newChanFeed()
	stop := startListening(t, s, feed)

	h := &mockHandle{}
	info := Info{BusName: ":1.1", Path: "/panel"}
	feed.events <- Event[*mockHandle]{Kind: NewMatch, Info: info, Handle: h}
	feed.events <- Event[*mockHandle]{Kind: MatchLost, Info: info}
	waitProcessed(t, s, 2)

	_, ok := s.Get(info)
	require.False(t, ok)
	require.Zero(t, s.Len())
	attaches, detaches := h.counts()
	require.Equal(t, 1, attaches)
	require.Equal(t, 1, detaches)

	// Draining afterwards must not detach the object a second time.
	_ = stop()
	_, detaches = h.counts()
	require.Equal(t, 1, detaches)
}

func TestMatchLostOfUnattachedObject(t *testing.T) {
	s := NewSet(testLogger(), mockHooks(), time.Second)
	feed := newChanFeed()
	stop := startListening(t, s, feed)
	defer stop()

	h := &mockHandle{failAttach: true}
	info := Info{BusName: ":1.1", Path: "/stubborn"}
	feed.events <- Event[*mockHandle]{Kind: NewMatch, Info: info, Handle: h}
	waitProcessed(t, s, 1)
	require.Equal(t, 1, s.Len(), "objects that refuse to attach are still tracked")
	require.Empty(t, s.Attached())

	feed.events <- Event[*mockHandle]{Kind: MatchLost, Info: info}
	waitProcessed(t, s, 2)
	_, detaches := h.counts()
	require.Zero(t, detaches)
}

func TestModifiedReplacesHandle(t *testing.T) {
	s := NewSet(testLogger(), mockHooks(), time.Second)
	feed := newChanFeed()
	stop := startListening(t, s, feed)

	info := Info{BusName: ":1.1", Path: "/panel"}
	first, second := &mockHandle{}, &mockHandle{}
	feed.events <- Event[*mockHandle]{Kind: NewMatch, Info: info, Handle: first}
	feed.events <- Event[*mockHandle]{Kind: Modified, Info: info, Handle: second}
	waitProcessed(t, s, 2)

	h, ok := s.Get(info)
	require.True(t, ok)
	require.Same(t, second, h)
	attaches, _ := second.counts()
	require.Zero(t, attaches, "an attached object is not attached again when modified")

	_ = stop()
	_, detaches := second.counts()
	require.Equal(t, 1, detaches)
}

func TestModifiedUnknownObjectAttaches(t *testing.T) {
	s := NewSet(testLogger(), mockHooks(), time.Second)
	feed := newChanFeed()
	stop := startListening(t, s, feed)
	defer stop()

	h := &mockHandle{}
	feed.events <- Event[*mockHandle]{Kind: Modified, Info: Info{BusName: ":1.3", Path: "/late"}, Handle: h}
	waitProcessed(t, s, 1)
	attaches, _ := h.counts()
	require.Equal(t, 1, attaches)
	require.Len(t, s.Attached(), 1)
}

func TestCancellationDrainsEveryAttachedObject(t *testing.T) {
	s := NewSet(testLogger(), mockHooks(), time.Second)
	feed := newChanFeed()
	stop := startListening(t, s, feed)

	handles := []*mockHandle{{}, {failDetach: true}, {}, {failDetach: true}}
	for i, h := range handles {
		feed.events <- Event[*mockHandle]{Kind: NewMatch, Info: Info{BusName: ":1.1", Path: "/" + string(rune('a'+i))}, Handle: h}
	}
	waitProcessed(t, s, uint64(len(handles)))

	require.ErrorIs(t, stop(), context.Canceled)
	for i, h := range handles {
		_, detaches := h.counts()
		assert.Equal(t, 1, detaches, "handle %d", i)
		assert.NoError(t, h.lastContext, "cleanup must not run with a cancelled context")
	}
	require.Zero(t, s.Len())

	select {
	case <-feed.closed:
	default:
		t.Fatal("feed was not closed")
	}
}

func TestCancellationDuringAttach(t *testing.T) {
	entered, release := make(chan struct{}), make(chan struct{})
	var attachErr error
	hooks := mockHooks()
	hooks.Attach = func(ctx context.Context, info Info, h *mockHandle) error {
		h.mu.Lock()
		h.attaches++
		h.mu.Unlock()
		close(entered)
		<-release
		attachErr = ctx.Err()
		return attachErr
	}
	s := NewSet(testLogger(), hooks, time.Second)
	feed := newChanFeed()
	h := &mockHandle{}
	feed.events <- Event[*mockHandle]{Kind: NewMatch, Info: Info{BusName: ":1.1", Path: "/slow"}, Handle: h}

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() { errs <- s.Listen(ctx, feed) }()

	<-entered
	cancel()
	close(release)
	select {
	case err := <-errs:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("listener did not stop")
	}

	require.NoError(t, attachErr, "attach must not see the listener's cancellation")
	attaches, detaches := h.counts()
	require.Equal(t, 1, attaches)
	require.Equal(t, 1, detaches)
}

func TestTimedOutAttachIsDetached(t *testing.T) {
	hooks := mockHooks()
	hooks.Attach = func(ctx context.Context, info Info, h *mockHandle) error {
		h.mu.Lock()
		h.attaches++
		h.mu.Unlock()
		<-ctx.Done()
		return ctx.Err()
	}
	s := NewSet(testLogger(), hooks, 50*time.Millisecond)
	feed := newChanFeed()
	stop := startListening(t, s, feed)

	h := &mockHandle{}
	info := Info{BusName: ":1.1", Path: "/unresponsive"}
	feed.events <- Event[*mockHandle]{Kind: NewMatch, Info: info, Handle: h}
	waitProcessed(t, s, 1)
	require.Equal(t, []Info{info}, s.Attached())

	require.ErrorIs(t, stop(), context.Canceled)
	_, detaches := h.counts()
	require.Equal(t, 1, detaches)
}

func TestFeedEndDrains(t *testing.T) {
	s := NewSet(testLogger(), mockHooks(), time.Second)
	feed := newChanFeed()

	h := &mockHandle{}
	feed.events <- Event[*mockHandle]{Kind: NewMatch, Info: Info{BusName: ":1.1", Path: "/a"}, Handle: h}
	close(feed.events)

	require.NoError(t, s.Listen(context.Background(), feed))
	_, detaches := h.counts()
	require.Equal(t, 1, detaches)
}

func TestConcurrentReaders(t *testing.T) {
	s := NewSet(testLogger(), mockHooks(), time.Second)
	feed := newChanFeed()
	stop := startListening(t, s, feed)

	var wg sync.WaitGroup
	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					_ = s.Attached()
					_ = s.Len()
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		info := Info{BusName: ":1.9", Path: "/" + string(rune('a'+i%26))}
		feed.events <- Event[*mockHandle]{Kind: NewMatch, Info: info, Handle: &mockHandle{}}
		feed.events <- Event[*mockHandle]{Kind: MatchLost, Info: info}
	}
	waitProcessed(t, s, 100)
	close(done)
	wg.Wait()

	require.Zero(t, s.Len())
	_ = stop()
}

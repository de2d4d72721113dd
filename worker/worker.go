package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/oomph-ac/solarsail/serror"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

// Task is a long-lived background goroutine owned by a single component. The owner is expected to call
// Stop before dropping the Task, so that any cleanup the goroutine performs on cancellation has finished
// by the time Stop returns.
type Task struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}

	running atomic.Bool
	err     error
}

// Go starts fn in a new goroutine. The context passed to fn is cancelled when Stop is called. Panics in fn
// are reported to sentry and returned from Stop as an error.
func Go(ctx context.Context, log *logrus.Logger, name string, fn func(ctx context.Context) error) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		name:   name,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	t.running.Store(true)

	go func() {
		defer close(t.done)
		defer t.running.Store(false)
		defer func() {
			if v := recover(); v != nil {
				log.Errorf("task %s crashed: %v", name, v)
				hub := sentry.CurrentHub().Clone()
				hub.ConfigureScope(func(scope *sentry.Scope) {
					scope.SetTag("task", name)
				})
				hub.Recover(serror.New("task %s crashed: %v", name, v))
				hub.Flush(time.Second * 5)
				t.err = fmt.Errorf("task %s crashed: %v", name, v)
			}
		}()

		if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
			t.err = err
		}
	}()
	return t
}

// Name returns the name the task was started with.
func (t *Task) Name() string {
	return t.name
}

// Running returns true until the task's function has returned.
func (t *Task) Running() bool {
	return t.running.Load()
}

// Done is closed once the task's function has returned.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns the error the task finished with. It is only meaningful after Done is closed.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Stop cancels the task and blocks until it has returned. Calling Stop more than once is safe.
func (t *Task) Stop() error {
	t.cancel()
	<-t.done
	return t.err
}

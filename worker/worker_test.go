package worker

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestStopWaitsForCleanup(t *testing.T) {
	cleaned := false
	task := Go(context.Background(), testLogger(), "cleanup", func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		cleaned = true
		return ctx.Err()
	})
	require.True(t, task.Running())

	require.NoError(t, task.Stop())
	require.True(t, cleaned, "Stop returned before the task finished its cleanup")
	require.False(t, task.Running())
	require.NoError(t, task.Stop())
}

func TestTaskError(t *testing.T) {
	want := errors.New("feed closed")
	task := Go(context.Background(), testLogger(), "failing", func(ctx context.Context) error {
		return want
	})

	select {
	case <-task.Done():
	case <-time.After(time.Second):
		t.Fatal("task did not finish")
	}
	require.ErrorIs(t, task.Err(), want)
	require.ErrorIs(t, task.Stop(), want)
}

func TestTaskPanicIsRecovered(t *testing.T) {
	task := Go(context.Background(), testLogger(), "panicking", func(ctx context.Context) error {
		panic("boom")
	})
	err := task.Stop()
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
}

func TestParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	task := Go(ctx, testLogger(), "child", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	cancel()

	select {
	case <-task.Done():
	case <-time.After(time.Second):
		t.Fatal("task did not observe parent cancellation")
	}
	require.NoError(t, task.Err())
}

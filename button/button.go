// Package button turns a UI button into a mode switch request. The button is only enabled while the hand or
// controller it is attached to is tracked.
package button

import (
	"context"

	"github.com/oomph-ac/solarsail/sailer"
	"github.com/oomph-ac/solarsail/worker"
	"github.com/sirupsen/logrus"
)

// Widget is the button drawn next to an input device.
type Widget interface {
	// Released returns true if the button was released since the last call.
	Released() bool
	// SetEnabled shows or hides the button and makes it accept or ignore touches.
	SetEnabled(enabled bool) error
}

// ModeButton requests a mode switch when its widget is released.
type ModeButton struct {
	log    *logrus.Logger
	widget Widget

	enabled chan bool
	task    *worker.Task
}

// New creates a button driving widget. tracked reports whether the device the widget is attached to is
// tracked; the widget follows it.
func New(log *logrus.Logger, widget Widget, tracked <-chan bool) *ModeButton {
	b := &ModeButton{
		log:     log,
		widget:  widget,
		enabled: make(chan bool, 16),
	}
	b.task = worker.Go(context.Background(), log, "mode button", func(ctx context.Context) error {
		return b.forward(ctx, tracked)
	})
	return b
}

// forward passes tracking changes on to the frame loop.
func (b *ModeButton) forward(ctx context.Context, tracked <-chan bool) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t, ok := <-tracked:
			if !ok {
				return nil
			}
			select {
			case b.enabled <- t:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// SwitchRequested applies pending tracking changes to the widget and returns true if it was released.
func (b *ModeButton) SwitchRequested() bool {
	for {
		select {
		case enabled := <-b.enabled:
			if err := b.widget.SetEnabled(enabled); err != nil {
				b.log.Warnf("unable to toggle mode button: %v", err)
			}
		default:
			return b.widget.Released()
		}
	}
}

// Close stops following the tracking state.
func (b *ModeButton) Close() error {
	return b.task.Stop()
}

type anySwitch []sailer.ModeSwitch

// Any returns a switch requested whenever one of switches is. Every switch is polled each frame so that
// each can keep its own state current. nil switches are skipped.
func Any(switches ...sailer.ModeSwitch) sailer.ModeSwitch {
	var a anySwitch
	for _, s := range switches {
		if s != nil {
			a = append(a, s)
		}
	}
	return a
}

func (a anySwitch) SwitchRequested() bool {
	requested := false
	for _, s := range a {
		if s.SwitchRequested() {
			requested = true
		}
	}
	return requested
}

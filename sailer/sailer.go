package sailer

import (
	"context"

	"github.com/getsentry/sentry-go"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/solarsail/input"
	"github.com/oomph-ac/solarsail/settings"
	"github.com/oomph-ac/solarsail/smath"
	"github.com/oomph-ac/solarsail/xr"
	"github.com/sirupsen/logrus"
)

// ModeSwitch is sampled once per frame. It returns true when the user asked for the next mode.
type ModeSwitch interface {
	SwitchRequested() bool
}

// NopSwitch never requests a switch.
type NopSwitch struct{}

func (NopSwitch) SwitchRequested() bool { return false }

// Sailer drives locomotion from the input of every frame.
type Sailer struct {
	log *logrus.Logger

	inputSpace xr.SpatialRef
	stage      xr.SpatialRef
	modeSwitch ModeSwitch

	tracker    *input.Tracker
	integrator *Integrator
	modes      *ModeMachine
}

// New creates a sailer from the given settings. inputSpace is the frame input samples are expressed in,
// and stage is the stable frame velocity is integrated in. Backends are registered on Modes afterwards.
func New(log *logrus.Logger, s settings.Settings, inputSpace, stage xr.SpatialRef, modeSwitch ModeSwitch) (*Sailer, error) {
	initial, err := ParseMode(s.Modes.Initial)
	if err != nil {
		return nil, err
	}
	cycle, err := ParseCycle(s.Modes.Cycle)
	if err != nil {
		return nil, err
	}
	if modeSwitch == nil {
		modeSwitch = NopSwitch{}
	}
	return &Sailer{
		log:        log,
		inputSpace: inputSpace,
		stage:      stage,
		modeSwitch: modeSwitch,
		tracker:    input.NewTracker(input.PolicyFromSettings(s)),
		integrator: NewIntegrator(s.Velocity.ShapingExponent),
		modes:      NewModeMachine(log, initial, cycle, s.Velocity.Decay),
	}, nil
}

// Modes returns the mode machine of the sailer.
func (s *Sailer) Modes() *ModeMachine {
	return s.modes
}

// Tracker returns the grab tracker of the sailer.
func (s *Sailer) Tracker() *input.Tracker {
	return s.tracker
}

// Stage returns the frame velocity is expressed in.
func (s *Sailer) Stage() xr.SpatialRef {
	return s.stage
}

// HandleFrame runs one iteration of the control loop with the samples visible this frame.
func (s *Sailer) HandleFrame(ctx context.Context, frame xr.Frame, samples []input.Sample) {
	span := sentry.StartSpan(ctx, "sailer.HandleFrame")
	defer span.Finish()
	ctx = span.Context()

	s.tracker.Update(samples)
	if s.tracker.ActorStarted() {
		s.log.Debugf("grab started")
	}
	if s.tracker.ActorStopped() {
		s.log.Debugf("grab stopped")
	}

	if s.modeSwitch.SwitchRequested() {
		s.modes.Switch(ctx, s.modes.Next())
		s.integrator.Reset()
	}

	s.integrate(ctx)
	s.modes.Apply(ctx, frame.Delta, s.stage)
}

// integrate feeds the stage-frame position of the actor into the velocity.
func (s *Sailer) integrate(ctx context.Context) {
	actor, ok := s.tracker.Actor()
	if !ok {
		s.modes.Integrate(s.integrator.Waft(mgl32.Vec3{}, false))
		return
	}

	mat, err := s.inputSpace.TransformTo(ctx, s.stage)
	if err != nil {
		// Skipping keeps the previous position, so the next frame's offset spans both frames.
		s.log.Errorf("unable to get input transform relative to stage: %v", err)
		s.modes.Integrate(mgl32.Vec3{})
		return
	}
	s.modes.Integrate(s.integrator.Waft(smath.TransformPoint(mat, actor.Position()), true))
}

// Close leaves the current mode and releases every backend.
func (s *Sailer) Close(ctx context.Context) {
	s.modes.Close(ctx)
}

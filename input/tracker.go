package input

// Tracker turns the samples of every frame into a single acting source. Once a sample starts acting it
// keeps acting until its policy releases it or it disappears, even if other samples would qualify in the
// meantime.
type Tracker struct {
	policy Policy

	actor    *Sample
	hovering []Sample

	started, stopped bool
}

// NewTracker creates a tracker with no actor.
func NewTracker(policy Policy) *Tracker {
	return &Tracker{policy: policy}
}

// Update processes the samples visible this frame.
func (t *Tracker) Update(samples []Sample) {
	t.started, t.stopped = false, false
	t.hovering = t.hovering[:0]

	if t.actor != nil {
		current, ok := find(samples, t.actor.ID)
		if ok && t.policy.Eligible(current) && t.policy.Holds(current) {
			t.actor = &current
		} else {
			t.actor = nil
			t.stopped = true
		}
	}

	for _, s := range samples {
		if !t.policy.Eligible(s) {
			continue
		}
		if t.actor != nil && t.actor.ID == s.ID {
			continue
		}
		if t.actor == nil && !t.stopped && t.policy.Activates(s) {
			actor := s
			t.actor = &actor
			t.started = true
			continue
		}
		t.hovering = append(t.hovering, s)
	}
}

func find(samples []Sample, id uint64) (Sample, bool) {
	for _, s := range samples {
		if s.ID == id {
			return s, true
		}
	}
	return Sample{}, false
}

// Actor returns the sample that is currently acting.
func (t *Tracker) Actor() (Sample, bool) {
	if t.actor == nil {
		return Sample{}, false
	}
	return *t.actor, true
}

// Acting returns true if there is an actor.
func (t *Tracker) Acting() bool {
	return t.actor != nil
}

// Hovering returns the eligible samples that are not acting. The slice is reused by the next Update.
func (t *Tracker) Hovering() []Sample {
	return t.hovering
}

// ActorStarted returns true if a sample started acting during the last Update.
func (t *Tracker) ActorStarted() bool {
	return t.started
}

// ActorStopped returns true if the actor stopped acting during the last Update.
func (t *Tracker) ActorStopped() bool {
	return t.stopped
}

// Signifiers calls gen for every hovering sample and then for the actor, if any, and collects the results.
func Signifiers[T any](t *Tracker, gen func(s Sample, acting bool) T) []T {
	out := make([]T, 0, len(t.hovering)+1)
	for _, s := range t.hovering {
		out = append(out, gen(s, false))
	}
	if t.actor != nil {
		out = append(out, gen(*t.actor, true))
	}
	return out
}

package settings

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/oomph-ac/solarsail/serror"
	"github.com/pelletier/go-toml"
)

// Settings contains everything that can be tuned for solarsail.
type Settings struct {
	Log struct {
		// Level is a logrus level name, such as "debug" or "info".
		Level string
	}
	Sentry struct {
		// DSN is left empty to disable crash reporting.
		DSN string
	}
	Grab struct {
		HandGrab      Threshold
		TipGrab       Threshold
		Pinch         Threshold
		PinchDistance Threshold
		// Precision enables the secondary precision grab (pinching) on hands and tips.
		Precision bool
		// Exclude lists input kinds that never start a grab.
		Exclude []string
	}
	Velocity struct {
		// Decay is the factor velocity is multiplied by every frame.
		Decay float32
		// ShapingExponent compresses the magnitude of each drag offset.
		ShapingExponent float32
	}
	Modes struct {
		// Cycle is the order modes are switched through when a switch is requested.
		Cycle []string
		// Initial is the mode the sailer starts in.
		Initial string
	}
	GlobalOffset struct {
		Enabled           bool
		ActivityThreshold float32
	}
	Reparent struct {
		ActivityThreshold float32
		Capability        string
		// CleanupTimeout bounds how long unparenting may take once the listener has been cancelled.
		CleanupTimeout time.Duration
	}
}

// Threshold is an activation/release pair. For strength signals, Activate must be above Release. For
// distances, Activate must be below Release.
type Threshold struct {
	Activate float32
	Release  float32
}

// DefaultSettings returns the default settings.
func DefaultSettings() Settings {
	s := Settings{}
	s.Log.Level = "info"

	s.Grab.HandGrab = Threshold{Activate: 0.9, Release: 0.75}
	s.Grab.TipGrab = Threshold{Activate: 0.9, Release: 0.75}
	s.Grab.Pinch = Threshold{Activate: 0.8, Release: 0.65}
	s.Grab.PinchDistance = Threshold{Activate: 0.03, Release: 0.045}
	s.Grab.Precision = false
	s.Grab.Exclude = []string{"pointer"}

	s.Velocity.Decay = 0.99
	s.Velocity.ShapingExponent = 0.9

	s.Modes.Cycle = []string{"global_offset", "dynamic_reparent"}
	s.Modes.Initial = "dynamic_reparent"

	s.GlobalOffset.Enabled = true
	s.GlobalOffset.ActivityThreshold = 0.0005

	s.Reparent.ActivityThreshold = 0.0005
	s.Reparent.Capability = "org.stardustxr.Reparentable"
	s.Reparent.CleanupTimeout = time.Second * 2
	return s
}

// modeNames mirrors sailer.Mode names. It is duplicated here to keep settings free of imports from the
// packages it configures.
var modeNames = map[string]struct{}{
	"disabled":         {},
	"global_offset":    {},
	"dynamic_reparent": {},
}

// Validate returns an error describing the first invalid value found.
func (s Settings) Validate() error {
	for name, th := range map[string]Threshold{
		"hand grab": s.Grab.HandGrab,
		"tip grab":  s.Grab.TipGrab,
		"pinch":     s.Grab.Pinch,
	} {
		if th.Activate <= th.Release {
			return serror.New("%s activation (%v) must be above its release threshold (%v)", name, th.Activate, th.Release)
		}
	}
	if d := s.Grab.PinchDistance; d.Activate >= d.Release || d.Activate <= 0 {
		return serror.New("pinch distance activation (%v) must be positive and below its release distance (%v)", d.Activate, d.Release)
	}
	if s.Velocity.Decay <= 0 || s.Velocity.Decay >= 1 {
		return serror.New("velocity decay must be within (0, 1), got %v", s.Velocity.Decay)
	}
	if s.Velocity.ShapingExponent <= 0 {
		return serror.New("shaping exponent must be positive, got %v", s.Velocity.ShapingExponent)
	}
	if len(s.Modes.Cycle) == 0 {
		return serror.New("mode cycle must not be empty")
	}
	seen := make(map[string]struct{}, len(s.Modes.Cycle))
	for _, m := range s.Modes.Cycle {
		if _, ok := modeNames[m]; !ok {
			return serror.New("unknown mode %q in cycle", m)
		}
		if _, ok := seen[m]; ok {
			return serror.New("mode %q appears twice in cycle", m)
		}
		seen[m] = struct{}{}
	}
	if _, ok := modeNames[s.Modes.Initial]; !ok {
		return serror.New("unknown initial mode %q", s.Modes.Initial)
	}
	if s.Reparent.Capability == "" {
		return serror.New("reparent capability must not be empty")
	}
	if s.Reparent.CleanupTimeout <= 0 {
		return serror.New("reparent cleanup timeout must be positive")
	}
	return nil
}

// SaveDefault will create and save the default settings file. If the file already exists, it will return an error.
func SaveDefault(path string) error {
	s := DefaultSettings()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if data, err := toml.Marshal(s); err != nil {
			return fmt.Errorf("failed encoding default settings: %v", err)
		} else if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed creating settings file: %v", err)
		}
		return nil
	}
	return errors.New("settings file already exists")
}

// Load will load the settings from your settings file, and return an error if the file does not exist.
// Values missing from the file keep their defaults.
func Load(path string) (Settings, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Settings{}, errors.New("settings file doesn't exist")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("error reading config: %v", err)
	}

	settings := DefaultSettings()
	if err = toml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("error decoding config: %v", err)
	}
	if err = settings.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid config: %w", err)
	}
	return settings, nil
}

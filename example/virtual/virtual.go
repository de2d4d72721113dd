package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/oomph-ac/solarsail/button"
	"github.com/oomph-ac/solarsail/input"
	"github.com/oomph-ac/solarsail/sailer"
	"github.com/oomph-ac/solarsail/sailer/backend"
	"github.com/oomph-ac/solarsail/settings"
	"github.com/oomph-ac/solarsail/virtual"
	"github.com/oomph-ac/solarsail/xr"
	"github.com/sirupsen/logrus"
)

const frameRate = 60

// The following program sails through an in-memory scene: it drags three objects along with a scripted hand,
// switches to moving the tracking origins, and drags again.
func main() {
	path := "solarsail.toml"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		ForceColors:     false,
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
	})

	s, err := loadSettings(logger, path)
	if err != nil {
		panic(err)
	}
	if level, err := logrus.ParseLevel(s.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("unknown log level %q, keeping %s", s.Log.Level, logger.GetLevel())
	}

	if s.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: s.Sentry.DSN, TracesSampleRate: 0.01}); err != nil {
			panic(err)
		}
		defer sentry.Flush(time.Second * 2)
	}

	if os.Getenv("PPROF_ENABLED") != "" {
		viewer.SetConfiguration(viewer.WithTheme(viewer.ThemeWesteros), viewer.WithAddr("localhost:8080"))

		mgr := statsview.New()
		go mgr.Start()
		defer mgr.Stop()
	}

	c := virtual.NewCompositor(logger)
	stage := c.CreateSpatial("stage", c.Root(), mgl32.Ident4())
	hands := c.CreateSpatial("hands", c.Root(), mgl32.Translate3D(0, 1.2, 0))
	anchor := c.CreateSpatial("anchor", c.Root(), mgl32.Ident4())
	rt := virtual.NewRuntime("stage", "local")
	registry := virtual.NewRegistry(logger, c)
	defer registry.Close()

	objs := []*virtual.Object{
		registry.Add("panel", c.Root(), mgl32.Translate3D(0, 1.5, -1), xr.ReparentableCapability),
		registry.Add("lamp", c.Root(), mgl32.Translate3D(1, 0, -2), xr.ReparentableCapability),
		registry.Add("clock", c.Root(), mgl32.Translate3D(-1, 2, -3), xr.ReparentableCapability),
	}

	widget := &scriptedWidget{}
	tracked := make(chan bool, 1)
	tracked <- true
	modeButton := button.New(logger, widget, tracked)
	defer modeButton.Close()

	sl, err := sailer.New(logger, s, hands, stage, button.Any(modeButton))
	if err != nil {
		panic(err)
	}
	backend.Register(logger, sl, s, backend.Collaborators{
		Runtime:   rt,
		PlaySpace: stage,
		Anchor:    anchor,
		Registry:  registry,
	})

	ctx := context.Background()
	defer sl.Close(ctx)

	drag := virtual.Drag(1, mgl32.Vec3{}, mgl32.Vec3{0.1, 0, 0}, frameRate)
	script := append(drag, idle(frameRate*3)...)
	script = append(script, virtual.Drag(1, mgl32.Vec3{}, mgl32.Vec3{0, 0, 0.1}, frameRate)...)
	script = append(script, idle(frameRate*3)...)
	widget.releaseAt = len(drag) + frameRate*3

	ticker := time.NewTicker(time.Second / frameRate)
	defer ticker.Stop()
	last := time.Now()
	for i, samples := range script {
		now := <-ticker.C
		widget.frame = i
		sl.HandleFrame(ctx, xr.Frame{Delta: float32(now.Sub(last).Seconds())}, samples)
		last = now
	}

	fmt.Printf("mode: %s\n", sl.Modes().Current())
	for _, o := range objs {
		fmt.Printf("%s: %v\n", o.Spatial().Name(), o.Spatial().WorldPosition())
	}
	fmt.Printf("tracking origin offset: %v\n", rt.Origin("stage").Pose().Position)
}

// loadSettings loads the settings at path, writing the defaults there first if the file does not exist.
func loadSettings(logger *logrus.Logger, path string) (settings.Settings, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := settings.SaveDefault(path); err != nil {
			return settings.Settings{}, err
		}
		logger.Infof("wrote default settings to %s", path)
	}
	return settings.Load(path)
}

// idle returns frames without any input.
func idle(frames int) [][]input.Sample {
	return make([][]input.Sample, frames)
}

// scriptedWidget is released once, on a given frame.
type scriptedWidget struct {
	frame     int
	releaseAt int
	enabled   bool
}

func (w *scriptedWidget) Released() bool {
	return w.enabled && w.frame == w.releaseAt
}

func (w *scriptedWidget) SetEnabled(enabled bool) error {
	w.enabled = enabled
	return nil
}

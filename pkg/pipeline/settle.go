package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/blockstack/pkg/block"
	"github.com/matzehuels/blockstack/pkg/clock"
	"github.com/matzehuels/blockstack/pkg/config"
	"github.com/matzehuels/blockstack/pkg/layout"
	"github.com/matzehuels/blockstack/pkg/observability"
	"github.com/matzehuels/blockstack/pkg/scene"
)

// Load decodes the scene named by opts.
func Load(ctx context.Context, opts Options) (*scene.Scene, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}
	src := opts.source()
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, src)
	start := time.Now()

	var (
		s   *scene.Scene
		err error
	)
	if opts.ScenePath != "" {
		s, err = scene.Load(opts.ScenePath)
	} else {
		s, err = scene.Parse([]byte(opts.Scene), opts.SceneFormat)
	}

	count := 0
	if s != nil {
		count = s.Len()
	}
	hooks.OnLoadComplete(ctx, src, count, time.Since(start), err)
	return s, err
}

// NewWorkspace creates the workspace the pipeline settles scenes in: a
// virtual clock so deferred work runs deterministically, the text-measuring
// layout engine and an event bus that logs at debug level.
func NewWorkspace(cfg config.Config, logger *log.Logger) (*block.Workspace, *clock.Virtual, error) {
	clk := clock.NewVirtual(time.Time{})
	ws, err := block.NewWorkspace(cfg,
		block.WithClock(clk),
		block.WithLogger(logger),
		block.WithLayoutEngine(layout.New()),
		block.WithEventBus(&block.LogBus{Logger: logger}),
	)
	if err != nil {
		return nil, nil, err
	}
	return ws, clk, nil
}

// Settle builds s into a fresh workspace and runs it to rest. Every top
// block is scheduled for a grid snap and a neighbour bump, then the clock
// is advanced until no deferred callbacks remain or limit callbacks ran.
// It returns the workspace and the number of callbacks fired.
func Settle(ctx context.Context, s *scene.Scene, opts Options) (*block.Workspace, int, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, 0, err
	}
	start := time.Now()
	ws, fired, err := settle(s, opts)
	count := 0
	if ws != nil {
		count = ws.Len()
	}
	observability.Pipeline().OnSettleComplete(ctx, count, fired, time.Since(start), err)
	return ws, fired, err
}

func settle(s *scene.Scene, opts Options) (*block.Workspace, int, error) {
	ws, clk, err := NewWorkspace(*opts.Config, opts.Logger)
	if err != nil {
		return nil, 0, err
	}
	tops, err := scene.Build(ws, s)
	if err != nil {
		return nil, 0, fmt.Errorf("build scene: %w", err)
	}
	if opts.SkipSettle || ws.Headless() {
		return ws, 0, nil
	}
	for _, b := range tops {
		b.ScheduleSnapAndBump()
	}
	fired := clk.RunAll(opts.SettleLimit)
	if pending := clk.Pending(); pending > 0 {
		opts.Logger.Warn("scene did not settle", "pending", pending, "fired", fired)
	}
	return ws, fired, nil
}

package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/blockstack/pkg/cache"
	"github.com/matzehuels/blockstack/pkg/observability"
	"github.com/matzehuels/blockstack/pkg/scene"
)

// Runner encapsulates pipeline execution with caching.
// Both the CLI and the HTTP server use it so that caching behaves the same.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options, since
// every run settles in its own workspace.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → settle → export pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	s, err := Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.BlockCount = s.Len()

	r.Logger.Info("loaded scene",
		"source", opts.source(),
		"blocks", s.Len(),
		"duration", result.Stats.LoadTime)

	// Stage 2: Settle
	settleStart := time.Now()
	snap, key, hit, fired, err := r.snapshot(ctx, s, opts)
	if err != nil {
		return nil, fmt.Errorf("settle: %w", err)
	}
	result.Snapshot = snap
	result.SnapshotKey = key
	result.Stats.SettleTime = time.Since(settleStart)
	result.Stats.Callbacks = fired
	result.CacheInfo.SnapshotHit = hit

	r.Logger.Info("settled scene",
		"callbacks", fired,
		"cached", hit,
		"duration", result.Stats.SettleTime)

	// Stage 3: Export
	exportStart := time.Now()
	artifacts, exportHit, err := r.ExportWithCacheInfo(ctx, snap, key, opts)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.ExportTime = time.Since(exportStart)
	result.CacheInfo.ExportHit = exportHit

	r.Logger.Info("exported outputs",
		"formats", opts.Formats,
		"duration", result.Stats.ExportTime)

	return result, nil
}

// SnapshotKey returns the cache key of the settled geometry of s under
// the options' configuration.
func (r *Runner) SnapshotKey(s *scene.Scene, opts Options) (string, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return "", err
	}
	sceneHash, err := cache.HashJSON(s)
	if err != nil {
		return "", err
	}
	configHash, err := cache.HashJSON(struct {
		Config      any  `json:"config"`
		SettleLimit int  `json:"settle_limit"`
		SkipSettle  bool `json:"skip_settle"`
	}{opts.Config, opts.SettleLimit, opts.SkipSettle})
	if err != nil {
		return "", err
	}
	return r.Keyer.SnapshotKey(sceneHash, configHash), nil
}

// snapshot settles s, or returns the cached snapshot for the same scene
// and configuration.
func (r *Runner) snapshot(ctx context.Context, s *scene.Scene, opts Options) (*scene.Snapshot, string, bool, int, error) {
	key, err := r.SnapshotKey(s, opts)
	if err != nil {
		return nil, "", false, 0, err
	}

	if !opts.Refresh {
		if data, hit := r.get(ctx, key, "snapshot"); hit {
			if snap, err := scene.ReadSnapshot(bytes.NewReader(data)); err == nil {
				return snap, key, true, 0, nil
			}
			r.Logger.Warn("discarding unreadable cached snapshot", "key", key)
		}
	}

	ws, fired, err := Settle(ctx, s, opts)
	if err != nil {
		return nil, "", false, 0, err
	}
	snap := scene.Take(ws)

	var buf bytes.Buffer
	if err := scene.WriteJSON(snap, &buf); err == nil {
		r.set(ctx, key, "snapshot", buf.Bytes(), cache.TTLSnapshot)
	}
	return snap, key, false, fired, nil
}

// ExportWithCacheInfo exports snap in every requested format, reusing
// cached artifacts. The hit flag is true only when every artifact came
// from the cache.
func (r *Runner) ExportWithCacheInfo(ctx context.Context, snap *scene.Snapshot, snapshotKey string, opts Options) (map[string][]byte, bool, error) {
	if len(opts.Formats) == 0 {
		opts.Formats = []string{FormatJSON}
	}
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	keys := make(map[string]string, len(opts.Formats))
	for _, format := range opts.Formats {
		keys[format] = r.Keyer.ArtifactKey(snapshotKey, cache.ArtifactKeyOpts{Format: format, Detailed: opts.Detailed})
		if !opts.Refresh {
			if data, hit := r.get(ctx, keys[format], "artifact"); hit {
				artifacts[format] = data
				continue
			}
		}
		missing = append(missing, format)
	}
	if len(missing) == 0 {
		return artifacts, true, nil
	}

	exportOpts := opts
	exportOpts.Formats = missing
	fresh, err := Export(ctx, snap, exportOpts)
	if err != nil {
		return nil, false, err
	}
	for format, data := range fresh {
		artifacts[format] = data
		r.set(ctx, keys[format], "artifact", data, cache.TTLArtifact)
	}
	return artifacts, false, nil
}

// get reads key from the cache. Backend failures are logged and count as
// a miss.
func (r *Runner) get(ctx context.Context, key, keyType string) ([]byte, bool) {
	var (
		data []byte
		hit  bool
	)
	err := cache.RetryWithBackoff(ctx, func() error {
		var err error
		data, hit, err = r.Cache.Get(ctx, key)
		return err
	})
	if err != nil {
		r.Logger.Warn("cache read failed", "key", key, "error", err)
		return nil, false
	}
	if hit {
		observability.Cache().OnCacheHit(ctx, keyType)
	} else {
		observability.Cache().OnCacheMiss(ctx, keyType)
	}
	return data, hit
}

// set writes key to the cache. Backend failures are logged and ignored.
func (r *Runner) set(ctx context.Context, key, keyType string, data []byte, ttl time.Duration) {
	err := cache.RetryWithBackoff(ctx, func() error {
		return r.Cache.Set(ctx, key, data, ttl)
	})
	if err != nil {
		r.Logger.Warn("cache write failed", "key", key, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// applyLogger gives stages without a logger the runner's logger.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

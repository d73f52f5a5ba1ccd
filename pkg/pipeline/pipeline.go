// Package pipeline provides the scene pipeline for Blockstack.
//
// This package implements the complete load → settle → export pipeline used
// by the CLI render command and the HTTP server. By centralizing this logic,
// both entry points produce identical geometry for the same scene and
// configuration.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Decode a TOML or JSON scene and validate it
//  2. Settle: Build the blocks in a fresh workspace, render every block,
//     then advance a virtual clock until deferred snap and bump work is done
//  3. Export: Write the settled snapshot as JSON, DOT or SVG
//
// The settled snapshot and each exported artifact are cached separately, so
// exporting a second format of an unchanged scene skips the settle stage.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    ScenePath: "scene.toml",
//	    Formats:   []string{"svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/blockstack/pkg/config"
	bserrors "github.com/matzehuels/blockstack/pkg/errors"
	"github.com/matzehuels/blockstack/pkg/scene"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultSettleLimit bounds the number of deferred callbacks run while
	// settling. A scene whose bumps keep rescheduling each other stops here.
	DefaultSettleLimit = 10000
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the scene pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Scene source. Exactly one of ScenePath and Scene is set. Scene holds
	// inline scene text in SceneFormat (toml or json).
	ScenePath   string `json:"scene_path,omitempty"`
	Scene       string `json:"scene,omitempty"`
	SceneFormat string `json:"scene_format,omitempty"`

	// Config is the workspace configuration. Nil means config.Default().
	Config *config.Config `json:"config,omitempty"`

	// Settle options
	SettleLimit int  `json:"settle_limit,omitempty"`
	SkipSettle  bool `json:"skip_settle,omitempty"` // Export geometry right after the initial render

	// Export options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"` // Add positions and sizes to DOT labels
	Refresh  bool     `json:"refresh,omitempty"`  // Ignore cached results

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the output of a pipeline run.
type Result struct {
	Snapshot    *scene.Snapshot
	Artifacts   map[string][]byte
	SnapshotKey string
	Stats       Stats
	CacheInfo   CacheInfo
}

// Stats contains timing and size information for a pipeline run.
type Stats struct {
	LoadTime   time.Duration
	SettleTime time.Duration
	ExportTime time.Duration
	BlockCount int
	Callbacks  int // Deferred callbacks run while settling
}

// CacheInfo reports which stages were served from the cache.
type CacheInfo struct {
	SnapshotHit bool
	ExportHit   bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return bserrors.New(bserrors.ErrCodeInvalidInput, "invalid format: %q (must be one of: json, dot, svg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if o.Config == nil {
		cfg := config.Default()
		o.Config = &cfg
	}
	if err := o.Config.ValidateAndSetDefaults(); err != nil {
		return err
	}
	if o.SettleLimit <= 0 {
		o.SettleLimit = DefaultSettleLimit
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks that a scene source is given.
func (o *Options) ValidateForLoad() error {
	switch {
	case o.ScenePath == "" && o.Scene == "":
		return bserrors.New(bserrors.ErrCodeInvalidInput, "scene or scene_path is required")
	case o.ScenePath != "" && o.Scene != "":
		return bserrors.New(bserrors.ErrCodeInvalidInput, "scene and scene_path are mutually exclusive")
	case o.Scene != "" && o.SceneFormat == "":
		o.SceneFormat = scene.FormatTOML
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// source names the scene for logs and hooks.
func (o *Options) source() string {
	if o.ScenePath != "" {
		return o.ScenePath
	}
	return fmt.Sprintf("inline %s scene", o.SceneFormat)
}

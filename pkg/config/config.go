// Package config holds the workspace configuration consumed by the block
// engine: grid settings, snap and bump parameters, debounce delays, host
// flags and the registry of visual style names.
//
// Configuration is normally loaded from a TOML file:
//
//	cfg, err := config.Load("blockstack.toml")
//	if err != nil {
//	    return err
//	}
//	ws := block.NewWorkspace(cfg, block.WithLogger(logger))
//
// Zero fields are replaced by the defaults from [Default], so a file only
// needs to mention the values it overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	bserrors "github.com/matzehuels/blockstack/pkg/errors"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultSnapRadius is the distance within which two connections are
	// considered close enough to bump.
	DefaultSnapRadius = 28.0

	// DefaultConnectingSnapRadius is the distance within which a dropped
	// block connects to a nearby connection.
	DefaultConnectingSnapRadius = 28.0

	// DefaultBumpDelay is the delay before neighbours are bumped after a
	// structural change. Grid snapping runs after half of it.
	DefaultBumpDelay = 250 * time.Millisecond

	// DefaultBumpRandomness is the upper bound of the random jitter added to
	// each bump so stacked bumps do not land on top of each other.
	DefaultBumpRandomness = 10

	// DefaultWarningDebounce is the retry interval for warning text changes
	// requested while a drag is in progress.
	DefaultWarningDebounce = 100 * time.Millisecond

	// DefaultCollapseChars is the maximum length of a collapsed summary.
	DefaultCollapseChars = 30

	// DefaultGridSpacing is used when snapping is enabled without a spacing.
	DefaultGridSpacing = 20.0

	// DefaultSeed seeds the bump jitter for reproducible runs.
	DefaultSeed = uint64(42)
)

// =============================================================================
// Config
// =============================================================================

// Config is the complete workspace configuration.
type Config struct {
	Grid GridConfig `toml:"grid" json:"grid"`

	SnapRadius           float64       `toml:"snap_radius" json:"snap_radius"`
	ConnectingSnapRadius float64       `toml:"connecting_snap_radius" json:"connecting_snap_radius"`
	BumpDelay            time.Duration `toml:"bump_delay" json:"bump_delay"`
	BumpRandomness       int           `toml:"bump_randomness" json:"bump_randomness"`
	WarningDebounce      time.Duration `toml:"warning_debounce" json:"warning_debounce"`
	CollapseChars        int           `toml:"collapse_chars" json:"collapse_chars"`
	Seed                 uint64        `toml:"seed" json:"seed"`

	// DragSurface enables the shared drag overlay. When disabled, dragged
	// stacks are translated in place.
	DragSurface bool `toml:"drag_surface" json:"drag_surface"`

	// Scale is the zoom factor of the canvas; Scroll is its pan offset in
	// pixels. Both only affect screen conversion, never workspace positions.
	Scale   float64 `toml:"scale" json:"scale"`
	ScrollX float64 `toml:"scroll_x" json:"scroll_x"`
	ScrollY float64 `toml:"scroll_y" json:"scroll_y"`

	Host HostFlags `toml:"host" json:"host"`

	// Styles maps style names to their primary colour.
	Styles map[string]Style `toml:"styles" json:"styles,omitempty"`

	// BumpRandomnessSet records that bump_randomness was given explicitly,
	// so that zero jitter can be requested.
	BumpRandomnessSet bool `toml:"-" json:"-"`

	validated bool
}

// GridConfig configures grid snapping.
type GridConfig struct {
	Spacing float64 `toml:"spacing" json:"spacing"`
	Snap    bool    `toml:"snap" json:"snap"`
}

// ShouldSnap reports whether blocks snap to the grid.
func (g GridConfig) ShouldSnap() bool { return g.Snap && g.Spacing > 0 }

// HostFlags describes the surface hosting the workspace.
type HostFlags struct {
	// ReadOnly disables user edits; geometry still updates.
	ReadOnly bool `toml:"read_only" json:"read_only"`
	// Template marks a non-interactive palette (flyout) workspace.
	Template bool `toml:"template" json:"template"`
	// KeyboardNav enables navigation markers that are redrawn after render.
	KeyboardNav bool `toml:"keyboard_nav" json:"keyboard_nav"`
	// Headless marks a workspace without a rendering surface.
	Headless bool `toml:"headless" json:"headless"`
	// RTL mirrors horizontal bump direction.
	RTL bool `toml:"rtl" json:"rtl"`
}

// Style is a named visual style.
type Style struct {
	Colour string `toml:"colour" json:"colour"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Grid:                 GridConfig{Spacing: DefaultGridSpacing},
		SnapRadius:           DefaultSnapRadius,
		ConnectingSnapRadius: DefaultConnectingSnapRadius,
		BumpDelay:            DefaultBumpDelay,
		BumpRandomness:       DefaultBumpRandomness,
		WarningDebounce:      DefaultWarningDebounce,
		CollapseChars:        DefaultCollapseChars,
		Seed:                 DefaultSeed,
		DragSurface:          true,
		Scale:                1,
		Styles:               DefaultStyles(),
	}
}

// DefaultStyles returns the built-in style registry.
func DefaultStyles() map[string]Style {
	return map[string]Style{
		"logic_blocks":     {Colour: "#5b80a5"},
		"loop_blocks":      {Colour: "#5ba55b"},
		"math_blocks":      {Colour: "#5b67a5"},
		"text_blocks":      {Colour: "#5ba58c"},
		"variable_blocks":  {Colour: "#a55b99"},
		"procedure_blocks": {Colour: "#995ba5"},
	}
}

// =============================================================================
// Validation
// =============================================================================

// ValidateAndSetDefaults fills zero values from [Default] and checks ranges.
// It is idempotent.
func (c *Config) ValidateAndSetDefaults() error {
	if c.validated {
		return nil
	}
	d := Default()
	if c.SnapRadius == 0 {
		c.SnapRadius = d.SnapRadius
	}
	if c.ConnectingSnapRadius == 0 {
		c.ConnectingSnapRadius = d.ConnectingSnapRadius
	}
	if c.BumpDelay == 0 {
		c.BumpDelay = d.BumpDelay
	}
	if c.BumpRandomness == 0 && !c.BumpRandomnessSet {
		c.BumpRandomness = d.BumpRandomness
	}
	if c.WarningDebounce == 0 {
		c.WarningDebounce = d.WarningDebounce
	}
	if c.CollapseChars == 0 {
		c.CollapseChars = d.CollapseChars
	}
	if c.Seed == 0 {
		c.Seed = d.Seed
	}
	if c.Scale == 0 {
		c.Scale = d.Scale
	}
	if c.Grid.Snap && c.Grid.Spacing == 0 {
		c.Grid.Spacing = DefaultGridSpacing
	}
	if c.Styles == nil {
		c.Styles = d.Styles
	}

	if err := c.Validate(); err != nil {
		return err
	}
	c.validated = true
	return nil
}

// Validate checks the configuration without modifying it.
func (c *Config) Validate() error {
	switch {
	case c.SnapRadius < 0:
		return bserrors.New(bserrors.ErrCodeInvalidConfig, "snap_radius must not be negative (got %v)", c.SnapRadius)
	case c.ConnectingSnapRadius < 0:
		return bserrors.New(bserrors.ErrCodeInvalidConfig, "connecting_snap_radius must not be negative (got %v)", c.ConnectingSnapRadius)
	case c.BumpDelay < 0:
		return bserrors.New(bserrors.ErrCodeInvalidConfig, "bump_delay must not be negative (got %v)", c.BumpDelay)
	case c.BumpRandomness < 0:
		return bserrors.New(bserrors.ErrCodeInvalidConfig, "bump_randomness must not be negative (got %d)", c.BumpRandomness)
	case c.WarningDebounce < 0:
		return bserrors.New(bserrors.ErrCodeInvalidConfig, "warning_debounce must not be negative (got %v)", c.WarningDebounce)
	case c.Scale <= 0:
		return bserrors.New(bserrors.ErrCodeInvalidConfig, "scale must be positive (got %v)", c.Scale)
	case c.Grid.Spacing < 0:
		return bserrors.New(bserrors.ErrCodeInvalidConfig, "grid.spacing must not be negative (got %v)", c.Grid.Spacing)
	}
	for name := range c.Styles {
		if err := bserrors.ValidateStyleName(name); err != nil {
			return err
		}
	}
	return nil
}

// HasStyle reports whether name is a registered style.
func (c *Config) HasStyle(name string) bool {
	_, ok := c.Styles[name]
	return ok
}

// =============================================================================
// Loading
// =============================================================================

// Load reads a TOML configuration file and applies defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, bserrors.Wrap(bserrors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes TOML configuration data and applies defaults.
func Parse(data []byte) (Config, error) {
	cfg := Config{DragSurface: true}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, bserrors.Wrap(bserrors.ErrCodeInvalidConfig, err, "decode config")
	}
	cfg.BumpRandomnessSet = md.IsDefined("bump_randomness")
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// NoJitter disables the random bump jitter, for reproducible layouts.
func (c *Config) NoJitter() {
	c.BumpRandomness = 0
	c.BumpRandomnessSet = true
}

package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/blockstack/pkg/cache"
	"github.com/matzehuels/blockstack/pkg/config"
	bserrors "github.com/matzehuels/blockstack/pkg/errors"
	"github.com/matzehuels/blockstack/pkg/geom"
)

// pairTOML places b so close below a that a's next connection and b's
// previous connection are within the snap radius.
const pairTOML = `
[[blocks]]
id = "a"
type = "print"
previous = true
next = true
  [[blocks.inputs]]
  name = "TEXT"
  kind = "dummy"
  fields = [{ text = "print" }]

[[blocks]]
id = "b"
type = "print"
x = 5
y = 30
previous = true
next = true
  [[blocks.inputs]]
  name = "TEXT"
  kind = "dummy"
  fields = [{ text = "print" }]
`

func quietConfig() *config.Config {
	cfg := config.Default()
	cfg.NoJitter()
	return &cfg
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"dot", false},
		{"svg", false},
		{"png", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestOptionsValidateAndSetDefaults(t *testing.T) {
	var empty Options
	if err := empty.ValidateAndSetDefaults(); !bserrors.Is(err, bserrors.ErrCodeInvalidInput) {
		t.Errorf("missing scene: err = %v, want INVALID_INPUT", err)
	}

	both := Options{ScenePath: "scene.toml", Scene: pairTOML}
	if err := both.ValidateAndSetDefaults(); err == nil {
		t.Error("scene and scene_path together should fail")
	}

	bad := Options{Scene: pairTOML, Formats: []string{"png"}}
	if err := bad.ValidateAndSetDefaults(); err == nil {
		t.Error("unknown format should fail")
	}

	opts := Options{Scene: pairTOML}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if opts.SceneFormat != "toml" {
		t.Errorf("SceneFormat = %q, want toml", opts.SceneFormat)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatJSON {
		t.Errorf("Formats = %v, want [json]", opts.Formats)
	}
	if opts.Config == nil || opts.SettleLimit != DefaultSettleLimit || opts.Logger == nil {
		t.Error("defaults not applied")
	}
}

func TestExecuteBumpsNeighbours(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), Options{
		Scene:   pairTOML,
		Config:  quietConfig(),
		Formats: []string{FormatJSON, FormatDOT},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	a, _ := res.Snapshot.Block("a")
	b, _ := res.Snapshot.Block("b")
	if a.Position != geom.Pt(0, 0) {
		t.Errorf("a at %v, want (0, 0)", a.Position)
	}
	// b's previous connection ends one snap radius right of and below a's
	// next connection at (16, 24).
	if b.Position != geom.Pt(28, 52) {
		t.Errorf("b at %v, want (28, 52)", b.Position)
	}
	// Two snaps and two bumps.
	if res.Stats.Callbacks != 4 {
		t.Errorf("Callbacks = %d, want 4", res.Stats.Callbacks)
	}
	if res.Stats.BlockCount != 2 {
		t.Errorf("BlockCount = %d, want 2", res.Stats.BlockCount)
	}
	if !strings.Contains(string(res.Artifacts[FormatJSON]), `"id": "b"`) {
		t.Error("json artifact missing block b")
	}
	if !strings.HasPrefix(string(res.Artifacts[FormatDOT]), "digraph Workspace {") {
		t.Error("dot artifact is not a digraph")
	}
}

func TestExecuteSkipSettle(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), Options{
		Scene:      pairTOML,
		Config:     quietConfig(),
		SkipSettle: true,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if b, _ := res.Snapshot.Block("b"); b.Position != geom.Pt(5, 30) {
		t.Errorf("b at %v, want (5, 30)", b.Position)
	}
	if res.Stats.Callbacks != 0 {
		t.Errorf("Callbacks = %d, want 0", res.Stats.Callbacks)
	}
}

func TestExecuteSnapsToGrid(t *testing.T) {
	cfg := quietConfig()
	cfg.Grid = config.GridConfig{Snap: true, Spacing: 20}
	scene := `
[[blocks]]
id = "a"
type = "print"
x = 13
y = 27
`
	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), Options{Scene: scene, Config: cfg})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	// Grid points sit at odd multiples of half the spacing.
	if a, _ := res.Snapshot.Block("a"); a.Position != geom.Pt(10, 30) {
		t.Errorf("a at %v, want (10, 30)", a.Position)
	}
}

func TestExecuteCaches(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	r := NewRunner(c, nil, nil)
	opts := Options{Scene: pairTOML, Config: quietConfig(), Formats: []string{FormatJSON, FormatDOT}}

	first, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if first.CacheInfo.SnapshotHit || first.CacheInfo.ExportHit {
		t.Error("first run should miss the cache")
	}

	second, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !second.CacheInfo.SnapshotHit || !second.CacheInfo.ExportHit {
		t.Errorf("second run cache info = %+v, want all hits", second.CacheInfo)
	}
	if second.SnapshotKey != first.SnapshotKey {
		t.Error("snapshot key changed between identical runs")
	}
	if string(second.Artifacts[FormatDOT]) != string(first.Artifacts[FormatDOT]) {
		t.Error("cached dot artifact differs")
	}
	if b, _ := second.Snapshot.Block("b"); b.Position != geom.Pt(28, 52) {
		t.Errorf("cached b at %v, want (28, 52)", b.Position)
	}

	// A different configuration gets its own snapshot.
	other := opts
	other.Config = quietConfig()
	other.Config.SnapRadius = 10
	third, err := r.Execute(ctx, other)
	if err != nil {
		t.Fatalf("third Execute: %v", err)
	}
	if third.CacheInfo.SnapshotHit || third.SnapshotKey == first.SnapshotKey {
		t.Error("changed config should not reuse the snapshot")
	}

	refresh := opts
	refresh.Config = quietConfig()
	refresh.Refresh = true
	fourth, err := r.Execute(ctx, refresh)
	if err != nil {
		t.Fatalf("refresh Execute: %v", err)
	}
	if fourth.CacheInfo.SnapshotHit || fourth.CacheInfo.ExportHit {
		t.Error("refresh should bypass the cache")
	}
}

func TestExecuteScenePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.toml")
	if err := os.WriteFile(path, []byte(pairTOML), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), Options{ScenePath: path, Config: quietConfig()})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(res.Snapshot.Blocks) != 2 {
		t.Errorf("got %d blocks, want 2", len(res.Snapshot.Blocks))
	}

	_, err = NewRunner(nil, nil, nil).Execute(context.Background(), Options{ScenePath: filepath.Join(t.TempDir(), "missing.toml")})
	if !bserrors.Is(err, bserrors.ErrCodeFileNotFound) {
		t.Errorf("missing scene err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	if _, err := Export(context.Background(), nil, Options{Formats: []string{"png"}}); err == nil {
		t.Error("Export should reject png")
	}
}

package scene

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/blockstack/pkg/block"
	"github.com/matzehuels/blockstack/pkg/config"
	bserrors "github.com/matzehuels/blockstack/pkg/errors"
	"github.com/matzehuels/blockstack/pkg/geom"
)

const loopTOML = `
[[blocks]]
id = "loop"
type = "controls_repeat"
x = 40
y = 40
previous = true
next = true
style = "loop_blocks"

  [[blocks.inputs]]
  name = "TIMES"
  kind = "value"
  fields = [{ text = "repeat" }]

    [blocks.inputs.block]
    id = "n"
    type = "math_number"
    output = true

      [[blocks.inputs.block.inputs]]
      name = "NUM"
      kind = "dummy"
      fields = [{ name = "NUM", text = "10" }]

  [[blocks.inputs]]
  name = "DO"
  kind = "statement"

    [blocks.inputs.block]
    id = "say"
    type = "print"
    previous = true
    next = true
    comment = "hello"

[[blocks]]
id = "lonely"
type = "print"
x = 300
y = 10
previous = true
next = true
collapsed = true
warnings = { w = "unused" }

  [[blocks.inputs]]
  name = "TEXT"
  kind = "dummy"
  fields = [{ text = "print" }]
`

func newWorkspace(t *testing.T) *block.Workspace {
	t.Helper()
	cfg := config.Default()
	cfg.NoJitter()
	ws, err := block.NewWorkspace(cfg)
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	return ws
}

func mustParse(t *testing.T) *Scene {
	t.Helper()
	s, err := Parse([]byte(loopTOML), FormatTOML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return s
}

func TestReadTOML(t *testing.T) {
	s := mustParse(t)
	if got := len(s.Blocks); got != 2 {
		t.Fatalf("got %d top blocks, want 2", got)
	}
	if got := s.Len(); got != 4 {
		t.Errorf("Len() = %d, want 4", got)
	}
	if s.Blocks[0].Inputs[0].Block.Inputs[0].Fields[0].Text != "10" {
		t.Error("nested field not decoded")
	}
}

func TestReadRejectsUnknownKeys(t *testing.T) {
	if _, err := Parse([]byte("[[blocks]]\ntype = \"a\"\ncolour = \"red\"\n"), FormatTOML); !bserrors.Is(err, bserrors.ErrCodeInvalidFormat) {
		t.Errorf("TOML err = %v, want INVALID_FORMAT", err)
	}
	if _, err := Parse([]byte(`{"blocks":[{"type":"a","colour":"red"}]}`), FormatJSON); !bserrors.Is(err, bserrors.ErrCodeInvalidFormat) {
		t.Errorf("JSON err = %v, want INVALID_FORMAT", err)
	}
	if _, err := Parse(nil, "yaml"); !bserrors.Is(err, bserrors.ErrCodeUnsupported) {
		t.Errorf("yaml err = %v, want UNSUPPORTED", err)
	}
}

func TestValidate(t *testing.T) {
	value := &BlockSpec{Type: "v", Output: true}
	stmt := &BlockSpec{Type: "s", Previous: true}
	tests := []struct {
		name  string
		scene Scene
	}{
		{"MissingType", Scene{Blocks: []BlockSpec{{ID: "a"}}}},
		{"DuplicateID", Scene{Blocks: []BlockSpec{{ID: "a", Type: "t"}, {ID: "a", Type: "t"}}}},
		{"BadID", Scene{Blocks: []BlockSpec{{ID: "a b", Type: "t"}}}},
		{"OutputAndPrevious", Scene{Blocks: []BlockSpec{{Type: "t", Output: true, Previous: true}}}},
		{"UnknownKind", Scene{Blocks: []BlockSpec{{Type: "t", Inputs: []InputSpec{{Name: "X", Kind: "socket"}}}}}},
		{"UnnamedInput", Scene{Blocks: []BlockSpec{{Type: "t", Inputs: []InputSpec{{Kind: KindDummy}}}}}},
		{"DuplicateInput", Scene{Blocks: []BlockSpec{{Type: "t", Inputs: []InputSpec{{Name: "X", Kind: KindDummy}, {Name: "X", Kind: KindDummy}}}}}},
		{"DummyWithBlock", Scene{Blocks: []BlockSpec{{Type: "t", Inputs: []InputSpec{{Name: "X", Kind: KindDummy, Block: value}}}}}},
		{"ValueNeedsOutput", Scene{Blocks: []BlockSpec{{Type: "t", Inputs: []InputSpec{{Name: "X", Kind: KindValue, Block: stmt}}}}}},
		{"StatementNeedsPrevious", Scene{Blocks: []BlockSpec{{Type: "t", Inputs: []InputSpec{{Name: "X", Kind: KindStatement, Block: value}}}}}},
		{"NextWithoutConnection", Scene{Blocks: []BlockSpec{{Type: "t", NextBlock: stmt}}}},
		{"NextNeedsPrevious", Scene{Blocks: []BlockSpec{{Type: "t", Next: true, NextBlock: value}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.scene.Validate()
			if !bserrors.Is(err, bserrors.ErrCodeInvalidScene) {
				t.Errorf("Validate() = %v, want INVALID_SCENE", err)
			}
		})
	}

	if err := mustParse(t).Validate(); err != nil {
		t.Errorf("valid scene rejected: %v", err)
	}
}

func TestBuild(t *testing.T) {
	ws := newWorkspace(t)
	tops, err := Build(ws, mustParse(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(tops) != 2 || tops[0].ID() != "loop" || tops[1].ID() != "lonely" {
		t.Fatalf("unexpected top blocks")
	}
	if ws.Len() != 4 {
		t.Errorf("workspace has %d blocks, want 4", ws.Len())
	}

	loop, n, say := ws.Block("loop"), ws.Block("n"), ws.Block("say")
	if n.Parent() != loop || say.Parent() != loop {
		t.Fatal("children not connected")
	}
	if got := loop.Position(); got != geom.Pt(40, 40) {
		t.Errorf("loop at %v, want (40, 40)", got)
	}
	if got := n.Position(); got != geom.Pt(40+block.FixedWidth, 40) {
		t.Errorf("n at %v, want (160, 40)", got)
	}
	if got := say.Position(); got != geom.Pt(40+block.FixedIndent, 40+block.FixedRowHeight) {
		t.Errorf("say at %v, want (60, 64)", got)
	}
	if loop.Colour() != "#5ba55b" {
		t.Errorf("loop colour = %q", loop.Colour())
	}
	if say.CommentText() != "hello" {
		t.Errorf("say comment = %q", say.CommentText())
	}

	lonely := ws.Block("lonely")
	if !lonely.Collapsed() || lonely.WarningText() != "unused" {
		t.Error("state not applied to lonely")
	}
}

func TestBuildHeadless(t *testing.T) {
	cfg := config.Default()
	cfg.Host.Headless = true
	ws, err := block.NewWorkspace(cfg)
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	tops, err := Build(ws, mustParse(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(tops) != 2 || ws.Block("say").Parent() != ws.Block("loop") {
		t.Error("headless build should still connect the tree")
	}
}

func TestTake(t *testing.T) {
	ws := newWorkspace(t)
	if _, err := Build(ws, mustParse(t)); err != nil {
		t.Fatalf("Build: %v", err)
	}
	snap := Take(ws)

	if len(snap.Blocks) != 4 {
		t.Fatalf("snapshot has %d blocks, want 4", len(snap.Blocks))
	}
	loop, ok := snap.Block("loop")
	if !ok {
		t.Fatal("loop missing from snapshot")
	}
	var do *ConnectionState
	for i := range loop.Connections {
		if loop.Connections[i].Input == "DO" {
			do = &loop.Connections[i]
		}
	}
	if do == nil || do.Target != "say" || !do.Tracked {
		t.Errorf("DO connection = %+v, want tracked with target say", do)
	}

	lonely, _ := snap.Block("lonely")
	if lonely.Summary != "print" {
		t.Errorf("summary = %q, want %q", lonely.Summary, "print")
	}
	if snap.Bounds.Right <= snap.Bounds.Left {
		t.Error("bounds not captured")
	}

	var buf bytes.Buffer
	if err := WriteJSON(snap, &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	back, err := ReadSnapshot(&buf)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if got, _ := back.Block("say"); got.Position != geom.Pt(60, 64) || got.Parent != "loop" {
		t.Errorf("decoded say = %+v", got)
	}
}

func TestToDOT(t *testing.T) {
	ws := newWorkspace(t)
	if _, err := Build(ws, mustParse(t)); err != nil {
		t.Fatalf("Build: %v", err)
	}
	dot := ToDOT(Take(ws), DOTOptions{Detailed: true})

	for _, want := range []string{
		"digraph Workspace {",
		`"loop" -> "say" [label="DO"];`,
		`"loop" -> "n" [label="TIMES"];`,
		`fillcolor="#5ba55b"`,
		`style="rounded,filled,dashed"`,
		`at (40, 40)`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q", want)
		}
	}
	if !strings.HasSuffix(dot, "}\n") {
		t.Error("ToDOT() should end with '}'")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.json")
	if err := os.WriteFile(path, []byte(`{"blocks":[{"id":"a","type":"print","previous":true}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(s.Blocks) != 1 || s.Blocks[0].ID != "a" {
		t.Errorf("unexpected scene %+v", s)
	}

	if _, err := Load(filepath.Join(dir, "missing.toml")); !bserrors.Is(err, bserrors.ErrCodeFileNotFound) {
		t.Errorf("missing file err = %v, want FILE_NOT_FOUND", err)
	}
	if _, err := Load(filepath.Join(dir, "scene.yaml")); !bserrors.Is(err, bserrors.ErrCodeUnsupported) {
		t.Errorf("yaml err = %v, want UNSUPPORTED", err)
	}
}

package layout

import (
	"testing"

	"github.com/matzehuels/blockstack/pkg/block"
	"github.com/matzehuels/blockstack/pkg/config"
	bserrors "github.com/matzehuels/blockstack/pkg/errors"
	"github.com/matzehuels/blockstack/pkg/geom"
)

func newWorkspace(t *testing.T, e *Engine) *block.Workspace {
	t.Helper()
	ws, err := block.NewWorkspace(config.Default(), block.WithLayoutEngine(e))
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	return ws
}

func newBlock(t *testing.T, ws *block.Workspace, typ string) *block.Block {
	t.Helper()
	b, err := ws.NewBlock(typ)
	if err != nil {
		t.Fatalf("NewBlock: %v", err)
	}
	return b
}

func render(t *testing.T, ws *block.Workspace) {
	t.Helper()
	if err := ws.RenderAll(); err != nil {
		t.Fatalf("RenderAll: %v", err)
	}
}

func assertSize(t *testing.T, b *block.Block, h, w float64) {
	t.Helper()
	if gh, gw := b.Size(); gh != h || gw != w {
		t.Errorf("size = (%v, %v), want (%v, %v)", gh, gw, h, w)
	}
}

func TestTextWidth(t *testing.T) {
	m := DefaultMetrics()
	tests := []struct {
		text string
		want float64
	}{
		{"", 0},
		{"abc", 24},
		{"日本", 32},
		{"é", 8},
		{"é", 8},
	}
	for _, tt := range tests {
		if got := m.TextWidth(tt.text); got != tt.want {
			t.Errorf("TextWidth(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestDummyRow(t *testing.T) {
	ws := newWorkspace(t, New())
	b := newBlock(t, ws, "print")
	b.AppendDummyInput("L").AppendField("print", "")
	render(t, ws)

	// 8 padding + 5 cells * 8 + 8 padding
	assertSize(t, b, 24, 56)
	want := block.Shape{geom.Pt(0, 0), geom.Pt(56, 0), geom.Pt(56, 24), geom.Pt(0, 24)}
	got := b.Shape()
	if len(got) != len(want) {
		t.Fatalf("shape has %d points, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("shape[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestValueSocketsAlign(t *testing.T) {
	ws := newWorkspace(t, New())
	b := newBlock(t, ws, "if")
	first := b.AppendValueInput("IF").AppendField("if", "")
	second := b.AppendValueInput("ELSEIF").AppendField("else if", "")
	render(t, ws)

	assertSize(t, b, 48, 72+DefaultMetrics().EmptySocket)
	if got := first.Connection().Offset(); got != geom.Pt(72, 0) {
		t.Errorf("first socket = %v, want (72, 0)", got)
	}
	if got := second.Connection().Offset(); got != geom.Pt(72, 24) {
		t.Errorf("second socket = %v, want (72, 24)", got)
	}
}

func TestWideTextWidensBlock(t *testing.T) {
	ws := newWorkspace(t, New())
	b := newBlock(t, ws, "label")
	b.AppendDummyInput("L").AppendField("日本", "")
	render(t, ws)

	assertSize(t, b, 24, 48)
}

func TestStatementMouth(t *testing.T) {
	ws := newWorkspace(t, New())
	p := newBlock(t, ws, "repeat")
	do := p.AppendStatementInput("DO").AppendField("do", "")
	s := newBlock(t, ws, "x")
	if err := s.SetPreviousStatement(true); err != nil {
		t.Fatal(err)
	}
	if err := s.SetNextStatement(true); err != nil {
		t.Fatal(err)
	}
	s.AppendDummyInput("L").AppendField("x", "")
	if err := do.Connection().Connect(s.Previous()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	render(t, ws)

	assertSize(t, s, 24, 40)
	assertSize(t, p, 32, 64)
	if got := do.Connection().Offset(); got != geom.Pt(40, 0) {
		t.Errorf("mouth connection = %v, want (40, 0)", got)
	}
	if got := s.Position(); got != geom.Pt(24, 0) {
		t.Errorf("nested block at %v, want (24, 0)", got)
	}

	want := block.Shape{
		geom.Pt(0, 0), geom.Pt(40, 0),
		geom.Pt(40, 0), geom.Pt(24, 0), geom.Pt(24, 24), geom.Pt(40, 24),
		geom.Pt(40, 32), geom.Pt(0, 32),
	}
	got := p.Shape()
	if len(got) != len(want) {
		t.Fatalf("shape has %d points, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("shape[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestHiddenRowsAreSkipped(t *testing.T) {
	ws := newWorkspace(t, New())
	b := newBlock(t, ws, "b")
	b.AppendDummyInput("A").AppendField("a", "")
	b.AppendDummyInput("B").AppendField("a very long label", "").SetVisible(false)
	render(t, ws)

	assertSize(t, b, 24, 40)
}

func TestCollapsedShapeIsJagged(t *testing.T) {
	ws := newWorkspace(t, New())
	b := newBlock(t, ws, "b")
	b.AppendDummyInput("A").AppendField("abc", "")
	b.AppendValueInput("V")
	render(t, ws)

	b.SetCollapsed(true)
	h, w := b.Size()
	if h != 24 {
		t.Errorf("collapsed height = %v, want 24", h)
	}
	shape := b.Shape()
	teeth := DefaultMetrics().JaggedTeeth
	if got, want := shape[2], geom.Pt(w+teeth/2, teeth/2); got != want {
		t.Errorf("first tooth = %v, want %v", got, want)
	}
}

func TestInvalidMetricsFailRender(t *testing.T) {
	m := DefaultMetrics()
	m.RowHeight = 0
	ws := newWorkspace(t, New(WithMetrics(m)))
	b := newBlock(t, ws, "b")

	err := b.Render(true)
	if !bserrors.Is(err, bserrors.ErrCodeLayout) {
		t.Errorf("err = %v, want LAYOUT_FAILED", err)
	}
}

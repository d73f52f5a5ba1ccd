package block

import (
	"testing"

	"github.com/matzehuels/blockstack/pkg/geom"
)

// ifBlock builds a rendered "if true / do print" block with a hidden
// EXTRA row.
func ifBlock(t *testing.T, ws *Workspace) (ifb, v, s *Block) {
	t.Helper()
	ifb, err := ws.NewBlock("controls_if", WithBlockID("if"))
	if err != nil {
		t.Fatalf("NewBlock: %v", err)
	}
	ifb.AppendDummyInput("LABEL").AppendField("if", "")
	cond := ifb.AppendValueInput("COND")
	do := ifb.AppendStatementInput("DO")
	ifb.AppendDummyInput("EXTRA").SetVisible(false)

	v = value(t, ws, "v")
	v.AppendDummyInput("LABEL").AppendField("true", "BOOL")
	s = statement(t, ws, "s")
	s.AppendDummyInput("LABEL").AppendField("print", "TEXT")

	mustConnect(t, cond.Connection(), v.Output())
	mustConnect(t, do.Connection(), s.Previous())
	mustRenderAll(t, ws)
	return ifb, v, s
}

func assertSize(t *testing.T, b *Block, h, w float64) {
	t.Helper()
	if gh, gw := b.Size(); gh != h || gw != w {
		t.Errorf("%s size = (%v, %v), want (%v, %v)", b.ID(), gh, gw, h, w)
	}
}

func TestCollapseRoundTrip(t *testing.T) {
	ws, _, rec := newTestWorkspace(t)
	ifb, v, s := ifBlock(t, ws)
	cond := ifb.Input("COND").Connection()
	do := ifb.Input("DO").Connection()

	assertSize(t, ifb, 80, 240)
	assertPos(t, "v", v.Position(), geom.Pt(120, 24))
	assertPos(t, "s", s.Position(), geom.Pt(20, 48))

	ifb.SetCollapsed(true)

	if !ifb.Collapsed() {
		t.Fatal("block should be collapsed")
	}
	assertSize(t, ifb, FixedRowHeight, FixedWidth)
	if got := ifb.Field(CollapsedFieldName); got == nil || got.Text() != "if true print" {
		t.Errorf("summary field = %v, want %q", got, "if true print")
	}
	for _, c := range []*Connection{cond, do, v.Output(), s.Previous(), s.Next()} {
		if !c.Hidden() || c.Tracked() {
			t.Errorf("%s of %s should be hidden and untracked", c.Type(), c.Block().ID())
		}
		if ws.ConnectionDB(c.Type()).Contains(c) {
			t.Errorf("%s of %s still in database", c.Type(), c.Block().ID())
		}
	}
	if !v.Element().Hidden() || !s.Element().Hidden() {
		t.Error("child elements should be hidden")
	}
	if len(rec.OfKind(KindChange)) == 0 {
		t.Error("expected a change event")
	}

	// Tracking a collapsed block never reaches its hidden inputs.
	ifb.SetConnectionTracking(false)
	ifb.SetConnectionTracking(true)
	if cond.Tracked() || do.Tracked() {
		t.Error("hidden input connections were tracked")
	}

	ifb.SetCollapsed(false)

	if ifb.Input(CollapsedInputName) != nil {
		t.Error("summary row should be removed")
	}
	if ifb.Input("EXTRA").Visible() {
		t.Error("EXTRA should stay hidden after expanding")
	}
	if !ifb.Input("COND").Visible() || !ifb.Input("DO").Visible() {
		t.Error("COND and DO should be visible again")
	}
	for _, c := range []*Connection{cond, do, v.Output(), s.Previous(), s.Next()} {
		if c.Hidden() || !c.Tracked() {
			t.Errorf("%s of %s should be visible and tracked", c.Type(), c.Block().ID())
		}
	}
	if v.Element().Hidden() || s.Element().Hidden() {
		t.Error("child elements should be shown")
	}
	assertSize(t, ifb, 80, 240)
	assertPos(t, "v", v.Position(), geom.Pt(120, 24))
	assertPos(t, "s", s.Position(), geom.Pt(20, 48))
	assertPos(t, "v.output", v.Output().Position(), cond.Position())
}

func TestCollapseIsNoopWhenUnchanged(t *testing.T) {
	ws, _, rec := newTestWorkspace(t)
	ifb, _, _ := ifBlock(t, ws)
	rec.Reset()

	ifb.SetCollapsed(false)
	if len(rec.Events) != 0 {
		t.Errorf("got %d events, want 0", len(rec.Events))
	}
}

func TestCollapseRoundTripUnrendered(t *testing.T) {
	ws, _, _ := newTestWorkspace(t)
	b := statement(t, ws, "b")
	b.AppendStatementInput("BODY")
	b.AppendDummyInput("HIDDEN").SetVisible(false)

	b.SetCollapsed(true)
	b.SetCollapsed(false)

	if b.Rendered() {
		t.Fatal("block should not have been rendered")
	}
	if b.Input("HIDDEN").Visible() {
		t.Error("HIDDEN should stay hidden after expanding")
	}
	if !b.Input("BODY").Visible() {
		t.Error("BODY should stay visible")
	}
	if b.Input(CollapsedInputName) != nil {
		t.Error("summary row left behind")
	}
}

func TestExpandKeepsNestedCollapsedHidden(t *testing.T) {
	ws, _, _ := newTestWorkspace(t)
	outer, err := ws.NewBlock("outer", WithBlockID("outer"))
	if err != nil {
		t.Fatalf("NewBlock: %v", err)
	}
	do := outer.AppendStatementInput("DO")
	inner := statement(t, ws, "inner")
	arg := inner.AppendValueInput("ARG")
	w := value(t, ws, "w")
	mustConnect(t, do.Connection(), inner.Previous())
	mustConnect(t, arg.Connection(), w.Output())
	mustRenderAll(t, ws)

	inner.SetCollapsed(true)
	outer.SetCollapsed(true)
	outer.SetCollapsed(false)

	if inner.Previous().Hidden() || inner.Next().Hidden() {
		t.Error("inner's statement connections should be revealed")
	}
	if !arg.Connection().Hidden() || !w.Output().Hidden() {
		t.Error("connections inside the collapsed inner block should stay hidden")
	}
	if arg.Visible() {
		t.Error("ARG row should stay hidden")
	}
}

func TestAppendInputToCollapsedBlockIsHidden(t *testing.T) {
	ws, _, _ := newTestWorkspace(t)
	ifb, _, _ := ifBlock(t, ws)
	ifb.SetCollapsed(true)

	in := ifb.AppendValueInput("LATE")
	if in.Visible() || !in.Connection().Hidden() {
		t.Error("input added while collapsed should be hidden")
	}

	ifb.SetCollapsed(false)
	if !in.Visible() {
		t.Error("input added while collapsed should show after expanding")
	}
}

func TestCollapsedAncestorGetsWarning(t *testing.T) {
	ws, _, _ := newTestWorkspace(t)
	ifb, v, _ := ifBlock(t, ws)
	ifb.SetCollapsed(true)

	v.SetWarningText("not a boolean", "type")
	if got := ifb.WarningText(); got != CollapsedWarningText {
		t.Errorf("ancestor warning = %q, want %q", got, CollapsedWarningText)
	}
	if got := v.WarningText(); got != "not a boolean" {
		t.Errorf("child warning = %q", got)
	}

	ifb.SetCollapsed(false)
	if got := ifb.WarningText(); got != "" {
		t.Errorf("ancestor warning after expand = %q, want empty", got)
	}
}

func TestDefaultSummary(t *testing.T) {
	ws, _, _ := newTestWorkspace(t)
	ifb, _, _ := ifBlock(t, ws)

	empty, _ := ws.NewBlock("empty")
	socket, _ := ws.NewBlock("socket")
	socket.AppendDummyInput("L").AppendField("print", "")
	socket.AppendValueInput("ARG")
	wide, _ := ws.NewBlock("wide")
	wide.AppendDummyInput("L").AppendField("héllo wörld", "")

	tests := []struct {
		name     string
		block    *Block
		maxChars int
		want     string
	}{
		{"Nested", ifb, 30, "if true print"},
		{"Empty", empty, 30, EmptyBlockText},
		{"EmptySocket", socket, 30, "print ?"},
		{"Truncated", ifb, 8, "if tr..."},
		{"RuneAware", wide, 7, "héll..."},
		{"Unlimited", ifb, 0, "if true print"},
		{"TinyLimit", ifb, 2, "if"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultSummary(tt.block, tt.maxChars); got != tt.want {
				t.Errorf("DefaultSummary() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCustomSummarizer(t *testing.T) {
	cfgSum := func(b *Block, _ int) string { return "<" + b.Type() + ">" }
	ws, _, _ := newTestWorkspace(t)
	ws.sum = cfgSum
	ifb, _, _ := ifBlock(t, ws)

	ifb.SetCollapsed(true)
	if got := ifb.Field(CollapsedFieldName).Text(); got != "<controls_if>" {
		t.Errorf("summary = %q", got)
	}
}

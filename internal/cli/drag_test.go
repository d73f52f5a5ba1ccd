package cli

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/blockstack/pkg/config"
	"github.com/matzehuels/blockstack/pkg/geom"
	"github.com/matzehuels/blockstack/pkg/pipeline"
)

const farApartScene = `
[[blocks]]
id = "a"
type = "print"
previous = true
next = true

[[blocks]]
id = "b"
type = "print"
x = 200
y = 200
previous = true
next = true
`

func newTestDragModel(t *testing.T) DragModel {
	t.Helper()
	cfg := config.Default()
	cfg.NoJitter()
	opts := pipeline.Options{Scene: farApartScene, Config: &cfg}
	ctx := context.Background()
	s, err := pipeline.Load(ctx, opts)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	ws, _, err := pipeline.Settle(ctx, s, opts)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	return NewDragModel(ws)
}

func press(m DragModel, keys ...tea.KeyMsg) DragModel {
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(DragModel)
	}
	return m
}

func repeat(k tea.KeyMsg, n int) []tea.KeyMsg {
	out := make([]tea.KeyMsg, n)
	for i := range out {
		out[i] = k
	}
	return out
}

var (
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyLeft  = tea.KeyMsg{Type: tea.KeyLeft}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyHeal  = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'h'}}
)

func TestDragModelSelection(t *testing.T) {
	m := newTestDragModel(t)
	if len(m.IDs) != 2 || m.IDs[0] != "a" || m.IDs[1] != "b" {
		t.Fatalf("IDs = %v, want [a b]", m.IDs)
	}
	m = press(m, keyTab)
	if m.Cursor != 1 {
		t.Errorf("Cursor = %d, want 1", m.Cursor)
	}
	m = press(m, keyTab)
	if m.Cursor != 0 {
		t.Errorf("Cursor = %d, want 0 after wrapping", m.Cursor)
	}
	m = press(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.Cursor != 1 {
		t.Errorf("Cursor = %d, want 1 after shift+tab", m.Cursor)
	}
	m = press(m, keyHeal)
	if !m.Heal {
		t.Error("h should toggle heal on")
	}
}

func TestDragModelDropConnects(t *testing.T) {
	m := press(newTestDragModel(t), keyTab, keyEnter)
	if !m.Dragging() {
		t.Fatal("enter should pick up b")
	}
	// Tab is ignored while dragging.
	m = press(m, keyTab)
	if m.Cursor != 1 {
		t.Errorf("Cursor = %d, want 1 while dragging", m.Cursor)
	}

	m = press(m, repeat(keyLeft, 20)...)
	m = press(m, repeat(keyUp, 18)...)
	// b's previous connection ends at (16, 20), 4 units above a's next
	// connection.
	m = press(m, keyEnter)
	if m.Dragging() {
		t.Fatal("enter should drop b")
	}
	if m.Err != nil {
		t.Fatalf("drop error: %v", m.Err)
	}

	b := m.WS.Block("b")
	if p := b.Parent(); p == nil || p.ID() != "a" {
		t.Fatalf("b parent = %v, want a", p)
	}
	if got := b.Position(); got != geom.Pt(0, 24) {
		t.Errorf("b at %v, want (0, 24)", got)
	}
	if m.IDs[m.Cursor] != "b" {
		t.Errorf("cursor on %q, want b", m.IDs[m.Cursor])
	}
	if !strings.Contains(m.Status, "into a") {
		t.Errorf("Status = %q", m.Status)
	}
}

func TestDragModelEscCancels(t *testing.T) {
	m := press(newTestDragModel(t), keyTab, keyEnter)
	m = press(m, repeat(keyRight, 3)...)
	m = press(m, keyEsc)
	if m.Dragging() {
		t.Fatal("esc should end the drag")
	}
	if got := m.WS.Block("b").Position(); got != geom.Pt(200, 200) {
		t.Errorf("b at %v, want (200, 200)", got)
	}
}

func TestDragModelView(t *testing.T) {
	m := newTestDragModel(t)
	view := m.View()
	for _, want := range []string{"Drag Blocks", "a", "b", "heal stack: off"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

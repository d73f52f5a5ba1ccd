package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/blockstack/pkg/block"
	"github.com/matzehuels/blockstack/pkg/clock"
	"github.com/matzehuels/blockstack/pkg/geom"
	"github.com/matzehuels/blockstack/pkg/pipeline"
	"github.com/matzehuels/blockstack/pkg/scene"
)

// dragStep is the pixel distance of one arrow key press.
const dragStep = 10

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listDraggingStyle = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
)

// dragCommand creates the drag command, an interactive terminal session
// that drags blocks of a scene with the keyboard.
func (c *CLI) dragCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "drag [scene.toml|scene.json]",
		Short: "Drag blocks of a scene interactively",
		Long: `Drag blocks of a scene interactively.

Select a block with tab, pick it up with enter, move it with the arrow keys
and drop it with enter again. Dropped blocks connect to the closest
compatible connection in range; neighbours that end up too close are bumped
away once the deferred work has run.

With --output, the final geometry is written as a JSON snapshot on exit.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeSceneFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts := pipeline.Options{ScenePath: args[0], Config: &cfg, Logger: c.Logger}
			return c.runDrag(cmd.Context(), opts, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the final snapshot to this JSON file")

	return cmd
}

func (c *CLI) runDrag(ctx context.Context, opts pipeline.Options, output string) error {
	s, err := pipeline.Load(ctx, opts)
	if err != nil {
		return err
	}
	ws, _, err := pipeline.Settle(ctx, s, opts)
	if err != nil {
		return err
	}
	if ws.Headless() {
		return fmt.Errorf("drag needs a rendering surface (host.headless is set)")
	}

	final, err := tea.NewProgram(NewDragModel(ws), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("drag session: %w", err)
	}
	if m, ok := final.(DragModel); ok && m.Err != nil {
		return m.Err
	}

	if output != "" {
		if err := scene.ExportJSON(scene.Take(ws), output); err != nil {
			return err
		}
		printSuccess("Saved snapshot")
		printFile(output)
	}
	return nil
}

// =============================================================================
// DragModel - Interactive block dragging
// =============================================================================

// DragModel is the bubbletea model for interactive dragging. The
// workspace's deferred work runs on its virtual clock after every drop.
type DragModel struct {
	WS     *block.Workspace
	IDs    []string
	Cursor int
	Heal   bool
	Status string
	Err    error

	clock   *clock.Virtual
	dragger *block.Dragger
	delta   geom.Coordinate
}

// NewDragModel creates a drag model over every block of ws.
func NewDragModel(ws *block.Workspace) DragModel {
	m := DragModel{WS: ws, Status: "tab to select, enter to pick up"}
	m.clock, _ = ws.Clock().(*clock.Virtual)
	m.refresh()
	return m
}

// Dragging reports whether a block is picked up.
func (m DragModel) Dragging() bool { return m.dragger != nil }

func (m *DragModel) refresh() {
	m.IDs = nil
	for _, b := range m.WS.AllBlocks() {
		m.IDs = append(m.IDs, b.ID())
	}
	if m.Cursor >= len(m.IDs) {
		m.Cursor = max(len(m.IDs)-1, 0)
	}
}

func (m DragModel) selected() *block.Block {
	if len(m.IDs) == 0 {
		return nil
	}
	return m.WS.Block(m.IDs[m.Cursor])
}

func (m DragModel) Init() tea.Cmd {
	return nil
}

func (m DragModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c":
		if m.Dragging() {
			m.drop(geom.Coordinate{})
		}
		return m, tea.Quit
	case "tab", "shift+tab":
		if m.Dragging() || len(m.IDs) == 0 {
			return m, nil
		}
		step := 1
		if key.String() == "shift+tab" {
			step = len(m.IDs) - 1
		}
		m.Cursor = (m.Cursor + step) % len(m.IDs)
	case "h":
		if !m.Dragging() {
			m.Heal = !m.Heal
		}
	case "enter":
		if m.Dragging() {
			m.drop(m.delta)
		} else {
			m.pickUp()
		}
	case "esc":
		if m.Dragging() {
			m.drop(geom.Coordinate{})
		}
	case "left":
		m.move(-dragStep, 0)
	case "right":
		m.move(dragStep, 0)
	case "up":
		m.move(0, -dragStep)
	case "down":
		m.move(0, dragStep)
	}
	return m, nil
}

func (m *DragModel) pickUp() {
	b := m.selected()
	if b == nil {
		return
	}
	if !b.Movable() {
		m.Status = fmt.Sprintf("%s is not movable", b.ID())
		return
	}
	d := block.NewDragger(b)
	if err := d.Start(geom.Coordinate{}, m.Heal); err != nil {
		m.Status = fmt.Sprintf("cannot drag %s: %v", b.ID(), err)
		return
	}
	m.dragger = d
	m.delta = geom.Coordinate{}
	m.Status = fmt.Sprintf("dragging %s", b.ID())
}

func (m *DragModel) move(dx, dy float64) {
	if !m.Dragging() {
		return
	}
	m.delta = m.delta.Add(geom.Pt(dx, dy))
	m.dragger.Drag(m.delta)
}

func (m *DragModel) drop(delta geom.Coordinate) {
	b := m.dragger.Block()
	err := m.dragger.End(delta)
	m.dragger = nil
	m.delta = geom.Coordinate{}
	if err != nil {
		m.Err = err
		m.Status = fmt.Sprintf("drop failed: %v", err)
		return
	}
	fired := 0
	if m.clock != nil {
		fired = m.clock.RunAll(0)
	}
	m.refresh()
	if i := slices.Index(m.IDs, b.ID()); i >= 0 {
		m.Cursor = i
	}
	where := "on the canvas"
	if p := b.Parent(); p != nil {
		where = "into " + p.ID()
	}
	m.Status = fmt.Sprintf("dropped %s %s (%d deferred callbacks)", b.ID(), where, fired)
}

func (m DragModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Drag Blocks"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("tab select  ⏎ pick up/drop  ←↑↓→ move  h heal  esc cancel  q quit"))
	b.WriteString("\n\n")

	for i, id := range m.IDs {
		blk := m.WS.Block(id)
		if blk == nil {
			continue
		}
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		indent := strings.Repeat("  ", depthOf(blk))
		line := fmt.Sprintf("%s%s%-12s %-16s %s", cursor, indent, id, blk.Type(), blk.Position())

		switch {
		case i == m.Cursor && m.Dragging():
			b.WriteString(listDraggingStyle.Render(line))
		case i == m.Cursor:
			b.WriteString(listSelectedStyle.Render(line))
		case blk.Disabled():
			b.WriteString(listDimStyle.Render(line))
		default:
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	heal := "off"
	if m.Heal {
		heal = "on"
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  heal stack: %s · offset %s", heal, m.delta)))
	b.WriteString("\n  ")
	b.WriteString(m.Status)
	b.WriteString("\n")

	return b.String()
}

func depthOf(b *block.Block) int {
	d := 0
	for p := b.Parent(); p != nil; p = p.Parent() {
		d++
	}
	return d
}

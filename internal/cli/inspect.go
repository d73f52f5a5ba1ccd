package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/blockstack/pkg/pipeline"
	"github.com/matzehuels/blockstack/pkg/scene"
)

// inspectCommand creates the inspect command, which prints the settled
// geometry of a scene as a table.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		connections bool
		noSettle    bool
	)

	cmd := &cobra.Command{
		Use:               "inspect [scene.toml|scene.json]",
		Short:             "Print block positions and sizes of a settled scene",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeSceneFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts := pipeline.Options{
				ScenePath:  args[0],
				Config:     &cfg,
				SkipSettle: noSettle,
				Logger:     c.Logger,
			}
			return c.runInspect(cmd.Context(), opts, connections)
		},
	}

	cmd.Flags().BoolVar(&connections, "connections", false, "also list every connection")
	cmd.Flags().BoolVar(&noSettle, "no-settle", false, "show geometry right after the initial render")

	return cmd
}

func (c *CLI) runInspect(ctx context.Context, opts pipeline.Options, connections bool) error {
	s, err := pipeline.Load(ctx, opts)
	if err != nil {
		return err
	}
	ws, fired, err := pipeline.Settle(ctx, s, opts)
	if err != nil {
		return err
	}
	snap := scene.Take(ws)

	fmt.Println(StyleTitle.Render(opts.ScenePath))
	printStats(len(snap.Blocks), fired, false)
	fmt.Println(blockTable(snap))
	if connections {
		fmt.Println(connectionTable(snap))
	}
	b := snap.Bounds
	printKeyValue("Bounds", fmt.Sprintf("(%g, %g) to (%g, %g)", b.Left, b.Top, b.Right, b.Bottom))
	return nil
}

// =============================================================================
// Tables
// =============================================================================

var tableHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)

// blockTable renders one row per block, in pre-order. Nested blocks are
// indented under their parent.
func blockTable(snap *scene.Snapshot) string {
	depth := make(map[string]int, len(snap.Blocks))
	rows := make([][]string, 0, len(snap.Blocks))
	for _, b := range snap.Blocks {
		if b.Parent != "" {
			depth[b.ID] = depth[b.Parent] + 1
		}
		rows = append(rows, []string{
			strings.Repeat("  ", depth[b.ID]) + b.ID,
			b.Type,
			fmt.Sprintf("%g", b.Position.X),
			fmt.Sprintf("%g", b.Position.Y),
			fmt.Sprintf("%g×%g", b.Width, b.Height),
			blockFlags(b),
			b.Warning,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Block", "Type", "X", "Y", "Size", "State", "Warning").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			b := snap.Blocks[row]
			switch {
			case col == 6:
				return lipgloss.NewStyle().Foreground(colorYellow)
			case b.Disabled:
				return lipgloss.NewStyle().Foreground(colorDim)
			case col == 0 && b.Colour != "":
				return lipgloss.NewStyle().Foreground(lipgloss.Color(b.Colour))
			}
			return lipgloss.NewStyle()
		})
	return t.Render()
}

// connectionTable renders one row per connection.
func connectionTable(snap *scene.Snapshot) string {
	var rows [][]string
	for _, b := range snap.Blocks {
		for _, c := range b.Connections {
			state := "tracked"
			if !c.Tracked {
				state = "untracked"
			}
			if c.Hidden {
				state += ", hidden"
			}
			rows = append(rows, []string{
				b.ID,
				c.Type,
				c.Input,
				c.Position.String(),
				c.Target,
				state,
			})
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Block", "Connection", "Input", "Position", "Target", "State").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return lipgloss.NewStyle()
		})
	return t.Render()
}

func blockFlags(b scene.BlockState) string {
	var flags []string
	if b.Collapsed {
		flags = append(flags, "collapsed")
	}
	if b.Disabled {
		flags = append(flags, "disabled")
	}
	if b.Comment != "" {
		flags = append(flags, "comment")
	}
	return strings.Join(flags, ", ")
}

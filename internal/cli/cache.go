package cli

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/blockstack/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the artifact cache",
		Long: `Manage the local cache of settled snapshots and rendered artifacts.

The server can cache in Redis instead (serve --redis); those entries expire
on their own and are not managed here.`,
	}

	cmd.AddCommand(
		c.cacheStatsCommand(),
		c.cachePruneCommand(),
		c.cacheClearCommand(),
		c.cachePathCommand(),
	)
	return cmd
}

// openFileCache opens the local cache directory.
func openFileCache() (*cache.FileCache, error) {
	dir, err := cacheDir()
	if err != nil {
		return nil, fmt.Errorf("get cache dir: %w", err)
	}
	c, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return c.(*cache.FileCache), nil
}

func (c *CLI) cacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show what the cache holds",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := openFileCache()
			if err != nil {
				return err
			}
			st, err := fc.Stats()
			if err != nil {
				return err
			}
			if st.Total() == 0 && st.Expired == 0 {
				printInfo("Cache is empty")
				return nil
			}
			fmt.Println(statsTable(st))
			printKeyValue("Size", formatBytes(st.Bytes))
			printKeyValue("Directory", fc.Dir())
			if st.Expired > 0 {
				printNextStep("Remove expired entries", "blockstack cache prune")
			}
			return nil
		},
	}
}

func (c *CLI) cachePruneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove expired and unreadable entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := openFileCache()
			if err != nil {
				return err
			}
			n, err := fc.Prune()
			if err != nil {
				return err
			}
			printSuccess("Pruned %d entries", n)
			return nil
		},
	}
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached snapshots and artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := openFileCache()
			if err != nil {
				return err
			}
			n, err := fc.Clear()
			if err != nil {
				return err
			}
			printSuccess("Cleared %d cached entries", n)
			printDetail("Directory: %s", fc.Dir())
			return nil
		},
	}
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Println(dir)
			return nil
		},
	}
}

// statsTable renders one row per entry kind, plus expired entries.
func statsTable(st cache.Stats) string {
	kinds := make([]string, 0, len(st.Entries))
	for k := range st.Entries {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	rows := make([][]string, 0, len(kinds)+1)
	for _, k := range kinds {
		rows = append(rows, []string{k, strconv.Itoa(st.Entries[k])})
	}
	if st.Expired > 0 {
		rows = append(rows, []string{"expired", strconv.Itoa(st.Expired)})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Kind", "Entries").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			if rows[row][0] == "expired" {
				return lipgloss.NewStyle().Foreground(colorYellow)
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

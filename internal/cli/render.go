package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/blockstack/pkg/pipeline"
)

// renderCommand creates the render command for settling and exporting a scene.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		noCache    bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [scene.toml|scene.json]",
		Short: "Settle a block scene and export it",
		Long: `Settle a block scene and export it.

The scene is built in a fresh workspace, every block is rendered, and the
deferred grid snap and neighbour bump work is run to completion before the
geometry is exported. Supported formats are json (geometry snapshot),
dot (Graphviz source) and svg.

Results are cached locally for faster subsequent runs.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeSceneFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts.Config = &cfg
			opts.ScenePath = args[0]
			return c.runRender(cmd.Context(), opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json, dot (comma-separated)")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "add positions and sizes to DOT and SVG labels")
	cmd.Flags().BoolVar(&opts.SkipSettle, "no-settle", false, "export right after the initial render, without snap and bump")
	cmd.Flags().IntVar(&opts.SettleLimit, "settle-limit", pipeline.DefaultSettleLimit, "maximum deferred callbacks while settling")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "ignore cached results")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)

	return cmd
}

// runRender executes the pipeline and writes the artifacts.
func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Cache.Close()

	opts.Logger = c.Logger
	prog := newProgress(c.Logger)

	spinner := newSpinner(ctx, fmt.Sprintf("Settling %s...", filepath.Base(opts.ScenePath)))
	restore := trackStages(spinner)
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	restore()
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()

	printStats(result.Stats.BlockCount, result.Stats.Callbacks, result.CacheInfo.SnapshotHit)
	if err := writeArtifacts(artifactWriteParams{
		artifacts: result.Artifacts,
		formats:   opts.Formats,
		input:     opts.ScenePath,
		output:    output,
	}); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %d blocks", result.Stats.BlockCount))
	return nil
}

// artifactWriteParams describes where the artifacts of one run go.
type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	input     string
	output    string
}

// writeArtifacts writes each artifact to its file. A single format goes
// to output (stdout when output is "-"); several formats share a base path
// and get one file per format extension.
func writeArtifacts(p artifactWriteParams) error {
	formats := p.formats
	if len(formats) == 0 {
		for f := range p.artifacts {
			formats = append(formats, f)
		}
		sort.Strings(formats)
	}

	if len(formats) == 1 {
		path := p.output
		if path == "" {
			path = basePath("", p.input) + "." + formats[0]
		}
		return writeArtifact(path, p.artifacts[formats[0]])
	}

	base := basePath(p.output, p.input)
	for _, format := range formats {
		if err := writeArtifact(base+"."+format, p.artifacts[format]); err != nil {
			return err
		}
	}
	return nil
}

func writeArtifact(path string, data []byte) error {
	if path == "-" {
		path = ""
	}
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if path != "" {
		printFile(path)
	}
	return nil
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.svg, .json, .dot), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// nopCloser wraps an io.Writer with a no-op Close method.
// It is used to make os.Stdout compatible with io.WriteCloser.
type nopCloser struct{ io.Writer }

// Close implements io.Closer with a no-op.
func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path.
// If path is empty, it returns os.Stdout wrapped in nopCloser.
// Otherwise, it creates the file at path, overwriting if it exists.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

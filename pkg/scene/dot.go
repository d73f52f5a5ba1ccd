package scene

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"
)

// DOTOptions configures DOT output.
type DOTOptions struct {
	// Detailed adds position, size and state lines to node labels.
	// When false, only the block type and id are shown.
	Detailed bool
}

// ToDOT converts a snapshot to Graphviz DOT. Blocks become boxes filled
// with their style colour; each connected superior connection becomes an
// edge from parent to child labelled with the input name, or "next".
//
// Collapsed blocks are drawn with a dashed outline and disabled blocks in
// grey.
func ToDOT(s *Snapshot, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph Workspace {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.25;\n")
	buf.WriteString("\n")

	for _, b := range s.Blocks {
		fmt.Fprintf(&buf, "  %q [%s];\n", b.ID, strings.Join(dotAttrs(b, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, b := range s.Blocks {
		for _, c := range b.Connections {
			if c.Target == "" || (c.Type != "input" && c.Type != "next") {
				continue
			}
			label := c.Input
			if label == "" {
				label = c.Type
			}
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", b.ID, c.Target, label)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func dotLabel(b BlockState, detailed bool) string {
	label := b.Type + "\n" + b.ID
	if !detailed {
		return label
	}
	parts := []string{
		fmt.Sprintf("at (%g, %g)", b.Position.X, b.Position.Y),
		fmt.Sprintf("%g x %g", b.Width, b.Height),
	}
	if b.Summary != "" {
		parts = append(parts, "summary: "+b.Summary)
	}
	if b.Warning != "" {
		parts = append(parts, "warning: "+b.Warning)
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func dotAttrs(b BlockState, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", dotLabel(b, detailed))}
	switch {
	case b.Disabled:
		attrs = append(attrs, "fillcolor=lightgrey", "fontcolor=gray40")
	case b.Colour != "":
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", b.Colour), "fontcolor=white")
	}
	if b.Collapsed {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"")
	}
	return attrs
}

// RenderSVG renders DOT text to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg header with one
// whose width and height match the viewBox.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}

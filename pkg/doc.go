// Package pkg provides the libraries behind Blockstack, a geometry engine
// for visual programming blocks.
//
// # Overview
//
// Blocks are nested rectangles joined by typed connections. The engine keeps
// connection coordinates in sync with block positions, renders stacks in
// the right order, bumps unconnected neighbours apart and coordinates drags
// through a shared overlay. The pkg directory is organized as follows:
//
//  1. [block] - The engine: blocks, connections, rendering, bumping, drags
//  2. [layout] - Text-measuring shape computation used by block rendering
//  3. [surface] - The element tree blocks are drawn into
//  4. [scene] - Scene descriptions, snapshots and DOT/SVG export
//  5. [pipeline] - Orchestration (load → settle → export) with caching
//  6. [cache] - File, Redis and null caches for snapshots and artifacts
//  7. [config], [clock], [geom], [errors], [observability] - Shared infrastructure
//
// # Architecture
//
// The typical data flow:
//
//	Scene file (TOML/JSON)
//	         ↓
//	    [scene] package (decode + build into a workspace)
//	         ↓
//	    [block] package (render, schedule snap and bump)
//	         ↓
//	    [clock] virtual clock (run deferred work to rest)
//	         ↓
//	    JSON/DOT/SVG output
//
// # Quick Start
//
//	import (
//	    "context"
//	    "github.com/matzehuels/blockstack/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	result, err := runner.Execute(context.Background(), pipeline.Options{
//	    ScenePath: "examples/scenes/loop.toml",
//	    Formats:   []string{pipeline.FormatSVG},
//	})
//	if err != nil {
//	    return err
//	}
//	svg := result.Artifacts[pipeline.FormatSVG]
//
// # Deferred Work
//
// Grid snapping, neighbour bumping, warning updates and batched renders run
// on the workspace clock. The pipeline and the CLI use a virtual clock so a
// scene always settles to the same geometry.
package pkg

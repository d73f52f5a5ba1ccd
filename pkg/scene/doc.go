// Package scene describes block workspaces as data and converts between
// descriptions, live workspaces and exported snapshots.
//
// # Overview
//
// A [Scene] is a forest of block descriptions, read from TOML or JSON. Each
// block lists its connections, its input rows and the blocks plugged into
// them, so a description mirrors the block tree it builds:
//
//	[[blocks]]
//	id = "loop"
//	type = "controls_repeat"
//	x = 40
//	y = 40
//	previous = true
//	next = true
//
//	  [[blocks.inputs]]
//	  name = "DO"
//	  kind = "statement"
//	  fields = [{ text = "repeat" }]
//
//	    [blocks.inputs.block]
//	    id = "say"
//	    type = "print"
//	    previous = true
//	    next = true
//
// [Build] creates the blocks in a workspace, connects them, renders the
// workspace and then applies placement and state (collapsed, disabled,
// comments, warnings).
//
// # Export
//
// [Take] captures the geometry of a rendered workspace as a [Snapshot]:
// absolute block positions, sizes, and every connection with its position,
// target and tracking state. Snapshots encode to JSON with [WriteJSON] and
// to Graphviz DOT with [ToDOT]; [RenderSVG] runs Graphviz on the DOT text.
package scene

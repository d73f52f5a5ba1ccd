package scene

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/blockstack/pkg/block"
	"github.com/matzehuels/blockstack/pkg/geom"
)

// Snapshot is the exported geometry of a workspace.
type Snapshot struct {
	Workspace string       `json:"workspace"`
	Bounds    Bounds       `json:"bounds"`
	Blocks    []BlockState `json:"blocks"`
}

// Bounds is the content rectangle of the workspace.
type Bounds struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// BlockState is the exported state of one block.
type BlockState struct {
	ID          string            `json:"id"`
	Type        string            `json:"type"`
	Parent      string            `json:"parent,omitempty"`
	Position    geom.Coordinate   `json:"position"`
	Width       float64           `json:"width"`
	Height      float64           `json:"height"`
	Collapsed   bool              `json:"collapsed,omitempty"`
	Summary     string            `json:"summary,omitempty"`
	Disabled    bool              `json:"disabled,omitempty"`
	Style       string            `json:"style,omitempty"`
	Colour      string            `json:"colour,omitempty"`
	Comment     string            `json:"comment,omitempty"`
	Warning     string            `json:"warning,omitempty"`
	Connections []ConnectionState `json:"connections,omitempty"`
}

// ConnectionState is the exported state of one connection.
type ConnectionState struct {
	Type     string          `json:"type"`
	Input    string          `json:"input,omitempty"`
	Position geom.Coordinate `json:"position"`
	Target   string          `json:"target,omitempty"`
	Hidden   bool            `json:"hidden,omitempty"`
	Tracked  bool            `json:"tracked"`
}

// Take captures the current state of ws, blocks in pre-order.
func Take(ws *block.Workspace) *Snapshot {
	r := ws.ContentBounds()
	snap := &Snapshot{
		Workspace: ws.ID(),
		Bounds:    Bounds{Left: r.Left, Top: r.Top, Right: r.Right, Bottom: r.Bottom},
		Blocks:    make([]BlockState, 0, ws.Len()),
	}
	for _, b := range ws.AllBlocks() {
		snap.Blocks = append(snap.Blocks, blockState(b))
	}
	return snap
}

// Block returns the state of the block with the given id.
func (s *Snapshot) Block(id string) (BlockState, bool) {
	for _, b := range s.Blocks {
		if b.ID == id {
			return b, true
		}
	}
	return BlockState{}, false
}

func blockState(b *block.Block) BlockState {
	h, w := b.Size()
	st := BlockState{
		ID:        b.ID(),
		Type:      b.Type(),
		Position:  b.Position(),
		Width:     w,
		Height:    h,
		Collapsed: b.Collapsed(),
		Disabled:  b.Disabled(),
		Style:     b.Style(),
		Colour:    b.Colour(),
		Comment:   b.CommentText(),
		Warning:   b.WarningText(),
	}
	if p := b.Parent(); p != nil {
		st.Parent = p.ID()
	}
	if f := b.Field(block.CollapsedFieldName); f != nil {
		st.Summary = f.Text()
	}

	inputOf := make(map[*block.Connection]string)
	for _, in := range b.Inputs() {
		if in.Connection() != nil {
			inputOf[in.Connection()] = in.Name()
		}
	}
	for _, c := range b.Connections(true) {
		cs := ConnectionState{
			Type:     c.Type().String(),
			Input:    inputOf[c],
			Position: c.Position(),
			Hidden:   c.Hidden(),
			Tracked:  c.Tracked(),
		}
		if t := c.TargetBlock(); t != nil {
			cs.Target = t.ID()
		}
		st.Connections = append(st.Connections, cs)
	}
	return st
}

// WriteJSON encodes a snapshot as indented JSON.
func WriteJSON(s *Snapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadSnapshot decodes a snapshot written by [WriteJSON].
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &s, nil
}

// ExportJSON writes a snapshot to a JSON file at path.
func ExportJSON(s *Snapshot, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(s, f)
}

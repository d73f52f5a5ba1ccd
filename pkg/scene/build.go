package scene

import (
	"fmt"
	"slices"

	"github.com/matzehuels/blockstack/pkg/block"
	"github.com/matzehuels/blockstack/pkg/geom"
)

// Build creates the scene's blocks in ws and returns the top blocks in
// scene order.
//
// Blocks are created and connected first, then the workspace is rendered,
// top blocks are moved to their coordinates, and finally state that
// depends on geometry (collapse, comments, warnings) is applied, innermost
// blocks first. A headless workspace gets the tree without placement.
func Build(ws *block.Workspace, s *Scene) ([]*block.Block, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	type built struct {
		b    *block.Block
		spec *BlockSpec
	}
	var all []built
	tops := make([]*block.Block, 0, len(s.Blocks))
	var create func(spec *BlockSpec) (*block.Block, error)
	create = func(spec *BlockSpec) (*block.Block, error) {
		b, err := newBlock(ws, spec)
		if err != nil {
			return nil, err
		}
		all = append(all, built{b, spec})

		for _, is := range spec.Inputs {
			in := b.Input(is.Name)
			if is.Block != nil {
				child, err := create(is.Block)
				if err != nil {
					return nil, err
				}
				childConn := child.Output()
				if is.Kind == KindStatement {
					childConn = child.Previous()
				}
				if err := in.Connection().Connect(childConn); err != nil {
					return nil, fmt.Errorf("connect %s into %s.%s: %w", child.ID(), b.ID(), is.Name, err)
				}
			}
			if is.Hidden {
				in.SetVisible(false)
			}
		}
		if spec.NextBlock != nil {
			nb, err := create(spec.NextBlock)
			if err != nil {
				return nil, err
			}
			if err := b.Next().Connect(nb.Previous()); err != nil {
				return nil, fmt.Errorf("connect %s below %s: %w", nb.ID(), b.ID(), err)
			}
		}
		return b, nil
	}
	for i := range s.Blocks {
		b, err := create(&s.Blocks[i])
		if err != nil {
			return nil, err
		}
		tops = append(tops, b)
	}

	if ws.Headless() {
		return tops, nil
	}
	if err := ws.RenderAll(); err != nil {
		return nil, err
	}
	for i, b := range tops {
		spec := &s.Blocks[i]
		if err := b.MoveTo(geom.Pt(spec.X, spec.Y)); err != nil {
			return nil, fmt.Errorf("place %s: %w", b.ID(), err)
		}
	}
	for _, e := range slices.Backward(all) {
		applyState(e.b, e.spec)
	}
	return tops, nil
}

func newBlock(ws *block.Workspace, spec *BlockSpec) (*block.Block, error) {
	var opts []block.BlockOption
	if spec.ID != "" {
		opts = append(opts, block.WithBlockID(spec.ID))
	}
	b, err := ws.NewBlock(spec.Type, opts...)
	if err != nil {
		return nil, err
	}
	if spec.Output {
		if err := b.SetOutput(true, spec.Check...); err != nil {
			return nil, err
		}
	}
	if spec.Previous {
		if err := b.SetPreviousStatement(true, spec.Check...); err != nil {
			return nil, err
		}
	}
	if spec.Next {
		if err := b.SetNextStatement(true); err != nil {
			return nil, err
		}
	}
	for _, is := range spec.Inputs {
		var in *block.Input
		switch is.Kind {
		case KindValue:
			in = b.AppendValueInput(is.Name)
		case KindStatement:
			in = b.AppendStatementInput(is.Name)
		default:
			in = b.AppendDummyInput(is.Name)
		}
		for _, f := range is.Fields {
			in.AppendField(f.Text, f.Name)
		}
		if len(is.Check) > 0 {
			in.SetCheck(is.Check...)
		}
	}
	if spec.Style != "" {
		if err := b.SetStyle(spec.Style); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func applyState(b *block.Block, spec *BlockSpec) {
	if spec.Immovable {
		b.SetMovable(false)
	}
	if spec.Disabled {
		b.SetDisabled(true)
	}
	if spec.Comment != "" {
		b.SetCommentText(spec.Comment)
	}
	for id, text := range spec.Warnings {
		b.SetWarningText(text, id)
	}
	if spec.Collapsed {
		b.SetCollapsed(true)
	}
}

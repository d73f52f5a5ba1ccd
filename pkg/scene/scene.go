package scene

import (
	bserrors "github.com/matzehuels/blockstack/pkg/errors"
)

// Input kinds.
const (
	KindValue     = "value"
	KindStatement = "statement"
	KindDummy     = "dummy"
)

// Scene is a forest of top-level block descriptions.
type Scene struct {
	Blocks []BlockSpec `toml:"blocks" json:"blocks"`
}

// BlockSpec describes one block and, through its inputs and NextBlock, the
// blocks attached below it. Top-level blocks are placed at (X, Y).
type BlockSpec struct {
	ID    string  `toml:"id" json:"id,omitempty"`
	Type  string  `toml:"type" json:"type"`
	X     float64 `toml:"x" json:"x,omitempty"`
	Y     float64 `toml:"y" json:"y,omitempty"`
	Style string  `toml:"style" json:"style,omitempty"`

	Output   bool     `toml:"output" json:"output,omitempty"`
	Previous bool     `toml:"previous" json:"previous,omitempty"`
	Next     bool     `toml:"next" json:"next,omitempty"`
	Check    []string `toml:"check" json:"check,omitempty"`

	Collapsed bool              `toml:"collapsed" json:"collapsed,omitempty"`
	Disabled  bool              `toml:"disabled" json:"disabled,omitempty"`
	Immovable bool              `toml:"immovable" json:"immovable,omitempty"`
	Comment   string            `toml:"comment" json:"comment,omitempty"`
	Warnings  map[string]string `toml:"warnings" json:"warnings,omitempty"`

	Inputs    []InputSpec `toml:"inputs" json:"inputs,omitempty"`
	NextBlock *BlockSpec  `toml:"next_block" json:"next_block,omitempty"`
}

// InputSpec describes one input row.
type InputSpec struct {
	Name   string      `toml:"name" json:"name"`
	Kind   string      `toml:"kind" json:"kind"`
	Fields []FieldSpec `toml:"fields" json:"fields,omitempty"`
	Check  []string    `toml:"check" json:"check,omitempty"`
	Hidden bool        `toml:"hidden" json:"hidden,omitempty"`
	Block  *BlockSpec  `toml:"block" json:"block,omitempty"`
}

// FieldSpec is a text field on an input row.
type FieldSpec struct {
	Name string `toml:"name" json:"name,omitempty"`
	Text string `toml:"text" json:"text"`
}

// Len returns the number of blocks described, nested ones included.
func (s *Scene) Len() int {
	n := 0
	for i := range s.Blocks {
		s.Blocks[i].walk(func(*BlockSpec) { n++ })
	}
	return n
}

func (b *BlockSpec) walk(fn func(*BlockSpec)) {
	fn(b)
	for i := range b.Inputs {
		if b.Inputs[i].Block != nil {
			b.Inputs[i].Block.walk(fn)
		}
	}
	if b.NextBlock != nil {
		b.NextBlock.walk(fn)
	}
}

// =============================================================================
// Validation
// =============================================================================

// Validate checks the structure of the scene: ids are unique and well
// formed, input kinds are known, and every attached block has the
// connection its slot needs.
func (s *Scene) Validate() error {
	seen := make(map[string]bool)
	for i := range s.Blocks {
		if err := s.Blocks[i].validate(seen); err != nil {
			return err
		}
	}
	return nil
}

func (b *BlockSpec) validate(seen map[string]bool) error {
	if b.Type == "" {
		return invalid("block %q has no type", b.ID)
	}
	if b.ID != "" {
		if err := bserrors.ValidateID(b.ID); err != nil {
			return bserrors.Wrap(bserrors.ErrCodeInvalidScene, err, "block %q", b.ID)
		}
		if seen[b.ID] {
			return invalid("duplicate block id %q", b.ID)
		}
		seen[b.ID] = true
	}
	if b.Output && b.Previous {
		return invalid("block %q has both an output and a previous connection", b.name())
	}

	names := make(map[string]bool, len(b.Inputs))
	for _, in := range b.Inputs {
		if in.Name == "" {
			return invalid("block %q has an input without a name", b.name())
		}
		if names[in.Name] {
			return invalid("block %q has duplicate input %q", b.name(), in.Name)
		}
		names[in.Name] = true

		switch in.Kind {
		case KindValue:
			if in.Block != nil && !in.Block.Output {
				return invalid("block %q in value input %s.%s needs an output", in.Block.name(), b.name(), in.Name)
			}
		case KindStatement:
			if in.Block != nil && !in.Block.Previous {
				return invalid("block %q in statement input %s.%s needs a previous connection", in.Block.name(), b.name(), in.Name)
			}
		case KindDummy:
			if in.Block != nil {
				return invalid("dummy input %s.%s cannot hold a block", b.name(), in.Name)
			}
		default:
			return invalid("input %s.%s has unknown kind %q", b.name(), in.Name, in.Kind)
		}
		if in.Block != nil {
			if err := in.Block.validate(seen); err != nil {
				return err
			}
		}
	}

	if b.NextBlock != nil {
		if !b.Next {
			return invalid("block %q has a next block but no next connection", b.name())
		}
		if !b.NextBlock.Previous {
			return invalid("block %q follows %q without a previous connection", b.NextBlock.name(), b.name())
		}
		return b.NextBlock.validate(seen)
	}
	return nil
}

func (b *BlockSpec) name() string {
	if b.ID != "" {
		return b.ID
	}
	return b.Type
}

func invalid(format string, args ...any) error {
	return bserrors.New(bserrors.ErrCodeInvalidScene, format, args...)
}

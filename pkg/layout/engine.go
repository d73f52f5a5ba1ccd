package layout

import (
	"github.com/mattn/go-runewidth"

	"github.com/matzehuels/blockstack/pkg/block"
	bserrors "github.com/matzehuels/blockstack/pkg/errors"
	"github.com/matzehuels/blockstack/pkg/geom"
)

// =============================================================================
// Metrics
// =============================================================================

// Metrics are the dimensions used by the engine, in workspace units.
type Metrics struct {
	CharWidth   float64 // width of one terminal cell of field text
	RowHeight   float64 // minimum height of an input row
	MinWidth    float64 // minimum block width
	Padding     float64 // space left of the first field and right of the last
	FieldGap    float64 // space between fields
	Tab         float64 // x of the previous/next notch
	MinIndent   float64 // minimum x of a statement mouth's inner edge
	ArmHeight   float64 // height of the bar below a statement mouth
	EmptySocket float64 // width reserved for an unconnected value socket
	JaggedTeeth float64 // depth of the teeth on a collapsed block's edge
}

// DefaultMetrics returns metrics that roughly match a classic block editor
// at 1x zoom.
func DefaultMetrics() Metrics {
	return Metrics{
		CharWidth:   8,
		RowHeight:   24,
		MinWidth:    40,
		Padding:     8,
		FieldGap:    6,
		Tab:         16,
		MinIndent:   20,
		ArmHeight:   8,
		EmptySocket: 10,
		JaggedTeeth: 8,
	}
}

// Validate reports metrics that cannot produce a layout.
func (m Metrics) Validate() error {
	switch {
	case m.RowHeight <= 0:
		return bserrors.New(bserrors.ErrCodeInvalidConfig, "row height must be positive, got %v", m.RowHeight)
	case m.CharWidth <= 0:
		return bserrors.New(bserrors.ErrCodeInvalidConfig, "char width must be positive, got %v", m.CharWidth)
	case m.MinWidth < 0 || m.Padding < 0 || m.FieldGap < 0 || m.Tab < 0 || m.MinIndent < 0 || m.ArmHeight < 0 || m.EmptySocket < 0 || m.JaggedTeeth < 0:
		return bserrors.New(bserrors.ErrCodeInvalidConfig, "metrics must not be negative")
	}
	return nil
}

// TextWidth returns the display width of s in workspace units.
func (m Metrics) TextWidth(s string) float64 {
	return float64(runewidth.StringWidth(s)) * m.CharWidth
}

// =============================================================================
// Engine
// =============================================================================

// Engine is the default layout engine.
type Engine struct {
	metrics Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics replaces the default metrics.
func WithMetrics(m Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New creates an engine.
func New(opts ...Option) *Engine {
	e := &Engine{metrics: DefaultMetrics()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Metrics returns the engine's metrics.
func (e *Engine) Metrics() Metrics { return e.metrics }

// row is one measured input row.
type row struct {
	input  *block.Input
	y      float64
	height float64
	label  float64 // right edge of the fields
	childW float64
}

// ComputeLayout implements block.LayoutEngine.
func (e *Engine) ComputeLayout(b *block.Block) (block.Layout, error) {
	m := e.metrics
	if err := m.Validate(); err != nil {
		return block.Layout{}, err
	}

	rows := e.measureRows(b)

	// Value sockets share one right edge.
	right := m.MinWidth
	for _, r := range rows {
		if r.input.Type() != block.StatementInput {
			right = max(right, r.label+m.Padding)
		}
	}

	lay := block.Layout{Offsets: make(map[*block.Connection]geom.Coordinate)}
	if c := b.Output(); c != nil {
		lay.Offsets[c] = geom.Coordinate{}
	}
	if c := b.Previous(); c != nil {
		lay.Offsets[c] = geom.Pt(m.Tab, 0)
	}

	width, height := right, 0.0
	var mouths []mouth
	for _, r := range rows {
		switch r.input.Type() {
		case block.ValueInput:
			lay.Offsets[r.input.Connection()] = geom.Pt(right, r.y)
			width = max(width, right+r.childW)
		case block.StatementInput:
			inner := max(m.MinIndent, r.label)
			lay.Offsets[r.input.Connection()] = geom.Pt(inner+m.Tab, r.y)
			width = max(width, inner+r.childW)
			mouths = append(mouths, mouth{inner: inner, top: r.y, bottom: r.y + r.height - m.ArmHeight})
		}
		height = r.y + r.height
	}
	height = max(height, m.RowHeight)
	if c := b.Next(); c != nil {
		lay.Offsets[c] = geom.Pt(m.Tab, height)
	}

	lay.Height, lay.Width = height, width
	lay.Shape = outline(right, height, mouths)
	if b.Collapsed() {
		lay.Shape = jagged(right, height, m.JaggedTeeth)
	}
	return lay, nil
}

func (e *Engine) measureRows(b *block.Block) []row {
	m := e.metrics
	var rows []row
	y := 0.0
	for _, in := range b.Inputs() {
		if !in.Visible() {
			continue
		}
		r := row{input: in, y: y, height: m.RowHeight, label: e.labelWidth(in)}
		if in.Type() != block.DummyInput {
			if child := in.TargetBlock(); child != nil {
				ch, cw := child.HeightWidth()
				r.height = max(r.height, ch)
				r.childW = cw
			} else if in.Type() == block.ValueInput {
				r.childW = m.EmptySocket
			}
		}
		if in.Type() == block.StatementInput {
			r.height += m.ArmHeight
		}
		rows = append(rows, r)
		y += r.height
	}
	return rows
}

// labelWidth returns the right edge of the row's fields.
func (e *Engine) labelWidth(in *block.Input) float64 {
	m := e.metrics
	w, n := m.Padding, 0
	for _, f := range in.Fields() {
		if f.Text() == "" {
			continue
		}
		if n > 0 {
			w += m.FieldGap
		}
		w += m.TextWidth(f.Text())
		n++
	}
	if n == 0 {
		return 0
	}
	return w
}

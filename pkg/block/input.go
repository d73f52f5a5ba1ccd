package block

// InputType is the kind of an input row.
type InputType int

const (
	// ValueInput accepts a value block.
	ValueInput InputType = iota + 1
	// StatementInput accepts a stack of statement blocks.
	StatementInput
	// DummyInput only holds fields.
	DummyInput
)

func (t InputType) String() string {
	switch t {
	case ValueInput:
		return "value"
	case StatementInput:
		return "statement"
	case DummyInput:
		return "dummy"
	}
	return "unknown"
}

// Field is a labelled piece of text on an input row.
type Field struct {
	name    string
	text    string
	visible bool
}

// Name returns the field name.
func (f *Field) Name() string { return f.name }

// Text returns the displayed text.
func (f *Field) Text() string { return f.text }

// SetText replaces the displayed text.
func (f *Field) SetText(text string) { f.text = text }

// Visible reports whether the field is shown.
func (f *Field) Visible() bool { return f.visible }

// Input is one row of a block: a list of fields and, for value and
// statement inputs, a connection.
type Input struct {
	name    string
	typ     InputType
	block   *Block
	conn    *Connection
	fields  []*Field
	visible bool
}

// Name returns the input name.
func (in *Input) Name() string { return in.name }

// Type returns the input type.
func (in *Input) Type() InputType { return in.typ }

// Block returns the owning block.
func (in *Input) Block() *Block { return in.block }

// Connection returns the input connection, or nil for dummy inputs.
func (in *Input) Connection() *Connection { return in.conn }

// Fields returns the fields in display order.
func (in *Input) Fields() []*Field { return in.fields }

// Visible reports whether the input row is shown.
func (in *Input) Visible() bool { return in.visible }

// TargetBlock returns the block plugged into the input, or nil.
func (in *Input) TargetBlock() *Block {
	if in.conn == nil {
		return nil
	}
	return in.conn.TargetBlock()
}

// AppendField adds a text field and returns the input for chaining.
func (in *Input) AppendField(text, name string) *Input {
	in.fields = append(in.fields, &Field{name: name, text: text, visible: in.visible})
	return in
}

// Field returns the named field, or nil.
func (in *Input) Field(name string) *Field {
	for _, f := range in.fields {
		if f.name == name {
			return f
		}
	}
	return nil
}

// SetCheck sets the type-check list of the input connection.
func (in *Input) SetCheck(check ...string) *Input {
	if in.conn != nil {
		in.conn.SetCheck(check...)
	}
	return in
}

// SetVisible shows or hides the row. Hiding hides the connection and the
// whole attached subtree; showing reveals it again down to any collapsed
// block. It returns the blocks that need a render.
func (in *Input) SetVisible(visible bool) []*Block {
	if in.visible == visible {
		return nil
	}
	in.visible = visible
	for _, f := range in.fields {
		f.visible = visible
	}
	if in.conn == nil {
		return nil
	}
	var renderList []*Block
	if visible {
		renderList = in.conn.unhideAll()
	} else {
		in.conn.hideAll()
	}
	if child := in.conn.TargetBlock(); child != nil && child.element != nil {
		child.element.SetHidden(!visible)
	}
	return renderList
}

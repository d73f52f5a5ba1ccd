package block

import (
	"slices"

	"github.com/google/uuid"

	"github.com/matzehuels/blockstack/pkg/clock"
	bserrors "github.com/matzehuels/blockstack/pkg/errors"
	"github.com/matzehuels/blockstack/pkg/geom"
	"github.com/matzehuels/blockstack/pkg/surface"
)

// Reserved names of the summary row shown while a block is collapsed.
const (
	CollapsedInputName = "_TEMP_COLLAPSED_INPUT"
	CollapsedFieldName = "_TEMP_COLLAPSED_FIELD"
)

// Block is a node of the block tree.
//
// Blocks are owned by their workspace. A block refers to its parent by id
// and owns the ordered ids of its children; connections are created lazily
// when inputs and statement or value connections are declared.
type Block struct {
	id  string
	typ string
	ws  *Workspace

	element  *surface.Element
	parentID string
	children []string

	inputs   []*Input
	output   *Connection
	previous *Connection
	next     *Connection

	width, height float64
	shape         Shape

	collapsed       bool
	savedVisibility map[string]bool

	rendered  bool
	rendering bool
	disposing bool
	dead      bool

	disabled          bool
	inheritedDisabled bool
	movable           bool
	deletable         bool

	style  string
	colour string

	warning     *Warning
	comment     *Comment
	mutatorIcon *MutatorIcon
	mutator     Mutatable

	tasks map[string]clock.Timer
}

// BlockOption configures a new block.
type BlockOption func(*Block)

// WithBlockID sets the block id instead of generating one.
func WithBlockID(id string) BlockOption {
	return func(b *Block) { b.id = id }
}

// NewBlock creates a top block of the given type in ws.
func (ws *Workspace) NewBlock(typ string, opts ...BlockOption) (*Block, error) {
	b := &Block{
		id:        uuid.NewString(),
		typ:       typ,
		ws:        ws,
		movable:   true,
		deletable: true,
		tasks:     make(map[string]clock.Timer),
	}
	for _, opt := range opts {
		opt(b)
	}
	if err := bserrors.ValidateID(b.id); err != nil {
		return nil, err
	}
	if _, exists := ws.blocks[b.id]; exists {
		return nil, bserrors.New(bserrors.ErrCodeInvalidInput, "block id %q already in use", b.id)
	}
	if !ws.Headless() {
		b.element = surface.NewElement(b.id)
		ws.canvas.AppendChild(b.element)
	}
	ws.blocks[b.id] = b
	ws.addTopBlock(b)
	return b, nil
}

// ID returns the block id.
func (b *Block) ID() string { return b.id }

// Type returns the block type name.
func (b *Block) Type() string { return b.typ }

// Workspace returns the owning workspace.
func (b *Block) Workspace() *Workspace { return b.ws }

// Element returns the block's visual element, or nil when headless.
func (b *Block) Element() *surface.Element { return b.element }

// Rendered reports whether the block has been rendered at least once.
func (b *Block) Rendered() bool { return b.rendered }

// Collapsed reports whether the block is collapsed.
func (b *Block) Collapsed() bool { return b.collapsed }

// Disposed reports whether the block is being or has been disposed.
func (b *Block) Disposed() bool { return b.isDead() }

func (b *Block) isDead() bool { return b.dead || b.disposing }

// Size returns the rendered height and width of the block alone.
func (b *Block) Size() (height, width float64) { return b.height, b.width }

// Shape returns the outline computed by the last render.
func (b *Block) Shape() Shape { return b.shape }

// HeightWidth returns the size of the block including every block
// attached below it through next connections.
func (b *Block) HeightWidth() (height, width float64) {
	height, width = b.height, b.width
	if nb := b.NextBlock(); nb != nil {
		nh, nw := nb.HeightWidth()
		height += nh
		width = max(width, nw)
	}
	return height, width
}

// =============================================================================
// Tree
// =============================================================================

// Parent returns the parent block, or nil for a top block.
func (b *Block) Parent() *Block {
	if b.parentID == "" {
		return nil
	}
	return b.ws.blocks[b.parentID]
}

// Children returns the child blocks in insertion order.
func (b *Block) Children() []*Block {
	out := make([]*Block, 0, len(b.children))
	for _, id := range b.children {
		if c := b.ws.blocks[id]; c != nil {
			out = append(out, c)
		}
	}
	return out
}

// Descendants returns b followed by all of its descendants, depth first.
func (b *Block) Descendants() []*Block {
	out := []*Block{b}
	for _, c := range b.Children() {
		out = append(out, c.Descendants()...)
	}
	return out
}

// Root returns the top block of b's tree.
func (b *Block) Root() *Block {
	r := b
	for p := b.Parent(); p != nil; p = p.Parent() {
		r = p
	}
	return r
}

// NextBlock returns the block attached to the next connection, or nil.
func (b *Block) NextBlock() *Block {
	if b.next == nil {
		return nil
	}
	return b.next.TargetBlock()
}

// SurroundParent returns the nearest ancestor that encloses b in one of its
// inputs, skipping blocks that b merely follows in a stack.
func (b *Block) SurroundParent() *Block {
	cur := b
	for {
		prev := cur
		cur = cur.Parent()
		if cur == nil {
			return nil
		}
		if cur.NextBlock() != prev {
			return cur
		}
	}
}

// lastConnectionInStack returns the free next connection at the bottom of
// b's stack, or nil when the stack ends without one.
func (b *Block) lastConnectionInStack() *Connection {
	for cur := b; cur != nil; {
		if cur.next == nil {
			return nil
		}
		nb := cur.next.TargetBlock()
		if nb == nil {
			return cur.next
		}
		cur = nb
	}
	return nil
}

// inputWithBlock returns the input child is plugged into, or nil.
func (b *Block) inputWithBlock(child *Block) *Input {
	for _, in := range b.inputs {
		if in.conn != nil && in.conn.TargetBlock() == child {
			return in
		}
	}
	return nil
}

// setParent re-parents b in both the block tree and the element tree.
// Connections are shifted by the resulting jump in absolute position; a
// block that loses its parent stays where it was on the canvas.
func (b *Block) setParent(p *Block) {
	old := b.Parent()
	if p == old {
		return
	}
	var oldXY geom.Coordinate
	if b.element != nil {
		oldXY = b.Position()
	}
	if old != nil {
		old.children = slices.DeleteFunc(old.children, func(id string) bool { return id == b.id })
	} else {
		b.ws.removeTopBlock(b)
	}
	b.parentID = ""
	if p != nil {
		p.children = append(p.children, b.id)
		b.parentID = p.id
	} else {
		b.ws.addTopBlock(b)
	}
	if b.element == nil {
		return
	}
	if p != nil && p.element != nil {
		p.element.AppendChild(b.element)
		newXY := b.Position()
		b.MoveConnections(newXY.X-oldXY.X, newXY.Y-oldXY.Y)
	} else if old != nil {
		b.ws.canvas.AppendChild(b.element)
		b.translate(oldXY.X, oldXY.Y)
	}
}

// raise stacks b's element above its siblings.
func (b *Block) raise() {
	if b.element == nil {
		return
	}
	if p := b.element.Parent(); p != nil {
		p.AppendChild(b.element)
	}
}

// =============================================================================
// Declarations
// =============================================================================

func (b *Block) appendInput(typ InputType, name string) *Input {
	in := &Input{name: name, typ: typ, block: b, visible: true}
	switch typ {
	case ValueInput:
		in.conn = newConnection(b, InputValue, nil)
	case StatementInput:
		in.conn = newConnection(b, NextStatement, nil)
	}
	if b.collapsed && name != CollapsedInputName {
		in.SetVisible(false)
	}
	b.inputs = append(b.inputs, in)
	return in
}

// AppendValueInput adds an input row that accepts a value block.
func (b *Block) AppendValueInput(name string) *Input { return b.appendInput(ValueInput, name) }

// AppendStatementInput adds an input row that accepts a statement stack.
func (b *Block) AppendStatementInput(name string) *Input {
	return b.appendInput(StatementInput, name)
}

// AppendDummyInput adds an input row without a connection.
func (b *Block) AppendDummyInput(name string) *Input { return b.appendInput(DummyInput, name) }

// Inputs returns the input rows in display order.
func (b *Block) Inputs() []*Input { return b.inputs }

// Input returns the named input, or nil.
func (b *Block) Input(name string) *Input {
	for _, in := range b.inputs {
		if in.name == name {
			return in
		}
	}
	return nil
}

// Field returns the first field with the given name on any input, or nil.
func (b *Block) Field(name string) *Field {
	for _, in := range b.inputs {
		if f := in.Field(name); f != nil {
			return f
		}
	}
	return nil
}

// RemoveInput removes the named input. An attached block is unplugged and
// left on the canvas. It reports whether the input existed.
func (b *Block) RemoveInput(name string) (bool, error) {
	i := slices.IndexFunc(b.inputs, func(in *Input) bool { return in.name == name })
	if i < 0 {
		return false, nil
	}
	in := b.inputs[i]
	if in.conn != nil {
		if child := in.conn.TargetBlock(); child != nil {
			if err := child.Unplug(false); err != nil {
				return true, err
			}
		}
		in.conn.dispose()
	}
	b.inputs = slices.Delete(b.inputs, i, i+1)
	if b.rendered && name != CollapsedInputName {
		if err := b.Render(true); err != nil {
			return true, err
		}
		b.BumpNeighbours()
	}
	return true, nil
}

// Output returns the output connection, or nil.
func (b *Block) Output() *Connection { return b.output }

// Previous returns the previous-statement connection, or nil.
func (b *Block) Previous() *Connection { return b.previous }

// Next returns the next-statement connection, or nil.
func (b *Block) Next() *Connection { return b.next }

// SetOutput adds or removes the output connection. A block cannot have
// both an output and a previous connection.
func (b *Block) SetOutput(has bool, check ...string) error {
	if has && b.previous != nil {
		return bserrors.New(bserrors.ErrCodeInvalidInput, "block %s: remove the previous connection before adding an output", b.id)
	}
	return b.setConnection(&b.output, OutputValue, has, check)
}

// SetPreviousStatement adds or removes the previous-statement connection.
func (b *Block) SetPreviousStatement(has bool, check ...string) error {
	if has && b.output != nil {
		return bserrors.New(bserrors.ErrCodeInvalidInput, "block %s: remove the output connection before adding a previous connection", b.id)
	}
	return b.setConnection(&b.previous, PreviousStatement, has, check)
}

// SetNextStatement adds or removes the next-statement connection.
func (b *Block) SetNextStatement(has bool, check ...string) error {
	return b.setConnection(&b.next, NextStatement, has, check)
}

func (b *Block) setConnection(slot **Connection, t ConnectionType, has bool, check []string) error {
	if *slot != nil {
		if has {
			(*slot).SetCheck(check...)
			return nil
		}
		if (*slot).IsConnected() {
			return bserrors.New(bserrors.ErrCodeInvalidInput, "block %s: disconnect the %s connection before removing it", b.id, t)
		}
		(*slot).dispose()
		*slot = nil
		return nil
	}
	if has {
		*slot = newConnection(b, t, check)
	}
	return nil
}

// revealableConnections returns the connections a reveal may descend
// into: everything, or only the outer connections of a collapsed block.
func (b *Block) revealableConnections() []*Connection {
	if !b.collapsed {
		return b.Connections(true)
	}
	var out []*Connection
	for _, c := range []*Connection{b.output, b.previous, b.next} {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// =============================================================================
// Properties
// =============================================================================

// Movable reports whether the block may be moved by the user or bumped.
func (b *Block) Movable() bool { return b.movable && !b.ws.cfg.Host.ReadOnly }

// SetMovable sets whether the block may be moved.
func (b *Block) SetMovable(movable bool) { b.movable = movable }

// Deletable reports whether the block may be deleted by the user.
func (b *Block) Deletable() bool { return b.deletable && !b.ws.cfg.Host.ReadOnly }

// SetDeletable sets whether the block may be deleted.
func (b *Block) SetDeletable(deletable bool) { b.deletable = deletable }

// Style returns the style name, or "".
func (b *Block) Style() string { return b.style }

// Colour returns the primary colour of the block's style.
func (b *Block) Colour() string { return b.colour }

// SetStyle applies a named style from the workspace configuration.
func (b *Block) SetStyle(name string) error {
	if b.isDead() {
		return nil
	}
	if err := bserrors.ValidateStyleName(name); err != nil {
		return err
	}
	st, ok := b.ws.cfg.Styles[name]
	if !ok {
		return bserrors.New(bserrors.ErrCodeInvalidStyle, "invalid style name: %s", name)
	}
	old := b.style
	b.style = name
	b.colour = st.Colour
	for _, icon := range b.Icons() {
		icon.ApplyColour(b.colour)
	}
	if old != name {
		b.ws.fire(&ChangeEvent{BlockID: b.id, Group: b.ws.group, Element: "style", OldValue: old, NewValue: name})
	}
	return nil
}

// Disabled reports whether the block itself is disabled.
func (b *Block) Disabled() bool { return b.disabled }

// InheritedDisabled reports whether the block or any ancestor is disabled.
func (b *Block) InheritedDisabled() bool { return b.inheritedDisabled }

// SetDisabled enables or disables the block.
func (b *Block) SetDisabled(disabled bool) {
	if b.isDead() || b.disabled == disabled {
		return
	}
	b.disabled = disabled
	b.ws.fire(&ChangeEvent{BlockID: b.id, Group: b.ws.group, Element: "disabled", OldValue: !disabled, NewValue: disabled})
	b.UpdateDisabled()
}

// UpdateDisabled recomputes the inherited disabled state of b's subtree.
func (b *Block) UpdateDisabled() {
	inherited := b.disabled
	if p := b.Parent(); p != nil && p.inheritedDisabled {
		inherited = true
	}
	b.inheritedDisabled = inherited
	for _, c := range b.Children() {
		c.UpdateDisabled()
	}
}

// =============================================================================
// Detaching and disposal
// =============================================================================

// Unplug detaches b from its parent. With healStack, a statement block's
// followers are reattached to the old parent and a value block's first
// child takes its place, when compatible.
func (b *Block) Unplug(healStack bool) error {
	if b.isDead() {
		return nil
	}
	if b.output != nil {
		return b.unplugFromRow(healStack)
	}
	if b.previous != nil {
		return b.unplugFromStack(healStack)
	}
	return nil
}

func (b *Block) unplugFromRow(healStack bool) error {
	parentConn := b.output.target
	if parentConn == nil {
		return nil
	}
	var heir *Connection
	if healStack {
		for _, in := range b.inputs {
			if in.typ == ValueInput && in.conn != nil && in.conn.IsConnected() {
				child := in.conn.TargetBlock()
				if child.output != nil && parentConn.CanConnect(child.output) == nil {
					heir = child.output
				}
				break
			}
		}
	}
	if heir != nil {
		if err := heir.Disconnect(); err != nil {
			return err
		}
	}
	if err := b.output.Disconnect(); err != nil {
		return err
	}
	if heir != nil {
		return parentConn.Connect(heir)
	}
	return nil
}

func (b *Block) unplugFromStack(healStack bool) error {
	prevTarget := b.previous.target
	var nextTarget *Connection
	if healStack && b.next != nil && b.next.IsConnected() {
		nextTarget = b.next.target
		if err := b.next.Disconnect(); err != nil {
			return err
		}
	}
	if err := b.previous.Disconnect(); err != nil {
		return err
	}
	if prevTarget != nil && nextTarget != nil && prevTarget.CanConnect(nextTarget) == nil {
		return prevTarget.Connect(nextTarget)
	}
	return nil
}

// Dispose removes b and its descendants from the workspace. Pending tasks
// are cancelled, icons disposed and connections detached; later calls on
// the block do nothing.
func (b *Block) Dispose(healStack bool) {
	if b.isDead() {
		return
	}
	ws := b.ws
	if err := b.Unplug(healStack); err != nil {
		ws.logger.Warn("unplug during dispose failed", "block", b.id, "err", err)
	}
	ids := make([]string, 0)
	for _, d := range b.Descendants() {
		ids = append(ids, d.id)
	}
	ws.fire(&DeleteEvent{BlockID: b.id, Group: ws.group, IDs: ids})

	b.disposing = true
	b.rendered = false
	b.cancelTasks()
	for _, icon := range b.Icons() {
		icon.Dispose()
	}
	b.warning, b.comment, b.mutatorIcon = nil, nil, nil
	if ws.selection.id == b.id {
		ws.selection.id = ""
	}
	if ws.drag.blockID == b.id {
		ws.drag.reset()
	}
	b.releaseDragSurface()

	ws.eventsDisabled++
	children := b.Children()
	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose(false)
	}
	for _, in := range b.inputs {
		if in.conn != nil {
			_ = in.conn.Disconnect()
			in.conn.dispose()
		}
	}
	for _, c := range []*Connection{b.output, b.previous, b.next} {
		if c != nil {
			_ = c.Disconnect()
			c.dispose()
		}
	}
	ws.eventsDisabled--

	if p := b.Parent(); p != nil {
		p.children = slices.DeleteFunc(p.children, func(id string) bool { return id == b.id })
	}
	ws.removeTopBlock(b)
	delete(ws.blocks, b.id)
	if b.element != nil {
		b.element.Remove()
	}
	b.dead = true
}

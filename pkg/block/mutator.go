package block

// Mutatable is implemented by block behaviours whose shape can be edited
// through a mini-workspace of sub-blocks.
type Mutatable interface {
	// Decompose builds the editor's container block in ws from the
	// current shape of the block.
	Decompose(ws *Workspace) (*Block, error)
	// Compose reshapes the block to match the container.
	Compose(container *Block) error
}

// ConnectionSaver is implemented by mutators that remember which child is
// plugged into which input while the editor is open.
type ConnectionSaver interface {
	SaveConnections(container *Block)
}

// MenuOption is a context menu entry.
type MenuOption struct {
	Text     string
	Enabled  bool
	Callback func()
}

// MenuCustomizer is implemented by behaviours that adjust the block's
// context menu.
type MenuCustomizer interface {
	CustomContextMenu(options []MenuOption) []MenuOption
}

// SetMutator attaches m to the block and shows the mutator icon. A nil m
// removes both.
func (b *Block) SetMutator(m Mutatable) {
	if b.isDead() {
		return
	}
	if b.mutatorIcon != nil {
		b.mutatorIcon.Dispose()
		b.mutatorIcon = nil
	}
	b.mutator = m
	if m != nil {
		b.mutatorIcon = &MutatorIcon{}
		b.mutatorIcon.init(b, b.mutatorIcon)
		b.mutatorIcon.Create()
	}
	for _, icon := range b.Icons() {
		icon.ComputeIconLocation()
	}
	if b.rendered {
		b.renderOrLog(true)
	}
}

// AsMutatable returns the block's mutator, if it has one.
func (b *Block) AsMutatable() (Mutatable, bool) {
	return b.mutator, b.mutator != nil
}

// ContextMenu returns the default context menu options of the block,
// adjusted by the mutator when it implements MenuCustomizer.
func (b *Block) ContextMenu() []MenuOption {
	if b.isDead() {
		return nil
	}
	opts := []MenuOption{
		{Text: "Duplicate", Enabled: b.Deletable() && b.Movable()},
		{Text: collapseLabel(b.collapsed), Enabled: !b.ws.cfg.Host.ReadOnly, Callback: func() { b.SetCollapsed(!b.collapsed) }},
		{Text: disableLabel(b.disabled), Enabled: !b.ws.cfg.Host.ReadOnly, Callback: func() { b.SetDisabled(!b.disabled) }},
		{Text: "Delete Block", Enabled: b.Deletable(), Callback: func() { b.Dispose(true) }},
	}
	if mc, ok := b.mutator.(MenuCustomizer); ok {
		opts = mc.CustomContextMenu(opts)
	}
	return opts
}

func collapseLabel(collapsed bool) string {
	if collapsed {
		return "Expand Block"
	}
	return "Collapse Block"
}

func disableLabel(disabled bool) string {
	if disabled {
		return "Enable Block"
	}
	return "Disable Block"
}

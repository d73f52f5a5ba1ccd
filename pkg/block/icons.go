package block

import (
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/blockstack/pkg/geom"
)

// Icon is a small decoration on a block that can open a bubble.
type Icon interface {
	Create()
	Dispose()
	ApplyColour(colour string)
	// ComputeIconLocation recomputes the absolute anchor of the icon from
	// the block's position.
	ComputeIconLocation()
	// SetVisible opens or closes the icon's bubble.
	SetVisible(visible bool)
	Visible() bool
}

// Icon metrics.
const (
	IconSize = 16.0
	IconGap  = 4.0
)

// Warning ids and text used for blocks hidden under a collapsed ancestor.
const (
	CollapsedWarningID   = "TEMP_COLLAPSED_WARNING_"
	CollapsedWarningText = "This collapsed block contains warnings."
)

type iconBase struct {
	block    *Block
	self     Icon
	location geom.Coordinate
	colour   string
	visible  bool
	created  bool
	disposed bool
}

func (i *iconBase) Create()                   { i.created = true }
func (i *iconBase) Dispose()                  { i.disposed, i.visible = true, false }
func (i *iconBase) ApplyColour(colour string) { i.colour = colour }
func (i *iconBase) SetVisible(visible bool)   { i.visible = visible }
func (i *iconBase) Visible() bool             { return i.visible }

// Disposed reports whether the icon has been disposed.
func (i *iconBase) Disposed() bool { return i.disposed }

// Colour returns the colour last applied to the icon.
func (i *iconBase) Colour() string { return i.colour }

// Location returns the absolute anchor computed by the last
// ComputeIconLocation.
func (i *iconBase) Location() geom.Coordinate { return i.location }

func (i *iconBase) ComputeIconLocation() {
	slot := max(slices.Index(i.block.Icons(), i.self), 0)
	i.location = i.block.Position().Add(geom.Pt(float64(slot)*(IconSize+IconGap), 0))
}

func (i *iconBase) init(b *Block, self Icon) {
	i.block, i.self, i.colour = b, self, b.colour
}

// Warning shows one or more warning messages, keyed by id.
type Warning struct {
	iconBase
	texts   map[string]string
	updates int
}

// Text returns the warning messages joined by newlines, ordered by id.
func (w *Warning) Text() string {
	keys := slices.Sorted(maps.Keys(w.texts))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, w.texts[k])
	}
	return strings.Join(parts, "\n")
}

// Updates returns how many text changes have been applied.
func (w *Warning) Updates() int { return w.updates }

func (w *Warning) setText(text, id string) {
	if text == "" {
		delete(w.texts, id)
	} else {
		w.texts[id] = text
	}
	w.updates++
}

// Comment holds a free-text note.
type Comment struct {
	iconBase
	text string
}

// Text returns the comment text.
func (c *Comment) Text() string { return c.text }

// MutatorIcon opens the mutator editor of a mutable block.
type MutatorIcon struct {
	iconBase
}

// Icons returns the block's icons in display order.
func (b *Block) Icons() []Icon {
	var out []Icon
	if b.mutatorIcon != nil {
		out = append(out, b.mutatorIcon)
	}
	if b.comment != nil {
		out = append(out, b.comment)
	}
	if b.warning != nil {
		out = append(out, b.warning)
	}
	return out
}

// Warning returns the warning icon, or nil.
func (b *Block) Warning() *Warning { return b.warning }

// WarningText returns the current warning text, or "".
func (b *Block) WarningText() string {
	if b.warning == nil {
		return ""
	}
	return b.warning.Text()
}

// SetWarningText sets the warning with the given id. Empty text removes
// it; an empty id with empty text removes every warning.
//
// While a drag is in progress the change is retried after the warning
// debounce interval, and only the latest request per id survives.
func (b *Block) SetWarningText(text, id string) {
	if b.isDead() {
		return
	}
	ws := b.ws
	if id == "" {
		b.cancelTasksWithPrefix(taskWarningPrefix)
	} else {
		b.cancelTask(warningTaskKey(id))
	}
	if ws.IsDragging() {
		b.reschedule(warningTaskKey(id), ws.cfg.WarningDebounce, func() {
			b.SetWarningText(text, id)
		})
		return
	}
	if ws.cfg.Host.Template {
		text = ""
	}

	if text != "" {
		var collapsedParent *Block
		for p := b.SurroundParent(); p != nil; p = p.SurroundParent() {
			if p.collapsed {
				collapsedParent = p
			}
		}
		if collapsedParent != nil {
			collapsedParent.SetWarningText(CollapsedWarningText, CollapsedWarningID)
		}
	}

	changed := false
	switch {
	case text != "":
		if b.warning == nil {
			b.warning = &Warning{texts: make(map[string]string)}
			b.warning.init(b, b.warning)
			b.warning.Create()
			b.warning.ComputeIconLocation()
			changed = true
		}
		old := b.warning.Text()
		b.warning.setText(text, id)
		changed = changed || old != b.warning.Text()
	case b.warning != nil && id == "":
		b.warning.Dispose()
		b.warning = nil
		changed = true
	case b.warning != nil:
		old := b.warning.Text()
		b.warning.setText("", id)
		if b.warning.Text() == "" {
			b.warning.Dispose()
			b.warning = nil
			changed = true
		} else {
			changed = old != b.warning.Text()
		}
	}
	if changed && b.rendered {
		b.renderOrLog(true)
		b.BumpNeighbours()
	}
}

// Comment returns the comment icon, or nil.
func (b *Block) Comment() *Comment { return b.comment }

// CommentText returns the comment text, or "".
func (b *Block) CommentText() string {
	if b.comment == nil {
		return ""
	}
	return b.comment.text
}

// SetCommentText sets or, with empty text, removes the comment.
func (b *Block) SetCommentText(text string) {
	if b.isDead() {
		return
	}
	old := b.CommentText()
	if old == text {
		return
	}
	switch {
	case text == "":
		b.comment.Dispose()
		b.comment = nil
	case b.comment == nil:
		b.comment = &Comment{text: text}
		b.comment.init(b, b.comment)
		b.comment.Create()
		b.comment.ComputeIconLocation()
	default:
		b.comment.text = text
	}
	b.ws.fire(&ChangeEvent{BlockID: b.id, Group: b.ws.group, Element: "comment", OldValue: old, NewValue: text})
	if b.rendered {
		b.renderOrLog(true)
		b.BumpNeighbours()
	}
}

package block

import (
	"strings"
	"unicode/utf8"
)

// Summarizer builds the one-line text shown on a collapsed block.
type Summarizer func(b *Block, maxChars int) string

// Placeholders used by DefaultSummary.
const (
	EmptyInputToken = "?"
	EmptyBlockText  = "???"
	ellipsis        = "..."
)

// DefaultSummary joins the text of every field and the summaries of
// attached children, using "?" for empty sockets. Text longer than
// maxChars is cut and ends in "...".
func DefaultSummary(b *Block, maxChars int) string {
	text := strings.TrimSpace(strings.Join(summaryTokens(b), " "))
	if text == "" {
		text = EmptyBlockText
	}
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	r := []rune(text)
	if maxChars <= len(ellipsis) {
		return string(r[:maxChars])
	}
	return string(r[:maxChars-len(ellipsis)]) + ellipsis
}

func summaryTokens(b *Block) []string {
	var out []string
	for _, in := range b.inputs {
		if in.name == CollapsedInputName {
			continue
		}
		for _, f := range in.fields {
			if f.text != "" {
				out = append(out, f.text)
			}
		}
		if in.conn == nil {
			continue
		}
		if child := in.conn.TargetBlock(); child != nil {
			out = append(out, summaryTokens(child)...)
		} else {
			out = append(out, EmptyInputToken)
		}
	}
	return out
}

// SetCollapsed collapses or expands the block.
//
// Collapsing hides every input row together with the blocks plugged into
// it and shows a summary row instead. Expanding restores the visibility
// each row had before and removes the summary row.
func (b *Block) SetCollapsed(collapsed bool) {
	if b.isDead() || b.collapsed == collapsed {
		return
	}
	b.ws.fire(&ChangeEvent{BlockID: b.id, Group: b.ws.group, Element: "collapsed", OldValue: b.collapsed, NewValue: collapsed})
	b.collapsed = collapsed

	if collapsed {
		b.saveVisibility()
		if b.rendered {
			b.renderOrLog(true)
		}
		return
	}
	renderList := b.updateCollapsed()
	if !b.rendered {
		return
	}
	for _, rb := range renderList {
		if rb != b && !rb.isDead() {
			rb.renderOrLog(false)
		}
	}
	b.renderOrLog(true)
}

// saveVisibility records the visibility of every input row unless a
// record from the current collapse already exists. It runs when collapsing
// so that an unrendered block restores its rows on expand as well.
func (b *Block) saveVisibility() {
	if b.savedVisibility != nil {
		return
	}
	b.savedVisibility = make(map[string]bool, len(b.inputs))
	for _, in := range b.inputs {
		if in.name != CollapsedInputName {
			b.savedVisibility[in.name] = in.visible
		}
	}
}

// updateCollapsed brings the input rows in line with the collapsed flag.
// It runs on every render of a collapsed block and once when expanding,
// and returns the blocks revealed by the expansion.
func (b *Block) updateCollapsed() []*Block {
	collapsed := b.collapsed
	if collapsed {
		b.saveVisibility()
	}

	var renderList []*Block
	for _, in := range b.inputs {
		if in.name == CollapsedInputName {
			continue
		}
		visible := !collapsed
		if !collapsed {
			if v, ok := b.savedVisibility[in.name]; ok {
				visible = v
			}
		}
		renderList = append(renderList, in.SetVisible(visible)...)
	}

	if !collapsed {
		b.savedVisibility = nil
		b.UpdateDisabled()
		if _, err := b.RemoveInput(CollapsedInputName); err != nil {
			b.ws.logger.Warn("removing summary row failed", "block", b.id, "err", err)
		}
		b.SetWarningText("", CollapsedWarningID)
		return renderList
	}

	for _, icon := range b.Icons() {
		icon.SetVisible(false)
	}
	text := b.ws.sum(b, b.ws.cfg.CollapseChars)
	if f := b.Field(CollapsedFieldName); f != nil {
		f.SetText(text)
		return nil
	}
	in := b.Input(CollapsedInputName)
	if in == nil {
		in = b.AppendDummyInput(CollapsedInputName)
	}
	in.AppendField(text, CollapsedFieldName)
	return nil
}

func (b *Block) renderOrLog(bubble bool) {
	if err := b.Render(bubble); err != nil {
		b.ws.logger.Warn("render failed", "block", b.id, "err", err)
	}
}

package keyfilter

import "github.com/fairybow/fernanda/internal/textmodel"

// ApplyToView runs the filter for one raw keystroke (input) typed at pos
// in view, derives current/previous/beforeLast from the view's current
// text, and applies whatever edit sequence results — wrapped in a single
// compound edit on model so the whole thing undoes in one step (§4.4.5,
// §4.8). It returns the cursor position after the edit.
func (f *Filter) ApplyToView(model *textmodel.Model, view *textmodel.View, pos int, input string) int {
	text := []rune(view.Text())

	var current, previous, beforeLast rune
	if pos >= 0 && pos < len(text) {
		current = text[pos]
	}
	if pos-1 >= 0 && pos-1 < len(text) {
		previous = text[pos-1]
	}
	if pos-2 >= 0 && pos-2 < len(text) {
		beforeLast = text[pos-2]
	}

	actions := f.Apply(input, current, previous, beforeLast)
	if len(actions) == 0 {
		view.Edit(pos, 0, input)
		return pos + len([]rune(input))
	}

	model.BeginCompoundEdit()
	defer model.EndCompoundEdit()

	cur := pos
	for _, a := range actions {
		switch a.Op {
		case OpInsert:
			view.Edit(cur, 0, a.Text)
			cur += len([]rune(a.Text))
		case OpBackspace:
			cur--
			view.Edit(cur, 1, "")
		case OpCursorLeft:
			cur--
		case OpCursorRight:
			cur++
		}
	}
	return cur
}

package keyfilter

import (
	"testing"

	"github.com/fairybow/fernanda/internal/textmodel"
)

func actionsEqual(t *testing.T, got []Action, want ...Action) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("actions = %+v, want %+v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("actions[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestOpenBraceInsertsPairAndParksCursor(t *testing.T) {
	t.Parallel()
	f := New(nil)
	got := f.Apply("{", 0, 0, 0)
	actionsEqual(t, got,
		Action{Op: OpInsert, Text: "{"},
		Action{Op: OpInsert, Text: "}"},
		Action{Op: OpCursorLeft},
	)
}

func TestCloseBraceStepsOverExistingClose(t *testing.T) {
	t.Parallel()
	f := New(nil)
	got := f.Apply("}", '}', 0, 0)
	actionsEqual(t, got, Action{Op: OpCursorRight})
}

func TestCloseBraceInsertsWhenNothingToStepOver(t *testing.T) {
	t.Parallel()
	f := New(nil)
	got := f.Apply("}", 'x', 0, 0)
	if got != nil {
		t.Errorf("actions = %+v, want nil (pass through)", got)
	}
}

func TestQuoteOpensPairOnFirstPress(t *testing.T) {
	t.Parallel()
	f := New(nil)
	got := f.Apply("\"", 0, 0, 0)
	actionsEqual(t, got,
		Action{Op: OpInsert, Text: "\""},
		Action{Op: OpInsert, Text: "\""},
		Action{Op: OpCursorLeft},
	)
}

func TestQuoteStepsOverOnSecondPress(t *testing.T) {
	t.Parallel()
	f := New(nil)
	got := f.Apply("\"", '"', 0, 0)
	actionsEqual(t, got, Action{Op: OpCursorRight})
}

func TestDoubleDashCollapsesToEmDash(t *testing.T) {
	t.Parallel()
	f := New(nil)
	got := f.Apply("-", 0, '-', 0)
	actionsEqual(t, got,
		Action{Op: OpBackspace},
		Action{Op: OpInsert, Text: "—"},
	)
}

func TestSingleDashDoesNotCollapse(t *testing.T) {
	t.Parallel()
	f := New(nil)
	got := f.Apply("-", 0, 'x', 0)
	if got != nil {
		t.Errorf("actions = %+v, want nil", got)
	}
}

func TestSpaceDashSpaceCollapsesToEnDash(t *testing.T) {
	t.Parallel()
	f := New(nil)
	got := f.Apply(" ", 0, '-', ' ')
	actionsEqual(t, got,
		Action{Op: OpBackspace},
		Action{Op: OpInsert, Text: "–"},
		Action{Op: OpInsert, Text: " "},
	)
}

func TestSpaceAfterSpaceBeforeCloserCollapses(t *testing.T) {
	t.Parallel()
	f := New(nil)
	got := f.Apply(" ", '}', ' ', 'x')
	actionsEqual(t, got,
		Action{Op: OpBackspace},
		Action{Op: OpCursorRight},
		Action{Op: OpInsert, Text: " "},
	)
}

func TestOrdinarySpacePassesThrough(t *testing.T) {
	t.Parallel()
	f := New(nil)
	got := f.Apply(" ", 'x', 'y', 'z')
	if got != nil {
		t.Errorf("actions = %+v, want nil", got)
	}
}

func TestCommaHopsAheadOfCloser(t *testing.T) {
	t.Parallel()
	f := New(nil)
	got := f.Apply(",", '"', ',', 'x')
	actionsEqual(t, got,
		Action{Op: OpBackspace},
		Action{Op: OpInsert, Text: ","},
		Action{Op: OpCursorRight},
	)
}

func TestOrdinaryLetterPassesThrough(t *testing.T) {
	t.Parallel()
	f := New(nil)
	got := f.Apply("x", 0, 0, 0)
	if got != nil {
		t.Errorf("actions = %+v, want nil", got)
	}
}

func TestDoubleSpaceBeforeOrdinaryLetterCollapses(t *testing.T) {
	t.Parallel()
	f := New(nil)
	got := f.Apply("x", 0, ' ', ' ')
	actionsEqual(t, got,
		Action{Op: OpBackspace},
		Action{Op: OpInsert, Text: "x"},
	)
}

// TestAutoCloseBraceIsOneUndoStep is scenario S4: typing "{" produces
// "{}" with the cursor parked between them, and a single Undo removes
// both characters at once rather than requiring two undos.
func TestAutoCloseBraceIsOneUndoStep(t *testing.T) {
	t.Parallel()
	m := textmodel.New("")
	v := m.AttachView()
	f := New(nil)

	pos := f.ApplyToView(m, v, 0, "{")
	if v.Text() != "{}" {
		t.Fatalf("view text = %q, want %q", v.Text(), "{}")
	}
	if pos != 1 {
		t.Fatalf("cursor pos = %d, want 1", pos)
	}
	if !m.CanUndo() {
		t.Fatal("expected one undo record")
	}

	cursorPos, ok := m.Undo()
	if !ok {
		t.Fatal("Undo() = false")
	}
	if v.Text() != "" {
		t.Errorf("after undo, view text = %q, want empty", v.Text())
	}
	if m.CanUndo() {
		t.Error("a single undo should have consumed the whole compound edit")
	}
	_ = cursorPos
}

func TestApplyToViewPassthroughKeystroke(t *testing.T) {
	t.Parallel()
	m := textmodel.New("ab")
	v := m.AttachView()
	f := New(nil)

	pos := f.ApplyToView(m, v, 1, "X")
	if v.Text() != "aXb" {
		t.Fatalf("view text = %q, want %q", v.Text(), "aXb")
	}
	if pos != 2 {
		t.Errorf("cursor pos = %d, want 2", pos)
	}
}

func TestApplyToViewQuoteRoundTripThenTypeOver(t *testing.T) {
	t.Parallel()
	m := textmodel.New("")
	v := m.AttachView()
	f := New(nil)

	pos := f.ApplyToView(m, v, 0, "\"")
	if v.Text() != "\"\"" {
		t.Fatalf("view text = %q, want %q", v.Text(), "\"\"")
	}

	pos = f.ApplyToView(m, v, pos, "hi")
	if v.Text() != "\"hi\"" {
		t.Fatalf("view text = %q, want %q", v.Text(), "\"hi\"")
	}

	pos = f.ApplyToView(m, v, pos, "\"")
	if v.Text() != "\"hi\"" {
		t.Fatalf("view text after step-over = %q, want %q", v.Text(), "\"hi\"")
	}
	if pos != 4 {
		t.Errorf("cursor pos after step-over = %d, want 4", pos)
	}
}

func TestDefaultRulesLoad(t *testing.T) {
	t.Parallel()
	r, err := DefaultRules()
	if err != nil {
		t.Fatalf("DefaultRules() error: %v", err)
	}
	if len(r.Pairs) == 0 {
		t.Error("expected at least one pair rule")
	}
	if r.DashCollapse.EmDash == "" || r.DashCollapse.EnDash == "" {
		t.Error("expected em-dash/en-dash configured")
	}
}

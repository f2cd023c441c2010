// Package textmodel implements the Text Model & Delta Relay (§4.4): one
// logical text backed by a prime document plus one local document per
// attached view, kept identical by an explicit, synchronous,
// re-entrancy-guarded fan-out rather than by sharing a single document
// across views (§9's "Model-view multiplicity" design note — sharing one
// document forces views to share cursor/selection state, which the
// product cannot tolerate).
package textmodel

import (
	"fmt"
	"strings"
)

// titleMaxRunes and titleEllipsis implement the off-disk title
// derivation rule of §4.4.7.
const (
	titleMaxRunes = 27
	titleEllipsis = "..."
)

// DebugInvariants, when true, makes the delta relay panic if a local
// view document's text ever diverges from the prime document's — the
// debug-build-only invariant check named in §4.4.3 step 6. Production
// code leaves this false; tests that want the stronger check set it.
var DebugInvariants = false

type signal[T any] struct {
	subs []func(T)
}

func (s *signal[T]) Subscribe(f func(T)) {
	s.subs = append(s.subs, f)
}

func (s *signal[T]) emit(v T) {
	for _, f := range s.subs {
		f(v)
	}
}

// Model is the Text Model for one open file: a prime document that owns
// content-truth and undo/redo, plus any number of attached per-view
// local documents kept in lock-step by delta relay.
type Model struct {
	prime *document

	views      map[int]*document
	nextViewID int

	// routingDelta guards every relay path (view→prime→views and
	// prime→views during undo/redo replay) against re-entrancy. This is
	// the flag named throughout §4.4; relying on subscription alone
	// without it recreates the infinite-relay bug the flag exists to
	// prevent (§9).
	routingDelta bool

	inCompound         bool
	compoundHasRoute   bool
	lastRoutedPosition int

	// CursorHint fires once per undo/redo replay (with the position of
	// the last delta applied) and once per compound edit (§4.4.5). The
	// caller — the View Service — applies it only to the currently
	// focused view, per §4.4.4's rationale.
	CursorHint signal[int]

	// TitleHint fires on every prime-document content change with the
	// derived title per §4.4.7 and whether a title could be derived at
	// all (false when the document is empty). Only consulted by callers
	// backing an off-disk file; textmodel itself has no notion of
	// on-disk state.
	TitleHint signal[TitleHint]
}

// TitleHint is the payload of a TitleHint emission.
type TitleHint struct {
	Title string
	Valid bool
}

// New constructs a Text Model with the given initial content as the
// prime document's starting text.
func New(initialText string) *Model {
	m := &Model{
		prime: newDocument(),
		views: make(map[int]*document),
	}
	m.prime.text = []rune(initialText)
	m.prime.Subscribe(m.onPrimeTextChanged)
	return m
}

// Data returns the prime document's content as bytes.
func (m *Model) Data() []byte { return []byte(m.prime.Text()) }

// IsModified reports whether the prime document's undo position has
// moved away from its last-marked-clean depth — true sticky-flag
// semantics would keep reporting modified after an undo back to saved
// content, which S3 requires NOT to happen; this delegates to the
// prime document's clean-depth tracking instead (§8.1 invariant 1).
func (m *Model) IsModified() bool { return m.prime.IsModified() }

// SetModified marks the prime document clean (v == false, the common
// case after a successful save) or forces it dirty regardless of undo
// position (v == true).
func (m *Model) SetModified(v bool) {
	if v {
		m.prime.ForceModified()
	} else {
		m.prime.MarkClean()
	}
}

// SetData replaces the entire document content, fanning the replacement
// out to every attached view exactly as any other delta would be. Used
// to implement setData/data byte round-tripping (§8.1 invariant 6); it
// records an undo step, so content loaded at open time goes through New
// instead.
func (m *Model) SetData(data []byte) {
	m.routingDelta = true
	defer func() { m.routingDelta = false }()

	old := m.prime.text
	m.prime.Splice(0, len(old), string(data))
	for _, v := range m.views {
		v.Splice(0, v.Len(), string(data))
	}
}

// View is a per-view handle onto a Model: an independent local document
// kept synchronized to the prime document by delta relay (§3.4, §4.4.2).
// Views publish no signals of their own here; selection/clipboard
// signals are a UI-layer concern outside the engine core.
type View struct {
	id         int
	model      *Model
	doc        *document
	unsubscribe func()
}

// AttachView registers a new view against the Model: its local document
// is initialized with the prime document's current text under a
// routing-delta scope so the initialization itself never triggers a
// relay, then undo/redo is disabled on it and it is subscribed for
// outgoing delta routing (§4.4.2).
func (m *Model) AttachView() *View {
	id := m.nextViewID
	m.nextViewID++

	doc := newDocument()
	doc.undoDisabled = true

	m.routingDelta = true
	doc.Splice(0, 0, m.prime.Text())
	m.routingDelta = false

	v := &View{id: id, model: m, doc: doc}
	v.unsubscribe = doc.Subscribe(func(delta Delta) { m.onViewChanged(id, delta) })
	m.views[id] = doc
	return v
}

// DetachView unregisters v: it stops receiving relayed deltas and is
// dropped from the Model's view set (§4.4.2, "when a view detaches,
// unsubscribe and drop the local document from the list").
func (m *Model) DetachView(v *View) {
	if v.unsubscribe != nil {
		v.unsubscribe()
		v.unsubscribe = nil
	}
	delete(m.views, v.id)
}

// Text returns the view's local document's current plain text.
func (v *View) Text() string { return v.doc.Text() }

// Edit applies a local edit at the view: position, removedCount runes
// removed, added text inserted. added is normalized per §4.4.6 before
// being applied. The edit fans out through the Model's delta relay to
// the prime document and every other attached view.
func (v *View) Edit(pos, removedCount int, added string) {
	v.doc.Splice(pos, removedCount, NormalizeLineEndings(added))
}

// onViewChanged implements the delta-routing contract of §4.4.3: a
// change originating at a local view document is relayed to the prime
// document and to every other local view document, guarded against
// re-entrancy by routingDelta.
func (m *Model) onViewChanged(sourceID int, delta Delta) {
	if m.routingDelta {
		return
	}
	m.routingDelta = true
	defer func() { m.routingDelta = false }()

	m.prime.Splice(delta.Position, delta.removedCount(), delta.Added)

	for id, doc := range m.views {
		if id == sourceID {
			continue
		}
		doc.Splice(delta.Position, delta.removedCount(), delta.Added)
	}

	if m.inCompound {
		m.lastRoutedPosition = delta.Position
		m.compoundHasRoute = true
	}

	if DebugInvariants {
		primeText := m.prime.Text()
		for id, doc := range m.views {
			if doc.Text() != primeText {
				panic(fmt.Sprintf("textmodel: view %d diverged from prime document after relay", id))
			}
		}
	}
}

// Undo invokes undo on the prime document (the sole authority for
// undo/redo per §4.4.4) and fans the resulting delta(s) out to every
// local view document, emitting a single cursor-position hint at the
// position of the last delta applied. Returns false if there was
// nothing to undo.
func (m *Model) Undo() (cursorPos int, ok bool) {
	return m.replay(m.prime.Undo)
}

// Redo is the inverse of Undo.
func (m *Model) Redo() (cursorPos int, ok bool) {
	return m.replay(m.prime.Redo)
}

// replay drives the undo/redo protocol of §4.4.4: open a routing-delta
// scope, subscribe a listener to the prime document's contents-changed
// signal for the duration of the call, fan each delta it observes out
// to every view, track the last delta's position, then unsubscribe and
// emit a single cursor hint.
func (m *Model) replay(op func() []Delta) (int, bool) {
	m.routingDelta = true
	defer func() { m.routingDelta = false }()

	var lastPos int
	var any bool

	unsub := m.prime.Subscribe(func(d Delta) {
		lastPos = d.Position
		any = true
		for _, doc := range m.views {
			doc.Splice(d.Position, d.removedCount(), d.Added)
		}
	})
	op()
	unsub()

	if !any {
		return 0, false
	}
	m.CursorHint.emit(lastPos)
	return lastPos, true
}

// BeginCompoundEdit opens an edit-block on the prime document: every
// delta routed through the Model before the matching EndCompoundEdit
// collapses into one undo record, and only the position of the last
// routed delta is reported as a cursor hint (§4.4.5; the imprecision for
// non-adjacent compound spans is an acknowledged approximation per §9).
func (m *Model) BeginCompoundEdit() {
	m.prime.BeginEditBlock()
	m.inCompound = true
	m.compoundHasRoute = false
}

// EndCompoundEdit closes the compound-edit group opened by
// BeginCompoundEdit and emits one CursorHint for the last delta routed
// during the compound, if any were.
func (m *Model) EndCompoundEdit() {
	m.prime.EndEditBlock()
	m.inCompound = false
	if m.compoundHasRoute {
		m.CursorHint.emit(m.lastRoutedPosition)
	}
	m.compoundHasRoute = false
}

// CanUndo/CanRedo report on the prime document's history.
func (m *Model) CanUndo() bool { return m.prime.CanUndo() }
func (m *Model) CanRedo() bool { return m.prime.CanRedo() }

// OnContentsChanged subscribes f to every delta applied to the prime
// document, regardless of origin (a routed view edit, SetData, or an
// undo/redo replay step). This is a general-purpose hook for callers'
// own bookkeeping, distinct from the title-derivation and cursor-hint
// signals, which carry spec-specific payloads.
func (m *Model) OnContentsChanged(f func(Delta)) func() {
	return m.prime.Subscribe(f)
}

func (m *Model) onPrimeTextChanged(Delta) {
	title, ok := DeriveTitle(m.prime.Text())
	m.TitleHint.emit(TitleHint{Title: title, Valid: ok})
}

// DeriveTitle implements §4.4.7: the title of an off-disk file is the
// first non-blank line of its document, trimmed, truncated to 27
// characters with "..." appended if longer. An all-blank document
// derives no title.
func DeriveTitle(text string) (string, bool) {
	for _, ln := range strings.Split(text, "\n") {
		t := strings.TrimSpace(ln)
		if t == "" {
			continue
		}
		r := []rune(t)
		if len(r) > titleMaxRunes {
			return string(r[:titleMaxRunes]) + titleEllipsis, true
		}
		return t, true
	}
	return "", false
}

// NormalizeLineEndings substitutes the host UI toolkit's internal
// paragraph separator and bare CR/CRLF sequences with a plain "\n"
// before text crosses into the engine's documents, per §4.4.6. The
// round-trip back out to a widget is the UI layer's responsibility and
// outside the engine core.
func NormalizeLineEndings(s string) string {
	const qtParagraphSeparator = " "
	s = strings.ReplaceAll(s, qtParagraphSeparator, "\n")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return s
}

// Package view implements the View Service (§4.5): the per-window tab
// container that mediates between open File Models (internal/filemodel)
// and the per-view Text Model attachments (internal/textmodel) backing
// each tab, with reference counting, close-hook-gated closing, and the
// model-to-view multiplicity queries the Save Pipeline and Workspace
// need (§4.6, §4.7).
package view

import (
	"github.com/fairybow/fernanda/internal/filemodel"
	"github.com/fairybow/fernanda/internal/textmodel"
)

// WindowID identifies one window in the Workspace. The engine core
// treats it as an opaque comparable key; window creation, layout, and
// focus are all external collaborator concerns (§4.7).
type WindowID string

// TabID identifies one open tab within a window, unique for the
// lifetime of the process.
type TabID int

// Tab is one open tab: a File Model and, for editable content, the
// per-view Text Model view backing it (§3.4). View is nil for a tab
// backed by a read-only No-Op File Model — there is nothing to attach a
// Text Model view to.
type Tab struct {
	ID    TabID
	Path  string // "" for an off-disk model
	Model filemodel.FileModel
	View  *textmodel.View
}

type window struct {
	tabs    []*Tab
	current int // index into tabs, -1 if empty
}

type signal[T any] struct {
	subs []func(T)
}

func (s *signal[T]) Subscribe(f func(T)) { s.subs = append(s.subs, f) }
func (s *signal[T]) emit(v T) {
	for _, f := range s.subs {
		f(v)
	}
}

// Hooks are the close-hook predicates the Workspace installs (§4.7): the
// View Service calls them before closing tabs and aborts the close on a
// false return. A nil hook is treated as always-approve, which is
// convenient for tests and for a Workspace that has nothing to prompt.
type Hooks struct {
	CanCloseTab           func(w WindowID, index int) bool
	CanCloseTabEverywhere func(w WindowID, index int) bool
	CanCloseWindowTabs    func(w WindowID) bool
	CanCloseAllTabs       func() bool
}

func (h Hooks) canCloseTab(w WindowID, i int) bool {
	if h.CanCloseTab == nil {
		return true
	}
	return h.CanCloseTab(w, i)
}

func (h Hooks) canCloseTabEverywhere(w WindowID, i int) bool {
	if h.CanCloseTabEverywhere == nil {
		return true
	}
	return h.CanCloseTabEverywhere(w, i)
}

func (h Hooks) canCloseWindowTabs(w WindowID) bool {
	if h.CanCloseWindowTabs == nil {
		return true
	}
	return h.CanCloseWindowTabs(w)
}

func (h Hooks) canCloseAllTabs() bool {
	if h.CanCloseAllTabs == nil {
		return true
	}
	return h.CanCloseAllTabs()
}

// Service is the View Service: one tab container per window (§4.5).
type Service struct {
	registry *filemodel.Registry
	Hooks    Hooks

	windows   map[WindowID]*window
	nextTabID TabID

	refCount map[filemodel.FileModel]int

	// ModelOrphaned fires when a model's view count reaches zero across
	// every window. The Workspace subscribes to decide whether to call
	// the Registry's DeleteModels — the engine-level rule from §3.3 that
	// a model is destroyed only once its view count is zero AND no
	// pending save targets it, which the View Service alone cannot
	// know.
	ModelOrphaned signal[filemodel.FileModel]

	// RaiseHook is called by Raise/RaiseModel to bring a window to the
	// front; window focus is a UI concern the engine core does not
	// implement, so this defaults to a no-op.
	RaiseHook func(w WindowID)
}

// NewService constructs a View Service backed by registry.
func NewService(registry *filemodel.Registry) *Service {
	return &Service{
		registry: registry,
		windows:  make(map[WindowID]*window),
		refCount: make(map[filemodel.FileModel]int),
	}
}

func (s *Service) win(w WindowID) *window {
	win, ok := s.windows[w]
	if !ok {
		win = &window{current: -1}
		s.windows[w] = win
	}
	return win
}

// OpenFilePathIn ensures a model for path via the Registry, adds a new
// tab to window bound to a fresh view of that model, and increments the
// model's view count (§4.5).
func (s *Service) OpenFilePathIn(w WindowID, path string, titleHint string) (*Tab, error) {
	m, err := s.registry.Open(path, titleHint)
	if err != nil {
		return nil, err
	}
	return s.addTab(w, path, m), nil
}

// OpenModelIn adds a new tab in window for an already-open model — used
// for off-disk models (which the Registry does not key by path) and for
// opening a second view onto a model already open elsewhere.
func (s *Service) OpenModelIn(w WindowID, m filemodel.FileModel) *Tab {
	return s.addTab(w, m.Meta().Path, m)
}

func (s *Service) addTab(w WindowID, path string, m filemodel.FileModel) *Tab {
	var v *textmodel.View
	if tm, ok := m.(*filemodel.TextFileModel); ok {
		v = tm.Model().AttachView()
	}

	s.nextTabID++
	tab := &Tab{ID: s.nextTabID, Path: path, Model: m, View: v}

	win := s.win(w)
	win.tabs = append(win.tabs, tab)
	win.current = len(win.tabs) - 1

	s.refCount[m]++
	return tab
}

// resolveIndex implements the "(index | -1)" convention used throughout
// §4.5: -1 means "the current tab".
func (win *window) resolveIndex(index int) int {
	if index == -1 {
		return win.current
	}
	return index
}

// FileViewAt returns the view at the given tab index in window (or the
// current tab if index is -1).
func (s *Service) FileViewAt(w WindowID, index int) (*textmodel.View, bool) {
	win, ok := s.windows[w]
	if !ok {
		return nil, false
	}
	i := win.resolveIndex(index)
	if i < 0 || i >= len(win.tabs) {
		return nil, false
	}
	return win.tabs[i].View, win.tabs[i].View != nil
}

// FileModelAt returns the model behind the tab at index in window (or
// the current tab if index is -1).
func (s *Service) FileModelAt(w WindowID, index int) (filemodel.FileModel, bool) {
	win, ok := s.windows[w]
	if !ok {
		return nil, false
	}
	i := win.resolveIndex(index)
	if i < 0 || i >= len(win.tabs) {
		return nil, false
	}
	return win.tabs[i].Model, true
}

// releaseTab removes tab from win's slice, detaches its view, and
// decrements the model's reference count, emitting ModelOrphaned if it
// reaches zero.
func (s *Service) releaseTab(win *window, i int) {
	tab := win.tabs[i]
	win.tabs = append(win.tabs[:i:i], win.tabs[i+1:]...)
	if win.current >= len(win.tabs) {
		win.current = len(win.tabs) - 1
	}

	if tab.View != nil {
		if tm, ok := tab.Model.(*filemodel.TextFileModel); ok {
			tm.Model().DetachView(tab.View)
		}
	}

	s.refCount[tab.Model]--
	if s.refCount[tab.Model] <= 0 {
		delete(s.refCount, tab.Model)
		s.ModelOrphaned.emit(tab.Model)
	}
}

// CloseTab closes the single tab at index in window (or the current tab
// if index is -1), gated by the CanCloseTab hook. Returns whether the
// tab was closed.
func (s *Service) CloseTab(w WindowID, index int) bool {
	win, ok := s.windows[w]
	if !ok {
		return false
	}
	i := win.resolveIndex(index)
	if i < 0 || i >= len(win.tabs) {
		return false
	}
	if !s.Hooks.canCloseTab(w, i) {
		return false
	}
	s.releaseTab(win, i)
	return true
}

// CloseTabEverywhere closes every tab across every window that
// references the same model as the tab at index in window, gated by the
// CanCloseTabEverywhere hook.
func (s *Service) CloseTabEverywhere(w WindowID, index int) bool {
	win, ok := s.windows[w]
	if !ok {
		return false
	}
	i := win.resolveIndex(index)
	if i < 0 || i >= len(win.tabs) {
		return false
	}
	if !s.Hooks.canCloseTabEverywhere(w, i) {
		return false
	}

	target := win.tabs[i].Model
	for _, other := range s.windows {
		for j := len(other.tabs) - 1; j >= 0; j-- {
			if other.tabs[j].Model == target {
				s.releaseTab(other, j)
			}
		}
	}
	return true
}

// CloseWindowTabs closes every tab in window, gated by the
// CanCloseWindowTabs hook.
func (s *Service) CloseWindowTabs(w WindowID) bool {
	win, ok := s.windows[w]
	if !ok {
		return false
	}
	if !s.Hooks.canCloseWindowTabs(w) {
		return false
	}
	for i := len(win.tabs) - 1; i >= 0; i-- {
		s.releaseTab(win, i)
	}
	return true
}

// CloseAllTabs closes every tab in every window, gated by the
// CanCloseAllTabs hook.
func (s *Service) CloseAllTabs() bool {
	if !s.Hooks.canCloseAllTabs() {
		return false
	}
	for _, win := range s.windows {
		for i := len(win.tabs) - 1; i >= 0; i-- {
			s.releaseTab(win, i)
		}
	}
	return true
}

// ModifiedViewModels returns the unique models, across every window,
// whose IsModified() is true.
func (s *Service) ModifiedViewModels() []filemodel.FileModel {
	return s.modifiedIn(nil, false)
}

// ModifiedViewModelsIn returns the unique modified models present in
// window. If excludeMultiWindow is true, models that also have views in
// another window are excluded — used by a per-window "save all" prompt
// that shouldn't silently save a file another window still has open
// unsaved elsewhere.
func (s *Service) ModifiedViewModelsIn(w WindowID, excludeMultiWindow bool) []filemodel.FileModel {
	return s.modifiedIn(&w, excludeMultiWindow)
}

func (s *Service) modifiedIn(w *WindowID, excludeMultiWindow bool) []filemodel.FileModel {
	seen := make(map[filemodel.FileModel]bool)
	var out []filemodel.FileModel

	scan := func(win *window) {
		for _, tab := range win.tabs {
			if seen[tab.Model] || !tab.Model.IsModified() {
				continue
			}
			if excludeMultiWindow && s.IsMultiWindow(tab.Model) {
				continue
			}
			seen[tab.Model] = true
			out = append(out, tab.Model)
		}
	}

	if w != nil {
		if win, ok := s.windows[*w]; ok {
			scan(win)
		}
		return out
	}
	for _, win := range s.windows {
		scan(win)
	}
	return out
}

// IsMultiWindow reports whether model has tabs open in two or more
// distinct windows.
func (s *Service) IsMultiWindow(m filemodel.FileModel) bool {
	count := 0
	for _, win := range s.windows {
		for _, tab := range win.tabs {
			if tab.Model == m {
				count++
				break
			}
		}
	}
	return count >= 2
}

// CountFor returns the live view (tab) count for model.
func (s *Service) CountFor(m filemodel.FileModel) int {
	return s.refCount[m]
}

// AnyViews reports whether any tab exists in any window.
func (s *Service) AnyViews() bool {
	for _, win := range s.windows {
		if len(win.tabs) > 0 {
			return true
		}
	}
	return false
}

// Raise brings the tab at index in window to the front and activates
// window, via RaiseHook. Returns false if the tab does not exist.
func (s *Service) Raise(w WindowID, index int) bool {
	win, ok := s.windows[w]
	if !ok {
		return false
	}
	i := win.resolveIndex(index)
	if i < 0 || i >= len(win.tabs) {
		return false
	}
	win.current = i
	if s.RaiseHook != nil {
		s.RaiseHook(w)
	}
	return true
}

// RaiseModel brings the first window found with a tab on model to the
// front, returning that window's id.
func (s *Service) RaiseModel(m filemodel.FileModel) (WindowID, bool) {
	for w, win := range s.windows {
		for i, tab := range win.tabs {
			if tab.Model == m {
				win.current = i
				if s.RaiseHook != nil {
					s.RaiseHook(w)
				}
				return w, true
			}
		}
	}
	return "", false
}

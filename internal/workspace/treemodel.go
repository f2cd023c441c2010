package workspace

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/fairybow/fernanda/internal/manifest"
)

// manifestTreeModel adapts a *manifest.Manifest to the TreeModel
// contract for a Notebook workspace's Tree-View Service hook (§4.7).
type manifestTreeModel struct {
	man *manifest.Manifest
}

func (t manifestTreeModel) Root() any { return t.man.NotebookRoot() }

func (t manifestTreeModel) Children(node any) []any {
	h, ok := node.(manifest.Handle)
	if !ok {
		return nil
	}
	children := t.man.Children(h)
	out := make([]any, len(children))
	for i, c := range children {
		out[i] = c
	}
	return out
}

func (t manifestTreeModel) Label(node any) string {
	h, ok := node.(manifest.Handle)
	if !ok {
		return ""
	}
	return t.man.Name(h)
}

// fsTreeModel is the Notepad workspace's "filesystem model" named in
// §4.7 — a plain directory listing rooted at root, used only to satisfy
// the Tree-View Service hook contract; Notepad has no persistent
// project structure of its own.
type fsTreeModel struct {
	root string
}

func (t fsTreeModel) Root() any { return t.root }

func (t fsTreeModel) Children(node any) []any {
	dir, ok := node.(string)
	if !ok {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	out := make([]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, filepath.Join(dir, e.Name()))
	}
	return out
}

func (t fsTreeModel) Label(node any) string {
	path, ok := node.(string)
	if !ok {
		return ""
	}
	return filepath.Base(path)
}

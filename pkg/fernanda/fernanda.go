// Package fernanda is the public facade over the notebook engine core,
// mirroring the teacher's pkg/linear client split from internal/*: a
// small, stable surface for embedding the engine in a UI or another
// program, while internal/* stays free to change shape.
package fernanda

import (
	"os"

	"github.com/fairybow/fernanda/internal/archive"
	"github.com/fairybow/fernanda/internal/workspace"
)

// Workspace re-exports the engine's Workspace type so callers of this
// package never need to import internal/workspace directly.
type Workspace = workspace.Workspace

// NewNotepad starts an empty Notepad workspace (§6.4: zero args).
func NewNotepad() *Workspace {
	return workspace.NewNotepad()
}

// NewNotebook creates or opens the notebook archive at path.
func NewNotebook(path string) (*Workspace, error) {
	return workspace.NewNotebook(path)
}

// OpenPath implements the classification rule of §6.4: if path exists
// and its content is a 7zip archive (by magic and extension), it opens
// as a Notebook; otherwise it opens as a plain file in a fresh Notepad
// workspace. A path that does not yet exist on disk is treated as a
// brand-new notebook candidate only when the caller explicitly asks for
// one via NewNotebook — OpenPath requires the path to already exist.
func OpenPath(path string) (*Workspace, error) {
	if _, err := os.Stat(path); err == nil && archive.IsFnxFile(path) {
		return workspace.NewNotebook(path)
	}

	ws := workspace.NewNotepad()
	if _, err := ws.Files.Open(path, ""); err != nil {
		return nil, err
	}
	return ws, nil
}

// IsNotebookPath reports whether path names an existing `.fnx` archive,
// the same check OpenPath uses to classify its argument (§6.4).
func IsNotebookPath(path string) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}
	return archive.IsFnxFile(path)
}

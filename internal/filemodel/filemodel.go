// Package filemodel implements the File Model (§3.3) and the File Model
// Registry (§4.3): the path-keyed, reference-counted-by-the-View-Service
// registry of open file models, and the two File Model variants named by
// the spec — an editable Text File Model backed by internal/textmodel,
// and a read-only No-Op File Model for unsupported content types.
package filemodel

// Kind distinguishes the File Model variants specified in §3.3.
type Kind int

const (
	KindText Kind = iota
	KindNoOp
)

// Meta is the small, mutable identity record every File Model carries:
// its current path, display title, on-disk flag, and an optional title
// override used for files whose on-disk name is a content-addressed
// uuid rather than something a user would recognize (§4.3).
type Meta struct {
	// Path is the absolute path on disk. Empty for an off-disk model
	// (§4.3 openOffDiskTxtIn).
	Path string

	// TitleOverride, if set, is shown instead of deriving a title from
	// Path's base name — used by Notebook for uuid-named content files
	// and by off-disk models deriving a title from their first line.
	TitleOverride string

	// OnDisk reports whether Path currently names a real file.
	OnDisk bool
}

// Title returns the model's display title: TitleOverride if set,
// otherwise the base name of Path, or "Untitled" if there is neither.
func (m Meta) Title() string {
	if m.TitleOverride != "" {
		return m.TitleOverride
	}
	if m.Path != "" {
		return basename(m.Path)
	}
	return "Untitled"
}

func basename(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}

// FileModel is the common contract every open-file backing object
// satisfies: a meta record, content bytes, and a modification flag
// (§3.3). Undo/redo is exposed only by the editable Text File Model
// variant (see TextFileModel); callers type-switch or check Kind() to
// reach it.
type FileModel interface {
	Kind() Kind
	Meta() Meta
	SetMeta(Meta)

	// Data returns the model's current content bytes.
	Data() []byte

	// SetData replaces the model's content wholesale — used by
	// round-trip tests (§8.1 invariant 6); the Registry builds models
	// from disk content directly rather than through SetData.
	// On the No-Op variant this is a no-op: the model is read-only.
	SetData([]byte)

	// IsModified reports the modification flag (§3.3). SetModified(false)
	// marks the content at the time of call as the clean position
	// (called by the Save Pipeline on a successful write, §4.6.1); on the
	// editable Text File Model, undoing back to that position reports
	// unmodified again rather than staying sticky (S3).
	IsModified() bool
	SetModified(bool)
}

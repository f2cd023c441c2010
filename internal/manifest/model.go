package manifest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const (
	manifestFileName = "Manifest.xml"
	contentDirName   = "content"
)

// FileInfo describes a file node returned from a mutating operation.
type FileInfo struct {
	Handle Handle
	Name   string
	UUID   string
	Ext    string
}

// VFolderInfo describes a virtual-folder node returned from a mutating
// operation.
type VFolderInfo struct {
	Handle Handle
	Name   string
	UUID   string
}

// RenameInfo is the payload of a fileRenamed emission.
type RenameInfo struct {
	Handle Handle
	Name   string
	UUID   string
}

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

// Manifest owns the parsed Manifest.xml DOM for one notebook working
// directory and exposes the CRUD/move/trash/restore contract of spec §4.2.
type Manifest struct {
	arena    *arena
	root     Handle
	notebook Handle
	trash    Handle
	byUUID   map[string]Handle

	snapshot []byte

	DomChanged  signal[struct{}]
	FileRenamed signal[RenameInfo]
}

// MinimalXML returns the bytes of a brand-new, empty Manifest.xml
// document: <fnx version="1.0"><notebook/><trash/></fnx>. The Archive
// Layer writes this when initializing a fresh working directory (§4.1).
func MinimalXML() []byte {
	a := newArena()
	root := a.alloc(KindRoot)
	notebook := a.alloc(KindNotebook)
	trash := a.alloc(KindTrash)
	a.appendChild(root.handle, notebook.handle)
	a.appendChild(root.handle, trash.handle)

	data, err := serializeXML(a, root.handle)
	if err != nil {
		// Encoding a three-node tree with no attributes cannot fail.
		panic(err)
	}
	return data
}

// New constructs an empty, in-memory Manifest not backed by any working
// directory on disk. Used by tests and by callers that build up a DOM
// before the first Write.
func New() *Manifest {
	a := newArena()
	root := a.alloc(KindRoot)
	notebook := a.alloc(KindNotebook)
	trash := a.alloc(KindTrash)
	a.appendChild(root.handle, notebook.handle)
	a.appendChild(root.handle, trash.handle)

	m := &Manifest{arena: a, root: root.handle, notebook: notebook.handle, trash: trash.handle, byUUID: make(map[string]Handle)}
	m.ResetSnapshot()
	return m
}

// Load parses workingDir/Manifest.xml and captures the initial snapshot.
// A parse error is fatal for the notebook per §4.2.
func Load(workingDir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(workingDir, manifestFileName))
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}

	a, root, notebook, trash, err := parseXML(data)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}

	m := &Manifest{arena: a, root: root, notebook: notebook, trash: trash, byUUID: make(map[string]Handle)}
	var index func(Handle)
	index = func(h Handle) {
		n := a.get(h)
		if n == nil {
			return
		}
		if id := n.UUID(); id != "" {
			m.byUUID[id] = h
		}
		for _, c := range n.children {
			index(c)
		}
	}
	index(root)

	m.ResetSnapshot()
	return m, nil
}

// NotebookRoot returns the handle of <notebook>, the root of the
// user-visible tree.
func (m *Manifest) NotebookRoot() Handle { return m.notebook }

// TrashRoot returns the handle of <trash>, the root of the trash tree.
func (m *Manifest) TrashRoot() Handle { return m.trash }

// FnxRoot returns the true DOM root, <fnx>.
func (m *Manifest) FnxRoot() Handle { return m.root }

// Children returns idx's child handles in document order.
func (m *Manifest) Children(idx Handle) []Handle {
	n := m.arena.get(idx)
	if n == nil {
		return nil
	}
	return append([]Handle(nil), n.children...)
}

// Parent returns idx's parent handle, or Invalid if idx is the root.
func (m *Manifest) Parent(idx Handle) Handle {
	n := m.arena.get(idx)
	if n == nil {
		return Invalid
	}
	return n.parent
}

// Kind reports idx's element kind.
func (m *Manifest) Kind(idx Handle) (Kind, bool) {
	n := m.arena.get(idx)
	if n == nil {
		return 0, false
	}
	return n.kind, true
}

// Name returns idx's display name.
func (m *Manifest) Name(idx Handle) string {
	n := m.arena.get(idx)
	if n == nil {
		return ""
	}
	return n.Name()
}

// UUID returns idx's identity attribute.
func (m *Manifest) UUID(idx Handle) string {
	n := m.arena.get(idx)
	if n == nil {
		return ""
	}
	return n.UUID()
}

// Extension returns a file node's extension.
func (m *Manifest) Extension(idx Handle) string {
	n := m.arena.get(idx)
	if n == nil {
		return ""
	}
	return n.Extension()
}

// Edited reports a file node's "edited" marker.
func (m *Manifest) Edited(idx Handle) bool {
	n := m.arena.get(idx)
	if n == nil {
		return false
	}
	return n.Edited()
}

// FindByUUID resolves a node handle by its persistent identity.
func (m *Manifest) FindByUUID(id string) (Handle, bool) {
	h, ok := m.byUUID[id]
	return h, ok
}

// ContentPath returns the on-disk path for a file node, per the
// deterministic content/<uuid><extension> mapping of §3.2.
func ContentPath(workingDir, uuid, extension string) string {
	return filepath.Join(workingDir, contentDirName, uuid+extension)
}

func (m *Manifest) contentPath(workingDir string, h Handle) string {
	n := m.arena.get(h)
	if n == nil {
		return ""
	}
	return ContentPath(workingDir, n.UUID(), n.Extension())
}

// resolveParent substitutes <notebook> for an invalid index, per the
// tree-model rule that mutation operations mean "top level" by an
// invalid index, never the true DOM root <fnx>.
func (m *Manifest) resolveParent(idx Handle) Handle {
	if idx == Invalid {
		return m.notebook
	}
	return idx
}

func newUUID() string {
	return uuid.New().String()
}

// AddNewTextFile creates an empty content file and a matching <file> node
// under parentIdx (or <notebook> if parentIdx is invalid).
func (m *Manifest) AddNewTextFile(workingDir string, parentIdx Handle) (FileInfo, error) {
	id := newUUID()
	path := ContentPath(workingDir, id, defaultExtension)
	if err := writeFileAtomic(path, nil); err != nil {
		return FileInfo{}, fmt.Errorf("add new text file: %w", err)
	}

	n := m.arena.alloc(KindFile)
	n.setAttr(attrName, "Untitled")
	n.setAttr(attrUUID, id)
	n.setAttr(attrExtension, defaultExtension)
	m.arena.appendChild(m.resolveParent(parentIdx), n.handle)
	m.byUUID[id] = n.handle

	m.DomChanged.emit(struct{}{})
	return FileInfo{Handle: n.handle, Name: n.Name(), UUID: id, Ext: defaultExtension}, nil
}

// ImportTextFiles copies each fsPath into content/<uuid>.txt and adds a
// matching node under parentIdx. A per-file failure skips that file and
// is not fatal to the batch.
func (m *Manifest) ImportTextFiles(workingDir string, fsPaths []string, parentIdx Handle) []FileInfo {
	var imported []FileInfo
	parent := m.resolveParent(parentIdx)

	for _, src := range fsPaths {
		data, err := os.ReadFile(src)
		if err != nil {
			continue
		}

		id := newUUID()
		dst := ContentPath(workingDir, id, defaultExtension)
		if err := writeFileAtomic(dst, data); err != nil {
			continue
		}

		n := m.arena.alloc(KindFile)
		n.setAttr(attrName, filepath.Base(src))
		n.setAttr(attrUUID, id)
		n.setAttr(attrExtension, defaultExtension)
		m.arena.appendChild(parent, n.handle)
		m.byUUID[id] = n.handle

		imported = append(imported, FileInfo{Handle: n.handle, Name: n.Name(), UUID: id, Ext: defaultExtension})
	}

	if len(imported) > 0 {
		m.DomChanged.emit(struct{}{})
	}
	return imported
}

// AddNewVirtualFolder adds a purely logical <vfolder> child of parentIdx.
func (m *Manifest) AddNewVirtualFolder(parentIdx Handle) VFolderInfo {
	id := newUUID()
	n := m.arena.alloc(KindVFolder)
	n.setAttr(attrName, "New folder")
	n.setAttr(attrUUID, id)
	m.arena.appendChild(m.resolveParent(parentIdx), n.handle)
	m.byUUID[id] = n.handle

	m.DomChanged.emit(struct{}{})
	return VFolderInfo{Handle: n.handle, Name: n.Name(), UUID: id}
}

// Rename changes idx's display name. An empty name is a silent no-op per
// §7's validation-failure policy.
func (m *Manifest) Rename(idx Handle, newName string) {
	if newName == "" {
		return
	}
	n := m.arena.get(idx)
	if n == nil || n.kind == KindRoot || n.kind == KindNotebook || n.kind == KindTrash {
		return
	}

	n.setAttr(attrName, newName)
	m.DomChanged.emit(struct{}{})

	if n.kind == KindFile {
		m.FileRenamed.emit(RenameInfo{Handle: idx, Name: newName, UUID: n.UUID()})
	}
}

// MoveToTrash moves idx's subtree into <trash>, recording the node's
// current parent as its parent_on_restore_uuid.
func (m *Manifest) MoveToTrash(idx Handle) {
	n := m.arena.get(idx)
	if n == nil || n.kind == KindRoot || n.kind == KindNotebook || n.kind == KindTrash {
		return
	}

	parentUUID := ""
	if parent := m.arena.get(n.parent); parent != nil {
		parentUUID = parent.UUID() // empty when the parent is <notebook> itself
	}

	m.arena.detach(idx)
	if parentUUID != "" {
		n.setAttr(attrParentOnRestore, parentUUID)
	} else {
		n.deleteAttr(attrParentOnRestore)
	}
	m.arena.appendChild(m.trash, idx)

	m.DomChanged.emit(struct{}{})
}

// MoveToNotebook restores idx from <trash> to its recorded parent, or to
// <notebook> root if that parent no longer exists or is no longer under
// <notebook> (for instance, it has itself been trashed) (§9 open question).
func (m *Manifest) MoveToNotebook(idx Handle) {
	n := m.arena.get(idx)
	if n == nil {
		return
	}

	restoreParent := m.notebook
	if id := n.ParentOnRestoreUUID(); id != "" {
		if h, ok := m.byUUID[id]; ok {
			for p := h; p != Invalid; p = m.Parent(p) {
				if p == m.notebook {
					restoreParent = h
					break
				}
			}
		}
	}

	m.arena.detach(idx)
	n.deleteAttr(attrParentOnRestore)
	m.arena.appendChild(restoreParent, idx)

	m.DomChanged.emit(struct{}{})
}

// Remove detaches idx's subtree and unlinks any content files it
// contained. A disk failure is logged by the caller via the returned
// error list; the DOM mutation is applied regardless (§4.2, §7).
func (m *Manifest) Remove(workingDir string, idx Handle) []error {
	n := m.arena.get(idx)
	if n == nil || n.kind == KindRoot || n.kind == KindNotebook || n.kind == KindTrash {
		return nil
	}

	removed := m.arena.deleteSubtree(idx)

	var errs []error
	for _, f := range removed {
		delete(m.byUUID, f.UUID)
		if err := os.Remove(ContentPath(workingDir, f.UUID, f.Extension)); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("remove content file %s%s: %w", f.UUID, f.Extension, err))
		}
	}

	m.DomChanged.emit(struct{}{})
	return errs
}

// ClearTrash permanently removes every child of <trash>.
func (m *Manifest) ClearTrash(workingDir string) []error {
	var errs []error
	for _, child := range m.Children(m.trash) {
		errs = append(errs, m.Remove(workingDir, child)...)
	}
	return errs
}

// SetFileEdited sets or clears the "edited" marker attribute on the file
// node identified by uuid. A missing uuid is a silent no-op.
func (m *Manifest) SetFileEdited(uuid string, edited bool) {
	h, ok := m.byUUID[uuid]
	if !ok {
		return
	}
	n := m.arena.get(h)
	if n == nil || n.kind != KindFile {
		return
	}
	if edited {
		n.setAttr(attrEdited, "true")
	} else {
		n.deleteAttr(attrEdited)
	}
	m.DomChanged.emit(struct{}{})
}

// Write serializes the DOM to workingDir/Manifest.xml, pretty-printed
// with 2-space indentation. A disk error is logged by the caller; this
// method only reports it.
func (m *Manifest) Write(workingDir string) error {
	data, err := serializeXML(m.arena, m.root)
	if err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(workingDir, manifestFileName), data); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// IsModified reports whether the DOM differs from the snapshot captured
// at Load or at the last ResetSnapshot call. This is the Manifest-local
// half of the dirty-tracking contract in §4.2; the archive-existence
// half is layered on top by the Notebook workspace (see
// internal/workspace), since the Manifest has no notion of an archive
// path of its own.
func (m *Manifest) IsModified() bool {
	current, err := serializeXML(m.arena, m.root)
	if err != nil {
		// An unserializable DOM is certainly not equal to any snapshot
		// that was serialized successfully.
		return true
	}
	return !bytes.Equal(current, m.snapshot)
}

// ResetSnapshot captures the current DOM as the new dirty-tracking
// baseline.
func (m *Manifest) ResetSnapshot() {
	data, err := serializeXML(m.arena, m.root)
	if err != nil {
		m.snapshot = nil
		return
	}
	m.snapshot = data
}

// writeFileAtomic writes data to path by writing a temp file in the same
// directory and renaming it into place, so a crash mid-write never
// leaves a half-written file at path. Grounded on the write-temp-then-
// rename pattern used for content-addressed blob stores in the pack
// (google-slothfs's cache.CAS.Write).
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

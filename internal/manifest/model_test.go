package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func newWorkingDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, contentDirName), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestFileName), MinimalXML(), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadMinimal(t *testing.T) {
	t.Parallel()
	dir := newWorkingDir(t)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if m.IsModified() {
		t.Error("freshly loaded manifest should not be modified")
	}
	if len(m.Children(m.NotebookRoot())) != 0 {
		t.Error("fresh notebook should have no children")
	}
}

// TestS1BrandNewNotebookRoundTrip exercises scenario S1 from spec.md §8.2:
// a brand-new notebook gets one renamed text file with content, written,
// then re-loaded, and the Manifest/content must agree.
func TestS1BrandNewNotebookRoundTrip(t *testing.T) {
	t.Parallel()
	dir := newWorkingDir(t)

	m, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	info, err := m.AddNewTextFile(dir, Invalid)
	if err != nil {
		t.Fatalf("AddNewTextFile() error = %v", err)
	}
	m.Rename(info.Handle, "Chapter 1")

	if err := os.WriteFile(ContentPath(dir, info.UUID, info.Ext), []byte("Hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := m.Write(dir); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	m.ResetSnapshot()

	reloaded, err := Load(dir)
	if err != nil {
		t.Fatalf("reload error = %v", err)
	}
	children := reloaded.Children(reloaded.NotebookRoot())
	if len(children) != 1 {
		t.Fatalf("expected 1 child of <notebook>, got %d", len(children))
	}
	child := children[0]
	if reloaded.Name(child) != "Chapter 1" {
		t.Errorf("Name() = %q, want %q", reloaded.Name(child), "Chapter 1")
	}
	if reloaded.Extension(child) != ".txt" {
		t.Errorf("Extension() = %q, want %q", reloaded.Extension(child), ".txt")
	}
	if reloaded.UUID(child) != info.UUID {
		t.Errorf("UUID() = %q, want %q", reloaded.UUID(child), info.UUID)
	}

	data, err := os.ReadFile(ContentPath(dir, info.UUID, info.Ext))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "Hello" {
		t.Errorf("content = %q, want %q", data, "Hello")
	}
}

// TestS5TrashAndRestore exercises scenario S5: a file in a virtual
// folder moves to trash recording the restore parent, then comes back.
func TestS5TrashAndRestore(t *testing.T) {
	t.Parallel()
	dir := newWorkingDir(t)
	m, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	folder := m.AddNewVirtualFolder(Invalid)
	file, err := m.AddNewTextFile(dir, folder.Handle)
	if err != nil {
		t.Fatal(err)
	}

	m.MoveToTrash(file.Handle)

	trashChildren := m.Children(m.TrashRoot())
	if len(trashChildren) != 1 || trashChildren[0] != file.Handle {
		t.Fatalf("file should be the sole child of <trash>, got %v", trashChildren)
	}
	if got := m.Parent(file.Handle); got != m.TrashRoot() {
		t.Errorf("Parent() = %v, want trash root %v", got, m.TrashRoot())
	}

	// Restore.
	m.MoveToNotebook(file.Handle)

	if got := m.Parent(file.Handle); got != folder.Handle {
		t.Errorf("Parent() after restore = %v, want folder %v", got, folder.Handle)
	}
	if len(m.Children(m.TrashRoot())) != 0 {
		t.Error("trash should be empty after restore")
	}
}

// TestS5RestoreParentGone covers the §9 open-question resolution: when
// the recorded restore parent has itself been moved to the trash, the
// node restores under <notebook> root.
func TestS5RestoreParentGone(t *testing.T) {
	t.Parallel()
	dir := newWorkingDir(t)
	m, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	folder := m.AddNewVirtualFolder(Invalid)
	file, err := m.AddNewTextFile(dir, folder.Handle)
	if err != nil {
		t.Fatal(err)
	}

	m.MoveToTrash(file.Handle)
	m.MoveToTrash(folder.Handle) // now the restore-parent folder is also trashed

	m.MoveToNotebook(file.Handle)

	if got := m.Parent(file.Handle); got != m.NotebookRoot() {
		t.Errorf("Parent() = %v, want notebook root %v (parent no longer exists)", got, m.NotebookRoot())
	}
}

// TestS6PermanentDeleteRemovesContent exercises scenario S6: deleting a
// trashed file removes both the Manifest node and its content file.
func TestS6PermanentDeleteRemovesContent(t *testing.T) {
	t.Parallel()
	dir := newWorkingDir(t)
	m, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	file, err := m.AddNewTextFile(dir, Invalid)
	if err != nil {
		t.Fatal(err)
	}
	path := ContentPath(dir, file.UUID, file.Ext)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("content file should exist before trash: %v", err)
	}

	m.MoveToTrash(file.Handle)
	if errs := m.Remove(dir, file.Handle); len(errs) != 0 {
		t.Fatalf("Remove() errors = %v", errs)
	}

	if _, ok := m.FindByUUID(file.UUID); ok {
		t.Error("file node should no longer be findable by uuid")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("content file should have been unlinked, stat err = %v", err)
	}
}

func TestClearTrash(t *testing.T) {
	t.Parallel()
	dir := newWorkingDir(t)
	m, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		f, err := m.AddNewTextFile(dir, Invalid)
		if err != nil {
			t.Fatal(err)
		}
		m.MoveToTrash(f.Handle)
	}

	if errs := m.ClearTrash(dir); len(errs) != 0 {
		t.Fatalf("ClearTrash() errors = %v", errs)
	}
	if len(m.Children(m.TrashRoot())) != 0 {
		t.Error("trash should be empty after ClearTrash")
	}
}

func TestRenameEmptyIsNoOp(t *testing.T) {
	t.Parallel()
	dir := newWorkingDir(t)
	m, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	f, err := m.AddNewTextFile(dir, Invalid)
	if err != nil {
		t.Fatal(err)
	}
	before := m.Name(f.Handle)
	m.Rename(f.Handle, "")
	if m.Name(f.Handle) != before {
		t.Errorf("Rename(\"\") changed name from %q to %q", before, m.Name(f.Handle))
	}
}

func TestRenameEmitsFileRenamedOnce(t *testing.T) {
	t.Parallel()
	dir := newWorkingDir(t)
	m, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	f, err := m.AddNewTextFile(dir, Invalid)
	if err != nil {
		t.Fatal(err)
	}

	var events []RenameInfo
	m.FileRenamed.Subscribe(func(r RenameInfo) { events = append(events, r) })

	m.Rename(f.Handle, "Chapter 2")

	if len(events) != 1 {
		t.Fatalf("FileRenamed fired %d times, want 1", len(events))
	}
	if events[0].UUID != f.UUID {
		t.Errorf("FileRenamed UUID = %q, want %q (uuid must be unchanged by rename)", events[0].UUID, f.UUID)
	}
	if events[0].Name != "Chapter 2" {
		t.Errorf("FileRenamed Name = %q, want %q", events[0].Name, "Chapter 2")
	}
}

func TestIsModifiedTracksSnapshot(t *testing.T) {
	t.Parallel()
	dir := newWorkingDir(t)
	m, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	if m.IsModified() {
		t.Fatal("fresh load should not be modified")
	}

	if _, err := m.AddNewTextFile(dir, Invalid); err != nil {
		t.Fatal(err)
	}
	if !m.IsModified() {
		t.Error("adding a file should mark the manifest modified")
	}

	m.ResetSnapshot()
	if m.IsModified() {
		t.Error("ResetSnapshot should clear the modified flag")
	}
}

func TestUUIDsAreUniqueV4Hyphenated(t *testing.T) {
	t.Parallel()
	dir := newWorkingDir(t)
	m, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		f, err := m.AddNewTextFile(dir, Invalid)
		if err != nil {
			t.Fatal(err)
		}
		if seen[f.UUID] {
			t.Fatalf("duplicate uuid generated: %s", f.UUID)
		}
		seen[f.UUID] = true
		if len(f.UUID) != 36 {
			t.Errorf("uuid %q is not 36 chars (hyphenated, no braces)", f.UUID)
		}
	}
}

func TestInvalidIndexMapsToNotebookRoot(t *testing.T) {
	t.Parallel()
	dir := newWorkingDir(t)
	m, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	vf := m.AddNewVirtualFolder(Invalid)
	if got := m.Parent(vf.Handle); got != m.NotebookRoot() {
		t.Errorf("Parent() = %v, want notebook root %v", got, m.NotebookRoot())
	}
}

package save

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fairybow/fernanda/internal/archive"
	"github.com/fairybow/fernanda/internal/filemodel"
	"github.com/fairybow/fernanda/internal/manifest"
)

func TestSaveNotepadFileNoOpWhenUnmodified(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	os.WriteFile(path, []byte("original"), 0o644)

	reg := filemodel.NewRegistry()
	m, err := reg.Open(path, "")
	if err != nil {
		t.Fatal(err)
	}

	result, err := SaveNotepadFile(m, path)
	if err != nil {
		t.Fatalf("SaveNotepadFile() error: %v", err)
	}
	if result != ResultNoOp {
		t.Errorf("result = %v, want ResultNoOp", result)
	}
}

func TestSaveNotepadFileWritesAndClearsModified(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	os.WriteFile(path, []byte("original"), 0o644)

	reg := filemodel.NewRegistry()
	m, _ := reg.Open(path, "")
	tm := m.(*filemodel.TextFileModel)
	v := tm.Model().AttachView()
	v.Edit(0, len("original"), "rewritten")

	if !m.IsModified() {
		t.Fatal("setup: model should be modified after edit")
	}

	result, err := SaveNotepadFile(m, path)
	if err != nil {
		t.Fatalf("SaveNotepadFile() error: %v", err)
	}
	if result != ResultSuccess {
		t.Errorf("result = %v, want ResultSuccess", result)
	}
	if m.IsModified() {
		t.Error("model should not be modified after a successful save")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "rewritten" {
		t.Errorf("file content = %q, want %q", data, "rewritten")
	}
}

// TestNotebookRoundTrip is scenario S1: a brand-new notebook, one file
// named "Chapter 1" with content "Hello", saved to an archive path that
// did not exist before.
func TestNotebookRoundTrip(t *testing.T) {
	t.Parallel()
	if _, err := archive.Codec(); err != nil {
		t.Skipf("no 7z/7zz codec available in this environment: %v", err)
	}

	dir := t.TempDir()
	workingDir := filepath.Join(dir, "work")
	if err := archive.MakeNewWorkingDir(workingDir); err != nil {
		t.Fatal(err)
	}

	man := manifest.New()
	info, err := man.AddNewTextFile(workingDir, manifest.Invalid)
	if err != nil {
		t.Fatal(err)
	}
	man.Rename(info.Handle, "Chapter 1")

	reg := filemodel.NewRegistry()
	contentPath := manifest.ContentPath(workingDir, info.UUID, info.Ext)
	m, err := reg.Open(contentPath, "Chapter 1")
	if err != nil {
		t.Fatal(err)
	}
	tm := m.(*filemodel.TextFileModel)
	v := tm.Model().AttachView()
	v.Edit(0, 0, "Hello")

	archivePath := filepath.Join(dir, "A.fnx")
	targets := []ContentTarget{{UUID: info.UUID, Extension: info.Ext, Model: m}}

	report, err := SaveNotebook(man, workingDir, archivePath, targets)
	if err != nil {
		t.Fatalf("SaveNotebook() error: %v", err)
	}
	if report.Result != ResultSuccess {
		t.Fatalf("report.Result = %v, want ResultSuccess", report.Result)
	}

	if _, err := os.Stat(archivePath); err != nil {
		t.Errorf("archive should exist at %s: %v", archivePath, err)
	}
	if man.IsModified() {
		t.Error("manifest should not be modified after a successful save")
	}
	if m.IsModified() {
		t.Error("text model should not be modified after a successful save")
	}

	contentData, err := os.ReadFile(contentPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(contentData) != "Hello" {
		t.Errorf("content file = %q, want %q", contentData, "Hello")
	}

	extracted := filepath.Join(dir, "extracted")
	os.MkdirAll(extracted, 0o755)
	if err := archive.Extract(archivePath, extracted); err != nil {
		t.Fatal(err)
	}
	reopened, err := manifest.Load(extracted)
	if err != nil {
		t.Fatal(err)
	}
	children := reopened.Children(reopened.NotebookRoot())
	if len(children) != 1 {
		t.Fatalf("re-opened notebook has %d children, want 1", len(children))
	}
	if got := reopened.Name(children[0]); got != "Chapter 1" {
		t.Errorf("re-opened file name = %q, want %q", got, "Chapter 1")
	}
}

func TestSaveNotebookNoArchivePathErrors(t *testing.T) {
	t.Parallel()
	man := manifest.New()
	_, err := SaveNotebook(man, t.TempDir(), "", nil)
	if err != ErrNoArchivePath {
		t.Errorf("err = %v, want ErrNoArchivePath", err)
	}
}

func TestSaveNotebookNoOpWhenNothingModified(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	workingDir := filepath.Join(dir, "work")
	archive.MakeNewWorkingDir(workingDir)

	man, err := manifest.Load(workingDir)
	if err != nil {
		t.Fatal(err)
	}

	// A missing archive counts as modified, so put one in place first.
	archivePath := filepath.Join(dir, "A.fnx")
	if err := os.WriteFile(archivePath, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	report, err := SaveNotebook(man, workingDir, archivePath, nil)
	if err != nil {
		t.Fatalf("SaveNotebook() error: %v", err)
	}
	if report.Result != ResultNoOp {
		t.Errorf("result = %v, want ResultNoOp", report.Result)
	}
}

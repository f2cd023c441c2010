// Package save implements the Save Pipeline (§4.6): atomic single-file
// saves for Notepad, and the ordered, multi-step Notebook save —
// content files, then Manifest.xml, then archive compression — with no
// partial state mutation on failure (§7).
package save

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dustin/go-humanize"

	"github.com/fairybow/fernanda/internal/archive"
	"github.com/fairybow/fernanda/internal/filemodel"
	"github.com/fairybow/fernanda/internal/manifest"
)

// Result is the outcome of a save operation (§4.6.1, §4.6.3).
type Result int

const (
	ResultNoOp Result = iota
	ResultSuccess
	ResultFail
)

// ErrNoArchivePath is returned by SaveNotebook when the notebook has no
// archive path yet; the caller is expected to have already run the
// Save-As prompt (§4.6.3 step 1) and either supply a path or treat a
// user cancellation as a no-op per §7.
var ErrNoArchivePath = errors.New("save: notebook has no archive path")

// SaveNotepadFile implements §4.6.1: write m's content to path if
// modified, atomically, clearing the modification flag on success and
// leaving all state untouched on failure.
func SaveNotepadFile(m filemodel.FileModel, path string) (Result, error) {
	if !m.IsModified() {
		return ResultNoOp, nil
	}

	if err := writeFileAtomic(path, m.Data()); err != nil {
		return ResultFail, fmt.Errorf("save file %s: %w", path, err)
	}

	m.SetModified(false)
	return ResultSuccess, nil
}

// SaveNotepadFileAs implements §4.6.2: write m's content to newPath,
// and on success re-key the registry entry from oldPath to newPath so
// future opens of newPath resolve to the same model; oldPath no longer
// maps to it.
func SaveNotepadFileAs(reg *filemodel.Registry, m filemodel.FileModel, oldPath, newPath string) (Result, error) {
	if err := writeFileAtomic(newPath, m.Data()); err != nil {
		return ResultFail, fmt.Errorf("save file as %s: %w", newPath, err)
	}

	m.SetModified(false)
	if oldPath != "" {
		reg.Rekey(oldPath, newPath)
	} else {
		meta := m.Meta()
		meta.Path = newPath
		meta.OnDisk = true
		m.SetMeta(meta)
	}
	return ResultSuccess, nil
}

// ContentTarget pairs a Manifest file node's identity with the open
// Text File Model backing it, the unit the Notebook save pipeline writes
// to content/<uuid><extension>.
type ContentTarget struct {
	UUID      string
	Extension string
	Model     filemodel.FileModel
}

// Report describes the outcome of a Notebook save: which content files,
// if any, failed to write, and a human-readable summary suitable for
// the failure dialog named in §4.6.3/§7.
type Report struct {
	Result      Result
	FailedPaths []string
	Message     string
}

// SaveNotebook implements the Notebook save pipeline of §4.6.3: write
// every modified Text Model's content concurrently (collecting
// failures, §5's errgroup wiring), then the Manifest, then compress the
// working directory into archivePath — strictly in that order, with no
// step attempted if an earlier one failed, and no DOM snapshot reset or
// archive write on any failure.
func SaveNotebook(man *manifest.Manifest, workingDir, archivePath string, targets []ContentTarget) (Report, error) {
	if archivePath == "" {
		return Report{}, ErrNoArchivePath
	}

	var modified []ContentTarget
	for _, t := range targets {
		if t.Model.IsModified() {
			modified = append(modified, t)
		}
	}

	// §8.1 invariant 1: a notebook is modified if its Manifest's DOM
	// differs from the snapshot OR its archive path does not yet exist
	// on disk — a brand-new, never-saved notebook always runs the
	// pipeline even with an untouched DOM and no dirty content files.
	_, statErr := os.Stat(archivePath)
	notebookModified := man.IsModified() || statErr != nil

	if len(modified) == 0 && !notebookModified {
		return Report{Result: ResultNoOp}, nil
	}

	var mu sync.Mutex
	var failed []string
	var failedBytes int64

	g := new(errgroup.Group)
	for _, t := range modified {
		t := t
		g.Go(func() error {
			path := manifest.ContentPath(workingDir, t.UUID, t.Extension)
			data := t.Model.Data()
			if err := writeFileAtomic(path, data); err != nil {
				mu.Lock()
				failed = append(failed, path)
				failedBytes += int64(len(data))
				mu.Unlock()
				return err
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) > 0 {
		msg := fmt.Sprintf("%d file(s) failed to write (%s)", len(failed), humanize.Bytes(uint64(failedBytes)))
		return Report{Result: ResultFail, FailedPaths: failed, Message: msg}, fmt.Errorf("notebook save: %s", msg)
	}

	if err := man.Write(workingDir); err != nil {
		return Report{Result: ResultFail, Message: err.Error()}, fmt.Errorf("notebook save: %w", err)
	}

	if err := archive.Compress(archivePath, workingDir); err != nil {
		return Report{Result: ResultFail, Message: err.Error()}, fmt.Errorf("notebook save: %w", err)
	}

	for _, t := range modified {
		t.Model.SetModified(false)
	}
	man.ResetSnapshot()

	return Report{Result: ResultSuccess}, nil
}

// writeFileAtomic writes data to path via a temp file in the same
// directory followed by a rename, so a crash mid-write never leaves a
// half-written file at path (§4.6.1's atomicity requirement). The same
// pattern backs internal/manifest's Manifest.Write and Manifest.xml
// node content-file creation.
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

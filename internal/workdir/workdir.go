// Package workdir manages the process-local scratch directory backing an
// open notebook: creation with a randomized, collision-proof suffix,
// population from an archive (or a fresh template), and teardown on
// close.
package workdir

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/fairybow/fernanda/internal/archive"
)

const contentDirName = "content"

// Dir is a live working directory for one open notebook. The zero value
// is not usable; construct one with New.
type Dir struct {
	path string
}

// Path returns the absolute path of the working directory on disk.
func (d *Dir) Path() string { return d.path }

// ContentDir returns the path of the working directory's content/
// subdirectory.
func (d *Dir) ContentDir() string { return filepath.Join(d.path, contentDirName) }

// baseDirFunc is overridable in tests; it defaults to os.TempDir.
var baseDirFunc = os.TempDir

// New creates a fresh working directory under the system temp root, named
// from archivePath's base name plus a randomized suffix so that two
// notebooks with the same file name never collide, and so a crashed
// process's leftover directory is trivially distinguishable from a live
// one's. archivePath may be empty for a notebook with no archive yet.
//
// If archivePath names an existing file, the working directory is
// populated by extracting it; otherwise it is populated by the
// fresh-notebook template.
func New(archivePath string) (*Dir, error) {
	stem := "untitled"
	if archivePath != "" {
		stem = strings.TrimSuffix(filepath.Base(archivePath), filepath.Ext(archivePath))
	}

	name := fmt.Sprintf("fernanda-%s-%s", sanitizeStem(stem), uuid.NewString())
	path := filepath.Join(baseDirFunc(), name)

	if err := os.MkdirAll(filepath.Join(path, contentDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create working directory: %w", err)
	}

	d := &Dir{path: path}

	if archivePath != "" {
		if _, err := os.Stat(archivePath); err == nil {
			if err := archive.Extract(archivePath, path); err != nil {
				return nil, fmt.Errorf("populate working directory: %w", err)
			}
			return d, nil
		}
	}

	if err := archive.MakeNewWorkingDir(path); err != nil {
		return nil, fmt.Errorf("populate working directory: %w", err)
	}
	return d, nil
}

// sanitizeStem strips characters that are awkward in a directory name,
// leaving the working directory's name legible for debugging without
// depending on the archive's file name being filesystem-safe verbatim.
func sanitizeStem(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "notebook"
	}
	return b.String()
}

// Close deletes the working directory from disk. Per §3.1, this always
// happens when the notebook is closed, regardless of whether unsaved
// changes existed; callers are responsible for prompting to save first.
func (d *Dir) Close() error {
	if err := os.RemoveAll(d.path); err != nil {
		return fmt.Errorf("remove working directory: %w", err)
	}
	return nil
}

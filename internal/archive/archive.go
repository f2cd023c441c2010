// Package archive extracts and compresses the 7zip-format .fnx archives
// that back a notebook, and initializes the on-disk layout of a brand-new
// working directory. No pure-Go 7zip writer in the dependency pack is of
// archival quality, so the codec is located on the host (a system 7z or
// 7zz executable) and invoked as a subprocess, the same strategy the
// original application used to locate its native codec library.
package archive

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/fairybow/fernanda/internal/cache"
	"github.com/fairybow/fernanda/internal/manifest"
)

const (
	contentDirName   = "content"
	manifestFileName = "Manifest.xml"

	// fnxExtension is the required extension for an archive path to be
	// considered a notebook file.
	fnxExtension = ".fnx"
)

// sevenZipMagic is the 6-byte signature at the start of every 7zip
// archive, regardless of extension.
var sevenZipMagic = []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}

// codecCache memoizes the located 7z executable path for one hour;
// locating it involves walking a handful of candidate paths, so it is
// repeated only after the cached entry expires.
var codecCache = cache.New[string](time.Hour, 1)

const codecCacheKey = "7z"

// Codec locates the 7zip-compatible executable used for extract/compress,
// searching PATH first and then a small set of standard install
// locations. The result is cached for one hour.
func Codec() (string, error) {
	return codecCache.GetOrLoad(codecCacheKey, locateCodec)
}

func locateCodec() (string, error) {
	for _, name := range []string{"7zz", "7z"} {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}

	for _, candidate := range standardCodecPaths() {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("locate 7zip codec: no 7z or 7zz executable found on PATH or in standard install locations")
}

// standardCodecPaths lists the fixed set of non-PATH locations searched
// for a 7zip executable on Unix-like systems.
func standardCodecPaths() []string {
	return []string{
		"/usr/bin/7zz",
		"/usr/bin/7z",
		"/usr/local/bin/7zz",
		"/usr/local/bin/7z",
		"/opt/homebrew/bin/7zz",
		"/snap/bin/7z",
	}
}

// IsFnxFile reports whether path has the .fnx extension and its header
// bytes identify it as a 7zip archive. Both conditions are required per
// the format contract; a renamed non-archive file or an archive with the
// wrong extension are both rejected.
func IsFnxFile(path string) bool {
	if filepath.Ext(path) != fnxExtension {
		return false
	}

	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	header := make([]byte, len(sevenZipMagic))
	if _, err := f.Read(header); err != nil {
		return false
	}
	return bytes.Equal(header, sevenZipMagic)
}

// Extract decompresses the 7zip archive at archivePath into workingDir,
// which must already exist. On failure workingDir may contain a partial
// extraction; the caller treats this as a fatal engine error and does not
// attempt to use the directory.
func Extract(archivePath, workingDir string) error {
	if _, err := os.Stat(workingDir); err != nil {
		return fmt.Errorf("extract archive: working directory missing: %w", err)
	}

	codec, err := Codec()
	if err != nil {
		return fmt.Errorf("extract archive: %w", err)
	}

	cmd := exec.Command(codec, "x", "-y", "-o"+workingDir, archivePath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("extract archive %s: %w: %s", archivePath, err, stderr.String())
	}
	return nil
}

// Compress writes every file and directory under workingDir into a new
// 7zip archive at archivePath, overwriting any existing file there.
func Compress(archivePath, workingDir string) error {
	codec, err := Codec()
	if err != nil {
		return fmt.Errorf("compress archive: %w", err)
	}

	// 7z refuses to add to an archive that already exists at the target
	// path in a way that matches the working directory; building fresh
	// into a sibling file and renaming into place keeps the existing
	// archive intact if compression fails partway through.
	tmp := archivePath + ".tmp-" + filepath.Base(workingDir)
	os.Remove(tmp)

	cmd := exec.Command(codec, "a", "-y", "-t7z", tmp, ".")
	cmd.Dir = workingDir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("compress archive %s: %w: %s", archivePath, err, stderr.String())
	}

	if err := os.Rename(tmp, archivePath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("compress archive %s: %w", archivePath, err)
	}
	return nil
}

// MakeNewWorkingDir initializes a brand-new notebook layout at workingDir:
// a content/ subdirectory and a minimal Manifest.xml.
func MakeNewWorkingDir(workingDir string) error {
	if err := os.MkdirAll(filepath.Join(workingDir, contentDirName), 0o755); err != nil {
		return fmt.Errorf("make new working directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(workingDir, manifestFileName), manifest.MinimalXML(), 0o644); err != nil {
		return fmt.Errorf("make new working directory: %w", err)
	}
	return nil
}

package filemodel

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// textExtension is the only extension the registry treats as editable
// text; everything else opens as a read-only No-Op File Model. Every
// Manifest file node defaults to this extension (§3.2), so in practice
// almost everything a notebook opens is editable.
const textExtension = ".txt"

type signal[T any] struct {
	subs []func(T)
}

func (s *signal[T]) Subscribe(f func(T)) { s.subs = append(s.subs, f) }
func (s *signal[T]) emit(v T) {
	for _, f := range s.subs {
		f(v)
	}
}

// Registry is the path-keyed map of open File Models described in §4.3.
// It holds no reference count of its own — the View Service owns every
// increment and decrement by virtue of creating and destroying views —
// so DeleteModels trusts its caller to have already driven the relevant
// models' view count to zero.
type Registry struct {
	mu     sync.Mutex
	models map[string]FileModel
	sf     singleflight.Group

	// FileReadied fires with a path whenever Open constructs a new
	// model for it (not when Open returns an already-open model).
	FileReadied signal[string]
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{models: make(map[string]FileModel)}
}

// Open returns the File Model for path, constructing one by reading the
// file from disk if none is open yet. Concurrent Open calls for the
// same unpopulated path — which can happen across the recursive event
// loop re-entrancy §5 calls out around file dialogs — collapse into a
// single disk read via singleflight, exactly the concurrent-open
// collapsing named in SPEC_FULL's domain-stack wiring for this package.
func (r *Registry) Open(path string, titleHint string) (FileModel, error) {
	if m, ok := r.peek(path); ok {
		return m, nil
	}

	v, err, _ := r.sf.Do(path, func() (any, error) {
		if m, ok := r.peek(path); ok {
			return m, nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("open file model %s: %w", path, err)
		}

		meta := Meta{Path: path, OnDisk: true, TitleOverride: titleHint}

		var fm FileModel
		if isSupportedText(path) {
			fm = NewTextFileModelFromDisk(meta, string(data))
		} else {
			fm = NewNoOpFileModel(meta, data)
		}

		r.mu.Lock()
		r.models[path] = fm
		r.mu.Unlock()

		r.FileReadied.emit(path)
		return fm, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(FileModel), nil
}

// Lookup returns the model currently open for path, if any, without
// creating one — used by the Save Pipeline wiring to collect content
// targets only for files that are actually open (§4.6.3).
func (r *Registry) Lookup(path string) (FileModel, bool) {
	return r.peek(path)
}

func (r *Registry) peek(path string) (FileModel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.models[path]
	return m, ok
}

// ModelsFor reports, for each of paths, whether a model is currently
// open for it. A pure membership query with no side effects (§4.3).
func (r *Registry) ModelsFor(paths []string) map[string]bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]bool, len(paths))
	for _, p := range paths {
		_, ok := r.models[p]
		out[p] = ok
	}
	return out
}

// DeleteModels synchronously destroys the models at paths. Callers must
// only pass paths whose view reference count has already reached zero
// (§4.3); the registry performs no check of its own since it keeps no
// count.
func (r *Registry) DeleteModels(paths []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range paths {
		delete(r.models, p)
	}
}

// SetPathTitleOverride sets the display title override for the model
// open at path — used by Notebook so a file named by its uuid on disk
// shows the user's chosen display name instead (§4.3).
func (r *Registry) SetPathTitleOverride(path, title string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.models[path]
	if !ok {
		return
	}
	meta := m.Meta()
	meta.TitleOverride = title
	m.SetMeta(meta)
}

// Rekey moves the model at oldPath to newPath, for Save-As (§4.6.2): the
// registry is keyed by path, so a path change must move the map entry,
// not just update the model's own Meta.
func (r *Registry) Rekey(oldPath, newPath string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.models[oldPath]
	if !ok {
		return
	}
	delete(r.models, oldPath)
	meta := m.Meta()
	meta.Path = newPath
	meta.OnDisk = true
	m.SetMeta(meta)
	r.models[newPath] = m
}

// OpenOffDiskTxtIn creates a fresh, path-less Text File Model — used to
// back a brand-new untitled Notepad tab (§4.3). It is not inserted into
// the path-keyed map since it has no path to be keyed by.
func (r *Registry) OpenOffDiskTxtIn() *TextFileModel {
	return NewOffDiskTextFileModel("Untitled")
}

func isSupportedText(path string) bool {
	return strings.EqualFold(filepath.Ext(path), textExtension)
}

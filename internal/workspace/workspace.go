// Package workspace implements the Workspace external-collaborator
// contract of §4.7: the thing that owns a Bus, a View Service, a File
// Service (Registry), a Tree-View model, a Settings Service, and a
// Color Bar (here, a status line), and wires the close hooks and
// settings access the engine core consumes. Two concrete shapes exist,
// matching §3.1/§6.4: Notepad (loose files, no archive) and Notebook
// (one open `.fnx` archive with its Manifest and working directory).
package workspace

import (
	"fmt"
	"os"

	"github.com/fairybow/fernanda/internal/bus"
	"github.com/fairybow/fernanda/internal/filemodel"
	"github.com/fairybow/fernanda/internal/manifest"
	"github.com/fairybow/fernanda/internal/save"
	"github.com/fairybow/fernanda/internal/settings"
	"github.com/fairybow/fernanda/internal/statusline"
	"github.com/fairybow/fernanda/internal/view"
	"github.com/fairybow/fernanda/internal/workdir"
)

// Kind distinguishes the two Workspace shapes named in §3.1/§6.4.
type Kind int

const (
	KindNotepad Kind = iota
	KindNotebook
)

// TreeModel is the Tree-View Service hook contract of §4.7:
// treeViewModel()/treeViewRootIndex(). Node identity is opaque to the
// caller (a Manifest Handle for Notebook, a filesystem path for
// Notepad).
type TreeModel interface {
	Root() any
	Children(node any) []any
	Label(node any) string
}

// Workspace ties the engine's Services together behind the external
// hooks named in §4.7. The Workspace holds no window ID of its own:
// callers mint their own view.WindowID values against the Views service.
type Workspace struct {
	Kind Kind

	Bus      *bus.Bus
	Views    *view.Service
	Files    *filemodel.Registry
	Settings *settings.Store
	Status   *statusline.Line

	// Notebook-only fields; zero values for a Notepad workspace.
	Manifest    *manifest.Manifest
	WorkingDir  *workdir.Dir
	ArchivePath string
}

// Hooks is the close-hook predicate set a caller installs before
// Views starts mediating tab/window closes, per §4.7. Each defaults to
// always-approve when left nil, same as view.Hooks.
type Hooks struct {
	CanCloseTab           func(w view.WindowID, index int) bool
	CanCloseTabEverywhere func(w view.WindowID, index int) bool
	CanCloseWindowTabs    func(w view.WindowID) bool
	CanCloseAllTabs       func() bool
}

func newCore(kind Kind) *Workspace {
	reg := filemodel.NewRegistry()
	return &Workspace{
		Kind:     kind,
		Bus:      bus.New(),
		Files:    reg,
		Views:    view.NewService(reg),
		Settings: settings.New(),
	}
}

// NewNotepad constructs an empty Notepad workspace backed by its own
// Registry and View Service (§6.4's "zero args -> open an empty Notepad
// workspace").
func NewNotepad() *Workspace {
	ws := newCore(KindNotepad)
	ws.wireSettingsBus()
	return ws
}

// NewNotebook opens archivePath as a Notebook workspace: it creates or
// extracts the working directory (§3.1, §4.1) and loads the Manifest
// (§3.2, §4.2). archivePath may name a file that does not yet exist, in
// which case a brand-new notebook is created.
func NewNotebook(archivePath string) (*Workspace, error) {
	ws := newCore(KindNotebook)
	ws.ArchivePath = archivePath

	dir, err := workdir.New(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open notebook: %w", err)
	}
	ws.WorkingDir = dir

	man, err := manifest.Load(dir.Path())
	if err != nil {
		dir.Close()
		return nil, fmt.Errorf("open notebook: %w", err)
	}
	ws.Manifest = man

	ws.wireSettingsBus()
	return ws, nil
}

// IsModified reports whether this workspace has unsaved state. For a
// Notebook this is the combined check named in §4.2/§8.1 invariant 1:
// the Manifest's DOM differs from its snapshot, OR the archive path
// does not yet exist on disk — a brand-new, never-saved notebook is
// always modified even with an untouched DOM. A Notepad workspace has
// no Manifest or archive path; callers check individual file models'
// IsModified instead (see ModifiedViewModels).
func (ws *Workspace) IsModified() bool {
	if ws.Kind != KindNotebook {
		return false
	}
	if ws.Manifest.IsModified() {
		return true
	}
	_, err := os.Stat(ws.ArchivePath)
	return err != nil
}

// ApplyHooks installs h as the View Service's close-hook predicates.
func (ws *Workspace) ApplyHooks(h Hooks) {
	ws.Views.Hooks = view.Hooks{
		CanCloseTab:           h.CanCloseTab,
		CanCloseTabEverywhere: h.CanCloseTabEverywhere,
		CanCloseWindowTabs:    h.CanCloseWindowTabs,
		CanCloseAllTabs:       h.CanCloseAllTabs,
	}
}

// wireSettingsBus registers the Bus's settings commands/calls against
// this Workspace's Settings Store, the "Settings access" hook named in
// §4.7: bus.call(GET_SETTING, key, defaultValue), bus.set(key, value).
func (ws *Workspace) wireSettingsBus() {
	ws.Bus.HandleCall(bus.GetSetting, func(p bus.Params) any {
		key := bus.MustString(p, "key")
		if v, ok := ws.Settings.Get(key); ok {
			return v
		}
		return p["default"]
	})
	ws.Bus.HandleCommand(bus.SetSetting, func(p bus.Params) {
		key := bus.MustString(p, "key")
		value, _ := p["value"].(string)
		ws.Settings.Set(key, value)
	})
}

// TreeViewModel returns the Manifest-derived tree model for a Notebook
// workspace, or a filesystem model rooted at rootDir for a Notepad
// workspace, per §4.7's treeViewModel() hook.
func (ws *Workspace) TreeViewModel(rootDir string) TreeModel {
	if ws.Kind == KindNotebook {
		return manifestTreeModel{man: ws.Manifest}
	}
	return fsTreeModel{root: rootDir}
}

// TreeViewRootIndex returns the node under which the UI should display
// children, per §4.7's treeViewRootIndex() hook.
func (ws *Workspace) TreeViewRootIndex(rootDir string) any {
	return ws.TreeViewModel(rootDir).Root()
}

// SaveAll runs the appropriate Save Pipeline step for every modified,
// currently-open file in the workspace (§4.6). For a Notepad workspace
// this is a Notepad save per open, modified tab; for a Notebook
// workspace this is one Notebook save covering every modified content
// file plus the Manifest and archive.
func (ws *Workspace) SaveAll() (save.Report, error) {
	if ws.Kind == KindNotebook {
		return ws.saveNotebook()
	}
	return ws.saveNotepadAll()
}

func (ws *Workspace) saveNotepadAll() (save.Report, error) {
	report := save.Report{Result: save.ResultNoOp}
	for _, m := range ws.Views.ModifiedViewModels() {
		path := m.Meta().Path
		if path == "" {
			continue
		}
		result, err := save.SaveNotepadFile(m, path)
		if err != nil {
			report.Result = save.ResultFail
			report.FailedPaths = append(report.FailedPaths, path)
			continue
		}
		if result == save.ResultSuccess && report.Result != save.ResultFail {
			report.Result = save.ResultSuccess
		}
	}
	if len(report.FailedPaths) > 0 {
		report.Message = fmt.Sprintf("%d file(s) failed to save", len(report.FailedPaths))
	}
	return report, nil
}

func (ws *Workspace) saveNotebook() (save.Report, error) {
	var targets []save.ContentTarget
	for _, h := range allFileHandles(ws.Manifest) {
		path := manifest.ContentPath(ws.WorkingDir.Path(), ws.Manifest.UUID(h), ws.Manifest.Extension(h))
		m, ok := ws.Files.Lookup(path)
		if !ok {
			continue
		}
		targets = append(targets, save.ContentTarget{
			UUID:      ws.Manifest.UUID(h),
			Extension: ws.Manifest.Extension(h),
			Model:     m,
		})
	}
	return save.SaveNotebook(ws.Manifest, ws.WorkingDir.Path(), ws.ArchivePath, targets)
}

// allFileHandles walks the notebook subtree (not trash) collecting
// every file node's Handle.
func allFileHandles(man *manifest.Manifest) []manifest.Handle {
	var out []manifest.Handle
	var walk func(manifest.Handle)
	walk = func(h manifest.Handle) {
		for _, c := range man.Children(h) {
			if k, ok := man.Kind(c); ok && k == manifest.KindFile {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(man.NotebookRoot())
	return out
}

// Close tears down the workspace's working directory (Notebook only).
// Per §3.1, this always removes the working directory from disk
// regardless of unsaved state; callers must have already prompted to
// save.
func (ws *Workspace) Close() error {
	if ws.WorkingDir != nil {
		return ws.WorkingDir.Close()
	}
	return nil
}

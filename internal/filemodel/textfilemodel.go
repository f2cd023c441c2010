package filemodel

import "github.com/fairybow/fernanda/internal/textmodel"

// TextFileModel is the editable File Model variant (§3.3, §3.4): it owns
// the prime document and fan-out logic from internal/textmodel and
// exposes the view-attachment points the View Service uses to give each
// open tab its own local document (§4.4.2).
type TextFileModel struct {
	meta  Meta
	model *textmodel.Model
}

// NewTextFileModelFromDisk constructs a Text File Model already
// considered saved: its modification flag starts false, matching
// content just read from disk.
func NewTextFileModelFromDisk(meta Meta, content string) *TextFileModel {
	return &TextFileModel{meta: meta, model: textmodel.New(content)}
}

// NewOffDiskTextFileModel constructs a fresh, empty Text File Model with
// no backing path, used by Notepad's "new untitled tab" (§4.3
// openOffDiskTxtIn) and re-deriving its title from the first line typed
// (§4.4.7).
func NewOffDiskTextFileModel(titleHint string) *TextFileModel {
	f := &TextFileModel{meta: Meta{TitleOverride: titleHint}}
	f.model = textmodel.New("")
	f.model.TitleHint.Subscribe(func(h textmodel.TitleHint) {
		if h.Valid {
			f.meta.TitleOverride = h.Title
		} else {
			f.meta.TitleOverride = ""
		}
	})
	return f
}

func (f *TextFileModel) Kind() Kind     { return KindText }
func (f *TextFileModel) Meta() Meta     { return f.meta }
func (f *TextFileModel) SetMeta(m Meta) { f.meta = m }

func (f *TextFileModel) Data() []byte     { return f.model.Data() }
func (f *TextFileModel) SetData(d []byte) { f.model.SetData(d) }

// IsModified and SetModified delegate to the Text Model's prime
// document, which tracks modification against a clean undo-stack depth
// (Qt's QTextDocument::isModified scheme) rather than a sticky flag, so
// undoing back to the saved position clears it again (S3).
func (f *TextFileModel) IsModified() bool   { return f.model.IsModified() }
func (f *TextFileModel) SetModified(v bool) { f.model.SetModified(v) }

// Model returns the underlying Text Model for view attachment and
// undo/redo (§4.4).
func (f *TextFileModel) Model() *textmodel.Model { return f.model }

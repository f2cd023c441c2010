// Package manifest owns the parsed Manifest.xml DOM for a notebook working
// directory: the logical tree of virtual folders and files, the trash
// subtree, and the CRUD/move/trash/restore operations that keep the DOM
// and the working directory's content/ folder in lock-step.
//
// The DOM is modeled as an arena of nodes addressed by stable integer
// handles rather than pointer-linked elements, per the node-identity
// scheme spec'd for implementers who don't have a DOM library with
// pointer-stable node identity (the pack offers none; cue-lang-cue's
// encoding/xml usage is a one-shot struct-tag codec, the wrong shape for
// a document that must support live, targeted mutation).
package manifest

import "encoding/xml"

// Handle is a stable identifier for a node within a Manifest's arena.
// The zero Handle is never a valid node; it is used to mean "invalid
// index" at the tree-model boundary (see resolveParent).
type Handle int

// Invalid is the zero Handle, returned by lookups that fail and accepted
// by mutation operations to mean "no index given by the caller".
const Invalid Handle = 0

// Kind distinguishes the five element classes that can appear in the DOM.
type Kind int

const (
	KindRoot Kind = iota // <fnx>, the true DOM root
	KindNotebook
	KindTrash
	KindVFolder
	KindFile
)

const (
	tagFnx      = "fnx"
	tagNotebook = "notebook"
	tagTrash    = "trash"
	tagVFolder  = "vfolder"
	tagFile     = "file"

	attrVersion         = "version"
	attrName            = "name"
	attrUUID            = "uuid"
	attrExtension       = "extension"
	attrEdited          = "edited"
	attrParentOnRestore = "parent_on_restore_uuid"

	fnxVersion       = "1.0"
	defaultExtension = ".txt"
)

// node is one element of the DOM. Attrs is the authoritative, ordered
// attribute list: known attributes (name, uuid, extension, ...) are read
// and written through it so that unknown attributes placed there by a
// newer writer round-trip untouched, per the spec's external-interface
// contract (§6.2).
type node struct {
	kind     Kind
	handle   Handle
	parent   Handle
	children []Handle
	attrs    []xml.Attr
}

func tagFor(k Kind) string {
	switch k {
	case KindRoot:
		return tagFnx
	case KindNotebook:
		return tagNotebook
	case KindTrash:
		return tagTrash
	case KindVFolder:
		return tagVFolder
	case KindFile:
		return tagFile
	default:
		return ""
	}
}

func (n *node) attr(name string) (string, bool) {
	for _, a := range n.attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (n *node) setAttr(name, value string) {
	for i, a := range n.attrs {
		if a.Name.Local == name {
			n.attrs[i].Value = value
			return
		}
	}
	n.attrs = append(n.attrs, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}

func (n *node) deleteAttr(name string) {
	for i, a := range n.attrs {
		if a.Name.Local == name {
			n.attrs = append(n.attrs[:i], n.attrs[i+1:]...)
			return
		}
	}
}

// Name returns the node's display name, empty for kinds without one.
func (n *node) Name() string { v, _ := n.attr(attrName); return v }

// UUID returns the node's identity attribute, empty for root/notebook/trash.
func (n *node) UUID() string { v, _ := n.attr(attrUUID); return v }

// Extension returns a file node's extension, defaulting to ".txt".
func (n *node) Extension() string {
	if v, ok := n.attr(attrExtension); ok && v != "" {
		return v
	}
	return defaultExtension
}

// Edited reports whether the file node carries the "edited" marker.
func (n *node) Edited() bool {
	v, ok := n.attr(attrEdited)
	return ok && v == "true"
}

// ParentOnRestoreUUID returns the recorded restore parent, if any.
func (n *node) ParentOnRestoreUUID() string { v, _ := n.attr(attrParentOnRestore); return v }

// arena is the backing store for a Manifest's nodes.
type arena struct {
	nodes map[Handle]*node
	next  Handle
}

func newArena() *arena {
	return &arena{nodes: make(map[Handle]*node)}
}

func (a *arena) alloc(k Kind) *node {
	a.next++
	n := &node{kind: k, handle: a.next}
	a.nodes[n.handle] = n
	return n
}

func (a *arena) get(h Handle) *node {
	return a.nodes[h]
}

// detach removes h from its parent's children list without deallocating it.
func (a *arena) detach(h Handle) {
	n := a.get(h)
	if n == nil || n.parent == Invalid {
		return
	}
	parent := a.get(n.parent)
	if parent == nil {
		return
	}
	for i, c := range parent.children {
		if c == h {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			break
		}
	}
	n.parent = Invalid
}

// appendChild makes h the last child of parent.
func (a *arena) appendChild(parent, h Handle) {
	p := a.get(parent)
	c := a.get(h)
	if p == nil || c == nil {
		return
	}
	c.parent = parent
	p.children = append(p.children, h)
}

// removedFile records a file node's identity at the moment its subtree
// was deleted, since the arena entry itself is gone once deleteSubtree
// returns.
type removedFile struct {
	UUID      string
	Extension string
}

// deleteSubtree removes h and all of its descendants from the arena,
// returning the uuid/extension of every file node encountered (including
// h itself, if it is a file) so callers can unlink the corresponding
// content files.
func (a *arena) deleteSubtree(h Handle) []removedFile {
	var files []removedFile
	var walk func(Handle)
	walk = func(h Handle) {
		n := a.get(h)
		if n == nil {
			return
		}
		for _, c := range append([]Handle(nil), n.children...) {
			walk(c)
		}
		if n.kind == KindFile {
			files = append(files, removedFile{UUID: n.UUID(), Extension: n.Extension()})
		}
		delete(a.nodes, h)
	}
	a.detach(h)
	walk(h)
	return files
}

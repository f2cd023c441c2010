package manifest

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

func kindForTag(tag string) (Kind, bool) {
	switch tag {
	case tagNotebook:
		return KindNotebook, true
	case tagTrash:
		return KindTrash, true
	case tagVFolder:
		return KindVFolder, true
	case tagFile:
		return KindFile, true
	default:
		return 0, false
	}
}

// parseXML decodes a Manifest.xml document into a fresh arena, returning
// the root, notebook, and trash handles.
func parseXML(data []byte) (*arena, Handle, Handle, Handle, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	a := newArena()

	var root, notebook, trash Handle
	var stack []Handle

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, 0, 0, fmt.Errorf("parse manifest xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			var kind Kind
			if t.Name.Local == tagFnx {
				if root != Invalid {
					return nil, 0, 0, 0, fmt.Errorf("parse manifest xml: multiple <fnx> roots")
				}
				kind = KindRoot
			} else {
				k, ok := kindForTag(t.Name.Local)
				if !ok {
					return nil, 0, 0, 0, fmt.Errorf("parse manifest xml: unknown element <%s>", t.Name.Local)
				}
				kind = k
			}

			n := a.alloc(kind)
			n.attrs = append([]xml.Attr(nil), t.Attr...)

			switch kind {
			case KindRoot:
				root = n.handle
			case KindNotebook:
				notebook = n.handle
			case KindTrash:
				trash = n.handle
			}

			if len(stack) > 0 {
				a.appendChild(stack[len(stack)-1], n.handle)
			}
			stack = append(stack, n.handle)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, 0, 0, 0, fmt.Errorf("parse manifest xml: unbalanced end element </%s>", t.Name.Local)
			}
			stack = stack[:len(stack)-1]
		}
	}

	if root == Invalid {
		return nil, 0, 0, 0, fmt.Errorf("parse manifest xml: missing <fnx> root")
	}
	if notebook == Invalid {
		return nil, 0, 0, 0, fmt.Errorf("parse manifest xml: missing <notebook>")
	}
	if trash == Invalid {
		return nil, 0, 0, 0, fmt.Errorf("parse manifest xml: missing <trash>")
	}

	return a, root, notebook, trash, nil
}

// serializeXML renders the DOM rooted at root as a pretty-printed,
// 2-space-indented XML document.
func serializeXML(a *arena, root Handle) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	if err := encodeNode(enc, a, root); err != nil {
		return nil, fmt.Errorf("serialize manifest xml: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("serialize manifest xml: %w", err)
	}

	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func encodeNode(enc *xml.Encoder, a *arena, h Handle) error {
	n := a.get(h)
	if n == nil {
		return fmt.Errorf("encode manifest xml: dangling handle %d", h)
	}

	start := xml.StartElement{Name: xml.Name{Local: tagFor(n.kind)}, Attr: n.attrs}
	if n.kind == KindRoot {
		if _, ok := n.attr(attrVersion); !ok {
			start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: attrVersion}, Value: fnxVersion})
		}
	}

	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, c := range n.children {
		if err := encodeNode(enc, a, c); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

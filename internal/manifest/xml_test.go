package manifest

import (
	"strings"
	"testing"
)

func TestParseXMLRejectsMultipleRoots(t *testing.T) {
	t.Parallel()
	_, _, _, _, err := parseXML([]byte(`<fnx/><fnx/>`))
	if err == nil {
		t.Fatal("expected error for multiple <fnx> roots")
	}
}

func TestParseXMLRejectsUnknownElement(t *testing.T) {
	t.Parallel()
	_, _, _, _, err := parseXML([]byte(`<fnx><notebook/><trash/><bogus/></fnx>`))
	if err == nil {
		t.Fatal("expected error for unknown element")
	}
}

func TestParseXMLRequiresNotebookAndTrash(t *testing.T) {
	t.Parallel()

	if _, _, _, _, err := parseXML([]byte(`<fnx><trash/></fnx>`)); err == nil {
		t.Error("expected error for missing <notebook>")
	}
	if _, _, _, _, err := parseXML([]byte(`<fnx><notebook/></fnx>`)); err == nil {
		t.Error("expected error for missing <trash>")
	}
}

func TestParseXMLToleratesMissingOptionalAttrs(t *testing.T) {
	t.Parallel()
	doc := `<fnx version="1.0">
		<notebook>
			<file name="Draft" uuid="abc-123"/>
		</notebook>
		<trash/>
	</fnx>`

	a, root, notebook, trash, err := parseXML([]byte(doc))
	if err != nil {
		t.Fatalf("parseXML() error = %v", err)
	}
	if root == Invalid || notebook == Invalid || trash == Invalid {
		t.Fatal("expected non-zero handles for root/notebook/trash")
	}

	nb := a.get(notebook)
	if len(nb.children) != 1 {
		t.Fatalf("expected 1 child of <notebook>, got %d", len(nb.children))
	}
	file := a.get(nb.children[0])
	if file.Extension() != defaultExtension {
		t.Errorf("Extension() = %q, want default %q (no extension attr present)", file.Extension(), defaultExtension)
	}
	if file.Edited() {
		t.Error("Edited() should be false when the edited attr is absent")
	}
	if file.ParentOnRestoreUUID() != "" {
		t.Error("ParentOnRestoreUUID() should be empty when the attr is absent")
	}
}

func TestSerializeXMLRoundTrip(t *testing.T) {
	t.Parallel()
	a := newArena()
	root := a.alloc(KindRoot)
	notebook := a.alloc(KindNotebook)
	trash := a.alloc(KindTrash)
	a.appendChild(root.handle, notebook.handle)
	a.appendChild(root.handle, trash.handle)

	file := a.alloc(KindFile)
	file.setAttr(attrName, "Chapter 1")
	file.setAttr(attrUUID, "xyz-789")
	file.setAttr(attrExtension, ".txt")
	a.appendChild(notebook.handle, file.handle)

	data, err := serializeXML(a, root.handle)
	if err != nil {
		t.Fatalf("serializeXML() error = %v", err)
	}
	if !strings.Contains(string(data), `version="1.0"`) {
		t.Error("serialized root should carry version=\"1.0\"")
	}

	a2, root2, notebook2, trash2, err := parseXML(data)
	if err != nil {
		t.Fatalf("reparse error = %v", err)
	}
	if root2 == Invalid || notebook2 == Invalid || trash2 == Invalid {
		t.Fatal("reparsed handles should be valid")
	}

	nb2 := a2.get(notebook2)
	if len(nb2.children) != 1 {
		t.Fatalf("expected 1 child after round-trip, got %d", len(nb2.children))
	}
	got := a2.get(nb2.children[0])
	if got.Name() != "Chapter 1" || got.UUID() != "xyz-789" || got.Extension() != ".txt" {
		t.Errorf("round-tripped file = %+v, want name=Chapter 1 uuid=xyz-789 ext=.txt", got)
	}
}

func TestSerializeXMLPreservesUnknownAttrs(t *testing.T) {
	t.Parallel()
	doc := `<fnx version="1.0"><notebook><file name="A" uuid="u1" future="keep-me"/></notebook><trash/></fnx>`
	a, root, _, _, err := parseXML([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}

	data, err := serializeXML(a, root)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `future="keep-me"`) {
		t.Error("unknown attribute should round-trip through serialize untouched")
	}
}

func TestMinimalXMLParsesCleanly(t *testing.T) {
	t.Parallel()
	_, root, notebook, trash, err := parseXML(MinimalXML())
	if err != nil {
		t.Fatalf("MinimalXML() produced unparsable document: %v", err)
	}
	if root == Invalid || notebook == Invalid || trash == Invalid {
		t.Fatal("MinimalXML() should parse to valid root/notebook/trash handles")
	}
}

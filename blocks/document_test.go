package blocks

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseDocument(t *testing.T) {
	doc := `{
  "blocks": [
    {
      "id": "p",
      "type": "text_print",
      "inputs": {"TEXT": {"id": "t", "type": "text", "fields": {"TEXT": "hello"}}},
      "x": 10,
      "y": 20
    }
  ]
}`
	p, err := ParseDocument("inline.json", []byte(doc))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if len(p.Blocks) != 1 {
		t.Fatalf("blocks = %d, want 1", len(p.Blocks))
	}
	b := p.Blocks[0]
	if b.Type != "text_print" || b.X != 10 || b.Y != 20 {
		t.Errorf("block = %+v", b)
	}
	if got := b.Input("TEXT").Fields["TEXT"]; got != "hello" {
		t.Errorf("TEXT = %q, want hello", got)
	}
}

func TestParseDocumentRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing type", `{"blocks": [{"id": "a"}]}`},
		{"empty id", `{"blocks": [{"id": "", "type": "text"}]}`},
		{"bad type name", `{"blocks": [{"id": "a", "type": "Not Valid"}]}`},
		{"unknown key", `{"blocks": [{"id": "a", "type": "text", "colour": 3}]}`},
		{"nested missing id", `{"blocks": [{"id": "a", "type": "text_print", "inputs": {"TEXT": {"type": "text"}}}]}`},
		{"not json", `{"blocks": [`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument(tt.name, []byte(tt.doc))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.Is(err, ErrInvalidDocument) {
				t.Errorf("error %v is not ErrInvalidDocument", err)
			}
		})
	}
}

func TestLoadDocumentRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.json")

	data, err := MarshalDocument(sampleProgram())
	if err != nil {
		t.Fatalf("MarshalDocument: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}

	want, _ := Fingerprint(sampleProgram())
	got, _ := Fingerprint(p)
	if got != want {
		t.Error("document round trip changed program structure")
	}
}

func TestLoadDocumentMissingFile(t *testing.T) {
	if _, err := LoadDocument(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

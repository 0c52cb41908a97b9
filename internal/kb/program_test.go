package kb

import (
	"os"
	"path/filepath"
	"testing"
)

const testTemplate = `
# Vehicles are movable objects.
instance_of(X, "MovableObject") :- instance_of(X, "Vehicle").

concept("MovableObject").
concept("Vehicle").
`

func TestParseTemplateKeepsGroundFacts(t *testing.T) {
	tmpl, err := ParseTemplate(testTemplate)
	if err != nil {
		t.Fatalf("ParseTemplate() error = %v", err)
	}

	if !tmpl.Contains(PredConcept, "MovableObject") || !tmpl.Contains(PredConcept, "Vehicle") {
		t.Errorf("template facts missing, got %v", tmpl.Facts(PredConcept))
	}
	if len(tmpl.Program().Info().Rules) != 1 {
		t.Errorf("expected 1 rule, got %d", len(tmpl.Program().Info().Rules))
	}

	clone := tmpl.Clone()
	if !clone.Contains(PredConcept, "Vehicle") {
		t.Error("clone lost template facts")
	}
}

func TestParseTemplateRejectsGarbage(t *testing.T) {
	if _, err := ParseTemplate("this is ( not mangle"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestParseTemplateDropsVocabularyRedeclarations(t *testing.T) {
	src := "Decl concept(C).\nDecl on_lane(V, L).\n"
	if _, err := ParseTemplate(src); err != nil {
		t.Fatalf("ParseTemplate() error = %v", err)
	}
}

func TestLoadTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ontology.mg")
	if err := os.WriteFile(path, []byte(testTemplate), 0644); err != nil {
		t.Fatalf("write template: %v", err)
	}

	tmpl, err := LoadTemplate(path, WithFactLimit(100))
	if err != nil {
		t.Fatalf("LoadTemplate() error = %v", err)
	}
	if tmpl.Len() != 2 {
		t.Errorf("Len() = %d, want 2", tmpl.Len())
	}

	if _, err := LoadTemplate(filepath.Join(t.TempDir(), "missing.mg")); err == nil {
		t.Error("expected error for missing template")
	}
}

func TestPrefixFromIRI(t *testing.T) {
	tests := []struct {
		iri  string
		want string
	}{
		{"", ""},
		{"http://dlr.de/stars/mtcqTestOntology", "http://dlr.de/stars/mtcqTestOntology#"},
		{"http://example.org/onto#", "http://example.org/onto#"},
		{"http://example.org/onto/", "http://example.org/onto/"},
	}
	for _, tt := range tests {
		if got := PrefixFromIRI(tt.iri); got != tt.want {
			t.Errorf("PrefixFromIRI(%q) = %q, want %q", tt.iri, got, tt.want)
		}
	}
}

func TestLiteralOf(t *testing.T) {
	tests := []struct {
		in   any
		want any
	}{
		{"a", "a"},
		{true, "/true"},
		{int32(7), int64(7)},
		{uint8(3), int64(3)},
		{float32(0.5), 0.5},
		{uint64(1) << 63, "9223372036854775808"},
		{complex(1, 2), "(1+2i)"},
	}
	for _, tt := range tests {
		if got := ConstantValue(LiteralOf(tt.in).Constant()); got != tt.want {
			t.Errorf("LiteralOf(%v) = %v (%T), want %v (%T)", tt.in, got, got, tt.want, tt.want)
		}
	}
}

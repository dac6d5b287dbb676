package meta

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	doc := `name: variant-calling
author: Genomics Core
output_dir: helix:///shared/results
parameters:
  reads:
    display_name: Input reads
    description: Paired-end FASTQ
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Name != "variant-calling" || m.Author != "Genomics Core" {
		t.Errorf("m = %+v", m)
	}
	// Display name falls back to the workflow name.
	if m.DisplayName != "variant-calling" {
		t.Errorf("DisplayName = %q, want variant-calling", m.DisplayName)
	}
	if m.OutputDir != "helix:///shared/results" {
		t.Errorf("OutputDir = %q", m.OutputDir)
	}
	if p, ok := m.Parameters["reads"]; !ok || p.DisplayName != "Input reads" {
		t.Errorf("Parameters = %+v", m.Parameters)
	}
}

func TestLoad_InvalidName(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	if err := os.WriteFile(path, []byte("name: \"bad name!\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted an invalid workflow name")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"wf", true},
		{"variant-calling", true},
		{"wf_v2.1", true},
		{"", false},
		{"1starts-with-digit", false},
		{"has space", false},
	}
	for _, tt := range tests {
		m := &Metadata{Name: tt.name}
		if err := m.Validate(); (err == nil) != tt.ok {
			t.Errorf("Validate(%q) error = %v, want ok=%v", tt.name, err, tt.ok)
		}
	}
}

func TestDefault(t *testing.T) {
	m := Default("  wf  ")
	if m.Name != "wf" || m.DisplayName != "wf" {
		t.Errorf("Default = %+v", m)
	}
	if m.Author == "" {
		t.Error("Default must set an author")
	}
}

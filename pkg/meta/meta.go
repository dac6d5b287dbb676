// Package meta holds the human-facing workflow metadata read from
// helix_metadata.yaml: workflow name, display information, and the optional
// remote output directory. The compiler only needs Name and OutputDir; the
// rest is passed through to the registration UI.
package meta

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the metadata file looked up next to the Snakefile.
const DefaultFileName = "helix_metadata.yaml"

// Param is display metadata for one workflow parameter.
type Param struct {
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description,omitempty"`
}

// Metadata describes a workflow for registration.
type Metadata struct {
	Name        string           `yaml:"name"`
	DisplayName string           `yaml:"display_name,omitempty"`
	Author      string           `yaml:"author,omitempty"`
	OutputDir   string           `yaml:"output_dir,omitempty"` // remote URL, optional
	Parameters  map[string]Param `yaml:"parameters,omitempty"`
}

var nameRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_.-]*$`)

// Validate checks the fields the compiler depends on.
func (m *Metadata) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("metadata: name is required")
	}
	if !nameRe.MatchString(m.Name) {
		return fmt.Errorf("metadata: invalid workflow name %q", m.Name)
	}
	return nil
}

// Load reads and validates a metadata file.
func Load(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var m Metadata
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse metadata %s: %w", path, err)
	}
	if m.DisplayName == "" {
		m.DisplayName = m.Name
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Default returns metadata derived from a workflow name, for pipelines
// that ship no metadata file.
func Default(name string) *Metadata {
	name = strings.TrimSpace(name)
	return &Metadata{
		Name:        name,
		DisplayName: name,
		Author:      "Helix Snakemake JIT",
	}
}

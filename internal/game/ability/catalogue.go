package ability

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalogue is a named set of abilities loaded from one YAML file.
//
// Invariant: ability IDs are unique within a catalogue.
type Catalogue struct {
	ID          string        `yaml:"id"`
	Description string        `yaml:"description"`
	Abilities   []*Descriptor `yaml:"abilities"`
}

// Validate checks the catalogue and every descriptor in it.
//
// Postcondition: nil return guarantees a non-empty ID, at least one ability,
// every ability valid, and no duplicate ability IDs.
func (c *Catalogue) Validate() error {
	if c.ID == "" {
		return errors.New("ability.Catalogue: id must not be empty")
	}
	if len(c.Abilities) == 0 {
		return fmt.Errorf("ability.Catalogue %q: must have at least one ability", c.ID)
	}
	seen := make(map[string]struct{}, len(c.Abilities))
	for _, a := range c.Abilities {
		if a == nil {
			return fmt.Errorf("ability.Catalogue %q: nil ability entry", c.ID)
		}
		if err := a.Validate(); err != nil {
			return fmt.Errorf("ability.Catalogue %q: %w", c.ID, err)
		}
		if _, dup := seen[a.ID]; dup {
			return fmt.Errorf("ability.Catalogue %q: duplicate ability ID %q", c.ID, a.ID)
		}
		seen[a.ID] = struct{}{}
	}
	return nil
}

// ByID returns the ability with the given ID, or false if not found.
func (c *Catalogue) ByID(id string) (*Descriptor, bool) {
	for _, a := range c.Abilities {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}

// yamlCatalogueFile wraps the YAML top-level key.
type yamlCatalogueFile struct {
	Catalogue *Catalogue `yaml:"catalogue"`
}

// LoadCatalogueFromBytes parses and validates a single catalogue.
//
// Precondition: data must be YAML with a top-level "catalogue" key.
// Postcondition: Returns a validated *Catalogue or an error.
func LoadCatalogueFromBytes(data []byte) (*Catalogue, error) {
	var f yamlCatalogueFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalogue YAML: %w", err)
	}
	if f.Catalogue == nil {
		return nil, errors.New("catalogue YAML missing top-level 'catalogue' key")
	}
	if err := f.Catalogue.Validate(); err != nil {
		return nil, err
	}
	return f.Catalogue, nil
}

// LoadCatalogues reads all *.yaml files in dir and returns the parsed catalogues.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all catalogues or an error on the first parse or
// validate failure; catalogue IDs are unique across the directory.
func LoadCatalogues(dir string) ([]*Catalogue, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading ability dir %q: %w", dir, err)
	}

	var out []*Catalogue
	ids := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		cat, err := LoadCatalogueFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		if prev, dup := ids[cat.ID]; dup {
			return nil, fmt.Errorf("loading %q: catalogue %q already defined in %q", path, cat.ID, prev)
		}
		ids[cat.ID] = path
		out = append(out, cat)
	}
	return out, nil
}

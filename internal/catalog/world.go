// Package catalog loads the read-only World a compile is checked
// against: the named data sources and user types a query can
// reference (spec §3.5 "the catalog is read-only").
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sunholo/queryc/internal/kernel"
)

// World is the catalog consulted by the idn environment's fallback
// rule and by UserType resolution: Sources maps a data-source name to
// its collection type (the type a query scans), Tipes maps a
// user-defined type name to its definition.
type World struct {
	Sources map[string]kernel.Type
	Tipes   map[string]kernel.Type
}

// NewWorld creates an empty catalog.
func NewWorld() *World {
	return &World{Sources: map[string]kernel.Type{}, Tipes: map[string]kernel.Type{}}
}

// LookupSource resolves a data-source name.
func (w *World) LookupSource(name string) (kernel.Type, bool) {
	t, ok := w.Sources[name]
	return t, ok
}

// LookupTipe resolves a user-defined type name.
func (w *World) LookupTipe(name string) (kernel.Type, bool) {
	t, ok := w.Tipes[name]
	return t, ok
}

// document is the on-disk YAML shape of a catalog file.
type document struct {
	Sources map[string]typeSpec `yaml:"sources"`
	Tipes   map[string]typeSpec `yaml:"tipes"`
}

// LoadFile reads and parses a catalog YAML file into a World.
func LoadFile(path string) (*World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: reading %s: %w", path, err)
	}
	return Load(data)
}

// Load parses catalog YAML bytes into a World.
func Load(data []byte) (*World, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parsing YAML: %w", err)
	}
	w := NewWorld()
	for name, spec := range doc.Sources {
		t, err := spec.toType()
		if err != nil {
			return nil, fmt.Errorf("catalog: source %q: %w", name, err)
		}
		w.Sources[name] = t
	}
	for name, spec := range doc.Tipes {
		t, err := spec.toType()
		if err != nil {
			return nil, fmt.Errorf("catalog: tipe %q: %w", name, err)
		}
		w.Tipes[name] = t
	}
	return w, nil
}

// Package scene holds the named parts produced by evaluating a fixture
// script. A Scene is built once per evaluation and then only read.
package scene

import (
	"fmt"

	"github.com/chazu/caliper/pkg/measure"
)

// Scene is an ordered, name-indexed set of parts.
type Scene struct {
	parts     []measure.Part
	nameIndex map[string]int

	// Generation is the evaluation that produced the scene.
	Generation uint64
}

// New creates an empty Scene.
func New() *Scene {
	return &Scene{nameIndex: make(map[string]int)}
}

// Add appends a part. Names must be unique within a scene.
func (s *Scene) Add(p measure.Part) error {
	if p.Name() == "" {
		return fmt.Errorf("scene: part has no name")
	}
	if _, dup := s.nameIndex[p.Name()]; dup {
		return fmt.Errorf("scene: part %q already defined", p.Name())
	}
	s.nameIndex[p.Name()] = len(s.parts)
	s.parts = append(s.parts, p)
	return nil
}

// Lookup returns the part with the given name.
func (s *Scene) Lookup(name string) (measure.Part, bool) {
	i, ok := s.nameIndex[name]
	if !ok {
		return measure.Part{}, false
	}
	return s.parts[i], true
}

// MustLookup returns the part with the given name, or panics.
func (s *Scene) MustLookup(name string) measure.Part {
	p, ok := s.Lookup(name)
	if !ok {
		panic(fmt.Sprintf("scene: no part named %q", name))
	}
	return p
}

// Parts returns the parts in the order they were added.
func (s *Scene) Parts() []measure.Part {
	out := make([]measure.Part, len(s.parts))
	copy(out, s.parts)
	return out
}

// Names returns the part names in the order they were added.
func (s *Scene) Names() []string {
	names := make([]string, len(s.parts))
	for i, p := range s.parts {
		names[i] = p.Name()
	}
	return names
}

// Len returns the number of parts.
func (s *Scene) Len() int {
	return len(s.parts)
}

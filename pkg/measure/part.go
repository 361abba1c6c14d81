package measure

import (
	"errors"
	"fmt"

	"github.com/chazu/caliper/pkg/kernel"
)

// Part binds a name to a solid. The solid already carries every transform
// in world coordinates. Parts are compared by name, never by geometry.
type Part struct {
	name  string
	solid kernel.Solid
}

// NewPart creates a Part. The name must be non-empty and the solid non-nil.
func NewPart(name string, solid kernel.Solid) (Part, error) {
	if name == "" {
		return Part{}, errors.New("measure: part name must not be empty")
	}
	if solid == nil {
		return Part{}, fmt.Errorf("measure: part %q has no solid", name)
	}
	return Part{name: name, solid: solid}, nil
}

// MustPart is like NewPart but panics on error.
func MustPart(name string, solid kernel.Solid) Part {
	p, err := NewPart(name, solid)
	if err != nil {
		panic(err)
	}
	return p
}

// Name returns the part's name.
func (p Part) Name() string { return p.name }

// Solid returns the kernel solid backing the part.
func (p Part) Solid() kernel.Solid { return p.solid }

// Is reports whether p and o are the same part.
func (p Part) Is(o Part) bool { return p.name == o.name }

func (p Part) String() string {
	if p.solid == nil {
		return fmt.Sprintf("Part(%s)", p.name)
	}
	return fmt.Sprintf("Part(%s, solid=%s)", p.name, p.solid.ID())
}

package analyze

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"member-mapper/schema"
)

var (
	// ErrTypeNotFound is returned when a type reference matches no loaded type.
	ErrTypeNotFound = errors.New("type not found")
	// ErrAmbiguousType is returned when a short reference matches several types.
	ErrAmbiguousType = errors.New("ambiguous type reference")
)

// Package describes a loaded package.
type Package struct {
	Path  string
	Name  string
	Dir   string
	Types []schema.TypeID
}

// Graph holds the named types of every loaded package.
type Graph struct {
	Types    map[schema.TypeID]*schema.Type
	Packages map[string]*Package
}

// NewGraph creates an empty Graph.
func NewGraph() *Graph {
	return &Graph{
		Types:    make(map[schema.TypeID]*schema.Type),
		Packages: make(map[string]*Package),
	}
}

// Type returns the type with the given id, or nil.
func (g *Graph) Type(id schema.TypeID) *schema.Type {
	return g.Types[id]
}

// Resolve finds a type by reference. Three forms are accepted:
//   - "member-mapper/store.Order" (full import path)
//   - "store.Order" (import path suffix)
//   - "Order" (name only)
//
// Short forms must match exactly one loaded type.
func (g *Graph) Resolve(ref string) (*schema.Type, error) {
	if ref == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrTypeNotFound)
	}

	lastDot := strings.LastIndex(ref, ".")
	if lastDot < 0 {
		return g.unique(ref, func(id schema.TypeID) bool { return id.Name == ref })
	}

	pkg, name := ref[:lastDot], ref[lastDot+1:]
	if pkg == "" || name == "" {
		return nil, fmt.Errorf("%w: malformed reference %q", ErrTypeNotFound, ref)
	}

	if t := g.Type(schema.TypeID{PkgPath: pkg, Name: name}); t != nil {
		return t, nil
	}

	return g.unique(ref, func(id schema.TypeID) bool {
		return id.Name == name && strings.HasSuffix(id.PkgPath, "/"+pkg)
	})
}

func (g *Graph) unique(ref string, match func(schema.TypeID) bool) (*schema.Type, error) {
	var found []schema.TypeID

	for id := range g.Types {
		if match(id) {
			found = append(found, id)
		}
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrTypeNotFound, ref)
	case 1:
		return g.Types[found[0]], nil
	}

	names := make([]string, 0, len(found))
	for _, id := range found {
		names = append(names, id.String())
	}

	slices.Sort(names)

	return nil, fmt.Errorf("%w: %s matches %s", ErrAmbiguousType, ref, strings.Join(names, ", "))
}

// Names returns every loaded type id as a string, sorted. It feeds
// suggestions for unresolved references.
func (g *Graph) Names() []string {
	out := make([]string, 0, len(g.Types))
	for id := range g.Types {
		out = append(out, id.String())
	}

	slices.Sort(out)

	return out
}

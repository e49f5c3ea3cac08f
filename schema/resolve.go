package schema

import (
	"errors"
	"fmt"

	"member-mapper/accessor"
)

var (
	// ErrUnknownMember is returned when a path segment names no member.
	ErrUnknownMember = errors.New("unknown member")
	// ErrNotStruct is returned when a path descends into a non-struct type.
	ErrNotStruct = errors.New("member access on non-struct type")
)

// Resolution is the result of walking a path through a type.
type Resolution struct {
	// Chain holds the member for every path segment, in order.
	Chain []*Field
	// Writable is true when every segment is exported and the leaf is not
	// read-only.
	Writable bool
	// Readable is true when every segment is exported.
	Readable bool
}

// Leaf returns the member addressed by the last segment.
func (r Resolution) Leaf() *Field {
	if len(r.Chain) == 0 {
		return nil
	}

	return r.Chain[len(r.Chain)-1]
}

// Resolve walks path through t. Pointers are dereferenced automatically.
// An error means the path does not name a member of t at all; read-only or
// unexported members still resolve and are reported through Writable.
func Resolve(t *Type, path accessor.Path) (Resolution, error) {
	if path.IsZero() {
		return Resolution{}, accessor.ErrEmptyPath
	}

	res := Resolution{Writable: true, Readable: true}
	current := t

	for _, seg := range path.Segments() {
		current = current.Deref()
		if current == nil {
			return Resolution{}, fmt.Errorf("nil type while resolving %q", seg)
		}

		if current.Kind != KindStruct {
			return Resolution{}, fmt.Errorf("%w: cannot access %q on %s", ErrNotStruct, seg, current.Kind)
		}

		fld := current.Field(seg)
		if fld == nil {
			return Resolution{}, fmt.Errorf("%w: %q not found in %s", ErrUnknownMember, seg, current)
		}

		if !fld.Exported {
			res.Writable = false
			res.Readable = false
		}

		res.Chain = append(res.Chain, fld)
		current = fld.Type
	}

	if leaf := res.Leaf(); leaf != nil && leaf.ReadOnly {
		res.Writable = false
	}

	return res, nil
}

// Writable reports whether path resolves to a writable member of t.
// Unresolvable paths are not writable.
func Writable(t *Type, path accessor.Path) bool {
	res, err := Resolve(t, path)
	if err != nil {
		return false
	}

	return res.Writable
}

// Leaves returns the paths of every exported member of t, descending into
// nested structs and pointers to structs up to maxDepth levels, parents
// before children. Recursive types are visited once per branch.
func Leaves(t *Type, maxDepth int) []accessor.Path {
	var out []accessor.Path

	var walk func(cur *Type, prefix accessor.Path, depth int, seen map[*Type]bool)

	walk = func(cur *Type, prefix accessor.Path, depth int, seen map[*Type]bool) {
		cur = cur.Deref()
		if cur == nil || cur.Kind != KindStruct || seen[cur] {
			return
		}

		seen[cur] = true
		defer delete(seen, cur)

		for i := range cur.Fields {
			f := &cur.Fields[i]
			if !f.Exported {
				continue
			}

			p := prefix.Child(f.Name)
			out = append(out, p)

			if depth+1 < maxDepth {
				walk(f.Type, p, depth+1, seen)
			}
		}
	}

	walk(t, accessor.Path{}, 0, map[*Type]bool{})

	return out
}

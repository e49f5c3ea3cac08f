// Package accessor provides Path, a canonical reference to a member of a
// struct reached from its root (e.g. "Address.City").
//
// A Path is the explicit replacement for pulling a member out of an
// expression body: it is built from field names, either segment by segment
// or by parsing a dotted string. Equal paths address the same member slot.
package accessor

import (
	"errors"
	"fmt"
	"strings"
)

// Separator joins path segments in the canonical string form.
const Separator = "."

// ErrEmptyPath is returned when parsing an empty path string.
var ErrEmptyPath = errors.New("empty path")

// Path is an ordered list of field names from a struct root.
// The zero Path refers to nothing and is never valid.
type Path struct {
	segments []string
}

// New builds a Path from the given segments. It does not validate them;
// use Valid or Parse when the input is untrusted.
func New(segments ...string) Path {
	if len(segments) == 0 {
		return Path{}
	}

	return Path{segments: append([]string(nil), segments...)}
}

// Parse parses a dotted path like "Address.City".
func Parse(s string) (Path, error) {
	if s == "" {
		return Path{}, ErrEmptyPath
	}

	parts := strings.Split(s, Separator)
	for _, part := range parts {
		if part == "" {
			return Path{}, fmt.Errorf("invalid path %q: empty segment", s)
		}

		if !IsIdent(part) {
			return Path{}, fmt.Errorf("invalid path %q: invalid identifier %q", s, part)
		}
	}

	return Path{segments: parts}, nil
}

// MustParse is like Parse but panics on error. Intended for literals.
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}

	return p
}

// Child returns a new Path with name appended.
func (p Path) Child(name string) Path {
	out := make([]string, 0, len(p.segments)+1)
	out = append(out, p.segments...)
	out = append(out, name)

	return Path{segments: out}
}

// Parent returns the path without its last segment.
func (p Path) Parent() Path {
	if len(p.segments) <= 1 {
		return Path{}
	}

	return Path{segments: p.segments[:len(p.segments)-1]}
}

// Segments returns a copy of the path segments.
func (p Path) Segments() []string {
	return append([]string(nil), p.segments...)
}

// Len returns the number of segments.
func (p Path) Len() int {
	return len(p.segments)
}

// IsZero reports whether p refers to nothing.
func (p Path) IsZero() bool {
	return len(p.segments) == 0
}

// IsSimple returns true for single-segment paths.
func (p Path) IsSimple() bool {
	return len(p.segments) == 1
}

// Root returns the first segment, or "" for the zero path.
func (p Path) Root() string {
	if len(p.segments) == 0 {
		return ""
	}

	return p.segments[0]
}

// Leaf returns the last segment, or "" for the zero path.
func (p Path) Leaf() string {
	if len(p.segments) == 0 {
		return ""
	}

	return p.segments[len(p.segments)-1]
}

// Valid reports whether p is non-empty and every segment is an identifier.
func (p Path) Valid() bool {
	if len(p.segments) == 0 {
		return false
	}

	for _, s := range p.segments {
		if !IsIdent(s) {
			return false
		}
	}

	return true
}

// Key returns the canonical string form used as a map key.
func (p Path) Key() string {
	return strings.Join(p.segments, Separator)
}

// String returns the path as a string.
func (p Path) String() string {
	return p.Key()
}

// Equal returns true if both paths address the same member.
func (p Path) Equal(other Path) bool {
	if len(p.segments) != len(other.segments) {
		return false
	}

	for i, seg := range p.segments {
		if seg != other.segments[i] {
			return false
		}
	}

	return true
}

// IsIdent checks if a string is a valid Go identifier (ASCII subset).
func IsIdent(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			if !isLetter(r) && r != '_' {
				return false
			}
		} else if !isLetter(r) && !isDigit(r) && r != '_' {
			return false
		}
	}

	return true
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

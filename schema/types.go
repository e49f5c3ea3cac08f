// Package schema describes the shape of source and destination types: their
// members, how to reach them, and whether a member can be written.
//
// Writability is a property of the schema, decided once when a type is
// described rather than on every configuration call. A member is writable
// when it is exported and not tagged read-only:
//
//	type Invoice struct {
//		Number string
//		Total  int    `mapper:"readonly"` // never written by a mapper
//		Notes  string `mapper:"-"`        // same as readonly
//		secret string                      // unexported, never written
//	}
//
// Types are described either from reflect.Type at run time (Of) or from
// go/types by the package loader used by the command line tool.
package schema

import (
	"reflect"
	"strings"

	"member-mapper/internal/common"
)

// TagKey is the struct tag consulted for member capabilities.
const TagKey = "mapper"

// Tag values understood under TagKey.
const (
	TagReadOnly = "readonly"
	TagSkip     = "-"
)

// TypeID uniquely identifies a named type by its package path and name.
type TypeID struct {
	PkgPath string // e.g., "member-mapper/store"
	Name    string // e.g., "Order"
}

// String returns a human-readable representation of the TypeID.
func (t TypeID) String() string {
	if t.PkgPath == "" {
		return t.Name
	}

	return t.PkgPath + "." + t.Name
}

// Kind represents the kind of a described type.
type Kind int

const (
	KindUnknown  Kind = iota
	KindBasic         // int, string, bool, etc.
	KindStruct        // struct type
	KindPointer       // pointer to another type
	KindSlice         // slice of another type
	KindArray         // array of another type
	KindMap           // map type
	KindAlias         // named type wrapping a non-struct type
	KindExternal      // opaque type (e.g., time.Time)
)

// String returns a human-readable representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindBasic:
		return "basic"
	case KindStruct:
		return "struct"
	case KindPointer:
		return "pointer"
	case KindSlice:
		return "slice"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindAlias:
		return "alias"
	case KindExternal:
		return "external"
	default:
		return common.UnknownStr
	}
}

// Type describes a Go type.
type Type struct {
	ID   TypeID // empty for unnamed types like *T or []T
	Kind Kind   // kind of type
	Elem *Type  // for pointers, slices, arrays and map values
	Key  *Type  // for maps
	// Basic names the underlying predeclared type of basic and alias kinds,
	// e.g. "int64" for `type Cents int64`.
	Basic  string
	Fields []Field // for structs, exported and unexported members in order
	// Expr is the Go type expression (e.g. "*store.Address"), qualified by
	// package name.
	Expr string
	// RType is the runtime type; nil when described from go/types.
	RType reflect.Type
}

// IsNamed returns true if this type has a name (TypeID is set).
func (t *Type) IsNamed() bool {
	return t.ID.Name != ""
}

// Deref follows pointers down to the first non-pointer type.
func (t *Type) Deref() *Type {
	cur := t
	for cur != nil && cur.Kind == KindPointer {
		cur = cur.Elem
	}

	return cur
}

// Field returns the member with the given name, or nil.
func (t *Type) Field(name string) *Field {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return &t.Fields[i]
		}
	}

	return nil
}

// FieldFold returns the first member whose name matches ignoring case, or nil.
func (t *Type) FieldFold(name string) *Field {
	if f := t.Field(name); f != nil {
		return f
	}

	for i := range t.Fields {
		if strings.EqualFold(t.Fields[i].Name, name) {
			return &t.Fields[i]
		}
	}

	return nil
}

// FieldNames returns the names of all members in declaration order.
func (t *Type) FieldNames() []string {
	names := make([]string, 0, len(t.Fields))
	for _, f := range t.Fields {
		names = append(names, f.Name)
	}

	return names
}

// String returns the type expression.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}

	if t.Expr != "" {
		return t.Expr
	}

	return t.ID.String()
}

// Field describes a struct member.
type Field struct {
	Name     string            // Go field name
	Exported bool              // whether the field is exported
	ReadOnly bool              // tagged mapper:"readonly" or mapper:"-"
	Type     *Type             // field type
	Tag      reflect.StructTag // raw struct tag
	Embedded bool              // whether the field is embedded (anonymous)
	// Index is the reflect index sequence reaching the field from its
	// owner; promoted members of embedded structs have more than one entry.
	Index []int
}

// Writable reports whether a mapper may assign this member.
func (f *Field) Writable() bool {
	return f.Exported && !f.ReadOnly
}

// Readable reports whether a mapper may read this member.
func (f *Field) Readable() bool {
	return f.Exported
}

// readOnlyTag reports whether the tag marks the member read-only.
func readOnlyTag(tag reflect.StructTag) bool {
	v, ok := tag.Lookup(TagKey)
	if !ok {
		return false
	}

	for _, part := range strings.Split(v, ",") {
		switch strings.TrimSpace(part) {
		case TagReadOnly, TagSkip:
			return true
		}
	}

	return false
}

// NewField builds a Field, deriving ReadOnly from the tag.
func NewField(name string, exported bool, typ *Type, tag reflect.StructTag, embedded bool, index ...int) Field {
	return Field{
		Name:     name,
		Exported: exported,
		ReadOnly: readOnlyTag(tag),
		Type:     typ,
		Tag:      tag,
		Embedded: embedded,
		Index:    index,
	}
}

package schema

import (
	"reflect"
	"sync"
)

// Cache describes reflect types once and hands out the same *Type for
// every later lookup.
type Cache struct {
	mu    sync.Mutex
	types map[reflect.Type]*Type
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{types: make(map[reflect.Type]*Type)}
}

var defaultCache = NewCache()

// Of describes rt using the package-level cache.
func Of(rt reflect.Type) *Type {
	return defaultCache.Of(rt)
}

// For describes the type parameter T.
func For[T any]() *Type {
	return Of(reflect.TypeFor[T]())
}

// Of describes rt, reusing earlier descriptions.
func (c *Cache) Of(rt reflect.Type) *Type {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.describe(rt)
}

func (c *Cache) describe(rt reflect.Type) *Type {
	if cached, ok := c.types[rt]; ok {
		return cached
	}

	info := &Type{
		Expr:  rt.String(),
		RType: rt,
	}

	if rt.Name() != "" {
		info.ID = TypeID{PkgPath: rt.PkgPath(), Name: rt.Name()}
	}

	// Pre-cache to handle recursive types.
	c.types[rt] = info

	switch rt.Kind() {
	case reflect.Struct:
		info.Kind = KindStruct
		c.describeFields(rt, info)
	case reflect.Pointer:
		info.Kind = KindPointer
		info.Elem = c.describe(rt.Elem())
	case reflect.Slice:
		info.Kind = KindSlice
		info.Elem = c.describe(rt.Elem())
	case reflect.Array:
		info.Kind = KindArray
		info.Elem = c.describe(rt.Elem())
	case reflect.Map:
		info.Kind = KindMap
		info.Key = c.describe(rt.Key())
		info.Elem = c.describe(rt.Elem())
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		info.Kind = KindBasic
		info.Basic = rt.Kind().String()
		if info.IsNamed() && info.ID.PkgPath != "" {
			info.Kind = KindAlias
		}
	default:
		info.Kind = KindExternal
	}

	return info
}

// describeFields records direct members, then members promoted from
// embedded non-pointer structs that are not shadowed.
func (c *Cache) describeFields(rt reflect.Type, info *Type) {
	seen := make(map[string]bool, rt.NumField())

	for i := range rt.NumField() {
		sf := rt.Field(i)
		info.Fields = append(info.Fields,
			NewField(sf.Name, sf.IsExported(), c.describe(sf.Type), sf.Tag, sf.Anonymous, sf.Index...))
		seen[sf.Name] = true
	}

	for i := range rt.NumField() {
		sf := rt.Field(i)
		if !sf.Anonymous || sf.Type.Kind() != reflect.Struct {
			continue
		}

		for j := range sf.Type.NumField() {
			inner := sf.Type.Field(j)
			if seen[inner.Name] {
				continue
			}

			seen[inner.Name] = true
			index := append(append([]int(nil), sf.Index...), inner.Index...)
			info.Fields = append(info.Fields,
				NewField(inner.Name, inner.IsExported(), c.describe(inner.Type), inner.Tag, inner.Anonymous, index...))
		}
	}
}

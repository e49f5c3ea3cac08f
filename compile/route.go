package compile

import (
	"fmt"
	"reflect"

	"member-mapper/accessor"
)

// route is a member path resolved against a reflect type. Each hop is a
// field index sequence as returned by FieldByName, so promoted fields work.
type route struct {
	path accessor.Path
	hops [][]int
	leaf reflect.Type
}

// resolveRoute walks p from root, dereferencing pointer types on the way.
func resolveRoute(root reflect.Type, p accessor.Path) (route, error) {
	r := route{path: p, leaf: root}

	for _, seg := range p.Segments() {
		t := base(r.leaf)
		if t.Kind() != reflect.Struct {
			return route{}, fmt.Errorf("%s is not a struct at %q", t, seg)
		}

		f, ok := t.FieldByName(seg)
		if !ok {
			return route{}, fmt.Errorf("%s has no member %q", t, seg)
		}

		if !f.IsExported() {
			return route{}, fmt.Errorf("%s.%s is unexported", t, seg)
		}

		r.hops = append(r.hops, f.Index)
		r.leaf = f.Type
	}

	return r, nil
}

// read follows the route from v. It reports false when a nil pointer is met
// on the way, in which case there is nothing to copy.
func (r route) read(v reflect.Value) (reflect.Value, bool) {
	for _, hop := range r.hops {
		for _, i := range hop {
			for v.Kind() == reflect.Pointer {
				if v.IsNil() {
					return reflect.Value{}, false
				}

				v = v.Elem()
			}

			v = v.Field(i)
		}
	}

	return v, true
}

// slot follows the route from the addressable value v, allocating nil
// pointers on the way, and returns the settable leaf.
func (r route) slot(v reflect.Value) reflect.Value {
	for _, hop := range r.hops {
		for _, i := range hop {
			for v.Kind() == reflect.Pointer {
				if v.IsNil() {
					v.Set(reflect.New(v.Type().Elem()))
				}

				v = v.Elem()
			}

			v = v.Field(i)
		}
	}

	return v
}

func base(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return t
}

package compile

import (
	"fmt"
	"reflect"
)

// converter turns a source member value into a value assignable to a
// destination member.
type converter func(v reflect.Value) (reflect.Value, error)

// NestedFunc maps one struct value into another registered struct type.
type NestedFunc func(src any) (any, error)

// Nested looks up a mapping for a struct pair. Lookups happen at build
// time; the returned function is only called while mapping.
type Nested func(src, dst reflect.Type) (NestedFunc, bool)

// dispatcher classifies a type pair by the shape of conversion it needs.
type dispatcher int

const (
	dispatchUnknown dispatcher = iota
	dispatchAssign
	dispatchConvert
	dispatchLift  // T -> *T
	dispatchDeref // *T -> T
	dispatchPointer
	dispatchSlice
	dispatchMap
	dispatchStruct
)

func dispatch(src, dst reflect.Type) dispatcher {
	switch {
	case src.AssignableTo(dst):
		return dispatchAssign
	case src.Kind() == reflect.Pointer && dst.Kind() == reflect.Pointer:
		return dispatchPointer
	case dst.Kind() == reflect.Pointer:
		return dispatchLift
	case src.Kind() == reflect.Pointer:
		return dispatchDeref
	case scalar(src) && scalar(dst) && convertible(src, dst):
		return dispatchConvert
	case src.Kind() == reflect.Slice && dst.Kind() == reflect.Slice:
		return dispatchSlice
	case src.Kind() == reflect.Map && dst.Kind() == reflect.Map:
		return dispatchMap
	case src.Kind() == reflect.Struct && dst.Kind() == reflect.Struct:
		return dispatchStruct
	default:
		return dispatchUnknown
	}
}

func scalar(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func integer(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	default:
		return false
	}
}

// convertible rejects integer to string, which reflect allows but yields
// a rune instead of the decimal text.
func convertible(src, dst reflect.Type) bool {
	if integer(src) && dst.Kind() == reflect.String {
		return false
	}

	return src.ConvertibleTo(dst)
}

// Compatible reports whether a member of type src can be assigned to a
// member of type dst, consulting nested for struct pairs. nested may be nil.
func Compatible(src, dst reflect.Type, nested Nested) bool {
	_, err := converterFor(src, dst, nested)
	return err == nil
}

func converterFor(src, dst reflect.Type, nested Nested) (converter, error) {
	switch dispatch(src, dst) {
	case dispatchAssign:
		return func(v reflect.Value) (reflect.Value, error) { return v, nil }, nil

	case dispatchConvert:
		return func(v reflect.Value) (reflect.Value, error) { return v.Convert(dst), nil }, nil

	case dispatchLift:
		inner, err := converterFor(src, dst.Elem(), nested)
		if err != nil {
			return nil, err
		}

		return func(v reflect.Value) (reflect.Value, error) {
			out, err := inner(v)
			if err != nil {
				return reflect.Value{}, err
			}

			p := reflect.New(dst.Elem())
			p.Elem().Set(out)

			return p, nil
		}, nil

	case dispatchDeref:
		inner, err := converterFor(src.Elem(), dst, nested)
		if err != nil {
			return nil, err
		}

		return func(v reflect.Value) (reflect.Value, error) {
			if v.IsNil() {
				return reflect.Zero(dst), nil
			}

			return inner(v.Elem())
		}, nil

	case dispatchPointer:
		inner, err := converterFor(src.Elem(), dst.Elem(), nested)
		if err != nil {
			return nil, err
		}

		return func(v reflect.Value) (reflect.Value, error) {
			if v.IsNil() {
				return reflect.Zero(dst), nil
			}

			out, err := inner(v.Elem())
			if err != nil {
				return reflect.Value{}, err
			}

			p := reflect.New(dst.Elem())
			p.Elem().Set(out)

			return p, nil
		}, nil

	case dispatchSlice:
		elem, err := converterFor(src.Elem(), dst.Elem(), nested)
		if err != nil {
			return nil, err
		}

		return func(v reflect.Value) (reflect.Value, error) {
			if v.IsNil() {
				return reflect.Zero(dst), nil
			}

			out := reflect.MakeSlice(dst, v.Len(), v.Len())
			for i := range v.Len() {
				ev, err := elem(v.Index(i))
				if err != nil {
					return reflect.Value{}, fmt.Errorf("[%d]: %w", i, err)
				}

				out.Index(i).Set(ev)
			}

			return out, nil
		}, nil

	case dispatchMap:
		key, err := converterFor(src.Key(), dst.Key(), nested)
		if err != nil {
			return nil, err
		}

		elem, err := converterFor(src.Elem(), dst.Elem(), nested)
		if err != nil {
			return nil, err
		}

		return func(v reflect.Value) (reflect.Value, error) {
			if v.IsNil() {
				return reflect.Zero(dst), nil
			}

			out := reflect.MakeMapWithSize(dst, v.Len())

			iter := v.MapRange()
			for iter.Next() {
				kv, err := key(iter.Key())
				if err != nil {
					return reflect.Value{}, err
				}

				ev, err := elem(iter.Value())
				if err != nil {
					return reflect.Value{}, fmt.Errorf("[%v]: %w", iter.Key(), err)
				}

				out.SetMapIndex(kv, ev)
			}

			return out, nil
		}, nil

	case dispatchStruct:
		if nested == nil {
			break
		}

		fn, ok := nested(src, dst)
		if !ok {
			break
		}

		return func(v reflect.Value) (reflect.Value, error) {
			out, err := fn(v.Interface())
			if err != nil {
				return reflect.Value{}, err
			}

			return reflect.ValueOf(out), nil
		}, nil
	}

	return nil, fmt.Errorf("%w: %s to %s", ErrIncompatible, src, dst)
}

// assign converts v for the settable slot and stores it. A nil interface
// result writes the zero value.
func assign(slot reflect.Value, v reflect.Value, nested Nested) error {
	if !v.IsValid() {
		slot.SetZero()
		return nil
	}

	conv, err := converterFor(v.Type(), slot.Type(), nested)
	if err != nil {
		return err
	}

	out, err := conv(v)
	if err != nil {
		return err
	}

	slot.Set(out)

	return nil
}

package plan

import (
	"member-mapper/schema"
)

// Classify determines the conversion strategy from a src member to a dst
// member. nested reports struct pairs that have a mapping of their own; it
// may be nil.
func Classify(src, dst *schema.Type, nested func(src, dst *schema.Type) bool) Strategy {
	if src == nil || dst == nil {
		return StrategyUnsupported
	}

	switch {
	case sameType(src, dst):
		return StrategyDirectAssign
	case src.Kind == schema.KindPointer && dst.Kind == schema.KindPointer:
		return when(Classify(src.Elem, dst.Elem, nested), StrategyPointer)
	case dst.Kind == schema.KindPointer:
		return when(Classify(src, dst.Elem, nested), StrategyPointerWrap)
	case src.Kind == schema.KindPointer:
		return when(Classify(src.Elem, dst, nested), StrategyPointerDeref)
	case scalar(src) && scalar(dst):
		if convertible(src.Basic, dst.Basic) {
			return StrategyConvert
		}

		return StrategyUnsupported
	case src.Kind == schema.KindSlice && dst.Kind == schema.KindSlice:
		return when(Classify(src.Elem, dst.Elem, nested), StrategySliceMap)
	case src.Kind == schema.KindMap && dst.Kind == schema.KindMap:
		if !sameType(src.Key, dst.Key) {
			return StrategyUnsupported
		}

		return when(Classify(src.Elem, dst.Elem, nested), StrategyMap)
	case src.Kind == schema.KindStruct && dst.Kind == schema.KindStruct:
		if nested != nil && nested(src, dst) {
			return StrategyNestedCast
		}

		return StrategyUnsupported
	default:
		return StrategyUnsupported
	}
}

func when(inner, s Strategy) Strategy {
	if inner == StrategyUnsupported {
		return StrategyUnsupported
	}

	return s
}

// sameType reports whether a and b describe the same Go type.
func sameType(a, b *schema.Type) bool {
	if a == nil || b == nil {
		return a == b
	}

	if a == b {
		return true
	}

	if a.IsNamed() || b.IsNamed() {
		return a.ID == b.ID
	}

	if a.Kind != b.Kind {
		return false
	}

	switch a.Kind {
	case schema.KindBasic:
		return a.Basic == b.Basic
	case schema.KindPointer, schema.KindSlice:
		return sameType(a.Elem, b.Elem)
	case schema.KindMap:
		return sameType(a.Key, b.Key) && sameType(a.Elem, b.Elem)
	default:
		return a.Expr != "" && a.Expr == b.Expr
	}
}

func scalar(t *schema.Type) bool {
	return (t.Kind == schema.KindBasic || t.Kind == schema.KindAlias) && t.Basic != ""
}

// convertible mirrors Go conversion rules between predeclared types,
// except that integers never become strings: Go turns them into a rune
// instead of decimal text.
func convertible(src, dst string) bool {
	switch {
	case numeric(src) && numeric(dst):
		return true
	case src == "string" && dst == "string", src == "bool" && dst == "bool":
		return true
	default:
		return false
	}
}

func numeric(basic string) bool {
	switch basic {
	case "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64", "uintptr",
		"float32", "float64":
		return true
	default:
		return false
	}
}

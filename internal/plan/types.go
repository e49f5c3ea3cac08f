package plan

import (
	"member-mapper/internal/common"
	"member-mapper/internal/diagnostic"
	"member-mapper/internal/rulefile"
	"member-mapper/mapper"
	"member-mapper/schema"
)

// Plan is the output of the resolution pipeline: everything code
// generation needs.
type Plan struct {
	// Pairs in rule file order.
	Pairs []*Pair
	// File is the rule file the plan was resolved from.
	File *rulefile.File
	// Diagnostics contains all warnings and errors from resolution.
	Diagnostics diagnostic.Diagnostics
}

// Pair is one resolved source -> target mapping.
type Pair struct {
	Mapping *rulefile.Mapping
	Source  *schema.Type
	Target  *schema.Type
	// Mapper holds the rules after the rule file and flattening were
	// applied.
	Mapper *mapper.TypeMapper
	Engine *mapper.Engine
	// Unmapped lists writable top-level target members without a rule.
	Unmapped []string
}

// Name returns the type pair name used in diagnostics.
func (p *Pair) Name() string {
	return p.Mapping.TypePair()
}

// Pair returns the resolved pair converting src into dst, or nil.
func (p *Plan) Pair(src, dst *schema.Type) *Pair {
	for _, pair := range p.Pairs {
		if sameType(pair.Source, src) && sameType(pair.Target, dst) {
			return pair
		}
	}

	return nil
}

// Strategy classifies the conversion of a src member into a dst member,
// using the plan's pairs for nested structs.
func (p *Plan) Strategy(src, dst *schema.Type) Strategy {
	return Classify(src, dst, func(s, d *schema.Type) bool {
		return p.Pair(s, d) != nil
	})
}

// Strategy describes how a member value is converted.
type Strategy int

const (
	// StrategyUnsupported - no conversion exists.
	StrategyUnsupported Strategy = iota
	// StrategyDirectAssign - identical types.
	StrategyDirectAssign
	// StrategyConvert - explicit Go type conversion between scalars.
	StrategyConvert
	// StrategyPointerWrap - take address to create pointer.
	StrategyPointerWrap
	// StrategyPointerDeref - dereference pointer with nil check.
	StrategyPointerDeref
	// StrategyPointer - convert the pointee of a non-nil pointer.
	StrategyPointer
	// StrategySliceMap - map over slice elements.
	StrategySliceMap
	// StrategyMap - copy map entries converting values.
	StrategyMap
	// StrategyNestedCast - call the mapper of another pair.
	StrategyNestedCast
)

// String returns a human-readable strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyUnsupported:
		return "unsupported"
	case StrategyDirectAssign:
		return "direct_assign"
	case StrategyConvert:
		return "convert"
	case StrategyPointerWrap:
		return "pointer_wrap"
	case StrategyPointerDeref:
		return "pointer_deref"
	case StrategyPointer:
		return "pointer"
	case StrategySliceMap:
		return "slice_map"
	case StrategyMap:
		return "map"
	case StrategyNestedCast:
		return "nested_cast"
	default:
		return common.UnknownStr
	}
}

// Package rule defines the mapping instructions recorded for destination
// members, the per type-pair store that holds them, and the Plan handed to
// a compiler.
//
// A Rule is a tagged variant: exactly one of Source, Transform or Value is
// meaningful, depending on Kind. Rules installed by automatic flattening are
// marked Overridable so that explicit rules may replace them later, while
// flattening never replaces an explicit rule.
package rule

import (
	"fmt"

	"member-mapper/accessor"
	"member-mapper/internal/common"
)

// Kind tags the variant of a Rule.
type Kind int

const (
	KindMember   Kind = iota // copy a source member
	KindComputed             // copy a nested source path, usually from flattening
	KindFunction             // call a transform with the whole source
	KindIgnore               // leave the destination member untouched
	KindValue                // assign a literal
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindMember:
		return "member"
	case KindComputed:
		return "computed"
	case KindFunction:
		return "function"
	case KindIgnore:
		return "ignore"
	case KindValue:
		return "value"
	default:
		return common.UnknownStr
	}
}

// Transform produces a destination member value from the whole source.
// Name is optional; code generation requires it to emit a call.
type Transform struct {
	Name string
	Fn   func(src any) (any, error)
}

// Rule is a registered mapping instruction for one destination member.
type Rule struct {
	Kind Kind
	// Dest is the destination member this rule writes.
	Dest accessor.Path
	// Source is read by KindMember and KindComputed rules.
	Source accessor.Path
	// Transform is called by KindFunction rules.
	Transform *Transform
	// Value is assigned by KindValue rules.
	Value any
	// Overridable marks rules that a later explicit rule may replace.
	Overridable bool
}

// Member returns a rule copying src into dest.
func Member(dest, src accessor.Path) Rule {
	return Rule{Kind: KindMember, Dest: dest, Source: src}
}

// Computed returns a rule copying the nested source path src into dest.
func Computed(dest, src accessor.Path, overridable bool) Rule {
	return Rule{Kind: KindComputed, Dest: dest, Source: src, Overridable: overridable}
}

// Function returns a rule assigning the result of t to dest.
func Function(dest accessor.Path, t *Transform) Rule {
	return Rule{Kind: KindFunction, Dest: dest, Transform: t}
}

// Ignore returns a rule leaving dest untouched.
func Ignore(dest accessor.Path) Rule {
	return Rule{Kind: KindIgnore, Dest: dest}
}

// Value returns a rule assigning literal to dest.
func Value(dest accessor.Path, literal any) Rule {
	return Rule{Kind: KindValue, Dest: dest, Value: literal}
}

// Explicit reports whether the rule came from an explicit declaration.
func (r Rule) Explicit() bool {
	return !r.Overridable
}

// Key returns the store key of the destination member.
func (r Rule) Key() string {
	return r.Dest.Key()
}

// String describes the rule for diagnostics.
func (r Rule) String() string {
	switch r.Kind {
	case KindMember:
		return fmt.Sprintf("%s <- %s", r.Dest, r.Source)
	case KindComputed:
		if r.Overridable {
			return fmt.Sprintf("%s <- %s (overridable)", r.Dest, r.Source)
		}

		return fmt.Sprintf("%s <- %s (computed)", r.Dest, r.Source)
	case KindFunction:
		name := "func"
		if r.Transform != nil && r.Transform.Name != "" {
			name = r.Transform.Name
		}

		return fmt.Sprintf("%s <- %s(src)", r.Dest, name)
	case KindIgnore:
		return fmt.Sprintf("%s ignored", r.Dest)
	case KindValue:
		return fmt.Sprintf("%s = %#v", r.Dest, r.Value)
	default:
		return fmt.Sprintf("%s %s", r.Dest, r.Kind)
	}
}

package rulefile

import (
	"fmt"
	"slices"

	"member-mapper/accessor"
	"member-mapper/internal/diagnostic"
	"member-mapper/internal/match"
	"member-mapper/rule"
	"member-mapper/schema"
)

// Diagnostic codes reported by Validate in addition to the shared ones.
const (
	CodeUnsupportedVersion = "unsupported_version"
	CodeDuplicateMapping   = "duplicate_mapping"
	CodeDuplicateTransform = "duplicate_transform"
	CodeConflictingRules   = "conflicting_rules"
	CodeUnwritable         = "unwritable_member"
)

const maxSuggestions = 3

// TypeResolver finds types by the references written in rule files.
type TypeResolver interface {
	Resolve(ref string) (*schema.Type, error)
	Names() []string
}

// Validate checks f against the types known to types. It is a structural
// check: type compatibility of members is left to compilation.
func Validate(f *File, types TypeResolver) *diagnostic.Diagnostics {
	res := &diagnostic.Diagnostics{}
	if f == nil {
		res.AddError(diagnostic.CodeInvalidRule, "rule file is nil", "", "")
		return res
	}

	if f.Version != Version {
		res.AddError(CodeUnsupportedVersion, fmt.Sprintf("unsupported version %q, want %q", f.Version, Version), "", "")
	}

	validateTransforms(f, res)

	seen := make(map[string]bool, len(f.Mappings))

	for i := range f.Mappings {
		m := &f.Mappings[i]

		if seen[m.TypePair()] {
			res.AddError(CodeDuplicateMapping, "type pair declared more than once", m.TypePair(), "")
			continue
		}

		seen[m.TypePair()] = true

		validateMapping(f, m, types, res)
	}

	return res
}

func validateTransforms(f *File, res *diagnostic.Diagnostics) {
	seen := make(map[string]bool, len(f.Transforms))

	for _, t := range f.Transforms {
		switch {
		case t.Name == "":
			res.AddError(diagnostic.CodeInvalidRule, "transform without name", "", "")
		case seen[t.Name]:
			res.AddError(CodeDuplicateTransform, fmt.Sprintf("duplicate transform %q", t.Name), "", t.Name)
		case !accessor.IsIdent(t.Func):
			res.AddError(diagnostic.CodeInvalidRule, fmt.Sprintf("transform %q: func %q is not an identifier", t.Name, t.Func), "", t.Name)
		}

		seen[t.Name] = true
	}
}

func validateMapping(f *File, m *Mapping, types TypeResolver, res *diagnostic.Diagnostics) {
	tp := m.TypePair()

	src := resolveType(m.Source, "source", tp, types, res)
	dst := resolveType(m.Target, "target", tp, types, res)

	if m.Compile != "" {
		if _, err := rule.ParseMode(m.Compile); err != nil {
			res.AddError(diagnostic.CodeInvalidRule, err.Error(), tp, "")
		}
	}

	if src == nil || dst == nil {
		return
	}

	v := &mappingValidator{mapping: m, src: src, dst: dst, res: res, sections: make(map[string]string)}

	for _, dest := range m.Ignore {
		v.dest(dest, "ignore")
	}

	for _, dest := range sortedKeys(m.Members) {
		if v.dest(dest, "members") {
			v.source(dest, m.Members[dest])
		}
	}

	for _, dest := range sortedKeys(m.Values) {
		v.dest(dest, "values")
	}

	for _, dest := range sortedKeys(m.Functions) {
		v.dest(dest, "functions")

		if _, ok := f.Transform(m.Functions[dest]); !ok {
			res.AddError(diagnostic.CodeUnknownTransform,
				fmt.Sprintf("transform %q is not declared", m.Functions[dest]), tp, dest)
		}
	}

	for _, c := range m.Computed {
		if v.dest(c.Target, "computed") {
			v.source(c.Target, c.Source)
		}
	}
}

func resolveType(ref, role, tp string, types TypeResolver, res *diagnostic.Diagnostics) *schema.Type {
	t, err := types.Resolve(ref)
	if err == nil {
		return t
	}

	res.AddError(diagnostic.CodeTypeNotFound, fmt.Sprintf("%s type: %v", role, err), tp, "",
		match.Suggest(ref, types.Names(), maxSuggestions)...)

	return nil
}

type mappingValidator struct {
	mapping  *Mapping
	src, dst *schema.Type
	res      *diagnostic.Diagnostics
	// sections records the first section naming each destination member.
	sections map[string]string
}

// dest checks a destination reference and reports whether it resolved.
func (v *mappingValidator) dest(ref, section string) bool {
	tp := v.mapping.TypePair()

	p, err := accessor.Parse(ref)
	if err != nil {
		v.res.AddError(diagnostic.CodeInvalidAccessor, fmt.Sprintf("%s: %v", section, err), tp, ref)
		return false
	}

	if prev, ok := v.sections[p.Key()]; ok && prev != section {
		v.res.AddWarning(CodeConflictingRules,
			fmt.Sprintf("declared in %s and %s; %s wins", prev, section, winner(prev, section)), tp, ref)
	} else if !ok {
		v.sections[p.Key()] = section
	}

	r, err := schema.Resolve(v.dst, p)
	if err != nil {
		v.res.AddError(diagnostic.CodeInvalidAccessor, fmt.Sprintf("%s: %v", section, err), tp, ref,
			suggest(v.dst, p)...)

		return false
	}

	if !r.Writable && section != "ignore" {
		v.res.AddWarning(CodeUnwritable, section+": member is not writable and will be ignored", tp, ref)
	}

	return true
}

func (v *mappingValidator) source(dest, ref string) {
	tp := v.mapping.TypePair()

	p, err := accessor.Parse(ref)
	if err != nil {
		v.res.AddError(diagnostic.CodeInvalidAccessor, fmt.Sprintf("source: %v", err), tp, dest)
		return
	}

	r, err := schema.Resolve(v.src, p)
	if err != nil {
		v.res.AddError(diagnostic.CodeInvalidAccessor, fmt.Sprintf("source: %v", err), tp, dest,
			suggest(v.src, p)...)

		return
	}

	if !r.Readable {
		v.res.AddError(diagnostic.CodeInvalidAccessor, fmt.Sprintf("source %s is not exported", ref), tp, dest)
	}
}

// sectionOrder is the order Apply installs sections in.
var sectionOrder = []string{"ignore", "members", "values", "functions", "computed"}

// winner names the section whose rule survives when both declare a member.
func winner(a, b string) string {
	if a == "computed" {
		return b
	}

	if b == "computed" {
		return a
	}

	if slices.Index(sectionOrder, a) > slices.Index(sectionOrder, b) {
		return a
	}

	return b
}

// suggest proposes member names for the first segment of p that does not
// resolve in t.
func suggest(t *schema.Type, p accessor.Path) []string {
	cur := t

	for _, seg := range p.Segments() {
		cur = cur.Deref()
		if cur == nil || cur.Kind != schema.KindStruct {
			return nil
		}

		f := cur.Field(seg)
		if f == nil {
			return match.Suggest(seg, cur.FieldNames(), maxSuggestions)
		}

		cur = f.Type
	}

	return nil
}

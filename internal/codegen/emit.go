package codegen

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"member-mapper/accessor"
	"member-mapper/internal/plan"
	"member-mapper/rule"
	"member-mapper/schema"
)

// fileBuilder renders the statements of one file and tracks its imports.
type fileBuilder struct {
	g       *Generator
	imports map[string]string // path -> alias
	aliases map[string]string // alias -> path
}

func newFileBuilder(g *Generator) *fileBuilder {
	return &fileBuilder{
		g:       g,
		imports: make(map[string]string),
		aliases: make(map[string]string),
	}
}

// qualify returns the selector prefix for pkgPath, importing it on first
// use. Builtins and the generated package need none.
func (b *fileBuilder) qualify(pkgPath string) string {
	if pkgPath == "" || pkgPath == b.g.config.PackagePath {
		return ""
	}

	if alias, ok := b.imports[pkgPath]; ok {
		return alias + "."
	}

	base := b.g.config.PackageNameOf(pkgPath)
	alias := base

	for n := 2; ; n++ {
		if _, taken := b.aliases[alias]; !taken {
			break
		}

		alias = base + strconv.Itoa(n)
	}

	b.imports[pkgPath] = alias
	b.aliases[alias] = pkgPath

	return alias + "."
}

func (b *fileBuilder) importList() []importSpec {
	paths := slices.Sorted(maps.Keys(b.imports))

	out := make([]importSpec, 0, len(paths))
	for _, p := range paths {
		out = append(out, importSpec{Alias: b.imports[p], Path: p})
	}

	return out
}

// typeExpr renders t as a Go type expression valid in the generated file.
func (b *fileBuilder) typeExpr(t *schema.Type) string {
	switch {
	case t == nil:
		return "any"
	case t.IsNamed():
		return b.qualify(t.ID.PkgPath) + t.ID.Name
	}

	switch t.Kind {
	case schema.KindPointer:
		return "*" + b.typeExpr(t.Elem)
	case schema.KindSlice:
		return "[]" + b.typeExpr(t.Elem)
	case schema.KindMap:
		return "map[" + b.typeExpr(t.Key) + "]" + b.typeExpr(t.Elem)
	case schema.KindBasic:
		return t.Basic
	default:
		return t.Expr
	}
}

// rule renders the statements implementing r.
func (b *fileBuilder) rule(pair *plan.Pair, r rule.Rule) ([]string, error) {
	var lines []string
	if b.g.config.GenerateComments {
		lines = append(lines, "// "+r.String())
	}

	if r.Kind == rule.KindIgnore {
		if !b.g.config.GenerateComments {
			return nil, nil
		}

		return lines, nil
	}

	dres, err := schema.Resolve(pair.Target, r.Dest)
	if err != nil {
		return nil, err
	}

	target := selector("out", r.Dest)
	dstType := dres.Leaf().Type
	alloc := b.allocDest(dres, r.Dest)

	switch r.Kind {
	case rule.KindValue:
		lit, err := b.literal(r.Value, dstType)
		if err != nil {
			return nil, err
		}

		lines = append(lines, alloc...)
		lines = append(lines, b.assignExpr(target, lit, dstType)...)

	case rule.KindFunction:
		call, err := b.transformCall(r)
		if err != nil {
			return nil, err
		}

		lines = append(lines, alloc...)
		lines = append(lines, target+" = "+call)

	case rule.KindMember, rule.KindComputed:
		src, dst, err := plan.MemberTypes(pair, r)
		if err != nil {
			return nil, err
		}

		conv, err := b.convert(target, selector("in", r.Source), src, dst, 0)
		if err != nil {
			return nil, err
		}

		body := append(alloc, conv...)

		guards, err := b.sourceGuards(pair, r.Source)
		if err != nil {
			return nil, err
		}

		if len(guards) == 0 {
			lines = append(lines, body...)
			break
		}

		lines = append(lines, "if "+strings.Join(guards, " && ")+" {")
		lines = append(lines, body...)
		lines = append(lines, "}")

	default:
		return nil, fmt.Errorf("%w: rule kind %s", ErrNotGeneratable, r.Kind)
	}

	return lines, nil
}

// transformCall renders the call of a named transform.
func (b *fileBuilder) transformCall(r rule.Rule) (string, error) {
	if r.Transform == nil || r.Transform.Name == "" {
		return "", fmt.Errorf("%w: transform has no name", ErrNotGeneratable)
	}

	decl, ok := b.g.plan.File.Transform(r.Transform.Name)
	if !ok {
		return "", fmt.Errorf("%w: transform %q is not declared", ErrNotGeneratable, r.Transform.Name)
	}

	return b.qualify(decl.Package) + decl.Func + "(in)", nil
}

// allocDest allocates nil pointers along the destination path, leaf
// excluded.
func (b *fileBuilder) allocDest(res schema.Resolution, dest accessor.Path) []string {
	var lines []string

	segs := dest.Segments()
	for i, f := range res.Chain[:len(res.Chain)-1] {
		if f.Type.Kind != schema.KindPointer {
			continue
		}

		sel := selector("out", accessor.New(segs[:i+1]...))
		lines = append(lines,
			"if "+sel+" == nil {",
			sel+" = new("+b.typeExpr(f.Type.Elem)+")",
			"}")
	}

	return lines
}

// sourceGuards returns the nil checks needed to read src.
func (b *fileBuilder) sourceGuards(pair *plan.Pair, src accessor.Path) ([]string, error) {
	res, err := schema.Resolve(pair.Source, src)
	if err != nil {
		return nil, err
	}

	var guards []string
	if pair.Source.Kind == schema.KindPointer {
		guards = append(guards, "in != nil")
	}

	segs := src.Segments()
	for i, f := range res.Chain[:len(res.Chain)-1] {
		if f.Type.Kind == schema.KindPointer {
			guards = append(guards, selector("in", accessor.New(segs[:i+1]...))+" != nil")
		}
	}

	return guards, nil
}

// convert renders statements assigning expr, of type src, to the lvalue
// target of type dst.
func (b *fileBuilder) convert(target, expr string, src, dst *schema.Type, depth int) ([]string, error) {
	switch s := b.g.plan.Strategy(src, dst); s {
	case plan.StrategyDirectAssign:
		return []string{target + " = " + expr}, nil

	case plan.StrategyConvert:
		return []string{target + " = " + b.typeExpr(dst) + "(" + expr + ")"}, nil

	case plan.StrategyPointerWrap:
		inner, err := b.convert(deref(target), expr, src, dst.Elem, depth)
		if err != nil {
			return nil, err
		}

		return append([]string{target + " = new(" + b.typeExpr(dst.Elem) + ")"}, inner...), nil

	case plan.StrategyPointerDeref:
		inner, err := b.convert(target, deref(expr), src.Elem, dst, depth)
		if err != nil {
			return nil, err
		}

		return guarded(expr+" != nil", inner), nil

	case plan.StrategyPointer:
		inner, err := b.convert(deref(target), deref(expr), src.Elem, dst.Elem, depth)
		if err != nil {
			return nil, err
		}

		return guarded(expr+" != nil",
			append([]string{target + " = new(" + b.typeExpr(dst.Elem) + ")"}, inner...)), nil

	case plan.StrategySliceMap:
		i := fmt.Sprintf("i%d", depth)

		inner, err := b.convert(index(target, i), index(expr, i), src.Elem, dst.Elem, depth+1)
		if err != nil {
			return nil, err
		}

		lines := []string{
			target + " = make(" + b.typeExpr(dst) + ", len(" + expr + "))",
			"for " + i + " := range " + expr + " {",
		}
		lines = append(lines, inner...)
		lines = append(lines, "}")

		return guarded(expr+" != nil", lines), nil

	case plan.StrategyMap:
		k, v := fmt.Sprintf("k%d", depth), fmt.Sprintf("v%d", depth)

		inner, err := b.convert(index(target, k), v, src.Elem, dst.Elem, depth+1)
		if err != nil {
			return nil, err
		}

		lines := []string{
			target + " = make(" + b.typeExpr(dst) + ", len(" + expr + "))",
			"for " + k + ", " + v + " := range " + expr + " {",
		}
		lines = append(lines, inner...)
		lines = append(lines, "}")

		return guarded(expr+" != nil", lines), nil

	case plan.StrategyNestedCast:
		nested := b.g.plan.Pair(src, dst)

		return []string{target + " = " + b.g.FunctionName(nested) + "(" + expr + ")"}, nil

	default:
		return nil, fmt.Errorf("%w: cannot convert %s to %s (%s)", ErrNotGeneratable, src, dst, s)
	}
}

// assignExpr assigns the constant expression lit to target, allocating a
// pointer destination first.
func (b *fileBuilder) assignExpr(target, lit string, dst *schema.Type) []string {
	if dst.Kind != schema.KindPointer || lit == "nil" {
		return []string{target + " = " + lit}
	}

	return []string{
		target + " = new(" + b.typeExpr(dst.Elem) + ")",
		deref(target) + " = " + lit,
	}
}

// literal renders v as an untyped constant assignable to dst.
func (b *fileBuilder) literal(v any, dst *schema.Type) (string, error) {
	if v == nil {
		if dst.Kind == schema.KindPointer || dst.Kind == schema.KindSlice || dst.Kind == schema.KindMap {
			return "nil", nil
		}

		return "*new(" + b.typeExpr(dst) + ")", nil
	}

	base := dst
	if base.Kind == schema.KindPointer {
		base = base.Elem
	}

	mismatch := fmt.Errorf("%w: value %v (%T) does not fit %s", ErrNotGeneratable, v, v, dst)

	switch v := v.(type) {
	case string:
		if base.Basic != "string" {
			return "", mismatch
		}

		return strconv.Quote(v), nil
	case bool:
		if base.Basic != "bool" {
			return "", mismatch
		}

		return strconv.FormatBool(v), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		if !numericBasic(base.Basic) {
			return "", mismatch
		}

		return fmt.Sprint(v), nil
	case float32:
		if !floatBasic(base.Basic) {
			return "", mismatch
		}

		return strconv.FormatFloat(float64(v), 'g', -1, 32), nil
	case float64:
		if !floatBasic(base.Basic) {
			return "", mismatch
		}

		return strconv.FormatFloat(v, 'g', -1, 64), nil
	default:
		return "", mismatch
	}
}

func numericBasic(basic string) bool {
	switch basic {
	case "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64", "uintptr":
		return true
	default:
		return floatBasic(basic)
	}
}

func floatBasic(basic string) bool {
	return basic == "float32" || basic == "float64"
}

func selector(root string, p accessor.Path) string {
	return root + "." + p.String()
}

func deref(expr string) string {
	return "*" + expr
}

func index(expr, i string) string {
	if strings.HasPrefix(expr, "*") {
		expr = "(" + expr + ")"
	}

	return expr + "[" + i + "]"
}

func guarded(cond string, body []string) []string {
	lines := make([]string, 0, len(body)+2)
	lines = append(lines, "if "+cond+" {")
	lines = append(lines, body...)

	return append(lines, "}")
}

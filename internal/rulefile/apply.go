package rulefile

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"member-mapper/accessor"
	"member-mapper/mapper"
	"member-mapper/rule"
)

// ErrUnboundTransform is returned by placeholder transforms that have no Go
// function behind them, e.g. when a rule file is only checked or used for
// code generation.
var ErrUnboundTransform = errors.New("transform has no function bound")

// Funcs binds transform names to functions.
type Funcs map[string]func(src any) (any, error)

// Bind returns the transforms of f keyed by name. Transforms missing from
// funcs get a placeholder returning ErrUnboundTransform.
func Bind(f *File, funcs Funcs) map[string]*rule.Transform {
	out := make(map[string]*rule.Transform, len(f.Transforms))

	for _, t := range f.Transforms {
		fn, ok := funcs[t.Name]
		if !ok {
			name := t.Name
			fn = func(any) (any, error) {
				return nil, fmt.Errorf("%w: %s", ErrUnboundTransform, name)
			}
		}

		out[t.Name] = &rule.Transform{Name: t.Name, Fn: fn}
	}

	return out
}

// Apply installs the rules of m on engine in section order. Rejected
// entries do not stop the others; their errors are joined.
func Apply(m *Mapping, engine *mapper.Engine, transforms map[string]*rule.Transform) error {
	engine.CaseSensitive(m.CaseSensitive)

	var errs []error

	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	if m.Compile != "" {
		mode, err := rule.ParseMode(m.Compile)
		if err == nil {
			err = engine.CompileTo(mode)
		}

		add(err)
	}

	for _, dest := range m.Ignore {
		add(withPath(dest, func(p accessor.Path) error { return engine.Ignore(p) }))
	}

	for _, dest := range sortedKeys(m.Members) {
		add(withPaths(dest, m.Members[dest], engine.Member))
	}

	for _, dest := range sortedKeys(m.Values) {
		add(withPath(dest, func(p accessor.Path) error { return engine.Value(p, m.Values[dest]) }))
	}

	for _, dest := range sortedKeys(m.Functions) {
		name := m.Functions[dest]

		t, ok := transforms[name]
		if !ok {
			add(fmt.Errorf("%s: %w: unknown transform %q", dest, mapper.ErrNilFunction, name))
			continue
		}

		add(withPath(dest, func(p accessor.Path) error { return engine.Function(p, t) }))
	}

	for _, c := range m.Computed {
		add(withPaths(c.Target, c.Source, func(dest, src accessor.Path) error {
			return engine.Computed(dest, src, c.Overridable)
		}))
	}

	if len(errs) > 0 {
		return fmt.Errorf("apply %s: %w", m.TypePair(), errors.Join(errs...))
	}

	return nil
}

// withPath parses dest and hands it to fn. A malformed reference still
// reaches fn as a zero path so the engine records the rejection.
func withPath(dest string, fn func(accessor.Path) error) error {
	p, err := accessor.Parse(dest)
	if err != nil {
		return errors.Join(fmt.Errorf("%q: %w", dest, err), fn(accessor.Path{}))
	}

	return fn(p)
}

func withPaths(dest, src string, fn func(dest, src accessor.Path) error) error {
	s, err := accessor.Parse(src)
	if err != nil {
		return fmt.Errorf("%s: source %q: %w", dest, src, err)
	}

	return withPath(dest, func(d accessor.Path) error { return fn(d, s) })
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

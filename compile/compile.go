package compile

import (
	"errors"
	"fmt"
	"reflect"

	"member-mapper/rule"
)

// Options tune Build.
type Options struct {
	// Nested resolves struct members that are neither assignable nor
	// convertible, usually by looking up another registered pair.
	Nested Nested
}

var errNilTransform = errors.New("nil transform")

// instruction is one compiled rule.
type instruction struct {
	kind      rule.Kind
	dest      route
	source    route
	conv      converter
	value     reflect.Value
	transform *rule.Transform
}

// Func is a compiled transform from one source type to one destination
// type. It is safe for concurrent use as long as the hooks, transforms and
// constructor it calls are.
type Func struct {
	src, dst     reflect.Type
	mode         rule.Mode
	nested       Nested
	construction *rule.Construction
	before       []rule.Hook
	after        []rule.Hook
	program      []instruction
	chain        []func(src, dst reflect.Value) error
}

// Build compiles plan for the given source and destination types. Every
// source path, destination path and literal is checked here, so a Func
// only fails at run time because of user functions or nested mappings.
func Build(plan rule.Plan, src, dst reflect.Type, opts Options) (*Func, error) {
	if src == nil || dst == nil {
		return nil, fmt.Errorf("%w: nil type", ErrSourceType)
	}

	f := &Func{
		src:          src,
		dst:          dst,
		mode:         plan.Mode,
		nested:       opts.Nested,
		construction: plan.Construction,
		before:       plan.Before,
		after:        plan.After,
	}

	for _, r := range plan.Rules {
		in, err := f.instruction(r)
		if err != nil {
			return nil, &MemberError{Path: r.Key(), Err: err}
		}

		f.program = append(f.program, in)
	}

	switch plan.Mode {
	case rule.ModeDelegate:
	case rule.ModeGenerated:
		f.chain = make([]func(src, dst reflect.Value) error, 0, len(f.program))
		for _, in := range f.program {
			if step := f.specialise(in); step != nil {
				f.chain = append(f.chain, step)
			}
		}
	default:
		return nil, fmt.Errorf("unknown compilation mode %d", plan.Mode)
	}

	return f, nil
}

func (f *Func) instruction(r rule.Rule) (instruction, error) {
	in := instruction{kind: r.Kind, transform: r.Transform}

	// Ignore never touches the member, which may be unexported.
	if r.Kind == rule.KindIgnore {
		return in, nil
	}

	dest, err := resolveRoute(f.dst, r.Dest)
	if err != nil {
		return in, fmt.Errorf("%w: %w", ErrUnknownDest, err)
	}

	in.dest = dest

	switch r.Kind {
	case rule.KindMember, rule.KindComputed:
		source, err := resolveRoute(f.src, r.Source)
		if err != nil {
			return in, fmt.Errorf("%w: %w", ErrUnknownSource, err)
		}

		conv, err := converterFor(source.leaf, dest.leaf, f.nested)
		if err != nil {
			return in, err
		}

		in.source = source
		in.conv = conv

	case rule.KindValue:
		if r.Value == nil {
			in.value = reflect.Zero(dest.leaf)
			break
		}

		lit := reflect.ValueOf(r.Value)

		conv, err := converterFor(lit.Type(), dest.leaf, f.nested)
		if err != nil {
			return in, err
		}

		if in.value, err = conv(lit); err != nil {
			return in, err
		}

	case rule.KindFunction:
		if r.Transform == nil || r.Transform.Fn == nil {
			return in, errNilTransform
		}

	}

	return in, nil
}

// Source returns the source type.
func (f *Func) Source() reflect.Type { return f.src }

// Dest returns the destination type.
func (f *Func) Dest() reflect.Type { return f.dst }

// Mode returns the backend the Func was built with.
func (f *Func) Mode() rule.Mode { return f.mode }

// New maps src into a freshly constructed destination value. A nil pointer
// source yields the zero destination value.
func (f *Func) New(src any) (any, error) {
	sv, ok, err := f.source(src)
	if err != nil {
		return nil, err
	}

	dv := reflect.New(f.dst).Elem()
	if !ok {
		return dv.Interface(), nil
	}

	if err := f.construct(src, dv); err != nil {
		return nil, err
	}

	if err := f.run(src, sv, dv); err != nil {
		return nil, err
	}

	return dv.Interface(), nil
}

// Into maps src into the existing destination value pointed to by dst.
// The construction strategy is not used. A nil pointer source leaves dst
// untouched.
func (f *Func) Into(src, dst any) error {
	dp := reflect.ValueOf(dst)
	if !dp.IsValid() || dp.Kind() != reflect.Pointer || dp.Type().Elem() != f.dst {
		return fmt.Errorf("%w: want *%s, got %T", ErrDestType, f.dst, dst)
	}

	if dp.IsNil() {
		return ErrNilDest
	}

	sv, ok, err := f.source(src)
	if err != nil || !ok {
		return err
	}

	dv := dp.Elem()
	if dv.Kind() == reflect.Pointer && dv.IsNil() {
		dv.Set(reflect.New(dv.Type().Elem()))
	}

	return f.run(src, sv, dv)
}

// source checks the type of src and reports false for a nil pointer.
func (f *Func) source(src any) (reflect.Value, bool, error) {
	sv := reflect.ValueOf(src)
	if !sv.IsValid() {
		if f.src.Kind() == reflect.Pointer || f.src.Kind() == reflect.Interface {
			return sv, false, nil
		}

		return sv, false, fmt.Errorf("%w: want %s, got nil", ErrSourceType, f.src)
	}

	if sv.Type() != f.src {
		return sv, false, fmt.Errorf("%w: want %s, got %s", ErrSourceType, f.src, sv.Type())
	}

	if sv.Kind() == reflect.Pointer && sv.IsNil() {
		return sv, false, nil
	}

	return sv, true, nil
}

func (f *Func) construct(src any, dv reflect.Value) error {
	if f.construction == nil {
		if dv.Kind() == reflect.Pointer {
			dv.Set(reflect.New(dv.Type().Elem()))
		}

		return nil
	}

	out, err := f.construction.Fn(src)
	if err != nil {
		return fmt.Errorf("construct %s: %w", f.dst, err)
	}

	ov := reflect.ValueOf(out)
	if !ov.IsValid() || ov.Type() != f.dst {
		return fmt.Errorf("%w: constructor returned %T, want %s", ErrDestType, out, f.dst)
	}

	dv.Set(ov)

	if dv.Kind() == reflect.Pointer && dv.IsNil() {
		dv.Set(reflect.New(dv.Type().Elem()))
	}

	return nil
}

func (f *Func) run(src any, sv, dv reflect.Value) error {
	dst := dv.Addr().Interface()

	for _, h := range f.before {
		if err := h.Fn(src, dst); err != nil {
			return fmt.Errorf("before hook %s: %w", h.Name, err)
		}
	}

	var err error
	if f.mode == rule.ModeGenerated {
		err = f.runChain(sv, dv)
	} else {
		err = f.interpret(sv, dv)
	}

	if err != nil {
		return err
	}

	for _, h := range f.after {
		if err := h.Fn(src, dst); err != nil {
			return fmt.Errorf("after hook %s: %w", h.Name, err)
		}
	}

	return nil
}

// interpret walks the program, dispatching on the kind of each instruction.
func (f *Func) interpret(sv, dv reflect.Value) error {
	for _, in := range f.program {
		switch in.kind {
		case rule.KindIgnore:
			continue

		case rule.KindMember, rule.KindComputed:
			v, ok := in.source.read(sv)
			if !ok {
				continue
			}

			out, err := in.conv(v)
			if err != nil {
				return &MemberError{Path: in.dest.path.Key(), Err: err}
			}

			in.dest.slot(dv).Set(out)

		case rule.KindValue:
			in.dest.slot(dv).Set(in.value)

		case rule.KindFunction:
			out, err := in.transform.Fn(sv.Interface())
			if err != nil {
				return &MemberError{Path: in.dest.path.Key(), Err: err}
			}

			if err := assign(in.dest.slot(dv), reflect.ValueOf(out), f.nested); err != nil {
				return &MemberError{Path: in.dest.path.Key(), Err: err}
			}
		}
	}

	return nil
}

func (f *Func) runChain(sv, dv reflect.Value) error {
	for _, step := range f.chain {
		if err := step(sv, dv); err != nil {
			return err
		}
	}

	return nil
}

// specialise builds the closure for one instruction. Ignore compiles to
// nothing.
func (f *Func) specialise(in instruction) func(src, dst reflect.Value) error {
	dest, key := in.dest, in.dest.path.Key()

	switch in.kind {
	case rule.KindMember, rule.KindComputed:
		source, conv := in.source, in.conv

		if dispatch(source.leaf, dest.leaf) == dispatchAssign {
			return func(sv, dv reflect.Value) error {
				if v, ok := source.read(sv); ok {
					dest.slot(dv).Set(v)
				}

				return nil
			}
		}

		return func(sv, dv reflect.Value) error {
			v, ok := source.read(sv)
			if !ok {
				return nil
			}

			out, err := conv(v)
			if err != nil {
				return &MemberError{Path: key, Err: err}
			}

			dest.slot(dv).Set(out)

			return nil
		}

	case rule.KindValue:
		value := in.value

		return func(_, dv reflect.Value) error {
			dest.slot(dv).Set(value)
			return nil
		}

	case rule.KindFunction:
		fn, nested := in.transform.Fn, f.nested

		return func(sv, dv reflect.Value) error {
			out, err := fn(sv.Interface())
			if err != nil {
				return &MemberError{Path: key, Err: err}
			}

			if err := assign(dest.slot(dv), reflect.ValueOf(out), nested); err != nil {
				return &MemberError{Path: key, Err: err}
			}

			return nil
		}

	default:
		return nil
	}
}

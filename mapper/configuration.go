package mapper

import (
	"member-mapper/accessor"
	"member-mapper/internal/diagnostic"
	"member-mapper/rule"
)

// Configuration is the typed face of an Engine for the pair T -> TN.
// Functions receive the source as T and hooks receive the destination as
// *TN; everything else is forwarded unchanged.
type Configuration[T, TN any] struct {
	engine *Engine
}

// NewConfiguration wraps engine. The engine's destination must describe TN.
func NewConfiguration[T, TN any](engine *Engine) *Configuration[T, TN] {
	return &Configuration[T, TN]{engine: engine}
}

// Engine returns the untyped engine.
func (c *Configuration[T, TN]) Engine() *Engine {
	return c.engine
}

// Diagnostics returns the engine's decision log.
func (c *Configuration[T, TN]) Diagnostics() *diagnostic.Diagnostics {
	return c.engine.Diagnostics()
}

// Member copies src into dest.
func (c *Configuration[T, TN]) Member(dest, src accessor.Path) error {
	return c.engine.Member(dest, src)
}

// Computed copies the nested source path src into dest unless dest already
// has an explicit rule.
func (c *Configuration[T, TN]) Computed(dest, src accessor.Path, overridable bool) error {
	return c.engine.Computed(dest, src, overridable)
}

// Function assigns fn(src) to dest.
func (c *Configuration[T, TN]) Function(dest accessor.Path, fn func(T) any) error {
	var t *rule.Transform
	if fn != nil {
		t = &rule.Transform{Fn: func(src any) (any, error) {
			return fn(src.(T)), nil
		}}
	}

	return c.engine.Function(dest, t)
}

// FunctionE is Function for transforms that can fail.
func (c *Configuration[T, TN]) FunctionE(dest accessor.Path, fn func(T) (any, error)) error {
	var t *rule.Transform
	if fn != nil {
		t = &rule.Transform{Fn: func(src any) (any, error) {
			return fn(src.(T))
		}}
	}

	return c.engine.Function(dest, t)
}

// Ignore leaves dest untouched.
func (c *Configuration[T, TN]) Ignore(dest accessor.Path) error {
	return c.engine.Ignore(dest)
}

// Value assigns literal to dest.
func (c *Configuration[T, TN]) Value(dest accessor.Path, literal any) error {
	return c.engine.Value(dest, literal)
}

// Instantiate builds destination values with fn instead of starting from
// the zero value.
func (c *Configuration[T, TN]) Instantiate(fn func(T) TN) error {
	var cons *rule.Construction
	if fn != nil {
		cons = &rule.Construction{Fn: func(src any) (any, error) {
			return fn(src.(T)), nil
		}}
	}

	return c.engine.Instantiate(cons)
}

// Before runs fn before members are assigned.
func (c *Configuration[T, TN]) Before(fn func(T, *TN)) error {
	return c.engine.Before(typedHook[T, TN]("before", fn))
}

// After runs fn after members are assigned.
func (c *Configuration[T, TN]) After(fn func(T, *TN)) error {
	return c.engine.After(typedHook[T, TN]("after", fn))
}

// CaseSensitive sets how flattening compares member names.
func (c *Configuration[T, TN]) CaseSensitive(caseSensitive bool) *Configuration[T, TN] {
	c.engine.CaseSensitive(caseSensitive)
	return c
}

// CompileTo selects the compiler backend.
func (c *Configuration[T, TN]) CompileTo(mode rule.Mode) error {
	return c.engine.CompileTo(mode)
}

// Base is not supported.
func (c *Configuration[T, TN]) Base() error {
	return c.engine.Base()
}

func typedHook[T, TN any](name string, fn func(T, *TN)) rule.Hook {
	h := rule.Hook{Name: name}
	if fn != nil {
		h.Fn = func(src, dst any) error {
			fn(src.(T), dst.(*TN))
			return nil
		}
	}

	return h
}

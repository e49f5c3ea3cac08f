package mapper

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"member-mapper/compile"
	"member-mapper/internal/diagnostic"
	"member-mapper/internal/flatten"
	"member-mapper/rule"
	"member-mapper/schema"
)

type pairKey struct {
	src, dst reflect.Type
}

// pair is everything the registry holds for one T -> TN registration.
type pair struct {
	key    pairKey
	source *schema.Type
	dest   *schema.Type
	engine *Engine
	config any

	newMapper  *TypeMapper
	intoMapper *TypeMapper

	mu     sync.Mutex
	dirty  atomic.Bool
	newFn  atomic.Pointer[compile.Func]
	intoFn atomic.Pointer[compile.Func]
}

func (p *pair) name() string {
	return p.newMapper.TypePair()
}

// Registry owns the type mapper sets of every registered pair and compiles
// them on demand.
//
// Configuration (Register and the Configuration calls) is a setup phase and
// must not run concurrently with anything else. Map and MapInto are safe for
// concurrent use once configuration is done.
type Registry struct {
	mu    sync.RWMutex
	pairs map[pairKey]*pair
	types *schema.Cache

	logger        *slog.Logger
	mode          rule.Mode
	caseSensitive bool
	strict        bool
	flatten       bool
	maxDepth      int
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger for the registry and its engines.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithDefaultMode sets the compiler backend of newly registered pairs.
func WithDefaultMode(mode rule.Mode) Option {
	return func(r *Registry) {
		r.mode = mode
	}
}

// WithCaseSensitive sets the flattening name comparison of newly
// registered pairs.
func WithCaseSensitive(caseSensitive bool) Option {
	return func(r *Registry) {
		r.caseSensitive = caseSensitive
	}
}

// WithStrict makes compilation fail when a writable destination member has
// no rule after flattening.
func WithStrict(strict bool) Option {
	return func(r *Registry) {
		r.strict = strict
	}
}

// WithFlatten enables or disables automatic flattening. It is on by default.
func WithFlatten(enabled bool) Option {
	return func(r *Registry) {
		r.flatten = enabled
	}
}

// WithFlattenDepth bounds how deep flattening searches source members.
func WithFlattenDepth(depth int) Option {
	return func(r *Registry) {
		r.maxDepth = depth
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		pairs:    make(map[pairKey]*pair),
		types:    schema.NewCache(),
		logger:   slog.New(slog.DiscardHandler),
		flatten:  true,
		maxDepth: flatten.DefaultMaxDepth,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register returns the configuration of T -> TN, creating its type mapper
// set on first use. The set holds one mapper producing fresh TN values and
// one populating existing ones; every configuration call reaches both.
func Register[T, TN any](reg *Registry) (*Configuration[T, TN], error) {
	key := pairKey{src: reflect.TypeFor[T](), dst: reflect.TypeFor[TN]()}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if p, ok := reg.pairs[key]; ok {
		return p.config.(*Configuration[T, TN]), nil
	}

	p := &pair{
		key:    key,
		source: reg.types.Of(key.src),
		dest:   reg.types.Of(key.dst),
	}

	p.newMapper = NewTypeMapper(p.source, p.dest, DirectionNew)
	p.intoMapper = NewTypeMapper(p.source, p.dest, DirectionInto)

	for _, m := range []*TypeMapper{p.newMapper, p.intoMapper} {
		m.SetMode(reg.mode)
		m.SetCaseSensitive(reg.caseSensitive)
	}

	engine, err := NewEngine(p.dest, []Target{p.newMapper, p.intoMapper},
		WithEngineLogger(reg.logger),
		WithTypePair(p.name()),
		WithChangeHook(func() { p.dirty.Store(true) }),
	)
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", p.name(), err)
	}

	config := NewConfiguration[T, TN](engine)
	p.engine = engine
	p.config = config
	p.dirty.Store(true)
	reg.pairs[key] = p

	reg.logger.Debug("registered type pair",
		slog.String("type_pair", p.name()),
		slog.String("mode", reg.mode.String()))

	return config, nil
}

// Map maps src into a new TN using the registered configuration, compiling
// it on first use.
func Map[T, TN any](reg *Registry, src T) (TN, error) {
	var zero TN

	p, err := reg.lookup(reflect.TypeFor[T](), reflect.TypeFor[TN]())
	if err != nil {
		return zero, err
	}

	fn, err := reg.compiled(p, DirectionNew)
	if err != nil {
		return zero, err
	}

	out, err := fn.New(src)
	if err != nil {
		return zero, fmt.Errorf("map %s: %w", p.name(), err)
	}

	v, _ := out.(TN)

	return v, nil
}

// MapInto maps src into the existing value dst.
func MapInto[T, TN any](reg *Registry, src T, dst *TN) error {
	p, err := reg.lookup(reflect.TypeFor[T](), reflect.TypeFor[TN]())
	if err != nil {
		return err
	}

	fn, err := reg.compiled(p, DirectionInto)
	if err != nil {
		return err
	}

	if err := fn.Into(src, dst); err != nil {
		return fmt.Errorf("map %s into: %w", p.name(), err)
	}

	return nil
}

// Mappers returns the type mapper set of T -> TN in registration order.
func Mappers[T, TN any](reg *Registry) ([]*TypeMapper, error) {
	p, err := reg.lookup(reflect.TypeFor[T](), reflect.TypeFor[TN]())
	if err != nil {
		return nil, err
	}

	return []*TypeMapper{p.newMapper, p.intoMapper}, nil
}

// Compile flattens and compiles every registered pair now instead of on
// first use. It reports every failing pair.
func (r *Registry) Compile() error {
	var errs []error

	for _, p := range r.snapshot() {
		p.mu.Lock()
		err := r.build(p)
		p.mu.Unlock()

		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Len returns the number of registered pairs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.pairs)
}

// Diagnostics merges the decision logs of every registered pair.
func (r *Registry) Diagnostics() diagnostic.Diagnostics {
	var out diagnostic.Diagnostics

	for _, p := range r.snapshot() {
		out.Merge(*p.engine.Diagnostics())
	}

	return out
}

func (r *Registry) snapshot() []*pair {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*pair, 0, len(r.pairs))
	for _, p := range r.pairs {
		out = append(out, p)
	}

	slices.SortFunc(out, func(a, b *pair) int {
		return strings.Compare(a.name(), b.name())
	})

	return out
}

func (r *Registry) lookup(src, dst reflect.Type) (*pair, error) {
	r.mu.RLock()
	p, ok := r.pairs[pairKey{src: src, dst: dst}]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s->%s", ErrNotRegistered, src, dst)
	}

	return p, nil
}

// compiled returns the compiled function of p for dir, rebuilding it when
// configuration changed since the last build.
func (r *Registry) compiled(p *pair, dir Direction) (*compile.Func, error) {
	slot := &p.newFn
	if dir == DirectionInto {
		slot = &p.intoFn
	}

	if !p.dirty.Load() {
		if fn := slot.Load(); fn != nil {
			return fn, nil
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.dirty.Load() || slot.Load() == nil {
		if err := r.build(p); err != nil {
			return nil, err
		}
	}

	return slot.Load(), nil
}

// build runs flattening and compiles both mappers of p. The caller holds
// p.mu.
func (r *Registry) build(p *pair) error {
	if r.flatten {
		r.applyFlattening(p)
	}

	if err := r.checkUnmapped(p); err != nil {
		return err
	}

	opts := compile.Options{Nested: r.nested}

	newFn, err := compile.Build(p.newMapper.Plan(), p.key.src, p.key.dst, opts)
	if err != nil {
		return fmt.Errorf("compile %s: %w", p.name(), err)
	}

	intoFn, err := compile.Build(p.intoMapper.Plan(), p.key.src, p.key.dst, opts)
	if err != nil {
		return fmt.Errorf("compile %s into: %w", p.name(), err)
	}

	p.newFn.Store(newFn)
	p.intoFn.Store(intoFn)
	p.dirty.Store(false)

	r.logger.Debug("compiled type pair",
		slog.String("type_pair", p.name()),
		slog.String("mode", p.newMapper.Mode().String()),
		slog.Int("rules", len(p.newMapper.Rules())))

	return nil
}

// applyFlattening installs an overridable computed rule for every
// flattening candidate. Explicit rules already present are kept by the
// engine's precedence rules.
func (r *Registry) applyFlattening(p *pair) {
	candidates := flatten.Candidates(p.source, p.dest, flatten.Options{
		CaseSensitive: p.newMapper.CaseSensitive(),
		MaxDepth:      r.maxDepth,
		HasRule:       p.newMapper.Covers,
		Compatible: func(src, dst *schema.Type) bool {
			if src.RType == nil || dst.RType == nil {
				return false
			}

			return compile.Compatible(src.RType, dst.RType, r.nested)
		},
	})

	for _, c := range candidates {
		if err := p.engine.Computed(c.Dest, c.Source, true); err != nil {
			r.logger.Warn("flattening candidate rejected",
				slog.String("type_pair", p.name()),
				slog.String("path", c.Dest.Key()),
				slog.Any("error", err))
		}
	}
}

// checkUnmapped reports writable top-level destination members without a
// rule at or below them. It is an error only in strict mode.
func (r *Registry) checkUnmapped(p *pair) error {
	dest := p.dest.Deref()
	if dest == nil || dest.Kind != schema.KindStruct {
		return nil
	}

	covered := make(map[string]bool)
	for _, ru := range p.newMapper.Rules() {
		covered[ru.Dest.Root()] = true
	}

	var missing []string

	for i := range dest.Fields {
		f := &dest.Fields[i]
		if f.Writable() && !covered[f.Name] {
			missing = append(missing, f.Name)
		}
	}

	if len(missing) == 0 {
		return nil
	}

	if !r.strict {
		r.logger.Debug("unmapped destination members",
			slog.String("type_pair", p.name()),
			slog.Any("members", missing))

		return nil
	}

	for _, name := range missing {
		p.engine.Diagnostics().AddWarning(diagnostic.CodeUnmapped, "no rule for writable member", p.name(), name)
	}

	return fmt.Errorf("%w: %s: %s", ErrUnmapped, p.name(), strings.Join(missing, ", "))
}

// nested resolves struct members through other registered pairs. The
// returned function compiles the pair lazily so self-referencing types do
// not recurse at build time.
func (r *Registry) nested(src, dst reflect.Type) (compile.NestedFunc, bool) {
	p, err := r.lookup(src, dst)
	if err != nil {
		return nil, false
	}

	return func(v any) (any, error) {
		fn, err := r.compiled(p, DirectionNew)
		if err != nil {
			return nil, err
		}

		return fn.New(v)
	}, true
}

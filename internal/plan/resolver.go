package plan

import (
	"errors"
	"fmt"
	"log/slog"

	"member-mapper/internal/diagnostic"
	"member-mapper/internal/flatten"
	"member-mapper/internal/rulefile"
	"member-mapper/mapper"
	"member-mapper/rule"
	"member-mapper/schema"
)

// CodeIncompatible reports a member rule without a conversion strategy.
const CodeIncompatible = "incompatible_member"

// ErrResolution is returned when resolution reports errors.
var ErrResolution = errors.New("resolution failed")

// ResolutionConfig holds configuration for the resolution process.
type ResolutionConfig struct {
	// StrictMode fails on writable target members without a rule.
	StrictMode bool
	// MaxFlattenDepth bounds nested source paths considered by flattening.
	MaxFlattenDepth int
	// Funcs binds transform names for callers that run the rules. Code
	// generation does not need them.
	Funcs rulefile.Funcs
	// Logger receives configuration decisions; nil discards them.
	Logger *slog.Logger
}

// DefaultConfig returns the default resolution configuration.
func DefaultConfig() ResolutionConfig {
	return ResolutionConfig{
		MaxFlattenDepth: flatten.DefaultMaxDepth,
	}
}

// Resolver performs the resolution pipeline.
type Resolver struct {
	types  rulefile.TypeResolver
	file   *rulefile.File
	config ResolutionConfig
	logger *slog.Logger
}

// NewResolver creates a new Resolver.
func NewResolver(types rulefile.TypeResolver, file *rulefile.File, config ResolutionConfig) *Resolver {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Resolver{
		types:  types,
		file:   file,
		config: config,
		logger: logger,
	}
}

// Resolve runs the full resolution pipeline. The returned plan is usable
// for reporting even when an error is returned.
func (r *Resolver) Resolve() (*Plan, error) {
	if r.file == nil {
		return nil, errors.New("rule file is required")
	}

	plan := &Plan{File: r.file}
	plan.Diagnostics.Merge(*rulefile.Validate(r.file, r.types))

	transforms := rulefile.Bind(r.file, r.config.Funcs)

	// Create every pair before flattening so nested struct members can
	// see all declared pairs.
	for i := range r.file.Mappings {
		m := &r.file.Mappings[i]
		if plan.pairNamed(m.TypePair()) != nil {
			continue
		}

		pair, err := r.resolvePair(m, transforms)
		if err != nil {
			// Validate has already reported the missing type.
			r.logger.Debug("mapping skipped", slog.String("type_pair", m.TypePair()), slog.Any("error", err))
			continue
		}

		plan.Pairs = append(plan.Pairs, pair)
	}

	for _, pair := range plan.Pairs {
		if pair.Mapping.FlattenEnabled() {
			r.applyFlattening(plan, pair)
		}

		r.checkUnmapped(plan, pair)
		r.checkStrategies(plan, pair)

		// Rejections duplicate what Validate reported; keep the decisions.
		decisions := pair.Engine.Diagnostics()
		plan.Diagnostics.Warnings = append(plan.Diagnostics.Warnings, decisions.Warnings...)
		plan.Diagnostics.Infos = append(plan.Diagnostics.Infos, decisions.Infos...)
	}

	if plan.Diagnostics.HasErrors() {
		return plan, fmt.Errorf("%w: %d error(s): %w", ErrResolution, len(plan.Diagnostics.Errors), plan.Diagnostics.Error())
	}

	return plan, nil
}

func (p *Plan) pairNamed(name string) *Pair {
	for _, pair := range p.Pairs {
		if pair.Name() == name {
			return pair
		}
	}

	return nil
}

// resolvePair creates the type mapper of m and applies its rules. Rule
// rejections are recorded by the engine; only missing types fail.
func (r *Resolver) resolvePair(m *rulefile.Mapping, transforms map[string]*rule.Transform) (*Pair, error) {
	src, err := r.types.Resolve(m.Source)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}

	dst, err := r.types.Resolve(m.Target)
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}

	tm := mapper.NewTypeMapper(src, dst, mapper.DirectionNew)

	engine, err := mapper.NewEngine(dst, []mapper.Target{tm},
		mapper.WithEngineLogger(r.logger),
		mapper.WithTypePair(m.TypePair()))
	if err != nil {
		return nil, err
	}

	if err := rulefile.Apply(m, engine, transforms); err != nil {
		r.logger.Debug("rules rejected", slog.String("type_pair", m.TypePair()), slog.Any("error", err))
	}

	return &Pair{Mapping: m, Source: src, Target: dst, Mapper: tm, Engine: engine}, nil
}

// applyFlattening installs an overridable computed rule for every
// candidate with a conversion strategy.
func (r *Resolver) applyFlattening(plan *Plan, pair *Pair) {
	candidates := flatten.Candidates(pair.Source, pair.Target, flatten.Options{
		CaseSensitive: pair.Mapper.CaseSensitive(),
		MaxDepth:      r.config.MaxFlattenDepth,
		HasRule:       pair.Mapper.Covers,
		Compatible: func(src, dst *schema.Type) bool {
			return plan.Strategy(src, dst) != StrategyUnsupported
		},
	})

	for _, c := range candidates {
		if err := pair.Engine.Computed(c.Dest, c.Source, true); err != nil {
			r.logger.Warn("flattening candidate rejected",
				slog.String("type_pair", pair.Name()),
				slog.String("path", c.Dest.Key()),
				slog.Any("error", err))
		}
	}
}

// checkUnmapped records writable top-level target members without a rule.
func (r *Resolver) checkUnmapped(plan *Plan, pair *Pair) {
	dst := pair.Target.Deref()
	if dst == nil || dst.Kind != schema.KindStruct {
		return
	}

	covered := make(map[string]bool)
	for _, ru := range pair.Mapper.Rules() {
		covered[ru.Dest.Root()] = true
	}

	for i := range dst.Fields {
		f := &dst.Fields[i]
		if !f.Writable() || covered[f.Name] {
			continue
		}

		pair.Unmapped = append(pair.Unmapped, f.Name)

		if r.config.StrictMode {
			plan.Diagnostics.AddError(diagnostic.CodeUnmapped, "no rule for writable member", pair.Name(), f.Name)
		} else {
			plan.Diagnostics.AddWarning(diagnostic.CodeUnmapped, "no rule for writable member", pair.Name(), f.Name)
		}
	}
}

// checkStrategies reports member rules whose source cannot be converted
// into the destination member.
func (r *Resolver) checkStrategies(plan *Plan, pair *Pair) {
	for _, ru := range pair.Mapper.Rules() {
		if ru.Kind != rule.KindMember && ru.Kind != rule.KindComputed {
			continue
		}

		src, dst, err := MemberTypes(pair, ru)
		if err != nil {
			plan.Diagnostics.AddError(diagnostic.CodeInvalidAccessor, err.Error(), pair.Name(), ru.Dest.Key())
			continue
		}

		if s := plan.Strategy(src, dst); s == StrategyUnsupported {
			plan.Diagnostics.AddError(CodeIncompatible,
				fmt.Sprintf("cannot convert %s (%s) to %s", ru.Source, src, dst), pair.Name(), ru.Dest.Key())
		}
	}
}

// MemberTypes returns the types of the source and destination members of
// a member or computed rule.
func MemberTypes(pair *Pair, ru rule.Rule) (src, dst *schema.Type, err error) {
	sr, err := schema.Resolve(pair.Source, ru.Source)
	if err != nil {
		return nil, nil, fmt.Errorf("source %s: %w", ru.Source, err)
	}

	if !sr.Readable {
		return nil, nil, fmt.Errorf("source %s is not exported", ru.Source)
	}

	dr, err := schema.Resolve(pair.Target, ru.Dest)
	if err != nil {
		return nil, nil, fmt.Errorf("destination %s: %w", ru.Dest, err)
	}

	return sr.Leaf().Type, dr.Leaf().Type, nil
}

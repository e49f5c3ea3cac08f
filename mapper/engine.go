package mapper

import (
	"fmt"
	"log/slog"

	"member-mapper/accessor"
	"member-mapper/internal/diagnostic"
	"member-mapper/internal/match"
	"member-mapper/rule"
	"member-mapper/schema"
)

// maxSuggestions bounds "did you mean" lists.
const maxSuggestions = 3

// Stats counts what configuration calls did. Installed, Replaced and Kept
// count per target; Degraded and Rejected count per call.
type Stats struct {
	Installed int // rules installed at a new path
	Replaced  int // rules that replaced an existing rule
	Kept      int // computed rules dropped because an explicit rule exists
	Degraded  int // calls turned into ignore for read-only members
	Rejected  int // calls that failed validation
}

// Engine validates declarative rules, resolves precedence against the
// rules already installed, and applies the outcome to every type mapper of
// its set.
//
// Validation happens before any mutation: a call that returns an error has
// changed nothing. Engine is meant for single-threaded setup code and is
// not safe for concurrent use.
type Engine struct {
	dest     *schema.Type
	targets  []Target
	typePair string
	logger   *slog.Logger
	diags    diagnostic.Diagnostics
	stats    Stats
	onChange func()
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEngineLogger sets the logger used for configuration decisions.
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTypePair sets the name used in diagnostics, e.g. "A->B".
func WithTypePair(name string) EngineOption {
	return func(e *Engine) {
		e.typePair = name
	}
}

// WithChangeHook registers fn to run after every call that changes a target.
func WithChangeHook(fn func()) EngineOption {
	return func(e *Engine) {
		e.onChange = fn
	}
}

// NewEngine creates an engine configuring targets, whose destination type
// is dest.
func NewEngine(dest *schema.Type, targets []Target, opts ...EngineOption) (*Engine, error) {
	if len(targets) == 0 {
		return nil, ErrEmptySet
	}

	if dest == nil {
		return nil, fmt.Errorf("%w: nil destination type", ErrInvalidAccessor)
	}

	e := &Engine{
		dest:     dest,
		targets:  append([]Target(nil), targets...),
		typePair: dest.String(),
		logger:   slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Targets returns the type mapper set.
func (e *Engine) Targets() []Target {
	return append([]Target(nil), e.targets...)
}

// Dest returns the destination type.
func (e *Engine) Dest() *schema.Type {
	return e.dest
}

// Diagnostics returns the decisions recorded so far.
func (e *Engine) Diagnostics() *diagnostic.Diagnostics {
	return &e.diags
}

// Stats returns counters of configuration outcomes.
func (e *Engine) Stats() Stats {
	return e.stats
}

// Member copies the source member src into dest. A read-only destination
// degrades to Ignore.
func (e *Engine) Member(dest, src accessor.Path) error {
	writable, err := e.check(dest)
	if err != nil {
		return err
	}

	if !writable {
		e.degrade(dest, rule.KindMember)
		return nil
	}

	e.apply(rule.Member(dest, src))

	return nil
}

// Computed copies the nested source path src into dest. If dest already
// carries an explicit rule the call is a no-op. A read-only destination is
// ignored on every target.
func (e *Engine) Computed(dest, src accessor.Path, overridable bool) error {
	writable, err := e.check(dest)
	if err != nil {
		return err
	}

	if !writable {
		e.degrade(dest, rule.KindComputed)
		return nil
	}

	e.apply(rule.Computed(dest, src, overridable))

	return nil
}

// Function assigns the result of t to dest. A read-only destination
// degrades to Ignore.
func (e *Engine) Function(dest accessor.Path, t *rule.Transform) error {
	writable, err := e.check(dest)
	if err != nil {
		return err
	}

	if t == nil || t.Fn == nil {
		e.stats.Rejected++
		return fmt.Errorf("%w: transform for %q", ErrNilFunction, dest)
	}

	if !writable {
		e.degrade(dest, rule.KindFunction)
		return nil
	}

	e.apply(rule.Function(dest, t))

	return nil
}

// Ignore leaves dest untouched, replacing whatever rule was there.
func (e *Engine) Ignore(dest accessor.Path) error {
	if _, err := e.check(dest); err != nil {
		return err
	}

	e.apply(rule.Ignore(dest))

	return nil
}

// Value assigns literal to dest. It follows Member's preconditions: a
// read-only destination degrades to Ignore.
func (e *Engine) Value(dest accessor.Path, literal any) error {
	writable, err := e.check(dest)
	if err != nil {
		return err
	}

	if !writable {
		e.degrade(dest, rule.KindValue)
		return nil
	}

	e.apply(rule.Value(dest, literal))

	return nil
}

// Instantiate records how destination values are created. The last call
// wins; nil restores zero-value construction.
func (e *Engine) Instantiate(c *rule.Construction) error {
	if c != nil && c.Fn == nil {
		e.stats.Rejected++
		return fmt.Errorf("%w: constructor", ErrNilFunction)
	}

	for _, t := range e.targets {
		t.SetConstruction(c)
	}

	e.changed()

	return nil
}

// Before appends a hook run before members are assigned.
func (e *Engine) Before(h rule.Hook) error {
	return e.addHook(rule.StageBefore, h)
}

// After appends a hook run after members are assigned.
func (e *Engine) After(h rule.Hook) error {
	return e.addHook(rule.StageAfter, h)
}

func (e *Engine) addHook(stage rule.Stage, h rule.Hook) error {
	if h.Fn == nil {
		e.stats.Rejected++
		return fmt.Errorf("%w: %s hook", ErrNilFunction, stage)
	}

	for _, t := range e.targets {
		t.AddHook(stage, h)
	}

	e.changed()

	return nil
}

// CaseSensitive sets how flattening compares member names.
func (e *Engine) CaseSensitive(caseSensitive bool) {
	for _, t := range e.targets {
		t.SetCaseSensitive(caseSensitive)
	}

	e.changed()
}

// CompileTo selects the compiler backend.
func (e *Engine) CompileTo(mode rule.Mode) error {
	if mode != rule.ModeDelegate && mode != rule.ModeGenerated {
		e.stats.Rejected++
		return fmt.Errorf("%w: %d", ErrUnknownMode, mode)
	}

	for _, t := range e.targets {
		t.SetMode(mode)
	}

	e.changed()

	return nil
}

// Base would chain the configuration of a base type pair. It is not
// supported.
func (e *Engine) Base() error {
	return fmt.Errorf("%w: base type configuration", ErrUnsupportedConfiguration)
}

// check validates dest and reports whether it is writable.
func (e *Engine) check(dest accessor.Path) (bool, error) {
	if dest.IsZero() {
		return false, e.reject(&AccessorError{Path: "", Reason: "is nil", Err: accessor.ErrEmptyPath})
	}

	if !dest.Valid() {
		return false, e.reject(&AccessorError{Path: dest.Key(), Reason: "is not a member accessor"})
	}

	res, err := schema.Resolve(e.dest, dest)
	if err != nil {
		return false, e.reject(&AccessorError{
			Path:        dest.Key(),
			Reason:      "does not name a member of " + e.dest.String(),
			Suggestions: e.suggest(dest),
			Err:         err,
		})
	}

	return res.Writable, nil
}

func (e *Engine) reject(err *AccessorError) error {
	e.stats.Rejected++
	e.diags.AddError(diagnostic.CodeInvalidAccessor, err.Reason, e.typePair, err.Path, err.Suggestions...)
	e.logger.Debug("rejected rule",
		slog.String("type_pair", e.typePair),
		slog.String("path", err.Path),
		slog.String("reason", err.Reason))

	return err
}

// suggest proposes member names for the first unresolvable segment.
func (e *Engine) suggest(dest accessor.Path) []string {
	current := e.dest

	for _, seg := range dest.Segments() {
		current = current.Deref()
		if current == nil || current.Kind != schema.KindStruct {
			return nil
		}

		f := current.Field(seg)
		if f == nil {
			return match.Suggest(seg, current.FieldNames(), maxSuggestions)
		}

		current = f.Type
	}

	return nil
}

// degrade installs an unconditional Ignore for a read-only destination.
func (e *Engine) degrade(dest accessor.Path, kind rule.Kind) {
	e.stats.Degraded++
	e.diags.AddInfo(diagnostic.CodeDegradedToIgnore,
		fmt.Sprintf("%s rule targets a read-only member; ignoring it", kind),
		e.typePair, dest.Key())
	e.logger.Debug("degraded rule to ignore",
		slog.String("type_pair", e.typePair),
		slog.String("path", dest.Key()),
		slog.String("kind", kind.String()))

	e.apply(rule.Ignore(dest))
}

// apply resolves r against every target first, then commits, so the set
// sees the call as one unit.
func (e *Engine) apply(r rule.Rule) {
	outcomes := make([]outcome, len(e.targets))
	for i, t := range e.targets {
		existing, ok := t.Rule(r.Dest)
		outcomes[i] = decide(existing, ok, r)
	}

	changed := false

	for i, t := range e.targets {
		existing, _ := t.Rule(r.Dest)

		switch outcomes[i] {
		case outcomeKeep:
			e.stats.Kept++
			e.note(i, diagnostic.CodeKeptExplicit,
				fmt.Sprintf("kept %q over %q", existing.String(), r.String()), r.Key())
			e.logger.Debug("kept explicit rule",
				slog.String("type_pair", e.typePair),
				slog.String("path", r.Key()))
		case outcomeReplace:
			e.stats.Replaced++
			if !existing.Explicit() {
				e.note(i, diagnostic.CodeReplaced,
					fmt.Sprintf("%q replaced %q", r.String(), existing.String()), r.Key())
			}

			t.SetRule(r)

			changed = true
		case outcomeInstall:
			e.stats.Installed++
			t.SetRule(r)

			changed = true
		}
	}

	if changed {
		e.changed()
	}
}

// note records one diagnostic per call, not one per target.
func (e *Engine) note(target int, code, msg, path string) {
	if target == 0 {
		e.diags.AddInfo(code, msg, e.typePair, path)
	}
}

func (e *Engine) changed() {
	if e.onChange != nil {
		e.onChange()
	}
}

package mapper

import (
	"strings"

	"github.com/google/uuid"

	"member-mapper/accessor"
	"member-mapper/internal/common"
	"member-mapper/rule"
	"member-mapper/schema"
)

// Direction says what a compiled type mapper produces.
type Direction int

const (
	// DirectionNew produces a fresh destination value.
	DirectionNew Direction = iota
	// DirectionInto populates an existing destination value.
	DirectionInto
)

// String returns a human-readable direction name.
func (d Direction) String() string {
	switch d {
	case DirectionNew:
		return "new"
	case DirectionInto:
		return "into"
	default:
		return common.UnknownStr
	}
}

// Target is the capability the configuration engine drives. Every member
// of a type mapper set implements it; the engine never reaches past it.
type Target interface {
	// Rule returns the active rule for dest.
	Rule(dest accessor.Path) (rule.Rule, bool)
	// SetRule installs r, replacing any rule for r.Dest.
	SetRule(r rule.Rule)
	// SetConstruction records how destination values are created.
	SetConstruction(c *rule.Construction)
	// AddHook appends h to the hooks of stage.
	AddHook(stage rule.Stage, h rule.Hook)
	// SetMode selects the compiler backend.
	SetMode(m rule.Mode)
	// SetCaseSensitive selects how flattening compares member names.
	SetCaseSensitive(caseSensitive bool)
}

// TypeMapper owns the resolved rules and compilation settings of one type
// pair in one direction. It is mutated only through an Engine.
type TypeMapper struct {
	id            uuid.UUID
	source        *schema.Type
	dest          *schema.Type
	direction     Direction
	store         *rule.Store
	mode          rule.Mode
	caseSensitive bool
	construction  *rule.Construction
	before        []rule.Hook
	after         []rule.Hook
}

var _ Target = (*TypeMapper)(nil)

// NewTypeMapper creates an empty type mapper for source -> dest.
func NewTypeMapper(source, dest *schema.Type, direction Direction) *TypeMapper {
	return &TypeMapper{
		id:        uuid.New(),
		source:    source,
		dest:      dest,
		direction: direction,
		store:     rule.NewStore(),
	}
}

// ID uniquely identifies this type mapper.
func (m *TypeMapper) ID() uuid.UUID { return m.id }

// Source returns the source type.
func (m *TypeMapper) Source() *schema.Type { return m.source }

// Dest returns the destination type.
func (m *TypeMapper) Dest() *schema.Type { return m.dest }

// Direction returns what this type mapper produces.
func (m *TypeMapper) Direction() Direction { return m.direction }

// Mode returns the selected compiler backend.
func (m *TypeMapper) Mode() rule.Mode { return m.mode }

// CaseSensitive reports the flattening name comparison mode.
func (m *TypeMapper) CaseSensitive() bool { return m.caseSensitive }

// TypePair names the pair, e.g. "store.Order->dto.Order".
func (m *TypeMapper) TypePair() string {
	return m.source.String() + "->" + m.dest.String()
}

// Rule returns the active rule for dest.
func (m *TypeMapper) Rule(dest accessor.Path) (rule.Rule, bool) {
	return m.store.Get(dest)
}

// Covers reports whether a rule exists at dest or at a member below it.
func (m *TypeMapper) Covers(dest accessor.Path) bool {
	key := dest.Key()
	for _, r := range m.store.Rules() {
		if k := r.Key(); k == key || strings.HasPrefix(k, key+".") {
			return true
		}
	}

	return false
}

// Rules returns the active rules in install order.
func (m *TypeMapper) Rules() []rule.Rule {
	return m.store.Rules()
}

// SetRule installs r.
func (m *TypeMapper) SetRule(r rule.Rule) {
	m.store.Set(r)
}

// SetConstruction records the construction strategy; nil clears it.
func (m *TypeMapper) SetConstruction(c *rule.Construction) {
	m.construction = c
}

// AddHook appends h to the hooks of stage.
func (m *TypeMapper) AddHook(stage rule.Stage, h rule.Hook) {
	switch stage {
	case rule.StageBefore:
		m.before = append(m.before, h)
	case rule.StageAfter:
		m.after = append(m.after, h)
	}
}

// SetMode selects the compiler backend.
func (m *TypeMapper) SetMode(mode rule.Mode) {
	m.mode = mode
}

// SetCaseSensitive selects the flattening name comparison mode.
func (m *TypeMapper) SetCaseSensitive(caseSensitive bool) {
	m.caseSensitive = caseSensitive
}

// Plan returns a snapshot of everything a compiler consumes.
func (m *TypeMapper) Plan() rule.Plan {
	return rule.Plan{
		Rules:         m.store.Rules(),
		Mode:          m.mode,
		CaseSensitive: m.caseSensitive,
		Construction:  m.construction,
		Before:        append([]rule.Hook(nil), m.before...),
		After:         append([]rule.Hook(nil), m.after...),
	}
}

package plan

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"member-mapper/accessor"
	"member-mapper/internal/analyze"
	"member-mapper/internal/diagnostic"
	"member-mapper/internal/rulefile"
	"member-mapper/rule"
	"member-mapper/schema"
)

type location struct {
	City string
	Zip  string
}

type person struct {
	ID     int64
	Name   string
	Home   *location
	Tags   []string
	secret string
}

type user struct {
	ID       uint64
	Name     string
	HomeCity string
	Labels   []string
	Nickname string
	Version  int `mapper:"readonly"`
}

type place struct {
	City string
}

type profile struct {
	Name string
	Home *place
}

func testGraph() *analyze.Graph {
	graph := analyze.NewGraph()
	cache := schema.NewCache()

	for _, rt := range []reflect.Type{
		reflect.TypeFor[location](),
		reflect.TypeFor[person](),
		reflect.TypeFor[user](),
		reflect.TypeFor[place](),
		reflect.TypeFor[profile](),
	} {
		t := cache.Of(rt)
		graph.Types[t.ID] = t
	}

	return graph
}

func resolve(t *testing.T, f *rulefile.File, config ResolutionConfig) (*Plan, error) {
	t.Helper()

	if f.Version == "" {
		f.Version = rulefile.Version
	}

	return NewResolver(testGraph(), f, config).Resolve()
}

func TestResolver_Resolve(t *testing.T) {
	p, err := resolve(t, &rulefile.File{
		Mappings: []rulefile.Mapping{{
			Source:  "plan.person",
			Target:  "plan.user",
			Members: map[string]string{"Labels": "Tags"},
		}},
	}, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, p.Pairs, 1)

	pair := p.Pairs[0]
	assert.Equal(t, "plan.person->plan.user", pair.Name())

	labels, ok := pair.Mapper.Rule(accessor.New("Labels"))
	require.True(t, ok)
	assert.Equal(t, rule.KindMember, labels.Kind)

	city, ok := pair.Mapper.Rule(accessor.New("HomeCity"))
	require.True(t, ok)
	assert.Equal(t, rule.KindComputed, city.Kind)
	assert.True(t, city.Overridable)
	assert.Equal(t, "Home.City", city.Source.Key())

	_, ok = pair.Mapper.Rule(accessor.New("ID"))
	assert.True(t, ok)

	assert.Equal(t, []string{"Nickname"}, pair.Unmapped)
	assert.Len(t, p.Diagnostics.WithCode(diagnostic.CodeUnmapped), 1)
	assert.False(t, p.Diagnostics.HasErrors())
}

func TestResolver_StrictMode(t *testing.T) {
	config := DefaultConfig()
	config.StrictMode = true

	p, err := resolve(t, &rulefile.File{
		Mappings: []rulefile.Mapping{{Source: "plan.person", Target: "plan.user"}},
	}, config)
	require.ErrorIs(t, err, ErrResolution)
	require.NotNil(t, p)

	unmapped := p.Diagnostics.WithCode(diagnostic.CodeUnmapped)
	require.Len(t, unmapped, 2)
	assert.Equal(t, diagnostic.SeverityError, unmapped[0].Severity)
}

func TestResolver_Incompatible(t *testing.T) {
	p, err := resolve(t, &rulefile.File{
		Mappings: []rulefile.Mapping{{
			Source:  "plan.person",
			Target:  "plan.user",
			Members: map[string]string{"Nickname": "ID"},
		}},
	}, DefaultConfig())
	require.ErrorIs(t, err, ErrResolution)

	incompatible := p.Diagnostics.WithCode(CodeIncompatible)
	require.Len(t, incompatible, 1)
	assert.Equal(t, "Nickname", incompatible[0].Path)
}

func TestResolver_NestedPairs(t *testing.T) {
	p, err := resolve(t, &rulefile.File{
		Mappings: []rulefile.Mapping{
			{Source: "plan.person", Target: "plan.profile"},
			{Source: "plan.location", Target: "plan.place"},
		},
	}, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, p.Pairs, 2)

	home, ok := p.Pairs[0].Mapper.Rule(accessor.New("Home"))
	require.True(t, ok)

	src, dst, err := MemberTypes(p.Pairs[0], home)
	require.NoError(t, err)
	assert.Equal(t, StrategyPointer, p.Strategy(src, dst))
	assert.Same(t, p.Pairs[1], p.Pair(src.Elem, dst.Elem))
}

func TestResolver_NestedRuleBlocksFlattening(t *testing.T) {
	p, err := resolve(t, &rulefile.File{
		Mappings: []rulefile.Mapping{
			{
				Source:  "plan.person",
				Target:  "plan.profile",
				Members: map[string]string{"Home.City": "Name"},
			},
			{Source: "plan.location", Target: "plan.place"},
		},
	}, DefaultConfig())
	require.NoError(t, err)

	pair := p.Pairs[0]

	_, ok := pair.Mapper.Rule(accessor.New("Home"))
	assert.False(t, ok)

	city, ok := pair.Mapper.Rule(accessor.New("Home", "City"))
	require.True(t, ok)
	assert.Equal(t, rule.KindMember, city.Kind)
	assert.Equal(t, "Name", city.Source.Key())

	_, ok = pair.Mapper.Rule(accessor.New("Name"))
	assert.True(t, ok)
	assert.Empty(t, pair.Unmapped)
}

func TestResolver_FlattenDisabled(t *testing.T) {
	off := false

	p, err := resolve(t, &rulefile.File{
		Mappings: []rulefile.Mapping{{
			Source:  "plan.person",
			Target:  "plan.user",
			Flatten: &off,
			Ignore:  rulefile.StringOrArray{"Nickname"},
		}},
	}, DefaultConfig())
	require.NoError(t, err)

	pair := p.Pairs[0]
	_, ok := pair.Mapper.Rule(accessor.New("HomeCity"))
	assert.False(t, ok)
	assert.Equal(t, []string{"ID", "Name", "HomeCity", "Labels"}, pair.Unmapped)
}

func TestResolver_UnknownType(t *testing.T) {
	p, err := resolve(t, &rulefile.File{
		Mappings: []rulefile.Mapping{
			{Source: "plan.nobody", Target: "plan.user"},
			{Source: "plan.location", Target: "plan.place"},
		},
	}, DefaultConfig())
	require.ErrorIs(t, err, ErrResolution)

	require.Len(t, p.Pairs, 1)
	assert.Equal(t, "plan.location->plan.place", p.Pairs[0].Name())
	assert.NotEmpty(t, p.Diagnostics.WithCode(diagnostic.CodeTypeNotFound))
}

func TestResolver_DuplicateMapping(t *testing.T) {
	p, err := resolve(t, &rulefile.File{
		Mappings: []rulefile.Mapping{
			{Source: "plan.location", Target: "plan.place"},
			{Source: "plan.location", Target: "plan.place"},
		},
	}, DefaultConfig())
	require.ErrorIs(t, err, ErrResolution)

	assert.Len(t, p.Pairs, 1)
	assert.Len(t, p.Diagnostics.WithCode(rulefile.CodeDuplicateMapping), 1)
}

func TestResolver_Transforms(t *testing.T) {
	config := DefaultConfig()
	config.Funcs = rulefile.Funcs{
		"nick": func(src any) (any, error) { return "n", nil },
	}

	p, err := resolve(t, &rulefile.File{
		Transforms: []rulefile.Transform{{Name: "nick", Func: "Nick"}},
		Mappings: []rulefile.Mapping{{
			Source:    "plan.person",
			Target:    "plan.user",
			Members:   map[string]string{"Labels": "Tags"},
			Functions: map[string]string{"Nickname": "nick"},
		}},
	}, config)
	require.NoError(t, err)

	nick, ok := p.Pairs[0].Mapper.Rule(accessor.New("Nickname"))
	require.True(t, ok)
	require.Equal(t, rule.KindFunction, nick.Kind)

	got, err := nick.Transform.Fn(person{})
	require.NoError(t, err)
	assert.Equal(t, "n", got)
	assert.Empty(t, p.Pairs[0].Unmapped)
}

func TestResolver_NilFile(t *testing.T) {
	_, err := NewResolver(testGraph(), nil, DefaultConfig()).Resolve()
	require.Error(t, err)
}

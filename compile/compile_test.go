package compile

import (
	"errors"
	"reflect"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"member-mapper/accessor"
	"member-mapper/rule"
)

type geo struct {
	Lat, Lng float64
}

type place struct {
	City string
	Geo  *geo
}

type order struct {
	ID       int
	Customer string
	Place    *place
	Lines    []int32
	Labels   map[string]int
	Note     *string
	Total    float32
	secret   string
}

type geoView struct {
	Lat, Lng float64
}

type placeView struct {
	City string
	Geo  geoView
}

type orderView struct {
	ID       int64
	Customer *string
	City     string
	Where    *placeView
	Lines    []int64
	Labels   map[string]int64
	Note     string
	Total    float64
	Status   string
	Shipping struct {
		Carrier string
	}
	Location *placeView
	internal string
}

var (
	p         = accessor.MustParse
	orderT    = reflect.TypeFor[order]()
	orderPtrT = reflect.TypeFor[*order]()
	viewT     = reflect.TypeFor[orderView]()
)

func modes(t *testing.T, fn func(t *testing.T, mode rule.Mode)) {
	for _, mode := range []rule.Mode{rule.ModeDelegate, rule.ModeGenerated} {
		t.Run(mode.String(), func(t *testing.T) { fn(t, mode) })
	}
}

func nestedGeo() Nested {
	return func(src, dst reflect.Type) (NestedFunc, bool) {
		if src != reflect.TypeFor[geo]() || dst != reflect.TypeFor[geoView]() {
			return nil, false
		}

		return func(v any) (any, error) {
			g := v.(geo)
			return geoView(g), nil
		}, true
	}
}

func sampleOrder() order {
	note := "fragile"

	return order{
		ID:       7,
		Customer: "ada",
		Place:    &place{City: "Oslo", Geo: &geo{Lat: 59.9, Lng: 10.7}},
		Lines:    []int32{1, 2},
		Labels:   map[string]int{"a": 1},
		Note:     &note,
		Total:    1.5,
		secret:   "x",
	}
}

func TestBuildAndNew(t *testing.T) {
	modes(t, func(t *testing.T, mode rule.Mode) {
		plan := rule.Plan{
			Mode: mode,
			Rules: []rule.Rule{
				rule.Member(p("ID"), p("ID")),
				rule.Member(p("Customer"), p("Customer")),
				rule.Computed(p("City"), p("Place.City"), true),
				rule.Member(p("Lines"), p("Lines")),
				rule.Member(p("Labels"), p("Labels")),
				rule.Member(p("Note"), p("Note")),
				rule.Member(p("Total"), p("Total")),
				rule.Value(p("Status"), "open"),
				rule.Member(p("Shipping.Carrier"), p("Customer")),
				rule.Computed(p("Location.City"), p("Place.City"), false),
				rule.Member(p("Location.Geo"), p("Place.Geo")),
				rule.Ignore(p("Where")),
				rule.Ignore(p("internal")),
			},
		}

		fn, err := Build(plan, orderT, viewT, Options{Nested: nestedGeo()})
		require.NoError(t, err)
		assert.Equal(t, mode, fn.Mode())

		out, err := fn.New(sampleOrder())
		require.NoError(t, err)

		view := out.(orderView)
		assert.Equal(t, int64(7), view.ID)
		require.NotNil(t, view.Customer)
		assert.Equal(t, "ada", *view.Customer)
		assert.Equal(t, "Oslo", view.City)
		assert.Equal(t, []int64{1, 2}, view.Lines)
		assert.Equal(t, map[string]int64{"a": 1}, view.Labels)
		assert.Equal(t, "fragile", view.Note)
		assert.InDelta(t, 1.5, view.Total, 1e-9)
		assert.Equal(t, "open", view.Status)
		assert.Equal(t, "ada", view.Shipping.Carrier)
		require.NotNil(t, view.Location)
		assert.Equal(t, placeView{City: "Oslo", Geo: geoView{Lat: 59.9, Lng: 10.7}}, *view.Location)
		assert.Nil(t, view.Where)
	})
}

func TestNilSourceMembersAreSkipped(t *testing.T) {
	modes(t, func(t *testing.T, mode rule.Mode) {
		plan := rule.Plan{
			Mode: mode,
			Rules: []rule.Rule{
				rule.Computed(p("City"), p("Place.City"), true),
				rule.Member(p("Note"), p("Note")),
				rule.Member(p("Location.Geo"), p("Place.Geo")),
			},
		}

		fn, err := Build(plan, orderT, viewT, Options{Nested: nestedGeo()})
		require.NoError(t, err)

		out, err := fn.New(order{Place: &place{City: "Rome"}})
		require.NoError(t, err)

		view := out.(orderView)
		assert.Equal(t, "Rome", view.City)
		assert.Empty(t, view.Note)
		require.NotNil(t, view.Location)
		assert.Equal(t, geoView{}, view.Location.Geo)

		out, err = fn.New(order{})
		require.NoError(t, err)
		assert.Equal(t, orderView{}, out)
	})
}

func TestNilPointerSource(t *testing.T) {
	fn, err := Build(rule.Plan{Rules: []rule.Rule{rule.Member(p("ID"), p("ID"))}}, orderPtrT, viewT, Options{})
	require.NoError(t, err)

	out, err := fn.New((*order)(nil))
	require.NoError(t, err)
	assert.Equal(t, orderView{}, out)

	out, err = fn.New(nil)
	require.NoError(t, err)
	assert.Equal(t, orderView{}, out)

	o := sampleOrder()
	out, err = fn.New(&o)
	require.NoError(t, err)
	assert.Equal(t, int64(7), out.(orderView).ID)
}

func TestInto(t *testing.T) {
	modes(t, func(t *testing.T, mode rule.Mode) {
		plan := rule.Plan{
			Mode: mode,
			Rules: []rule.Rule{
				rule.Member(p("ID"), p("ID")),
				rule.Ignore(p("Status")),
			},
			Construction: &rule.Construction{Fn: func(any) (any, error) {
				return orderView{Status: "constructed"}, nil
			}},
		}

		fn, err := Build(plan, orderT, viewT, Options{})
		require.NoError(t, err)

		view := orderView{Status: "existing", Note: "kept"}
		require.NoError(t, fn.Into(sampleOrder(), &view))

		assert.Equal(t, int64(7), view.ID)
		assert.Equal(t, "existing", view.Status)
		assert.Equal(t, "kept", view.Note)

		require.ErrorIs(t, fn.Into(sampleOrder(), view), ErrDestType)
		require.ErrorIs(t, fn.Into(sampleOrder(), (*orderView)(nil)), ErrNilDest)
		require.ErrorIs(t, fn.Into("nope", &view), ErrSourceType)
	})
}

func TestConstruction(t *testing.T) {
	plan := rule.Plan{
		Rules: []rule.Rule{rule.Member(p("ID"), p("ID"))},
		Construction: &rule.Construction{Fn: func(src any) (any, error) {
			return orderView{Status: "from " + src.(order).Customer}, nil
		}},
	}

	fn, err := Build(plan, orderT, viewT, Options{})
	require.NoError(t, err)

	out, err := fn.New(sampleOrder())
	require.NoError(t, err)
	assert.Equal(t, "from ada", out.(orderView).Status)
	assert.Equal(t, int64(7), out.(orderView).ID)

	plan.Construction = &rule.Construction{Fn: func(any) (any, error) { return &orderView{}, nil }}
	fn, err = Build(plan, orderT, viewT, Options{})
	require.NoError(t, err)

	_, err = fn.New(sampleOrder())
	require.ErrorIs(t, err, ErrDestType)
}

func TestHooks(t *testing.T) {
	modes(t, func(t *testing.T, mode rule.Mode) {
		var seen []string

		plan := rule.Plan{
			Mode:  mode,
			Rules: []rule.Rule{rule.Member(p("ID"), p("ID"))},
			Before: []rule.Hook{{Name: "b", Fn: func(_, dst any) error {
				seen = append(seen, "before "+strconv.FormatInt(dst.(*orderView).ID, 10))
				return nil
			}}},
			After: []rule.Hook{{Name: "a", Fn: func(_, dst any) error {
				seen = append(seen, "after "+strconv.FormatInt(dst.(*orderView).ID, 10))
				dst.(*orderView).Status = "done"

				return nil
			}}},
		}

		fn, err := Build(plan, orderT, viewT, Options{})
		require.NoError(t, err)

		out, err := fn.New(sampleOrder())
		require.NoError(t, err)
		assert.Equal(t, []string{"before 0", "after 7"}, seen)
		assert.Equal(t, "done", out.(orderView).Status)
	})
}

func TestHookError(t *testing.T) {
	errStop := errors.New("stop")

	plan := rule.Plan{
		Before: []rule.Hook{{Name: "guard", Fn: func(any, any) error { return errStop }}},
	}

	fn, err := Build(plan, orderT, viewT, Options{})
	require.NoError(t, err)

	_, err = fn.New(sampleOrder())
	require.ErrorIs(t, err, errStop)
	assert.Contains(t, err.Error(), "before hook guard")
}

func TestFunctionRule(t *testing.T) {
	modes(t, func(t *testing.T, mode rule.Mode) {
		plan := rule.Plan{
			Mode: mode,
			Rules: []rule.Rule{
				rule.Function(p("Status"), &rule.Transform{Name: "status", Fn: func(src any) (any, error) {
					return "order-" + strconv.Itoa(src.(order).ID), nil
				}}),
				rule.Function(p("ID"), &rule.Transform{Fn: func(any) (any, error) { return int32(9), nil }}),
				rule.Function(p("Note"), &rule.Transform{Fn: func(any) (any, error) { return nil, nil }}),
			},
		}

		fn, err := Build(plan, orderT, viewT, Options{})
		require.NoError(t, err)

		out, err := fn.New(sampleOrder())
		require.NoError(t, err)

		view := out.(orderView)
		assert.Equal(t, "order-7", view.Status)
		assert.Equal(t, int64(9), view.ID)
		assert.Empty(t, view.Note)
	})
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		rule rule.Rule
		want error
	}{
		{name: "unknown source", rule: rule.Member(p("ID"), p("Number")), want: ErrUnknownSource},
		{name: "unexported source", rule: rule.Member(p("Note"), p("secret")), want: ErrUnknownSource},
		{name: "unknown dest", rule: rule.Member(p("Number"), p("ID")), want: ErrUnknownDest},
		{name: "unexported dest", rule: rule.Member(p("internal"), p("Customer")), want: ErrUnknownDest},
		{name: "slice into string", rule: rule.Member(p("Status"), p("Lines")), want: ErrIncompatible},
		{name: "int into string", rule: rule.Member(p("Status"), p("ID")), want: ErrIncompatible},
		{name: "struct without nested", rule: rule.Member(p("Where"), p("Place")), want: ErrIncompatible},
		{name: "literal", rule: rule.Value(p("ID"), "seven"), want: ErrIncompatible},
		{name: "nil transform", rule: rule.Function(p("ID"), nil), want: errNilTransform},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(rule.Plan{Rules: []rule.Rule{tt.rule}}, orderT, viewT, Options{})
			require.ErrorIs(t, err, tt.want)

			var memberErr *MemberError
			require.ErrorAs(t, err, &memberErr)
			assert.Equal(t, tt.rule.Key(), memberErr.Path)
		})
	}
}

func TestValueNilWritesZero(t *testing.T) {
	fn, err := Build(rule.Plan{Rules: []rule.Rule{rule.Value(p("Customer"), nil)}}, orderT, viewT, Options{})
	require.NoError(t, err)

	view := orderView{Customer: new(string)}
	require.NoError(t, fn.Into(sampleOrder(), &view))
	assert.Nil(t, view.Customer)
}

func TestCompatible(t *testing.T) {
	tests := []struct {
		src, dst reflect.Type
		nested   Nested
		want     bool
	}{
		{src: reflect.TypeFor[int](), dst: reflect.TypeFor[int64](), want: true},
		{src: reflect.TypeFor[int](), dst: reflect.TypeFor[string](), want: false},
		{src: reflect.TypeFor[string](), dst: reflect.TypeFor[*string](), want: true},
		{src: reflect.TypeFor[*int](), dst: reflect.TypeFor[float64](), want: true},
		{src: reflect.TypeFor[[]int](), dst: reflect.TypeFor[[]uint8](), want: true},
		{src: reflect.TypeFor[map[string]int](), dst: reflect.TypeFor[map[string]bool](), want: false},
		{src: reflect.TypeFor[geo](), dst: reflect.TypeFor[geoView](), want: false},
		{src: reflect.TypeFor[geo](), dst: reflect.TypeFor[geoView](), nested: nestedGeo(), want: true},
		{src: reflect.TypeFor[*geo](), dst: reflect.TypeFor[*geoView](), nested: nestedGeo(), want: true},
		{src: reflect.TypeFor[string](), dst: reflect.TypeFor[any](), want: true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Compatible(tt.src, tt.dst, tt.nested), "%s -> %s", tt.src, tt.dst)
	}
}

func TestUnknownMode(t *testing.T) {
	_, err := Build(rule.Plan{Mode: rule.Mode(5)}, orderT, viewT, Options{})
	require.Error(t, err)
}

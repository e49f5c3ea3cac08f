package analyze

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"member-mapper/accessor"
	"member-mapper/schema"
)

const (
	storePkg     = "member-mapper/store"
	warehousePkg = "member-mapper/warehouse"
)

func loadSamples(t *testing.T) *Graph {
	t.Helper()

	graph, err := NewAnalyzer().LoadPackages(context.Background(), storePkg, warehousePkg)
	require.NoError(t, err)
	require.NotNil(t, graph)

	return graph
}

func field(t *testing.T, typ *schema.Type, name string) *schema.Field {
	t.Helper()

	f := typ.Field(name)
	require.NotNil(t, f, "%s should have %s", typ, name)

	return f
}

func TestAnalyzer_LoadPackages(t *testing.T) {
	graph := loadSamples(t)

	assert.Contains(t, graph.Packages, storePkg)
	assert.Contains(t, graph.Packages, warehousePkg)
	assert.Equal(t, "store", graph.Packages[storePkg].Name)
	assert.NotEmpty(t, graph.Packages[storePkg].Dir)

	assert.Contains(t, graph.Types, schema.TypeID{PkgPath: storePkg, Name: "Order"})
	assert.Contains(t, graph.Types, schema.TypeID{PkgPath: warehousePkg, Name: "Order"})
	assert.Contains(t, graph.Packages[storePkg].Types, schema.TypeID{PkgPath: storePkg, Name: "OrderItem"})
}

func TestAnalyzer_StoreOrderFields(t *testing.T) {
	graph := loadSamples(t)

	order := graph.Type(schema.TypeID{PkgPath: storePkg, Name: "Order"})
	require.NotNil(t, order)
	assert.Equal(t, schema.KindStruct, order.Kind)
	assert.Equal(t, "store.Order", order.Expr)

	assert.Equal(t, []string{
		"ID", "CustomerID", "Customer", "Status", "TotalCents", "Items", "OrderedAt", "Notes", "internalRef",
	}, order.FieldNames())

	ref := field(t, order, "internalRef")
	assert.False(t, ref.Exported)
	assert.False(t, ref.Writable())
}

func TestAnalyzer_FieldTags(t *testing.T) {
	graph := loadSamples(t)

	order := graph.Type(schema.TypeID{PkgPath: warehousePkg, Name: "Order"})
	require.NotNil(t, order)

	assert.Equal(t, "order_number", field(t, order, "OrderNumber").Tag.Get("json"))

	version := field(t, order, "Version")
	assert.True(t, version.ReadOnly)
	assert.False(t, version.Writable())

	assert.False(t, field(t, order, "Audit").Writable())
	assert.True(t, field(t, order, "Currency").Writable())
}

func TestAnalyzer_CompositeFields(t *testing.T) {
	graph := loadSamples(t)

	order := graph.Type(schema.TypeID{PkgPath: storePkg, Name: "Order"})
	require.NotNil(t, order)

	items := field(t, order, "Items").Type
	assert.Equal(t, schema.KindSlice, items.Kind)
	require.NotNil(t, items.Elem)
	assert.Equal(t, schema.KindStruct, items.Elem.Kind)
	assert.Equal(t, "[]store.OrderItem", items.Expr)

	customer := graph.Type(schema.TypeID{PkgPath: storePkg, Name: "Customer"})
	address := field(t, customer, "Address").Type
	assert.Equal(t, schema.KindPointer, address.Kind)
	assert.Equal(t, schema.KindStruct, address.Elem.Kind)
	assert.Same(t, graph.Type(schema.TypeID{PkgPath: storePkg, Name: "Address"}), address.Elem)
}

func TestAnalyzer_AliasAndExternal(t *testing.T) {
	graph := loadSamples(t)

	status := graph.Type(schema.TypeID{PkgPath: storePkg, Name: "OrderStatus"})
	require.NotNil(t, status)
	assert.Equal(t, schema.KindAlias, status.Kind)
	assert.Equal(t, "string", status.Basic)

	order := graph.Type(schema.TypeID{PkgPath: storePkg, Name: "Order"})
	orderedAt := field(t, order, "OrderedAt").Type
	assert.Equal(t, schema.KindExternal, orderedAt.Kind)
	assert.Equal(t, schema.TypeID{PkgPath: "time", Name: "Time"}, orderedAt.ID)

	total := field(t, order, "TotalCents").Type
	assert.Equal(t, schema.KindBasic, total.Kind)
	assert.Equal(t, "int64", total.Basic)
}

func TestAnalyzer_PathsResolve(t *testing.T) {
	graph := loadSamples(t)

	order := graph.Type(schema.TypeID{PkgPath: storePkg, Name: "Order"})

	res, err := schema.Resolve(order, accessor.MustParse("Customer.Address.City"))
	require.NoError(t, err)
	assert.True(t, res.Readable)
	assert.Equal(t, "string", res.Leaf().Type.Basic)

	leaves := schema.Leaves(order, 3)
	assert.Contains(t, leaves, accessor.MustParse("Customer.Address.City"))
}

func TestGraph_Resolve(t *testing.T) {
	graph := loadSamples(t)

	tests := []struct {
		name string
		ref  string
		want schema.TypeID
		err  error
	}{
		{name: "full path", ref: "member-mapper/store.Order", want: schema.TypeID{PkgPath: storePkg, Name: "Order"}},
		{name: "short form", ref: "warehouse.Order", want: schema.TypeID{PkgPath: warehousePkg, Name: "Order"}},
		{name: "name only", ref: "OrderItem", want: schema.TypeID{PkgPath: storePkg, Name: "OrderItem"}},
		{name: "ambiguous name", ref: "Order", err: ErrAmbiguousType},
		{name: "unknown", ref: "store.Invoice", err: ErrTypeNotFound},
		{name: "empty", ref: "", err: ErrTypeNotFound},
		{name: "malformed", ref: "store.", err: ErrTypeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := graph.Resolve(tt.ref)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got.ID)
		})
	}
}

func TestGraph_Names(t *testing.T) {
	graph := loadSamples(t)

	names := graph.Names()
	assert.Contains(t, names, "member-mapper/store.Order")
	assert.IsNonDecreasing(t, names)
}

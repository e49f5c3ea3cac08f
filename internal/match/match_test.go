package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	assert.Equal(t, "HomeCity", Fold("HomeCity", true))
	assert.Equal(t, "homecity", Fold("HomeCity", false))
}

func TestSameName(t *testing.T) {
	assert.True(t, SameName("City", "City", true))
	assert.False(t, SameName("City", "city", true))
	assert.True(t, SameName("City", "city", false))
	assert.False(t, SameName("City", "Town", false))
}

func TestTokenizeIdent(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"OrderID", []string{"order", "id"}},
		{"customerName", []string{"customer", "name"}},
		{"XMLParser", []string{"xml", "parser"}},
		{"getHTTPResponse", []string{"get", "http", "response"}},
		{"home_city", []string{"home", "city"}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, TokenizeIdent(tt.input))
		})
	}
}

func TestNormalizeIdent(t *testing.T) {
	assert.Equal(t, "orderid", NormalizeIdent("Order_ID"))
	assert.Equal(t, "orderid", NormalizeIdent("orderId"))
	assert.Equal(t, "customername", NormalizeIdent("customer-name"))
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"same", "same", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.expected, Levenshtein(tt.a, tt.b))
			assert.Equal(t, tt.expected, Levenshtein(tt.b, tt.a))
		})
	}
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("OrderID", "order_id"), 0.0001)
	assert.InDelta(t, 1.0, Similarity("", ""), 0.0001)
	assert.InDelta(t, 0.75, Similarity("Name", "Nane"), 0.0001)
	assert.Less(t, Similarity("Name", "Quantity"), DefaultSuggestScore)
}

func TestSuggest(t *testing.T) {
	candidates := []string{"Address", "Addresses", "Dress", "Zip"}

	assert.Equal(t, []string{"Address", "Dress", "Addresses"}, Suggest("Adress", candidates, 5))
	assert.Equal(t, []string{"Address"}, Suggest("Adress", candidates, 1))
	assert.Equal(t, []string{"Name"}, Suggest("Nane", []string{"Name", "FullName", "Age"}, 3))
	assert.Empty(t, Suggest("Quantity", candidates, 3))
	assert.NotContains(t, Suggest("Address", candidates, 3), "Address")
}

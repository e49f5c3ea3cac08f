package flatten

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"member-mapper/accessor"
	"member-mapper/schema"
)

type geo struct {
	Lat float64
}

type address struct {
	City string
	Zip  string
	Geo  *geo
}

type customer struct {
	Name        string
	Address     address
	AddressCity string // direct match shadows Address.City
	Email       string
	secret      string
}

type customerDTO struct {
	Name          string
	AddressCity   string
	AddressZip    string
	addressGeoLat float64
	AddressGeoLat float64
	Email         int
	Phone         string
	Secret        string
	Audit         string `mapper:"readonly"`
}

type lowerDTO struct {
	NAME       string
	Addresszip string
}

func keys(cands []Candidate) map[string]string {
	out := make(map[string]string, len(cands))
	for _, c := range cands {
		out[c.Dest.Key()] = c.Source.Key()
	}

	return out
}

func TestCandidates(t *testing.T) {
	cands := Candidates(schema.For[customer](), schema.For[customerDTO](), Options{CaseSensitive: true})
	got := keys(cands)

	assert.Equal(t, "Name", got["Name"])
	assert.Equal(t, "AddressCity", got["AddressCity"], "shorter path wins")
	assert.Equal(t, "Address.Zip", got["AddressZip"])
	assert.Equal(t, "Address.Geo.Lat", got["AddressGeoLat"])
	assert.Equal(t, "Email", got["Email"], "compatibility is not checked without a predicate")
	assert.NotContains(t, got, "Phone")
	assert.NotContains(t, got, "Secret", "unexported source members are not readable")
	assert.NotContains(t, got, "Audit", "read-only destination members are skipped")
	assert.NotContains(t, got, "addressGeoLat")

	require.NotEmpty(t, cands)
	assert.Equal(t, "Name", cands[0].Dest.Key(), "destination member order")
}

func TestCandidatesCaseSensitivity(t *testing.T) {
	sensitive := keys(Candidates(schema.For[customer](), schema.For[lowerDTO](), Options{CaseSensitive: true}))
	assert.Empty(t, sensitive)

	insensitive := keys(Candidates(schema.For[customer](), schema.For[lowerDTO](), Options{CaseSensitive: false}))
	assert.Equal(t, "Name", insensitive["NAME"])
	assert.Equal(t, "Address.Zip", insensitive["Addresszip"])
}

func TestCandidatesSkipsExistingRules(t *testing.T) {
	cands := Candidates(schema.For[customer](), schema.For[customerDTO](), Options{
		CaseSensitive: true,
		HasRule: func(dest accessor.Path) bool {
			return dest.Key() == "Name"
		},
	})

	assert.NotContains(t, keys(cands), "Name")
}

func TestCandidatesCompatible(t *testing.T) {
	cands := Candidates(schema.For[customer](), schema.For[customerDTO](), Options{
		CaseSensitive: true,
		Compatible: func(src, dst *schema.Type) bool {
			return src.Expr == dst.Expr
		},
	})

	got := keys(cands)
	assert.NotContains(t, got, "Email")
	assert.Equal(t, "Name", got["Name"])
}

func TestCandidatesMaxDepth(t *testing.T) {
	cands := Candidates(schema.For[customer](), schema.For[customerDTO](), Options{CaseSensitive: true, MaxDepth: 2})

	got := keys(cands)
	assert.NotContains(t, got, "AddressGeoLat")
	assert.Equal(t, "Address.Zip", got["AddressZip"])
}

func TestCandidatesNonStruct(t *testing.T) {
	assert.Nil(t, Candidates(schema.For[string](), schema.For[customerDTO](), Options{}))
	assert.Nil(t, Candidates(schema.For[customer](), schema.For[int](), Options{}))
}

package analytics

import (
	"testing"

	"github.com/olist/dashboard/internal/domain/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func permutations(facets []Facet) [][]Facet {
	if len(facets) <= 1 {
		return [][]Facet{append([]Facet(nil), facets...)}
	}
	var out [][]Facet
	for i := range facets {
		rest := make([]Facet, 0, len(facets)-1)
		rest = append(rest, facets[:i]...)
		rest = append(rest, facets[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]Facet{facets[i]}, p...))
		}
	}
	return out
}

func TestFilterOrderIDs(t *testing.T) {
	data := marketplace()
	g := DefaultGraph()

	t.Run("Facets commute", func(t *testing.T) {
		sel := Selection{
			FacetYear:     {"2017"},
			FacetState:    {"SP"},
			FacetCategory: {"furniture"},
		}
		orders := permutations(DefaultFacets)
		require.Len(t, orders, 6)

		var want []string
		for i, facets := range orders {
			ids, err := FilterOrderIDs(data, g, facets, sel)
			require.NoError(t, err)
			if i == 0 {
				want = ids.Sorted()
				continue
			}
			assert.Equal(t, want, ids.Sorted())
		}
		assert.Equal(t, []string{"O1", "O3"}, want)
	})

	t.Run("Empty selection is the identity", func(t *testing.T) {
		universal := UniversalOrderIDs(data).Sorted()

		for _, sel := range []Selection{nil, {}, {FacetYear: {}}, {FacetState: nil, FacetCategory: {}}} {
			ids, err := FilterOrderIDs(data, g, DefaultFacets, sel)
			require.NoError(t, err)
			assert.Equal(t, universal, ids.Sorted())
		}
	})

	t.Run("Empty selection leaves the running set unchanged", func(t *testing.T) {
		before, err := FilterOrderIDs(data, g, DefaultFacets, Selection{FacetYear: {"2017"}})
		require.NoError(t, err)
		after, err := FilterOrderIDs(data, g, DefaultFacets, Selection{FacetYear: {"2017"}, FacetState: {}})
		require.NoError(t, err)
		assert.Equal(t, before.Sorted(), after.Sorted())
	})

	t.Run("Multiple values are a union within the facet", func(t *testing.T) {
		ids, err := FilterOrderIDs(data, g, DefaultFacets, Selection{FacetState: {"RJ", "MG"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"O2", "O4"}, ids.Sorted())
	})

	t.Run("Selection that matches nothing", func(t *testing.T) {
		ids, err := FilterOrderIDs(data, g, DefaultFacets, Selection{FacetState: {"AC"}})
		require.NoError(t, err)
		assert.Equal(t, 0, ids.Len())
	})

	t.Run("Facet without options does not constrain", func(t *testing.T) {
		paymentType := Facet{Name: "payment_type", Table: dataset.TablePayments, Column: dataset.ColPaymentType}
		facets := append(append([]Facet(nil), DefaultFacets...), paymentType)

		ids, err := FilterOrderIDs(data, g, facets, Selection{"payment_type": {"boleto"}})
		require.NoError(t, err)
		assert.Equal(t, 4, ids.Len())
	})

	t.Run("Facet on an unreachable table", func(t *testing.T) {
		bad := Facet{Name: "seller", Table: "sellers", Column: "seller_state"}
		_, err := FilterOrderIDs(data, g, []Facet{bad}, Selection{"seller": {"SP"}})
		// sellers is not loaded, so it has no options and does not constrain
		assert.NoError(t, err)
	})
}

func TestProject(t *testing.T) {
	data := marketplace()

	ft := Project(data, NewOrderIDSet("O1", "O4"))

	assert.Len(t, ft.Orders, 2)
	assert.Len(t, ft.Payments, 2)
	assert.Len(t, ft.OrderItems, 2)
	assert.Len(t, ft.Reviews, 2)

	customers := make([]string, 0)
	for _, c := range ft.Customers {
		customers = append(customers, c.CustomerID)
	}
	assert.Equal(t, []string{"C1", "C4"}, customers)

	products := make([]string, 0)
	for _, p := range ft.Products {
		products = append(products, p.ProductID)
	}
	assert.Equal(t, []string{"P1", "P2"}, products)

	empty := Project(data, NewOrderIDSet())
	assert.NotNil(t, empty.Orders)
	assert.Empty(t, empty.Orders)
	assert.Empty(t, empty.Customers)
}

func TestScenarioYearFilter(t *testing.T) {
	data := marketplace()

	ft, err := Filter(data, DefaultGraph(), DefaultFacets, Selection{FacetYear: {"2017"}})
	require.NoError(t, err)

	k := ComputeKPIs(ft)
	assert.True(t, k.TotalRevenue.Equal(money("180")))
	assert.Equal(t, 3, k.TotalOrders)

	assert.Equal(t, map[dataset.DeliveryStatus]int{
		dataset.DeliveryOnTime:             1,
		dataset.DeliveryDelayed:            1,
		dataset.DeliveryInTransitCancelled: 1,
	}, DeliveryStatusCounts(ft))
}

func TestOptions(t *testing.T) {
	data := marketplace()
	tables := TablesOf(data)

	year, _ := FacetByName(DefaultFacets, FacetYear)
	assert.Equal(t, []string{"2017", "2018"}, Options(tables, year))

	state, _ := FacetByName(DefaultFacets, FacetState)
	assert.Equal(t, []string{"MG", "RJ", "SP"}, Options(tables, state))

	category, _ := FacetByName(DefaultFacets, FacetCategory)
	assert.Equal(t, []string{"furniture", "toys"}, Options(tables, category))

	t.Run("numeric values sort numerically", func(t *testing.T) {
		values := []string{"10", "9", "100"}
		sortOptions(values)
		assert.Equal(t, []string{"9", "10", "100"}, values)
	})

	t.Run("unloaded table has no options", func(t *testing.T) {
		assert.Empty(t, Options(tables, Facet{Name: "x", Table: "sellers", Column: "seller_state"}))
	})

	_, ok := FacetByName(DefaultFacets, "missing")
	assert.False(t, ok)
}

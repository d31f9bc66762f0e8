package analytics

import (
	"sort"
	"strconv"

	"github.com/olist/dashboard/internal/domain/dataset"
)

// Facet names
const (
	FacetYear     = "year"
	FacetState    = "state"
	FacetCategory = "category"
)

// Facet is a filter dimension: a column on some table of the graph
type Facet struct {
	Name   string `json:"name"`
	Table  string `json:"table"`
	Column string `json:"column"`
}

// DefaultFacets are the dashboard's filter dimensions
var DefaultFacets = []Facet{
	{Name: FacetYear, Table: dataset.TableOrders, Column: dataset.ColPurchaseYear},
	{Name: FacetState, Table: dataset.TableCustomers, Column: dataset.ColCustomerState},
	{Name: FacetCategory, Table: dataset.TableProducts, Column: dataset.ColCategoryNameEnglish},
}

// FacetByName looks a facet up in a list
func FacetByName(facets []Facet, name string) (Facet, bool) {
	for _, f := range facets {
		if f.Name == name {
			return f, true
		}
	}
	return Facet{}, false
}

// Selection maps a facet name to the selected values. A missing or empty
// entry leaves that facet unconstrained.
type Selection map[string][]string

// Options returns the distinct non-empty values of the facet column, sorted.
// Values are ordered numerically when every value is an integer.
func Options(tables Tables, facet Facet) []string {
	t, ok := tables[facet.Table]
	if !ok || t == nil {
		return nil
	}
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for i := 0; i < t.Len(); i++ {
		v, ok := t.Value(i, facet.Column)
		if !ok || v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sortOptions(out)
	return out
}

func sortOptions(values []string) {
	for _, v := range values {
		if _, err := strconv.Atoi(v); err != nil {
			sort.Strings(values)
			return
		}
	}
	sort.Slice(values, func(i, j int) bool {
		a, _ := strconv.Atoi(values[i])
		b, _ := strconv.Atoi(values[j])
		return a < b
	})
}

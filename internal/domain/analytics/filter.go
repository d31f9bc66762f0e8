package analytics

import (
	"fmt"

	"github.com/olist/dashboard/internal/domain/dataset"
)

// FilteredTables is a table set restricted to one order-id set
type FilteredTables struct {
	OrderIDs   OrderIDSet
	Orders     dataset.Orders
	Customers  dataset.Customers
	Products   dataset.Products
	OrderItems dataset.OrderItems
	Payments   dataset.Payments
	Reviews    dataset.Reviews
}

// UniversalOrderIDs returns every order id in the set
func UniversalOrderIDs(ts *dataset.TableSet) OrderIDSet {
	ids := make(OrderIDSet, len(ts.Orders))
	for i := range ts.Orders {
		ids[ts.Orders[i].OrderID] = struct{}{}
	}
	return ids
}

// FilterOrderIDs narrows the universal order-id set by every constrained facet.
// Each facet contributes the ids it admits and the results are intersected, so
// the outcome does not depend on facet order. A facet with no selected values,
// or with no options in the data, does not constrain.
func FilterOrderIDs(ts *dataset.TableSet, g *Graph, facets []Facet, sel Selection) (OrderIDSet, error) {
	tables := TablesOf(ts)
	ids := UniversalOrderIDs(ts)

	for _, f := range facets {
		selected := sel[f.Name]
		if len(selected) == 0 {
			continue
		}
		if len(Options(tables, f)) == 0 {
			continue
		}
		want := make(map[string]struct{}, len(selected))
		for _, v := range selected {
			want[v] = struct{}{}
		}
		column := f.Column
		admitted, err := g.RelatedOrderIDs(tables, f.Table, func(t Table, row int) bool {
			v, _ := t.Value(row, column)
			_, ok := want[v]
			return ok
		})
		if err != nil {
			return nil, fmt.Errorf("facet '%s': %w", f.Name, err)
		}
		ids = ids.Intersect(admitted)
	}
	return ids, nil
}

// Project restricts every table to the order-id set. Customers follow the
// filtered orders and products follow the filtered order items.
func Project(ts *dataset.TableSet, ids OrderIDSet) *FilteredTables {
	ft := &FilteredTables{
		OrderIDs:   ids,
		Orders:     dataset.Orders{},
		Customers:  dataset.Customers{},
		Products:   dataset.Products{},
		OrderItems: dataset.OrderItems{},
		Payments:   dataset.Payments{},
		Reviews:    dataset.Reviews{},
	}

	customerIDs := make(map[string]struct{})
	for _, o := range ts.Orders {
		if ids.Has(o.OrderID) {
			ft.Orders = append(ft.Orders, o)
			customerIDs[o.CustomerID] = struct{}{}
		}
	}
	for _, c := range ts.Customers {
		if _, ok := customerIDs[c.CustomerID]; ok {
			ft.Customers = append(ft.Customers, c)
		}
	}

	productIDs := make(map[string]struct{})
	for _, it := range ts.OrderItems {
		if ids.Has(it.OrderID) {
			ft.OrderItems = append(ft.OrderItems, it)
			productIDs[it.ProductID] = struct{}{}
		}
	}
	for _, p := range ts.Products {
		if _, ok := productIDs[p.ProductID]; ok {
			ft.Products = append(ft.Products, p)
		}
	}

	for _, p := range ts.Payments {
		if ids.Has(p.OrderID) {
			ft.Payments = append(ft.Payments, p)
		}
	}
	for _, r := range ts.Reviews {
		if ids.Has(r.OrderID) {
			ft.Reviews = append(ft.Reviews, r)
		}
	}
	return ft
}

// Filter applies the selection and projects the table set in one step
func Filter(ts *dataset.TableSet, g *Graph, facets []Facet, sel Selection) (*FilteredTables, error) {
	ids, err := FilterOrderIDs(ts, g, facets, sel)
	if err != nil {
		return nil, err
	}
	return Project(ts, ids), nil
}

package analytics

import (
	"errors"
	"fmt"
	"sort"

	"github.com/olist/dashboard/internal/domain/dataset"
)

// Graph errors
var (
	ErrNoPath        = errors.New("no path to orders")
	ErrUnknownTable  = errors.New("table not loaded")
	ErrUnknownColumn = errors.New("column not available")
)

// Table is the row access the graph needs from a table
type Table interface {
	Len() int
	Value(row int, column string) (string, bool)
}

// Tables maps a logical table name to its rows
type Tables map[string]Table

// TablesOf exposes a table set to the graph
func TablesOf(ts *dataset.TableSet) Tables {
	return Tables{
		dataset.TableOrders:      ts.Orders,
		dataset.TableCustomers:   ts.Customers,
		dataset.TableProducts:    ts.Products,
		dataset.TableOrderItems:  ts.OrderItems,
		dataset.TablePayments:    ts.Payments,
		dataset.TableReviews:     ts.Reviews,
		dataset.TableGeolocation: dataset.Centroids(ts.Geolocation),
	}
}

// RowPredicate selects rows of a table
type RowPredicate func(t Table, row int) bool

// Cardinality of an edge, read From -> To
type Cardinality string

const (
	OneToMany  Cardinality = "one-to-many"
	ManyToOne  Cardinality = "many-to-one"
	OneToOne   Cardinality = "one-to-one"
	ManyToMany Cardinality = "many-to-many"
)

// JoinKind is the join used when the edge is materialized
type JoinKind string

const (
	InnerJoin JoinKind = "inner"
	LeftJoin  JoinKind = "left"
)

// Edge is a declared relationship between two tables
type Edge struct {
	From        string
	FromKey     string
	To          string
	ToKey       string
	Cardinality Cardinality
	Join        JoinKind
}

// Graph is the set of declared relationships. Edges can be walked in both directions.
type Graph struct {
	edges []Edge
	root  string
}

// NewGraph creates a graph whose order-id propagation ends at root
func NewGraph(root string, edges ...Edge) *Graph {
	return &Graph{root: root, edges: append([]Edge(nil), edges...)}
}

// DefaultEdges are the relationships of the marketplace dataset
var DefaultEdges = []Edge{
	{From: dataset.TableCustomers, FromKey: dataset.ColCustomerID, To: dataset.TableOrders, ToKey: dataset.ColCustomerID, Cardinality: OneToMany, Join: InnerJoin},
	{From: dataset.TableProducts, FromKey: dataset.ColProductID, To: dataset.TableOrderItems, ToKey: dataset.ColProductID, Cardinality: OneToMany, Join: InnerJoin},
	{From: dataset.TableOrderItems, FromKey: dataset.ColOrderID, To: dataset.TableOrders, ToKey: dataset.ColOrderID, Cardinality: ManyToOne, Join: InnerJoin},
	{From: dataset.TablePayments, FromKey: dataset.ColOrderID, To: dataset.TableOrders, ToKey: dataset.ColOrderID, Cardinality: ManyToOne, Join: InnerJoin},
	{From: dataset.TableReviews, FromKey: dataset.ColOrderID, To: dataset.TableOrders, ToKey: dataset.ColOrderID, Cardinality: ManyToOne, Join: InnerJoin},
	{From: dataset.TableGeolocation, FromKey: dataset.ColZipCodePrefix, To: dataset.TableCustomers, ToKey: dataset.ColZipCodePrefix, Cardinality: OneToMany, Join: LeftJoin},
}

// DefaultGraph returns the marketplace graph rooted at orders
func DefaultGraph() *Graph {
	return NewGraph(dataset.TableOrders, DefaultEdges...)
}

// Edges returns a copy of the declared edges
func (g *Graph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// hop is one step of a path: read fromKey on the current table, match toKey on the next
type hop struct {
	next    string
	fromKey string
	toKey   string
}

// PathTo returns the tables visited from table to the root, both ends included
func (g *Graph) PathTo(table string) ([]string, error) {
	hops, err := g.path(table)
	if err != nil {
		return nil, err
	}
	out := []string{table}
	for _, h := range hops {
		out = append(out, h.next)
	}
	return out, nil
}

// path finds the shortest hop sequence from table to the root (BFS)
func (g *Graph) path(table string) ([]hop, error) {
	if table == g.root {
		return nil, nil
	}

	adj := make(map[string][]hop)
	for _, e := range g.edges {
		adj[e.From] = append(adj[e.From], hop{next: e.To, fromKey: e.FromKey, toKey: e.ToKey})
		adj[e.To] = append(adj[e.To], hop{next: e.From, fromKey: e.ToKey, toKey: e.FromKey})
	}
	if _, ok := adj[table]; !ok {
		return nil, fmt.Errorf("%w: table '%s'", ErrNoPath, table)
	}

	prev := map[string]hop{}
	from := map[string]string{table: ""}
	queue := []string{table}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == g.root {
			break
		}
		for _, h := range adj[cur] {
			if _, seen := from[h.next]; seen {
				continue
			}
			from[h.next] = cur
			prev[h.next] = h
			queue = append(queue, h.next)
		}
	}
	if _, ok := from[g.root]; !ok {
		return nil, fmt.Errorf("%w: table '%s'", ErrNoPath, table)
	}

	var hops []hop
	for cur := g.root; cur != table; cur = from[cur] {
		hops = append(hops, prev[cur])
	}
	for i, j := 0, len(hops)-1; i < j; i, j = i+1, j-1 {
		hops[i], hops[j] = hops[j], hops[i]
	}
	return hops, nil
}

// RelatedOrderIDs returns the ids of the orders reachable from the rows of
// table that satisfy pred.
func (g *Graph) RelatedOrderIDs(tables Tables, table string, pred RowPredicate) (OrderIDSet, error) {
	hops, err := g.path(table)
	if err != nil {
		return nil, err
	}
	cur, ok := tables[table]
	if !ok || cur == nil {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownTable, table)
	}

	rows := make([]int, 0, cur.Len())
	for i := 0; i < cur.Len(); i++ {
		if pred(cur, i) {
			rows = append(rows, i)
		}
	}

	for _, h := range hops {
		keys, err := columnValues(cur, rows, h.fromKey)
		if err != nil {
			return nil, err
		}
		next, ok := tables[h.next]
		if !ok || next == nil {
			return nil, fmt.Errorf("%w: '%s'", ErrUnknownTable, h.next)
		}
		if rows, err = matchRows(next, h.toKey, keys); err != nil {
			return nil, err
		}
		cur = next
	}

	ids, err := columnValues(cur, rows, dataset.ColOrderID)
	if err != nil {
		return nil, err
	}
	return OrderIDSet(ids), nil
}

func columnValues(t Table, rows []int, column string) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		v, ok := t.Value(r, column)
		if !ok {
			return nil, fmt.Errorf("%w: '%s'", ErrUnknownColumn, column)
		}
		out[v] = struct{}{}
	}
	return out, nil
}

func matchRows(t Table, column string, keys map[string]struct{}) ([]int, error) {
	var rows []int
	for i := 0; i < t.Len(); i++ {
		v, ok := t.Value(i, column)
		if !ok {
			return nil, fmt.Errorf("%w: '%s'", ErrUnknownColumn, column)
		}
		if _, hit := keys[v]; hit {
			rows = append(rows, i)
		}
	}
	return rows, nil
}

// OrderIDSet is a set of order identifiers
type OrderIDSet map[string]struct{}

// NewOrderIDSet builds a set from ids
func NewOrderIDSet(ids ...string) OrderIDSet {
	s := make(OrderIDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports membership
func (s OrderIDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of ids
func (s OrderIDSet) Len() int { return len(s) }

// Intersect returns the ids present in both sets
func (s OrderIDSet) Intersect(other OrderIDSet) OrderIDSet {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(OrderIDSet, len(small))
	for id := range small {
		if large.Has(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

// Sorted returns the ids in ascending order
func (s OrderIDSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

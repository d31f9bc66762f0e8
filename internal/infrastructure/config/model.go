package config

import (
	"fmt"
	"os"

	"github.com/olist/dashboard/internal/domain/analytics"
	"github.com/olist/dashboard/internal/domain/dataset"
	"gopkg.in/yaml.v3"
)

// Model is the YAML description of the entity graph and the filter facets.
//
//	root: orders
//	edges:
//	  - {from: customers, from_key: customer_id, to: orders, to_key: customer_id, cardinality: one-to-many}
//	facets:
//	  - {name: state, table: customers, column: customer_state}
type Model struct {
	Root   string       `yaml:"root"`
	Edges  []ModelEdge  `yaml:"edges"`
	Facets []ModelFacet `yaml:"facets"`
}

// ModelEdge is one declared relationship
type ModelEdge struct {
	From        string `yaml:"from"`
	FromKey     string `yaml:"from_key"`
	To          string `yaml:"to"`
	ToKey       string `yaml:"to_key"`
	Cardinality string `yaml:"cardinality"`
	Join        string `yaml:"join"`
}

// ModelFacet is one filter dimension
type ModelFacet struct {
	Name   string `yaml:"name"`
	Table  string `yaml:"table"`
	Column string `yaml:"column"`
}

// LoadModel reads a model file. An empty path yields the built-in graph and facets.
func LoadModel(path string) (*analytics.Graph, []analytics.Facet, error) {
	if path == "" {
		return analytics.DefaultGraph(), append([]analytics.Facet(nil), analytics.DefaultFacets...), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("error reading model file %s: %w", path, err)
	}
	return ParseModel(data)
}

// ParseModel decodes and validates a YAML model. Sections left out fall back
// to the built-in edges or facets.
func ParseModel(data []byte) (*analytics.Graph, []analytics.Facet, error) {
	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, nil, fmt.Errorf("invalid model: %w", err)
	}

	root := m.Root
	if root == "" {
		root = dataset.TableOrders
	}

	edges := analytics.DefaultEdges
	if len(m.Edges) > 0 {
		edges = make([]analytics.Edge, 0, len(m.Edges))
		for i, e := range m.Edges {
			edge, err := e.toEdge()
			if err != nil {
				return nil, nil, fmt.Errorf("edge %d: %w", i, err)
			}
			edges = append(edges, edge)
		}
	}

	facets := append([]analytics.Facet(nil), analytics.DefaultFacets...)
	if len(m.Facets) > 0 {
		facets = make([]analytics.Facet, 0, len(m.Facets))
		seen := make(map[string]bool, len(m.Facets))
		for i, f := range m.Facets {
			if f.Name == "" || f.Table == "" || f.Column == "" {
				return nil, nil, fmt.Errorf("facet %d: name, table and column are required", i)
			}
			if seen[f.Name] {
				return nil, nil, fmt.Errorf("facet %d: duplicate name %q", i, f.Name)
			}
			seen[f.Name] = true
			facets = append(facets, analytics.Facet{Name: f.Name, Table: f.Table, Column: f.Column})
		}
	}

	return analytics.NewGraph(root, edges...), facets, nil
}

func (e ModelEdge) toEdge() (analytics.Edge, error) {
	if e.From == "" || e.To == "" || e.FromKey == "" || e.ToKey == "" {
		return analytics.Edge{}, fmt.Errorf("from, from_key, to and to_key are required")
	}

	card := analytics.Cardinality(e.Cardinality)
	switch card {
	case "":
		card = analytics.ManyToOne
	case analytics.OneToMany, analytics.ManyToOne, analytics.OneToOne, analytics.ManyToMany:
	default:
		return analytics.Edge{}, fmt.Errorf("unknown cardinality %q", e.Cardinality)
	}

	join := analytics.JoinKind(e.Join)
	switch join {
	case "":
		join = analytics.InnerJoin
	case analytics.InnerJoin, analytics.LeftJoin:
	default:
		return analytics.Edge{}, fmt.Errorf("unknown join %q", e.Join)
	}

	return analytics.Edge{
		From:        e.From,
		FromKey:     e.FromKey,
		To:          e.To,
		ToKey:       e.ToKey,
		Cardinality: card,
		Join:        join,
	}, nil
}

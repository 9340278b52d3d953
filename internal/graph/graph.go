// Package graph builds keyword co-occurrence graphs from fetched documents.
package graph

import (
	"cmp"
	"slices"
)

// NodeType distinguishes keyword nodes from article nodes.
type NodeType string

// Node types.
const (
	NodeKeyword NodeType = "keyword"
	NodeArticle NodeType = "article"
)

// EdgeKind distinguishes the two edge meanings.
type EdgeKind string

// Edge kinds.
const (
	// EdgeCooccurrence links two keywords extracted from the same document.
	EdgeCooccurrence EdgeKind = "cooccurrence"
	// EdgeMention links an article to a keyword extracted from it.
	EdgeMention EdgeKind = "mention"
)

const articlePrefix = "article:"

// Node is a graph vertex.
type Node struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	Type      NodeType `json:"type"`
	Frequency int      `json:"frequency"`
}

// Edge is an undirected, weighted link. A is always lexicographically smaller than B.
type Edge struct {
	A      string   `json:"a"`
	B      string   `json:"b"`
	Kind   EdgeKind `json:"kind"`
	Weight int      `json:"weight"`
}

// Graph is the result of one build. Nodes are sorted by ID, edges by (A, B).
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Empty reports whether the graph has no nodes.
func (g *Graph) Empty() bool {
	return g == nil || len(g.Nodes) == 0
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	i, found := slices.BinarySearchFunc(g.Nodes, id, func(n Node, id string) int {
		return cmp.Compare(n.ID, id)
	})
	if !found {
		return Node{}, false
	}

	return g.Nodes[i], true
}

// Edge returns the edge between a and b in either order.
func (g *Graph) Edge(a, b string) (Edge, bool) {
	key := newPair(a, b)

	i, found := slices.BinarySearchFunc(g.Edges, key, func(e Edge, k pair) int {
		return comparePairs(pair{e.A, e.B}, k)
	})
	if !found {
		return Edge{}, false
	}

	return g.Edges[i], true
}

// Keywords returns keyword nodes ordered by frequency, highest first, then by label.
func (g *Graph) Keywords() []Node {
	var out []Node

	for _, n := range g.Nodes {
		if n.Type == NodeKeyword {
			out = append(out, n)
		}
	}

	slices.SortStableFunc(out, func(a, b Node) int {
		if c := cmp.Compare(b.Frequency, a.Frequency); c != 0 {
			return c
		}

		return cmp.Compare(a.Label, b.Label)
	})

	return out
}

// StrongestEdges returns up to n co-occurrence edges ordered by weight, highest first.
func (g *Graph) StrongestEdges(n int) []Edge {
	var out []Edge

	for _, e := range g.Edges {
		if e.Kind == EdgeCooccurrence {
			out = append(out, e)
		}
	}

	slices.SortStableFunc(out, func(a, b Edge) int {
		return cmp.Compare(b.Weight, a.Weight)
	})

	if n >= 0 && len(out) > n {
		out = out[:n]
	}

	return out
}

// Degree counts the co-occurrence edges touching each keyword.
func (g *Graph) Degree() map[string]int {
	out := make(map[string]int)

	for _, e := range g.Edges {
		if e.Kind == EdgeCooccurrence {
			out[e.A]++
			out[e.B]++
		}
	}

	return out
}

// ArticleID is the node id used for an article title.
func ArticleID(title string) string {
	return articlePrefix + title
}

// pair is an unordered node-id pair normalized so that a < b.
type pair struct {
	a, b string
}

func newPair(x, y string) pair {
	if y < x {
		x, y = y, x
	}

	return pair{a: x, b: y}
}

func comparePairs(p, q pair) int {
	if c := cmp.Compare(p.a, q.a); c != 0 {
		return c
	}

	return cmp.Compare(p.b, q.b)
}

package movegraph

import (
	"fmt"
	"slices"
)

// Edge is a directed pair of node indices. Count is the number of table
// declarations that produced it.
type Edge struct {
	From  int
	To    int
	Count int
}

// Graph is an arena of labelled nodes with deduplicated directed edges.
type Graph struct {
	directed bool
	labels   []string
	index    map[string]int
	succ     [][]int
	pred     [][]int
	counts   map[[2]int]int
}

// New returns an empty graph.
func New(directed bool) *Graph {
	return &Graph{
		directed: directed,
		index:    make(map[string]int),
		counts:   make(map[[2]int]int),
	}
}

// Directed reports whether adjacency output follows edge direction.
func (g *Graph) Directed() bool { return g.directed }

// Len returns the node count.
func (g *Graph) Len() int { return len(g.labels) }

// Label returns the label of node i.
func (g *Graph) Label(i int) string { return g.labels[i] }

// Labels returns a copy of all labels in node order.
func (g *Graph) Labels() []string { return slices.Clone(g.labels) }

// Index resolves a label to its node index.
func (g *Graph) Index(label string) (int, bool) {
	i, ok := g.index[label]
	return i, ok
}

// AddNode appends a node and returns its index. Adding an existing label is
// an error.
func (g *Graph) AddNode(label string) (int, error) {
	if _, ok := g.index[label]; ok {
		return 0, fmt.Errorf("node %q already exists", label)
	}
	i := len(g.labels)
	g.labels = append(g.labels, label)
	g.index[label] = i
	g.succ = append(g.succ, nil)
	g.pred = append(g.pred, nil)
	return i, nil
}

// AddEdge records one declaration of from→to.
func (g *Graph) AddEdge(from, to int) {
	key := [2]int{from, to}
	g.counts[key]++
	if g.counts[key] > 1 {
		return
	}
	g.succ[from] = insertSorted(g.succ[from], to)
	g.pred[to] = insertSorted(g.pred[to], from)
}

// Successors returns the sorted out-neighbours of node i.
func (g *Graph) Successors(i int) []int { return slices.Clone(g.succ[i]) }

// Predecessors returns the sorted in-neighbours of node i.
func (g *Graph) Predecessors(i int) []int { return slices.Clone(g.pred[i]) }

// Neighbors returns the sorted union of successors and predecessors,
// excluding i itself.
func (g *Graph) Neighbors(i int) []int {
	out := make([]int, 0, len(g.succ[i])+len(g.pred[i]))
	out = append(out, g.succ[i]...)
	out = append(out, g.pred[i]...)
	slices.Sort(out)
	out = slices.Compact(out)
	return slices.DeleteFunc(out, func(n int) bool { return n == i })
}

// Adjacent returns successors for a directed graph and neighbours otherwise.
func (g *Graph) Adjacent(i int) []int {
	if g.directed {
		return g.Successors(i)
	}
	return g.Neighbors(i)
}

// Edges lists every edge ordered by (From, To).
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, len(g.counts))
	for from, targets := range g.succ {
		for _, to := range targets {
			edges = append(edges, Edge{From: from, To: to, Count: g.counts[[2]int{from, to}]})
		}
	}
	return edges
}

// EdgeCount returns the number of distinct directed edges.
func (g *Graph) EdgeCount() int { return len(g.counts) }

// OneSided returns edges declared only once, i.e. by one endpoint's
// prereq/subseq column but not reciprocated by the other.
func (g *Graph) OneSided() []Edge {
	var out []Edge
	for _, e := range g.Edges() {
		if e.Count == 1 {
			out = append(out, e)
		}
	}
	return out
}

func insertSorted(list []int, v int) []int {
	pos, found := slices.BinarySearch(list, v)
	if found {
		return list
	}
	return slices.Insert(list, pos, v)
}

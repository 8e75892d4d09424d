package movegraph

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"datapipe/internal/fileutil"
	"datapipe/internal/services"
)

// AdjEntry is one key of the adjacency-list artifact.
type AdjEntry struct {
	Node      string
	Neighbors []string
}

// AdjList renders the graph as ordered adjacency entries: successors for a
// directed graph, all neighbours for an undirected one. Keys follow node
// order and neighbour lists follow neighbour index order.
func (g *Graph) AdjList() []AdjEntry {
	entries := make([]AdjEntry, g.Len())
	for i := range g.labels {
		adjacent := g.Adjacent(i)
		neighbors := make([]string, len(adjacent))
		for j, n := range adjacent {
			neighbors[j] = g.labels[n]
		}
		entries[i] = AdjEntry{Node: g.labels[i], Neighbors: neighbors}
	}
	return entries
}

// FromAdjList rebuilds a graph from adjacency entries. Every neighbour must
// also appear as a key. The artifact does not carry declaration counts, so
// every edge of the result counts as declared once and OneSided is only
// meaningful on a graph produced by Build.
func FromAdjList(entries []AdjEntry, directed bool) (*Graph, error) {
	g := New(directed)
	for _, e := range entries {
		if _, err := g.AddNode(e.Node); err != nil {
			return nil, services.Wrap(services.ErrDataIntegrity, "graph", "load adjacency", err.Error(), nil)
		}
	}
	for _, e := range entries {
		from, _ := g.Index(e.Node)
		for _, n := range e.Neighbors {
			to, ok := g.Index(n)
			if !ok {
				return nil, services.Wrap(services.ErrDataIntegrity, "graph", "load adjacency",
					fmt.Sprintf("node %q lists unknown neighbour %q", e.Node, n), nil)
			}
			g.AddEdge(from, to)
		}
	}
	return g, nil
}

// MarshalAdjList encodes entries as a JSON object with keys in entry order.
func MarshalAdjList(entries []AdjEntry) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, e := range entries {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  ")
		key, err := json.Marshal(e.Node)
		if err != nil {
			return nil, err
		}
		neighbors := e.Neighbors
		if neighbors == nil {
			neighbors = []string{}
		}
		value, err := json.Marshal(neighbors)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(value)
	}
	if len(entries) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// UnmarshalAdjList decodes an adjacency JSON object preserving key order.
func UnmarshalAdjList(data []byte) ([]AdjEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode adjacency: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, services.Wrap(services.ErrDataIntegrity, "graph", "decode adjacency", "expected JSON object", nil)
	}
	var entries []AdjEntry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode adjacency key: %w", err)
		}
		key, _ := tok.(string)
		var neighbors []string
		if err := dec.Decode(&neighbors); err != nil {
			return nil, fmt.Errorf("decode neighbours of %q: %w", key, err)
		}
		entries = append(entries, AdjEntry{Node: key, Neighbors: neighbors})
	}
	if _, err := dec.Token(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode adjacency: %w", err)
	}
	return entries, nil
}

// SaveAdjList writes the graph's adjacency list to path.
func SaveAdjList(path string, g *Graph) error {
	data, err := MarshalAdjList(g.AdjList())
	if err != nil {
		return fmt.Errorf("encode adjacency: %w", err)
	}
	return fileutil.WriteFileAtomic(path, data, 0o644)
}

// LoadAdjList reads an adjacency artifact and rebuilds the graph.
func LoadAdjList(path string, directed bool) (*Graph, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, services.Wrap(services.ErrNotFound, "graph", "read adjacency", path, err)
	}
	if err != nil {
		return nil, fmt.Errorf("read adjacency %s: %w", path, err)
	}
	entries, err := UnmarshalAdjList(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return FromAdjList(entries, directed)
}

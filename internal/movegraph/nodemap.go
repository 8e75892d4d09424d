package movegraph

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"

	"datapipe/internal/fileutil"
	"datapipe/internal/services"
)

// NodeMap is a bijection from move name to consecutive integer id.
type NodeMap struct {
	names []string
	ids   map[string]int
}

// NewNodeMap assigns ids in node order. Build adds nodes in ascending move
// id order, so id 0 is the move with the smallest table id.
func NewNodeMap(g *Graph) *NodeMap {
	m, _ := nodeMapFromNames(g.Labels())
	return m
}

func nodeMapFromNames(names []string) (*NodeMap, error) {
	ids := make(map[string]int, len(names))
	for i, name := range names {
		if _, dup := ids[name]; dup {
			return nil, services.Wrap(services.ErrDataIntegrity, "relabel", "build map",
				fmt.Sprintf("name %q mapped twice", name), nil)
		}
		ids[name] = i
	}
	return &NodeMap{names: slices.Clone(names), ids: ids}, nil
}

// Len returns the number of mapped names.
func (m *NodeMap) Len() int { return len(m.names) }

// ID returns the integer id for name.
func (m *NodeMap) ID(name string) (int, bool) {
	id, ok := m.ids[name]
	return id, ok
}

// Name returns the name mapped to id.
func (m *NodeMap) Name(id int) (string, bool) {
	if id < 0 || id >= len(m.names) {
		return "", false
	}
	return m.names[id], true
}

// Names returns names in id order.
func (m *NodeMap) Names() []string { return slices.Clone(m.names) }

// Covers checks the map holds exactly the graph's node labels.
func (m *NodeMap) Covers(g *Graph) error {
	if m.Len() != g.Len() {
		return services.Wrap(services.ErrDataIntegrity, "relabel", "check map",
			fmt.Sprintf("map has %d names for %d nodes", m.Len(), g.Len()), nil)
	}
	for _, label := range g.labels {
		if _, ok := m.ids[label]; !ok {
			return services.Wrap(services.ErrDataIntegrity, "relabel", "check map",
				fmt.Sprintf("node %q missing from map", label), nil)
		}
	}
	return nil
}

// Apply returns a copy of g whose node i is labelled strconv.Itoa(i) for
// the name mapped to i. The permutation is fully validated before the new
// arena is built.
func (m *NodeMap) Apply(g *Graph) (*Graph, error) {
	if err := m.Covers(g); err != nil {
		return nil, err
	}
	perm := make([]int, g.Len())
	labels := make([]string, g.Len())
	for i, label := range g.labels {
		id := m.ids[label]
		perm[i] = id
		labels[id] = strconv.Itoa(id)
	}
	return rebuild(g, perm, labels), nil
}

// Restore is the inverse of Apply: it relabels an integer-labelled graph
// back to move names.
func (m *NodeMap) Restore(g *Graph) (*Graph, error) {
	if g.Len() != m.Len() {
		return nil, services.Wrap(services.ErrDataIntegrity, "relabel", "restore",
			fmt.Sprintf("map has %d names for %d nodes", m.Len(), g.Len()), nil)
	}
	perm := make([]int, g.Len())
	seen := make([]bool, g.Len())
	for i, label := range g.labels {
		id, err := strconv.Atoi(label)
		if err != nil || id < 0 || id >= m.Len() || seen[id] {
			return nil, services.Wrap(services.ErrDataIntegrity, "relabel", "restore",
				fmt.Sprintf("node label %q is not a mapped id", label), nil)
		}
		seen[id] = true
		perm[i] = id
	}
	return rebuild(g, perm, m.Names()), nil
}

// rebuild constructs a new arena where old node i becomes perm[i] labelled
// labels[perm[i]]. Edge declaration counts carry over.
func rebuild(g *Graph, perm []int, labels []string) *Graph {
	out := New(g.directed)
	out.labels = labels
	out.succ = make([][]int, len(labels))
	out.pred = make([][]int, len(labels))
	for i, label := range labels {
		out.index[label] = i
	}
	for key, count := range g.counts {
		from, to := perm[key[0]], perm[key[1]]
		out.counts[[2]int{from, to}] = count
		out.succ[from] = insertSorted(out.succ[from], to)
		out.pred[to] = insertSorted(out.pred[to], from)
	}
	return out
}

// MarshalJSON writes the map as a name → id object in id order.
func (m *NodeMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{")
	for id, name := range m.names {
		if id > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  ")
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteString(": ")
		buf.WriteString(strconv.Itoa(id))
	}
	if len(m.names) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}")
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a name → id object. Ids must form exactly 0..N-1.
func (m *NodeMap) UnmarshalJSON(data []byte) error {
	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	names := make([]string, len(raw))
	filled := make([]bool, len(raw))
	for name, id := range raw {
		if id < 0 || id >= len(raw) || filled[id] {
			return services.Wrap(services.ErrDataIntegrity, "relabel", "decode map",
				fmt.Sprintf("id %d for %q is out of range or reused", id, name), nil)
		}
		names[id] = name
		filled[id] = true
	}
	parsed, err := nodeMapFromNames(names)
	if err != nil {
		return err
	}
	*m = *parsed
	return nil
}

// SaveNodeMap persists the map as JSON.
func SaveNodeMap(path string, m *NodeMap) error {
	data, err := m.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode node map: %w", err)
	}
	return fileutil.WriteFileAtomic(path, append(data, '\n'), 0o644)
}

// LoadNodeMap reads a persisted map.
func LoadNodeMap(path string) (*NodeMap, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, services.Wrap(services.ErrNotFound, "relabel", "read node map", path, err)
	}
	if err != nil {
		return nil, fmt.Errorf("read node map %s: %w", path, err)
	}
	var m NodeMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

// ResolveNodeMap reuses the map at path when it covers exactly the graph's
// nodes, otherwise derives a fresh one from g. The boolean reports reuse.
func ResolveNodeMap(path string, g *Graph) (*NodeMap, bool, error) {
	existing, err := LoadNodeMap(path)
	switch {
	case errors.Is(err, services.ErrNotFound):
		return NewNodeMap(g), false, nil
	case err != nil:
		return nil, false, err
	}
	if existing.Covers(g) != nil {
		return NewNodeMap(g), false, nil
	}
	return existing, true, nil
}

package movegraph

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"datapipe/internal/movetable"
	"datapipe/internal/services"
)

// Options controls graph construction.
type Options struct {
	Directed bool
}

// DefaultOptions builds a directed graph.
func DefaultOptions() Options {
	return Options{Directed: true}
}

// Build converts the move table into a graph with one node per row. Nodes
// are added in ascending move id order. Every prereq name yields an edge
// prereq→move and every subseq name an edge move→subseq. Ids outside a
// contiguous 1..N range, duplicate names, unresolved references and a node
// count that differs from the row count are data integrity errors.
func Build(moves []movetable.Move, opts Options) (*Graph, error) {
	if err := checkIDs(moves); err != nil {
		return nil, err
	}

	ordered := slices.Clone(moves)
	slices.SortStableFunc(ordered, func(a, b movetable.Move) int { return cmp.Compare(a.ID, b.ID) })

	g := New(opts.Directed)
	var duplicates []string
	for _, m := range ordered {
		if _, err := g.AddNode(m.Name); err != nil {
			duplicates = append(duplicates, fmt.Sprintf("%q (id %d)", m.Name, m.ID))
		}
	}
	if len(duplicates) > 0 {
		return nil, services.Wrap(services.ErrDataIntegrity, "graph", "add nodes",
			"duplicate move names: "+strings.Join(duplicates, ", "), nil)
	}

	var unresolved []string
	resolve := func(m movetable.Move, column, name string) (int, bool) {
		idx, ok := g.Index(name)
		if !ok {
			unresolved = append(unresolved, fmt.Sprintf("id %d %s %q", m.ID, column, name))
		}
		return idx, ok
	}
	for _, m := range ordered {
		self, _ := g.Index(m.Name)
		for _, name := range m.Prereq {
			if from, ok := resolve(m, movetable.ColumnPrereq, name); ok {
				g.AddEdge(from, self)
			}
		}
		for _, name := range m.Subseq {
			if to, ok := resolve(m, movetable.ColumnSubseq, name); ok {
				g.AddEdge(self, to)
			}
		}
	}
	if len(unresolved) > 0 {
		return nil, services.Wrap(services.ErrDataIntegrity, "graph", "resolve edges",
			"unresolved move names: "+strings.Join(unresolved, "; "), nil)
	}

	if g.Len() != len(moves) {
		return nil, services.Wrap(services.ErrDataIntegrity, "graph", "count nodes",
			fmt.Sprintf("graph has %d nodes for %d rows", g.Len(), len(moves)), nil)
	}
	return g, nil
}

// checkIDs requires the ids to be exactly 1..N with no repeats.
func checkIDs(moves []movetable.Move) error {
	seen := make(map[int]int, len(moves))
	var repeated, outside []string
	for _, m := range moves {
		seen[m.ID]++
		if seen[m.ID] == 2 {
			repeated = append(repeated, fmt.Sprint(m.ID))
		}
		if m.ID < 1 || m.ID > len(moves) {
			outside = append(outside, fmt.Sprint(m.ID))
		}
	}
	var missing []string
	for id := 1; id <= len(moves); id++ {
		if seen[id] == 0 {
			missing = append(missing, fmt.Sprint(id))
		}
	}
	if len(missing) == 0 && len(repeated) == 0 {
		return nil
	}

	var problems []string
	if len(missing) > 0 {
		problems = append(problems, "missing ids "+strings.Join(missing, ", "))
	}
	if len(repeated) > 0 {
		problems = append(problems, "repeated ids "+strings.Join(repeated, ", "))
	}
	if len(outside) > 0 {
		problems = append(problems, "ids outside 1.."+fmt.Sprint(len(moves))+": "+strings.Join(outside, ", "))
	}
	return services.Wrap(services.ErrDataIntegrity, "graph", "check ids",
		"move ids must form 1.."+fmt.Sprint(len(moves))+": "+strings.Join(problems, "; "), nil)
}

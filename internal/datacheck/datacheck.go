package datacheck

import (
	"fmt"
	"slices"
	"strings"

	"datapipe/internal/movetable"
	"datapipe/internal/services"
)

// Pair is a 1-indexed (row, col) matrix position.
type Pair struct {
	Row int
	Col int
}

// Unresolved is a prereq/subseq name with no matching move.
type Unresolved struct {
	MoveID int
	Column string
	Name   string
}

// ValidIDs reports whether the sorted ids are exactly 1..N.
func ValidIDs(moves []movetable.Move) bool {
	ids := make([]int, len(moves))
	for i, m := range moves {
		ids[i] = m.ID
	}
	slices.Sort(ids)
	for i, id := range ids {
		if id != i+1 {
			return false
		}
	}
	return true
}

// Duplicated returns every row whose name appears more than once, in table
// order.
func Duplicated(moves []movetable.Move) []movetable.Move {
	counts := make(map[string]int, len(moves))
	for _, m := range moves {
		counts[m.Name]++
	}
	var out []movetable.Move
	for _, m := range moves {
		if counts[m.Name] > 1 {
			out = append(out, m)
		}
	}
	return out
}

// FindEmpty returns the 1-indexed rows where column is blank.
func FindEmpty(moves []movetable.Move, column string) ([]int, error) {
	var rows []int
	for i, m := range moves {
		value, err := m.Field(column)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(value) == "" {
			rows = append(rows, i+1)
		}
	}
	return rows, nil
}

// Adjacency builds the N×N declaration matrix: entry (i, j) counts how many
// times move i+1 names move j+1 in its prereq or subseq column. Names that
// match no move are returned alongside the matrix. Ids must satisfy
// ValidIDs.
func Adjacency(moves []movetable.Move) ([][]int, []Unresolved, error) {
	if !ValidIDs(moves) {
		return nil, nil, services.Wrap(services.ErrDataIntegrity, "check", "adjacency",
			"move ids are not a contiguous 1..N range", nil)
	}
	n := len(moves)
	ids := make(map[string]int, n)
	for _, m := range moves {
		if _, ok := ids[m.Name]; !ok {
			ids[m.Name] = m.ID
		}
	}
	matrix := make([][]int, n)
	for i := range matrix {
		matrix[i] = make([]int, n)
	}
	var unresolved []Unresolved
	for _, m := range moves {
		for _, ref := range []struct {
			column string
			names  []string
		}{{movetable.ColumnPrereq, m.Prereq}, {movetable.ColumnSubseq, m.Subseq}} {
			for _, name := range ref.names {
				target, ok := ids[name]
				if !ok {
					unresolved = append(unresolved, Unresolved{MoveID: m.ID, Column: ref.column, Name: name})
					continue
				}
				matrix[m.ID-1][target-1]++
			}
		}
	}
	return matrix, unresolved, nil
}

// CheckSymmetry returns the 1-indexed upper-triangle positions where
// m[i][j] != m[j][i], or nil when the matrix is symmetric. A non-square
// matrix is an error.
func CheckSymmetry(m [][]int) ([]Pair, error) {
	n := len(m)
	for i, row := range m {
		if len(row) != n {
			return nil, fmt.Errorf("matrix row %d has %d columns, want %d", i+1, len(row), n)
		}
	}
	var pairs []Pair
	for i := range n {
		for j := i + 1; j < n; j++ {
			if m[i][j] != m[j][i] {
				pairs = append(pairs, Pair{Row: i + 1, Col: j + 1})
			}
		}
	}
	return pairs, nil
}

// Package features exports bag-of-words name features with multi-hot type
// labels for each move.
package features

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"datapipe/internal/fileutil"
	"datapipe/internal/movetable"
	"datapipe/internal/textutil"
)

// FileName is the artifact written under the features directory.
const FileName = "bag-of-words-multi-binary-label.json"

// Row is the feature vector of one move.
type Row struct {
	Name   string
	Bag    []int
	Labels []int
}

// MarshalJSON encodes a row as [name, bag, labels].
func (r Row) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{r.Name, r.Bag, r.Labels})
}

// Set holds both vocabularies and one row per move in table order.
type Set struct {
	Terms  []string
	Labels []string
	Rows   []Row
}

// Build derives the term vocabulary from lowercased whitespace-split names
// and the label vocabulary from slash-split types, both in first-appearance
// order.
func Build(moves []movetable.Move) Set {
	termIndex := map[string]int{}
	labelIndex := map[string]int{}
	var set Set
	for _, m := range moves {
		for _, term := range textutil.Terms(m.Name) {
			if _, ok := termIndex[term]; !ok {
				termIndex[term] = len(set.Terms)
				set.Terms = append(set.Terms, term)
			}
		}
		for _, label := range m.Types() {
			if _, ok := labelIndex[label]; !ok {
				labelIndex[label] = len(set.Labels)
				set.Labels = append(set.Labels, label)
			}
		}
	}

	set.Rows = make([]Row, len(moves))
	for i, m := range moves {
		row := Row{Name: m.Name, Bag: make([]int, len(set.Terms)), Labels: make([]int, len(set.Labels))}
		for _, term := range textutil.Terms(m.Name) {
			row.Bag[termIndex[term]]++
		}
		for _, label := range m.Types() {
			row.Labels[labelIndex[label]] = 1
		}
		set.Rows[i] = row
	}
	return set
}

// Marshal encodes rows as a JSON object keyed by row index in row order.
func (s Set) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, row := range s.Rows {
		if i > 0 {
			buf.WriteString(",")
		}
		value, err := json.Marshal(row)
		if err != nil {
			return nil, err
		}
		buf.WriteString("\n  ")
		buf.WriteString(strconv.Quote(strconv.Itoa(i)))
		buf.WriteString(": ")
		buf.Write(value)
	}
	if len(s.Rows) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// Save writes the feature set to path.
func Save(path string, s Set) error {
	data, err := s.Marshal()
	if err != nil {
		return fmt.Errorf("encode features: %w", err)
	}
	return fileutil.WriteFileAtomic(path, data, 0o644)
}

// Package movegraph builds the prerequisite/successor graph over the move
// table, relabels it to consecutive integer ids, and reports its connected
// components.
//
// Graphs are stored as an arena: node index → label, label → index, and
// sorted successor/predecessor index sets. Relabeling rebuilds the arena in a
// single pass from a validated permutation, so a graph never holds a mix of
// name and integer labels.
package movegraph

// Package datacheck holds read-only diagnostics over the move table: id
// contiguity, duplicate names, empty fields, and the declaration adjacency
// matrix with its symmetry report.
//
// Checks never mutate their input and report problems as values; callers
// decide whether a finding should stop a run.
package datacheck

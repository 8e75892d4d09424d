// Package pipeline runs the dataset stages in order: build the move graph
// from the move table, relabel it to consecutive integer ids, then generate
// the train/validation/test masks.
//
// Each run gets a uuid run id and holds an exclusive flock on the state
// directory so two runs never write artifacts at the same time. Stages that
// are not requested read the previous stage's artifact from disk instead,
// which lets the CLI rerun masks without rebuilding the graph.
package pipeline

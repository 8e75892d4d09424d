// Package masks partitions a relabeled move graph into train, validation and
// test node masks for graph extrapolation tasks.
//
// The largest connected component of the undirected view becomes the train
// set, every other node starts in validation, and a seeded sample of the
// validation pool moves to test. Masks are checked to cover every node
// exactly once before they are written.
package masks

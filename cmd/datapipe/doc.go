// Package main hosts the datapipe CLI entrypoint and command graph.
//
// The Cobra-based command tree wires configuration loading, structured
// logging and the run lock around the internal packages: graph building,
// relabeling and mask generation, data sanity checks, video collection,
// thumbnails and feature export. Keep this package lean: add behaviour to an
// internal package first, then surface it through a command here.
package main

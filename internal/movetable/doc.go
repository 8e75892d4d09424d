// Package movetable reads and writes the tab-separated move and video tables
// that feed every other stage.
//
// A move row is a node descriptor (id, name, prereq, subseq, type, alias,
// description); a video row links a move id to a clip (title, channel, link,
// time, embed, thumbnail). Columns are located by header name so column order
// in the source file does not matter.
package movetable

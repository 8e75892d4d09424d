// Package textutil provides text helpers for video filenames and move name
// terms.
//
// Canonical embed names are what the collector renames downloaded clips to:
// the move name lowercased, trimmed, spaces replaced with underscores, with
// an .mp4 suffix. Filesystem-unsafe characters are replaced first so a move
// name can never escape the video directory.
package textutil

// Package thumbnail extracts one representative frame per clip and resizes
// clips, delegating all video work to ffmpeg and ffprobe.
//
// ExtractAll processes a directory in bounded batches. Each worker writes only
// its own pre-sized result slot and the caller merges a batch after every
// worker in it has returned. A clip whose frame cannot be produced is logged
// and left out of the mapping; Missing reports those keys.
package thumbnail

// Package ffprobe wraps the ffprobe JSON output needed to locate a clip's
// representative frame: the video stream and the clip duration.
package ffprobe

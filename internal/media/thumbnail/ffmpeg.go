package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"datapipe/internal/media/ffprobe"
	"datapipe/internal/services"
)

// Extractor returns one encoded image for a clip.
type Extractor interface {
	Thumbnail(ctx context.Context, path string) ([]byte, error)
}

// FFmpeg grabs the frame at the clip midpoint as a JPEG.
type FFmpeg struct {
	FFmpegBinary  string
	FFprobeBinary string
	Width         int
	Height        int
}

// Thumbnail probes the clip duration and extracts the middle frame scaled to
// the configured size.
func (f FFmpeg) Thumbnail(ctx context.Context, path string) ([]byte, error) {
	probe, err := ffprobe.Inspect(ctx, f.FFprobeBinary, path)
	if err != nil {
		return nil, err
	}
	if _, ok := probe.VideoStream(); !ok {
		return nil, services.Wrap(services.ErrExternalTool, "thumbnails", "probe", path+" has no video stream", nil)
	}

	args := []string{
		"-v", "error", "-hide_banner",
		"-ss", strconv.FormatFloat(probe.MidpointSeconds(), 'f', 3, 64),
		"-i", path,
		"-frames:v", "1",
		"-vf", scaleFilter(f.Width, f.Height),
		"-f", "image2pipe", "-vcodec", "mjpeg", "-",
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binaryOr(f.FFmpegBinary, "ffmpeg"), args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "thumbnails", "ffmpeg frame", strings.TrimSpace(stderr.String()), err)
	}
	if stdout.Len() == 0 {
		return nil, services.Wrap(services.ErrExternalTool, "thumbnails", "ffmpeg frame", path+" produced no image", nil)
	}
	return stdout.Bytes(), nil
}

// Resize rescales src into dst as mp4. Audio is copied unchanged.
func Resize(ctx context.Context, ffmpegBinary, src, dst string, width, height int) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create resize directory: %w", err)
	}
	args := []string{
		"-v", "error", "-hide_banner", "-y",
		"-i", src,
		"-vf", scaleFilter(width, height),
		"-c:a", "copy",
		dst,
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binaryOr(ffmpegBinary, "ffmpeg"), args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		_ = os.Remove(dst)
		return services.Wrap(services.ErrExternalTool, "videos", "ffmpeg resize", strings.TrimSpace(stderr.String()), err)
	}
	if _, err := os.Stat(dst); errors.Is(err, os.ErrNotExist) {
		return services.Wrap(services.ErrExternalTool, "videos", "ffmpeg resize", dst+" was not written", nil)
	}
	return nil
}

func scaleFilter(width, height int) string {
	return fmt.Sprintf("scale=%d:%d", width, height)
}

func binaryOr(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

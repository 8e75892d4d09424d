package collect

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strings"

	"datapipe/internal/services"
)

// Downloader fetches one link into dst.
type Downloader interface {
	Download(ctx context.Context, link, dst string) error
}

// YTDLP downloads YouTube and Instagram links with yt-dlp.
type YTDLP struct {
	Binary string
}

// Supported reports whether the link's host is one yt-dlp is used for.
func Supported(link string) bool {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, suffix := range []string{"youtube.com", "youtu.be", "instagram.com"} {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return true
		}
	}
	return false
}

// Download runs yt-dlp for link, writing a single mp4 to dst.
func (y YTDLP) Download(ctx context.Context, link, dst string) error {
	if !Supported(link) {
		return services.Wrap(services.ErrExternalTool, "collect", "download", fmt.Sprintf("unsupported link %q", link), nil)
	}
	binary := strings.TrimSpace(y.Binary)
	if binary == "" {
		binary = "yt-dlp"
	}
	args := []string{
		"--quiet", "--no-warnings", "--no-playlist",
		"--format", "mp4/bestvideo[ext=mp4]+bestaudio[ext=m4a]/best",
		"--merge-output-format", "mp4",
		"--output", dst,
		"--", link,
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return services.Wrap(services.ErrExternalTool, "collect", "yt-dlp", strings.TrimSpace(stderr.String()), err)
	}
	if _, err := os.Stat(dst); errors.Is(err, os.ErrNotExist) {
		return services.Wrap(services.ErrExternalTool, "collect", "yt-dlp", dst+" was not written", nil)
	}
	return nil
}

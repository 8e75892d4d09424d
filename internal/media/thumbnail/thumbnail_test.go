package thumbnail

import (
	"context"
	"encoding/base64"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"datapipe/internal/logging"
	"datapipe/internal/services"
	"datapipe/internal/testsupport"
)

type fakeExtractor struct {
	fail    map[string]bool
	cancel  context.CancelFunc
	calls   atomic.Int32
	current atomic.Int32
	peak    atomic.Int32
}

func (f *fakeExtractor) Thumbnail(ctx context.Context, path string) ([]byte, error) {
	f.calls.Add(1)
	if f.cancel != nil {
		f.cancel()
		return nil, ctx.Err()
	}
	n := f.current.Add(1)
	defer f.current.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	name := filepath.Base(path)
	if f.fail[name] {
		return nil, services.Wrap(services.ErrExternalTool, "thumbnails", "fake", name, nil)
	}
	return []byte("jpeg:" + name), nil
}

func writeClips(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		testsupport.WriteClip(t, filepath.Join(dir, name))
	}
}

func TestExtractAllOmitsFailures(t *testing.T) {
	dir := t.TempDir()
	writeClips(t, dir, "a.mp4", "b.mp4", "c.mp4", "d.mp4", "e.mp4", ".hidden")
	extractor := &fakeExtractor{fail: map[string]bool{"c.mp4": true}}

	got, err := ExtractAll(context.Background(), dir, extractor, 2, logging.NewNop())
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 thumbnails, got %d", len(got))
	}
	want := DataURI([]byte("jpeg:a.mp4"))
	if got["a.mp4"] != want {
		t.Fatalf("a.mp4 = %q, want %q", got["a.mp4"], want)
	}
	missing := Missing([]string{"a.mp4", "b.mp4", "c.mp4", "d.mp4", "e.mp4"}, got)
	if diff := cmp.Diff([]string{"c.mp4"}, missing); diff != "" {
		t.Fatalf("missing mismatch (-want +got):\n%s", diff)
	}
	if extractor.calls.Load() != 5 {
		t.Fatalf("expected 5 extractor calls, got %d", extractor.calls.Load())
	}
	if extractor.peak.Load() > 2 {
		t.Fatalf("batch of 2 ran %d workers at once", extractor.peak.Load())
	}
}

func TestExtractAllStopsWhenCancelled(t *testing.T) {
	dir := t.TempDir()
	writeClips(t, dir, "a.mp4", "b.mp4")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ExtractAll(ctx, dir, &fakeExtractor{}, 1, logging.NewNop())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestExtractAllStopsWhenBatchIsInterrupted(t *testing.T) {
	dir := t.TempDir()
	writeClips(t, dir, "a.mp4", "b.mp4", "c.mp4")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	extractor := &fakeExtractor{cancel: cancel}

	got, err := ExtractAll(ctx, dir, extractor, 2, logging.NewNop())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no thumbnails, got %v", got)
	}
	if extractor.calls.Load() != 2 {
		t.Fatalf("expected only the first batch to run, got %d calls", extractor.calls.Load())
	}
}

func TestExtractAllMissingDir(t *testing.T) {
	_, err := ExtractAll(context.Background(), filepath.Join(t.TempDir(), "nope"), &fakeExtractor{}, 1, logging.NewNop())
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDataURI(t *testing.T) {
	uri := DataURI([]byte{0xff, 0xd8})
	if !strings.HasPrefix(uri, "data:image/jpeg;base64,") {
		t.Fatalf("unexpected prefix: %q", uri)
	}
	payload, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/jpeg;base64,"))
	if err != nil || len(payload) != 2 {
		t.Fatalf("payload decode: %v %v", payload, err)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thumbs", "thumbnails.json")
	mapping := map[string]string{"a.mp4": DataURI([]byte("x"))}
	if err := Save(path, mapping); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(mapping, loaded); diff != "" {
		t.Fatalf("mapping mismatch (-want +got):\n%s", diff)
	}
}

const probeJSON = `cat <<'JSON'
{"streams":[{"codec_type":"video","width":640,"height":360}],"format":{"duration":"6.0"}}
JSON
`

func TestFFmpegThumbnailWithStubs(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithStubScript("ffprobe", probeJSON),
		testsupport.WithStubScript("ffmpeg", "printf 'JPEGDATA'\n"),
	)
	clip := filepath.Join(cfg.Paths.VideoSrc, "kong.mp4")
	testsupport.WriteClip(t, clip)

	f := FFmpeg{FFmpegBinary: cfg.FFmpegBinary(), FFprobeBinary: cfg.FFprobeBinary(), Width: 300, Height: 168}
	image, err := f.Thumbnail(context.Background(), clip)
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
	if string(image) != "JPEGDATA" {
		t.Fatalf("unexpected image %q", image)
	}
}

func TestFFmpegThumbnailFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithStubScript("ffprobe", probeJSON),
		testsupport.WithStubScript("ffmpeg", "echo 'decode error' >&2\nexit 1\n"),
	)
	f := FFmpeg{FFmpegBinary: cfg.FFmpegBinary(), FFprobeBinary: cfg.FFprobeBinary(), Width: 300, Height: 168}
	_, err := f.Thumbnail(context.Background(), "broken.mp4")
	if !errors.Is(err, services.ErrExternalTool) || !strings.Contains(err.Error(), "decode error") {
		t.Fatalf("expected external tool error with stderr, got %v", err)
	}
}

func TestResizeAllRecordsFailures(t *testing.T) {
	// The stub copies its input to the last argument unless the input is bad.mp4.
	script := `for a; do last="$a"; done
while [ "$1" != "-i" ]; do shift; done
src="$2"
case "$src" in *bad.mp4) exit 1;; esac
cp "$src" "$last"
`
	cfg := testsupport.NewConfig(t, testsupport.WithStubScript("ffmpeg", script))
	writeClips(t, cfg.Paths.VideoSrc, "bad.mp4", "good.mp4")

	report, err := ResizeAll(context.Background(), cfg.FFmpegBinary(), cfg.Paths.VideoSrc, cfg.Paths.VideoDst, 640, 360, logging.NewNop())
	if err != nil {
		t.Fatalf("ResizeAll: %v", err)
	}
	if diff := cmp.Diff(ResizeReport{Resized: []string{"good.mp4"}, Failed: []string{"bad.mp4"}}, report); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}
	if got := testsupport.ReadText(t, filepath.Join(cfg.Paths.VideoDst, "good.mp4")); got != "clip:good.mp4" {
		t.Fatalf("unexpected resized content %q", got)
	}
}

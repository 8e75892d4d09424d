package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"datapipe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose directories all live under a fresh temp
// directory. The move table path is set but the file is only written by
// WithMoveTable.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.MoveTable = filepath.Join(base, "tables", "moves.tsv")
	cfgVal.Paths.VideoTable = filepath.Join(base, "tables", "videos.tsv")
	cfgVal.Paths.VideoSrc = filepath.Join(base, "videos", "src")
	cfgVal.Paths.VideoDst = filepath.Join(base, "videos", "dst")
	cfgVal.Paths.ThumbnailDir = filepath.Join(base, "thumbnails")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.ReportsDir = filepath.Join(base, "reports")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Tools.EnvFile = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithMoveTable writes a move table with the given rows (each a
// tab-joined line without the trailing newline) below the standard header.
func WithMoveTable(rows ...string) ConfigOption {
	return func(b *configBuilder) {
		WriteTable(b.t, b.cfg.Paths.MoveTable, MoveHeader, rows...)
	}
}

// WithVideoTable writes a video table with the given rows.
func WithVideoTable(rows ...string) ConfigOption {
	return func(b *configBuilder) {
		WriteTable(b.t, b.cfg.Paths.VideoTable, VideoHeader, rows...)
	}
}

// WithTestSplit overrides the dataset split so fractions still sum to one.
func WithTestSplit(train, val, test float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Dataset.TrainSplit = train
		b.cfg.Dataset.ValSplit = val
		b.cfg.Dataset.TestSplit = test
	}
}

// WithStubbedBinaries writes stub executables that exit 0 for the provided
// names and prepends them to PATH. If names is empty, every external tool
// datapipe calls is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"yt-dlp", "ffmpeg", "ffprobe"}
		}
		for _, name := range names {
			WriteStub(b.t, b.baseDir, name, "exit 0\n")
		}
	}
}

// WithStubScript writes one stub executable with the given shell body and
// points the matching tool setting at it.
func WithStubScript(name, body string) ConfigOption {
	return func(b *configBuilder) {
		path := WriteStub(b.t, b.baseDir, name, body)
		switch name {
		case "yt-dlp":
			b.cfg.Tools.YTDLP = path
		case "ffmpeg":
			b.cfg.Tools.FFmpeg = path
		case "ffprobe":
			b.cfg.Tools.FFprobe = path
		}
	}
}

// WriteStub writes an executable shell script under base/bin, prepends that
// directory to PATH for the test and returns the script path.
func WriteStub(t testing.TB, base, name, body string) string {
	t.Helper()

	binDir := filepath.Join(base, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(binDir, name)
	if err := os.WriteFile(target, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	path := os.Getenv("PATH")
	if filepath.SplitList(path)[0] != binDir {
		t.Setenv("PATH", binDir+string(os.PathListSeparator)+path)
	}
	return target
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}

package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"datapipe/internal/config"
	"datapipe/internal/services"
)

func TestLoadDefaultConfigUsesEnvMoveTableAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(tempHome)
	t.Setenv("DATAPIPE_MOVE_TABLE", "~/data/moves.tsv")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if want := filepath.Join(tempHome, "data", "moves.tsv"); cfg.Paths.MoveTable != want {
		t.Fatalf("unexpected move table: got %q want %q", cfg.Paths.MoveTable, want)
	}
	wantOutput := filepath.Join(tempHome, ".local", "share", "datapipe", "output")
	if cfg.Paths.OutputDir != wantOutput {
		t.Fatalf("unexpected output dir: got %q want %q", cfg.Paths.OutputDir, wantOutput)
	}
	if !cfg.Graph.Directed {
		t.Fatal("expected directed graph by default")
	}
	if cfg.Dataset.SampleWithReplacement {
		t.Fatal("expected sampling without replacement by default")
	}
	if cfg.YTDLPBinary() != "yt-dlp" || cfg.FFmpegBinary() != "ffmpeg" || cfg.FFprobeBinary() != "ffprobe" {
		t.Fatalf("unexpected tool defaults: %+v", cfg.Tools)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.OutputDir, cfg.Paths.StateDir, cfg.GraphDir(), cfg.MasksDir()} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "datapipe.toml")

	type payload struct {
		Paths struct {
			MoveTable string `toml:"move_table"`
			OutputDir string `toml:"output_dir"`
		} `toml:"paths"`
		Dataset struct {
			TrainSplit float64 `toml:"train_split"`
			ValSplit   float64 `toml:"val_split"`
			TestSplit  float64 `toml:"test_split"`
			Seed       uint64  `toml:"seed"`
		} `toml:"dataset"`
		Collect struct {
			Whitelist []int `toml:"whitelist"`
		} `toml:"collect"`
	}
	custom := payload{}
	custom.Paths.MoveTable = filepath.Join(tempDir, "moves.tsv")
	custom.Paths.OutputDir = filepath.Join(tempDir, "out")
	custom.Dataset.TrainSplit = 0.6
	custom.Dataset.ValSplit = 0.2
	custom.Dataset.TestSplit = 0.2
	custom.Dataset.Seed = 7
	custom.Collect.Whitelist = []int{3, 5}
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Dataset.Seed != 7 {
		t.Fatalf("expected seed 7, got %d", cfg.Dataset.Seed)
	}
	if cfg.Dataset.TrainSplit != 0.6 {
		t.Fatalf("expected train split 0.6, got %v", cfg.Dataset.TrainSplit)
	}
	if got := cfg.AdjListPath(); got != filepath.Join(tempDir, "out", "graph", "adjlist.json") {
		t.Fatalf("unexpected adjlist path %q", got)
	}
	train, val, test := cfg.MaskPaths()
	if filepath.Base(train) != "train_mask.txt" || filepath.Base(val) != "val_mask.txt" || filepath.Base(test) != "test_mask.txt" {
		t.Fatalf("unexpected mask paths %q %q %q", train, val, test)
	}
	if !cfg.Whitelisted(5) || cfg.Whitelisted(4) {
		t.Fatalf("unexpected whitelist behaviour for %v", cfg.Collect.Whitelist)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "datapipe.toml")
	body := "[paths]\nmove_table = \"moves.tsv\"\nmoves_csv = \"typo.tsv\"\n"
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestEnvOverridesToolBinaries(t *testing.T) {
	tempDir := t.TempDir()
	envPath := filepath.Join(tempDir, "tools.env")
	if err := os.WriteFile(envPath, []byte("DATAPIPE_FFMPEG=/opt/ffmpeg/bin/ffmpeg\n"), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("DATAPIPE_YTDLP", "/usr/local/bin/yt-dlp")
	t.Setenv("DATAPIPE_FFMPEG", "")
	os.Unsetenv("DATAPIPE_FFMPEG")

	configPath := filepath.Join(tempDir, "datapipe.toml")
	body := "[paths]\nmove_table = \"" + filepath.Join(tempDir, "moves.tsv") + "\"\n" +
		"[tools]\nyt_dlp = \"file-yt-dlp\"\nenv_file = \"" + envPath + "\"\n"
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.YTDLPBinary() != "/usr/local/bin/yt-dlp" {
		t.Errorf("expected yt-dlp from env, got %q", cfg.YTDLPBinary())
	}
	if cfg.FFmpegBinary() != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("expected ffmpeg from env file, got %q", cfg.FFmpegBinary())
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "move_table") {
		t.Fatalf("sample config missing move_table: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Dataset.TrainSplit+cfg.Dataset.ValSplit+cfg.Dataset.TestSplit != 1 {
		t.Fatalf("sample splits do not sum to 1: %+v", cfg.Dataset)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	base := func() config.Config {
		cfg := config.Default()
		cfg.Paths.MoveTable = "/tmp/moves.tsv"
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{name: "missing move table", mutate: func(c *config.Config) { c.Paths.MoveTable = "" }},
		{name: "split sum", mutate: func(c *config.Config) { c.Dataset.TestSplit = 0.2 }},
		{name: "negative split", mutate: func(c *config.Config) { c.Dataset.ValSplit = -0.1; c.Dataset.TrainSplit = 1.0 }},
		{name: "thumbnail width", mutate: func(c *config.Config) { c.Thumbnails.Width = 0 }},
		{name: "video height", mutate: func(c *config.Config) { c.Videos.Height = -1 }},
		{name: "mask path", mutate: func(c *config.Config) { c.Dataset.TrainMask = "../train.txt" }},
		{name: "mask duplicate", mutate: func(c *config.Config) { c.Dataset.ValMask = c.Dataset.TestMask }},
		{name: "graph names", mutate: func(c *config.Config) { c.Graph.Relabeled = c.Graph.AdjList }},
		{name: "whitelist", mutate: func(c *config.Config) { c.Collect.Whitelist = []int{1, 1} }},
		{name: "log format", mutate: func(c *config.Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, services.ErrConfiguration) {
				t.Fatalf("expected configuration marker, got %v", err)
			}
		})
	}

	cfg := base()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

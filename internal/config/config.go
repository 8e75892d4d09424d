package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains input tables and artifact directories.
type Paths struct {
	MoveTable    string `toml:"move_table"`
	VideoTable   string `toml:"video_table"`
	VideoSrc     string `toml:"video_src"`
	VideoDst     string `toml:"video_dst"`
	ThumbnailDir string `toml:"thumbnail_dir"`
	OutputDir    string `toml:"output_dir"`
	ReportsDir   string `toml:"reports_dir"`
	StateDir     string `toml:"state_dir"`
	LogDir       string `toml:"log_dir"`
}

// Graph contains move graph construction and artifact naming settings.
type Graph struct {
	Directed  bool   `toml:"directed"`
	AdjList   string `toml:"adjlist"`
	Relabeled string `toml:"relabeled"`
	NodeMap   string `toml:"node_map"`
}

// Videos contains the target size used when resizing clips.
type Videos struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Thumbnails contains thumbnail extraction settings.
type Thumbnails struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
	// BatchSize bounds concurrent extractions. Zero means one per CPU.
	BatchSize int    `toml:"batch_size"`
	Output    string `toml:"output"`
}

// Dataset contains split fractions and mask artifact names.
type Dataset struct {
	TrainSplit float64 `toml:"train_split"`
	ValSplit   float64 `toml:"val_split"`
	TestSplit  float64 `toml:"test_split"`
	Seed       uint64  `toml:"seed"`
	// SampleWithReplacement draws test nodes with replacement, which can
	// deliver fewer test nodes than requested when draws collide.
	SampleWithReplacement bool   `toml:"sample_with_replacement"`
	TrainMask             string `toml:"train_mask"`
	ValMask               string `toml:"val_mask"`
	TestMask              string `toml:"test_mask"`
}

// Collect contains video collection settings.
type Collect struct {
	// Whitelist restricts collection to these move ids when non-empty.
	Whitelist []int `toml:"whitelist"`
}

// Tools contains external executable names.
type Tools struct {
	YTDLP   string `toml:"yt_dlp"`
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
	EnvFile string `toml:"env_file"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for datapipe.
//
// Configuration sections by subsystem:
//   - Paths: input tables and output directories
//   - Graph: move graph direction and artifact names
//   - Videos: resize target
//   - Thumbnails: frame size and batch size
//   - Dataset: split fractions, sampling seed, mask artifact names
//   - Collect: id whitelist for downloads
//   - Tools: yt-dlp, ffmpeg and ffprobe executables
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Graph      Graph      `toml:"graph"`
	Videos     Videos     `toml:"videos"`
	Thumbnails Thumbnails `toml:"thumbnails"`
	Dataset    Dataset    `toml:"dataset"`
	Collect    Collect    `toml:"collect"`
	Tools      Tools      `toml:"tools"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/datapipe/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("datapipe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the artifact directories the pipeline writes to.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.OutputDir,
		c.Paths.ReportsDir,
		c.Paths.StateDir,
		c.Paths.LogDir,
		c.Paths.ThumbnailDir,
		c.Paths.VideoSrc,
		c.Paths.VideoDst,
		c.GraphDir(),
		c.MasksDir(),
		c.FeaturesDir(),
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// GraphDir returns the directory holding graph artifacts.
func (c *Config) GraphDir() string {
	return filepath.Join(c.Paths.OutputDir, "graph")
}

// MasksDir returns the directory holding mask artifacts.
func (c *Config) MasksDir() string {
	return filepath.Join(c.Paths.OutputDir, "masks")
}

// FeaturesDir returns the directory holding exported features.
func (c *Config) FeaturesDir() string {
	return filepath.Join(c.Paths.OutputDir, "features")
}

// AdjListPath returns the adjacency-list artifact path for the name-keyed graph.
func (c *Config) AdjListPath() string {
	return filepath.Join(c.GraphDir(), c.Graph.AdjList)
}

// RelabeledPath returns the adjacency-list artifact path for the relabeled graph.
func (c *Config) RelabeledPath() string {
	return filepath.Join(c.GraphDir(), c.Graph.Relabeled)
}

// NodeMapPath returns the relabel map artifact path.
func (c *Config) NodeMapPath() string {
	return filepath.Join(c.GraphDir(), c.Graph.NodeMap)
}

// MaskPaths returns the train, validation, and test mask artifact paths.
func (c *Config) MaskPaths() (train, val, test string) {
	dir := c.MasksDir()
	return filepath.Join(dir, c.Dataset.TrainMask),
		filepath.Join(dir, c.Dataset.ValMask),
		filepath.Join(dir, c.Dataset.TestMask)
}

// ThumbnailsPath returns the thumbnail mapping artifact path.
func (c *Config) ThumbnailsPath() string {
	return filepath.Join(c.Paths.ThumbnailDir, c.Thumbnails.Output)
}

// LedgerPath returns the download ledger database path.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.StateDir, "ledger.db")
}

// LockPath returns the run lock file guarding the output directory.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "datapipe.lock")
}

// YTDLPBinary returns the yt-dlp executable name used for downloads.
func (c *Config) YTDLPBinary() string {
	return binaryOr(c.Tools.YTDLP, "yt-dlp")
}

// FFmpegBinary returns the ffmpeg executable name used for frames and resizing.
func (c *Config) FFmpegBinary() string {
	return binaryOr(c.Tools.FFmpeg, "ffmpeg")
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return binaryOr(c.Tools.FFprobe, "ffprobe")
}

// Whitelisted reports whether the move id passes the collect whitelist.
func (c *Config) Whitelisted(id int) bool {
	if len(c.Collect.Whitelist) == 0 {
		return true
	}
	for _, allowed := range c.Collect.Whitelist {
		if allowed == id {
			return true
		}
	}
	return false
}

func binaryOr(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

func (c *Config) normalize() error {
	if err := c.loadEnvFile(); err != nil {
		return err
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGraph()
	c.normalizeThumbnails()
	c.normalizeDataset()
	c.normalizeTools()
	c.normalizeLogging()
	return nil
}

// loadEnvFile populates the process environment from tools.env_file when it
// exists. Variables already present in the environment win.
func (c *Config) loadEnvFile() error {
	path := strings.TrimSpace(c.Tools.EnvFile)
	if path == "" {
		return nil
	}
	expanded, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("tools.env_file: %w", err)
	}
	c.Tools.EnvFile = expanded
	if _, err := os.Stat(expanded); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if err := godotenv.Load(expanded); err != nil {
		return fmt.Errorf("load env file %s: %w", expanded, err)
	}
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.MoveTable) == "" {
		if value, ok := os.LookupEnv(envMoveTable); ok {
			c.Paths.MoveTable = value
		}
	}
	if strings.TrimSpace(c.Paths.VideoTable) == "" {
		if value, ok := os.LookupEnv(envVideoTable); ok {
			c.Paths.VideoTable = value
		}
	}

	fields := []struct {
		key      string
		value    *string
		fallback string
	}{
		{key: "paths.move_table", value: &c.Paths.MoveTable},
		{key: "paths.video_table", value: &c.Paths.VideoTable},
		{key: "paths.video_src", value: &c.Paths.VideoSrc, fallback: defaultVideoSrc},
		{key: "paths.video_dst", value: &c.Paths.VideoDst, fallback: defaultVideoDst},
		{key: "paths.thumbnail_dir", value: &c.Paths.ThumbnailDir, fallback: defaultThumbnailDir},
		{key: "paths.output_dir", value: &c.Paths.OutputDir, fallback: defaultOutputDir},
		{key: "paths.reports_dir", value: &c.Paths.ReportsDir, fallback: defaultReportsDir},
		{key: "paths.state_dir", value: &c.Paths.StateDir, fallback: defaultStateDir},
		{key: "paths.log_dir", value: &c.Paths.LogDir, fallback: defaultLogDir},
	}
	for _, field := range fields {
		trimmed := strings.TrimSpace(*field.value)
		if trimmed == "" {
			trimmed = field.fallback
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeGraph() {
	c.Graph.AdjList = stringOr(c.Graph.AdjList, defaultAdjList)
	c.Graph.Relabeled = stringOr(c.Graph.Relabeled, defaultRelabeled)
	c.Graph.NodeMap = stringOr(c.Graph.NodeMap, defaultNodeMap)
}

func (c *Config) normalizeThumbnails() {
	c.Thumbnails.Output = stringOr(c.Thumbnails.Output, defaultThumbOutput)
	if c.Thumbnails.BatchSize < 0 {
		c.Thumbnails.BatchSize = 0
	}
}

func (c *Config) normalizeDataset() {
	c.Dataset.TrainMask = stringOr(c.Dataset.TrainMask, defaultTrainMask)
	c.Dataset.ValMask = stringOr(c.Dataset.ValMask, defaultValMask)
	c.Dataset.TestMask = stringOr(c.Dataset.TestMask, defaultTestMask)
}

func (c *Config) normalizeTools() {
	overrides := []struct {
		env   string
		value *string
	}{
		{env: envYTDLPBinary, value: &c.Tools.YTDLP},
		{env: envFFmpegBinary, value: &c.Tools.FFmpeg},
		{env: envFFprobeBinary, value: &c.Tools.FFprobe},
	}
	for _, override := range overrides {
		if value, ok := os.LookupEnv(override.env); ok && strings.TrimSpace(value) != "" {
			*override.value = strings.TrimSpace(value)
		}
		*override.value = strings.TrimSpace(*override.value)
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func stringOr(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

package config

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"datapipe/internal/services"
)

// Validate ensures the configuration is usable. Every failure carries the
// services.ErrConfiguration marker.
func (c *Config) Validate() error {
	checks := []func() error{
		c.validatePaths,
		c.validateGraph,
		c.validateVideos,
		c.validateThumbnails,
		c.validateDataset,
		c.validateCollect,
		c.validateLogging,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return fmt.Errorf("%w: %w", services.ErrConfiguration, err)
		}
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.MoveTable) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/datapipe/config.toml"
		}
		return fmt.Errorf(requiredFieldTemplate, "paths.move_table", defaultPath)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateGraph() error {
	names := map[string]string{
		"graph.adjlist":   c.Graph.AdjList,
		"graph.relabeled": c.Graph.Relabeled,
		"graph.node_map":  c.Graph.NodeMap,
	}
	if err := ensureBareNames(names); err != nil {
		return err
	}
	if c.Graph.AdjList == c.Graph.Relabeled {
		return errors.New("graph.adjlist and graph.relabeled must differ")
	}
	return nil
}

func (c *Config) validateVideos() error {
	return ensurePositiveMap(map[string]int{
		"videos.width":  c.Videos.Width,
		"videos.height": c.Videos.Height,
	})
}

func (c *Config) validateThumbnails() error {
	if err := ensurePositiveMap(map[string]int{
		"thumbnails.width":  c.Thumbnails.Width,
		"thumbnails.height": c.Thumbnails.Height,
	}); err != nil {
		return err
	}
	return ensureBareNames(map[string]string{"thumbnails.output": c.Thumbnails.Output})
}

func (c *Config) validateDataset() error {
	ds := c.Dataset
	fractions := []struct {
		key   string
		value float64
	}{
		{key: "dataset.train_split", value: ds.TrainSplit},
		{key: "dataset.val_split", value: ds.ValSplit},
		{key: "dataset.test_split", value: ds.TestSplit},
	}
	for _, fraction := range fractions {
		if math.IsNaN(fraction.value) || fraction.value < 0 || fraction.value > 1 {
			return fmt.Errorf("%s must be between 0 and 1", fraction.key)
		}
	}
	sum := ds.TrainSplit + ds.ValSplit + ds.TestSplit
	if math.Abs(sum-1) > splitSumTolerance {
		return fmt.Errorf("dataset splits must sum to 1.0 (train %.4g + val %.4g + test %.4g = %.4g)",
			ds.TrainSplit, ds.ValSplit, ds.TestSplit, sum)
	}
	masks := map[string]string{
		"dataset.train_mask": ds.TrainMask,
		"dataset.val_mask":   ds.ValMask,
		"dataset.test_mask":  ds.TestMask,
	}
	if err := ensureBareNames(masks); err != nil {
		return err
	}
	if ds.TrainMask == ds.ValMask || ds.TrainMask == ds.TestMask || ds.ValMask == ds.TestMask {
		return errors.New("dataset mask file names must be distinct")
	}
	return nil
}

func (c *Config) validateCollect() error {
	seen := make(map[int]struct{}, len(c.Collect.Whitelist))
	for _, id := range c.Collect.Whitelist {
		if id <= 0 {
			return fmt.Errorf("collect.whitelist contains non-positive id %d", id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("collect.whitelist contains duplicate id %d", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

func ensureBareNames(values map[string]string) error {
	for key, value := range values {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s must be set", key)
		}
		if filepath.Base(value) != value {
			return fmt.Errorf("%s must be a file name, not a path (%q)", key, value)
		}
	}
	return nil
}

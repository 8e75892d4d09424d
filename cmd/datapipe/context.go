package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"datapipe/internal/config"
	"datapipe/internal/logging"
	"datapipe/internal/movetable"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureLogger builds the config-driven logger once per invocation.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// setup returns the config and logger every pipeline command needs.
func (c *commandContext) setup() (*config.Config, *slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) loadMoves() (*config.Config, []movetable.Move, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	moves, err := movetable.LoadMoves(cfg.Paths.MoveTable)
	if err != nil {
		return nil, nil, err
	}
	return cfg, moves, nil
}

func (c *commandContext) loadTables() (*config.Config, []movetable.Move, []movetable.Video, error) {
	cfg, moves, err := c.loadMoves()
	if err != nil {
		return nil, nil, nil, err
	}
	videos, err := movetable.LoadVideos(cfg.Paths.VideoTable)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, moves, videos, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"datapipe/internal/config"
	"datapipe/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

var sampleMoves = []string{
	"1\tCat Leap\t\tKong Vault\tvault\t\tjump to a wall",
	"2\tKong Vault\tCat Leap\t\tvault\t\tdive over",
	"3\tDash Vault\t\t\tvault/flow\t\t",
	"4\tTic Tac\tDash Vault\t\twall\t\t",
}

var sampleVideos = []string{
	"1\tcat\tchan\thttps://youtu.be/cat\t0:10\tCat Leap.mp4",
	"2\tkong\tchan\thttps://www.youtube.com/watch?v=kong\t0:12\t",
	"3\tdash\tchan\t\t0:05\t",
	"4\ttic\tchan\thttps://vimeo.com/1\t0:07\t",
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	base := append([]testsupport.ConfigOption{
		testsupport.WithMoveTable(sampleMoves...),
		testsupport.WithVideoTable(sampleVideos...),
		testsupport.WithTestSplit(0.5, 0.25, 0.25),
	}, opts...)
	cfg := testsupport.NewConfig(t, base...)
	t.Setenv("HOME", filepath.Join(testsupport.BaseDir(cfg), "home"))

	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

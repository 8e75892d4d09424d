package pipeline

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"

	"datapipe/internal/config"
	"datapipe/internal/masks"
	"datapipe/internal/movegraph"
	"datapipe/internal/services"
	"datapipe/internal/testsupport"
)

var sampleRows = []string{
	"1\tCat Leap\t\tKong Vault\tvault\t\t",
	"2\tKong Vault\tCat Leap\t\tvault\t\t",
	"3\tDash Vault\t\t\tvault\t\t",
	"4\tTic Tac\t\t\twall\t\t",
}

func newConfig(t *testing.T, rows ...string) *config.Config {
	t.Helper()
	return testsupport.NewConfig(t,
		testsupport.WithMoveTable(rows...),
		testsupport.WithTestSplit(0.5, 0.25, 0.25),
	)
}

func loadMasks(t *testing.T, cfg *config.Config) masks.Masks {
	t.Helper()
	train, val, test := cfg.MaskPaths()
	m, err := masks.Load(masks.Paths{Train: train, Val: val, Test: test})
	if err != nil {
		t.Fatalf("masks.Load: %v", err)
	}
	return m
}

func TestRunWritesAllArtifacts(t *testing.T) {
	cfg := newConfig(t, sampleRows...)
	summary, err := New(cfg, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.RunID == "" {
		t.Fatal("expected run id")
	}
	if diff := cmp.Diff(AllStages, summary.Stages); diff != "" {
		t.Fatalf("stages mismatch (-want +got):\n%s", diff)
	}
	if summary.Nodes != 4 || summary.Edges != 1 || summary.OneSided != 0 {
		t.Fatalf("unexpected graph summary: %+v", summary)
	}
	if summary.NodeMapReused {
		t.Fatal("first run must derive a fresh node map")
	}

	if _, err := os.Stat(cfg.AdjListPath()); err != nil {
		t.Fatalf("adjacency artifact missing: %v", err)
	}
	nodeMap, err := movegraph.LoadNodeMap(cfg.NodeMapPath())
	if err != nil {
		t.Fatalf("LoadNodeMap: %v", err)
	}
	if diff := cmp.Diff([]string{"Cat Leap", "Kong Vault", "Dash Vault", "Tic Tac"}, nodeMap.Names()); diff != "" {
		t.Fatalf("node map order mismatch (-want +got):\n%s", diff)
	}
	relabeled, err := movegraph.LoadAdjList(cfg.RelabeledPath(), true)
	if err != nil {
		t.Fatalf("LoadAdjList relabeled: %v", err)
	}
	if diff := cmp.Diff([]string{"0", "1", "2", "3"}, relabeled.Labels()); diff != "" {
		t.Fatalf("relabeled labels mismatch (-want +got):\n%s", diff)
	}

	m := loadMasks(t, cfg)
	if diff := cmp.Diff([]bool{true, true, false, false}, m.Train); diff != "" {
		t.Fatalf("train mask mismatch (-want +got):\n%s", diff)
	}
	train, val, test := m.Counts()
	if train != 2 || val != 1 || test != 1 {
		t.Fatalf("unexpected counts train=%d val=%d test=%d", train, val, test)
	}
}

func TestRunIsDeterministicAndReusesNodeMap(t *testing.T) {
	cfg := newConfig(t, sampleRows...)
	runner := New(cfg, nil)
	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	first := loadMasks(t, cfg)

	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if !summary.NodeMapReused {
		t.Fatal("second run should reuse the persisted node map")
	}
	if diff := cmp.Diff(first, loadMasks(t, cfg)); diff != "" {
		t.Fatalf("masks differ between runs (-first +second):\n%s", diff)
	}
}

func TestRunRejectsBadTableBeforeWriting(t *testing.T) {
	cfg := newConfig(t,
		"1\tCat Leap\t\tNowhere\tvault\t\t",
		"2\tKong Vault\t\t\tvault\t\t",
	)
	_, err := New(cfg, nil).Run(context.Background())
	if !errors.Is(err, services.ErrDataIntegrity) {
		t.Fatalf("expected data integrity error, got %v", err)
	}
	if _, statErr := os.Stat(cfg.AdjListPath()); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("adjacency artifact should not exist, stat err = %v", statErr)
	}
}

func TestRunRejectsNonContiguousIDs(t *testing.T) {
	tables := map[string][]string{
		"gap": {
			"1\tCat Leap\t\t\tvault\t\t",
			"2\tKong Vault\t\t\tvault\t\t",
			"4\tTic Tac\t\t\twall\t\t",
		},
		"repeated": {
			"1\tCat Leap\t\t\tvault\t\t",
			"1\tKong Vault\t\t\tvault\t\t",
			"2\tTic Tac\t\t\twall\t\t",
		},
	}
	for name, rows := range tables {
		t.Run(name, func(t *testing.T) {
			cfg := newConfig(t, rows...)
			_, err := New(cfg, nil).Run(context.Background())
			if !errors.Is(err, services.ErrDataIntegrity) {
				t.Fatalf("expected data integrity error, got %v", err)
			}
			for _, path := range []string{cfg.AdjListPath(), cfg.NodeMapPath()} {
				if _, statErr := os.Stat(path); !errors.Is(statErr, os.ErrNotExist) {
					t.Fatalf("%s should not exist, stat err = %v", path, statErr)
				}
			}
		})
	}
}

func TestRunSingleStageReadsPreviousArtifact(t *testing.T) {
	cfg := newConfig(t, sampleRows...)
	runner := New(cfg, nil)

	if _, err := runner.Run(context.Background(), StageMasks); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found without a relabeled graph, got %v", err)
	}

	if _, err := runner.Run(context.Background(), StageRelabel, StageBuild); err != nil {
		t.Fatalf("Run build+relabel: %v", err)
	}
	summary, err := runner.Run(context.Background(), StageMasks)
	if err != nil {
		t.Fatalf("Run masks: %v", err)
	}
	if summary.Masks == nil || summary.Nodes != 4 {
		t.Fatalf("unexpected masks summary: %+v", summary)
	}
}

func TestRunStageOrderIsFixed(t *testing.T) {
	got, err := normalizeStages([]Stage{StageMasks, StageBuild})
	if err != nil {
		t.Fatalf("normalizeStages: %v", err)
	}
	if diff := cmp.Diff([]Stage{StageBuild, StageMasks}, got); diff != "" {
		t.Fatalf("stage order mismatch (-want +got):\n%s", diff)
	}
	if _, err := normalizeStages([]Stage{"plot"}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for unknown stage, got %v", err)
	}
}

func TestRunFailsWhileLocked(t *testing.T) {
	cfg := newConfig(t, sampleRows...)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	held, err := AcquireLock(cfg.LockPath())
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	defer held.Release()

	_, err = New(cfg, nil).Run(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error while locked, got %v", err)
	}
	if _, statErr := os.Stat(cfg.AdjListPath()); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("locked run must not write artifacts, stat err = %v", statErr)
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	cfg := newConfig(t, sampleRows...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(cfg, nil).Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

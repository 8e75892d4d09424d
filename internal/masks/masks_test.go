package masks

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"datapipe/internal/logging"
	"datapipe/internal/movegraph"
	"datapipe/internal/movetable"
	"datapipe/internal/services"
)

func relabeled(t *testing.T, moves []movetable.Move) *movegraph.Graph {
	t.Helper()
	g, err := movegraph.Build(moves, movegraph.DefaultOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	out, err := movegraph.NewNodeMap(g).Apply(g)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	return out
}

// islands returns a 4-node chain plus isolated nodes up to n.
func islands(n int) []movetable.Move {
	moves := []movetable.Move{
		{ID: 1, Name: "m1", Subseq: []string{"m2"}},
		{ID: 2, Name: "m2", Subseq: []string{"m3"}},
		{ID: 3, Name: "m3", Subseq: []string{"m4"}},
		{ID: 4, Name: "m4"},
	}
	for id := 5; id <= n; id++ {
		moves = append(moves, movetable.Move{ID: id, Name: fmt.Sprintf("solo%d", id)})
	}
	return moves
}

func TestGeneratePairExample(t *testing.T) {
	g := relabeled(t, []movetable.Move{
		{ID: 1, Name: "A", Subseq: []string{"B"}},
		{ID: 2, Name: "B", Prereq: []string{"A"}},
	})
	res, err := Generate(g, Options{}, logging.NewNop())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := Masks{Train: []bool{true, true}, Val: []bool{false, false}, Test: []bool{false, false}}
	if diff := cmp.Diff(want, res.Masks); diff != "" {
		t.Fatalf("masks mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateZeroTestSplitComplementsTrain(t *testing.T) {
	g := relabeled(t, islands(10))
	res, err := Generate(g, Options{TestSplit: 0}, logging.NewNop())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for i := range g.Len() {
		if res.Masks.Test[i] {
			t.Fatalf("test mask set at %d", i)
		}
		if res.Masks.Val[i] == res.Masks.Train[i] {
			t.Fatalf("val is not the complement of train at %d", i)
		}
	}
	if res.LargestSize != 4 || res.Components != 7 {
		t.Fatalf("unexpected components: largest=%d count=%d", res.LargestSize, res.Components)
	}
}

func TestGenerateWithoutReplacementDeliversRequested(t *testing.T) {
	g := relabeled(t, islands(20))
	res, err := Generate(g, Options{TestSplit: 0.25, Seed: 7}, logging.NewNop())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	train, val, test := res.Masks.Counts()
	if test != 5 || res.TestRequested != 5 {
		t.Fatalf("test = %d requested = %d, want 5", test, res.TestRequested)
	}
	if train+val+test != 20 {
		t.Fatalf("counts do not cover nodes: %d+%d+%d", train, val, test)
	}
	for i := range 4 {
		if res.Masks.Test[i] {
			t.Fatalf("train node %d moved to test", i)
		}
	}
}

func TestGenerateIsDeterministicPerSeed(t *testing.T) {
	g := relabeled(t, islands(30))
	opts := Options{TestSplit: 0.3, Seed: 42}
	first, err := Generate(g, opts, logging.NewNop())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	second, err := Generate(g, opts, logging.NewNop())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if diff := cmp.Diff(first.Masks, second.Masks); diff != "" {
		t.Fatalf("same seed produced different masks (-first +second):\n%s", diff)
	}
}

func TestGenerateCapsAtPool(t *testing.T) {
	g := relabeled(t, islands(6))
	res, err := Generate(g, Options{TestSplit: 0.9, Seed: 1}, logging.NewNop())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	_, val, test := res.Masks.Counts()
	if test != 2 || val != 0 {
		t.Fatalf("test=%d val=%d, want whole pool in test", test, val)
	}
}

func TestGenerateWithReplacementKeepsPartition(t *testing.T) {
	g := relabeled(t, islands(12))
	res, err := Generate(g, Options{TestSplit: 0.5, Seed: 3, WithReplacement: true}, logging.NewNop())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.TestDelivered > res.TestRequested {
		t.Fatalf("delivered %d > requested %d", res.TestDelivered, res.TestRequested)
	}
	if err := res.Masks.Check(); err != nil {
		t.Fatalf("Check: %v", err)
	}
}

func TestGenerateRequiresRelabeledGraph(t *testing.T) {
	g, err := movegraph.Build([]movetable.Move{{ID: 1, Name: "A"}}, movegraph.DefaultOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := Generate(g, Options{}, logging.NewNop()); !errors.Is(err, services.ErrDataIntegrity) {
		t.Fatalf("expected data integrity error, got %v", err)
	}
}

func TestCheckDetectsOverlap(t *testing.T) {
	m := Masks{Train: []bool{true, false}, Val: []bool{true, true}, Test: []bool{false, false}}
	if err := m.Check(); !errors.Is(err, services.ErrInvariant) {
		t.Fatalf("expected invariant error, got %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{
		Train: filepath.Join(dir, "masks", "train_mask.txt"),
		Val:   filepath.Join(dir, "masks", "val_mask.txt"),
		Test:  filepath.Join(dir, "masks", "test_mask.txt"),
	}
	m := Masks{Train: []bool{true, false, false}, Val: []bool{false, true, false}, Test: []bool{false, false, true}}
	if err := Save(paths, m); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(paths.Train)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "true\nfalse\nfalse\n" {
		t.Fatalf("unexpected train file %q", data)
	}
	loaded, err := Load(paths)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(m, loaded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveRefusesBrokenPartition(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{
		Train: filepath.Join(dir, "train_mask.txt"),
		Val:   filepath.Join(dir, "val_mask.txt"),
		Test:  filepath.Join(dir, "test_mask.txt"),
	}
	m := Masks{Train: []bool{true}, Val: []bool{false}, Test: []bool{false, true}}
	if err := Save(paths, m); !errors.Is(err, services.ErrInvariant) {
		t.Fatalf("expected invariant error, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("nothing should be written, found %d files", len(entries))
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train_mask.txt")
	if err := os.WriteFile(path, []byte("true\nmaybe\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(Paths{Train: path})
	if !errors.Is(err, services.ErrDataIntegrity) || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected line 2 data error, got %v", err)
	}
}

package ledger_test

import (
	"context"
	"testing"

	"datapipe/internal/ledger"
	"datapipe/internal/testsupport"
)

func TestRecordAndLatest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	if got, err := store.Latest(ctx, 1); err != nil || got != nil {
		t.Fatalf("Latest on empty ledger = %#v, %v", got, err)
	}

	if err := store.Record(ctx, ledger.Attempt{MoveID: 1, Name: "Kong", Link: "https://youtu.be/a", Status: ledger.StatusFailed, Error: "404"}); err != nil {
		t.Fatalf("Record failed attempt: %v", err)
	}
	if err := store.Record(ctx, ledger.Attempt{MoveID: 1, Name: "Kong", Status: ledger.StatusFound, File: "kong.mp4", RunID: "run-1"}); err != nil {
		t.Fatalf("Record found attempt: %v", err)
	}

	latest, err := store.Latest(ctx, 1)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest == nil || latest.Status != ledger.StatusFound || latest.File != "kong.mp4" || latest.RunID != "run-1" {
		t.Fatalf("unexpected latest attempt: %#v", latest)
	}
	if latest.AttemptedAt.IsZero() {
		t.Fatal("expected attempted_at to be set")
	}
}

func TestFailedAndFoundUseLatestAttempt(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	attempts := []ledger.Attempt{
		{MoveID: 2, Name: "Dash", Status: ledger.StatusFound, File: "dash.mp4"},
		{MoveID: 3, Name: "Roll", Status: ledger.StatusFailed, Error: "private video"},
		{MoveID: 1, Name: "Step", Status: ledger.StatusFailed, Error: "timeout"},
		{MoveID: 2, Name: "Dash", Status: ledger.StatusFailed, Error: "removed"},
	}
	for _, a := range attempts {
		if err := store.Record(ctx, a); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	failed, err := store.Failed(ctx)
	if err != nil {
		t.Fatalf("Failed: %v", err)
	}
	if len(failed) != 3 || failed[0].MoveID != 1 || failed[1].MoveID != 2 || failed[2].MoveID != 3 {
		t.Fatalf("unexpected failed list: %#v", failed)
	}
	if failed[1].Error != "removed" {
		t.Fatalf("expected latest error for move 2, got %q", failed[1].Error)
	}

	found, err := store.FoundIDs(ctx)
	if err != nil {
		t.Fatalf("FoundIDs: %v", err)
	}
	if len(found) != 0 {
		t.Fatalf("expected no found moves, got %v", found)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[ledger.StatusFailed] != 3 || stats[ledger.StatusFound] != 0 {
		t.Fatalf("unexpected stats: %v", stats)
	}
}

func TestRecordRejectsUnknownStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	if err := store.Record(context.Background(), ledger.Attempt{MoveID: 1, Name: "x", Status: "maybe"}); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestReopenKeepsAttempts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	first, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := first.Record(ctx, ledger.Attempt{MoveID: 5, Name: "Drop", Status: ledger.StatusFound, File: "drop.mp4"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second := testsupport.MustOpenLedger(t, cfg)
	found, err := second.FoundIDs(ctx)
	if err != nil {
		t.Fatalf("FoundIDs: %v", err)
	}
	if found[5] != "drop.mp4" {
		t.Fatalf("expected persisted attempt, got %v", found)
	}

	cleared, err := second.Clear(ctx)
	if err != nil || cleared != 1 {
		t.Fatalf("Clear = %d, %v", cleared, err)
	}
}

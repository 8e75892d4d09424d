package collect

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"datapipe/internal/ledger"
	"datapipe/internal/logging"
	"datapipe/internal/movetable"
	"datapipe/internal/services"
	"datapipe/internal/textutil"
)

// Collector downloads clips for rows that have a link but no video.
type Collector struct {
	Downloader Downloader
	// Ledger is optional; without it every row is attempted.
	Ledger *ledger.Store
	// Dir receives <canonical name>.mp4 files.
	Dir   string
	RunID string
	// Allow filters rows by move id; nil allows all.
	Allow  func(id int) bool
	Logger *slog.Logger
}

// Failure is a row whose download failed.
type Failure struct {
	Entry Entry
	Err   error
}

// Result lists the outcome of one collection run.
type Result struct {
	// Found holds downloaded rows and rows already found in the ledger, with
	// Video.Embed set to the clip file name.
	Found   []Entry
	Failed  []Failure
	Skipped int
}

// Collect downloads each entry's link serially. A failing row is recorded and
// the run continues; only context cancellation or a ledger error stops it.
func (c *Collector) Collect(ctx context.Context, entries []Entry) (Result, error) {
	logger := logging.NewComponentLogger(c.Logger, "collect")
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create download directory: %w", err)
	}

	known := map[int]string{}
	if c.Ledger != nil {
		found, err := c.Ledger.FoundIDs(ctx)
		if err != nil {
			return Result{}, err
		}
		known = found
	}

	var res Result
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if c.Allow != nil && !c.Allow(e.Move.ID) {
			continue
		}
		rowCtx := services.WithMoveID(ctx, e.Move.ID)
		rowLogger := logging.WithContext(rowCtx, logger)

		if file, ok := known[e.Move.ID]; ok && fileExists(filepath.Join(c.Dir, file)) {
			e.Video.Embed = file
			res.Found = append(res.Found, e)
			res.Skipped++
			rowLogger.Debug("already collected", logging.String("file", file))
			continue
		}

		name := textutil.EmbedName(e.Move.Name)
		if name == "" {
			err := services.Wrap(services.ErrDataIntegrity, "collect", "name clip", "move has no usable name", nil)
			res.Failed = append(res.Failed, Failure{Entry: e, Err: err})
			if rerr := c.record(rowCtx, e, ledger.StatusFailed, "", err); rerr != nil {
				return res, rerr
			}
			continue
		}

		err := c.Downloader.Download(rowCtx, e.Video.Link, filepath.Join(c.Dir, name))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		if err != nil {
			logging.WarnWithContext(rowLogger, "download failed", "download_failed",
				logging.String("move", e.Move.Name),
				logging.String("link", e.Video.Link),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the link or find another source"),
				logging.String(logging.FieldImpact, "move stays without a video"),
			)
			res.Failed = append(res.Failed, Failure{Entry: e, Err: err})
			if rerr := c.record(rowCtx, e, ledger.StatusFailed, "", err); rerr != nil {
				return res, rerr
			}
			continue
		}

		e.Video.Embed = name
		res.Found = append(res.Found, e)
		rowLogger.Info("video collected", logging.String("move", e.Move.Name), logging.String("file", name))
		if err := c.record(rowCtx, e, ledger.StatusFound, name, nil); err != nil {
			return res, err
		}
	}

	logger.Info("collection finished",
		logging.Int("found", len(res.Found)),
		logging.Int("failed", len(res.Failed)),
		logging.Int("skipped", res.Skipped),
	)
	return res, nil
}

func (c *Collector) record(ctx context.Context, e Entry, status ledger.Status, file string, cause error) error {
	if c.Ledger == nil {
		return nil
	}
	attempt := ledger.Attempt{
		RunID:  c.RunID,
		MoveID: e.Move.ID,
		Name:   e.Move.Name,
		Link:   e.Video.Link,
		Status: status,
		File:   file,
	}
	if cause != nil {
		attempt.Error = cause.Error()
	}
	return c.Ledger.Record(ctx, attempt)
}

// WriteResult writes unavailable.tsv (failed rows with their error) and
// found.tsv into dir.
func WriteResult(dir string, res Result) error {
	failedHeader := append(append([]string{}, entryColumns...), "error")
	failed := make([][]string, len(res.Failed))
	for i, f := range res.Failed {
		failed[i] = append(entryRecord(f.Entry), f.Err.Error())
	}
	if err := movetable.WriteTSV(filepath.Join(dir, UnavailableFile), failedHeader, failed); err != nil {
		return fmt.Errorf("write unavailable: %w", err)
	}
	if err := movetable.WriteTSV(filepath.Join(dir, FoundFile), entryColumns, entryRecords(res.Found)); err != nil {
		return fmt.Errorf("write found: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

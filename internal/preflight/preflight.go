package preflight

import (
	"context"
	"fmt"
	"strings"

	"datapipe/internal/config"
	"datapipe/internal/deps"
	"datapipe/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Scope selects which pipeline stages a preflight run covers.
type Scope uint8

const (
	// ScopeGraph covers graph building and mask generation.
	ScopeGraph Scope = 1 << iota
	// ScopeCollect covers missing-video reports and downloads.
	ScopeCollect
	// ScopeMedia covers thumbnails and resizing.
	ScopeMedia
)

// RunAll executes the checks for scope. Directories are expected to exist;
// callers run cfg.EnsureDirectories first.
func RunAll(ctx context.Context, cfg *config.Config, scope Scope) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	if scope&ScopeGraph != 0 {
		results = append(results,
			CheckFileReadable("Move table", cfg.Paths.MoveTable),
			CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		)
	}

	if scope&ScopeCollect != 0 {
		results = append(results,
			CheckFileReadable("Move table", cfg.Paths.MoveTable),
			CheckFileReadable("Video table", cfg.Paths.VideoTable),
			CheckDirectoryAccess("Video directory", cfg.Paths.VideoSrc),
			CheckDirectoryAccess("Reports directory", cfg.Paths.ReportsDir),
			CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		)
	}

	if scope&ScopeMedia != 0 {
		results = append(results,
			CheckDirectoryAccess("Video directory", cfg.Paths.VideoSrc),
			CheckDirectoryAccess("Thumbnail directory", cfg.Paths.ThumbnailDir),
		)
	}

	results = append(results, depResults(deps.CheckBinaries(ctx, Requirements(cfg, scope)))...)
	return dedupe(results)
}

// Err folds failed results into one configuration error, or nil when every
// check passed.
func Err(results []Result) error {
	var failed []string
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, "preflight", "check", strings.Join(failed, "; "), nil)
}

func dedupe(results []Result) []Result {
	seen := make(map[string]struct{}, len(results))
	out := results[:0]
	for _, r := range results {
		if _, ok := seen[r.Name]; ok {
			continue
		}
		seen[r.Name] = struct{}{}
		out = append(out, r)
	}
	return out
}

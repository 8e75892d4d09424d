package preflight

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"datapipe/internal/config"
	"datapipe/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFileReadable verifies that path is a regular file the process can read.
func CheckFileReadable(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.Mode().IsRegular() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a regular file)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read ok)", path)}
}

// Requirements lists the external tools for the given scope.
func Requirements(cfg *config.Config, scope Scope) []deps.Requirement {
	var reqs []deps.Requirement
	if scope&ScopeCollect != 0 {
		reqs = append(reqs, deps.Requirement{
			Name:        "yt-dlp",
			Command:     cfg.YTDLPBinary(),
			Description: "Required for downloading clips",
			VersionArgs: []string{"--version"},
		})
	}
	if scope&ScopeMedia != 0 {
		reqs = append(reqs,
			deps.Requirement{
				Name:        "FFmpeg",
				Command:     cfg.FFmpegBinary(),
				Description: "Required for thumbnails and resizing",
				VersionArgs: []string{"-version"},
			},
			deps.Requirement{
				Name:        "FFprobe",
				Command:     cfg.FFprobeBinary(),
				Description: "Required for media inspection",
				VersionArgs: []string{"-version"},
			},
		)
	}
	return reqs
}

// CheckSystemDeps evaluates every external tool datapipe can use. Both the
// deps command and RunAll rely on it so the requirement list lives in one place.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(ctx, Requirements(cfg, ScopeCollect|ScopeMedia))
}

func depResults(statuses []deps.Status) []Result {
	results := make([]Result, 0, len(statuses))
	for _, s := range statuses {
		r := Result{Name: s.Name, Passed: s.Available || s.Optional}
		switch {
		case s.Available:
			r.Detail = s.Path
		default:
			r.Detail = s.Detail
		}
		results = append(results, r)
	}
	return results
}

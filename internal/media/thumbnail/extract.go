package thumbnail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"datapipe/internal/fileutil"
	"datapipe/internal/logging"
	"datapipe/internal/services"
)

const dataURIPrefix = "data:image/jpeg;base64,"

// DataURI encodes a JPEG payload as a data URI.
func DataURI(jpeg []byte) string {
	return dataURIPrefix + base64.StdEncoding.EncodeToString(jpeg)
}

// ListClips returns the regular, non-hidden files in dir sorted by name.
func ListClips(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, services.Wrap(services.ErrNotFound, "thumbnails", "list clips", dir, err)
	}
	if err != nil {
		return nil, fmt.Errorf("list clips: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	slices.Sort(names)
	return names, nil
}

// ExtractAll builds the filename → data URI mapping for every clip in dir.
// Clips are processed batch by batch, batch workers at a time; zero means
// runtime.NumCPU(). Failed clips are logged and omitted. Cancellation is
// checked between batches and stops the run if it interrupts a batch.
func ExtractAll(ctx context.Context, dir string, extractor Extractor, batch int, logger *slog.Logger) (map[string]string, error) {
	logger = logging.NewComponentLogger(logger, "thumbnails")
	names, err := ListClips(dir)
	if err != nil {
		return nil, err
	}
	if batch <= 0 {
		batch = runtime.NumCPU()
	}

	results := make(map[string]string, len(names))
	for start := 0; start < len(names); start += batch {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		chunk := names[start:min(start+batch, len(names))]
		slots := make([]string, len(chunk))

		var group errgroup.Group
		for i, name := range chunk {
			group.Go(func() error {
				image, err := extractor.Thumbnail(ctx, filepath.Join(dir, name))
				if err != nil && ctx.Err() != nil {
					return ctx.Err()
				}
				if err != nil {
					logging.WarnWithContext(logger, "thumbnail extraction failed", "thumbnail_failed",
						logging.String("file", name),
						logging.Error(err),
						logging.String(logging.FieldErrorHint, "check the clip with ffprobe"),
						logging.String(logging.FieldImpact, "clip has no thumbnail"),
					)
					return nil
				}
				slots[i] = DataURI(image)
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return results, err
		}

		for i, name := range chunk {
			if slots[i] != "" {
				results[name] = slots[i]
			}
		}
		logger.Debug("thumbnail batch complete",
			logging.Int("batch_start", start),
			logging.Int("batch_size", len(chunk)),
		)
	}
	logger.Info("thumbnails extracted",
		logging.Int("clips", len(names)),
		logging.Int("produced", len(results)),
	)
	return results, nil
}

// Missing lists expected keys absent from produced, in expected order.
func Missing(expected []string, produced map[string]string) []string {
	var out []string
	for _, key := range expected {
		if _, ok := produced[key]; !ok {
			out = append(out, key)
		}
	}
	return out
}

// Save writes the mapping as a JSON object with sorted keys.
func Save(path string, mapping map[string]string) error {
	data, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return fmt.Errorf("encode thumbnails: %w", err)
	}
	return fileutil.WriteFileAtomic(path, append(data, '\n'), 0o644)
}

// Load reads a mapping written by Save.
func Load(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, services.Wrap(services.ErrNotFound, "thumbnails", "read mapping", path, err)
	}
	if err != nil {
		return nil, fmt.Errorf("read thumbnails %s: %w", path, err)
	}
	var mapping map[string]string
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("decode thumbnails %s: %w", path, err)
	}
	return mapping, nil
}

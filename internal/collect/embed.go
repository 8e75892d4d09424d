package collect

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"datapipe/internal/fileutil"
	"datapipe/internal/logging"
	"datapipe/internal/movetable"
	"datapipe/internal/textutil"
)

// Rename records one file moved to its canonical name.
type Rename struct {
	MoveID int
	From   string
	To     string
}

// EmbedReport lists what UpdateEmbed changed.
type EmbedReport struct {
	Renamed []Rename
	// Missing holds rows whose clip exists under neither the recorded nor the
	// canonical name. Their embed is reset to the unavailable sentinel.
	Missing []Entry
}

// UpdateEmbed renames every available clip in videoSrc to the canonical name
// derived from its move and points the row at it. Rows already marked
// unavailable are left alone.
func UpdateEmbed(entries []Entry, videoSrc string, logger *slog.Logger) ([]Entry, EmbedReport, error) {
	logger = logging.NewComponentLogger(logger, "collect")
	out := make([]Entry, len(entries))
	var report EmbedReport
	for i, e := range entries {
		out[i] = e
		if !e.Video.Available() {
			continue
		}
		canonical := textutil.EmbedName(e.Move.Name)
		current := filepath.Join(videoSrc, e.Video.Embed)
		target := filepath.Join(videoSrc, canonical)

		switch {
		case canonical == "":
			report.Missing = append(report.Missing, e)
			out[i].Video.Embed = movetable.Unavailable
			continue
		case e.Video.Embed == canonical && fileExists(target):
		case fileExists(current):
			if err := fileutil.MoveFile(current, target); err != nil {
				return nil, report, fmt.Errorf("rename %s: %w", e.Video.Embed, err)
			}
			report.Renamed = append(report.Renamed, Rename{MoveID: e.Move.ID, From: e.Video.Embed, To: canonical})
			logger.Debug("clip renamed", logging.String("from", e.Video.Embed), logging.String("to", canonical))
		case fileExists(target):
		default:
			report.Missing = append(report.Missing, e)
			out[i].Video.Embed = movetable.Unavailable
			continue
		}
		out[i].Video.Embed = canonical
	}
	if len(report.Missing) > 0 {
		logging.WarnWithContext(logger, "clips missing on disk", "embed_missing",
			logging.Int("count", len(report.Missing)),
			logging.String(logging.FieldErrorHint, "re-run collect download or restore the files"),
			logging.String(logging.FieldImpact, "rows marked unavailable"),
		)
	}
	return out, report, nil
}

// UpdateVideos applies found embeds to the video table, renames clips to
// their canonical names, and returns the updated table in its original row
// order. Video rows without a matching move are returned unchanged.
func UpdateVideos(moves []movetable.Move, videos []movetable.Video, found []Entry, videoSrc string, logger *slog.Logger) ([]movetable.Video, EmbedReport, error) {
	foundEmbed := make(map[int]string, len(found))
	for _, e := range found {
		foundEmbed[e.Move.ID] = e.Video.Embed
	}
	patched := make([]movetable.Video, len(videos))
	for i, v := range videos {
		if embed, ok := foundEmbed[v.ID]; ok && embed != "" {
			v.Embed = embed
		}
		patched[i] = v
	}

	entries, report, err := UpdateEmbed(Join(moves, patched), videoSrc, logger)
	if err != nil {
		return nil, report, err
	}
	updated := make(map[int]movetable.Video, len(entries))
	for _, e := range entries {
		updated[e.Video.ID] = e.Video
	}
	for i, v := range patched {
		if u, ok := updated[v.ID]; ok {
			patched[i] = u
		}
	}
	return patched, report, nil
}

// FixExtensions appends .mp4 to every regular file in dir that lacks it and
// returns the new names.
func FixExtensions(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var renamed []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || strings.HasPrefix(name, ".") {
			continue
		}
		fixed := textutil.WithVideoExt(name)
		if fixed == name {
			continue
		}
		target := filepath.Join(dir, fixed)
		if _, err := os.Stat(target); err == nil {
			return renamed, fmt.Errorf("fix extension of %s: %s already exists", name, fixed)
		} else if !errors.Is(err, os.ErrNotExist) {
			return renamed, err
		}
		if err := os.Rename(filepath.Join(dir, name), target); err != nil {
			return renamed, fmt.Errorf("fix extension of %s: %w", name, err)
		}
		renamed = append(renamed, fixed)
	}
	return renamed, nil
}

// FixEmbed points each video row at Name_With_Underscores.mp4 when that file
// exists in dir. It returns the updated table and the number of rows changed.
func FixEmbed(moves []movetable.Move, videos []movetable.Video, dir string) ([]movetable.Video, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", dir, err)
	}
	files := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		files[entry.Name()] = struct{}{}
	}
	names := make(map[int]string, len(moves))
	for _, m := range moves {
		names[m.ID] = m.Name
	}

	out := make([]movetable.Video, len(videos))
	changed := 0
	for i, v := range videos {
		if name, ok := names[v.ID]; ok {
			candidate := textutil.UnderscoreName(name)
			if _, exists := files[candidate]; exists && v.Embed != candidate {
				v.Embed = candidate
				changed++
			}
		}
		out[i] = v
	}
	return out, changed, nil
}

// UpdateThumbnails fills each row's thumbnail from the mapping keyed by
// embed. Rows without an entry get the unavailable clip's thumbnail and are
// returned for reporting.
func UpdateThumbnails(videos []movetable.Video, thumbs map[string]string) ([]movetable.Video, []movetable.Video) {
	fallback := thumbs[movetable.Unavailable]
	out := make([]movetable.Video, len(videos))
	var missing []movetable.Video
	for i, v := range videos {
		if img, ok := thumbs[v.Embed]; ok {
			v.Thumbnail = img
		} else {
			missing = append(missing, v)
			v.Thumbnail = fallback
		}
		out[i] = v
	}
	return out, missing
}

// WriteEmbedErrors writes rows UpdateEmbed could not resolve into dir.
func WriteEmbedErrors(dir string, report EmbedReport) error {
	return movetable.WriteTSV(filepath.Join(dir, RenameErrorsFile), entryColumns, entryRecords(report.Missing))
}

// WriteThumbnailErrors writes rows that fell back to the unavailable
// thumbnail into dir.
func WriteThumbnailErrors(dir string, missing []movetable.Video) error {
	records := make([][]string, len(missing))
	for i, v := range missing {
		records[i] = []string{strconv.Itoa(v.ID), v.Title, v.Embed}
	}
	header := []string{movetable.ColumnID, movetable.ColumnTitle, movetable.ColumnEmbed}
	return movetable.WriteTSV(filepath.Join(dir, ThumbErrorsFile), header, records)
}

package collect

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"datapipe/internal/movetable"
)

// Report file names written under the reports directory.
const (
	AllMissingFile   = "all_missing.tsv"
	WithLinkFile     = "missing_with_link.tsv"
	CallToActionFile = "call_to_action.tsv"
	UnavailableFile  = "unavailable.tsv"
	FoundFile        = "found.tsv"
	RenameErrorsFile = "embed_errors.tsv"
	ThumbErrorsFile  = "thumbnail_errors.tsv"
)

// Missing groups moves whose video row has no clip.
type Missing struct {
	// All holds every move whose embed is the unavailable sentinel.
	All []Entry
	// WithLink holds the subset that has a link to download.
	WithLink []Entry
	// CallToAction holds the subset that needs someone to find a link.
	CallToAction []Entry
}

// FindMissing joins moves and videos on id and classifies rows without a
// clip by whether they carry a link.
func FindMissing(moves []movetable.Move, videos []movetable.Video) Missing {
	var out Missing
	for _, e := range Join(moves, videos) {
		if e.Video.Available() {
			continue
		}
		out.All = append(out.All, e)
		if strings.TrimSpace(e.Video.Link) != "" {
			out.WithLink = append(out.WithLink, e)
		} else {
			out.CallToAction = append(out.CallToAction, e)
		}
	}
	return out
}

// WriteMissing writes the three missing-row reports into dir.
func WriteMissing(dir string, m Missing) error {
	if err := movetable.WriteTSV(filepath.Join(dir, AllMissingFile), entryColumns, entryRecords(m.All)); err != nil {
		return fmt.Errorf("write all missing: %w", err)
	}
	if err := movetable.WriteTSV(filepath.Join(dir, WithLinkFile), entryColumns, entryRecords(m.WithLink)); err != nil {
		return fmt.Errorf("write missing with link: %w", err)
	}
	records := make([][]string, len(m.CallToAction))
	for i, e := range m.CallToAction {
		records[i] = []string{strconv.Itoa(e.Move.ID), e.Move.Name}
	}
	header := []string{movetable.ColumnID, movetable.ColumnName}
	if err := movetable.WriteTSV(filepath.Join(dir, CallToActionFile), header, records); err != nil {
		return fmt.Errorf("write call to action: %w", err)
	}
	return nil
}

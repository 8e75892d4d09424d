package movetable

import (
	"fmt"
	"strings"
)

// Unavailable is the embed sentinel for moves without a video.
const Unavailable = "unavailable.mp4"

// Move table columns.
const (
	ColumnID          = "id"
	ColumnName        = "name"
	ColumnPrereq      = "prereq"
	ColumnSubseq      = "subseq"
	ColumnType        = "type"
	ColumnAlias       = "alias"
	ColumnDescription = "description"
)

// Video table columns. ColumnID is shared with the move table.
const (
	ColumnTitle     = "title"
	ColumnChannel   = "channel"
	ColumnLink      = "link"
	ColumnTime      = "time"
	ColumnEmbed     = "embed"
	ColumnThumbnail = "thumbnail"
)

// MoveColumns lists the move table header in output order.
var MoveColumns = []string{ColumnID, ColumnName, ColumnPrereq, ColumnSubseq, ColumnType, ColumnAlias, ColumnDescription}

// VideoColumns lists the video table header in output order.
var VideoColumns = []string{ColumnID, ColumnTitle, ColumnChannel, ColumnLink, ColumnTime, ColumnEmbed, ColumnThumbnail}

// headerAliases maps legacy spreadsheet headers to canonical column names.
var headerAliases = map[string]string{
	"movename": ColumnName,
	"nextmove": ColumnSubseq,
	"vid":      ColumnTitle,
}

// Move is one node descriptor of the taxonomy.
type Move struct {
	ID          int
	Name        string
	Prereq      []string
	Subseq      []string
	Type        string
	Alias       string
	Description string
	// Embed is joined from the video table; empty until JoinEmbeds runs.
	Embed string
}

// Types splits the slash-delimited category labels.
func (m Move) Types() []string {
	return splitTrimmed(m.Type, "/")
}

// Field returns the raw textual value of a move column.
func (m Move) Field(column string) (string, error) {
	switch canonicalColumn(column) {
	case ColumnID:
		if m.ID == 0 {
			return "", nil
		}
		return fmt.Sprintf("%d", m.ID), nil
	case ColumnName:
		return m.Name, nil
	case ColumnPrereq:
		return JoinNames(m.Prereq), nil
	case ColumnSubseq:
		return JoinNames(m.Subseq), nil
	case ColumnType:
		return m.Type, nil
	case ColumnAlias:
		return m.Alias, nil
	case ColumnDescription:
		return m.Description, nil
	case ColumnEmbed:
		return m.Embed, nil
	default:
		return "", fmt.Errorf("unknown move column %q", column)
	}
}

// Video is one row of the video table.
type Video struct {
	ID        int
	Title     string
	Channel   string
	Link      string
	Time      string
	Embed     string
	Thumbnail string
}

// Available reports whether the row points at a real clip.
func (v Video) Available() bool {
	return v.Embed != "" && v.Embed != Unavailable
}

// SplitNames parses a comma+space separated name list. Empty and "nan"
// values mean no names.
func SplitNames(value string) []string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || strings.EqualFold(trimmed, "nan") {
		return nil
	}
	return splitTrimmed(trimmed, ",")
}

// JoinNames renders a name list in the table's comma+space form.
func JoinNames(names []string) string {
	return strings.Join(names, ", ")
}

// JoinEmbeds copies each video's embed onto the move with the same id.
// Moves without a video row get the Unavailable sentinel.
func JoinEmbeds(moves []Move, videos []Video) []Move {
	byID := make(map[int]string, len(videos))
	for _, v := range videos {
		byID[v.ID] = v.Embed
	}
	out := make([]Move, len(moves))
	for i, m := range moves {
		m.Embed = Unavailable
		if embed, ok := byID[m.ID]; ok && strings.TrimSpace(embed) != "" {
			m.Embed = embed
		}
		out[i] = m
	}
	return out
}

// IndexByName maps move names to their row position. Later duplicates do
// not overwrite the first occurrence.
func IndexByName(moves []Move) map[string]int {
	index := make(map[string]int, len(moves))
	for i, m := range moves {
		if _, ok := index[m.Name]; !ok {
			index[m.Name] = i
		}
	}
	return index
}

func splitTrimmed(value, sep string) []string {
	parts := strings.Split(value, sep)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func canonicalColumn(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := headerAliases[key]; ok {
		return alias
	}
	return key
}

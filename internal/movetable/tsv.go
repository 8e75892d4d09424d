package movetable

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"datapipe/internal/services"
)

// LoadMoves reads a move table from disk.
func LoadMoves(path string) ([]Move, error) {
	file, err := openTable(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	moves, err := ReadMoves(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return moves, nil
}

// ReadMoves parses a tab-separated move table with a header row.
func ReadMoves(r io.Reader) ([]Move, error) {
	rows, err := readRows(r, ColumnID, ColumnName)
	if err != nil {
		return nil, err
	}
	moves := make([]Move, 0, len(rows))
	for i, row := range rows {
		id, err := parseID(row.get(ColumnID), i+1)
		if err != nil {
			return nil, err
		}
		moves = append(moves, Move{
			ID:          id,
			Name:        strings.TrimSpace(row.get(ColumnName)),
			Prereq:      SplitNames(row.get(ColumnPrereq)),
			Subseq:      SplitNames(row.get(ColumnSubseq)),
			Type:        strings.TrimSpace(row.get(ColumnType)),
			Alias:       strings.TrimSpace(row.get(ColumnAlias)),
			Description: strings.TrimSpace(row.get(ColumnDescription)),
			Embed:       strings.TrimSpace(row.get(ColumnEmbed)),
		})
	}
	return moves, nil
}

// LoadVideos reads a video table from disk.
func LoadVideos(path string) ([]Video, error) {
	file, err := openTable(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	videos, err := ReadVideos(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return videos, nil
}

// ReadVideos parses a tab-separated video table with a header row. Empty
// embeds default to the Unavailable sentinel.
func ReadVideos(r io.Reader) ([]Video, error) {
	rows, err := readRows(r, ColumnID)
	if err != nil {
		return nil, err
	}
	videos := make([]Video, 0, len(rows))
	for i, row := range rows {
		id, err := parseID(row.get(ColumnID), i+1)
		if err != nil {
			return nil, err
		}
		embed := strings.TrimSpace(row.get(ColumnEmbed))
		if embed == "" || strings.EqualFold(embed, "nan") {
			embed = Unavailable
		}
		videos = append(videos, Video{
			ID:        id,
			Title:     strings.TrimSpace(row.get(ColumnTitle)),
			Channel:   strings.TrimSpace(row.get(ColumnChannel)),
			Link:      strings.TrimSpace(row.get(ColumnLink)),
			Time:      strings.TrimSpace(row.get(ColumnTime)),
			Embed:     embed,
			Thumbnail: strings.TrimSpace(row.get(ColumnThumbnail)),
		})
	}
	return videos, nil
}

// WriteMoves writes moves as a tab-separated table.
func WriteMoves(path string, moves []Move) error {
	records := make([][]string, 0, len(moves))
	for _, m := range moves {
		records = append(records, []string{
			strconv.Itoa(m.ID), m.Name, JoinNames(m.Prereq), JoinNames(m.Subseq),
			m.Type, m.Alias, m.Description,
		})
	}
	return WriteTSV(path, MoveColumns, records)
}

// WriteVideos writes videos as a tab-separated table.
func WriteVideos(path string, videos []Video) error {
	records := make([][]string, 0, len(videos))
	for _, v := range videos {
		records = append(records, []string{
			strconv.Itoa(v.ID), v.Title, v.Channel, v.Link, v.Time, v.Embed, v.Thumbnail,
		})
	}
	return WriteTSV(path, VideoColumns, records)
}

type row struct {
	columns map[string]int
	values  []string
}

func (r row) get(column string) string {
	idx, ok := r.columns[column]
	if !ok || idx >= len(r.values) {
		return ""
	}
	return r.values[idx]
}

func newReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	return reader
}

func readRows(r io.Reader, required ...string) ([]row, error) {
	reader := newReader(r)
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, services.Wrap(services.ErrDataIntegrity, "load", "read header", "table is empty", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := canonicalColumn(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := columns[key]; !dup {
			columns[key] = i
		}
	}
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			return nil, services.Wrap(services.ErrDataIntegrity, "load", "read header",
				fmt.Sprintf("missing required column %q", name), nil)
		}
	}

	var rows []row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		if blank(record) {
			continue
		}
		rows = append(rows, row{columns: columns, values: record})
	}
	return rows, nil
}

func parseID(raw string, rowNum int) (int, error) {
	value := strings.TrimSpace(raw)
	id, err := strconv.Atoi(value)
	if err != nil || id <= 0 {
		return 0, services.Wrap(services.ErrDataIntegrity, "load", "parse id",
			fmt.Sprintf("row %d: id %q is not a positive integer", rowNum, value), nil)
	}
	return id, nil
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func openTable(path string) (*os.File, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, services.Wrap(services.ErrNotFound, "load", "open table", path, err)
	}
	if err != nil {
		return nil, fmt.Errorf("open table %s: %w", path, err)
	}
	return file, nil
}

// WriteTSV writes a header and records as a tab-separated file, creating
// the parent directory.
func WriteTSV(path string, header []string, records [][]string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create table directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create table %s: %w", path, err)
	}
	writer := csv.NewWriter(file)
	writer.Comma = '\t'
	if err := writer.Write(header); err != nil {
		file.Close()
		return fmt.Errorf("write header: %w", err)
	}
	if err := writer.WriteAll(records); err != nil {
		file.Close()
		return fmt.Errorf("write rows: %w", err)
	}
	return file.Close()
}

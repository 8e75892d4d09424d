package collect

import (
	"strconv"

	"datapipe/internal/movetable"
)

// Entry joins a move with its video row.
type Entry struct {
	Move  movetable.Move
	Video movetable.Video
}

// Join pairs moves and videos sharing an id, in move order. Moves without a
// video row and videos without a move are dropped.
func Join(moves []movetable.Move, videos []movetable.Video) []Entry {
	byID := make(map[int]movetable.Video, len(videos))
	for _, v := range videos {
		byID[v.ID] = v
	}
	var out []Entry
	for _, m := range moves {
		if v, ok := byID[m.ID]; ok {
			out = append(out, Entry{Move: m, Video: v})
		}
	}
	return out
}

// entryColumns is the report header for joined rows.
var entryColumns = []string{
	movetable.ColumnID, movetable.ColumnName, movetable.ColumnTitle, movetable.ColumnChannel,
	movetable.ColumnLink, movetable.ColumnTime, movetable.ColumnEmbed,
}

func entryRecord(e Entry) []string {
	return []string{
		strconv.Itoa(e.Move.ID), e.Move.Name, e.Video.Title, e.Video.Channel,
		e.Video.Link, e.Video.Time, e.Video.Embed,
	}
}

func entryRecords(entries []Entry) [][]string {
	records := make([][]string, len(entries))
	for i, e := range entries {
		records[i] = entryRecord(e)
	}
	return records
}

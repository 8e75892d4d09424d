package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// MoveHeader is the move table header row.
const MoveHeader = "id\tname\tprereq\tsubseq\ttype\talias\tdescription"

// VideoHeader is the video table header row.
const VideoHeader = "id\ttitle\tchannel\tlink\ttime\tembed"

// WriteTable writes header and rows as a newline-terminated TSV file.
func WriteTable(t testing.TB, path, header string, rows ...string) {
	t.Helper()

	var b strings.Builder
	b.WriteString(header)
	b.WriteByte('\n')
	for _, row := range rows {
		b.WriteString(row)
		b.WriteByte('\n')
	}
	WriteText(t, path, b.String())
}

// WriteText writes content to path, creating parent directories.
func WriteText(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteClip writes a small placeholder video file.
func WriteClip(t testing.TB, path string) {
	t.Helper()
	WriteText(t, path, "clip:"+filepath.Base(path))
}

// ReadText returns the file content or fails the test.
func ReadText(t testing.TB, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

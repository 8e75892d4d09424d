package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// VideoExt is the extension every collected clip carries.
const VideoExt = ".mp4"

var lower = cases.Lower(language.Und)

var unsafeReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces path separators and shell-hostile characters and
// strips leading dots so the result stays inside its directory.
func SanitizeFileName(name string) string {
	cleaned := strings.TrimSpace(unsafeReplacer.Replace(strings.TrimSpace(name)))
	return strings.TrimLeft(cleaned, ".")
}

// EmbedName returns the canonical clip filename for a move name,
// e.g. "Cat Leap" → "cat_leap.mp4".
func EmbedName(name string) string {
	base := SanitizeFileName(name)
	if base == "" {
		return ""
	}
	base = lower.String(base)
	return strings.Join(strings.Fields(base), "_") + VideoExt
}

// UnderscoreName keeps the move name's case and joins words with
// underscores, e.g. "Cat Leap" → "Cat_Leap.mp4". Older collections used this
// form.
func UnderscoreName(name string) string {
	base := SanitizeFileName(name)
	if base == "" {
		return ""
	}
	return strings.Join(strings.Fields(base), "_") + VideoExt
}

// WithVideoExt appends .mp4 unless the name already ends with it.
func WithVideoExt(name string) string {
	if strings.HasSuffix(strings.ToLower(name), VideoExt) {
		return name
	}
	return name + VideoExt
}

// Terms splits text on whitespace and lowercases each term.
func Terms(text string) []string {
	fields := strings.Fields(text)
	for i, f := range fields {
		fields[i] = lower.String(f)
	}
	return fields
}

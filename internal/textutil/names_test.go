package textutil

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEmbedName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Cat Leap", "cat_leap.mp4"},
		{"  Running  Precision ", "running_precision.mp4"},
		{"Kong/Dive", "kong-dive.mp4"},
		{"Ábalo Twist", "ábalo_twist.mp4"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := EmbedName(tc.in); got != tc.want {
			t.Fatalf("EmbedName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestUnderscoreName(t *testing.T) {
	if got := UnderscoreName("Cat Leap"); got != "Cat_Leap.mp4" {
		t.Fatalf("UnderscoreName = %q", got)
	}
}

func TestWithVideoExt(t *testing.T) {
	if got := WithVideoExt("clip"); got != "clip.mp4" {
		t.Fatalf("WithVideoExt(clip) = %q", got)
	}
	if got := WithVideoExt("clip.MP4"); got != "clip.MP4" {
		t.Fatalf("WithVideoExt(clip.MP4) = %q", got)
	}
}

func TestTerms(t *testing.T) {
	if diff := cmp.Diff([]string{"running", "precision"}, Terms(" Running  Precision")); diff != "" {
		t.Fatalf("Terms mismatch (-want +got):\n%s", diff)
	}
}

func TestSanitizeFileName(t *testing.T) {
	if got := SanitizeFileName(` a:b?"c" `); got != "a-bc" {
		t.Fatalf("SanitizeFileName = %q", got)
	}
}

package services_test

import (
	"errors"
	"strings"
	"testing"

	"datapipe/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "collect", "download", "yt-dlp failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"collect", "download", "yt-dlp failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := services.Wrap(services.ErrInvariant, "", "", "", nil)
	if !strings.Contains(err.Error(), "pipeline failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "integrity", err: services.Wrap(services.ErrDataIntegrity, "graph", "build", "unknown move", nil), want: true},
		{name: "invariant", err: services.Wrap(services.ErrInvariant, "masks", "", "counts", nil), want: true},
		{name: "tool", err: services.Wrap(services.ErrExternalTool, "collect", "download", "", errors.New("exit 1")), want: false},
		{name: "plain", err: errors.New("io"), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.IsFatal(tt.err); got != tt.want {
				t.Fatalf("IsFatal(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestCategory(t *testing.T) {
	err := services.Wrap(services.ErrConfiguration, "config", "", "bad split", nil)
	if got := services.Category(err); got != "configuration" {
		t.Fatalf("unexpected category %q", got)
	}
	if got := services.Category(errors.New("x")); got != "unknown" {
		t.Fatalf("unexpected category %q", got)
	}
}

package fetch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pavelc4/gatekeeper-dl-bot/internal/catalog"
	"github.com/pavelc4/gatekeeper-dl-bot/internal/download"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLocate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Song_Title.webm"), 64)
	writeFile(t, filepath.Join(dir, "Song_Title.f251.webm.part"), 512)
	writeFile(t, filepath.Join(dir, "Song_Title.webm.ytdl"), 512)
	writeFile(t, filepath.Join(dir, "Song_Title.jpg"), 8)
	os.Mkdir(filepath.Join(dir, "sub"), 0o755)

	got, err := Locate(dir)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if want := filepath.Join(dir, "Song_Title.webm"); got != want {
		t.Errorf("Locate = %q, want %q", got, want)
	}
}

func TestLocateOnlyPartials(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.mp4.part"), 10)

	if _, err := Locate(dir); err == nil {
		t.Error("expected an error when only partial files exist")
	}
	if _, err := Locate(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected an error for a missing dir")
	}
}

func TestTitleFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/tmp/job/Never_Gonna_Give_You_Up.mp4", "Never Gonna Give You Up"},
		{"/tmp/job/plain.mp3", "plain"},
		{"/tmp/job/___.mp3", "___"},
	}
	for _, tt := range tests {
		if got := TitleFromPath(tt.path); got != tt.want {
			t.Errorf("TitleFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestDiagnostic(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
		want   string
	}{
		{"empty", "", ""},
		{"error line", "WARNING: x\nERROR: [youtube] abc: Video unavailable\n", "ERROR: [youtube] abc: Video unavailable"},
		{"no error line", "something\nlast line\n\n", "last line"},
		{
			"keeps last errors",
			"ERROR: 1\nERROR: 2\nERROR: 3\nERROR: 4",
			"ERROR: 2; ERROR: 3; ERROR: 4",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Diagnostic(tt.stderr); got != tt.want {
				t.Errorf("Diagnostic() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMissingCookiesFileFailsFetch(t *testing.T) {
	y := New(Config{CookiesFile: filepath.Join(t.TempDir(), "cookies.txt")})
	dir := t.TempDir()

	_, err := y.Fetch(context.Background(), download.FetchRequest{
		URL:    "https://youtu.be/abc123",
		Spec:   catalog.Resolve(catalog.Medium),
		Dir:    dir,
		Output: filepath.Join(dir, "%(title)s.%(ext)s"),
	})
	if err == nil || !strings.Contains(err.Error(), "cookies") {
		t.Fatalf("expected cookies error, got %v", err)
	}
}

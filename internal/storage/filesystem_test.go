package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsSubtitleFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"episode.srt", true},
		{"episode.SRT", true},
		{"episode.vtt", true},
		{"notes.txt", true},
		{"movie.mkv", false},
		{"noext", false},
	}
	for _, tt := range tests {
		if got := IsSubtitleFile(tt.name); got != tt.want {
			t.Errorf("IsSubtitleFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestResolvePathRejectsTraversal(t *testing.T) {
	base := t.TempDir()

	if _, err := ResolvePath(base, "../outside.srt"); err == nil {
		t.Error("expected traversal outside the library to be rejected")
	}
	if _, err := ResolvePath(base, "sub/../../outside.srt"); err == nil {
		t.Error("expected nested traversal to be rejected")
	}
	if _, err := ResolvePath(base, "sub/inside.srt"); err != nil {
		t.Errorf("expected in-library path to resolve, got %v", err)
	}
	if _, err := ResolvePath(base, ""); err != nil {
		t.Errorf("expected library root to resolve, got %v", err)
	}
}

func TestListDirectoryFilters(t *testing.T) {
	base := t.TempDir()
	os.Mkdir(filepath.Join(base, "season1"), 0755)
	os.WriteFile(filepath.Join(base, "ep1.srt"), []byte("1\n"), 0644)
	os.WriteFile(filepath.Join(base, "ep1.mkv"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(base, ".hidden.srt"), []byte("1\n"), 0644)

	entries, err := ListDirectory(base, "")
	if err != nil {
		t.Fatalf("ListDirectory: %v", err)
	}

	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name] = true
	}
	if !names["season1"] || !names["ep1.srt"] {
		t.Errorf("expected directory and subtitle file in listing, got %v", names)
	}
	if names["ep1.mkv"] || names[".hidden.srt"] {
		t.Errorf("expected video and hidden files filtered out, got %v", names)
	}
}

func TestReadSubtitle(t *testing.T) {
	base := t.TempDir()
	content := "1\n00:00:01,000 --> 00:00:02,000\nhello\n"
	os.WriteFile(filepath.Join(base, "ep1.srt"), []byte(content), 0644)

	got, err := ReadSubtitle(base, "ep1.srt")
	if err != nil {
		t.Fatalf("ReadSubtitle: %v", err)
	}
	if got != content {
		t.Errorf("ReadSubtitle returned %q, want %q", got, content)
	}

	if _, err := ReadSubtitle(base, "ep1.mkv"); err == nil {
		t.Error("expected non-subtitle extension to be rejected")
	}
	if _, err := ReadSubtitle(base, "../ep1.srt"); err == nil {
		t.Error("expected traversal to be rejected")
	}
}

package transcode

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNaturalLess(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"2.mp3", "10.mp3", true},
		{"10.mp3", "2.mp3", false},
		{"track1.mp3", "track1.mp3", false},
		{"track02.mp3", "track2.mp3", false},
		{"track2.mp3", "track02.mp3", false},
		{"a.mp3", "b.mp3", true},
		{"9.mp3", "10.mp3", true},
		{"chapter_1_part_2", "chapter_1_part_10", true},
		{"abc", "abcd", true},
		{"1", "a", true},
	}
	for _, tt := range tests {
		if got := naturalLess(tt.a, tt.b); got != tt.want {
			t.Errorf("naturalLess(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSupported(t *testing.T) {
	for _, path := range []string{"a.mp3", "b.WAV", "c.opus", "d.flac", "dir/e.m4a"} {
		if !Supported(path) {
			t.Errorf("Supported(%q) = false, want true", path)
		}
	}
	for _, path := range []string{"a.txt", "b.taf", "noext", "e.mp3.bak"} {
		if Supported(path) {
			t.Errorf("Supported(%q) = true, want false", path)
		}
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	names := []string{"10.mp3", "2.mp3", "1.mp3", "cover.jpg", "notes.txt"}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	paths, err := List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"1.mp3", "2.mp3", "10.mp3"}
	if len(paths) != len(want) {
		t.Fatalf("got %d paths %v, want %d", len(paths), paths, len(want))
	}
	for i, p := range paths {
		if filepath.Base(p) != want[i] {
			t.Errorf("paths[%d] = %s, want %s", i, filepath.Base(p), want[i])
		}
	}
}

func TestListSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "song.mp3")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	paths, err := List(path)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(paths) != 1 || paths[0] != path {
		t.Errorf("got %v, want [%s]", paths, path)
	}
}

func TestListRejectsUnsupportedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := List(path); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestListEmptyDir(t *testing.T) {
	if _, err := List(t.TempDir()); err == nil {
		t.Error("expected error for directory without audio files")
	}
}

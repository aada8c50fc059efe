package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "doc.md")

	if err := WriteFileAtomic(path, []byte("# first\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, []byte("# second\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "# second\n" {
		t.Fatalf("content mismatch: got %q", got)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the document to remain, found %d entries", len(entries))
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Fatalf("mode = %o, want 644", info.Mode().Perm())
	}
}

func TestWriteFileAtomicMissingParentIsFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(filepath.Join(blocker, "doc.md"), []byte("x"), 0o644); err == nil {
		t.Fatal("expected error when parent is a file")
	}
}

func TestNonEmptyFile(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.mp3")
	full := filepath.Join(dir, "full.mp3")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte("id3"), 0o644); err != nil {
		t.Fatal(err)
	}

	if NonEmptyFile(empty) {
		t.Fatal("empty file reported as non-empty")
	}
	if !NonEmptyFile(full) {
		t.Fatal("full file reported as empty")
	}
	if NonEmptyFile(filepath.Join(dir, "missing.mp3")) {
		t.Fatal("missing file reported as non-empty")
	}
	if NonEmptyFile(dir) {
		t.Fatal("directory reported as file")
	}
}

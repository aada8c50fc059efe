package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteDocumentReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "doc.md")
	var s FileStorage
	if err := s.WriteDocument(path, "# one\n"); err != nil {
		t.Fatalf("WriteDocument: %v", err)
	}
	if err := s.WriteDocument(path, "# two\n"); err != nil {
		t.Fatalf("WriteDocument: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "# two\n" {
		t.Fatalf("unexpected content %q", data)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestWriteDocumentRequiresPath(t *testing.T) {
	if err := (FileStorage{}).WriteDocument(" ", "x"); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestDocumentPathAndTitle(t *testing.T) {
	path := DocumentPath("/out", `第一集: "开始" / intro`)
	if path != filepath.Join("/out", "第一集_开始_intro.md") {
		t.Fatalf("unexpected path %q", path)
	}
	if got := TitleForPath("/audio/My_Great_Talk.mp3"); got != "My Great Talk" {
		t.Fatalf("unexpected title %q", got)
	}
	if got := DocumentPath("/out", "???"); got != filepath.Join("/out", "untitled.md") {
		t.Fatalf("unexpected fallback %q", got)
	}
}

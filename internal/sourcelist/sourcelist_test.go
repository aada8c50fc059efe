package sourcelist

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func assertEntries(t *testing.T, got, want []Entry) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestLoadText(t *testing.T) {
	path := writeFile(t, "urls.txt", "# watch later\nhttps://youtu.be/a\n\n  https://youtu.be/b  \nnot a url\n")
	entries, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	assertEntries(t, entries, []Entry{{URL: "https://youtu.be/a"}, {URL: "https://youtu.be/b"}})
}

func TestLoadCSVWithHeader(t *testing.T) {
	path := writeFile(t, "list.csv", "Title,Video Link\nFirst,https://youtu.be/1\nSecond,https://youtu.be/2\nBroken,\n")
	entries, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	assertEntries(t, entries, []Entry{
		{URL: "https://youtu.be/1", Title: "First"},
		{URL: "https://youtu.be/2", Title: "Second"},
	})
}

func TestLoadCSVWithoutHeader(t *testing.T) {
	path := writeFile(t, "list.csv", "note,https://youtu.be/1\nother,https://youtu.be/2\n")
	entries, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	assertEntries(t, entries, []Entry{{URL: "https://youtu.be/1"}, {URL: "https://youtu.be/2"}})
}

func TestLoadXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	rows := [][]any{
		{"Name", "URL", "Notes"},
		{"Keynote", "https://youtu.be/k", "day one"},
		{"", "https://youtu.be/u", ""},
		{"Skipped", "ftp://example.com", ""},
	}
	for i, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", axis, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "list.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}

	entries, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	assertEntries(t, entries, []Entry{
		{URL: "https://youtu.be/k", Title: "Keynote"},
		{URL: "https://youtu.be/u"},
	})
}

func TestLoadEmpty(t *testing.T) {
	path := writeFile(t, "empty.txt", "# nothing here\n")
	if _, err := Load(path); !errors.Is(err, ErrNoEntries) {
		t.Fatalf("expected ErrNoEntries, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

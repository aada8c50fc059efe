// Package sourcelist reads batches of video URLs from text, CSV and Excel
// files for bulk submission.
package sourcelist

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrNoEntries is returned when a file holds no usable URLs.
var ErrNoEntries = errors.New("no video urls found")

// Entry is one video to submit. Title is empty when the file has no title
// column.
type Entry struct {
	URL   string
	Title string
}

// Load reads entries from path, choosing the parser by extension. Files
// without a recognised extension are read as plain text.
func Load(path string) ([]Entry, error) {
	var (
		entries []Entry
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		entries, err = loadXLSX(path)
	case ".csv":
		entries, err = loadCSV(path)
	default:
		entries, err = loadText(path)
	}
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoEntries, path)
	}
	return entries, nil
}

func loadText(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open list: %w", err)
	}
	defer file.Close()
	return parseText(file)
}

func parseText(r io.Reader) ([]Entry, error) {
	var out []Entry
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if looksLikeURL(line) {
			out = append(out, Entry{URL: line})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read list: %w", err)
	}
	return out, nil
}

func loadCSV(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return fromRows(rows), nil
}

func loadXLSX(path string) ([]Entry, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return fromRows(rows), nil
}

// fromRows finds the URL and title columns by header, falling back to the
// first column holding http(s) links when no header names a URL column.
func fromRows(rows [][]string) []Entry {
	if len(rows) == 0 {
		return nil
	}
	urlIdx, titleIdx := headerColumns(rows[0])
	data := rows[1:]
	if urlIdx == -1 {
		urlIdx = firstURLColumn(rows)
		titleIdx = -1
		data = rows
	}
	if urlIdx == -1 {
		return nil
	}

	var out []Entry
	for _, row := range data {
		value := cell(row, urlIdx)
		if !looksLikeURL(value) {
			continue
		}
		out = append(out, Entry{URL: value, Title: cell(row, titleIdx)})
	}
	return out
}

func headerColumns(header []string) (urlIdx, titleIdx int) {
	urlIdx, titleIdx = -1, -1
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case looksLikeURL(l):
			return -1, -1
		case strings.Contains(l, "url") || strings.Contains(l, "link"):
			if urlIdx == -1 {
				urlIdx = i
			}
		case strings.Contains(l, "title") || l == "name":
			if titleIdx == -1 {
				titleIdx = i
			}
		case strings.Contains(l, "video"):
			if urlIdx == -1 {
				urlIdx = i
			}
		}
	}
	return urlIdx, titleIdx
}

func firstURLColumn(rows [][]string) int {
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	for col := 0; col < width; col++ {
		for _, row := range rows {
			if looksLikeURL(cell(row, col)) {
				return col
			}
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func looksLikeURL(value string) bool {
	lower := strings.ToLower(strings.TrimSpace(value))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Package storage writes finished transcript documents to the output
// directory.
package storage

import (
	"fmt"
	"path/filepath"
	"strings"

	"yt2text/internal/fileutil"
	"yt2text/internal/textutil"
)

// DocumentExt is the extension of every written document.
const DocumentExt = ".md"

// FileStorage writes documents to the local filesystem.
type FileStorage struct{}

// WriteDocument replaces path with content atomically.
func (FileStorage) WriteDocument(path, content string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("write document: path required")
	}
	if err := fileutil.WriteFileAtomic(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write document %s: %w", path, err)
	}
	return nil
}

// DocumentPath is where the document for title lives inside outputDir.
func DocumentPath(outputDir, title string) string {
	return filepath.Join(outputDir, textutil.SanitizeFileName(title)+DocumentExt)
}

// TitleForPath derives the document heading from a file path, the way audio
// files named after their video are turned back into titles.
func TitleForPath(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return textutil.TitleFromStem(stem)
}

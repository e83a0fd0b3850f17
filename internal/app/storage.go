package app

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/Alexvc23/ETL-vacantions-France-and-neighboors/internal/matrix"
)

// WriteFileAtomic writes through a temp file and renames it over path.
// An existing file is kept as path + BackupSuffix.
func WriteFileAtomic(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, DirPermissions); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return err
	}

	// Write to temp file first
	tmpFile := path + TmpSuffix
	if err := os.WriteFile(tmpFile, buf.Bytes(), FilePermissions); err != nil {
		return err
	}

	// Create backup
	if _, err := os.Stat(path); err == nil {
		if err := os.Rename(path, path+BackupSuffix); err != nil {
			log.Printf("⚠️  Failed to create backup of %s: %v", path, err)
		}
	}

	if err := os.Rename(tmpFile, path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", tmpFile, err)
	}
	return nil
}

// SaveMatrix writes the table to path, choosing the format from the extension (.csv or .json)
func SaveMatrix(path string, t *matrix.Table) error {
	var write func(io.Writer) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		write = func(w io.Writer) error { return WriteMatrixCSV(w, t, ';') }
	case ".json":
		write = func(w io.Writer) error { return WriteMatrixJSON(w, t) }
	default:
		return fmt.Errorf("unsupported output format %q (use .csv or .json)", filepath.Ext(path))
	}

	if err := WriteFileAtomic(path, write); err != nil {
		return err
	}
	log.Printf("✅ Matrix saved to %s (%d rows)", path, len(t.Rows))
	return nil
}

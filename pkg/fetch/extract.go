package fetch

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ExtractToTemp extracts archivePath into a fresh uuid-named directory
// under workRoot and returns the extraction root
func ExtractToTemp(ctx context.Context, archivePath, workRoot string) (string, error) {
	destDir := filepath.Join(workRoot, uuid.New().String())
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create extraction directory: %w", err)
	}

	if err := ExtractZip(ctx, archivePath, destDir); err != nil {
		os.RemoveAll(destDir)
		return "", err
	}

	return destDir, nil
}

// ExtractZip extracts a zip archive into destDir. Entries whose
// resolved path escapes destDir are rejected.
func ExtractZip(ctx context.Context, archivePath, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer reader.Close()

	for _, entry := range reader.File {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := extractEntry(entry, destDir); err != nil {
			return fmt.Errorf("failed to extract %s: %w", entry.Name, err)
		}
	}

	return nil
}

func extractEntry(entry *zip.File, destDir string) error {
	destPath := filepath.Join(destDir, filepath.FromSlash(entry.Name))

	// Zip-slip guard
	if !strings.HasPrefix(destPath, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return fmt.Errorf("entry path escapes extraction directory")
	}

	if entry.FileInfo().IsDir() {
		return os.MkdirAll(destPath, 0755)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return err
	}

	src, err := entry.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, entry.Mode().Perm()|0400)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Archive keeps rendered export files on disk so signed download links can be
// shared after the originating request has finished. Files are grouped by the
// day they were generated, which keeps pruning cheap.
type Archive struct {
	baseDir string
	now     func() time.Time
}

// NewArchive ensures the base directory exists and returns a handle to it.
func NewArchive(baseDir string) (*Archive, error) {
	if baseDir == "" {
		baseDir = "./exports"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	return &Archive{baseDir: baseDir, now: time.Now}, nil
}

// Store writes the payload under a date-stamped subdirectory and returns the
// relative path the file can later be fetched by.
func (a *Archive) Store(filename string, payload []byte) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("archive filename required")
	}
	rel := filepath.Join(a.now().UTC().Format("2006-01-02"), filepath.Base(filename))
	abs := filepath.Join(a.baseDir, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("prepare archive directory: %w", err)
	}
	if err := os.WriteFile(abs, payload, 0o644); err != nil {
		return "", fmt.Errorf("write archive file: %w", err)
	}
	return filepath.ToSlash(rel), nil
}

// Read returns the contents of a previously stored file. Paths that escape the
// archive root are rejected before touching the filesystem.
func (a *Archive) Read(relPath string) ([]byte, error) {
	abs, err := a.resolve(relPath)
	if err != nil {
		return nil, err
	}
	payload, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read archive file: %w", err)
	}
	return payload, nil
}

// Prune deletes archived files older than maxAge and returns how many were
// removed. Empty day directories are left in place.
func (a *Archive) Prune(maxAge time.Duration) (int, error) {
	cutoff := a.now().Add(-maxAge)
	removed := 0
	err := filepath.WalkDir(a.baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		removed++
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("prune archive: %w", err)
	}
	return removed, nil
}

func (a *Archive) resolve(relPath string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(relPath))
	if cleaned == "." || filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("invalid archive path %q", relPath)
	}
	return filepath.Join(a.baseDir, cleaned), nil
}

package infrastructure

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yourusername/ytmm-go/internal/domain"
)

// PurgeStale removes top-level entries of dir whose modification time is older
// than maxAge, whatever their extension. Request directories are removed recursively.
// Entries named in keep are left alone. A missing dir is not an error.
func PurgeStale(dir string, maxAge time.Duration, now time.Time, keep ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read scratch directory: %w", err)
	}

	var removed []string
	var errs []error
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			// Entry vanished between ReadDir and Info
			continue
		}
		if now.Sub(info.ModTime()) <= maxAge || contains(keep, entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", path, err))
			continue
		}
		removed = append(removed, path)
	}

	return removed, errors.Join(errs...)
}

// NewestFile returns the most recently modified regular file in dir with the
// given extension, and its size in bytes
func NewestFile(dir, ext string) (string, int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read output directory: %w", err)
	}

	var newest os.FileInfo
	var newestPath string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == nil || info.ModTime().After(newest.ModTime()) {
			newest = info
			newestPath = filepath.Join(dir, entry.Name())
		}
	}

	if newest == nil {
		return "", 0, fmt.Errorf("%w: no %s file in %s", domain.ErrNoOutput, ext, dir)
	}
	return newestPath, newest.Size(), nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

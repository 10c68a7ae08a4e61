package organizer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"sweep/internal/fileutil"
)

// move relocates source into destDir, deduplicating the name on collision.
// Cross-device renames fall back to a verified copy followed by removal of
// the source.
func (o *Organizer) move(source, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create destination %s: %w", destDir, err)
	}

	target := uniqueDestination(destDir, filepath.Base(source))
	if err := os.Rename(source, target); err != nil {
		if !isCrossDevice(err) {
			return "", fmt.Errorf("move %s: %w", filepath.Base(source), err)
		}
		if err := fileutil.CopyFileVerified(source, target); err != nil {
			return "", fmt.Errorf("copy %s across filesystems: %w", filepath.Base(source), err)
		}
		if err := os.Remove(source); err != nil {
			return "", fmt.Errorf("remove source after copy: %w", err)
		}
	}
	return target, nil
}

// uniqueDestination picks a collision-free name inside dir. On collision the
// stem gets a numeric suffix: report.pdf, report_1.pdf, report_2.pdf. The
// existence check races with other writers; the window is accepted.
func uniqueDestination(dir, name string) string {
	candidate := filepath.Join(dir, name)
	if !exists(candidate) {
		return candidate
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
		if !exists(candidate) {
			return candidate
		}
	}
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

func isCrossDevice(err error) bool {
	var linkErr *os.LinkError
	return errors.As(err, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV)
}

package logging

import (
	"fmt"
	"os"
)

// Rotator handles size-based log file rotation, keeping a bounded chain
// of numbered backups (debug.log.1 is the newest backup)
type Rotator struct {
	basePath   string
	maxSizeMB  int
	maxBackups int
}

// NewRotator creates a rotator for the given log file
func NewRotator(basePath string, maxSizeMB, maxBackups int) *Rotator {
	return &Rotator{
		basePath:   basePath,
		maxSizeMB:  maxSizeMB,
		maxBackups: maxBackups,
	}
}

// ShouldRotate reports whether currentSize exceeds the threshold
func (r *Rotator) ShouldRotate(currentSize int64) bool {
	return currentSize >= int64(r.maxSizeMB)*1024*1024
}

// Rotate shifts backups up by one (deleting the oldest if the chain is
// full) and renames the current file to .1. Callers handle errors by
// continuing with the current file.
func (r *Rotator) Rotate() error {
	if r.maxBackups == 0 {
		if err := os.Remove(r.basePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove current log file: %w", err)
		}
		return nil
	}

	oldest := fmt.Sprintf("%s.%d", r.basePath, r.maxBackups)
	if _, err := os.Stat(oldest); err == nil {
		if err := os.Remove(oldest); err != nil {
			return fmt.Errorf("failed to delete oldest backup %s: %w", oldest, err)
		}
	}

	for i := r.maxBackups - 1; i >= 1; i-- {
		oldPath := fmt.Sprintf("%s.%d", r.basePath, i)
		newPath := fmt.Sprintf("%s.%d", r.basePath, i+1)
		if _, err := os.Stat(oldPath); err == nil {
			if err := os.Rename(oldPath, newPath); err != nil {
				return fmt.Errorf("failed to rename backup %s to %s: %w", oldPath, newPath, err)
			}
		}
	}

	if _, err := os.Stat(r.basePath); err == nil {
		if err := os.Rename(r.basePath, r.basePath+".1"); err != nil {
			return fmt.Errorf("failed to rename current log %s: %w", r.basePath, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat current log file: %w", err)
	}

	return nil
}

package task

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"veestributes/logger"
)

// CleanupOldFiles removes regular files under dir whose modification
// time is older than maxAge. When pattern is non-empty only matching
// base names are considered (filepath.Match syntax). Files that vanish
// between listing and removal are not an error. Returns the number of
// files removed.
func CleanupOldFiles(dir string, maxAge time.Duration, pattern string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if pattern != "" {
			matched, err := filepath.Match(pattern, entry.Name())
			if err != nil {
				return removed, fmt.Errorf("invalid cleanup pattern %q: %w", pattern, err)
			}
			if !matched {
				continue
			}
		}

		info, err := entry.Info()
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, fmt.Errorf("failed to stat %s: %w", entry.Name(), err)
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, fmt.Errorf("failed to remove %s: %w", path, err)
		}
		removed++
	}

	return removed, nil
}

// Janitor periodically sweeps scratch and upload directories for
// leftovers of interrupted processing runs.
type Janitor struct {
	ScratchDir    string
	ScratchMaxAge time.Duration
	UploadDirs    []string
	UploadMaxAge  time.Duration
	Interval      time.Duration
}

// Run sweeps on a ticker until the context is cancelled. One sweep runs
// immediately at startup.
func (j *Janitor) Run(ctx context.Context) {
	j.sweep()

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.sweep()
		}
	}
}

func (j *Janitor) sweep() {
	if j.ScratchDir != "" {
		if removed, err := CleanupOldFiles(j.ScratchDir, j.ScratchMaxAge, ""); err != nil {
			logger.Error("Scratch cleanup failed", logger.String("dir", j.ScratchDir), logger.ErrorField(err))
		} else if removed > 0 {
			logger.Info("Scratch cleanup removed files", logger.String("dir", j.ScratchDir), logger.Int("removed", removed))
		}
	}

	// Stale *.tmp uploads are partial writes from aborted requests.
	for _, dir := range j.UploadDirs {
		if removed, err := CleanupOldFiles(dir, j.UploadMaxAge, "*.tmp"); err != nil {
			logger.Error("Upload cleanup failed", logger.String("dir", dir), logger.ErrorField(err))
		} else if removed > 0 {
			logger.Info("Upload cleanup removed files", logger.String("dir", dir), logger.Int("removed", removed))
		}
	}
}

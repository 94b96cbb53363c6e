package download

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pavelc4/gatekeeper-dl-bot/pkg/logger"
)

// SweepStale removes job directories left in workDir by a previous process.
// It must run before the first job of this process starts.
func SweepStale(ctx context.Context, workDir string) int {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		logger.Warn("Cannot prepare work dir", "dir", workDir, "error", err)
		return 0
	}

	matches, err := filepath.Glob(filepath.Join(workDir, jobDirPrefix+"*"))
	if err != nil {
		logger.Warn("Error listing stale job dirs", "dir", workDir, "error", err)
		return 0
	}

	cleaned := 0
	for _, path := range matches {
		select {
		case <-ctx.Done():
			logger.Warn("Stale job sweep cancelled", "cleaned", cleaned)
			return cleaned
		default:
		}

		if err := RemovePath(path); err != nil {
			logger.Warn("Failed to remove stale job dir", "path", path, "error", err)
			continue
		}
		cleaned++
	}

	if cleaned > 0 {
		logger.Info("Removed stale job directories", "count", cleaned, "dir", workDir)
	}
	return cleaned
}

package sink

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FileArea delivers documents to a shared directory on local disk. Oversized
// catalogues land here instead of the queue.
type FileArea struct {
	dir    string
	logger *slog.Logger
}

// NewFileArea builds a file-area sink rooted at dir. A nil logger falls back
// to slog.Default.
func NewFileArea(dir string, logger *slog.Logger) *FileArea {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileArea{dir: dir, logger: logger.With("component", "filearea")}
}

// Deliver writes the payload under a temporary name and renames it into
// place.
func (f *FileArea) Deliver(ctx context.Context, fileName string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("creating file area %s: %w", f.dir, err)
	}
	final := filepath.Join(f.dir, fileName)
	tmp := final + ".part"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming %s into place: %w", tmp, err)
	}
	f.logger.Info("document sent to file area", "file_name", fileName, "size", len(payload))
	return nil
}

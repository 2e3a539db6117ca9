package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockName = ".audit.lock"

// Writer stores records as run-<timestamp>-<run id>.json under a directory.
// Concurrent cinematch processes sharing the directory take turns through a
// lock file.
type Writer struct {
	dir         string
	lockTimeout time.Duration
}

// NewWriter returns a Writer for dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, lockTimeout: 5 * time.Second}
}

// Write stores rec and returns the file path.
func (w *Writer) Write(ctx context.Context, rec Record) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create audit dir: %w", err)
	}

	lock := flock.New(filepath.Join(w.dir, lockName))
	lockCtx, cancel := context.WithTimeout(ctx, w.lockTimeout)
	defer cancel()
	ok, err := lock.TryLockContext(lockCtx, 50*time.Millisecond)
	if err != nil {
		return "", fmt.Errorf("acquire audit lock: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("acquire audit lock: %s is held by another process", lock.Path())
	}
	defer func() { _ = lock.Unlock() }()

	name := fmt.Sprintf("run-%s-%s.json", rec.StartedAt.UTC().Format("20060102T150405Z"), rec.RunID)
	path := filepath.Join(w.dir, name)
	tmp, err := os.CreateTemp(w.dir, ".run-*.json")
	if err != nil {
		return "", fmt.Errorf("create audit file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := Encode(tmp, rec); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close audit file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("publish audit file: %w", err)
	}
	return path, nil
}

// Encode writes rec as indented JSON.
func Encode(w io.Writer, rec Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("encode audit record: %w", err)
	}
	return nil
}

package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// FileCursor keeps the last sync time in a small JSON file, for backends
// that have nowhere to put it themselves.
type FileCursor struct {
	path string
}

func NewFileCursor(path string) *FileCursor {
	return &FileCursor{path: path}
}

func (c *FileCursor) LastSync(_ context.Context) (time.Time, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("reading sync state: %w", err)
	}
	v := gjson.GetBytes(data, "last_sync")
	if !v.Exists() {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v.String())
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing sync state: %w", err)
	}
	return t, nil
}

func (c *FileCursor) SetLastSync(_ context.Context, t time.Time) error {
	data, err := sjson.SetBytes([]byte(`{}`), "last_sync", t.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("encoding sync state: %w", err)
	}
	if dir := filepath.Dir(c.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating sync state dir: %w", err)
		}
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing sync state: %w", err)
	}
	return os.Rename(tmp, c.path)
}

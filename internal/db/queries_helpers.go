package db

import "github.com/chris/sprout/internal/store"

var (
	_ store.Backend     = (*DB)(nil)
	_ store.RunRecorder = (*DB)(nil)
	_ store.Cursor      = (*DB)(nil)
)

func nullStr(s string) any {
	if s == "" || s == "null" {
		return nil
	}
	return s
}

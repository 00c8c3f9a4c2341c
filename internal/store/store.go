package store

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/chris/sprout/internal/care"
)

// Backend persists the plant table and the care history. SavePlants always
// rewrites the whole table; there is no row-level update.
type Backend interface {
	LoadPlants(ctx context.Context) ([]care.Plant, error)
	SavePlants(ctx context.Context, plants []care.Plant) error
	LoadHistory(ctx context.Context) ([]care.HistoryEntry, error)
	AppendHistory(ctx context.Context, entries []care.HistoryEntry) error
}

// Run is one completed advisor pass.
type Run struct {
	ID        string `json:"id"`
	Tasks     int    `json:"tasks"`
	Summary   string `json:"summary,omitempty"`
	CreatedAt string `json:"created_at"`
}

// sqliteTimeLayout is what datetime('now') produces.
const sqliteTimeLayout = "2006-01-02 15:04:05"

// Time parses CreatedAt. Older rows carry SQLite's own timestamp layout,
// which is UTC.
func (r Run) Time() (time.Time, error) {
	v := strings.TrimSpace(r.CreatedAt)
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(sqliteTimeLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing run time %q: %w", r.CreatedAt, err)
	}
	return t, nil
}

// RunRecorder is implemented by backends that keep a log of advisor runs.
type RunRecorder interface {
	RecordRun(ctx context.Context, run Run) error
	LastRun(ctx context.Context) (*Run, error)
}

// Cursor remembers how far the reply feed has been read, so a later sync
// does not reconcile the same messages twice. LastSync is zero before the
// first sync.
type Cursor interface {
	LastSync(ctx context.Context) (time.Time, error)
	SetLastSync(ctx context.Context, t time.Time) error
}

// Store owns the in-memory plant table for a single run.
type Store struct {
	backend Backend
	plants  []care.Plant
	now     func() time.Time
}

// Open loads the plant table from the backend.
func Open(ctx context.Context, backend Backend) (*Store, error) {
	plants, err := backend.LoadPlants(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading plants: %w", err)
	}
	log.Printf("store: loaded %d plant(s)", len(plants))
	return &Store{backend: backend, plants: plants, now: time.Now}, nil
}

// SetClock replaces the clock used to date history entries.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Backend returns the persistence layer behind the store.
func (s *Store) Backend() Backend {
	return s.backend
}

// Inventory returns a copy of the current plant table.
func (s *Store) Inventory() []care.Plant {
	return clonePlants(s.plants)
}

func (s *Store) today() string {
	return s.now().Format(care.DateLayout)
}

// SyncReplies reconciles user replies against pending actions. It appends
// history for every confirmed action and rewrites the plant table only when
// something changed. It reports whether anything changed.
func (s *Store) SyncReplies(ctx context.Context, messages []care.InboundMessage) (bool, error) {
	log.Printf("store: checking mailbox, found %d message(s)", len(messages))
	if len(messages) == 0 {
		return false, nil
	}

	r := Reconcile(s.plants, messages, s.today())

	if len(r.History) > 0 {
		if err := s.backend.AppendHistory(ctx, r.History); err != nil {
			return false, fmt.Errorf("appending care history: %w", err)
		}
	}
	if !r.Changed {
		log.Printf("store: no changes made")
		return false, nil
	}
	if err := s.backend.SavePlants(ctx, r.Plants); err != nil {
		return false, fmt.Errorf("saving plants: %w", err)
	}
	s.plants = r.Plants
	log.Printf("store: saved %d plant(s), %d history entr(ies)", len(r.Plants), len(r.History))
	return true, nil
}

func clonePlants(plants []care.Plant) []care.Plant {
	out := make([]care.Plant, len(plants))
	for i, p := range plants {
		out[i] = p.Clone()
	}
	return out
}

package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/chris/sprout/internal/care"
)

const defaultHistoryLimit = 5

// RecentHistory returns the newest history entries, optionally only for one
// plant (case-insensitive).
func (s *Store) RecentHistory(ctx context.Context, plant string, limit int) ([]care.HistoryEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	entries, err := s.backend.LoadHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	if plant != "" {
		var filtered []care.HistoryEntry
		for _, e := range entries {
			if strings.EqualFold(e.Plant, plant) {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	entries = newestFirst(entries)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// HistorySummary groups the newest entries per inventory plant. Plants with
// no history are absent from the map.
func (s *Store) HistorySummary(ctx context.Context, limitPerPlant int) (map[string][]care.HistoryEntry, error) {
	if limitPerPlant <= 0 {
		limitPerPlant = defaultHistoryLimit
	}
	entries, err := s.backend.LoadHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	byPlant := make(map[string][]care.HistoryEntry)
	for _, e := range newestFirst(entries) {
		byPlant[e.Plant] = append(byPlant[e.Plant], e)
	}

	summary := make(map[string][]care.HistoryEntry)
	for _, p := range s.plants {
		h := byPlant[p.Name]
		if len(h) == 0 {
			continue
		}
		if len(h) > limitPerPlant {
			h = h[:limitPerPlant]
		}
		summary[p.Name] = h
	}
	return summary, nil
}

// newestFirst sorts by date descending; among equal dates the later
// insertion comes first.
func newestFirst(entries []care.HistoryEntry) []care.HistoryEntry {
	out := make([]care.HistoryEntry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

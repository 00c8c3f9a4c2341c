package agent

import (
	"context"
	"time"

	"github.com/chris/sprout/internal/care"
	"github.com/chris/sprout/internal/guidelines"
)

// GuidelineSource supplies per-species watering guidance.
type GuidelineSource interface {
	Lookup(ctx context.Context, name string) guidelines.Guideline
}

type WateringGuidelines struct {
	MinDays   int    `json:"min_days"`
	MaxDays   int    `json:"max_days"`
	Frequency string `json:"frequency"`
}

// PlantContext is what the recommender sees about one plant. A nil entry in
// DaysSinceAction means the action has never been recorded.
type PlantContext struct {
	Name               string               `json:"name"`
	Environment        string               `json:"environment"`
	DaysSinceAction    map[care.Action]*int `json:"days_since_action"`
	WateringGuidelines WateringGuidelines   `json:"watering_guidelines"`
	Notes              string               `json:"notes"`
	Light              string               `json:"light,omitempty"`
	Humidity           string               `json:"humidity,omitempty"`
	RecentCare         []string             `json:"recent_care,omitempty"`

	history []care.HistoryEntry
}

// BuildInventory computes the recommender's view of every plant. history maps
// plant name to entries, newest first.
func BuildInventory(ctx context.Context, plants []care.Plant, history map[string][]care.HistoryEntry, source GuidelineSource, today time.Time) []PlantContext {
	out := make([]PlantContext, 0, len(plants))
	for _, p := range plants {
		days := make(map[care.Action]*int, len(care.Actions))
		for _, a := range care.Actions {
			days[a] = nil
		}
		days[care.Water] = daysPtr(p.LastWatered, today)
		days[care.Fertilize] = daysPtr(p.LastFertilized, today)

		entries := history[p.Name]
		for _, a := range care.Actions {
			if a == care.Water || a == care.Fertilize {
				continue
			}
			for _, e := range entries {
				if e.Action != a {
					continue
				}
				if d := daysPtr(e.Date, today); d != nil {
					days[a] = d
					break
				}
			}
		}

		g := guidelines.Default
		if source != nil {
			g = source.Lookup(ctx, p.Name)
		}

		out = append(out, PlantContext{
			Name:            p.Name,
			Environment:     p.Environment,
			DaysSinceAction: days,
			WateringGuidelines: WateringGuidelines{
				MinDays:   g.MinWateringDays,
				MaxDays:   g.MaxWateringDays,
				Frequency: g.Watering,
			},
			Notes:    p.Notes,
			Light:    p.Light,
			Humidity: p.Humidity,
			history:  entries,
		})
	}
	return out
}

// withRecentCare returns a copy of inventory listing at most n history
// entries per plant.
func withRecentCare(inventory []PlantContext, n int) []PlantContext {
	out := make([]PlantContext, len(inventory))
	for i, p := range inventory {
		p.RecentCare = nil
		for j, e := range p.history {
			if j >= n {
				break
			}
			line := e.Date + " " + string(e.Action)
			if e.Notes != "" {
				line += " (" + e.Notes + ")"
			}
			p.RecentCare = append(p.RecentCare, line)
		}
		out[i] = p
	}
	return out
}

func maxHistory(inventory []PlantContext) int {
	n := 0
	for _, p := range inventory {
		if len(p.history) > n {
			n = len(p.history)
		}
	}
	return n
}

func daysPtr(date string, today time.Time) *int {
	d, ok := care.DaysSince(date, today)
	if !ok {
		return nil
	}
	return &d
}

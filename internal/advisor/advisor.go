// Package advisor runs the daily plant-care pass: sync replies, gather
// context, ask for recommendations, notify, and mark tasks pending.
package advisor

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/chris/sprout/internal/agent"
	"github.com/chris/sprout/internal/care"
	"github.com/chris/sprout/internal/notify"
	"github.com/chris/sprout/internal/store"
	"github.com/chris/sprout/internal/weather"
	"github.com/google/uuid"
)

const (
	defaultReplyWindow     = 24 * time.Hour
	defaultHistoryPerPlant = 5
)

type Recommender interface {
	Recommend(ctx context.Context, forecast *weather.Forecast, inventory []care.Plant, history map[string][]care.HistoryEntry) (agent.Recommendation, error)
}

type ForecastSource interface {
	Forecast(ctx context.Context) (*weather.Forecast, error)
}

type Advisor struct {
	backend  store.Backend
	notifier notify.Notifier
	weather  ForecastSource
	agent    Recommender

	// Cursor records how far replies have been read. New uses the backend
	// when it can hold one and an in-process cursor otherwise.
	Cursor store.Cursor

	ReplyWindow     time.Duration
	HistoryPerPlant int
	now             func() time.Time
}

// New wires an advisor. forecasts may be nil to run without weather context.
func New(backend store.Backend, notifier notify.Notifier, forecasts ForecastSource, rec Recommender) *Advisor {
	cursor, ok := backend.(store.Cursor)
	if !ok {
		cursor = &store.MemoryCursor{}
	}
	return &Advisor{
		Cursor:          cursor,
		backend:         backend,
		notifier:        notifier,
		weather:         forecasts,
		agent:           rec,
		ReplyWindow:     defaultReplyWindow,
		HistoryPerPlant: defaultHistoryPerPlant,
		now:             time.Now,
	}
}

// RunOnce performs one full advisor pass. Weather and history problems are
// logged and the pass continues without them; a store failure or a failed
// recommendation ends it.
func (a *Advisor) RunOnce(ctx context.Context) error {
	id := uuid.NewString()
	label := fmt.Sprintf("advisor[%s]", id[:8])
	log.Printf("%s: starting", label)

	st, err := a.sync(ctx, label)
	if err != nil {
		return err
	}

	var forecast *weather.Forecast
	if a.weather != nil {
		if forecast, err = a.weather.Forecast(ctx); err != nil {
			log.Printf("%s: weather unavailable, continuing without it: %v", label, err)
			forecast = nil
		}
	}

	history, err := st.HistorySummary(ctx, a.HistoryPerPlant)
	if err != nil {
		log.Printf("%s: care history unavailable: %v", label, err)
		history = nil
	}

	rec, err := a.agent.Recommend(ctx, forecast, st.Inventory(), history)
	if err != nil {
		if sendErr := a.notifier.Send(ctx, "Plant advisor failed: "+err.Error()); sendErr != nil {
			log.Printf("%s: reporting failure: %v", label, sendErr)
		}
		return fmt.Errorf("recommending: %w", err)
	}

	if len(rec.Tasks) > 0 {
		msg := FormatTasks(rec.Tasks, rec.Summary, a.now().Format(care.DateLayout))
		if err := a.notifier.Send(ctx, msg); err != nil {
			log.Printf("%s: sending tasks: %v", label, err)
		}
		if err := st.MarkPending(ctx, rec.Tasks); err != nil {
			return fmt.Errorf("marking pending: %w", err)
		}
		log.Printf("%s: sent %d care recommendation(s)", label, len(rec.Tasks))
	} else {
		log.Printf("%s: no tasks today", label)
	}

	if rr, ok := a.backend.(store.RunRecorder); ok {
		run := store.Run{
			ID:        id,
			Tasks:     len(rec.Tasks),
			Summary:   rec.Summary,
			CreatedAt: a.now().UTC().Format(time.RFC3339),
		}
		if err := rr.RecordRun(ctx, run); err != nil {
			log.Printf("%s: recording run: %v", label, err)
		}
	}
	return nil
}

// SyncOnly pulls replies and reconciles them without asking for new tasks.
func (a *Advisor) SyncOnly(ctx context.Context) error {
	_, err := a.sync(ctx, "sync")
	return err
}

func (a *Advisor) sync(ctx context.Context, label string) (*store.Store, error) {
	st, err := store.Open(ctx, a.backend)
	if err != nil {
		return nil, err
	}
	st.SetClock(a.now)

	fetchedAt := a.now()
	since := fetchedAt.Add(-a.ReplyWindow)
	if last, err := a.Cursor.LastSync(ctx); err != nil {
		log.Printf("%s: reading last sync: %v", label, err)
	} else if last.After(since) {
		since = last
	}

	replies, fetchErr := a.notifier.Recent(ctx, since)
	if fetchErr != nil {
		log.Printf("%s: fetching replies: %v", label, fetchErr)
		replies = nil
	}
	if _, err := st.SyncReplies(ctx, unread(replies, since)); err != nil {
		return nil, fmt.Errorf("syncing replies: %w", err)
	}
	if fetchErr == nil {
		if err := a.Cursor.SetLastSync(ctx, fetchedAt); err != nil {
			log.Printf("%s: saving last sync: %v", label, err)
		}
	}
	return st, nil
}

// unread drops replies sent at or before since. Messages without a send
// time are kept.
func unread(replies []care.InboundMessage, since time.Time) []care.InboundMessage {
	out := replies[:0:0]
	for _, m := range replies {
		if m.At.IsZero() || m.At.After(since) {
			out = append(out, m)
		}
	}
	return out
}

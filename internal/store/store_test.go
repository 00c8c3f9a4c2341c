package store

import (
	"context"
	"testing"
	"time"

	"github.com/chris/sprout/internal/care"
)

const today = "2026-03-10"

func fixedClock() time.Time {
	return time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
}

func openTestStore(t *testing.T, plants []care.Plant, history []care.HistoryEntry) (*Store, *MemoryBackend) {
	t.Helper()
	backend := NewMemoryBackend(plants, history)
	s, err := Open(context.Background(), backend)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.SetClock(fixedClock)
	return s, backend
}

func plant(name, status string) care.Plant {
	return care.Plant{Name: name, Status: care.ParsePending(status)}
}

func msg(text string) care.InboundMessage {
	return care.InboundMessage{Text: text, Date: today}
}

func find(t *testing.T, plants []care.Plant, name string) care.Plant {
	t.Helper()
	for _, p := range plants {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("plant %q not found", name)
	return care.Plant{}
}

// --- Reconcile ---

func TestReconcileDoneResolvesAllPending(t *testing.T) {
	plants := []care.Plant{
		plant("Fern", "PENDING_WATER"),
		plant("Monstera", "PENDING_FERTILIZE"),
		plant("Cactus", "OK"),
	}
	r := Reconcile(plants, []care.InboundMessage{msg("done")}, today)

	if !r.Changed {
		t.Fatal("expected changes")
	}
	if len(r.History) != 2 {
		t.Fatalf("expected 2 history entries, got %d: %+v", len(r.History), r.History)
	}
	for _, e := range r.History {
		if e.Date != today {
			t.Errorf("entry dated %q, want %q", e.Date, today)
		}
		if e.Notes != "Confirmed via Done" {
			t.Errorf("entry notes = %q", e.Notes)
		}
	}
	fern := find(t, r.Plants, "Fern")
	if fern.Status.String() != "OK" || fern.LastWatered != today {
		t.Errorf("fern = %+v", fern)
	}
	monstera := find(t, r.Plants, "Monstera")
	if monstera.Status.String() != "OK" || monstera.LastFertilized != today {
		t.Errorf("monstera = %+v", monstera)
	}
	if plants[0].Status.String() != "PENDING_WATER" {
		t.Error("input slice was modified")
	}
}

func TestReconcileDoneVariants(t *testing.T) {
	for _, text := range []string{"done", "  Done All ", "completed"} {
		r := Reconcile([]care.Plant{plant("Fern", "PENDING_MIST_CHECK")}, []care.InboundMessage{msg(text)}, today)
		if len(r.History) != 2 {
			t.Errorf("%q: expected 2 entries, got %d", text, len(r.History))
		}
		if got := r.Plants[0].Status.String(); got != "OK" {
			t.Errorf("%q: status = %q", text, got)
		}
	}
}

func TestReconcileDoneWithNothingPending(t *testing.T) {
	r := Reconcile([]care.Plant{plant("Fern", "OK")}, []care.InboundMessage{msg("done")}, today)
	if r.Changed || len(r.History) != 0 {
		t.Errorf("expected no change, got %+v", r)
	}
}

func TestReconcileRemovesOnlyConfirmedToken(t *testing.T) {
	tests := []struct {
		status string
		text   string
		want   string
	}{
		{"PENDING_WATER_CHECK", "watered fern", "PENDING_CHECK"},
		{"PENDING_WATER", "watered fern", "OK"},
		{"PENDING_MIST", "watered fern", "PENDING_MIST"},
		{"PENDING_FERTILIZE_MIST", "fed fern", "PENDING_MIST"},
	}
	for _, tt := range tests {
		r := Reconcile([]care.Plant{plant("Fern", tt.status)}, []care.InboundMessage{msg(tt.text)}, today)
		if got := r.Plants[0].Status.String(); got != tt.want {
			t.Errorf("%s + %q = %q, want %q", tt.status, tt.text, got, tt.want)
		}
		if !r.Changed || len(r.History) != 1 {
			t.Errorf("%s + %q: changed=%v history=%d", tt.status, tt.text, r.Changed, len(r.History))
		}
	}
}

func TestReconcileCarriesActionForward(t *testing.T) {
	plants := []care.Plant{
		plant("Boston Fern", "PENDING_WATER"),
		plant("Monstera", "PENDING_WATER"),
		plant("Cactus", "PENDING_WATER"),
	}
	r := Reconcile(plants, []care.InboundMessage{msg("watered fern, monstera")}, today)

	if len(r.History) != 2 {
		t.Fatalf("expected 2 entries, got %+v", r.History)
	}
	for _, name := range []string{"Boston Fern", "Monstera"} {
		p := find(t, r.Plants, name)
		if p.LastWatered != today || p.Status.String() != "OK" {
			t.Errorf("%s = %+v", name, p)
		}
	}
	if c := find(t, r.Plants, "Cactus"); c.Status.String() != "PENDING_WATER" {
		t.Errorf("cactus should be untouched, got %+v", c)
	}
}

func TestReconcileCompoundActions(t *testing.T) {
	plants := []care.Plant{
		plant("Fern", "PENDING_WATER"),
		plant("Monstera", "PENDING_CHECK_ROTATE"),
	}
	r := Reconcile(plants, []care.InboundMessage{msg("watered fern; checked monstera and rotated monstera")}, today)

	if got := find(t, r.Plants, "Fern").Status.String(); got != "OK" {
		t.Errorf("fern status = %q", got)
	}
	if got := find(t, r.Plants, "Monstera").Status.String(); got != "OK" {
		t.Errorf("monstera status = %q", got)
	}
	want := []care.Action{care.Water, care.Check, care.Rotate}
	if len(r.History) != len(want) {
		t.Fatalf("history = %+v", r.History)
	}
	for i, a := range want {
		if r.History[i].Action != a {
			t.Errorf("history[%d].Action = %s, want %s", i, r.History[i].Action, a)
		}
	}
}

func TestReconcileFuzzyMatchUpdatesEveryMatch(t *testing.T) {
	plants := []care.Plant{
		plant("Fern", "PENDING_WATER"),
		plant("Staghorn Fern", "OK"),
	}
	r := Reconcile(plants, []care.InboundMessage{msg("watered fern")}, today)
	if len(r.History) != 2 {
		t.Fatalf("expected both ferns updated, got %+v", r.History)
	}
	if find(t, r.Plants, "Staghorn Fern").LastWatered != today {
		t.Error("staghorn fern should also be watered")
	}
}

func TestReconcileSlashCommand(t *testing.T) {
	plants := []care.Plant{plant("Fiddle Leaf Fig", "PENDING_WATER_CHECK")}
	r := Reconcile(plants, []care.InboundMessage{msg("/check_fiddle_leaf_fig")}, today)

	if len(r.History) != 1 || r.History[0].Action != care.Check || r.History[0].Plant != "Fiddle Leaf Fig" {
		t.Fatalf("history = %+v", r.History)
	}
	if got := r.Plants[0].Status.String(); got != "PENDING_WATER" {
		t.Errorf("status = %q", got)
	}
}

func TestReconcileSlashCommandSafeName(t *testing.T) {
	plants := []care.Plant{plant("Bird's Nest Fern", "PENDING_WATER")}
	r := Reconcile(plants, []care.InboundMessage{msg("/water_bird_s_nest_fern@sproutbot")}, today)
	if len(r.History) != 1 {
		t.Fatalf("expected safe-name match, got %+v", r.History)
	}
	if r.Plants[0].LastWatered != today {
		t.Errorf("last watered = %q", r.Plants[0].LastWatered)
	}
}

func TestReconcileSkipsUnusableParts(t *testing.T) {
	plants := []care.Plant{plant("Fern", "PENDING_WATER")}
	for _, text := range []string{
		"/dance_fern",
		"thanks!",
		"watered",
		"watered cactus",
		"/water",
	} {
		r := Reconcile(plants, []care.InboundMessage{msg(text)}, today)
		if r.Changed || len(r.History) != 0 {
			t.Errorf("%q: expected no change, got %+v", text, r)
		}
	}
}

func TestReconcileReplayDuplicatesHistory(t *testing.T) {
	plants := []care.Plant{plant("Fern", "PENDING_WATER")}
	r := Reconcile(plants, []care.InboundMessage{msg("watered fern"), msg("watered fern")}, today)
	if len(r.History) != 2 {
		t.Errorf("expected duplicate entries for replayed message, got %d", len(r.History))
	}
}

func TestReconcileUsesMessageDateForColumns(t *testing.T) {
	plants := []care.Plant{plant("Fern", "PENDING_WATER")}
	m := care.InboundMessage{Text: "watered fern", Date: "2026-03-09"}
	r := Reconcile(plants, []care.InboundMessage{m}, today)
	if r.Plants[0].LastWatered != "2026-03-09" {
		t.Errorf("last watered = %q", r.Plants[0].LastWatered)
	}
	if r.History[0].Date != today {
		t.Errorf("history date = %q", r.History[0].Date)
	}
}

// --- SyncReplies ---

func TestSyncRepliesPersistsOnChange(t *testing.T) {
	s, backend := openTestStore(t, []care.Plant{plant("Fern", "PENDING_WATER")}, nil)
	ctx := context.Background()

	changed, err := s.SyncReplies(ctx, []care.InboundMessage{msg("watered fern")})
	if err != nil {
		t.Fatalf("SyncReplies: %v", err)
	}
	if !changed {
		t.Fatal("expected change")
	}
	if backend.SaveCount() != 1 {
		t.Errorf("expected 1 save, got %d", backend.SaveCount())
	}
	saved, _ := backend.LoadPlants(ctx)
	if saved[0].Status.String() != "OK" {
		t.Errorf("saved status = %q", saved[0].Status)
	}
	history, _ := backend.LoadHistory(ctx)
	if len(history) != 1 || history[0].Date != today {
		t.Errorf("history = %+v", history)
	}
	if got := s.Inventory()[0].LastWatered; got != today {
		t.Errorf("inventory not refreshed, last watered = %q", got)
	}
}

func TestSyncRepliesNoChangeNoWrite(t *testing.T) {
	s, backend := openTestStore(t, []care.Plant{plant("Fern", "PENDING_WATER")}, nil)
	changed, err := s.SyncReplies(context.Background(), []care.InboundMessage{msg("hello there")})
	if err != nil {
		t.Fatalf("SyncReplies: %v", err)
	}
	if changed || backend.SaveCount() != 0 {
		t.Errorf("changed=%v saves=%d", changed, backend.SaveCount())
	}
}

func TestSyncRepliesEmpty(t *testing.T) {
	s, backend := openTestStore(t, []care.Plant{plant("Fern", "PENDING_WATER")}, nil)
	changed, err := s.SyncReplies(context.Background(), nil)
	if err != nil || changed || backend.SaveCount() != 0 {
		t.Errorf("changed=%v err=%v saves=%d", changed, err, backend.SaveCount())
	}
}

// --- MarkPending ---

func TestMarkPending(t *testing.T) {
	s, backend := openTestStore(t, []care.Plant{plant("Fern", "OK"), plant("Monstera", "PENDING_WATER")}, nil)
	ctx := context.Background()

	err := s.MarkPending(ctx, []care.Task{
		{Name: "Fern", Action: care.Water},
		{Name: "Monstera", Action: care.Check},
		{Name: "Monstera", Action: care.Water},
		{Name: "monstera", Action: care.Mist},
	})
	if err != nil {
		t.Fatalf("MarkPending: %v", err)
	}
	if backend.SaveCount() != 1 {
		t.Errorf("expected a single write, got %d", backend.SaveCount())
	}
	inv := s.Inventory()
	if got := find(t, inv, "Fern").Status.String(); got != "PENDING_WATER" {
		t.Errorf("fern = %q", got)
	}
	if got := find(t, inv, "Monstera").Status.String(); got != "PENDING_WATER_CHECK" {
		t.Errorf("monstera = %q", got)
	}
}

func TestMarkPendingIsIdempotent(t *testing.T) {
	s, _ := openTestStore(t, []care.Plant{plant("Fern", "OK")}, nil)
	ctx := context.Background()
	tasks := []care.Task{{Name: "Fern", Action: care.Water}}

	if err := s.MarkPending(ctx, tasks); err != nil {
		t.Fatal(err)
	}
	once := s.Inventory()[0].Status.String()
	if err := s.MarkPending(ctx, tasks); err != nil {
		t.Fatal(err)
	}
	twice := s.Inventory()[0].Status.String()
	if once != twice || once != "PENDING_WATER" {
		t.Errorf("once=%q twice=%q", once, twice)
	}
}

func TestMarkPendingNoTasks(t *testing.T) {
	s, backend := openTestStore(t, []care.Plant{plant("Fern", "OK")}, nil)
	if err := s.MarkPending(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if backend.SaveCount() != 0 {
		t.Errorf("expected no writes, got %d", backend.SaveCount())
	}
}

// --- History ---

func TestRecentHistory(t *testing.T) {
	history := []care.HistoryEntry{
		{Date: "2026-03-01", Plant: "Fern", Action: care.Water},
		{Date: "2026-03-05", Plant: "Monstera", Action: care.Check},
		{Date: "2026-03-05", Plant: "Fern", Action: care.Mist},
		{Date: "2026-03-03", Plant: "Fern", Action: care.Rotate},
	}
	s, _ := openTestStore(t, []care.Plant{plant("Fern", "OK"), plant("Monstera", "OK")}, history)
	ctx := context.Background()

	all, err := s.RecentHistory(ctx, "", 0)
	if err != nil {
		t.Fatalf("RecentHistory: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(all))
	}
	// Same date: the later insertion comes first.
	if all[0].Action != care.Mist || all[1].Action != care.Check {
		t.Errorf("unexpected order: %+v", all)
	}

	fern, _ := s.RecentHistory(ctx, "FERN", 2)
	if len(fern) != 2 || fern[0].Action != care.Mist || fern[1].Action != care.Rotate {
		t.Errorf("fern history = %+v", fern)
	}
}

func TestHistorySummary(t *testing.T) {
	history := []care.HistoryEntry{
		{Date: "2026-03-01", Plant: "Fern", Action: care.Water},
		{Date: "2026-03-02", Plant: "Fern", Action: care.Mist},
		{Date: "2026-03-03", Plant: "Fern", Action: care.Check},
		{Date: "2026-03-03", Plant: "Ghost Plant", Action: care.Check},
	}
	s, _ := openTestStore(t, []care.Plant{plant("Fern", "OK"), plant("Cactus", "OK")}, history)

	summary, err := s.HistorySummary(context.Background(), 2)
	if err != nil {
		t.Fatalf("HistorySummary: %v", err)
	}
	if len(summary) != 1 {
		t.Fatalf("expected only Fern in summary, got %v", summary)
	}
	fern := summary["Fern"]
	if len(fern) != 2 || fern[0].Action != care.Check || fern[1].Action != care.Mist {
		t.Errorf("fern summary = %+v", fern)
	}
}

func TestRunTime(t *testing.T) {
	want := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	for _, v := range []string{"2026-03-10T08:00:00Z", "2026-03-10 08:00:00"} {
		got, err := Run{CreatedAt: v}.Time()
		if err != nil || !got.Equal(want) {
			t.Errorf("Run{CreatedAt: %q}.Time() = %v, %v", v, got, err)
		}
	}
	if _, err := (Run{CreatedAt: "last tuesday"}).Time(); err == nil {
		t.Error("expected an error for an unknown layout")
	}
}

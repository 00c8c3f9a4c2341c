package care

import (
	"strings"
	"testing"
	"time"
)

// --- Pending ---

func TestParsePending(t *testing.T) {
	tests := []struct {
		name   string
		status string
		want   string
		count  int
	}{
		{"ok", "OK", "OK", 0},
		{"blank", "", "OK", 0},
		{"free text", "Healthy", "OK", 0},
		{"single", "PENDING_WATER", "PENDING_WATER", 1},
		{"compound", "PENDING_WATER_CHECK", "PENDING_WATER_CHECK", 2},
		{"duplicate collapses", "PENDING_WATER_WATER", "PENDING_WATER", 1},
		{"stray underscores", "PENDING__MIST_", "PENDING_MIST", 1},
		{"bare prefix", "PENDING", "OK", 0},
		{"unknown token kept", "PENDING_SING_WATER", "PENDING_SING_WATER", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParsePending(tt.status)
			if len(p) != tt.count {
				t.Errorf("ParsePending(%q) has %d tokens, want %d", tt.status, len(p), tt.count)
			}
			if got := p.String(); got != tt.want {
				t.Errorf("ParsePending(%q).String() = %q, want %q", tt.status, got, tt.want)
			}
		})
	}
}

func TestPendingRemove(t *testing.T) {
	tests := []struct {
		status string
		remove Action
		want   string
	}{
		{"PENDING_WATER_CHECK", Water, "PENDING_CHECK"},
		{"PENDING_WATER", Water, "OK"},
		{"PENDING_WATER_CHECK", Check, "PENDING_WATER"},
		{"PENDING_MIST_WATER_CHECK", Water, "PENDING_MIST_CHECK"},
		{"PENDING_MIST", Water, "PENDING_MIST"},
		{"OK", Water, "OK"},
	}
	for _, tt := range tests {
		got := ParsePending(tt.status).Remove(tt.remove).String()
		if got != tt.want {
			t.Errorf("remove %s from %s = %q, want %q", tt.remove, tt.status, got, tt.want)
		}
	}
}

func TestPendingRemoveNeverLeavesDanglingUnderscore(t *testing.T) {
	statuses := []string{"PENDING_WATER", "PENDING_WATER_CHECK", "PENDING_MIST_ROTATE_PRUNE", "OK"}
	for _, s := range statuses {
		for _, a := range Actions {
			got := ParsePending(s).Remove(a).String()
			if strings.HasSuffix(got, "_") || strings.Contains(got, "__") {
				t.Errorf("remove %s from %s produced %q", a, s, got)
			}
			seen := map[string]bool{}
			for _, tok := range strings.Split(strings.TrimPrefix(got, "PENDING_"), "_") {
				if seen[tok] {
					t.Errorf("remove %s from %s produced duplicate token in %q", a, s, got)
				}
				seen[tok] = true
			}
		}
	}
}

func TestPendingAddIsIdempotent(t *testing.T) {
	p := ParsePending("OK").Add(Water)
	once := p.String()
	twice := p.Add(Water).String()
	if once != "PENDING_WATER" || twice != once {
		t.Errorf("once = %q, twice = %q", once, twice)
	}
}

func TestPendingAddKeepsInsertionOrder(t *testing.T) {
	p := ParsePending("PENDING_WATER").Add(Check).Add(Fertilize)
	if got := p.String(); got != "PENDING_WATER_CHECK_FERTILIZE" {
		t.Errorf("got %q", got)
	}
}

func TestPendingAddDoesNotAlias(t *testing.T) {
	base := make(Pending, 1, 4)
	base[0] = Water
	a := base.Add(Mist)
	b := base.Add(Check)
	if a.String() != "PENDING_WATER_MIST" || b.String() != "PENDING_WATER_CHECK" {
		t.Errorf("aliasing: a=%q b=%q", a, b)
	}
}

// --- Actions ---

func TestParseAction(t *testing.T) {
	if a, ok := ParseAction("water"); !ok || a != Water {
		t.Errorf("ParseAction(water) = %q, %v", a, ok)
	}
	if a, ok := ParseAction(" Repot "); !ok || a != Repot {
		t.Errorf("ParseAction(Repot) = %q, %v", a, ok)
	}
	if _, ok := ParseAction("dance"); ok {
		t.Error("expected dance to be rejected")
	}
}

func TestParsePriority(t *testing.T) {
	if got := ParsePriority("high"); got != High {
		t.Errorf("got %q", got)
	}
	if got := ParsePriority("urgent"); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

// --- Names ---

func TestSafeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Fiddle Leaf Fig", "fiddle_leaf_fig"},
		{"Bird's Nest Fern", "bird_s_nest_fern"},
		{"  Monstera  (big) ", "monstera_big"},
		{"ZZ-Plant #2", "zz_plant_2"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SafeName(tt.in); got != tt.want {
			t.Errorf("SafeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCommand(t *testing.T) {
	if got := Command(Check, "Fiddle Leaf Fig"); got != "/check_fiddle_leaf_fig" {
		t.Errorf("got %q", got)
	}
}

// --- Dates ---

func TestDaysSince(t *testing.T) {
	today := time.Date(2026, 3, 10, 15, 30, 0, 0, time.Local)
	tests := []struct {
		date   string
		want   int
		wantOK bool
	}{
		{"2026-03-09", 1, true},
		{"2026-03-10", 0, true},
		{"2026-02-28", 10, true},
		{"", 0, false},
		{"N/A", 0, false},
		{"last tuesday", 0, false},
	}
	for _, tt := range tests {
		got, ok := DaysSince(tt.date, today)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("DaysSince(%q) = (%d, %v), want (%d, %v)", tt.date, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestPlantCloneIsDeep(t *testing.T) {
	p := Plant{Name: "Fern", Status: Pending{Water}, Extra: map[string]string{"Pot": "clay"}}
	c := p.Clone()
	c.Status[0] = Mist
	c.Extra["Pot"] = "plastic"
	if p.Status[0] != Water || p.Extra["Pot"] != "clay" {
		t.Errorf("clone mutated original: %+v", p)
	}
}

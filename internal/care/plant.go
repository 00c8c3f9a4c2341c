package care

import (
	"strings"
	"time"
	"unicode"
)

// DateLayout is the format of every date stored in the inventory and history.
const DateLayout = "2006-01-02"

type Plant struct {
	Name           string            `json:"name"`
	Environment    string            `json:"environment,omitempty"`
	LastWatered    string            `json:"last_watered,omitempty"`
	LastFertilized string            `json:"last_fertilized,omitempty"`
	Notes          string            `json:"notes,omitempty"`
	Status         Pending           `json:"status,omitempty"`
	Light          string            `json:"light,omitempty"`
	Humidity       string            `json:"humidity,omitempty"`
	Extra          map[string]string `json:"-"` // columns this program does not know about
}

// Clone returns a copy that shares no mutable state with p.
func (p Plant) Clone() Plant {
	c := p
	if p.Status != nil {
		c.Status = append(Pending(nil), p.Status...)
	}
	if p.Extra != nil {
		c.Extra = make(map[string]string, len(p.Extra))
		for k, v := range p.Extra {
			c.Extra[k] = v
		}
	}
	return c
}

// HistoryEntry is one confirmed care action. Entries are never modified.
type HistoryEntry struct {
	Date   string `json:"date"`
	Plant  string `json:"plant"`
	Action Action `json:"action"`
	Notes  string `json:"notes,omitempty"`
}

// Task is a single recommendation from the advisor.
type Task struct {
	Name     string   `json:"name"`
	Action   Action   `json:"action"`
	Priority Priority `json:"priority"`
	Reason   string   `json:"reason"`
}

// InboundMessage is a user reply pulled from the chat channel.
type InboundMessage struct {
	Text   string    // lower-cased
	Date   string    // YYYY-MM-DD
	At     time.Time // send time; zero when the channel does not say
	Author string
}

// SafeName turns a plant name into the form used in slash commands:
// lower case, runs of non-alphanumerics collapsed to one underscore.
func SafeName(name string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// Command builds the tap-to-log command for an action, e.g. /water_monstera.
func Command(a Action, name string) string {
	return "/" + strings.ToLower(string(a)) + "_" + SafeName(name)
}

// DaysSince returns whole days between date and today, or false when date
// is blank or unparseable.
func DaysSince(date string, today time.Time) (int, bool) {
	date = strings.TrimSpace(date)
	if date == "" || date == "N/A" {
		return 0, false
	}
	past, err := time.Parse(DateLayout, date)
	if err != nil {
		return 0, false
	}
	y, m, d := today.Date()
	now := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int(now.Sub(past).Hours() / 24), true
}

package store

import (
	"log"
	"regexp"
	"strings"

	"github.com/chris/sprout/internal/care"
)

const doneNote = "Confirmed via Done"

// Replies that confirm every pending action at once.
var confirmAll = map[string]bool{"done": true, "done all": true, "completed": true}

type keyword struct {
	word   string
	action care.Action
}

// Checked in order; the first keyword contained in a part wins.
var keywords = []keyword{
	{"watered", care.Water},
	{"fertilized", care.Fertilize},
	{"fed", care.Fertilize},
	{"misted", care.Mist},
	{"rotated", care.Rotate},
	{"moved", care.Move},
	{"pruned", care.Prune},
	{"repotted", care.Repot},
	{"checked", care.Check},
}

var partSplitter = regexp.MustCompile(`[,;]|\band\b`)

// Reconciliation is the outcome of applying a batch of replies.
type Reconciliation struct {
	Plants  []care.Plant
	History []care.HistoryEntry
	Changed bool
}

// Reconcile applies user replies to the plant table. The input slice is not
// modified. today dates the history entries; plant date columns take the
// date of the message that confirmed them.
func Reconcile(plants []care.Plant, messages []care.InboundMessage, today string) Reconciliation {
	r := Reconciliation{Plants: clonePlants(plants)}
	for _, msg := range messages {
		text := strings.ToLower(strings.TrimSpace(msg.Text))
		log.Printf("store: processing %q (date: %s)", text, msg.Date)
		if confirmAll[text] {
			r.confirmAll(msg.Date, today)
			continue
		}
		r.confirmParts(text, msg.Date, today)
	}
	return r
}

func (r *Reconciliation) confirmAll(date, today string) {
	confirmed := false
	for i := range r.Plants {
		p := &r.Plants[i]
		if !p.Status.IsPending() {
			continue
		}
		for _, a := range p.Status {
			setDate(p, a, date)
			r.History = append(r.History, care.HistoryEntry{Date: today, Plant: p.Name, Action: a, Notes: doneNote})
		}
		p.Status = nil
		r.Changed = true
		confirmed = true
	}
	if confirmed {
		log.Printf("store: user confirmed all tasks on %s", date)
	}
}

func (r *Reconciliation) confirmParts(text, date, today string) {
	parts := partSplitter.Split(text, -1)
	var carried care.Action
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		action, query, ok := parseCommand(part)
		if strings.HasPrefix(part, "/") && !ok {
			log.Printf("store: unrecognized command %q", part)
			continue
		}
		if !ok {
			action, query, ok = parseKeyword(part)
		}
		if !ok {
			if carried == "" {
				log.Printf("store: no action keyword in %q", part)
				continue
			}
			action, query = carried, part
		}
		carried = action

		if query == "" {
			log.Printf("store: no plant name in %q", part)
			continue
		}
		r.apply(action, query, date, today)
	}
}

func (r *Reconciliation) apply(action care.Action, query, date, today string) {
	found := false
	for i := range r.Plants {
		p := &r.Plants[i]
		if !matches(p.Name, query) {
			continue
		}
		found = true
		setDate(p, action, date)
		r.History = append(r.History, care.HistoryEntry{Date: today, Plant: p.Name, Action: action})
		p.Status = p.Status.Remove(action)
		r.Changed = true
		log.Printf("store: marked %s complete for %s", action, p.Name)
	}
	if !found {
		log.Printf("store: no plant matches %q", query)
	}
}

// parseCommand reads "/water_fiddle_leaf_fig" (optionally "@botname"
// suffixed) into WATER and "fiddle leaf fig".
func parseCommand(part string) (care.Action, string, bool) {
	if !strings.HasPrefix(part, "/") {
		return "", "", false
	}
	cmd := strings.TrimPrefix(part, "/")
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		cmd = cmd[:at]
	}
	prefix, rest, _ := strings.Cut(cmd, "_")
	action, ok := care.ParseAction(prefix)
	if !ok {
		return "", "", false
	}
	return action, strings.TrimSpace(strings.ReplaceAll(rest, "_", " ")), true
}

func parseKeyword(part string) (care.Action, string, bool) {
	for _, k := range keywords {
		if strings.Contains(part, k.word) {
			return k.action, strings.TrimSpace(strings.ReplaceAll(part, k.word, "")), true
		}
	}
	return "", "", false
}

// matches reports whether query names the plant. Every plant whose name
// contains the query matches, so "fern" hits both "Fern" and "Staghorn Fern".
func matches(name, query string) bool {
	if strings.Contains(strings.ToLower(name), query) {
		return true
	}
	return strings.ReplaceAll(query, " ", "_") == care.SafeName(name)
}

func setDate(p *care.Plant, a care.Action, date string) {
	switch a {
	case care.Water:
		p.LastWatered = date
	case care.Fertilize:
		p.LastFertilized = date
	}
}

package care

import "strings"

// Action is a care action token as stored in Status strings and the history log.
type Action string

const (
	Water     Action = "WATER"
	Fertilize Action = "FERTILIZE"
	Mist      Action = "MIST"
	Rotate    Action = "ROTATE"
	Move      Action = "MOVE"
	Prune     Action = "PRUNE"
	Repot     Action = "REPOT"
	Check     Action = "CHECK"
)

// Actions lists every known action in display order.
var Actions = []Action{Water, Fertilize, Mist, Rotate, Move, Prune, Repot, Check}

// ParseAction maps a word like "water" or "WATER" to its Action.
func ParseAction(s string) (Action, bool) {
	a := Action(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Actions {
		if a == known {
			return a, true
		}
	}
	return "", false
}

// Priority is the urgency the recommender attaches to a task.
type Priority string

const (
	High   Priority = "HIGH"
	Medium Priority = "MEDIUM"
	Low    Priority = "LOW"
)

// ParsePriority normalizes a priority; unknown values come back empty.
func ParsePriority(s string) Priority {
	switch p := Priority(strings.ToUpper(strings.TrimSpace(s))); p {
	case High, Medium, Low:
		return p
	}
	return ""
}

package advisor

import (
	"fmt"
	"strings"

	"github.com/chris/sprout/internal/care"
	"github.com/dustin/go-humanize/english"
)

var actionIcons = map[care.Action]string{
	care.Water:     "💧",
	care.Fertilize: "🧪",
	care.Mist:      "💨",
	care.Rotate:    "🔄",
	care.Move:      "📍",
	care.Prune:     "✂️",
	care.Repot:     "🪴",
	care.Check:     "🔍",
}

var priorityMarkers = map[care.Priority]string{
	care.High:   "🔴",
	care.Medium: "🟡",
	care.Low:    "🟢",
}

func icon(a care.Action) string {
	if i, ok := actionIcons[a]; ok {
		return i
	}
	return "📋"
}

// FormatTasks renders the chat message for a set of tasks: a per-action
// overview, then one detail line per task with its tap-to-log command.
func FormatTasks(tasks []care.Task, summary, today string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🌿 Plant Care Tasks (%s): %s\n", today, english.Plural(len(tasks), "task", ""))
	if summary != "" {
		b.WriteString(summary + "\n")
	}

	byAction := make(map[care.Action][]string)
	for _, t := range tasks {
		byAction[t.Action] = append(byAction[t.Action], t.Name)
	}
	b.WriteString("\n")
	for _, a := range care.Actions {
		if names, ok := byAction[a]; ok {
			fmt.Fprintf(&b, "%s %s: %s\n", icon(a), a, strings.Join(names, ", "))
		}
	}

	b.WriteString("\n---\nDetails:\n")
	for _, t := range tasks {
		fmt.Fprintf(&b, "%s%s %s: %s\n", priorityMarkers[t.Priority], icon(t.Action), t.Name, t.Reason)
		fmt.Fprintf(&b, "   👉 Tap to log: %s\n", care.Command(t.Action, t.Name))
	}

	b.WriteString("\nReply 'Done' to confirm all at once.")
	return b.String()
}

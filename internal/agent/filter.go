package agent

import (
	"log"

	"github.com/chris/sprout/internal/care"
)

// MinIntervals is the minimum number of days between two occurrences of an
// action on the same plant.
var MinIntervals = map[care.Action]int{
	care.Water:     3,
	care.Fertilize: 14,
	care.Mist:      2,
	care.Rotate:    7,
	care.Move:      14,
	care.Prune:     30,
	care.Repot:     180,
	care.Check:     3,
}

// FilterTasks drops tasks whose action was performed on the plant more
// recently than MinIntervals allows. Tasks for plants missing from inventory,
// or for actions never performed, are kept.
func FilterTasks(tasks []care.Task, inventory []PlantContext) []care.Task {
	byName := make(map[string]*PlantContext, len(inventory))
	for i := range inventory {
		byName[inventory[i].Name] = &inventory[i]
	}

	kept := make([]care.Task, 0, len(tasks))
	for _, t := range tasks {
		p, ok := byName[t.Name]
		min := MinIntervals[t.Action]
		if ok && min > 0 {
			if days := p.DaysSinceAction[t.Action]; days != nil && *days < min {
				log.Printf("agent: filtered %s for %s (only %d days, min=%d)", t.Action, t.Name, *days, min)
				continue
			}
		}
		kept = append(kept, t)
	}
	return kept
}

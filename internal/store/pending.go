package store

import (
	"context"
	"fmt"
	"log"

	"github.com/chris/sprout/internal/care"
)

// MarkPending records each task's action as pending on the named plant.
// Names must match exactly. The table is written once, after all tasks.
func (s *Store) MarkPending(ctx context.Context, tasks []care.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	plants := clonePlants(s.plants)
	changed := false
	for _, t := range tasks {
		idx := indexByName(plants, t.Name)
		if idx < 0 {
			log.Printf("store: no plant named %q, skipping %s", t.Name, t.Action)
			continue
		}
		p := &plants[idx]
		if p.Status.Has(t.Action) {
			log.Printf("store: %s already pending for %s", t.Action, p.Name)
			continue
		}
		p.Status = p.Status.Add(t.Action)
		changed = true
	}

	if !changed {
		return nil
	}
	if err := s.backend.SavePlants(ctx, plants); err != nil {
		return fmt.Errorf("saving pending status: %w", err)
	}
	s.plants = plants
	return nil
}

func indexByName(plants []care.Plant, name string) int {
	for i, p := range plants {
		if p.Name == name {
			return i
		}
	}
	return -1
}

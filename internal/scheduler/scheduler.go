package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled pass.
type Job func(ctx context.Context) error

type Scheduler struct {
	cron *cron.Cron
	run  Job
	sync Job
	mu   sync.Mutex // one pass at a time; both jobs touch the same store
}

// New returns a scheduler for the daily advisor run and the reply sync.
// sync may be nil.
func New(run, sync Job) *Scheduler {
	return &Scheduler{cron: cron.New(), run: run, sync: sync}
}

// Start registers the jobs and starts the cron loop. An empty syncCron
// disables the separate reply sync.
func (s *Scheduler) Start(careCron, syncCron string) error {
	if _, err := s.cron.AddFunc(careCron, func() { s.fire("advisor", s.run) }); err != nil {
		return fmt.Errorf("invalid care schedule %q: %w", careCron, err)
	}
	if syncCron != "" && s.sync != nil {
		if _, err := s.cron.AddFunc(syncCron, func() { s.fire("sync", s.sync) }); err != nil {
			return fmt.Errorf("invalid sync schedule %q: %w", syncCron, err)
		}
	}
	s.cron.Start()
	log.Printf("scheduler started (care %q, sync %q)", careCron, syncCron)
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) fire(label string, job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := job(context.Background()); err != nil {
		log.Printf("scheduler[%s]: %v", label, err)
		return
	}
	log.Printf("scheduler[%s]: completed", label)
}

package automation

import (
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// Scheduler drives the time-trigger poller on a cron cadence
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler creates a new scheduler
func NewScheduler() *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()), // Support seconds in cron expressions
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	log.Println("⏰ Starting automation scheduler...")
	s.cron.Start()
	log.Println("✅ Automation scheduler started")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	log.Println("⏰ Stopping automation scheduler...")
	s.cron.Stop()
	log.Println("✅ Automation scheduler stopped")
}

// AddJob registers a recurring job under the given cron expression
func (s *Scheduler) AddJob(schedule string, job func()) error {
	if _, err := s.cron.AddFunc(schedule, job); err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	log.Printf("   ✅ Scheduled job: %s", schedule)
	return nil
}

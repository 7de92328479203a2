package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a named function run on a cron schedule.
type Job struct {
	Name     string
	Schedule string // 5-field cron expression, empty disables the job
	Run      func(ctx context.Context) error
}

// Scheduler runs Jobs on their schedules.
type Scheduler struct {
	jobs []Job

	cron      *cron.Cron
	entries   map[string]cron.EntryID
	mu        sync.RWMutex
	isRunning bool
	ctx       context.Context
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule checks a 5-field cron expression.
func ValidateCronSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// New creates a scheduler for jobs. Jobs without a schedule are ignored.
func New(jobs ...Job) *Scheduler {
	return &Scheduler{
		jobs:    jobs,
		cron:    cron.New(cron.WithParser(parser)),
		entries: map[string]cron.EntryID{},
	}
}

// Start schedules every enabled job. Nothing is started when no job has a
// schedule. The scheduler stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	for _, job := range s.jobs {
		if job.Schedule == "" {
			log.Printf("Scheduler: %s disabled", job.Name)
			continue
		}
		if err := ValidateCronSchedule(job.Schedule); err != nil {
			return fmt.Errorf("invalid cron schedule '%s' for %s: %w", job.Schedule, job.Name, err)
		}
		id, err := s.cron.AddFunc(job.Schedule, func() { s.run(job) })
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", job.Name, err)
		}
		s.entries[job.Name] = id
	}
	if len(s.entries) == 0 {
		return nil
	}

	s.ctx = ctx
	s.cron.Start()
	s.isRunning = true

	for name, id := range s.entries {
		log.Printf("Scheduler: %s scheduled, next run %v", name, s.cron.Entry(id).Next)
	}

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop waits for running jobs and stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	done := s.cron.Stop()
	<-done.Done()
	s.isRunning = false
	log.Printf("Scheduler: stopped")
}

// IsRunning returns whether the scheduler is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the named job runs next, or nil.
func (s *Scheduler) NextRun(name string) *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.entries[name]
	if !ok || !s.isRunning {
		return nil
	}
	next := s.cron.Entry(id).Next
	return &next
}

// RunNow runs the named job synchronously, whether or not it is scheduled.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.Name == name {
			return job.Run(ctx)
		}
	}
	return fmt.Errorf("unknown job %q", name)
}

// run does not take s.mu: Stop holds it while waiting for running jobs.
// s.ctx is set before the cron starts.
func (s *Scheduler) run(job Job) {
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	log.Printf("Scheduler: %s starting", job.Name)
	if err := job.Run(ctx); err != nil {
		log.Printf("Scheduler: %s failed: %v", job.Name, err)
		return
	}
	log.Printf("Scheduler: %s finished in %v", job.Name, time.Since(start).Round(time.Millisecond))
}

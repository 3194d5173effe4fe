// Package scheduler enqueues the periodic maintenance tasks on cron schedules.
// The jobs themselves run on the task queue, so a slow job never blocks the
// cron goroutine and failed runs are retried by the queue.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/mrlokans/librarium/internal/config"
	"github.com/mrlokans/librarium/internal/tasks"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// TaskEnqueuer puts a task on the queue.
type TaskEnqueuer interface {
	Enqueue(task backlite.Task) (string, error)
}

// Job is one scheduled task.
type Job struct {
	Name     string
	Schedule string
	Task     backlite.Task
}

// Scheduler runs Jobs on their cron schedules.
type Scheduler struct {
	enqueuer TaskEnqueuer
	jobs     []Job

	cron       *cron.Cron
	entries    map[string]cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// Jobs builds the maintenance jobs from configuration. Jobs with an empty
// schedule are left out.
func Jobs(cfg config.Scheduler, auditRetentionDays int) []Job {
	all := []Job{
		{Name: tasks.QueueMarkOverdueLoans, Schedule: cfg.OverdueLoans, Task: tasks.MarkOverdueLoansTask{}},
		{Name: tasks.QueueExpirePendingPayments, Schedule: cfg.ExpirePayments, Task: tasks.ExpirePendingPaymentsTask{}},
		{Name: tasks.QueueCleanupAuditEvents, Schedule: cfg.AuditCleanup, Task: tasks.CleanupAuditEventsTask{RetentionDays: auditRetentionDays}},
	}
	jobs := all[:0]
	for _, j := range all {
		if j.Schedule != "" {
			jobs = append(jobs, j)
		}
	}
	return jobs
}

// New creates a scheduler for jobs. Nothing runs until Start.
func New(enqueuer TaskEnqueuer, jobs []Job) *Scheduler {
	return &Scheduler{
		enqueuer: enqueuer,
		jobs:     jobs,
		cron:     cron.New(cron.WithParser(parser), cron.WithLocation(time.UTC)),
		entries:  make(map[string]cron.EntryID),
	}
}

// ValidateCronSchedule checks a five-field cron expression.
func ValidateCronSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// Start validates every schedule, registers the jobs and starts the cron
// runner. The scheduler stops when ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	for _, job := range s.jobs {
		if err := ValidateCronSchedule(job.Schedule); err != nil {
			return fmt.Errorf("invalid cron schedule '%s' for %s: %w", job.Schedule, job.Name, err)
		}
	}

	for _, job := range s.jobs {
		job := job
		entryID, err := s.cron.AddFunc(job.Schedule, func() {
			s.enqueue(job)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", job.Name, err)
		}
		s.entries[job.Name] = entryID
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	for _, job := range s.jobs {
		log.Printf("Scheduler: %s scheduled with '%s'", job.Name, job.Schedule)
	}

	// Monitor for context cancellation
	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the cron runner and waits for in-flight enqueues.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Scheduler: stopped")
}

// RunNow enqueues the named job immediately.
func (s *Scheduler) RunNow(name string) (string, error) {
	for _, job := range s.jobs {
		if job.Name == name {
			return s.enqueuer.Enqueue(job.Task)
		}
	}
	return "", fmt.Errorf("unknown job %q", name)
}

// IsRunning returns whether the scheduler is active
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun describes when a job fires next.
type NextRun struct {
	Job  string    `json:"job"`
	Next time.Time `json:"next"`
}

// NextRuns lists the next run of every job, ordered by time.
func (s *Scheduler) NextRuns() []NextRun {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	runs := make([]NextRun, 0, len(s.entries))
	for name, id := range s.entries {
		runs = append(runs, NextRun{Job: name, Next: s.cron.Entry(id).Next})
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Next.Before(runs[j].Next) })
	return runs
}

func (s *Scheduler) enqueue(job Job) {
	id, err := s.enqueuer.Enqueue(job.Task)
	if err != nil {
		log.Printf("Scheduler: failed to enqueue %s: %v", job.Name, err)
		return
	}
	log.Printf("Scheduler: enqueued %s (task %s)", job.Name, id)
}

package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a unit of periodic work
type Job struct {
	// Name identifies the job in logs
	Name string
	// Schedule in cron format (e.g. "0 * * * *" for every hour)
	Schedule string
	// Run is called on every tick
	Run func(ctx context.Context) error
}

// Scheduler runs jobs on their cron schedules in a fixed timezone
type Scheduler struct {
	cron   *cron.Cron
	jobs   []Job
	logger *slog.Logger
}

// NewScheduler creates a new scheduler evaluating schedules in loc
func NewScheduler(loc *time.Location, logger *slog.Logger) *Scheduler {
	// Create a new cron scheduler with seconds disabled
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithParser(cron.NewParser(
			cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow,
		)),
	)

	return &Scheduler{
		cron:   c,
		logger: logger,
	}
}

// Register adds a job
func (s *Scheduler) Register(job Job) {
	s.jobs = append(s.jobs, job)
}

// Location returns the timezone schedules are evaluated in
func (s *Scheduler) Location() *time.Location {
	return s.cron.Location()
}

// Start schedules every job and blocks until ctx is cancelled
func (s *Scheduler) Start(ctx context.Context) error {
	for _, j := range s.jobs {
		if j.Schedule == "" {
			return fmt.Errorf("job %s has no schedule configured", j.Name)
		}

		job := j
		_, err := s.cron.AddFunc(job.Schedule, func() {
			s.logger.Info("running scheduled job", "job", job.Name)
			if err := job.Run(ctx); err != nil {
				s.logger.Error("scheduled job failed", "job", job.Name, "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("failed to schedule job %s: %w", job.Name, err)
		}

		s.logger.Info("scheduled job", "job", job.Name, "schedule", job.Schedule,
			"timezone", s.cron.Location().String())
	}

	s.cron.Start()

	<-ctx.Done()
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()

	return nil
}

// CleanupJob enqueues the stale code cleanup task on schedule
func CleanupJob(schedule string, enqueuer Enqueuer) Job {
	return Job{
		Name:     TypeVerificationCleanup,
		Schedule: schedule,
		Run:      enqueuer.EnqueueVerificationCleanup,
	}
}

// Package maintenance runs scheduled background cleanup of expired rows.
package maintenance

import (
	"context"
	"fmt"
	"time"

	"passguard/internal/logger"
	"passguard/internal/repository"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SessionRetention is how long an idle session row is kept before cleanup.
const SessionRetention = 30 * 24 * time.Hour

// Job is a named cleanup task with a cron schedule.
type Job interface {
	Name() string
	Schedule() string
	Run(ctx context.Context) error
}

// Scheduler runs registered jobs on their cron schedules.
type Scheduler struct {
	jobs []Job
	cron *cron.Cron
}

// NewScheduler creates a scheduler with seconds disabled in the cron parser.
func NewScheduler() *Scheduler {
	c := cron.New(cron.WithParser(cron.NewParser(
		cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
	)))
	return &Scheduler{cron: c}
}

// Register adds a job to the scheduler.
func (s *Scheduler) Register(j Job) {
	s.jobs = append(s.jobs, j)
}

// Start schedules all jobs and blocks until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	for _, j := range s.jobs {
		job := j
		_, err := s.cron.AddFunc(job.Schedule(), func() {
			if err := job.Run(ctx); err != nil {
				logger.L().Error("maintenance job failed",
					zap.String("job", job.Name()),
					zap.Error(err))
			}
		})
		if err != nil {
			return fmt.Errorf("failed to schedule job %s: %w", job.Name(), err)
		}
		logger.L().Info("scheduled maintenance job",
			zap.String("job", job.Name()),
			zap.String("schedule", job.Schedule()))
	}

	s.cron.Start()

	<-ctx.Done()
	s.cron.Stop()
	return nil
}

// SessionCleanupJob deletes sessions that have been idle past the retention
// window.
type SessionCleanupJob struct {
	sessions repository.SessionRepository
}

// NewSessionCleanupJob creates the session cleanup job.
func NewSessionCleanupJob(sessions repository.SessionRepository) *SessionCleanupJob {
	return &SessionCleanupJob{sessions: sessions}
}

func (j *SessionCleanupJob) Name() string     { return "session-cleanup" }
func (j *SessionCleanupJob) Schedule() string { return "17 * * * *" }

func (j *SessionCleanupJob) Run(ctx context.Context) error {
	return j.sessions.DeleteExpired(ctx, time.Now().Add(-SessionRetention))
}

// ResetCleanupJob deletes used and expired password reset tokens.
type ResetCleanupJob struct {
	resets repository.PasswordResetRepository
}

// NewResetCleanupJob creates the reset token cleanup job.
func NewResetCleanupJob(resets repository.PasswordResetRepository) *ResetCleanupJob {
	return &ResetCleanupJob{resets: resets}
}

func (j *ResetCleanupJob) Name() string     { return "reset-token-cleanup" }
func (j *ResetCleanupJob) Schedule() string { return "43 * * * *" }

func (j *ResetCleanupJob) Run(ctx context.Context) error {
	return j.resets.DeleteExpired(ctx)
}

package scheduler

import (
	"context"
	"log/slog"
	"time"

	"politics_fetcher/internal/domain"
)

// Job is one periodic run, e.g. all accounts or all news sources.
type Job struct {
	Name string
	Run  func(ctx context.Context) domain.Summary
}

type Scheduler struct {
	jobs       []Job
	interval   time.Duration
	jobTimeout time.Duration
	logger     *slog.Logger
}

func NewScheduler(jobs []Job, interval, jobTimeout time.Duration, logger *slog.Logger) *Scheduler {
	if jobTimeout <= 0 {
		jobTimeout = 10 * time.Minute
	}
	return &Scheduler{
		jobs:       jobs,
		interval:   interval,
		jobTimeout: jobTimeout,
		logger:     logger.With("component", "scheduler"),
	}
}

// Start runs every job immediately and then once per interval until ctx is
// canceled. Jobs run one after another so they never overlap.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval, "jobs", len(s.jobs))

	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce runs each job a single time and returns their summaries in order.
func (s *Scheduler) RunOnce(ctx context.Context) []domain.Summary {
	out := make([]domain.Summary, 0, len(s.jobs))
	for _, job := range s.jobs {
		if ctx.Err() != nil {
			break
		}
		out = append(out, s.run(ctx, job))
	}
	return out
}

func (s *Scheduler) run(ctx context.Context, job Job) domain.Summary {
	jobCtx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()

	start := time.Now()
	summary := job.Run(jobCtx)

	log := s.logger.Info
	if !summary.Success {
		log = s.logger.Error
	}
	log("job finished",
		"job", job.Name,
		"success", summary.Success,
		"count", summary.Count,
		"message", summary.Message,
		"duration", time.Since(start),
	)
	return summary
}

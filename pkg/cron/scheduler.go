// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger/repository"
	"github.com/FACorreiaa/finance-dashboard/pkg/notify"
)

// DefaultSchedule runs the digest daily at 8:00.
const DefaultSchedule = "0 8 * * *"

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	repo     repository.LedgerRepository
	notifier notify.Notifier
	asOf     time.Time
	logger   *slog.Logger
}

// NewScheduler creates a new job scheduler. An empty schedule uses DefaultSchedule.
func NewScheduler(repo repository.LedgerRepository, notifier notify.Notifier, schedule string, logger *slog.Logger) *Scheduler {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	// standard 5-field format, no seconds
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:     c,
		schedule: schedule,
		repo:     repo,
		notifier: notifier,
		logger:   logger,
	}
}

// WithAsOf pins the reference date of every digest. Zero means today.
func (s *Scheduler) WithAsOf(asOf time.Time) *Scheduler {
	s.asOf = asOf
	return s
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.sendDailyDigest)
	if err != nil {
		return fmt.Errorf("failed to schedule digest %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
		slog.String("schedule", s.schedule),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow builds and sends the digest immediately. Nothing is sent when the
// digest is empty.
func (s *Scheduler) RunNow(ctx context.Context) (Digest, error) {
	loans, err := s.repo.ListLoans(ctx)
	if err != nil {
		return Digest{}, fmt.Errorf("failed to list loans: %w", err)
	}
	services, err := s.repo.ListServices(ctx)
	if err != nil {
		return Digest{}, fmt.Errorf("failed to list services: %w", err)
	}

	digest := BuildDigest(loans, services, ledger.AsOfOrToday(s.asOf))
	if digest.Empty() {
		s.logger.Info("nothing to report in daily digest")
		return digest, nil
	}

	msg, err := digest.Message()
	if err != nil {
		return digest, err
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		return digest, err
	}
	return digest, nil
}

func (s *Scheduler) sendDailyDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	s.logger.Info("starting daily digest")

	digest, err := s.RunNow(ctx)
	if err != nil {
		s.logger.Error("failed to send daily digest", slog.Any("error", err))
		return
	}

	s.logger.Info("daily digest completed",
		slog.Int("overdue_loans", len(digest.Overdue)),
		slog.Int("expiring_contracts", len(digest.Expiring)),
		slog.Int("upcoming_services", len(digest.Upcoming)),
	)
}

// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Refresher refetches the product catalog snapshot.
type Refresher interface {
	RefreshCatalog(ctx context.Context) (int, error)
}

// Scheduler runs the periodic catalog refresh using robfig/cron.
type Scheduler struct {
	cron      *cron.Cron
	refresher Refresher
	spec      string
	logger    *slog.Logger
}

// NewScheduler creates a scheduler that refreshes the catalog on the given
// cron expression (standard 5-field format, @descriptors allowed).
func NewScheduler(refresher Refresher, spec string, logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:      c,
		refresher: refresher,
		spec:      spec,
		logger:    logger,
	}
}

// Start registers the refresh job and begins the schedule.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, s.refreshCatalog)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.String("spec", s.spec),
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs. The returned context completes
// once any running job has finished.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow manually triggers the catalog refresh (for testing/admin).
func (s *Scheduler) RunNow() {
	go s.refreshCatalog()
}

func (s *Scheduler) refreshCatalog() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	s.logger.Info("starting scheduled catalog refresh")

	n, err := s.refresher.RefreshCatalog(ctx)
	if err != nil {
		s.logger.Error("scheduled catalog refresh failed", slog.Any("error", err))
		return
	}

	s.logger.Info("scheduled catalog refresh completed", slog.Int("products", n))
}

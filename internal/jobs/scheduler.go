// Package jobs runs the background schedule: one cron entry that posts the
// morning balance board to the gas chat so nobody has to ask.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"gasbot/internal/bot/board"
	"gasbot/internal/config"
	"gasbot/internal/features/ledger"
)

// Scheduler owns the cron runner.
type Scheduler struct {
	cron          *cron.Cron
	ledgerService *ledger.Service
	board         *board.Board
	cfg           *config.Config
}

// NewScheduler creates the scheduler in the configured time zone.
func NewScheduler(ledgerService *ledger.Service, b *board.Board, cfg *config.Config) *Scheduler {
	loc, err := time.LoadLocation(cfg.AppTimezone)
	if err != nil {
		log.WithError(err).Warnf("Could not load %s, falling back to UTC", cfg.AppTimezone)
		loc = time.UTC
	}

	return &Scheduler{
		cron:          cron.New(cron.WithLocation(loc)),
		ledgerService: ledgerService,
		board:         b,
		cfg:           cfg,
	}
}

// Start registers and starts the jobs.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.cfg.SummaryEnabled {
		log.Info("Daily summary disabled, scheduler idle")
		return
	}

	if _, err := s.cron.AddFunc(s.cfg.SummaryCron, func() {
		log.Info("[CRON] Posting daily balance board")
		if err := s.postBoard(ctx); err != nil {
			log.WithError(err).Error("[CRON] Daily board failed")
		}
	}); err != nil {
		log.WithError(err).Error("Invalid SUMMARY_CRON expression, daily board disabled")
		return
	}

	s.cron.Start()
	log.WithField("cron", s.cfg.SummaryCron).Info("Scheduler started")
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Scheduler stopped")
}

func (s *Scheduler) postBoard(ctx context.Context) error {
	entries, err := s.ledgerService.Balances(ctx)
	if err != nil {
		return err
	}
	return s.board.Post(ledger.FormatBoard(entries))
}

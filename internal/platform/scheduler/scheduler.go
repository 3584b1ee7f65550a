// Package scheduler runs the statement batch on a cron expression, so
// statements exist even when nobody triggers the month-end run by hand.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/harborpoint/fund_backoffice_app/internal/apperrors"
	portssvc "github.com/harborpoint/fund_backoffice_app/internal/core/ports/services"
	"github.com/harborpoint/fund_backoffice_app/internal/dto"
	"github.com/robfig/cron/v3"
)

// systemUserID marks scheduler-originated writes in audit columns.
const systemUserID = "system"

type Scheduler struct {
	cron             *cron.Cron
	statementService portssvc.StatementSvcFacade
	logger           *slog.Logger
}

// New creates a scheduler that runs the statement batch per the cron spec.
// An empty spec disables it.
func New(spec string, statementService portssvc.StatementSvcFacade, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:             cron.New(),
		statementService: statementService,
		logger:           logger,
	}
	if spec == "" {
		return s, nil
	}
	if _, err := s.cron.AddFunc(spec, s.runBatch); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// previousPeriod returns the calendar month before now. Naive
// AddDate(0, -1, 0) normalizes day-of-month overflow (Mar 31 -> "Feb 31" ->
// Mar 3), so the period is derived from the first of the current month.
func previousPeriod(now time.Time) (month, year int) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	prev := first.AddDate(0, 0, -1)
	return int(prev.Month()), prev.Year()
}

// runBatch generates statements for the previous calendar month across all
// open accounts. No emails: scheduled runs only materialize the figures and
// staff review before anything goes out.
func (s *Scheduler) runBatch() {
	month, year := previousPeriod(time.Now().UTC())

	ctx := context.Background()
	events, err := s.statementService.GenerateStatements(ctx, dto.GenerateStatementsRequest{
		Month: month,
		Year:  year,
	}, systemUserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrBusy) {
			s.logger.Warn("Scheduled statement batch skipped, another batch is running")
			return
		}
		s.logger.Error("Scheduled statement batch failed to start", slog.String("error", err.Error()))
		return
	}

	generated, failed := 0, 0
	for ev := range events {
		switch ev.Type {
		case dto.EventPopulatedStatement:
			generated++
		case dto.EventPopulateError:
			failed++
			s.logger.Error("Scheduled statement generation failed for account",
				slog.Int64("account_id", ev.AccountID),
				slog.String("message", ev.Message))
		}
	}
	s.logger.Info("Scheduled statement batch finished",
		slog.Int("month", month),
		slog.Int("year", year),
		slog.Int("generated", generated),
		slog.Int("failed", failed))
}

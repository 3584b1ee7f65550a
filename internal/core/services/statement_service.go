package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/harborpoint/fund_backoffice_app/internal/apperrors"
	"github.com/harborpoint/fund_backoffice_app/internal/core/domain"
	portsrepo "github.com/harborpoint/fund_backoffice_app/internal/core/ports/repositories"
	portssvc "github.com/harborpoint/fund_backoffice_app/internal/core/ports/services"
	"github.com/harborpoint/fund_backoffice_app/internal/dto"
	"github.com/harborpoint/fund_backoffice_app/internal/platform/email"
	"github.com/harborpoint/fund_backoffice_app/internal/utils/reconciliation"
	"github.com/shopspring/decimal"
)

// statementServiceImpl implements StatementSvcFacade. At most one statement
// batch runs per process; the running flag is the lock.
type statementServiceImpl struct {
	BaseService
	accountRepo   portsrepo.AccountRepositoryFacade
	statementRepo portsrepo.StatementRepositoryFacade
	operationRepo portsrepo.OperationRepositoryFacade
	emailSender   email.Sender
	emailPace     time.Duration

	running atomic.Bool
}

// NewStatementService creates the statement batch service. emailPace is the
// minimum delay between outbound statement emails.
func NewStatementService(
	accountRepo portsrepo.AccountRepositoryFacade,
	statementRepo portsrepo.StatementRepositoryFacade,
	operationRepo portsrepo.OperationRepositoryFacade,
	emailSender email.Sender,
	emailPace time.Duration,
) portssvc.StatementSvcFacade {
	if emailSender == nil {
		emailSender = email.NopSender{}
	}
	if emailPace <= 0 {
		emailPace = 3 * time.Second
	}
	return &statementServiceImpl{
		accountRepo:   accountRepo,
		statementRepo: statementRepo,
		operationRepo: operationRepo,
		emailSender:   emailSender,
		emailPace:     emailPace,
	}
}

var _ portssvc.StatementSvcFacade = (*statementServiceImpl)(nil)

// errStatementSkip marks a recoverable per-account skip. The batch reports it
// and moves on; any other generation error is treated as fatal storage failure
// and halts the populate phase.
var errStatementSkip = errors.New("statement skipped")

func (s *statementServiceImpl) ListStatements(ctx context.Context, accountID int64) ([]domain.Statement, error) {
	return s.statementRepo.ListStatementsByAccount(ctx, accountID)
}

func (s *statementServiceImpl) Running() bool {
	return s.running.Load()
}

// GenerateStatements starts the month-end batch and returns its progress
// stream. Only one batch runs at a time; a second call while one is in flight
// returns ErrBusy. The returned channel is closed when the batch finishes and
// the caller must drain it.
func (s *statementServiceImpl) GenerateStatements(ctx context.Context, req dto.GenerateStatementsRequest, userID string) (<-chan dto.ProgressEvent, error) {
	if req.Month < 1 || req.Month > 12 {
		return nil, fmt.Errorf("month must be 1-12: %w", apperrors.ErrValidation)
	}

	if !s.running.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("statement batch already running: %w", apperrors.ErrBusy)
	}

	accounts, err := s.selectAccounts(ctx, req)
	if err != nil {
		s.running.Store(false)
		return nil, err
	}

	// Buffered so the batch never blocks on a slow consumer: at most three
	// events per account plus the phase markers.
	events := make(chan dto.ProgressEvent, 3*len(accounts)+8)

	go s.run(ctx, req, accounts, userID, events)
	return events, nil
}

func (s *statementServiceImpl) selectAccounts(ctx context.Context, req dto.GenerateStatementsRequest) ([]domain.Account, error) {
	if len(req.AccountIDs) > 0 {
		return s.accountRepo.ListAccountsByIDs(ctx, req.AccountIDs)
	}
	return s.accountRepo.ListAccounts(ctx, false)
}

func (s *statementServiceImpl) run(ctx context.Context, req dto.GenerateStatementsRequest, accounts []domain.Account, userID string, events chan<- dto.ProgressEvent) {
	defer close(events)
	defer s.running.Store(false)

	started := time.Now()
	s.LogInfo(ctx, "Statement batch started",
		slog.Int("month", req.Month), slog.Int("year", req.Year),
		slog.Int("accounts", len(accounts)), slog.Bool("send_email", req.SendEmail))

	events <- dto.ProgressEvent{Type: dto.EventPopulateStarted, Total: len(accounts)}

	generated := make([]domain.Statement, 0, len(accounts))
	cancelled := false
	halted := false
	for _, account := range accounts {
		if ctx.Err() != nil {
			s.LogWarn(ctx, "Statement batch cancelled", slog.Int("generated", len(generated)))
			cancelled = true
			break
		}

		statement, genErr := s.generateOne(ctx, account, req, userID)
		if genErr != nil {
			if errors.Is(genErr, errStatementSkip) {
				s.LogWarn(ctx, "Statement skipped", slog.Int64("account_id", account.AccountID), slog.String("reason", genErr.Error()))
				events <- dto.ProgressEvent{
					Type:      dto.EventPopulateInfo,
					AccountID: account.AccountID,
					Message:   genErr.Error(),
				}
				continue
			}
			s.LogError(ctx, genErr, "Statement batch halted", slog.Int64("account_id", account.AccountID))
			events <- dto.ProgressEvent{
				Type:      dto.EventPopulateError,
				AccountID: account.AccountID,
				Message:   genErr.Error(),
			}
			halted = true
			break
		}

		generated = append(generated, *statement)
		resp := dto.ToStatementResponse(statement)
		events <- dto.ProgressEvent{
			Type:      dto.EventPopulatedStatement,
			AccountID: account.AccountID,
			Statement: &resp,
		}
	}

	events <- dto.ProgressEvent{Type: dto.EventPopulateComplete, Total: len(generated)}

	if req.SendEmail && !cancelled && !halted {
		s.emailPhase(ctx, req, accounts, generated, events)
	}

	s.LogInfo(ctx, "Statement batch finished",
		slog.Int("generated", len(generated)),
		slog.Duration("elapsed", time.Since(started)))
}

// generateOne computes and stores the statement for one account. The end
// balance is the prior period's end balance (or the opening anchor) plus the
// month's posted operations plus the reported gain or loss.
func (s *statementServiceImpl) generateOne(ctx context.Context, account domain.Account, req dto.GenerateStatementsRequest, userID string) (*domain.Statement, error) {
	if account.Closed {
		return nil, fmt.Errorf("account %s is closed: %w", account.AccountNumber, errStatementSkip)
	}

	statements, err := s.statementRepo.ListStatementsByAccount(ctx, account.AccountID)
	if err != nil {
		return nil, err
	}

	start, err := reconciliation.StartBalance(account, statements, req.Month, req.Year)
	if err != nil {
		if errors.Is(err, reconciliation.ErrUnavailable) {
			return nil, fmt.Errorf("no start balance for %d/%d: %w", req.Month, req.Year, errStatementSkip)
		}
		return nil, err
	}

	operations, err := s.operationRepo.ListOperationsByAccount(ctx, account.AccountID, req.Month, req.Year)
	if err != nil {
		return nil, err
	}
	opsTotal := decimal.Zero
	for _, op := range operations {
		if op.Deleted {
			continue
		}
		opsTotal = opsTotal.Add(op.Amount)
	}

	result := req.ResultFor(account.AccountID)

	now := time.Now().UTC()
	statement := domain.Statement{
		AccountID:  account.AccountID,
		Month:      req.Month,
		Year:       req.Year,
		EndBalance: start.Add(opsTotal).Add(result.GainLoss),
		GainLoss:   result.GainLoss,
		PerfFee:    result.PerfFee,
		FmFee:      result.FmFee,
		Percentage: result.Percentage,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	id, err := s.statementRepo.UpsertStatement(ctx, statement)
	if err != nil {
		return nil, err
	}
	statement.StatementID = id
	return &statement, nil
}

// emailPhase reports one EmailSent event per generated statement. Accounts
// without a deliverable address are reported as not emailed straight away;
// actual sends are paced by the ticker. Failed sends emit an error event on
// top of their not-emailed report.
func (s *statementServiceImpl) emailPhase(ctx context.Context, req dto.GenerateStatementsRequest, accounts []domain.Account, generated []domain.Statement, events chan<- dto.ProgressEvent) {
	byID := make(map[int64]domain.Account, len(accounts))
	for _, account := range accounts {
		byID[account.AccountID] = account
	}

	events <- dto.ProgressEvent{
		Type:   dto.EventEmailStarted,
		Total:  len(generated),
		EachMS: int(s.emailPace / time.Millisecond),
	}
	defer func() {
		events <- dto.ProgressEvent{Type: dto.EventEmailComplete}
	}()

	ticker := time.NewTicker(s.emailPace)
	defer ticker.Stop()

	for _, statement := range generated {
		account, ok := byID[statement.AccountID]
		if !ok || !account.CanReceiveEmail() {
			notSent := false
			events <- dto.ProgressEvent{
				Type:      dto.EventEmailSent,
				AccountID: statement.AccountID,
				Emailed:   &notSent,
			}
			continue
		}

		select {
		case <-ctx.Done():
			s.LogWarn(ctx, "Email phase cancelled")
			return
		case <-ticker.C:
		}

		msg := email.Message{
			To:      account.Email,
			Subject: fmt.Sprintf("Your statement for %d/%d", req.Month, req.Year),
			Body: fmt.Sprintf("Statement for account %s, period %d/%d. Closing balance: %s.",
				account.AccountNumber, req.Month, req.Year, statement.EndBalance.StringFixed(2)),
		}

		emailed := true
		if err := s.emailSender.Send(ctx, msg); err != nil {
			emailed = false
			s.LogError(ctx, err, "Failed to send statement email", slog.Int64("account_id", account.AccountID))
			events <- dto.ProgressEvent{
				Type:      dto.EventPopulateError,
				AccountID: account.AccountID,
				Message:   fmt.Sprintf("email failed: %v", err),
			}
		}
		sent := emailed
		events <- dto.ProgressEvent{
			Type:      dto.EventEmailSent,
			AccountID: account.AccountID,
			Emailed:   &sent,
		}
	}
}

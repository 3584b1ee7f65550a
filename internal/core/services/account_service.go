package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/harborpoint/fund_backoffice_app/internal/apperrors"
	"github.com/harborpoint/fund_backoffice_app/internal/core/domain"
	portsrepo "github.com/harborpoint/fund_backoffice_app/internal/core/ports/repositories"
	portssvc "github.com/harborpoint/fund_backoffice_app/internal/core/ports/services"
	"github.com/harborpoint/fund_backoffice_app/internal/dto"
	"github.com/harborpoint/fund_backoffice_app/internal/utils/reconciliation"
	"github.com/shopspring/decimal"
)

type accountServiceImpl struct {
	BaseService
	accountRepo   portsrepo.AccountRepositoryFacade
	requestRepo   portsrepo.RequestRepositoryFacade
	operationRepo portsrepo.OperationRepositoryFacade
	statementRepo portsrepo.StatementRepositoryFacade
	tolerance     decimal.Decimal
}

// NewAccountService creates the account service. tolerance is the maximum
// absolute reconciliation error still treated as reconciled.
func NewAccountService(
	accountRepo portsrepo.AccountRepositoryFacade,
	requestRepo portsrepo.RequestRepositoryFacade,
	operationRepo portsrepo.OperationRepositoryFacade,
	statementRepo portsrepo.StatementRepositoryFacade,
	tolerance decimal.Decimal,
) portssvc.AccountSvcFacade {
	if tolerance.LessThanOrEqual(decimal.Zero) {
		tolerance = reconciliation.DefaultTolerance
	}
	return &accountServiceImpl{
		accountRepo:   accountRepo,
		requestRepo:   requestRepo,
		operationRepo: operationRepo,
		statementRepo: statementRepo,
		tolerance:     tolerance,
	}
}

var _ portssvc.AccountSvcFacade = (*accountServiceImpl)(nil)

func (s *accountServiceImpl) GetAccountByID(ctx context.Context, accountID int64) (*domain.Account, error) {
	return s.accountRepo.FindAccountByID(ctx, accountID)
}

func (s *accountServiceImpl) ListAccounts(ctx context.Context, includeClosed bool) ([]domain.Account, error) {
	return s.accountRepo.ListAccounts(ctx, includeClosed)
}

func (s *accountServiceImpl) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	now := time.Now().UTC()
	emailStatus := domain.EmailActive
	if req.Email == "" {
		emailStatus = domain.EmailPending
	}

	account := domain.Account{
		AccountNumber:  req.AccountNumber,
		OpeningBalance: req.OpeningBalance,
		OpeningMonth:   req.OpeningMonth,
		OpeningYear:    req.OpeningYear,
		ManagerID:      req.ManagerID,
		Email:          req.Email,
		EmailStatus:    emailStatus,
		DefaultBankRef: req.DefaultBankRef,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	id, err := s.accountRepo.CreateAccount(ctx, account)
	if err != nil {
		s.LogError(ctx, err, "Failed to create account", slog.String("account_number", req.AccountNumber))
		return nil, err
	}
	account.AccountID = id

	s.LogInfo(ctx, "Account created",
		slog.Int64("account_id", id),
		slog.String("account_number", req.AccountNumber))
	return &account, nil
}

// UpdateAccount changes mutable account fields. The opening balance and period
// are the reconciliation anchor and cannot be edited.
func (s *accountServiceImpl) UpdateAccount(ctx context.Context, accountID int64, req dto.UpdateAccountRequest, userID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	changed := false
	if req.ManagerID != nil && *req.ManagerID != account.ManagerID {
		account.ManagerID = *req.ManagerID
		changed = true
	}
	if req.Email != nil && *req.Email != account.Email {
		account.Email = *req.Email
		changed = true
	}
	if req.EmailStatus != nil {
		status := domain.EmailStatus(*req.EmailStatus)
		switch status {
		case domain.EmailActive, domain.EmailClosed, domain.EmailPending:
		default:
			return nil, fmt.Errorf("unknown email status %q: %w", *req.EmailStatus, apperrors.ErrValidation)
		}
		if status != account.EmailStatus {
			account.EmailStatus = status
			changed = true
		}
	}
	if req.DefaultBankRef != nil && *req.DefaultBankRef != account.DefaultBankRef {
		account.DefaultBankRef = *req.DefaultBankRef
		changed = true
	}
	if req.Closed != nil && *req.Closed != account.Closed {
		account.Closed = *req.Closed
		changed = true
	}

	if !changed {
		return account, nil
	}

	account.LastUpdatedAt = time.Now().UTC()
	account.LastUpdatedBy = userID
	if err := s.accountRepo.UpdateAccount(ctx, *account); err != nil {
		s.LogError(ctx, err, "Failed to update account", slog.Int64("account_id", accountID))
		return nil, err
	}

	s.LogInfo(ctx, "Account updated", slog.Int64("account_id", accountID))
	return account, nil
}

func (s *accountServiceImpl) GetBalance(ctx context.Context, accountID int64, month, year int) (*reconciliation.Summary, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	statements, err := s.statementRepo.ListStatementsByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	operations, err := s.operationRepo.ListOperationsByAccount(ctx, accountID, month, year)
	if err != nil {
		return nil, err
	}
	open, err := s.requestRepo.ListOpenRequestsByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	summary, err := reconciliation.Summarize(*account, statements, operations, open, month, year, s.tolerance)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

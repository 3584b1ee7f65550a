package services

import (
	"context"

	"github.com/harborpoint/fund_backoffice_app/internal/core/domain"
	"github.com/harborpoint/fund_backoffice_app/internal/dto"
	"github.com/harborpoint/fund_backoffice_app/internal/utils/reconciliation"
)

// AccountReaderSvc defines read operations for client accounts.
type AccountReaderSvc interface {
	GetAccountByID(ctx context.Context, accountID int64) (*domain.Account, error)
	ListAccounts(ctx context.Context, includeClosed bool) ([]domain.Account, error)
}

// AccountWriterSvc defines write operations for client accounts.
type AccountWriterSvc interface {
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error)
	UpdateAccount(ctx context.Context, accountID int64, req dto.UpdateAccountRequest, userID string) (*domain.Account, error)
}

// AccountBalanceSvc computes the reconciliation view for an account and month.
type AccountBalanceSvc interface {
	// GetBalance returns nil with reconciliation.ErrUnavailable when the start
	// balance cannot be derived; callers display that distinctly from zero.
	GetBalance(ctx context.Context, accountID int64, month, year int) (*reconciliation.Summary, error)
}

// AccountSvcFacade combines all account-related service interfaces.
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
	AccountBalanceSvc
}

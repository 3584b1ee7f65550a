package repositories

import (
	"context"

	"github.com/harborpoint/fund_backoffice_app/internal/core/domain"
)

// AccountRepositoryFacade defines persistence operations for client accounts.
type AccountRepositoryFacade interface {
	CreateAccount(ctx context.Context, account domain.Account) (int64, error)
	FindAccountByID(ctx context.Context, accountID int64) (*domain.Account, error)
	ListAccounts(ctx context.Context, includeClosed bool) ([]domain.Account, error)
	ListAccountsByIDs(ctx context.Context, accountIDs []int64) ([]domain.Account, error)
	// UpdateAccount must never touch the opening balance/month/year anchor.
	UpdateAccount(ctx context.Context, account domain.Account) error
}

// RequestRepositoryFacade defines persistence operations for transfer requests.
// ApplyTransition is the single write path for lifecycle changes: it updates
// the request, upserts the document (when non-nil), inserts new operations and
// soft-deletes listed ones atomically, so no caller can update the money state
// without the paper state.
type RequestRepositoryFacade interface {
	CreateRequest(ctx context.Context, request domain.TransferRequest) (int64, error)
	FindRequestByID(ctx context.Context, requestID int64) (*domain.TransferRequest, error)
	ListRequestsByAccount(ctx context.Context, accountID int64, limit int, nextToken *string) ([]domain.TransferRequest, *string, error)
	// ListOpenRequestsByAccount returns pending and recurring requests.
	ListOpenRequestsByAccount(ctx context.Context, accountID int64) ([]domain.TransferRequest, error)
	UpdateRequest(ctx context.Context, request domain.TransferRequest) error
	ApplyTransition(ctx context.Context, request domain.TransferRequest, document *domain.Document, newOperations []domain.Operation, deleteOperationIDs []int64) error
}

// OperationRepositoryFacade defines read operations for posted ledger lines.
// Writes go through RequestRepositoryFacade.ApplyTransition.
type OperationRepositoryFacade interface {
	// ListOperationsByAccount returns the account's operations; month/year of
	// zero means all periods. Soft-deleted rows are included with Deleted set.
	ListOperationsByAccount(ctx context.Context, accountID int64, month, year int) ([]domain.Operation, error)
	ListOperationsByRequest(ctx context.Context, requestID int64) ([]domain.Operation, error)
}

// DocumentRepositoryFacade defines persistence operations for paperwork records.
type DocumentRepositoryFacade interface {
	FindDocumentByRequestID(ctx context.Context, requestID int64) (*domain.Document, error)
	CreateDocument(ctx context.Context, document domain.Document) (int64, error)
	UpdateDocument(ctx context.Context, document domain.Document) error
	DeleteDocument(ctx context.Context, documentID int64) error
}

// StatementRepositoryFacade defines persistence operations for monthly statements.
type StatementRepositoryFacade interface {
	// ListStatementsByAccount returns statements in (year, month) descending order.
	ListStatementsByAccount(ctx context.Context, accountID int64) ([]domain.Statement, error)
	FindStatement(ctx context.Context, accountID int64, month, year int) (*domain.Statement, error)
	// UpsertStatement inserts or replaces the single statement per (account, month, year).
	UpsertStatement(ctx context.Context, statement domain.Statement) (int64, error)
}

// UserRepositoryFacade defines persistence operations for staff users.
type UserRepositoryFacade interface {
	CreateUser(ctx context.Context, user domain.User) (int64, error)
	FindUserByID(ctx context.Context, userID int64) (*domain.User, error)
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateUser(ctx context.Context, user domain.User) error
}

// RepositoryProvider bundles every repository for container wiring.
type RepositoryProvider struct {
	AccountRepo   AccountRepositoryFacade
	RequestRepo   RequestRepositoryFacade
	OperationRepo OperationRepositoryFacade
	DocumentRepo  DocumentRepositoryFacade
	StatementRepo StatementRepositoryFacade
	UserRepo      UserRepositoryFacade
}

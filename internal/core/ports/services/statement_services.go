package services

import (
	"context"

	"github.com/harborpoint/fund_backoffice_app/internal/core/domain"
	"github.com/harborpoint/fund_backoffice_app/internal/dto"
)

// StatementReaderSvc defines read operations for statements.
type StatementReaderSvc interface {
	// ListStatements returns an account's statements, (year, month) descending.
	ListStatements(ctx context.Context, accountID int64) ([]domain.Statement, error)
}

// StatementBatchSvc runs the statement-generation batch job.
type StatementBatchSvc interface {
	// GenerateStatements starts a batch run and returns its ordered progress
	// event stream. A second invocation while one run is active returns
	// apperrors.ErrBusy immediately; there is no queueing. The stream is
	// closed when the job finishes; the job runs to completion even if the
	// subscriber stops reading.
	GenerateStatements(ctx context.Context, req dto.GenerateStatementsRequest, userID string) (<-chan dto.ProgressEvent, error)

	// Running reports whether a batch run is currently active.
	Running() bool
}

// StatementSvcFacade combines all statement-related service interfaces.
type StatementSvcFacade interface {
	StatementReaderSvc
	StatementBatchSvc
}

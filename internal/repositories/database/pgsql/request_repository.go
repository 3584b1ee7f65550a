package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/harborpoint/fund_backoffice_app/internal/apperrors"
	"github.com/harborpoint/fund_backoffice_app/internal/core/domain"
	portsrepo "github.com/harborpoint/fund_backoffice_app/internal/core/ports/repositories"
	"github.com/harborpoint/fund_backoffice_app/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxRequestRepository struct {
	BaseRepository
}

// newPgxRequestRepository creates a new repository for transfer request data.
func newPgxRequestRepository(pool *pgxpool.Pool) portsrepo.RequestRepositoryFacade {
	return &PgxRequestRepository{BaseRepository{Pool: pool}}
}

var _ portsrepo.RequestRepositoryFacade = (*PgxRequestRepository)(nil)

const requestColumns = `request_id, account_id, amount, status, submitted_at, bank_account_ref, effective_month, effective_year, created_at, created_by, last_updated_at, last_updated_by`

func scanRequest(row pgx.Row) (*domain.TransferRequest, error) {
	var t domain.TransferRequest
	err := row.Scan(
		&t.RequestID,
		&t.AccountID,
		&t.Amount,
		&t.Status,
		&t.SubmittedAt,
		&t.BankAccountRef,
		&t.EffectiveMonth,
		&t.EffectiveYear,
		&t.CreatedAt,
		&t.CreatedBy,
		&t.LastUpdatedAt,
		&t.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PgxRequestRepository) CreateRequest(ctx context.Context, request domain.TransferRequest) (int64, error) {
	query := `
		INSERT INTO transfer_requests (account_id, amount, status, submitted_at, bank_account_ref, effective_month, effective_year, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING request_id;
	`
	var id int64
	err := r.Pool.QueryRow(ctx, query,
		request.AccountID,
		request.Amount,
		request.Status,
		request.SubmittedAt,
		request.BankAccountRef,
		request.EffectiveMonth,
		request.EffectiveYear,
		request.CreatedAt,
		request.CreatedBy,
		request.LastUpdatedAt,
		request.LastUpdatedBy,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create transfer request for account %d: %w", request.AccountID, err)
	}
	return id, nil
}

func (r *PgxRequestRepository) FindRequestByID(ctx context.Context, requestID int64) (*domain.TransferRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM transfer_requests WHERE request_id = $1;`

	request, err := scanRequest(r.Pool.QueryRow(ctx, query, requestID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transfer request %d: %w", requestID, err)
	}
	return request, nil
}

// ListRequestsByAccount pages newest-first on (submitted_at, request_id).
func (r *PgxRequestRepository) ListRequestsByAccount(ctx context.Context, accountID int64, limit int, nextToken *string) ([]domain.TransferRequest, *string, error) {
	query := `SELECT ` + requestColumns + ` FROM transfer_requests WHERE account_id = $1`
	args := []any{accountID}

	if nextToken != nil && *nextToken != "" {
		submittedAt, lastID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		query += ` AND (submitted_at, request_id) < ($2, $3)`
		args = append(args, submittedAt, lastID)
	}
	query += fmt.Sprintf(` ORDER BY submitted_at DESC, request_id DESC LIMIT %d;`, limit+1)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query transfer requests for account %d: %w", accountID, err)
	}
	defer rows.Close()

	requests := []domain.TransferRequest{}
	for rows.Next() {
		request, scanErr := scanRequest(rows)
		if scanErr != nil {
			return nil, nil, fmt.Errorf("failed to scan transfer request row: %w", scanErr)
		}
		requests = append(requests, *request)
	}
	if rows.Err() != nil {
		return nil, nil, fmt.Errorf("error iterating transfer request rows: %w", rows.Err())
	}

	var token *string
	if len(requests) > limit {
		requests = requests[:limit]
		last := requests[limit-1]
		encoded := pagination.EncodeToken(last.SubmittedAt, last.RequestID)
		token = &encoded
	}
	return requests, token, nil
}

func (r *PgxRequestRepository) ListOpenRequestsByAccount(ctx context.Context, accountID int64) ([]domain.TransferRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM transfer_requests WHERE account_id = $1 AND status IN ('pending', 'recurring') ORDER BY submitted_at;`

	rows, err := r.Pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query open transfer requests for account %d: %w", accountID, err)
	}
	defer rows.Close()

	requests := []domain.TransferRequest{}
	for rows.Next() {
		request, scanErr := scanRequest(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan open transfer request row: %w", scanErr)
		}
		requests = append(requests, *request)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating open transfer request rows: %w", rows.Err())
	}
	return requests, nil
}

func (r *PgxRequestRepository) UpdateRequest(ctx context.Context, request domain.TransferRequest) error {
	query := `
		UPDATE transfer_requests
		SET amount = $2, status = $3, bank_account_ref = $4, effective_month = $5, effective_year = $6, last_updated_at = $7, last_updated_by = $8
		WHERE request_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		request.RequestID,
		request.Amount,
		request.Status,
		request.BankAccountRef,
		request.EffectiveMonth,
		request.EffectiveYear,
		request.LastUpdatedAt,
		request.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update transfer request %d: %w", request.RequestID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ApplyTransition writes a lifecycle change atomically: the request row, its
// document (when present), new operations and soft deletions commit or roll
// back together.
func (r *PgxRequestRepository) ApplyTransition(ctx context.Context, request domain.TransferRequest, document *domain.Document, newOperations []domain.Operation, deleteOperationIDs []int64) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = r.Rollback(ctx, tx)
	}()

	updateRequest := `
		UPDATE transfer_requests
		SET amount = $2, status = $3, bank_account_ref = $4, effective_month = $5, effective_year = $6, last_updated_at = $7, last_updated_by = $8
		WHERE request_id = $1;
	`
	cmdTag, err := tx.Exec(ctx, updateRequest,
		request.RequestID,
		request.Amount,
		request.Status,
		request.BankAccountRef,
		request.EffectiveMonth,
		request.EffectiveYear,
		request.LastUpdatedAt,
		request.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update transfer request %d in transition: %w", request.RequestID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	if document != nil {
		upsertDocument := `
			INSERT INTO documents (request_id, account_id, stage, status, document_link, send_by, created_at, created_by, last_updated_at, last_updated_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (request_id) DO UPDATE
			SET stage = EXCLUDED.stage, status = EXCLUDED.status, document_link = EXCLUDED.document_link, send_by = EXCLUDED.send_by, last_updated_at = EXCLUDED.last_updated_at, last_updated_by = EXCLUDED.last_updated_by;
		`
		if _, err := tx.Exec(ctx, upsertDocument,
			document.RequestID,
			document.AccountID,
			document.Stage,
			document.Status,
			document.DocumentLink,
			document.SendBy,
			document.CreatedAt,
			document.CreatedBy,
			document.LastUpdatedAt,
			document.LastUpdatedBy,
		); err != nil {
			return fmt.Errorf("failed to upsert document for request %d in transition: %w", request.RequestID, err)
		}
	}

	if len(newOperations) > 0 {
		insertOperation := `
			INSERT INTO operations (account_id, request_id, amount, month, year, day, wire_confirmation, deleted, created_at, created_by, last_updated_at, last_updated_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
		`
		batch := &pgx.Batch{}
		for _, op := range newOperations {
			batch.Queue(insertOperation,
				op.AccountID,
				op.RequestID,
				op.Amount,
				op.Month,
				op.Year,
				op.Day,
				op.WireConfirmation,
				op.Deleted,
				op.CreatedAt,
				op.CreatedBy,
				op.LastUpdatedAt,
				op.LastUpdatedBy,
			)
		}
		br := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, execErr := br.Exec(); execErr != nil {
				_ = br.Close()
				return fmt.Errorf("failed to insert operation for request %d in transition: %w", request.RequestID, execErr)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("failed to close operation insert batch: %w", err)
		}
	}

	if len(deleteOperationIDs) > 0 {
		softDelete := `
			UPDATE operations
			SET deleted = TRUE, last_updated_at = $2, last_updated_by = $3
			WHERE operation_id = ANY($1) AND request_id = $4;
		`
		cmdTag, err := tx.Exec(ctx, softDelete, deleteOperationIDs, request.LastUpdatedAt, request.LastUpdatedBy, request.RequestID)
		if err != nil {
			return fmt.Errorf("failed to soft-delete operations for request %d: %w", request.RequestID, err)
		}
		if int(cmdTag.RowsAffected()) != len(deleteOperationIDs) {
			return fmt.Errorf("%w: not all operations belong to request %d", apperrors.ErrValidation, request.RequestID)
		}
	}

	return r.Commit(ctx, tx)
}

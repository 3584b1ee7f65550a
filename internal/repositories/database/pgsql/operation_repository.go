package pgsql

import (
	"context"
	"fmt"

	"github.com/harborpoint/fund_backoffice_app/internal/core/domain"
	portsrepo "github.com/harborpoint/fund_backoffice_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxOperationRepository struct {
	BaseRepository
}

// newPgxOperationRepository creates a read-side repository for posted
// operations. Writes go through the request repository's transition path.
func newPgxOperationRepository(pool *pgxpool.Pool) portsrepo.OperationRepositoryFacade {
	return &PgxOperationRepository{BaseRepository{Pool: pool}}
}

var _ portsrepo.OperationRepositoryFacade = (*PgxOperationRepository)(nil)

const operationColumns = `operation_id, account_id, request_id, amount, month, year, day, wire_confirmation, deleted, created_at, created_by, last_updated_at, last_updated_by`

func scanOperation(row pgx.Row) (*domain.Operation, error) {
	var o domain.Operation
	err := row.Scan(
		&o.OperationID,
		&o.AccountID,
		&o.RequestID,
		&o.Amount,
		&o.Month,
		&o.Year,
		&o.Day,
		&o.WireConfirmation,
		&o.Deleted,
		&o.CreatedAt,
		&o.CreatedBy,
		&o.LastUpdatedAt,
		&o.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PgxOperationRepository) ListOperationsByAccount(ctx context.Context, accountID int64, month, year int) ([]domain.Operation, error) {
	query := `SELECT ` + operationColumns + ` FROM operations WHERE account_id = $1`
	args := []any{accountID}
	if month != 0 && year != 0 {
		query += ` AND month = $2 AND year = $3`
		args = append(args, month, year)
	}
	query += ` ORDER BY year, month, day, operation_id;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations for account %d: %w", accountID, err)
	}
	defer rows.Close()

	operations := []domain.Operation{}
	for rows.Next() {
		operation, scanErr := scanOperation(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan operation row: %w", scanErr)
		}
		operations = append(operations, *operation)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating operation rows: %w", rows.Err())
	}
	return operations, nil
}

func (r *PgxOperationRepository) ListOperationsByRequest(ctx context.Context, requestID int64) ([]domain.Operation, error) {
	query := `SELECT ` + operationColumns + ` FROM operations WHERE request_id = $1 ORDER BY year, month, day, operation_id;`

	rows, err := r.Pool.Query(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations for request %d: %w", requestID, err)
	}
	defer rows.Close()

	operations := []domain.Operation{}
	for rows.Next() {
		operation, scanErr := scanOperation(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan operation row: %w", scanErr)
		}
		operations = append(operations, *operation)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating operation rows: %w", rows.Err())
	}
	return operations, nil
}

package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/harborpoint/fund_backoffice_app/internal/apperrors"
	"github.com/harborpoint/fund_backoffice_app/internal/core/domain"
	portsrepo "github.com/harborpoint/fund_backoffice_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxStatementRepository struct {
	BaseRepository
}

// newPgxStatementRepository creates a new repository for monthly statements.
func newPgxStatementRepository(pool *pgxpool.Pool) portsrepo.StatementRepositoryFacade {
	return &PgxStatementRepository{BaseRepository{Pool: pool}}
}

var _ portsrepo.StatementRepositoryFacade = (*PgxStatementRepository)(nil)

const statementColumns = `statement_id, account_id, month, year, end_balance, gain_loss, perf_fee, fm_fee, percentage, created_at, created_by, last_updated_at, last_updated_by`

func scanStatement(row pgx.Row) (*domain.Statement, error) {
	var s domain.Statement
	err := row.Scan(
		&s.StatementID,
		&s.AccountID,
		&s.Month,
		&s.Year,
		&s.EndBalance,
		&s.GainLoss,
		&s.PerfFee,
		&s.FmFee,
		&s.Percentage,
		&s.CreatedAt,
		&s.CreatedBy,
		&s.LastUpdatedAt,
		&s.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PgxStatementRepository) ListStatementsByAccount(ctx context.Context, accountID int64) ([]domain.Statement, error) {
	query := `SELECT ` + statementColumns + ` FROM statements WHERE account_id = $1 ORDER BY year DESC, month DESC;`

	rows, err := r.Pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query statements for account %d: %w", accountID, err)
	}
	defer rows.Close()

	statements := []domain.Statement{}
	for rows.Next() {
		statement, scanErr := scanStatement(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan statement row: %w", scanErr)
		}
		statements = append(statements, *statement)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating statement rows: %w", rows.Err())
	}
	return statements, nil
}

func (r *PgxStatementRepository) FindStatement(ctx context.Context, accountID int64, month, year int) (*domain.Statement, error) {
	query := `SELECT ` + statementColumns + ` FROM statements WHERE account_id = $1 AND month = $2 AND year = $3;`

	statement, err := scanStatement(r.Pool.QueryRow(ctx, query, accountID, month, year))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find statement for account %d period %d/%d: %w", accountID, month, year, err)
	}
	return statement, nil
}

// UpsertStatement keeps the one-statement-per-period invariant: re-running a
// batch replaces the period's figures instead of duplicating the row.
func (r *PgxStatementRepository) UpsertStatement(ctx context.Context, statement domain.Statement) (int64, error) {
	query := `
		INSERT INTO statements (account_id, month, year, end_balance, gain_loss, perf_fee, fm_fee, percentage, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (account_id, month, year) DO UPDATE
		SET end_balance = EXCLUDED.end_balance, gain_loss = EXCLUDED.gain_loss, perf_fee = EXCLUDED.perf_fee, fm_fee = EXCLUDED.fm_fee, percentage = EXCLUDED.percentage, last_updated_at = EXCLUDED.last_updated_at, last_updated_by = EXCLUDED.last_updated_by
		RETURNING statement_id;
	`
	var id int64
	err := r.Pool.QueryRow(ctx, query,
		statement.AccountID,
		statement.Month,
		statement.Year,
		statement.EndBalance,
		statement.GainLoss,
		statement.PerfFee,
		statement.FmFee,
		statement.Percentage,
		statement.CreatedAt,
		statement.CreatedBy,
		statement.LastUpdatedAt,
		statement.LastUpdatedBy,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert statement for account %d period %d/%d: %w", statement.AccountID, statement.Month, statement.Year, err)
	}
	return id, nil
}

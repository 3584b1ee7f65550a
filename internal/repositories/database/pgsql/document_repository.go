package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/harborpoint/fund_backoffice_app/internal/apperrors"
	"github.com/harborpoint/fund_backoffice_app/internal/core/domain"
	portsrepo "github.com/harborpoint/fund_backoffice_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxDocumentRepository struct {
	BaseRepository
}

// newPgxDocumentRepository creates a new repository for paperwork records.
func newPgxDocumentRepository(pool *pgxpool.Pool) portsrepo.DocumentRepositoryFacade {
	return &PgxDocumentRepository{BaseRepository{Pool: pool}}
}

var _ portsrepo.DocumentRepositoryFacade = (*PgxDocumentRepository)(nil)

const documentColumns = `document_id, request_id, account_id, stage, status, document_link, send_by, created_at, created_by, last_updated_at, last_updated_by`

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var d domain.Document
	err := row.Scan(
		&d.DocumentID,
		&d.RequestID,
		&d.AccountID,
		&d.Stage,
		&d.Status,
		&d.DocumentLink,
		&d.SendBy,
		&d.CreatedAt,
		&d.CreatedBy,
		&d.LastUpdatedAt,
		&d.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *PgxDocumentRepository) FindDocumentByRequestID(ctx context.Context, requestID int64) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE request_id = $1;`

	document, err := scanDocument(r.Pool.QueryRow(ctx, query, requestID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find document for request %d: %w", requestID, err)
	}
	return document, nil
}

func (r *PgxDocumentRepository) CreateDocument(ctx context.Context, document domain.Document) (int64, error) {
	query := `
		INSERT INTO documents (request_id, account_id, stage, status, document_link, send_by, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING document_id;
	`
	var id int64
	err := r.Pool.QueryRow(ctx, query,
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
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: request %d already has a document", apperrors.ErrDuplicate, document.RequestID)
		}
		return 0, fmt.Errorf("failed to create document for request %d: %w", document.RequestID, err)
	}
	return id, nil
}

func (r *PgxDocumentRepository) UpdateDocument(ctx context.Context, document domain.Document) error {
	query := `
		UPDATE documents
		SET stage = $2, status = $3, document_link = $4, send_by = $5, last_updated_at = $6, last_updated_by = $7
		WHERE document_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		document.DocumentID,
		document.Stage,
		document.Status,
		document.DocumentLink,
		document.SendBy,
		document.LastUpdatedAt,
		document.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update document %d: %w", document.DocumentID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxDocumentRepository) DeleteDocument(ctx context.Context, documentID int64) error {
	cmdTag, err := r.Pool.Exec(ctx, `DELETE FROM documents WHERE document_id = $1;`, documentID)
	if err != nil {
		return fmt.Errorf("failed to delete document %d: %w", documentID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

package pgsql

import (
	portsrepo "github.com/harborpoint/fund_backoffice_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires every pgx-backed repository off one pool.
func NewRepositoryProvider(pool *pgxpool.Pool) *portsrepo.RepositoryProvider {
	return &portsrepo.RepositoryProvider{
		AccountRepo:   newPgxAccountRepository(pool),
		RequestRepo:   newPgxRequestRepository(pool),
		OperationRepo: newPgxOperationRepository(pool),
		DocumentRepo:  newPgxDocumentRepository(pool),
		StatementRepo: newPgxStatementRepository(pool),
		UserRepo:      newPgxUserRepository(pool),
	}
}

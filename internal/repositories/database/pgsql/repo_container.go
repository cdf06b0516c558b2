package pgsql

import (
	portsrepo "github.com/finledger/finledger_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires every PostgreSQL repository onto one pool.
func NewRepositoryProvider(pool *pgxpool.Pool) portsrepo.RepositoryProvider {
	accountRepo := newPgxAccountRepository(pool)
	return portsrepo.RepositoryProvider{
		AccountRepo:         accountRepo,
		EntryRepo:           newPgxEntryRepository(pool, accountRepo),
		ExternalAccountRepo: newPgxExternalAccountRepository(pool),
		CategoryMappingRepo: newPgxCategoryMappingRepository(pool),
		SourceRepo:          newPgxSourceRepository(pool),
		CurrencyRepo:        newPgxCurrencyRepository(pool),
	}
}

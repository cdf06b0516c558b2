package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/finledger/finledger_backend/internal/apperrors"
	"github.com/finledger/finledger_backend/internal/core/domain"
	portsrepo "github.com/finledger/finledger_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxCategoryMappingRepository struct {
	BaseRepository
}

// newPgxCategoryMappingRepository creates a new repository for category mapping data.
func newPgxCategoryMappingRepository(pool *pgxpool.Pool) portsrepo.CategoryMappingRepository {
	return &PgxCategoryMappingRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.CategoryMappingRepository = (*PgxCategoryMappingRepository)(nil)

// GetCategoryAccount returns the mapped ledger account id, or empty string
// when the category has no mapping yet.
func (r *PgxCategoryMappingRepository) GetCategoryAccount(ctx context.Context, workplaceID string, kind domain.SourceKind, category string) (string, error) {
	query := `
		SELECT account_id FROM ledger_category_mappings
		WHERE workplace_id = $1 AND kind = $2 AND category = $3;
	`
	var accountID string
	err := r.Pool.QueryRow(ctx, query, workplaceID, string(kind), category).Scan(&accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", apperrors.NewAppError(500, "failed to look up category mapping "+category, err)
	}
	return accountID, nil
}

// PutCategoryAccount stores a category→account assignment. A concurrent
// insert for the same category keeps the first writer's account; the no-op
// conflict update makes RETURNING yield the winning row either way.
func (r *PgxCategoryMappingRepository) PutCategoryAccount(ctx context.Context, workplaceID string, kind domain.SourceKind, category string, accountID string, userID string, now time.Time) (string, error) {
	query := `
		INSERT INTO ledger_category_mappings (workplace_id, kind, category, account_id, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $5, $6)
		ON CONFLICT (workplace_id, kind, category) DO UPDATE SET account_id = ledger_category_mappings.account_id
		RETURNING account_id;
	`
	var mappedID string
	err := r.Pool.QueryRow(ctx, query, workplaceID, string(kind), category, accountID, now, userID).Scan(&mappedID)
	if err != nil {
		return "", mapPgError(err, "failed to save category mapping "+category)
	}
	return mappedID, nil
}

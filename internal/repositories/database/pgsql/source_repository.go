package pgsql

import (
	"context"
	"errors"

	"github.com/finledger/finledger_backend/internal/apperrors"
	"github.com/finledger/finledger_backend/internal/core/domain"
	portsrepo "github.com/finledger/finledger_backend/internal/core/ports/repositories"
	"github.com/finledger/finledger_backend/internal/models"
	"github.com/finledger/finledger_backend/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const sourceColumns = `source_id, workplace_id, kind, description, amount, currency_code, category, paid,
	external_account_id, document_date, ledger_entry_id, created_at, created_by, last_updated_at, last_updated_by`

type PgxSourceRepository struct {
	BaseRepository
}

// newPgxSourceRepository creates a new repository for source document data.
func newPgxSourceRepository(pool *pgxpool.Pool) portsrepo.SourceRepositoryFacade {
	return &PgxSourceRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.SourceRepositoryFacade = (*PgxSourceRepository)(nil)

func scanSource(row pgx.Row) (*models.SourceDocument, error) {
	var m models.SourceDocument
	err := row.Scan(
		&m.SourceID, &m.WorkplaceID, &m.Kind, &m.Description, &m.Amount, &m.CurrencyCode, &m.Category, &m.Paid,
		&m.ExternalAccountID, &m.DocumentDate, &m.LedgerEntryID,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PgxSourceRepository) querySources(ctx context.Context, query string, args ...interface{}) ([]domain.SourceDocument, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query source documents", err)
	}
	defer rows.Close()

	var docs []domain.SourceDocument
	for rows.Next() {
		m, err := scanSource(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan source document row", err)
		}
		docs = append(docs, mapping.ToDomainSourceDocument(*m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating source document rows", err)
	}
	return docs, nil
}

// SaveSource persists a new source document.
func (r *PgxSourceRepository) SaveSource(ctx context.Context, doc domain.SourceDocument) error {
	m := mapping.ToModelSourceDocument(doc)
	query := `
		INSERT INTO source_documents (` + sourceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.SourceID, m.WorkplaceID, m.Kind, m.Description, m.Amount, m.CurrencyCode, m.Category, m.Paid,
		m.ExternalAccountID, m.DocumentDate, m.LedgerEntryID,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return mapPgError(err, "failed to save source document "+m.SourceID)
	}
	return nil
}

// UpdateSource replaces the mutable fields of an existing source document.
func (r *PgxSourceRepository) UpdateSource(ctx context.Context, doc domain.SourceDocument) error {
	m := mapping.ToModelSourceDocument(doc)
	query := `
		UPDATE source_documents
		SET description = $3, amount = $4, currency_code = $5, category = $6, paid = $7,
		    external_account_id = $8, document_date = $9, ledger_entry_id = $10,
		    last_updated_at = $11, last_updated_by = $12
		WHERE workplace_id = $1 AND source_id = $2;
	`
	ct, err := r.Pool.Exec(ctx, query,
		m.WorkplaceID, m.SourceID, m.Description, m.Amount, m.CurrencyCode, m.Category, m.Paid,
		m.ExternalAccountID, m.DocumentDate, m.LedgerEntryID, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return mapPgError(err, "failed to update source document "+m.SourceID)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteSource removes a source document.
func (r *PgxSourceRepository) DeleteSource(ctx context.Context, workplaceID string, sourceID string) error {
	query := `DELETE FROM source_documents WHERE workplace_id = $1 AND source_id = $2;`
	ct, err := r.Pool.Exec(ctx, query, workplaceID, sourceID)
	if err != nil {
		return mapPgError(err, "failed to delete source document "+sourceID)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindSourceByID retrieves a source document by its identifier.
func (r *PgxSourceRepository) FindSourceByID(ctx context.Context, workplaceID string, sourceID string) (*domain.SourceDocument, error) {
	query := `SELECT ` + sourceColumns + ` FROM source_documents WHERE workplace_id = $1 AND source_id = $2;`
	m, err := scanSource(r.Pool.QueryRow(ctx, query, workplaceID, sourceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find source document by ID "+sourceID, err)
	}
	doc := mapping.ToDomainSourceDocument(*m)
	return &doc, nil
}

// ListPaidSources retrieves all paid source documents of a workplace.
func (r *PgxSourceRepository) ListPaidSources(ctx context.Context, workplaceID string) ([]domain.SourceDocument, error) {
	query := `SELECT ` + sourceColumns + ` FROM source_documents WHERE workplace_id = $1 AND paid = TRUE ORDER BY document_date, source_id;`
	return r.querySources(ctx, query, workplaceID)
}

// ListPaidSourcesMissingLink retrieves paid source documents that have no
// external-account link.
func (r *PgxSourceRepository) ListPaidSourcesMissingLink(ctx context.Context, workplaceID string) ([]domain.SourceDocument, error) {
	query := `SELECT ` + sourceColumns + ` FROM source_documents WHERE workplace_id = $1 AND paid = TRUE AND external_account_id IS NULL ORDER BY document_date, source_id;`
	return r.querySources(ctx, query, workplaceID)
}

// ListPaidLinkedSources retrieves paid source documents carrying an
// external-account link.
func (r *PgxSourceRepository) ListPaidLinkedSources(ctx context.Context, workplaceID string) ([]domain.SourceDocument, error) {
	query := `SELECT ` + sourceColumns + ` FROM source_documents WHERE workplace_id = $1 AND paid = TRUE AND external_account_id IS NOT NULL ORDER BY document_date, source_id;`
	return r.querySources(ctx, query, workplaceID)
}

// ListSourcesByExternalAccount retrieves every source document linked to one
// external account.
func (r *PgxSourceRepository) ListSourcesByExternalAccount(ctx context.Context, workplaceID string, externalAccountID string) ([]domain.SourceDocument, error) {
	query := `SELECT ` + sourceColumns + ` FROM source_documents WHERE workplace_id = $1 AND external_account_id = $2 ORDER BY document_date, source_id;`
	return r.querySources(ctx, query, workplaceID, externalAccountID)
}

package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/finledger/finledger_backend/internal/apperrors"
	"github.com/finledger/finledger_backend/internal/core/domain"
	portsrepo "github.com/finledger/finledger_backend/internal/core/ports/repositories"
	"github.com/finledger/finledger_backend/internal/models"
	"github.com/finledger/finledger_backend/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const externalAccountColumns = `external_account_id, workplace_id, name, currency_code, current_balance,
	ledger_account_id, is_active, created_at, created_by, last_updated_at, last_updated_by`

type PgxExternalAccountRepository struct {
	BaseRepository
}

// newPgxExternalAccountRepository creates a new repository for external account data.
func newPgxExternalAccountRepository(pool *pgxpool.Pool) portsrepo.ExternalAccountRepositoryFacade {
	return &PgxExternalAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ExternalAccountRepositoryFacade = (*PgxExternalAccountRepository)(nil)

func scanExternalAccount(row pgx.Row) (*models.ExternalAccount, error) {
	var m models.ExternalAccount
	err := row.Scan(
		&m.ExternalAccountID, &m.WorkplaceID, &m.Name, &m.CurrencyCode, &m.CurrentBalance,
		&m.LedgerAccountID, &m.IsActive, &m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveExternalAccount persists a new external account.
func (r *PgxExternalAccountRepository) SaveExternalAccount(ctx context.Context, account domain.ExternalAccount) error {
	m := mapping.ToModelExternalAccount(account)
	query := `
		INSERT INTO external_accounts (` + externalAccountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.ExternalAccountID, m.WorkplaceID, m.Name, m.CurrencyCode, m.CurrentBalance,
		m.LedgerAccountID, m.IsActive, m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return mapPgError(err, "failed to save external account "+m.ExternalAccountID)
	}
	return nil
}

// FindExternalAccountByID retrieves an external account by its identifier.
func (r *PgxExternalAccountRepository) FindExternalAccountByID(ctx context.Context, workplaceID string, externalAccountID string) (*domain.ExternalAccount, error) {
	query := `SELECT ` + externalAccountColumns + ` FROM external_accounts WHERE workplace_id = $1 AND external_account_id = $2;`
	m, err := scanExternalAccount(r.Pool.QueryRow(ctx, query, workplaceID, externalAccountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find external account by ID "+externalAccountID, err)
	}
	account := mapping.ToDomainExternalAccount(*m)
	return &account, nil
}

// ListExternalAccounts retrieves the external accounts of a workplace.
func (r *PgxExternalAccountRepository) ListExternalAccounts(ctx context.Context, workplaceID string, includeInactive bool) ([]domain.ExternalAccount, error) {
	query := `SELECT ` + externalAccountColumns + ` FROM external_accounts WHERE workplace_id = $1`
	if !includeInactive {
		query += " AND is_active = TRUE"
	}
	query += " ORDER BY name;"

	rows, err := r.Pool.Query(ctx, query, workplaceID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list external accounts for workplace "+workplaceID, err)
	}
	defer rows.Close()

	var accounts []domain.ExternalAccount
	for rows.Next() {
		m, err := scanExternalAccount(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan external account row", err)
		}
		accounts = append(accounts, mapping.ToDomainExternalAccount(*m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating external account rows", err)
	}
	return accounts, nil
}

// SetLedgerAccountID stores the chart-of-accounts mirror back-reference.
func (r *PgxExternalAccountRepository) SetLedgerAccountID(ctx context.Context, workplaceID string, externalAccountID string, ledgerAccountID string, userID string, now time.Time) error {
	query := `
		UPDATE external_accounts
		SET ledger_account_id = $3, last_updated_at = $4, last_updated_by = $5
		WHERE workplace_id = $1 AND external_account_id = $2;
	`
	ct, err := r.Pool.Exec(ctx, query, workplaceID, externalAccountID, ledgerAccountID, now, userID)
	if err != nil {
		return mapPgError(err, "failed to set ledger account for external account "+externalAccountID)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// OverwriteBalance replaces the stored current balance.
func (r *PgxExternalAccountRepository) OverwriteBalance(ctx context.Context, workplaceID string, externalAccountID string, balance decimal.Decimal, userID string, now time.Time) error {
	query := `
		UPDATE external_accounts
		SET current_balance = $3, last_updated_at = $4, last_updated_by = $5
		WHERE workplace_id = $1 AND external_account_id = $2;
	`
	ct, err := r.Pool.Exec(ctx, query, workplaceID, externalAccountID, balance, now, userID)
	if err != nil {
		return mapPgError(err, "failed to overwrite balance for external account "+externalAccountID)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

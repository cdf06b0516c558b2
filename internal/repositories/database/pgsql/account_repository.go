package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finledger/finledger_backend/internal/apperrors"
	"github.com/finledger/finledger_backend/internal/core/domain"
	portsrepo "github.com/finledger/finledger_backend/internal/core/ports/repositories"
	"github.com/finledger/finledger_backend/internal/models"
	"github.com/finledger/finledger_backend/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const accountColumns = `account_id, workplace_id, code, name, account_type, normal_balance, currency_code,
	balance, debit_total, credit_total, is_system, is_active, external_account_id, category,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for chart-of-accounts data.
func newPgxAccountRepository(pool *pgxpool.Pool) portsrepo.AccountRepositoryFacade {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

func scanAccount(row pgx.Row) (*models.LedgerAccount, error) {
	var m models.LedgerAccount
	err := row.Scan(
		&m.AccountID,
		&m.WorkplaceID,
		&m.Code,
		&m.Name,
		&m.AccountType,
		&m.NormalBalance,
		&m.CurrencyCode,
		&m.Balance,
		&m.DebitTotal,
		&m.CreditTotal,
		&m.IsSystem,
		&m.IsActive,
		&m.ExternalAccountID,
		&m.Category,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveAccount persists a new ledger account.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.LedgerAccount) error {
	m := mapping.ToModelLedgerAccount(account)
	query := `
		INSERT INTO ledger_accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.AccountID, m.WorkplaceID, m.Code, m.Name, m.AccountType, m.NormalBalance, m.CurrencyCode,
		m.Balance, m.DebitTotal, m.CreditTotal, m.IsSystem, m.IsActive, m.ExternalAccountID, m.Category,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return mapPgError(err, "failed to insert account "+m.AccountID)
	}
	return nil
}

// FindAccountByID retrieves a specific ledger account within a workplace.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, workplaceID string, accountID string) (*domain.LedgerAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM ledger_accounts WHERE workplace_id = $1 AND account_id = $2;`
	m, err := scanAccount(r.Pool.QueryRow(ctx, query, workplaceID, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find account by ID "+accountID, err)
	}
	account := mapping.ToDomainLedgerAccount(*m)
	return &account, nil
}

// FindAccountByCode retrieves a ledger account by its code within a workplace.
func (r *PgxAccountRepository) FindAccountByCode(ctx context.Context, workplaceID string, code string) (*domain.LedgerAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM ledger_accounts WHERE workplace_id = $1 AND code = $2;`
	m, err := scanAccount(r.Pool.QueryRow(ctx, query, workplaceID, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find account by code "+code, err)
	}
	account := mapping.ToDomainLedgerAccount(*m)
	return &account, nil
}

// FindAccountsByIDs retrieves multiple ledger accounts keyed by ID.
func (r *PgxAccountRepository) FindAccountsByIDs(ctx context.Context, workplaceID string, accountIDs []string) (map[string]domain.LedgerAccount, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.LedgerAccount{}, nil
	}

	query := `SELECT ` + accountColumns + ` FROM ledger_accounts WHERE workplace_id = $1 AND account_id = ANY($2);`
	rows, err := r.Pool.Query(ctx, query, workplaceID, accountIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query accounts by IDs", err)
	}
	defer rows.Close()

	accounts := make(map[string]domain.LedgerAccount, len(accountIDs))
	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan account row", err)
		}
		accounts[m.AccountID] = mapping.ToDomainLedgerAccount(*m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating account rows", err)
	}
	return accounts, nil
}

// FindMaxAccountCode returns the highest numeric code assigned to the given
// account type, or empty string when the type has no accounts yet.
func (r *PgxAccountRepository) FindMaxAccountCode(ctx context.Context, workplaceID string, accountType domain.AccountType) (string, error) {
	query := `
		SELECT code FROM ledger_accounts
		WHERE workplace_id = $1 AND account_type = $2
		ORDER BY code::integer DESC
		LIMIT 1;
	`
	var code string
	err := r.Pool.QueryRow(ctx, query, workplaceID, string(accountType)).Scan(&code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", apperrors.NewAppError(500, "failed to find max account code", err)
	}
	return code, nil
}

// ListAccounts retrieves the accounts of a workplace ordered by code.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context, workplaceID string, accountType *domain.AccountType, includeInactive bool, limit int, offset int) ([]domain.LedgerAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM ledger_accounts WHERE workplace_id = $1`
	args := []interface{}{workplaceID}

	if accountType != nil {
		args = append(args, string(*accountType))
		query += fmt.Sprintf(" AND account_type = $%d", len(args))
	}
	if !includeInactive {
		query += " AND is_active = TRUE"
	}
	query += " ORDER BY code::integer ASC"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		args = append(args, offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	query += ";"

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list accounts", err)
	}
	defer rows.Close()

	var accounts []domain.LedgerAccount
	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan account row", err)
		}
		accounts = append(accounts, mapping.ToDomainLedgerAccount(*m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating account rows", err)
	}
	return accounts, nil
}

// UpdateAccount updates an existing ledger account's mutable details.
func (r *PgxAccountRepository) UpdateAccount(ctx context.Context, account domain.LedgerAccount) error {
	m := mapping.ToModelLedgerAccount(account)
	query := `
		UPDATE ledger_accounts
		SET name = $3, is_active = $4, category = $5, last_updated_at = $6, last_updated_by = $7
		WHERE workplace_id = $1 AND account_id = $2;
	`
	ct, err := r.Pool.Exec(ctx, query, m.WorkplaceID, m.AccountID, m.Name, m.IsActive, m.Category, m.LastUpdatedAt, m.LastUpdatedBy)
	if err != nil {
		return mapPgError(err, "failed to update account "+m.AccountID)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ArchiveAccount deactivates an account and clears its external-account link.
func (r *PgxAccountRepository) ArchiveAccount(ctx context.Context, workplaceID string, accountID string, userID string, now time.Time) error {
	query := `
		UPDATE ledger_accounts
		SET is_active = FALSE, external_account_id = NULL, last_updated_at = $3, last_updated_by = $4
		WHERE workplace_id = $1 AND account_id = $2;
	`
	ct, err := r.Pool.Exec(ctx, query, workplaceID, accountID, now, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to archive account "+accountID, err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindAccountsByIDsForUpdate retrieves multiple accounts by IDs and locks the
// rows for update. Must be called within a transaction. Missing accounts are
// an error: an entry must never post against a concurrently deleted account.
func (r *PgxAccountRepository) FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, workplaceID string, accountIDs []string) (map[string]domain.LedgerAccount, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.LedgerAccount{}, nil
	}

	query := `
		SELECT ` + accountColumns + `
		FROM ledger_accounts
		WHERE workplace_id = $1 AND account_id = ANY($2)
		FOR UPDATE;
	`
	rows, err := tx.Query(ctx, query, workplaceID, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts for update: %w", err)
	}
	defer rows.Close()

	accounts := make(map[string]domain.LedgerAccount, len(accountIDs))
	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan locked account row: %w", err)
		}
		accounts[m.AccountID] = mapping.ToDomainLedgerAccount(*m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locked account rows: %w", err)
	}

	for _, id := range accountIDs {
		if _, ok := accounts[id]; !ok {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, id)
		}
	}
	return accounts, nil
}

// ApplyBalanceChangesInTx applies balance, debit-total and credit-total deltas
// for multiple accounts within a transaction.
func (r *PgxAccountRepository) ApplyBalanceChangesInTx(ctx context.Context, tx pgx.Tx, changes map[string]domain.BalanceChange, userID string, now time.Time) error {
	if len(changes) == 0 {
		return nil
	}

	query := `
		UPDATE ledger_accounts
		SET balance = COALESCE(balance, 0) + $2,
		    debit_total = COALESCE(debit_total, 0) + $3,
		    credit_total = COALESCE(credit_total, 0) + $4,
		    last_updated_at = $5, last_updated_by = $6
		WHERE account_id = $1;
	`

	batch := &pgx.Batch{}
	accountIDs := make([]string, 0, len(changes))
	for accountID, change := range changes {
		if change.Balance.IsZero() && change.Debit.IsZero() && change.Credit.IsZero() {
			continue
		}
		batch.Queue(query, accountID, change.Balance, change.Debit, change.Credit, now, userID)
		accountIDs = append(accountIDs, accountID)
	}
	if batch.Len() == 0 {
		return nil
	}

	br := tx.SendBatch(ctx, batch)
	var batchErr error
	for i := 0; i < batch.Len(); i++ {
		ct, err := br.Exec()
		if err != nil {
			if batchErr == nil {
				batchErr = fmt.Errorf("failed to update balances for account %s: %w", accountIDs[i], err)
			}
		} else if ct.RowsAffected() == 0 {
			if batchErr == nil {
				batchErr = fmt.Errorf("%w: account %s not found during balance update", apperrors.ErrNotFound, accountIDs[i])
			}
		}
	}
	if closeErr := br.Close(); closeErr != nil && batchErr == nil {
		batchErr = fmt.Errorf("failed to close balance update batch: %w", closeErr)
	}
	return batchErr
}

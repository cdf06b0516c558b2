package pgsql

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/finledger/finledger_backend/internal/apperrors"
	"github.com/finledger/finledger_backend/internal/core/domain"
	portsrepo "github.com/finledger/finledger_backend/internal/core/ports/repositories"
	"github.com/finledger/finledger_backend/internal/models"
	"github.com/finledger/finledger_backend/internal/utils/mapping"
	"github.com/finledger/finledger_backend/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const entryColumns = `entry_id, workplace_id, entry_date, description, currency_code, total_debit, total_credit,
	source_id, source_type, is_reversal, reverses_entry_id, reversed, reversal_entry_id, reversed_at,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxEntryRepository struct {
	BaseRepository
	accountRepo portsrepo.AccountRepositoryFacade
}

// newPgxEntryRepository creates a new repository for ledger entry data.
func newPgxEntryRepository(pool *pgxpool.Pool, accountRepo portsrepo.AccountRepositoryFacade) portsrepo.EntryRepositoryWithTx {
	return &PgxEntryRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
	}
}

var _ portsrepo.EntryRepositoryWithTx = (*PgxEntryRepository)(nil)

// SaveEntry persists an entry with its lines, applies account balance changes
// and external-account deltas, all within one database transaction.
func (r *PgxEntryRepository) SaveEntry(ctx context.Context, entry domain.LedgerEntry, changes map[string]domain.BalanceChange, externalDeltas map[string]decimal.Decimal) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := r.saveEntryInTx(ctx, tx, entry, changes, externalDeltas); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// SaveReversal persists a reversal entry exactly like SaveEntry and, in the
// same transaction, marks the original entry reversed. Losing the race to a
// concurrent reversal surfaces as ErrConflict.
func (r *PgxEntryRepository) SaveReversal(ctx context.Context, reversal domain.LedgerEntry, changes map[string]domain.BalanceChange, externalDeltas map[string]decimal.Decimal, originalEntryID string, reversedAt time.Time) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	// Flip the original's reversed flag first; the WHERE clause makes the
	// flip conditional so two concurrent reversals cannot both post.
	markQuery := `
		UPDATE ledger_entries
		SET reversed = TRUE, reversal_entry_id = $3, reversed_at = $4, last_updated_at = $4, last_updated_by = $5
		WHERE workplace_id = $1 AND entry_id = $2 AND reversed = FALSE AND is_reversal = FALSE;
	`
	ct, err := tx.Exec(ctx, markQuery, reversal.WorkplaceID, originalEntryID, reversal.EntryID, reversedAt, reversal.CreatedBy)
	if err != nil {
		return mapPgError(err, "failed to mark entry reversed "+originalEntryID)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: entry %s already reversed or not reversible", apperrors.ErrConflict, originalEntryID)
	}

	if err := r.saveEntryInTx(ctx, tx, reversal, changes, externalDeltas); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// saveEntryInTx inserts the header, locks and updates the touched accounts,
// inserts the lines with running balances and applies external deltas.
func (r *PgxEntryRepository) saveEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.LedgerEntry, changes map[string]domain.BalanceChange, externalDeltas map[string]decimal.Decimal) error {
	now := entry.CreatedAt
	userID := entry.CreatedBy

	m := mapping.ToModelLedgerEntry(entry)
	headerQuery := `
		INSERT INTO ledger_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18);
	`
	_, err := tx.Exec(ctx, headerQuery,
		m.EntryID, m.WorkplaceID, m.EntryDate, m.Description, m.CurrencyCode, m.TotalDebit, m.TotalCredit,
		m.SourceID, m.SourceType, m.IsReversal, m.ReversesEntryID, m.Reversed, m.ReversalEntryID, m.ReversedAt,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return mapPgError(err, "failed to insert entry "+m.EntryID)
	}

	accountIDs := make([]string, 0, len(changes))
	for accID := range changes {
		accountIDs = append(accountIDs, accID)
	}
	sort.Strings(accountIDs)

	lockedAccounts, err := r.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, entry.WorkplaceID, accountIDs)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return apperrors.NewAppError(500, "failed to lock accounts for entry "+m.EntryID, err)
	}

	if err := r.accountRepo.ApplyBalanceChangesInTx(ctx, tx, changes, userID, now); err != nil {
		return apperrors.NewAppError(500, "failed to update account balances for entry "+m.EntryID, err)
	}

	// Insert lines, tracking per-account running balances as of each line.
	lineQuery := `
		INSERT INTO ledger_entry_lines (line_id, entry_id, account_id, debit, credit, currency_code,
			external_account_id, metadata, running_balance, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	runningBalances := make(map[string]decimal.Decimal, len(lockedAccounts))
	for accID, acc := range lockedAccounts {
		runningBalances[accID] = acc.Balance
	}

	lines := make([]domain.EntryLine, len(entry.Lines))
	copy(lines, entry.Lines)
	sort.Slice(lines, func(i, j int) bool { return lines[i].LineID < lines[j].LineID })

	batch := &pgx.Batch{}
	for _, line := range lines {
		account, ok := lockedAccounts[line.AccountID]
		if !ok {
			return apperrors.NewAppError(500, "account "+line.AccountID+" not locked for entry "+m.EntryID, nil)
		}

		next := runningBalances[line.AccountID].Add(line.Delta(account.NormalBalance))
		runningBalances[line.AccountID] = next

		ml := mapping.ToModelEntryLine(line)
		ml.RunningBalance = next
		batch.Queue(lineQuery,
			ml.LineID, ml.EntryID, ml.AccountID, ml.Debit, ml.Credit, ml.CurrencyCode,
			ml.ExternalAccountID, ml.Metadata, ml.RunningBalance,
			now, userID, now, userID,
		)
	}

	lineCount := batch.Len()

	// Apply external-account deltas in the same transaction; a missing row
	// aborts the whole posting.
	externalQuery := `
		UPDATE external_accounts
		SET current_balance = COALESCE(current_balance, 0) + $3, last_updated_at = $4, last_updated_by = $5
		WHERE workplace_id = $1 AND external_account_id = $2;
	`
	externalIDs := make([]string, 0, len(externalDeltas))
	for id := range externalDeltas {
		externalIDs = append(externalIDs, id)
	}
	sort.Strings(externalIDs)
	queuedExternalIDs := make([]string, 0, len(externalIDs))
	for _, id := range externalIDs {
		if externalDeltas[id].IsZero() {
			continue
		}
		batch.Queue(externalQuery, entry.WorkplaceID, id, externalDeltas[id], now, userID)
		queuedExternalIDs = append(queuedExternalIDs, id)
	}

	br := tx.SendBatch(ctx, batch)
	var batchErr error
	for i := 0; i < lineCount; i++ {
		if _, err := br.Exec(); err != nil && batchErr == nil {
			batchErr = mapPgError(err, "failed to insert line for entry "+m.EntryID)
		}
	}
	for _, id := range queuedExternalIDs {
		ct, err := br.Exec()
		if err != nil {
			if batchErr == nil {
				batchErr = mapPgError(err, "failed to update external balance "+id+" for entry "+m.EntryID)
			}
		} else if ct.RowsAffected() == 0 && batchErr == nil {
			batchErr = fmt.Errorf("%w: external account %s not in workplace %s", apperrors.ErrNotFound, id, entry.WorkplaceID)
		}
	}
	if closeErr := br.Close(); closeErr != nil && batchErr == nil {
		batchErr = mapPgError(closeErr, "failed to close line batch for entry "+m.EntryID)
	}
	return batchErr
}

// FindEntryByID retrieves an entry header by its identifier.
func (r *PgxEntryRepository) FindEntryByID(ctx context.Context, workplaceID string, entryID string) (*domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE workplace_id = $1 AND entry_id = $2;`

	var m models.LedgerEntry
	err := r.Pool.QueryRow(ctx, query, workplaceID, entryID).Scan(
		&m.EntryID, &m.WorkplaceID, &m.EntryDate, &m.Description, &m.CurrencyCode, &m.TotalDebit, &m.TotalCredit,
		&m.SourceID, &m.SourceType, &m.IsReversal, &m.ReversesEntryID, &m.Reversed, &m.ReversalEntryID, &m.ReversedAt,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find entry by ID "+entryID, err)
	}

	entry := mapping.ToDomainLedgerEntry(m)
	return &entry, nil
}

// FindLinesByEntryID retrieves all lines of a single entry in insert order.
func (r *PgxEntryRepository) FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.EntryLine, error) {
	query := `
		SELECT line_id, entry_id, account_id, debit, credit, currency_code, external_account_id, metadata,
		       running_balance, created_at, created_by, last_updated_at, last_updated_by
		FROM ledger_entry_lines
		WHERE entry_id = $1
		ORDER BY line_id;
	`
	rows, err := r.Pool.Query(ctx, query, entryID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query lines for entry "+entryID, err)
	}
	defer rows.Close()

	var lines []models.EntryLine
	for rows.Next() {
		var l models.EntryLine
		err := rows.Scan(
			&l.LineID, &l.EntryID, &l.AccountID, &l.Debit, &l.Credit, &l.CurrencyCode, &l.ExternalAccountID, &l.Metadata,
			&l.RunningBalance, &l.CreatedAt, &l.CreatedBy, &l.LastUpdatedAt, &l.LastUpdatedBy,
		)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan line row for entry "+entryID, err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating line rows for entry "+entryID, err)
	}
	return mapping.ToDomainEntryLineSlice(lines), nil
}

// ListEntriesByWorkplace retrieves a paginated list of entries using
// token-based pagination, newest first.
func (r *PgxEntryRepository) ListEntriesByWorkplace(ctx context.Context, workplaceID string, limit int, nextToken *string, includeReversals bool) ([]domain.LedgerEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE workplace_id = $1`
	if !includeReversals {
		baseQuery += " AND is_reversal = FALSE"
	}
	orderByClause := `ORDER BY entry_date DESC, created_at DESC`

	args := []interface{}{workplaceID}
	var query string
	if nextToken != nil && *nextToken != "" {
		lastEntryDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		args = append(args, lastEntryDate, lastCreatedAt)
		query = baseQuery + " AND (entry_date, created_at) < ($2, $3) " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
	} else {
		query = baseQuery + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
	}
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to list entries for workplace "+workplaceID, err)
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		var m models.LedgerEntry
		err := rows.Scan(
			&m.EntryID, &m.WorkplaceID, &m.EntryDate, &m.Description, &m.CurrencyCode, &m.TotalDebit, &m.TotalCredit,
			&m.SourceID, &m.SourceType, &m.IsReversal, &m.ReversesEntryID, &m.Reversed, &m.ReversalEntryID, &m.ReversedAt,
			&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
		)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan entry row", err)
		}
		entries = append(entries, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating entry rows", err)
	}

	var nextTokenVal *string
	if len(entries) > limit {
		last := entries[limit-1]
		token := pagination.EncodeToken(last.EntryDate, last.CreatedAt)
		nextTokenVal = &token
		entries = entries[:limit]
	}

	result := make([]domain.LedgerEntry, len(entries))
	for i, m := range entries {
		result[i] = mapping.ToDomainLedgerEntry(m)
	}
	return result, nextTokenVal, nil
}

// ListLinesByAccountID retrieves a paginated list of lines touching one
// ledger account, newest first, joined with their entry header.
func (r *PgxEntryRepository) ListLinesByAccountID(ctx context.Context, workplaceID string, accountID string, limit int, nextToken *string) ([]domain.EntryLine, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `
		SELECT l.line_id, l.entry_id, l.account_id, l.debit, l.credit, l.currency_code, l.external_account_id, l.metadata,
		       l.running_balance, l.created_at, l.created_by, l.last_updated_at, l.last_updated_by,
		       e.entry_date, e.description, e.source_type
		FROM ledger_entry_lines l
		JOIN ledger_entries e ON l.entry_id = e.entry_id
		WHERE l.account_id = $1 AND e.workplace_id = $2
	`
	orderByClause := `ORDER BY e.entry_date DESC, l.created_at DESC`

	args := []interface{}{accountID, workplaceID}
	var query string
	if nextToken != nil && *nextToken != "" {
		lastEntryDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		args = append(args, lastEntryDate, lastCreatedAt)
		query = baseQuery + " AND (e.entry_date, l.created_at) < ($3, $4) " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
	} else {
		query = baseQuery + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
	}
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to list lines for account "+accountID, err)
	}
	defer rows.Close()

	var lines []models.EntryLine
	for rows.Next() {
		var l models.EntryLine
		err := rows.Scan(
			&l.LineID, &l.EntryID, &l.AccountID, &l.Debit, &l.Credit, &l.CurrencyCode, &l.ExternalAccountID, &l.Metadata,
			&l.RunningBalance, &l.CreatedAt, &l.CreatedBy, &l.LastUpdatedAt, &l.LastUpdatedBy,
			&l.EntryDate, &l.EntryDescription, &l.EntrySourceType,
		)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan line row for account "+accountID, err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating line rows for account "+accountID, err)
	}

	var nextTokenVal *string
	if len(lines) > limit {
		last := lines[limit-1]
		token := pagination.EncodeToken(last.EntryDate, last.CreatedAt)
		nextTokenVal = &token
		lines = lines[:limit]
	}

	return mapping.ToDomainEntryLineSlice(lines), nextTokenVal, nil
}

// FindExternalLines retrieves every externally-linked line from entries that
// are neither reversed nor reversals, oldest first. An empty
// externalAccountID returns all such lines of the workplace.
func (r *PgxEntryRepository) FindExternalLines(ctx context.Context, workplaceID string, externalAccountID string) ([]domain.EntryLine, error) {
	query := `
		SELECT l.line_id, l.entry_id, l.account_id, l.debit, l.credit, l.currency_code, l.external_account_id, l.metadata,
		       l.running_balance, l.created_at, l.created_by, l.last_updated_at, l.last_updated_by,
		       e.entry_date, e.description, e.source_type
		FROM ledger_entry_lines l
		JOIN ledger_entries e ON l.entry_id = e.entry_id
		WHERE e.workplace_id = $1 AND l.external_account_id IS NOT NULL
		  AND e.reversed = FALSE AND e.is_reversal = FALSE
	`
	args := []interface{}{workplaceID}
	if externalAccountID != "" {
		args = append(args, externalAccountID)
		query += " AND l.external_account_id = $2"
	}
	query += " ORDER BY e.entry_date ASC, l.created_at ASC;"

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query external lines", err)
	}
	defer rows.Close()

	var lines []models.EntryLine
	for rows.Next() {
		var l models.EntryLine
		err := rows.Scan(
			&l.LineID, &l.EntryID, &l.AccountID, &l.Debit, &l.Credit, &l.CurrencyCode, &l.ExternalAccountID, &l.Metadata,
			&l.RunningBalance, &l.CreatedAt, &l.CreatedBy, &l.LastUpdatedAt, &l.LastUpdatedBy,
			&l.EntryDate, &l.EntryDescription, &l.EntrySourceType,
		)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan external line row", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating external line rows", err)
	}
	return mapping.ToDomainEntryLineSlice(lines), nil
}

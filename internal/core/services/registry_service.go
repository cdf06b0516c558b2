package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/finledger/finledger_backend/internal/apperrors"
	"github.com/finledger/finledger_backend/internal/core/domain"
	portsrepo "github.com/finledger/finledger_backend/internal/core/ports/repositories"
	portssvc "github.com/finledger/finledger_backend/internal/core/ports/services"
	"github.com/finledger/finledger_backend/internal/dto"
	"github.com/finledger/finledger_backend/internal/middleware"
)

var (
	ErrInvalidAccountType = errors.New("invalid account type")
	ErrSystemAccount      = errors.New("system accounts cannot be archived")
	ErrUnknownSystemKey   = errors.New("unknown system account key")
)

// registryService manages the chart of accounts: system seeding, manual
// accounts and the lazily auto-provisioned category and mirror accounts.
type registryService struct {
	accountRepo  portsrepo.AccountRepositoryFacade
	categoryRepo portsrepo.CategoryMappingRepository
	externalRepo portsrepo.ExternalAccountRepositoryFacade

	// categoryCache memoizes category -> accountID resolutions so repeated
	// postings in the same category skip the mapping lookup.
	categoryCache *gocache.Cache
}

// NewRegistryService creates a new chart-of-accounts service.
func NewRegistryService(accountRepo portsrepo.AccountRepositoryFacade, categoryRepo portsrepo.CategoryMappingRepository, externalRepo portsrepo.ExternalAccountRepositoryFacade) portssvc.RegistrySvcFacade {
	return &registryService{
		accountRepo:   accountRepo,
		categoryRepo:  categoryRepo,
		externalRepo:  externalRepo,
		categoryCache: gocache.New(10*time.Minute, 30*time.Minute),
	}
}

var _ portssvc.RegistrySvcFacade = (*registryService)(nil)

// normalizeCategory produces the canonical mapping key for a category label.
func normalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

func categoryCacheKey(workplaceID string, kind domain.SourceKind, category string) string {
	return workplaceID + "|" + string(kind) + "|" + category
}

// kindForAccountType maps an auto-provisioning account type to the mapping
// namespace it belongs to. Revenue categories live apart from expense ones so
// "consulting" can exist on both sides.
func kindForAccountType(t domain.AccountType) domain.SourceKind {
	if t == domain.Revenue {
		return domain.SourceKindIncome
	}
	return domain.SourceKindExpense
}

// EnsureSystemAccounts creates any missing system accounts for a workplace.
// The operation is idempotent; existing accounts are left untouched.
func (s *registryService) EnsureSystemAccounts(ctx context.Context, workplaceID string, currencyCode string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now().UTC()

	for _, spec := range domain.SystemAccounts {
		existing, err := s.accountRepo.FindAccountByCode(ctx, workplaceID, spec.Code)
		if err == nil && existing != nil {
			continue
		}
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("failed to check system account %s: %w", spec.Code, err)
		}

		account := domain.LedgerAccount{
			AccountID:     uuid.NewString(),
			WorkplaceID:   workplaceID,
			Code:          spec.Code,
			Name:          spec.Name,
			AccountType:   spec.AccountType,
			NormalBalance: spec.AccountType.NormalBalance(),
			CurrencyCode:  currencyCode,
			IsSystem:      true,
			IsActive:      true,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
		if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
			// A concurrent seeding run may have won the race on this code.
			if errors.Is(err, apperrors.ErrDuplicate) {
				continue
			}
			return fmt.Errorf("failed to seed system account %s: %w", spec.Code, err)
		}
		logger.Info("System account seeded", slog.String("workplace_id", workplaceID), slog.String("code", spec.Code), slog.String("key", spec.Key))
	}
	return nil
}

// GetSystemAccount retrieves the seeded account for a well-known key.
func (s *registryService) GetSystemAccount(ctx context.Context, workplaceID string, key string) (*domain.LedgerAccount, error) {
	for _, spec := range domain.SystemAccounts {
		if spec.Key == key {
			return s.accountRepo.FindAccountByCode(ctx, workplaceID, spec.Code)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownSystemKey, key)
}

// GetAccountByID retrieves a specific ledger account.
func (s *registryService) GetAccountByID(ctx context.Context, workplaceID string, accountID string) (*domain.LedgerAccount, error) {
	return s.accountRepo.FindAccountByID(ctx, workplaceID, accountID)
}

// GetAccountByCode retrieves a ledger account by its numeric code.
func (s *registryService) GetAccountByCode(ctx context.Context, workplaceID string, code string) (*domain.LedgerAccount, error) {
	return s.accountRepo.FindAccountByCode(ctx, workplaceID, code)
}

// GetAccountsByIDs retrieves multiple ledger accounts keyed by ID.
func (s *registryService) GetAccountsByIDs(ctx context.Context, workplaceID string, accountIDs []string) (map[string]domain.LedgerAccount, error) {
	return s.accountRepo.FindAccountsByIDs(ctx, workplaceID, accountIDs)
}

// ListAccounts retrieves a workplace's accounts, optionally filtered by type.
func (s *registryService) ListAccounts(ctx context.Context, workplaceID string, accountType *domain.AccountType, includeInactive bool) ([]domain.LedgerAccount, error) {
	if accountType != nil && !accountType.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAccountType, *accountType)
	}
	return s.accountRepo.ListAccounts(ctx, workplaceID, accountType, includeInactive, 0, 0)
}

// nextAccountCode allocates the next free code in the type's numeric band.
// Codes are never reused; the allocator only moves forward.
func (s *registryService) nextAccountCode(ctx context.Context, workplaceID string, accountType domain.AccountType) (string, error) {
	maxCode, err := s.accountRepo.FindMaxAccountCode(ctx, workplaceID, accountType)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return "", fmt.Errorf("failed to find max account code: %w", err)
	}

	bandStart := domain.CodeBandStart(accountType)
	if maxCode == "" {
		return strconv.Itoa(bandStart), nil
	}

	n, convErr := strconv.Atoi(maxCode)
	if convErr != nil || n < bandStart {
		return strconv.Itoa(bandStart), nil
	}
	return strconv.Itoa(n + 1), nil
}

// CreateAccount persists a new ledger account. When req.Code is empty the next
// code in the type's band is allocated.
func (s *registryService) CreateAccount(ctx context.Context, workplaceID string, req dto.CreateAccountRequest, userID string) (*domain.LedgerAccount, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !req.AccountType.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAccountType, req.AccountType)
	}

	code := req.Code
	if code == "" {
		allocated, err := s.nextAccountCode(ctx, workplaceID, req.AccountType)
		if err != nil {
			return nil, err
		}
		code = allocated
	} else {
		existing, err := s.accountRepo.FindAccountByCode(ctx, workplaceID, code)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("failed to check account code: %w", err)
		}
		if existing != nil {
			return nil, fmt.Errorf("%w: account code %s already in use", apperrors.ErrDuplicate, code)
		}
	}

	now := time.Now().UTC()
	account := domain.LedgerAccount{
		AccountID:     uuid.NewString(),
		WorkplaceID:   workplaceID,
		Code:          code,
		Name:          req.Name,
		AccountType:   req.AccountType,
		NormalBalance: req.AccountType.NormalBalance(),
		CurrencyCode:  req.CurrencyCode,
		IsActive:      true,
		Category:      normalizeCategory(req.Category),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		logger.Error("Failed to save account", slog.String("error", err.Error()), slog.String("workplace_id", workplaceID))
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	logger.Info("Account created", slog.String("account_id", account.AccountID), slog.String("code", account.Code))
	return &account, nil
}

// UpdateAccount updates the mutable details of a ledger account.
func (s *registryService) UpdateAccount(ctx context.Context, workplaceID string, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.LedgerAccount, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, workplaceID, accountID)
	if err != nil {
		return nil, err
	}

	updated := false
	if req.Name != nil && *req.Name != account.Name {
		account.Name = *req.Name
		updated = true
	}
	if req.IsActive != nil && *req.IsActive != account.IsActive {
		if account.IsSystem && !*req.IsActive {
			return nil, fmt.Errorf("%w", ErrSystemAccount)
		}
		account.IsActive = *req.IsActive
		updated = true
	}
	if !updated {
		return account, nil
	}

	now := time.Now().UTC()
	account.LastUpdatedAt = now
	account.LastUpdatedBy = userID

	if err := s.accountRepo.UpdateAccount(ctx, *account); err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	return account, nil
}

// ArchiveAccount marks an account inactive. Archived accounts keep their
// history; the code stays reserved and is never reallocated.
func (s *registryService) ArchiveAccount(ctx context.Context, workplaceID string, accountID string, reason string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.accountRepo.FindAccountByID(ctx, workplaceID, accountID)
	if err != nil {
		return err
	}
	if account.IsSystem {
		return ErrSystemAccount
	}
	if !account.IsActive {
		return nil
	}

	if err := s.accountRepo.ArchiveAccount(ctx, workplaceID, accountID, userID, time.Now().UTC()); err != nil {
		logger.Error("Failed to archive account", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return fmt.Errorf("failed to archive account: %w", err)
	}

	logger.Info("Account archived", slog.String("account_id", accountID), slog.String("workplace_id", workplaceID), slog.String("reason", reason))
	return nil
}

// GetOrCreateCategoryAccount resolves the ledger account for a category,
// creating one in the proper code band on first use. The mapping is sticky:
// once a category is bound to an account, every later posting reuses it.
func (s *registryService) GetOrCreateCategoryAccount(ctx context.Context, workplaceID string, category string, accountType domain.AccountType, currencyCode string, userID string) (*domain.LedgerAccount, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !accountType.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAccountType, accountType)
	}

	normalized := normalizeCategory(category)
	kind := kindForAccountType(accountType)

	if normalized == "" {
		return s.defaultAccountForType(ctx, workplaceID, accountType, currencyCode, userID)
	}

	cacheKey := categoryCacheKey(workplaceID, kind, normalized)
	if cached, found := s.categoryCache.Get(cacheKey); found {
		if accountID, ok := cached.(string); ok {
			account, err := s.accountRepo.FindAccountByID(ctx, workplaceID, accountID)
			if err == nil {
				return account, nil
			}
			s.categoryCache.Delete(cacheKey)
		}
	}

	accountID, err := s.categoryRepo.GetCategoryAccount(ctx, workplaceID, kind, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to look up category mapping: %w", err)
	}
	if accountID != "" {
		account, err := s.accountRepo.FindAccountByID(ctx, workplaceID, accountID)
		if err != nil {
			return nil, fmt.Errorf("category mapping points at missing account %s: %w", accountID, err)
		}
		s.categoryCache.Set(cacheKey, accountID, gocache.DefaultExpiration)
		return account, nil
	}

	code, err := s.nextAccountCode(ctx, workplaceID, accountType)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := domain.LedgerAccount{
		AccountID:     uuid.NewString(),
		WorkplaceID:   workplaceID,
		Code:          code,
		Name:          strings.TrimSpace(category),
		AccountType:   accountType,
		NormalBalance: accountType.NormalBalance(),
		CurrencyCode:  currencyCode,
		IsActive:      true,
		Category:      normalized,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create category account: %w", err)
	}
	mappedID, err := s.categoryRepo.PutCategoryAccount(ctx, workplaceID, kind, normalized, account.AccountID, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to store category mapping: %w", err)
	}
	if mappedID != account.AccountID {
		// A concurrent first posting won the mapping; retire our account and
		// post against the winner so the category never splits in two.
		if archiveErr := s.accountRepo.ArchiveAccount(ctx, workplaceID, account.AccountID, userID, now); archiveErr != nil {
			logger.Warn("Failed to archive orphan category account", slog.String("account_id", account.AccountID), slog.String("error", archiveErr.Error()))
		}
		winner, err := s.accountRepo.FindAccountByID(ctx, workplaceID, mappedID)
		if err != nil {
			return nil, fmt.Errorf("category mapping points at missing account %s: %w", mappedID, err)
		}
		s.categoryCache.Set(cacheKey, mappedID, gocache.DefaultExpiration)
		return winner, nil
	}

	s.categoryCache.Set(cacheKey, account.AccountID, gocache.DefaultExpiration)
	logger.Info("Category account provisioned", slog.String("category", normalized), slog.String("account_id", account.AccountID), slog.String("code", code))
	return &account, nil
}

// defaultAccountForType falls back to the seeded default account when a
// posting arrives without a category, seeding a fresh workplace on the way.
func (s *registryService) defaultAccountForType(ctx context.Context, workplaceID string, accountType domain.AccountType, currencyCode string, userID string) (*domain.LedgerAccount, error) {
	var key string
	switch accountType {
	case domain.Revenue:
		key = domain.SystemDefaultRevenue
	case domain.CostOfGoods:
		key = domain.SystemDefaultCostOfGoods
	default:
		key = domain.SystemDefaultExpense
	}

	account, err := s.GetSystemAccount(ctx, workplaceID, key)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if seedErr := s.EnsureSystemAccounts(ctx, workplaceID, currencyCode, userID); seedErr != nil {
		return nil, fmt.Errorf("failed to seed system accounts: %w", seedErr)
	}
	return s.GetSystemAccount(ctx, workplaceID, key)
}

// GetOrCreateExternalAccountMirror resolves the asset account mirroring an
// external financial account, creating it on first ledger participation.
func (s *registryService) GetOrCreateExternalAccountMirror(ctx context.Context, workplaceID string, externalAccount *domain.ExternalAccount, userID string) (*domain.LedgerAccount, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if externalAccount.LedgerAccountID != nil {
		return s.accountRepo.FindAccountByID(ctx, workplaceID, *externalAccount.LedgerAccountID)
	}

	code, err := s.nextAccountCode(ctx, workplaceID, domain.Asset)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := domain.LedgerAccount{
		AccountID:         uuid.NewString(),
		WorkplaceID:       workplaceID,
		Code:              code,
		Name:              externalAccount.Name,
		AccountType:       domain.Asset,
		NormalBalance:     domain.DebitNormal,
		CurrencyCode:      externalAccount.CurrencyCode,
		IsActive:          true,
		ExternalAccountID: &externalAccount.ExternalAccountID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create mirror account: %w", err)
	}
	if err := s.externalRepo.SetLedgerAccountID(ctx, workplaceID, externalAccount.ExternalAccountID, account.AccountID, userID, now); err != nil {
		return nil, fmt.Errorf("failed to link mirror account: %w", err)
	}
	externalAccount.LedgerAccountID = &account.AccountID

	logger.Info("Mirror account provisioned", slog.String("external_account_id", externalAccount.ExternalAccountID), slog.String("account_id", account.AccountID), slog.String("code", code))
	return &account, nil
}

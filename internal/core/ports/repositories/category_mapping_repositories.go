package repositories

import (
	"context"
	"time"

	"github.com/finledger/finledger_backend/internal/core/domain"
)

// CategoryMappingRepository persists the category→account assignments used by
// auto-provisioning, so repeated categories reuse the same ledger account.
// Keys are normalized (lower-cased, trimmed) category labels.
type CategoryMappingRepository interface {
	// GetCategoryAccount returns the mapped ledger account id, or empty string
	// when the category has no mapping yet.
	GetCategoryAccount(ctx context.Context, workplaceID string, kind domain.SourceKind, category string) (string, error)

	// PutCategoryAccount stores a category→account assignment and returns the
	// account id the mapping holds afterwards. A concurrent insert for the
	// same category keeps the first writer's account, so the returned id may
	// differ from the one passed in.
	PutCategoryAccount(ctx context.Context, workplaceID string, kind domain.SourceKind, category string, accountID string, userID string, now time.Time) (string, error)
}

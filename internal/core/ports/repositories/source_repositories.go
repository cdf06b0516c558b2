package repositories

import (
	"context"

	"github.com/finledger/finledger_backend/internal/core/domain"
)

// SourceReader defines read operations for normalized source documents
type SourceReader interface {
	// FindSourceByID retrieves a source document by its identifier.
	FindSourceByID(ctx context.Context, workplaceID string, sourceID string) (*domain.SourceDocument, error)

	// ListPaidSources retrieves all paid source documents of a workplace.
	ListPaidSources(ctx context.Context, workplaceID string) ([]domain.SourceDocument, error)

	// ListPaidSourcesMissingLink retrieves paid source documents that have no
	// external-account link.
	ListPaidSourcesMissingLink(ctx context.Context, workplaceID string) ([]domain.SourceDocument, error)

	// ListPaidLinkedSources retrieves paid source documents carrying an
	// external-account link.
	ListPaidLinkedSources(ctx context.Context, workplaceID string) ([]domain.SourceDocument, error)

	// ListSourcesByExternalAccount retrieves every source document linked to
	// one external account.
	ListSourcesByExternalAccount(ctx context.Context, workplaceID string, externalAccountID string) ([]domain.SourceDocument, error)
}

// SourceWriter defines write operations for normalized source documents
type SourceWriter interface {
	// SaveSource persists a new source document.
	SaveSource(ctx context.Context, doc domain.SourceDocument) error

	// UpdateSource replaces the mutable fields of an existing source document.
	UpdateSource(ctx context.Context, doc domain.SourceDocument) error

	// DeleteSource removes a source document.
	DeleteSource(ctx context.Context, workplaceID string, sourceID string) error
}

// SourceRepositoryFacade combines the source-document repository interfaces
type SourceRepositoryFacade interface {
	SourceReader
	SourceWriter
}

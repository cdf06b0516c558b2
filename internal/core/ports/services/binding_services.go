package services

import (
	"context"

	"github.com/finledger/finledger_backend/internal/core/domain"
	"github.com/finledger/finledger_backend/internal/dto"
)

// SourceReaderSvc defines read operations for source documents
type SourceReaderSvc interface {
	// GetSourceByID retrieves a specific source document.
	GetSourceByID(ctx context.Context, workplaceID string, sourceID string) (*domain.SourceDocument, error)

	// ListSources retrieves the paid source documents of an external account,
	// or of the whole workplace when externalAccountID is empty.
	ListSources(ctx context.Context, workplaceID string, externalAccountID string) ([]domain.SourceDocument, error)
}

// SourceWriterSvc defines the binding operations that keep source documents
// and ledger entries in lockstep. Writes follow the two-part outcome model:
// the record save and the ledger posting succeed or fail independently.
type SourceWriterSvc interface {
	// CreateSource saves a source document and, when it is paid, posts the
	// matching ledger entry and links it back to the document.
	CreateSource(ctx context.Context, workplaceID string, req dto.CreateSourceRequest, userID string) (*domain.SourceDocument, domain.PostingOutcome, error)

	// UpdateSource applies a patch to a source document. When the change is
	// ledger-relevant the prior entry is reversed and a fresh one posted.
	UpdateSource(ctx context.Context, workplaceID string, sourceID string, req dto.UpdateSourceRequest, userID string) (*domain.SourceDocument, domain.PostingOutcome, error)

	// DeleteSource reverses the document's ledger entry, if any, then deletes
	// the document.
	DeleteSource(ctx context.Context, workplaceID string, sourceID string, userID string) (domain.PostingOutcome, error)

	// RebuildSourceEntry re-posts the ledger entry for a paid source whose
	// entry link is missing. Used by the repair toolkit.
	RebuildSourceEntry(ctx context.Context, workplaceID string, sourceID string, userID string) (domain.PostingOutcome, error)
}

// ExternalAccountSvc defines operations on the mirrored financial accounts
type ExternalAccountSvc interface {
	// OpenExternalAccount registers a financial account and posts its opening
	// balance through the ledger against opening balance equity.
	OpenExternalAccount(ctx context.Context, workplaceID string, req dto.OpenExternalAccountRequest, userID string) (*domain.ExternalAccount, domain.PostingOutcome, error)

	// GetExternalAccountByID retrieves a financial account.
	GetExternalAccountByID(ctx context.Context, workplaceID string, externalAccountID string) (*domain.ExternalAccount, error)

	// ListExternalAccounts retrieves the financial accounts of a workplace.
	ListExternalAccounts(ctx context.Context, workplaceID string, includeInactive bool) ([]domain.ExternalAccount, error)
}

// BindingSvcFacade combines the source-binding service interfaces
type BindingSvcFacade interface {
	SourceReaderSvc
	SourceWriterSvc
	ExternalAccountSvc
}

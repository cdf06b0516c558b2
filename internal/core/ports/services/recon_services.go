package services

import (
	"context"

	"github.com/finledger/finledger_backend/internal/core/domain"
)

// ReconAnalyzerSvc defines the read-only consistency checks
type ReconAnalyzerSvc interface {
	// AnalyzeDiscrepancies re-aggregates every external account's expected
	// balance from paid sources and compares it with the stored balance.
	AnalyzeDiscrepancies(ctx context.Context, workplaceID string) (*domain.DiscrepancyReport, error)

	// DiagnoseAccount traces every contributing source and ledger line for
	// one external account and reports the pairwise totals.
	DiagnoseAccount(ctx context.Context, workplaceID string, externalAccountID string) (*domain.AccountDiagnosis, error)
}

// ReconRepairSvc defines the mutating repair operations
type ReconRepairSvc interface {
	// RecalculateBalances replays non-reversed ledger lines per external
	// account and overwrites stored balances that drifted.
	RecalculateBalances(ctx context.Context, workplaceID string, opts domain.RecalcOptions, userID string) (*domain.RecalcReport, error)

	// RepairMissingLinks assigns the given external account to paid sources
	// lacking one and re-saves them through the binding layer's rebuild path.
	// Item failures are collected rather than aborting.
	RepairMissingLinks(ctx context.Context, workplaceID string, defaultExternalAccountID string, opts domain.RepairOptions, userID string) (*domain.BatchReport, error)

	// RebuildAllEntries reverses and re-posts the entry of every paid linked
	// source, normalizing entries produced by older posting rules.
	RebuildAllEntries(ctx context.Context, workplaceID string, opts domain.RepairOptions, userID string) (*domain.BatchReport, error)
}

// ReconSvcFacade combines the reconciliation service interfaces
type ReconSvcFacade interface {
	ReconAnalyzerSvc
	ReconRepairSvc
}

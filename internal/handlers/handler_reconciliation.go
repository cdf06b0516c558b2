package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/finledger/finledger_backend/internal/apperrors"
	"github.com/finledger/finledger_backend/internal/core/domain"
	portssvc "github.com/finledger/finledger_backend/internal/core/ports/services"
	"github.com/finledger/finledger_backend/internal/dto"
	"github.com/finledger/finledger_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// reconHandler handles HTTP requests for the reconciliation toolkit.
type reconHandler struct {
	reconService portssvc.ReconSvcFacade
}

// newReconHandler creates a new reconHandler.
func newReconHandler(reconService portssvc.ReconSvcFacade) *reconHandler {
	return &reconHandler{
		reconService: reconService,
	}
}

// registerReconRoutes registers routes for the reconciliation toolkit.
func registerReconRoutes(rg *gin.RouterGroup, reconService portssvc.ReconSvcFacade) {
	h := newReconHandler(reconService)

	recon := rg.Group("/reconciliation")
	{
		recon.GET("/discrepancies", h.analyzeDiscrepancies)
		recon.GET("/accounts/:external_account_id/diagnosis", h.diagnoseAccount)
		recon.POST("/recalculate", h.recalculateBalances)
		recon.POST("/repair-links", h.repairMissingLinks)
		recon.POST("/rebuild-entries", h.rebuildAllEntries)
	}
}

// analyzeDiscrepancies godoc
// @Summary Analyze balance discrepancies
// @Description Compares each external account's stored balance against the total derived from its paid source documents and opening balance
// @Tags reconciliation
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Success 200 {object} dto.DiscrepancyReportResponse
// @Failure 500 {object} map[string]string "Failed to analyze discrepancies"
// @Router /workplaces/{workplace_id}/reconciliation/discrepancies [get]
func (h *reconHandler) analyzeDiscrepancies(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")

	report, err := h.reconService.AnalyzeDiscrepancies(c.Request.Context(), workplaceID)
	if err != nil {
		logger.Error("Failed to analyze discrepancies", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to analyze discrepancies"})
		return
	}

	logger.Info("Discrepancy analysis complete",
		slog.Int("accounts_with_drift", report.AccountsWithDrift),
		slog.Int("paid_sources_missing_link", report.PaidSourcesMissingLink))
	c.JSON(http.StatusOK, dto.ToDiscrepancyReportResponse(report))
}

// diagnoseAccount godoc
// @Summary Diagnose one external account
// @Description Produces a side-by-side comparison of the stored balance, the source-derived total and the ledger-derived total for one external account
// @Tags reconciliation
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   external_account_id path string true "External account ID"
// @Success 200 {object} dto.AccountDiagnosisResponse
// @Failure 404 {object} map[string]string "External account not found"
// @Failure 500 {object} map[string]string "Failed to diagnose account"
// @Router /workplaces/{workplace_id}/reconciliation/accounts/{external_account_id}/diagnosis [get]
func (h *reconHandler) diagnoseAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")
	externalAccountID := c.Param("external_account_id")

	diagnosis, err := h.reconService.DiagnoseAccount(c.Request.Context(), workplaceID, externalAccountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("External account not found for diagnosis", slog.String("external_account_id", externalAccountID))
			c.JSON(http.StatusNotFound, gin.H{"error": "External account not found"})
		} else {
			logger.Error("Failed to diagnose account", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to diagnose account"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToAccountDiagnosisResponse(diagnosis))
}

// recalculateBalances godoc
// @Summary Recalculate external account balances from the ledger
// @Description Rebuilds each external account's balance from its entry lines and overwrites stored balances that drifted beyond the threshold
// @Tags reconciliation
// @Accept  json
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   request body dto.RecalculateRequest false "Run options"
// @Success 200 {object} dto.RecalcReportResponse
// @Failure 500 {object} map[string]string "Failed to recalculate balances"
// @Router /workplaces/{workplace_id}/reconciliation/recalculate [post]
func (h *reconHandler) recalculateBalances(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")

	var req dto.RecalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RecalculateBalances", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("workplace_id", workplaceID), slog.Bool("dry_run", req.DryRun))
	logger.Info("Starting balance recalculation")

	report, err := h.reconService.RecalculateBalances(c.Request.Context(), workplaceID, domain.RecalcOptions{DryRun: req.DryRun}, userID)
	if err != nil {
		logger.Error("Failed to recalculate balances", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to recalculate balances"})
		return
	}

	logger.Info("Balance recalculation complete", slog.Int("updated", report.UpdatedCount))
	c.JSON(http.StatusOK, dto.ToRecalcReportResponse(report))
}

// repairMissingLinks godoc
// @Summary Repair paid sources missing an external-account link
// @Description Assigns the given default external account to every paid source document found without one and reposts their ledger entries
// @Tags reconciliation
// @Accept  json
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   request body dto.RepairLinksRequest true "Default account and run options"
// @Success 200 {object} dto.BatchReportResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Default external account not found"
// @Failure 500 {object} map[string]string "Failed to repair links"
// @Router /workplaces/{workplace_id}/reconciliation/repair-links [post]
func (h *reconHandler) repairMissingLinks(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")

	var req dto.RepairLinksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RepairMissingLinks", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(
		slog.String("workplace_id", workplaceID),
		slog.String("default_external_account_id", req.DefaultExternalAccountID),
		slog.Bool("dry_run", req.DryRun))
	logger.Info("Starting missing-link repair")

	opts := domain.RepairOptions{
		DryRun:    req.DryRun,
		BatchSize: req.BatchSize,
		OnProgress: func(processed, total, updated int, errs []domain.ItemError) {
			logger.Debug("Missing-link repair progress",
				slog.Int("processed", processed), slog.Int("total", total),
				slog.Int("updated", updated), slog.Int("errors", len(errs)))
		},
	}
	report, err := h.reconService.RepairMissingLinks(c.Request.Context(), workplaceID, req.DefaultExternalAccountID, opts, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Default external account not found")
			c.JSON(http.StatusNotFound, gin.H{"error": "Default external account not found"})
		} else {
			logger.Error("Failed to repair missing links", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to repair links"})
		}
		return
	}

	logger.Info("Missing-link repair complete", slog.Int("updated", report.Updated), slog.Int("errors", len(report.Errors)))
	c.JSON(http.StatusOK, dto.ToBatchReportResponse(report))
}

// rebuildAllEntries godoc
// @Summary Rebuild the ledger entries of all paid, linked sources
// @Description Reverses and reposts the ledger entry of every paid source document carrying an external-account link
// @Tags reconciliation
// @Accept  json
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   request body dto.RepairRequest false "Run options"
// @Success 200 {object} dto.BatchReportResponse
// @Failure 500 {object} map[string]string "Failed to rebuild entries"
// @Router /workplaces/{workplace_id}/reconciliation/rebuild-entries [post]
func (h *reconHandler) rebuildAllEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")

	var req dto.RepairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RebuildAllEntries", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("workplace_id", workplaceID), slog.Bool("dry_run", req.DryRun))
	logger.Info("Starting full entry rebuild")

	opts := domain.RepairOptions{
		DryRun:    req.DryRun,
		BatchSize: req.BatchSize,
		OnProgress: func(processed, total, updated int, errs []domain.ItemError) {
			logger.Debug("Entry rebuild progress",
				slog.Int("processed", processed), slog.Int("total", total),
				slog.Int("updated", updated), slog.Int("errors", len(errs)))
		},
	}
	report, err := h.reconService.RebuildAllEntries(c.Request.Context(), workplaceID, opts, userID)
	if err != nil {
		logger.Error("Failed to rebuild entries", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rebuild entries"})
		return
	}

	logger.Info("Entry rebuild complete", slog.Int("updated", report.Updated), slog.Int("errors", len(report.Errors)))
	c.JSON(http.StatusOK, dto.ToBatchReportResponse(report))
}

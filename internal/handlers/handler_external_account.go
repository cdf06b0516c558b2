package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/finledger/finledger_backend/internal/apperrors"
	portssvc "github.com/finledger/finledger_backend/internal/core/ports/services"
	"github.com/finledger/finledger_backend/internal/dto"
	"github.com/finledger/finledger_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// externalAccountHandler handles HTTP requests related to external accounts.
type externalAccountHandler struct {
	bindingService portssvc.BindingSvcFacade
}

// newExternalAccountHandler creates a new externalAccountHandler.
func newExternalAccountHandler(bindingService portssvc.BindingSvcFacade) *externalAccountHandler {
	return &externalAccountHandler{
		bindingService: bindingService,
	}
}

// registerExternalAccountRoutes registers routes related to external accounts.
func registerExternalAccountRoutes(rg *gin.RouterGroup, bindingService portssvc.BindingSvcFacade) {
	h := newExternalAccountHandler(bindingService)

	accounts := rg.Group("/external-accounts")
	{
		accounts.POST("", h.openExternalAccount)
		accounts.GET("", h.listExternalAccounts)
		accounts.GET("/:external_account_id", h.getExternalAccount)
	}
}

// openExternalAccount godoc
// @Summary Open an external account
// @Description Creates the external account, provisions its chart-of-accounts mirror and posts the opening balance against opening-balance equity
// @Tags external-accounts
// @Accept  json
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   account body dto.OpenExternalAccountRequest true "Account details"
// @Success 201 {object} map[string]interface{} "Account and posting outcome"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 500 {object} map[string]string "Failed to open external account"
// @Router /workplaces/{workplace_id}/external-accounts [post]
func (h *externalAccountHandler) openExternalAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")

	var req dto.OpenExternalAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for OpenExternalAccount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("workplace_id", workplaceID), slog.String("creator_user_id", userID))

	account, outcome, err := h.bindingService.OpenExternalAccount(c.Request.Context(), workplaceID, req, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Validation error opening external account", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Dependency not found opening external account", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to open external account in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open external account"})
		}
		return
	}

	logger.Info("External account opened successfully", slog.String("external_account_id", account.ExternalAccountID))
	c.JSON(http.StatusCreated, gin.H{
		"account": dto.ToExternalAccountResponse(account),
		"outcome": dto.ToPostingOutcomeResponse(outcome),
	})
}

// getExternalAccount godoc
// @Summary Get an external account by ID
// @Tags external-accounts
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   external_account_id path string true "External account ID"
// @Success 200 {object} dto.ExternalAccountResponse
// @Failure 404 {object} map[string]string "External account not found"
// @Failure 500 {object} map[string]string "Failed to retrieve external account"
// @Router /workplaces/{workplace_id}/external-accounts/{external_account_id} [get]
func (h *externalAccountHandler) getExternalAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")
	externalAccountID := c.Param("external_account_id")

	account, err := h.bindingService.GetExternalAccountByID(c.Request.Context(), workplaceID, externalAccountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("External account not found", slog.String("external_account_id", externalAccountID))
			c.JSON(http.StatusNotFound, gin.H{"error": "External account not found"})
		} else {
			logger.Error("Failed to get external account from service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve external account"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToExternalAccountResponse(account))
}

// listExternalAccounts godoc
// @Summary List external accounts
// @Tags external-accounts
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   includeInactive query bool false "Include closed accounts" default(false)
// @Success 200 {object} dto.ListExternalAccountsResponse
// @Failure 500 {object} map[string]string "Failed to list external accounts"
// @Router /workplaces/{workplace_id}/external-accounts [get]
func (h *externalAccountHandler) listExternalAccounts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")
	includeInactive := c.Query("includeInactive") == "true"

	accounts, err := h.bindingService.ListExternalAccounts(c.Request.Context(), workplaceID, includeInactive)
	if err != nil {
		logger.Error("Failed to list external accounts from service", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list external accounts"})
		return
	}

	c.JSON(http.StatusOK, dto.ListExternalAccountsResponse{ExternalAccounts: dto.ToExternalAccountResponses(accounts)})
}

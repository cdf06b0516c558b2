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

// accountHandler handles HTTP requests related to the chart of accounts.
type accountHandler struct {
	registryService portssvc.RegistrySvcFacade
}

// newAccountHandler creates a new accountHandler.
func newAccountHandler(registryService portssvc.RegistrySvcFacade) *accountHandler {
	return &accountHandler{
		registryService: registryService,
	}
}

// registerAccountRoutes registers routes related to the chart of accounts.
func registerAccountRoutes(rg *gin.RouterGroup, registryService portssvc.RegistrySvcFacade) {
	h := newAccountHandler(registryService)

	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.createAccount)
		accounts.POST("/system", h.ensureSystemAccounts)
		accounts.GET("/system/:key", h.getSystemAccount)
		accounts.GET("/:account_id", h.getAccount)
		accounts.GET("", h.listAccounts)
		accounts.PUT("/:account_id", h.updateAccount)
		accounts.DELETE("/:account_id", h.archiveAccount)
	}
}

// createAccount godoc
// @Summary Create a new ledger account
// @Description Creates a ledger account, allocating a code in the type's band when none is given
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   account body dto.CreateAccountRequest true "Account details"
// @Success 201 {object} dto.AccountResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 409 {object} map[string]string "Account code already in use"
// @Failure 500 {object} map[string]string "Failed to create account"
// @Router /workplaces/{workplace_id}/accounts [post]
func (h *accountHandler) createAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")

	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateAccount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("workplace_id", workplaceID), slog.String("creator_user_id", userID))

	account, err := h.registryService.CreateAccount(c.Request.Context(), workplaceID, req, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Validation error creating account", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrDuplicate) {
			logger.Warn("Duplicate account code", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": "Account code already in use"})
		} else {
			logger.Error("Failed to create account in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		}
		return
	}

	logger.Info("Account created successfully", slog.String("account_id", account.AccountID))
	c.JSON(http.StatusCreated, dto.ToAccountResponse(account))
}

// ensureSystemAccounts godoc
// @Summary Ensure the workplace's system accounts exist
// @Description Creates any missing fixed system accounts (cash, receivable, payable, equity, revenue, expense) in the given currency
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   request body dto.EnsureSystemAccountsRequest true "Bootstrap parameters"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 500 {object} map[string]string "Failed to ensure system accounts"
// @Router /workplaces/{workplace_id}/accounts/system [post]
func (h *accountHandler) ensureSystemAccounts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")

	var req dto.EnsureSystemAccountsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for EnsureSystemAccounts", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("workplace_id", workplaceID))

	if err := h.registryService.EnsureSystemAccounts(c.Request.Context(), workplaceID, req.CurrencyCode, userID); err != nil {
		logger.Error("Failed to ensure system accounts", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to ensure system accounts"})
		return
	}

	logger.Info("System accounts ensured")
	c.Status(http.StatusNoContent)
}

// getSystemAccount godoc
// @Summary Get a system account by key
// @Description Retrieves one of the workplace's fixed system accounts by its well-known key
// @Tags accounts
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   key path string true "System account key (e.g. cash, accountsReceivable)"
// @Success 200 {object} dto.AccountResponse
// @Failure 400 {object} map[string]string "Unknown system account key"
// @Failure 404 {object} map[string]string "System account not found"
// @Router /workplaces/{workplace_id}/accounts/system/{key} [get]
func (h *accountHandler) getSystemAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")
	key := c.Param("key")

	account, err := h.registryService.GetSystemAccount(c.Request.Context(), workplaceID, key)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "System account not found"})
		} else {
			logger.Error("Failed to get system account", slog.String("error", err.Error()), slog.String("key", key))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve system account"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// getAccount godoc
// @Summary Get a ledger account by ID
// @Description Retrieves details for a specific ledger account
// @Tags accounts
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   account_id path string true "Account ID"
// @Success 200 {object} dto.AccountResponse
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Failed to retrieve account"
// @Router /workplaces/{workplace_id}/accounts/{account_id} [get]
func (h *accountHandler) getAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")
	accountID := c.Param("account_id")

	account, err := h.registryService.GetAccountByID(c.Request.Context(), workplaceID, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Account not found", slog.String("account_id", accountID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		} else {
			logger.Error("Failed to get account from service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve account"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// listAccounts godoc
// @Summary List ledger accounts
// @Description Retrieves the workplace's chart of accounts ordered by code, optionally filtered by type
// @Tags accounts
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   accountType query string false "Filter by account type"
// @Param   includeInactive query bool false "Include archived accounts" default(false)
// @Success 200 {object} map[string][]dto.AccountResponse
// @Failure 400 {object} map[string]string "Invalid account type"
// @Failure 500 {object} map[string]string "Failed to list accounts"
// @Router /workplaces/{workplace_id}/accounts [get]
func (h *accountHandler) listAccounts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")

	var accountType *domain.AccountType
	if raw := c.Query("accountType"); raw != "" {
		at := domain.AccountType(raw)
		switch at {
		case domain.Asset, domain.Liability, domain.Equity, domain.Revenue, domain.Expense, domain.CostOfGoods:
			accountType = &at
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid account type: " + raw})
			return
		}
	}
	includeInactive := c.Query("includeInactive") == "true"

	accounts, err := h.registryService.ListAccounts(c.Request.Context(), workplaceID, accountType, includeInactive)
	if err != nil {
		logger.Error("Failed to list accounts from service", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list accounts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"accounts": dto.ToAccountResponses(accounts)})
}

// updateAccount godoc
// @Summary Update a ledger account
// @Description Updates an account's name or active flag
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   account_id path string true "Account ID to update"
// @Param   account body dto.UpdateAccountRequest true "Account details to update"
// @Success 200 {object} dto.AccountResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Failed to update account"
// @Router /workplaces/{workplace_id}/accounts/{account_id} [put]
func (h *accountHandler) updateAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")
	accountID := c.Param("account_id")

	var req dto.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateAccount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("target_account_id", accountID), slog.String("updater_user_id", userID))

	account, err := h.registryService.UpdateAccount(c.Request.Context(), workplaceID, accountID, req, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Account not found for update")
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		} else if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Validation error updating account", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to update account in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update account"})
		}
		return
	}

	logger.Info("Account updated successfully")
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// archiveAccount godoc
// @Summary Archive a ledger account
// @Description Deactivates an account so new entries can no longer touch it. Historical lines are preserved.
// @Tags accounts
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   account_id path string true "Account ID to archive"
// @Param   archive body dto.ArchiveAccountRequest false "Archival reason"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "System accounts cannot be archived"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Failed to archive account"
// @Router /workplaces/{workplace_id}/accounts/{account_id} [delete]
func (h *accountHandler) archiveAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")
	accountID := c.Param("account_id")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	// The reason body is optional; an empty or absent body archives without one.
	var req dto.ArchiveAccountRequest
	_ = c.ShouldBindJSON(&req)

	logger = logger.With(slog.String("target_account_id", accountID), slog.String("archiver_user_id", userID))

	err := h.registryService.ArchiveAccount(c.Request.Context(), workplaceID, accountID, req.Reason, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Account not found for archive")
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		} else if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Validation error archiving account", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to archive account in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to archive account"})
		}
		return
	}

	logger.Info("Account archived successfully")
	c.Status(http.StatusNoContent)
}

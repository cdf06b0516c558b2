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

// entryHandler handles HTTP requests related to ledger entries.
type entryHandler struct {
	entryService portssvc.EntrySvcFacade
}

// newEntryHandler creates a new entryHandler.
func newEntryHandler(entryService portssvc.EntrySvcFacade) *entryHandler {
	return &entryHandler{
		entryService: entryService,
	}
}

// registerEntryRoutes registers routes related to ledger entries.
func registerEntryRoutes(rg *gin.RouterGroup, entryService portssvc.EntrySvcFacade) {
	h := newEntryHandler(entryService)

	entries := rg.Group("/entries")
	{
		entries.POST("", h.createEntry)
		entries.GET("", h.listEntries)
		entries.GET("/:entry_id", h.getEntry)
		entries.POST("/:entry_id/reverse", h.reverseEntry)
	}

	rg.GET("/accounts/:account_id/lines", h.listAccountLines)
}

// createEntry godoc
// @Summary Post a balanced ledger entry
// @Description Creates an entry whose lines must balance within tolerance. Account balances are updated atomically with the entry.
// @Tags entries
// @Accept  json
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   entry body dto.CreateEntryRequest true "Entry and lines"
// @Success 201 {object} dto.EntryResponse
// @Failure 400 {object} map[string]string "Unbalanced entry or validation error"
// @Failure 404 {object} map[string]string "Referenced account not found"
// @Failure 500 {object} map[string]string "Failed to post entry"
// @Router /workplaces/{workplace_id}/entries [post]
func (h *entryHandler) createEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")

	var req dto.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateEntry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("workplace_id", workplaceID), slog.String("creator_user_id", userID))

	entry, err := h.entryService.CreateEntry(c.Request.Context(), workplaceID, req, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Validation error posting entry", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Referenced account not found", slog.String("error", err.Error()))
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to post entry in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to post entry"})
		}
		return
	}

	logger.Info("Entry posted successfully", slog.String("entry_id", entry.EntryID))
	c.JSON(http.StatusCreated, dto.ToEntryResponse(entry))
}

// getEntry godoc
// @Summary Get a ledger entry with its lines
// @Description Retrieves an entry header and all of its lines by entry ID
// @Tags entries
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   entry_id path string true "Entry ID"
// @Success 200 {object} dto.EntryResponse
// @Failure 404 {object} map[string]string "Entry not found"
// @Failure 500 {object} map[string]string "Failed to retrieve entry"
// @Router /workplaces/{workplace_id}/entries/{entry_id} [get]
func (h *entryHandler) getEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")
	entryID := c.Param("entry_id")

	entry, err := h.entryService.GetEntryByID(c.Request.Context(), workplaceID, entryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Entry not found", slog.String("entry_id", entryID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
		} else {
			logger.Error("Failed to get entry from service", slog.String("error", err.Error()), slog.String("entry_id", entryID))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve entry"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// listEntries godoc
// @Summary List ledger entries
// @Description Retrieves a token-paginated list of entries, newest first
// @Tags entries
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   limit query int false "Page size" default(20)
// @Param   nextToken query string false "Pagination token from a previous page"
// @Param   includeReversals query bool false "Include reversal entries" default(false)
// @Param   includeLines query bool false "Embed each entry's lines" default(false)
// @Success 200 {object} dto.ListEntriesResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 500 {object} map[string]string "Failed to list entries"
// @Router /workplaces/{workplace_id}/entries [get]
func (h *entryHandler) listEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")

	var params dto.ListEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListEntries", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.entryService.ListEntries(c.Request.Context(), workplaceID, params)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to list entries from service", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list entries"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// reverseEntry godoc
// @Summary Reverse a ledger entry
// @Description Posts a mirror-image reversal of the entry. Reversing an already reversed entry returns the existing reversal.
// @Tags entries
// @Accept  json
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   entry_id path string true "Entry ID to reverse"
// @Param   request body dto.ReverseEntryRequest true "Reversal reason"
// @Success 201 {object} dto.EntryResponse
// @Failure 400 {object} map[string]string "Reversals cannot be reversed"
// @Failure 404 {object} map[string]string "Entry not found"
// @Failure 500 {object} map[string]string "Failed to reverse entry"
// @Router /workplaces/{workplace_id}/entries/{entry_id}/reverse [post]
func (h *entryHandler) reverseEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")
	entryID := c.Param("entry_id")

	var req dto.ReverseEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ReverseEntry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("entry_id", entryID), slog.String("reverser_user_id", userID))

	reversal, err := h.entryService.ReverseEntry(c.Request.Context(), workplaceID, entryID, req.Reason, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Entry not found for reversal")
			c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
		} else if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Validation error reversing entry", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to reverse entry in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reverse entry"})
		}
		return
	}

	logger.Info("Entry reversed successfully", slog.String("reversal_entry_id", reversal.EntryID))
	c.JSON(http.StatusCreated, dto.ToEntryResponse(reversal))
}

// listAccountLines godoc
// @Summary List the lines touching one ledger account
// @Description Retrieves a token-paginated list of entry lines for an account, newest first
// @Tags entries
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   account_id path string true "Account ID"
// @Param   limit query int false "Page size" default(20)
// @Param   nextToken query string false "Pagination token from a previous page"
// @Success 200 {object} dto.ListLinesResponse
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Failed to list lines"
// @Router /workplaces/{workplace_id}/accounts/{account_id}/lines [get]
func (h *entryHandler) listAccountLines(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")
	accountID := c.Param("account_id")

	var params dto.ListLinesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListAccountLines", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.entryService.ListLinesByAccount(c.Request.Context(), workplaceID, accountID, params)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Account not found for line listing", slog.String("account_id", accountID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		} else {
			logger.Error("Failed to list lines from service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list lines"})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

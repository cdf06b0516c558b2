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

// sourceHandler handles HTTP requests related to source documents.
type sourceHandler struct {
	bindingService portssvc.BindingSvcFacade
}

// newSourceHandler creates a new sourceHandler.
func newSourceHandler(bindingService portssvc.BindingSvcFacade) *sourceHandler {
	return &sourceHandler{
		bindingService: bindingService,
	}
}

// registerSourceRoutes registers routes related to source documents.
func registerSourceRoutes(rg *gin.RouterGroup, bindingService portssvc.BindingSvcFacade) {
	h := newSourceHandler(bindingService)

	sources := rg.Group("/sources")
	{
		sources.POST("", h.createSource)
		sources.GET("", h.listSources)
		sources.GET("/:source_id", h.getSource)
		sources.PUT("/:source_id", h.updateSource)
		sources.DELETE("/:source_id", h.deleteSource)
		sources.POST("/:source_id/rebuild", h.rebuildSourceEntry)
	}
}

// createSource godoc
// @Summary Create a source document
// @Description Saves a source record and posts its ledger entry, settled or accrued depending on payment state. The record is kept even when posting fails; the outcome reports both parts.
// @Tags sources
// @Accept  json
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   source body dto.CreateSourceRequest true "Source document details"
// @Success 201 {object} dto.SourcePostingResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 500 {object} map[string]string "Failed to create source"
// @Router /workplaces/{workplace_id}/sources [post]
func (h *sourceHandler) createSource(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")

	var req dto.CreateSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateSource", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("workplace_id", workplaceID), slog.String("creator_user_id", userID))

	doc, outcome, err := h.bindingService.CreateSource(c.Request.Context(), workplaceID, req, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Validation error creating source", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Dependency not found creating source", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to create source in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create source"})
		}
		return
	}

	if outcome.LedgerError != nil {
		logger.Warn("Source saved but ledger posting failed", slog.String("source_id", doc.SourceID), slog.String("ledger_error", outcome.LedgerError.Error()))
	} else {
		logger.Info("Source created successfully", slog.String("source_id", doc.SourceID))
	}
	c.JSON(http.StatusCreated, dto.SourcePostingResponse{
		Source:  dto.ToSourceResponse(doc),
		Outcome: dto.ToPostingOutcomeResponse(outcome),
	})
}

// getSource godoc
// @Summary Get a source document by ID
// @Tags sources
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   source_id path string true "Source ID"
// @Success 200 {object} dto.SourceResponse
// @Failure 404 {object} map[string]string "Source not found"
// @Failure 500 {object} map[string]string "Failed to retrieve source"
// @Router /workplaces/{workplace_id}/sources/{source_id} [get]
func (h *sourceHandler) getSource(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")
	sourceID := c.Param("source_id")

	doc, err := h.bindingService.GetSourceByID(c.Request.Context(), workplaceID, sourceID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Source not found", slog.String("source_id", sourceID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
		} else {
			logger.Error("Failed to get source from service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve source"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToSourceResponse(doc))
}

// listSources godoc
// @Summary List source documents
// @Description Lists paid source documents, optionally restricted to one external account
// @Tags sources
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   externalAccountID query string false "Filter by external account"
// @Success 200 {object} map[string][]dto.SourceResponse
// @Failure 500 {object} map[string]string "Failed to list sources"
// @Router /workplaces/{workplace_id}/sources [get]
func (h *sourceHandler) listSources(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")
	externalAccountID := c.Query("externalAccountID")

	docs, err := h.bindingService.ListSources(c.Request.Context(), workplaceID, externalAccountID)
	if err != nil {
		logger.Error("Failed to list sources from service", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list sources"})
		return
	}

	responses := make([]dto.SourceResponse, len(docs))
	for i := range docs {
		responses[i] = dto.ToSourceResponse(&docs[i])
	}
	c.JSON(http.StatusOK, gin.H{"sources": responses})
}

// updateSource godoc
// @Summary Update a source document
// @Description Updates the record and, when a ledger-relevant field changed, reverses the old entry and posts a fresh one
// @Tags sources
// @Accept  json
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   source_id path string true "Source ID to update"
// @Param   source body dto.UpdateSourceRequest true "Fields to update"
// @Success 200 {object} dto.SourcePostingResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Source not found"
// @Failure 500 {object} map[string]string "Failed to update source"
// @Router /workplaces/{workplace_id}/sources/{source_id} [put]
func (h *sourceHandler) updateSource(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")
	sourceID := c.Param("source_id")

	var req dto.UpdateSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateSource", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("source_id", sourceID), slog.String("updater_user_id", userID))

	doc, outcome, err := h.bindingService.UpdateSource(c.Request.Context(), workplaceID, sourceID, req, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Source not found for update")
			c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
		} else if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Validation error updating source", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to update source in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update source"})
		}
		return
	}

	logger.Info("Source updated successfully")
	c.JSON(http.StatusOK, dto.SourcePostingResponse{
		Source:  dto.ToSourceResponse(doc),
		Outcome: dto.ToPostingOutcomeResponse(outcome),
	})
}

// deleteSource godoc
// @Summary Delete a source document
// @Description Reverses the linked ledger entry first; the record is only removed once the reversal posted
// @Tags sources
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   source_id path string true "Source ID to delete"
// @Success 200 {object} dto.PostingOutcomeResponse
// @Failure 404 {object} map[string]string "Source not found"
// @Failure 500 {object} map[string]string "Failed to delete source"
// @Router /workplaces/{workplace_id}/sources/{source_id} [delete]
func (h *sourceHandler) deleteSource(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")
	sourceID := c.Param("source_id")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("source_id", sourceID), slog.String("deleter_user_id", userID))

	outcome, err := h.bindingService.DeleteSource(c.Request.Context(), workplaceID, sourceID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Source not found for deletion")
			c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
		} else {
			logger.Error("Failed to delete source in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete source"})
		}
		return
	}

	logger.Info("Source deleted successfully")
	c.JSON(http.StatusOK, dto.ToPostingOutcomeResponse(outcome))
}

// rebuildSourceEntry godoc
// @Summary Rebuild a source document's ledger entry
// @Description Reverses the existing entry, if any, and posts a fresh one from the current record
// @Tags sources
// @Produce  json
// @Param   workplace_id path string true "Workplace ID"
// @Param   source_id path string true "Source ID to rebuild"
// @Success 200 {object} dto.PostingOutcomeResponse
// @Failure 400 {object} map[string]string "Source failed validation"
// @Failure 404 {object} map[string]string "Source not found"
// @Failure 500 {object} map[string]string "Failed to rebuild source entry"
// @Router /workplaces/{workplace_id}/sources/{source_id}/rebuild [post]
func (h *sourceHandler) rebuildSourceEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	workplaceID := c.Param("workplace_id")
	sourceID := c.Param("source_id")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("source_id", sourceID), slog.String("rebuilder_user_id", userID))

	outcome, err := h.bindingService.RebuildSourceEntry(c.Request.Context(), workplaceID, sourceID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Source not found for rebuild")
			c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
		} else if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Validation error rebuilding source entry", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to rebuild source entry in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rebuild source entry"})
		}
		return
	}

	logger.Info("Source entry rebuilt successfully")
	c.JSON(http.StatusOK, dto.ToPostingOutcomeResponse(outcome))
}

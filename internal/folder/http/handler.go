// Package http serves the folder CRUD endpoints.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/sealedbox/sealedbox/internal/errors"
	"github.com/sealedbox/sealedbox/internal/folder/http/dto"
	"github.com/sealedbox/sealedbox/internal/folder/usecase"
	"github.com/sealedbox/sealedbox/internal/httputil"
	customValidation "github.com/sealedbox/sealedbox/internal/validation"
)

// Handler serves the folder CRUD endpoints.
type Handler struct {
	useCase *usecase.UseCase
	logger  *slog.Logger
}

// NewHandler builds a Handler.
func NewHandler(useCase *usecase.UseCase, logger *slog.Logger) *Handler {
	return &Handler{useCase: useCase, logger: logger}
}

func parseFolderID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.UUID{}, apperrors.New(apperrors.KindValidation, "invalid folder id")
	}
	return id, nil
}

func parseOptionalParentID(raw *string) (*uuid.UUID, error) {
	if raw == nil {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, apperrors.New(apperrors.KindValidation, "invalid parent_id")
	}
	return &id, nil
}

// Create handles POST /folder.
func (h *Handler) Create(c *gin.Context) {
	var req dto.CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	parentID, err := parseOptionalParentID(req.ParentID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	f, err := h.useCase.Create(c.Request.Context(), req.Name, parentID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapFolderToResponse(f))
}

// Get handles GET /folder/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := parseFolderID(c)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	f, err := h.useCase.Get(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapFolderToResponse(f))
}

// List handles GET /folder, optionally filtered by ?parent_id=.
func (h *Handler) List(c *gin.Context) {
	var parentID *uuid.UUID
	if raw := c.Query("parent_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.HandleErrorGin(c, apperrors.New(apperrors.KindValidation, "invalid parent_id"), h.logger)
			return
		}
		parentID = &id
	}

	folders, err := h.useCase.List(c.Request.Context(), parentID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	responses := make([]dto.FolderResponse, 0, len(folders))
	for _, f := range folders {
		responses = append(responses, dto.MapFolderToResponse(f))
	}
	c.JSON(http.StatusOK, responses)
}

// Update handles PUT /folder/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := parseFolderID(c)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	var req dto.UpdateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	parentID, err := parseOptionalParentID(req.ParentID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	f, err := h.useCase.Update(c.Request.Context(), id, req.Name, parentID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapFolderToResponse(f))
}

// Delete handles DELETE /folder/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := parseFolderID(c)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	if err := h.useCase.Delete(c.Request.Context(), id); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	c.Status(http.StatusNoContent)
}

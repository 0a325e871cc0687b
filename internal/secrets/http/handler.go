// Package http serves the secret CRUD endpoints.
package http

import (
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/sealedbox/sealedbox/internal/errors"
	"github.com/sealedbox/sealedbox/internal/httputil"
	"github.com/sealedbox/sealedbox/internal/secrets/http/dto"
	"github.com/sealedbox/sealedbox/internal/secrets/usecase"
	customValidation "github.com/sealedbox/sealedbox/internal/validation"
)

// Handler serves the secret CRUD endpoints.
type Handler struct {
	useCase *usecase.UseCase
	logger  *slog.Logger
}

// NewHandler builds a Handler.
func NewHandler(useCase *usecase.UseCase, logger *slog.Logger) *Handler {
	return &Handler{useCase: useCase, logger: logger}
}

// Create handles POST /secret.
func (h *Handler) Create(c *gin.Context) {
	var req dto.CreateSecretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	value, err := base64.StdEncoding.DecodeString(req.Value)
	if err != nil {
		httputil.HandleErrorGin(c, apperrors.New(apperrors.KindValidation, "invalid base64 value"), h.logger)
		return
	}

	var folderID *uuid.UUID
	if req.FolderID != nil {
		id, err := uuid.Parse(*req.FolderID)
		if err != nil {
			httputil.HandleErrorGin(c, apperrors.New(apperrors.KindValidation, "invalid folder id"), h.logger)
			return
		}
		folderID = &id
	}

	s, err := h.useCase.Create(c.Request.Context(), req.Name, value, folderID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapSecretToResponse(s))
}

// resolve looks up a secret by UUID if the path parameter parses as one,
// otherwise by name — the one endpoint accepts either per its contract.
func (h *Handler) resolve(c *gin.Context, idOrName string) (*usecase.Decrypted, error) {
	if id, err := uuid.Parse(idOrName); err == nil {
		return h.useCase.Get(c.Request.Context(), id)
	}
	return h.useCase.GetByName(c.Request.Context(), idOrName)
}

// Get handles GET /secret/:idOrName, returning the decrypted value.
func (h *Handler) Get(c *gin.Context) {
	decrypted, err := h.resolve(c, c.Param("idOrName"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, dto.MapSecretToValueResponse(decrypted.Secret, decrypted.Value))
}

// Update handles PUT /secret/:idOrName.
func (h *Handler) Update(c *gin.Context) {
	idOrName := c.Param("idOrName")

	var req dto.UpdateSecretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	value, err := base64.StdEncoding.DecodeString(req.Value)
	if err != nil {
		httputil.HandleErrorGin(c, apperrors.New(apperrors.KindValidation, "invalid base64 value"), h.logger)
		return
	}

	id, err := uuid.Parse(idOrName)
	if err != nil {
		existing, lookupErr := h.useCase.GetByName(c.Request.Context(), idOrName)
		if lookupErr != nil {
			httputil.HandleErrorGin(c, lookupErr, h.logger)
			return
		}
		id = existing.Secret.ID
	}

	s, err := h.useCase.Update(c.Request.Context(), id, value)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSecretToResponse(s))
}

// Delete handles DELETE /secret/:idOrName.
func (h *Handler) Delete(c *gin.Context) {
	idOrName := c.Param("idOrName")

	id, err := uuid.Parse(idOrName)
	if err != nil {
		existing, lookupErr := h.useCase.GetByName(c.Request.Context(), idOrName)
		if lookupErr != nil {
			httputil.HandleErrorGin(c, lookupErr, h.logger)
			return
		}
		id = existing.Secret.ID
	}

	if err := h.useCase.Delete(c.Request.Context(), id); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	c.Status(http.StatusNoContent)
}

// List handles GET /secret.
func (h *Handler) List(c *gin.Context) {
	limit, offset := httputil.ParsePagination(c)

	var folderID *uuid.UUID
	if raw := c.Query("folder_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.HandleErrorGin(c, apperrors.New(apperrors.KindValidation, "invalid folder_id"), h.logger)
			return
		}
		folderID = &id
	}

	secrets, err := h.useCase.List(c.Request.Context(), folderID, limit, offset)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	responses := make([]dto.SecretResponse, 0, len(secrets))
	for _, s := range secrets {
		responses = append(responses, dto.MapSecretToResponse(s))
	}
	c.JSON(http.StatusOK, responses)
}

// Package http serves the DEK management endpoints: creation, inspection,
// deactivation, deletion, and KEK rotation.
package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	validation "github.com/jellydator/validation"

	"github.com/sealedbox/sealedbox/internal/crypto/dek/http/dto"
	"github.com/sealedbox/sealedbox/internal/crypto/dek/usecase"
	apperrors "github.com/sealedbox/sealedbox/internal/errors"
	"github.com/sealedbox/sealedbox/internal/httputil"
	customValidation "github.com/sealedbox/sealedbox/internal/validation"
)

// Handler serves the DEK management endpoints.
type Handler struct {
	useCase *usecase.UseCase
	logger  *slog.Logger
}

// NewHandler builds a Handler.
func NewHandler(useCase *usecase.UseCase, logger *slog.Logger) *Handler {
	return &Handler{useCase: useCase, logger: logger}
}

func parseDekID(c *gin.Context) (uint32, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, apperrors.New(apperrors.KindValidation, "invalid dek id")
	}
	return uint32(id), nil
}

// Create handles POST /dek.
func (h *Handler) Create(c *gin.Context) {
	var req dto.CreateDekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}
	if err := validation.ValidateStruct(&req,
		validation.Field(&req.Name, validation.Required, customValidation.NotBlank, customValidation.NoWhitespace),
	); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	d, err := h.useCase.Create(c.Request.Context(), req.Name)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapDekToResponse(d))
}

// Get handles GET /dek/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := parseDekID(c)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	d, err := h.useCase.Get(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDekToResponse(d))
}

// List handles GET /dek.
func (h *Handler) List(c *gin.Context) {
	limit, offset := httputil.ParsePagination(c)
	deks, err := h.useCase.List(c.Request.Context(), limit, offset)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	responses := make([]dto.DekResponse, 0, len(deks))
	for _, d := range deks {
		responses = append(responses, dto.MapDekToResponse(d))
	}
	c.JSON(http.StatusOK, responses)
}

// Deactivate handles POST /dek/:id/deactivate.
func (h *Handler) Deactivate(c *gin.Context) {
	id, err := parseDekID(c)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	if err := h.useCase.Deactivate(c.Request.Context(), id); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// Delete handles DELETE /dek/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := parseDekID(c)
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

// RotateKEK handles POST /dek/rotate-kek. Rotates a single bounded batch per
// call — the caller (CLI command or an operator script) invokes it
// repeatedly until Total is 0.
func (h *Handler) RotateKEK(c *gin.Context) {
	var req dto.RotateKEKRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}
	if err := validation.ValidateStruct(&req,
		validation.Field(&req.NewKekID, validation.Required, customValidation.NotBlank),
	); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	result, err := h.useCase.RotateKEK(c.Request.Context(), req.NewKekID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.RotateKEKResponse{Total: result.Total, Success: result.Success, Failures: result.Failures})
}

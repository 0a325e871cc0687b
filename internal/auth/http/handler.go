package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authDomain "github.com/sealedbox/sealedbox/internal/auth/domain"
	"github.com/sealedbox/sealedbox/internal/auth/http/dto"
	"github.com/sealedbox/sealedbox/internal/auth/usecase"
	apperrors "github.com/sealedbox/sealedbox/internal/errors"
	"github.com/sealedbox/sealedbox/internal/httputil"
	customValidation "github.com/sealedbox/sealedbox/internal/validation"
)

// Handler serves the client registration, login, and administration
// endpoints.
type Handler struct {
	useCase *usecase.UseCase
	logger  *slog.Logger
}

// NewHandler builds a Handler.
func NewHandler(useCase *usecase.UseCase, logger *slog.Logger) *Handler {
	return &Handler{useCase: useCase, logger: logger}
}

// Register handles POST /client/register.
func (h *Handler) Register(c *gin.Context) {
	var req dto.RegisterClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	out, err := h.useCase.Register(c.Request.Context(), &authDomain.RegisterClientInput{
		Name:        req.Name,
		Roles:       req.Roles,
		Permissions: req.Permissions,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.RegisterClientResponse{ID: out.ID.String(), Secret: out.PlainSecret})
}

// Login handles POST /client/login.
func (h *Handler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	signed, err := h.useCase.Login(c.Request.Context(), req.Name, req.Secret)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{Token: signed})
}

// Info handles GET /client/info/:id.
func (h *Handler) Info(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleErrorGin(c, apperrors.New(apperrors.KindValidation, "invalid client id"), h.logger)
		return
	}

	client, err := h.useCase.GetInfo(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapClientToResponse(client))
}

// Revoke handles POST /client/:id/revoke.
func (h *Handler) Revoke(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleErrorGin(c, apperrors.New(apperrors.KindValidation, "invalid client id"), h.logger)
		return
	}

	if err := h.useCase.Revoke(c.Request.Context(), id); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// List handles GET /client.
func (h *Handler) List(c *gin.Context) {
	limit, offset := httputil.ParsePagination(c)
	clients, err := h.useCase.List(c.Request.Context(), limit, offset)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	responses := make([]dto.ClientResponse, 0, len(clients))
	for _, cl := range clients {
		responses = append(responses, dto.MapClientToResponse(cl))
	}
	c.JSON(http.StatusOK, responses)
}

package http

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	authDomain "github.com/sealedbox/sealedbox/internal/auth/domain"
	"github.com/sealedbox/sealedbox/internal/auth/token"
	apperrors "github.com/sealedbox/sealedbox/internal/errors"
	"github.com/sealedbox/sealedbox/internal/httputil"
)

const bearerPrefix = "bearer "

// AuthenticationMiddleware extracts and verifies the Bearer JWT on the
// Authorization header, storing the resulting claims in request context for
// downstream handlers and AuthorizationMiddleware.
func AuthenticationMiddleware(tokens *token.Service, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if len(authHeader) <= len(bearerPrefix) || !strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			logger.Debug("authentication failed: missing or malformed authorization header")
			httputil.HandleErrorGin(c, apperrors.New(apperrors.KindAuthenticationNeeded, "missing bearer token"), logger)
			c.Abort()
			return
		}

		rawToken := authHeader[len(bearerPrefix):]
		claims, err := tokens.Verify(rawToken)
		if err != nil {
			logger.Debug("authentication failed", slog.String("error", err.Error()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		ctx := withClaims(c.Request.Context(), claims)
		c.Request = c.Request.WithContext(ctx)
		logger.Debug("authentication successful", slog.String("client_id", claims.Subject))
		c.Next()
	}
}

// RequireRole aborts with 403 unless the authenticated client carries role
// or the wildcard role. Must run after AuthenticationMiddleware.
func RequireRole(role string, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c.Request.Context())
		if !ok {
			httputil.HandleErrorGin(c, apperrors.New(apperrors.KindAuthenticationNeeded, "no authenticated client"), logger)
			c.Abort()
			return
		}
		if !slices.Contains(claims.Roles, authDomain.WildcardRole) && !slices.Contains(claims.Roles, role) {
			logger.Debug("authorization failed: missing role", slog.String("client_id", claims.Subject), slog.String("role", role))
			httputil.HandleErrorGin(c, apperrors.New(apperrors.KindForbidden, "insufficient role"), logger)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequirePermission aborts with 403 unless the authenticated client carries
// permission or the wildcard permission. Must run after
// AuthenticationMiddleware.
func RequirePermission(permission string, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c.Request.Context())
		if !ok {
			httputil.HandleErrorGin(c, apperrors.New(apperrors.KindAuthenticationNeeded, "no authenticated client"), logger)
			c.Abort()
			return
		}
		if !slices.Contains(claims.Permissions, authDomain.WildcardPermission) && !slices.Contains(claims.Permissions, permission) {
			logger.Debug("authorization failed: missing permission",
				slog.String("client_id", claims.Subject), slog.String("permission", permission))
			httputil.HandleErrorGin(c, apperrors.New(apperrors.KindForbidden, "insufficient permission"), logger)
			c.Abort()
			return
		}
		c.Next()
	}
}

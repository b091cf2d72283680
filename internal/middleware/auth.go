// internal/middleware/auth.go
package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/marketplace-backend/internal/i18n"
	"github.com/javajoker/marketplace-backend/internal/models"
	"github.com/javajoker/marketplace-backend/internal/services"
	"github.com/javajoker/marketplace-backend/internal/utils"
)

// Authenticator resolves a bearer token to the caller's identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Identity, error)
}

func AuthRequired(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := utils.GetLangFromContext(c)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
			return
		}

		identity, err := auth.Authenticate(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			var svcErr *services.Error
			switch {
			case errors.As(err, &svcErr) && svcErr.Kind == services.KindForbidden:
				utils.ForbiddenResponse(c, svcErr.Localize(lang))
			case errors.As(err, &svcErr):
				utils.UnauthorizedResponse(c, svcErr.Localize(lang))
			default:
				logrus.WithError(err).Error("Failed to authenticate request")
				utils.InternalErrorResponse(c, "")
			}
			return
		}

		// Set user info in context
		c.Set(utils.ContextKeyIdentity, identity)
		c.Set(utils.ContextKeyUserID, identity.UserID.String())
		c.Set("username", identity.Username)
		c.Next()
	}
}

// SellerRequired must run after AuthRequired.
func SellerRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := utils.GetIdentityFromContext(c)
		if !ok {
			utils.UnauthorizedResponse(c, "")
			return
		}
		if !identity.IsSeller {
			utils.ForbiddenResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyAuthSellerRequired))
			return
		}
		c.Next()
	}
}

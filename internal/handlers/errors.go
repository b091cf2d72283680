// internal/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/marketplace-backend/internal/i18n"
	"github.com/javajoker/marketplace-backend/internal/services"
	"github.com/javajoker/marketplace-backend/internal/utils"
)

var kindStatus = map[services.ErrorKind]int{
	services.KindNotFound:          http.StatusNotFound,
	services.KindForbidden:         http.StatusForbidden,
	services.KindInvalidInput:      http.StatusBadRequest,
	services.KindInsufficientStock: http.StatusConflict,
	services.KindInvalidTransition: http.StatusConflict,
	services.KindUnauthenticated:   http.StatusUnauthorized,
}

// respondError writes a domain error with its mapped status. Anything else
// is logged and reported as an internal error without leaking its text.
func respondError(c *gin.Context, err error) {
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		status, ok := kindStatus[svcErr.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}

		var details interface{}
		if len(svcErr.Details) > 0 {
			details = svcErr.Details
		}
		utils.ErrorResponse(c, status, string(svcErr.Kind), svcErr.Localize(utils.GetLangFromContext(c)), details)
		return
	}

	c.Error(err)
	logrus.WithError(err).WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	}).Error("Request failed")
	utils.InternalErrorResponse(c, "")
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.InvalidInputResponse(c, "", gin.H{"body": "malformed JSON"})
		return false
	}
	return true
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.InvalidInputResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyInvalidID, name), nil)
		return uuid.Nil, false
	}
	return id, true
}

// currentUserID is only valid behind middleware.AuthRequired.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	identity, ok := utils.GetIdentityFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}
	return identity.UserID, true
}

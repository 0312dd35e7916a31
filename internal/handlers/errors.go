// internal/handlers/errors.go
package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mercadito/backoffice/internal/i18n"
	"github.com/mercadito/backoffice/internal/services"
	"github.com/mercadito/backoffice/internal/utils"
)

// respondError maps service errors onto the response envelope. resource
// names the i18n prefix used for not-found and conflict messages.
func respondError(c *gin.Context, err error, resource string) {
	lang := utils.GetLangFromContext(c)

	switch {
	case errors.Is(err, services.ErrValidation):
		if details := utils.GetValidationErrors(err); len(details) > 0 {
			utils.ValidationErrorResponse(c, details)
			return
		}
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
	case errors.Is(err, services.ErrNotFound):
		utils.NotFoundResponse(c, resource)
	case errors.Is(err, services.ErrForbidden):
		utils.ForbiddenResponse(c, "")
	case errors.Is(err, services.ErrConflict):
		key := resource + ".exists"
		message := i18n.T(lang, key)
		if message == key {
			message = i18n.T(lang, i18n.KeyConflict)
		}
		utils.ConflictResponse(c, message)
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidCredentials))
	case errors.Is(err, services.ErrInvalidToken):
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
	case errors.Is(err, services.ErrInvalidResetCode):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyAuthResetCodeInvalid), nil)
	case errors.Is(err, services.ErrNoBusiness):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyBusinessRequired), nil)
	default:
		logrus.WithError(err).WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"request_id": c.GetString("request_id"),
		}).Error("Request failed")
		utils.InternalErrorResponse(c)
	}
}

// bindJSON decodes and validates the body into req, writing the 400 response
// itself when either step fails.
func bindJSON(c *gin.Context, req interface{}) bool {
	lang := utils.GetLangFromContext(c)

	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return false
	}

	return true
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, name), nil)
		return 0, false
	}
	return uint(id), true
}

func requireUserID(c *gin.Context) (uint, bool) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
	}
	return userID, ok
}

// internal/handlers/business.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/mercadito/backoffice/internal/i18n"
	"github.com/mercadito/backoffice/internal/models"
	"github.com/mercadito/backoffice/internal/services"
	"github.com/mercadito/backoffice/internal/utils"
)

type BusinessHandler struct {
	businessService *services.BusinessService
}

func NewBusinessHandler(businessService *services.BusinessService) *BusinessHandler {
	return &BusinessHandler{
		businessService: businessService,
	}
}

// POST /businesses
func (h *BusinessHandler) CreateBusiness(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req services.CreateBusinessRequest
	if !bindJSON(c, &req) {
		return
	}

	business, err := h.businessService.CreateBusiness(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err, "business")
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyBusinessCreated),
		"business": business,
	})
}

// GET /businesses/mine
func (h *BusinessHandler) GetMyBusiness(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	business, err := h.businessService.GetByOwner(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrNoBusiness) {
			utils.NotFoundResponse(c, "business")
			return
		}
		respondError(c, err, "business")
		return
	}

	utils.SuccessResponse(c, business)
}

// callerBusiness resolves the business owned by the authenticated user.
// Writes that create something answer 400 when there is none, everything
// else answers 403.
func callerBusiness(c *gin.Context, businesses *services.BusinessService, creating bool) (*models.Business, bool) {
	userID, ok := requireUserID(c)
	if !ok {
		return nil, false
	}

	business, err := businesses.GetByOwner(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrNoBusiness) && !creating {
			lang := utils.GetLangFromContext(c)
			utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyBusinessRequired))
			return nil, false
		}
		respondError(c, err, "business")
		return nil, false
	}

	return business, true
}

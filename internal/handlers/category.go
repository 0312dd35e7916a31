// internal/handlers/category.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/mercadito/backoffice/internal/i18n"
	"github.com/mercadito/backoffice/internal/services"
	"github.com/mercadito/backoffice/internal/utils"
)

type CategoryHandler struct {
	categoryService *services.CategoryService
	businessService *services.BusinessService
}

func NewCategoryHandler(categoryService *services.CategoryService, businessService *services.BusinessService) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		businessService: businessService,
	}
}

// GET /business/categories
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	business, ok := callerBusiness(c, h.businessService, false)
	if !ok {
		return
	}

	categories, err := h.categoryService.List(c.Request.Context(), business)
	if err != nil {
		respondError(c, err, "category")
		return
	}

	utils.SuccessResponse(c, categories)
}

// POST /business/categories
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	business, ok := callerBusiness(c, h.businessService, true)
	if !ok {
		return
	}

	var req services.CreateCategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	category, err := h.categoryService.Create(c.Request.Context(), business, &req)
	if err != nil {
		respondError(c, err, "category")
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyCategoryCreated),
		"category": category,
	})
}

// internal/handlers/product.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mercadito/backoffice/internal/i18n"
	"github.com/mercadito/backoffice/internal/services"
	"github.com/mercadito/backoffice/internal/utils"
)

// imageField is the multipart field carrying product images.
const imageField = "imagenes"

type ProductHandler struct {
	productService  *services.ProductService
	businessService *services.BusinessService
	vocabulary      *services.AttributeVocabulary
}

func NewProductHandler(productService *services.ProductService, businessService *services.BusinessService, vocabulary *services.AttributeVocabulary) *ProductHandler {
	return &ProductHandler{
		productService:  productService,
		businessService: businessService,
		vocabulary:      vocabulary,
	}
}

// POST /business/register
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	business, ok := callerBusiness(c, h.businessService, true)
	if !ok {
		return
	}

	var req services.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), business, &req)
	if err != nil {
		respondError(c, err, "product")
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProductCreated),
		"product": product,
	})
}

// PUT /business/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	business, ok := callerBusiness(c, h.businessService, false)
	if !ok {
		return
	}

	var req services.UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), business, productID, &req)
	if err != nil {
		respondError(c, err, "product")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProductUpdated),
		"product": product,
	})
}

// DELETE /business/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	business, ok := callerBusiness(c, h.businessService, false)
	if !ok {
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), business, productID); err != nil {
		respondError(c, err, "product")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProductDeleted),
	})
}

// GET /business/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	business, ok := callerBusiness(c, h.businessService, false)
	if !ok {
		return
	}

	product, err := h.productService.GetProductDetail(c.Request.Context(), business, productID)
	if err != nil {
		respondError(c, err, "product")
		return
	}

	utils.SuccessResponse(c, product)
}

// GET /business/business/:business_id
func (h *ProductHandler) ListProducts(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	businessID, ok := parseIDParam(c, "business_id")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	products, total, err := h.productService.ListByBusiness(c.Request.Context(), userID, businessID, params)
	if err != nil {
		respondError(c, err, "business")
		return
	}

	result := utils.CreatePaginationResult(products, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /business/:id/images
func (h *ProductHandler) UploadImages(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	business, ok := callerBusiness(c, h.businessService, false)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil || len(form.File[imageField]) == 0 {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationRequired, imageField), nil)
		return
	}

	images, err := h.productService.AddImages(c.Request.Context(), business, productID, form.File[imageField])
	if err != nil {
		respondError(c, err, "product")
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProductImages),
		"images":  images,
	})
}

// GET /business/attribute-names
func (h *ProductHandler) ListAttributeNames(c *gin.Context) {
	names, err := h.vocabulary.List(c.Request.Context())
	if err != nil {
		respondError(c, err, "attribute_name")
		return
	}

	utils.SuccessResponse(c, names)
}

// POST /business/attribute-names/create
func (h *ProductHandler) CreateAttributeName(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req struct {
		Name string `json:"name" validate:"required,max=100"`
	}
	if !bindJSON(c, &req) {
		return
	}

	name, created, err := h.vocabulary.Create(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err, "attribute_name")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, utils.APIResponse{
		Success: true,
		Data: gin.H{
			"message":        i18n.T(lang, i18n.KeyAttributeNameCreated),
			"attribute_name": name,
		},
	})
}

// GET /business/unidad-medida
func (h *ProductHandler) ListUnitsOfMeasure(c *gin.Context) {
	utils.SuccessResponse(c, services.UnitsOfMeasure())
}

// internal/handlers/sale.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/mercadito/backoffice/internal/i18n"
	"github.com/mercadito/backoffice/internal/services"
	"github.com/mercadito/backoffice/internal/utils"
)

type SaleHandler struct {
	saleService *services.SaleService
}

func NewSaleHandler(saleService *services.SaleService) *SaleHandler {
	return &SaleHandler{
		saleService: saleService,
	}
}

// GET /sales/payment-methods
func (h *SaleHandler) ListPaymentMethods(c *gin.Context) {
	methods, err := h.saleService.ListPaymentMethods(c.Request.Context())
	if err != nil {
		respondError(c, err, "payment_method")
		return
	}

	utils.SuccessResponse(c, methods)
}

// POST /sales
func (h *SaleHandler) RecordSale(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req services.RecordSaleRequest
	if !bindJSON(c, &req) {
		return
	}

	sale, err := h.saleService.RecordSale(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err, "business")
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeySaleRecorded),
		"sale":    sale,
	})
}

// GET /sales/business/:business_id
func (h *SaleHandler) ListSales(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	businessID, ok := parseIDParam(c, "business_id")
	if !ok {
		return
	}

	sales, err := h.saleService.ListByBusiness(c.Request.Context(), userID, businessID)
	if err != nil {
		respondError(c, err, "business")
		return
	}

	utils.SuccessResponse(c, sales)
}

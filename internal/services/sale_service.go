// internal/services/sale_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mercadito/backoffice/internal/database"
	"github.com/mercadito/backoffice/internal/models"
	"github.com/mercadito/backoffice/internal/utils"
)

type SaleService struct {
	db *gorm.DB
}

type SaleItemInput struct {
	ProductID uint             `json:"product_id" validate:"required"`
	VariantID *uint            `json:"variant_id"`
	Quantity  decimal.Decimal  `json:"quantity" validate:"gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price" validate:"omitempty,gte=0"`
}

type RecordSaleRequest struct {
	BusinessID      uint            `json:"business_id" validate:"required"`
	PaymentMethodID uint            `json:"payment_method_id" validate:"required"`
	SaleDate        *time.Time      `json:"sale_date"`
	Notes           *string         `json:"notes"`
	WhatsappMessage *string         `json:"whatsapp_message"`
	WhatsappNumber  *string         `json:"whatsapp_number" validate:"omitempty,max=20"`
	Items           []SaleItemInput `json:"items" validate:"required,min=1,dive"`
}

func NewSaleService(db *gorm.DB) *SaleService {
	return &SaleService{db: db}
}

func (s *SaleService) ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("id ASC").Find(&methods).Error; err != nil {
		return nil, fmt.Errorf("failed to list payment methods: %w", err)
	}
	return methods, nil
}

// RecordSale stores a sale and its lines in one transaction. Lines without a
// unit price are charged at the product's base price.
func (s *SaleService) RecordSale(ctx context.Context, sellerID uint, req *RecordSaleRequest) (*models.Sale, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	sale := &models.Sale{
		BusinessID:      req.BusinessID,
		SellerID:        sellerID,
		PaymentMethodID: req.PaymentMethodID,
		SaleDate:        time.Now(),
		Notes:           req.Notes,
		WhatsappMessage: req.WhatsappMessage,
		WhatsappNumber:  req.WhatsappNumber,
	}
	if req.SaleDate != nil {
		sale.SaleDate = *req.SaleDate
	}

	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := ownedBusiness(tx, sellerID, req.BusinessID); err != nil {
			return err
		}

		var method models.PaymentMethod
		if err := tx.Where("id = ? AND is_active = ?", req.PaymentMethodID, true).First(&method).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: payment method %d", ErrValidation, req.PaymentMethodID)
			}
			return fmt.Errorf("failed to get payment method: %w", err)
		}

		items := make([]models.SaleItem, 0, len(req.Items))
		total := decimal.Zero
		for i, input := range req.Items {
			item, err := buildSaleItem(tx, req.BusinessID, i, input)
			if err != nil {
				return err
			}
			total = total.Add(item.Subtotal)
			items = append(items, *item)
		}

		sale.TotalAmount = total
		if err := tx.Omit(clause.Associations).Create(sale).Error; err != nil {
			return fmt.Errorf("failed to create sale: %w", err)
		}

		for i := range items {
			items[i].SaleID = sale.ID
		}
		if err := tx.Omit(clause.Associations).Create(&items).Error; err != nil {
			return fmt.Errorf("failed to create sale items: %w", err)
		}

		sale.PaymentMethod = &method
		sale.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"sale_id":     sale.ID,
		"business_id": sale.BusinessID,
		"total":       sale.TotalAmount.StringFixed(2),
		"items":       len(sale.Items),
	}).Info("Sale recorded")
	return sale, nil
}

func buildSaleItem(tx *gorm.DB, businessID uint, index int, input SaleItemInput) (*models.SaleItem, error) {
	var product models.Product
	if err := tx.Where("id = ? AND business_id = ?", input.ProductID, businessID).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: items[%d]: product %d does not belong to the business", ErrValidation, index, input.ProductID)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if input.VariantID != nil {
		var count int64
		if err := tx.Model(&models.ProductVariant{}).Where("id = ? AND product_id = ?", *input.VariantID, product.ID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to get variant: %w", err)
		}
		if count == 0 {
			return nil, fmt.Errorf("%w: items[%d]: variant %d does not belong to product %d", ErrValidation, index, *input.VariantID, product.ID)
		}
	}

	unitPrice := product.PriceBase
	if input.UnitPrice != nil {
		unitPrice = *input.UnitPrice
	}

	// Columns hold two decimals; the subtotal is computed from stored values.
	quantity := input.Quantity.Round(2)
	unitPrice = unitPrice.Round(2)
	if !quantity.IsPositive() {
		return nil, fmt.Errorf("%w: items[%d]: quantity must be at least 0.01", ErrValidation, index)
	}

	return &models.SaleItem{
		ProductID: product.ID,
		VariantID: input.VariantID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Subtotal:  quantity.Mul(unitPrice).Round(2),
	}, nil
}

// ListByBusiness returns the sales of businessID, newest first.
func (s *SaleService) ListByBusiness(ctx context.Context, ownerID, businessID uint) ([]models.Sale, error) {
	db := s.db.WithContext(ctx)
	if err := ownedBusiness(db, ownerID, businessID); err != nil {
		return nil, err
	}

	var sales []models.Sale
	if err := db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("PaymentMethod").
		Where("business_id = ?", businessID).
		Order("sale_date DESC").Order("id DESC").
		Find(&sales).Error; err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	return sales, nil
}

func ownedBusiness(db *gorm.DB, ownerID, businessID uint) error {
	var business models.Business
	if err := db.First(&business, businessID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("business %d: %w", businessID, ErrNotFound)
		}
		return fmt.Errorf("failed to get business: %w", err)
	}
	if business.UserID != ownerID {
		return ErrForbidden
	}
	return nil
}

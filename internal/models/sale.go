// internal/models/sale.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod struct {
	BaseModel
	Name        string  `json:"name" gorm:"size:50;not null;uniqueIndex"`
	Description *string `json:"description" gorm:"type:text"`
	IsActive    bool    `json:"is_active" gorm:"not null;default:true"`
}

type Sale struct {
	BaseModel
	BusinessID      uint            `json:"business_id" gorm:"not null;index"`
	SellerID        uint            `json:"seller_id" gorm:"not null;index"`
	TotalAmount     decimal.Decimal `json:"total_amount" gorm:"type:decimal(12,2);not null"`
	PaymentMethodID uint            `json:"payment_method_id" gorm:"not null;index"`
	SaleDate        time.Time       `json:"sale_date" gorm:"not null;index"`
	Notes           *string         `json:"notes" gorm:"type:text"`
	WhatsappMessage *string         `json:"whatsapp_message" gorm:"type:text"`
	WhatsappNumber  *string         `json:"whatsapp_number" gorm:"size:20"`

	// Relationships
	Business      *Business      `json:"-" gorm:"foreignKey:BusinessID;constraint:OnDelete:CASCADE"`
	Seller        *User          `json:"-" gorm:"foreignKey:SellerID;constraint:OnDelete:CASCADE"`
	PaymentMethod *PaymentMethod `json:"payment_method,omitempty" gorm:"foreignKey:PaymentMethodID;constraint:OnDelete:RESTRICT"`
	Items         []SaleItem     `json:"items,omitempty" gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
}

type SaleItem struct {
	BaseModel
	SaleID    uint            `json:"sale_id" gorm:"not null;index"`
	ProductID uint            `json:"product_id" gorm:"not null;index"`
	VariantID *uint           `json:"variant_id" gorm:"index"`
	Quantity  decimal.Decimal `json:"quantity" gorm:"type:decimal(10,2);not null"`
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"type:decimal(10,2);not null"`
	Subtotal  decimal.Decimal `json:"subtotal" gorm:"type:decimal(10,2);not null"`

	Product *Product        `json:"-" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Variant *ProductVariant `json:"-" gorm:"foreignKey:VariantID;constraint:OnDelete:SET NULL"`
}

// internal/models/product.go
package models

import (
	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	BusinessID  uint            `json:"business_id" gorm:"not null;index"`
	Name        string          `json:"name" gorm:"size:100;not null"`
	PriceBase   decimal.Decimal `json:"price_base" gorm:"type:decimal(10,2);not null"`
	Descripcion string          `json:"descripcion" gorm:"type:text"`

	// Relationships
	Business   *Business        `json:"-" gorm:"foreignKey:BusinessID"`
	Inventario *Inventory       `json:"inventario,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Attributes []Attribute      `json:"attributes,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Variants   []ProductVariant `json:"variants,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Images     []ProductImage   `json:"images,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Categories []Category       `json:"categories,omitempty" gorm:"many2many:category_products;constraint:OnDelete:CASCADE"`
}

// AttributeName is the shared attribute vocabulary. Rows are only ever
// created through services.AttributeVocabulary.
type AttributeName struct {
	BaseModel
	Name string `json:"name" gorm:"size:100;not null;uniqueIndex"`
}

type Attribute struct {
	BaseModel
	ProductID       uint   `json:"product_id" gorm:"not null;index"`
	AttributeNameID uint   `json:"attribute_name_id" gorm:"not null;index"`
	Value           string `json:"value" gorm:"size:100;not null"`

	AttributeName AttributeName `json:"name" gorm:"foreignKey:AttributeNameID;constraint:OnDelete:CASCADE"`
}

type Inventory struct {
	BaseModel
	ProductID    uint          `json:"product_id" gorm:"not null;uniqueIndex"`
	UnidadMedida UnitOfMeasure `json:"unidad_medida" gorm:"type:varchar(10);not null"`
	Cantidad     float64       `json:"cantidad" gorm:"not null"`
	StockMinimo  float64       `json:"stock_minimo" gorm:"not null"`
}

type ProductVariant struct {
	BaseModel
	ProductID uint `json:"product_id" gorm:"not null;index"`

	VariantAttributes  []VariantAttribute `json:"variant_attributes" gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE"`
	InventarioVariante *InventoryVariant  `json:"inventario_variante" gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE"`
}

type VariantAttribute struct {
	BaseModel
	VariantID       uint   `json:"variant_id" gorm:"not null;index"`
	AttributeNameID uint   `json:"attribute_name_id" gorm:"not null;index"`
	Value           string `json:"value" gorm:"size:100;not null"`

	AttributeName AttributeName `json:"name" gorm:"foreignKey:AttributeNameID;constraint:OnDelete:CASCADE"`
}

type InventoryVariant struct {
	BaseModel
	VariantID   uint    `json:"variant_id" gorm:"not null;uniqueIndex"`
	Cantidad    float64 `json:"cantidad" gorm:"not null"`
	StockMinimo float64 `json:"stock_minimo" gorm:"not null"`
}

type ProductImage struct {
	BaseModel
	ProductID uint   `json:"product_id" gorm:"not null;index"`
	ObjectKey string `json:"-" gorm:"size:255;not null"`
	URL       string `json:"imagen" gorm:"size:512;not null"`
}

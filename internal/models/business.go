// internal/models/business.go
package models

// Business owns products and categories. One business per owning user is
// enforced by BusinessService, not by the schema.
type Business struct {
	BaseModel
	UserID uint   `json:"user_id" gorm:"not null;index"`
	Name   string `json:"name" gorm:"size:100;not null"`

	// Relationships
	User       *User      `json:"-" gorm:"foreignKey:UserID"`
	Products   []Product  `json:"-" gorm:"foreignKey:BusinessID;constraint:OnDelete:CASCADE"`
	Categories []Category `json:"-" gorm:"foreignKey:BusinessID;constraint:OnDelete:CASCADE"`
}

type Category struct {
	BaseModel
	BusinessID uint   `json:"business_id" gorm:"not null;index"`
	Nombre     string `json:"nombre" gorm:"size:50;not null"`
}

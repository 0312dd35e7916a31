// internal/models/common.go
package models

import (
	"time"
)

// Base model with common fields
type BaseModel struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Enums
type UserRole string

const (
	UserRoleAdmin  UserRole = "admin"
	UserRoleClient UserRole = "client"
)

type UnitOfMeasure string

const (
	UnitOfMeasureUnit     UnitOfMeasure = "unidad"
	UnitOfMeasureKilogram UnitOfMeasure = "kg"
	UnitOfMeasureLiter    UnitOfMeasure = "litro"
	UnitOfMeasureDozen    UnitOfMeasure = "docena"
)

// UnitsOfMeasure lists the accepted units in display order.
var UnitsOfMeasure = []UnitOfMeasure{
	UnitOfMeasureUnit,
	UnitOfMeasureKilogram,
	UnitOfMeasureLiter,
	UnitOfMeasureDozen,
}

var unitLabels = map[UnitOfMeasure]string{
	UnitOfMeasureUnit:     "Unidad",
	UnitOfMeasureKilogram: "Kilogramo",
	UnitOfMeasureLiter:    "Litro",
	UnitOfMeasureDozen:    "Docena",
}

func (u UnitOfMeasure) Label() string {
	return unitLabels[u]
}

func (u UnitOfMeasure) Valid() bool {
	_, ok := unitLabels[u]
	return ok
}

// Inventory defaults shared by product and variant stock records.
const (
	DefaultQuantity     = 0
	DefaultMinimumStock = 5
)

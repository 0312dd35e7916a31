// internal/services/category_service.go
package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/mercadito/backoffice/internal/models"
	"github.com/mercadito/backoffice/internal/utils"
)

// CategoryService manages the categories of one business. Products are
// linked to them through ProductService.
type CategoryService struct {
	db *gorm.DB
}

type CreateCategoryRequest struct {
	Nombre string `json:"nombre" validate:"required,max=50"`
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

func (s *CategoryService) Create(ctx context.Context, business *models.Business, req *CreateCategoryRequest) (*models.Category, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	category := &models.Category{BusinessID: business.ID, Nombre: req.Nombre}
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

// List returns the categories of business ordered by name.
func (s *CategoryService) List(ctx context.Context, business *models.Business) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.WithContext(ctx).Where("business_id = ?", business.ID).Order("nombre ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// internal/services/business_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mercadito/backoffice/internal/models"
	"github.com/mercadito/backoffice/internal/utils"
)

type BusinessService struct {
	db *gorm.DB
}

type CreateBusinessRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

func NewBusinessService(db *gorm.DB) *BusinessService {
	return &BusinessService{db: db}
}

// CreateBusiness registers the single business a user may own.
func (s *BusinessService) CreateBusiness(ctx context.Context, userID uint, req *CreateBusinessRequest) (*models.Business, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Business{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing business: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("user %d already owns a business: %w", userID, ErrConflict)
	}

	business := &models.Business{UserID: userID, Name: req.Name}
	if err := s.db.WithContext(ctx).Create(business).Error; err != nil {
		return nil, fmt.Errorf("failed to create business: %w", err)
	}

	logrus.WithFields(logrus.Fields{"business_id": business.ID, "user_id": userID}).Info("Business created")
	return business, nil
}

// GetByOwner returns the business owned by userID or ErrNoBusiness.
func (s *BusinessService) GetByOwner(ctx context.Context, userID uint) (*models.Business, error) {
	var business models.Business
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").First(&business).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoBusiness
		}
		return nil, fmt.Errorf("failed to get business: %w", err)
	}
	return &business, nil
}

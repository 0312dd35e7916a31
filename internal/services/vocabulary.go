// internal/services/vocabulary.go
package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mercadito/backoffice/internal/models"
)

// maxInternAttempts bounds the lookup/insert loop. A second pass only happens
// when a concurrent writer claimed the name between our lookup and insert.
const maxInternAttempts = 3

// AttributeVocabulary is the registry of attribute names shared by every
// product and variant. It is the only code path that creates AttributeName rows.
type AttributeVocabulary struct {
	db *gorm.DB
}

func NewAttributeVocabulary(db *gorm.DB) *AttributeVocabulary {
	return &AttributeVocabulary{db: db}
}

// Intern returns the AttributeName for name, creating it on first use. Names
// match exactly: "Color" and "color" are distinct entries.
//
// tx may be nil, in which case the service's own handle is used. Inside a
// postgres transaction a failed INSERT would abort the whole transaction, so
// the insert uses ON CONFLICT DO NOTHING and the winner is re-read instead.
func (v *AttributeVocabulary) Intern(ctx context.Context, tx *gorm.DB, name string) (*models.AttributeName, error) {
	if tx == nil {
		tx = v.db
	}
	tx = tx.WithContext(ctx)

	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: attribute name is required", ErrValidation)
	}

	for attempt := 0; attempt < maxInternAttempts; attempt++ {
		var existing models.AttributeName
		result := tx.Where("name = ?", name).Limit(1).Find(&existing)
		if result.Error != nil {
			return nil, fmt.Errorf("failed to look up attribute name %q: %w", name, result.Error)
		}
		if result.RowsAffected > 0 {
			return &existing, nil
		}

		candidate := models.AttributeName{Name: name}
		result = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&candidate)
		if result.Error != nil {
			return nil, fmt.Errorf("failed to create attribute name %q: %w", name, result.Error)
		}
		if result.RowsAffected > 0 {
			return &candidate, nil
		}
	}

	return nil, fmt.Errorf("attribute name %q could not be resolved: %w", name, ErrConflict)
}

// List returns the whole vocabulary ordered by name.
func (v *AttributeVocabulary) List(ctx context.Context) ([]models.AttributeName, error) {
	var names []models.AttributeName
	if err := v.db.WithContext(ctx).Order("name ASC").Find(&names).Error; err != nil {
		return nil, fmt.Errorf("failed to list attribute names: %w", err)
	}
	return names, nil
}

// Create registers name explicitly. Registering an existing name returns the
// existing entry and created=false.
func (v *AttributeVocabulary) Create(ctx context.Context, name string) (*models.AttributeName, bool, error) {
	var count int64
	if err := v.db.WithContext(ctx).Model(&models.AttributeName{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return nil, false, fmt.Errorf("failed to look up attribute name %q: %w", name, err)
	}

	attributeName, err := v.Intern(ctx, nil, name)
	if err != nil {
		return nil, false, err
	}
	return attributeName, count == 0, nil
}

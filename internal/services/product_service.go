// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mercadito/backoffice/internal/database"
	"github.com/mercadito/backoffice/internal/models"
	"github.com/mercadito/backoffice/internal/utils"
)

// ProductService writes and reads product aggregates: a product with its
// inventory, attributes, variants, images and category links.
type ProductService struct {
	db         *gorm.DB
	vocabulary *AttributeVocabulary
	storage    *StorageService
	cache      productCache
}

type AttributeInput struct {
	Name  string `json:"name" validate:"required,max=100"`
	Value string `json:"value" validate:"required,max=100"`
}

// InventoryInput carries optional fields so updates can merge into the
// stored record.
type InventoryInput struct {
	UnidadMedida *models.UnitOfMeasure `json:"unidad_medida" validate:"omitempty,unit_of_measure"`
	Cantidad     *float64              `json:"cantidad" validate:"omitempty,gte=0"`
	StockMinimo  *float64              `json:"stock_minimo" validate:"omitempty,gte=0"`
}

type VariantInput struct {
	Attributes  []AttributeInput `json:"attributes" validate:"dive"`
	Cantidad    *float64         `json:"cantidad" validate:"omitempty,gte=0"`
	StockMinimo *float64         `json:"stock_minimo" validate:"omitempty,gte=0"`
}

type CreateProductRequest struct {
	Name        string           `json:"name" validate:"required,max=100"`
	PriceBase   *decimal.Decimal `json:"price_base" validate:"required,gte=0"`
	Descripcion string           `json:"descripcion"`
	Inventario  *InventoryInput  `json:"inventario"`
	Attributes  []AttributeInput `json:"attributes" validate:"dive"`
	CategoryIDs []uint           `json:"category_ids"`
	Variants    []VariantInput   `json:"variants" validate:"dive"`
}

// UpdateProductRequest distinguishes absent keys (nil) from empty
// collections: a present attributes or variants list replaces the stored
// set even when empty.
type UpdateProductRequest struct {
	Name        *string           `json:"name" validate:"omitempty,min=1,max=100"`
	PriceBase   *decimal.Decimal  `json:"price_base" validate:"omitempty,gte=0"`
	Descripcion *string           `json:"descripcion"`
	Inventario  *InventoryInput   `json:"inventario"`
	Attributes  *[]AttributeInput `json:"attributes" validate:"omitempty,dive"`
	CategoryIDs *[]uint           `json:"category_ids"`
	Variants    *[]VariantInput   `json:"variants" validate:"omitempty,dive"`
}

func NewProductService(db *gorm.DB, vocabulary *AttributeVocabulary, storage *StorageService, cache CacheClient, cacheTTL time.Duration) *ProductService {
	if cache == nil {
		cache = NoopCache{}
	}
	return &ProductService{
		db:         db,
		vocabulary: vocabulary,
		storage:    storage,
		cache:      productCache{client: cache, ttl: cacheTTL},
	}
}

// UnitsOfMeasure lists the accepted inventory units with their labels.
func UnitsOfMeasure() []UnitOfMeasureView {
	units := make([]UnitOfMeasureView, 0, len(models.UnitsOfMeasure))
	for _, unit := range models.UnitsOfMeasure {
		units = append(units, UnitOfMeasureView{Value: string(unit), Label: unit.Label()})
	}
	return units
}

func (s *ProductService) CreateProduct(ctx context.Context, business *models.Business, req *CreateProductRequest) (*ProductDetail, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	product := &models.Product{
		BusinessID:  business.ID,
		Name:        req.Name,
		PriceBase:   *req.PriceBase,
		Descripcion: req.Descripcion,
	}

	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(product).Error; err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}

		if len(req.CategoryIDs) > 0 {
			if err := s.replaceCategories(tx, business.ID, product, req.CategoryIDs); err != nil {
				return err
			}
		}

		if req.Inventario != nil {
			inventory := newInventory(product.ID, req.Inventario)
			if err := tx.Create(inventory).Error; err != nil {
				return fmt.Errorf("failed to create inventory: %w", err)
			}
		}

		if err := s.createAttributes(ctx, tx, product.ID, req.Attributes); err != nil {
			return err
		}

		for i := range req.Variants {
			if _, err := s.buildVariant(ctx, tx, product, &req.Variants[i]); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		logrus.WithError(err).WithField("business_id", business.ID).Error("Product creation rolled back")
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"product_id":  product.ID,
		"business_id": business.ID,
		"attributes":  len(req.Attributes),
		"variants":    len(req.Variants),
	}).Info("Product created")

	return s.loadDetail(ctx, s.db, product.ID)
}

// buildVariant persists a variant, then its attributes, then its inventory.
// A variant is never left without its inventory record.
func (s *ProductService) buildVariant(ctx context.Context, tx *gorm.DB, product *models.Product, req *VariantInput) (*models.ProductVariant, error) {
	variant := &models.ProductVariant{ProductID: product.ID}
	if err := tx.Omit(clause.Associations).Create(variant).Error; err != nil {
		return nil, fmt.Errorf("failed to create variant: %w", err)
	}

	attributes := make([]models.VariantAttribute, 0, len(req.Attributes))
	for _, input := range req.Attributes {
		name, err := s.vocabulary.Intern(ctx, tx, input.Name)
		if err != nil {
			return nil, err
		}
		attributes = append(attributes, models.VariantAttribute{
			VariantID:       variant.ID,
			AttributeNameID: name.ID,
			Value:           input.Value,
			AttributeName:   *name,
		})
	}
	if len(attributes) > 0 {
		if err := tx.Omit(clause.Associations).Create(&attributes).Error; err != nil {
			return nil, fmt.Errorf("failed to create variant attributes: %w", err)
		}
	}

	inventory := &models.InventoryVariant{
		VariantID:   variant.ID,
		Cantidad:    valueOr(req.Cantidad, models.DefaultQuantity),
		StockMinimo: valueOr(req.StockMinimo, models.DefaultMinimumStock),
	}
	if err := tx.Create(inventory).Error; err != nil {
		return nil, fmt.Errorf("failed to create variant inventory: %w", err)
	}

	variant.VariantAttributes = attributes
	variant.InventarioVariante = inventory
	return variant, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, business *models.Business, productID uint, req *UpdateProductRequest) (*ProductDetail, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		product, err := s.ownedProduct(tx, business, productID)
		if err != nil {
			return err
		}

		if req.Name != nil {
			product.Name = *req.Name
		}
		if req.PriceBase != nil {
			product.PriceBase = *req.PriceBase
		}
		if req.Descripcion != nil {
			product.Descripcion = *req.Descripcion
		}
		if err := tx.Omit(clause.Associations).Save(product).Error; err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}

		if req.Inventario != nil {
			if err := s.upsertInventory(tx, product.ID, req.Inventario); err != nil {
				return err
			}
		}

		if req.Attributes != nil {
			if err := tx.Where("product_id = ?", product.ID).Delete(&models.Attribute{}).Error; err != nil {
				return fmt.Errorf("failed to delete attributes: %w", err)
			}
			if err := s.createAttributes(ctx, tx, product.ID, *req.Attributes); err != nil {
				return err
			}
		}

		if req.CategoryIDs != nil {
			if err := s.replaceCategories(tx, business.ID, product, *req.CategoryIDs); err != nil {
				return err
			}
		}

		if req.Variants != nil {
			if err := deleteVariants(tx, product.ID); err != nil {
				return err
			}
			for i := range *req.Variants {
				if _, err := s.buildVariant(ctx, tx, product, &(*req.Variants)[i]); err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrForbidden) {
			logrus.WithError(err).WithField("product_id", productID).Error("Product update rolled back")
		}
		return nil, err
	}

	s.cache.invalidate(ctx, productID)
	logrus.WithFields(logrus.Fields{
		"product_id":  productID,
		"business_id": business.ID,
	}).Info("Product updated")

	return s.loadDetail(ctx, s.db, productID)
}

// DeleteProduct removes the aggregate and its sale lines. Stored images are
// removed after the transaction commits.
func (s *ProductService) DeleteProduct(ctx context.Context, business *models.Business, productID uint) error {
	var images []models.ProductImage

	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		product, err := s.ownedProduct(tx, business, productID)
		if err != nil {
			return err
		}

		if err := tx.Where("product_id = ?", product.ID).Find(&images).Error; err != nil {
			return fmt.Errorf("failed to load images: %w", err)
		}

		if err := deleteVariants(tx, product.ID); err != nil {
			return err
		}
		if err := tx.Model(product).Association("Categories").Clear(); err != nil {
			return fmt.Errorf("failed to unlink categories: %w", err)
		}

		for _, model := range []interface{}{
			&models.Attribute{},
			&models.Inventory{},
			&models.ProductImage{},
			&models.SaleItem{},
		} {
			if err := tx.Where("product_id = ?", product.ID).Delete(model).Error; err != nil {
				return fmt.Errorf("failed to delete product children: %w", err)
			}
		}

		if err := tx.Delete(product).Error; err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.invalidate(ctx, productID)
	for _, image := range images {
		if err := s.storage.DeleteFile(ctx, image.ObjectKey); err != nil {
			logrus.WithError(err).WithField("key", image.ObjectKey).Warn("Failed to delete product image")
		}
	}

	logrus.WithFields(logrus.Fields{
		"product_id":  productID,
		"business_id": business.ID,
	}).Info("Product deleted")
	return nil
}

// GetProductDetail returns a product owned by business. A product of another
// business yields ErrForbidden, never ErrNotFound.
func (s *ProductService) GetProductDetail(ctx context.Context, business *models.Business, productID uint) (*ProductDetail, error) {
	if detail, ok := s.cache.get(ctx, productID); ok {
		if detail.BusinessID != business.ID {
			return nil, ErrForbidden
		}
		return detail, nil
	}

	if _, err := s.ownedProduct(s.db.WithContext(ctx), business, productID); err != nil {
		return nil, err
	}

	detail, err := s.loadDetail(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}

	s.cache.set(ctx, detail)
	return detail, nil
}

// ListByBusiness lists the products of businessID, which must belong to ownerID.
func (s *ProductService) ListByBusiness(ctx context.Context, ownerID, businessID uint, params utils.PaginationParams) ([]ProductDetail, int64, error) {
	if err := ownedBusiness(s.db.WithContext(ctx), ownerID, businessID); err != nil {
		return nil, 0, err
	}

	query := s.db.WithContext(ctx).Model(&models.Product{}).Where("business_id = ?", businessID)
	if params.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(params.Search)+"%")
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	var products []models.Product
	query = utils.ApplySort(query, params, []string{"name", "price_base", "created_at"})
	query = utils.ApplyPagination(query, params)
	if err := preloadAggregate(query).Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	details := make([]ProductDetail, 0, len(products))
	for i := range products {
		details = append(details, *NewProductDetail(&products[i]))
	}
	return details, total, nil
}

// AddImages stores the uploaded files and links them to the product. Objects
// already uploaded are removed again if a later step fails.
func (s *ProductService) AddImages(ctx context.Context, business *models.Business, productID uint, files []*multipart.FileHeader) ([]ImageView, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: at least one image is required", ErrValidation)
	}

	product, err := s.ownedProduct(s.db.WithContext(ctx), business, productID)
	if err != nil {
		return nil, err
	}

	images := make([]models.ProductImage, 0, len(files))
	cleanup := func() {
		for _, image := range images {
			if err := s.storage.DeleteFile(ctx, image.ObjectKey); err != nil {
				logrus.WithError(err).WithField("key", image.ObjectKey).Warn("Failed to remove orphaned image")
			}
		}
	}

	for _, file := range files {
		result, err := s.storage.UploadFile(ctx, file, ProductImageUploadOptions)
		if err != nil {
			cleanup()
			return nil, err
		}
		images = append(images, models.ProductImage{ProductID: product.ID, ObjectKey: result.Key, URL: result.URL})
	}

	if err := s.db.WithContext(ctx).Create(&images).Error; err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to save product images: %w", err)
	}

	s.cache.invalidate(ctx, product.ID)

	views := make([]ImageView, 0, len(images))
	for _, image := range images {
		views = append(views, ImageView{ID: image.ID, Imagen: image.URL})
	}
	return views, nil
}

func (s *ProductService) ownedProduct(db *gorm.DB, business *models.Business, productID uint) (*models.Product, error) {
	var product models.Product
	if err := db.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %d: %w", productID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if business == nil || product.BusinessID != business.ID {
		return nil, ErrForbidden
	}
	return &product, nil
}

// replaceCategories links product to the given categories of businessID.
// Ids of other businesses, or unknown ids, are skipped.
func (s *ProductService) replaceCategories(tx *gorm.DB, businessID uint, product *models.Product, categoryIDs []uint) error {
	association := tx.Model(product).Association("Categories")

	var categories []models.Category
	if len(categoryIDs) > 0 {
		if err := tx.Where("business_id = ? AND id IN ?", businessID, categoryIDs).Find(&categories).Error; err != nil {
			return fmt.Errorf("failed to load categories: %w", err)
		}
	}

	if len(categories) == 0 {
		if err := association.Clear(); err != nil {
			return fmt.Errorf("failed to clear categories: %w", err)
		}
		return nil
	}

	if err := association.Replace(categories); err != nil {
		return fmt.Errorf("failed to link categories: %w", err)
	}
	return nil
}

func (s *ProductService) createAttributes(ctx context.Context, tx *gorm.DB, productID uint, inputs []AttributeInput) error {
	if len(inputs) == 0 {
		return nil
	}

	attributes := make([]models.Attribute, 0, len(inputs))
	for _, input := range inputs {
		name, err := s.vocabulary.Intern(ctx, tx, input.Name)
		if err != nil {
			return err
		}
		attributes = append(attributes, models.Attribute{
			ProductID:       productID,
			AttributeNameID: name.ID,
			Value:           input.Value,
		})
	}

	if err := tx.Omit(clause.Associations).Create(&attributes).Error; err != nil {
		return fmt.Errorf("failed to create attributes: %w", err)
	}
	return nil
}

// upsertInventory creates the inventory with defaults for missing fields, or
// overwrites only the fields present in input.
func (s *ProductService) upsertInventory(tx *gorm.DB, productID uint, input *InventoryInput) error {
	var inventory models.Inventory
	result := tx.Where("product_id = ?", productID).Limit(1).Find(&inventory)
	if result.Error != nil {
		return fmt.Errorf("failed to load inventory: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		if err := tx.Create(newInventory(productID, input)).Error; err != nil {
			return fmt.Errorf("failed to create inventory: %w", err)
		}
		return nil
	}

	if input.UnidadMedida != nil {
		inventory.UnidadMedida = *input.UnidadMedida
	}
	if input.Cantidad != nil {
		inventory.Cantidad = *input.Cantidad
	}
	if input.StockMinimo != nil {
		inventory.StockMinimo = *input.StockMinimo
	}

	if err := tx.Save(&inventory).Error; err != nil {
		return fmt.Errorf("failed to update inventory: %w", err)
	}
	return nil
}

// deleteVariants removes every variant of productID with its attributes and
// inventory. Sale lines that pointed at a variant keep the product only.
func deleteVariants(tx *gorm.DB, productID uint) error {
	var variantIDs []uint
	if err := tx.Model(&models.ProductVariant{}).Where("product_id = ?", productID).Pluck("id", &variantIDs).Error; err != nil {
		return fmt.Errorf("failed to load variants: %w", err)
	}
	if len(variantIDs) == 0 {
		return nil
	}

	if err := tx.Model(&models.SaleItem{}).Where("variant_id IN ?", variantIDs).Update("variant_id", nil).Error; err != nil {
		return fmt.Errorf("failed to detach sale items: %w", err)
	}
	if err := tx.Where("variant_id IN ?", variantIDs).Delete(&models.VariantAttribute{}).Error; err != nil {
		return fmt.Errorf("failed to delete variant attributes: %w", err)
	}
	if err := tx.Where("variant_id IN ?", variantIDs).Delete(&models.InventoryVariant{}).Error; err != nil {
		return fmt.Errorf("failed to delete variant inventory: %w", err)
	}
	if err := tx.Where("id IN ?", variantIDs).Delete(&models.ProductVariant{}).Error; err != nil {
		return fmt.Errorf("failed to delete variants: %w", err)
	}
	return nil
}

func (s *ProductService) loadDetail(ctx context.Context, db *gorm.DB, productID uint) (*ProductDetail, error) {
	var product models.Product
	if err := preloadAggregate(db.WithContext(ctx)).First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %d: %w", productID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return NewProductDetail(&product), nil
}

func preloadAggregate(db *gorm.DB) *gorm.DB {
	byID := func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }

	return db.
		Preload("Inventario").
		Preload("Attributes", byID).
		Preload("Attributes.AttributeName").
		Preload("Variants", byID).
		Preload("Variants.VariantAttributes", byID).
		Preload("Variants.VariantAttributes.AttributeName").
		Preload("Variants.InventarioVariante").
		Preload("Images", byID).
		Preload("Categories", byID)
}

func newInventory(productID uint, input *InventoryInput) *models.Inventory {
	unit := models.UnitOfMeasureUnit
	if input.UnidadMedida != nil {
		unit = *input.UnidadMedida
	}
	return &models.Inventory{
		ProductID:    productID,
		UnidadMedida: unit,
		Cantidad:     valueOr(input.Cantidad, models.DefaultQuantity),
		StockMinimo:  valueOr(input.StockMinimo, models.DefaultMinimumStock),
	}
}

func valueOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

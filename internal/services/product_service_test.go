package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/mercadito/backoffice/internal/database/dbtest"
	"github.com/mercadito/backoffice/internal/models"
	"github.com/mercadito/backoffice/internal/utils"
)

type ProductServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	cache    *memoryCache
	service  *ProductService
	owner    *models.User
	business *models.Business
	ctx      context.Context
}

func (s *ProductServiceTestSuite) SetupTest() {
	s.db = dbtest.New(s.T())
	s.cache = newMemoryCache()
	s.service = NewProductService(s.db, NewAttributeVocabulary(s.db), localStorage(s.T()), s.cache, time.Minute)
	s.owner, s.business = createBusiness(s.T(), s.db, "ana")
	s.ctx = context.Background()
}

func TestProductServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ProductServiceTestSuite))
}

func shirtRequest() *CreateProductRequest {
	price := decimal.RequireFromString("10.00")
	return &CreateProductRequest{
		Name:        "Shirt",
		PriceBase:   &price,
		Descripcion: "",
		Inventario: &InventoryInput{
			UnidadMedida: unitPtr(models.UnitOfMeasureUnit),
			Cantidad:     floatPtr(5),
			StockMinimo:  floatPtr(2),
		},
		Attributes: []AttributeInput{{Name: "Color", Value: "Red"}},
		Variants: []VariantInput{{
			Attributes:  []AttributeInput{{Name: "Size", Value: "M"}},
			Cantidad:    floatPtr(3),
			StockMinimo: floatPtr(1),
		}},
	}
}

func (s *ProductServiceTestSuite) TestCreateProductScenario() {
	detail, err := s.service.CreateProduct(s.ctx, s.business, shirtRequest())
	s.Require().NoError(err)

	s.NotZero(detail.ID)
	s.Equal("Shirt", detail.Name)
	s.Equal("10.00", detail.PriceBase)
	s.Equal(s.business.ID, detail.BusinessID)

	s.Require().NotNil(detail.Inventario)
	s.Equal(models.UnitOfMeasureUnit, detail.Inventario.UnidadMedida)
	s.Equal(5.0, detail.Inventario.Cantidad)
	s.Equal(2.0, detail.Inventario.StockMinimo)

	s.Require().Len(detail.Attributes, 1)
	s.Equal("Color", detail.Attributes[0].Name)
	s.Equal("Red", detail.Attributes[0].Value)

	s.Require().Len(detail.Variants, 1)
	variant := detail.Variants[0]
	s.Require().Len(variant.VariantAttributes, 1)
	s.Equal("Size", variant.VariantAttributes[0].Name)
	s.Equal("M", variant.VariantAttributes[0].Value)
	s.Require().NotNil(variant.InventarioVariante)
	s.Equal(3.0, variant.InventarioVariante.Cantidad)
	s.Equal(1.0, variant.InventarioVariante.StockMinimo)

	s.Equal(int64(1), countRows(s.T(), s.db, &models.Product{}, ""))
	s.Equal(int64(1), countRows(s.T(), s.db, &models.Inventory{}, ""))
	s.Equal(int64(1), countRows(s.T(), s.db, &models.Attribute{}, ""))
	s.Equal(int64(1), countRows(s.T(), s.db, &models.ProductVariant{}, ""))
	s.Equal(int64(1), countRows(s.T(), s.db, &models.VariantAttribute{}, ""))
	s.Equal(int64(1), countRows(s.T(), s.db, &models.InventoryVariant{}, ""))

	var names []string
	s.Require().NoError(s.db.Model(&models.AttributeName{}).Order("name").Pluck("name", &names).Error)
	s.Equal([]string{"Color", "Size"}, names)
}

func (s *ProductServiceTestSuite) TestCreateAppliesDefaults() {
	price := decimal.NewFromInt(3)
	detail, err := s.service.CreateProduct(s.ctx, s.business, &CreateProductRequest{
		Name:       "Harina",
		PriceBase:  &price,
		Inventario: &InventoryInput{Cantidad: floatPtr(12)},
		Variants:   []VariantInput{{}},
	})
	s.Require().NoError(err)

	s.Equal(models.UnitOfMeasureUnit, detail.Inventario.UnidadMedida)
	s.Equal(12.0, detail.Inventario.Cantidad)
	s.Equal(float64(models.DefaultMinimumStock), detail.Inventario.StockMinimo)

	s.Require().Len(detail.Variants, 1)
	s.Equal(0.0, detail.Variants[0].InventarioVariante.Cantidad)
	s.Equal(float64(models.DefaultMinimumStock), detail.Variants[0].InventarioVariante.StockMinimo)
}

func (s *ProductServiceTestSuite) TestCreateKeepsExplicitZeroMinimumStock() {
	price := decimal.NewFromInt(3)
	detail, err := s.service.CreateProduct(s.ctx, s.business, &CreateProductRequest{
		Name:       "Sal",
		PriceBase:  &price,
		Inventario: &InventoryInput{StockMinimo: floatPtr(0)},
	})
	s.Require().NoError(err)
	s.Equal(0.0, detail.Inventario.StockMinimo)
}

func (s *ProductServiceTestSuite) TestCreateWithoutInventoryLeavesNone() {
	price := decimal.NewFromInt(1)
	detail, err := s.service.CreateProduct(s.ctx, s.business, &CreateProductRequest{Name: "Chicle", PriceBase: &price})
	s.Require().NoError(err)

	s.Nil(detail.Inventario)
	s.Empty(detail.Attributes)
	s.Empty(detail.Variants)
}

func (s *ProductServiceTestSuite) TestCreateKeepsDuplicateAttributeNames() {
	req := shirtRequest()
	req.Attributes = []AttributeInput{{Name: "Color", Value: "Red"}, {Name: "Color", Value: "Blue"}}

	detail, err := s.service.CreateProduct(s.ctx, s.business, req)
	s.Require().NoError(err)

	s.Len(detail.Attributes, 2)
	s.Equal(int64(1), countRows(s.T(), s.db, &models.AttributeName{}, "name = ?", "Color"))
}

func (s *ProductServiceTestSuite) TestCreateRejectsInvalidPayload() {
	_, err := s.service.CreateProduct(s.ctx, s.business, &CreateProductRequest{Name: "Sin precio"})
	s.ErrorIs(err, ErrValidation)

	req := shirtRequest()
	bad := models.UnitOfMeasure("gramo")
	req.Inventario.UnidadMedida = &bad
	_, err = s.service.CreateProduct(s.ctx, s.business, req)
	s.ErrorIs(err, ErrValidation)

	s.Equal(int64(0), countRows(s.T(), s.db, &models.Product{}, ""))
}

func (s *ProductServiceTestSuite) failCreatesOn(table string) {
	err := s.db.Callback().Create().Before("gorm:create").Register("test:fail_"+table, func(d *gorm.DB) {
		if d.Statement.Table == table {
			d.AddError(errors.New("simulated constraint violation"))
		}
	})
	s.Require().NoError(err)
}

func (s *ProductServiceTestSuite) TestCreateRollsBackWhenInventoryFails() {
	s.failCreatesOn("inventories")

	_, err := s.service.CreateProduct(s.ctx, s.business, shirtRequest())
	s.Require().Error(err)

	s.Equal(int64(0), countRows(s.T(), s.db, &models.Product{}, ""))
	s.Equal(int64(0), countRows(s.T(), s.db, &models.Inventory{}, ""))
	s.Equal(int64(0), countRows(s.T(), s.db, &models.Attribute{}, ""))
	s.Equal(int64(0), countRows(s.T(), s.db, &models.ProductVariant{}, ""))
}

func (s *ProductServiceTestSuite) TestCreateRollsBackWhenVariantInventoryFails() {
	s.failCreatesOn("inventory_variants")

	_, err := s.service.CreateProduct(s.ctx, s.business, shirtRequest())
	s.Require().Error(err)

	for _, model := range []interface{}{
		&models.Product{},
		&models.Inventory{},
		&models.Attribute{},
		&models.ProductVariant{},
		&models.VariantAttribute{},
		&models.InventoryVariant{},
		&models.AttributeName{},
	} {
		s.Equal(int64(0), countRows(s.T(), s.db, model, ""), "%T", model)
	}
}

func (s *ProductServiceTestSuite) TestVocabularySharedAcrossProducts() {
	first, err := s.service.CreateProduct(s.ctx, s.business, shirtRequest())
	s.Require().NoError(err)

	_, other := createBusiness(s.T(), s.db, "luis")
	second, err := s.service.CreateProduct(s.ctx, other, shirtRequest())
	s.Require().NoError(err)

	s.Equal(int64(1), countRows(s.T(), s.db, &models.AttributeName{}, "name = ?", "Color"))
	s.Equal(int64(2), countRows(s.T(), s.db, &models.Attribute{}, ""))
	s.NotEqual(first.Attributes[0].ID, second.Attributes[0].ID)
}

func (s *ProductServiceTestSuite) TestCategoriesAreScopedToBusiness() {
	own := createCategory(s.T(), s.db, s.business, "Ropa")
	_, other := createBusiness(s.T(), s.db, "luis")
	foreign := createCategory(s.T(), s.db, other, "Comida")

	req := shirtRequest()
	req.CategoryIDs = []uint{own.ID, foreign.ID, 9999}

	detail, err := s.service.CreateProduct(s.ctx, s.business, req)
	s.Require().NoError(err)

	s.Require().Len(detail.Categories, 1)
	s.Equal(own.ID, detail.Categories[0].ID)
	s.Equal("Ropa", detail.Categories[0].Nombre)
}

func (s *ProductServiceTestSuite) TestUpdateReplacesAttributes() {
	req := shirtRequest()
	req.Attributes = []AttributeInput{{Name: "Color", Value: "Red"}, {Name: "Material", Value: "Algodón"}}
	created, err := s.service.CreateProduct(s.ctx, s.business, req)
	s.Require().NoError(err)
	s.Require().Len(created.Attributes, 2)

	updated, err := s.service.UpdateProduct(s.ctx, s.business, created.ID, &UpdateProductRequest{
		Attributes: &[]AttributeInput{{Name: "Color", Value: "Blue"}},
	})
	s.Require().NoError(err)

	s.Require().Len(updated.Attributes, 1)
	s.Equal("Blue", updated.Attributes[0].Value)
	s.Equal(int64(1), countRows(s.T(), s.db, &models.Attribute{}, "product_id = ?", created.ID))
}

func (s *ProductServiceTestSuite) TestUpdateWithEmptyAttributesClearsThem() {
	created, err := s.service.CreateProduct(s.ctx, s.business, shirtRequest())
	s.Require().NoError(err)

	updated, err := s.service.UpdateProduct(s.ctx, s.business, created.ID, &UpdateProductRequest{
		Attributes: &[]AttributeInput{},
	})
	s.Require().NoError(err)

	s.Empty(updated.Attributes)
	s.Len(updated.Variants, 1, "variants were not in the payload")
}

func (s *ProductServiceTestSuite) TestUpdateMergesInventory() {
	req := shirtRequest()
	req.Inventario = &InventoryInput{Cantidad: floatPtr(10), StockMinimo: floatPtr(5)}
	created, err := s.service.CreateProduct(s.ctx, s.business, req)
	s.Require().NoError(err)

	updated, err := s.service.UpdateProduct(s.ctx, s.business, created.ID, &UpdateProductRequest{
		Inventario: &InventoryInput{Cantidad: floatPtr(7)},
	})
	s.Require().NoError(err)

	s.Equal(7.0, updated.Inventario.Cantidad)
	s.Equal(5.0, updated.Inventario.StockMinimo)
	s.Equal(int64(1), countRows(s.T(), s.db, &models.Inventory{}, "product_id = ?", created.ID))
}

func (s *ProductServiceTestSuite) TestUpdateCreatesMissingInventory() {
	price := decimal.NewFromInt(2)
	created, err := s.service.CreateProduct(s.ctx, s.business, &CreateProductRequest{Name: "Queso", PriceBase: &price})
	s.Require().NoError(err)

	updated, err := s.service.UpdateProduct(s.ctx, s.business, created.ID, &UpdateProductRequest{
		Inventario: &InventoryInput{UnidadMedida: unitPtr(models.UnitOfMeasureKilogram), Cantidad: floatPtr(1.5)},
	})
	s.Require().NoError(err)

	s.Require().NotNil(updated.Inventario)
	s.Equal(models.UnitOfMeasureKilogram, updated.Inventario.UnidadMedida)
	s.Equal(1.5, updated.Inventario.Cantidad)
	s.Equal(float64(models.DefaultMinimumStock), updated.Inventario.StockMinimo)
}

func (s *ProductServiceTestSuite) TestUpdateReplacesVariants() {
	created, err := s.service.CreateProduct(s.ctx, s.business, shirtRequest())
	s.Require().NoError(err)
	oldVariantID := created.Variants[0].ID

	updated, err := s.service.UpdateProduct(s.ctx, s.business, created.ID, &UpdateProductRequest{
		Variants: &[]VariantInput{
			{Attributes: []AttributeInput{{Name: "Size", Value: "S"}}, Cantidad: floatPtr(1)},
			{Attributes: []AttributeInput{{Name: "Size", Value: "L"}}, Cantidad: floatPtr(2)},
		},
	})
	s.Require().NoError(err)

	s.Require().Len(updated.Variants, 2)
	for _, variant := range updated.Variants {
		s.NotEqual(oldVariantID, variant.ID)
		s.Require().NotNil(variant.InventarioVariante)
	}

	s.Equal(int64(0), countRows(s.T(), s.db, &models.ProductVariant{}, "id = ?", oldVariantID))
	s.Equal(int64(0), countRows(s.T(), s.db, &models.InventoryVariant{}, "variant_id = ?", oldVariantID))
	s.Equal(int64(0), countRows(s.T(), s.db, &models.VariantAttribute{}, "variant_id = ?", oldVariantID))
	s.Equal(int64(2), countRows(s.T(), s.db, &models.InventoryVariant{}, ""))
	s.Equal(int64(1), countRows(s.T(), s.db, &models.AttributeName{}, "name = ?", "Size"))
}

func (s *ProductServiceTestSuite) TestEveryVariantHasOneInventory() {
	req := shirtRequest()
	req.Variants = append(req.Variants, VariantInput{}, VariantInput{Cantidad: floatPtr(9)})

	detail, err := s.service.CreateProduct(s.ctx, s.business, req)
	s.Require().NoError(err)

	s.Require().Len(detail.Variants, 3)
	for _, variant := range detail.Variants {
		s.Equal(int64(1), countRows(s.T(), s.db, &models.InventoryVariant{}, "variant_id = ?", variant.ID))
	}
}

func (s *ProductServiceTestSuite) TestUpdateLeavesOmittedFieldsUntouched() {
	own := createCategory(s.T(), s.db, s.business, "Ropa")
	req := shirtRequest()
	req.Descripcion = "Algodón"
	req.CategoryIDs = []uint{own.ID}
	created, err := s.service.CreateProduct(s.ctx, s.business, req)
	s.Require().NoError(err)

	price := decimal.RequireFromString("12.50")
	updated, err := s.service.UpdateProduct(s.ctx, s.business, created.ID, &UpdateProductRequest{
		Name:      stringPtr("Camisa"),
		PriceBase: &price,
	})
	s.Require().NoError(err)

	s.Equal("Camisa", updated.Name)
	s.Equal("12.50", updated.PriceBase)
	s.Equal("Algodón", updated.Descripcion)
	s.Equal(created.Attributes, updated.Attributes)
	s.Equal(created.Variants, updated.Variants)
	s.Equal(created.Categories, updated.Categories)
	s.Equal(created.Inventario, updated.Inventario)
}

func (s *ProductServiceTestSuite) TestUpdateReplacesCategoriesWithinBusiness() {
	ropa := createCategory(s.T(), s.db, s.business, "Ropa")
	ofertas := createCategory(s.T(), s.db, s.business, "Ofertas")
	_, other := createBusiness(s.T(), s.db, "luis")
	foreign := createCategory(s.T(), s.db, other, "Comida")

	req := shirtRequest()
	req.CategoryIDs = []uint{ropa.ID}
	created, err := s.service.CreateProduct(s.ctx, s.business, req)
	s.Require().NoError(err)

	updated, err := s.service.UpdateProduct(s.ctx, s.business, created.ID, &UpdateProductRequest{
		CategoryIDs: &[]uint{ofertas.ID, foreign.ID},
	})
	s.Require().NoError(err)
	s.Require().Len(updated.Categories, 1)
	s.Equal(ofertas.ID, updated.Categories[0].ID)

	cleared, err := s.service.UpdateProduct(s.ctx, s.business, created.ID, &UpdateProductRequest{
		CategoryIDs: &[]uint{},
	})
	s.Require().NoError(err)
	s.Empty(cleared.Categories)
}

func (s *ProductServiceTestSuite) TestUpdateRollsBackOnFailure() {
	created, err := s.service.CreateProduct(s.ctx, s.business, shirtRequest())
	s.Require().NoError(err)

	s.failCreatesOn("inventory_variants")
	_, err = s.service.UpdateProduct(s.ctx, s.business, created.ID, &UpdateProductRequest{
		Name:       stringPtr("Camisa"),
		Attributes: &[]AttributeInput{},
		Variants:   &[]VariantInput{{Cantidad: floatPtr(1)}},
	})
	s.Require().Error(err)

	var product models.Product
	s.Require().NoError(s.db.First(&product, created.ID).Error)
	s.Equal("Shirt", product.Name)
	s.Equal(int64(1), countRows(s.T(), s.db, &models.Attribute{}, "product_id = ?", created.ID))
	s.Equal(int64(1), countRows(s.T(), s.db, &models.ProductVariant{}, "id = ?", created.Variants[0].ID))
}

func (s *ProductServiceTestSuite) TestCrossTenantAccessIsForbidden() {
	created, err := s.service.CreateProduct(s.ctx, s.business, shirtRequest())
	s.Require().NoError(err)

	_, other := createBusiness(s.T(), s.db, "luis")

	_, err = s.service.GetProductDetail(s.ctx, other, created.ID)
	s.ErrorIs(err, ErrForbidden)

	_, err = s.service.UpdateProduct(s.ctx, other, created.ID, &UpdateProductRequest{Name: stringPtr("x")})
	s.ErrorIs(err, ErrForbidden)

	s.ErrorIs(s.service.DeleteProduct(s.ctx, other, created.ID), ErrForbidden)

	_, err = s.service.GetProductDetail(s.ctx, s.business, 9999)
	s.ErrorIs(err, ErrNotFound)
}

func (s *ProductServiceTestSuite) TestDetailIsCachedAndInvalidated() {
	created, err := s.service.CreateProduct(s.ctx, s.business, shirtRequest())
	s.Require().NoError(err)
	key := productCacheKey(created.ID)

	detail, err := s.service.GetProductDetail(s.ctx, s.business, created.ID)
	s.Require().NoError(err)
	s.Equal("Shirt", detail.Name)
	s.True(s.cache.has(key))

	// cached entries still enforce ownership
	_, other := createBusiness(s.T(), s.db, "luis")
	_, err = s.service.GetProductDetail(s.ctx, other, created.ID)
	s.ErrorIs(err, ErrForbidden)

	_, err = s.service.UpdateProduct(s.ctx, s.business, created.ID, &UpdateProductRequest{Name: stringPtr("Camisa")})
	s.Require().NoError(err)
	s.False(s.cache.has(key))

	detail, err = s.service.GetProductDetail(s.ctx, s.business, created.ID)
	s.Require().NoError(err)
	s.Equal("Camisa", detail.Name)
}

func (s *ProductServiceTestSuite) TestDeleteProductRemovesAggregate() {
	category := createCategory(s.T(), s.db, s.business, "Ropa")
	req := shirtRequest()
	req.CategoryIDs = []uint{category.ID}
	created, err := s.service.CreateProduct(s.ctx, s.business, req)
	s.Require().NoError(err)

	_, err = s.service.AddImages(s.ctx, s.business, created.ID, imageFileHeaders(s.T(), map[string][]byte{"a.png": pngHeader}))
	s.Require().NoError(err)

	s.Require().NoError(s.service.DeleteProduct(s.ctx, s.business, created.ID))

	for _, model := range []interface{}{
		&models.Product{},
		&models.Inventory{},
		&models.Attribute{},
		&models.ProductVariant{},
		&models.VariantAttribute{},
		&models.InventoryVariant{},
		&models.ProductImage{},
	} {
		s.Equal(int64(0), countRows(s.T(), s.db, model, ""), "%T", model)
	}
	s.Equal(int64(1), countRows(s.T(), s.db, &models.Category{}, ""))
	s.Equal(int64(2), countRows(s.T(), s.db, &models.AttributeName{}, ""), "vocabulary outlives products")

	_, err = s.service.GetProductDetail(s.ctx, s.business, created.ID)
	s.ErrorIs(err, ErrNotFound)
}

func (s *ProductServiceTestSuite) TestListByBusiness() {
	for _, name := range []string{"Arroz", "Azúcar", "Café"} {
		price := decimal.NewFromInt(1)
		_, err := s.service.CreateProduct(s.ctx, s.business, &CreateProductRequest{Name: name, PriceBase: &price})
		s.Require().NoError(err)
	}

	params := utils.PaginationParams{Page: 1, Limit: 2, Sort: "name", Order: "asc"}
	products, total, err := s.service.ListByBusiness(s.ctx, s.owner.ID, s.business.ID, params)
	s.Require().NoError(err)
	s.Equal(int64(3), total)
	s.Require().Len(products, 2)
	s.Equal("Arroz", products[0].Name)

	params.Search = "caf"
	products, total, err = s.service.ListByBusiness(s.ctx, s.owner.ID, s.business.ID, params)
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal("Café", products[0].Name)

	intruder := createUser(s.T(), s.db, "luis")
	_, _, err = s.service.ListByBusiness(s.ctx, intruder.ID, s.business.ID, params)
	s.ErrorIs(err, ErrForbidden)

	_, _, err = s.service.ListByBusiness(s.ctx, s.owner.ID, 9999, params)
	s.ErrorIs(err, ErrNotFound)
}

func (s *ProductServiceTestSuite) TestAddImages() {
	created, err := s.service.CreateProduct(s.ctx, s.business, shirtRequest())
	s.Require().NoError(err)

	images, err := s.service.AddImages(s.ctx, s.business, created.ID, imageFileHeaders(s.T(), map[string][]byte{"frente.png": pngHeader}))
	s.Require().NoError(err)
	s.Require().Len(images, 1)
	s.Contains(images[0].Imagen, "http://media.test/productos/")

	_, err = s.service.AddImages(s.ctx, s.business, created.ID, imageFileHeaders(s.T(), map[string][]byte{"notas.png": []byte("not an image")}))
	s.ErrorIs(err, ErrValidation)

	detail, err := s.service.GetProductDetail(s.ctx, s.business, created.ID)
	s.Require().NoError(err)
	s.Len(detail.Images, 1)
}

func (s *ProductServiceTestSuite) TestUnitsOfMeasure() {
	units := UnitsOfMeasure()
	s.Equal([]UnitOfMeasureView{
		{Value: "unidad", Label: "Unidad"},
		{Value: "kg", Label: "Kilogramo"},
		{Value: "litro", Label: "Litro"},
		{Value: "docena", Label: "Docena"},
	}, units)
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/mercadito/backoffice/internal/database/dbtest"
	"github.com/mercadito/backoffice/internal/models"
)

type SaleServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	sales    *SaleService
	seller   *models.User
	business *models.Business
	product  *ProductDetail
	method   models.PaymentMethod
	ctx      context.Context
}

func (s *SaleServiceTestSuite) SetupTest() {
	s.db = dbtest.New(s.T())
	s.sales = NewSaleService(s.db)
	s.seller, s.business = createBusiness(s.T(), s.db, "ana")
	s.ctx = context.Background()

	products := NewProductService(s.db, NewAttributeVocabulary(s.db), localStorage(s.T()), nil, time.Minute)
	product, err := products.CreateProduct(s.ctx, s.business, shirtRequest())
	s.Require().NoError(err)
	s.product = product

	s.Require().NoError(s.db.Where("name = ?", "Efectivo").First(&s.method).Error)
}

func TestSaleServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SaleServiceTestSuite))
}

func (s *SaleServiceTestSuite) TestListPaymentMethods() {
	methods, err := s.sales.ListPaymentMethods(s.ctx)
	s.Require().NoError(err)
	s.Len(methods, 4)
	s.Equal("Efectivo", methods[0].Name)
}

func (s *SaleServiceTestSuite) TestRecordSaleComputesTotals() {
	variantID := s.product.Variants[0].ID
	special := decimal.RequireFromString("8.50")

	sale, err := s.sales.RecordSale(s.ctx, s.seller.ID, &RecordSaleRequest{
		BusinessID:      s.business.ID,
		PaymentMethodID: s.method.ID,
		Items: []SaleItemInput{
			{ProductID: s.product.ID, Quantity: decimal.NewFromInt(2)},
			{ProductID: s.product.ID, VariantID: &variantID, Quantity: decimal.RequireFromString("1.5"), UnitPrice: &special},
		},
	})
	s.Require().NoError(err)

	s.Require().Len(sale.Items, 2)
	s.Equal("20.00", sale.Items[0].Subtotal.StringFixed(2))
	s.Equal("10.00", sale.Items[0].UnitPrice.StringFixed(2))
	s.Equal("12.75", sale.Items[1].Subtotal.StringFixed(2))
	s.Equal("32.75", sale.TotalAmount.StringFixed(2))
	s.Equal(int64(2), countRows(s.T(), s.db, &models.SaleItem{}, "sale_id = ?", sale.ID))
}

func (s *SaleServiceTestSuite) TestRecordSaleRoundsLinesToStoredPrecision() {
	odd := decimal.RequireFromString("3.333")

	sale, err := s.sales.RecordSale(s.ctx, s.seller.ID, &RecordSaleRequest{
		BusinessID:      s.business.ID,
		PaymentMethodID: s.method.ID,
		Items: []SaleItemInput{
			{ProductID: s.product.ID, Quantity: decimal.RequireFromString("1.005")},
			{ProductID: s.product.ID, Quantity: decimal.NewFromInt(3), UnitPrice: &odd},
		},
	})
	s.Require().NoError(err)

	var items []models.SaleItem
	s.Require().NoError(s.db.Where("sale_id = ?", sale.ID).Order("id ASC").Find(&items).Error)
	s.Require().Len(items, 2)

	s.Equal("1.01", items[0].Quantity.StringFixed(2))
	s.Equal("10.10", items[0].Subtotal.StringFixed(2))
	s.Equal("3.33", items[1].UnitPrice.StringFixed(2))
	s.Equal("9.99", items[1].Subtotal.StringFixed(2))
	for _, item := range items {
		s.True(item.Quantity.Mul(item.UnitPrice).Equal(item.Subtotal), "%s x %s != %s", item.Quantity, item.UnitPrice, item.Subtotal)
	}
	s.Equal("20.09", sale.TotalAmount.StringFixed(2))

	_, err = s.sales.RecordSale(s.ctx, s.seller.ID, &RecordSaleRequest{
		BusinessID:      s.business.ID,
		PaymentMethodID: s.method.ID,
		Items:           []SaleItemInput{{ProductID: s.product.ID, Quantity: decimal.RequireFromString("0.004")}},
	})
	s.ErrorIs(err, ErrValidation)
}

func (s *SaleServiceTestSuite) TestRecordSaleRejectsForeignProducts() {
	_, other := createBusiness(s.T(), s.db, "luis")
	price := decimal.NewFromInt(1)
	foreign, err := NewProductService(s.db, NewAttributeVocabulary(s.db), localStorage(s.T()), nil, time.Minute).
		CreateProduct(s.ctx, other, &CreateProductRequest{Name: "Pan", PriceBase: &price})
	s.Require().NoError(err)

	_, err = s.sales.RecordSale(s.ctx, s.seller.ID, &RecordSaleRequest{
		BusinessID:      s.business.ID,
		PaymentMethodID: s.method.ID,
		Items: []SaleItemInput{
			{ProductID: s.product.ID, Quantity: decimal.NewFromInt(1)},
			{ProductID: foreign.ID, Quantity: decimal.NewFromInt(1)},
		},
	})
	s.ErrorIs(err, ErrValidation)
	s.Equal(int64(0), countRows(s.T(), s.db, &models.Sale{}, ""))
}

func (s *SaleServiceTestSuite) TestRecordSaleRejectsVariantOfAnotherProduct() {
	price := decimal.NewFromInt(1)
	products := NewProductService(s.db, NewAttributeVocabulary(s.db), localStorage(s.T()), nil, time.Minute)
	other, err := products.CreateProduct(s.ctx, s.business, &CreateProductRequest{Name: "Pan", PriceBase: &price})
	s.Require().NoError(err)

	variantID := s.product.Variants[0].ID
	_, err = s.sales.RecordSale(s.ctx, s.seller.ID, &RecordSaleRequest{
		BusinessID:      s.business.ID,
		PaymentMethodID: s.method.ID,
		Items:           []SaleItemInput{{ProductID: other.ID, VariantID: &variantID, Quantity: decimal.NewFromInt(1)}},
	})
	s.ErrorIs(err, ErrValidation)
}

func (s *SaleServiceTestSuite) TestRecordSaleRequiresOwnership() {
	intruder := createUser(s.T(), s.db, "luis")

	_, err := s.sales.RecordSale(s.ctx, intruder.ID, &RecordSaleRequest{
		BusinessID:      s.business.ID,
		PaymentMethodID: s.method.ID,
		Items:           []SaleItemInput{{ProductID: s.product.ID, Quantity: decimal.NewFromInt(1)}},
	})
	s.ErrorIs(err, ErrForbidden)
}

func (s *SaleServiceTestSuite) TestRecordSaleValidatesPayload() {
	_, err := s.sales.RecordSale(s.ctx, s.seller.ID, &RecordSaleRequest{BusinessID: s.business.ID, PaymentMethodID: s.method.ID})
	s.ErrorIs(err, ErrValidation)

	_, err = s.sales.RecordSale(s.ctx, s.seller.ID, &RecordSaleRequest{
		BusinessID:      s.business.ID,
		PaymentMethodID: s.method.ID,
		Items:           []SaleItemInput{{ProductID: s.product.ID, Quantity: decimal.Zero}},
	})
	s.ErrorIs(err, ErrValidation)

	_, err = s.sales.RecordSale(s.ctx, s.seller.ID, &RecordSaleRequest{
		BusinessID:      s.business.ID,
		PaymentMethodID: 9999,
		Items:           []SaleItemInput{{ProductID: s.product.ID, Quantity: decimal.NewFromInt(1)}},
	})
	s.ErrorIs(err, ErrValidation)
}

func (s *SaleServiceTestSuite) TestListByBusinessNewestFirst() {
	older := time.Now().Add(-48 * time.Hour)
	for _, date := range []*time.Time{&older, nil} {
		_, err := s.sales.RecordSale(s.ctx, s.seller.ID, &RecordSaleRequest{
			BusinessID:      s.business.ID,
			PaymentMethodID: s.method.ID,
			SaleDate:        date,
			Items:           []SaleItemInput{{ProductID: s.product.ID, Quantity: decimal.NewFromInt(1)}},
		})
		s.Require().NoError(err)
	}

	sales, err := s.sales.ListByBusiness(s.ctx, s.seller.ID, s.business.ID)
	s.Require().NoError(err)
	s.Require().Len(sales, 2)
	s.True(sales[0].SaleDate.After(sales[1].SaleDate))
	s.Len(sales[0].Items, 1)
	s.Require().NotNil(sales[0].PaymentMethod)
	s.Equal("Efectivo", sales[0].PaymentMethod.Name)

	intruder := createUser(s.T(), s.db, "luis")
	_, err = s.sales.ListByBusiness(s.ctx, intruder.ID, s.business.ID)
	s.ErrorIs(err, ErrForbidden)
}

func (s *SaleServiceTestSuite) TestDeletingVariantKeepsSaleLine() {
	variantID := s.product.Variants[0].ID
	sale, err := s.sales.RecordSale(s.ctx, s.seller.ID, &RecordSaleRequest{
		BusinessID:      s.business.ID,
		PaymentMethodID: s.method.ID,
		Items:           []SaleItemInput{{ProductID: s.product.ID, VariantID: &variantID, Quantity: decimal.NewFromInt(1)}},
	})
	s.Require().NoError(err)

	products := NewProductService(s.db, NewAttributeVocabulary(s.db), localStorage(s.T()), nil, time.Minute)
	_, err = products.UpdateProduct(s.ctx, s.business, s.product.ID, &UpdateProductRequest{Variants: &[]VariantInput{}})
	s.Require().NoError(err)

	var item models.SaleItem
	s.Require().NoError(s.db.Where("sale_id = ?", sale.ID).First(&item).Error)
	s.Nil(item.VariantID)
}

// internal/services/catalog_service_test.go
package services

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/javajoker/apparel-inventory/internal/models"
	"github.com/javajoker/apparel-inventory/internal/utils"
)

func (s *ServiceTestSuite) TestListProductTypesSeeded() {
	types, err := s.catalog.ListProductTypes(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(types, 2)
	s.Equal(models.ProductTypeHoodie, types[0].Name)
	s.Equal(models.ProductTypeJacket, types[1].Name)
}

func (s *ServiceTestSuite) TestCreateProductNormalizesType() {
	product, err := s.catalog.CreateProduct(s.ctx, &CreateProductRequest{
		SKU:         "  JAC-010 ",
		Name:        "Chaqueta Ligera",
		ProductType: " jacket",
	})
	s.Require().NoError(err)
	s.Equal("JAC-010", product.SKU)
	s.Equal(models.ProductTypeJacket, product.ProductType.Name)
}

func (s *ServiceTestSuite) TestCreateProductRejectsUnknownType() {
	_, err := s.catalog.CreateProduct(s.ctx, &CreateProductRequest{SKU: "CAP-001", Name: "Cap", ProductType: "Cap"})
	var validationErr *ValidationError
	s.True(errors.As(err, &validationErr))
	s.Zero(s.count(&models.Product{}))
}

func (s *ServiceTestSuite) TestCreateProductDuplicateSKU() {
	s.createProduct("HOO-001")

	_, err := s.catalog.CreateProduct(s.ctx, &CreateProductRequest{SKU: "HOO-001", Name: "Other", ProductType: "Hoodie"})
	var unique *UniquenessViolation
	s.Require().True(errors.As(err, &unique))
	s.Equal("sku", unique.Field)
	s.Equal("HOO-001", unique.Value)
	s.Equal(int64(1), s.count(&models.Product{}))
}

func (s *ServiceTestSuite) TestCreateVariantWritesInitialStockMovement() {
	variant := s.createVariant("HOO-011", 119000, 10)
	s.Equal(10, variant.Stock)

	var movements []models.InventoryMovement
	s.Require().NoError(s.db.Where("variant_id = ?", variant.ID).Find(&movements).Error)
	s.Require().Len(movements, 1)
	s.Equal(10, movements[0].Change)
	s.Equal(models.ReasonInitialStock, movements[0].Reason)
	s.Require().NotNil(movements[0].Reference)
	s.Equal(models.ReferenceInit, *movements[0].Reference)
}

func (s *ServiceTestSuite) TestCreateVariantWithoutStockWritesNoMovement() {
	variant := s.createVariant("HOO-012", 119000, 0)
	s.Equal(0, s.stockOf(variant.ID))
	s.Zero(s.count(&models.InventoryMovement{}))
}

func (s *ServiceTestSuite) TestCreateVariantValidation() {
	product := s.createProduct("HOO-013")

	_, err := s.catalog.CreateVariant(s.ctx, product.ID, &CreateVariantRequest{Size: "M", Color: "Red", Stock: -1})
	var validationErr *ValidationError
	s.True(errors.As(err, &validationErr))

	_, err = s.catalog.CreateVariant(s.ctx, product.ID, &CreateVariantRequest{Size: "M", Color: "Red", Price: decimal.NewFromInt(-5)})
	s.True(errors.As(err, &validationErr))

	_, err = s.catalog.CreateVariant(s.ctx, 999, &CreateVariantRequest{Size: "M", Color: "Red"})
	var notFound *NotFoundError
	s.True(errors.As(err, &notFound))

	s.Zero(s.count(&models.Variant{}))
}

func (s *ServiceTestSuite) TestGetProductWithVariants() {
	product := s.createProduct("HOO-014")
	for _, size := range []string{"S", "M"} {
		_, err := s.catalog.CreateVariant(s.ctx, product.ID, &CreateVariantRequest{Size: size, Color: "Gris", Price: decimal.NewFromInt(50)})
		s.Require().NoError(err)
	}

	loaded, err := s.catalog.GetProduct(s.ctx, product.ID)
	s.Require().NoError(err)
	s.Equal(models.ProductTypeHoodie, loaded.ProductType.Name)
	s.Require().Len(loaded.Variants, 2)
	s.Equal("S", loaded.Variants[0].Size)

	_, err = s.catalog.GetProduct(s.ctx, 999)
	var notFound *NotFoundError
	s.True(errors.As(err, &notFound))
}

func (s *ServiceTestSuite) TestListProductsSearch() {
	s.createProduct("HOO-015")
	s.createProduct("HOO-016")
	_, err := s.catalog.CreateProduct(s.ctx, &CreateProductRequest{SKU: "JAC-015", Name: "Rain Jacket", ProductType: "Jacket"})
	s.Require().NoError(err)

	params := utils.DefaultPagination()
	params.Search = "jac"
	products, total, err := s.catalog.ListProducts(s.ctx, params)
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Require().Len(products, 1)
	s.Equal("JAC-015", products[0].SKU)

	params.Search = ""
	params.Limit = 2
	products, total, err = s.catalog.ListProducts(s.ctx, params)
	s.Require().NoError(err)
	s.Equal(int64(3), total)
	s.Len(products, 2)
}

func (s *ServiceTestSuite) TestListVariantsByProduct() {
	first := s.createVariant("HOO-017", 10, 1)
	s.createVariant("HOO-018", 10, 1)

	productID := first.ProductID
	variants, total, err := s.catalog.ListVariants(s.ctx, VariantSearchParams{
		PaginationParams: utils.DefaultPagination(),
		ProductID:        &productID,
	})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Require().Len(variants, 1)
	s.Equal(first.ID, variants[0].ID)
	s.Require().NotNil(variants[0].Product)
	s.Equal("HOO-017", variants[0].Product.SKU)
}

func (s *ServiceTestSuite) TestUpdateVariantPrice() {
	variant := s.createVariant("HOO-019", 100, 1)

	updated, err := s.catalog.UpdateVariantPrice(s.ctx, variant.ID, &UpdateVariantPriceRequest{Price: decimal.RequireFromString("129.90")})
	s.Require().NoError(err)
	s.True(decimal.RequireFromString("129.90").Equal(updated.Price))

	_, err = s.catalog.UpdateVariantPrice(s.ctx, 999, &UpdateVariantPriceRequest{Price: decimal.NewFromInt(1)})
	var notFound *NotFoundError
	s.True(errors.As(err, &notFound))
}

func (s *ServiceTestSuite) TestDeleteProductCascades() {
	variant := s.createVariant("HOO-020", 100, 5)
	_, err := s.inventory.AddMovement(s.ctx, variant.ID, 2, "Restock", "")
	s.Require().NoError(err)

	s.Require().NoError(s.catalog.DeleteProduct(s.ctx, variant.ProductID))

	s.Zero(s.count(&models.Product{}))
	s.Zero(s.count(&models.Variant{}))
	s.Zero(s.count(&models.InventoryMovement{}))

	err = s.catalog.DeleteProduct(s.ctx, variant.ProductID)
	var notFound *NotFoundError
	s.True(errors.As(err, &notFound))
}

func (s *ServiceTestSuite) TestDeleteSoldProductConflicts() {
	variant := s.createVariant("HOO-021", 100, 5)
	_, err := s.orders.CreateOrder(s.ctx, "Alice", []OrderLine{{VariantID: variant.ID, Quantity: 1}})
	s.Require().NoError(err)

	err = s.catalog.DeleteProduct(s.ctx, variant.ProductID)
	var conflict *ConflictError
	s.Require().True(errors.As(err, &conflict))
	s.Equal(int64(1), s.count(&models.Product{}))
	s.Equal(4, s.stockOf(variant.ID))
}

func (s *ServiceTestSuite) TestSeedDemoCatalogOnce() {
	s.Require().NoError(s.catalog.SeedDemoCatalog(s.ctx))
	s.Require().NoError(s.catalog.SeedDemoCatalog(s.ctx))

	s.Equal(int64(2), s.count(&models.Product{}))
	s.Equal(int64(3), s.count(&models.Variant{}))
	s.Equal(int64(3), s.count(&models.InventoryMovement{}))

	stats, err := s.reports.DashboardStats(s.ctx, 5)
	s.Require().NoError(err)
	s.Equal(int64(33), stats.TotalStock)
}

// internal/services/catalog_service.go
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/apparel-inventory/internal/database"
	"github.com/javajoker/apparel-inventory/internal/models"
	"github.com/javajoker/apparel-inventory/internal/utils"
)

type CatalogService struct {
	db        *gorm.DB
	inventory *InventoryService
}

type CreateProductRequest struct {
	SKU         string `json:"sku" validate:"required,max=64"`
	Name        string `json:"name" validate:"required,max=120"`
	ProductType string `json:"product_type" validate:"required,product_type"`
}

type CreateVariantRequest struct {
	Size  string          `json:"size" validate:"required,max=20"`
	Color string          `json:"color" validate:"required,max=30"`
	Price decimal.Decimal `json:"price" validate:"gte=0"`
	Stock int             `json:"stock" validate:"gte=0"`
}

type UpdateVariantPriceRequest struct {
	Price decimal.Decimal `json:"price" validate:"gte=0"`
}

type VariantSearchParams struct {
	utils.PaginationParams
	ProductID *uint `json:"product_id,omitempty"`
}

func NewCatalogService(db *gorm.DB, inventory *InventoryService) *CatalogService {
	return &CatalogService{
		db:        db,
		inventory: inventory,
	}
}

func (s *CatalogService) ListProductTypes(ctx context.Context) ([]models.ProductType, error) {
	var types []models.ProductType
	if err := s.db.WithContext(ctx).Order("id asc").Find(&types).Error; err != nil {
		return nil, &PersistenceError{Op: "list product types", Err: err}
	}
	return types, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*models.Product, error) {
	req.SKU = strings.TrimSpace(req.SKU)
	req.Name = strings.TrimSpace(req.Name)
	req.ProductType = strings.TrimSpace(req.ProductType)

	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, newValidationError("", err.Error())
	}

	var product *models.Product
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		p, err := s.createProductTx(tx, req)
		product = p
		return err
	})
	if err != nil {
		return nil, classifyError("create product", err, &UniquenessViolation{Field: "sku", Value: req.SKU})
	}

	logrus.WithFields(logrus.Fields{
		"product_id": product.ID,
		"sku":        product.SKU,
	}).Info("Product created")
	return product, nil
}

// createProductTx expects an already validated request.
func (s *CatalogService) createProductTx(tx *gorm.DB, req *CreateProductRequest) (*models.Product, error) {
	var existing int64
	if err := tx.Model(&models.Product{}).Where("sku = ?", req.SKU).Count(&existing).Error; err != nil {
		return nil, &PersistenceError{Op: "check sku", Err: err}
	}
	if existing > 0 {
		return nil, &UniquenessViolation{Field: "sku", Value: req.SKU}
	}

	productType, err := s.findProductType(tx, req.ProductType)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		SKU:           req.SKU,
		Name:          req.Name,
		ProductTypeID: productType.ID,
	}
	if err := tx.Create(product).Error; err != nil {
		return nil, classifyError("create product", err, &UniquenessViolation{Field: "sku", Value: req.SKU})
	}
	product.ProductType = *productType
	return product, nil
}

func (s *CatalogService) findProductType(tx *gorm.DB, name string) (*models.ProductType, error) {
	normalized := utils.NormalizeProductType(name)
	if !utils.IsKnownProductType(string(normalized)) {
		return nil, newValidationError("product_type", "must be Hoodie or Jacket")
	}

	var productType models.ProductType
	if err := tx.Where("name = ?", normalized).First(&productType).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newValidationError("product_type", "is not seeded")
		}
		return nil, &PersistenceError{Op: "load product type", Err: err}
	}
	return &productType, nil
}

// CreateVariant adds a variant to a product. A nonzero initial stock is
// written through the ledger in the same transaction.
func (s *CatalogService) CreateVariant(ctx context.Context, productID uint, req *CreateVariantRequest) (*models.Variant, error) {
	req.Size = strings.TrimSpace(req.Size)
	req.Color = strings.TrimSpace(req.Color)

	if err := utils.ValidateStruct(req); err != nil {
		return nil, newValidationError("", err.Error())
	}

	var (
		variant  *models.Variant
		movement *models.InventoryMovement
	)
	err := s.inventory.serialize(func() error {
		return database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
			var product models.Product
			if err := tx.Preload("ProductType").First(&product, productID).Error; err != nil {
				return notFoundOr("load product", "product", productID, err)
			}

			v, m, err := s.createVariantTx(tx, &product, req)
			variant, movement = v, m
			return err
		})
	})
	if err != nil {
		return nil, classifyError("create variant", err, nil)
	}

	logrus.WithFields(logrus.Fields{
		"variant_id": variant.ID,
		"product_id": productID,
		"stock":      variant.Stock,
	}).Info("Variant created")

	if movement != nil {
		s.inventory.publishMovements(ctx, []*models.InventoryMovement{movement})
	}
	return variant, nil
}

func (s *CatalogService) createVariantTx(tx *gorm.DB, product *models.Product, req *CreateVariantRequest) (*models.Variant, *models.InventoryMovement, error) {
	variant := &models.Variant{
		ProductID: product.ID,
		Size:      req.Size,
		Color:     req.Color,
		Price:     req.Price,
		Stock:     0,
	}
	if err := tx.Create(variant).Error; err != nil {
		return nil, nil, &PersistenceError{Op: "create variant", Err: err}
	}

	var movement *models.InventoryMovement
	if req.Stock != 0 {
		m, err := s.inventory.applyMovement(tx, variant, req.Stock, models.ReasonInitialStock, models.ReferenceInit)
		if err != nil {
			return nil, nil, err
		}
		movement = m
	}

	variant.Product = product
	return variant, movement, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).
		Preload("ProductType").
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("variants.id asc") }).
		First(&product, id).Error
	if err != nil {
		return nil, notFoundOr("load product", "product", id, err)
	}
	return &product, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, params utils.PaginationParams) ([]models.Product, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Product{})
	if search := strings.TrimSpace(params.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", like, like)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, &PersistenceError{Op: "count products", Err: err}
	}

	var products []models.Product
	query = utils.ApplySort(query, params, []string{"name", "sku", "created_at"}, "name", "asc")
	if err := utils.ApplyPagination(query, params).
		Preload("ProductType").Preload("Variants").
		Find(&products).Error; err != nil {
		return nil, 0, &PersistenceError{Op: "list products", Err: err}
	}

	return products, total, nil
}

func (s *CatalogService) GetVariant(ctx context.Context, id uint) (*models.Variant, error) {
	var variant models.Variant
	if err := s.db.WithContext(ctx).Preload("Product.ProductType").First(&variant, id).Error; err != nil {
		return nil, notFoundOr("load variant", "variant", id, err)
	}
	return &variant, nil
}

func (s *CatalogService) ListVariants(ctx context.Context, params VariantSearchParams) ([]models.Variant, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Variant{})
	if params.ProductID != nil {
		query = query.Where("product_id = ?", *params.ProductID)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, &PersistenceError{Op: "count variants", Err: err}
	}

	var variants []models.Variant
	query = utils.ApplySort(query, params.PaginationParams, []string{"id", "stock", "price"}, "id", "desc")
	if err := utils.ApplyPagination(query, params.PaginationParams).
		Preload("Product.ProductType").
		Find(&variants).Error; err != nil {
		return nil, 0, &PersistenceError{Op: "list variants", Err: err}
	}

	return variants, total, nil
}

// UpdateVariantPrice changes the list price. Existing order items keep the
// price they were sold at.
func (s *CatalogService) UpdateVariantPrice(ctx context.Context, id uint, req *UpdateVariantPriceRequest) (*models.Variant, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, newValidationError("price", "must be greater than or equal to 0")
	}

	result := s.db.WithContext(ctx).Model(&models.Variant{}).
		Where("id = ?", id).
		UpdateColumn("price", req.Price)
	if result.Error != nil {
		return nil, &PersistenceError{Op: "update price", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return nil, &NotFoundError{Resource: "variant", ID: id}
	}

	return s.GetVariant(ctx, id)
}

// DeleteProduct removes the product, its variants and their movements. A
// product whose variants were sold cannot be deleted because order items
// reference those variants.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	err := s.inventory.serialize(func() error {
		return database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
			var product models.Product
			if err := tx.First(&product, id).Error; err != nil {
				return notFoundOr("load product", "product", id, err)
			}

			var variantIDs []uint
			if err := tx.Model(&models.Variant{}).Where("product_id = ?", id).Pluck("id", &variantIDs).Error; err != nil {
				return &PersistenceError{Op: "load variants", Err: err}
			}

			if len(variantIDs) > 0 {
				var sold int64
				if err := tx.Model(&models.OrderItem{}).Where("variant_id IN ?", variantIDs).Count(&sold).Error; err != nil {
					return &PersistenceError{Op: "check order items", Err: err}
				}
				if sold > 0 {
					return &ConflictError{Message: "product has variants referenced by orders"}
				}

				if err := tx.Where("variant_id IN ?", variantIDs).Delete(&models.InventoryMovement{}).Error; err != nil {
					return &PersistenceError{Op: "delete movements", Err: err}
				}
				if err := tx.Where("product_id = ?", id).Delete(&models.Variant{}).Error; err != nil {
					return &PersistenceError{Op: "delete variants", Err: err}
				}
			}

			if err := tx.Delete(&product).Error; err != nil {
				return &PersistenceError{Op: "delete product", Err: err}
			}
			return nil
		})
	})
	if err != nil {
		return classifyError("delete product", err, nil)
	}

	logrus.WithField("product_id", id).Info("Product deleted")
	return nil
}

// SeedDemoCatalog loads the demo products into an empty catalog.
func (s *CatalogService) SeedDemoCatalog(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Product{}).Count(&count).Error; err != nil {
		return &PersistenceError{Op: "count products", Err: err}
	}
	if count > 0 {
		return nil
	}

	demo := []struct {
		product  CreateProductRequest
		variants []CreateVariantRequest
	}{
		{
			product: CreateProductRequest{SKU: "HOO-001", Name: "Hoodie Clásica", ProductType: "Hoodie"},
			variants: []CreateVariantRequest{
				{Size: "S", Color: "Negro", Price: decimal.NewFromInt(119000), Stock: 10},
				{Size: "M", Color: "Gris", Price: decimal.NewFromInt(119000), Stock: 15},
			},
		},
		{
			product: CreateProductRequest{SKU: "JAC-001", Name: "Chaqueta Ligera", ProductType: "Jacket"},
			variants: []CreateVariantRequest{
				{Size: "Única", Color: "Azul", Price: decimal.NewFromInt(159000), Stock: 8},
			},
		},
	}

	for _, d := range demo {
		req := d.product
		product, err := s.CreateProduct(ctx, &req)
		if err != nil {
			return err
		}
		for _, v := range d.variants {
			vreq := v
			if _, err := s.CreateVariant(ctx, product.ID, &vreq); err != nil {
				return err
			}
		}
	}

	logrus.Info("Demo catalog seeded")
	return nil
}

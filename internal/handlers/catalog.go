// internal/handlers/catalog.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/apparel-inventory/internal/i18n"
	"github.com/javajoker/apparel-inventory/internal/services"
	"github.com/javajoker/apparel-inventory/internal/utils"
)

type CatalogHandler struct {
	catalogService *services.CatalogService
}

func NewCatalogHandler(catalogService *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

// GET /product-types
func (h *CatalogHandler) GetProductTypes(c *gin.Context) {
	types, err := h.catalogService.ListProductTypes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, types)
}

// GET /products
func (h *CatalogHandler) GetProducts(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	products, total, err := h.catalogService.ListProducts(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(products, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /products
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.catalogService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProductCreated),
		"product": product,
	})
}

// GET /products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	product, err := h.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, product)
}

// DELETE /products/:id
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.catalogService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyProductDeleted),
	})
}

// POST /products/:id/variants
func (h *CatalogHandler) CreateVariant(c *gin.Context) {
	productID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.CreateVariantRequest
	if !bindJSON(c, &req) {
		return
	}

	variant, err := h.catalogService.CreateVariant(c.Request.Context(), productID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyVariantCreated),
		"variant": variant,
	})
}

// GET /variants
func (h *CatalogHandler) GetVariants(c *gin.Context) {
	params := services.VariantSearchParams{
		PaginationParams: utils.GetPaginationParams(c),
	}

	if productIDStr := c.Query("product_id"); productIDStr != "" {
		if productID, err := strconv.ParseUint(productIDStr, 10, 64); err == nil {
			id := uint(productID)
			params.ProductID = &id
		}
	}

	variants, total, err := h.catalogService.ListVariants(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(variants, total, params.PaginationParams)
	utils.PaginatedResponse(c, result)
}

// GET /variants/:id
func (h *CatalogHandler) GetVariant(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	variant, err := h.catalogService.GetVariant(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, variant)
}

// PUT /variants/:id/price
func (h *CatalogHandler) UpdateVariantPrice(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateVariantPriceRequest
	if !bindJSON(c, &req) {
		return
	}

	variant, err := h.catalogService.UpdateVariantPrice(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyVariantPriceSaved),
		"variant": variant,
	})
}

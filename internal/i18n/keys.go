// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess           = "success"
	KeyError             = "error"
	KeyValidationInvalid = "validation.invalid"
	KeyInternalError     = "error.internal"
	KeyRateLimited       = "error.rate_limited"

	// Catalog
	KeyProductCreated     = "product.created"
	KeyProductDeleted     = "product.deleted"
	KeyProductNotFound    = "product.not_found"
	KeyProductSKUExists   = "product.sku_exists"
	KeyProductInUse       = "product.in_use"
	KeyProductTypeInvalid = "product.type_invalid"
	KeyVariantCreated     = "variant.created"
	KeyVariantNotFound    = "variant.not_found"
	KeyVariantPriceSaved  = "variant.price_updated"

	// Inventory
	KeyInventoryUpdated      = "inventory.updated"
	KeyInventoryInvalidDelta = "inventory.invalid_delta"
	KeyInventoryConsistent   = "inventory.consistent"
	KeyInventoryDrift        = "inventory.drift"

	// Orders
	KeyOrderCreated           = "order.created"
	KeyOrderNotFound          = "order.not_found"
	KeyOrderNoItems           = "order.no_items"
	KeyOrderInsufficientStock = "order.insufficient_stock"
	KeyOrderNumberTaken       = "order.number_taken"

	// Import
	KeyImportFileRequired = "import.file_required"
	KeyImportRowInvalid   = "import.row_invalid"
	KeyImportCompleted    = "import.completed"
	KeyImportUnreadable   = "import.unreadable"
)

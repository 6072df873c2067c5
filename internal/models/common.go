// internal/models/common.go
package models

import (
	"time"
)

// Base model with common fields
type BaseModel struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Enums
type ProductTypeName string

const (
	ProductTypeHoodie ProductTypeName = "Hoodie"
	ProductTypeJacket ProductTypeName = "Jacket"
)

// DefaultProductTypes is the set seeded into an empty product_types table.
var DefaultProductTypes = []ProductTypeName{ProductTypeHoodie, ProductTypeJacket}

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "PENDING"
	OrderStatusCreated OrderStatus = "CREATED"
)

// Movement reasons and references written by the ledger's callers.
const (
	ReasonInitialStock = "Initial stock"
	ReasonSale         = "Sale"
	ReasonAdjustment   = "Adjustment"

	ReferenceInit   = "init"
	ReferenceManual = "manual"
)

// OrderReference is the movement reference recorded for a sale.
func OrderReference(orderNumber string) string {
	return "order:" + orderNumber
}

// internal/models/movement.go
package models

import (
	"time"
)

// InventoryMovement is one signed stock change. Rows are append-only.
type InventoryMovement struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	VariantID uint      `json:"variant_id" gorm:"not null;index"`
	Change    int       `json:"change" gorm:"not null"` // +restock, -sale
	Reason    string    `json:"reason" gorm:"size:120;not null"`
	Reference *string   `json:"reference,omitempty" gorm:"size:120;index"`
	Timestamp time.Time `json:"timestamp" gorm:"not null;index"`

	// Balance right after this movement, only set on freshly written rows
	BalanceAfter *int `json:"balance_after,omitempty" gorm:"-"`

	// Relationships
	Variant *Variant `json:"variant,omitempty" gorm:"foreignKey:VariantID"`
}

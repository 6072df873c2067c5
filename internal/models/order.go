// internal/models/order.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID           uint        `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderNumber  string      `json:"order_number" gorm:"size:20;uniqueIndex;not null"`
	CustomerName string      `json:"customer_name" gorm:"size:120;not null"`
	CreatedAt    time.Time   `json:"created_at" gorm:"not null;index"`
	Status       OrderStatus `json:"status" gorm:"type:varchar(20);default:'CREATED';not null"`

	// Derived, never persisted
	Total decimal.Decimal `json:"total" gorm:"-"`

	// Relationships
	Items []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

type OrderItem struct {
	ID        uint            `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID   uint            `json:"order_id" gorm:"not null;index"`
	VariantID uint            `json:"variant_id" gorm:"not null;index"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"type:decimal(12,2);not null"`

	// Relationships
	Variant *Variant `json:"variant,omitempty" gorm:"foreignKey:VariantID"`
}

// LineTotal is quantity times the snapshotted unit price.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ComputeTotal fills Total from the loaded items.
func (o *Order) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	o.Total = total
	return total
}

// OrderSequence is the counter row backing order numbers.
type OrderSequence struct {
	Name  string `gorm:"primaryKey;size:50"`
	Value uint   `gorm:"not null;default:0"`
}

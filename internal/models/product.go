// internal/models/product.go
package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type ProductType struct {
	ID   uint            `json:"id" gorm:"primaryKey;autoIncrement"`
	Name ProductTypeName `json:"name" gorm:"type:varchar(50);uniqueIndex;not null"`
}

type Product struct {
	BaseModel
	SKU           string `json:"sku" gorm:"size:64;uniqueIndex;not null"`
	Name          string `json:"name" gorm:"size:120;not null"`
	ProductTypeID uint   `json:"product_type_id" gorm:"not null;index"`

	// Relationships
	ProductType ProductType `json:"product_type" gorm:"foreignKey:ProductTypeID"`
	Variants    []Variant   `json:"variants,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// Variant is a size/color/price combination of a Product. Stock is the
// cached sum of the variant's movements and is only written by the ledger.
type Variant struct {
	BaseModel
	ProductID uint            `json:"product_id" gorm:"not null;index"`
	Size      string          `json:"size" gorm:"size:20;not null"`
	Color     string          `json:"color" gorm:"size:30;not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null;default:0"`
	Stock     int             `json:"stock" gorm:"not null;default:0"`

	// Relationships
	Product   *Product            `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Movements []InventoryMovement `json:"movements,omitempty" gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE"`
}

// Label renders the variant the way it is shown to customers and in exports.
func (v *Variant) Label() string {
	name := ""
	if v.Product != nil {
		name = v.Product.Name
	}
	return fmt.Sprintf("%s %s/%s", name, v.Size, v.Color)
}

// internal/services/order_number.go
package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/javajoker/apparel-inventory/internal/database"
	"github.com/javajoker/apparel-inventory/internal/models"
)

const (
	orderSequenceName  = "orders"
	orderNumberDigits  = 6
	orderNumberPattern = "%0*d"
)

// FormatOrderNumber renders n as a fixed-width, zero-padded order number.
func FormatOrderNumber(n uint) string {
	return fmt.Sprintf(orderNumberPattern, orderNumberDigits, n)
}

// NextOrderNumber allocates a number outside of an order. The number is
// consumed even if no order ever uses it.
func (s *OrderService) NextOrderNumber(ctx context.Context) (string, error) {
	var number string
	err := s.inventory.serialize(func() error {
		return database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
			n, err := nextOrderNumber(tx)
			number = n
			return err
		})
	})
	if err != nil {
		return "", classifyError("allocate order number", err, nil)
	}
	return number, nil
}

// nextOrderNumber bumps the counter row inside tx, so a rolled back order
// gives its number back. The counter starts from the highest existing order
// id the first time it is used.
func nextOrderNumber(tx *gorm.DB) (string, error) {
	var seq models.OrderSequence
	err := tx.Where("name = ?", orderSequenceName).First(&seq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		var maxID uint
		if err := tx.Model(&models.Order{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
			return "", &PersistenceError{Op: "read last order id", Err: err}
		}
		seq = models.OrderSequence{Name: orderSequenceName, Value: maxID}
		if err := tx.Create(&seq).Error; err != nil {
			return "", &PersistenceError{Op: "create order sequence", Err: err}
		}
	} else if err != nil {
		return "", &PersistenceError{Op: "load order sequence", Err: err}
	}

	if err := tx.Model(&models.OrderSequence{}).
		Where("name = ?", orderSequenceName).
		UpdateColumn("value", gorm.Expr("value + ?", 1)).Error; err != nil {
		return "", &PersistenceError{Op: "bump order sequence", Err: err}
	}
	if err := tx.Where("name = ?", orderSequenceName).First(&seq).Error; err != nil {
		return "", &PersistenceError{Op: "load order sequence", Err: err}
	}

	return FormatOrderNumber(seq.Value), nil
}

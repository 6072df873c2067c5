// internal/services/inventory_service.go
package services

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/apparel-inventory/internal/database"
	"github.com/javajoker/apparel-inventory/internal/messaging"
	"github.com/javajoker/apparel-inventory/internal/models"
	"github.com/javajoker/apparel-inventory/internal/utils"
)

// InventoryService is the movement ledger. Every stock change goes through
// applyMovement so that a variant's stock always equals the sum of its
// movements.
type InventoryService struct {
	db        *gorm.DB
	publisher messaging.Publisher

	// writeMu serialises every read-check-write sequence on stock and order
	// numbers. The catalog and the order engine share it.
	writeMu sync.Mutex
}

type AdjustStockRequest struct {
	Delta  int    `json:"delta"`
	Reason string `json:"reason" validate:"max=120"`
}

// StockDrift is a variant whose cached stock differs from its movement log.
type StockDrift struct {
	VariantID   uint   `json:"variant_id"`
	SKU         string `json:"sku"`
	Size        string `json:"size"`
	Color       string `json:"color"`
	CachedStock int    `json:"cached_stock"`
	LedgerStock int    `json:"ledger_stock"`
	Difference  int    `json:"difference"`
}

type ReconcileReport struct {
	CheckedVariants int          `json:"checked_variants"`
	Drifts          []StockDrift `json:"drifts"`
}

func NewInventoryService(db *gorm.DB, publisher messaging.Publisher) *InventoryService {
	if publisher == nil {
		publisher = messaging.NewLogPublisher(nil)
	}
	return &InventoryService{
		db:        db,
		publisher: publisher,
	}
}

// AddMovement records delta against the variant and updates its balance in
// one transaction. Negative balances are allowed here; the sale path checks
// availability before calling the ledger.
func (s *InventoryService) AddMovement(ctx context.Context, variantID uint, delta int, reason, reference string) (*models.InventoryMovement, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, newValidationError("reason", "is required")
	}

	var movement *models.InventoryMovement
	err := s.serialize(func() error {
		return database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
			var variant models.Variant
			if err := tx.First(&variant, variantID).Error; err != nil {
				return notFoundOr("load variant", "variant", variantID, err)
			}

			m, err := s.applyMovement(tx, &variant, delta, reason, reference)
			if err != nil {
				return err
			}
			m.Variant = &variant
			movement = m
			return nil
		})
	})
	if err != nil {
		return nil, classifyError("add movement", err, nil)
	}

	logrus.WithFields(logrus.Fields{
		"variant_id": variantID,
		"change":     delta,
		"balance":    *movement.BalanceAfter,
		"reason":     reason,
		"reference":  reference,
	}).Info("Inventory movement recorded")

	s.publishMovements(ctx, []*models.InventoryMovement{movement})
	return movement, nil
}

// AdjustStock is the manual correction path.
func (s *InventoryService) AdjustStock(ctx context.Context, variantID uint, req *AdjustStockRequest) (*models.InventoryMovement, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, newValidationError("reason", err.Error())
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = models.ReasonAdjustment
	}
	return s.AddMovement(ctx, variantID, req.Delta, reason, models.ReferenceManual)
}

// applyMovement must run inside tx. It bumps the stored balance with a SQL
// expression and appends the movement row; variant.Stock is updated to match.
func (s *InventoryService) applyMovement(tx *gorm.DB, variant *models.Variant, delta int, reason, reference string) (*models.InventoryMovement, error) {
	result := tx.Model(&models.Variant{}).
		Where("id = ?", variant.ID).
		UpdateColumn("stock", gorm.Expr("stock + ?", delta))
	if result.Error != nil {
		return nil, &PersistenceError{Op: "update stock", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return nil, &NotFoundError{Resource: "variant", ID: variant.ID}
	}

	movement := &models.InventoryMovement{
		VariantID: variant.ID,
		Change:    delta,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	}
	if reference != "" {
		movement.Reference = &reference
	}
	if err := tx.Create(movement).Error; err != nil {
		return nil, &PersistenceError{Op: "create movement", Err: err}
	}

	variant.Stock += delta
	balance := variant.Stock
	movement.BalanceAfter = &balance
	return movement, nil
}

func (s *InventoryService) ListMovements(ctx context.Context, variantID uint, params utils.PaginationParams) ([]models.InventoryMovement, int64, error) {
	db := s.db.WithContext(ctx)

	var variant models.Variant
	if err := db.First(&variant, variantID).Error; err != nil {
		return nil, 0, notFoundOr("load variant", "variant", variantID, err)
	}

	query := db.Model(&models.InventoryMovement{}).Where("variant_id = ?", variantID).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, &PersistenceError{Op: "count movements", Err: err}
	}

	var movements []models.InventoryMovement
	if err := utils.ApplyPagination(query.Order("id desc"), params).Find(&movements).Error; err != nil {
		return nil, 0, &PersistenceError{Op: "list movements", Err: err}
	}

	return movements, total, nil
}

// Reconcile recomputes every balance from the movement log and reports the
// variants whose cached stock has drifted. It never repairs.
func (s *InventoryService) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	type row struct {
		VariantID   uint
		SKU         string
		Size        string
		Color       string
		CachedStock int
		LedgerStock int
	}

	var rows []row
	err := s.db.WithContext(ctx).
		Table("variants").
		Select("variants.id AS variant_id, products.sku AS sku, variants.size AS size, variants.color AS color, " +
			"variants.stock AS cached_stock, COALESCE(SUM(inventory_movements.change), 0) AS ledger_stock").
		Joins("JOIN products ON products.id = variants.product_id").
		Joins("LEFT JOIN inventory_movements ON inventory_movements.variant_id = variants.id").
		Group("variants.id, products.sku, variants.size, variants.color, variants.stock").
		Order("variants.id").
		Scan(&rows).Error
	if err != nil {
		return nil, &PersistenceError{Op: "reconcile stock", Err: err}
	}

	report := &ReconcileReport{CheckedVariants: len(rows), Drifts: []StockDrift{}}
	for _, r := range rows {
		if r.CachedStock == r.LedgerStock {
			continue
		}
		report.Drifts = append(report.Drifts, StockDrift{
			VariantID:   r.VariantID,
			SKU:         r.SKU,
			Size:        r.Size,
			Color:       r.Color,
			CachedStock: r.CachedStock,
			LedgerStock: r.LedgerStock,
			Difference:  r.CachedStock - r.LedgerStock,
		})
	}

	if len(report.Drifts) > 0 {
		logrus.WithField("drifts", len(report.Drifts)).Warn("Stock drift detected")
	}
	return report, nil
}

func variantKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func (s *InventoryService) serialize(fn func() error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return fn()
}

func (s *InventoryService) publishMovements(ctx context.Context, movements []*models.InventoryMovement) {
	for _, m := range movements {
		event := messaging.StockMovementEvent{
			Envelope:   messaging.NewEnvelope(),
			MovementID: m.ID,
			VariantID:  m.VariantID,
			Change:     m.Change,
			Reason:     m.Reason,
		}
		if m.BalanceAfter != nil {
			event.Balance = *m.BalanceAfter
		}
		if m.Reference != nil {
			event.Reference = *m.Reference
		}
		publish(ctx, s.publisher, messaging.TopicStockMovement, variantKey(m.VariantID), event)
	}
}

// publish is best-effort: the data is already committed.
func publish(ctx context.Context, publisher messaging.Publisher, topic, key string, event any) {
	if err := publisher.PublishEvent(ctx, topic, key, event); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"topic": topic,
			"key":   key,
		}).Warn("Failed to publish event")
	}
}

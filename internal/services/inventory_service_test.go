// internal/services/inventory_service_test.go
package services

import (
	"errors"

	"github.com/javajoker/apparel-inventory/internal/messaging"
	"github.com/javajoker/apparel-inventory/internal/models"
	"github.com/javajoker/apparel-inventory/internal/utils"
)

func (s *ServiceTestSuite) TestAddMovementUpdatesStockAndLog() {
	product := s.createProduct("HOO-001")
	variant, err := s.catalog.CreateVariant(s.ctx, product.ID, &CreateVariantRequest{Size: "S", Color: "Black"})
	s.Require().NoError(err)
	s.Equal(0, s.stockOf(variant.ID))
	s.Zero(s.count(&models.InventoryMovement{}))

	movement, err := s.inventory.AddMovement(s.ctx, variant.ID, 10, models.ReasonInitialStock, "")
	s.Require().NoError(err)

	s.Equal(10, movement.Change)
	s.Equal(10, *movement.BalanceAfter)
	s.Nil(movement.Reference)
	s.Equal(10, s.stockOf(variant.ID))
	s.Equal(int64(1), s.count(&models.InventoryMovement{}))
}

func (s *ServiceTestSuite) TestStockEqualsSumOfMovements() {
	variant := s.createVariant("HOO-002", 100, 5)

	for _, delta := range []int{3, -2, 0, -10, 7} {
		_, err := s.inventory.AddMovement(s.ctx, variant.ID, delta, "Count", "")
		s.Require().NoError(err)
		s.Equal(s.ledgerOf(variant.ID), s.stockOf(variant.ID))
	}
	s.Equal(3, s.stockOf(variant.ID))
}

func (s *ServiceTestSuite) TestAddMovementRequiresReason() {
	variant := s.createVariant("HOO-003", 100, 1)

	_, err := s.inventory.AddMovement(s.ctx, variant.ID, 1, "   ", "")
	var validationErr *ValidationError
	s.True(errors.As(err, &validationErr))
	s.Equal(1, s.stockOf(variant.ID))
}

func (s *ServiceTestSuite) TestAddMovementUnknownVariant() {
	_, err := s.inventory.AddMovement(s.ctx, 999, 1, "Restock", "")
	var notFound *NotFoundError
	s.Require().True(errors.As(err, &notFound))
	s.Equal("variant", notFound.Resource)
	s.Zero(s.count(&models.InventoryMovement{}))
}

func (s *ServiceTestSuite) TestAdjustStockDefaults() {
	variant := s.createVariant("HOO-004", 100, 4)

	movement, err := s.inventory.AdjustStock(s.ctx, variant.ID, &AdjustStockRequest{Delta: -1})
	s.Require().NoError(err)
	s.Equal(models.ReasonAdjustment, movement.Reason)
	s.Require().NotNil(movement.Reference)
	s.Equal(models.ReferenceManual, *movement.Reference)
	s.Equal(3, s.stockOf(variant.ID))

	movement, err = s.inventory.AdjustStock(s.ctx, variant.ID, &AdjustStockRequest{Delta: 2, Reason: "Return"})
	s.Require().NoError(err)
	s.Equal("Return", movement.Reason)
	s.Equal(5, *movement.BalanceAfter)
}

func (s *ServiceTestSuite) TestMovementEventsPublished() {
	variant := s.createVariant("HOO-005", 100, 2)
	s.publisher.Events = nil

	_, err := s.inventory.AddMovement(s.ctx, variant.ID, 4, "Restock", "po:17")
	s.Require().NoError(err)

	s.Require().Len(s.publisher.Events, 1)
	event := s.publisher.Events[0]
	s.Equal(messaging.TopicStockMovement, event.Topic)
	s.Equal(variantKey(variant.ID), event.Key)

	payload, ok := event.Event.(messaging.StockMovementEvent)
	s.Require().True(ok)
	s.Equal(4, payload.Change)
	s.Equal(6, payload.Balance)
	s.Equal("po:17", payload.Reference)
}

func (s *ServiceTestSuite) TestPublishFailureDoesNotUndoMovement() {
	variant := s.createVariant("HOO-006", 100, 2)
	s.publisher.Err = errors.New("broker down")

	_, err := s.inventory.AddMovement(s.ctx, variant.ID, 1, "Restock", "")
	s.Require().NoError(err)
	s.Equal(3, s.stockOf(variant.ID))
}

func (s *ServiceTestSuite) TestListMovementsNewestFirst() {
	variant := s.createVariant("HOO-007", 100, 10)
	_, err := s.inventory.AddMovement(s.ctx, variant.ID, -4, "Damaged", "")
	s.Require().NoError(err)

	movements, total, err := s.inventory.ListMovements(s.ctx, variant.ID, utils.DefaultPagination())
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Require().Len(movements, 2)
	s.Equal(-4, movements[0].Change)
	s.Equal(models.ReasonInitialStock, movements[1].Reason)

	_, _, err = s.inventory.ListMovements(s.ctx, 999, utils.DefaultPagination())
	var notFound *NotFoundError
	s.True(errors.As(err, &notFound))
}

func (s *ServiceTestSuite) TestReconcileReportsDrift() {
	clean := s.createVariant("HOO-008", 100, 3)
	drifted := s.createVariant("HOO-009", 100, 5)

	report, err := s.inventory.Reconcile(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, report.CheckedVariants)
	s.Empty(report.Drifts)

	s.Require().NoError(s.db.Model(&models.Variant{}).
		Where("id = ?", drifted.ID).
		UpdateColumn("stock", 9).Error)

	report, err = s.inventory.Reconcile(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(report.Drifts, 1)
	drift := report.Drifts[0]
	s.Equal(drifted.ID, drift.VariantID)
	s.Equal("HOO-009", drift.SKU)
	s.Equal(9, drift.CachedStock)
	s.Equal(5, drift.LedgerStock)
	s.Equal(4, drift.Difference)

	// Reconcile never repairs.
	s.Equal(9, s.stockOf(drifted.ID))
	s.Equal(3, s.stockOf(clean.ID))
}

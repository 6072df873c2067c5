// internal/services/order_service_test.go
package services

import (
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/javajoker/apparel-inventory/internal/messaging"
	"github.com/javajoker/apparel-inventory/internal/models"
	"github.com/javajoker/apparel-inventory/internal/utils"
)

func (s *ServiceTestSuite) TestCreateOrderDecrementsStock() {
	variant := s.createVariant("HOO-001", 100, 10)

	order, err := s.orders.CreateOrder(s.ctx, "Alice", []OrderLine{{VariantID: variant.ID, Quantity: 3}})
	s.Require().NoError(err)

	s.Equal("000001", order.OrderNumber)
	s.Equal("Alice", order.CustomerName)
	s.Equal(models.OrderStatusCreated, order.Status)
	s.Equal(7, s.stockOf(variant.ID))
	s.Equal(s.ledgerOf(variant.ID), s.stockOf(variant.ID))

	var movement models.InventoryMovement
	s.Require().NoError(s.db.Where("variant_id = ? AND change < 0", variant.ID).First(&movement).Error)
	s.Equal(-3, movement.Change)
	s.Equal(models.ReasonSale, movement.Reason)
	s.Require().NotNil(movement.Reference)
	s.Equal("order:000001", *movement.Reference)
}

func (s *ServiceTestSuite) TestCreateOrderInsufficientStockRollsBack() {
	variant := s.createVariant("HOO-002", 100, 2)

	_, err := s.orders.CreateOrder(s.ctx, "Bob", []OrderLine{{VariantID: variant.ID, Quantity: 5}})
	var stockErr *InsufficientStockError
	s.Require().True(errors.As(err, &stockErr))
	s.Equal(variant.ID, stockErr.VariantID)
	s.Equal(5, stockErr.Requested)
	s.Equal(2, stockErr.Available)

	s.Equal(2, s.stockOf(variant.ID))
	s.Zero(s.count(&models.Order{}))
	s.Zero(s.count(&models.OrderItem{}))
	s.Equal(int64(1), s.count(&models.InventoryMovement{}))

	// The failed attempt does not consume a number.
	order, err := s.orders.CreateOrder(s.ctx, "Bob", []OrderLine{{VariantID: variant.ID, Quantity: 2}})
	s.Require().NoError(err)
	s.Equal("000001", order.OrderNumber)
}

func (s *ServiceTestSuite) TestCreateOrderIsAllOrNothing() {
	plenty := s.createVariant("HOO-003", 100, 10)
	scarce := s.createVariant("HOO-004", 100, 1)

	_, err := s.orders.CreateOrder(s.ctx, "Carol", []OrderLine{
		{VariantID: plenty.ID, Quantity: 4},
		{VariantID: scarce.ID, Quantity: 2},
	})
	var stockErr *InsufficientStockError
	s.Require().True(errors.As(err, &stockErr))
	s.Equal(scarce.ID, stockErr.VariantID)

	s.Equal(10, s.stockOf(plenty.ID))
	s.Equal(1, s.stockOf(scarce.ID))
	s.Zero(s.count(&models.Order{}))
	s.Zero(s.count(&models.OrderItem{}))
}

func (s *ServiceTestSuite) TestCreateOrderUnknownVariantRollsBack() {
	variant := s.createVariant("HOO-005", 100, 3)

	_, err := s.orders.CreateOrder(s.ctx, "Dan", []OrderLine{
		{VariantID: variant.ID, Quantity: 1},
		{VariantID: 999, Quantity: 1},
	})
	var notFound *NotFoundError
	s.Require().True(errors.As(err, &notFound))
	s.Equal(3, s.stockOf(variant.ID))
	s.Zero(s.count(&models.Order{}))
}

func (s *ServiceTestSuite) TestCreateOrderSameVariantLinesShareStock() {
	variant := s.createVariant("HOO-006", 100, 5)

	_, err := s.orders.CreateOrder(s.ctx, "Eve", []OrderLine{
		{VariantID: variant.ID, Quantity: 3},
		{VariantID: variant.ID, Quantity: 3},
	})
	var stockErr *InsufficientStockError
	s.Require().True(errors.As(err, &stockErr))
	s.Equal(3, stockErr.Requested)
	s.Equal(2, stockErr.Available)
	s.Equal(5, s.stockOf(variant.ID))

	order, err := s.orders.CreateOrder(s.ctx, "Eve", []OrderLine{
		{VariantID: variant.ID, Quantity: 3},
		{VariantID: variant.ID, Quantity: 2},
	})
	s.Require().NoError(err)
	s.Len(order.Items, 2)
	s.Equal(0, s.stockOf(variant.ID))
	s.Equal(s.ledgerOf(variant.ID), s.stockOf(variant.ID))
}

func (s *ServiceTestSuite) TestCreateOrderValidation() {
	variant := s.createVariant("HOO-007", 100, 5)
	var validationErr *ValidationError

	_, err := s.orders.CreateOrder(s.ctx, "Frank", nil)
	s.True(errors.As(err, &validationErr))

	_, err = s.orders.CreateOrder(s.ctx, "Frank", []OrderLine{{VariantID: variant.ID, Quantity: 0}})
	s.True(errors.As(err, &validationErr))

	_, err = s.orders.CreateOrder(s.ctx, "Frank", []OrderLine{{VariantID: variant.ID, Quantity: -2}})
	s.True(errors.As(err, &validationErr))

	s.Equal(5, s.stockOf(variant.ID))
	s.Zero(s.count(&models.Order{}))
}

func (s *ServiceTestSuite) TestCreateOrderDefaultsCustomerName() {
	variant := s.createVariant("HOO-008", 100, 5)

	order, err := s.orders.CreateOrder(s.ctx, "   ", []OrderLine{{VariantID: variant.ID, Quantity: 1}})
	s.Require().NoError(err)
	s.Equal("Cliente", order.CustomerName)
}

func (s *ServiceTestSuite) TestOrderNumbersIncrease() {
	variant := s.createVariant("HOO-009", 100, 10)

	first, err := s.orders.CreateOrder(s.ctx, "Gina", []OrderLine{{VariantID: variant.ID, Quantity: 1}})
	s.Require().NoError(err)
	second, err := s.orders.CreateOrder(s.ctx, "Gina", []OrderLine{{VariantID: variant.ID, Quantity: 1}})
	s.Require().NoError(err)

	s.Equal("000001", first.OrderNumber)
	s.Equal("000002", second.OrderNumber)
	s.Less(first.OrderNumber, second.OrderNumber)
}

func (s *ServiceTestSuite) TestOrderNumbersContinueFromExistingOrders() {
	legacy := models.Order{
		ID:           41,
		OrderNumber:  "000041",
		CustomerName: "Legacy",
		CreatedAt:    time.Now().UTC(),
		Status:       models.OrderStatusCreated,
	}
	s.Require().NoError(s.db.Create(&legacy).Error)

	number, err := s.orders.NextOrderNumber(s.ctx)
	s.Require().NoError(err)
	s.Equal("000042", number)

	// A number handed out is never handed out again.
	number, err = s.orders.NextOrderNumber(s.ctx)
	s.Require().NoError(err)
	s.Equal("000043", number)
}

func (s *ServiceTestSuite) TestConcurrentOrdersNeverOversell() {
	variant := s.createVariant("HOO-010", 100, 5)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers []string
		failed  int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			order, err := s.orders.CreateOrder(s.ctx, "Rush", []OrderLine{{VariantID: variant.ID, Quantity: 1}})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				return
			}
			numbers = append(numbers, order.OrderNumber)
		}()
	}
	wg.Wait()

	s.Len(numbers, 5)
	s.Equal(5, failed)
	s.ElementsMatch([]string{"000001", "000002", "000003", "000004", "000005"}, numbers)
	s.Equal(0, s.stockOf(variant.ID))
	s.Equal(s.ledgerOf(variant.ID), s.stockOf(variant.ID))
}

func (s *ServiceTestSuite) TestOrderKeepsPriceAtSale() {
	variant := s.createVariant("HOO-011", 100, 5)

	order, err := s.orders.CreateOrder(s.ctx, "Hugo", []OrderLine{{VariantID: variant.ID, Quantity: 2}})
	s.Require().NoError(err)
	s.True(decimal.NewFromInt(200).Equal(order.Total))

	_, err = s.catalog.UpdateVariantPrice(s.ctx, variant.ID, &UpdateVariantPriceRequest{Price: decimal.NewFromInt(150)})
	s.Require().NoError(err)

	loaded, err := s.orders.GetOrder(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Require().Len(loaded.Items, 1)
	s.True(decimal.NewFromInt(100).Equal(loaded.Items[0].UnitPrice))
	s.True(decimal.NewFromInt(200).Equal(loaded.Total))
}

func (s *ServiceTestSuite) TestGetOrderByNumberAndList() {
	a := s.createVariant("HOO-012", 100, 5)
	b := s.createVariant("HOO-013", 50, 5)

	_, err := s.orders.CreateOrder(s.ctx, "Ines", []OrderLine{{VariantID: a.ID, Quantity: 1}})
	s.Require().NoError(err)
	second, err := s.orders.CreateOrder(s.ctx, "Juan", []OrderLine{
		{VariantID: a.ID, Quantity: 1},
		{VariantID: b.ID, Quantity: 2},
	})
	s.Require().NoError(err)

	loaded, err := s.orders.GetOrderByNumber(s.ctx, "000002")
	s.Require().NoError(err)
	s.Equal(second.ID, loaded.ID)
	s.Require().Len(loaded.Items, 2)
	s.Require().NotNil(loaded.Items[1].Variant)
	s.Equal("HOO-013", loaded.Items[1].Variant.Product.SKU)
	s.True(decimal.NewFromInt(200).Equal(loaded.Total))

	_, err = s.orders.GetOrderByNumber(s.ctx, "999999")
	var notFound *NotFoundError
	s.True(errors.As(err, &notFound))

	orders, total, err := s.orders.ListOrders(s.ctx, utils.DefaultPagination())
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Require().Len(orders, 2)
	s.Equal("000002", orders[0].OrderNumber)

	params := utils.DefaultPagination()
	params.Search = "ines"
	orders, total, err = s.orders.ListOrders(s.ctx, params)
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal("Ines", orders[0].CustomerName)
}

func (s *ServiceTestSuite) TestCreateOrderPublishesEvents() {
	a := s.createVariant("HOO-014", 100, 5)
	b := s.createVariant("HOO-015", 80, 5)
	s.publisher.Events = nil

	order, err := s.orders.CreateOrder(s.ctx, "Karl", []OrderLine{
		{VariantID: a.ID, Quantity: 1},
		{VariantID: b.ID, Quantity: 2},
	})
	s.Require().NoError(err)

	s.Equal([]string{
		messaging.TopicOrderCreated,
		messaging.TopicStockMovement,
		messaging.TopicStockMovement,
	}, s.publisher.Topics())

	created, ok := s.publisher.Events[0].Event.(messaging.OrderCreatedEvent)
	s.Require().True(ok)
	s.Equal(order.OrderNumber, created.OrderNumber)
	s.True(decimal.NewFromInt(260).Equal(created.Total))
	s.Len(created.Lines, 2)
}

func (s *ServiceTestSuite) TestFailedOrderPublishesNothing() {
	variant := s.createVariant("HOO-016", 100, 1)
	s.publisher.Events = nil

	_, err := s.orders.CreateOrder(s.ctx, "Lena", []OrderLine{{VariantID: variant.ID, Quantity: 2}})
	s.Require().Error(err)
	s.Empty(s.publisher.Events)
}

func (s *ServiceTestSuite) TestFormatOrderNumber() {
	s.Equal("000001", FormatOrderNumber(1))
	s.Equal("012345", FormatOrderNumber(12345))
	s.Equal("1234567", FormatOrderNumber(1234567))
}

func (s *ServiceTestSuite) TestOrderTotal() {
	items := []models.OrderItem{
		{Quantity: 2, UnitPrice: decimal.RequireFromString("10.50")},
		{Quantity: 1, UnitPrice: decimal.RequireFromString("0.25")},
	}
	s.True(decimal.RequireFromString("21.25").Equal(OrderTotal(items)))
}

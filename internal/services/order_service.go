// internal/services/order_service.go
package services

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/apparel-inventory/internal/database"
	"github.com/javajoker/apparel-inventory/internal/messaging"
	"github.com/javajoker/apparel-inventory/internal/models"
	"github.com/javajoker/apparel-inventory/internal/utils"
)

// OrderService is the order engine. It validates a multi-line sale against
// stock and commits the order, its items and the ledger writes together.
type OrderService struct {
	db                  *gorm.DB
	inventory           *InventoryService
	publisher           messaging.Publisher
	defaultCustomerName string
}

type OrderLine struct {
	VariantID uint `json:"variant_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"required,gt=0"`
}

type CreateOrderRequest struct {
	CustomerName string      `json:"customer_name" validate:"max=120"`
	Items        []OrderLine `json:"items" validate:"required,min=1,dive"`
}

func NewOrderService(db *gorm.DB, inventory *InventoryService, publisher messaging.Publisher, defaultCustomerName string) *OrderService {
	if publisher == nil {
		publisher = messaging.NewLogPublisher(nil)
	}
	if strings.TrimSpace(defaultCustomerName) == "" {
		defaultCustomerName = "Cliente"
	}
	return &OrderService{
		db:                  db,
		inventory:           inventory,
		publisher:           publisher,
		defaultCustomerName: defaultCustomerName,
	}
}

// CreateOrder commits the whole order or nothing. Lines are checked in the
// order given against a running balance per variant, so repeated lines for
// one variant cannot overdraw it together.
func (s *OrderService) CreateOrder(ctx context.Context, customerName string, items []OrderLine) (*models.Order, error) {
	customerName = strings.TrimSpace(customerName)
	if customerName == "" {
		customerName = s.defaultCustomerName
	}
	if len(items) == 0 {
		return nil, newValidationError("items", "must contain at least one line")
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, newValidationError("quantity", "must be greater than 0")
		}
	}

	var (
		order     *models.Order
		movements []*models.InventoryMovement
	)
	err := s.inventory.serialize(func() error {
		movements = nil
		return database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
			number, err := nextOrderNumber(tx)
			if err != nil {
				return err
			}

			order = &models.Order{
				OrderNumber:  number,
				CustomerName: customerName,
				CreatedAt:    time.Now().UTC(),
				Status:       models.OrderStatusPending,
			}
			if err := tx.Create(order).Error; err != nil {
				return classifyError("create order", err, &UniquenessViolation{Field: "order_number", Value: number})
			}

			variants, err := checkStock(tx, items)
			if err != nil {
				return err
			}

			reference := models.OrderReference(number)
			orderItems := make([]models.OrderItem, 0, len(items))
			for _, line := range items {
				variant := variants[line.VariantID]

				item := models.OrderItem{
					OrderID:   order.ID,
					VariantID: variant.ID,
					Quantity:  line.Quantity,
					UnitPrice: variant.Price,
				}
				if err := tx.Create(&item).Error; err != nil {
					return &PersistenceError{Op: "create order item", Err: err}
				}

				m, err := s.inventory.applyMovement(tx, variant, -line.Quantity, models.ReasonSale, reference)
				if err != nil {
					return err
				}
				movements = append(movements, m)

				item.Variant = variant
				orderItems = append(orderItems, item)
			}

			if err := tx.Model(&models.Order{}).
				Where("id = ?", order.ID).
				UpdateColumn("status", models.OrderStatusCreated).Error; err != nil {
				return &PersistenceError{Op: "confirm order", Err: err}
			}
			order.Status = models.OrderStatusCreated
			order.Items = orderItems
			order.ComputeTotal()
			return nil
		})
	})
	if err != nil {
		logrus.WithError(err).WithField("customer", customerName).Warn("Order rejected")
		return nil, classifyError("create order", err, nil)
	}

	logrus.WithFields(logrus.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"items":        len(order.Items),
		"total":        order.Total.String(),
	}).Info("Order created")

	s.publishOrder(ctx, order)
	s.inventory.publishMovements(ctx, movements)
	return order, nil
}

// checkStock loads every variant referenced by items and verifies, line by
// line, that the remaining balance covers the quantity.
func checkStock(tx *gorm.DB, items []OrderLine) (map[uint]*models.Variant, error) {
	variants := make(map[uint]*models.Variant, len(items))
	remaining := make(map[uint]int, len(items))

	for _, line := range items {
		variant, ok := variants[line.VariantID]
		if !ok {
			var v models.Variant
			if err := tx.Preload("Product").First(&v, line.VariantID).Error; err != nil {
				return nil, notFoundOr("load variant", "variant", line.VariantID, err)
			}
			variant = &v
			variants[v.ID] = variant
			remaining[v.ID] = v.Stock
		}

		available := remaining[variant.ID]
		if available < line.Quantity {
			return nil, &InsufficientStockError{
				VariantID: variant.ID,
				Label:     variant.Label(),
				Requested: line.Quantity,
				Available: available,
			}
		}
		remaining[variant.ID] = available - line.Quantity
	}

	return variants, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := s.withItems(s.db.WithContext(ctx)).First(&order, id).Error; err != nil {
		return nil, notFoundOr("load order", "order", id, err)
	}
	order.ComputeTotal()
	return &order, nil
}

func (s *OrderService) GetOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	var order models.Order
	if err := s.withItems(s.db.WithContext(ctx)).Where("order_number = ?", number).First(&order).Error; err != nil {
		return nil, notFoundOr("load order", "order", number, err)
	}
	order.ComputeTotal()
	return &order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, params utils.PaginationParams) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{})
	if search := strings.TrimSpace(params.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(customer_name) LIKE ? OR order_number LIKE ?", like, like)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, &PersistenceError{Op: "count orders", Err: err}
	}

	var orders []models.Order
	query = utils.ApplySort(query, params, []string{"id", "created_at", "customer_name"}, "id", "desc")
	if err := s.withItems(utils.ApplyPagination(query, params)).Find(&orders).Error; err != nil {
		return nil, 0, &PersistenceError{Op: "list orders", Err: err}
	}

	for i := range orders {
		orders[i].ComputeTotal()
	}
	return orders, total, nil
}

func (s *OrderService) withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_items.id asc")
	}).Preload("Items.Variant.Product")
}

func (s *OrderService) publishOrder(ctx context.Context, order *models.Order) {
	lines := make([]messaging.OrderLineEvent, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, messaging.OrderLineEvent{
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	publish(ctx, s.publisher, messaging.TopicOrderCreated, order.OrderNumber, messaging.OrderCreatedEvent{
		Envelope:     messaging.NewEnvelope(),
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		CustomerName: order.CustomerName,
		Total:        order.Total,
		Lines:        lines,
	})
}

// OrderTotal sums unit price times quantity over the items.
func OrderTotal(items []models.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// internal/services/report_service.go
package services

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/javajoker/apparel-inventory/internal/models"
)

type ReportService struct {
	db *gorm.DB
}

type DashboardStats struct {
	TotalProducts int64           `json:"total_products"`
	TotalVariants int64           `json:"total_variants"`
	TotalStock    int64           `json:"total_stock"`
	TotalOrders   int64           `json:"total_orders"`
	UnitsSold     int64           `json:"units_sold"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	LowStock      int64           `json:"low_stock_variants"`
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

// DashboardStats returns the headline counters. Variants at or below
// lowStockThreshold are counted as low stock.
func (s *ReportService) DashboardStats(ctx context.Context, lowStockThreshold int) (*DashboardStats, error) {
	db := s.db.WithContext(ctx)
	stats := &DashboardStats{}

	if err := db.Model(&models.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, &PersistenceError{Op: "count products", Err: err}
	}
	if err := db.Model(&models.Variant{}).Count(&stats.TotalVariants).Error; err != nil {
		return nil, &PersistenceError{Op: "count variants", Err: err}
	}
	if err := db.Model(&models.Variant{}).Select("COALESCE(SUM(stock), 0)").Scan(&stats.TotalStock).Error; err != nil {
		return nil, &PersistenceError{Op: "sum stock", Err: err}
	}
	if err := db.Model(&models.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, &PersistenceError{Op: "count orders", Err: err}
	}
	if err := db.Model(&models.Variant{}).Where("stock <= ?", lowStockThreshold).Count(&stats.LowStock).Error; err != nil {
		return nil, &PersistenceError{Op: "count low stock", Err: err}
	}

	// Money is summed in Go to keep decimal precision across drivers.
	var items []models.OrderItem
	if err := db.Select("quantity", "unit_price").Find(&items).Error; err != nil {
		return nil, &PersistenceError{Op: "load order items", Err: err}
	}
	stats.TotalRevenue = OrderTotal(items)
	for _, item := range items {
		stats.UnitsSold += int64(item.Quantity)
	}

	return stats, nil
}

// LowStockVariants lists variants at or below threshold, lowest stock first.
func (s *ReportService) LowStockVariants(ctx context.Context, threshold int) ([]models.Variant, error) {
	var variants []models.Variant
	err := s.db.WithContext(ctx).
		Preload("Product.ProductType").
		Where("stock <= ?", threshold).
		Order("stock asc, id asc").
		Find(&variants).Error
	if err != nil {
		return nil, &PersistenceError{Op: "list low stock", Err: err}
	}
	return variants, nil
}

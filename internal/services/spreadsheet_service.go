// internal/services/spreadsheet_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/javajoker/apparel-inventory/internal/database"
	"github.com/javajoker/apparel-inventory/internal/models"
	"github.com/javajoker/apparel-inventory/internal/utils"
)

const (
	VariantsSheet  = "variants"
	InventorySheet = "inventory"
	OrdersSheet    = "orders"
)

// Column layouts of the workbooks.
var (
	TemplateColumns  = []string{"sku", "product_name", "product_type", "size", "color", "price", "initial_stock"}
	InventoryColumns = []string{"sku", "product_name", "product_type", "size", "color", "price", "stock"}
	OrderColumns     = []string{"order_number", "created_at", "customer_name", "variant", "quantity", "unit_price", "line_total"}
)

// SpreadsheetService reads and writes the bulk import/export workbooks.
type SpreadsheetService struct {
	db      *gorm.DB
	catalog *CatalogService
}

// ImportSkip describes one row left out of an import.
type ImportSkip struct {
	Row    int    `json:"row"`
	SKU    string `json:"sku"`
	Reason string `json:"reason"`
}

type ImportReport struct {
	RowsRead        int          `json:"rows_read"`
	ProductsCreated int          `json:"products_created"`
	VariantsCreated int          `json:"variants_created"`
	Skipped         []ImportSkip `json:"skipped"`
	Completed       bool         `json:"completed"`
}

type importRow struct {
	line        int
	sku         string
	productName string
	productType string
	size        string
	color       string
	price       decimal.Decimal
	stock       int
}

func NewSpreadsheetService(db *gorm.DB, catalog *CatalogService) *SpreadsheetService {
	return &SpreadsheetService{db: db, catalog: catalog}
}

// ExportTemplate writes an empty import workbook.
func (s *SpreadsheetService) ExportTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", VariantsSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := writeRow(f, VariantsSheet, 1, toCells(TemplateColumns)); err != nil {
		return err
	}
	return f.Write(w)
}

// ImportInventory loads the "variants" sheet. Invalid rows are skipped and
// reported; every valid row is committed on its own.
func (s *SpreadsheetService) ImportInventory(ctx context.Context, r io.Reader) (*ImportReport, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, newValidationError("file", "is not a readable xlsx workbook")
	}
	defer f.Close()

	rows, err := f.GetRows(VariantsSheet)
	if err != nil {
		return nil, newValidationError("file", fmt.Sprintf("has no %q sheet", VariantsSheet))
	}

	report := &ImportReport{Skipped: []ImportSkip{}}
	if len(rows) == 0 {
		report.Completed = true
		return report, nil
	}

	header := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		header[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"sku", "product_name", "product_type"} {
		if _, ok := header[required]; !ok {
			return nil, newValidationError("file", fmt.Sprintf("is missing the %q column", required))
		}
	}

	for i, cells := range rows[1:] {
		line := i + 2
		if isBlankRow(cells) {
			continue
		}
		report.RowsRead++

		row, reason := parseImportRow(header, cells, line)
		if reason != "" {
			report.Skipped = append(report.Skipped, ImportSkip{Row: line, SKU: row.sku, Reason: reason})
			continue
		}

		productCreated, err := s.importRow(ctx, row)
		if err != nil {
			report.Skipped = append(report.Skipped, ImportSkip{Row: line, SKU: row.sku, Reason: err.Error()})
			continue
		}
		if productCreated {
			report.ProductsCreated++
		}
		report.VariantsCreated++
	}

	report.Completed = true
	logrus.WithFields(logrus.Fields{
		"rows":     report.RowsRead,
		"products": report.ProductsCreated,
		"variants": report.VariantsCreated,
		"skipped":  len(report.Skipped),
	}).Info("Inventory import completed")
	return report, nil
}

// importRow reuses the product with the row's SKU or creates it, then adds
// the variant through the catalog so initial stock lands in the ledger.
func (s *SpreadsheetService) importRow(ctx context.Context, row importRow) (bool, error) {
	var (
		productCreated bool
		movement       *models.InventoryMovement
	)
	err := s.catalog.inventory.serialize(func() error {
		return database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
			var product models.Product
			err := tx.Preload("ProductType").Where("sku = ?", row.sku).First(&product).Error
			switch {
			case err == nil:
			case errors.Is(err, gorm.ErrRecordNotFound):
				p, err := s.catalog.createProductTx(tx, &CreateProductRequest{
					SKU:         row.sku,
					Name:        row.productName,
					ProductType: row.productType,
				})
				if err != nil {
					return err
				}
				product = *p
				productCreated = true
			default:
				return &PersistenceError{Op: "load product", Err: err}
			}

			_, m, err := s.catalog.createVariantTx(tx, &product, &CreateVariantRequest{
				Size:  row.size,
				Color: row.color,
				Price: row.price,
				Stock: row.stock,
			})
			movement = m
			return err
		})
	})
	if err != nil {
		return false, classifyError("import row", err, &UniquenessViolation{Field: "sku", Value: row.sku})
	}

	if movement != nil {
		s.catalog.inventory.publishMovements(ctx, []*models.InventoryMovement{movement})
	}
	return productCreated, nil
}

func parseImportRow(header map[string]int, cells []string, line int) (importRow, string) {
	cell := func(name string) string {
		idx, ok := header[name]
		if !ok || idx >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[idx])
	}

	row := importRow{
		line:        line,
		sku:         cell("sku"),
		productName: cell("product_name"),
		productType: string(utils.NormalizeProductType(cell("product_type"))),
		size:        cell("size"),
		color:       cell("color"),
	}

	switch {
	case row.sku == "":
		return row, "sku is required"
	case row.productName == "":
		return row, "product_name is required"
	case !utils.IsKnownProductType(row.productType):
		return row, "product_type must be Hoodie or Jacket"
	case row.size == "":
		return row, "size is required"
	case row.color == "":
		return row, "color is required"
	}

	price := decimal.Zero
	if raw := cell("price"); raw != "" {
		p, err := decimal.NewFromString(raw)
		if err != nil {
			return row, fmt.Sprintf("price %q is not a number", raw)
		}
		price = p
	}
	if price.IsNegative() {
		return row, "price must not be negative"
	}
	row.price = price

	if raw := cell("initial_stock"); raw != "" {
		stock, err := parseWholeNumber(raw)
		if err != nil {
			return row, fmt.Sprintf("initial_stock %q is not a whole number", raw)
		}
		if stock < 0 {
			return row, "initial_stock must not be negative"
		}
		row.stock = stock
	}

	return row, ""
}

// parseWholeNumber accepts "12" and the "12.0" spreadsheets produce.
func parseWholeNumber(raw string) (int, error) {
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("not a whole number: %s", raw)
	}
	return int(f), nil
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ExportInventory writes one row per variant.
func (s *SpreadsheetService) ExportInventory(ctx context.Context, w io.Writer) error {
	var variants []models.Variant
	if err := s.db.WithContext(ctx).Preload("Product.ProductType").Order("id asc").Find(&variants).Error; err != nil {
		return &PersistenceError{Op: "load variants", Err: err}
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", InventorySheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := writeRow(f, InventorySheet, 1, toCells(InventoryColumns)); err != nil {
		return err
	}

	for i, v := range variants {
		var sku, name, productType string
		if v.Product != nil {
			sku, name, productType = v.Product.SKU, v.Product.Name, string(v.Product.ProductType.Name)
		}
		row := []interface{}{sku, name, productType, v.Size, v.Color, v.Price.InexactFloat64(), v.Stock}
		if err := writeRow(f, InventorySheet, i+2, row); err != nil {
			return err
		}
	}

	return f.Write(w)
}

// ExportOrders writes one row per order item, oldest order first.
func (s *SpreadsheetService) ExportOrders(ctx context.Context, w io.Writer) error {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id asc") }).
		Preload("Items.Variant.Product").
		Order("id asc").
		Find(&orders).Error
	if err != nil {
		return &PersistenceError{Op: "load orders", Err: err}
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", OrdersSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := writeRow(f, OrdersSheet, 1, toCells(OrderColumns)); err != nil {
		return err
	}

	line := 2
	for _, o := range orders {
		for _, item := range o.Items {
			label := ""
			if item.Variant != nil {
				label = item.Variant.Label()
			}
			row := []interface{}{
				o.OrderNumber,
				o.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
				o.CustomerName,
				label,
				item.Quantity,
				item.UnitPrice.InexactFloat64(),
				item.LineTotal().InexactFloat64(),
			}
			if err := writeRow(f, OrdersSheet, line, row); err != nil {
				return err
			}
			line++
		}
	}

	return f.Write(w)
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to resolve cell: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

func toCells(columns []string) []interface{} {
	cells := make([]interface{}, len(columns))
	for i, c := range columns {
		cells[i] = c
	}
	return cells
}

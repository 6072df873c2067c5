// internal/services/spreadsheet_service_test.go
package services

import (
	"bytes"
	"errors"

	"github.com/xuri/excelize/v2"

	"github.com/javajoker/apparel-inventory/internal/models"
)

// workbook builds an xlsx with the given sheet and rows.
func (s *ServiceTestSuite) workbook(sheet string, rows [][]interface{}) *bytes.Buffer {
	f := excelize.NewFile()
	defer f.Close()
	s.Require().NoError(f.SetSheetName("Sheet1", sheet))
	for i, row := range rows {
		s.Require().NoError(writeRow(f, sheet, i+1, row))
	}

	var buf bytes.Buffer
	s.Require().NoError(f.Write(&buf))
	return &buf
}

func (s *ServiceTestSuite) readSheet(buf *bytes.Buffer, sheet string) [][]string {
	f, err := excelize.OpenReader(buf)
	s.Require().NoError(err)
	defer f.Close()
	rows, err := f.GetRows(sheet)
	s.Require().NoError(err)
	return rows
}

func (s *ServiceTestSuite) TestExportTemplateHeader() {
	var buf bytes.Buffer
	s.Require().NoError(s.sheets.ExportTemplate(&buf))

	rows := s.readSheet(&buf, VariantsSheet)
	s.Require().Len(rows, 1)
	s.Equal(TemplateColumns, rows[0])
}

func (s *ServiceTestSuite) TestImportSkipsInvalidRows() {
	buf := s.workbook(VariantsSheet, [][]interface{}{
		toCells(TemplateColumns),
		{"HOO-100", "Hoodie Clásica", "hoodie", "S", "Negro", 119000, 10},
		{"HOO-100", "Hoodie Clásica", "Hoodie", "M", "Gris", "119000", "15.0"},
		{"", "No SKU", "Hoodie", "L", "Negro", 1000, 1},
		{"JAC-100", "Chaqueta Ligera", "Jacket", "Única", "Azul", 159000.5, ""},
	})

	report, err := s.sheets.ImportInventory(s.ctx, buf)
	s.Require().NoError(err)

	s.True(report.Completed)
	s.Equal(4, report.RowsRead)
	s.Equal(2, report.ProductsCreated)
	s.Equal(3, report.VariantsCreated)
	s.Require().Len(report.Skipped, 1)
	s.Equal(4, report.Skipped[0].Row)
	s.Equal("sku is required", report.Skipped[0].Reason)

	s.Equal(int64(2), s.count(&models.Product{}))
	s.Equal(int64(3), s.count(&models.Variant{}))

	var variants []models.Variant
	s.Require().NoError(s.db.Order("id").Find(&variants).Error)
	s.Equal(10, variants[0].Stock)
	s.Equal(15, variants[1].Stock)
	s.Equal(0, variants[2].Stock)
	s.Equal("159000.5", variants[2].Price.String())
	for _, v := range variants {
		s.Equal(s.ledgerOf(v.ID), v.Stock)
	}
}

func (s *ServiceTestSuite) TestImportRowErrors() {
	s.createProduct("HOO-200")

	buf := s.workbook(VariantsSheet, [][]interface{}{
		{"SKU", "Product_Name", "Product_Type", "Size", "Color", "Price", "Initial_Stock"},
		{"CAP-200", "Cap", "Cap", "U", "Red", 10, 1},
		{"HOO-201", "Hoodie", "Hoodie", "M", "Red", "abc", 1},
		{"HOO-202", "Hoodie", "Hoodie", "M", "Red", 10, -3},
		{"HOO-203", "Hoodie", "Hoodie", "", "Red", 10, 1},
		{},
		{"HOO-200", "Existing", "Hoodie", "XL", "Red", 10, 2},
	})

	report, err := s.sheets.ImportInventory(s.ctx, buf)
	s.Require().NoError(err)
	s.True(report.Completed)
	s.Equal(5, report.RowsRead)
	s.Equal(0, report.ProductsCreated)
	s.Equal(1, report.VariantsCreated)

	rows := make([]int, 0, len(report.Skipped))
	for _, skip := range report.Skipped {
		rows = append(rows, skip.Row)
	}
	s.Equal([]int{2, 3, 4, 5}, rows)

	// The existing product gained the imported variant.
	var product models.Product
	s.Require().NoError(s.db.Preload("Variants").Where("sku = ?", "HOO-200").First(&product).Error)
	s.Require().Len(product.Variants, 1)
	s.Equal("XL", product.Variants[0].Size)
	s.Equal(2, product.Variants[0].Stock)
}

func (s *ServiceTestSuite) TestImportRejectsBadWorkbooks() {
	var validationErr *ValidationError

	_, err := s.sheets.ImportInventory(s.ctx, bytes.NewBufferString("not a workbook"))
	s.True(errors.As(err, &validationErr))

	_, err = s.sheets.ImportInventory(s.ctx, s.workbook("other", [][]interface{}{toCells(TemplateColumns)}))
	s.True(errors.As(err, &validationErr))

	_, err = s.sheets.ImportInventory(s.ctx, s.workbook(VariantsSheet, [][]interface{}{{"sku", "size"}}))
	s.True(errors.As(err, &validationErr))
}

func (s *ServiceTestSuite) TestExportInventory() {
	s.createVariant("HOO-300", 119000, 7)

	var buf bytes.Buffer
	s.Require().NoError(s.sheets.ExportInventory(s.ctx, &buf))

	rows := s.readSheet(&buf, InventorySheet)
	s.Require().Len(rows, 2)
	s.Equal(InventoryColumns, rows[0])
	s.Equal([]string{"HOO-300", "Hoodie HOO-300", "Hoodie", "M", "Black", "119000", "7"}, rows[1])
}

func (s *ServiceTestSuite) TestExportOrders() {
	a := s.createVariant("HOO-301", 100, 5)
	b := s.createVariant("HOO-302", 50, 5)
	_, err := s.orders.CreateOrder(s.ctx, "Alice", []OrderLine{
		{VariantID: a.ID, Quantity: 1},
		{VariantID: b.ID, Quantity: 3},
	})
	s.Require().NoError(err)

	var buf bytes.Buffer
	s.Require().NoError(s.sheets.ExportOrders(s.ctx, &buf))

	rows := s.readSheet(&buf, OrdersSheet)
	s.Require().Len(rows, 3)
	s.Equal(OrderColumns, rows[0])
	s.Equal("000001", rows[1][0])
	s.Equal("Alice", rows[1][2])
	s.Equal("Hoodie HOO-301 M/Black", rows[1][3])
	s.Equal([]string{"3", "50", "150"}, rows[2][4:])
}

func (s *ServiceTestSuite) TestParseWholeNumber() {
	n, err := parseWholeNumber("12")
	s.NoError(err)
	s.Equal(12, n)

	n, err = parseWholeNumber("12.0")
	s.NoError(err)
	s.Equal(12, n)

	_, err = parseWholeNumber("12.5")
	s.Error(err)
}

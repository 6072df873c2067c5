// internal/handlers/import_export.go
package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/apparel-inventory/internal/i18n"
	"github.com/javajoker/apparel-inventory/internal/services"
	"github.com/javajoker/apparel-inventory/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ImportExportHandler struct {
	spreadsheetService *services.SpreadsheetService
	storageService     *services.StorageService
}

func NewImportExportHandler(spreadsheetService *services.SpreadsheetService, storageService *services.StorageService) *ImportExportHandler {
	return &ImportExportHandler{
		spreadsheetService: spreadsheetService,
		storageService:     storageService,
	}
}

// POST /inventory/import
func (h *ImportExportHandler) ImportInventory(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyImportFileRequired), nil)
		return
	}

	options := h.storageService.GetDefaultUploadOptions("imports")
	if options.MaxSize > 0 && fileHeader.Size > options.MaxSize {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyImportUnreadable), "file too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyImportUnreadable), nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyImportUnreadable), nil)
		return
	}

	upload, err := h.storageService.SaveSpreadsheet(data, fileHeader.Filename, options)
	if err != nil {
		respondError(c, err)
		return
	}

	report, err := h.spreadsheetService.ImportInventory(c.Request.Context(), bytes.NewReader(data))
	if err != nil {
		respondError(c, err)
		return
	}

	messages := make([]string, 0, len(report.Skipped)+1)
	for _, skip := range report.Skipped {
		messages = append(messages, i18n.T(lang, i18n.KeyImportRowInvalid, skip.Row, skip.SKU, skip.Reason))
	}
	messages = append(messages, i18n.T(lang, i18n.KeyImportCompleted))

	utils.SuccessResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyImportCompleted),
		"messages": messages,
		"report":   report,
		"upload":   upload,
	})
}

// GET /export/template.xlsx
func (h *ImportExportHandler) ExportTemplate(c *gin.Context) {
	h.sendWorkbook(c, "template.xlsx", func(_ context.Context, w io.Writer) error {
		return h.spreadsheetService.ExportTemplate(w)
	})
}

// GET /export/inventory.xlsx
func (h *ImportExportHandler) ExportInventory(c *gin.Context) {
	h.sendWorkbook(c, "inventory.xlsx", h.spreadsheetService.ExportInventory)
}

// GET /export/orders.xlsx
func (h *ImportExportHandler) ExportOrders(c *gin.Context) {
	h.sendWorkbook(c, "orders.xlsx", h.spreadsheetService.ExportOrders)
}

// sendWorkbook renders the workbook, keeps a copy in storage and streams it
// as an attachment. A failed copy does not fail the download.
func (h *ImportExportHandler) sendWorkbook(c *gin.Context, filename string, render func(context.Context, io.Writer) error) {
	var buf bytes.Buffer
	if err := render(c.Request.Context(), &buf); err != nil {
		respondError(c, err)
		return
	}

	if filename != "template.xlsx" {
		if _, err := h.storageService.SaveSpreadsheet(buf.Bytes(), filename, h.storageService.GetDefaultUploadOptions("exports")); err != nil {
			logrus.WithError(err).WithField("file", filename).Warn("Failed to store export copy")
		}
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// internal/handlers/report.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/apparel-inventory/internal/services"
	"github.com/javajoker/apparel-inventory/internal/utils"
)

type ReportHandler struct {
	reportService     *services.ReportService
	lowStockThreshold int
}

func NewReportHandler(reportService *services.ReportService, lowStockThreshold int) *ReportHandler {
	return &ReportHandler{
		reportService:     reportService,
		lowStockThreshold: lowStockThreshold,
	}
}

// GET /reports/dashboard
func (h *ReportHandler) GetDashboard(c *gin.Context) {
	threshold := h.lowStockThreshold
	if raw := c.Query("low_stock"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			threshold = v
		}
	}

	stats, err := h.reportService.DashboardStats(c.Request.Context(), threshold)
	if err != nil {
		respondError(c, err)
		return
	}

	lowStock, err := h.reportService.LowStockVariants(c.Request.Context(), threshold)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"stats":               stats,
		"low_stock_threshold": threshold,
		"low_stock":           lowStock,
	})
}

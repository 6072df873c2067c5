// internal/handlers/inventory.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/apparel-inventory/internal/i18n"
	"github.com/javajoker/apparel-inventory/internal/services"
	"github.com/javajoker/apparel-inventory/internal/utils"
)

type InventoryHandler struct {
	inventoryService *services.InventoryService
}

func NewInventoryHandler(inventoryService *services.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

// POST /variants/:id/adjust
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.AdjustStockRequest
	if !bindJSON(c, &req) {
		return
	}

	movement, err := h.inventoryService.AdjustStock(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":  i18n.T(utils.GetLangFromContext(c), i18n.KeyInventoryUpdated),
		"movement": movement,
		"stock":    movement.BalanceAfter,
	})
}

// GET /variants/:id/movements
func (h *InventoryHandler) GetMovements(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)

	movements, total, err := h.inventoryService.ListMovements(c.Request.Context(), id, params)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(movements, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /inventory/reconcile
func (h *InventoryHandler) Reconcile(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	report, err := h.inventoryService.Reconcile(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	message := i18n.T(lang, i18n.KeyInventoryConsistent)
	if len(report.Drifts) > 0 {
		message = i18n.T(lang, i18n.KeyInventoryDrift, len(report.Drifts))
	}

	utils.SuccessResponse(c, gin.H{
		"message": message,
		"report":  report,
	})
}

// internal/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/apparel-inventory/internal/i18n"
	"github.com/javajoker/apparel-inventory/internal/services"
	"github.com/javajoker/apparel-inventory/internal/utils"
)

var notFoundKeys = map[string]string{
	"product": i18n.KeyProductNotFound,
	"variant": i18n.KeyVariantNotFound,
	"order":   i18n.KeyOrderNotFound,
}

// respondError writes the envelope for a service error.
func respondError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	var (
		validationErr *services.ValidationError
		notFoundErr   *services.NotFoundError
		stockErr      *services.InsufficientStockError
		uniqueErr     *services.UniquenessViolation
		conflictErr   *services.ConflictError
	)

	switch {
	case errors.As(err, &validationErr):
		utils.ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR",
			i18n.T(lang, i18n.KeyValidationInvalid, fieldOrInput(validationErr.Field)),
			validationErr.Error())
	case errors.As(err, &notFoundErr):
		key, ok := notFoundKeys[notFoundErr.Resource]
		if !ok {
			key = i18n.KeyError
		}
		utils.NotFoundResponse(c, key)
	case errors.As(err, &stockErr):
		utils.ConflictResponse(c, "INSUFFICIENT_STOCK",
			i18n.T(lang, i18n.KeyOrderInsufficientStock, stockErr.Label),
			gin.H{
				"variant_id": stockErr.VariantID,
				"requested":  stockErr.Requested,
				"available":  stockErr.Available,
			})
	case errors.As(err, &uniqueErr):
		message := uniqueErr.Error()
		switch uniqueErr.Field {
		case "sku":
			message = i18n.T(lang, i18n.KeyProductSKUExists, uniqueErr.Value)
		case "order_number":
			message = i18n.T(lang, i18n.KeyOrderNumberTaken, uniqueErr.Value)
		}
		utils.ConflictResponse(c, "DUPLICATE", message, gin.H{"field": uniqueErr.Field})
	case errors.As(err, &conflictErr):
		utils.ConflictResponse(c, "CONFLICT", i18n.T(lang, i18n.KeyProductInUse), conflictErr.Message)
	default:
		logrus.WithError(err).WithField("request_id", utils.GetRequestIDFromContext(c)).Error("Request failed")
		utils.InternalErrorResponse(c, "")
	}
}

func fieldOrInput(field string) string {
	if field == "" {
		return "input"
	}
	return field
}

// parseID reads a positive numeric path parameter.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, name), nil)
		return 0, false
	}
	return uint(id), true
}

// bindJSON decodes and validates the request body.
func bindJSON(c *gin.Context, req interface{}) bool {
	lang := utils.GetLangFromContext(c)
	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return false
	}
	return true
}

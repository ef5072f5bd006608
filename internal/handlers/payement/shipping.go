package payement

import (
	"net/http"
	"strconv"

	"velora_back_end/internal/models"

	"github.com/gin-gonic/gin"
)

// Livraison gratuite à partir de 50 €
const freeShippingThresholdCents = int64(5000)

// GetShippingOptions retourne les options de livraison disponibles
func GetShippingOptions(c *gin.Context) {
	var cartTotalCents int64
	if total := c.Query("cart_total_cents"); total != "" {
		if n, err := strconv.ParseInt(total, 10, 64); err == nil && n >= 0 {
			cartTotalCents = n
		}
	}

	isFree := cartTotalCents >= freeShippingThresholdCents

	options := []models.ShippingOption{
		{
			ID:            "standard",
			Name:          "Livraison Standard",
			Description:   "Livraison en 5-7 jours ouvrés",
			PriceCents:    599,
			EstimatedDays: 7,
		},
		{
			ID:            "express",
			Name:          "Livraison Express",
			Description:   "Livraison en 2-3 jours ouvrés",
			PriceCents:    1299,
			EstimatedDays: 3,
		},
		{
			ID:            "next_day",
			Name:          "Livraison 24h",
			Description:   "Livraison le lendemain avant 18h",
			PriceCents:    1999,
			EstimatedDays: 1,
		},
	}

	if isFree {
		options[0].PriceCents = 0
		options[0].Name = "Livraison Standard Gratuite"
	}

	calculation := models.ShippingCalculation{
		Options:            options,
		FreeThresholdCents: freeShippingThresholdCents,
		CartTotalCents:     cartTotalCents,
		IsFree:             isFree,
	}

	c.JSON(http.StatusOK, calculation)
}

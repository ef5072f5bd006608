package payement

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"velora_back_end/internal/models"
)

func TestCalcTotalCents(t *testing.T) {
	items := []models.CartItem{
		{ProductID: "p1", PriceCents: 1999, Quantity: 2},
		{ProductID: "p2", PriceCents: 550, Quantity: 1},
	}

	assert.Equal(t, int64(4548), calcTotalCents(items))
	assert.Equal(t, int64(0), calcTotalCents(nil))
}

func TestFormatEuros(t *testing.T) {
	assert.Equal(t, "45,48 €", formatEuros(4548))
	assert.Equal(t, "0,09 €", formatEuros(9))
	assert.Equal(t, "20,00 €", formatEuros(2000))
}

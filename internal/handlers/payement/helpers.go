package payement

import (
	"fmt"

	"github.com/gocql/gocql"

	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
	"velora_back_end/internal/services"
)

var workflow *services.OrderWorkflow

// Init branche le workflow commandes (partagé avec le handler orders)
func Init(w *services.OrderWorkflow) {
	workflow = w
}

// calcTotalCents calcule le montant total d'un panier en centimes
func calcTotalCents(items []models.CartItem) int64 {
	var total int64
	for _, item := range items {
		total += item.PriceCents * int64(item.Quantity)
	}
	return total
}

// formatEuros affiche un montant en centimes au format "12,34 €"
func formatEuros(cents int64) string {
	return fmt.Sprintf("%d,%02d €", cents/100, cents%100)
}

func lookupUserEmail(userID string) string {
	uid, err := gocql.ParseUUID(userID)
	if err != nil {
		return ""
	}
	session, err := database.GetUsersSession()
	if err != nil {
		return ""
	}
	var email string
	if err := session.Query("SELECT email FROM users WHERE user_id = ?", uid).Scan(&email); err != nil {
		return ""
	}
	return email
}


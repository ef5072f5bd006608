package invoice

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"velora_back_end/internal/database"
	"velora_back_end/internal/middleware"
	"velora_back_end/internal/models"
	"velora_back_end/internal/services"
	"velora_back_end/internal/utils"
)

var workflow *services.OrderWorkflow

func Init(w *services.OrderWorkflow) {
	workflow = w
}

// SendInvoice - POST /api/invoice/:id/send
// Regénère la facture PDF d'une commande payée et la renvoie par email
// (propriétaire de la commande ou staff).
func SendInvoice(c *gin.Context) {
	orderID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	order, err := workflow.Orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	if order.UserID != c.GetString("user_id") && !middleware.IsStaff(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	if order.PaymentStatus != models.PaymentStatusPaid &&
		order.PaymentStatus != models.PaymentStatusRefunded {
		c.JSON(http.StatusBadRequest, gin.H{"error": "La commande n'a pas été payée, pas de facture disponible"})
		return
	}

	userEmail, err := lookupEmail(order.UserID)
	if err != nil || userEmail == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Email du client introuvable"})
		return
	}

	o := *order
	go func() {
		html := utils.GenerateOrderConfirmationHTML(o, userEmail)

		pdf, err := utils.GenerateInvoicePDF(o, userEmail)
		if err != nil {
			log.Printf("⚠️ Erreur génération PDF facture %s: %v", o.OrderNumber, err)
		}

		if err := utils.SendConfirmationEmail(userEmail, "Votre facture Velora - "+o.OrderNumber, html, pdf); err != nil {
			log.Printf("❌ Erreur envoi facture %s: %v", o.OrderNumber, err)
			return
		}
		log.Printf("📧 Facture %s renvoyée à %s", o.OrderNumber, userEmail)
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message":      "Facture en cours d'envoi",
		"order_number": order.OrderNumber,
		"email":        userEmail,
	})
}

func lookupEmail(userID string) (string, error) {
	usersSession, err := database.GetUsersSession()
	if err != nil {
		return "", err
	}

	userUUID, err := gocql.ParseUUID(userID)
	if err != nil {
		return "", err
	}

	var email string
	err = usersSession.Query(`SELECT email FROM users WHERE user_id = ?`, userUUID).
		WithContext(context.Background()).Scan(&email)
	return email, err
}

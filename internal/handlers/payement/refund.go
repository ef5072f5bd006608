package payement

import (
	"log"
	"net/http"
	"time"

	"velora_back_end/internal/apperrors"
	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
	"velora_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/checkout/session"
	"github.com/stripe/stripe-go/v83/refund"
)

// RequestRefund permet à un utilisateur de demander un remboursement
func RequestRefund(c *gin.Context) {
	userID := c.GetString("user_id")
	orderID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required,min=10,max=500"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	order, err := workflow.Orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	if order.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cette commande ne vous appartient pas"})
		return
	}

	// Seul un paiement encaissé est remboursable
	if order.PaymentStatus != models.PaymentStatusPaid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cette commande n'est pas éligible au remboursement"})
		return
	}

	ordersSession, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var existingRefundID gocql.UUID
	err = ordersSession.Query("SELECT refund_id FROM refunds WHERE order_id = ? ALLOW FILTERING", orderID).Scan(&existingRefundID)
	if err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Une demande de remboursement existe déjà pour cette commande"})
		return
	}

	refundID := gocql.TimeUUID()
	now := time.Now()

	err = ordersSession.Query(`
		INSERT INTO refunds (refund_id, order_id, user_id, reason, status, amount_cents, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, refundID, orderID, userID, req.Reason, "pending", order.TotalCents, now).Exec()

	if err != nil {
		log.Printf("❌ Erreur création demande remboursement: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création demande"})
		return
	}

	log.Printf("💰 Demande de remboursement créée: %s pour commande %s", refundID, order.OrderNumber)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Demande de remboursement créée",
		"refund": models.Refund{
			ID:          refundID,
			OrderID:     orderID,
			UserID:      userID,
			Reason:      req.Reason,
			Status:      "pending",
			AmountCents: order.TotalCents,
			CreatedAt:   now,
		},
	})
}

// ProcessRefund traite une demande de remboursement (admin).
// L'approbation rembourse via Stripe et passe le paiement en REFUNDED.
func ProcessRefund(c *gin.Context) {
	refundID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID remboursement invalide"})
		return
	}

	var req struct {
		Action string `json:"action" binding:"required"` // approve, reject
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	if req.Action != "approve" && req.Action != "reject" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Action invalide (approve ou reject)"})
		return
	}

	ordersSession, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var orderID gocql.UUID
	var refundUserID string
	var amountCents int64
	var refundStatus, refundReason string

	err = ordersSession.Query(`
		SELECT order_id, user_id, amount_cents, status, reason
		FROM refunds WHERE refund_id = ?
	`, refundID).Scan(&orderID, &refundUserID, &amountCents, &refundStatus, &refundReason)

	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Demande de remboursement introuvable"})
		return
	}

	if refundStatus != "pending" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cette demande a déjà été traitée"})
		return
	}

	order, err := workflow.Orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	now := time.Now()

	if req.Action == "reject" {
		err = ordersSession.Query(`
			UPDATE refunds SET status = ?, updated_at = ? WHERE refund_id = ?
		`, "rejected", now, refundID).Exec()

		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour"})
			return
		}

		log.Printf("❌ Remboursement rejeté: %s", refundID)

		if email := lookupUserEmail(refundUserID); email != "" {
			go func(email, orderNumber, reason string) {
				if err := utils.SendRefundRejectedEmail(email, orderNumber, reason); err != nil {
					log.Printf("⚠️ Email rejet remboursement non envoyé: %v", err)
				}
			}(email, order.OrderNumber, refundReason)
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Demande de remboursement rejetée",
			"status":  "rejected",
		})
		return
	}

	// Retrouver le PaymentIntent via la session Checkout de la commande
	if order.CheckoutSessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Commande sans paiement Stripe associé"})
		return
	}

	cs, err := session.Get(order.CheckoutSessionID, nil)
	if err != nil || cs.PaymentIntent == nil {
		log.Printf("❌ Erreur récupération session Stripe: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération paiement Stripe"})
		return
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(cs.PaymentIntent.ID),
		Amount:        stripe.Int64(amountCents),
		Reason:        stripe.String("requested_by_customer"),
	}

	stripeRefund, err := refund.New(params)
	if err != nil {
		log.Printf("❌ Erreur Stripe refund: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur traitement remboursement Stripe", "details": err.Error()})
		return
	}

	err = ordersSession.Query(`
		UPDATE refunds SET status = ?, stripe_refund_id = ?, updated_at = ? WHERE refund_id = ?
	`, "completed", stripeRefund.ID, now, refundID).Exec()

	if err != nil {
		log.Printf("⚠️ Erreur mise à jour refund: %v", err)
	}

	// Le paiement passe en REFUNDED, le statut de commande ne bouge pas
	if _, err := workflow.Orders.SetPayment(c.Request.Context(), orderID, models.PaymentStatusRefunded, "", now.Unix()); err != nil {
		log.Printf("⚠️ Erreur mise à jour paiement commande: %v", err)
	}

	log.Printf("✅ Remboursement traité: %s (Stripe: %s)", refundID, stripeRefund.ID)

	if email := lookupUserEmail(refundUserID); email != "" {
		go func(email, orderNumber string, cents int64) {
			if err := utils.SendRefundApprovedEmail(email, orderNumber, cents); err != nil {
				log.Printf("⚠️ Email remboursement non envoyé: %v", err)
			}
		}(email, order.OrderNumber, amountCents)
	}

	c.JSON(http.StatusOK, gin.H{
		"message":          "Remboursement traité avec succès",
		"status":           "completed",
		"stripe_refund_id": stripeRefund.ID,
		"amount_cents":     amountCents,
	})
}

// GetUserRefunds récupère les demandes de remboursement d'un utilisateur
func GetUserRefunds(c *gin.Context) {
	userID := c.GetString("user_id")

	ordersSession, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := ordersSession.Query(`
		SELECT refund_id, order_id, reason, status, amount_cents, stripe_refund_id, created_at, updated_at
		FROM refunds WHERE user_id = ? ALLOW FILTERING
	`, userID).Iter()

	var refunds []models.Refund
	var r models.Refund

	for iter.Scan(&r.ID, &r.OrderID, &r.Reason, &r.Status, &r.AmountCents, &r.StripeRefundID, &r.CreatedAt, &r.UpdatedAt) {
		r.UserID = userID
		refunds = append(refunds, r)
	}

	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture remboursements"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"refunds": refunds,
		"count":   len(refunds),
	})
}

// GetAllRefunds récupère toutes les demandes de remboursement (admin)
func GetAllRefunds(c *gin.Context) {
	ordersSession, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := ordersSession.Query(`
		SELECT refund_id, order_id, user_id, reason, status, amount_cents, stripe_refund_id, created_at, updated_at
		FROM refunds
	`).Iter()

	var refunds []models.Refund
	var r models.Refund

	for iter.Scan(&r.ID, &r.OrderID, &r.UserID, &r.Reason, &r.Status, &r.AmountCents, &r.StripeRefundID, &r.CreatedAt, &r.UpdatedAt) {
		refunds = append(refunds, r)
	}

	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture remboursements"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"refunds": refunds,
		"count":   len(refunds),
	})
}

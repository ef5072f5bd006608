package payement

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"

	"velora_back_end/internal/apperrors"
	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
	"velora_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"
)

// StripeWebhook reçoit les événements Stripe. La signature est
// vérifiée, puis l'événement est réconcilié avec la commande via son
// checkout_session_id. Les doublons et les événements arrivés dans le
// désordre sont ignorés grâce au numéro de séquence (event.Created).
func StripeWebhook(c *gin.Context) {
	const MaxBodyBytes = int64(65536)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

	payload, err := c.GetRawData()
	if err != nil {
		log.Println("❌ Lecture payload échouée:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Échec lecture body"})
		return
	}

	// Sans secret configuré, impossible de vérifier quoi que ce soit :
	// on rejette, un payload non signé ne doit jamais être cru
	secret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	if secret == "" {
		log.Println("❌ STRIPE_WEBHOOK_SECRET absent, webhook rejeté")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Vérification de signature non configurée"})
		return
	}

	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), secret)
	if err != nil {
		log.Println("❌ Signature Stripe invalide:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature invalide"})
		return
	}

	log.Printf("📥 Événement Stripe reçu : %s", event.Type)
	handleStripeEvent(event)

	// Toujours 200 une fois la signature validée, sinon Stripe rejoue
	// l'événement indéfiniment
	c.Status(http.StatusOK)
}

func handleStripeEvent(event stripe.Event) {
	switch event.Type {
	case "checkout.session.completed":
		handleCheckoutCompleted(event)
	case "checkout.session.expired":
		handleCheckoutExpired(event)
	default:
		log.Printf("ℹ️ Événement ignoré : %s", event.Type)
	}
}

// handleCheckoutCompleted marque la commande payée. Le garde de
// séquence (payment_version) rend l'opération idempotente.
func handleCheckoutCompleted(event stripe.Event) {
	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		log.Println("❌ Erreur décodage CheckoutSession:", err)
		return
	}

	ctx := context.Background()

	if err := workflow.MarkPaidBySession(ctx, cs.ID, event.Created); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("⚠️ Session inconnue, webhook ignoré : %s", cs.ID)
		} else {
			log.Printf("❌ Erreur réconciliation paiement %s: %v", cs.ID, err)
		}
		return
	}

	userID := cs.Metadata["user_id"]
	userEmail := cs.Metadata["email"]
	if userEmail == "" && cs.CustomerDetails != nil {
		userEmail = cs.CustomerDetails.Email
	}

	// ✅ Supprimer le panier Redis APRÈS confirmation du paiement
	if userID != "" {
		key := "cart:" + userID
		if err := database.RedisClient.Del(ctx, key).Err(); err == nil {
			log.Printf("🧹 Panier supprimé Redis pour %s", userID)
		}
	}

	orderID, err := workflow.Orders.GetOrderIDBySession(ctx, cs.ID)
	if err != nil {
		return
	}
	order, err := workflow.Orders.GetOrder(ctx, orderID)
	if err != nil {
		log.Printf("⚠️ Commande payée mais illisible pour l'email: %v", err)
		return
	}

	log.Printf("✅ Paiement confirmé pour commande %s (%s)", order.OrderNumber, formatEuros(order.TotalCents))

	if userEmail == "" {
		return
	}

	// Facture PDF + email de confirmation, hors du chemin critique
	go func(order models.Order, email string) {
		html := utils.GenerateOrderConfirmationHTML(order, email)

		pdf, err := utils.GenerateInvoicePDF(order, email)
		if err != nil {
			log.Println("❌ Erreur génération PDF :", err)
			pdf = nil
		}

		if err := utils.SendConfirmationEmail(email, "Confirmation de votre commande Velora", html, pdf); err != nil {
			log.Println("❌ Erreur envoi e-mail confirmation :", err)
		} else {
			log.Println("📧 E-mail de confirmation envoyé à", email)
		}
	}(*order, userEmail)
}

// handleCheckoutExpired libère le stock d'une commande jamais payée
func handleCheckoutExpired(event stripe.Event) {
	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		log.Println("❌ Erreur décodage CheckoutSession:", err)
		return
	}

	ctx := context.Background()

	orderID, err := workflow.Orders.GetOrderIDBySession(ctx, cs.ID)
	if err != nil {
		log.Printf("⚠️ Session expirée sans commande associée : %s", cs.ID)
		return
	}

	order, err := workflow.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return
	}
	if order.Status != models.OrderStatusPending {
		return
	}

	if _, err := workflow.UpdateStatus(ctx, orderID, models.OrderStatusCancelled); err != nil {
		log.Printf("❌ Annulation après expiration échouée: %v", err)
		return
	}
	log.Printf("🔁 Session expirée, commande %s annulée et stock restitué", order.OrderNumber)
}

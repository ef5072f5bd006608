package payement

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"

	"velora_back_end/internal/apperrors"
	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
	"velora_back_end/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/checkout/session"
	stripecoupon "github.com/stripe/stripe-go/v83/coupon"
)

// Checkout transforme le panier Redis en commande (stock réservé,
// statut PENDING) puis ouvre une session Stripe Checkout. Le paiement
// est confirmé par le webhook, jamais ici.
func Checkout(c *gin.Context) {
	var req struct {
		ShippingAddress string `json:"shipping_address" binding:"required"`
		BillingAddress  string `json:"billing_address"`
		CouponCode      string `json:"coupon_code"`
		SuccessURL      string `json:"success_url"`
		CancelURL       string `json:"cancel_url"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	userID := c.GetString("user_id")
	email := c.GetString("email")
	if userID == "" || email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}

	// ✅ 1. Récupérer le panier depuis Redis
	ctx := context.Background()
	cartKey := "cart:" + userID

	cartData, err := database.Redis.Get(ctx, cartKey).Result()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Panier vide ou introuvable"})
		return
	}

	var cartItems []models.CartItem
	if err := json.Unmarshal([]byte(cartData), &cartItems); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture panier"})
		return
	}
	if len(cartItems) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Panier vide"})
		return
	}

	if req.BillingAddress == "" {
		req.BillingAddress = req.ShippingAddress
	}

	// ✅ 2. Créer la commande : le workflow vérifie le stock, le réserve
	// et fige les prix depuis le catalogue (jamais depuis le panier)
	createReq := services.CreateOrderRequest{
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		PaymentMethod:   "stripe",
	}
	for _, item := range cartItems {
		createReq.Items = append(createReq.Items, services.OrderItemRequest{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	order, err := workflow.Create(c.Request.Context(), userID, createReq)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	// ✅ 3. Valider le coupon sur le total réel de la commande
	var discountCents int64
	var couponCode string

	if req.CouponCode != "" {
		validation := validateCoupon(req.CouponCode, order.TotalCents, userID)
		if !validation.IsValid {
			// Le stock a déjà été réservé, on annule la commande
			if _, cancelErr := workflow.UpdateStatus(c.Request.Context(), order.ID, models.OrderStatusCancelled); cancelErr != nil {
				log.Printf("⚠️ Annulation après coupon invalide échouée: %v", cancelErr)
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": validation.ErrorMessage})
			return
		}
		discountCents = validation.DiscountCents
		couponCode = validation.Code
		log.Printf("✅ Coupon appliqué: %s (%s de réduction)", couponCode, formatEuros(discountCents))
	}

	// ✅ 4. Construire la session Stripe Checkout, une ligne par article
	successURL := req.SuccessURL
	if successURL == "" {
		successURL = os.Getenv("FRONTEND_URL") + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"
	}
	cancelURL := req.CancelURL
	if cancelURL == "" {
		cancelURL = os.Getenv("FRONTEND_URL") + "/checkout/cancel"
	}

	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail: stripe.String(email),
		SuccessURL:    stripe.String(successURL),
		CancelURL:     stripe.String(cancelURL),
	}
	for _, item := range order.Items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String("eur"),
				UnitAmount: stripe.Int64(item.UnitPriceCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}
	params.AddMetadata("order_id", order.ID.String())
	params.AddMetadata("order_number", order.OrderNumber)
	params.AddMetadata("user_id", userID)
	params.AddMetadata("email", email)

	// Réduction portée par un coupon Stripe à usage unique
	if discountCents > 0 {
		cp, err := stripecoupon.New(&stripe.CouponParams{
			AmountOff: stripe.Int64(discountCents),
			Currency:  stripe.String("eur"),
			Duration:  stripe.String(string(stripe.CouponDurationOnce)),
			Name:      stripe.String(couponCode),
		})
		if err != nil {
			log.Printf("❌ Erreur création coupon Stripe: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur application du coupon"})
			return
		}
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{
			{Coupon: stripe.String(cp.ID)},
		}
	}

	sess, err := session.New(params)
	if err != nil {
		log.Println("❌ Erreur Stripe Checkout:", err)
		// Impossible d'encaisser : on libère le stock tout de suite
		if _, cancelErr := workflow.UpdateStatus(c.Request.Context(), order.ID, models.OrderStatusCancelled); cancelErr != nil {
			log.Printf("⚠️ Annulation après échec Stripe échouée: %v", cancelErr)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création session de paiement"})
		return
	}

	// ✅ 5. Lier la session à la commande pour la réconciliation webhook
	if err := workflow.Orders.SetCheckoutSession(c.Request.Context(), order.ID, sess.ID); err != nil {
		log.Printf("❌ Erreur liaison session checkout: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur enregistrement session"})
		return
	}

	if couponCode != "" {
		recordCouponUsage(couponCode, userID, order.ID)
	}

	log.Printf("💳 Session Checkout %s créée pour commande %s (%s)", sess.ID, order.OrderNumber, formatEuros(order.TotalCents-discountCents))

	c.JSON(http.StatusOK, gin.H{
		"checkout_url":   sess.URL,
		"session_id":     sess.ID,
		"order_id":       order.ID.String(),
		"order_number":   order.OrderNumber,
		"total_cents":    order.TotalCents,
		"discount_cents": discountCents,
	})
}

package orders

import (
	"log"
	"net/http"
	"strconv"

	"velora_back_end/internal/apperrors"
	"velora_back_end/internal/database"
	"velora_back_end/internal/middleware"
	"velora_back_end/internal/models"
	"velora_back_end/internal/services"
	"velora_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
)

var workflow *services.OrderWorkflow

// Init branche le workflow commandes (construit dans main avec les stores Scylla)
func Init(w *services.OrderWorkflow) {
	workflow = w
}

// CreateOrder crée une commande depuis une liste d'articles explicite.
// Le stock est réservé immédiatement, la commande démarre en PENDING.
func CreateOrder(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}

	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	order, err := workflow.Create(c.Request.Context(), userID, req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	log.Printf("✅ Commande %s créée pour user %s (%d articles)", order.OrderNumber, userID, len(order.Items))
	c.JSON(http.StatusCreated, order)
}

// GetMyOrders liste les commandes de l'utilisateur connecté, paginées,
// les plus récentes d'abord
func GetMyOrders(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}

	page, limit := pagination(c)

	list, total, err := workflow.Orders.ListOrdersByUser(c.Request.Context(), userID, page, limit)
	if err != nil {
		log.Println("❌ Erreur récupération commandes:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération commandes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": list,
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}

// ListAllOrders : vue staff sur toutes les commandes
func ListAllOrders(c *gin.Context) {
	page, limit := pagination(c)

	list, total, err := workflow.Orders.ListOrders(c.Request.Context(), page, limit)
	if err != nil {
		log.Println("❌ Erreur récupération commandes:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération commandes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": list,
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}

// GetOrderByID renvoie une commande avec ses lignes. Un client ne voit
// que ses propres commandes, le staff voit tout.
func GetOrderByID(c *gin.Context) {
	orderID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	order, err := workflow.Orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	if order.UserID != c.GetString("user_id") && !middleware.IsStaff(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	c.JSON(http.StatusOK, order)
}

// UpdateOrderStatus fait avancer la commande dans la machine à états.
// Une transition interdite est rejetée en 400, le statut reste inchangé.
func UpdateOrderStatus(c *gin.Context) {
	orderID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	order, err := workflow.UpdateStatus(c.Request.Context(), orderID, req.Status)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	log.Printf("📦 Commande %s → %s", order.OrderNumber, order.Status)
	utils.LogAction(c, utils.ActionOrderUpdate, "order", order.ID.String(), nil, gin.H{"status": order.Status})

	// Notification client hors du chemin critique
	if email := lookupUserEmail(order.UserID); email != "" {
		go func(o models.Order, email, status string) {
			if err := utils.SendOrderStatusEmail(o, email, status); err != nil {
				log.Printf("⚠️ Email statut non envoyé: %v", err)
			}
		}(*order, email, order.Status)
	}

	c.JSON(http.StatusOK, order)
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

// CancelOrder : annulation par le client de sa propre commande
// (raccourci sur la transition CANCELLED, avec retour du stock)
func CancelOrder(c *gin.Context) {
	userID := c.GetString("user_id")
	orderID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	order, err := workflow.Orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	if order.UserID != userID && !middleware.IsStaff(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	updated, err := workflow.UpdateStatus(c.Request.Context(), orderID, "CANCELLED")
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	log.Printf("❌ Commande %s annulée par %s", updated.OrderNumber, userID)
	c.JSON(http.StatusOK, updated)
}

// PayOrder : paiement synchrone (hors Stripe Checkout). Passe par la
// machine à états, une commande annulée ne peut pas être payée.
func PayOrder(c *gin.Context) {
	userID := c.GetString("user_id")
	orderID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	order, err := workflow.Orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	if order.UserID != userID && !middleware.IsStaff(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	paid, err := workflow.ProcessPayment(c.Request.Context(), orderID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	log.Printf("💳 Commande %s payée (%d cts)", paid.OrderNumber, paid.TotalCents)
	c.JSON(http.StatusOK, paid)
}

// GetOrderStats : comptages par statut et chiffre d'affaires encaissé.
// Le staff voit le global, un client ses propres chiffres.
func GetOrderStats(c *gin.Context) {
	userID := ""
	if !middleware.IsStaff(c) {
		userID = c.GetString("user_id")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
			return
		}
	}

	stats, err := workflow.Stats(c.Request.Context(), userID)
	if err != nil {
		log.Println("❌ Erreur stats commandes:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur calcul statistiques"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

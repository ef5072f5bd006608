package product

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"velora_back_end/internal/cache"
	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
	"velora_back_end/internal/utils"
)

// UpdateStock - Réapprovisionnement ou ajustement manuel (staff/admin).
// La boucle CAS suit le même schéma que la réservation de stock du
// workflow de commande : on ne perd jamais une vente concurrente.
func UpdateStock(c *gin.Context) {
	productIDStr := c.Param("id")

	var req struct {
		Quantity int    `json:"quantity" binding:"required"`
		Reason   string `json:"reason" binding:"required"`
		Type     string `json:"type" binding:"required"` // "restock", "adjustment"
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides: " + err.Error()})
		return
	}

	productID, err := gocql.ParseUUID(productIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	if req.Type != "restock" && req.Type != "adjustment" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Type d'opération invalide"})
		return
	}

	productsSession, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var currentStock, newStock int
	var productName string

	applied := false
	for attempt := 0; attempt < 5 && !applied; attempt++ {
		if err := productsSession.Query(`SELECT stock, name FROM products WHERE product_id = ?`,
			productID).Scan(&currentStock, &productName); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Produit non trouvé"})
			return
		}

		switch req.Type {
		case "restock":
			newStock = currentStock + req.Quantity
		case "adjustment":
			newStock = req.Quantity
		}

		if newStock < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Le stock ne peut pas être négatif"})
			return
		}

		var prevStock int
		applied, err = productsSession.Query(`UPDATE products SET stock = ?, updated_at = ? WHERE product_id = ? IF stock = ?`,
			newStock, time.Now(), productID, currentStock).ScanCAS(&prevStock)
		if err != nil {
			log.Printf("❌ Erreur mise à jour stock: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la mise à jour du stock"})
			return
		}
	}
	if !applied {
		c.JSON(http.StatusConflict, gin.H{"error": "Stock en cours de modification, veuillez réessayer"})
		return
	}

	movement := models.StockMovement{
		ID:        gocql.TimeUUID(),
		ProductID: productID,
		Type:      req.Type,
		Quantity:  req.Quantity,
		PrevStock: currentStock,
		NewStock:  newStock,
		Reason:    req.Reason,
		UserID:    c.GetString("user_id"),
		CreatedAt: time.Now(),
	}

	if err := productsSession.Query(`
		INSERT INTO stock_movements (id, product_id, type, quantity, prev_stock, new_stock, reason, order_id, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		movement.ID, movement.ProductID, movement.Type, movement.Quantity,
		movement.PrevStock, movement.NewStock, movement.Reason, movement.OrderID,
		movement.UserID, movement.CreatedAt,
	).Exec(); err != nil {
		log.Printf("⚠️ Erreur enregistrement mouvement stock: %v", err)
	}

	checkLowStockAlert(productID, productName, newStock)

	cache.InvalidateProduct(productIDStr)
	invalidateProductsList()
	utils.LogAction(c, utils.ActionStockUpdate, "product", productIDStr,
		gin.H{"stock": currentStock}, gin.H{"stock": newStock, "type": req.Type, "reason": req.Reason})

	log.Printf("✅ Stock mis à jour pour %s: %d -> %d", productName, currentStock, newStock)
	c.JSON(http.StatusOK, gin.H{
		"message":     "Stock mis à jour avec succès",
		"prev_stock":  currentStock,
		"new_stock":   newStock,
		"movement_id": movement.ID,
	})
}

// GetStockMovements - Historique des mouvements de stock (staff)
func GetStockMovements(c *gin.Context) {
	productIDStr := c.Query("product_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 100 {
		limit = 50
	}

	var query string
	var args []interface{}

	if productIDStr != "" {
		productID, err := gocql.ParseUUID(productIDStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
			return
		}
		query = `SELECT id, product_id, type, quantity, prev_stock, new_stock, reason, order_id, user_id, created_at
				 FROM stock_movements WHERE product_id = ? LIMIT ?`
		args = []interface{}{productID, limit}
	} else {
		query = `SELECT id, product_id, type, quantity, prev_stock, new_stock, reason, order_id, user_id, created_at
				 FROM stock_movements LIMIT ?`
		args = []interface{}{limit}
	}

	productsSession, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := productsSession.Query(query, args...).Iter()

	var movements []models.StockMovement
	var movement models.StockMovement

	for iter.Scan(&movement.ID, &movement.ProductID, &movement.Type, &movement.Quantity,
		&movement.PrevStock, &movement.NewStock, &movement.Reason, &movement.OrderID,
		&movement.UserID, &movement.CreatedAt) {
		movements = append(movements, movement)
		movement = models.StockMovement{}
	}

	if err := iter.Close(); err != nil {
		log.Printf("❌ Erreur récupération mouvements: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"movements": movements,
		"total":     len(movements),
	})
}

// GetLowStockAlerts - Alertes de stock non résolues (staff)
func GetLowStockAlerts(c *gin.Context) {
	productsSession, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := productsSession.Query(`
		SELECT id, product_id, product_name, current_stock, threshold_stock, alert_type, is_resolved, created_at
		FROM stock_alerts WHERE is_resolved = false ALLOW FILTERING`).Iter()

	var alerts []models.StockAlert
	var alert models.StockAlert

	for iter.Scan(&alert.ID, &alert.ProductID, &alert.ProductName, &alert.CurrentStock,
		&alert.ThresholdStock, &alert.AlertType, &alert.IsResolved, &alert.CreatedAt) {
		alerts = append(alerts, alert)
		alert = models.StockAlert{}
	}

	if err := iter.Close(); err != nil {
		log.Printf("❌ Erreur récupération alertes: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"alerts": alerts,
		"total":  len(alerts),
	})
}

// ResolveStockAlert - Marquer une alerte comme résolue (staff)
func ResolveStockAlert(c *gin.Context) {
	alertID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID alerte invalide"})
		return
	}

	productsSession, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	if err := productsSession.Query(`UPDATE stock_alerts SET is_resolved = true, resolved_at = ? WHERE id = ?`,
		time.Now(), alertID).Exec(); err != nil {
		log.Printf("❌ Erreur résolution alerte: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la résolution"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Alerte marquée comme résolue"})
}

// GetInventoryStats - Statistiques d'inventaire (staff)
func GetInventoryStats(c *gin.Context) {
	products, err := loadActiveProducts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture produits"})
		return
	}

	var stats models.InventoryStats
	stats.TotalProducts = len(products)

	for _, p := range products {
		switch {
		case p.Stock == 0:
			stats.OutOfStockProducts++
		case p.Stock <= p.LowStockThreshold:
			stats.LowStockProducts++
		}
		stats.TotalValueCents += int64(p.Stock) * p.PriceCents
	}

	c.JSON(http.StatusOK, stats)
}

// checkLowStockAlert crée une alerte low_stock/out_of_stock s'il n'en
// existe pas déjà une non résolue pour ce produit
func checkLowStockAlert(productID gocql.UUID, productName string, currentStock int) {
	productsSession, err := database.GetProductsSession()
	if err != nil {
		return
	}

	var threshold int
	if err := productsSession.Query(`SELECT low_stock_threshold FROM products WHERE product_id = ?`,
		productID).Scan(&threshold); err != nil {
		return
	}
	if threshold == 0 {
		threshold = 10
	}

	var alertType string
	switch {
	case currentStock == 0:
		alertType = "out_of_stock"
	case currentStock <= threshold:
		alertType = "low_stock"
	default:
		return
	}

	var existingAlertID gocql.UUID
	if err := productsSession.Query(`SELECT id FROM stock_alerts WHERE product_id = ? AND is_resolved = false LIMIT 1 ALLOW FILTERING`,
		productID).Scan(&existingAlertID); err == nil {
		return
	}

	alert := models.StockAlert{
		ID:             gocql.TimeUUID(),
		ProductID:      productID,
		ProductName:    productName,
		CurrentStock:   currentStock,
		ThresholdStock: threshold,
		AlertType:      alertType,
		IsResolved:     false,
		CreatedAt:      time.Now(),
	}

	if err := productsSession.Query(`
		INSERT INTO stock_alerts (id, product_id, product_name, current_stock, threshold_stock, alert_type, is_resolved, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		alert.ID, alert.ProductID, alert.ProductName, alert.CurrentStock,
		alert.ThresholdStock, alert.AlertType, alert.IsResolved, alert.CreatedAt,
	).Exec(); err != nil {
		log.Printf("⚠️ Erreur création alerte stock: %v", err)
	} else {
		log.Printf("🚨 Alerte stock créée pour %s: %s", productName, alertType)
	}
}

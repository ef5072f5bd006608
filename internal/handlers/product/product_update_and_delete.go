package product

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"velora_back_end/internal/cache"
	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
	"velora_back_end/internal/services"
	"velora_back_end/internal/utils"
)

// UpdateProduct - Mise à jour partielle (staff/admin).
// Le SKU est immuable et le stock passe par PUT /:id/stock.
func UpdateProduct(c *gin.Context) {
	productID := c.Param("id")

	productUUID, err := gocql.ParseUUID(productID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	var input struct {
		Name              *string   `json:"name"`
		Description       *string   `json:"description"`
		PriceCents        *int64    `json:"price_cents"`
		LowStockThreshold *int      `json:"low_stock_threshold"`
		CategoryID        *string   `json:"category_id"`
		Tags              *[]string `json:"tags"`
		IsActive          *bool     `json:"is_active"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	updates := []string{}
	values := []interface{}{}

	if input.Name != nil {
		updates = append(updates, "name = ?")
		values = append(values, *input.Name)
	}
	if input.Description != nil {
		updates = append(updates, "description = ?")
		values = append(values, *input.Description)
	}
	if input.PriceCents != nil {
		if *input.PriceCents <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Le prix doit être strictement positif"})
			return
		}
		updates = append(updates, "price_cents = ?")
		values = append(values, *input.PriceCents)
	}
	if input.LowStockThreshold != nil {
		updates = append(updates, "low_stock_threshold = ?")
		values = append(values, *input.LowStockThreshold)
	}
	if input.CategoryID != nil {
		catUUID, err := gocql.ParseUUID(*input.CategoryID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ID de catégorie invalide"})
			return
		}
		var catName string
		if err := session.Query(`SELECT name FROM categories WHERE category_id = ?`, catUUID).Scan(&catName); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Catégorie inexistante"})
			return
		}
		updates = append(updates, "category_id = ?")
		values = append(values, catUUID)
	}
	if input.Tags != nil {
		updates = append(updates, "tags = ?")
		values = append(values, *input.Tags)
	}
	if input.IsActive != nil {
		updates = append(updates, "is_active = ?")
		values = append(values, *input.IsActive)
	}

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Aucune donnée à mettre à jour"})
		return
	}

	updates = append(updates, "updated_at = ?")
	values = append(values, time.Now())
	values = append(values, productUUID)

	query := "UPDATE products SET " + updates[0]
	for i := 1; i < len(updates); i++ {
		query += ", " + updates[i]
	}
	query += " WHERE product_id = ?"

	if err := session.Query(query, values...).Exec(); err != nil {
		log.Printf("❌ Erreur mise à jour produit %s: %v", productID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la mise à jour"})
		return
	}

	cache.InvalidateProduct(productID)
	invalidateProductsList()

	// Relecture pour ré-indexer la version à jour dans Elasticsearch
	var p models.Product
	if err := session.Query(`
		SELECT product_id, sku, name, description, price_cents, stock, low_stock_threshold, category_id, image_urls, tags, is_active, created_at, updated_at
		FROM products WHERE product_id = ?`, productUUID).Scan(
		&p.ID, &p.SKU, &p.Name, &p.Description, &p.PriceCents, &p.Stock, &p.LowStockThreshold,
		&p.CategoryID, &p.ImageURLs, &p.Tags, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err == nil {
		go services.IndexProduct(p)
	}

	utils.LogAction(c, utils.ActionProductUpdate, "product", productID, nil, gin.H{"fields": len(updates) - 1})

	c.JSON(http.StatusOK, gin.H{"message": "Produit mis à jour avec succès"})
}

// DeleteProduct - Suppression logique : le produit reste lisible par le
// staff et référençable par les commandes passées, mais sort du catalogue
func DeleteProduct(c *gin.Context) {
	productID := c.Param("id")

	productUUID, err := gocql.ParseUUID(productID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var name string
	if err := session.Query(`SELECT name FROM products WHERE product_id = ?`, productUUID).Scan(&name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	if err := session.Query(`UPDATE products SET is_active = false, updated_at = ? WHERE product_id = ?`,
		time.Now(), productUUID).Exec(); err != nil {
		log.Printf("❌ Erreur désactivation produit %s: %v", productID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la suppression"})
		return
	}

	go services.RemoveProductFromIndex(productID)

	cache.InvalidateProduct(productID)
	invalidateProductsList()
	utils.LogAction(c, utils.ActionProductDelete, "product", productID, gin.H{"name": name}, gin.H{"is_active": false})

	log.Printf("🗑️ Produit désactivé: %s (%s)", name, productID)
	c.JSON(http.StatusOK, gin.H{"message": "Produit supprimé avec succès"})
}

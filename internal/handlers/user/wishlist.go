package user

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"velora_back_end/internal/database"
	"velora_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
)

const wishlistCacheTTL = 5 * time.Minute

// GetWishlist récupère la wishlist avec les fiches produit (cache Redis)
func GetWishlist(c *gin.Context) {
	userID := c.GetString("user_id")

	ctx := context.Background()
	cacheKey := "wishlist:" + userID

	cached, err := database.Redis.Get(ctx, cacheKey).Result()
	if err == nil {
		var wishlist models.Wishlist
		if json.Unmarshal([]byte(cached), &wishlist) == nil {
			c.JSON(http.StatusOK, wishlist)
			return
		}
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query("SELECT product_id FROM wishlist WHERE user_id = ?", userID).Iter()

	var productIDs []gocql.UUID
	var productID gocql.UUID
	for iter.Scan(&productID) {
		productIDs = append(productIDs, productID)
	}
	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture wishlist"})
		return
	}

	wishlist := models.Wishlist{UserID: userID, Items: []models.Product{}}

	productsSession, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}
	for _, pid := range productIDs {
		var p models.Product
		if err := productsSession.Query(`SELECT product_id, sku, name, description, price_cents, stock, is_active, image_urls
			FROM products WHERE product_id = ?`, pid).Scan(
			&p.ID, &p.SKU, &p.Name, &p.Description, &p.PriceCents, &p.Stock, &p.IsActive, &p.ImageURLs,
		); err == nil && p.IsActive {
			wishlist.Items = append(wishlist.Items, p)
		}
	}

	wishlist.Count = len(wishlist.Items)

	if data, err := json.Marshal(wishlist); err == nil {
		database.Redis.Set(ctx, cacheKey, data, wishlistCacheTTL)
	}

	c.JSON(http.StatusOK, wishlist)
}

// AddToWishlist ajoute un produit à la wishlist
func AddToWishlist(c *gin.Context) {
	userID := c.GetString("user_id")

	productID, err := gocql.ParseUUID(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	// Le produit doit exister et être actif
	productsSession, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}
	var isActive bool
	if err := productsSession.Query("SELECT is_active FROM products WHERE product_id = ?", productID).Scan(&isActive); err != nil || !isActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	if err := session.Query(
		"INSERT INTO wishlist (user_id, product_id, added_at) VALUES (?, ?, ?)",
		userID, productID, time.Now(),
	).Exec(); err != nil {
		log.Printf("❌ Erreur ajout wishlist: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur ajout wishlist"})
		return
	}

	database.Redis.Del(context.Background(), "wishlist:"+userID)

	c.JSON(http.StatusOK, gin.H{"message": "Produit ajouté à la wishlist"})
}

// RemoveFromWishlist retire un produit de la wishlist
func RemoveFromWishlist(c *gin.Context) {
	userID := c.GetString("user_id")

	productID, err := gocql.ParseUUID(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	if err := session.Query(
		"DELETE FROM wishlist WHERE user_id = ? AND product_id = ?",
		userID, productID,
	).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur suppression wishlist"})
		return
	}

	database.Redis.Del(context.Background(), "wishlist:"+userID)

	c.JSON(http.StatusOK, gin.H{"message": "Produit retiré de la wishlist"})
}

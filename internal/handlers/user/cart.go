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

// Le panier vit dans Redis sous cart:<userID>, TTL 30 jours
const cartTTL = 30 * 24 * time.Hour

func GetCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	cart := loadCart(userID)

	c.JSON(http.StatusOK, gin.H{
		"items":       cart,
		"total_cents": cartTotalCents(cart),
		"count":       len(cart),
	})
}

// 🟢 POST /api/cart/add
func AddToCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	var input struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	if input.Quantity <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantité invalide"})
		return
	}

	productID, err := gocql.ParseUUID(input.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	// Le prix affiché dans le panier vient du catalogue, jamais du client
	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var (
		sku, name  string
		priceCents int64
		stock      int
		isActive   bool
		imageURLs  []string
	)
	err = session.Query(`SELECT sku, name, price_cents, stock, is_active, image_urls
		FROM products WHERE product_id = ?`, productID).Scan(
		&sku, &name, &priceCents, &stock, &isActive, &imageURLs)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	if !isActive {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Produit indisponible"})
		return
	}

	cart := loadCart(userID)

	// Fusion avec la ligne existante, plafonnée au stock courant
	found := false
	for i := range cart {
		if cart[i].ProductID == input.ProductID {
			newQty := cart[i].Quantity + input.Quantity
			if newQty > stock {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":     "Stock insuffisant",
					"available": stock,
					"requested": newQty,
				})
				return
			}
			cart[i].Quantity = newQty
			cart[i].PriceCents = priceCents
			cart[i].Name = name
			found = true
			break
		}
	}

	if !found {
		if input.Quantity > stock {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "Stock insuffisant",
				"available": stock,
				"requested": input.Quantity,
			})
			return
		}
		imageURL := ""
		if len(imageURLs) > 0 {
			imageURL = imageURLs[0]
		}
		cart = append(cart, models.CartItem{
			ProductID:  input.ProductID,
			SKU:        sku,
			Name:       name,
			PriceCents: priceCents,
			Quantity:   input.Quantity,
			ImageURL:   imageURL,
		})
	}

	if err := saveCart(userID, cart); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur sauvegarde panier"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":       cart,
		"total_cents": cartTotalCents(cart),
		"count":       len(cart),
	})
}

// 🟡 PUT /api/cart/update
func UpdateCartItem(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	var input struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}

	if err := c.ShouldBindJSON(&input); err != nil || input.Quantity < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	cart := loadCart(userID)
	updated := cart[:0]

	for _, item := range cart {
		if item.ProductID == input.ProductID {
			if input.Quantity == 0 {
				continue // quantité 0 = suppression de la ligne
			}
			item.Quantity = input.Quantity
		}
		updated = append(updated, item)
	}

	if err := saveCart(userID, updated); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur sauvegarde panier"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":       updated,
		"total_cents": cartTotalCents(updated),
		"count":       len(updated),
	})
}

// 🔴 DELETE /api/cart/remove/:productId
func RemoveFromCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	productID := c.Param("productId")
	cart := loadCart(userID)
	updated := cart[:0]

	for _, item := range cart {
		if item.ProductID != productID {
			updated = append(updated, item)
		}
	}

	if err := saveCart(userID, updated); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur sauvegarde panier"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":       updated,
		"total_cents": cartTotalCents(updated),
		"count":       len(updated),
	})
}

// 🧹 DELETE /api/cart/clear
func ClearCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	ctx := context.Background()
	if err := database.RedisClient.Del(ctx, "cart:"+userID).Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur suppression panier"})
		return
	}

	database.Redis.Publish(ctx, "cart:"+userID, "cleared")

	c.JSON(http.StatusOK, gin.H{"message": "Panier vidé"})
}

func loadCart(userID string) []models.CartItem {
	ctx := context.Background()

	data, err := database.RedisClient.Get(ctx, "cart:"+userID).Result()
	if err != nil || data == "" {
		return []models.CartItem{}
	}

	var cart []models.CartItem
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		log.Printf("⚠️ Panier corrompu pour %s, réinitialisé", userID)
		return []models.CartItem{}
	}
	return cart
}

func saveCart(userID string, cart []models.CartItem) error {
	ctx := context.Background()

	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	if err := database.RedisClient.Set(ctx, "cart:"+userID, data, cartTTL).Err(); err != nil {
		return err
	}

	// Notifie les sessions WebSocket ouvertes
	database.Redis.Publish(ctx, "cart:"+userID, "updated")
	return nil
}

func cartTotalCents(cart []models.CartItem) int64 {
	var total int64
	for _, item := range cart {
		total += item.PriceCents * int64(item.Quantity)
	}
	return total
}

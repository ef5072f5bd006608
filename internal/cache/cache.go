package cache

import (
	"context"
	"encoding/json"
	"time"

	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
)

const (
	UserCacheTTL    = 5 * time.Minute
	ProductCacheTTL = 10 * time.Minute
)

// GetUser récupère un profil utilisateur depuis Redis
func GetUser(userID string) (*models.User, bool) {
	ctx := context.Background()

	data, err := database.Redis.Get(ctx, "user:"+userID).Result()
	if err != nil {
		return nil, false
	}

	var user models.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, false
	}
	return &user, true
}

// SetUser met un profil utilisateur en cache
func SetUser(userID string, user models.User) {
	ctx := context.Background()

	data, err := json.Marshal(user)
	if err != nil {
		return
	}
	database.Redis.Set(ctx, "user:"+userID, data, UserCacheTTL)
}

// InvalidateUser invalide le cache d'un utilisateur
func InvalidateUser(userID string) {
	ctx := context.Background()
	database.Redis.Del(ctx, "user:"+userID)
}

// GetProduct récupère un produit depuis Redis
func GetProduct(productID string) (*models.Product, bool) {
	ctx := context.Background()

	data, err := database.Redis.Get(ctx, "product:"+productID).Result()
	if err != nil {
		return nil, false
	}

	var product models.Product
	if err := json.Unmarshal([]byte(data), &product); err != nil {
		return nil, false
	}
	return &product, true
}

// SetProduct met un produit en cache
func SetProduct(product models.Product) {
	ctx := context.Background()

	data, err := json.Marshal(product)
	if err != nil {
		return
	}
	database.Redis.Set(ctx, "product:"+product.ID.String(), data, ProductCacheTTL)
}

// InvalidateProduct invalide le cache d'un produit
// (à appeler après toute écriture catalogue ou mouvement de stock)
func InvalidateProduct(productID string) {
	ctx := context.Background()
	database.Redis.Del(ctx, "product:"+productID)
}

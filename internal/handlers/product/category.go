package product

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
)

const categoriesCacheKey = "categories:all"

// CreateCategory - Créer une catégorie (staff/admin)
func CreateCategory(c *gin.Context) {
	var cat models.Category
	if err := c.ShouldBindJSON(&cat); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if cat.Name == "" || cat.Slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Les champs 'name' et 'slug' sont obligatoires"})
		return
	}
	cat.Slug = strings.ToLower(strings.TrimSpace(cat.Slug))

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	// Le slug sert d'identifiant côté front, pas de doublon
	var existingID gocql.UUID
	if err := session.Query(`SELECT category_id FROM categories WHERE slug = ? ALLOW FILTERING`,
		cat.Slug).Scan(&existingID); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Une catégorie avec ce slug existe déjà"})
		return
	}

	cat.ID = gocql.TimeUUID()
	now := time.Now()
	cat.CreatedAt = &now

	if err := session.Query(`INSERT INTO categories (category_id, name, slug, description, created_at) VALUES (?, ?, ?, ?, ?)`,
		cat.ID, cat.Name, cat.Slug, cat.Description, now).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la création de la catégorie"})
		return
	}

	database.Redis.Del(context.Background(), categoriesCacheKey)

	c.JSON(http.StatusCreated, cat)
}

// GetAllCategories - Lister les catégories (public, cache Redis 1h)
func GetAllCategories(c *gin.Context) {
	ctx := context.Background()

	if val, err := database.Redis.Get(ctx, categoriesCacheKey).Result(); err == nil && val != "" {
		var cached []models.Category
		if err := json.Unmarshal([]byte(val), &cached); err == nil {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`SELECT category_id, name, slug, description, created_at FROM categories`).Iter()

	var cats []models.Category
	var cat models.Category
	var createdAt time.Time

	for iter.Scan(&cat.ID, &cat.Name, &cat.Slug, &cat.Description, &createdAt) {
		ts := createdAt
		cat.CreatedAt = &ts
		cats = append(cats, cat)
		cat = models.Category{}
	}

	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture catégories"})
		return
	}

	if data, err := json.Marshal(cats); err == nil {
		database.Redis.Set(ctx, categoriesCacheKey, data, time.Hour)
	}

	c.JSON(http.StatusOK, cats)
}

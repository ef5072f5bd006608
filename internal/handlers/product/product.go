package product

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"velora_back_end/internal/apperrors"
	"velora_back_end/internal/cache"
	"velora_back_end/internal/database"
	"velora_back_end/internal/middleware"
	"velora_back_end/internal/models"
	"velora_back_end/internal/services"
	"velora_back_end/internal/utils"
)

const productsCacheKey = "products:all"

// CreateProduct - Créer un produit (staff/admin)
func CreateProduct(c *gin.Context) {
	var input struct {
		SKU               string   `json:"sku" binding:"required"`
		Name              string   `json:"name" binding:"required"`
		Description       string   `json:"description"`
		PriceCents        int64    `json:"price_cents" binding:"required,gt=0"`
		Stock             int      `json:"stock" binding:"gte=0"`
		LowStockThreshold int      `json:"low_stock_threshold"`
		CategoryID        string   `json:"category_id" binding:"required"`
		ImageURLs         []string `json:"image_urls"`
		Tags              []string `json:"tags"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides: " + err.Error()})
		return
	}

	catUUID, err := gocql.ParseUUID(input.CategoryID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID de catégorie invalide"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	// La catégorie doit exister
	var catName string
	if err := session.Query(`SELECT name FROM categories WHERE category_id = ?`, catUUID).Scan(&catName); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Catégorie inexistante"})
		return
	}

	productID := gocql.TimeUUID()
	sku := strings.ToUpper(strings.TrimSpace(input.SKU))

	// Unicité du SKU : le LWT sur products_by_sku est la seule barrière,
	// deux créations concurrentes ne peuvent pas gagner toutes les deux
	var existingSKU string
	var existingID gocql.UUID
	applied, err := session.Query(`INSERT INTO products_by_sku (sku, product_id) VALUES (?, ?) IF NOT EXISTS`,
		sku, productID).ScanCAS(&existingSKU, &existingID)
	if err != nil {
		log.Printf("❌ Erreur réservation SKU %s: %v", sku, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la création du produit"})
		return
	}
	if !applied {
		apperrors.Respond(c, apperrors.Conflict("un produit avec le SKU %s existe déjà", sku))
		return
	}

	threshold := input.LowStockThreshold
	if threshold <= 0 {
		threshold = 10
	}

	now := time.Now()
	p := models.Product{
		ID:                productID,
		SKU:               sku,
		Name:              input.Name,
		Description:       input.Description,
		PriceCents:        input.PriceCents,
		Stock:             input.Stock,
		LowStockThreshold: threshold,
		CategoryID:        catUUID,
		ImageURLs:         input.ImageURLs,
		Tags:              input.Tags,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := session.Query(`
		INSERT INTO products (product_id, sku, name, description, price_cents, stock, low_stock_threshold, category_id, image_urls, tags, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.SKU, p.Name, p.Description, p.PriceCents, p.Stock, p.LowStockThreshold,
		p.CategoryID, p.ImageURLs, p.Tags, p.IsActive, p.CreatedAt, p.UpdatedAt,
	).Exec(); err != nil {
		log.Printf("❌ Erreur insertion produit %s: %v", p.Name, err)
		// Libère la réservation SKU pour ne pas bloquer une nouvelle tentative
		session.Query(`DELETE FROM products_by_sku WHERE sku = ?`, sku).Exec()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la création du produit"})
		return
	}

	// Indexation Elasticsearch en arrière-plan
	go services.IndexProduct(p)

	invalidateProductsList()
	utils.LogAction(c, utils.ActionProductCreate, "product", p.ID.String(), nil, gin.H{
		"sku": p.SKU, "name": p.Name, "price_cents": p.PriceCents,
	})

	log.Printf("✅ Produit créé: %s (%s)", p.Name, p.SKU)
	c.JSON(http.StatusCreated, p)
}

// GetAllProducts - Liste paginée avec filtres
// (category, min_price_cents, max_price_cents, in_stock, q)
func GetAllProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	products, err := loadActiveProducts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture produits"})
		return
	}

	// Filtres en mémoire sur la liste cachée : le catalogue tient en RAM,
	// la recherche lourde passe par Elasticsearch (/products/search)
	if categoryID := c.Query("category"); categoryID != "" {
		catUUID, err := gocql.ParseUUID(categoryID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ID de catégorie invalide"})
			return
		}
		products = filterProducts(products, func(p models.Product) bool { return p.CategoryID == catUUID })
	}
	if v := c.Query("min_price_cents"); v != "" {
		min, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "min_price_cents invalide"})
			return
		}
		products = filterProducts(products, func(p models.Product) bool { return p.PriceCents >= min })
	}
	if v := c.Query("max_price_cents"); v != "" {
		max, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_price_cents invalide"})
			return
		}
		products = filterProducts(products, func(p models.Product) bool { return p.PriceCents <= max })
	}
	if c.Query("in_stock") == "true" {
		products = filterProducts(products, func(p models.Product) bool { return p.Stock > 0 })
	}
	if q := strings.ToLower(c.Query("q")); q != "" {
		products = filterProducts(products, func(p models.Product) bool {
			return strings.Contains(strings.ToLower(p.Name), q) ||
				strings.Contains(strings.ToLower(p.Description), q) ||
				containsTag(p.Tags, q)
		})
	}

	sortProducts(products, c.DefaultQuery("sort", "newest"))

	total := len(products)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products[start:end],
		"pagination": gin.H{
			"page":        page,
			"limit":       limit,
			"total":       total,
			"total_pages": (total + limit - 1) / limit,
		},
	})
}

// GetProduct - Détail d'un produit (URLs d'images signées MinIO)
func GetProduct(c *gin.Context) {
	productID := c.Param("id")

	productUUID, err := gocql.ParseUUID(productID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	if cached, ok := cache.GetProduct(productID); ok {
		if !cached.IsActive && !middleware.IsStaff(c) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
			return
		}
		c.JSON(http.StatusOK, withSignedImages(*cached))
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var p models.Product
	if err := session.Query(`
		SELECT product_id, sku, name, description, price_cents, stock, low_stock_threshold, category_id, image_urls, tags, is_active, created_at, updated_at
		FROM products WHERE product_id = ?`, productUUID).Scan(
		&p.ID, &p.SKU, &p.Name, &p.Description, &p.PriceCents, &p.Stock, &p.LowStockThreshold,
		&p.CategoryID, &p.ImageURLs, &p.Tags, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	cache.SetProduct(p)

	if !p.IsActive && !middleware.IsStaff(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	c.JSON(http.StatusOK, withSignedImages(p))
}

// SearchProducts - Recherche plein texte via Elasticsearch,
// repli sur un scan ScyllaDB filtré en mémoire si l'index est indisponible
func SearchProducts(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "paramètre 'q' manquant"})
		return
	}

	results, err := services.SearchProducts(query)
	if err == nil && len(results) > 0 {
		ctx := context.Background()
		for i := range results {
			if urls, ok := results[i]["image_urls"].([]interface{}); ok {
				signed := []string{}
				for _, u := range urls {
					if str, ok := u.(string); ok && str != "" {
						if signedURL, err := services.GenerateSignedURL(ctx, str, 24*time.Hour); err == nil {
							signed = append(signed, signedURL)
						}
					}
				}
				results[i]["image_urls"] = signed
			}
		}
		c.JSON(http.StatusOK, gin.H{"products": results, "source": "elasticsearch"})
		return
	}
	if err != nil {
		log.Printf("🔁 Elastic indisponible, repli ScyllaDB: %v", err)
	}

	products, err := loadActiveProducts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur recherche"})
		return
	}

	q := strings.ToLower(query)
	matches := filterProducts(products, func(p models.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q) ||
			containsTag(p.Tags, q)
	})
	for i := range matches {
		matches[i] = withSignedImages(matches[i])
	}

	c.JSON(http.StatusOK, gin.H{"products": matches, "source": "scylla"})
}

// GetLowStockProducts - Produits sous leur seuil d'alerte (staff)
func GetLowStockProducts(c *gin.Context) {
	products, err := loadActiveProducts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture produits"})
		return
	}

	low := filterProducts(products, func(p models.Product) bool {
		return p.Stock <= p.LowStockThreshold
	})

	c.JSON(http.StatusOK, gin.H{"products": low, "total": len(low)})
}

// loadActiveProducts lit le catalogue actif, via le cache Redis (TTL 1h)
func loadActiveProducts() ([]models.Product, error) {
	ctx := context.Background()

	if val, err := database.Redis.Get(ctx, productsCacheKey).Result(); err == nil && val != "" {
		var cached []models.Product
		if err := json.Unmarshal([]byte(val), &cached); err == nil {
			return cached, nil
		}
	}

	session, err := database.GetProductsSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`
		SELECT product_id, sku, name, description, price_cents, stock, low_stock_threshold, category_id, image_urls, tags, is_active, created_at, updated_at
		FROM products`).Iter()

	var products []models.Product
	var p models.Product
	for iter.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.PriceCents, &p.Stock, &p.LowStockThreshold,
		&p.CategoryID, &p.ImageURLs, &p.Tags, &p.IsActive, &p.CreatedAt, &p.UpdatedAt) {
		if p.IsActive {
			products = append(products, p)
		}
		p = models.Product{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	if data, err := json.Marshal(products); err == nil {
		database.Redis.Set(ctx, productsCacheKey, data, time.Hour)
	}

	return products, nil
}

func invalidateProductsList() {
	database.Redis.Del(context.Background(), productsCacheKey)
}

func withSignedImages(p models.Product) models.Product {
	ctx := context.Background()
	signed := []string{}
	for _, img := range p.ImageURLs {
		if img == "" {
			continue
		}
		if url, err := services.GenerateSignedURL(ctx, img, 24*time.Hour); err == nil {
			signed = append(signed, url)
		}
	}
	p.ImageURLs = signed
	return p
}

func filterProducts(products []models.Product, keep func(models.Product) bool) []models.Product {
	filtered := products[:0:0]
	for _, p := range products {
		if keep(p) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

func containsTag(tags []string, q string) bool {
	for _, tag := range tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func sortProducts(products []models.Product, sortBy string) {
	less := func(a, b models.Product) bool { return a.CreatedAt.After(b.CreatedAt) }
	switch sortBy {
	case "price_asc":
		less = func(a, b models.Product) bool { return a.PriceCents < b.PriceCents }
	case "price_desc":
		less = func(a, b models.Product) bool { return a.PriceCents > b.PriceCents }
	case "name":
		less = func(a, b models.Product) bool { return a.Name < b.Name }
	}
	sort.Slice(products, func(i, j int) bool { return less(products[i], products[j]) })
}

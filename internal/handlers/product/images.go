package product

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/minio/minio-go/v7"

	"velora_back_end/internal/cache"
	"velora_back_end/internal/database"
	"velora_back_end/internal/services"
)

// UploadProductImage - Upload vers MinIO puis rattachement au produit
func UploadProductImage(c *gin.Context) {
	ctx := context.Background()

	productUUID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fichier manquant"})
		return
	}
	defer file.Close()

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var existingURLs []string
	if err := session.Query(`SELECT image_urls FROM products WHERE product_id = ?`,
		productUUID).Scan(&existingURLs); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	ext := filepath.Ext(header.Filename)
	objectName := fmt.Sprintf("products/%s/%d%s", productUUID.String(), time.Now().UnixNano(), ext)

	_, err = database.MinIO.PutObject(
		ctx,
		os.Getenv("MINIO_BUCKET"),
		objectName,
		file,
		header.Size,
		minio.PutObjectOptions{ContentType: header.Header.Get("Content-Type")},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur upload MinIO: " + err.Error()})
		return
	}

	existingURLs = append(existingURLs, objectName)
	if err := session.Query(`UPDATE products SET image_urls = ?, updated_at = ? WHERE product_id = ?`,
		existingURLs, time.Now(), productUUID).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour produit"})
		return
	}

	cache.InvalidateProduct(productUUID.String())
	invalidateProductsList()

	signed, _ := services.GenerateSignedURL(ctx, objectName, 24*time.Hour)

	c.JSON(http.StatusCreated, gin.H{
		"message":    "✅ Image uploadée avec succès",
		"product_id": productUUID.String(),
		"image_url":  objectName,
		"signed_url": signed,
	})
}

// GetProductImages - URLs signées (24h) des images d'un produit
func GetProductImages(c *gin.Context) {
	productUUID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var imageURLs []string
	if err := session.Query(`SELECT image_urls FROM products WHERE product_id = ?`,
		productUUID).Scan(&imageURLs); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	ctx := context.Background()
	signedURLs := []string{}
	for _, objectName := range imageURLs {
		if objectName == "" {
			continue
		}
		if signed, err := services.GenerateSignedURL(ctx, objectName, 24*time.Hour); err == nil {
			signedURLs = append(signedURLs, signed)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"product_id": productUUID.String(),
		"images":     signedURLs,
	})
}

// DeleteProductImage - Supprime une image de MinIO et du produit
func DeleteProductImage(c *gin.Context) {
	ctx := context.Background()

	productUUID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	var req struct {
		ImageURL string `json:"image_url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var currentURLs []string
	if err := session.Query(`SELECT image_urls FROM products WHERE product_id = ?`,
		productUUID).Scan(&currentURLs); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	filteredURLs := []string{}
	found := false
	for _, url := range currentURLs {
		if url == req.ImageURL {
			found = true
			continue
		}
		filteredURLs = append(filteredURLs, url)
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Image introuvable sur ce produit"})
		return
	}

	if err := database.MinIO.RemoveObject(
		ctx,
		os.Getenv("MINIO_BUCKET"),
		req.ImageURL,
		minio.RemoveObjectOptions{},
	); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur suppression MinIO: " + err.Error()})
		return
	}

	if err := session.Query(`UPDATE products SET image_urls = ?, updated_at = ? WHERE product_id = ?`,
		filteredURLs, time.Now(), productUUID).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour produit"})
		return
	}

	cache.InvalidateProduct(productUUID.String())
	invalidateProductsList()

	c.JSON(http.StatusOK, gin.H{
		"message":    "🗑️ Image supprimée avec succès",
		"product_id": productUUID.String(),
		"image_url":  req.ImageURL,
	})
}

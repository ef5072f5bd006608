package user

import (
	"log"
	"net/http"

	"velora_back_end/internal/database"
	"velora_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
)

//
// --- HANDLERS ADRESSES ---
//

// 🟢 GET /api/addresses/mine
func ListMyAddresses(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	session, err := database.GetUsersSession()
	if err != nil {
		log.Printf("❌ Erreur session ScyllaDB: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var results []models.Address
	iter := session.Query(
		"SELECT address_id, street, postal_code, city, country, type, is_default FROM addresses WHERE user_id = ?",
		userID,
	).Iter()

	var a models.Address
	for iter.Scan(&a.ID, &a.Street, &a.PostalCode, &a.City, &a.Country, &a.Type, &a.IsDefault) {
		a.UserID = userID
		results = append(results, a)
	}
	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture adresses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"addresses": results})
}

// 🟢 POST /api/addresses
func CreateAddress(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	var input struct {
		Street     string `json:"street" binding:"required"`
		City       string `json:"city" binding:"required"`
		PostalCode string `json:"postal_code" binding:"required"`
		Country    string `json:"country" binding:"required"`
		Type       string `json:"type"`
		IsDefault  bool   `json:"is_default"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	if input.Type == "" {
		input.Type = "shipping"
	}
	if input.Type != "shipping" && input.Type != "billing" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Type d'adresse invalide"})
		return
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	address := models.Address{
		ID:         gocql.TimeUUID(),
		UserID:     userID,
		Street:     input.Street,
		City:       input.City,
		PostalCode: input.PostalCode,
		Country:    input.Country,
		Type:       input.Type,
		IsDefault:  input.IsDefault,
	}

	if err := session.Query(
		"INSERT INTO addresses (user_id, address_id, street, postal_code, city, country, type, is_default) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		address.UserID, address.ID, address.Street, address.PostalCode, address.City, address.Country, address.Type, address.IsDefault,
	).Exec(); err != nil {
		log.Printf("❌ Erreur création adresse: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création adresse"})
		return
	}

	c.JSON(http.StatusCreated, address)
}

// 🔴 DELETE /api/addresses/:id
func DeleteAddress(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	addressID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID adresse invalide"})
		return
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	if err := session.Query(
		"DELETE FROM addresses WHERE user_id = ? AND address_id = ?",
		userID, addressID,
	).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur suppression adresse"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Adresse supprimée"})
}

package user

import (
	"context"
	"log"
	"net/http"

	"velora_back_end/internal/cache"
	"velora_back_end/internal/database"
	"velora_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
)

// DeleteAccount supprime le compte et toutes ses données associées :
// profil, lookup email, refresh tokens, adresses, wishlist, panier.
// Les commandes passées sont conservées (obligations comptables).
func DeleteAccount(c *gin.Context) {
	userIDStr := c.GetString("user_id")
	userID, err := gocql.ParseUUID(userIDStr)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}

	var input struct {
		Password        string `json:"password"`
		ConfirmDeletion bool   `json:"confirmDeletion"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	if !input.ConfirmDeletion {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Vous devez confirmer la suppression"})
		return
	}

	usersSession, err := database.GetUsersSession()
	if err != nil {
		log.Printf("❌ Erreur session ScyllaDB users: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var email, password, provider string
	if err := usersSession.Query(
		"SELECT email, password, provider FROM users WHERE user_id = ?", userID,
	).Scan(&email, &password, &provider); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
		return
	}

	// Les comptes locaux confirment avec leur mot de passe
	if provider == "local" {
		valid, err := utils.VerifyPassword(input.Password, password)
		if err != nil || !valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Mot de passe incorrect"})
			return
		}
	}

	queries := []struct {
		cql  string
		args []interface{}
	}{
		{"DELETE FROM refresh_tokens WHERE user_id = ?", []interface{}{userID}},
		{"DELETE FROM addresses WHERE user_id = ?", []interface{}{userIDStr}},
		{"DELETE FROM wishlist WHERE user_id = ?", []interface{}{userIDStr}},
		{"DELETE FROM users_by_email WHERE email = ?", []interface{}{email}},
		{"DELETE FROM users WHERE user_id = ?", []interface{}{userID}},
	}

	for _, q := range queries {
		if err := usersSession.Query(q.cql, q.args...).Exec(); err != nil {
			log.Printf("⚠️ Erreur suppression (%s): %v", q.cql, err)
		}
	}

	ctx := context.Background()
	database.RedisClient.Del(ctx, "cart:"+userIDStr, "wishlist:"+userIDStr)
	cache.InvalidateUser(userIDStr)

	log.Printf("🧹 Compte supprimé: %s (%s)", email, userIDStr)

	c.JSON(http.StatusOK, gin.H{"message": "Compte supprimé définitivement"})
}

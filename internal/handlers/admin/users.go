package admin

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

// Les rôles sont fixes : customer < manager < admin.
var validRoles = map[string]bool{
	"customer": true,
	"manager":  true,
	"admin":    true,
}

// ListUsers - Liste des comptes (admin)
func ListUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit < 1 || limit > 500 {
		limit = 100
	}

	usersSession, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := usersSession.Query(`SELECT user_id, email, name, role, provider, is_active, created_at
		FROM users LIMIT ?`, limit).Iter()

	var users []models.User
	var u models.User

	for iter.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.Provider, &u.IsActive, &u.CreatedAt) {
		users = append(users, u)
		u = models.User{}
	}

	if err := iter.Close(); err != nil {
		log.Printf("❌ Erreur récupération utilisateurs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"total": len(users),
	})
}

// UpdateUserRole - Changer le rôle d'un compte (admin)
func UpdateUserRole(c *gin.Context) {
	userUUID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID utilisateur invalide"})
		return
	}

	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	if !validRoles[req.Role] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Rôle invalide (customer, manager, admin)"})
		return
	}

	// Un admin ne peut pas se rétrograder lui-même
	if userUUID.String() == c.GetString("user_id") && req.Role != "admin" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Impossible de modifier son propre rôle"})
		return
	}

	usersSession, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var oldRole string
	if err := usersSession.Query(`SELECT role FROM users WHERE user_id = ?`, userUUID).Scan(&oldRole); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
		return
	}

	if err := usersSession.Query(`UPDATE users SET role = ?, updated_at = ? WHERE user_id = ?`,
		req.Role, time.Now(), userUUID).Exec(); err != nil {
		log.Printf("❌ Erreur mise à jour rôle: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la mise à jour"})
		return
	}

	cache.InvalidateUser(userUUID.String())
	utils.LogAction(c, utils.ActionUserRoleUpdate, "user", userUUID.String(),
		gin.H{"role": oldRole}, gin.H{"role": req.Role})

	log.Printf("✅ Rôle mis à jour pour %s: %s -> %s", userUUID.String(), oldRole, req.Role)
	c.JSON(http.StatusOK, gin.H{"message": "Rôle mis à jour avec succès", "role": req.Role})
}

// SetUserActive - Activer/désactiver un compte (admin).
// Un compte désactivé garde ses données mais ne peut plus se connecter.
func SetUserActive(c *gin.Context) {
	userUUID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID utilisateur invalide"})
		return
	}

	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	if userUUID.String() == c.GetString("user_id") && !*req.IsActive {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Impossible de désactiver son propre compte"})
		return
	}

	usersSession, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	if err := usersSession.Query(`UPDATE users SET is_active = ?, updated_at = ? WHERE user_id = ?`,
		*req.IsActive, time.Now(), userUUID).Exec(); err != nil {
		log.Printf("❌ Erreur mise à jour compte: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la mise à jour"})
		return
	}

	// Révoque les sessions en cours lors d'une désactivation
	if !*req.IsActive {
		if err := usersSession.Query(`DELETE FROM refresh_tokens WHERE user_id = ?`,
			userUUID.String()).Exec(); err != nil {
			log.Printf("⚠️ Erreur révocation refresh tokens: %v", err)
		}
	}

	cache.InvalidateUser(userUUID.String())
	utils.LogAction(c, utils.ActionUserDeactivate, "user", userUUID.String(),
		nil, gin.H{"is_active": *req.IsActive})

	c.JSON(http.StatusOK, gin.H{"message": "Compte mis à jour", "is_active": *req.IsActive})
}

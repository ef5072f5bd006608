package user

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"velora_back_end/internal/cache"
	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
	"velora_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
)

// ================== AUTH LOCALE ==================

// CreateUser inscrit un compte local. L'unicité de l'email passe par la
// table de lookup users_by_email (LWT pour éviter la course à
// l'inscription).
func CreateUser(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création utilisateur"})
		return
	}

	userID := gocql.TimeUUID()
	now := time.Now()

	// Réserve l'email d'abord : si la ligne existe déjà, le compte existe
	reserve, err := database.QueryReserveEmail(input.Email, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}
	applied, err := reserve.ScanCAS(nil, nil)
	if err != nil {
		log.Printf("❌ Erreur réservation email: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création utilisateur"})
		return
	}
	if !applied {
		c.JSON(http.StatusConflict, gin.H{"error": "Un compte avec cet email existe déjà"})
		return
	}

	user := models.User{
		ID:        userID,
		Name:      input.Name,
		Email:     input.Email,
		Password:  hashedPassword,
		Role:      "customer",
		Provider:  "local",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	insert, err := database.QueryInsertUser(
		user.ID, user.Email, user.Password, user.Name, user.Role, user.Provider, "",
		user.IsActive, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}
	if err := insert.Exec(); err != nil {
		log.Printf("❌ Erreur insertion utilisateur: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création utilisateur"})
		return
	}

	go func() {
		if err := utils.SendWelcomeEmail(user.Email, user.Name); err != nil {
			log.Printf("⚠️ Email de bienvenue non envoyé: %v", err)
		}
	}()

	accessToken, refreshToken, err := issueTokenPair(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
		return
	}

	log.Printf("✅ Utilisateur créé: %s (%s)", user.Email, user.ID)

	c.JSON(http.StatusCreated, gin.H{
		"token":         accessToken,
		"refresh_token": refreshToken,
		"userId":        user.ID.String(),
		"email":         user.Email,
		"name":          user.Name,
		"role":          user.Role,
	})
}

func Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	user, err := findUserByEmail(input.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
		return
	}

	if user.Provider != "local" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Ce compte utilise une connexion " + user.Provider})
		return
	}

	valid, err := utils.VerifyPassword(input.Password, user.Password)
	if err != nil || !valid {
		utils.LogFailedAction(c, utils.ActionLoginFailed, "auth", input.Email, "mot de passe incorrect")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "Compte désactivé"})
		return
	}

	accessToken, refreshToken, err := issueTokenPair(*user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
		return
	}

	// Invalide le cache profil, le rôle a pu changer depuis
	cache.InvalidateUser(user.ID.String())

	c.JSON(http.StatusOK, gin.H{
		"token":         accessToken,
		"refresh_token": refreshToken,
		"userId":        user.ID.String(),
		"email":         user.Email,
		"name":          user.Name,
		"role":          user.Role,
	})
}

// RefreshToken échange un refresh token valide contre une nouvelle
// paire. Le refresh token doit exister en base (révocable).
func RefreshToken(c *gin.Context) {
	var input struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh_token manquant"})
		return
	}

	claims, err := utils.ParseToken(input.RefreshToken)
	if err != nil || claims["type"] != "refresh" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token invalide"})
		return
	}

	userIDStr, _ := claims["user_id"].(string)
	userID, err := gocql.ParseUUID(userIDStr)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token invalide"})
		return
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var stored string
	if err := session.Query("SELECT token FROM refresh_tokens WHERE user_id = ? AND token = ?",
		userID, input.RefreshToken).Scan(&stored); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token révoqué ou inconnu"})
		return
	}

	user, err := findUserByID(userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur introuvable"})
		return
	}

	// Rotation : l'ancien refresh token est révoqué
	if err := session.Query("DELETE FROM refresh_tokens WHERE user_id = ? AND token = ?",
		userID, input.RefreshToken).Exec(); err != nil {
		log.Printf("⚠️ Révocation refresh token échouée: %v", err)
	}

	accessToken, refreshToken, err := issueTokenPair(*user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":         accessToken,
		"refresh_token": refreshToken,
	})
}

// Logout révoque tous les refresh tokens de l'utilisateur
func Logout(c *gin.Context) {
	userID, err := gocql.ParseUUID(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	if err := session.Query("DELETE FROM refresh_tokens WHERE user_id = ?", userID).Exec(); err != nil {
		log.Printf("⚠️ Révocation tokens échouée: %v", err)
	}

	cache.InvalidateUser(userID.String())

	c.JSON(http.StatusOK, gin.H{"message": "Déconnecté"})
}

// Me renvoie le profil de l'utilisateur connecté (avec cache Redis)
func Me(c *gin.Context) {
	userIDStr := c.GetString("user_id")
	if userIDStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}

	if cached, ok := cache.GetUser(userIDStr); ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	userID, err := gocql.ParseUUID(userIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID utilisateur invalide"})
		return
	}

	user, err := findUserByID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
		return
	}

	cache.SetUser(userIDStr, *user)

	c.JSON(http.StatusOK, user)
}

// ================== AUTH SOCIALE (WEB) ==================

func BeginAuth(c *gin.Context) {
	provider := c.Param("provider")
	if provider == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "aucun provider spécifié"})
		return
	}

	// Les providers sont enregistrés au démarrage (main), on valide juste ici
	if _, err := goth.GetProvider(provider); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Provider non supporté"})
		return
	}

	redirectURL := c.Query("redirect_url")

	ctx := context.Background()
	state := generateRandomState()
	if redirectURL != "" {
		_ = database.RedisClient.Set(ctx, "oauth_redirect:"+state, redirectURL, 10*time.Minute).Err()
	}

	q := c.Request.URL.Query()
	q.Set("provider", provider)
	q.Set("state", state)
	c.Request.URL.RawQuery = q.Encode()
	gothic.BeginAuthHandler(c.Writer, c.Request)
}

func CallbackAuth(c *gin.Context) {
	provider := c.Param("provider")
	state := c.Query("state")

	q := c.Request.URL.Query()
	q.Set("provider", provider)
	c.Request.URL.RawQuery = q.Encode()

	gothUser, err := gothic.CompleteUserAuth(c.Writer, c.Request)
	if err != nil {
		log.Printf("❌ Erreur callback OAuth %s: %v", provider, err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentification échouée"})
		return
	}

	user, err := findOrCreateOAuthUser(provider, gothUser.UserID, gothUser.Email, gothUser.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création utilisateur"})
		return
	}

	accessToken, refreshToken, err := issueTokenPair(*user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
		return
	}

	ctx := context.Background()
	redirectURI, _ := database.RedisClient.Get(ctx, "oauth_redirect:"+state).Result()
	database.RedisClient.Del(ctx, "oauth_redirect:"+state)

	if redirectURI == "" {
		redirectURI = os.Getenv("FRONTEND_URL")
		if redirectURI == "" {
			redirectURI = "http://localhost:5173"
		}
	}

	c.Redirect(http.StatusTemporaryRedirect,
		redirectURI+"?token="+accessToken+"&refresh_token="+refreshToken)
}

// ================== UTILITAIRES ==================

func generateRandomState() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}

// issueTokenPair génère access + refresh et persiste le refresh
// (révocable au logout)
func issueTokenPair(user models.User) (string, string, error) {
	accessToken, err := utils.GenerateJWT(user)
	if err != nil {
		return "", "", err
	}
	refreshToken, err := utils.GenerateRefreshToken(user)
	if err != nil {
		return "", "", err
	}

	q, err := database.QueryInsertRefreshToken(user.ID, refreshToken, time.Now())
	if err != nil {
		return "", "", err
	}
	if err := q.Exec(); err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

func findUserByEmail(email string) (*models.User, error) {
	q, err := database.QueryUserIDByEmail(email)
	if err != nil {
		return nil, err
	}

	var userID gocql.UUID
	if err := q.Scan(&userID); err != nil {
		return nil, err
	}

	return findUserByID(userID)
}

func findUserByID(userID gocql.UUID) (*models.User, error) {
	q, err := database.QueryUserByID(userID)
	if err != nil {
		return nil, err
	}

	user := models.User{ID: userID}
	if err := q.Scan(
		&user.Email, &user.Password, &user.Name, &user.Role, &user.Provider,
		&user.ProviderID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

// findOrCreateOAuthUser rattache un compte social : d'abord par
// provider_id, sinon par email (fusion), sinon création
func findOrCreateOAuthUser(provider, providerID, email, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if user, err := findUserByEmail(email); err == nil {
		if user.Provider != provider {
			session, err := database.GetUsersSession()
			if err != nil {
				return nil, err
			}
			if err := session.Query(
				"UPDATE users SET provider = ?, provider_id = ?, name = ?, updated_at = ? WHERE user_id = ?",
				provider, providerID, name, time.Now(), user.ID,
			).Exec(); err != nil {
				return nil, err
			}
			log.Printf("🔄 Compte existant fusionné avec provider %s : %s", provider, email)
		}
		return user, nil
	}

	userID := gocql.TimeUUID()
	now := time.Now()

	reserve, err := database.QueryReserveEmail(email, userID)
	if err != nil {
		return nil, err
	}
	applied, err := reserve.ScanCAS(nil, nil)
	if err != nil {
		return nil, err
	}
	if !applied {
		// créé entre-temps, on relit
		return findUserByEmail(email)
	}

	user := models.User{
		ID:         userID,
		Name:       name,
		Email:      email,
		Role:       "customer",
		Provider:   provider,
		ProviderID: providerID,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	insert, err := database.QueryInsertUser(
		user.ID, user.Email, "", user.Name, user.Role, user.Provider, user.ProviderID,
		user.IsActive, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := insert.Exec(); err != nil {
		return nil, err
	}

	log.Printf("🆕 Utilisateur OAuth créé (%s) : %s", provider, email)
	return &user, nil
}

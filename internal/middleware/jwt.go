package middleware

import (
	"fmt"
	"os"
	"strings"
	"time"

	"velora_back_end/internal/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthRequired valide le token Bearer et place user_id, email et role
// dans le contexte Gin
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			apperrors.Abort(c, apperrors.Unauthorized("Token manquant"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			apperrors.Abort(c, apperrors.Unauthorized("Format Authorization invalide"))
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("méthode de signature inattendue: %v", token.Header["alg"])
			}
			secret := os.Getenv("JWT_SECRET")
			if secret == "" {
				secret = "super_secret"
			}
			return []byte(secret), nil
		})
		if err != nil {
			apperrors.Abort(c, apperrors.Unauthorized("Token invalide"))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !token.Valid {
			apperrors.Abort(c, apperrors.Unauthorized("Token invalide"))
			return
		}

		if exp, ok := claims["exp"].(float64); ok {
			if time.Now().Unix() > int64(exp) {
				apperrors.Abort(c, apperrors.Unauthorized("Token expiré"))
				return
			}
		}

		// Les refresh tokens ne donnent pas accès à l'API
		if typ, _ := claims["type"].(string); typ == "refresh" {
			apperrors.Abort(c, apperrors.Unauthorized("Token invalide"))
			return
		}

		userID, ok := claims["user_id"].(string)
		if !ok || userID == "" {
			apperrors.Abort(c, apperrors.Unauthorized("user_id manquant"))
			return
		}

		c.Set("user_id", userID)
		if email, ok := claims["email"].(string); ok {
			c.Set("email", email)
		}
		if role, ok := claims["role"].(string); ok {
			c.Set("role", role)
		}

		c.Next()
	}
}

package middleware

import (
	"velora_back_end/internal/apperrors"

	"github.com/gin-gonic/gin"
)

// RequireAdmin vérifie que l'utilisateur a le rôle "admin"
func RequireAdmin(c *gin.Context) {
	role, exists := c.Get("role")
	if !exists || role != "admin" {
		apperrors.Abort(c, apperrors.Forbidden("Accès réservé aux administrateurs"))
		return
	}
	c.Next()
}

// RequireStaff vérifie que l'utilisateur est admin ou manager
func RequireStaff(c *gin.Context) {
	role, exists := c.Get("role")
	if !exists || (role != "admin" && role != "manager") {
		apperrors.Abort(c, apperrors.Forbidden("Accès réservé à l'équipe"))
		return
	}
	c.Next()
}

// IsStaff indique si le rôle attaché à la requête est admin ou manager
func IsStaff(c *gin.Context) bool {
	role := c.GetString("role")
	return role == "admin" || role == "manager"
}

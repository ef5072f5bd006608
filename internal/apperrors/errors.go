package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// Erreurs sentinelles du domaine. Chaque erreur est levée au point de
// détection et remonte inchangée jusqu'au handler, qui la traduit en
// statut HTTP via Respond.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
)

// Validation construit une erreur de validation avec message
func Validation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound construit une erreur "introuvable" avec message
func NotFound(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Unauthorized construit une erreur d'authentification (401)
func Unauthorized(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrUnauthorized, fmt.Sprintf(format, args...))
}

// Forbidden construit une erreur de droits insuffisants (403)
func Forbidden(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

// Conflict construit une erreur de doublon (clé unique, ex: SKU)
func Conflict(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// StatusCode mappe une erreur domaine vers un statut HTTP
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message retourne le message exposable au client. Les erreurs non
// classifiées sont masquées en production (GIN_MODE=release).
func Message(err error) string {
	if StatusCode(err) != http.StatusInternalServerError {
		return err.Error()
	}
	if os.Getenv("GIN_MODE") == "release" {
		return "Erreur interne"
	}
	return err.Error()
}

// Respond écrit la réponse d'erreur JSON et le bon statut
func Respond(c *gin.Context, err error) {
	c.JSON(StatusCode(err), gin.H{"error": Message(err)})
}

// Abort écrit la réponse d'erreur et interrompt la chaîne de
// middlewares. À utiliser dans les gardes (auth, rôles).
func Abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(StatusCode(err), gin.H{"error": Message(err)})
}

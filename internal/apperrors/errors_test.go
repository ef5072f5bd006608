package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestStatusCodeMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("stock insuffisant"), http.StatusBadRequest},
		{NotFound("commande introuvable"), http.StatusNotFound},
		{Unauthorized("Token manquant"), http.StatusUnauthorized},
		{Forbidden("Accès réservé aux administrateurs"), http.StatusForbidden},
		{Conflict("SKU déjà utilisé"), http.StatusConflict},
		{errors.New("panne réseau"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusCode(tc.err), "erreur: %v", tc.err)
	}
}

func TestWrappedErrorsKeepTheirKind(t *testing.T) {
	err := fmt.Errorf("checkout: %w", Validation("insufficient stock for product: Clavier"))

	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))
}

func TestAbortStopsTheChain(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	reached := false
	r.GET("/guarded", func(c *gin.Context) {
		Abort(c, Forbidden("Accès réservé à l'équipe"))
	}, func(c *gin.Context) {
		reached = true
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/guarded", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Accès réservé à l'équipe")
	assert.False(t, reached)
}

func TestMessageExposesClassifiedErrors(t *testing.T) {
	err := NotFound("produit introuvable")
	assert.Contains(t, Message(err), "produit introuvable")
}

func TestMessageMasksInternalErrorsInRelease(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	assert.Equal(t, "Erreur interne", Message(errors.New("timeout scylla")))

	t.Setenv("GIN_MODE", "debug")
	assert.Contains(t, Message(errors.New("timeout scylla")), "timeout scylla")
}

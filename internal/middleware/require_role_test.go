package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func performWithRole(t *testing.T, role string, guard gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/protected", func(c *gin.Context) {
		if role != "" {
			c.Set("role", role)
		}
		c.Next()
	}, guard, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAdmin(t *testing.T) {
	assert.Equal(t, http.StatusOK, performWithRole(t, "admin", RequireAdmin).Code)
	assert.Equal(t, http.StatusForbidden, performWithRole(t, "manager", RequireAdmin).Code)
	assert.Equal(t, http.StatusForbidden, performWithRole(t, "customer", RequireAdmin).Code)
	assert.Equal(t, http.StatusForbidden, performWithRole(t, "", RequireAdmin).Code)
}

func TestRequireStaff(t *testing.T) {
	assert.Equal(t, http.StatusOK, performWithRole(t, "admin", RequireStaff).Code)
	assert.Equal(t, http.StatusOK, performWithRole(t, "manager", RequireStaff).Code)
	assert.Equal(t, http.StatusForbidden, performWithRole(t, "customer", RequireStaff).Code)
	assert.Equal(t, http.StatusForbidden, performWithRole(t, "", RequireStaff).Code)
}

func TestIsStaff(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.False(t, IsStaff(c))

	c.Set("role", "customer")
	assert.False(t, IsStaff(c))

	c.Set("role", "manager")
	assert.True(t, IsStaff(c))

	c.Set("role", "admin")
	assert.True(t, IsStaff(c))
}

package payement

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func postWebhook(t *testing.T, body, signature string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/webhook/stripe", StripeWebhook)

	req := httptest.NewRequest(http.MethodPost, "/api/webhook/stripe", strings.NewReader(body))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestStripeWebhookRejectsWhenSecretMissing(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")

	// Sans secret, même un payload bien formé ne doit jamais être cru :
	// un POST forgé pourrait sinon marquer n'importe quelle commande payée
	body := `{"type":"checkout.session.completed","data":{"object":{"id":"cs_forge"}}}`
	rec := postWebhook(t, body, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "signature")
}

func TestStripeWebhookRejectsInvalidSignature(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_test_secret")

	body := `{"type":"checkout.session.completed","data":{"object":{"id":"cs_forge"}}}`
	rec := postWebhook(t, body, "t=1693000000,v1=deadbeef")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

package utils

import (
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velora_back_end/internal/models"
)

func testUser() models.User {
	return models.User{
		ID:    gocql.TimeUUID(),
		Email: "claire@example.com",
		Role:  "customer",
	}
}

func TestGenerateAndParseJWT(t *testing.T) {
	user := testUser()

	token, err := GenerateJWT(user)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)

	assert.Equal(t, user.ID.String(), claims["user_id"])
	assert.Equal(t, user.Email, claims["email"])
	assert.Equal(t, "customer", claims["role"])
	assert.Nil(t, claims["type"], "le token d'accès ne porte pas type=refresh")

	exp := int64(claims["exp"].(float64))
	assert.Greater(t, exp, time.Now().Unix())
}

func TestRefreshTokenCarriesType(t *testing.T) {
	token, err := GenerateRefreshToken(testUser())
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)

	assert.Equal(t, "refresh", claims["type"])
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, err := ParseToken("pas-un-jwt")
	assert.Error(t, err)
}

func TestParseTokenRejectsWrongSignature(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret_a")
	token, err := GenerateJWT(testUser())
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "secret_b")
	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "12,34€", FormatCents(1234))
	assert.Equal(t, "0,05€", FormatCents(5))
	assert.Equal(t, "100,00€", FormatCents(10000))
}

package database

import (
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
)

func TestQueryConstructorsFailWithoutKeyspace(t *testing.T) {
	t.Setenv("SCYLLA_KS_USERS_KEYSPACE", "")

	userID := gocql.TimeUUID()
	now := time.Now()

	cases := map[string]func() (*gocql.Query, error){
		"userIDByEmail": func() (*gocql.Query, error) { return QueryUserIDByEmail("user@velora.fr") },
		"userByID":      func() (*gocql.Query, error) { return QueryUserByID(userID) },
		"reserveEmail":  func() (*gocql.Query, error) { return QueryReserveEmail("user@velora.fr", userID) },
		"insertUser": func() (*gocql.Query, error) {
			return QueryInsertUser(userID, "user@velora.fr", "hash", "Nom", "customer", "local", "", true, now, now)
		},
		"insertRefreshToken": func() (*gocql.Query, error) { return QueryInsertRefreshToken(userID, "tok", now) },
		"updatePassword":     func() (*gocql.Query, error) { return QueryUpdatePassword("hash", now, userID) },
	}

	// Sans keyspace configuré, chaque constructeur remonte l'erreur de
	// session au lieu de retourner une requête inutilisable
	for name, build := range cases {
		q, err := build()
		assert.Error(t, err, name)
		assert.Nil(t, q, name)
	}
}

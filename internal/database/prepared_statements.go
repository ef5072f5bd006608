package database

import (
	"time"

	"github.com/gocql/gocql"
)

// Texte CQL des chemins chauds de l'authentification. gocql prépare
// chaque statement une fois par session et réutilise le prepare tant
// que le texte est identique : centraliser les constantes garantit une
// seule entrée de cache par requête, sans variantes qui le diluent.
// Chaque appel construit sa propre *gocql.Query, un Query partagé ne
// survivrait pas à des Bind concurrents.
const (
	cqlUserIDByEmail = "SELECT user_id FROM users_by_email WHERE email = ?"

	cqlUserByID = `SELECT email, password, name, role, provider, provider_id, is_active, created_at, updated_at
		FROM users WHERE user_id = ?`

	cqlReserveEmail = "INSERT INTO users_by_email (email, user_id) VALUES (?, ?) IF NOT EXISTS"

	cqlInsertUser = `INSERT INTO users (user_id, email, password, name, role, provider, provider_id, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	cqlInsertRefreshToken = "INSERT INTO refresh_tokens (user_id, token, created_at) VALUES (?, ?, ?) USING TTL 604800"

	cqlUpdatePassword = "UPDATE users SET password = ?, updated_at = ? WHERE user_id = ?"
)

func usersQuery(cql string, values ...interface{}) (*gocql.Query, error) {
	session, err := GetUsersSession()
	if err != nil {
		return nil, err
	}
	return session.Query(cql, values...), nil
}

// QueryUserIDByEmail lit la table de lookup users_by_email
func QueryUserIDByEmail(email string) (*gocql.Query, error) {
	return usersQuery(cqlUserIDByEmail, email)
}

// QueryUserByID lit la ligne complète d'un utilisateur
func QueryUserByID(userID gocql.UUID) (*gocql.Query, error) {
	return usersQuery(cqlUserByID, userID)
}

// QueryReserveEmail insère dans users_by_email avec LWT : c'est la
// barrière d'unicité de l'email, à lire avec ScanCAS
func QueryReserveEmail(email string, userID gocql.UUID) (*gocql.Query, error) {
	return usersQuery(cqlReserveEmail, email, userID)
}

// QueryInsertUser insère la ligne principale d'un utilisateur
func QueryInsertUser(userID gocql.UUID, email, password, name, role, provider, providerID string,
	isActive bool, createdAt, updatedAt time.Time) (*gocql.Query, error) {
	return usersQuery(cqlInsertUser,
		userID, email, password, name, role, provider, providerID, isActive, createdAt, updatedAt)
}

// QueryInsertRefreshToken persiste un refresh token, TTL aligné sur
// son expiration (7 jours)
func QueryInsertRefreshToken(userID gocql.UUID, token string, createdAt time.Time) (*gocql.Query, error) {
	return usersQuery(cqlInsertRefreshToken, userID, token, createdAt)
}

// QueryUpdatePassword remplace le hash du mot de passe
func QueryUpdatePassword(hash string, updatedAt time.Time, userID gocql.UUID) (*gocql.Query, error) {
	return usersQuery(cqlUpdatePassword, hash, updatedAt, userID)
}

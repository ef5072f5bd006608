package models

import (
	"time"

	"github.com/gocql/gocql"
)

type User struct {
	ID         gocql.UUID `json:"user_id"`
	Name       string     `json:"name,omitempty"`
	Email      string     `json:"email"`
	Password   string     `json:"-"`
	Role       string     `json:"role,omitempty"` // "customer", "manager", "admin"
	Provider   string     `json:"provider,omitempty"`
	ProviderID string     `json:"-"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

package repository

import (
	"context"

	"velora_back_end/internal/models"

	"github.com/gocql/gocql"
)

// ProductStore : accès produits côté workflow de commande
type ProductStore interface {
	GetProduct(ctx context.Context, id gocql.UUID) (*models.Product, error)

	// ReserveStock décrémente le stock de qty de façon conditionnelle :
	// la vérification stock >= qty et la décrémentation forment une seule
	// opération atomique côté base. Retourne ErrValidation si le stock
	// est insuffisant.
	ReserveStock(ctx context.Context, id gocql.UUID, qty int) error

	// ReleaseStock ré-incrémente le stock de qty (inverse exact de
	// ReserveStock, utilisé en compensation et au retour d'annulation)
	ReleaseStock(ctx context.Context, id gocql.UUID, qty int) error

	RecordMovement(ctx context.Context, m models.StockMovement) error
}

// StatRow : ligne brute pour l'agrégation des statistiques de commandes
type StatRow struct {
	Status        string
	PaymentStatus string
	TotalCents    int64
}

// OrderStore : persistance des commandes et de leurs lignes
type OrderStore interface {
	// InsertOrder écrit la commande, ses lignes et les tables de lookup
	// (orders_by_user, orders_by_session) en un seul batch
	InsertOrder(ctx context.Context, o *models.Order) error

	GetOrder(ctx context.Context, id gocql.UUID) (*models.Order, error)
	GetOrderIDBySession(ctx context.Context, sessionID string) (gocql.UUID, error)

	ListOrdersByUser(ctx context.Context, userID string, page, limit int) ([]models.Order, int, error)
	ListOrders(ctx context.Context, page, limit int) ([]models.Order, int, error)

	UpdateStatus(ctx context.Context, id gocql.UUID, status string) error
	SetCheckoutSession(ctx context.Context, id gocql.UUID, sessionID string) error

	// SetPayment applique un état de paiement gardé par payment_version :
	// l'écriture n'est appliquée que si version > payment_version courant.
	// status vide = statut de commande inchangé. Retourne false si
	// l'événement est périmé (version <= courante).
	SetPayment(ctx context.Context, id gocql.UUID, paymentStatus, status string, version int64) (bool, error)

	StatsRows(ctx context.Context, userID string) ([]StatRow, error)
}

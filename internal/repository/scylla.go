package repository

import (
	"context"
	"log"
	"sort"
	"time"

	"velora_back_end/internal/apperrors"
	"velora_back_end/internal/database"
	"velora_back_end/internal/models"

	"github.com/gocql/gocql"
)

// casRetries : nombre d'essais max pour une décrémentation conditionnelle
// sous contention avant d'abandonner
const casRetries = 5

// ScyllaProductStore implémente ProductStore sur le keyspace produits
type ScyllaProductStore struct {
	session *gocql.Session
}

// ScyllaOrderStore implémente OrderStore sur le keyspace commandes
type ScyllaOrderStore struct {
	session *gocql.Session
}

func NewScyllaProductStore(session *gocql.Session) *ScyllaProductStore {
	return &ScyllaProductStore{session: session}
}

func NewScyllaOrderStore(session *gocql.Session) *ScyllaOrderStore {
	return &ScyllaOrderStore{session: session}
}

// NewScyllaStores construit les deux stores depuis les sessions globales
func NewScyllaStores() (*ScyllaProductStore, *ScyllaOrderStore, error) {
	productsSession, err := database.GetProductsSession()
	if err != nil {
		return nil, nil, err
	}
	ordersSession, err := database.GetOrdersSession()
	if err != nil {
		return nil, nil, err
	}
	return NewScyllaProductStore(productsSession), NewScyllaOrderStore(ordersSession), nil
}

func (s *ScyllaProductStore) GetProduct(ctx context.Context, id gocql.UUID) (*models.Product, error) {
	var p models.Product
	p.ID = id
	err := s.session.Query(`SELECT sku, name, description, price_cents, stock, low_stock_threshold, category_id, image_urls, tags, is_active, created_at, updated_at
		FROM products WHERE product_id = ?`, id).WithContext(ctx).Scan(
		&p.SKU, &p.Name, &p.Description, &p.PriceCents, &p.Stock, &p.LowStockThreshold,
		&p.CategoryID, &p.ImageURLs, &p.Tags, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err == gocql.ErrNotFound {
		return nil, apperrors.NotFound("produit introuvable")
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ReserveStock : boucle CAS sur `UPDATE ... IF stock = ?`. La condition et
// la décrémentation sont un seul aller-retour LWT, il n'y a donc pas de
// fenêtre entre la lecture et l'écriture qui gagne le CAS.
func (s *ScyllaProductStore) ReserveStock(ctx context.Context, id gocql.UUID, qty int) error {
	for attempt := 0; attempt < casRetries; attempt++ {
		var stock int
		var name string
		err := s.session.Query(`SELECT stock, name FROM products WHERE product_id = ?`, id).
			WithContext(ctx).Scan(&stock, &name)
		if err == gocql.ErrNotFound {
			return apperrors.NotFound("produit introuvable")
		}
		if err != nil {
			return err
		}

		if stock < qty {
			return apperrors.Validation("insufficient stock for product: %s", name)
		}

		var prevStock int
		applied, err := s.session.Query(`UPDATE products SET stock = ?, updated_at = ? WHERE product_id = ? IF stock = ?`,
			stock-qty, time.Now(), id, stock).WithContext(ctx).ScanCAS(&prevStock)
		if err != nil {
			return err
		}
		if applied {
			return nil
		}
		// Perdu la course contre un autre checkout, on relit et on retente
	}
	return apperrors.Validation("stock contention, please retry")
}

func (s *ScyllaProductStore) ReleaseStock(ctx context.Context, id gocql.UUID, qty int) error {
	for attempt := 0; attempt < casRetries; attempt++ {
		var stock int
		err := s.session.Query(`SELECT stock FROM products WHERE product_id = ?`, id).
			WithContext(ctx).Scan(&stock)
		if err != nil {
			return err
		}

		var prevStock int
		applied, err := s.session.Query(`UPDATE products SET stock = ?, updated_at = ? WHERE product_id = ? IF stock = ?`,
			stock+qty, time.Now(), id, stock).WithContext(ctx).ScanCAS(&prevStock)
		if err != nil {
			return err
		}
		if applied {
			return nil
		}
	}
	return apperrors.Validation("stock contention, please retry")
}

func (s *ScyllaProductStore) RecordMovement(ctx context.Context, m models.StockMovement) error {
	return s.session.Query(`INSERT INTO stock_movements (id, product_id, type, quantity, prev_stock, new_stock, reason, order_id, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ProductID, m.Type, m.Quantity, m.PrevStock, m.NewStock, m.Reason, m.OrderID, m.UserID, m.CreatedAt).
		WithContext(ctx).Exec()
}

func (s *ScyllaOrderStore) InsertOrder(ctx context.Context, o *models.Order) error {
	batch := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)

	batch.Query(`INSERT INTO orders (order_id, order_number, user_id, status, payment_status, total_cents, shipping_address, billing_address, payment_method, notes, checkout_session_id, payment_version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.OrderNumber, o.UserID, o.Status, o.PaymentStatus, o.TotalCents,
		o.ShippingAddress, o.BillingAddress, o.PaymentMethod, o.Notes,
		o.CheckoutSessionID, o.PaymentVersion, o.CreatedAt, o.UpdatedAt)

	for _, item := range o.Items {
		batch.Query(`INSERT INTO order_items (order_id, product_id, sku, name, quantity, unit_price_cents, total_price_cents)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			item.OrderID, item.ProductID, item.SKU, item.Name, item.Quantity,
			item.UnitPriceCents, item.TotalPriceCents)
	}

	batch.Query(`INSERT INTO orders_by_user (user_id, created_at, order_id) VALUES (?, ?, ?)`,
		o.UserID, o.CreatedAt, o.ID)

	if o.CheckoutSessionID != "" {
		batch.Query(`INSERT INTO orders_by_session (checkout_session_id, order_id) VALUES (?, ?)`,
			o.CheckoutSessionID, o.ID)
	}

	return s.session.ExecuteBatch(batch)
}

func (s *ScyllaOrderStore) GetOrder(ctx context.Context, id gocql.UUID) (*models.Order, error) {
	var o models.Order
	o.ID = id
	err := s.session.Query(`SELECT order_number, user_id, status, payment_status, total_cents, shipping_address, billing_address, payment_method, notes, checkout_session_id, payment_version, created_at, updated_at
		FROM orders WHERE order_id = ?`, id).WithContext(ctx).Scan(
		&o.OrderNumber, &o.UserID, &o.Status, &o.PaymentStatus, &o.TotalCents,
		&o.ShippingAddress, &o.BillingAddress, &o.PaymentMethod, &o.Notes,
		&o.CheckoutSessionID, &o.PaymentVersion, &o.CreatedAt, &o.UpdatedAt)
	if err == gocql.ErrNotFound {
		return nil, apperrors.NotFound("commande introuvable")
	}
	if err != nil {
		return nil, err
	}

	iter := s.session.Query(`SELECT order_id, product_id, sku, name, quantity, unit_price_cents, total_price_cents
		FROM order_items WHERE order_id = ?`, id).WithContext(ctx).Iter()
	var item models.OrderItem
	for iter.Scan(&item.OrderID, &item.ProductID, &item.SKU, &item.Name, &item.Quantity,
		&item.UnitPriceCents, &item.TotalPriceCents) {
		o.Items = append(o.Items, item)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	return &o, nil
}

func (s *ScyllaOrderStore) GetOrderIDBySession(ctx context.Context, sessionID string) (gocql.UUID, error) {
	var id gocql.UUID
	err := s.session.Query(`SELECT order_id FROM orders_by_session WHERE checkout_session_id = ?`, sessionID).
		WithContext(ctx).Scan(&id)
	if err == gocql.ErrNotFound {
		return id, apperrors.NotFound("aucune commande pour cette session de paiement")
	}
	return id, err
}

func (s *ScyllaOrderStore) ListOrdersByUser(ctx context.Context, userID string, page, limit int) ([]models.Order, int, error) {
	iter := s.session.Query(`SELECT order_id FROM orders_by_user WHERE user_id = ?`, userID).
		WithContext(ctx).Iter()
	var ids []gocql.UUID
	var id gocql.UUID
	for iter.Scan(&id) {
		ids = append(ids, id)
	}
	if err := iter.Close(); err != nil {
		return nil, 0, err
	}
	return s.pageOrders(ctx, ids, page, limit)
}

func (s *ScyllaOrderStore) ListOrders(ctx context.Context, page, limit int) ([]models.Order, int, error) {
	iter := s.session.Query(`SELECT order_id FROM orders`).WithContext(ctx).Iter()
	var ids []gocql.UUID
	var id gocql.UUID
	for iter.Scan(&id) {
		ids = append(ids, id)
	}
	if err := iter.Close(); err != nil {
		return nil, 0, err
	}
	return s.pageOrders(ctx, ids, page, limit)
}

func (s *ScyllaOrderStore) pageOrders(ctx context.Context, ids []gocql.UUID, page, limit int) ([]models.Order, int, error) {
	total := len(ids)
	start := (page - 1) * limit
	if start >= total {
		return []models.Order{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}

	orders := make([]models.Order, 0, end-start)
	for _, id := range ids[start:end] {
		o, err := s.GetOrder(ctx, id)
		if err != nil {
			log.Printf("⚠️ Commande %s référencée mais illisible: %v", id, err)
			continue
		}
		orders = append(orders, *o)
	}

	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, total, nil
}

func (s *ScyllaOrderStore) UpdateStatus(ctx context.Context, id gocql.UUID, status string) error {
	return s.session.Query(`UPDATE orders SET status = ?, updated_at = ? WHERE order_id = ?`,
		status, time.Now(), id).WithContext(ctx).Exec()
}

func (s *ScyllaOrderStore) SetCheckoutSession(ctx context.Context, id gocql.UUID, sessionID string) error {
	batch := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(`UPDATE orders SET checkout_session_id = ?, updated_at = ? WHERE order_id = ?`,
		sessionID, time.Now(), id)
	batch.Query(`INSERT INTO orders_by_session (checkout_session_id, order_id) VALUES (?, ?)`,
		sessionID, id)
	return s.session.ExecuteBatch(batch)
}

// SetPayment : LWT sur payment_version pour qu'un webhook dupliqué ou
// arrivé dans le désordre n'écrase jamais un état plus récent
func (s *ScyllaOrderStore) SetPayment(ctx context.Context, id gocql.UUID, paymentStatus, status string, version int64) (bool, error) {
	now := time.Now()
	var prevVersion int64
	if status != "" {
		return s.session.Query(`UPDATE orders SET payment_status = ?, status = ?, payment_version = ?, updated_at = ? WHERE order_id = ? IF payment_version < ?`,
			paymentStatus, status, version, now, id, version).WithContext(ctx).ScanCAS(&prevVersion)
	}
	return s.session.Query(`UPDATE orders SET payment_status = ?, payment_version = ?, updated_at = ? WHERE order_id = ? IF payment_version < ?`,
		paymentStatus, version, now, id, version).WithContext(ctx).ScanCAS(&prevVersion)
}

func (s *ScyllaOrderStore) StatsRows(ctx context.Context, userID string) ([]StatRow, error) {
	var rows []StatRow

	if userID != "" {
		iter := s.session.Query(`SELECT order_id FROM orders_by_user WHERE user_id = ?`, userID).
			WithContext(ctx).Iter()
		var ids []gocql.UUID
		var id gocql.UUID
		for iter.Scan(&id) {
			ids = append(ids, id)
		}
		if err := iter.Close(); err != nil {
			return nil, err
		}
		for _, id := range ids {
			var r StatRow
			if err := s.session.Query(`SELECT status, payment_status, total_cents FROM orders WHERE order_id = ?`, id).
				WithContext(ctx).Scan(&r.Status, &r.PaymentStatus, &r.TotalCents); err == nil {
				rows = append(rows, r)
			}
		}
		return rows, nil
	}

	iter := s.session.Query(`SELECT status, payment_status, total_cents FROM orders`).
		WithContext(ctx).Iter()
	var r StatRow
	for iter.Scan(&r.Status, &r.PaymentStatus, &r.TotalCents) {
		rows = append(rows, r)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return rows, nil
}

package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"velora_back_end/internal/apperrors"
	"velora_back_end/internal/models"
	"velora_back_end/internal/repository"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Stores en mémoire pour tester le workflow sans ScyllaDB ---

type memProducts struct {
	products    map[gocql.UUID]*models.Product
	movements   []models.StockMovement
	failOn      map[gocql.UUID]bool // force l'échec de ReserveStock
	failRelease map[gocql.UUID]bool // force l'échec de ReleaseStock
	onReserve   func(gocql.UUID)    // appelé après chaque réservation réussie
}

func newMemProducts() *memProducts {
	return &memProducts{
		products:    make(map[gocql.UUID]*models.Product),
		failOn:      make(map[gocql.UUID]bool),
		failRelease: make(map[gocql.UUID]bool),
	}
}

func (m *memProducts) add(sku, name string, priceCents int64, stock int) gocql.UUID {
	id := gocql.TimeUUID()
	m.products[id] = &models.Product{
		ID: id, SKU: sku, Name: name, PriceCents: priceCents, Stock: stock, IsActive: true,
	}
	return id
}

func (m *memProducts) GetProduct(_ context.Context, id gocql.UUID) (*models.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, apperrors.NotFound("produit introuvable")
	}
	cp := *p
	return &cp, nil
}

func (m *memProducts) ReserveStock(_ context.Context, id gocql.UUID, qty int) error {
	if m.failOn[id] {
		return errors.New("write timeout")
	}
	p, ok := m.products[id]
	if !ok {
		return apperrors.NotFound("produit introuvable")
	}
	if p.Stock < qty {
		return apperrors.Validation("insufficient stock for product: %s", p.Name)
	}
	p.Stock -= qty
	if m.onReserve != nil {
		m.onReserve(id)
	}
	return nil
}

func (m *memProducts) ReleaseStock(_ context.Context, id gocql.UUID, qty int) error {
	if m.failRelease[id] {
		return errors.New("write timeout")
	}
	p, ok := m.products[id]
	if !ok {
		return apperrors.NotFound("produit introuvable")
	}
	p.Stock += qty
	return nil
}

func (m *memProducts) RecordMovement(_ context.Context, mv models.StockMovement) error {
	m.movements = append(m.movements, mv)
	return nil
}

type memOrders struct {
	orders    map[gocql.UUID]*models.Order
	byUser    map[string][]gocql.UUID
	bySession map[string]gocql.UUID
	insertErr error
}

func newMemOrders() *memOrders {
	return &memOrders{
		orders:    make(map[gocql.UUID]*models.Order),
		byUser:    make(map[string][]gocql.UUID),
		bySession: make(map[string]gocql.UUID),
	}
}

func (m *memOrders) InsertOrder(_ context.Context, o *models.Order) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	cp := *o
	m.orders[o.ID] = &cp
	m.byUser[o.UserID] = append(m.byUser[o.UserID], o.ID)
	if o.CheckoutSessionID != "" {
		m.bySession[o.CheckoutSessionID] = o.ID
	}
	return nil
}

func (m *memOrders) GetOrder(_ context.Context, id gocql.UUID) (*models.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, apperrors.NotFound("commande introuvable")
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) GetOrderIDBySession(_ context.Context, sessionID string) (gocql.UUID, error) {
	id, ok := m.bySession[sessionID]
	if !ok {
		return id, apperrors.NotFound("aucune commande pour cette session de paiement")
	}
	return id, nil
}

func (m *memOrders) ListOrdersByUser(_ context.Context, userID string, page, limit int) ([]models.Order, int, error) {
	var out []models.Order
	for _, id := range m.byUser[userID] {
		out = append(out, *m.orders[id])
	}
	return out, len(out), nil
}

func (m *memOrders) ListOrders(_ context.Context, page, limit int) ([]models.Order, int, error) {
	var out []models.Order
	for _, o := range m.orders {
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (m *memOrders) UpdateStatus(_ context.Context, id gocql.UUID, status string) error {
	o, ok := m.orders[id]
	if !ok {
		return apperrors.NotFound("commande introuvable")
	}
	o.Status = status
	return nil
}

func (m *memOrders) SetCheckoutSession(_ context.Context, id gocql.UUID, sessionID string) error {
	o, ok := m.orders[id]
	if !ok {
		return apperrors.NotFound("commande introuvable")
	}
	o.CheckoutSessionID = sessionID
	m.bySession[sessionID] = id
	return nil
}

func (m *memOrders) SetPayment(_ context.Context, id gocql.UUID, paymentStatus, status string, version int64) (bool, error) {
	o, ok := m.orders[id]
	if !ok {
		return false, apperrors.NotFound("commande introuvable")
	}
	if o.PaymentVersion >= version {
		return false, nil
	}
	o.PaymentStatus = paymentStatus
	if status != "" {
		o.Status = status
	}
	o.PaymentVersion = version
	return true, nil
}

func (m *memOrders) StatsRows(_ context.Context, userID string) ([]repository.StatRow, error) {
	var rows []repository.StatRow
	for _, o := range m.orders {
		if userID != "" && o.UserID != userID {
			continue
		}
		rows = append(rows, repository.StatRow{
			Status: o.Status, PaymentStatus: o.PaymentStatus, TotalCents: o.TotalCents,
		})
	}
	return rows, nil
}

func newTestWorkflow() (*OrderWorkflow, *memProducts, *memOrders) {
	products := newMemProducts()
	orders := newMemOrders()
	return NewOrderWorkflow(products, orders), products, orders
}

// --- Tests ---

func TestCreateOrderComputesTotalFromStoredPrices(t *testing.T) {
	w, products, orders := newTestWorkflow()
	idA := products.add("SKU-A", "Affiche Velora", 1000, 5)
	idB := products.add("SKU-B", "Carnet Velora", 500, 5)

	order, err := w.Create(context.Background(), "user-1", CreateOrderRequest{
		Items: []OrderItemRequest{
			{ProductID: idA.String(), Quantity: 2},
			{ProductID: idB.String(), Quantity: 1},
		},
		ShippingAddress: "1 rue des Lilas, Lyon",
		BillingAddress:  "1 rue des Lilas, Lyon",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2500), order.TotalCents)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, 3, products.products[idA].Stock)
	assert.Equal(t, 4, products.products[idB].Stock)

	// La somme des lignes doit égaler le total de la commande
	var sum int64
	for _, item := range order.Items {
		sum += item.TotalPriceCents
		assert.Equal(t, item.UnitPriceCents*int64(item.Quantity), item.TotalPriceCents)
	}
	assert.Equal(t, order.TotalCents, sum)

	stored, err := orders.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, stored.OrderNumber)
}

func TestCreateOrderInsufficientStockIsAllOrNothing(t *testing.T) {
	w, products, orders := newTestWorkflow()
	idA := products.add("SKU-A", "Affiche Velora", 1000, 5)
	idB := products.add("SKU-B", "Carnet Velora", 500, 0)

	_, err := w.Create(context.Background(), "user-1", CreateOrderRequest{
		Items: []OrderItemRequest{
			{ProductID: idA.String(), Quantity: 2},
			{ProductID: idB.String(), Quantity: 1},
		},
		ShippingAddress: "a",
		BillingAddress:  "b",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
	assert.Contains(t, err.Error(), "insufficient stock for product: Carnet Velora")

	// Aucune mutation persistée : ni commande, ni stock
	assert.Equal(t, 5, products.products[idA].Stock)
	assert.Equal(t, 0, products.products[idB].Stock)
	assert.Empty(t, orders.orders)
	assert.Empty(t, products.movements)
}

func TestCreateOrderCompensatesPartialReservation(t *testing.T) {
	w, products, orders := newTestWorkflow()
	idA := products.add("SKU-A", "Affiche Velora", 1000, 5)
	idB := products.add("SKU-B", "Carnet Velora", 500, 5)
	products.failOn[idB] = true // le deuxième produit échoue après le premier

	_, err := w.Create(context.Background(), "user-1", CreateOrderRequest{
		Items: []OrderItemRequest{
			{ProductID: idA.String(), Quantity: 3},
			{ProductID: idB.String(), Quantity: 1},
		},
		ShippingAddress: "a",
		BillingAddress:  "b",
	})
	require.Error(t, err)

	// La réservation de A doit avoir été compensée
	assert.Equal(t, 5, products.products[idA].Stock)
	assert.Empty(t, orders.orders)
}

func TestCreateOrderCompensatesOnInsertFailure(t *testing.T) {
	w, products, orders := newTestWorkflow()
	idA := products.add("SKU-A", "Affiche Velora", 1000, 5)
	orders.insertErr = errors.New("batch failed")

	_, err := w.Create(context.Background(), "user-1", CreateOrderRequest{
		Items:           []OrderItemRequest{{ProductID: idA.String(), Quantity: 2}},
		ShippingAddress: "a",
		BillingAddress:  "b",
	})
	require.Error(t, err)
	assert.Equal(t, 5, products.products[idA].Stock)
}

func TestOrderNumberFormat(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	n1 := GenerateOrderNumber(now)
	n2 := GenerateOrderNumber(now)

	assert.True(t, strings.HasPrefix(n1, "VLR-20260314-"))
	assert.Len(t, n1, len("VLR-20260314-")+8)
	assert.NotEqual(t, n1, n2)
}

func createTestOrder(t *testing.T, w *OrderWorkflow, items []OrderItemRequest) *models.Order {
	t.Helper()
	order, err := w.Create(context.Background(), "user-1", CreateOrderRequest{
		Items:           items,
		ShippingAddress: "a",
		BillingAddress:  "b",
	})
	require.NoError(t, err)
	return order
}

func TestUpdateStatusFollowsTransitionTable(t *testing.T) {
	w, products, _ := newTestWorkflow()
	idA := products.add("SKU-A", "Affiche Velora", 1000, 5)
	order := createTestOrder(t, w, []OrderItemRequest{{ProductID: idA.String(), Quantity: 1}})

	updated, err := w.UpdateStatus(context.Background(), order.ID, models.OrderStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, updated.Status)

	// CONFIRMED → SHIPPED n'est pas autorisé (il faut passer par PROCESSING)
	_, err = w.UpdateStatus(context.Background(), order.ID, models.OrderStatusShipped)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
	assert.Contains(t, err.Error(), "cannot transition from CONFIRMED to SHIPPED")

	// Le statut n'a pas bougé
	stored, err := w.Orders.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, stored.Status)
}

func TestCancelReturnsStockExactlyOnce(t *testing.T) {
	w, products, _ := newTestWorkflow()
	idA := products.add("SKU-A", "Affiche Velora", 1000, 5)
	idB := products.add("SKU-B", "Carnet Velora", 500, 5)
	order := createTestOrder(t, w, []OrderItemRequest{
		{ProductID: idA.String(), Quantity: 2},
		{ProductID: idB.String(), Quantity: 1},
	})
	require.Equal(t, 3, products.products[idA].Stock)
	require.Equal(t, 4, products.products[idB].Stock)

	// PENDING → CONFIRMED → PROCESSING → CANCELLED
	_, err := w.UpdateStatus(context.Background(), order.ID, models.OrderStatusConfirmed)
	require.NoError(t, err)
	_, err = w.UpdateStatus(context.Background(), order.ID, models.OrderStatusProcessing)
	require.NoError(t, err)
	updated, err := w.UpdateStatus(context.Background(), order.ID, models.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, updated.Status)

	assert.Equal(t, 5, products.products[idA].Stock)
	assert.Equal(t, 5, products.products[idB].Stock)

	// CANCELLED est terminal : une deuxième annulation échoue et ne
	// re-crédite pas le stock
	_, err = w.UpdateStatus(context.Background(), order.ID, models.OrderStatusCancelled)
	require.Error(t, err)
	assert.Equal(t, 5, products.products[idA].Stock)
	assert.Equal(t, 5, products.products[idB].Stock)
}

func TestProcessPayment(t *testing.T) {
	w, products, _ := newTestWorkflow()
	idA := products.add("SKU-A", "Affiche Velora", 1000, 5)
	order := createTestOrder(t, w, []OrderItemRequest{{ProductID: idA.String(), Quantity: 1}})

	paid, err := w.ProcessPayment(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, paid.PaymentStatus)
	assert.Equal(t, models.OrderStatusConfirmed, paid.Status)

	// Déjà payée → refus, statut inchangé
	_, err = w.ProcessPayment(context.Background(), order.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order already paid")
	stored, _ := w.Orders.GetOrder(context.Background(), order.ID)
	assert.Equal(t, models.OrderStatusConfirmed, stored.Status)
}

func TestProcessPaymentCannotResurrectCancelledOrder(t *testing.T) {
	w, products, _ := newTestWorkflow()
	idA := products.add("SKU-A", "Affiche Velora", 1000, 5)
	order := createTestOrder(t, w, []OrderItemRequest{{ProductID: idA.String(), Quantity: 1}})

	_, err := w.UpdateStatus(context.Background(), order.ID, models.OrderStatusCancelled)
	require.NoError(t, err)

	_, err = w.ProcessPayment(context.Background(), order.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	stored, _ := w.Orders.GetOrder(context.Background(), order.ID)
	assert.Equal(t, models.OrderStatusCancelled, stored.Status)
	assert.Equal(t, models.PaymentStatusPending, stored.PaymentStatus)
}

func TestProcessPaymentRejectsDeliveredOrder(t *testing.T) {
	w, products, _ := newTestWorkflow()
	idA := products.add("SKU-A", "Affiche Velora", 1000, 5)
	order := createTestOrder(t, w, []OrderItemRequest{{ProductID: idA.String(), Quantity: 1}})

	// Une commande peut être livrée sans jamais avoir été payée
	// (paiement hors ligne oublié) ; la marquer payée après coup est refusé
	for _, status := range []string{
		models.OrderStatusConfirmed,
		models.OrderStatusProcessing,
		models.OrderStatusShipped,
		models.OrderStatusDelivered,
	} {
		_, err := w.UpdateStatus(context.Background(), order.ID, status)
		require.NoError(t, err)
	}

	_, err := w.ProcessPayment(context.Background(), order.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	stored, _ := w.Orders.GetOrder(context.Background(), order.ID)
	assert.Equal(t, models.OrderStatusDelivered, stored.Status)
	assert.Equal(t, models.PaymentStatusPending, stored.PaymentStatus)
}

func TestCancelSurvivesPartialStockReturn(t *testing.T) {
	w, products, _ := newTestWorkflow()
	idA := products.add("SKU-A", "Affiche Velora", 1000, 5)
	idB := products.add("SKU-B", "Carnet Velora", 500, 5)
	order := createTestOrder(t, w, []OrderItemRequest{
		{ProductID: idA.String(), Quantity: 2},
		{ProductID: idB.String(), Quantity: 1},
	})
	products.failRelease[idB] = true

	// L'annulation aboutit même si une restitution échoue : le passage
	// en CANCELLED est déjà persisté et le statut est terminal
	updated, err := w.UpdateStatus(context.Background(), order.ID, models.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, updated.Status)

	// A restitué, B non
	assert.Equal(t, 5, products.products[idA].Stock)
	assert.Equal(t, 4, products.products[idB].Stock)

	// L'échec laisse une trace à réconcilier manuellement
	var returned, failed int
	for _, mv := range products.movements {
		switch mv.Type {
		case "return":
			returned++
		case "return_failed":
			failed++
			assert.Equal(t, idB, mv.ProductID)
		}
	}
	assert.Equal(t, 1, returned)
	assert.Equal(t, 1, failed)
}

func TestCreateOrderSnapshotsPriceAtReservation(t *testing.T) {
	w, products, _ := newTestWorkflow()
	idA := products.add("SKU-A", "Affiche Velora", 1000, 5)

	// Le prix change entre la pré-vérification et la réservation ;
	// le prix facturé est celui en vigueur quand le stock est acquis
	products.onReserve = func(id gocql.UUID) {
		products.products[id].PriceCents = 1200
	}

	order := createTestOrder(t, w, []OrderItemRequest{{ProductID: idA.String(), Quantity: 2}})
	assert.Equal(t, int64(2400), order.TotalCents)
	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(1200), order.Items[0].UnitPriceCents)
}

func TestWebhookSequenceGuard(t *testing.T) {
	w, products, orders := newTestWorkflow()
	idA := products.add("SKU-A", "Affiche Velora", 1000, 5)
	order := createTestOrder(t, w, []OrderItemRequest{{ProductID: idA.String(), Quantity: 1}})
	require.NoError(t, orders.SetCheckoutSession(context.Background(), order.ID, "cs_test_123"))

	require.NoError(t, w.MarkPaidBySession(context.Background(), "cs_test_123", 100))
	stored, _ := orders.GetOrder(context.Background(), order.ID)
	assert.Equal(t, models.PaymentStatusPaid, stored.PaymentStatus)
	assert.Equal(t, int64(100), stored.PaymentVersion)
	// Le webhook ne touche pas au statut de commande
	assert.Equal(t, models.OrderStatusPending, stored.Status)

	// Duplicata et événement plus ancien : ignorés sans erreur
	require.NoError(t, w.MarkPaidBySession(context.Background(), "cs_test_123", 100))
	require.NoError(t, w.MarkPaidBySession(context.Background(), "cs_test_123", 50))
	stored, _ = orders.GetOrder(context.Background(), order.ID)
	assert.Equal(t, int64(100), stored.PaymentVersion)

	// Session inconnue → NotFound
	err := w.MarkPaidBySession(context.Background(), "cs_unknown", 200)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestStatsCountsAndRevenue(t *testing.T) {
	w, products, _ := newTestWorkflow()
	idA := products.add("SKU-A", "Affiche Velora", 1000, 50)

	o1 := createTestOrder(t, w, []OrderItemRequest{{ProductID: idA.String(), Quantity: 2}})
	o2 := createTestOrder(t, w, []OrderItemRequest{{ProductID: idA.String(), Quantity: 1}})
	createTestOrder(t, w, []OrderItemRequest{{ProductID: idA.String(), Quantity: 3}})

	_, err := w.ProcessPayment(context.Background(), o1.ID)
	require.NoError(t, err)
	_, err = w.UpdateStatus(context.Background(), o2.ID, models.OrderStatusCancelled)
	require.NoError(t, err)

	stats, err := w.Stats(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[models.OrderStatusPending])
	assert.Equal(t, 1, stats.ByStatus[models.OrderStatusConfirmed])
	assert.Equal(t, 1, stats.ByStatus[models.OrderStatusCancelled])
	// Seules les commandes payées comptent dans le revenu
	assert.Equal(t, int64(2000), stats.RevenueCents)

	// Un autre utilisateur ne voit rien
	other, err := w.Stats(context.Background(), "user-2")
	require.NoError(t, err)
	assert.Equal(t, 0, other.Total)
}

package services

import (
	"context"
	"log"
	"strings"
	"time"

	"velora_back_end/internal/apperrors"
	"velora_back_end/internal/models"
	"velora_back_end/internal/repository"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
)

// OrderWorkflow porte le cycle de vie des commandes : création avec
// réservation de stock, machine à états, retour de stock à l'annulation
// et réconciliation du paiement
type OrderWorkflow struct {
	Products repository.ProductStore
	Orders   repository.OrderStore
}

func NewOrderWorkflow(products repository.ProductStore, orders repository.OrderStore) *OrderWorkflow {
	return &OrderWorkflow{Products: products, Orders: orders}
}

type OrderItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

type CreateOrderRequest struct {
	Items           []OrderItemRequest `json:"items" binding:"required"`
	ShippingAddress string             `json:"shipping_address" binding:"required"`
	BillingAddress  string             `json:"billing_address" binding:"required"`
	PaymentMethod   string             `json:"payment_method"`
	Notes           string             `json:"notes"`
}

// GenerateOrderNumber : numéro lisible et résistant aux collisions
// (suffixe aléatoire, pas de timestamp+userID)
func GenerateOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "VLR-" + now.Format("20060102") + "-" + suffix
}

type reservation struct {
	product *models.Product
	qty     int
}

// Create crée la commande : pré-vérification du stock, réservation
// atomique produit par produit (compensée en cas d'échec partiel), puis
// insertion de la commande et de ses lignes en un seul batch.
// Le stock est réservé dès la création, pas à la confirmation du paiement.
func (w *OrderWorkflow) Create(ctx context.Context, userID string, req CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, apperrors.Validation("le panier de la commande est vide")
	}

	// 1. Pré-vérification rapide : évite de réserver quoi que ce soit
	// pour une demande manifestement invalide. Le contrôle faisant foi
	// reste la réservation conditionnelle ci-dessous.
	products := make([]*models.Product, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, apperrors.Validation("quantité invalide")
		}
		pid, err := gocql.ParseUUID(item.ProductID)
		if err != nil {
			return nil, apperrors.Validation("ID produit invalide: %s", item.ProductID)
		}
		p, err := w.Products.GetProduct(ctx, pid)
		if err != nil {
			return nil, err
		}
		if !p.IsActive {
			return nil, apperrors.NotFound("produit introuvable")
		}
		if p.Stock < item.Quantity {
			return nil, apperrors.Validation("insufficient stock for product: %s", p.Name)
		}
		products = append(products, p)
	}

	// 2. Réservation atomique. Si un produit échoue, on relâche tout ce
	// qui a déjà été réservé : pas de décrément partiel persistant.
	reserved := make([]reservation, 0, len(req.Items))
	for i, item := range req.Items {
		if err := w.Products.ReserveStock(ctx, products[i].ID, item.Quantity); err != nil {
			w.release(ctx, reserved)
			return nil, err
		}
		reserved = append(reserved, reservation{product: products[i], qty: item.Quantity})
	}

	// 3. Instantanés de prix et total. Les prix sont relus APRÈS la
	// réservation : le prix faisant foi est celui en vigueur au moment
	// où le stock est acquis, jamais celui de la pré-vérification ni
	// celui du client.
	for i := range reserved {
		p, err := w.Products.GetProduct(ctx, products[i].ID)
		if err != nil {
			w.release(ctx, reserved)
			return nil, err
		}
		products[i] = p
	}

	now := time.Now()
	order := &models.Order{
		ID:              gocql.TimeUUID(),
		OrderNumber:     GenerateOrderNumber(now),
		UserID:          userID,
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if order.PaymentMethod == "" {
		order.PaymentMethod = "CARD"
	}

	var total int64
	for i, item := range req.Items {
		p := products[i]
		line := models.OrderItem{
			OrderID:         order.ID,
			ProductID:       p.ID,
			SKU:             p.SKU,
			Name:            p.Name,
			Quantity:        item.Quantity,
			UnitPriceCents:  p.PriceCents,
			TotalPriceCents: p.PriceCents * int64(item.Quantity),
		}
		total += line.TotalPriceCents
		order.Items = append(order.Items, line)
	}
	order.TotalCents = total

	if err := w.Orders.InsertOrder(ctx, order); err != nil {
		// Compensation : l'insertion a échoué, on rend le stock réservé
		w.release(ctx, reserved)
		return nil, err
	}

	for _, r := range reserved {
		w.recordMovement(ctx, r.product, -r.qty, "sale", "commande "+order.OrderNumber, &order.ID, userID)
	}

	log.Printf("✅ Commande créée: %s (%d lignes, %d cents) pour user %s",
		order.OrderNumber, len(order.Items), order.TotalCents, userID)
	return order, nil
}

func (w *OrderWorkflow) release(ctx context.Context, reserved []reservation) {
	for _, r := range reserved {
		if err := w.Products.ReleaseStock(ctx, r.product.ID, r.qty); err != nil {
			log.Printf("❌ Compensation stock échouée pour %s: %v", r.product.ID, err)
		}
	}
}

func (w *OrderWorkflow) recordMovement(ctx context.Context, p *models.Product, delta int, typ, reason string, orderID *gocql.UUID, userID string) {
	m := models.StockMovement{
		ID:        gocql.TimeUUID(),
		ProductID: p.ID,
		Type:      typ,
		Quantity:  delta,
		PrevStock: p.Stock,
		NewStock:  p.Stock + delta,
		Reason:    reason,
		OrderID:   orderID,
		UserID:    userID,
		CreatedAt: time.Now(),
	}
	if err := w.Products.RecordMovement(ctx, m); err != nil {
		log.Printf("⚠️ Mouvement de stock non enregistré: %v", err)
	}
}

// UpdateStatus fait avancer la commande dans la machine à états. Passer à
// CANCELLED depuis un statut non annulé déclenche le retour du stock ;
// CANCELLED étant terminal, le retour ne peut pas être redéclenché.
func (w *OrderWorkflow) UpdateStatus(ctx context.Context, orderID gocql.UUID, newStatus string) (*models.Order, error) {
	if !models.IsValidOrderStatus(newStatus) {
		return nil, apperrors.Validation("statut inconnu: %s", newStatus)
	}

	order, err := w.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !models.CanTransition(order.Status, newStatus) {
		return nil, apperrors.Validation("cannot transition from %s to %s", order.Status, newStatus)
	}

	if err := w.Orders.UpdateStatus(ctx, orderID, newStatus); err != nil {
		return nil, err
	}
	log.Printf("✅ Commande %s: %s → %s", order.OrderNumber, order.Status, newStatus)

	if newStatus == models.OrderStatusCancelled && order.Status != models.OrderStatusCancelled {
		w.returnStock(ctx, order)
	}

	order.Status = newStatus
	return order, nil
}

// returnStock ré-incrémente le stock de chaque ligne de la commande
// annulée, inverse exact de la réservation faite à la création.
// L'annulation est déjà persistée quand on arrive ici, et CANCELLED est
// terminal : aucune transition ne rejouera ce retour. Un incrément en
// échec ne bloque donc ni les lignes suivantes ni la transition ; il est
// tracé en mouvement return_failed pour réconciliation manuelle.
func (w *OrderWorkflow) returnStock(ctx context.Context, order *models.Order) {
	for _, item := range order.Items {
		if err := w.Products.ReleaseStock(ctx, item.ProductID, item.Quantity); err != nil {
			log.Printf("🚨 Retour stock échoué pour %s (commande %s): %v",
				item.ProductID, order.OrderNumber, err)
			m := models.StockMovement{
				ID:        gocql.TimeUUID(),
				ProductID: item.ProductID,
				Type:      "return_failed",
				Quantity:  item.Quantity,
				Reason:    "retour non appliqué, à réconcilier (annulation commande " + order.OrderNumber + ")",
				OrderID:   &order.ID,
				UserID:    order.UserID,
				CreatedAt: time.Now(),
			}
			if err := w.Products.RecordMovement(ctx, m); err != nil {
				log.Printf("⚠️ Mouvement de stock non enregistré: %v", err)
			}
			continue
		}
		if p, err := w.Products.GetProduct(ctx, item.ProductID); err == nil {
			m := models.StockMovement{
				ID:        gocql.TimeUUID(),
				ProductID: item.ProductID,
				Type:      "return",
				Quantity:  item.Quantity,
				PrevStock: p.Stock - item.Quantity,
				NewStock:  p.Stock,
				Reason:    "annulation commande " + order.OrderNumber,
				OrderID:   &order.ID,
				UserID:    order.UserID,
				CreatedAt: time.Now(),
			}
			if err := w.Products.RecordMovement(ctx, m); err != nil {
				log.Printf("⚠️ Mouvement de stock non enregistré: %v", err)
			}
		}
	}
	log.Printf("🔄 Stock restitué pour la commande %s", order.OrderNumber)
}

// ProcessPayment : chemin synchrone. Le passage à CONFIRMED suit la même
// table de transitions que UpdateStatus : un statut terminal (commande
// annulée ou déjà livrée) ne peut plus être payé.
func (w *OrderWorkflow) ProcessPayment(ctx context.Context, orderID gocql.UUID) (*models.Order, error) {
	order, err := w.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.PaymentStatus == models.PaymentStatusPaid {
		return nil, apperrors.Validation("order already paid")
	}

	newStatus := order.Status
	if models.CanTransition(order.Status, models.OrderStatusConfirmed) {
		newStatus = models.OrderStatusConfirmed
	} else if models.IsTerminalOrderStatus(order.Status) {
		return nil, apperrors.Validation("cannot transition from %s to %s",
			order.Status, models.OrderStatusConfirmed)
	}

	applied, err := w.Orders.SetPayment(ctx, orderID, models.PaymentStatusPaid, newStatus, time.Now().Unix())
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, apperrors.Validation("un état de paiement plus récent existe déjà")
	}

	log.Printf("💳 Paiement traité pour %s (%d cents)", order.OrderNumber, order.TotalCents)
	order.PaymentStatus = models.PaymentStatusPaid
	order.Status = newStatus
	return order, nil
}

// MarkPaidBySession : chemin asynchrone (webhook). eventCreated sert de
// numéro de séquence : un événement dupliqué ou en retard est ignoré.
func (w *OrderWorkflow) MarkPaidBySession(ctx context.Context, sessionID string, eventCreated int64) error {
	orderID, err := w.Orders.GetOrderIDBySession(ctx, sessionID)
	if err != nil {
		return err
	}

	applied, err := w.Orders.SetPayment(ctx, orderID, models.PaymentStatusPaid, "", eventCreated)
	if err != nil {
		return err
	}
	if !applied {
		log.Printf("🔁 Webhook périmé pour la session %s, ignoré", sessionID)
		return nil
	}

	log.Printf("✅ Commande %s marquée payée via webhook", orderID)
	return nil
}

// Stats recalcule les agrégats à chaque appel (pas de cache). Le revenu ne
// compte que les commandes dont le paiement est PAID.
func (w *OrderWorkflow) Stats(ctx context.Context, userID string) (*models.OrderStats, error) {
	rows, err := w.Orders.StatsRows(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &models.OrderStats{
		ByStatus: map[string]int{
			models.OrderStatusPending:    0,
			models.OrderStatusConfirmed:  0,
			models.OrderStatusProcessing: 0,
			models.OrderStatusShipped:    0,
			models.OrderStatusDelivered:  0,
			models.OrderStatusCancelled:  0,
		},
	}
	for _, r := range rows {
		stats.Total++
		stats.ByStatus[r.Status]++
		if r.PaymentStatus == models.PaymentStatusPaid {
			stats.RevenueCents += r.TotalCents
		}
	}
	return stats, nil
}

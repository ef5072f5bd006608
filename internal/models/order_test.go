package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		allowed  bool
	}{
		{OrderStatusPending, OrderStatusConfirmed, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusConfirmed, OrderStatusProcessing, true},
		{OrderStatusConfirmed, OrderStatusCancelled, true},
		{OrderStatusConfirmed, OrderStatusShipped, false},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusProcessing, OrderStatusCancelled, true},
		{OrderStatusProcessing, OrderStatusDelivered, false},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		// États terminaux : aucune sortie
		{OrderStatusDelivered, OrderStatusPending, false},
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusConfirmed, false},
		{OrderStatusCancelled, OrderStatusCancelled, false},
		// Statut inconnu
		{"ARCHIVED", OrderStatusPending, false},
	}

	for _, c := range cases {
		assert.Equal(t, c.allowed, CanTransition(c.from, c.to), "%s → %s", c.from, c.to)
	}
}

func TestIsValidOrderStatus(t *testing.T) {
	for status := range OrderTransitions {
		assert.True(t, IsValidOrderStatus(status))
	}
	assert.False(t, IsValidOrderStatus("PAID"))
	assert.False(t, IsValidOrderStatus(""))
	assert.False(t, IsValidOrderStatus("pending"))
}

func TestTerminalStatesHaveNoTargets(t *testing.T) {
	assert.Empty(t, OrderTransitions[OrderStatusDelivered])
	assert.Empty(t, OrderTransitions[OrderStatusCancelled])
}

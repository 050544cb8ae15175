package purchases

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestStatusTransitions(t *testing.T) {
	require.True(t, StatusDraft.CanTransitionTo(StatusSent))
	require.True(t, StatusDraft.CanTransitionTo(StatusCancelled))
	require.False(t, StatusDraft.CanTransitionTo(StatusReceived))

	require.True(t, StatusSent.CanTransitionTo(StatusSupplierEditing))
	require.True(t, StatusSupplierEditing.CanTransitionTo(StatusSent))
	require.True(t, StatusSent.CanTransitionTo(StatusAwaitingPayment))
	require.True(t, StatusAwaitingPayment.CanTransitionTo(StatusPaid))
	require.True(t, StatusPaid.CanTransitionTo(StatusShipped))
	require.True(t, StatusShipped.CanTransitionTo(StatusReceived))

	for _, active := range []Status{StatusSent, StatusSupplierEditing, StatusAwaitingPayment, StatusPaid, StatusShipped} {
		require.True(t, active.IsActive(), "%s must be active", active)
		require.True(t, active.CanTransitionTo(StatusReceived), "%s must reach received", active)
		require.True(t, active.CanTransitionTo(StatusCancelled), "%s must reach cancelled", active)
	}

	for _, terminal := range []Status{StatusReceived, StatusCancelled} {
		require.True(t, terminal.IsTerminal())
		require.False(t, terminal.IsActive())
		for _, target := range []Status{StatusDraft, StatusSent, StatusPaid, StatusReceived, StatusCancelled} {
			require.False(t, terminal.CanTransitionTo(target), "%s -> %s must be rejected", terminal, target)
		}
	}
}

func TestStatusValidity(t *testing.T) {
	require.True(t, StatusPaid.IsValid())
	require.False(t, Status("TELEPORTED").IsValid())
}

func TestItemRecalc(t *testing.T) {
	item := PurchaseItem{Quantity: 3, CostPrice: decimal.RequireFromString("19.99")}
	item.Recalc()
	require.True(t, item.Total.Equal(decimal.RequireFromString("59.97")), "got %s", item.Total)
}

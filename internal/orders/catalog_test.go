package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowedTransitions_NonTerminal(t *testing.T) {
	for _, st := range Statuses() {
		if st.IsTerminal() {
			continue
		}
		got := AllowedTransitions(st)
		assert.Len(t, got, len(Statuses())-1, "status %s", st)
		assert.NotContains(t, got, st)
		for _, other := range Statuses() {
			if other != st {
				assert.Contains(t, got, other, "%s -> %s", st, other)
			}
		}
	}
}

func TestAllowedTransitions_Terminal(t *testing.T) {
	assert.Empty(t, AllowedTransitions(StatusDelivered))
	assert.Empty(t, AllowedTransitions(StatusCancelled))
	assert.False(t, CanTransition(StatusDelivered, StatusPending))
	assert.True(t, CanTransition(StatusPending, StatusDelivered))
	assert.False(t, CanTransition(StatusInTransit, StatusInTransit))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Quote Generated / Order Accepted", DisplayName("vendor_accepted"))
	assert.Equal(t, "Out for Delivery", StatusOutForDelivery.DisplayName())
	assert.Equal(t, "something_new", DisplayName("something_new"))
}

func TestDeliveryStatusRequiresTruck(t *testing.T) {
	for _, st := range []DeliveryStatus{DeliveryTruckLoading, DeliveryInTransit, DeliveryOutForDelivery, DeliveryDelivered} {
		assert.True(t, st.RequiresTruck(), st)
	}
	for _, st := range []DeliveryStatus{DeliveryPending, DeliveryAssigned, DeliveryFailed, ""} {
		assert.False(t, st.RequiresTruck(), st)
	}
}

func TestDocumentType(t *testing.T) {
	for _, d := range []DocumentType{"po", "quote", "so", "invoice", "eway"} {
		assert.True(t, d.Valid(), d)
	}
	assert.False(t, DocumentType("receipt").Valid())
}

package orders

// Status is the lifecycle state of a marketplace order.
type Status string

const (
	StatusPending        Status = "pending"
	StatusOrderPlaced    Status = "order_placed"
	StatusVendorAccepted Status = "vendor_accepted"
	StatusPaymentDone    Status = "payment_done"
	StatusOrderConfirmed Status = "order_confirmed"
	StatusTruckLoading   Status = "truck_loading"
	StatusInTransit      Status = "in_transit"
	StatusShipped        Status = "shipped"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

var allStatuses = []Status{
	StatusPending,
	StatusOrderPlaced,
	StatusVendorAccepted,
	StatusPaymentDone,
	StatusOrderConfirmed,
	StatusTruckLoading,
	StatusInTransit,
	StatusShipped,
	StatusOutForDelivery,
	StatusDelivered,
	StatusCancelled,
}

var displayNames = map[string]string{
	"pending":          "Pending",
	"order_placed":     "Order Placed",
	"vendor_accepted":  "Quote Generated / Order Accepted",
	"payment_done":     "Payment Done",
	"order_confirmed":  "Order Confirmed",
	"truck_loading":    "Truck Loading",
	"in_transit":       "In Transit",
	"shipped":          "Shipped",
	"out_for_delivery": "Out for Delivery",
	"delivered":        "Delivered",
	"cancelled":        "Cancelled",
	"assigned":         "Driver Assigned",
	"failed":           "Delivery Failed",
	"completed":        "Completed",
}

// Statuses returns every defined order status in lifecycle order.
func Statuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// Valid reports whether s is one of the defined statuses.
func (s Status) Valid() bool {
	for _, st := range allStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are offered from s.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// DisplayName returns the human readable label for s.
func (s Status) DisplayName() string {
	return DisplayName(string(s))
}

// AllowedTransitions returns the statuses an order in current may move to.
// Terminal statuses allow nothing; every other status may move to any defined
// status except itself. The backend owns any stricter graph.
func AllowedTransitions(current Status) []Status {
	if current.IsTerminal() {
		return []Status{}
	}
	out := make([]Status, 0, len(allStatuses)-1)
	for _, st := range allStatuses {
		if st != current {
			out = append(out, st)
		}
	}
	return out
}

// CanTransition reports whether to is in AllowedTransitions(from).
func CanTransition(from, to Status) bool {
	for _, st := range AllowedTransitions(from) {
		if st == to {
			return true
		}
	}
	return false
}

// DisplayName maps a status key to its label. Unknown keys pass through.
func DisplayName(key string) string {
	if name, ok := displayNames[key]; ok {
		return name
	}
	return key
}

// DeliveryStatus is the state of the delivery sub-record.
type DeliveryStatus string

const (
	DeliveryPending        DeliveryStatus = "pending"
	DeliveryAssigned       DeliveryStatus = "assigned"
	DeliveryTruckLoading   DeliveryStatus = "truck_loading"
	DeliveryInTransit      DeliveryStatus = "in_transit"
	DeliveryOutForDelivery DeliveryStatus = "out_for_delivery"
	DeliveryDelivered      DeliveryStatus = "delivered"
	DeliveryFailed         DeliveryStatus = "failed"
)

// RequiresTruck reports whether a truck number must be known in this delivery state.
func (s DeliveryStatus) RequiresTruck() bool {
	switch s {
	case DeliveryTruckLoading, DeliveryInTransit, DeliveryOutForDelivery, DeliveryDelivered:
		return true
	}
	return false
}

// DocumentType names a downloadable order document.
type DocumentType string

const (
	DocumentPurchaseOrder DocumentType = "po"
	DocumentQuote         DocumentType = "quote"
	DocumentSalesOrder    DocumentType = "so"
	DocumentInvoice       DocumentType = "invoice"
	DocumentEWayBill      DocumentType = "eway"
)

// Valid reports whether d is a known document type.
func (d DocumentType) Valid() bool {
	switch d {
	case DocumentPurchaseOrder, DocumentQuote, DocumentSalesOrder, DocumentInvoice, DocumentEWayBill:
		return true
	}
	return false
}

// PaymentMethod is how a manual payment was received.
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentUPI          PaymentMethod = "upi"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentCheque       PaymentMethod = "cheque"
	PaymentCard         PaymentMethod = "card"
	PaymentOther        PaymentMethod = "other"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentUPI, PaymentBankTransfer, PaymentCheque, PaymentCard, PaymentOther:
		return true
	}
	return false
}

// PaymentStatusCompleted is the payment status reported once an order is paid.
const PaymentStatusCompleted = "completed"

package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// Party is a customer or vendor reference attached to an order.
type Party struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Company string `json:"company,omitempty"`
}

// OrderItem is one catalog line of an order.
type OrderItem struct {
	ItemCode       string  `json:"itemCode"`
	ItemName       string  `json:"itemName,omitempty"`
	Unit           string  `json:"unit,omitempty"`
	Qty            float64 `json:"qty"`
	UnitPrice      float64 `json:"unitPrice"`
	LoadingCharges float64 `json:"loadingCharges"`
	TotalPrice     float64 `json:"totalPrice"`
}

// ComputedTotal applies the vendor pricing formula to the stored values.
func (it OrderItem) ComputedTotal() decimal.Decimal {
	return decimal.NewFromFloat(it.UnitPrice).
		Add(decimal.NewFromFloat(it.LoadingCharges)).
		Mul(decimal.NewFromFloat(it.Qty))
}

// Location is the last known position of a delivery truck. Lat and Lng are
// either both present or both absent.
type Location struct {
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
	Address string   `json:"address,omitempty"`
}

// DeliveryInfo is the optional delivery sub-record of an order.
type DeliveryInfo struct {
	DeliveryStatus   DeliveryStatus `json:"deliveryStatus,omitempty"`
	DriverName       string         `json:"driverName,omitempty"`
	DriverPhone      string         `json:"driverPhone,omitempty"`
	TruckNumber      string         `json:"truckNumber,omitempty"`
	VehicleType      string         `json:"vehicleType,omitempty"`
	CapacityTons     *float64       `json:"capacityTons,omitempty"`
	LastLocation     *Location      `json:"lastLocation,omitempty"`
	StartTime        *time.Time     `json:"startTime,omitempty"`
	EstimatedArrival *time.Time     `json:"estimatedArrival,omitempty"`
	Remarks          string         `json:"remarks,omitempty"`
}

// PaymentInfo is the customer payment sub-record.
type PaymentInfo struct {
	PaymentStatus string     `json:"paymentStatus,omitempty"`
	PaidAmount    float64    `json:"paidAmount,omitempty"`
	PaymentMethod string     `json:"paymentMethod,omitempty"`
	TransactionID string     `json:"transactionId,omitempty"`
	PaymentDate   *time.Time `json:"paymentDate,omitempty"`
	Remarks       string     `json:"remarks,omitempty"`
}

// Order is identified by its external lead id.
type Order struct {
	LeadID                 string        `json:"leadId"`
	OrderStatus            Status        `json:"orderStatus"`
	Customer               *Party        `json:"customer,omitempty"`
	Vendor                 *Party        `json:"vendor,omitempty"`
	Items                  []OrderItem   `json:"items"`
	Delivery               *DeliveryInfo `json:"delivery,omitempty"`
	CustomerPaymentDetails *PaymentInfo  `json:"customerPaymentDetails,omitempty"`
	TotalAmount            float64       `json:"totalAmount"`
	PaymentStatus          string        `json:"paymentStatus,omitempty"`
	CreatedAt              *time.Time    `json:"createdAt,omitempty"`
	UpdatedAt              *time.Time    `json:"updatedAt,omitempty"`
}

// StatusHistoryEntry records one past transition.
type StatusHistoryEntry struct {
	Status    Status     `json:"status"`
	Remarks   string     `json:"remarks,omitempty"`
	UpdatedBy string     `json:"updatedBy,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// OrderDetails is the full payload of getOrderDetails.
type OrderDetails struct {
	Order         Order                `json:"order"`
	PaymentInfo   *PaymentInfo         `json:"paymentInfo,omitempty"`
	DeliveryInfo  *DeliveryInfo        `json:"deliveryInfo,omitempty"`
	StatusHistory []StatusHistoryEntry `json:"statusHistory"`
}

// delivery returns the freshest delivery record, preferring the dedicated
// deliveryInfo block over the one embedded in the order.
func (d *OrderDetails) delivery() *DeliveryInfo {
	if d.DeliveryInfo != nil {
		return d.DeliveryInfo
	}
	return d.Order.Delivery
}

// paymentStatus returns the payment status from whichever block carries it.
func (d *OrderDetails) paymentStatus() string {
	if d.PaymentInfo != nil && d.PaymentInfo.PaymentStatus != "" {
		return d.PaymentInfo.PaymentStatus
	}
	if d.Order.CustomerPaymentDetails != nil && d.Order.CustomerPaymentDetails.PaymentStatus != "" {
		return d.Order.CustomerPaymentDetails.PaymentStatus
	}
	return d.Order.PaymentStatus
}

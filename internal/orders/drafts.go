package orders

import (
	"strconv"
	"time"
)

// Drafts hold raw form input. Every field is a string so that a missing server
// value is the empty string and never nil.

// PaymentDraft records a manual payment.
type PaymentDraft struct {
	PaidAmount    string `json:"paidAmount"`
	PaymentMethod string `json:"paymentMethod"`
	TransactionID string `json:"transactionId"`
	PaymentDate   string `json:"paymentDate"`
	Remarks       string `json:"remarks"`
}

// ItemPriceDraft is the vendor pricing of one order line.
type ItemPriceDraft struct {
	ItemCode       string `json:"itemCode"`
	ItemName       string `json:"itemName"`
	Qty            string `json:"qty"`
	UnitPrice      string `json:"unitPrice"`
	LoadingCharges string `json:"loadingCharges"`
}

// TruckDraft carries the truck and driver fields shared by the status and
// delivery dialogs.
type TruckDraft struct {
	DriverName   string `json:"driverName"`
	DriverPhone  string `json:"driverPhone"`
	TruckNumber  string `json:"truckNumber"`
	VehicleType  string `json:"vehicleType"`
	CapacityTons string `json:"capacityTons"`
}

// ShippingDraft is the ship-to contact captured when a quote is generated.
type ShippingDraft struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	State    string `json:"state"`
	Pincode  string `json:"pincode"`
}

// StatusDraft is the status transition form.
type StatusDraft struct {
	OrderStatus string `json:"orderStatus"`
	Remarks     string `json:"remarks"`
	TruckDraft
	Items    []ItemPriceDraft `json:"items"`
	Shipping ShippingDraft    `json:"shipping"`
}

func (d StatusDraft) clone() StatusDraft {
	d.Items = append([]ItemPriceDraft(nil), d.Items...)
	return d
}

// Quote prices the item drafts.
func (d StatusDraft) Quote() PriceQuote {
	return Quote(itemRows(d.Items))
}

// DeliveryDraft is the delivery sub-record form.
type DeliveryDraft struct {
	DeliveryStatus string `json:"deliveryStatus"`
	TruckDraft
	Lat              string `json:"lat"`
	Lng              string `json:"lng"`
	Address          string `json:"address"`
	StartTime        string `json:"startTime"`
	EstimatedArrival string `json:"estimatedArrival"`
	Remarks          string `json:"remarks"`
}

// CancelDraft is the cancellation form.
type CancelDraft struct {
	Reason  string `json:"reason"`
	Remarks string `json:"remarks"`
}

// ConfirmDraft is the admin confirmation form sent after vendor pricing.
type ConfirmDraft struct {
	Remarks              string `json:"remarks"`
	ExpectedDeliveryDate string `json:"expectedDeliveryDate"`
}

// DeliveredDraft is the terminal delivery confirmation form.
type DeliveredDraft struct {
	DeliveredDate string `json:"deliveredDate"`
	ReceivedBy    string `json:"receivedBy"`
	Remarks       string `json:"remarks"`
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptionalNumber(v *float64) string {
	if v == nil {
		return ""
	}
	return formatNumber(*v)
}

// paymentDraftFrom seeds a payment draft with the order total.
func paymentDraftFrom(d *OrderDetails) PaymentDraft {
	return PaymentDraft{PaidAmount: formatNumber(d.Order.TotalAmount)}
}

func truckDraftFrom(info *DeliveryInfo) TruckDraft {
	if info == nil {
		return TruckDraft{}
	}
	return TruckDraft{
		DriverName:   info.DriverName,
		DriverPhone:  info.DriverPhone,
		TruckNumber:  info.TruckNumber,
		VehicleType:  info.VehicleType,
		CapacityTons: formatOptionalNumber(info.CapacityTons),
	}
}

// statusDraftFrom starts with an empty target status and remarks, keeps the
// current truck details and seeds item pricing from the order lines.
func statusDraftFrom(d *OrderDetails) StatusDraft {
	items := make([]ItemPriceDraft, len(d.Order.Items))
	for i, it := range d.Order.Items {
		items[i] = ItemPriceDraft{
			ItemCode:       it.ItemCode,
			ItemName:       it.ItemName,
			Qty:            formatNumber(it.Qty),
			UnitPrice:      nonZero(it.UnitPrice),
			LoadingCharges: nonZero(it.LoadingCharges),
		}
	}
	return StatusDraft{
		TruckDraft: truckDraftFrom(d.delivery()),
		Items:      items,
	}
}

func nonZero(v float64) string {
	if v == 0 {
		return ""
	}
	return formatNumber(v)
}

// deliveryDraftFrom copies the current delivery record.
func deliveryDraftFrom(d *OrderDetails, format func(*time.Time) string) DeliveryDraft {
	info := d.delivery()
	if info == nil {
		return DeliveryDraft{}
	}
	draft := DeliveryDraft{
		DeliveryStatus:   string(info.DeliveryStatus),
		TruckDraft:       truckDraftFrom(info),
		StartTime:        format(info.StartTime),
		EstimatedArrival: format(info.EstimatedArrival),
		Remarks:          info.Remarks,
	}
	if loc := info.LastLocation; loc != nil {
		draft.Lat = formatOptionalNumber(loc.Lat)
		draft.Lng = formatOptionalNumber(loc.Lng)
		draft.Address = loc.Address
	}
	return draft
}

package orders

import (
	"fmt"
	"strings"
	"time"
)

// Payload is a sparse JSON body for a gateway mutation.
type Payload = map[string]any

func trim(s string) string { return strings.TrimSpace(s) }

func preparePayment(total float64, d PaymentDraft, loc *time.Location) (Payload, error) {
	paid := trim(d.PaidAmount)
	if paid == "" {
		paid = formatNumber(total)
	}
	if !ValidAmountInput(paid) || ParseAmount(paid) <= 0 {
		return nil, invalid("paidAmount", "Please enter a valid paid amount")
	}
	method := trim(d.PaymentMethod)
	if method != "" && !PaymentMethod(method).Valid() {
		return nil, invalid("paymentMethod", "Please select a valid payment method")
	}
	var date string
	if trim(d.PaymentDate) != "" {
		var err error
		if date, err = CanonicalInstant(d.PaymentDate, loc); err != nil {
			return nil, invalid("paymentDate", "Please enter a valid payment date")
		}
	}
	return BuildPartial(
		Required("paidAmount", ParseAmount(paid)),
		Optional("paymentMethod", method),
		Optional("transactionId", trim(d.TransactionID)),
		Optional("paymentDate", date),
		Optional("remarks", trim(d.Remarks)),
	), nil
}

func itemLabel(it ItemPriceDraft, i int) string {
	switch {
	case trim(it.ItemName) != "":
		return trim(it.ItemName)
	case trim(it.ItemCode) != "":
		return trim(it.ItemCode)
	}
	return fmt.Sprintf("item %d", i+1)
}

func validateItemPricing(items []ItemPriceDraft) error {
	for i, it := range items {
		field := fmt.Sprintf("items[%d]", i)
		if !ValidAmountInput(trim(it.UnitPrice)) || ParseAmount(it.UnitPrice) <= 0 {
			return invalid(field+".unitPrice", fmt.Sprintf("Please enter a valid unit price for %s", itemLabel(it, i)))
		}
		if !ValidAmountInput(trim(it.LoadingCharges)) || ParseAmount(it.LoadingCharges) < 0 {
			return invalid(field+".loadingCharges", fmt.Sprintf("Please enter valid loading charges for %s", itemLabel(it, i)))
		}
	}
	return nil
}

// validateShipping requires every shipping field, email included.
// TODO: confirm with the API owners whether shippingMail is really mandatory;
// the admin UI labels it optional but has always blocked on it.
func validateShipping(s ShippingDraft) error {
	switch {
	case trim(s.FullName) == "":
		return invalid("shipping.fullName", "Please enter the shipping contact name")
	case !ValidPhone(s.Phone):
		return invalid("shipping.phone", "Please enter a valid shipping phone number")
	case trim(s.Email) == "":
		return invalid("shipping.email", "Please enter the shipping email")
	case !ValidEmail(s.Email):
		return invalid("shipping.email", "Please enter a valid shipping email")
	case trim(s.Address) == "":
		return invalid("shipping.address", "Please enter the shipping address")
	case trim(s.State) == "" || !KnownState(trim(s.State)):
		return invalid("shipping.state", "Please select a shipping state")
	case !ValidPincode(s.Pincode):
		return invalid("shipping.pincode", "Please enter a valid 6-digit pincode")
	}
	return nil
}

func capacityField(s string) Field {
	if v, ok := parseOptionalFloat(s); ok {
		return Optional("capacityTons", v)
	}
	return Optional("capacityTons", nil)
}

func truckFields(t TruckDraft) []Field {
	return []Field{
		Optional("driverName", trim(t.DriverName)),
		Optional("driverPhone", trim(t.DriverPhone)),
		Optional("truckNumber", trim(t.TruckNumber)),
		Optional("vehicleType", trim(t.VehicleType)),
		capacityField(t.CapacityTons),
	}
}

func prepareStatus(current Status, d StatusDraft) (Payload, error) {
	target := Status(trim(d.OrderStatus))
	if target == "" {
		return nil, invalid("orderStatus", "Please select a status")
	}
	if !target.Valid() {
		return nil, invalid("orderStatus", fmt.Sprintf("Unknown status %q", target))
	}
	if !CanTransition(current, target) {
		return nil, invalid("orderStatus", fmt.Sprintf("Order cannot move from %s to %s", current.DisplayName(), target.DisplayName()))
	}

	var items []map[string]any
	if target == StatusVendorAccepted {
		if err := validateItemPricing(d.Items); err != nil {
			return nil, err
		}
		if err := validateShipping(d.Shipping); err != nil {
			return nil, err
		}
		quote := d.Quote()
		items = make([]map[string]any, len(d.Items))
		for i, it := range d.Items {
			total, _ := quote.Rows[i].Float64()
			items[i] = map[string]any{
				"itemCode":       trim(it.ItemCode),
				"unitPrice":      ParseAmount(it.UnitPrice),
				"loadingCharges": ParseAmount(it.LoadingCharges),
				"totalPrice":     total,
			}
		}
	}

	fields := []Field{
		Required("orderStatus", string(target)),
		Optional("remarks", trim(d.Remarks)),
		Optional("items", items),
	}
	fields = append(fields, truckFields(d.TruckDraft)...)
	fields = append(fields,
		Optional("shippingName", trim(d.Shipping.FullName)),
		Optional("shippingPhone", trim(d.Shipping.Phone)),
		Optional("shippingMail", trim(d.Shipping.Email)),
		Optional("shippingAddress", trim(d.Shipping.Address)),
		Optional("shippingState", trim(d.Shipping.State)),
		Optional("shippingPincode", trim(d.Shipping.Pincode)),
	)
	return BuildPartial(fields...), nil
}

func prepareDelivery(d DeliveryDraft, loc *time.Location) (Payload, error) {
	status := DeliveryStatus(trim(d.DeliveryStatus))
	if trim(d.DriverPhone) != "" && !ValidPhone(d.DriverPhone) {
		return nil, invalid("driverPhone", "Please enter a valid driver phone number")
	}
	if status.RequiresTruck() && trim(d.TruckNumber) == "" {
		return nil, invalid("truckNumber", fmt.Sprintf("Truck number is required when delivery is %s", DisplayName(string(status))))
	}

	hasLat, hasLng := trim(d.Lat) != "", trim(d.Lng) != ""
	if hasLat != hasLng {
		return nil, invalid("lastLocation", "Please provide both latitude and longitude")
	}
	location := map[string]any{}
	if hasLat {
		lat, okLat := parseOptionalFloat(d.Lat)
		lng, okLng := parseOptionalFloat(d.Lng)
		if !okLat || !okLng {
			return nil, invalid("lastLocation", "Latitude and longitude must be numbers")
		}
		if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
			return nil, invalid("lastLocation", "Latitude or longitude is out of range")
		}
		location["lat"] = lat
		location["lng"] = lng
	}
	if addr := trim(d.Address); addr != "" {
		location["address"] = addr
	}

	var start, eta string
	var err error
	if trim(d.StartTime) != "" {
		if start, err = CanonicalInstant(d.StartTime, loc); err != nil {
			return nil, invalid("startTime", "Please enter a valid start time")
		}
	}
	if trim(d.EstimatedArrival) != "" {
		if eta, err = CanonicalInstant(d.EstimatedArrival, loc); err != nil {
			return nil, invalid("estimatedArrival", "Please enter a valid estimated arrival")
		}
	}

	fields := []Field{Optional("deliveryStatus", string(status))}
	fields = append(fields, truckFields(d.TruckDraft)...)
	fields = append(fields,
		Optional("lastLocation", location),
		Optional("startTime", start),
		Optional("estimatedArrival", eta),
		Optional("remarks", trim(d.Remarks)),
	)
	return BuildPartial(fields...), nil
}

func prepareCancel(d CancelDraft) (Payload, error) {
	if trim(d.Reason) == "" {
		return nil, invalid("reason", "Please provide a reason for cancellation")
	}
	return BuildPartial(
		Required("reason", trim(d.Reason)),
		Optional("remarks", trim(d.Remarks)),
	), nil
}

func prepareConfirm(d ConfirmDraft, loc *time.Location) (Payload, error) {
	var expected string
	if trim(d.ExpectedDeliveryDate) != "" {
		var err error
		if expected, err = CanonicalInstant(d.ExpectedDeliveryDate, loc); err != nil {
			return nil, invalid("expectedDeliveryDate", "Please enter a valid expected delivery date")
		}
	}
	return BuildPartial(
		Optional("remarks", trim(d.Remarks)),
		Optional("expectedDeliveryDate", expected),
	), nil
}

func prepareDelivered(d DeliveredDraft, loc *time.Location, now time.Time) (Payload, error) {
	if trim(d.ReceivedBy) == "" {
		return nil, invalid("receivedBy", "Please enter who received the delivery")
	}
	date := now.UTC().Format(InstantLayout)
	if trim(d.DeliveredDate) != "" {
		var err error
		if date, err = CanonicalInstant(d.DeliveredDate, loc); err != nil {
			return nil, invalid("deliveredDate", "Please enter a valid delivery date")
		}
	}
	return BuildPartial(
		Required("deliveredDate", date),
		Required("receivedBy", trim(d.ReceivedBy)),
		Optional("remarks", trim(d.Remarks)),
	), nil
}

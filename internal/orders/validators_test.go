package orders

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidPhone(t *testing.T) {
	assert.True(t, ValidPhone("9876543210"))
	assert.True(t, ValidPhone("+919876543210"))
	assert.False(t, ValidPhone("12345"))
	assert.False(t, ValidPhone("abcdefghij"))
	assert.False(t, ValidPhone("+1234567890123456"))
}

func TestValidPincode(t *testing.T) {
	assert.True(t, ValidPincode("400001"))
	assert.False(t, ValidPincode("40001"))
	assert.False(t, ValidPincode("4000011"))
	assert.False(t, ValidPincode("40000a"))
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("ops@cement.co.in"))
	assert.False(t, ValidEmail("ops@cement"))
	assert.False(t, ValidEmail("ops cement@x.in"))
}

func TestValidAmountInput(t *testing.T) {
	for _, s := range []string{"", "12", "12.5", ".5", "0.75"} {
		assert.True(t, ValidAmountInput(s), s)
	}
	for _, s := range []string{"12.", "1.2.3", "-4", "abc", "1e3"} {
		assert.False(t, ValidAmountInput(s), s)
	}
}

func TestParseAmount(t *testing.T) {
	assert.Equal(t, 12.5, ParseAmount("12.5"))
	assert.Equal(t, 0.0, ParseAmount(""))
	assert.Equal(t, 0.0, ParseAmount("n/a"))
	assert.Equal(t, 0.0, ParseAmount("NaN"))
	assert.Equal(t, 0.0, ParseAmount("Inf"))
}

func TestQuote(t *testing.T) {
	q := Quote([]PriceRow{
		{Qty: "10", UnitPrice: "350", LoadingCharges: "15"},
		{Qty: "2.5", UnitPrice: "52000.50", LoadingCharges: ""},
		{Qty: "4", UnitPrice: "abc", LoadingCharges: "20"},
		{},
	})

	assert.True(t, q.Rows[0].Equal(decimal.NewFromInt(3650)), q.Rows[0].String())
	assert.True(t, q.Rows[1].Equal(decimal.RequireFromString("130001.25")), q.Rows[1].String())
	assert.True(t, q.Rows[2].Equal(decimal.NewFromInt(80)), q.Rows[2].String())
	assert.True(t, q.Rows[3].IsZero())
	assert.True(t, q.GrandTotal.Equal(decimal.RequireFromString("133731.25")), q.GrandTotal.String())
}

func TestAddPricesDraftQuote(t *testing.T) {
	d := AddPricesDraft{Items: []ItemPriceDraft{
		{ItemCode: "OPC53", Qty: "100", UnitPrice: "390", LoadingCharges: "10"},
	}}
	assert.True(t, d.Quote().GrandTotal.Equal(decimal.NewFromInt(40000)))
}

func TestBuildPartial(t *testing.T) {
	var nilPtr *float64
	got := BuildPartial(
		Required("orderStatus", "in_transit"),
		Optional("remarks", "  "),
		Optional("driverName", "Ravi"),
		Optional("capacityTons", 0.0),
		Optional("qty", 3),
		Optional("ptr", nilPtr),
		Optional("items", []map[string]any{}),
		Optional("lastLocation", map[string]any{}),
		Optional("flag", false),
		Required("reason", ""),
	)

	assert.Equal(t, map[string]any{
		"orderStatus": "in_transit",
		"driverName":  "Ravi",
		"qty":         3,
		"reason":      "",
	}, got)
}

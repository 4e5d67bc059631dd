package orders

import "github.com/shopspring/decimal"

// PriceRow is one line of a vendor pricing draft as typed by the admin.
type PriceRow struct {
	Qty            string `json:"qty"`
	UnitPrice      string `json:"unitPrice"`
	LoadingCharges string `json:"loadingCharges"`
}

// PriceQuote holds per-row totals and their sum.
type PriceQuote struct {
	Rows       []decimal.Decimal `json:"rows"`
	GrandTotal decimal.Decimal   `json:"grandTotal"`
}

// RowTotal computes (unitPrice + loadingCharges) * qty. Missing or malformed
// operands count as zero.
func RowTotal(row PriceRow) decimal.Decimal {
	unit := amount(row.UnitPrice)
	loading := amount(row.LoadingCharges)
	qty := amount(row.Qty)
	return unit.Add(loading).Mul(qty)
}

// Quote totals every row and sums the row totals.
func Quote(rows []PriceRow) PriceQuote {
	q := PriceQuote{Rows: make([]decimal.Decimal, len(rows)), GrandTotal: decimal.Zero}
	for i, row := range rows {
		q.Rows[i] = RowTotal(row)
		q.GrandTotal = q.GrandTotal.Add(q.Rows[i])
	}
	return q
}

func amount(s string) decimal.Decimal {
	return decimal.NewFromFloat(ParseAmount(s))
}

// AddPricesDraft is the standalone "add prices" admin workflow. It shares the
// pricing arithmetic with the status dialog but keeps its own rows.
type AddPricesDraft struct {
	Items []ItemPriceDraft `json:"items"`
}

// Rows projects the draft onto calculator rows.
func (d AddPricesDraft) Rows() []PriceRow {
	return itemRows(d.Items)
}

// Quote prices the draft.
func (d AddPricesDraft) Quote() PriceQuote {
	return Quote(d.Rows())
}

func itemRows(items []ItemPriceDraft) []PriceRow {
	rows := make([]PriceRow, len(items))
	for i, it := range items {
		rows[i] = PriceRow{Qty: it.Qty, UnitPrice: it.UnitPrice, LoadingCharges: it.LoadingCharges}
	}
	return rows
}

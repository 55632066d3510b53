// Package pricing turns a cart of line items into an authoritative order total.
//
// All arithmetic is done in decimal with no intermediate rounding; callers round
// to two places only when presenting or persisting a PricedOrder.
package pricing

import (
	"github.com/kiwari-pos/venue-api/internal/enum"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineItem is one menu item entry with quantity in a cart.
type LineItem struct {
	ItemID              string          `json:"item_id"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	Quantity            int32           `json:"quantity"`
	ItemDiscountPercent decimal.Decimal `json:"item_discount_percent"`
}

// Discount is a single order-level discount.
type Discount struct {
	Kind  string          `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

// NoDiscount is the zero order-level discount.
var NoDiscount = Discount{Kind: enum.DiscountTypeNone}

// PricedOrder is an immutable snapshot of a priced cart.
type PricedOrder struct {
	LineItems           []LineItem
	RawSubtotal         decimal.Decimal
	ItemDiscountTotal   decimal.Decimal
	OrderDiscountAmount decimal.Decimal
	// Discount is ItemDiscountTotal + OrderDiscountAmount, clamped to RawSubtotal.
	Discount      decimal.Decimal
	DiscountKind  string
	TaxRate       decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
	LineSubtotals []decimal.Decimal
	LineDiscounts []decimal.Decimal
}

// SubtotalAfterDiscount returns RawSubtotal - Discount (never negative).
func (p PricedOrder) SubtotalAfterDiscount() decimal.Decimal {
	return p.RawSubtotal.Sub(p.Discount)
}

// IsEmpty reports whether the priced cart has no line items.
func (p PricedOrder) IsEmpty() bool {
	return len(p.LineItems) == 0
}

// Price computes subtotal, discount, tax and total for a cart.
//
// The order-level discount is computed against the raw subtotal, not against
// the amount left after item discounts, and the two discounts are added.
// Price does not validate its input; use Quote for untrusted carts.
func Price(lines []LineItem, orderDiscount Discount, taxRatePercent decimal.Decimal) PricedOrder {
	snapshot := make([]LineItem, len(lines))
	copy(snapshot, lines)

	p := PricedOrder{
		LineItems:     snapshot,
		DiscountKind:  normalizeKind(orderDiscount.Kind),
		TaxRate:       taxRatePercent,
		LineSubtotals: make([]decimal.Decimal, len(lines)),
		LineDiscounts: make([]decimal.Decimal, len(lines)),
	}

	for i, li := range snapshot {
		lineTotal := li.UnitPrice.Mul(decimal.NewFromInt32(li.Quantity))
		lineDiscount := lineTotal.Mul(li.ItemDiscountPercent).Shift(-2)

		p.RawSubtotal = p.RawSubtotal.Add(lineTotal)
		p.ItemDiscountTotal = p.ItemDiscountTotal.Add(lineDiscount)
		p.LineSubtotals[i] = lineTotal.Sub(lineDiscount)
		p.LineDiscounts[i] = lineDiscount
	}

	switch p.DiscountKind {
	case enum.DiscountTypePercentage:
		p.OrderDiscountAmount = p.RawSubtotal.Mul(orderDiscount.Value).Shift(-2)
	case enum.DiscountTypeFixed:
		p.OrderDiscountAmount = decimal.Min(orderDiscount.Value, p.RawSubtotal)
	}

	p.Discount = decimal.Min(p.ItemDiscountTotal.Add(p.OrderDiscountAmount), p.RawSubtotal)

	afterDiscount := p.RawSubtotal.Sub(p.Discount)
	if afterDiscount.IsNegative() {
		afterDiscount = decimal.Zero
	}
	p.Tax = afterDiscount.Mul(taxRatePercent).Shift(-2)
	p.Total = afterDiscount.Add(p.Tax)
	return p
}

// Quote validates the cart and discount, then prices them.
func Quote(lines []LineItem, orderDiscount Discount, taxRatePercent decimal.Decimal) (PricedOrder, error) {
	if err := Validate(lines, orderDiscount, taxRatePercent); err != nil {
		return PricedOrder{}, err
	}
	return Price(lines, orderDiscount, taxRatePercent), nil
}

func normalizeKind(kind string) string {
	if kind == "" {
		return enum.DiscountTypeNone
	}
	return kind
}

// Rounded is a presentation copy of a PricedOrder with every amount rounded
// half-up to two decimal places.
type Rounded struct {
	RawSubtotal           string `json:"raw_subtotal"`
	ItemDiscountTotal     string `json:"item_discount_total"`
	OrderDiscountAmount   string `json:"order_discount_amount"`
	Discount              string `json:"discount"`
	SubtotalAfterDiscount string `json:"subtotal_after_discount"`
	TaxRate               string `json:"tax_rate"`
	Tax                   string `json:"tax"`
	Total                 string `json:"total"`
}

// Rounded formats the amounts for display.
func (p PricedOrder) Rounded() Rounded {
	return Rounded{
		RawSubtotal:           p.RawSubtotal.StringFixed(2),
		ItemDiscountTotal:     p.ItemDiscountTotal.StringFixed(2),
		OrderDiscountAmount:   p.OrderDiscountAmount.StringFixed(2),
		Discount:              p.Discount.StringFixed(2),
		SubtotalAfterDiscount: p.SubtotalAfterDiscount().StringFixed(2),
		TaxRate:               p.TaxRate.StringFixed(2),
		Tax:                   p.Tax.StringFixed(2),
		Total:                 p.Total.StringFixed(2),
	}
}

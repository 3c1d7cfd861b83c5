package domain

import "github.com/shopspring/decimal"

// DeliveryFee is the flat delivery charge added to any non-empty cart.
var DeliveryFee = decimal.RequireFromString("6.99")

// Totals are derived from the lines on every read and never stored.
type Totals struct {
	ItemCount   int             `json:"item_count"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Total       decimal.Decimal `json:"total"`
}

// Subtotal is the sum of all line subtotals.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.Lines {
		sum = sum.Add(l.LineSubtotal())
	}
	return sum
}

// Total is the subtotal plus delivery, or zero for an empty cart.
func (c *Cart) Total() decimal.Decimal {
	sub := c.Subtotal()
	if !sub.IsPositive() {
		return decimal.Zero
	}
	return sub.Add(DeliveryFee)
}

// Totals computes all derived amounts at once.
func (c *Cart) Totals() Totals {
	sub := c.Subtotal()
	t := Totals{
		ItemCount:   c.ItemCount(),
		Subtotal:    sub,
		DeliveryFee: decimal.Zero,
		Total:       decimal.Zero,
	}
	if sub.IsPositive() {
		t.DeliveryFee = DeliveryFee
		t.Total = sub.Add(DeliveryFee)
	}
	return t
}

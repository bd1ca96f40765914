package ledger

import "github.com/shopspring/decimal"

var one = decimal.NewFromInt(1)
var hundred = decimal.NewFromInt(100)

// Totals is the derived money view of an order being edited.
type Totals struct {
	Subtotal decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals sums every visible line of the merged view and applies the
// table's commission percentage. The grand total is rounded half-up to the
// whole currency unit, matching what the receipt printer gets. Pure and
// order-independent; recomputed on every ledger change rather than cached.
func ComputeTotals(view []LineItem, commission decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, line := range view {
		subtotal = subtotal.Add(line.UnitPrice.Mul(line.Quantity))
	}
	total := subtotal.Mul(one.Add(commission.Div(hundred))).Round(0)
	return Totals{Subtotal: subtotal, Total: total}
}

// Totals derives the totals for the current merged view using the
// commission inherited from the order's table.
func (l *Ledger) Totals() Totals {
	return ComputeTotals(l.MergedView(), l.order.TableDetails.Commission)
}

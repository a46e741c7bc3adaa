// Package reconcile derives a mutually consistent subtotal, VAT and total
// from partial or itemized invoice input.
package reconcile

import (
	"github.com/shopspring/decimal"

	money "github.com/rezonia/ubl-invoice-engine/internal/decimal"
	"github.com/rezonia/ubl-invoice-engine/internal/model"
)

var (
	defaultVATRate  = money.FromInt(model.DefaultVATRate)
	defaultQuantity = money.FromInt(1)
	vatInclusive    = money.FromInt(100 + model.DefaultVATRate).Div(money.FromInt(100))
)

// Reconcile returns the totals for in. It never fails: unparseable
// amounts are treated as absent.
func Reconcile(in *model.InvoiceInput) model.ReconciledTotals {
	totals, _ := Compute(in)
	return totals
}

// Compute returns the totals together with the computed lines. Lines is
// empty when the input carries no items.
//
// Items always win over the scalar Subtotal/Total/VAT fields. Without items
// the scalar fields decide:
//   - Subtotal only: VAT at 15%, total = subtotal + VAT
//   - Total only: subtotal = total / 1.15, VAT = total - subtotal
//   - both: recomputed from Subtotal, the supplied Total is discarded
//   - neither: all zero
//
// The VAT field is accepted but never trusted; it is always recomputed.
func Compute(in *model.InvoiceInput) (model.ReconciledTotals, []model.LineItemComputed) {
	zero := model.ReconciledTotals{Subtotal: money.Zero, VATTotal: money.Zero, Total: money.Zero}
	if in == nil {
		return zero, nil
	}

	if len(in.Items) > 0 {
		lines := ComputeLines(in.Items)
		subtotals := make([]decimal.Decimal, len(lines))
		vats := make([]decimal.Decimal, len(lines))
		for i, l := range lines {
			subtotals[i] = l.LineSubtotal
			vats[i] = l.LineVAT
		}
		subtotal, vat := money.Sum(subtotals), money.Sum(vats)
		return model.ReconciledTotals{
			Subtotal: subtotal,
			VATTotal: vat,
			Total:    money.Round(subtotal.Add(vat)),
		}, lines
	}

	subtotalIn := money.ParseOr(in.Subtotal.String(), money.Zero)
	totalIn := money.ParseOr(in.Total.String(), money.Zero)

	switch {
	case !subtotalIn.IsZero():
		subtotal := money.Round(subtotalIn)
		vat := money.CalculateVAT(subtotal, defaultVATRate)
		return model.ReconciledTotals{
			Subtotal: subtotal,
			VATTotal: vat,
			Total:    money.Round(subtotal.Add(vat)),
		}, nil

	case !totalIn.IsZero():
		total := money.Round(totalIn)
		subtotal := money.Div(total, vatInclusive)
		return model.ReconciledTotals{
			Subtotal: subtotal,
			VATTotal: money.Round(total.Sub(subtotal)),
			Total:    total,
		}, nil

	default:
		return zero, nil
	}
}

// ComputeLines derives per-line amounts. Quantity defaults to 1, unit
// price to 0 and the VAT rate to 15 percent.
//
// LineSubtotal is quantity*unitPrice rounded to 2 places, and the document
// totals are sums of the rounded line amounts. Unparseable or out-of-range
// amounts fall back to the defaults.
func ComputeLines(items []model.LineItemInput) []model.LineItemComputed {
	lines := make([]model.LineItemComputed, 0, len(items))
	for i, item := range items {
		qty := money.ParseOr(item.Quantity.String(), defaultQuantity)
		price := money.ParseOr(item.UnitPrice.String(), money.Zero)
		rate := money.ParseOr(item.VATRate.String(), defaultVATRate)

		lineSubtotal := money.Mul(qty, price)
		lines = append(lines, model.LineItemComputed{
			Index:          i + 1,
			Description:    item.Description,
			Quantity:       qty,
			UnitPrice:      price,
			VATRatePercent: rate,
			LineSubtotal:   lineSubtotal,
			LineVAT:        money.CalculateVAT(lineSubtotal, rate),
		})
	}
	return lines
}

package reconcile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	money "github.com/rezonia/ubl-invoice-engine/internal/decimal"
	"github.com/rezonia/ubl-invoice-engine/internal/model"
	"github.com/rezonia/ubl-invoice-engine/internal/reconcile"
)

func assertTotals(t *testing.T, got model.ReconciledTotals, subtotal, vat, total string) {
	t.Helper()
	assert.Equal(t, subtotal, money.Format(got.Subtotal), "subtotal")
	assert.Equal(t, vat, money.Format(got.VATTotal), "vat")
	assert.Equal(t, total, money.Format(got.Total), "total")
}

func TestReconcile_Scalar(t *testing.T) {
	tests := []struct {
		name     string
		input    model.InvoiceInput
		subtotal string
		vat      string
		total    string
	}{
		{
			name:     "subtotal only",
			input:    model.InvoiceInput{Subtotal: "100"},
			subtotal: "100.00", vat: "15.00", total: "115.00",
		},
		{
			name:     "total only",
			input:    model.InvoiceInput{Total: "115"},
			subtotal: "100.00", vat: "15.00", total: "115.00",
		},
		{
			name:     "both given, subtotal wins",
			input:    model.InvoiceInput{Subtotal: "100", Total: "999"},
			subtotal: "100.00", vat: "15.00", total: "115.00",
		},
		{
			name:     "nothing given",
			input:    model.InvoiceInput{},
			subtotal: "0.00", vat: "0.00", total: "0.00",
		},
		{
			name:     "vat only is ignored",
			input:    model.InvoiceInput{VAT: "15"},
			subtotal: "0.00", vat: "0.00", total: "0.00",
		},
		{
			name:     "unparseable subtotal falls back to total",
			input:    model.InvoiceInput{Subtotal: "abc", Total: "230"},
			subtotal: "200.00", vat: "30.00", total: "230.00",
		},
		{
			name:     "zero subtotal is not truthy",
			input:    model.InvoiceInput{Subtotal: "0", Total: "115"},
			subtotal: "100.00", vat: "15.00", total: "115.00",
		},
		{
			name:     "total that does not divide evenly",
			input:    model.InvoiceInput{Total: "100"},
			subtotal: "86.96", vat: "13.04", total: "100.00",
		},
		{
			name:     "subtotal with rounding",
			input:    model.InvoiceInput{Subtotal: "10.10"},
			subtotal: "10.10", vat: "1.52", total: "11.62",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.input
			assertTotals(t, reconcile.Reconcile(&in), tt.subtotal, tt.vat, tt.total)
		})
	}
}

func TestReconcile_Nil(t *testing.T) {
	assertTotals(t, reconcile.Reconcile(nil), "0.00", "0.00", "0.00")
}

func TestCompute_Itemized(t *testing.T) {
	in := &model.InvoiceInput{
		Subtotal: "5000",
		Total:    "1",
		Items: []model.LineItemInput{
			{Description: "Widget", Quantity: "2", UnitPrice: "50", VATRate: "15"},
			{Description: "Service", Quantity: "1.5", UnitPrice: "33.33", VATRate: "5"},
			{Description: "Defaults"},
			{Description: "Garbage", Quantity: "x", UnitPrice: "10", VATRate: "y"},
		},
	}

	totals, lines := reconcile.Compute(in)
	require.Len(t, lines, 4)

	assert.Equal(t, 1, lines[0].Index)
	assert.Equal(t, "100.00", money.Format(lines[0].LineSubtotal))
	assert.Equal(t, "15.00", money.Format(lines[0].LineVAT))

	// 1.5 * 33.33 = 49.995 -> 50.00; 5% -> 2.50
	assert.Equal(t, "50.00", money.Format(lines[1].LineSubtotal))
	assert.Equal(t, "2.50", money.Format(lines[1].LineVAT))

	// quantity 1, price 0, rate 15
	assert.Equal(t, "1.00", money.Format(lines[2].Quantity))
	assert.Equal(t, "0.00", money.Format(lines[2].LineSubtotal))
	assert.Equal(t, "15.00", money.Format(lines[2].VATRatePercent))

	assert.Equal(t, "10.00", money.Format(lines[3].LineSubtotal))
	assert.Equal(t, "1.50", money.Format(lines[3].LineVAT))
	assert.Equal(t, 4, lines[3].Index)

	// scalar fields are ignored when items are present
	assertTotals(t, totals, "160.00", "19.00", "179.00")
}

func TestCompute_ItemizedInvariant(t *testing.T) {
	in := &model.InvoiceInput{
		Items: []model.LineItemInput{
			{Quantity: "3", UnitPrice: "19.99"},
			{Quantity: "7", UnitPrice: "0.33", VATRate: "0"},
			{Quantity: "0.25", UnitPrice: "1234.56", VATRate: "15"},
		},
	}

	totals, lines := reconcile.Compute(in)

	sum := money.Zero
	for _, l := range lines {
		sum = sum.Add(l.LineSubtotal)
	}
	assert.True(t, totals.Subtotal.Equal(sum))
	assert.True(t, totals.Total.Equal(money.Round(totals.Subtotal.Add(totals.VATTotal))))
}

func TestCompute_NoItems(t *testing.T) {
	_, lines := reconcile.Compute(&model.InvoiceInput{Subtotal: "100", Items: []model.LineItemInput{}})
	assert.Empty(t, lines)
}

func TestCompute_LineSubtotalRounded(t *testing.T) {
	_, lines := reconcile.Compute(&model.InvoiceInput{
		Items: []model.LineItemInput{{Quantity: "0.333", UnitPrice: "3"}},
	})
	require.Len(t, lines, 1)

	// 0.333 * 3 = 0.999 is stored as 1.00
	assert.Equal(t, "0.333", lines[0].Quantity.String())
	assert.Equal(t, "1.00", money.Format(lines[0].LineSubtotal))
	assert.Equal(t, "0.15", money.Format(lines[0].LineVAT))
}

func TestReconcile_OutOfRangeAmounts(t *testing.T) {
	tests := []struct {
		name string
		in   *model.InvoiceInput
	}{
		{"tiny subtotal exponent", &model.InvoiceInput{Subtotal: "1e-40000000"}},
		{"huge subtotal exponent", &model.InvoiceInput{Subtotal: "1e400000"}},
		{"tiny total exponent", &model.InvoiceInput{Total: "1e-40000000"}},
		{"huge total exponent", &model.InvoiceInput{Total: "1e400000"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertTotals(t, reconcile.Reconcile(tt.in), "0.00", "0.00", "0.00")
		})
	}
}

func TestComputeLines_OutOfRangeAmounts(t *testing.T) {
	lines := reconcile.ComputeLines([]model.LineItemInput{
		{Quantity: "1e-40000000", UnitPrice: "10", VATRate: "1e400000"},
		{Quantity: "2", UnitPrice: "1e400000"},
	})
	require.Len(t, lines, 2)

	// quantity and rate fall back to 1 and 15
	assert.Equal(t, "10.00", money.Format(lines[0].LineSubtotal))
	assert.Equal(t, "1.50", money.Format(lines[0].LineVAT))

	assert.Equal(t, "0.00", money.Format(lines[1].LineSubtotal))
}

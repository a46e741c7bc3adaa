package model_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/ubl-invoice-engine/internal/model"
)

func TestInvoiceInput_UnmarshalMixedNumerics(t *testing.T) {
	data := `{
		"InvoiceNumber": "INV-001",
		"SellerName": "Seller Co",
		"Subtotal": 100,
		"Total": "115.00",
		"VAT": null,
		"Items": [
			{"Description": "Widget", "Quantity": "2", "UnitPrice": 50.5, "VATRate": true}
		]
	}`

	var in model.InvoiceInput
	require.NoError(t, json.Unmarshal([]byte(data), &in))

	assert.Equal(t, "INV-001", in.InvoiceNumber)
	assert.Equal(t, model.Numeric("100"), in.Subtotal)
	assert.Equal(t, model.Numeric("115.00"), in.Total)
	assert.False(t, in.VAT.IsSet())
	require.Len(t, in.Items, 1)
	assert.Equal(t, "2", in.Items[0].Quantity.String())
	assert.Equal(t, "50.5", in.Items[0].UnitPrice.String())
	assert.Equal(t, "true", in.Items[0].VATRate.String())
}

func TestInvoiceInput_Empty(t *testing.T) {
	var in model.InvoiceInput
	require.NoError(t, json.Unmarshal([]byte(`{}`), &in))

	assert.Empty(t, in.InvoiceNumber)
	assert.False(t, in.Subtotal.IsSet())
	assert.Nil(t, in.Items)
}

func TestInvoiceInput_Buyer(t *testing.T) {
	in := model.InvoiceInput{Customer: "Legacy Buyer"}
	assert.Equal(t, "Legacy Buyer", in.Buyer())

	in.BuyerName = "Buyer Co"
	assert.Equal(t, "Buyer Co", in.Buyer())
}

func TestValidationResult(t *testing.T) {
	r := model.NewValidationResult()
	r.AddWarning("advisory")
	r.ComputeValidity()
	assert.True(t, r.IsValid)
	assert.Empty(t, r.Errors)

	r.AddError("broken")
	r.ComputeValidity()
	assert.False(t, r.IsValid)
	assert.Equal(t, []string{"broken"}, r.Errors)
	assert.Equal(t, []string{"advisory"}, r.Warnings)
}

func TestParseError(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := model.NewParseError("xml", "failed to parse XML", cause)

	assert.Equal(t, "xml: failed to parse XML (unexpected EOF)", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestValidationError(t *testing.T) {
	err := model.NewValidationError("Currency", "XX", "iso4217", "unknown currency")
	assert.Contains(t, err.Error(), "Currency")
	assert.Contains(t, err.Error(), "value=XX")

	err = model.NewValidationError("SellerName", nil, "tlv", "too long")
	assert.NotContains(t, err.Error(), "value=")
}

func TestAssemblyError(t *testing.T) {
	cause := errors.New("disk full")
	err := model.NewAssemblyError("serialize", "failed to write document", cause)

	var asmErr *model.AssemblyError
	require.ErrorAs(t, err, &asmErr)
	assert.Equal(t, "serialize", asmErr.Stage)
	assert.ErrorIs(t, err, cause)
}

// Package model holds the invoice types shared by the reconciler, the
// assembler and the compliance validator.
package model

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Defaults applied when the caller leaves a field out
const (
	DefaultCurrency = "SAR"
	DefaultVATRate  = 15
)

// Numeric is decimal-as-text accepted from untrusted input.
// It unmarshals from a JSON string or number and keeps the raw text;
// anything that does not parse later falls back to a default.
type Numeric string

// UnmarshalJSON accepts strings, numbers and null without failing
func (n *Numeric) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0, bytes.Equal(b, []byte("null")):
		*n = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*n = ""
			return nil
		}
		*n = Numeric(s)
	default:
		*n = Numeric(b)
	}
	return nil
}

// String returns the trimmed raw text
func (n Numeric) String() string {
	return strings.TrimSpace(string(n))
}

// IsSet reports whether any text was supplied
func (n Numeric) IsSet() bool {
	return n.String() != ""
}

// InvoiceInput is the caller-supplied invoice. Every field is optional.
type InvoiceInput struct {
	InvoiceNumber string `json:"InvoiceNumber,omitempty" yaml:"InvoiceNumber,omitempty"`
	UUID          string `json:"UUID,omitempty" yaml:"UUID,omitempty"`
	IssueDate     string `json:"IssueDate,omitempty" yaml:"IssueDate,omitempty" validate:"omitempty,tlv"`
	Currency      string `json:"Currency,omitempty" yaml:"Currency,omitempty" validate:"omitempty,iso4217"`

	SellerName string `json:"SellerName,omitempty" yaml:"SellerName,omitempty" validate:"omitempty,tlv"`
	SellerVAT  string `json:"SellerVAT,omitempty" yaml:"SellerVAT,omitempty" validate:"omitempty,tlv"`
	BuyerName  string `json:"BuyerName,omitempty" yaml:"BuyerName,omitempty"`
	BuyerVAT   string `json:"BuyerVAT,omitempty" yaml:"BuyerVAT,omitempty"`

	// Customer is the legacy buyer-name key, used when BuyerName is empty
	Customer string `json:"Customer,omitempty" yaml:"Customer,omitempty"`

	Subtotal Numeric `json:"Subtotal,omitempty" yaml:"Subtotal,omitempty"`
	Total    Numeric `json:"Total,omitempty" yaml:"Total,omitempty"`
	VAT      Numeric `json:"VAT,omitempty" yaml:"VAT,omitempty"`

	Items []LineItemInput `json:"Items,omitempty" yaml:"Items,omitempty" validate:"omitempty,max=1000,dive"`
}

// Buyer returns the buyer name, falling back to the legacy Customer key
func (in *InvoiceInput) Buyer() string {
	if strings.TrimSpace(in.BuyerName) != "" {
		return in.BuyerName
	}
	return in.Customer
}

// LineItemInput is one caller-supplied invoice line
type LineItemInput struct {
	Description string  `json:"Description,omitempty" yaml:"Description,omitempty"`
	Quantity    Numeric `json:"Quantity,omitempty" yaml:"Quantity,omitempty"`
	UnitPrice   Numeric `json:"UnitPrice,omitempty" yaml:"UnitPrice,omitempty"`
	VATRate     Numeric `json:"VATRate,omitempty" yaml:"VATRate,omitempty"`
}

// ReconciledTotals is the consistent amount triple derived from the input
type ReconciledTotals struct {
	Subtotal decimal.Decimal `json:"subtotal" yaml:"subtotal"`
	VATTotal decimal.Decimal `json:"vat_total" yaml:"vat_total"`
	Total    decimal.Decimal `json:"total" yaml:"total"`
}

// LineItemComputed is a line with its derived amounts
type LineItemComputed struct {
	Index          int             `json:"index" yaml:"index"`
	Description    string          `json:"description" yaml:"description"`
	Quantity       decimal.Decimal `json:"quantity" yaml:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price" yaml:"unit_price"`
	VATRatePercent decimal.Decimal `json:"vat_rate_percent" yaml:"vat_rate_percent"`
	LineSubtotal   decimal.Decimal `json:"line_subtotal" yaml:"line_subtotal"`
	LineVAT        decimal.Decimal `json:"line_vat" yaml:"line_vat"`
}

// ValidationResult is the outcome of one compliance check run
type ValidationResult struct {
	IsValid  bool     `json:"is_valid" yaml:"is_valid"`
	Errors   []string `json:"errors" yaml:"errors"`
	Warnings []string `json:"warnings" yaml:"warnings"`
}

// NewValidationResult creates an empty result
func NewValidationResult() *ValidationResult {
	return &ValidationResult{
		Errors:   make([]string, 0),
		Warnings: make([]string, 0),
	}
}

// AddError appends an error message
func (r *ValidationResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// AddWarning appends a warning message
func (r *ValidationResult) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// ComputeValidity sets IsValid from the collected errors
func (r *ValidationResult) ComputeValidity() {
	r.IsValid = len(r.Errors) == 0
}

// Package invoicelib provides a public API for building, validating and
// signing UBL 2.1 tax invoices.
//
// Example usage:
//
//	proc, err := invoicelib.NewProcessor(invoicelib.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := proc.Build(ctx, &invoicelib.InvoiceInput{
//	    SellerName: "Acme Trading",
//	    SellerVAT:  "300000000000003",
//	    Subtotal:   "100",
//	}, false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Totals.Total)
package invoicelib

import (
	"github.com/rezonia/ubl-invoice-engine/internal/model"
	"github.com/rezonia/ubl-invoice-engine/internal/processor"
	"github.com/rezonia/ubl-invoice-engine/internal/qr"
	"github.com/rezonia/ubl-invoice-engine/internal/signature"
)

// Re-export core types for public API
type (
	InvoiceInput       = model.InvoiceInput
	LineItemInput      = model.LineItemInput
	Numeric            = model.Numeric
	ReconciledTotals   = model.ReconciledTotals
	LineItemComputed   = model.LineItemComputed
	ValidationResult   = model.ValidationResult
	BuildResult        = processor.Result
	VerificationResult = signature.VerificationResult
	SignerInfo         = signature.SignerInfo
	QRPayload          = qr.Payload
)

// Re-export error types
type (
	ParseError      = model.ParseError
	ValidationError = model.ValidationError
	AssemblyError   = model.AssemblyError
	SignatureError  = signature.SignatureError
)

// Re-export signature error codes
const (
	ErrCodeNoSignature       = signature.ErrCodeNoSignature
	ErrCodeInvalidSignature  = signature.ErrCodeInvalidSignature
	ErrCodeKeyUnavailable    = signature.ErrCodeKeyUnavailable
	ErrCodeInvalidKey        = signature.ErrCodeInvalidKey
	ErrCodeInvalidCert       = signature.ErrCodeInvalidCert
	ErrCodeSigningFailed     = signature.ErrCodeSigningFailed
	ErrCodeUnsupportedFormat = signature.ErrCodeUnsupportedFormat
)

// EncodeQR builds the base64 TLV payload for the five QR fields
func EncodeQR(p QRPayload) string {
	return qr.EncodePayload(p)
}

// DecodeQR parses a base64 TLV payload
func DecodeQR(s string) (*QRPayload, error) {
	return qr.Decode(s)
}

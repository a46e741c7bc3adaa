package invoicelib

import (
	"context"
	"crypto/x509"
	"io"
)

// Builder assembles invoice documents from structured input
type Builder interface {
	// Build reconciles and assembles in, signing the result when sign is set
	Build(ctx context.Context, in *InvoiceInput, sign bool) (*BuildResult, error)

	// BuildJSON decodes the input from JSON and builds it
	BuildJSON(ctx context.Context, r io.Reader, sign bool) (*BuildResult, error)
}

// Checker inspects existing invoice documents
type Checker interface {
	// Validate runs the compliance checks
	Validate(ctx context.Context, r io.Reader) (*ValidationResult, error)

	// Verify checks the enveloped signature
	Verify(ctx context.Context, r io.Reader) (*VerificationResult, error)
}

// ProcessResult is the outcome of processing one auto-detected input
type ProcessResult struct {
	Format     string
	Build      *BuildResult
	Validation *ValidationResult
	// Verification is set for signed XML documents only
	Verification *VerificationResult
}

// Pipeline processes invoices of any supported format
type Pipeline interface {
	// Process detects the input format and builds or checks it
	Process(ctx context.Context, r io.Reader) (*ProcessResult, error)

	// ProcessBatch processes multiple inputs
	ProcessBatch(ctx context.Context, inputs []io.Reader) ([]*ProcessResult, error)
}

// Options configures a Processor
type Options struct {
	// Signing (PEM). Without a certificate a self-signed one is generated.
	PrivateKeyPEM  []byte
	CertificatePEM []byte
	CommonName     string

	// Certificates trusted when verifying. The signing certificate is
	// always trusted when a key is configured.
	TrustedCertificates []*x509.Certificate

	// Document settings
	ProfileID string
	Tolerance string // totals comparison tolerance (default: 0.01)

	// SignBuilt signs every document produced by Process
	SignBuilt bool
}

// DefaultOptions returns default processor options
func DefaultOptions() Options {
	return Options{
		CommonName: "UBL Invoice Engine",
		ProfileID:  "reporting:1.0",
		Tolerance:  "0.01",
	}
}

// Package signature defines the signing boundary for assembled invoices and
// the result of verifying a signed document.
package signature

import "context"

// Signer produces a signed copy of an XML document. The input is never
// modified.
type Signer interface {
	Sign(ctx context.Context, data []byte) ([]byte, error)
}

// Verifier checks the signature embedded in an XML document
type Verifier interface {
	Verify(ctx context.Context, data []byte) (*VerificationResult, error)
}

// SignerFunc adapts a function to the Signer interface
type SignerFunc func(ctx context.Context, data []byte) ([]byte, error)

// Sign calls f
func (f SignerFunc) Sign(ctx context.Context, data []byte) ([]byte, error) {
	return f(ctx, data)
}

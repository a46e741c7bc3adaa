package xml

import (
	"context"
	"crypto/x509"
	"fmt"

	dsig "github.com/russellhaering/goxmldsig"

	"github.com/rezonia/ubl-invoice-engine/internal/signature"
)

// XMLVerifier verifies enveloped XMLDSig signatures
type XMLVerifier struct {
	roots     []*x509.Certificate
	extractor *SignatureExtractor
}

var _ signature.Verifier = (*XMLVerifier)(nil)

// NewXMLVerifier creates a verifier trusting roots. With no roots the
// signature is checked against its own embedded certificate and the result
// is never reported as trusted.
func NewXMLVerifier(roots ...*x509.Certificate) *XMLVerifier {
	return &XMLVerifier{
		roots:     roots,
		extractor: NewSignatureExtractor(),
	}
}

// Verify checks the signature in data. Documents that cannot be parsed or
// carry no signature produce a result together with a SignatureError.
func (v *XMLVerifier) Verify(ctx context.Context, data []byte) (*signature.VerificationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := signature.NewVerificationResult()

	extraction, err := v.extractor.Extract(data)
	if err != nil {
		result.AddError(err.Error())
		return result, err
	}
	result.SignatureFound = true

	cert, err := ExtractCertificate(extraction.SignatureElement)
	if err != nil {
		result.AddWarning(fmt.Sprintf("certificate extraction: %v", err))
	} else {
		result.SetSigner(cert)
	}

	roots := v.roots
	if len(roots) == 0 {
		if cert == nil {
			result.AddError("no trusted certificate and none embedded in KeyInfo")
			result.ComputeValidity()
			return result, nil
		}
		roots = []*x509.Certificate{cert}
		result.AddWarning("no trusted certificates configured: integrity checked against the embedded certificate only")
	}

	validationCtx := dsig.NewDefaultValidationContext(&dsig.MemoryX509CertificateStore{Roots: roots})
	if _, err := validationCtx.Validate(extraction.Document.Root()); err != nil {
		result.AddError(signature.ErrInvalidSignature(err).Error())
	} else {
		result.SignatureValid = true
		result.CertTrusted = len(v.roots) > 0
	}

	result.ComputeValidity()
	return result, nil
}

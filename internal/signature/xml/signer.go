// Package xml signs invoice documents with an enveloped XML signature and
// verifies documents signed that way.
package xml

import (
	"context"
	"crypto/x509"

	dsig "github.com/russellhaering/goxmldsig"

	"github.com/rezonia/ubl-invoice-engine/internal/signature"
)

// XMLSigner produces enveloped RSA-SHA256 signatures over the whole
// document, canonicalized with exclusive C14N
type XMLSigner struct {
	keys *KeyPair
}

var _ signature.Signer = (*XMLSigner)(nil)

// NewXMLSigner creates a signer for keys
func NewXMLSigner(keys *KeyPair) *XMLSigner {
	return &XMLSigner{keys: keys}
}

// Certificate returns the certificate published in KeyInfo
func (s *XMLSigner) Certificate() *x509.Certificate {
	if s.keys == nil {
		return nil
	}
	return s.keys.Cert
}

// Sign returns a signed copy of data
func (s *XMLSigner) Sign(ctx context.Context, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.keys == nil {
		return nil, signature.ErrKeyUnavailable()
	}

	doc, err := parseDocument(data)
	if err != nil {
		return nil, err
	}
	if findSignatureElement(doc.Root()) != nil {
		return nil, signature.NewSignatureError(signature.ErrCodeSigningFailed, "", "document is already signed", nil)
	}

	signingCtx := dsig.NewDefaultSigningContext(s.keys)
	signingCtx.Canonicalizer = dsig.MakeC14N10ExclusiveCanonicalizerWithPrefixList("")
	if err := signingCtx.SetSignatureMethod(dsig.RSASHA256SignatureMethod); err != nil {
		return nil, signature.ErrSigningFailed(err)
	}

	signed, err := signingCtx.SignEnveloped(doc.Root())
	if err != nil {
		return nil, signature.ErrSigningFailed(err)
	}
	doc.SetRoot(signed)

	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, signature.ErrSigningFailed(err)
	}
	return out, nil
}

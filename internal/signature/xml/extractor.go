package xml

import (
	"bytes"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/beevik/etree"

	"github.com/rezonia/ubl-invoice-engine/internal/signature"
	"github.com/rezonia/ubl-invoice-engine/internal/ubl"
)

// XMLDSigNamespace is the XML Signature namespace
const XMLDSigNamespace = "http://www.w3.org/2000/09/xmldsig#"

func dsName(local string) ubl.QName {
	return ubl.QName{URI: XMLDSigNamespace, Prefix: "ds", Local: local}
}

var (
	signatureName = dsName("Signature")
	certPath      = []ubl.QName{dsName("KeyInfo"), dsName("X509Data"), dsName("X509Certificate")}
)

// ExtractionResult contains the parsed document and its signature
type ExtractionResult struct {
	Document         *etree.Document
	SignatureElement *etree.Element
}

// SignatureExtractor locates the enveloped signature of an invoice
type SignatureExtractor struct{}

// NewSignatureExtractor creates a new signature extractor
func NewSignatureExtractor() *SignatureExtractor {
	return &SignatureExtractor{}
}

// Extract parses data and finds its Signature element
func (e *SignatureExtractor) Extract(data []byte) (*ExtractionResult, error) {
	doc, err := parseDocument(data)
	if err != nil {
		return nil, err
	}

	sig := findSignatureElement(doc.Root())
	if sig == nil {
		return nil, signature.ErrNoSignature()
	}

	return &ExtractionResult{Document: doc, SignatureElement: sig}, nil
}

// CanExtract returns true if the data appears to be XML with a signature
func (e *SignatureExtractor) CanExtract(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) < 5 || trimmed[0] != '<' {
		return false
	}
	return bytes.Contains(trimmed, []byte("<Signature")) ||
		bytes.Contains(trimmed, []byte(":Signature"))
}

func parseDocument(data []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, signature.NewSignatureError(signature.ErrCodeUnsupportedFormat, "", "failed to parse XML", err)
	}
	if doc.Root() == nil {
		return nil, signature.ErrUnsupportedFormat("empty XML document")
	}
	return doc, nil
}

// findSignatureElement prefers an enveloped signature on the root
func findSignatureElement(root *etree.Element) *etree.Element {
	if sig := ubl.FindChild(root, signatureName); sig != nil {
		return sig
	}
	return ubl.FindDescendant(root, signatureName)
}

// ExtractCertificate decodes the certificate published in KeyInfo
func ExtractCertificate(sig *etree.Element) (*x509.Certificate, error) {
	text := ubl.Text(ubl.FindPath(sig, certPath...))
	if text == "" {
		return nil, signature.ErrInvalidCert(errors.New("no X509Certificate found in Signature"))
	}

	der, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(text), ""))
	if err != nil {
		return nil, signature.ErrInvalidCert(err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, signature.ErrInvalidCert(err)
	}
	return cert, nil
}

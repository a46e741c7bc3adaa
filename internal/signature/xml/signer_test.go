package xml

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/ubl-invoice-engine/internal/assembler"
	"github.com/rezonia/ubl-invoice-engine/internal/compliance"
	"github.com/rezonia/ubl-invoice-engine/internal/model"
	"github.com/rezonia/ubl-invoice-engine/internal/signature"
)

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
)

func rsaKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	testKeyOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		testKey = key
	})
	return testKey
}

func pkcs1PEM(key *rsa.PrivateKey) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
}

func testKeyPair(t *testing.T) *KeyPair {
	t.Helper()
	kp, err := LoadKeyPair(pkcs1PEM(rsaKey(t)), nil, "Seller Trading Co")
	require.NoError(t, err)
	return kp
}

func invoiceXML(t *testing.T) []byte {
	t.Helper()
	res, err := assembler.Assemble(&model.InvoiceInput{
		InvoiceNumber: "INV-1001",
		IssueDate:     "2025-01-01",
		SellerName:    "Seller Trading Co",
		SellerVAT:     "300000000000003",
		BuyerName:     "Buyer LLC",
		BuyerVAT:      "311111111111113",
		Items:         []model.LineItemInput{{Description: "Widget", Quantity: "2", UnitPrice: "50"}},
	})
	require.NoError(t, err)
	return []byte(res.XML)
}

func TestSignAndVerify(t *testing.T) {
	kp := testKeyPair(t)
	signer := NewXMLSigner(kp)
	input := invoiceXML(t)
	original := string(input)

	signed, err := signer.Sign(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, original, string(input), "input must not be modified")
	assert.Contains(t, string(signed), "SignatureValue")
	assert.Contains(t, string(signed), "rsa-sha256")

	result, err := NewXMLVerifier(signer.Certificate()).Verify(context.Background(), signed)
	require.NoError(t, err)
	assert.True(t, result.Valid, "errors: %v", result.Errors)
	assert.True(t, result.SignatureFound)
	assert.True(t, result.SignatureValid)
	assert.True(t, result.CertTrusted)
	require.NotNil(t, result.Signer)
	assert.Equal(t, "Seller Trading Co", result.Signer.Name)
	assert.True(t, result.Signer.SelfSigned)
}

func TestSign_OutputStillCompliant(t *testing.T) {
	signed, err := NewXMLSigner(testKeyPair(t)).Sign(context.Background(), invoiceXML(t))
	require.NoError(t, err)

	result := compliance.Validate(signed)
	assert.True(t, result.IsValid, "errors: %v", result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestVerify_WithoutRoots(t *testing.T) {
	signed, err := NewXMLSigner(testKeyPair(t)).Sign(context.Background(), invoiceXML(t))
	require.NoError(t, err)

	result, err := NewXMLVerifier().Verify(context.Background(), signed)
	require.NoError(t, err)
	assert.True(t, result.SignatureValid)
	assert.False(t, result.CertTrusted)
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Warnings)
}

func TestVerify_Tampered(t *testing.T) {
	signer := NewXMLSigner(testKeyPair(t))
	signed, err := signer.Sign(context.Background(), invoiceXML(t))
	require.NoError(t, err)

	tampered := strings.Replace(string(signed), "INV-1001", "INV-9999", 1)
	require.NotEqual(t, string(signed), tampered)

	result, err := NewXMLVerifier(signer.Certificate()).Verify(context.Background(), []byte(tampered))
	require.NoError(t, err)
	assert.True(t, result.SignatureFound)
	assert.False(t, result.SignatureValid)
	assert.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], signature.ErrCodeInvalidSignature)
}

func TestVerify_UntrustedCertificate(t *testing.T) {
	signed, err := NewXMLSigner(testKeyPair(t)).Sign(context.Background(), invoiceXML(t))
	require.NoError(t, err)

	other, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)
	otherCert, err := SelfSignedCertificate(other, "Someone Else")
	require.NoError(t, err)

	result, err := NewXMLVerifier(otherCert).Verify(context.Background(), signed)
	require.NoError(t, err)
	assert.False(t, result.SignatureValid)
	assert.False(t, result.Valid)
}

func TestVerify_NoSignature(t *testing.T) {
	result, err := NewXMLVerifier().Verify(context.Background(), invoiceXML(t))
	require.Error(t, err)

	var sigErr *signature.SignatureError
	require.True(t, errors.As(err, &sigErr))
	assert.Equal(t, signature.ErrCodeNoSignature, sigErr.Code)
	assert.False(t, result.SignatureFound)
	assert.False(t, result.Valid)
}

func TestSign_Errors(t *testing.T) {
	signer := NewXMLSigner(testKeyPair(t))

	t.Run("not xml", func(t *testing.T) {
		_, err := signer.Sign(context.Background(), []byte("plain text"))
		var sigErr *signature.SignatureError
		require.True(t, errors.As(err, &sigErr))
		assert.Equal(t, signature.ErrCodeUnsupportedFormat, sigErr.Code)
	})

	t.Run("already signed", func(t *testing.T) {
		signed, err := signer.Sign(context.Background(), invoiceXML(t))
		require.NoError(t, err)

		_, err = signer.Sign(context.Background(), signed)
		var sigErr *signature.SignatureError
		require.True(t, errors.As(err, &sigErr))
		assert.Equal(t, signature.ErrCodeSigningFailed, sigErr.Code)
	})

	t.Run("no key", func(t *testing.T) {
		_, err := NewXMLSigner(nil).Sign(context.Background(), invoiceXML(t))
		var sigErr *signature.SignatureError
		require.True(t, errors.As(err, &sigErr))
		assert.Equal(t, signature.ErrCodeKeyUnavailable, sigErr.Code)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := signer.Sign(ctx, invoiceXML(t))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSignatureExtractor_CanExtract(t *testing.T) {
	extractor := NewSignatureExtractor()

	tests := []struct {
		name     string
		data     string
		expected bool
	}{
		{"default namespace signature", `<Invoice><Signature xmlns="http://www.w3.org/2000/09/xmldsig#"/></Invoice>`, true},
		{"prefixed signature", `<Invoice><ds:Signature xmlns:ds="http://www.w3.org/2000/09/xmldsig#"/></Invoice>`, true},
		{"unsigned", `<?xml version="1.0"?><Invoice><ID>1</ID></Invoice>`, false},
		{"json", `{"type": "json"}`, false},
		{"empty", ``, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractor.CanExtract([]byte(tt.data)))
		})
	}
}

func TestExtract_ForeignSignatureIgnored(t *testing.T) {
	_, err := NewSignatureExtractor().Extract([]byte(`<Invoice><Signature>not dsig</Signature></Invoice>`))
	var sigErr *signature.SignatureError
	require.True(t, errors.As(err, &sigErr))
	assert.Equal(t, signature.ErrCodeNoSignature, sigErr.Code)
}

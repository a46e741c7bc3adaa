package invoicelib_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/ubl-invoice-engine/pkg/invoicelib"
)

const invoiceJSON = `{
  "InvoiceNumber": "INV-2001",
  "UUID": "3cf5ee18-ee25-44ea-a444-2c37ba7f28be",
  "IssueDate": "2024-01-15",
  "SellerName": "Acme Trading",
  "SellerVAT": "300000000000003",
  "BuyerName": "Globex",
  "BuyerVAT": "300000000000004",
  "Subtotal": 200
}`

func newSigningProcessor(t *testing.T) *invoicelib.Processor {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	opts := invoicelib.DefaultOptions()
	opts.PrivateKeyPEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	proc, err := invoicelib.NewProcessor(opts)
	require.NoError(t, err)
	return proc
}

func TestNewDefaultProcessor(t *testing.T) {
	proc := invoicelib.NewDefaultProcessor()
	require.NotNil(t, proc)
	assert.False(t, proc.CanSign())
}

func TestDefaultOptions(t *testing.T) {
	opts := invoicelib.DefaultOptions()

	assert.Equal(t, "UBL Invoice Engine", opts.CommonName)
	assert.Equal(t, "reporting:1.0", opts.ProfileID)
	assert.Equal(t, "0.01", opts.Tolerance)
	assert.Empty(t, opts.PrivateKeyPEM)
	assert.False(t, opts.SignBuilt)
}

func TestNewProcessor_InvalidOptions(t *testing.T) {
	opts := invoicelib.DefaultOptions()
	opts.Tolerance = "abc"
	_, err := invoicelib.NewProcessor(opts)
	var valErr *invoicelib.ValidationError
	assert.ErrorAs(t, err, &valErr)

	opts = invoicelib.DefaultOptions()
	opts.PrivateKeyPEM = []byte("not a key")
	_, err = invoicelib.NewProcessor(opts)
	var sigErr *invoicelib.SignatureError
	require.ErrorAs(t, err, &sigErr)
	assert.Equal(t, invoicelib.ErrCodeInvalidKey, sigErr.Code)
}

func TestProcessorBuild(t *testing.T) {
	proc := invoicelib.NewDefaultProcessor()

	result, err := proc.Build(context.Background(), &invoicelib.InvoiceInput{
		SellerName: "Acme Trading",
		SellerVAT:  "300000000000003",
		Items: []invoicelib.LineItemInput{
			{Description: "Widget", Quantity: "3", UnitPrice: "10", VATRate: "15"},
		},
	}, false)
	require.NoError(t, err)

	assert.Equal(t, "30.00", result.Totals.Subtotal.StringFixed(2))
	assert.Equal(t, "4.50", result.Totals.VATTotal.StringFixed(2))
	assert.Equal(t, "34.50", result.Totals.Total.StringFixed(2))
	require.Len(t, result.Lines, 1)
	assert.NotEmpty(t, result.UUID)

	payload, err := invoicelib.DecodeQR(result.QR)
	require.NoError(t, err)
	assert.Equal(t, "Acme Trading", payload.SellerName)
	assert.Equal(t, "34.50", payload.Total)
}

func TestProcessorBuildJSON(t *testing.T) {
	proc := invoicelib.NewDefaultProcessor()

	result, err := proc.BuildJSON(context.Background(), strings.NewReader(invoiceJSON), false)
	require.NoError(t, err)

	assert.Equal(t, "3cf5ee18-ee25-44ea-a444-2c37ba7f28be", result.UUID)
	assert.Equal(t, "230.00", result.Totals.Total.StringFixed(2))
	assert.True(t, result.Validation.IsValid, result.Validation.Errors)

	_, err = proc.BuildJSON(context.Background(), strings.NewReader("{"), false)
	var parseErr *invoicelib.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestProcessorBuild_SignWithoutKey(t *testing.T) {
	proc := invoicelib.NewDefaultProcessor()

	_, err := proc.BuildJSON(context.Background(), strings.NewReader(invoiceJSON), true)
	var sigErr *invoicelib.SignatureError
	require.ErrorAs(t, err, &sigErr)
	assert.Equal(t, invoicelib.ErrCodeKeyUnavailable, sigErr.Code)
}

func TestProcessorSignVerify(t *testing.T) {
	proc := newSigningProcessor(t)
	ctx := context.Background()
	require.True(t, proc.CanSign())

	built, err := proc.BuildJSON(ctx, strings.NewReader(invoiceJSON), true)
	require.NoError(t, err)
	require.NotEmpty(t, built.SignedXML)

	verification, err := proc.Verify(ctx, strings.NewReader(built.SignedXML))
	require.NoError(t, err)
	assert.True(t, verification.Valid, verification.Errors)
	assert.True(t, verification.CertTrusted)
	require.NotNil(t, verification.Signer)
	assert.Equal(t, "UBL Invoice Engine", verification.Signer.Name)

	validation, err := proc.Validate(ctx, strings.NewReader(built.SignedXML))
	require.NoError(t, err)
	assert.True(t, validation.IsValid, validation.Errors)

	signed, err := proc.Sign(ctx, strings.NewReader(built.XML))
	require.NoError(t, err)
	assert.Contains(t, string(signed), "SignatureValue")
}

func TestProcessorVerify_Unsigned(t *testing.T) {
	proc := invoicelib.NewDefaultProcessor()
	ctx := context.Background()

	built, err := proc.BuildJSON(ctx, strings.NewReader(invoiceJSON), false)
	require.NoError(t, err)

	result, err := proc.Verify(ctx, strings.NewReader(built.XML))
	require.Error(t, err)
	require.NotNil(t, result)
	assert.False(t, result.SignatureFound)
	assert.False(t, result.Valid)
}

func TestProcessorRenderPDF(t *testing.T) {
	proc := invoicelib.NewDefaultProcessor()
	ctx := context.Background()

	built, err := proc.BuildJSON(ctx, strings.NewReader(invoiceJSON), false)
	require.NoError(t, err)

	data, err := proc.RenderPDF(ctx, strings.NewReader(built.XML))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestProcessorProcess(t *testing.T) {
	proc := newSigningProcessor(t)
	ctx := context.Background()

	t.Run("json input is built", func(t *testing.T) {
		result, err := proc.Process(ctx, strings.NewReader(invoiceJSON))
		require.NoError(t, err)
		assert.Equal(t, "json", result.Format)
		require.NotNil(t, result.Build)
		assert.True(t, result.Validation.IsValid)
		assert.Nil(t, result.Verification)
	})

	t.Run("unsigned xml is validated", func(t *testing.T) {
		built, err := proc.BuildJSON(ctx, strings.NewReader(invoiceJSON), false)
		require.NoError(t, err)

		result, err := proc.Process(ctx, strings.NewReader(built.XML))
		require.NoError(t, err)
		assert.Equal(t, "xml", result.Format)
		assert.Nil(t, result.Build)
		assert.True(t, result.Validation.IsValid)
		assert.Nil(t, result.Verification)
	})

	t.Run("signed xml is verified", func(t *testing.T) {
		built, err := proc.BuildJSON(ctx, strings.NewReader(invoiceJSON), true)
		require.NoError(t, err)

		result, err := proc.Process(ctx, strings.NewReader(built.SignedXML))
		require.NoError(t, err)
		require.NotNil(t, result.Verification)
		assert.True(t, result.Verification.Valid)
	})

	t.Run("unsupported format", func(t *testing.T) {
		_, err := proc.Process(ctx, bytes.NewReader([]byte{0x00, 0x01, 0x02, 0x03}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported")
	})
}

func TestProcessorProcessBatch(t *testing.T) {
	proc := invoicelib.NewDefaultProcessor()

	inputs := []io.Reader{
		strings.NewReader(invoiceJSON),
		strings.NewReader(`{"SellerName": "Second", "Total": 115}`),
	}

	results, err := proc.ProcessBatch(context.Background(), inputs)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "230.00", results[0].Build.Totals.Total.StringFixed(2))
	assert.Equal(t, "100.00", results[1].Build.Totals.Subtotal.StringFixed(2))

	_, err = proc.ProcessBatch(context.Background(), []io.Reader{strings.NewReader("plain text")})
	assert.Error(t, err)
}

func TestQRRoundTrip(t *testing.T) {
	payload := invoicelib.QRPayload{
		SellerName: "Acme Trading",
		SellerVAT:  "300000000000003",
		IssueDate:  "2024-01-15",
		Total:      "115.00",
		VATTotal:   "15.00",
	}

	decoded, err := invoicelib.DecodeQR(invoicelib.EncodeQR(payload))
	require.NoError(t, err)
	assert.Equal(t, payload, *decoded)
}

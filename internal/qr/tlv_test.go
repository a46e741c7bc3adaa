package qr_test

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/ubl-invoice-engine/internal/qr"
)

func TestEncode_Decode(t *testing.T) {
	encoded := qr.Encode("A", "B", "2025-01-01", "115.00", "15.00")

	p, err := qr.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, "A", p.SellerName)
	assert.Equal(t, "B", p.SellerVAT)
	assert.Equal(t, "2025-01-01", p.IssueDate)
	assert.Equal(t, "115.00", p.Total)
	assert.Equal(t, "15.00", p.VATTotal)
}

func TestEncode_Layout(t *testing.T) {
	raw, err := base64.StdEncoding.DecodeString(qr.Encode("A", "B", "2025-01-01", "115.00", "15.00"))
	require.NoError(t, err)

	expected := []byte{1, 1, 'A', 2, 1, 'B', 3, 10}
	expected = append(expected, "2025-01-01"...)
	expected = append(expected, 4, 6)
	expected = append(expected, "115.00"...)
	expected = append(expected, 5, 5)
	expected = append(expected, "15.00"...)
	assert.Equal(t, expected, raw)
}

func TestEncode_UTF8Length(t *testing.T) {
	name := "شركة" // 4 runes, 8 bytes
	raw, err := base64.StdEncoding.DecodeString(qr.Encode(name, "", "", "", ""))
	require.NoError(t, err)

	assert.Equal(t, byte(1), raw[0])
	assert.Equal(t, byte(8), raw[1])
	assert.Equal(t, name, string(raw[2:10]))

	p, err := qr.Decode(qr.Encode(name, "", "", "", ""))
	require.NoError(t, err)
	assert.Equal(t, name, p.SellerName)
}

func TestEncode_EmptyFields(t *testing.T) {
	raw, err := base64.StdEncoding.DecodeString(qr.Encode("", "", "", "", ""))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 2, 0, 3, 0, 4, 0, 5, 0}, raw)
}

func TestEncodePayload(t *testing.T) {
	p := qr.Payload{SellerName: "S", SellerVAT: "300000000000003", IssueDate: "2025-02-01", Total: "1.15", VATTotal: "0.15"}
	assert.Equal(t, qr.Encode("S", "300000000000003", "2025-02-01", "1.15", "0.15"), qr.EncodePayload(p))
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not base64", "%%%"},
		{"truncated header", base64.StdEncoding.EncodeToString([]byte{1})},
		{"overrun", base64.StdEncoding.EncodeToString([]byte{1, 5, 'A'})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := qr.Decode(tt.input)
			require.Error(t, err)
		})
	}
}

func TestFitsLength(t *testing.T) {
	assert.True(t, qr.FitsLength(strings.Repeat("a", 255)))
	assert.False(t, qr.FitsLength(strings.Repeat("a", 256)))
	// 128 two-byte runes = 256 bytes
	assert.False(t, qr.FitsLength(strings.Repeat("é", 128)))
}

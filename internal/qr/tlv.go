// Package qr encodes the compliance QR payload: five tag-length-value
// records, base64 encoded.
package qr

import (
	"encoding/base64"
	"fmt"
)

// Tags in payload order
const (
	TagSellerName byte = iota + 1
	TagSellerVAT
	TagIssueDate
	TagTotal
	TagVATTotal
)

// MaxValueLength is the largest value a single length byte can describe
const MaxValueLength = 255

// Payload is the decoded QR content
type Payload struct {
	SellerName string `json:"seller_name"`
	SellerVAT  string `json:"seller_vat"`
	IssueDate  string `json:"issue_date"`
	Total      string `json:"total"`
	VATTotal   string `json:"vat_total"`
}

// Encode builds the base64 TLV payload. Values longer than MaxValueLength
// UTF-8 bytes are outside the contract; callers validate before encoding.
func Encode(sellerName, sellerVAT, issueDate, total, vatTotal string) string {
	fields := [...]string{sellerName, sellerVAT, issueDate, total, vatTotal}

	size := 0
	for _, f := range fields {
		size += 2 + len(f)
	}

	buf := make([]byte, 0, size)
	for i, f := range fields {
		buf = append(buf, TagSellerName+byte(i), byte(len(f)))
		buf = append(buf, f...)
	}
	return base64.StdEncoding.EncodeToString(buf)
}

// EncodePayload is Encode over a Payload
func EncodePayload(p Payload) string {
	return Encode(p.SellerName, p.SellerVAT, p.IssueDate, p.Total, p.VATTotal)
}

// Decode parses a base64 TLV payload. Unknown tags are skipped.
func Decode(s string) (*Payload, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}

	p := &Payload{}
	for pos := 0; pos < len(raw); {
		if pos+2 > len(raw) {
			return nil, fmt.Errorf("truncated record header at offset %d", pos)
		}
		tag, length := raw[pos], int(raw[pos+1])
		pos += 2
		if pos+length > len(raw) {
			return nil, fmt.Errorf("record with tag %d overruns payload (length %d)", tag, length)
		}
		value := string(raw[pos : pos+length])
		pos += length

		switch tag {
		case TagSellerName:
			p.SellerName = value
		case TagSellerVAT:
			p.SellerVAT = value
		case TagIssueDate:
			p.IssueDate = value
		case TagTotal:
			p.Total = value
		case TagVATTotal:
			p.VATTotal = value
		}
	}
	return p, nil
}

// FitsLength reports whether s can be carried in one TLV record
func FitsLength(s string) bool {
	return len(s) <= MaxValueLength
}

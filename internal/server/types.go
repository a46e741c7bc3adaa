package server

import (
	"bytes"
	"encoding/json"
)

// HealthResponse is the response for the health endpoint
type HealthResponse struct {
	Status  string `json:"status"`
	Time    string `json:"time"`
	Signing bool   `json:"signing"`
}

// SignResponse is the response for the sign endpoints
type SignResponse struct {
	Status    string `json:"status"`
	SignedXML string `json:"signed_xml,omitempty"`
	Message   string `json:"message,omitempty"`
}

// QRDecodeRequest is the body of the QR decode endpoint
type QRDecodeRequest struct {
	QR string `json:"qr" binding:"required"`
}

// decodeJSON decodes a single JSON value, rejecting trailing data
func decodeJSON(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errTrailingData
	}
	return nil
}

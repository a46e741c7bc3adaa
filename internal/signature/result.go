package signature

import (
	"crypto/x509"
)

// VerificationResult contains the signature verification outcome
type VerificationResult struct {
	// Overall validity - true only if all checks pass
	Valid bool `json:"valid" yaml:"valid"`

	SignatureFound bool `json:"signature_found" yaml:"signature_found"`
	SignatureValid bool `json:"signature_valid" yaml:"signature_valid"`
	CertTrusted    bool `json:"cert_trusted" yaml:"cert_trusted"`

	Signer *SignerInfo `json:"signer,omitempty" yaml:"signer,omitempty"`

	// Certificate embedded in KeyInfo (not serialized to JSON)
	Certificate *x509.Certificate `json:"-" yaml:"-"`

	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// SignerInfo contains certificate subject information
type SignerInfo struct {
	Name         string `json:"name" yaml:"name"`
	Organization string `json:"organization,omitempty" yaml:"organization,omitempty"`
	SerialNumber string `json:"serial_number" yaml:"serial_number"`
	Issuer       string `json:"issuer" yaml:"issuer"`
	SelfSigned   bool   `json:"self_signed" yaml:"self_signed"`
}

// NewVerificationResult creates a new empty result
func NewVerificationResult() *VerificationResult {
	return &VerificationResult{
		Warnings: make([]string, 0),
		Errors:   make([]string, 0),
	}
}

// AddWarning adds a warning message to the result
func (r *VerificationResult) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// AddError adds an error message and sets Valid to false
func (r *VerificationResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Valid = false
}

// SetSigner populates SignerInfo from an x509 certificate
func (r *VerificationResult) SetSigner(cert *x509.Certificate) {
	if cert == nil {
		return
	}

	signer := &SignerInfo{
		Name:         cert.Subject.CommonName,
		SerialNumber: cert.SerialNumber.String(),
		SelfSigned:   cert.Subject.String() == cert.Issuer.String(),
	}
	if len(cert.Subject.Organization) > 0 {
		signer.Organization = cert.Subject.Organization[0]
	}
	if cert.Issuer.CommonName != "" {
		signer.Issuer = cert.Issuer.CommonName
	} else if len(cert.Issuer.Organization) > 0 {
		signer.Issuer = cert.Issuer.Organization[0]
	}

	r.Signer = signer
	r.Certificate = cert
}

// ComputeValidity sets the Valid field based on individual check results
func (r *VerificationResult) ComputeValidity() {
	r.Valid = r.SignatureFound &&
		r.SignatureValid &&
		r.CertTrusted &&
		len(r.Errors) == 0
}

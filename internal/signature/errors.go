package signature

import "fmt"

// Error codes for signing and verification
const (
	ErrCodeNoSignature       = "NO_SIGNATURE"
	ErrCodeInvalidSignature  = "INVALID_SIGNATURE"
	ErrCodeKeyUnavailable    = "KEY_UNAVAILABLE"
	ErrCodeInvalidKey        = "INVALID_KEY"
	ErrCodeInvalidCert       = "INVALID_CERT"
	ErrCodeSigningFailed     = "SIGNING_FAILED"
	ErrCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
)

// SignatureError represents signing and verification errors
type SignatureError struct {
	Code    string
	Field   string
	Message string
	Cause   error
}

func (e *SignatureError) Error() string {
	if e.Field != "" && e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Code, e.Field, e.Message, e.Cause)
	}
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s (%v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *SignatureError) Unwrap() error {
	return e.Cause
}

// NewSignatureError creates a new signature error
func NewSignatureError(code, field, message string, cause error) *SignatureError {
	return &SignatureError{
		Code:    code,
		Field:   field,
		Message: message,
		Cause:   cause,
	}
}

// ErrNoSignature returns error when no signature found in document
func ErrNoSignature() *SignatureError {
	return NewSignatureError(ErrCodeNoSignature, "", "no signature found in document", nil)
}

// ErrInvalidSignature returns error when signature validation fails
func ErrInvalidSignature(cause error) *SignatureError {
	return NewSignatureError(ErrCodeInvalidSignature, "signature", "signature validation failed", cause)
}

// ErrKeyUnavailable returns error when no signing key is configured
func ErrKeyUnavailable() *SignatureError {
	return NewSignatureError(ErrCodeKeyUnavailable, "", "signing key not configured", nil)
}

// ErrInvalidKey returns error when the private key cannot be decoded
func ErrInvalidKey(cause error) *SignatureError {
	return NewSignatureError(ErrCodeInvalidKey, "key", "cannot load RSA private key", cause)
}

// ErrInvalidCert returns error when a certificate cannot be decoded
func ErrInvalidCert(cause error) *SignatureError {
	return NewSignatureError(ErrCodeInvalidCert, "certificate", "cannot load certificate", cause)
}

// ErrSigningFailed wraps a failure while producing the signature
func ErrSigningFailed(cause error) *SignatureError {
	return NewSignatureError(ErrCodeSigningFailed, "", "signing failed", cause)
}

// ErrUnsupportedFormat returns error for input that is not an XML document
func ErrUnsupportedFormat(format string) *SignatureError {
	return NewSignatureError(ErrCodeUnsupportedFormat, "", fmt.Sprintf("unsupported format: %s", format), nil)
}

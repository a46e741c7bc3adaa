package xml

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/rezonia/ubl-invoice-engine/internal/signature"
)

// SelfSignedValidity is the lifetime of a derived certificate
const SelfSignedValidity = 365 * 24 * time.Hour

// KeyPair is the signing key and the certificate published in KeyInfo
type KeyPair struct {
	Key  *rsa.PrivateKey
	Cert *x509.Certificate
}

// GetKeyPair implements dsig.X509KeyStore
func (kp *KeyPair) GetKeyPair() (*rsa.PrivateKey, []byte, error) {
	if kp == nil || kp.Key == nil || kp.Cert == nil {
		return nil, nil, signature.ErrKeyUnavailable()
	}
	return kp.Key, kp.Cert.Raw, nil
}

// ParsePrivateKeyPEM decodes a PKCS#1 or PKCS#8 RSA key. Literal "\n"
// sequences are accepted so keys can be passed through a single env line.
func ParsePrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(string(data)), `\n`, "\n")
	block, _ := pem.Decode([]byte(normalized))
	if block == nil {
		return nil, signature.ErrInvalidKey(errors.New("no PEM block found"))
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, signature.ErrInvalidKey(err)
		}
		return key, nil
	case "PRIVATE KEY":
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, signature.ErrInvalidKey(err)
		}
		key, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, signature.ErrInvalidKey(fmt.Errorf("unsupported key type %T", parsed))
		}
		return key, nil
	default:
		return nil, signature.ErrInvalidKey(fmt.Errorf("unexpected PEM block %q", block.Type))
	}
}

// ParseCertificatePEM decodes the first certificate in data
func ParseCertificatePEM(data []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, signature.ErrInvalidCert(errors.New("no CERTIFICATE block found"))
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, signature.ErrInvalidCert(err)
	}
	return cert, nil
}

// EncodeCertificatePEM renders cert as a PEM block
func EncodeCertificatePEM(cert *x509.Certificate) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
}

// SelfSignedCertificate derives a certificate for key
func SelfSignedCertificate(key *rsa.PrivateKey, commonName string) (*x509.Certificate, error) {
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		return nil, fmt.Errorf("serial number: %w", err)
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: commonName},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(SelfSignedValidity),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, signature.ErrInvalidCert(err)
	}
	return x509.ParseCertificate(der)
}

// LoadKeyPair builds a key pair from PEM data. certPEM may be empty, in
// which case a self-signed certificate is derived for commonName.
func LoadKeyPair(keyPEM, certPEM []byte, commonName string) (*KeyPair, error) {
	if len(strings.TrimSpace(string(keyPEM))) == 0 {
		return nil, signature.ErrKeyUnavailable()
	}

	key, err := ParsePrivateKeyPEM(keyPEM)
	if err != nil {
		return nil, err
	}

	var cert *x509.Certificate
	if len(certPEM) > 0 {
		cert, err = ParseCertificatePEM(certPEM)
	} else {
		cert, err = SelfSignedCertificate(key, commonName)
	}
	if err != nil {
		return nil, err
	}

	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok || !pub.Equal(&key.PublicKey) {
		return nil, signature.ErrInvalidCert(errors.New("certificate does not match private key"))
	}

	return &KeyPair{Key: key, Cert: cert}, nil
}

// LoadKeyPairFromFiles reads the key and optional certificate from disk
func LoadKeyPairFromFiles(keyFile, certFile, commonName string) (*KeyPair, error) {
	if keyFile == "" {
		return nil, signature.ErrKeyUnavailable()
	}
	keyPEM, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, signature.ErrInvalidKey(err)
	}

	var certPEM []byte
	if certFile != "" {
		if certPEM, err = os.ReadFile(certFile); err != nil {
			return nil, signature.ErrInvalidCert(err)
		}
	}
	return LoadKeyPair(keyPEM, certPEM, commonName)
}

// Package trust holds the signer certificates an invoice verifier accepts.
// Certificates are pinned: a signature is trusted when its key matches one
// of them. Chain building and revocation are not performed.
package trust

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"sync"

	"github.com/rezonia/ubl-invoice-engine/internal/signature"
)

// Store is a set of pinned signer certificates, safe for concurrent use
type Store struct {
	mu    sync.RWMutex
	certs []*x509.Certificate
	seen  map[string]struct{}
}

// StoreOption configures a Store
type StoreOption func(*Store) error

// WithCertificates pins certs
func WithCertificates(certs ...*x509.Certificate) StoreOption {
	return func(s *Store) error {
		s.AddCertificates(certs...)
		return nil
	}
}

// WithCertsFromFiles pins every certificate found in the PEM files
func WithCertsFromFiles(paths ...string) StoreOption {
	return func(s *Store) error {
		for _, path := range paths {
			if err := s.AddCertificatesFromFile(path); err != nil {
				return err
			}
		}
		return nil
	}
}

// NewStore creates a store with the given options applied in order
func NewStore(opts ...StoreOption) (*Store, error) {
	s := &Store{seen: make(map[string]struct{})}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// AddCertificate pins cert. Duplicates and nil are ignored.
func (s *Store) AddCertificate(cert *x509.Certificate) {
	if cert == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := string(cert.Raw)
	if _, ok := s.seen[key]; ok {
		return
	}
	s.seen[key] = struct{}{}
	s.certs = append(s.certs, cert)
}

// AddCertificates pins multiple certificates
func (s *Store) AddCertificates(certs ...*x509.Certificate) {
	for _, cert := range certs {
		s.AddCertificate(cert)
	}
}

// AddCertificatesFromPEM parses and pins every CERTIFICATE block in pemData
func (s *Store) AddCertificatesFromPEM(pemData []byte) error {
	var added int
	for {
		block, rest := pem.Decode(pemData)
		if block == nil {
			break
		}
		if block.Type == "CERTIFICATE" {
			cert, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return signature.ErrInvalidCert(fmt.Errorf("failed to parse certificate: %w", err))
			}
			s.AddCertificate(cert)
			added++
		}
		pemData = rest
	}
	if added == 0 {
		return signature.ErrInvalidCert(fmt.Errorf("no certificates found in PEM data"))
	}
	return nil
}

// AddCertificatesFromFile reads path and pins its certificates
func (s *Store) AddCertificatesFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return signature.ErrInvalidCert(err)
	}
	if err := s.AddCertificatesFromPEM(data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Certificates returns a copy of the pinned certificates
func (s *Store) Certificates() []*x509.Certificate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*x509.Certificate, len(s.certs))
	copy(out, s.certs)
	return out
}

// Len returns the number of pinned certificates
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.certs)
}

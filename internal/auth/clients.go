// Package auth holds the API client table and the feature checks applied to
// each request.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Features a client can be granted
const (
	FeatureSignInvoice     = "sign_invoice"
	FeatureValidateInvoice = "validate_invoice"
	FeatureGeneratePDF     = "generate_pdf"
	FeatureBuildInvoice    = "build_invoice"
	FeatureAudit           = "audit"
)

// StatusActive is the only status allowed to call the API
const StatusActive = "active"

var (
	// ErrInvalidKey is returned for a missing or unknown API key
	ErrInvalidKey = errors.New("Invalid or missing API Key")
	// ErrClientDisabled is returned for a known client that is not active
	ErrClientDisabled = errors.New("Client disabled")
)

// FeatureError reports a feature outside the client's plan
type FeatureError struct {
	Feature string
}

func (e *FeatureError) Error() string {
	return fmt.Sprintf("Feature '%s' not allowed for this client", e.Feature)
}

// Client is one API consumer
type Client struct {
	APIKey          string   `mapstructure:"api_key" json:"-" yaml:"api_key"`
	ClientID        string   `mapstructure:"client_id" json:"client_id" yaml:"client_id"`
	Name            string   `mapstructure:"name" json:"name" yaml:"name"`
	Plan            string   `mapstructure:"plan" json:"plan" yaml:"plan"`
	Status          string   `mapstructure:"status" json:"status" yaml:"status"`
	Features        []string `mapstructure:"features" json:"features" yaml:"features"`
	RateLimitPerMin int      `mapstructure:"rate_limit_per_min" json:"rate_limit_per_min" yaml:"rate_limit_per_min"`
}

// Active reports whether the client may call the API
func (c *Client) Active() bool {
	return c.Status == StatusActive
}

// Allows reports whether feature is part of the client's plan
func (c *Client) Allows(feature string) bool {
	for _, f := range c.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// Table maps API keys to clients. It is read-only after construction.
type Table struct {
	clients map[string]*Client
}

// NewTable builds a table. Keys must be non-empty and unique.
func NewTable(clients ...Client) (*Table, error) {
	t := &Table{clients: make(map[string]*Client, len(clients))}
	for i := range clients {
		c := clients[i]
		key := strings.TrimSpace(c.APIKey)
		if key == "" {
			return nil, fmt.Errorf("client %q: empty api_key", c.ClientID)
		}
		if _, dup := t.clients[key]; dup {
			return nil, fmt.Errorf("client %q: duplicate api_key", c.ClientID)
		}
		c.APIKey = key
		t.clients[key] = &c
	}
	return t, nil
}

// Len returns the number of clients
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.clients)
}

// Lookup resolves an API key to an active client
func (t *Table) Lookup(apiKey string) (*Client, error) {
	if t == nil || apiKey == "" {
		return nil, ErrInvalidKey
	}
	c, ok := t.clients[apiKey]
	if !ok {
		return nil, ErrInvalidKey
	}
	if !c.Active() {
		return nil, ErrClientDisabled
	}
	return c, nil
}

// Authorize resolves apiKey and checks that feature is allowed
func (t *Table) Authorize(apiKey, feature string) (*Client, error) {
	c, err := t.Lookup(apiKey)
	if err != nil {
		return nil, err
	}
	if feature != "" && !c.Allows(feature) {
		return c, &FeatureError{Feature: feature}
	}
	return c, nil
}

// LoadClients reads a client table from a YAML, JSON or TOML file with a
// top-level "clients" list
func LoadClients(path string) (*Table, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read client table: %w", err)
	}

	var clients []Client
	if err := v.UnmarshalKey("clients", &clients); err != nil {
		return nil, fmt.Errorf("decode client table: %w", err)
	}
	return NewTable(clients...)
}

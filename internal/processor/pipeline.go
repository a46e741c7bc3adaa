// Package processor wires the invoice engine together: reconcile and
// assemble a document, validate it, and optionally sign or render it.
package processor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rezonia/ubl-invoice-engine/internal/assembler"
	"github.com/rezonia/ubl-invoice-engine/internal/compliance"
	"github.com/rezonia/ubl-invoice-engine/internal/model"
	"github.com/rezonia/ubl-invoice-engine/internal/pdf"
	"github.com/rezonia/ubl-invoice-engine/internal/qr"
	"github.com/rezonia/ubl-invoice-engine/internal/signature"
)

// Result holds everything produced for one invoice
type Result struct {
	XML        string                   `json:"xml" yaml:"xml"`
	UUID       string                   `json:"uuid" yaml:"uuid"`
	QR         string                   `json:"qr" yaml:"qr"`
	Totals     model.ReconciledTotals   `json:"totals" yaml:"totals"`
	Lines      []model.LineItemComputed `json:"lines" yaml:"lines"`
	Validation *model.ValidationResult  `json:"validation" yaml:"validation"`
	SignedXML  string                   `json:"signed_xml,omitempty" yaml:"signed_xml,omitempty"`
	Error      error                    `json:"-" yaml:"-"`
}

// Pipeline orchestrates assembly, validation, signing and rendering
type Pipeline struct {
	assembler *assembler.Assembler
	validator *compliance.Validator
	signer    signature.Signer
	renderer  *pdf.Renderer
}

// Option configures the pipeline
type Option func(*Pipeline)

// WithAssembler replaces the default assembler
func WithAssembler(a *assembler.Assembler) Option {
	return func(p *Pipeline) {
		p.assembler = a
	}
}

// WithValidator replaces the default validator
func WithValidator(v *compliance.Validator) Option {
	return func(p *Pipeline) {
		p.validator = v
	}
}

// WithSigner enables signing
func WithSigner(s signature.Signer) Option {
	return func(p *Pipeline) {
		p.signer = s
	}
}

// WithRenderer replaces the default PDF renderer
func WithRenderer(r *pdf.Renderer) Option {
	return func(p *Pipeline) {
		p.renderer = r
	}
}

// NewPipeline creates a new pipeline
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		assembler: assembler.New(),
		validator: compliance.New(),
		renderer:  pdf.NewRenderer(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CanSign reports whether a signer is configured
func (p *Pipeline) CanSign() bool {
	return p.signer != nil
}

// Build assembles and validates in, signing the document when sign is set
func (p *Pipeline) Build(ctx context.Context, in *model.InvoiceInput, sign bool) *Result {
	result := &Result{}

	if err := ctx.Err(); err != nil {
		result.Error = err
		return result
	}

	if err := checkQRFields(in); err != nil {
		result.Error = err
		return result
	}

	assembled, err := p.assembler.Assemble(in)
	if err != nil {
		result.Error = err
		return result
	}
	result.XML = assembled.XML
	result.UUID = assembled.UUID
	result.QR = assembled.QR
	result.Totals = assembled.Totals
	result.Lines = assembled.Lines
	result.Validation = p.validator.Validate([]byte(assembled.XML))

	if sign {
		signed, err := p.Sign(ctx, []byte(assembled.XML))
		if err != nil {
			result.Error = err
			return result
		}
		result.SignedXML = string(signed)
	}

	return result
}

// checkQRFields rejects input whose QR text fields do not fit a one-byte
// TLV length. Amount fields are bounded by the decimal parser.
func checkQRFields(in *model.InvoiceInput) error {
	if in == nil {
		return nil
	}
	fields := []struct{ name, value string }{
		{"SellerName", in.SellerName},
		{"SellerVAT", in.SellerVAT},
		{"IssueDate", in.IssueDate},
	}
	for _, f := range fields {
		if !qr.FitsLength(f.value) {
			return model.NewValidationError(f.name, len(f.value), "tlv",
				fmt.Sprintf("must be at most %d bytes for the QR payload", qr.MaxValueLength))
		}
	}
	return nil
}

// BuildJSON decodes an InvoiceInput from JSON and builds it
func (p *Pipeline) BuildJSON(ctx context.Context, data []byte, sign bool) *Result {
	var in model.InvoiceInput
	if err := json.Unmarshal(data, &in); err != nil {
		return &Result{Error: model.NewParseError("input", "invalid invoice JSON", err)}
	}
	return p.Build(ctx, &in, sign)
}

// Validate checks an existing document
func (p *Pipeline) Validate(ctx context.Context, data []byte) *model.ValidationResult {
	return p.validator.Validate(data)
}

// Sign signs an existing document
func (p *Pipeline) Sign(ctx context.Context, data []byte) ([]byte, error) {
	if p.signer == nil {
		return nil, signature.ErrKeyUnavailable()
	}
	signed, err := p.signer.Sign(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("sign invoice: %w", err)
	}
	return signed, nil
}

// RenderPDF renders the summary of an existing document
func (p *Pipeline) RenderPDF(ctx context.Context, data []byte) ([]byte, error) {
	return p.renderer.Render(ctx, data)
}

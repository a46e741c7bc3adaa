package invoicelib

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/rezonia/ubl-invoice-engine/internal/assembler"
	"github.com/rezonia/ubl-invoice-engine/internal/compliance"
	money "github.com/rezonia/ubl-invoice-engine/internal/decimal"
	"github.com/rezonia/ubl-invoice-engine/internal/model"
	"github.com/rezonia/ubl-invoice-engine/internal/processor"
	sigxml "github.com/rezonia/ubl-invoice-engine/internal/signature/xml"
)

// Processor implements Builder, Checker and Pipeline using the internal
// processor
type Processor struct {
	pipeline *processor.Pipeline
	verifier *sigxml.XMLVerifier
	options  Options
}

var (
	_ Builder  = (*Processor)(nil)
	_ Checker  = (*Processor)(nil)
	_ Pipeline = (*Processor)(nil)
)

// NewProcessor creates a new invoice processor with the given options
func NewProcessor(opts Options) (*Processor, error) {
	var pipelineOpts []processor.Option

	if opts.ProfileID != "" {
		pipelineOpts = append(pipelineOpts, processor.WithAssembler(assembler.New(assembler.WithProfileID(opts.ProfileID))))
	}
	if opts.Tolerance != "" {
		tol, err := money.FromString(opts.Tolerance)
		if err != nil {
			return nil, model.NewValidationError("Tolerance", opts.Tolerance, "decimal", "invalid tolerance")
		}
		pipelineOpts = append(pipelineOpts, processor.WithValidator(compliance.New(compliance.WithTolerance(tol))))
	}

	roots := opts.TrustedCertificates
	if len(opts.PrivateKeyPEM) > 0 {
		keys, err := sigxml.LoadKeyPair(opts.PrivateKeyPEM, opts.CertificatePEM, opts.CommonName)
		if err != nil {
			return nil, err
		}
		pipelineOpts = append(pipelineOpts, processor.WithSigner(sigxml.NewXMLSigner(keys)))
		roots = append(append(roots[:0:0], roots...), keys.Cert)
	}

	return &Processor{
		pipeline: processor.NewPipeline(pipelineOpts...),
		verifier: sigxml.NewXMLVerifier(roots...),
		options:  opts,
	}, nil
}

// NewDefaultProcessor creates a processor with default options and no
// signing key
func NewDefaultProcessor() *Processor {
	proc, err := NewProcessor(DefaultOptions())
	if err != nil {
		panic(err)
	}
	return proc
}

// CanSign reports whether a signing key is configured
func (p *Processor) CanSign() bool {
	return p.pipeline.CanSign()
}

// Build reconciles and assembles in
func (p *Processor) Build(ctx context.Context, in *InvoiceInput, sign bool) (*BuildResult, error) {
	result := p.pipeline.Build(ctx, in, sign)
	if result.Error != nil {
		return nil, result.Error
	}
	return result, nil
}

// BuildJSON decodes JSON input and builds it
func (p *Processor) BuildJSON(ctx context.Context, r io.Reader, sign bool) (*BuildResult, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}
	result := p.pipeline.BuildJSON(ctx, data, sign)
	if result.Error != nil {
		return nil, result.Error
	}
	return result, nil
}

// Validate runs the compliance checks on a document
func (p *Processor) Validate(ctx context.Context, r io.Reader) (*ValidationResult, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}
	return p.pipeline.Validate(ctx, data), nil
}

// Sign adds an enveloped signature to a document
func (p *Processor) Sign(ctx context.Context, r io.Reader) ([]byte, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}
	return p.pipeline.Sign(ctx, data)
}

// Verify checks the signature of a document
func (p *Processor) Verify(ctx context.Context, r io.Reader) (*VerificationResult, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}
	return p.verifier.Verify(ctx, data)
}

// RenderPDF renders a summary PDF of a document
func (p *Processor) RenderPDF(ctx context.Context, r io.Reader) ([]byte, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}
	return p.pipeline.RenderPDF(ctx, data)
}

// Process builds JSON input and checks XML documents
func (p *Processor) Process(ctx context.Context, r io.Reader) (*ProcessResult, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}

	format := processor.DetectFormat(data)
	out := &ProcessResult{Format: format.String()}

	switch format {
	case processor.FormatJSON:
		result := p.pipeline.BuildJSON(ctx, data, p.options.SignBuilt)
		if result.Error != nil {
			return nil, result.Error
		}
		out.Build = result
		out.Validation = result.Validation
	case processor.FormatXML:
		out.Validation = p.pipeline.Validate(ctx, data)
		if sigxml.NewSignatureExtractor().CanExtract(data) {
			// a cac:Signature element without ds:Signature leaves Verification nil
			if verification, err := p.verifier.Verify(ctx, data); err == nil {
				out.Verification = verification
			}
		}
	default:
		return nil, model.NewParseError("input", fmt.Sprintf("unsupported file format: %s", format), nil)
	}

	return out, nil
}

// ProcessBatch processes multiple inputs concurrently
func (p *Processor) ProcessBatch(ctx context.Context, inputs []io.Reader) ([]*ProcessResult, error) {
	results := make([]*ProcessResult, len(inputs))
	errCh := make(chan error, len(inputs))

	for i, input := range inputs {
		go func(idx int, r io.Reader) {
			result, err := p.Process(ctx, r)
			if err != nil {
				errCh <- err
				return
			}
			results[idx] = result
			errCh <- nil
		}(i, input)
	}

	// Wait for all goroutines
	var firstErr error
	for range inputs {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return results, firstErr
}

func readAll(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, model.NewParseError("input", "failed to read input", err)
	}
	return buf.Bytes(), nil
}

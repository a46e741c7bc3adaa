package pdf

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Renderer turns invoice documents into PDF summaries
type Renderer struct {
	pageSize string
	check    bool
}

// Option configures a Renderer
type Option func(*Renderer)

// WithPageSize sets the gofpdf page size name (A4, Letter, ...)
func WithPageSize(size string) Option {
	return func(r *Renderer) {
		r.pageSize = size
	}
}

// WithoutCheck skips structural validation of the rendered file
func WithoutCheck() Option {
	return func(r *Renderer) {
		r.check = false
	}
}

// NewRenderer creates a renderer
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{pageSize: "A4", check: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render produces the PDF summary for an XML invoice document
func (r *Renderer) Render(ctx context.Context, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fields, err := ExtractFields(data)
	if err != nil {
		return nil, fmt.Errorf("PDF generation failed: %w", err)
	}

	out, err := r.RenderFields(fields)
	if err != nil {
		return nil, fmt.Errorf("PDF generation failed: %w", err)
	}
	return out, nil
}

// RenderFields draws the summary page for f
func (r *Renderer) RenderFields(f *Fields) ([]byte, error) {
	doc := gofpdf.New("P", "mm", r.pageSize, "")
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.SetTitle("Invoice Summary "+f.InvoiceID, true)
	doc.AddPage()

	doc.SetFont("Arial", "B", 14)
	doc.CellFormat(0, 10, "Invoice Summary", "", 1, "C", false, 0, "")
	doc.Ln(5)

	doc.SetFont("Arial", "", 12)
	for _, row := range [][2]string{
		{"Invoice ID", f.InvoiceID},
		{"Issue Date", f.IssueDate},
		{"Seller", f.SellerName},
		{"Buyer", f.BuyerName},
	} {
		doc.CellFormat(0, 8, tr(row[0]+": "+row[1]), "", 1, "L", false, 0, "")
	}

	if len(f.Lines) > 0 {
		doc.Ln(4)
		doc.SetFont("Arial", "B", 10)
		widths := []float64{90, 25, 35, 40}
		for i, h := range []string{"Description", "Qty", "Unit Price", "Amount"} {
			doc.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
		}
		doc.Ln(-1)

		doc.SetFont("Arial", "", 10)
		for _, l := range f.Lines {
			doc.CellFormat(widths[0], 7, tr(l.Description), "1", 0, "L", false, 0, "")
			doc.CellFormat(widths[1], 7, l.Quantity, "1", 0, "R", false, 0, "")
			doc.CellFormat(widths[2], 7, l.UnitPrice, "1", 0, "R", false, 0, "")
			doc.CellFormat(widths[3], 7, l.Amount, "1", 0, "R", false, 0, "")
			doc.Ln(-1)
		}
	}

	doc.Ln(4)
	doc.SetFont("Arial", "", 12)
	doc.CellFormat(0, 8, "Subtotal: "+f.money(f.Subtotal), "", 1, "L", false, 0, "")
	doc.CellFormat(0, 8, "VAT: "+f.money(f.VATTotal), "", 1, "L", false, 0, "")
	doc.SetFont("Arial", "B", 12)
	doc.CellFormat(0, 8, "Total Amount: "+f.money(f.Payable), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}

	if r.check {
		if _, err := Check(buf.Bytes()); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

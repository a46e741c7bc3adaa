// Package assembler renders reconciled invoice data as a UBL 2.1 document.
package assembler

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	money "github.com/rezonia/ubl-invoice-engine/internal/decimal"
	"github.com/rezonia/ubl-invoice-engine/internal/model"
	"github.com/rezonia/ubl-invoice-engine/internal/qr"
	"github.com/rezonia/ubl-invoice-engine/internal/reconcile"
	"github.com/rezonia/ubl-invoice-engine/internal/ubl"
)

const (
	// ProfileID is the business process profile stamped on every document
	ProfileID = "reporting:1.0"

	// TaxSchemeID identifies the tax scheme of every tax category
	TaxSchemeID = "VAT"

	// QRReferenceID is the document reference carrying the QR payload
	QRReferenceID = "QR"
)

// IDGenerator returns a fresh document UUID. Implementations must be safe
// for concurrent use.
type IDGenerator func() string

// Result is an assembled document with the amounts it was built from
type Result struct {
	XML    string                   `json:"xml"`
	UUID   string                   `json:"uuid"`
	QR     string                   `json:"qr"`
	Totals model.ReconciledTotals   `json:"totals"`
	Lines  []model.LineItemComputed `json:"lines"`
}

// Assembler builds invoice documents. It holds configuration only and is
// safe for concurrent use.
type Assembler struct {
	newID     IDGenerator
	profileID string
	writeOpts ubl.WriteOptions
}

// Option configures an Assembler
type Option func(*Assembler)

// WithIDGenerator replaces the UUID source used when the input has none
func WithIDGenerator(g IDGenerator) Option {
	return func(a *Assembler) {
		if g != nil {
			a.newID = g
		}
	}
}

// WithProfileID overrides the ProfileID constant
func WithProfileID(id string) Option {
	return func(a *Assembler) {
		a.profileID = id
	}
}

// WithIndent sets serializer indentation; negative disables it
func WithIndent(spaces int) Option {
	return func(a *Assembler) {
		a.writeOpts.Indent = spaces
	}
}

// New creates an assembler
func New(opts ...Option) *Assembler {
	a := &Assembler{
		newID:     func() string { return uuid.NewString() },
		profileID: ProfileID,
		writeOpts: ubl.DefaultWriteOptions(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var defaultAssembler = New()

// Assemble builds a document with the default assembler
func Assemble(in *model.InvoiceInput) (*Result, error) {
	return defaultAssembler.Assemble(in)
}

// Assemble reconciles the input and renders the XML document. Missing
// fields render as empty nodes; the only error source is the serializer.
func (a *Assembler) Assemble(in *model.InvoiceInput) (*Result, error) {
	root, res := a.Document(in)

	xml, err := ubl.Serialize(root, a.writeOpts)
	if err != nil {
		return nil, model.NewAssemblyError("serialize", "failed to write invoice document", err)
	}
	res.XML = xml
	return res, nil
}

// Document returns the node tree for in without serializing it
func (a *Assembler) Document(in *model.InvoiceInput) (*ubl.Node, *Result) {
	if in == nil {
		in = &model.InvoiceInput{}
	}

	totals, lines := reconcile.Compute(in)

	currency := strings.TrimSpace(in.Currency)
	if currency == "" {
		currency = model.DefaultCurrency
	}

	docID := in.UUID
	if strings.TrimSpace(docID) == "" {
		docID = a.newID()
	}

	qrPayload := qr.Encode(
		in.SellerName,
		in.SellerVAT,
		in.IssueDate,
		money.Format(totals.Total),
		money.Format(totals.VATTotal),
	)

	root := ubl.Invoice(
		ubl.CBC("ProfileID", a.profileID),
		ubl.CBC("ID", in.InvoiceNumber),
		ubl.CBC("UUID", docID),
		ubl.CBC("IssueDate", in.IssueDate),
		ubl.CBC("DocumentCurrencyCode", currency),
		qrReference(qrPayload),
		party("AccountingSupplierParty", in.SellerName, in.SellerVAT),
		party("AccountingCustomerParty", in.Buyer(), in.BuyerVAT),
	)

	for _, l := range lines {
		root.Add(invoiceLine(l, currency))
	}

	root.Add(
		ubl.CAC("TaxTotal",
			amount("TaxAmount", totals.VATTotal, currency),
		),
		ubl.CAC("LegalMonetaryTotal",
			amount("LineExtensionAmount", totals.Subtotal, currency),
			amount("TaxExclusiveAmount", totals.Subtotal, currency),
			amount("TaxInclusiveAmount", totals.Total, currency),
			amount("PayableAmount", totals.Total, currency),
		),
	)

	return root, &Result{
		UUID:   docID,
		QR:     qrPayload,
		Totals: totals,
		Lines:  lines,
	}
}

func party(role, name, vat string) *ubl.Node {
	return ubl.CAC(role,
		ubl.CAC("Party",
			ubl.CBC("Name", name),
			ubl.CAC("PartyTaxScheme",
				ubl.CBC("CompanyID", vat),
				ubl.CAC("TaxScheme", ubl.CBC("ID", TaxSchemeID)),
			),
		),
	)
}

func qrReference(payload string) *ubl.Node {
	return ubl.CAC("AdditionalDocumentReference",
		ubl.CBC("ID", QRReferenceID),
		ubl.CAC("Attachment",
			ubl.CBC("EmbeddedDocumentBinaryObject", payload, ubl.Attr{Name: "mimeCode", Value: "text/plain"}),
		),
	)
}

func invoiceLine(l model.LineItemComputed, currency string) *ubl.Node {
	category := "S"
	if l.VATRatePercent.IsZero() {
		category = "Z"
	}

	return ubl.CAC("InvoiceLine",
		ubl.CBC("ID", strconv.Itoa(l.Index)),
		ubl.CBC("InvoicedQuantity", money.Format(l.Quantity)),
		amount("LineExtensionAmount", l.LineSubtotal, currency),
		ubl.CAC("Item", ubl.CBC("Name", l.Description)),
		ubl.CAC("Price", amount("PriceAmount", l.UnitPrice, currency)),
		ubl.CAC("TaxTotal",
			amount("TaxAmount", l.LineVAT, currency),
			ubl.CAC("TaxSubtotal",
				amount("TaxableAmount", l.LineSubtotal, currency),
				amount("TaxAmount", l.LineVAT, currency),
				ubl.CAC("TaxCategory",
					ubl.CBC("ID", category),
					ubl.CBC("Percent", money.Format(l.VATRatePercent)),
					ubl.CAC("TaxScheme", ubl.CBC("ID", TaxSchemeID)),
				),
			),
		),
	)
}

func amount(local string, v decimal.Decimal, currency string) *ubl.Node {
	return ubl.CBC(local, money.Format(v), ubl.Attr{Name: "currencyID", Value: currency})
}

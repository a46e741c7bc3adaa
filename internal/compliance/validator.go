// Package compliance checks a UBL invoice document for required fields and
// for agreement between header totals and the invoice lines.
package compliance

import (
	"fmt"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	money "github.com/rezonia/ubl-invoice-engine/internal/decimal"
	"github.com/rezonia/ubl-invoice-engine/internal/model"
	"github.com/rezonia/ubl-invoice-engine/internal/qr"
	"github.com/rezonia/ubl-invoice-engine/internal/ubl"
)

// DefaultTolerance is the absolute difference allowed between compared totals
var DefaultTolerance = money.MustFromString("0.01")

var (
	supplierParty = []ubl.QName{ubl.CACName("AccountingSupplierParty"), ubl.CACName("Party")}
	customerParty = []ubl.QName{ubl.CACName("AccountingCustomerParty"), ubl.CACName("Party")}
	partyName     = ubl.CBCName("Name")
	partyTaxID    = []ubl.QName{ubl.CACName("PartyTaxScheme"), ubl.CBCName("CompanyID")}

	qrObject = ubl.CBCName("EmbeddedDocumentBinaryObject")
)

type requiredField struct {
	label string
	path  []ubl.QName
}

var requiredFields = []requiredField{
	{"ProfileID", []ubl.QName{ubl.CBCName("ProfileID")}},
	{"Invoice ID (cbc:ID)", []ubl.QName{ubl.CBCName("ID")}},
	{"UUID (cbc:UUID)", []ubl.QName{ubl.CBCName("UUID")}},
	{"IssueDate", []ubl.QName{ubl.CBCName("IssueDate")}},
	{"DocumentCurrencyCode", []ubl.QName{ubl.CBCName("DocumentCurrencyCode")}},
	{"seller name", append(append([]ubl.QName{}, supplierParty...), partyName)},
	{"seller VAT (CompanyID)", append(append([]ubl.QName{}, supplierParty...), partyTaxID...)},
	{"buyer name", append(append([]ubl.QName{}, customerParty...), partyName)},
	{"buyer VAT (CompanyID)", append(append([]ubl.QName{}, customerParty...), partyTaxID...)},
}

// Validator runs compliance checks. It holds configuration only and is safe
// for concurrent use.
type Validator struct {
	tolerance decimal.Decimal
}

// Option configures a Validator
type Option func(*Validator)

// WithTolerance overrides the totals comparison tolerance
func WithTolerance(tol decimal.Decimal) Option {
	return func(v *Validator) {
		v.tolerance = tol.Abs()
	}
}

// New creates a validator
func New(opts ...Option) *Validator {
	v := &Validator{tolerance: DefaultTolerance}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

var defaultValidator = New()

// Validate checks data with the default validator
func Validate(data []byte) *model.ValidationResult {
	return defaultValidator.Validate(data)
}

// ValidateString checks an XML string with the default validator
func ValidateString(s string) *model.ValidationResult {
	return defaultValidator.Validate([]byte(s))
}

// Validate parses data and reports every problem found. It never fails:
// unparseable input yields an invalid result with a single error.
func (v *Validator) Validate(data []byte) *model.ValidationResult {
	result := model.NewValidationResult()

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		result.AddError(fmt.Sprintf("XML parse error: %v", err))
		return result
	}
	root := doc.Root()
	if root == nil {
		result.AddError("XML parse error: no root element")
		return result
	}

	v.checkRequired(root, result)
	header := readHeaderTotals(root)
	v.checkLines(root, header, result)
	checkQR(root, header, result)

	result.ComputeValidity()
	return result
}

func (v *Validator) checkRequired(root *etree.Element, result *model.ValidationResult) {
	for _, f := range requiredFields {
		if ubl.Text(ubl.FindPath(root, f.path...)) == "" {
			result.AddError(fmt.Sprintf("Missing %s.", f.label))
		}
	}
}

type headerTotals struct {
	taxAmount           decimal.Decimal
	lineExtensionAmount decimal.Decimal
	taxInclusiveAmount  decimal.Decimal
}

func readHeaderTotals(root *etree.Element) headerTotals {
	monetary := ubl.FindChild(root, ubl.CACName("LegalMonetaryTotal"))

	var taxAmount *etree.Element
	for _, tt := range ubl.FindChildren(root, ubl.CACName("TaxTotal")) {
		if taxAmount = ubl.FindChild(tt, ubl.CBCName("TaxAmount")); taxAmount != nil {
			break
		}
	}

	return headerTotals{
		taxAmount:           parseAmount(taxAmount),
		lineExtensionAmount: parseAmount(ubl.FindChild(monetary, ubl.CBCName("LineExtensionAmount"))),
		taxInclusiveAmount:  parseAmount(ubl.FindChild(monetary, ubl.CBCName("TaxInclusiveAmount"))),
	}
}

func (v *Validator) checkLines(root *etree.Element, header headerTotals, result *model.ValidationResult) {
	lines := ubl.FindChildren(root, ubl.CACName("InvoiceLine"))
	if len(lines) == 0 {
		return
	}

	sumSubtotal, sumVAT := money.Zero, money.Zero
	for _, line := range lines {
		sumSubtotal = sumSubtotal.Add(parseAmount(ubl.FindChild(line, ubl.CBCName("LineExtensionAmount"))))
		sumVAT = sumVAT.Add(lineVAT(line))
	}

	if !money.WithinTolerance(sumSubtotal, header.lineExtensionAmount, v.tolerance) {
		result.AddError(fmt.Sprintf("LineExtensionAmount total (%s) does not match sum of lines (%s).",
			money.Format(header.lineExtensionAmount), money.Format(sumSubtotal)))
	}

	if !money.WithinTolerance(sumVAT, header.taxAmount, v.tolerance) {
		result.AddError(fmt.Sprintf("TaxTotal (%s) does not match sum of line VAT (%s).",
			money.Format(header.taxAmount), money.Format(sumVAT)))
	}

	expected := money.Round(sumSubtotal.Add(sumVAT))
	if !money.WithinTolerance(expected, header.taxInclusiveAmount, v.tolerance) {
		result.AddError(fmt.Sprintf("TaxInclusiveAmount (%s) does not equal subtotal+VAT (%s).",
			money.Format(header.taxInclusiveAmount), money.Format(expected)))
	}
}

// lineVAT sums the TaxSubtotal amounts of a line, falling back to the
// line TaxTotal amount when no subtotal is present
func lineVAT(line *etree.Element) decimal.Decimal {
	taxTotal := ubl.FindChild(line, ubl.CACName("TaxTotal"))
	subtotals := ubl.FindChildren(taxTotal, ubl.CACName("TaxSubtotal"))
	if len(subtotals) == 0 {
		return parseAmount(ubl.FindChild(taxTotal, ubl.CBCName("TaxAmount")))
	}

	amounts := make([]decimal.Decimal, len(subtotals))
	for i, st := range subtotals {
		amounts[i] = parseAmount(ubl.FindChild(st, ubl.CBCName("TaxAmount")))
	}
	return money.Sum(amounts)
}

func checkQR(root *etree.Element, header headerTotals, result *model.ValidationResult) {
	payload := ubl.Text(findQRObject(root))
	if payload == "" {
		result.AddWarning("QR (EmbeddedDocumentBinaryObject) is missing or empty.")
		return
	}

	decoded, err := qr.Decode(payload)
	if err != nil {
		result.AddWarning(fmt.Sprintf("QR payload could not be decoded: %v.", err))
		return
	}

	if total, err := money.FromString(decoded.Total); err != nil || !total.Equal(header.taxInclusiveAmount) {
		result.AddWarning(fmt.Sprintf("QR total (%s) does not match TaxInclusiveAmount (%s).",
			decoded.Total, money.Format(header.taxInclusiveAmount)))
	}
	if vat, err := money.FromString(decoded.VATTotal); err != nil || !vat.Equal(header.taxAmount) {
		result.AddWarning(fmt.Sprintf("QR VAT total (%s) does not match TaxTotal (%s).",
			decoded.VATTotal, money.Format(header.taxAmount)))
	}
}

// findQRObject prefers the document reference whose ID is QR
func findQRObject(root *etree.Element) *etree.Element {
	for _, ref := range ubl.FindChildren(root, ubl.CACName("AdditionalDocumentReference")) {
		if ubl.Text(ubl.FindChild(ref, ubl.CBCName("ID"))) == "QR" {
			if obj := ubl.FindPath(ref, ubl.CACName("Attachment"), qrObject); obj != nil {
				return obj
			}
		}
	}
	return ubl.FindDescendant(root, qrObject)
}

func parseAmount(el *etree.Element) decimal.Decimal {
	return money.ParseOr(ubl.Text(el), money.Zero)
}

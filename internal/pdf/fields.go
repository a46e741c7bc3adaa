// Package pdf renders a one-page human readable summary of an invoice
// document.
package pdf

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/rezonia/ubl-invoice-engine/internal/model"
	"github.com/rezonia/ubl-invoice-engine/internal/ubl"
)

// Placeholders for absent values
const (
	NotAvailable = "N/A"
	ZeroAmount   = "0.00"
)

// Fields are the values printed on the summary
type Fields struct {
	InvoiceID  string
	IssueDate  string
	SellerName string
	BuyerName  string
	Currency   string
	Subtotal   string
	VATTotal   string
	Payable    string
	Lines      []LineField
}

// LineField is one printed invoice line
type LineField struct {
	Description string
	Quantity    string
	UnitPrice   string
	Amount      string
}

// ExtractFields reads summary values from an invoice document. Missing
// values fall back to NotAvailable or ZeroAmount.
func ExtractFields(data []byte) (*Fields, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, model.NewParseError("document", "invalid XML", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, model.NewParseError("document", "no root element", nil)
	}

	monetary := ubl.FindChild(root, ubl.CACName("LegalMonetaryTotal"))
	f := &Fields{
		InvoiceID:  or(ubl.Text(ubl.FindChild(root, ubl.CBCName("ID"))), NotAvailable),
		IssueDate:  or(ubl.Text(ubl.FindChild(root, ubl.CBCName("IssueDate"))), NotAvailable),
		SellerName: or(partyName(root, "AccountingSupplierParty"), NotAvailable),
		BuyerName:  or(partyName(root, "AccountingCustomerParty"), NotAvailable),
		Currency:   or(ubl.Text(ubl.FindChild(root, ubl.CBCName("DocumentCurrencyCode"))), model.DefaultCurrency),
		Subtotal:   or(ubl.Text(ubl.FindChild(monetary, ubl.CBCName("TaxExclusiveAmount"))), ZeroAmount),
		VATTotal:   or(ubl.Text(ubl.FindPath(root, ubl.CACName("TaxTotal"), ubl.CBCName("TaxAmount"))), ZeroAmount),
		Payable:    or(ubl.Text(ubl.FindChild(monetary, ubl.CBCName("PayableAmount"))), ZeroAmount),
	}

	for _, line := range ubl.FindChildren(root, ubl.CACName("InvoiceLine")) {
		f.Lines = append(f.Lines, LineField{
			Description: or(ubl.Text(ubl.FindPath(line, ubl.CACName("Item"), ubl.CBCName("Name"))), NotAvailable),
			Quantity:    or(ubl.Text(ubl.FindChild(line, ubl.CBCName("InvoicedQuantity"))), "0"),
			UnitPrice:   or(ubl.Text(ubl.FindPath(line, ubl.CACName("Price"), ubl.CBCName("PriceAmount"))), ZeroAmount),
			Amount:      or(ubl.Text(ubl.FindChild(line, ubl.CBCName("LineExtensionAmount"))), ZeroAmount),
		})
	}
	return f, nil
}

func partyName(root *etree.Element, role string) string {
	return ubl.Text(ubl.FindPath(root, ubl.CACName(role), ubl.CACName("Party"), ubl.CBCName("Name")))
}

func or(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// money formats an amount with the document currency
func (f *Fields) money(v string) string {
	return fmt.Sprintf("%s %s", v, f.Currency)
}

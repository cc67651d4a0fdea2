package report

import (
	"fmt"
	"time"

	"github.com/beevik/etree"

	"github.com/navikt/ehandelkanal-2/pkg/peppol"
)

// Extract pulls the report fields out of a received invoice or credit note.
// Extraction is tolerant: absent elements leave their row fields empty, but
// a payload that does not parse at all is an error.
func Extract(kind peppol.DocumentType, fileName string, received time.Time, payload []byte) (*Row, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(payload); err != nil {
		return nil, fmt.Errorf("parsing %s for reporting: %w", fileName, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("parsing %s for reporting: no root element", fileName)
	}

	row := &Row{
		FileName:      fileName,
		DocumentType:  string(kind),
		Received:      received,
		InvoiceNumber: childText(root, "ID"),
		Issued:        childText(root, "IssueDate"),
	}
	if supplier := descend(root, "AccountingSupplierParty", "Party"); supplier != nil {
		row.OrgNumber = childText(supplier, "EndpointID")
	}
	if customer := descend(root, "AccountingCustomerParty", "Party", "PartyName"); customer != nil {
		row.PayerName = childText(customer, "Name")
	}
	if amount := descend(root, "LegalMonetaryTotal", "PayableAmount"); amount != nil {
		row.Amount = amount.Text()
		row.Currency = amount.SelectAttrValue("currencyID", "")
	}
	return row, nil
}

func childNamed(e *etree.Element, local string) *etree.Element {
	for _, child := range e.ChildElements() {
		if child.Tag == local {
			return child
		}
	}
	return nil
}

func descend(e *etree.Element, locals ...string) *etree.Element {
	for _, local := range locals {
		if e = childNamed(e, local); e == nil {
			return nil
		}
	}
	return e
}

func childText(e *etree.Element, local string) string {
	if child := childNamed(e, local); child != nil {
		return child.Text()
	}
	return ""
}

// Package ubl parses UBL business documents and synthesizes envelope
// headers from them.
//
// Only the fields the gateway needs are extracted: the endpoint identifiers
// of the two trading parties, the profile identifier and the customization
// identifier. Party element paths differ per document variant (the supplier
// sends invoices, the buyer sends orders), so extraction is driven by a
// closed set of supported kinds rather than runtime type inspection.
package ubl

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/navikt/ehandelkanal-2/pkg/errmsg"
	"github.com/navikt/ehandelkanal-2/pkg/peppol"
)

// UBLVersion is the UBL syntax version of the supported document types.
const UBLVersion = "2.1"

// rootNamespaces maps each supported document kind to its UBL root
// namespace.
var rootNamespaces = map[peppol.DocumentType]string{
	peppol.Invoice:    "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2",
	peppol.Order:      "urn:oasis:names:specification:ubl:schema:xsd:Order-2",
	peppol.CreditNote: "urn:oasis:names:specification:ubl:schema:xsd:CreditNote-2",
}

// Document is one parsed outbound business document.
type Document struct {
	Kind peppol.DocumentType

	SenderEndpointID   string
	SenderSchemeID     string
	ReceiverEndpointID string
	ReceiverSchemeID   string

	ProfileID       string
	CustomizationID string
}

// Parse reads rawXML as a business document of the given kind. An
// unsupported kind fails with InvalidDocumentType; malformed XML or a root
// element that does not match the kind fails with a parse error.
func Parse(rawXML []byte, kind peppol.DocumentType) (*Document, error) {
	if _, ok := rootNamespaces[kind]; !ok {
		return nil, errmsg.New(errmsg.KindInvalidDocumentType,
			fmt.Sprintf("unsupported document type %q", kind))
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawXML); err != nil {
		return nil, errmsg.Wrap(errmsg.KindParse, "could not parse document payload", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, errmsg.New(errmsg.KindParse, "document has no root element")
	}
	if root.Tag != string(kind) {
		return nil, errmsg.New(errmsg.KindParse,
			fmt.Sprintf("document root %q does not match expected type %q", root.Tag, kind))
	}

	d := &Document{
		Kind:            kind,
		ProfileID:       childText(root, "ProfileID"),
		CustomizationID: childText(root, "CustomizationID"),
	}

	var senderParty, receiverParty *etree.Element
	switch kind {
	case peppol.Invoice, peppol.CreditNote:
		senderParty = descend(root, "AccountingSupplierParty", "Party")
		receiverParty = descend(root, "AccountingCustomerParty", "Party")
	case peppol.Order:
		senderParty = descend(root, "BuyerCustomerParty", "Party")
		receiverParty = descend(root, "SellerSupplierParty", "Party")
	}
	if endpoint := childNamed(senderParty, "EndpointID"); endpoint != nil {
		d.SenderEndpointID = endpoint.Text()
		d.SenderSchemeID = endpoint.SelectAttrValue("schemeID", "")
	}
	if endpoint := childNamed(receiverParty, "EndpointID"); endpoint != nil {
		d.ReceiverEndpointID = endpoint.Text()
		d.ReceiverSchemeID = endpoint.SelectAttrValue("schemeID", "")
	}
	return d, nil
}

// childNamed returns the first child element with the given local name,
// regardless of namespace prefix.
func childNamed(e *etree.Element, local string) *etree.Element {
	if e == nil {
		return nil
	}
	for _, child := range e.ChildElements() {
		if child.Tag == local {
			return child
		}
	}
	return nil
}

// descend walks a chain of child element names.
func descend(e *etree.Element, locals ...string) *etree.Element {
	for _, local := range locals {
		e = childNamed(e, local)
		if e == nil {
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

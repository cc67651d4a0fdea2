package peppol

// DocumentType is the finite set of business-document types the gateway
// routes on. Anything unrecognized maps to Unknown and ends up in manual
// handling.
type DocumentType string

const (
	Invoice       DocumentType = "Invoice"
	CreditNote    DocumentType = "CreditNote"
	Order         DocumentType = "Order"
	OrderResponse DocumentType = "OrderResponse"
	Catalogue     DocumentType = "Catalogue"
	Unknown       DocumentType = "Unknown"
)

var knownDocumentTypes = map[string]DocumentType{
	"Invoice":       Invoice,
	"CreditNote":    CreditNote,
	"Order":         Order,
	"OrderResponse": OrderResponse,
	"Catalogue":     Catalogue,
}

// ParseDocumentType maps a document root local name to its DocumentType,
// defaulting to Unknown.
func ParseDocumentType(value string) DocumentType {
	if t, ok := knownDocumentTypes[value]; ok {
		return t
	}
	return Unknown
}

package inbound

import "github.com/navikt/ehandelkanal-2/pkg/peppol"

// Route is the destination class for one inbound document.
type Route int

const (
	// RouteQueue delivers to the internal queue.
	RouteQueue Route = iota
	// RouteFileArea delivers to the shared file area.
	RouteFileArea
	// RouteArchiveThenFTP archives to the legal archive (best effort) and
	// delivers to document management over FTP.
	RouteArchiveThenFTP
	// RouteManual shunts the original enveloped payload to manual handling.
	RouteManual
)

func (r Route) String() string {
	switch r {
	case RouteQueue:
		return "queue"
	case RouteFileArea:
		return "file-area"
	case RouteArchiveThenFTP:
		return "archive+ftp"
	case RouteManual:
		return "manual"
	}
	return "unknown"
}

// Decide maps a document type and body size to its route. Catalogues split
// on size: small ones ride the queue, oversized ones go to the file area
// where the consumer fetches them out of band.
func Decide(docType peppol.DocumentType, size, catalogueSizeLimit int) Route {
	switch docType {
	case peppol.Catalogue:
		if size <= catalogueSizeLimit {
			return RouteQueue
		}
		return RouteFileArea
	case peppol.Invoice, peppol.CreditNote:
		return RouteArchiveThenFTP
	case peppol.OrderResponse:
		return RouteQueue
	default:
		return RouteManual
	}
}

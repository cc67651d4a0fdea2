/*
Package ehandelkanal is the EHF document gateway: it moves electronic trade
documents (EHF/PEPPOL BIS) between the access point and the internal
systems.

# Overview

The gateway has two pipelines.

The inbound pipeline polls the access point inbox on a timer, downloads each
enveloped document, strips the StandardBusinessDocumentHeader envelope and
routes the unwrapped document by its type: order responses and small
catalogues to the internal queue, oversized catalogues to the shared file
area, invoices and credit notes to the legal archive and document management
over FTP, and everything unrecognized to manual handling. A message is only
acknowledged at the access point after it has been routed somewhere, so no
document is lost.

The outbound pipeline accepts raw business documents over HTTP, synthesizes
the envelope header from the document content, wraps it and submits it
through the access point outbox, then triggers transmission.

# Package Structure

	github.com/navikt/ehandelkanal-2/pkg/peppol          - Identifier registry, header model, document types
	github.com/navikt/ehandelkanal-2/pkg/sbdh            - Streaming SBDH envelope codec
	github.com/navikt/ehandelkanal-2/pkg/ubl             - Business-document parsing and header synthesis
	github.com/navikt/ehandelkanal-2/pkg/errmsg          - Error taxonomy
	github.com/navikt/ehandelkanal-2/internal/accesspoint - Access point REST client
	github.com/navikt/ehandelkanal-2/internal/inbound    - Poll gate, routing, inbound pipeline
	github.com/navikt/ehandelkanal-2/internal/outbound   - Outbound pipeline
	github.com/navikt/ehandelkanal-2/internal/server     - Outbound HTTP API
	github.com/navikt/ehandelkanal-2/internal/sink       - Queue, FTP and file-area delivery targets
	github.com/navikt/ehandelkanal-2/internal/archive    - Legal archive client
	github.com/navikt/ehandelkanal-2/internal/report     - Postgres report store

The binary lives in cmd/ehandelkanal.
*/
package ehandelkanal

package ubl

import (
	"fmt"
	"time"

	"github.com/navikt/ehandelkanal-2/pkg/errmsg"
	"github.com/navikt/ehandelkanal-2/pkg/peppol"
)

// Synthesize builds the envelope header for a parsed outbound document.
// Scheme identifiers are resolved through the participant registry; a
// document missing any of the required fields fails with
// MissingRequiredValues.
func Synthesize(doc *Document, correlationID string, now time.Time) (*peppol.Header, error) {
	namespace, ok := rootNamespaces[doc.Kind]
	if !ok {
		return nil, errmsg.New(errmsg.KindInvalidDocumentType,
			fmt.Sprintf("unsupported document type %q", doc.Kind))
	}

	if doc.SenderEndpointID == "" || doc.SenderSchemeID == "" ||
		doc.ReceiverEndpointID == "" || doc.ReceiverSchemeID == "" ||
		doc.ProfileID == "" || doc.CustomizationID == "" {
		return nil, errmsg.New(errmsg.KindMissingRequiredValues,
			fmt.Sprintf("%s document is missing required values for envelope generation", doc.Kind))
	}

	senderCode, err := peppol.ResolveSchemeID(doc.SenderSchemeID)
	if err != nil {
		return nil, err
	}
	receiverCode, err := peppol.ResolveSchemeID(doc.ReceiverSchemeID)
	if err != nil {
		return nil, err
	}

	localName := string(doc.Kind)
	return &peppol.Header{
		Sender:   fmt.Sprintf("%s:%s", senderCode, doc.SenderEndpointID),
		Receiver: fmt.Sprintf("%s:%s", receiverCode, doc.ReceiverEndpointID),
		Process:  doc.ProfileID,
		DocumentType: fmt.Sprintf("%s::%s##%s::%s",
			namespace, localName, doc.CustomizationID, UBLVersion),
		Standard:          namespace,
		Type:              localName,
		Version:           UBLVersion,
		CreationTimestamp: now,
		InstanceID:        correlationID,
	}, nil
}

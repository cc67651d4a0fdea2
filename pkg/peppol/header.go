// Package peppol holds the PEPPOL domain model shared by the gateway: the
// envelope header metadata, the business-document type vocabulary, and the
// ISO 6523 participant scheme registry.
package peppol

import (
	"fmt"
	"strings"
	"time"
)

// ISO6523ActorIDScheme is the SBDH identifier authority for scheme-qualified
// participant identifiers.
const ISO6523ActorIDScheme = "iso6523-actorid-upis"

// Header carries the routing metadata of one in-flight business document.
// It is immutable once constructed.
type Header struct {
	// Sender and Receiver are scheme-qualified participant identifiers,
	// e.g. "9908:889640782".
	Sender   string
	Receiver string
	// Process is the business process (profile) identifier.
	Process string
	// DocumentType is the full document type identifier on the form
	// namespace::localName##customizationID::version.
	DocumentType string
	// Standard, Type and Version describe the wrapped document instance:
	// its root namespace, root local name and UBL version.
	Standard string
	Type     string
	Version  string
	// CreationTimestamp is when the envelope was created.
	CreationTimestamp time.Time
	// InstanceID is the envelope instance (correlation) identifier.
	InstanceID string
}

// FileName synthesizes the canonical file name for the wrapped document:
// <yyyyMMdd-HHmmssSSS>-<documentID>.xml, where documentID is the last
// colon-separated segment of the instance identifier.
func (h *Header) FileName() string {
	ts := h.CreationTimestamp.Format("20060102-150405") +
		fmt.Sprintf("%03d", h.CreationTimestamp.Nanosecond()/int(time.Millisecond))
	id := h.InstanceID
	if i := strings.LastIndex(id, ":"); i >= 0 {
		id = id[i+1:]
	}
	return fmt.Sprintf("%s-%s.xml", ts, id)
}

// SenderID returns the participant identifier of the sender without its
// scheme prefix.
func (h *Header) SenderID() string {
	if i := strings.LastIndex(h.Sender, ":"); i >= 0 {
		return h.Sender[i+1:]
	}
	return h.Sender
}

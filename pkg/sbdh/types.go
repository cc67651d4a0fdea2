package sbdh

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/navikt/ehandelkanal-2/pkg/errmsg"
	"github.com/navikt/ehandelkanal-2/pkg/peppol"
)

// Namespace is the UN/CEFACT SBDH namespace.
const Namespace = "http://www.unece.org/cefact/namespaces/StandardBusinessDocumentHeader"

const (
	headerVersion  = "1.0"
	scopeDocument  = "DOCUMENTID"
	scopeProcess   = "PROCESSID"
	rootLocalName  = "StandardBusinessDocument"
	headerLocal    = "StandardBusinessDocumentHeader"
	timestampShape = "2006-01-02T15:04:05.000Z07:00"
)

// xmlHeader mirrors the StandardBusinessDocumentHeader element.
type xmlHeader struct {
	XMLName                xml.Name        `xml:"StandardBusinessDocumentHeader"`
	HeaderVersion          string          `xml:"HeaderVersion"`
	Sender                 xmlPartner      `xml:"Sender"`
	Receiver               xmlPartner      `xml:"Receiver"`
	DocumentIdentification xmlDocumentID   `xml:"DocumentIdentification"`
	BusinessScope          xmlBusinessScope `xml:"BusinessScope"`
}

type xmlPartner struct {
	Identifier xmlIdentifier `xml:"Identifier"`
}

type xmlIdentifier struct {
	Authority string `xml:"Authority,attr"`
	Value     string `xml:",chardata"`
}

type xmlDocumentID struct {
	Standard            string `xml:"Standard"`
	TypeVersion         string `xml:"TypeVersion"`
	InstanceIdentifier  string `xml:"InstanceIdentifier"`
	Type                string `xml:"Type"`
	CreationDateAndTime string `xml:"CreationDateAndTime"`
}

type xmlBusinessScope struct {
	Scopes []xmlScope `xml:"Scope"`
}

type xmlScope struct {
	Type               string `xml:"Type"`
	InstanceIdentifier string `xml:"InstanceIdentifier"`
}

func headerToXML(h *peppol.Header) *xmlHeader {
	return &xmlHeader{
		HeaderVersion: headerVersion,
		Sender: xmlPartner{Identifier: xmlIdentifier{
			Authority: peppol.ISO6523ActorIDScheme,
			Value:     h.Sender,
		}},
		Receiver: xmlPartner{Identifier: xmlIdentifier{
			Authority: peppol.ISO6523ActorIDScheme,
			Value:     h.Receiver,
		}},
		DocumentIdentification: xmlDocumentID{
			Standard:            h.Standard,
			TypeVersion:         h.Version,
			InstanceIdentifier:  h.InstanceID,
			Type:                h.Type,
			CreationDateAndTime: h.CreationTimestamp.Format(timestampShape),
		},
		BusinessScope: xmlBusinessScope{Scopes: []xmlScope{
			{Type: scopeDocument, InstanceIdentifier: h.DocumentType},
			{Type: scopeProcess, InstanceIdentifier: h.Process},
		}},
	}
}

func (x *xmlHeader) toHeader() (*peppol.Header, error) {
	h := &peppol.Header{
		Sender:     strings.TrimSpace(x.Sender.Identifier.Value),
		Receiver:   strings.TrimSpace(x.Receiver.Identifier.Value),
		Standard:   strings.TrimSpace(x.DocumentIdentification.Standard),
		Type:       strings.TrimSpace(x.DocumentIdentification.Type),
		Version:    strings.TrimSpace(x.DocumentIdentification.TypeVersion),
		InstanceID: strings.TrimSpace(x.DocumentIdentification.InstanceIdentifier),
	}
	for _, scope := range x.BusinessScope.Scopes {
		switch strings.TrimSpace(scope.Type) {
		case scopeDocument:
			h.DocumentType = strings.TrimSpace(scope.InstanceIdentifier)
		case scopeProcess:
			h.Process = strings.TrimSpace(scope.InstanceIdentifier)
		}
	}
	raw := strings.TrimSpace(x.DocumentIdentification.CreationDateAndTime)
	if raw != "" {
		ts, err := parseTimestamp(raw)
		if err != nil {
			return nil, errmsg.Wrap(errmsg.KindParse, fmt.Sprintf("invalid CreationDateAndTime %q", raw), err)
		}
		h.CreationTimestamp = ts
	}
	return h, nil
}

// parseTimestamp accepts the millisecond form the gateway emits as well as
// plain RFC 3339, since upstream access points vary in precision.
func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range []string{timestampShape, time.RFC3339Nano, time.RFC3339} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp format %q", raw)
}

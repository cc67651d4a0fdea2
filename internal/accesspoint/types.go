package accesspoint

import "encoding/xml"

// inboxQueryResponse is the wire shape of the access point inbox listing.
type inboxQueryResponse struct {
	XMLName  xml.Name       `xml:"inbox-query-response"`
	Messages []InboxMessage `xml:"messages>message"`
}

// InboxMessage is one unread message as listed by the access point inbox.
type InboxMessage struct {
	Self     string          `xml:"self"`
	MetaData MessageMetaData `xml:"message-meta-data"`
}

// MessageMetaData carries the access point's own metadata for a message.
type MessageMetaData struct {
	MsgNo        string       `xml:"msg-no"`
	Direction    string       `xml:"direction"`
	Received     string       `xml:"received"`
	UUID         string       `xml:"uuid"`
	PeppolHeader PeppolHeader `xml:"peppol-header"`
}

// PeppolHeader is the access point's view of the envelope addressing.
type PeppolHeader struct {
	Sender       string `xml:"sender"`
	Receiver     string `xml:"receiver"`
	DocumentType string `xml:"document-type"`
	ProcessType  string `xml:"process-type"`
}

// outboxPostResponse is the wire shape of a successful outbox submission.
type outboxPostResponse struct {
	XMLName xml.Name `xml:"outbox-post-response"`
	Message struct {
		MetaData struct {
			MsgNo string `xml:"msg-no"`
		} `xml:"message-meta-data"`
	} `xml:"message"`
}

// OutboxReceipt identifies a submitted outbound message.
type OutboxReceipt struct {
	MsgNo string
}

// transmitResponse is the wire shape of the transmit result.
type transmitResponse struct {
	XMLName        xml.Name `xml:"transmit-response"`
	SucceededCount int      `xml:"succeededCount"`
	FailedCount    int      `xml:"failedCount"`
}

// Package errmsg defines the closed error vocabulary shared by the gateway
// pipelines.
//
// Every failed operation carries exactly one Kind. The kind decides the
// failure policy: whether a retry can help (server/transport errors), whether
// the request itself is broken and retrying is illegal (client request
// errors, parse and validation failures), or whether the failure is a
// domain-level partial result (transmit errors). Callers classify with
// [KindOf] and [Retryable] rather than inspecting error strings.
package errmsg

import (
	"errors"
	"fmt"
)

// Kind identifies one failure class.
type Kind int

const (
	// KindInternal is the catch-all for unexpected failures.
	KindInternal Kind = iota
	// KindParse covers malformed XML or a payload whose root element does
	// not match the expected document type.
	KindParse
	// KindInvalidScheme marks an unmappable business-identifier scheme.
	KindInvalidScheme
	// KindMissingRequiredValues marks a document lacking fields required
	// for header synthesis.
	KindMissingRequiredValues
	// KindInvalidDocumentType marks an unsupported business-document variant.
	KindInvalidDocumentType
	// KindEnvelopeWriteFailed marks a failure to prepend the envelope header.
	KindEnvelopeWriteFailed
	// KindClientRequest marks an HTTP 4xx response. Terminal: retrying a
	// malformed request cannot succeed.
	KindClientRequest
	// KindServerResponse marks an HTTP 5xx response or a transport failure.
	// Retryable.
	KindServerResponse
	// KindTransmit marks a domain-level partial transmission failure
	// (succeeded count != 1). Not a transport error, never retried.
	KindTransmit
	// KindDataBind marks a response body that failed structured parsing.
	KindDataBind
)

var kindNames = map[Kind]string{
	KindInternal:              "InternalError",
	KindParse:                 "FailedToParseDocumentType",
	KindInvalidScheme:         "InvalidSchemeIdForParticipant",
	KindMissingRequiredValues: "MissingRequiredValuesFromDocument",
	KindInvalidDocumentType:   "InvalidDocumentType",
	KindEnvelopeWriteFailed:   "FailedToPrependEnvelopeHeader",
	KindClientRequest:         "ClientRequestError",
	KindServerResponse:        "ServerResponseError",
	KindTransmit:              "TransmitError",
	KindDataBind:              "DataBindError",
}

// String returns the stable name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Retryable reports whether failures of this kind may succeed on retry.
func (k Kind) Retryable() bool {
	return k == KindServerResponse
}

// Error is a classified gateway error.
type Error struct {
	Kind    Kind
	Message string
	// Status is the HTTP status code for transport-derived errors, 0 otherwise.
	Status int
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an error of the given kind around a cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithStatus builds a transport error carrying the HTTP status code.
func WithStatus(kind Kind, status int, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Status: status, Err: err}
}

// KindOf extracts the kind from err, or KindInternal when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Retryable reports whether err may succeed on retry. Unclassified errors
// are treated as retryable so that transient transport failures wrapped by
// lower layers are not silently dropped.
func Retryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind.Retryable()
	}
	return true
}

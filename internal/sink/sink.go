// Package sink holds the delivery targets for routed inbound documents: the
// internal queue, the document-management FTP server and the local file
// area. All sinks deliver one named payload at a time and are safe for
// concurrent use.
package sink

import "context"

// Sink delivers one unwrapped business document under its synthesized file
// name.
type Sink interface {
	Deliver(ctx context.Context, fileName string, payload []byte) error
}

// Package sbdh implements the Standard Business Document Header envelope
// codec used between the PEPPOL access point and the gateway pipelines.
//
// The codec works in both directions:
//
//   - [Codec.Strip] parses an enveloped document from a byte stream,
//     extracting the header metadata and emitting the unwrapped business
//     document. The body is copied event-by-event from the pull parser to a
//     push writer; it is never materialized as a DOM, so payloads of tens of
//     megabytes stream through in constant memory and non-UTF-8 input
//     encodings are handled by the parser.
//
//   - [Codec.Wrap] performs the inverse: given header metadata and a raw
//     business-document stream it emits the enveloped stream. The body is
//     trusted to be well-formed and is copied without re-parsing.
//
// A declared document type that disagrees with the actual root element of
// the wrapped document is never trusted: Strip downgrades the effective
// document type to Unknown and records an error-level event, but the
// operation itself succeeds so the message can still be routed (to manual
// handling) and acknowledged.
package sbdh

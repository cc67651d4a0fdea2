package sbdh

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"

	"github.com/navikt/ehandelkanal-2/pkg/errmsg"
	"github.com/navikt/ehandelkanal-2/pkg/peppol"
)

// Codec strips and wraps SBDH envelopes.
type Codec struct {
	logger *slog.Logger
}

// NewCodec creates a codec. A nil logger falls back to slog.Default.
func NewCodec(logger *slog.Logger) *Codec {
	if logger == nil {
		logger = slog.Default()
	}
	return &Codec{logger: logger}
}

// StripResult is the outcome of unwrapping one enveloped document.
type StripResult struct {
	// Header is the envelope metadata as declared on the wire.
	Header *peppol.Header
	// DocumentType is the effective document type used for routing. It is
	// Unknown when the declared instance type disagrees with the actual
	// root element of the wrapped document.
	DocumentType peppol.DocumentType
	// RootName is the local name of the wrapped document's root element.
	RootName string
}

// Strip parses the envelope from r, writes the unwrapped business document
// to w and returns the extracted metadata. The body is copied token by
// token; input in ISO 8859-1 is transparently decoded and the emitted body
// is always UTF-8 with an explicit XML declaration.
func (c *Codec) Strip(r io.Reader, w io.Writer) (*StripResult, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader

	root, err := nextStartElement(dec)
	if err != nil {
		return nil, errmsg.Wrap(errmsg.KindParse, "reading envelope root", err)
	}
	if root.Name.Local != rootLocalName {
		return nil, errmsg.New(errmsg.KindParse,
			fmt.Sprintf("unexpected root element %q, want %s", root.Name.Local, rootLocalName))
	}

	headerStart, err := nextStartElement(dec)
	if err != nil {
		return nil, errmsg.Wrap(errmsg.KindParse, "reading envelope header", err)
	}
	if headerStart.Name.Local != headerLocal {
		return nil, errmsg.New(errmsg.KindParse,
			fmt.Sprintf("expected %s, got %q", headerLocal, headerStart.Name.Local))
	}
	var xh xmlHeader
	if err := dec.DecodeElement(&xh, &headerStart); err != nil {
		return nil, errmsg.Wrap(errmsg.KindParse, "decoding envelope header", err)
	}
	header, err := xh.toHeader()
	if err != nil {
		return nil, err
	}

	bodyStart, err := nextStartElement(dec)
	if err != nil {
		return nil, errmsg.Wrap(errmsg.KindParse, "envelope has no wrapped document", err)
	}
	if err := c.copyBody(dec, bodyStart, w); err != nil {
		return nil, err
	}

	result := &StripResult{
		Header:   header,
		RootName: bodyStart.Name.Local,
	}
	if bodyStart.Name.Local != header.Type {
		// The declared type cannot be trusted when it disagrees with the
		// wire-level content. Routing falls back to manual handling.
		c.logger.Error("declared document type does not match wrapped document",
			"declared", header.Type,
			"actual", bodyStart.Name.Local,
			"instance_id", header.InstanceID,
		)
		result.DocumentType = peppol.Unknown
	} else {
		result.DocumentType = peppol.ParseDocumentType(header.Type)
	}
	return result, nil
}

func (c *Codec) copyBody(dec *xml.Decoder, bodyStart xml.StartElement, w io.Writer) error {
	copier := newTokenCopier(w)
	if _, err := copier.w.WriteString(xml.Header); err != nil {
		return errmsg.Wrap(errmsg.KindParse, "writing body", err)
	}
	if err := copier.writeStart(bodyStart); err != nil {
		return errmsg.Wrap(errmsg.KindParse, "writing body root", err)
	}
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return errmsg.Wrap(errmsg.KindParse, "reading wrapped document", err)
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
		if err := copier.writeToken(xml.CopyToken(tok)); err != nil {
			return errmsg.Wrap(errmsg.KindParse, "copying wrapped document", err)
		}
	}
	if err := copier.flush(); err != nil {
		return errmsg.Wrap(errmsg.KindParse, "flushing body", err)
	}
	return nil
}

// Wrap writes the envelope for header followed by the raw body bytes to w.
// The body stream is not re-parsed; a leading XML declaration is dropped
// since the document becomes part of the envelope.
func (c *Codec) Wrap(header *peppol.Header, body io.Reader, w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(xml.Header); err != nil {
		return errmsg.Wrap(errmsg.KindEnvelopeWriteFailed, "writing envelope", err)
	}
	if _, err := fmt.Fprintf(bw, "<%s xmlns=%q>", rootLocalName, Namespace); err != nil {
		return errmsg.Wrap(errmsg.KindEnvelopeWriteFailed, "writing envelope", err)
	}

	headerXML, err := xml.Marshal(headerToXML(header))
	if err != nil {
		return errmsg.Wrap(errmsg.KindEnvelopeWriteFailed, "marshalling envelope header", err)
	}
	if _, err := bw.Write(headerXML); err != nil {
		return errmsg.Wrap(errmsg.KindEnvelopeWriteFailed, "writing envelope header", err)
	}

	if err := copyWithoutDeclaration(bw, body); err != nil {
		return errmsg.Wrap(errmsg.KindEnvelopeWriteFailed, "writing document body", err)
	}

	if _, err := fmt.Fprintf(bw, "</%s>", rootLocalName); err != nil {
		return errmsg.Wrap(errmsg.KindEnvelopeWriteFailed, "closing envelope", err)
	}
	return bw.Flush()
}

// copyWithoutDeclaration streams body to w, skipping a leading <?xml ...?>
// declaration if present.
func copyWithoutDeclaration(w io.Writer, body io.Reader) error {
	br := bufio.NewReader(body)
	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		if err := br.UnreadByte(); err != nil {
			return err
		}
		break
	}
	peeked, err := br.Peek(5)
	if err == nil && string(peeked) == "<?xml" {
		for {
			b, err := br.ReadByte()
			if err != nil {
				return fmt.Errorf("unterminated XML declaration: %w", err)
			}
			if b == '?' {
				next, err := br.ReadByte()
				if err != nil {
					return fmt.Errorf("unterminated XML declaration: %w", err)
				}
				if next == '>' {
					break
				}
				if err := br.UnreadByte(); err != nil {
					return err
				}
			}
		}
	}
	_, err = io.Copy(w, br)
	return err
}

// nextStartElement advances the decoder to the next start element.
func nextStartElement(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return xml.StartElement{}, err
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se, nil
		}
		if _, ok := tok.(xml.EndElement); ok {
			return xml.StartElement{}, io.ErrUnexpectedEOF
		}
	}
}

package sbdh

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// tokenCopier streams parser events back out as serialized XML while keeping
// namespace prefixes intact. encoding/xml's Encoder rewrites prefixed names
// into per-element xmlns attributes, which mangles UBL documents full of
// cac:/cbc: elements, so the copier tracks the declarations it sees and
// re-emits qualified names itself.
type tokenCopier struct {
	w *bufio.Writer
	// scopes is a stack of namespace-URI-to-prefix bindings, one frame per
	// open element. The empty prefix marks the default namespace.
	scopes []map[string]string
	// open is the stack of serialized names of currently open elements.
	open []string
	// generated counts synthesized namespace prefixes.
	generated int
}

func newTokenCopier(w io.Writer) *tokenCopier {
	return &tokenCopier{w: bufio.NewWriter(w)}
}

// lookupPrefix finds the innermost prefix bound to uri. The second return
// is false when no binding is in scope.
func (c *tokenCopier) lookupPrefix(uri string) (string, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if prefix, ok := c.scopes[i][uri]; ok {
			return prefix, ok
		}
	}
	return "", false
}

func (c *tokenCopier) writeStart(se xml.StartElement) error {
	frame := map[string]string{}

	// Namespace declarations carried on this element bind first.
	var declarations []xml.Attr
	var plain []xml.Attr
	for _, attr := range se.Attr {
		switch {
		case attr.Name.Space == "xmlns":
			frame[attr.Value] = attr.Name.Local
			declarations = append(declarations, attr)
		case attr.Name.Space == "" && attr.Name.Local == "xmlns":
			frame[attr.Value] = ""
			declarations = append(declarations, attr)
		default:
			plain = append(plain, attr)
		}
	}
	c.scopes = append(c.scopes, frame)

	name, extra, err := c.qualify(se.Name, false)
	if err != nil {
		return err
	}
	declarations = append(declarations, extra...)

	if _, err := c.w.WriteString("<" + name); err != nil {
		return err
	}
	for _, attr := range declarations {
		if err := c.writeAttr(declAttrName(attr.Name), attr.Value); err != nil {
			return err
		}
	}
	for _, attr := range plain {
		attrName, extra, err := c.qualify(attr.Name, true)
		if err != nil {
			return err
		}
		for _, decl := range extra {
			if err := c.writeAttr(declAttrName(decl.Name), decl.Value); err != nil {
				return err
			}
		}
		if err := c.writeAttr(attrName, attr.Value); err != nil {
			return err
		}
	}
	c.open = append(c.open, name)
	return c.w.WriteByte('>')
}

// qualify maps a parsed name to its serialized form, synthesizing a
// namespace declaration when the URI has no binding in scope. Attributes
// never pick up the default namespace, so attribute names in a namespace
// always need a prefixed binding.
func (c *tokenCopier) qualify(name xml.Name, isAttr bool) (string, []xml.Attr, error) {
	if name.Space == "" {
		return name.Local, nil, nil
	}
	if prefix, ok := c.lookupPrefix(name.Space); ok {
		if prefix == "" {
			if !isAttr {
				return name.Local, nil, nil
			}
		} else {
			return prefix + ":" + name.Local, nil, nil
		}
	}
	frame := c.scopes[len(c.scopes)-1]
	if !isAttr {
		// Bind the URI as the default namespace of this element.
		frame[name.Space] = ""
		decl := xml.Attr{Name: xml.Name{Local: "xmlns"}, Value: name.Space}
		return name.Local, []xml.Attr{decl}, nil
	}
	c.generated++
	prefix := fmt.Sprintf("ns%d", c.generated)
	frame[name.Space] = prefix
	decl := xml.Attr{Name: xml.Name{Space: "xmlns", Local: prefix}, Value: name.Space}
	return prefix + ":" + name.Local, []xml.Attr{decl}, nil
}

func declAttrName(name xml.Name) string {
	if name.Space == "xmlns" {
		return "xmlns:" + name.Local
	}
	return name.Local
}

func (c *tokenCopier) writeAttr(name, value string) error {
	if _, err := c.w.WriteString(" " + name + `="`); err != nil {
		return err
	}
	if err := xml.EscapeText(c.w, []byte(value)); err != nil {
		return err
	}
	return c.w.WriteByte('"')
}

func (c *tokenCopier) writeEnd() error {
	if len(c.open) == 0 {
		return fmt.Errorf("unbalanced end element")
	}
	name := c.open[len(c.open)-1]
	c.open = c.open[:len(c.open)-1]
	c.scopes = c.scopes[:len(c.scopes)-1]
	_, err := c.w.WriteString("</" + name + ">")
	return err
}

func (c *tokenCopier) writeToken(tok xml.Token) error {
	switch t := tok.(type) {
	case xml.StartElement:
		return c.writeStart(t)
	case xml.EndElement:
		return c.writeEnd()
	case xml.CharData:
		return xml.EscapeText(c.w, t)
	case xml.Comment:
		_, err := c.w.WriteString("<!--" + string(t) + "-->")
		return err
	case xml.ProcInst:
		_, err := c.w.WriteString("<?" + t.Target + " " + string(t.Inst) + "?>")
		return err
	case xml.Directive:
		_, err := c.w.WriteString("<!" + string(t) + ">")
		return err
	default:
		return fmt.Errorf("unsupported XML token %T", tok)
	}
}

func (c *tokenCopier) flush() error { return c.w.Flush() }

// charsetReader lets the decoder read the legacy encodings inbound senders
// actually use. Latin-1 maps to Unicode code points one-to-one so no
// external table is needed.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "", "utf-8", "us-ascii":
		return input, nil
	case "iso-8859-1", "latin1":
		return &latin1Reader{r: bufio.NewReader(input)}, nil
	default:
		return nil, fmt.Errorf("unsupported document encoding %q", charset)
	}
}

type latin1Reader struct {
	r *bufio.Reader
	// pending holds the continuation byte of a split two-byte sequence.
	pending    byte
	hasPending bool
}

func (l *latin1Reader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if l.hasPending {
			p[n] = l.pending
			l.hasPending = false
			n++
			continue
		}
		b, err := l.r.ReadByte()
		if err != nil {
			if n > 0 && err == io.EOF {
				return n, nil
			}
			return n, err
		}
		if b < 0x80 {
			p[n] = b
			n++
			continue
		}
		p[n] = 0xC0 | b>>6
		n++
		if n < len(p) {
			p[n] = 0x80 | b&0x3F
			n++
		} else {
			l.pending = 0x80 | b&0x3F
			l.hasPending = true
		}
	}
	return n, nil
}

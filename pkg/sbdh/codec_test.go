package sbdh

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navikt/ehandelkanal-2/pkg/errmsg"
	"github.com/navikt/ehandelkanal-2/pkg/peppol"
)

const testEnvelope = `<?xml version="1.0" encoding="UTF-8"?>
<StandardBusinessDocument xmlns="http://www.unece.org/cefact/namespaces/StandardBusinessDocumentHeader">
  <StandardBusinessDocumentHeader>
    <HeaderVersion>1.0</HeaderVersion>
    <Sender>
      <Identifier Authority="iso6523-actorid-upis">9908:889640782</Identifier>
    </Sender>
    <Receiver>
      <Identifier Authority="iso6523-actorid-upis">9908:810418052</Identifier>
    </Receiver>
    <DocumentIdentification>
      <Standard>urn:oasis:names:specification:ubl:schema:xsd:Invoice-2</Standard>
      <TypeVersion>2.1</TypeVersion>
      <InstanceIdentifier>urn:uuid:5e31fa18-96d4-4b3e-9b3d-cb39f4d8a939</InstanceIdentifier>
      <Type>Invoice</Type>
      <CreationDateAndTime>2019-04-12T09:30:15.123Z</CreationDateAndTime>
    </DocumentIdentification>
    <BusinessScope>
      <Scope>
        <Type>DOCUMENTID</Type>
        <InstanceIdentifier>urn:oasis:names:specification:ubl:schema:xsd:Invoice-2::Invoice##urn:www.cenbii.eu:transaction:biitrns010:ver2.0::2.1</InstanceIdentifier>
      </Scope>
      <Scope>
        <Type>PROCESSID</Type>
        <InstanceIdentifier>urn:www.cenbii.eu:profile:bii05:ver2.0</InstanceIdentifier>
      </Scope>
    </BusinessScope>
  </StandardBusinessDocumentHeader>
  <Invoice xmlns="urn:oasis:names:specification:ubl:schema:xsd:Invoice-2" xmlns:cbc="urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2">
    <cbc:ID>12345</cbc:ID>
  </Invoice>
</StandardBusinessDocument>`

func TestStrip_ValidEnvelope(t *testing.T) {
	codec := NewCodec(nil)
	var body bytes.Buffer

	result, err := codec.Strip(strings.NewReader(testEnvelope), &body)
	require.NoError(t, err)

	assert.Equal(t, peppol.Invoice, result.DocumentType)
	assert.Equal(t, "Invoice", result.RootName)

	h := result.Header
	assert.Equal(t, "9908:889640782", h.Sender)
	assert.Equal(t, "9908:810418052", h.Receiver)
	assert.Equal(t, "urn:www.cenbii.eu:profile:bii05:ver2.0", h.Process)
	assert.Equal(t, "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2::Invoice##urn:www.cenbii.eu:transaction:biitrns010:ver2.0::2.1", h.DocumentType)
	assert.Equal(t, "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2", h.Standard)
	assert.Equal(t, "Invoice", h.Type)
	assert.Equal(t, "2.1", h.Version)
	assert.Equal(t, "urn:uuid:5e31fa18-96d4-4b3e-9b3d-cb39f4d8a939", h.InstanceID)
	assert.Equal(t, time.Date(2019, 4, 12, 9, 30, 15, 123_000_000, time.UTC), h.CreationTimestamp.UTC())

	out := body.String()
	assert.Contains(t, out, `<Invoice xmlns="urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"`)
	assert.Contains(t, out, `xmlns:cbc="urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"`)
	assert.Contains(t, out, "<cbc:ID>12345</cbc:ID>")
	assert.NotContains(t, out, "StandardBusinessDocument")
}

func TestStrip_DeclaredTypeMismatch(t *testing.T) {
	envelope := strings.Replace(testEnvelope, "<Type>Invoice</Type>", "<Type>Order</Type>", 1)
	codec := NewCodec(nil)
	var body bytes.Buffer

	result, err := codec.Strip(strings.NewReader(envelope), &body)
	require.NoError(t, err)

	// The declared type disagrees with the wrapped document root, so the
	// effective type is downgraded and the message will end up in manual
	// handling. The header keeps the declared value.
	assert.Equal(t, peppol.Unknown, result.DocumentType)
	assert.Equal(t, "Invoice", result.RootName)
	assert.Equal(t, "Order", result.Header.Type)
	assert.Contains(t, body.String(), "<cbc:ID>12345</cbc:ID>")
}

func TestStrip_NotAnEnvelope(t *testing.T) {
	codec := NewCodec(nil)
	var body bytes.Buffer

	_, err := codec.Strip(strings.NewReader(`<Invoice><ID>1</ID></Invoice>`), &body)
	require.Error(t, err)
	assert.Equal(t, errmsg.KindParse, errmsg.KindOf(err))
}

func TestStrip_MalformedXML(t *testing.T) {
	codec := NewCodec(nil)
	var body bytes.Buffer

	_, err := codec.Strip(strings.NewReader("this is not xml"), &body)
	require.Error(t, err)
	assert.Equal(t, errmsg.KindParse, errmsg.KindOf(err))
}

func TestStrip_Latin1Payload(t *testing.T) {
	envelope := `<?xml version="1.0" encoding="ISO-8859-1"?>` +
		strings.TrimPrefix(testEnvelope, `<?xml version="1.0" encoding="UTF-8"?>`)
	envelope = strings.Replace(envelope, "<cbc:ID>12345</cbc:ID>", "<cbc:ID>bl\xe5b\xe6r</cbc:ID>", 1)

	codec := NewCodec(nil)
	var body bytes.Buffer

	_, err := codec.Strip(strings.NewReader(envelope), &body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), "<cbc:ID>blåbær</cbc:ID>")
}

func TestWrap_ThenStrip_RoundTrip(t *testing.T) {
	header := &peppol.Header{
		Sender:            "9908:889640782",
		Receiver:          "9908:810418052",
		Process:           "urn:www.cenbii.eu:profile:bii28:ver2.0",
		DocumentType:      "urn:oasis:names:specification:ubl:schema:xsd:Order-2::Order##urn:www.cenbii.eu:transaction:biitrns001:ver2.0::2.1",
		Standard:          "urn:oasis:names:specification:ubl:schema:xsd:Order-2",
		Type:              "Order",
		Version:           "2.1",
		CreationTimestamp: time.Date(2019, 4, 12, 9, 30, 15, 123_000_000, time.UTC),
		InstanceID:        "b77c8f74-7c62-4fdb-be71-9b0ad255b126",
	}
	body := `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
		`<Order xmlns="urn:oasis:names:specification:ubl:schema:xsd:Order-2" xmlns:cbc="urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"><cbc:ID>ordre-1</cbc:ID></Order>`

	codec := NewCodec(nil)
	var enveloped bytes.Buffer
	require.NoError(t, codec.Wrap(header, strings.NewReader(body), &enveloped))

	var stripped bytes.Buffer
	result, err := codec.Strip(&enveloped, &stripped)
	require.NoError(t, err)

	assert.Equal(t, peppol.Order, result.DocumentType)
	assert.Equal(t, header.Sender, result.Header.Sender)
	assert.Equal(t, header.Receiver, result.Header.Receiver)
	assert.Equal(t, header.Process, result.Header.Process)
	assert.Equal(t, header.DocumentType, result.Header.DocumentType)
	assert.Equal(t, header.Standard, result.Header.Standard)
	assert.Equal(t, header.Type, result.Header.Type)
	assert.Equal(t, header.Version, result.Header.Version)
	assert.Equal(t, header.InstanceID, result.Header.InstanceID)
	assert.True(t, header.CreationTimestamp.Equal(result.Header.CreationTimestamp))

	// The stripped body reproduces the wrapped document byte for byte.
	assert.Equal(t, body, stripped.String())
}

func TestWrap_DropsBodyDeclaration(t *testing.T) {
	header := &peppol.Header{
		Sender: "9908:1", Receiver: "9908:2",
		Standard: "urn:x", Type: "Invoice", Version: "2.1",
		CreationTimestamp: time.Now(), InstanceID: "id-1",
	}
	body := `<?xml version="1.0" encoding="UTF-8"?><Invoice xmlns="urn:x"/>`

	var out bytes.Buffer
	require.NoError(t, NewCodec(nil).Wrap(header, strings.NewReader(body), &out))

	s := out.String()
	assert.Equal(t, 1, strings.Count(s, "<?xml"), "body declaration must be dropped")
	assert.Contains(t, s, `<Invoice xmlns="urn:x"/>`)
	assert.True(t, strings.HasSuffix(s, "</StandardBusinessDocument>"))
}

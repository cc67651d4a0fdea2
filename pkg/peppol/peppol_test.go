package peppol

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navikt/ehandelkanal-2/pkg/errmsg"
)

func TestResolveSchemeID_KnownSchemes(t *testing.T) {
	tests := []struct {
		schemeID string
		want     string
	}{
		{"NO:ORGNR", "9908"},
		{"NO:ORG", "0192"},
		{"GLN", "0088"},
		{"SE:ORGNR", "0007"},
		{"DE:LID", "9958"},
	}
	for _, tt := range tests {
		t.Run(tt.schemeID, func(t *testing.T) {
			code, err := ResolveSchemeID(tt.schemeID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestResolveSchemeID_NumericPassthrough(t *testing.T) {
	code, err := ResolveSchemeID("0195")
	require.NoError(t, err)
	assert.Equal(t, "0195", code)

	// Numeric codes not present in the table still pass through.
	code, err = ResolveSchemeID("1234")
	require.NoError(t, err)
	assert.Equal(t, "1234", code)
}

func TestResolveSchemeID_Invalid(t *testing.T) {
	for _, schemeID := range []string{"XX:BOGUS", "123", "12345", "9908a", ""} {
		_, err := ResolveSchemeID(schemeID)
		require.Error(t, err, "schemeID %q", schemeID)

		var e *errmsg.Error
		require.True(t, errors.As(err, &e))
		assert.Equal(t, errmsg.KindInvalidScheme, e.Kind)
	}
}

func TestParseDocumentType(t *testing.T) {
	assert.Equal(t, Invoice, ParseDocumentType("Invoice"))
	assert.Equal(t, CreditNote, ParseDocumentType("CreditNote"))
	assert.Equal(t, OrderResponse, ParseDocumentType("OrderResponse"))
	assert.Equal(t, Catalogue, ParseDocumentType("Catalogue"))
	assert.Equal(t, Unknown, ParseDocumentType("Reminder"))
	assert.Equal(t, Unknown, ParseDocumentType(""))
}

func TestHeaderFileName(t *testing.T) {
	h := &Header{
		InstanceID:        "urn:uuid:b77c8f74-7c62-4fdb-be71-9b0ad255b126",
		CreationTimestamp: time.Date(2019, 4, 12, 9, 30, 15, 123_000_000, time.UTC),
	}
	assert.Equal(t, "20190412-093015123-b77c8f74-7c62-4fdb-be71-9b0ad255b126.xml", h.FileName())
}

func TestHeaderSenderID(t *testing.T) {
	h := &Header{Sender: "9908:889640782"}
	assert.Equal(t, "889640782", h.SenderID())

	h = &Header{Sender: "889640782"}
	assert.Equal(t, "889640782", h.SenderID())
}

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navikt/ehandelkanal-2/internal/outbound"
	"github.com/navikt/ehandelkanal-2/pkg/errmsg"
	"github.com/navikt/ehandelkanal-2/pkg/peppol"
)

type fakeSender struct {
	kind          peppol.DocumentType
	payload       []byte
	correlationID string
	err           error
}

func (f *fakeSender) Send(_ context.Context, kind peppol.DocumentType, payload []byte, correlationID string) (*peppol.Header, error) {
	f.kind = kind
	f.payload = payload
	f.correlationID = correlationID
	if f.err != nil {
		return nil, f.err
	}
	return &peppol.Header{InstanceID: correlationID}, nil
}

func doRequest(t *testing.T, sender *fakeSender, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	srv := New(Config{}, sender, nil)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := doRequest(t, &fakeSender{}, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"UP"}`, rec.Body.String())
}

func TestSendOrder_Success(t *testing.T) {
	sender := &fakeSender{}
	rec := doRequest(t, sender, http.MethodPost, "/api/v1/outbound/order", "<Order/>", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, peppol.Order, sender.kind)
	assert.Equal(t, "<Order/>", string(sender.payload))
	assert.NotEmpty(t, sender.correlationID, "a correlation id is assigned")
	assert.Equal(t, sender.correlationID, rec.Header().Get("X-Correlation-ID"))

	var resp outbound.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, outbound.StatusSuccess, resp.Status)
	assert.Equal(t, sender.correlationID, resp.CorrelationID)
}

func TestSendInvoice_CallerCorrelationIDHonored(t *testing.T) {
	sender := &fakeSender{}
	rec := doRequest(t, sender, http.MethodPost, "/api/v1/outbound/invoice", "<Invoice/>",
		map[string]string{"X-Correlation-ID": "caller-id-1"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, peppol.Invoice, sender.kind)
	assert.Equal(t, "caller-id-1", sender.correlationID)
	assert.Equal(t, "caller-id-1", rec.Header().Get("X-Correlation-ID"))
}

func TestSend_BadDocument(t *testing.T) {
	sender := &fakeSender{err: errmsg.New(errmsg.KindParse, "not an order")}
	rec := doRequest(t, sender, http.MethodPost, "/api/v1/outbound/order", "garbage", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp outbound.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, outbound.StatusBadRequest, resp.Status)
	assert.Contains(t, resp.Message, "not an order")
}

func TestSend_DownstreamFailure(t *testing.T) {
	sender := &fakeSender{err: errmsg.New(errmsg.KindTransmit, "0 of 1 succeeded")}
	rec := doRequest(t, sender, http.MethodPost, "/api/v1/outbound/order", "<Order/>", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp outbound.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, outbound.StatusFailed, resp.Status)
}

package archive

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navikt/ehandelkanal-2/pkg/errmsg"
)

func TestArchive(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "arkivuser", user)
		assert.Equal(t, "arkivpass", pass)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Write([]byte(`{"id": "ark-123"}`))
	}))
	defer srv.Close()

	client := NewClient(Config{
		URL: srv.URL, Username: "arkivuser", Password: "arkivpass", RetentionYears: 10,
	}, nil)

	ref, err := client.Archive(context.Background(), Request{
		MessageID: "msg-1",
		Sender:    "9908:889640782",
		Receiver:  "9908:810418052",
		Content:   []byte("<Invoice/>"),
	})
	require.NoError(t, err)
	assert.Equal(t, "ark-123", ref)

	assert.Equal(t, "msg-1", received["meldingsId"])
	assert.Equal(t, "9908:889640782", received["avsender"])
	assert.Equal(t, "9908:810418052", received["mottaker"])
	assert.Equal(t, float64(10), received["antallAarLagres"])

	content, err := base64.StdEncoding.DecodeString(received["meldingsInnhold"].(string))
	require.NoError(t, err)
	assert.Equal(t, "<Invoice/>", string(content))
}

func TestArchive_ServerFailureIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(Config{URL: srv.URL}, nil).Archive(context.Background(), Request{MessageID: "msg-2"})
	require.Error(t, err)
	assert.Equal(t, errmsg.KindServerResponse, errmsg.KindOf(err))
	assert.True(t, errmsg.Retryable(err))
}

func TestArchive_RejectionIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewClient(Config{URL: srv.URL}, nil).Archive(context.Background(), Request{MessageID: "msg-3"})
	require.Error(t, err)
	assert.False(t, errmsg.Retryable(err))
}

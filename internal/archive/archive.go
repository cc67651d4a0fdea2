// Package archive is the REST client for the legal archive, where received
// invoices and credit notes are stored for the statutory retention period.
package archive

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/navikt/ehandelkanal-2/pkg/errmsg"
)

// Config holds the archive endpoint and its basic auth credential.
type Config struct {
	URL      string        `yaml:"url"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"`
	// RetentionYears is how long the archive keeps each entry. Zero leaves
	// the archive's own default in effect.
	RetentionYears int `yaml:"retentionYears"`
}

// Request is one document to archive.
type Request struct {
	// MessageID correlates the archive entry with the inbound message.
	MessageID string
	Sender    string
	Receiver  string
	// Content is the raw document payload; it is base64-encoded on the wire.
	Content []byte
}

type archiveRequest struct {
	MeldingsID      string `json:"meldingsId"`
	Avsender        string `json:"avsender"`
	Mottaker        string `json:"mottaker"`
	MeldingsInnhold string `json:"meldingsInnhold"`
	JoarkRef        string `json:"joarkRef,omitempty"`
	AntallAarLagres int    `json:"antallAarLagres,omitempty"`
}

type archiveResponse struct {
	ID string `json:"id"`
}

// Client archives documents over HTTP.
type Client struct {
	cfg    Config
	httpc  *http.Client
	logger *slog.Logger
}

// NewClient builds an archive client. A nil logger falls back to
// slog.Default.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:    cfg,
		httpc:  &http.Client{Timeout: cfg.Timeout},
		logger: logger.With("component", "archive"),
	}
}

// Archive stores the document and returns the archive reference. Transport
// and server failures are retryable; a rejected request is not.
func (c *Client) Archive(ctx context.Context, req Request) (string, error) {
	payload, err := json.Marshal(archiveRequest{
		MeldingsID:      req.MessageID,
		Avsender:        req.Sender,
		Mottaker:        req.Receiver,
		MeldingsInnhold: base64.StdEncoding.EncodeToString(req.Content),
		AntallAarLagres: c.cfg.RetentionYears,
	})
	if err != nil {
		return "", errmsg.Wrap(errmsg.KindInternal, "encoding archive request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return "", errmsg.Wrap(errmsg.KindInternal, "building archive request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.cfg.Username, c.cfg.Password)

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return "", errmsg.Wrap(errmsg.KindServerResponse, "legal archive unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errmsg.Wrap(errmsg.KindServerResponse, "reading archive response", err)
	}
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return "", errmsg.WithStatus(errmsg.KindClientRequest, resp.StatusCode,
			fmt.Sprintf("legal archive rejected message %s", req.MessageID), nil)
	default:
		return "", errmsg.WithStatus(errmsg.KindServerResponse, resp.StatusCode,
			fmt.Sprintf("legal archive failed for message %s", req.MessageID), nil)
	}

	var ar archiveResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		return "", errmsg.Wrap(errmsg.KindDataBind, "parsing archive response", err)
	}
	c.logger.Info("document archived", "message_id", req.MessageID, "archive_ref", ar.ID)
	return ar.ID, nil
}

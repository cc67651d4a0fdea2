// Package accesspoint is the REST client for the PEPPOL access point: inbox
// polling and download on the inbound side, outbox submission and transmit
// on the outbound side.
//
// Every transport failure is classified before it leaves this package: 4xx
// responses become client request errors and are never retried, 5xx and
// connection failures become retryable server response errors, and bodies
// that fail structured parsing become data bind errors.
package accesspoint

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/navikt/ehandelkanal-2/pkg/errmsg"
	"github.com/navikt/ehandelkanal-2/pkg/peppol"
)

// Endpoint is one access point resource with its API key credential.
type Endpoint struct {
	URL          string `yaml:"url"`
	APIKeyHeader string `yaml:"apiKeyHeader"`
	APIKey       string `yaml:"apiKey"`
}

// Config holds the access point resource endpoints and client tuning.
type Config struct {
	Inbox    Endpoint `yaml:"inbox"`
	Messages Endpoint `yaml:"messages"`
	Outbox   Endpoint `yaml:"outbox"`
	Transmit Endpoint `yaml:"transmit"`

	// Username and Password are the basic auth credential sent on every
	// call, alongside the per-endpoint API key.
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	Timeout      time.Duration `yaml:"timeout"`
	RetryCount   int           `yaml:"retryCount"`
	RetryDelay   time.Duration `yaml:"retryDelay"`
	RetryMaxWait time.Duration `yaml:"retryMaxWait"`
}

// Client talks to the access point REST API.
type Client struct {
	cfg    Config
	httpc  *http.Client
	logger *slog.Logger
	retry  Policy
}

// NewClient builds a client from cfg. A nil logger falls back to
// slog.Default.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryCount == 0 {
		cfg.RetryCount = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.RetryMaxWait == 0 {
		cfg.RetryMaxWait = 10 * time.Second
	}
	return &Client{
		cfg:    cfg,
		httpc:  &http.Client{Timeout: cfg.Timeout},
		logger: logger.With("component", "accesspoint"),
		retry: Policy{
			Attempts:     cfg.RetryCount,
			InitialDelay: cfg.RetryDelay,
			MaxDelay:     cfg.RetryMaxWait,
		},
	}
}

// Count returns the number of unread messages in the inbox.
func (c *Client) Count(ctx context.Context) (int, error) {
	var count int
	err := Retry(ctx, c.logger, c.retry, "inbox count", func() error {
		body, err := c.get(ctx, c.cfg.Inbox, c.cfg.Inbox.URL+"/count", "text/plain")
		if err != nil {
			return err
		}
		count, err = strconv.Atoi(strings.TrimSpace(string(body)))
		if err != nil {
			return errmsg.Wrap(errmsg.KindDataBind, "parsing inbox count", err)
		}
		return nil
	})
	return count, err
}

// ListHeaders lists the unread inbox messages with their metadata.
func (c *Client) ListHeaders(ctx context.Context) ([]InboxMessage, error) {
	var listing inboxQueryResponse
	err := Retry(ctx, c.logger, c.retry, "inbox listing", func() error {
		body, err := c.get(ctx, c.cfg.Inbox, c.cfg.Inbox.URL, "application/xml")
		if err != nil {
			return err
		}
		listing = inboxQueryResponse{}
		if err := xml.Unmarshal(body, &listing); err != nil {
			return errmsg.Wrap(errmsg.KindDataBind, "parsing inbox listing", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return listing.Messages, nil
}

// Download fetches the enveloped document of one message. Payloads that are
// not valid UTF-8 are decoded as ISO 8859-1; the returned bytes are always
// UTF-8.
func (c *Client) Download(ctx context.Context, msgNo string) ([]byte, error) {
	var payload []byte
	err := Retry(ctx, c.logger, c.retry, "message download", func() error {
		body, err := c.get(ctx, c.cfg.Messages, fmt.Sprintf("%s/%s/xml-document", c.cfg.Messages.URL, msgNo), "application/xml")
		if err != nil {
			return err
		}
		payload = body
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(payload) {
		c.logger.Warn("payload is not valid UTF-8, falling back to ISO 8859-1", "msg_no", msgNo)
		payload = latin1ToUTF8(payload)
	}
	return payload, nil
}

// MarkRead marks one inbox message as read. It is a single attempt; the
// caller owns the retry schedule.
func (c *Client) MarkRead(ctx context.Context, msgNo string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/%s/read", c.cfg.Inbox.URL, msgNo), nil)
	if err != nil {
		return errmsg.Wrap(errmsg.KindInternal, "building mark-read request", err)
	}
	_, err = c.do(req, c.cfg.Inbox)
	return err
}

// Submit uploads an enveloped document to the outbox together with its
// addressing and returns the receipt identifying the queued message. The
// document is buffered up front so every retry attempt rebuilds the upload
// from the full body.
func (c *Client) Submit(ctx context.Context, header *peppol.Header, document io.Reader) (*OutboxReceipt, error) {
	payload, err := io.ReadAll(document)
	if err != nil {
		return nil, errmsg.Wrap(errmsg.KindInternal, "reading outbound document", err)
	}
	var receipt *OutboxReceipt
	err = Retry(ctx, c.logger, c.retry, "outbox submit", func() error {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", header.FileName())
		if err != nil {
			return errmsg.Wrap(errmsg.KindInternal, "building outbox upload", err)
		}
		if _, err := part.Write(payload); err != nil {
			return errmsg.Wrap(errmsg.KindInternal, "building outbox upload", err)
		}
		fields := map[string]string{
			"SenderID":    header.Sender,
			"RecipientID": header.Receiver,
			"DocumentID":  header.DocumentType,
			"ProcessID":   header.Process,
		}
		for name, value := range fields {
			if err := mw.WriteField(name, value); err != nil {
				return errmsg.Wrap(errmsg.KindInternal, "building outbox upload", err)
			}
		}
		if err := mw.Close(); err != nil {
			return errmsg.Wrap(errmsg.KindInternal, "building outbox upload", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Outbox.URL, &buf)
		if err != nil {
			return errmsg.Wrap(errmsg.KindInternal, "building outbox request", err)
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		body, err := c.do(req, c.cfg.Outbox)
		if err != nil {
			return err
		}
		var resp outboxPostResponse
		if err := xml.Unmarshal(body, &resp); err != nil {
			return errmsg.Wrap(errmsg.KindDataBind, "parsing outbox response", err)
		}
		receipt = &OutboxReceipt{MsgNo: resp.Message.MetaData.MsgNo}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// Transmit triggers transmission of a submitted outbox message. Anything but
// exactly one succeeded transmission is a domain-level transmit error.
func (c *Client) Transmit(ctx context.Context, msgNo string) error {
	return Retry(ctx, c.logger, c.retry, "transmit", func() error {
		body, err := c.get(ctx, c.cfg.Transmit,
			fmt.Sprintf("%s/%s", c.cfg.Transmit.URL, msgNo), "application/xml")
		if err != nil {
			return err
		}
		var resp transmitResponse
		if err := xml.Unmarshal(body, &resp); err != nil {
			return errmsg.Wrap(errmsg.KindDataBind, "parsing transmit response", err)
		}
		if resp.SucceededCount != 1 {
			return errmsg.New(errmsg.KindTransmit,
				fmt.Sprintf("transmit of message %s succeeded for %d of 1 receivers", msgNo, resp.SucceededCount))
		}
		return nil
	})
}

func (c *Client) get(ctx context.Context, ep Endpoint, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errmsg.Wrap(errmsg.KindInternal, "building request", err)
	}
	req.Header.Set("Accept", accept)
	return c.do(req, ep)
}

// do executes the request with the endpoint's credentials and classifies the
// response.
func (c *Client) do(req *http.Request, ep Endpoint) ([]byte, error) {
	if ep.APIKeyHeader != "" {
		req.Header.Set(ep.APIKeyHeader, ep.APIKey)
	}
	if c.cfg.Username != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, errmsg.Wrap(errmsg.KindServerResponse, "access point unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errmsg.Wrap(errmsg.KindServerResponse, "reading access point response", err)
	}
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, errmsg.WithStatus(errmsg.KindClientRequest, resp.StatusCode,
			fmt.Sprintf("access point rejected %s %s", req.Method, req.URL.Path), nil)
	default:
		return nil, errmsg.WithStatus(errmsg.KindServerResponse, resp.StatusCode,
			fmt.Sprintf("access point failed %s %s", req.Method, req.URL.Path), nil)
	}
}

// latin1ToUTF8 reinterprets b as ISO 8859-1 and re-encodes it as UTF-8.
func latin1ToUTF8(b []byte) []byte {
	out := make([]byte, 0, len(b)+len(b)/8)
	for _, c := range b {
		out = utf8.AppendRune(out, rune(c))
	}
	return out
}

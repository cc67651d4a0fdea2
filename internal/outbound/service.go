// Package outbound sends business documents out through the access point:
// parse, synthesize the envelope header, wrap, submit to the outbox and
// trigger transmission.
package outbound

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/navikt/ehandelkanal-2/internal/accesspoint"
	"github.com/navikt/ehandelkanal-2/pkg/peppol"
	"github.com/navikt/ehandelkanal-2/pkg/sbdh"
	"github.com/navikt/ehandelkanal-2/pkg/ubl"
)

// Submitter is the outbox surface of the access point client.
type Submitter interface {
	Submit(ctx context.Context, header *peppol.Header, document io.Reader) (*accesspoint.OutboxReceipt, error)
	Transmit(ctx context.Context, msgNo string) error
}

// Service runs the outbound pipeline.
type Service struct {
	submitter Submitter
	codec     *sbdh.Codec
	logger    *slog.Logger
	now       func() time.Time
}

// NewService builds the outbound service. A nil logger falls back to
// slog.Default.
func NewService(submitter Submitter, codec *sbdh.Codec, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		submitter: submitter,
		codec:     codec,
		logger:    logger.With("component", "outbound"),
		now:       time.Now,
	}
}

// Send pushes one raw business document of the given kind through the
// pipeline and returns the synthesized envelope header on success.
func (s *Service) Send(ctx context.Context, kind peppol.DocumentType, payload []byte, correlationID string) (*peppol.Header, error) {
	logger := s.logger.With("correlation_id", correlationID, "document_type", string(kind))

	doc, err := ubl.Parse(payload, kind)
	if err != nil {
		return nil, err
	}
	header, err := ubl.Synthesize(doc, correlationID, s.now())
	if err != nil {
		return nil, err
	}

	var enveloped bytes.Buffer
	if err := s.codec.Wrap(header, bytes.NewReader(payload), &enveloped); err != nil {
		return nil, err
	}

	receipt, err := s.submitter.Submit(ctx, header, &enveloped)
	if err != nil {
		return nil, err
	}
	logger = logger.With("msg_no", receipt.MsgNo)
	logger.Info("document submitted to outbox", "receiver", header.Receiver)

	if err := s.submitter.Transmit(ctx, receipt.MsgNo); err != nil {
		return nil, err
	}
	logger.Info("document transmitted")
	return header, nil
}

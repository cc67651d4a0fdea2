// Package inbound drains the access point inbox and routes each document to
// its destination.
//
// Polling is timer driven and gated: a tick only starts a batch when no
// batch is in flight, so a slow drain throttles polling instead of stacking
// batches. Within a batch a fixed worker pool processes messages
// concurrently. A message is only marked read at the access point after it
// has been routed; failure to route shunts the original enveloped payload to
// manual handling before the message is acknowledged, so nothing is dropped.
package inbound

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/navikt/ehandelkanal-2/internal/accesspoint"
	"github.com/navikt/ehandelkanal-2/internal/archive"
	"github.com/navikt/ehandelkanal-2/internal/report"
	"github.com/navikt/ehandelkanal-2/internal/sink"
	"github.com/navikt/ehandelkanal-2/pkg/peppol"
	"github.com/navikt/ehandelkanal-2/pkg/sbdh"
)

// AccessPoint is the inbox surface of the access point client.
type AccessPoint interface {
	Count(ctx context.Context) (int, error)
	ListHeaders(ctx context.Context) ([]accesspoint.InboxMessage, error)
	Download(ctx context.Context, msgNo string) ([]byte, error)
	MarkRead(ctx context.Context, msgNo string) error
}

// Archiver stores documents in the legal archive.
type Archiver interface {
	Archive(ctx context.Context, req archive.Request) (string, error)
}

// ReportStore records received documents for reporting.
type ReportStore interface {
	Insert(ctx context.Context, row report.Row) error
}

// Prober checks connectivity to the document-management FTP server.
type Prober interface {
	Probe(ctx context.Context) error
}

// Config tunes the inbound pipeline.
type Config struct {
	PollInterval time.Duration `yaml:"pollInterval"`
	Workers      int           `yaml:"workers"`
	// CatalogueSizeLimit is the largest catalogue body, in bytes, that still
	// rides the internal queue.
	CatalogueSizeLimit int           `yaml:"catalogueSizeLimit"`
	ProbeInterval      time.Duration `yaml:"probeInterval"`
}

func (c *Config) applyDefaults() {
	if c.PollInterval == 0 {
		c.PollInterval = 10 * time.Second
	}
	if c.Workers == 0 {
		c.Workers = 6
	}
	if c.CatalogueSizeLimit == 0 {
		c.CatalogueSizeLimit = 5 << 20
	}
	if c.ProbeInterval == 0 {
		c.ProbeInterval = 5 * time.Minute
	}
}

// Deps are the pipeline's collaborators.
type Deps struct {
	AccessPoint AccessPoint
	Codec       *sbdh.Codec
	Archiver    Archiver
	Reports     ReportStore

	Queue    sink.Sink
	FileArea sink.Sink
	FTP      sink.Sink
	Manual   sink.Sink

	Prober Prober
	Logger *slog.Logger
	// Fatal is invoked when the pipeline hits an irrecoverable condition.
	// Defaults to logging and exiting the process.
	Fatal func(error)
}

// Pipeline drains the inbox on a timer.
type Pipeline struct {
	cfg    Config
	deps   Deps
	gate   PollGate
	logger *slog.Logger

	markReadSchedule accesspoint.Policy
	manualSchedule   accesspoint.Policy
	archiveSchedule  accesspoint.Policy
	reportSchedule   accesspoint.Policy

	probeFailures int

	cancel context.CancelFunc
	wg     sync.WaitGroup
	// acks tracks detached mark-read goroutines so Stop can wait them out
	// once the context is cancelled.
	acks sync.WaitGroup
}

// New builds the pipeline. Unset config fields get defaults.
func New(cfg Config, deps Deps) *Pipeline {
	cfg.applyDefaults()
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	logger := deps.Logger.With("component", "inbound")
	if deps.Fatal == nil {
		deps.Fatal = func(err error) {
			logger.Error("irrecoverable failure, shutting down", "error", err)
			os.Exit(1)
		}
	}
	return &Pipeline{
		cfg:    cfg,
		deps:   deps,
		logger: logger,

		markReadSchedule: accesspoint.Policy{Attempts: 300, InitialDelay: 5 * time.Second, MaxDelay: 5 * time.Minute},
		manualSchedule:   accesspoint.Policy{Attempts: 30, InitialDelay: time.Second, MaxDelay: 10 * time.Second},
		archiveSchedule:  accesspoint.Policy{Attempts: 30, InitialDelay: time.Second, MaxDelay: 10 * time.Second},
		reportSchedule:   accesspoint.Policy{Attempts: 100, InitialDelay: time.Second, MaxDelay: time.Minute},
	}
}

// Start launches the poll loop and the FTP connectivity probe.
func (p *Pipeline) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.pollOnce(ctx)
			}
		}
	}()

	if p.deps.Prober != nil {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			ticker := time.NewTicker(p.cfg.ProbeInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					p.probeOnce(ctx)
				}
			}
		}()
	}
	p.logger.Info("inbound pipeline started",
		"poll_interval", p.cfg.PollInterval.String(),
		"workers", p.cfg.Workers,
	)
}

// Stop cancels the loops and waits for the in-flight batch and any pending
// acknowledgements to finish. Cancellation aborts their retry schedules, so
// this returns promptly.
func (p *Pipeline) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.acks.Wait()
	p.logger.Info("inbound pipeline stopped")
}

// pollOnce drains one inbox batch if the gate admits it.
func (p *Pipeline) pollOnce(ctx context.Context) {
	if !p.gate.TryAcquire() {
		p.logger.Debug("poll skipped, previous batch still in flight")
		return
	}
	defer p.gate.Release()

	count, err := p.deps.AccessPoint.Count(ctx)
	if err != nil {
		p.logger.Error("inbox count failed", "error", err)
		return
	}
	if count == 0 {
		return
	}
	messages, err := p.deps.AccessPoint.ListHeaders(ctx)
	if err != nil {
		p.logger.Error("inbox listing failed", "error", err)
		return
	}
	p.logger.Info("draining inbox batch", "count", len(messages))

	jobs := make(chan accesspoint.InboxMessage)
	var workers sync.WaitGroup
	for i := 0; i < p.cfg.Workers; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for msg := range jobs {
				p.processMessage(ctx, msg)
			}
		}()
	}
	for _, msg := range messages {
		select {
		case <-ctx.Done():
			close(jobs)
			workers.Wait()
			return
		case jobs <- msg:
		}
	}
	close(jobs)
	workers.Wait()
}

// processMessage runs one message through download, strip, route and
// mark-read. Download failures leave the message unread; the next poll picks
// it up again.
func (p *Pipeline) processMessage(ctx context.Context, msg accesspoint.InboxMessage) {
	msgNo := msg.MetaData.MsgNo
	logger := p.logger.With("msg_no", msgNo, "uuid", msg.MetaData.UUID)

	payload, err := p.deps.AccessPoint.Download(ctx, msgNo)
	if err != nil {
		logger.Error("download failed, message left unread", "error", err)
		return
	}
	logger.Info("file received", "size", len(payload), "sender", msg.MetaData.PeppolHeader.Sender)

	var body bytes.Buffer
	result, err := p.deps.Codec.Strip(bytes.NewReader(payload), &body)
	if err != nil {
		logger.Error("envelope strip failed, shunting to manual handling", "error", err)
		p.toManualHandling(ctx, logger, manualFileName(msg), payload)
		p.markRead(ctx, logger, msgNo)
		return
	}

	fileName := result.Header.FileName()
	logger = logger.With("file_name", fileName, "document_type", string(result.DocumentType))

	if result.DocumentType == peppol.Invoice || result.DocumentType == peppol.CreditNote {
		p.reportBestEffort(ctx, logger, result, fileName, body.Bytes())
	}

	route := Decide(result.DocumentType, body.Len(), p.cfg.CatalogueSizeLimit)
	if err := p.deliver(ctx, logger, route, result, fileName, body.Bytes()); err != nil {
		logger.Error("delivery failed, shunting to manual handling", "route", route.String(), "error", err)
		p.toManualHandling(ctx, logger, fileName, payload)
	}
	p.markRead(ctx, logger, msgNo)
}

// deliver executes the routing decision for one unwrapped document.
func (p *Pipeline) deliver(ctx context.Context, logger *slog.Logger, route Route, result *sbdh.StripResult, fileName string, body []byte) error {
	switch route {
	case RouteQueue:
		return p.deps.Queue.Deliver(ctx, fileName, body)
	case RouteFileArea:
		return p.deps.FileArea.Deliver(ctx, fileName, body)
	case RouteArchiveThenFTP:
		p.archiveBestEffort(ctx, logger, result, body)
		return p.deps.FTP.Deliver(ctx, fileName, body)
	case RouteManual:
		return fmt.Errorf("no automatic route for document type %q", result.Header.Type)
	}
	return fmt.Errorf("unhandled route %d", route)
}

// archiveBestEffort stores the document in the legal archive on a bounded
// retry schedule. Exhaustion is logged and the document still goes to
// document management.
func (p *Pipeline) archiveBestEffort(ctx context.Context, logger *slog.Logger, result *sbdh.StripResult, body []byte) {
	if p.deps.Archiver == nil {
		return
	}
	err := accesspoint.Retry(ctx, logger, p.archiveSchedule, "legal archive", func() error {
		_, err := p.deps.Archiver.Archive(ctx, archive.Request{
			MessageID: result.Header.InstanceID,
			Sender:    result.Header.Sender,
			Receiver:  result.Header.Receiver,
			Content:   body,
		})
		return err
	})
	if err != nil {
		logger.Error("legal archive failed, continuing without archive reference", "error", err)
	}
}

// reportBestEffort extracts and persists the report row. Never fails the
// message.
func (p *Pipeline) reportBestEffort(ctx context.Context, logger *slog.Logger, result *sbdh.StripResult, fileName string, body []byte) {
	if p.deps.Reports == nil {
		return
	}
	row, err := report.Extract(result.DocumentType, fileName, time.Now(), body)
	if err != nil {
		logger.Error("report extraction failed", "error", err)
		return
	}
	err = accesspoint.Retry(ctx, logger, p.reportSchedule, "report insert", func() error {
		return p.deps.Reports.Insert(ctx, *row)
	})
	if err != nil {
		logger.Error("report insert failed", "error", err)
	}
}

// toManualHandling delivers the original enveloped payload to the manual
// handling sink on a bounded retry schedule, dead-lettering on exhaustion.
func (p *Pipeline) toManualHandling(ctx context.Context, logger *slog.Logger, fileName string, payload []byte) {
	err := accesspoint.Retry(ctx, logger, p.manualSchedule, "manual handling", func() error {
		return p.deps.Manual.Deliver(ctx, fileName, payload)
	})
	if err != nil {
		logger.Error("dead letter: manual handling delivery exhausted, message content follows",
			"file_name", fileName,
			"error", err,
			"payload", string(payload),
		)
	} else {
		logger.Warn("document sent to manual handling", "file_name", fileName)
	}
}

// markRead acknowledges the message at the access point on a detached
// goroutine. The message's fate is already decided by the time this runs,
// and the schedule is long, so an unreachable ack endpoint must hold
// neither a batch worker nor the poll gate.
func (p *Pipeline) markRead(ctx context.Context, logger *slog.Logger, msgNo string) {
	p.acks.Add(1)
	go func() {
		defer p.acks.Done()
		err := accesspoint.Retry(ctx, logger, p.markReadSchedule, "mark read", func() error {
			return p.deps.AccessPoint.MarkRead(ctx, msgNo)
		})
		if err != nil {
			logger.Error("mark read exhausted, message may be redelivered", "error", err)
		}
	}()
}

// probeOnce checks FTP connectivity. Three consecutive failures are treated
// as irrecoverable: the gate closes and the process terminates so the
// platform restarts it.
func (p *Pipeline) probeOnce(ctx context.Context) {
	if err := p.deps.Prober.Probe(ctx); err != nil {
		p.probeFailures++
		p.logger.Error("ftp connectivity probe failed", "consecutive", p.probeFailures, "error", err)
		if p.probeFailures >= 3 {
			p.gate.ForceClose()
			p.deps.Fatal(fmt.Errorf("ftp connectivity lost: %w", err))
		}
		return
	}
	p.probeFailures = 0
}

// manualFileName names a payload that never got a synthesized header.
func manualFileName(msg accesspoint.InboxMessage) string {
	if msg.MetaData.UUID != "" {
		return msg.MetaData.UUID + ".xml"
	}
	return msg.MetaData.MsgNo + ".xml"
}

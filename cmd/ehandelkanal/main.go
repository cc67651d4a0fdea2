// Command ehandelkanal runs the EHF document gateway: it drains the access
// point inbox and routes received documents, and exposes the outbound HTTP
// API for sending documents through the access point.
package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/navikt/ehandelkanal-2/internal/accesspoint"
	"github.com/navikt/ehandelkanal-2/internal/archive"
	"github.com/navikt/ehandelkanal-2/internal/config"
	"github.com/navikt/ehandelkanal-2/internal/inbound"
	"github.com/navikt/ehandelkanal-2/internal/outbound"
	"github.com/navikt/ehandelkanal-2/internal/report"
	"github.com/navikt/ehandelkanal-2/internal/server"
	"github.com/navikt/ehandelkanal-2/internal/sink"
	"github.com/navikt/ehandelkanal-2/pkg/sbdh"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(*configPath, logger); err != nil {
		logger.Error("gateway failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, logger *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	var reports inbound.ReportStore
	var db *sql.DB
	if cfg.Report.DSN != "" {
		db, err = sql.Open("postgres", cfg.Report.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := report.Migrate(db); err != nil {
			return err
		}
		reports = report.NewStore(db, logger)
	} else {
		logger.Warn("report store disabled, no dsn configured")
	}

	queue := sink.NewQueue(cfg.Queue, logger)
	defer queue.Close()

	ftpSink := sink.NewFTP(cfg.FTP.FTPConfig, cfg.FTP.Dir, logger)
	manualSink := sink.NewFTP(cfg.FTP.FTPConfig, cfg.FTP.ManualDir, logger)
	fileArea := sink.NewFileArea(cfg.FileArea.Dir, logger)

	client := accesspoint.NewClient(cfg.AccessPoint, logger)
	codec := sbdh.NewCodec(logger)

	pipeline := inbound.New(cfg.Inbound, inbound.Deps{
		AccessPoint: client,
		Codec:       codec,
		Archiver:    archive.NewClient(cfg.Archive, logger),
		Reports:     reports,
		Queue:       queue,
		FileArea:    fileArea,
		FTP:         ftpSink,
		Manual:      manualSink,
		Prober:      ftpSink,
		Logger:      logger,
	})

	srv := server.New(cfg.Server, outbound.NewService(client, codec, logger), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipeline.Start(ctx)

	serverErr := make(chan error, 1)
	go func() { serverErr <- srv.Start() }()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			pipeline.Stop()
			return err
		}
	}

	pipeline.Stop()
	if err := srv.Stop(); err != nil {
		logger.Error("http server shutdown failed", "error", err)
	}
	logger.Info("gateway stopped")
	return nil
}

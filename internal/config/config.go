// Package config handles configuration loading for the gateway.
//
// Configuration is loaded from a YAML file with support for environment
// variable expansion (${VAR} or $VAR syntax). This allows sensitive values
// like database credentials and API keys to be injected at runtime.
//
// # Configuration Sections
//
//   - server: HTTP server settings for the outbound API
//   - accessPoint: access point REST endpoints and credentials
//   - inbound: inbox poll tuning (interval, workers, catalogue size limit)
//   - ftp: document-management FTP connection and target directories
//   - fileArea: local directory for oversized catalogues
//   - queue: Kafka brokers and topic for the internal queue
//   - archive: legal archive endpoint and basic auth credential
//   - report: Postgres connection for the report store
//
// # Example Configuration
//
//	server:
//	  addr: ":8080"
//
//	accessPoint:
//	  inbox:
//	    url: https://ap.example.com/inbox
//	    apiKeyHeader: X-API-KEY
//	    apiKey: ${ACCESS_POINT_API_KEY}
//
//	report:
//	  dsn: ${REPORT_DATABASE_URL}
//
// See [Load] for loading configuration from a file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/navikt/ehandelkanal-2/internal/accesspoint"
	"github.com/navikt/ehandelkanal-2/internal/archive"
	"github.com/navikt/ehandelkanal-2/internal/inbound"
	"github.com/navikt/ehandelkanal-2/internal/server"
	"github.com/navikt/ehandelkanal-2/internal/sink"
)

// Config is the root configuration structure.
type Config struct {
	Server      server.Config      `yaml:"server"`
	AccessPoint accesspoint.Config `yaml:"accessPoint"`
	Inbound     inbound.Config     `yaml:"inbound"`
	FTP         FTPConfig          `yaml:"ftp"`
	FileArea    FileAreaConfig     `yaml:"fileArea"`
	Queue       sink.QueueConfig   `yaml:"queue"`
	Archive     archive.Config     `yaml:"archive"`
	Report      ReportConfig       `yaml:"report"`
}

// FTPConfig holds the document-management FTP connection and the target
// directories for regular and manual-handling deliveries.
type FTPConfig struct {
	sink.FTPConfig `yaml:",inline"`
	// Dir receives routed invoices and credit notes.
	Dir string `yaml:"dir"`
	// ManualDir receives payloads shunted to manual handling.
	ManualDir string `yaml:"manualDir"`
}

// FileAreaConfig holds the shared directory for oversized catalogues.
type FileAreaConfig struct {
	Dir string `yaml:"dir"`
}

// ReportConfig holds the report store connection.
type ReportConfig struct {
	// DSN is the Postgres connection string. Empty disables the report
	// store.
	DSN string `yaml:"dsn"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.FTP.Dir == "" {
		c.FTP.Dir = "inbound"
	}
	if c.FTP.ManualDir == "" {
		c.FTP.ManualDir = "manual"
	}
	if c.FileArea.Dir == "" {
		c.FileArea.Dir = "/var/ehandel/filearea"
	}
	if c.Queue.Topic == "" {
		c.Queue.Topic = "ehandel.inbound"
	}
}

func (c *Config) validate() error {
	for name, ep := range map[string]accesspoint.Endpoint{
		"accessPoint.inbox":    c.AccessPoint.Inbox,
		"accessPoint.messages": c.AccessPoint.Messages,
		"accessPoint.outbox":   c.AccessPoint.Outbox,
		"accessPoint.transmit": c.AccessPoint.Transmit,
	} {
		if ep.URL == "" {
			return fmt.Errorf("%s.url is required", name)
		}
	}
	if c.FTP.Address == "" {
		return fmt.Errorf("ftp.address is required")
	}
	if len(c.Queue.Brokers) == 0 {
		return fmt.Errorf("queue.brokers is required")
	}
	if c.Archive.URL == "" {
		return fmt.Errorf("archive.url is required")
	}
	return nil
}

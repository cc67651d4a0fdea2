package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
server:
  addr: ":9090"

accessPoint:
  inbox:
    url: https://ap.example.com/inbox
    apiKeyHeader: X-API-KEY
    apiKey: ${TEST_AP_KEY}
  messages:
    url: https://ap.example.com/messages
  outbox:
    url: https://ap.example.com/outbox
  transmit:
    url: https://ap.example.com/transmit

inbound:
  pollInterval: 15s
  workers: 4
  catalogueSizeLimit: 1048576

ftp:
  address: ftp.example.com:21
  username: ehandel
  password: ${TEST_FTP_PASSWORD}
  dir: invoices

queue:
  brokers:
    - kafka-1:9092
    - kafka-2:9092
  topic: ehandel.inbound

archive:
  url: https://arkiv.example.com/archive
  username: arkiv
  password: secret

report:
  dsn: postgres://report:pw@db:5432/report
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_AP_KEY", "key-from-env")
	t.Setenv("TEST_FTP_PASSWORD", "ftp-secret")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "https://ap.example.com/inbox", cfg.AccessPoint.Inbox.URL)
	assert.Equal(t, "key-from-env", cfg.AccessPoint.Inbox.APIKey, "env var expanded")
	assert.Equal(t, 15*time.Second, cfg.Inbound.PollInterval)
	assert.Equal(t, 4, cfg.Inbound.Workers)
	assert.Equal(t, 1<<20, cfg.Inbound.CatalogueSizeLimit)
	assert.Equal(t, "ftp-secret", cfg.FTP.Password)
	assert.Equal(t, "invoices", cfg.FTP.Dir)
	assert.Equal(t, "manual", cfg.FTP.ManualDir, "default applied")
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Queue.Brokers)
	assert.Equal(t, "postgres://report:pw@db:5432/report", cfg.Report.DSN)
}

func TestLoad_MissingRequiredEndpoint(t *testing.T) {
	content := `
accessPoint:
  inbox:
    url: https://ap.example.com/inbox
ftp:
  address: ftp.example.com:21
queue:
  brokers: [kafka:9092]
archive:
  url: https://arkiv.example.com
`
	_, err := Load(writeConfig(t, content))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url is required")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

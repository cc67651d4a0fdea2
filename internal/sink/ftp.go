package sink

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/jlaffaye/ftp"
)

// FTPConfig holds the document-management FTP connection settings.
type FTPConfig struct {
	Address  string        `yaml:"address"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"`
}

// FTP delivers documents to one directory on the document-management FTP
// server. Each delivery uploads under a temporary name and renames into
// place so consumers never observe partial files.
type FTP struct {
	cfg    FTPConfig
	dir    string
	logger *slog.Logger
}

// NewFTP builds an FTP sink writing into dir. A nil logger falls back to
// slog.Default.
func NewFTP(cfg FTPConfig, dir string, logger *slog.Logger) *FTP {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &FTP{cfg: cfg, dir: dir, logger: logger.With("component", "ftp", "dir", dir)}
}

// Deliver uploads the payload into the sink directory.
func (f *FTP) Deliver(ctx context.Context, fileName string, payload []byte) error {
	conn, err := f.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Quit()

	final := path.Join(f.dir, fileName)
	tmp := final + ".part"
	if err := conn.Stor(tmp, bytes.NewReader(payload)); err != nil {
		return fmt.Errorf("uploading %s: %w", tmp, err)
	}
	if err := conn.Rename(tmp, final); err != nil {
		return fmt.Errorf("renaming %s into place: %w", tmp, err)
	}
	f.logger.Info("document sent to ftp", "file_name", fileName, "size", len(payload))
	return nil
}

// Probe verifies that the server is reachable and the sink directory is
// listable.
func (f *FTP) Probe(ctx context.Context) error {
	conn, err := f.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Quit()

	if _, err := conn.List(f.dir); err != nil {
		return fmt.Errorf("listing ftp dir %s: %w", f.dir, err)
	}
	return nil
}

func (f *FTP) dial(ctx context.Context) (*ftp.ServerConn, error) {
	conn, err := ftp.Dial(f.cfg.Address,
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(f.cfg.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to ftp %s: %w", f.cfg.Address, err)
	}
	if err := conn.Login(f.cfg.Username, f.cfg.Password); err != nil {
		conn.Quit()
		return nil, fmt.Errorf("ftp login failed: %w", err)
	}
	return conn, nil
}

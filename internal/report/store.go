// Package report persists a row per received invoice and credit note for
// downstream reporting. Writes are best effort: the inbound pipeline retries
// them on a bounded schedule but never fails a message over a missing report
// row.
package report

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Row is one reported document.
type Row struct {
	FileName      string
	DocumentType  string
	OrgNumber     string
	InvoiceNumber string
	PayerName     string
	// Amount is the payable amount as written in the document, kept as text
	// to avoid binary float rounding.
	Amount   string
	Currency string
	Received time.Time
	// Issued is the document's own issue date, yyyy-mm-dd.
	Issued string
}

// Store writes report rows to Postgres.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore wraps an open database handle. A nil logger falls back to
// slog.Default.
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger.With("component", "report")}
}

// Migrate brings the report schema up to date.
func Migrate(db *sql.DB) error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("loading report migrations: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("preparing report migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("preparing report migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrating report schema: %w", err)
	}
	return nil
}

// Insert writes one report row.
func (s *Store) Insert(ctx context.Context, row Row) error {
	const q = `
		INSERT INTO report (
			file_name, document_type, org_number, invoice_number,
			payer_name, amount, currency, received, issued
		) VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::numeric, $7, $8, NULLIF($9, '')::date)`
	if _, err := s.db.ExecContext(ctx, q,
		row.FileName, row.DocumentType, row.OrgNumber, row.InvoiceNumber,
		row.PayerName, row.Amount, row.Currency, row.Received, row.Issued,
	); err != nil {
		return fmt.Errorf("inserting report row for %s: %w", row.FileName, err)
	}
	s.logger.Debug("report row written", "file_name", row.FileName, "document_type", row.DocumentType)
	return nil
}

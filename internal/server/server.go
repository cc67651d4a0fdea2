// Package server exposes the outbound HTTP API and the liveness probe.
//
//   - POST /api/v1/outbound/order   - Send an order through the access point
//   - POST /api/v1/outbound/invoice - Send an invoice through the access point
//   - GET  /health                  - Liveness probe
//
// The request body is the raw business document. The response is a JSON
// status carrying the correlation id assigned to the submission.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/navikt/ehandelkanal-2/internal/outbound"
	"github.com/navikt/ehandelkanal-2/pkg/peppol"
)

type correlationIDKey struct{}

// Config holds the HTTP server settings.
type Config struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	// MaxBodyBytes caps the accepted document size.
	MaxBodyBytes int64 `yaml:"maxBodyBytes"`
}

func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 2 * time.Minute
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = 32 << 20
	}
}

// Sender is the outbound pipeline surface the server calls into.
type Sender interface {
	Send(ctx context.Context, kind peppol.DocumentType, payload []byte, correlationID string) (*peppol.Header, error)
}

// Server serves the outbound API.
type Server struct {
	cfg    Config
	sender Sender
	logger *slog.Logger
	httpd  *http.Server
}

// New builds the server. A nil logger falls back to slog.Default.
func New(cfg Config, sender Sender, logger *slog.Logger) *Server {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		sender: sender,
		logger: logger.With("component", "server"),
	}
	s.httpd = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Router builds the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.correlationIDMiddleware)

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1/outbound", func(r chi.Router) {
		r.Post("/order", s.sendHandler(peppol.Order))
		r.Post("/invoice", s.sendHandler(peppol.Invoice))
	})
	return r
}

// Start begins listening. A closed server is not an error.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.cfg.Addr)
	if err := s.httpd.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop drains in-flight requests within the shutdown timeout.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return s.httpd.Shutdown(ctx)
}

// correlationIDMiddleware assigns every request a correlation id, honoring
// one supplied by the caller.
func (s *Server) correlationIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Correlation-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Correlation-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), correlationIDKey{}, id)))
	})
}

func correlationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return id
	}
	return ""
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, map[string]string{"status": "UP"}, http.StatusOK)
}

// sendHandler accepts one raw business document of the given kind and runs
// it through the outbound pipeline.
func (s *Server) sendHandler(kind peppol.DocumentType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := correlationID(r.Context())
		logger := s.logger.With("correlation_id", id, "document_type", string(kind))

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
		if err != nil {
			logger.Error("reading request body failed", "error", err)
			s.jsonResponse(w, outbound.Response{
				CorrelationID: id,
				Status:        outbound.StatusBadRequest,
				Message:       "could not read request body",
			}, http.StatusBadRequest)
			return
		}

		_, err = s.sender.Send(r.Context(), kind, payload, id)
		resp, code := outbound.ResponseFor(id, err)
		if err != nil {
			logger.Error("outbound send failed", "status", string(resp.Status), "error", err)
		} else {
			logger.Info("outbound send completed")
		}
		s.jsonResponse(w, resp, code)
	}
}

func (s *Server) jsonResponse(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

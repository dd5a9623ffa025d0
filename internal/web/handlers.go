package web

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/csvmatrix"
	"github.com/JonMunkholm/csvmatrix/internal/bind"
	"github.com/JonMunkholm/csvmatrix/internal/config"
	"github.com/JonMunkholm/csvmatrix/internal/core"
	"github.com/JonMunkholm/csvmatrix/internal/logging"
	"github.com/JonMunkholm/csvmatrix/internal/store"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string             `json:"status"`
	Version string             `json:"version"`
	Ingest  core.LimiterStatus `json:"ingest"`
	Store   bool               `json:"store"`
}

// IngestResponse is the body of POST /api/ingest.
type IngestResponse struct {
	IngestID string `json:"ingestId"`
	core.TableView
}

// StoreResponse is the body of POST /api/ingest/store/{table}.
type StoreResponse struct {
	IngestID string `json:"ingestId"`
	Table    string `json:"table"`
	Rows     int64  `json:"rows"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, HealthResponse{
		Status:  "ok",
		Version: csvmatrix.Version().Core(),
		Ingest:  s.limiter.Status(),
		Store:   s.store != nil,
	})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	s.withTable(w, r, func(ctx context.Context, id string, t *core.Table) error {
		writeJSON(w, r, IngestResponse{IngestID: id, TableView: t.View()})
		return nil
	})
}

func (s *Server) handleIngestParquet(w http.ResponseWriter, r *http.Request) {
	s.withTable(w, r, func(ctx context.Context, id string, t *core.Table) error {
		var buf bytes.Buffer
		if err := bind.WriteParquet(&buf, t); err != nil {
			return err
		}
		w.Header().Set("Content-Type", "application/vnd.apache.parquet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".parquet"))
		w.Header().Set("X-Ingest-Id", id)
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		_, err := buf.WriteTo(w)
		if err != nil {
			logging.FromContext(ctx).Warn("parquet write interrupted", "ingest_id", id, "error", err)
		}
		return nil
	})
}

func (s *Server) handleIngestStore(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, r, core.ErrNoStore)
		return
	}
	name := chi.URLParam(r, "table")
	if store.SanitizeIdent(name) == "" {
		respondError(w, r, &requestError{msg: fmt.Sprintf("invalid table name %q", name)})
		return
	}

	s.withTable(w, r, func(ctx context.Context, id string, t *core.Table) error {
		n, err := s.store.SaveTable(ctx, name, t)
		if err != nil {
			return err
		}
		logging.FromContext(ctx).Info("table stored", "ingest_id", id, "table", name, "rows", n)
		writeJSON(w, r, StoreResponse{IngestID: id, Table: store.SanitizeIdent(name), Rows: n})
		return nil
	})
}

// withTable runs one ingest under the limiter and the ingest timeout, then
// hands the table to fn. Any error from reading or from fn is rendered with
// respondError.
func (s *Server) withTable(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id string, t *core.Table) error) {
	id := uuid.NewString()
	logger := logging.WithFields(r.Context(), "ingest_id", id)

	hasHeader, opts, err := s.requestOptions(r, logger)
	if err != nil {
		respondError(w, r, err)
		return
	}

	start := time.Now()
	release, err := s.limiter.Acquire(r.Context())
	if err != nil {
		s.metrics.Observe(err, 0, 0, time.Since(start))
		respondError(w, r, err)
		return
	}
	defer release()
	if s.metrics != nil {
		s.metrics.Active.Inc()
		defer s.metrics.Active.Dec()
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Ingest.Timeout)
	defer cancel()

	body, closeBody, err := core.Decompress(http.MaxBytesReader(w, r.Body, s.cfg.Ingest.MaxFileSize), r.Header.Get("Content-Encoding"))
	if err != nil {
		err = fmt.Errorf("decode body: %w", err)
		s.metrics.Observe(err, 0, 0, time.Since(start))
		respondError(w, r, err)
		return
	}
	defer closeBody()

	counted := &byteCounter{r: body}
	t, err := core.ReadTable(ctx, counted, hasHeader, opts)
	s.metrics.Observe(err, rowsOf(t), counted.n, time.Since(start))
	if err != nil {
		respondError(w, r, err)
		return
	}
	logger.Debug("ingest finished", "rows", t.NumRows(), "columns", t.NumColumns(), "bytes", counted.n)

	if err := fn(ctx, id, t); err != nil {
		respondError(w, r, err)
	}
}

// requestOptions applies query overrides to the configured defaults.
func (s *Server) requestOptions(r *http.Request, logger *slog.Logger) (bool, core.Options, error) {
	q := r.URL.Query()
	hasHeader := s.cfg.Ingest.Header
	opts := s.cfg.Ingest.Options(logger)

	if v, ok := q["header"]; ok {
		hasHeader = v[0] == core.HeaderPresent
	}
	if v := q.Get("pad"); v != "" {
		pad, err := strconv.ParseBool(v)
		if err != nil {
			return false, opts, &requestError{msg: fmt.Sprintf("invalid pad value %q", v)}
		}
		opts.RowPolicy = core.RowPolicyStrict
		if pad {
			opts.RowPolicy = core.RowPolicyPad
		}
	}
	if v := q.Get("delimiter"); v != "" {
		d, ok := config.ParseDelimiter(v)
		if !ok {
			return false, opts, &requestError{msg: fmt.Sprintf("invalid delimiter %q", v)}
		}
		opts.Delimiter = d
	}
	return hasHeader, opts, nil
}

func rowsOf(t *core.Table) int {
	if t == nil {
		return 0
	}
	return t.NumRows()
}

// byteCounter counts bytes handed to the reader.
type byteCounter struct {
	r io.Reader
	n int64
}

func (c *byteCounter) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

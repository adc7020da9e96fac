package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kasuganosora/gridsource/pkg/resource/application"
	"github.com/kasuganosora/gridsource/pkg/resource/domain"
)

// maxBodyBytes 请求体上限
const maxBodyBytes = 1 << 20

// maxGenerateCount 单次生成的最大行数
const maxGenerateCount = 10000

var errInjectedFailure = errors.New("injected failure")

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Version:  Version,
		Datasets: len(s.datasets.Names()),
	})
}

func (s *Server) handleDatasets(w http.ResponseWriter, r *http.Request) {
	list := s.datasets.List()
	infos := make([]application.Info, 0, len(list))
	for _, ds := range list {
		infos = append(infos, ds.Info())
	}
	writeJSON(w, http.StatusOK, DatasetsResponse{Datasets: infos})
}

// handleRows handles POST /api/v1/datasets/{name}/rows
func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	ds, err := s.datasets.Get(r.PathValue("name"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req domain.WindowRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeBadBody(w, r, err)
		return
	}
	if err := s.limits.Check(&req); err != nil {
		s.reject(w, r, "row_limit", err)
		return
	}

	release, err := s.sessions.Acquire(r.Context(), sessionKey(r))
	if err != nil {
		s.reject(w, r, "session_limit", err)
		return
	}
	defer release()

	if err := s.inject(r.Context()); err != nil {
		s.reject(w, r, "injected", err)
		return
	}

	result, err := s.resolver.Resolve(r.Context(), ds.Source, &req)
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			s.logger.Error("[HTTP API] %s rows %s: %v", GetRequestIDFromContext(r.Context()), ds.Name, err)
		}
		writeError(w, r, err)
		return
	}

	rows := result.Rows
	if rows == nil {
		rows = []domain.Row{}
	}
	if s.metrics != nil {
		s.metrics.observeWindow(ds.Name, result.Stats.Pushdown, len(rows))
	}
	s.logger.Debug("[HTTP API] %s rows %s [%d, %d) matched=%d scanned=%d pushdown=%v",
		GetRequestIDFromContext(r.Context()), ds.Name, req.StartRow, req.EndRow, result.RowCount, result.Stats.Scanned, result.Stats.Pushdown)

	writeJSON(w, http.StatusOK, RowsResponse{Rows: rows, RowCount: result.RowCount})
}

// handleGenerate handles POST /api/v1/datasets/{name}/generate
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ds, err := s.datasets.Get(r.PathValue("name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if ds.Generator == nil {
		writeError(w, r, domain.NewErrInvalidConfig("dataset", ds.Name+" does not generate rows"))
		return
	}

	var req GenerateRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeBadBody(w, r, err)
		return
	}
	if req.Count <= 0 || req.Count > maxGenerateCount {
		writeError(w, r, domain.NewErrInvalidConfig("count", fmt.Sprintf("must be within [1, %d]", maxGenerateCount)))
		return
	}

	inserted, err := ds.Generate(r.Context(), req.Count)
	if err != nil {
		writeError(w, r, err)
		return
	}
	count, err := ds.Source.Count(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.logger.Info("[HTTP API] generated %d rows for %s", inserted, ds.Name)
	writeJSON(w, http.StatusOK, GenerateResponse{Inserted: inserted, RowCount: count})
}

// handleUpdateRow handles PATCH /api/v1/datasets/{name}/rows/{id}
func (s *Server) handleUpdateRow(w http.ResponseWriter, r *http.Request) {
	ds, err := s.datasets.Get(r.PathValue("name"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req UpdateRowRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeBadBody(w, r, err)
		return
	}
	if req.Field == "" {
		writeError(w, r, domain.NewErrInvalidUpdate(req.Field, "field is required"))
		return
	}

	id := r.PathValue("id")
	row, err := ds.Update(r.Context(), id, req.Field, req.Value)
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			s.logger.Error("[HTTP API] %s update %s/%s: %v", GetRequestIDFromContext(r.Context()), ds.Name, id, err)
		}
		writeError(w, r, err)
		return
	}

	s.logger.Info("[HTTP API] updated %s row %s field %s", ds.Name, id, req.Field)
	writeJSON(w, http.StatusOK, UpdateRowResponse{Row: row})
}

func (s *Server) writeBadBody(w http.ResponseWriter, r *http.Request, err error) {
	// typed filter errors keep their own message
	if statusFor(err) == http.StatusBadRequest {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:     "invalid request body: " + err.Error(),
		Code:      http.StatusBadRequest,
		RequestID: GetRequestIDFromContext(r.Context()),
	})
}

func (s *Server) reject(w http.ResponseWriter, r *http.Request, reason string, err error) {
	if s.metrics != nil {
		s.metrics.RejectedTotal.WithLabelValues(reason).Inc()
	}
	writeError(w, r, err)
}

// inject applies the configured demo latency and failure rate
func (s *Server) inject(ctx context.Context) error {
	if d := s.cfg.Window.SimulatedLatency; d > 0 {
		timer := time.NewTimer(d)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
	if rate := s.cfg.Window.FailureRate; rate > 0 && s.chance() < rate {
		return errInjectedFailure
	}
	return nil
}

func decodeBody(r *http.Request, v interface{}) error {
	body := io.LimitReader(r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return err
	}
	return nil
}

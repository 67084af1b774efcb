package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"dataexplorer/app/aggregate"
	"dataexplorer/app/classify"
	"dataexplorer/app/export"
	"dataexplorer/app/fileloader"
	"dataexplorer/app/query"
	"dataexplorer/app/session"
	"dataexplorer/app/timestamps"
)

// handleUpload accepts a multipart upload, opens a session for it and
// describes the classified schema back to the client.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.respondError(w, r, fmt.Errorf("file too large or invalid form: %w", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, fmt.Errorf("no file provided: %w", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("failed to read upload: %w", err), http.StatusInternalServerError)
		return
	}

	sess, err := s.sessions.Open(r.Context(), header.Filename, data)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, fileloader.ErrUnsupportedFormat) {
			status = http.StatusUnsupportedMediaType
		}
		s.respondError(w, r, err, status)
		return
	}

	writeJSON(w, http.StatusCreated, s.describe(sess))
}

// handleDescribe re-sends the schema of an open session.
func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.describe(sess))
}

// handleClose discards a session.
func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	s.sessions.Close(chi.URLParam(r, "sessionID"))
	w.WriteHeader(http.StatusNoContent)
}

// handleFilter parses a filter submission into controls, runs the
// builder and engine, and reports the filtered shape with a preview.
// Validation failures come back as 422 with the failure reason.
func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var req FilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("invalid filter request: %w", err), http.StatusBadRequest)
		return
	}

	controls, err := s.controlsFromRequest(req)
	if err != nil {
		s.respondError(w, r, err, http.StatusUnprocessableEntity)
		return
	}

	filtered, err := s.sessions.ApplyFilter(sess, controls)
	if err != nil {
		s.respondError(w, r, err, http.StatusUnprocessableEntity)
		return
	}

	previewRows := s.settings.PreviewRows
	if previewRows > filtered.NumRows() {
		previewRows = filtered.NumRows()
	}
	preview := make([][]string, previewRows)
	for i := 0; i < previewRows; i++ {
		preview[i] = filtered.Row(i)
	}

	writeJSON(w, http.StatusOK, FilterResponse{
		Rows:    filtered.NumRows(),
		Columns: filtered.ColumnNames(),
		Preview: preview,
	})
}

// handleExport streams the current filter result in the requested format.
// A Parquet backend failure is reported without invalidating earlier CSV
// downloads.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var format export.Format
	switch r.URL.Query().Get("format") {
	case "", "csv":
		format = export.FormatCSV
	case "parquet":
		format = export.FormatParquet
	default:
		s.respondError(w, r, fmt.Errorf("unknown export format %q", r.URL.Query().Get("format")), http.StatusBadRequest)
		return
	}

	artifact, err := s.sessions.Export(sess, format)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, session.ErrNoFilterApplied) || errors.Is(err, export.ErrCapabilityUnavailable) {
			status = http.StatusConflict
		}
		s.respondError(w, r, err, status)
		return
	}

	w.Header().Set("Content-Type", artifact.MIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(artifact.Data); err != nil {
		slog.Warn("failed to write export body", "error", err)
	}
}

// handleAggregate computes a grouped aggregation over the session's full
// or filtered table.
func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var req AggregateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("invalid aggregate request: %w", err), http.StatusBadRequest)
		return
	}

	fn, err := aggregate.ParseFunc(req.Func)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	table := sess.Table
	if req.Filtered {
		filtered, _, ok := sess.Filtered()
		if !ok {
			s.respondError(w, r, session.ErrNoFilterApplied, http.StatusConflict)
			return
		}
		table = filtered
	}

	result, err := aggregate.Apply(table, req.GroupBy, req.ValueColumn, fn)
	if err != nil {
		s.respondError(w, r, err, http.StatusUnprocessableEntity)
		return
	}

	rows := make([][]string, result.NumRows())
	for i := range rows {
		rows[i] = result.Row(i)
	}
	writeJSON(w, http.StatusOK, TableResponse{Columns: result.ColumnNames(), Rows: rows})
}

// controlsFromRequest converts wire values into parsed control values.
// Dates are parsed here so the core only ever sees epoch days.
func (s *Server) controlsFromRequest(req FilterRequest) (query.Controls, error) {
	controls := query.Controls{
		Projection: req.Columns,
		TimeColumn: req.TimeColumn,
	}

	for _, d := range req.Window {
		day, ok := timestamps.ParseDate(d, nil)
		if !ok {
			return controls, fmt.Errorf("invalid window date %q", d)
		}
		controls.Window = append(controls.Window, day)
	}

	if len(req.Numeric) > 0 {
		controls.Numeric = make(map[string]query.NumericRange, len(req.Numeric))
		for name, pair := range req.Numeric {
			if len(pair) != 2 {
				return controls, fmt.Errorf("numeric range for %q needs exactly two values", name)
			}
			controls.Numeric[name] = query.NumericRange{Min: pair[0], Max: pair[1]}
		}
	}

	if len(req.Dates) > 0 {
		controls.Dates = make(map[string]query.DateRange, len(req.Dates))
		for name, pair := range req.Dates {
			if len(pair) != 2 {
				return controls, fmt.Errorf("date range for %q needs exactly two values", name)
			}
			min, ok := timestamps.ParseDate(pair[0], nil)
			if !ok {
				return controls, fmt.Errorf("invalid date %q for column %q", pair[0], name)
			}
			max, ok := timestamps.ParseDate(pair[1], nil)
			if !ok {
				return controls, fmt.Errorf("invalid date %q for column %q", pair[1], name)
			}
			controls.Dates[name] = query.DateRange{MinDay: min, MaxDay: max}
		}
	}

	controls.Values = req.Values
	controls.Substrings = req.Substrings
	return controls, nil
}

// describe renders the session schema for the client, including the
// suggested default window for the default time column.
func (s *Server) describe(sess *session.Session) DatasetResponse {
	resp := DatasetResponse{
		SessionID: sess.ID,
		FileName:  sess.Name,
		FileType:  sess.FileType.String(),
		Rows:      sess.Table.NumRows(),
	}

	for _, name := range sess.Table.ColumnNames() {
		prof := sess.Schema[name]
		info := ColumnInfo{Name: name, Class: prof.Class.String()}
		switch prof.Class {
		case classify.Numeric:
			if prof.NonMissing > 0 {
				min, max := prof.Min, prof.Max
				info.Min, info.Max = &min, &max
			}
		case classify.Temporal:
			if prof.NonMissing > 0 {
				info.MinDate = timestamps.FormatDay(prof.MinDay)
				info.MaxDate = timestamps.FormatDay(prof.MaxDay)
			}
		case classify.CategoricalLow:
			info.Distinct = prof.Distinct
		}
		resp.Columns = append(resp.Columns, info)
	}

	temporal := sess.Schema.TemporalColumns(sess.Table)
	if timeCol := timestamps.DefaultTimeColumn(temporal); timeCol != "" {
		resp.TimeColumn = timeCol
		if prof := sess.Schema[timeCol]; prof.NonMissing > 0 {
			window := query.DefaultWindow(prof)
			resp.DefaultWindow = []string{
				timestamps.FormatDay(window.StartDay),
				timestamps.FormatDay(window.EndDay),
			}
		}
	}
	return resp
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

// respondError logs the technical error with the request ID and returns
// the message as a JSON error body.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"request_id", middleware.GetReqID(r.Context()),
	)
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

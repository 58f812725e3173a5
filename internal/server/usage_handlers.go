package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"

	"resumelift/internal/errors"
)

var exportContentTypes = map[string]string{
	"json": "application/json",
	"csv":  "text/csv",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// usageStatsHandler aggregates the trailing usage window.
func (s *Server) usageStatsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	windowDays := 0
	if raw := r.URL.Query().Get("windowDays"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeErrorResponse(w, "Invalid window",
				fmt.Sprintf("windowDays must be a positive integer, got %q", raw), http.StatusBadRequest)
			return
		}
		windowDays = n
	}

	stats, err := s.Usage.Stats(windowDays)
	if err != nil {
		writeErrorResponse(w, "Failed to compute usage stats", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// usageCostHandler reports calendar-period spending against configured limits.
func (s *Server) usageCostHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	monitoring, err := s.Usage.CostMonitoring()
	if err != nil {
		writeErrorResponse(w, "Failed to compute cost monitoring", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(monitoring); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// usageExportHandler renders the usage log as a downloadable file.
func (s *Server) usageExportHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}

	data, err := s.Usage.Export(format)
	if err != nil {
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) && appErr.Code == errors.ErrCodeInvalidFormat {
			writeErrorResponse(w, "Invalid export format", err.Error(), http.StatusBadRequest)
			return
		}
		writeErrorResponse(w, "Failed to export usage", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", exportContentTypes[format])
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "usage-export."+format))
	if _, err := w.Write(data); err != nil {
		s.Logger.Warn("Usage export write failed", "error", err.Error())
	}
}

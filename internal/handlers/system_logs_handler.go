package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/services/logviewer"
	"github.com/ternarybob/curator/internal/common"
)

// SystemLogsHandler serves the application's own log files for inspection.
type SystemLogsHandler struct {
	service *logviewer.Service
	logger  arbor.ILogger
}

func NewSystemLogsHandler(service *logviewer.Service) *SystemLogsHandler {
	return &SystemLogsHandler{
		service: service,
		logger:  common.GetLogger(),
	}
}

// ListLogFilesHandler handles GET /api/logs/files
func (h *SystemLogsHandler) ListLogFilesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	files, err := h.service.ListLogFiles()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list log files")
		WriteError(w, http.StatusInternalServerError, "failed to list log files")
		return
	}

	WriteJSON(w, http.StatusOK, files)
}

// GetLogContentHandler handles GET /api/logs/content
func (h *SystemLogsHandler) GetLogContentHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	filename := r.URL.Query().Get("filename")
	if filename == "" {
		WriteError(w, http.StatusBadRequest, "filename is required")
		return
	}

	limit := 1000
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	var levels []string
	if v := r.URL.Query().Get("levels"); v != "" {
		levels = strings.Split(v, ",")
	}

	entries, err := h.service.GetLogContent(filename, limit, levels)
	if err != nil {
		h.logger.Error().Err(err).Str("filename", filename).Msg("Failed to get log content")
		WriteError(w, http.StatusInternalServerError, "failed to get log content")
		return
	}

	WriteJSON(w, http.StatusOK, entries)
}

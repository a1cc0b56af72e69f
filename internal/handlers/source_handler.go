package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/interfaces"
	"github.com/ternarybob/curator/internal/models"
)

// SourceHandler manages monitored source configurations.
type SourceHandler struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

func NewSourceHandler(storage interfaces.StorageManager) *SourceHandler {
	return &SourceHandler{
		storage: storage,
		logger:  common.GetLogger(),
	}
}

// ListSourcesHandler returns the tenant's sources.
func (h *SourceHandler) ListSourcesHandler(w http.ResponseWriter, r *http.Request) {
	sources, err := h.storage.SourceStorage().ListSources(TenantParam(r))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sources": sources,
		"count":   len(sources),
	})
}

// CreateSourceHandler registers a new source.
func (h *SourceHandler) CreateSourceHandler(w http.ResponseWriter, r *http.Request) {
	var source models.SourceConfig
	if err := json.NewDecoder(r.Body).Decode(&source); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	if source.TenantID == "" {
		source.TenantID = TenantParam(r)
	}
	source.ID = common.NewSourceID()

	if err := source.Validate(); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.storage.SourceStorage().SaveSource(&source); err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Info().
		Str("source_id", source.ID).
		Str("tenant_id", source.TenantID).
		Str("type", string(source.Type)).
		Msg("Source created")
	WriteJSON(w, http.StatusCreated, source)
}

// GetSourceHandler returns one source by id.
func (h *SourceHandler) GetSourceHandler(w http.ResponseWriter, r *http.Request) {
	source, err := h.storage.SourceStorage().GetSource(h.sourceID(r))
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, source)
}

// UpdateSourceHandler replaces a source's mutable fields.
func (h *SourceHandler) UpdateSourceHandler(w http.ResponseWriter, r *http.Request) {
	existing, err := h.storage.SourceStorage().GetSource(h.sourceID(r))
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	var update models.SourceConfig
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	// Identity fields stay fixed
	update.ID = existing.ID
	update.TenantID = existing.TenantID
	update.CreatedAt = existing.CreatedAt

	if err := update.Validate(); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.storage.SourceStorage().SaveSource(&update); err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, update)
}

// DeleteSourceHandler removes a source. Its items stay until the next
// rebuild or explicit deletion.
func (h *SourceHandler) DeleteSourceHandler(w http.ResponseWriter, r *http.Request) {
	id := h.sourceID(r)
	if _, err := h.storage.SourceStorage().GetSource(id); err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	if err := h.storage.SourceStorage().DeleteSource(id); err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Info().Str("source_id", id).Msg("Source deleted")
	WriteSuccess(w, "source deleted")
}

func (h *SourceHandler) sourceID(r *http.Request) string {
	return strings.TrimPrefix(r.URL.Path, "/api/sources/")
}

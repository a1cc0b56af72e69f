package handlers

import (
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/models"
	syncsvc "github.com/ternarybob/curator/internal/services/sync"
)

// SyncHandler exposes the sync runner: trigger, rebuild and progress.
type SyncHandler struct {
	runner *syncsvc.Runner
	logger arbor.ILogger
}

func NewSyncHandler(runner *syncsvc.Runner) *SyncHandler {
	return &SyncHandler{
		runner: runner,
		logger: common.GetLogger(),
	}
}

// TriggerHandler starts a sync run. A source_id parameter syncs that one
// source, a source_type parameter syncs every enabled source of that type,
// otherwise every enabled source for the tenant. Answers 202 when the run
// starts and 409 when one is already in flight.
func (h *SyncHandler) TriggerHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	tenantID := TenantParam(r)
	sourceID := r.URL.Query().Get("source_id")
	sourceType := r.URL.Query().Get("source_type")

	var err error
	switch {
	case sourceID != "":
		err = h.runner.TriggerSource(tenantID, sourceID)
	case sourceType != "":
		err = h.runner.TriggerType(tenantID, models.SourceType(sourceType))
	default:
		err = h.runner.TriggerAll(tenantID)
	}

	if err != nil {
		h.writeTriggerError(w, err)
		return
	}

	h.logger.Info().
		Str("tenant_id", tenantID).
		Str("source_id", sourceID).
		Msg("Sync triggered via API")
	WriteAccepted(w, "sync started")
}

// RebuildHandler starts a full rebuild for the tenant.
func (h *SyncHandler) RebuildHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	tenantID := TenantParam(r)
	if err := h.runner.TriggerRebuild(tenantID); err != nil {
		h.writeTriggerError(w, err)
		return
	}

	h.logger.Info().Str("tenant_id", tenantID).Msg("Rebuild triggered via API")
	WriteAccepted(w, "rebuild started")
}

// StatusHandler returns the current or most recent run status.
func (h *SyncHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	WriteJSON(w, http.StatusOK, h.runner.Status())
}

func (h *SyncHandler) writeTriggerError(w http.ResponseWriter, err error) {
	if errors.Is(err, syncsvc.ErrAlreadyRunning) {
		WriteError(w, http.StatusConflict, err.Error())
		return
	}
	WriteError(w, http.StatusBadRequest, err.Error())
}

package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/interfaces"
)

type APIHandler struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

func NewAPIHandler(storage interfaces.StorageManager) *APIHandler {
	return &APIHandler{
		storage: storage,
		logger:  common.GetLogger(),
	}
}

// VersionHandler returns version information
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version":    common.GetVersion(),
		"build":      common.GetBuild(),
		"git_commit": common.GetGitCommit(),
	})
}

// HealthHandler returns health check status with item counts per tenant.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	response := map[string]interface{}{
		"status": "ok",
	}

	if tenants, err := h.storage.SourceStorage().ListTenants(); err == nil {
		counts := make(map[string]int, len(tenants))
		for _, tenant := range tenants {
			if count, err := h.storage.ItemStorage().CountItems(tenant); err == nil {
				counts[tenant] = count
			}
		}
		response["items"] = counts
	}

	WriteJSON(w, http.StatusOK, response)
}

// NotFoundHandler handles 404 errors with JSON response
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, map[string]interface{}{
		"error":   "Not Found",
		"path":    r.URL.Path,
		"message": "The requested endpoint does not exist",
	})
}

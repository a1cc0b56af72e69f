package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/interfaces"
	"github.com/ternarybob/curator/internal/models"
	"github.com/ternarybob/curator/internal/services/pipeline"
	syncsvc "github.com/ternarybob/curator/internal/services/sync"
)

// ItemHandler exposes content items: listing, inspection, deletion and
// forced reindexing.
type ItemHandler struct {
	storage      interfaces.StorageManager
	runner       *syncsvc.Runner
	orchestrator *pipeline.Orchestrator
	logger       arbor.ILogger
}

func NewItemHandler(storage interfaces.StorageManager, runner *syncsvc.Runner, orchestrator *pipeline.Orchestrator) *ItemHandler {
	return &ItemHandler{
		storage:      storage,
		runner:       runner,
		orchestrator: orchestrator,
		logger:       common.GetLogger(),
	}
}

// itemView is the API shape of a content item; raw text is omitted from
// listings to keep responses small.
type itemView struct {
	*models.ContentItem
	RawText string `json:"raw_text,omitempty"`
}

// ListHandler returns items filtered by tenant, source type and status.
func (h *ItemHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	limit, offset := GetPagingParams(r)
	opts := &interfaces.ListOptions{
		TenantID:   TenantParam(r),
		SourceType: models.SourceType(r.URL.Query().Get("source_type")),
		SourceID:   r.URL.Query().Get("source_id"),
		Status:     models.ProcessingStatus(r.URL.Query().Get("status")),
		Limit:      limit,
		Offset:     offset,
	}

	items, err := h.storage.ItemStorage().ListItems(opts)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	views := make([]itemView, len(items))
	for i, item := range items {
		views[i] = itemView{ContentItem: item}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items":  views,
		"count":  len(views),
		"limit":  limit,
		"offset": offset,
	})
}

// ItemRoutes dispatches /api/items/{id} and its subresources.
func (h *ItemHandler) ItemRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/items/")
	if rest == "" {
		WriteError(w, http.StatusNotFound, "missing item id")
		return
	}

	id, sub, _ := strings.Cut(rest, "/")
	switch sub {
	case "":
		switch r.Method {
		case "GET":
			h.getItem(w, id)
		case "DELETE":
			h.deleteItem(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case "reindex":
		if !RequireMethod(w, r, "POST") {
			return
		}
		h.reindexItem(w, r, id)
	case "stats":
		if !RequireMethod(w, r, "GET") {
			return
		}
		h.getStats(w, id)
	default:
		WriteError(w, http.StatusNotFound, "unknown item resource")
	}
}

func (h *ItemHandler) getItem(w http.ResponseWriter, id string) {
	item, err := h.storage.ItemStorage().GetItem(id)
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, itemView{ContentItem: item, RawText: item.RawText})
}

func (h *ItemHandler) deleteItem(w http.ResponseWriter, r *http.Request, id string) {
	item, err := h.storage.ItemStorage().GetItem(id)
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	if err := h.orchestrator.DeleteItem(r.Context(), item); err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Info().Str("item_id", id).Msg("Item deleted via API")
	WriteSuccess(w, "item deleted")
}

// reindexItem forces a synchronous pipeline run for one item, ignoring its
// fingerprint.
func (h *ItemHandler) reindexItem(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.runner.ReindexItem(r.Context(), id); err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	item, err := h.storage.ItemStorage().GetItem(id)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, itemView{ContentItem: item})
}

func (h *ItemHandler) getStats(w http.ResponseWriter, id string) {
	stats, err := h.storage.StatsStorage().GetStats(id)
	if err != nil || stats == nil {
		WriteError(w, http.StatusNotFound, "no stats for item")
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

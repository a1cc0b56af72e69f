package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/interfaces"
)

// SchedulerHandler exposes the scheduled sync job status.
type SchedulerHandler struct {
	scheduler interfaces.SchedulerService
	logger    arbor.ILogger
}

func NewSchedulerHandler(scheduler interfaces.SchedulerService) *SchedulerHandler {
	return &SchedulerHandler{
		scheduler: scheduler,
		logger:    common.GetLogger(),
	}
}

// StatusHandler returns the scheduled job status: schedule, last and next
// run times, and the last error if any.
func (h *SchedulerHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	WriteJSON(w, http.StatusOK, h.scheduler.GetJobStatus())
}

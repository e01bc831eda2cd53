package reminders

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/stillwater-counseling/practice-platform/pkg/logging"
)

// Handler exposes the reminder engine to the admin API.
type Handler struct {
	engine *Engine
	lock   *RunLock
	logger *logging.Logger
	now    func() time.Time
}

// NewHandler creates a reminders admin handler. The lock is optional; without
// one, runs rely on the engine's idempotence alone.
func NewHandler(engine *Engine, lock *RunLock, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{engine: engine, lock: lock, logger: logger, now: time.Now}
}

// Preview handles GET /admin/reminders/preview: a dry run of the batch.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.ProcessAll(r.Context(), h.now(), true)
	if err != nil {
		h.logger.Error("reminder preview failed", "error", err)
		http.Error(w, "failed to preview reminders", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Run handles POST /admin/reminders/run: one real batch, guarded by the run
// lock when configured.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	if h.lock != nil {
		ok, err := h.lock.Acquire(r.Context())
		if err != nil {
			h.logger.Error("run lock acquire failed", "error", err)
			http.Error(w, "failed to acquire run lock", http.StatusInternalServerError)
			return
		}
		if !ok {
			http.Error(w, "a reminder run is already in progress", http.StatusConflict)
			return
		}
		defer func() {
			if err := h.lock.Release(r.Context()); err != nil {
				h.logger.Error("run lock release failed", "error", err)
			}
		}()
	}

	result, err := h.engine.ProcessAll(r.Context(), h.now(), false)
	if err != nil {
		h.logger.Error("reminder run failed", "error", err)
		http.Error(w, "failed to run reminders", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

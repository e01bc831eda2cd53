package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/stillwater-counseling/practice-platform/pkg/logging"
)

// Lister reads the notification feed.
type Lister interface {
	List(ctx context.Context, limit int) ([]Notification, error)
}

// Handler exposes the notification feed to the admin API.
type Handler struct {
	store  Lister
	logger *logging.Logger
}

// NewHandler creates a dashboard handler.
func NewHandler(store Lister, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// ListNotifications handles GET /admin/notifications?limit=N.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}

	notifications, err := h.store.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list notifications", "error", err)
		http.Error(w, "failed to list notifications", http.StatusInternalServerError)
		return
	}
	if notifications == nil {
		notifications = []Notification{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"notifications": notifications,
		"count":         len(notifications),
	})
}

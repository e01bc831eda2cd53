package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/stillwater-counseling/practice-platform/internal/contacts"
	"github.com/stillwater-counseling/practice-platform/internal/schedule"
	"github.com/stillwater-counseling/practice-platform/pkg/logging"
)

// Handler handles HTTP requests for scheduling.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a new scheduling handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// GetAvailability handles GET /scheduling/availability?date=YYYY-MM-DD&contact_id=...
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		http.Error(w, "missing date parameter", http.StatusBadRequest)
		return
	}
	d, err := schedule.ParseDate(dateStr)
	if err != nil {
		http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	view, err := h.svc.DayAvailability(r.Context(), d, r.URL.Query().Get("contact_id"))
	if err != nil {
		if errors.Is(err, contacts.ErrContactNotFound) {
			http.Error(w, "contact not found", http.StatusNotFound)
			return
		}
		h.logger.Error("availability lookup failed", "error", err, "date", dateStr)
		http.Error(w, "failed to load availability", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ProposeRequest is the body for POST /scheduling/appointments.
type ProposeRequest struct {
	ContactID string    `json:"contact_id"`
	StartsAt  time.Time `json:"starts_at"`
}

// Propose handles POST /scheduling/appointments.
func (h *Handler) Propose(w http.ResponseWriter, r *http.Request) {
	var req ProposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ContactID == "" {
		http.Error(w, "missing contact_id", http.StatusBadRequest)
		return
	}

	result, err := h.svc.Propose(r.Context(), req.ContactID, req.StartsAt)
	if err != nil {
		h.writeBookingError(w, r, err, req.StartsAt, req.ContactID)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// RescheduleRequest is the body for POST /scheduling/appointments/reschedule.
type RescheduleRequest struct {
	CancelToken string    `json:"cancel_token"`
	StartsAt    time.Time `json:"starts_at"`
}

// Reschedule handles POST /scheduling/appointments/reschedule.
func (h *Handler) Reschedule(w http.ResponseWriter, r *http.Request) {
	var req RescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.CancelToken == "" {
		http.Error(w, "missing cancel_token", http.StatusBadRequest)
		return
	}

	result, err := h.svc.Reschedule(r.Context(), req.CancelToken, req.StartsAt)
	if err != nil {
		h.writeBookingError(w, r, err, req.StartsAt, "")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CancelRequest is the body for POST /scheduling/appointments/cancel.
type CancelRequest struct {
	CancelToken string `json:"cancel_token"`
}

// Cancel handles POST /scheduling/appointments/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.CancelToken == "" {
		http.Error(w, "missing cancel_token", http.StatusBadRequest)
		return
	}

	if err := h.svc.Cancel(r.Context(), req.CancelToken); err != nil {
		switch {
		case errors.Is(err, contacts.ErrTokenNotFound):
			http.Error(w, "unknown cancel token", http.StatusNotFound)
		case errors.Is(err, ErrNoActiveAppointment):
			http.Error(w, "no active appointment", http.StatusConflict)
		default:
			h.logger.Error("cancel failed", "error", err)
			http.Error(w, "failed to cancel appointment", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// ListUpcoming handles GET /admin/appointments?days=N.
func (h *Handler) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	days := 7
	if s := r.URL.Query().Get("days"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 90 {
			days = n
		}
	}
	booked, err := h.svc.Upcoming(r.Context(), days)
	if err != nil {
		h.logger.Error("upcoming lookup failed", "error", err)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}

	type upcoming struct {
		ContactID string    `json:"contact_id"`
		StartsAt  time.Time `json:"starts_at"`
		EndsAt    time.Time `json:"ends_at"`
	}
	out := make([]upcoming, 0, len(booked))
	for _, b := range booked {
		out = append(out, upcoming{ContactID: b.ContactID, StartsAt: b.Start, EndsAt: b.End})
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": out, "count": len(out)})
}

// bookingRejection answers a rejected proposal with the machine-readable
// reason plus a refreshed view of the day so the client can re-present
// options immediately.
type bookingRejection struct {
	Error        string   `json:"error"`
	Reason       string   `json:"reason,omitempty"`
	Availability *DayView `json:"availability,omitempty"`
}

func (h *Handler) writeBookingError(w http.ResponseWriter, r *http.Request, err error, at time.Time, contactID string) {
	var ineligible *schedule.IneligibleError
	var conflict *ConflictError

	switch {
	case errors.Is(err, contacts.ErrContactNotFound):
		http.Error(w, "contact not found", http.StatusNotFound)
	case errors.Is(err, contacts.ErrTokenNotFound):
		http.Error(w, "unknown cancel token", http.StatusNotFound)
	case errors.Is(err, ErrNoActiveAppointment):
		http.Error(w, "no active appointment", http.StatusConflict)
	case errors.Is(err, schedule.ErrInvalidInstant):
		http.Error(w, "invalid starts_at", http.StatusBadRequest)
	case errors.As(err, &ineligible):
		writeJSON(w, http.StatusUnprocessableEntity, bookingRejection{
			Error:        "slot_ineligible",
			Reason:       ineligible.Reason,
			Availability: h.refreshAvailability(r, at, contactID),
		})
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, bookingRejection{
			Error:        "slot_conflict",
			Availability: h.refreshAvailability(r, at, contactID),
		})
	default:
		h.logger.Error("booking failed", "error", err)
		http.Error(w, "failed to book appointment", http.StatusInternalServerError)
	}
}

func (h *Handler) refreshAvailability(r *http.Request, at time.Time, contactID string) *DayView {
	d, _, err := h.svc.tz.ToLocal(at)
	if err != nil {
		return nil
	}
	view, err := h.svc.DayAvailability(r.Context(), d, contactID)
	if err != nil {
		h.logger.Error("availability refresh failed", "error", err)
		return nil
	}
	return view
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

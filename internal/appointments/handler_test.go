package appointments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stillwater-counseling/practice-platform/internal/contacts"
	"github.com/stillwater-counseling/practice-platform/internal/schedule"
)

func TestHandlerGetAvailability(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/scheduling/availability?date=2026-01-07", nil)
	rec := httptest.NewRecorder()
	h.GetAvailability(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var view DayView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.Equal(t, "2026-01-07", view.Date)
	assert.Len(t, view.Slots, 16)
}

func TestHandlerGetAvailabilityBadDate(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc, nil)

	for _, query := range []string{"", "date=Jan-7", "date=2026-13-40"} {
		req := httptest.NewRequest(http.MethodGet, "/scheduling/availability?"+query, nil)
		rec := httptest.NewRecorder()
		h.GetAvailability(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "query %q", query)
	}
}

func TestHandlerPropose(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc, nil)
	c := f.repo.Put(&contacts.Contact{Name: "Dana", Email: "dana@example.com"})

	body, _ := json.Marshal(ProposeRequest{ContactID: c.ID, StartsAt: wednesdaySlot(f)})
	req := httptest.NewRequest(http.MethodPost, "/scheduling/appointments", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Propose(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var result BookingResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, c.ID, result.ContactID)
	assert.NotEmpty(t, result.CancelToken)
}

func TestHandlerProposeIneligibleReturnsAvailability(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc, nil)
	c := f.repo.Put(&contacts.Contact{Name: "Dana"})

	// Same-day request: rejected, and the response re-presents the day.
	sameDay := f.tz.ToInstant(schedule.Date{Year: 2026, Month: time.January, Day: 5}, schedule.MustTimeOfDay("16:00"))
	body, _ := json.Marshal(ProposeRequest{ContactID: c.ID, StartsAt: sameDay})
	req := httptest.NewRequest(http.MethodPost, "/scheduling/appointments", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Propose(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var rejection struct {
		Error        string   `json:"error"`
		Reason       string   `json:"reason"`
		Availability *DayView `json:"availability"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rejection))
	assert.Equal(t, "slot_ineligible", rejection.Error)
	assert.Equal(t, schedule.ReasonSameDay, rejection.Reason)
	require.NotNil(t, rejection.Availability)
	assert.Equal(t, "2026-01-05", rejection.Availability.Date)
	assert.NotEmpty(t, rejection.Availability.Slots)
}

func TestHandlerProposeConflict(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc, nil)
	c := f.repo.Put(&contacts.Contact{Name: "Dana"})
	at := wednesdaySlot(f)
	f.ledger.slots = []schedule.BookedSlot{{Start: at, End: at.Add(15 * time.Minute), ContactID: "other"}}

	body, _ := json.Marshal(ProposeRequest{ContactID: c.ID, StartsAt: at})
	req := httptest.NewRequest(http.MethodPost, "/scheduling/appointments", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Propose(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	var rejection struct {
		Error        string   `json:"error"`
		Availability *DayView `json:"availability"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rejection))
	assert.Equal(t, "slot_conflict", rejection.Error)
	require.NotNil(t, rejection.Availability)
}

func TestHandlerProposeValidation(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc, nil)
	c := f.repo.Put(&contacts.Contact{Name: "Dana"})

	cases := []struct {
		name string
		body string
		want int
	}{
		{"garbage body", "{not json", http.StatusBadRequest},
		{"missing contact", `{"starts_at":"2026-01-07T21:00:00Z"}`, http.StatusBadRequest},
		{"unknown contact", fmt.Sprintf(`{"contact_id":"ghost","starts_at":"%s"}`, wednesdaySlot(f).Format(time.RFC3339)), http.StatusNotFound},
		{"zero instant", fmt.Sprintf(`{"contact_id":"%s","starts_at":"0001-01-01T00:00:00Z"}`, c.ID), http.StatusBadRequest},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/scheduling/appointments", bytes.NewReader([]byte(tc.body)))
		rec := httptest.NewRecorder()
		h.Propose(rec, req)
		assert.Equal(t, tc.want, rec.Code, tc.name)
	}
}

func TestHandlerRescheduleAndCancel(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc, nil)
	c := f.repo.Put(&contacts.Contact{Name: "Dana"})
	first := thursdaySlot(f)
	require.NoError(t, f.repo.SaveAppointment(context.Background(), c.ID, first, contacts.AppointmentScheduled, "tok-1"))
	f.ledger.slots = []schedule.BookedSlot{{Start: first, End: first.Add(15 * time.Minute), ContactID: c.ID}}

	body, _ := json.Marshal(RescheduleRequest{CancelToken: "tok-1", StartsAt: wednesdaySlot(f)})
	req := httptest.NewRequest(http.MethodPost, "/scheduling/appointments/reschedule", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Reschedule(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result BookingResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, "tok-1", result.CancelToken)
	assert.True(t, result.Rescheduled)

	cancelBody, _ := json.Marshal(CancelRequest{CancelToken: "tok-1"})
	req = httptest.NewRequest(http.MethodPost, "/scheduling/appointments/cancel", bytes.NewReader(cancelBody))
	rec = httptest.NewRecorder()
	h.Cancel(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Cancelling again conflicts.
	req = httptest.NewRequest(http.MethodPost, "/scheduling/appointments/cancel", bytes.NewReader([]byte(`{"cancel_token":"tok-1"}`)))
	rec = httptest.NewRecorder()
	h.Cancel(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlerCancelUnknownToken(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/scheduling/appointments/cancel", bytes.NewReader([]byte(`{"cancel_token":"nope"}`)))
	rec := httptest.NewRecorder()
	h.Cancel(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerListUpcoming(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc, nil)
	at := testNow.Add(48 * time.Hour)
	f.ledger.slots = []schedule.BookedSlot{{Start: at, End: at.Add(15 * time.Minute), ContactID: "c-1"}}

	req := httptest.NewRequest(http.MethodGet, "/admin/appointments?days=7", nil)
	rec := httptest.NewRecorder()
	h.ListUpcoming(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Appointments []struct {
			ContactID string    `json:"contact_id"`
			StartsAt  time.Time `json:"starts_at"`
		} `json:"appointments"`
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Appointments, 1)
	assert.Equal(t, "c-1", resp.Appointments[0].ContactID)
}

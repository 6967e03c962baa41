package handlers

import (
	"net/http"
	"testing"
)

func TestGetAvailableSlotsRejectsPastDate(t *testing.T) {
	env := newHandlerEnv(t)

	w := env.request(t, http.MethodGet,
		"/doctors/"+env.doctor.ID+"/available-slots?date=2026-03-01", nil, env.patientUser)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a past date, got %d: %s", w.Code, w.Body.String())
	}

	// Today is still a valid grid request.
	w = env.request(t, http.MethodGet,
		"/doctors/"+env.doctor.ID+"/available-slots?date=2026-03-02", nil, env.patientUser)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for today, got %d: %s", w.Code, w.Body.String())
	}
}

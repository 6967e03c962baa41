package handlers

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"medipredict-server/internal/models"
)

func TestCreateAppointmentBoundsReasonLength(t *testing.T) {
	env := newHandlerEnv(t)
	slot := time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)

	w := env.request(t, http.MethodPost, "/appointments", gin.H{
		"doctorId":        env.doctor.ID,
		"appointmentDate": slot.Format(time.RFC3339),
		"reasonForVisit":  strings.Repeat("x", 501),
	}, env.patientUser)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized reason, got %d: %s", w.Code, w.Body.String())
	}

	var count int64
	if err := env.db.Model(&models.Appointment{}).Count(&count).Error; err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("rejected booking persisted %d appointments", count)
	}

	// Exactly 500 characters still fits.
	w = env.request(t, http.MethodPost, "/appointments", gin.H{
		"doctorId":        env.doctor.ID,
		"appointmentDate": slot.Format(time.RFC3339),
		"reasonForVisit":  strings.Repeat("x", 500),
	}, env.patientUser)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 at the length boundary, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCancelAppointmentBoundsReasonLength(t *testing.T) {
	env := newHandlerEnv(t)
	appointment := env.seedAppointment(t, handlerNow.Add(26*time.Hour), models.StatusScheduled)

	w := env.request(t, http.MethodPut, "/appointments/"+appointment.ID+"/cancel", gin.H{
		"reason": strings.Repeat("x", 501),
	}, env.patientUser)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized reason, got %d: %s", w.Code, w.Body.String())
	}

	var stored models.Appointment
	if err := env.db.First(&stored, "id = ?", appointment.ID).Error; err != nil {
		t.Fatal(err)
	}
	if stored.Status != models.StatusScheduled {
		t.Errorf("status = %s, want %s", stored.Status, models.StatusScheduled)
	}
}

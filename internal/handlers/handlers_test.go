package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"medipredict-server/internal/models"
	"medipredict-server/internal/repository"
	"medipredict-server/internal/scheduling"
)

type stubClock struct {
	now time.Time
}

func (c *stubClock) Now() time.Time { return c.now }

// Monday 2026-03-02 08:00 UTC; Tuesday 10:00 is the default slot,
// comfortably outside the 24-hour cutoff.
var handlerNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

type handlerEnv struct {
	db          *gorm.DB
	svc         *scheduling.Service
	router      *gin.Engine
	clock       *stubClock
	doctor      *models.Doctor
	doctorUser  *models.User
	patient     *models.Patient
	patientUser *models.User
	seq         int
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	clock := &stubClock{now: handlerNow}
	svc := scheduling.NewService(repository.NewAppointmentRepository(db), scheduling.NopTrigger{}, clock, zerolog.Nop())

	env := &handlerEnv{db: db, svc: svc, clock: clock}
	env.patientUser, env.patient = env.createPatient(t, "alice@example.test")
	env.doctorUser, env.doctor = env.createDoctor(t, "house@clinic.test")

	// Identity comes from headers instead of JWTs so each request can
	// act as a different user.
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-Test-User"); id != "" {
			c.Set("userID", id)
		}
		if role := c.GetHeader("X-Test-Role"); role != "" {
			c.Set("userRole", models.Role(role))
		}
	})

	appointmentHandler := NewAppointmentHandler(db, svc)
	doctorHandler := NewDoctorHandler(db, svc)
	consultationHandler := NewConsultationHandler(db, svc)
	router.POST("/appointments", appointmentHandler.CreateAppointment)
	router.PUT("/appointments/:id/cancel", appointmentHandler.CancelAppointment)
	router.GET("/doctors/:id/available-slots", doctorHandler.GetAvailableSlots)
	router.POST("/consultations", consultationHandler.CreateConsultation)
	env.router = router
	return env
}

func (e *handlerEnv) createUser(t *testing.T, email string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{Email: email, Role: role}
	if err := user.SetPassword("secret123"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if err := e.db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func (e *handlerEnv) createPatient(t *testing.T, email string) (*models.User, *models.Patient) {
	t.Helper()
	user := e.createUser(t, email, models.RolePatient)
	patient := &models.Patient{
		UserID:  user.ID,
		Profile: models.Profile{FirstName: "Test", LastName: "Patient"},
	}
	if err := e.db.Create(patient).Error; err != nil {
		t.Fatalf("create patient: %v", err)
	}
	return user, patient
}

func (e *handlerEnv) createDoctor(t *testing.T, email string) (*models.User, *models.Doctor) {
	t.Helper()
	user := e.createUser(t, email, models.RoleDoctor)
	doctor := &models.Doctor{
		UserID:             user.ID,
		Profile:            models.Profile{FirstName: "Gregory", LastName: "House"},
		Specialization:     "Diagnostics",
		LicenseNumber:      "LIC-1234",
		IsVerified:         true,
		AvailableDays:      "Monday,Tuesday,Wednesday,Thursday,Friday",
		AvailableTimeStart: "09:00",
		AvailableTimeEnd:   "17:00",
	}
	if err := e.db.Create(doctor).Error; err != nil {
		t.Fatalf("create doctor: %v", err)
	}
	return user, doctor
}

func (e *handlerEnv) seedAppointment(t *testing.T, at time.Time, status models.AppointmentStatus) *models.Appointment {
	t.Helper()
	e.seq++
	appointment := &models.Appointment{
		PatientID:          e.patient.ID,
		DoctorID:           e.doctor.ID,
		AppointmentDate:    at,
		ScheduledDate:      handlerNow.Add(-24 * time.Hour),
		DurationMinutes:    30,
		Status:             status,
		ConfirmationNumber: fmt.Sprintf("APT-TEST-%04d", e.seq),
	}
	if !status.IsTerminal() {
		appointment.HoldSlot()
	}
	if err := e.db.Create(appointment).Error; err != nil {
		t.Fatalf("create appointment: %v", err)
	}
	return appointment
}

func (e *handlerEnv) request(t *testing.T, method, path string, body interface{}, user *models.User) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set("X-Test-User", user.ID)
		req.Header.Set("X-Test-Role", string(user.Role))
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

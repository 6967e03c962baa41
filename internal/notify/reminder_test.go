package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"medipredict-server/internal/models"
)

type captureMailer struct {
	sent []string
	fail bool
}

func (m *captureMailer) Send(to, subject, body string) error {
	if m.fail {
		return errors.New("relay unreachable")
	}
	m.sent = append(m.sent, subject)
	return nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
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
	return db
}

func seedAppointment(t *testing.T, db *gorm.DB, at time.Time) *models.Appointment {
	t.Helper()

	patientUser := &models.User{Email: "patient@example.test", Role: models.RolePatient}
	if err := patientUser.SetPassword("secret123"); err != nil {
		t.Fatal(err)
	}
	doctorUser := &models.User{Email: "doctor@example.test", Role: models.RoleDoctor}
	if err := doctorUser.SetPassword("secret123"); err != nil {
		t.Fatal(err)
	}
	if err := db.Create(patientUser).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Create(doctorUser).Error; err != nil {
		t.Fatal(err)
	}

	patient := &models.Patient{UserID: patientUser.ID, Profile: models.Profile{FirstName: "Ann", LastName: "Lee"}}
	doctor := &models.Doctor{
		UserID:         doctorUser.ID,
		Profile:        models.Profile{FirstName: "Gregory", LastName: "House"},
		Specialization: "Diagnostics",
		LicenseNumber:  "LIC-1",
	}
	if err := db.Create(patient).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Create(doctor).Error; err != nil {
		t.Fatal(err)
	}

	appointment := &models.Appointment{
		PatientID:          patient.ID,
		DoctorID:           doctor.ID,
		AppointmentDate:    at,
		ScheduledDate:      at.Add(-48 * time.Hour),
		DurationMinutes:    30,
		Status:             models.StatusScheduled,
		ConfirmationNumber: "APT-TEST-0001",
	}
	appointment.HoldSlot()
	if err := db.Create(appointment).Error; err != nil {
		t.Fatal(err)
	}
	return appointment
}

func TestSweepSendsOneDayReminderOnce(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	seedAppointment(t, db, now.Add(20*time.Hour))

	mailer := &captureMailer{}
	reminder := NewReminder(db, mailer, fixedClock{now: now}, time.Hour, zerolog.Nop())

	reminder.Sweep(context.Background())
	if len(mailer.sent) != 1 {
		t.Fatalf("expected 1 reminder, got %d", len(mailer.sent))
	}
	if !strings.Contains(mailer.sent[0], "APT-TEST-0001") {
		t.Errorf("reminder subject %q missing confirmation number", mailer.sent[0])
	}

	// A second sweep must not repeat the same reminder.
	reminder.Sweep(context.Background())
	if len(mailer.sent) != 1 {
		t.Fatalf("reminder duplicated: %d sends", len(mailer.sent))
	}
}

func TestSweepSkipsDistantAppointments(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	seedAppointment(t, db, now.Add(30*time.Hour)) // between the 26h and 48h bands

	mailer := &captureMailer{}
	reminder := NewReminder(db, mailer, fixedClock{now: now}, time.Hour, zerolog.Nop())

	reminder.Sweep(context.Background())
	if len(mailer.sent) != 0 {
		t.Fatalf("expected no reminder for a 30-hour-out appointment, got %d", len(mailer.sent))
	}
}

func TestRetryFailedEventuallySends(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	appointment := seedAppointment(t, db, now.Add(20*time.Hour))

	mailer := &captureMailer{fail: true}
	reminder := NewReminder(db, mailer, fixedClock{now: now}, time.Hour, zerolog.Nop())

	reminder.Sweep(context.Background())

	var entry models.NotificationLog
	if err := db.First(&entry, "appointment_id = ?", appointment.ID).Error; err != nil {
		t.Fatalf("expected a failed notification log entry: %v", err)
	}
	if entry.IsSent || entry.RetryCount != 1 {
		t.Fatalf("entry = sent:%v retries:%d, want unsent with 1 retry", entry.IsSent, entry.RetryCount)
	}

	// Relay comes back; the retry pass delivers and marks the row sent.
	mailer.fail = false
	reminder.RetryFailed(context.Background())

	if err := db.First(&entry, "id = ?", entry.ID).Error; err != nil {
		t.Fatal(err)
	}
	if !entry.IsSent || entry.SentAt == nil {
		t.Fatalf("entry not marked sent after successful retry: sent:%v", entry.IsSent)
	}
	if entry.RetryCount != 2 {
		t.Errorf("retry count = %d, want 2", entry.RetryCount)
	}
}

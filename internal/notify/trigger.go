package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"medipredict-server/internal/models"
	"medipredict-server/internal/scheduling"
)

// EmailTrigger is the scheduling.NotificationTrigger backed by the
// notification log and a Mailer. Dispatch happens on a separate
// goroutine: the lifecycle transition that produced the event never
// waits for delivery and never observes a delivery failure. Failed
// sends stay in the log with their retry counter for the sweeper.
type EmailTrigger struct {
	db     *gorm.DB
	mailer Mailer
	log    zerolog.Logger
}

// NewEmailTrigger returns a trigger writing through db and mailer.
func NewEmailTrigger(db *gorm.DB, mailer Mailer, log zerolog.Logger) *EmailTrigger {
	return &EmailTrigger{db: db, mailer: mailer, log: log}
}

var _ scheduling.NotificationTrigger = (*EmailTrigger)(nil)

var eventNotificationTypes = map[scheduling.EventType]models.NotificationType{
	scheduling.EventBooked:      models.NotificationBooked,
	scheduling.EventConfirmed:   models.NotificationConfirmed,
	scheduling.EventCancelled:   models.NotificationCancelled,
	scheduling.EventRescheduled: models.NotificationRescheduled,
	scheduling.EventCompleted:   models.NotificationCompleted,
}

// Notify records and dispatches the event asynchronously.
func (t *EmailTrigger) Notify(_ context.Context, event scheduling.Event) {
	go t.dispatch(event)
}

func (t *EmailTrigger) dispatch(event scheduling.Event) {
	var user models.User
	if err := t.db.First(&user, "id = ?", event.RecipientUserID).Error; err != nil {
		t.log.Error().Err(err).
			Str("user_id", event.RecipientUserID).
			Str("event", string(event.Type)).
			Msg("notification recipient lookup failed")
		return
	}

	subject, body := composeEmail(event)
	entry := models.NotificationLog{
		Type:           eventNotificationTypes[event.Type],
		UserID:         user.ID,
		AppointmentID:  &event.AppointmentID,
		RecipientEmail: user.Email,
		Subject:        subject,
		MessageBody:    body,
	}

	if err := t.mailer.Send(user.Email, subject, body); err != nil {
		entry.ErrorMessage = err.Error()
		entry.RetryCount = 1
		t.log.Warn().Err(err).
			Str("appointment_id", event.AppointmentID).
			Msg("notification dispatch failed, queued for retry")
	} else {
		now := time.Now()
		entry.IsSent = true
		entry.SentAt = &now
	}

	if err := t.db.Create(&entry).Error; err != nil {
		t.log.Error().Err(err).Msg("notification log write failed")
	}
}

func composeEmail(event scheduling.Event) (subject, body string) {
	p := event.Payload
	switch event.Type {
	case scheduling.EventBooked:
		subject = "Appointment Confirmation - " + p["confirmationNumber"]
		body = fmt.Sprintf(
			"Your appointment with %s on %s at %s has been booked.\n\n"+
				"Reason for visit: %s\nConfirmation number: %s\n\n"+
				"Appointments can be cancelled or rescheduled up to 24 hours in advance.",
			p["doctorName"], p["appointmentDate"], p["appointmentTime"],
			p["reasonForVisit"], p["confirmationNumber"])
	case scheduling.EventConfirmed:
		subject = "Appointment Confirmed - " + p["confirmationNumber"]
		body = "Your appointment " + p["confirmationNumber"] + " has been confirmed by the clinic."
	case scheduling.EventCancelled:
		subject = "Appointment Cancelled - " + p["confirmationNumber"]
		body = fmt.Sprintf("Your appointment with %s on %s has been cancelled.",
			p["doctorName"], p["appointmentDate"])
		if p["reason"] != "" {
			body += "\nReason: " + p["reason"]
		}
	case scheduling.EventRescheduled:
		subject = "Appointment Rescheduled - " + p["confirmationNumber"]
		body = fmt.Sprintf("Your appointment with %s has been moved to %s at %s.",
			p["doctorName"], p["appointmentDate"], p["appointmentTime"])
	case scheduling.EventCompleted:
		subject = "Visit Summary Available - " + p["confirmationNumber"]
		body = "Your consultation has been completed. The visit summary is available in your patient portal."
	default:
		subject = "Appointment Update"
		body = "There has been an update to your appointment."
	}
	return subject, body
}

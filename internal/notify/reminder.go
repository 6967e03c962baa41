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

// Reminder periodically sweeps upcoming active appointments and sends
// reminder emails, and retries failed notification dispatches. Each
// reminder kind is sent at most once per appointment, deduplicated
// through the notification log.
type Reminder struct {
	db       *gorm.DB
	mailer   Mailer
	clock    scheduling.Clock
	interval time.Duration
	log      zerolog.Logger
}

const maxRetries = 5

// NewReminder returns a sweeper running every interval.
func NewReminder(db *gorm.DB, mailer Mailer, clock scheduling.Clock, interval time.Duration, log zerolog.Logger) *Reminder {
	return &Reminder{db: db, mailer: mailer, clock: clock, interval: interval, log: log}
}

// Run blocks, sweeping on every tick until ctx is cancelled.
func (r *Reminder) Run(ctx context.Context) {
	r.log.Info().Dur("interval", r.interval).Msg("appointment reminder sweeper started")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("appointment reminder sweeper stopped")
			return
		case <-ticker.C:
			r.Sweep(ctx)
			r.RetryFailed(ctx)
		}
	}
}

// Sweep sends due reminders for active appointments in the next 72 hours.
func (r *Reminder) Sweep(ctx context.Context) {
	now := r.clock.Now()

	var appointments []models.Appointment
	err := r.db.WithContext(ctx).
		Preload("Patient").
		Preload("Doctor").
		Where("status IN ? AND appointment_date > ? AND appointment_date <= ?",
			models.ActiveStatuses, now, now.Add(72*time.Hour)).
		Find(&appointments).Error
	if err != nil {
		r.log.Error().Err(err).Msg("reminder sweep query failed")
		return
	}

	for i := range appointments {
		r.remind(ctx, &appointments[i], now)
	}
}

func (r *Reminder) remind(ctx context.Context, a *models.Appointment, now time.Time) {
	hoursUntil := a.AppointmentDate.Sub(now).Hours()

	var kind models.NotificationType
	switch {
	case hoursUntil <= 26:
		kind = models.NotificationReminder1Day
	case hoursUntil <= 72 && hoursUntil > 48:
		kind = models.NotificationReminder3Days
	default:
		return
	}

	var sent int64
	err := r.db.WithContext(ctx).Model(&models.NotificationLog{}).
		Where("appointment_id = ? AND type = ?", a.ID, kind).
		Count(&sent).Error
	if err != nil || sent > 0 {
		return
	}

	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", a.Patient.UserID).Error; err != nil {
		r.log.Error().Err(err).Str("appointment_id", a.ID).Msg("reminder recipient lookup failed")
		return
	}

	subject := "Upcoming Appointment Reminder - " + a.ConfirmationNumber
	body := fmt.Sprintf(
		"This is a reminder of your appointment with Dr. %s on %s at %s.\nConfirmation number: %s",
		a.Doctor.Profile.FullName(),
		a.AppointmentDate.Format("Monday, January 2, 2006"),
		a.AppointmentDate.Format("03:04 PM"),
		a.ConfirmationNumber)

	entry := models.NotificationLog{
		Type:           kind,
		UserID:         user.ID,
		AppointmentID:  &a.ID,
		RecipientEmail: user.Email,
		Subject:        subject,
		MessageBody:    body,
	}
	if err := r.mailer.Send(user.Email, subject, body); err != nil {
		entry.ErrorMessage = err.Error()
		entry.RetryCount = 1
	} else {
		entry.IsSent = true
		entry.SentAt = &now
	}

	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		r.log.Error().Err(err).Msg("reminder log write failed")
	}
}

// RetryFailed re-attempts unsent notifications below the retry cap.
func (r *Reminder) RetryFailed(ctx context.Context) {
	var pending []models.NotificationLog
	err := r.db.WithContext(ctx).
		Where("is_sent = ? AND retry_count > 0 AND retry_count < ?", false, maxRetries).
		Limit(50).
		Find(&pending).Error
	if err != nil {
		r.log.Error().Err(err).Msg("notification retry query failed")
		return
	}

	for i := range pending {
		entry := &pending[i]
		updates := map[string]interface{}{"retry_count": entry.RetryCount + 1}
		if err := r.mailer.Send(entry.RecipientEmail, entry.Subject, entry.MessageBody); err != nil {
			updates["error_message"] = err.Error()
		} else {
			now := r.clock.Now()
			updates["is_sent"] = true
			updates["sent_at"] = &now
			updates["error_message"] = ""
		}
		if err := r.db.WithContext(ctx).Model(entry).Updates(updates).Error; err != nil {
			r.log.Error().Err(err).Str("notification_id", entry.ID).Msg("notification retry update failed")
		}
	}
}

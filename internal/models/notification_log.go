package models

import (
	"time"
)

// NotificationType identifies what kind of notification was dispatched.
type NotificationType string

const (
	NotificationBooked        NotificationType = "AppointmentBooked"
	NotificationConfirmed     NotificationType = "AppointmentConfirmed"
	NotificationCancelled     NotificationType = "AppointmentCancelled"
	NotificationRescheduled   NotificationType = "AppointmentRescheduled"
	NotificationCompleted     NotificationType = "AppointmentCompleted"
	NotificationReminder1Day  NotificationType = "AppointmentReminder1Day"
	NotificationReminder3Days NotificationType = "AppointmentReminder3Days"
)

// NotificationLog records one notification dispatch attempt. Delivery is
// fire-and-forget from the lifecycle's point of view; failures land here
// with a retry counter and never fail the triggering transition.
type NotificationLog struct {
	BaseModel
	Type           NotificationType `gorm:"size:50;not null" json:"type"`
	UserID         string           `gorm:"size:36;index;not null" json:"userId"`
	AppointmentID  *string          `gorm:"size:36;index" json:"appointmentId,omitempty"`
	RecipientEmail string           `gorm:"size:256;not null" json:"recipientEmail"`
	Subject        string           `gorm:"size:500" json:"subject,omitempty"`
	MessageBody    string           `gorm:"type:text" json:"-"`
	IsSent         bool             `gorm:"default:false" json:"isSent"`
	SentAt         *time.Time       `json:"sentAt,omitempty"`
	ErrorMessage   string           `gorm:"size:500" json:"errorMessage,omitempty"`
	RetryCount     int              `gorm:"default:0" json:"retryCount"`
}

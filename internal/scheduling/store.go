package scheduling

import (
	"context"
	"time"

	"medipredict-server/internal/models"
)

// AppointmentStore is the persistence surface the booking core needs.
// The gorm implementation lives in internal/repository.
type AppointmentStore interface {
	// Get loads an appointment with its patient and doctor rows, or
	// ErrNotFound.
	Get(ctx context.Context, id string) (*models.Appointment, error)

	// Create inserts a new appointment. A violation of the active-slot
	// or confirmation-number unique index surfaces as
	// gorm.ErrDuplicatedKey.
	Create(ctx context.Context, a *models.Appointment) error

	// Update persists the mutable appointment fields guarded by the
	// row's current status: the write applies only while the stored
	// status still equals expected. Returns ErrStaleAppointment when a
	// concurrent writer got there first.
	Update(ctx context.Context, a *models.Appointment, expected models.AppointmentStatus) error

	// HasActiveAt reports whether an active appointment other than
	// excludeID occupies (doctorID, at).
	HasActiveAt(ctx context.Context, doctorID string, at time.Time, excludeID string) (bool, error)

	// HasActiveWith reports whether the patient holds an active
	// appointment with the doctor dated from or later, excluding
	// excludeID.
	HasActiveWith(ctx context.Context, patientID, doctorID string, from time.Time, excludeID string) (bool, error)

	// ActiveStartTimes lists the start times of the doctor's active
	// appointments within [dayStart, dayEnd), excluding excludeID.
	ActiveStartTimes(ctx context.Context, doctorID string, dayStart, dayEnd time.Time, excludeID string) ([]time.Time, error)
}

package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"medipredict-server/internal/models"
	"medipredict-server/internal/scheduling"
)

// AppointmentRepository is the gorm-backed scheduling.AppointmentStore.
type AppointmentRepository struct {
	db *gorm.DB
}

// NewAppointmentRepository returns a repository over db.
func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

var _ scheduling.AppointmentStore = (*AppointmentRepository)(nil)

// Get loads an appointment with its patient and doctor rows.
func (r *AppointmentRepository) Get(ctx context.Context, id string) (*models.Appointment, error) {
	var appointment models.Appointment
	err := r.db.WithContext(ctx).
		Preload("Patient").
		Preload("Doctor").
		First(&appointment, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, scheduling.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}

// Create inserts a new appointment row. Unique-index violations pass
// through as gorm.ErrDuplicatedKey for the service to interpret.
func (r *AppointmentRepository) Create(ctx context.Context, a *models.Appointment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// Update writes the mutable fields guarded by the expected status. The
// WHERE clause is the optimistic check: zero affected rows means a
// concurrent writer already moved the appointment out of expected.
func (r *AppointmentRepository) Update(ctx context.Context, a *models.Appointment, expected models.AppointmentStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ? AND status = ?", a.ID, expected).
		Updates(map[string]interface{}{
			"status":           a.Status,
			"appointment_date": a.AppointmentDate,
			"slot_guard":       a.SlotGuard,
			"notes":            a.Notes,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return scheduling.ErrStaleAppointment
	}
	return nil
}

// HasActiveAt reports whether another active appointment occupies the
// doctor's slot at the exact datetime.
func (r *AppointmentRepository) HasActiveAt(ctx context.Context, doctorID string, at time.Time, excludeID string) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("doctor_id = ? AND appointment_date = ? AND status IN ?", doctorID, at, models.ActiveStatuses)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasActiveWith reports whether the patient already holds an active
// appointment with the doctor dated from or later.
func (r *AppointmentRepository) HasActiveWith(ctx context.Context, patientID, doctorID string, from time.Time, excludeID string) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("patient_id = ? AND doctor_id = ? AND status IN ? AND appointment_date >= ?",
			patientID, doctorID, models.ActiveStatuses, from)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ActiveStartTimes lists start times of the doctor's active
// appointments within [dayStart, dayEnd).
func (r *AppointmentRepository) ActiveStartTimes(ctx context.Context, doctorID string, dayStart, dayEnd time.Time, excludeID string) ([]time.Time, error) {
	var times []time.Time
	query := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("doctor_id = ? AND status IN ? AND appointment_date >= ? AND appointment_date < ?",
			doctorID, models.ActiveStatuses, dayStart, dayEnd)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Order("appointment_date asc").Pluck("appointment_date", &times).Error; err != nil {
		return nil, err
	}
	return times, nil
}

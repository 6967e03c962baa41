package models

import (
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// IsActive reports whether the status still blocks a slot on the
// doctor's calendar. Completed and cancelled appointments do not.
func (s AppointmentStatus) IsActive() bool {
	return s == StatusScheduled || s == StatusConfirmed
}

// IsTerminal reports whether no further transitions are permitted.
func (s AppointmentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ActiveStatuses lists the statuses that occupy a slot, for use in queries.
var ActiveStatuses = []AppointmentStatus{StatusScheduled, StatusConfirmed}

// Appointment represents one scheduled clinical encounter.
//
// SlotGuard backs the storage-level uniqueness requirement for active
// appointments: it holds "active" while the appointment occupies its
// slot and NULL once the appointment is completed or cancelled, so the
// composite unique index only ever collides for two active rows on the
// same (doctor, datetime). A losing concurrent writer gets a duplicate
// key error instead of silently double-booking.
type Appointment struct {
	BaseModel
	PatientID      string  `gorm:"size:36;index;not null" json:"patientId"`
	DoctorID       string  `gorm:"size:36;not null;uniqueIndex:idx_doctor_slot" json:"doctorId"`
	SymptomEntryID *string `gorm:"size:36" json:"symptomEntryId,omitempty"`

	ScheduledDate   time.Time         `json:"scheduledDate"`
	AppointmentDate time.Time         `gorm:"not null;uniqueIndex:idx_doctor_slot" json:"appointmentDate"`
	DurationMinutes int               `gorm:"default:30" json:"durationMinutes"`
	Status          AppointmentStatus `gorm:"size:20;default:'scheduled'" json:"status"`
	SlotGuard       *string           `gorm:"size:10;uniqueIndex:idx_doctor_slot" json:"-"`

	ConfirmationNumber string `gorm:"size:50;uniqueIndex;not null" json:"confirmationNumber"`
	ReasonForVisit     string `gorm:"size:500" json:"reasonForVisit,omitempty"`
	Notes              string `gorm:"size:500" json:"notes,omitempty"`

	// Relations
	Patient      Patient       `gorm:"foreignKey:PatientID" json:"-"`
	Doctor       Doctor        `gorm:"foreignKey:DoctorID" json:"-"`
	SymptomEntry *SymptomEntry `gorm:"foreignKey:SymptomEntryID" json:"-"`
}

const slotGuardActive = "active"

// HoldSlot marks the appointment as occupying its slot.
func (a *Appointment) HoldSlot() {
	guard := slotGuardActive
	a.SlotGuard = &guard
}

// ReleaseSlot frees the slot for the slot calculator and the unique index.
func (a *Appointment) ReleaseSlot() {
	a.SlotGuard = nil
}

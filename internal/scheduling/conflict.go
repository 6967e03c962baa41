package scheduling

import (
	"context"
	"time"
)

// ConflictPolicy gates booking and reschedule requests before they
// reach persistence. The checks run against current persisted state;
// the storage-level unique index on active (doctor, datetime) rows
// remains the authoritative guard under concurrent writers.
type ConflictPolicy struct {
	store AppointmentStore
	clock Clock
}

// NewConflictPolicy returns a policy reading through store.
func NewConflictPolicy(store AppointmentStore, clock Clock) *ConflictPolicy {
	return &ConflictPolicy{store: store, clock: clock}
}

// CheckBookingAllowed validates a proposed (patient, doctor, datetime)
// tuple. excludeID names the appointment being rescheduled, if any, so
// it does not conflict with itself.
//
// Rule A: the slot must not be held by another active appointment for
// the doctor. Rule B: the patient must not already hold an active
// appointment with the doctor dated today or later, regardless of the
// requested time. Rule B is intentionally coarser than per-slot
// conflict: one pending consultation per doctor per patient.
func (p *ConflictPolicy) CheckBookingAllowed(ctx context.Context, patientID, doctorID string, at time.Time, excludeID string) error {
	taken, err := p.store.HasActiveAt(ctx, doctorID, at, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return ErrSlotUnavailable
	}

	held, err := p.store.HasActiveWith(ctx, patientID, doctorID, p.clock.Now(), excludeID)
	if err != nil {
		return err
	}
	if held {
		return ErrExistingActiveAppointment
	}

	return nil
}

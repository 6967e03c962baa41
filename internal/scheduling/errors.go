package scheduling

import "errors"

// Domain errors returned by the booking core. Handlers translate these
// into user-facing responses; infrastructure failures (database,
// notification dispatch) are never mapped onto them.
var (
	// ErrSlotUnavailable means the requested date/time is already
	// occupied by another active appointment for that doctor.
	ErrSlotUnavailable = errors.New("this time slot is already booked")

	// ErrExistingActiveAppointment means the patient already holds a
	// scheduled or confirmed appointment with that doctor.
	ErrExistingActiveAppointment = errors.New("patient already has an active appointment with this doctor")

	// ErrTooLateToModify means the 24-hour cutoff has passed.
	ErrTooLateToModify = errors.New("appointments can only be changed at least 24 hours in advance")

	// ErrTerminalState means the appointment is completed or cancelled
	// and accepts no further transitions.
	ErrTerminalState = errors.New("appointment is already completed or cancelled")

	// ErrInvalidTransition means the requested status change is not in
	// the transition table, e.g. confirming an already confirmed
	// appointment.
	ErrInvalidTransition = errors.New("status transition not permitted")

	// ErrNotFound means the appointment does not exist or does not
	// belong to the requester.
	ErrNotFound = errors.New("appointment not found")

	// ErrInvalidDuration means the duration is outside 15-480 minutes
	// or does not fit the slot grid.
	ErrInvalidDuration = errors.New("appointment duration does not fit the slot grid")

	// ErrStaleAppointment is returned by the store when a guarded
	// update matched no row, i.e. a concurrent writer changed the
	// status first.
	ErrStaleAppointment = errors.New("appointment was modified concurrently")
)

package scheduling

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"medipredict-server/internal/models"
)

// ModificationCutoff is the single rule governing cancel and reschedule
// eligibility: both require at least this much notice before the
// appointment time, for patients and doctors alike.
const ModificationCutoff = 24 * time.Hour

// transitions is the authoritative state machine table. A transition
// absent from here is denied; terminal states have no entry at all.
var transitions = map[models.AppointmentStatus][]models.AppointmentStatus{
	models.StatusScheduled: {
		models.StatusScheduled, // reschedule, in-place
		models.StatusConfirmed,
		models.StatusCancelled,
		models.StatusCompleted,
	},
	models.StatusConfirmed: {
		models.StatusScheduled, // reschedule drops back to scheduled
		models.StatusCancelled,
		models.StatusCompleted,
	},
}

func checkTransition(from, to models.AppointmentStatus) error {
	if from.IsTerminal() {
		return ErrTerminalState
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return nil
		}
	}
	return ErrInvalidTransition
}

// Service is the appointment lifecycle: it validates slots, applies the
// conflict policy and drives status transitions against the store.
type Service struct {
	store    AppointmentStore
	policy   *ConflictPolicy
	calc     *Calculator
	clock    Clock
	notifier NotificationTrigger
	log      zerolog.Logger
}

// NewService wires the booking core together.
func NewService(store AppointmentStore, notifier NotificationTrigger, clock Clock, log zerolog.Logger) *Service {
	return &Service{
		store:    store,
		policy:   NewConflictPolicy(store, clock),
		calc:     NewCalculator(clock),
		clock:    clock,
		notifier: notifier,
		log:      log,
	}
}

// Calculator exposes the slot calculator, mainly for handlers that only
// need the grid.
func (s *Service) Calculator() *Calculator { return s.calc }

// Now reports the service clock's current time.
func (s *Service) Now() time.Time { return s.clock.Now() }

// WithStore returns a copy of the service bound to store, so a
// lifecycle transition can join a caller-managed transaction.
func (s *Service) WithStore(store AppointmentStore) *Service {
	clone := *s
	clone.store = store
	clone.policy = NewConflictPolicy(store, s.clock)
	return &clone
}

// CanModify reports whether an appointment at the given time is still
// inside the modification window. Exactly 24 hours of notice is enough;
// anything less is not.
func (s *Service) CanModify(appointmentAt time.Time) bool {
	return appointmentAt.Sub(s.clock.Now()) >= ModificationCutoff
}

// AvailableSlots computes the doctor's slot grid for a date, marking
// slots held by active appointments. A doctor without a usable
// availability pattern yields an empty grid.
func (s *Service) AvailableSlots(ctx context.Context, doctor *models.Doctor, date time.Time) ([]TimeSlot, error) {
	av, ok := ParseAvailability(doctor.AvailableDays, doctor.AvailableTimeStart, doctor.AvailableTimeEnd)
	if !ok {
		return make([]TimeSlot, 0), nil
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	booked, err := s.store.ActiveStartTimes(ctx, doctor.ID, dayStart, dayStart.AddDate(0, 0, 1), "")
	if err != nil {
		return nil, err
	}

	return s.calc.ComputeSlots(av, date, booked), nil
}

// BookingRequest is a validated booking attempt for a patient with a
// doctor at a specific slot time.
type BookingRequest struct {
	Patient         *models.Patient
	Doctor          *models.Doctor
	At              time.Time
	DurationMinutes int
	ReasonForVisit  string
	Notes           string
	SymptomEntryID  *string
}

// Book creates an appointment in Scheduled state and assigns its
// confirmation number. The requested time must land on an available
// slot of the doctor's grid and pass the conflict policy.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*models.Appointment, error) {
	if req.DurationMinutes == 0 {
		req.DurationMinutes = int(s.calc.SlotDuration.Minutes())
	}
	if req.DurationMinutes < 15 || req.DurationMinutes > 480 ||
		req.DurationMinutes%int(s.calc.SlotDuration.Minutes()) != 0 {
		return nil, ErrInvalidDuration
	}

	if !req.At.After(s.clock.Now()) {
		return nil, ErrSlotUnavailable
	}

	if err := s.requireOpenSlot(ctx, req.Doctor, req.At, ""); err != nil {
		return nil, err
	}

	if err := s.policy.CheckBookingAllowed(ctx, req.Patient.ID, req.Doctor.ID, req.At, ""); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	appointment := &models.Appointment{
		PatientID:          req.Patient.ID,
		DoctorID:           req.Doctor.ID,
		SymptomEntryID:     req.SymptomEntryID,
		ScheduledDate:      now,
		AppointmentDate:    req.At,
		DurationMinutes:    req.DurationMinutes,
		Status:             models.StatusScheduled,
		ReasonForVisit:     req.ReasonForVisit,
		Notes:              req.Notes,
		ConfirmationNumber: s.newConfirmationNumber(),
	}
	appointment.HoldSlot()

	err := s.store.Create(ctx, appointment)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Either the slot index or the confirmation number collided.
		// Retry once with a fresh number; a second collision means a
		// concurrent writer won the slot.
		appointment.ConfirmationNumber = s.newConfirmationNumber()
		err = s.store.Create(ctx, appointment)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSlotUnavailable
		}
	}
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("appointment_id", appointment.ID).
		Str("doctor_id", req.Doctor.ID).
		Time("at", req.At).
		Msg("appointment booked")

	s.notifier.Notify(ctx, Event{
		AppointmentID:   appointment.ID,
		RecipientUserID: req.Patient.UserID,
		Type:            EventBooked,
		Payload: map[string]string{
			"confirmationNumber": appointment.ConfirmationNumber,
			"doctorName":         "Dr. " + req.Doctor.Profile.FullName(),
			"appointmentDate":    req.At.Format("Monday, January 2, 2006"),
			"appointmentTime":    req.At.Format("03:04 PM"),
			"reasonForVisit":     req.ReasonForVisit,
		},
	})

	return appointment, nil
}

// Cancel transitions an appointment to Cancelled and frees its slot.
// requesterUserID must belong to the appointment's patient or doctor.
func (s *Service) Cancel(ctx context.Context, id, requesterUserID, reason string) error {
	appointment, err := s.getOwned(ctx, id, requesterUserID)
	if err != nil {
		return err
	}

	from := appointment.Status
	if err := checkTransition(from, models.StatusCancelled); err != nil {
		return err
	}
	if !s.CanModify(appointment.AppointmentDate) {
		return ErrTooLateToModify
	}

	appointment.Status = models.StatusCancelled
	appointment.ReleaseSlot()
	if reason != "" {
		appointment.Notes = reason
	}
	if err := s.store.Update(ctx, appointment, from); err != nil {
		return err
	}

	s.log.Info().Str("appointment_id", id).Msg("appointment cancelled")
	s.notifier.Notify(ctx, Event{
		AppointmentID:   appointment.ID,
		RecipientUserID: appointment.Patient.UserID,
		Type:            EventCancelled,
		Payload: map[string]string{
			"confirmationNumber": appointment.ConfirmationNumber,
			"doctorName":         "Dr. " + appointment.Doctor.Profile.FullName(),
			"appointmentDate":    appointment.AppointmentDate.Format("Monday, January 2, 2006"),
			"reason":             reason,
		},
	})
	return nil
}

// Reschedule moves an appointment to a new slot in place, re-gated by
// the slot grid and the conflict policy with the appointment itself
// excluded. The status drops back to Scheduled.
func (s *Service) Reschedule(ctx context.Context, id, requesterUserID string, newAt time.Time) error {
	appointment, err := s.getOwned(ctx, id, requesterUserID)
	if err != nil {
		return err
	}

	from := appointment.Status
	if err := checkTransition(from, models.StatusScheduled); err != nil {
		return err
	}
	// The cutoff applies to the original time: inside the window the
	// appointment is locked in regardless of where it would move.
	if !s.CanModify(appointment.AppointmentDate) {
		return ErrTooLateToModify
	}

	if !newAt.After(s.clock.Now()) {
		return ErrSlotUnavailable
	}
	if err := s.requireOpenSlot(ctx, &appointment.Doctor, newAt, appointment.ID); err != nil {
		return err
	}
	if err := s.policy.CheckBookingAllowed(ctx, appointment.PatientID, appointment.DoctorID, newAt, appointment.ID); err != nil {
		return err
	}

	previousAt := appointment.AppointmentDate
	appointment.AppointmentDate = newAt
	appointment.Status = models.StatusScheduled
	err = s.store.Update(ctx, appointment, from)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrSlotUnavailable
	}
	if err != nil {
		return err
	}

	s.log.Info().
		Str("appointment_id", id).
		Time("from", previousAt).
		Time("to", newAt).
		Msg("appointment rescheduled")
	s.notifier.Notify(ctx, Event{
		AppointmentID:   appointment.ID,
		RecipientUserID: appointment.Patient.UserID,
		Type:            EventRescheduled,
		Payload: map[string]string{
			"confirmationNumber": appointment.ConfirmationNumber,
			"doctorName":         "Dr. " + appointment.Doctor.Profile.FullName(),
			"appointmentDate":    newAt.Format("Monday, January 2, 2006"),
			"appointmentTime":    newAt.Format("03:04 PM"),
		},
	})
	return nil
}

// Confirm transitions Scheduled to Confirmed. There is no domain guard
// beyond the transition table; confirmation is an external action.
func (s *Service) Confirm(ctx context.Context, id string) error {
	appointment, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}

	from := appointment.Status
	if err := checkTransition(from, models.StatusConfirmed); err != nil {
		return err
	}

	appointment.Status = models.StatusConfirmed
	if err := s.store.Update(ctx, appointment, from); err != nil {
		return err
	}

	s.notifier.Notify(ctx, Event{
		AppointmentID:   appointment.ID,
		RecipientUserID: appointment.Patient.UserID,
		Type:            EventConfirmed,
		Payload: map[string]string{
			"confirmationNumber": appointment.ConfirmationNumber,
		},
	})
	return nil
}

// Complete marks the appointment Completed and frees its slot. Invoked
// by the consultation-save flow only; after this the appointment is
// read-only.
func (s *Service) Complete(ctx context.Context, id string) error {
	appointment, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}

	from := appointment.Status
	if err := checkTransition(from, models.StatusCompleted); err != nil {
		return err
	}

	appointment.Status = models.StatusCompleted
	appointment.ReleaseSlot()
	if err := s.store.Update(ctx, appointment, from); err != nil {
		return err
	}

	s.log.Info().Str("appointment_id", id).Msg("appointment completed")
	s.notifier.Notify(ctx, Event{
		AppointmentID:   appointment.ID,
		RecipientUserID: appointment.Patient.UserID,
		Type:            EventCompleted,
		Payload: map[string]string{
			"confirmationNumber": appointment.ConfirmationNumber,
		},
	})
	return nil
}

// requireOpenSlot checks that at lands on an available slot of the
// doctor's grid for that date, ignoring excludeID's own booking.
func (s *Service) requireOpenSlot(ctx context.Context, doctor *models.Doctor, at time.Time, excludeID string) error {
	av, ok := ParseAvailability(doctor.AvailableDays, doctor.AvailableTimeStart, doctor.AvailableTimeEnd)
	if !ok {
		return ErrSlotUnavailable
	}

	dayStart := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
	booked, err := s.store.ActiveStartTimes(ctx, doctor.ID, dayStart, dayStart.AddDate(0, 0, 1), excludeID)
	if err != nil {
		return err
	}

	for _, slot := range s.calc.ComputeSlots(av, at, booked) {
		if slot.DateTime.Equal(at) {
			if !slot.IsAvailable {
				return ErrSlotUnavailable
			}
			return nil
		}
	}
	return ErrSlotUnavailable
}

// getOwned loads an appointment and hides it from users who are neither
// its patient nor its doctor.
func (s *Service) getOwned(ctx context.Context, id, requesterUserID string) (*models.Appointment, error) {
	appointment, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if appointment.Patient.UserID != requesterUserID && appointment.Doctor.UserID != requesterUserID {
		return nil, ErrNotFound
	}
	return appointment, nil
}

// newConfirmationNumber produces the short shareable booking token.
// Uniqueness is enforced by the storage index; the timestamp plus a
// random suffix keeps collisions practically impossible.
func (s *Service) newConfirmationNumber() string {
	return fmt.Sprintf("APT-%s-%04d", s.clock.Now().Format("20060102150405"), rand.IntN(9000)+1000)
}

package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"medipredict-server/internal/middleware"
	"medipredict-server/internal/models"
	"medipredict-server/internal/scheduling"
	"medipredict-server/internal/utils"
)

// AppointmentHandler handles appointment related requests.
type AppointmentHandler struct {
	DB  *gorm.DB
	Svc *scheduling.Service
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(db *gorm.DB, svc *scheduling.Service) *AppointmentHandler {
	return &AppointmentHandler{DB: db, Svc: svc}
}

// respondSchedulingError maps lifecycle errors onto the response
// envelope. Conflicts are 409, the notice-window rejection is 422, and
// anything unrecognized is an infrastructure failure.
func respondSchedulingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, scheduling.ErrSlotUnavailable):
		utils.Conflict(c, "The requested time slot is not available")
	case errors.Is(err, scheduling.ErrExistingActiveAppointment):
		utils.Conflict(c, "You already have an active appointment with this doctor")
	case errors.Is(err, scheduling.ErrTerminalState):
		utils.Conflict(c, "This appointment has already been completed or cancelled")
	case errors.Is(err, scheduling.ErrInvalidTransition):
		utils.Conflict(c, "This status change is not allowed for the appointment")
	case errors.Is(err, scheduling.ErrStaleAppointment):
		utils.Conflict(c, "The appointment was modified concurrently, please retry")
	case errors.Is(err, scheduling.ErrTooLateToModify):
		utils.UnprocessableEntity(c, "Appointments can only be changed at least 24 hours in advance")
	case errors.Is(err, scheduling.ErrInvalidDuration):
		utils.BadRequest(c, "Invalid appointment duration")
	case errors.Is(err, scheduling.ErrNotFound):
		utils.NotFound(c, "Appointment not found")
	default:
		utils.InternalServerError(c, "Failed to process appointment: "+err.Error())
	}
}

// CreateAppointmentRequest represents the request body for creating an appointment.
type CreateAppointmentRequest struct {
	DoctorID        string    `json:"doctorId" binding:"required,uuid"`
	AppointmentDate time.Time `json:"appointmentDate" binding:"required"`
	DurationMinutes int       `json:"durationMinutes"`
	ReasonForVisit  string    `json:"reasonForVisit" binding:"required,max=500"`
	Notes           string    `json:"notes" binding:"max=500"`
	SymptomEntryID  string    `json:"symptomEntryId" binding:"omitempty,uuid"`
}

// CreateAppointment books a slot for the authenticated patient.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var patient models.Patient
	if err := h.DB.First(&patient, "user_id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Patient profile not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	var doctor models.Doctor
	if err := h.DB.First(&doctor, "id = ?", req.DoctorID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Doctor not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	booking := scheduling.BookingRequest{
		Patient:         &patient,
		Doctor:          &doctor,
		At:              req.AppointmentDate,
		DurationMinutes: req.DurationMinutes,
		ReasonForVisit:  req.ReasonForVisit,
		Notes:           req.Notes,
	}
	if req.SymptomEntryID != "" {
		booking.SymptomEntryID = &req.SymptomEntryID
	}

	appointment, err := h.Svc.Book(c.Request.Context(), booking)
	if err != nil {
		respondSchedulingError(c, err)
		return
	}

	utils.Created(c, "Appointment created successfully", appointment)
}

// GetAppointmentsForUser fetches appointments for the logged-in user,
// scoped to their own patient or doctor record. Admins see everything.
func (h *AppointmentHandler) GetAppointmentsForUser(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	role, _ := middleware.GetUserRoleFromContext(c)

	query := h.DB.Preload("Patient").Preload("Doctor").Order("appointment_date DESC")

	switch role {
	case models.RolePatient:
		var patient models.Patient
		if err := h.DB.First(&patient, "user_id = ?", userID).Error; err != nil {
			utils.NotFound(c, "Patient profile not found")
			return
		}
		query = query.Where("patient_id = ?", patient.ID)
	case models.RoleDoctor:
		var doctor models.Doctor
		if err := h.DB.First(&doctor, "user_id = ?", userID).Error; err != nil {
			utils.NotFound(c, "Doctor profile not found")
			return
		}
		query = query.Where("doctor_id = ?", doctor.ID)
	case models.RoleAdmin:
		// Unscoped.
	default:
		utils.Forbidden(c, "Unknown role")
		return
	}

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if from := c.Query("from"); from != "" {
		if day, err := time.Parse("2006-01-02", from); err == nil {
			query = query.Where("appointment_date >= ?", day)
		}
	}

	var appointments []models.Appointment
	if err := query.Find(&appointments).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch appointments: "+err.Error())
		return
	}

	utils.Success(c, "Appointments fetched successfully", appointments)
}

// GetAppointment fetches a single appointment by ID. Patients and
// doctors only see their own; a foreign appointment reads as missing.
func (h *AppointmentHandler) GetAppointment(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	role, _ := middleware.GetUserRoleFromContext(c)

	var appointment models.Appointment
	err := h.DB.Preload("Patient").Preload("Doctor").
		First(&appointment, "id = ?", c.Param("id")).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if role != models.RoleAdmin &&
		appointment.Patient.UserID != userID && appointment.Doctor.UserID != userID {
		utils.NotFound(c, "Appointment not found")
		return
	}

	utils.Success(c, "Appointment fetched successfully", appointment)
}

// CancelAppointmentRequest carries the optional cancellation reason.
type CancelAppointmentRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// CancelAppointment cancels an appointment on behalf of its patient or
// doctor, subject to the 24-hour notice window.
func (h *AppointmentHandler) CancelAppointment(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	// Body is optional, but a supplied reason must fit the notes column.
	var req CancelAppointmentRequest
	if c.Request.ContentLength > 0 && !utils.BindAndValidate(c, &req) {
		return
	}

	if err := h.Svc.Cancel(c.Request.Context(), c.Param("id"), userID, req.Reason); err != nil {
		respondSchedulingError(c, err)
		return
	}

	utils.Success(c, "Appointment cancelled successfully", nil)
}

// RescheduleAppointmentRequest carries the new slot time.
type RescheduleAppointmentRequest struct {
	AppointmentDate time.Time `json:"appointmentDate" binding:"required"`
}

// RescheduleAppointment moves an appointment to a new slot in place.
func (h *AppointmentHandler) RescheduleAppointment(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req RescheduleAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if err := h.Svc.Reschedule(c.Request.Context(), c.Param("id"), userID, req.AppointmentDate); err != nil {
		respondSchedulingError(c, err)
		return
	}

	utils.Success(c, "Appointment rescheduled successfully", nil)
}

// ConfirmAppointment marks a scheduled appointment as confirmed. The
// doctor side uses this to acknowledge the booking.
func (h *AppointmentHandler) ConfirmAppointment(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	role, _ := middleware.GetUserRoleFromContext(c)

	id := c.Param("id")
	if role == models.RoleDoctor {
		// Doctors may only confirm their own appointments.
		var appointment models.Appointment
		err := h.DB.Preload("Doctor").First(&appointment, "id = ?", id).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				utils.NotFound(c, "Appointment not found")
			} else {
				utils.InternalServerError(c, "Database error: "+err.Error())
			}
			return
		}
		if appointment.Doctor.UserID != userID {
			utils.NotFound(c, "Appointment not found")
			return
		}
	}

	if err := h.Svc.Confirm(c.Request.Context(), id); err != nil {
		respondSchedulingError(c, err)
		return
	}

	utils.Success(c, "Appointment confirmed successfully", nil)
}

package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/signintech/gopdf"
	"gorm.io/gorm"

	"medipredict-server/internal/middleware"
	"medipredict-server/internal/models"
	"medipredict-server/internal/repository"
	"medipredict-server/internal/scheduling"
	"medipredict-server/internal/utils"
)

// ConsultationHandler handles consultation records, prescriptions and
// the downloadable PDF report.
type ConsultationHandler struct {
	DB  *gorm.DB
	Svc *scheduling.Service
}

// NewConsultationHandler creates a new ConsultationHandler.
func NewConsultationHandler(db *gorm.DB, svc *scheduling.Service) *ConsultationHandler {
	return &ConsultationHandler{DB: db, Svc: svc}
}

// PrescriptionRequest is one prescribed drug in a consultation save.
type PrescriptionRequest struct {
	DrugName     string `json:"drugName" binding:"required"`
	Dosage       string `json:"dosage" binding:"required"`
	Frequency    string `json:"frequency" binding:"required"`
	Duration     string `json:"duration" binding:"required"`
	Instructions string `json:"instructions"`
}

// CreateConsultationRequest represents the consultation outcome the
// doctor records after seeing the patient.
type CreateConsultationRequest struct {
	AppointmentID        string                `json:"appointmentId" binding:"required,uuid"`
	OfficialDiagnosis    string                `json:"officialDiagnosis" binding:"required"`
	AIDiagnosisConfirmed bool                  `json:"aiDiagnosisConfirmed"`
	AIPredictionID       string                `json:"aiPredictionId" binding:"omitempty,uuid"`
	ConsultationNotes    string                `json:"consultationNotes"`
	TreatmentPlan        string                `json:"treatmentPlan"`
	LabTestsOrdered      string                `json:"labTestsOrdered"`
	Prescriptions        []PrescriptionRequest `json:"prescriptions" binding:"dive"`
}

// CreateConsultation saves the consultation outcome and completes the
// appointment. Completing is the only path into the Completed status,
// so an appointment without a saved consultation can never end up
// there. The record, its prescriptions and the status transition commit
// in a single transaction: a terminal or concurrently modified
// appointment rolls the whole save back.
func (h *ConsultationHandler) CreateConsultation(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req CreateConsultationRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var appointment models.Appointment
	err := h.DB.Preload("Doctor").Preload("Patient").
		First(&appointment, "id = ?", req.AppointmentID).Error
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

	record := models.ConsultationRecord{
		AppointmentID:        appointment.ID,
		PatientID:            appointment.PatientID,
		DoctorID:             appointment.DoctorID,
		OfficialDiagnosis:    req.OfficialDiagnosis,
		AIDiagnosisConfirmed: req.AIDiagnosisConfirmed,
		ConsultationNotes:    req.ConsultationNotes,
		TreatmentPlan:        req.TreatmentPlan,
		LabTestsOrdered:      req.LabTestsOrdered,
	}
	if req.AIPredictionID != "" {
		record.AIPredictionID = &req.AIPredictionID
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		record.ConsultationDate = appointment.AppointmentDate
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		for _, p := range req.Prescriptions {
			prescription := models.Prescription{
				ConsultationRecordID: record.ID,
				DrugName:             p.DrugName,
				Dosage:               p.Dosage,
				Frequency:            p.Frequency,
				Duration:             p.Duration,
				Instructions:         p.Instructions,
			}
			if err := tx.Create(&prescription).Error; err != nil {
				return err
			}
		}
		return h.Svc.WithStore(repository.NewAppointmentRepository(tx)).
			Complete(c.Request.Context(), appointment.ID)
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			utils.Conflict(c, "A consultation record already exists for this appointment")
		case errors.Is(err, scheduling.ErrTerminalState),
			errors.Is(err, scheduling.ErrInvalidTransition),
			errors.Is(err, scheduling.ErrStaleAppointment):
			respondSchedulingError(c, err)
		default:
			utils.InternalServerError(c, "Failed to save consultation: "+err.Error())
		}
		return
	}

	utils.Created(c, "Consultation saved successfully", record)
}

// loadOwnedConsultation fetches a consultation visible to the caller:
// its patient, its doctor, or an admin.
func (h *ConsultationHandler) loadOwnedConsultation(c *gin.Context, byAppointment bool) (*models.ConsultationRecord, bool) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return nil, false
	}
	role, _ := middleware.GetUserRoleFromContext(c)

	query := h.DB.Preload("Prescriptions").
		Preload("Patient").Preload("Doctor").Preload("Appointment")

	var record models.ConsultationRecord
	var err error
	if byAppointment {
		err = query.First(&record, "appointment_id = ?", c.Param("id")).Error
	} else {
		err = query.First(&record, "id = ?", c.Param("id")).Error
	}
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Consultation not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return nil, false
	}

	if role != models.RoleAdmin &&
		record.Patient.UserID != userID && record.Doctor.UserID != userID {
		utils.NotFound(c, "Consultation not found")
		return nil, false
	}
	return &record, true
}

// GetConsultation fetches a consultation record by ID.
func (h *ConsultationHandler) GetConsultation(c *gin.Context) {
	record, ok := h.loadOwnedConsultation(c, false)
	if !ok {
		return
	}
	utils.Success(c, "Consultation fetched successfully", record)
}

// GetConsultationByAppointment fetches the consultation saved for an
// appointment, if any.
func (h *ConsultationHandler) GetConsultationByAppointment(c *gin.Context) {
	record, ok := h.loadOwnedConsultation(c, true)
	if !ok {
		return
	}
	utils.Success(c, "Consultation fetched successfully", record)
}

// ListConsultations returns the caller's consultation history.
func (h *ConsultationHandler) ListConsultations(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	role, _ := middleware.GetUserRoleFromContext(c)

	query := h.DB.Preload("Prescriptions").Preload("Doctor").Preload("Patient").
		Order("consultation_date DESC")

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
	}

	var records []models.ConsultationRecord
	if err := query.Find(&records).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch consultations: "+err.Error())
		return
	}

	utils.Success(c, "Consultations fetched successfully", records)
}

var reportFontPaths = []string{
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

// DownloadReport renders the consultation as a PDF attachment.
func (h *ConsultationHandler) DownloadReport(c *gin.Context) {
	record, ok := h.loadOwnedConsultation(c, false)
	if !ok {
		return
	}

	buf, err := renderConsultationPDF(record)
	if err != nil {
		utils.InternalServerError(c, "Failed to render report: "+err.Error())
		return
	}

	fileName := fmt.Sprintf("consultation_%s.pdf", record.ID)
	c.Header("Content-Disposition", `attachment; filename="`+fileName+`"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func renderConsultationPDF(record *models.ConsultationRecord) (*bytes.Buffer, error) {
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	var fontErr error
	fontLoaded := false
	for _, path := range reportFontPaths {
		if err := pdf.AddTTFFont("DejaVu", path); err == nil {
			fontLoaded = true
			break
		} else {
			fontErr = err
		}
	}
	if !fontLoaded {
		return nil, fmt.Errorf("failed to load report font, is ttf-dejavu installed: %w", fontErr)
	}

	writeLine := func(size float64, text string) error {
		if err := pdf.SetFont("DejaVu", "", size); err != nil {
			return err
		}
		lines, _ := pdf.SplitText(text, 500)
		for _, l := range lines {
			pdf.Cell(nil, l)
			pdf.Br(size + 4)
		}
		return nil
	}

	if err := writeLine(20, "Consultation Report"); err != nil {
		return nil, err
	}
	pdf.Br(10)

	appointment := record.Appointment
	if err := writeLine(12, fmt.Sprintf("Confirmation: %s", appointment.ConfirmationNumber)); err != nil {
		return nil, err
	}
	if err := writeLine(12, fmt.Sprintf("Date: %s", record.ConsultationDate.Format("Monday, January 2, 2006 03:04 PM"))); err != nil {
		return nil, err
	}
	if err := writeLine(12, fmt.Sprintf("Patient: %s", record.Patient.Profile.FullName())); err != nil {
		return nil, err
	}
	if err := writeLine(12, fmt.Sprintf("Doctor: Dr. %s (%s)", record.Doctor.Profile.FullName(), record.Doctor.Specialization)); err != nil {
		return nil, err
	}
	pdf.Br(10)

	if err := writeLine(14, "Diagnosis"); err != nil {
		return nil, err
	}
	if err := writeLine(11, record.OfficialDiagnosis); err != nil {
		return nil, err
	}
	pdf.Br(8)

	if record.TreatmentPlan != "" {
		if err := writeLine(14, "Treatment Plan"); err != nil {
			return nil, err
		}
		if err := writeLine(11, record.TreatmentPlan); err != nil {
			return nil, err
		}
		pdf.Br(8)
	}

	if record.LabTestsOrdered != "" {
		if err := writeLine(14, "Lab Tests Ordered"); err != nil {
			return nil, err
		}
		if err := writeLine(11, record.LabTestsOrdered); err != nil {
			return nil, err
		}
		pdf.Br(8)
	}

	if len(record.Prescriptions) > 0 {
		if err := writeLine(14, "Prescriptions"); err != nil {
			return nil, err
		}
		for _, p := range record.Prescriptions {
			line := fmt.Sprintf("- %s, %s, %s for %s", p.DrugName, p.Dosage, p.Frequency, p.Duration)
			if p.Instructions != "" {
				line += " (" + p.Instructions + ")"
			}
			if err := writeLine(11, line); err != nil {
				return nil, err
			}
		}
		pdf.Br(8)
	}

	if record.ConsultationNotes != "" {
		if err := writeLine(14, "Notes"); err != nil {
			return nil, err
		}
		if err := writeLine(11, record.ConsultationNotes); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return &buf, nil
}

package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"medipredict-server/internal/middleware"
	"medipredict-server/internal/models"
	"medipredict-server/internal/utils"
)

// MedicalHistoryHandler aggregates a patient's clinical record: the
// profile, past consultations with prescriptions, and symptom reports.
type MedicalHistoryHandler struct {
	DB *gorm.DB
}

// NewMedicalHistoryHandler creates a new MedicalHistoryHandler.
func NewMedicalHistoryHandler(db *gorm.DB) *MedicalHistoryHandler {
	return &MedicalHistoryHandler{DB: db}
}

// MedicalHistoryResponse is the combined clinical record for a patient.
type MedicalHistoryResponse struct {
	Patient        models.Patient              `json:"patient"`
	Consultations  []models.ConsultationRecord `json:"consultations"`
	SymptomEntries []models.SymptomEntry       `json:"symptomEntries"`
}

// GetMedicalHistory returns the medical history for the patient behind
// a user ID. Patients can only read their own; doctors and admins can
// read any patient's.
func (h *MedicalHistoryHandler) GetMedicalHistory(c *gin.Context) {
	requesterID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	role, _ := middleware.GetUserRoleFromContext(c)

	targetUserID := c.Param("userId")
	if role == models.RolePatient && targetUserID != requesterID {
		utils.Forbidden(c, "Patients can only view their own medical history")
		return
	}

	var patient models.Patient
	if err := h.DB.First(&patient, "user_id = ?", targetUserID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Patient profile not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	var consultations []models.ConsultationRecord
	err := h.DB.Preload("Prescriptions").Preload("Doctor").Preload("Appointment").
		Where("patient_id = ?", patient.ID).
		Order("consultation_date DESC").
		Find(&consultations).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch consultations: "+err.Error())
		return
	}

	var entries []models.SymptomEntry
	err = h.DB.Preload("Symptoms.Symptom").Preload("Predictions.Disease").
		Where("patient_id = ?", patient.ID).
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch symptom entries: "+err.Error())
		return
	}

	utils.Success(c, "Medical history fetched successfully", MedicalHistoryResponse{
		Patient:        patient,
		Consultations:  consultations,
		SymptomEntries: entries,
	})
}

// UpdateMedicalHistoryRequest updates the free-text history a doctor
// keeps on the patient record.
type UpdateMedicalHistoryRequest struct {
	MedicalHistory string `json:"medicalHistory" binding:"required"`
}

// UpdateMedicalHistory lets a doctor amend the patient's baseline
// medical history text.
func (h *MedicalHistoryHandler) UpdateMedicalHistory(c *gin.Context) {
	var req UpdateMedicalHistoryRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var patient models.Patient
	if err := h.DB.First(&patient, "user_id = ?", c.Param("userId")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Patient profile not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if err := h.DB.Model(&patient).Update("medical_history", req.MedicalHistory).Error; err != nil {
		utils.InternalServerError(c, "Failed to update medical history: "+err.Error())
		return
	}

	utils.Success(c, "Medical history updated successfully", patient)
}

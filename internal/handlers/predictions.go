package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"medipredict-server/internal/middleware"
	"medipredict-server/internal/models"
	"medipredict-server/internal/prediction"
	"medipredict-server/internal/utils"
)

// PredictionHandler handles symptom analysis requests.
type PredictionHandler struct {
	Svc *prediction.Service
}

// NewPredictionHandler creates a new PredictionHandler.
func NewPredictionHandler(svc *prediction.Service) *PredictionHandler {
	return &PredictionHandler{Svc: svc}
}

// CreatePredictionRequest represents a symptom report to analyze.
type CreatePredictionRequest struct {
	SymptomIDs  []string `json:"symptomIds" binding:"required,dive,uuid"`
	Description string   `json:"description"`
}

// PredictionResponse pairs the stored entry with its ranked predictions.
type PredictionResponse struct {
	SymptomEntry *models.SymptomEntry  `json:"symptomEntry"`
	Predictions  []models.AIPrediction `json:"predictions"`
}

// CreatePrediction records a symptom entry for the authenticated
// patient and returns the ranked disease predictions.
func (h *PredictionHandler) CreatePrediction(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req CreatePredictionRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	entry, predictions, err := h.Svc.Analyze(c.Request.Context(), userID, req.SymptomIDs, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, prediction.ErrTooFewSymptoms):
			utils.BadRequest(c, "Please select at least 3 symptoms")
		case errors.Is(err, prediction.ErrUnknownSymptom):
			utils.BadRequest(c, "One or more selected symptoms do not exist")
		case errors.Is(err, prediction.ErrPatientNotFound):
			utils.NotFound(c, "Patient profile not found")
		default:
			utils.InternalServerError(c, "Failed to analyze symptoms: "+err.Error())
		}
		return
	}

	utils.Created(c, "Symptoms analyzed successfully", PredictionResponse{
		SymptomEntry: entry,
		Predictions:  predictions,
	})
}

// GetSymptomHistory returns the authenticated patient's past symptom
// entries with their predictions, newest first. ?limit= caps the count.
func (h *PredictionHandler) GetSymptomHistory(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	entries, err := h.Svc.EntriesForPatient(c.Request.Context(), userID, limit)
	if err != nil {
		if errors.Is(err, prediction.ErrPatientNotFound) {
			utils.NotFound(c, "Patient profile not found")
		} else {
			utils.InternalServerError(c, "Failed to fetch symptom history: "+err.Error())
		}
		return
	}

	utils.Success(c, "Symptom history fetched successfully", entries)
}

// ListSymptoms returns the selectable symptom catalog.
func (h *PredictionHandler) ListSymptoms(c *gin.Context) {
	symptoms, err := h.Svc.Symptoms(c.Request.Context())
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch symptoms: "+err.Error())
		return
	}
	utils.Success(c, "Symptoms fetched successfully", symptoms)
}

package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"medipredict-server/internal/middleware"
	"medipredict-server/internal/models"
	"medipredict-server/internal/scheduling"
	"medipredict-server/internal/utils"
)

// DoctorHandler handles the doctor directory and availability requests.
type DoctorHandler struct {
	DB  *gorm.DB
	Svc *scheduling.Service
}

// NewDoctorHandler creates a new DoctorHandler.
func NewDoctorHandler(db *gorm.DB, svc *scheduling.Service) *DoctorHandler {
	return &DoctorHandler{DB: db, Svc: svc}
}

// ListDoctors returns the doctor directory, optionally filtered by
// specialization. Only verified doctors are listed to non-admins.
func (h *DoctorHandler) ListDoctors(c *gin.Context) {
	role, _ := middleware.GetUserRoleFromContext(c)

	query := h.DB.Order("last_name, first_name")
	if role != models.RoleAdmin {
		query = query.Where("is_verified = ?", true)
	}
	if spec := c.Query("specialization"); spec != "" {
		query = query.Where("specialization = ?", spec)
	}

	var doctors []models.Doctor
	if err := query.Find(&doctors).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch doctors: "+err.Error())
		return
	}

	utils.Success(c, "Doctors fetched successfully", doctors)
}

// GetDoctor returns a single doctor's public profile.
func (h *DoctorHandler) GetDoctor(c *gin.Context) {
	var doctor models.Doctor
	if err := h.DB.First(&doctor, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Doctor not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	utils.Success(c, "Doctor fetched successfully", doctor)
}

// GetAvailableSlots computes the doctor's slot grid for a date passed
// as ?date=YYYY-MM-DD. Past dates are rejected; a doctor with no
// availability pattern, or a date outside their working days, yields an
// empty grid rather than an error.
func (h *DoctorHandler) GetAvailableSlots(c *gin.Context) {
	dateStr := c.Query("date")
	if dateStr == "" {
		utils.BadRequest(c, "Query parameter 'date' is required (YYYY-MM-DD)")
		return
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		utils.BadRequest(c, "Invalid date, expected YYYY-MM-DD")
		return
	}

	now := h.Svc.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, date.Location())
	if date.Before(today) {
		utils.BadRequest(c, "Date must not be in the past")
		return
	}

	var doctor models.Doctor
	if err := h.DB.First(&doctor, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Doctor not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	slots, err := h.Svc.AvailableSlots(c.Request.Context(), &doctor, date)
	if err != nil {
		utils.InternalServerError(c, "Failed to compute slots: "+err.Error())
		return
	}

	utils.Success(c, "Available slots fetched successfully", gin.H{
		"doctorId": doctor.ID,
		"date":     dateStr,
		"slots":    slots,
	})
}

// UpdateAvailabilityRequest carries a doctor's weekly working pattern.
type UpdateAvailabilityRequest struct {
	AvailableDays      string `json:"availableDays" binding:"required"`      // e.g. "Monday,Tuesday,Friday"
	AvailableTimeStart string `json:"availableTimeStart" binding:"required"` // HH:MM
	AvailableTimeEnd   string `json:"availableTimeEnd" binding:"required"`   // HH:MM
}

// UpdateAvailability lets the authenticated doctor change their weekly
// pattern. The pattern is validated before it is stored so a broken one
// can never silently wipe the doctor's bookable grid.
func (h *DoctorHandler) UpdateAvailability(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req UpdateAvailabilityRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if _, ok := scheduling.ParseAvailability(req.AvailableDays, req.AvailableTimeStart, req.AvailableTimeEnd); !ok {
		utils.BadRequest(c, "Invalid availability pattern: check day names and HH:MM times")
		return
	}

	var doctor models.Doctor
	if err := h.DB.First(&doctor, "user_id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Doctor profile not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	doctor.AvailableDays = req.AvailableDays
	doctor.AvailableTimeStart = req.AvailableTimeStart
	doctor.AvailableTimeEnd = req.AvailableTimeEnd
	if err := h.DB.Save(&doctor).Error; err != nil {
		utils.InternalServerError(c, "Failed to update availability: "+err.Error())
		return
	}

	utils.Success(c, "Availability updated successfully", doctor)
}

// VerifyDoctor flips a doctor's verified flag. Admin only.
func (h *DoctorHandler) VerifyDoctor(c *gin.Context) {
	var doctor models.Doctor
	if err := h.DB.First(&doctor, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Doctor not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	doctor.IsVerified = true
	if err := h.DB.Save(&doctor).Error; err != nil {
		utils.InternalServerError(c, "Failed to verify doctor: "+err.Error())
		return
	}

	utils.Success(c, "Doctor verified successfully", doctor)
}

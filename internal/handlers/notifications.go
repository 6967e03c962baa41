package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"medipredict-server/internal/models"
	"medipredict-server/internal/notify"
	"medipredict-server/internal/utils"
)

// NotificationHandler exposes the notification log to administrators.
type NotificationHandler struct {
	DB       *gorm.DB
	Reminder *notify.Reminder
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(db *gorm.DB, reminder *notify.Reminder) *NotificationHandler {
	return &NotificationHandler{DB: db, Reminder: reminder}
}

// ListNotifications returns notification log entries, newest first.
// ?failed=true narrows to undelivered entries.
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	query := h.DB.Order("created_at DESC")
	if c.Query("failed") == "true" {
		query = query.Where("is_sent = ?", false)
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var entries []models.NotificationLog
	if err := query.Limit(limit).Find(&entries).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch notifications: "+err.Error())
		return
	}

	utils.Success(c, "Notifications fetched successfully", entries)
}

// RetryFailed re-attempts delivery of failed notifications immediately
// instead of waiting for the next sweep.
func (h *NotificationHandler) RetryFailed(c *gin.Context) {
	h.Reminder.RetryFailed(c.Request.Context())
	utils.Success(c, "Failed notifications retried", nil)
}

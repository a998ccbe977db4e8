package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"meetman/internal/database"
	"meetman/internal/models"
)

// DashboardStats returns headline counts for the dashboard.
func DashboardStats(c *gin.Context) {
	db := database.GetDB()

	var (
		totalMeetings       int64
		meetingsToday       int64
		totalParticipants   int64
		notificationsSent   int64
		notificationsFailed int64
	)

	today := time.Now().UTC().Truncate(24 * time.Hour)

	if err := db.Model(&models.Meeting{}).Count(&totalMeetings).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to load stats", err)
		return
	}
	db.Model(&models.Meeting{}).
		Where("date >= ? AND date < ?", today, today.AddDate(0, 0, 1)).
		Count(&meetingsToday)
	db.Model(&models.Participant{}).Where("active = ?", true).Count(&totalParticipants)
	db.Model(&models.WhatsappNotification{}).Where("status = ?", models.StatusSent).Count(&notificationsSent)
	db.Model(&models.WhatsappNotification{}).Where("status = ?", models.StatusFailed).Count(&notificationsFailed)

	settings, err := models.GetSettings(db)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to load settings", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_meetings":       totalMeetings,
		"meetings_today":       meetingsToday,
		"active_participants":  totalParticipants,
		"notifications_sent":   notificationsSent,
		"notifications_failed": notificationsFailed,
		"whatsapp_connected":   settings.WhatsappConnected,
	})
}

// UpcomingMeetings returns the next meetings from today onwards.
func UpcomingMeetings(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 || limit > 50 {
		limit = 10
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)

	var meetings []models.Meeting
	err := database.GetDB().
		Preload("Participant").
		Where("date >= ?", today).
		Order("date, start_time").
		Limit(limit).
		Find(&meetings).Error
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch upcoming meetings", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meetings": meetings})
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"meetman/internal/database"
	"meetman/internal/models"
	"meetman/internal/notifier"
)

// GetSettings returns the singleton settings row, creating defaults on
// first access.
func GetSettings(c *gin.Context) {
	settings, err := models.GetSettings(database.GetDB())
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to load settings", err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSettings applies an administrative settings update in place.
func UpdateSettings(c *gin.Context) {
	var request models.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	db := database.GetDB()
	settings, err := models.GetSettings(db)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to load settings", err)
		return
	}

	updates := map[string]interface{}{}
	if request.IndividualReminderEnabled != nil {
		updates["individual_reminder_enabled"] = *request.IndividualReminderEnabled
	}
	if request.IndividualReminderMinutes != nil {
		updates["individual_reminder_minutes"] = *request.IndividualReminderMinutes
	}
	if request.GroupNotificationEnabled != nil {
		updates["group_notification_enabled"] = *request.GroupNotificationEnabled
	}
	if request.GroupNotificationTime != nil {
		updates["group_notification_time"] = *request.GroupNotificationTime
	}

	if len(updates) > 0 {
		if err := db.Model(&settings).Updates(updates).Error; err != nil {
			handleError(c, http.StatusInternalServerError, "Failed to update settings", err)
			return
		}
	}

	settings, err = models.GetSettings(db)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to reload settings", err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// TestWhatsApp probes the gateway on demand and records the result.
func TestWhatsApp(c *gin.Context) {
	connected, err := engine.TestGateway(c.Request.Context())
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to record connection status", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"connected": connected})
}

// PreviewGroupMessage renders the daily agenda for a date without
// sending anything.
func PreviewGroupMessage(c *gin.Context) {
	date := time.Now().In(engine.Location())
	if raw := c.Query("date"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			handleError(c, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", err)
			return
		}
		date = parsed
	}

	meetings, err := engine.GroupMeetings(date)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to load meetings", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"meeting_count": len(meetings),
		"message":       notifier.BuildDailyAgenda(date, meetings),
	})
}

type testMessageRequest struct {
	PhoneNumber string `json:"phone_number"`
	Message     string `json:"message" binding:"required"`
}

// SendTestGroupMessage sends an arbitrary message to the configured
// group destination.
func SendTestGroupMessage(c *gin.Context) {
	var request testMessageRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	err := engine.SendDirect(c.Request.Context(), engine.GroupNumber(), models.RecipientGroup, request.Message)
	if err != nil {
		handleError(c, http.StatusBadGateway, "Failed to send test message", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Test group message sent"})
}

// SendTestPersonalMessage sends an arbitrary message to a phone number.
func SendTestPersonalMessage(c *gin.Context) {
	var request testMessageRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}
	if request.PhoneNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phone_number is required"})
		return
	}

	err := engine.SendDirect(c.Request.Context(), request.PhoneNumber, models.RecipientIndividual, request.Message)
	if err != nil {
		handleError(c, http.StatusBadGateway, "Failed to send test message", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Test message sent"})
}

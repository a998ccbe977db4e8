package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"meetman/internal/database"
	"meetman/internal/models"
	"meetman/internal/notifier"
	"meetman/internal/services"
)

// parseDate parses a YYYY-MM-DD string into the UTC-midnight form that
// meeting dates are stored as.
func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// CreateMeeting handles the creation of a new meeting
func CreateMeeting(c *gin.Context) {
	var request models.CreateMeetingRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleError(c, http.StatusBadRequest, fmt.Sprintf("Invalid input: %s", err.Error()), err)
		return
	}

	date, err := parseDate(request.Date)
	if err != nil {
		handleError(c, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", err)
		return
	}
	if request.EndTime.Before(request.StartTime) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "End time must not be before start time"})
		return
	}

	db := database.GetDB()

	if request.ParticipantID != nil {
		var participant models.Participant
		if err := db.First(&participant, *request.ParticipantID).Error; err != nil {
			handleError(c, http.StatusBadRequest, "Participant not found", err)
			return
		}
	}

	meeting := models.Meeting{
		Title:                     request.Title,
		Date:                      datatypes.Date(date),
		StartTime:                 request.StartTime,
		EndTime:                   request.EndTime,
		Location:                  request.Location,
		Description:               request.Description,
		DesignatedAttendee:        request.DesignatedAttendee,
		ParticipantID:             request.ParticipantID,
		IndividualReminderEnabled: true,
		GroupNotificationEnabled:  true,
	}
	if request.IndividualReminderEnabled != nil {
		meeting.IndividualReminderEnabled = *request.IndividualReminderEnabled
	}
	if request.GroupNotificationEnabled != nil {
		meeting.GroupNotificationEnabled = *request.GroupNotificationEnabled
	}

	if err := db.Create(&meeting).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to create meeting", err)
		return
	}

	c.JSON(http.StatusCreated, meeting)
}

// GetMeetings handles listing meetings with filtering, sorting, and pagination
func GetMeetings(c *gin.Context) {
	db := database.GetDB()
	var meetings []models.Meeting

	query := db.Preload("Participant")

	// Filtering
	if dateFrom := c.Query("date_from"); dateFrom != "" {
		if d, err := parseDate(dateFrom); err == nil {
			query = query.Where("date >= ?", d)
		}
	}
	if dateTo := c.Query("date_to"); dateTo != "" {
		if d, err := parseDate(dateTo); err == nil {
			query = query.Where("date <= ?", d)
		}
	}
	if participantID := c.Query("participant_id"); participantID != "" {
		query = query.Where("participant_id = ?", participantID)
	}
	if location := c.Query("location"); location != "" {
		query = query.Where("location ILIKE ?", "%"+location+"%")
	}

	// Sorting
	sortBy := c.DefaultQuery("sort_by", "date")
	sortOrder := c.DefaultQuery("sort_order", "asc")
	allowedSorts := map[string]bool{"date": true, "start_time": true, "title": true, "created_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "date"
	}
	if sortOrder != "desc" {
		sortOrder = "asc"
	}
	query = query.Order(fmt.Sprintf("%s %s", sortBy, sortOrder)).Order("start_time")

	// Pagination with defaults
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var total int64
	if err := query.Model(&models.Meeting{}).Count(&total).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to count meetings", err)
		return
	}

	if err := query.Limit(pageSize).Offset((page - 1) * pageSize).Find(&meetings).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch meetings", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"meetings":  meetings,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetMeeting returns a single meeting by ID
func GetMeeting(c *gin.Context) {
	id := c.Param("id")

	var meeting models.Meeting
	err := database.GetDB().
		Preload("Participant").
		Preload("Attachments").
		First(&meeting, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Meeting not found"})
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to fetch meeting", err)
		return
	}
	c.JSON(http.StatusOK, meeting)
}

// SearchMeetings performs free-text search over meetings
func SearchMeetings(c *gin.Context) {
	term := c.Query("q")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	meetings, err := searchService.SearchMeetings(term, limit, offset)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Search failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meetings": meetings})
}

// UpdateMeeting updates meeting fields in place
func UpdateMeeting(c *gin.Context) {
	id := c.Param("id")

	var request models.UpdateMeetingRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleError(c, http.StatusBadRequest, fmt.Sprintf("Invalid input: %s", err.Error()), err)
		return
	}

	db := database.GetDB()
	var meeting models.Meeting
	if err := db.First(&meeting, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Meeting not found"})
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to fetch meeting", err)
		return
	}

	updates := map[string]interface{}{}
	if request.Title != nil {
		updates["title"] = *request.Title
	}
	if request.Date != nil {
		date, err := parseDate(*request.Date)
		if err != nil {
			handleError(c, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", err)
			return
		}
		updates["date"] = datatypes.Date(date)
	}
	if request.StartTime != nil {
		updates["start_time"] = *request.StartTime
	}
	if request.EndTime != nil {
		updates["end_time"] = *request.EndTime
	}
	if request.Location != nil {
		updates["location"] = *request.Location
	}
	if request.Description != nil {
		updates["description"] = *request.Description
	}
	if request.DesignatedAttendee != nil {
		updates["designated_attendee"] = *request.DesignatedAttendee
	}
	if request.ParticipantID != nil {
		var participant models.Participant
		if err := db.First(&participant, *request.ParticipantID).Error; err != nil {
			handleError(c, http.StatusBadRequest, "Participant not found", err)
			return
		}
		updates["participant_id"] = *request.ParticipantID
	}
	if request.IndividualReminderEnabled != nil {
		updates["individual_reminder_enabled"] = *request.IndividualReminderEnabled
	}
	if request.GroupNotificationEnabled != nil {
		updates["group_notification_enabled"] = *request.GroupNotificationEnabled
	}

	if len(updates) > 0 {
		if err := db.Model(&meeting).Updates(updates).Error; err != nil {
			handleError(c, http.StatusInternalServerError, "Failed to update meeting", err)
			return
		}
	}

	c.JSON(http.StatusOK, meeting)
}

// DeleteMeeting soft-deletes a meeting
func DeleteMeeting(c *gin.Context) {
	id := c.Param("id")

	db := database.GetDB()
	var meeting models.Meeting
	if err := db.First(&meeting, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Meeting not found"})
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to fetch meeting", err)
		return
	}

	if err := db.Delete(&meeting).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to delete meeting", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Meeting deleted"})
}

// SendMeetingReminder force-sends the individual reminder for one
// meeting, bypassing the idempotency marker. Used for manual resends.
func SendMeetingReminder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		handleError(c, http.StatusBadRequest, "Invalid meeting ID", err)
		return
	}

	if err := engine.SendMeetingReminder(c.Request.Context(), uint(id)); err != nil {
		if errors.Is(err, notifier.ErrGatewayUnreachable) {
			handleError(c, http.StatusServiceUnavailable, "WhatsApp gateway unreachable", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to send reminder", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reminder sent"})
}

// UploadAttachment stores an uploaded file for a meeting
func UploadAttachment(c *gin.Context) {
	if attachmentService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Attachment storage is not configured"})
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		handleError(c, http.StatusBadRequest, "Invalid meeting ID", err)
		return
	}

	db := database.GetDB()
	var meeting models.Meeting
	if err := db.First(&meeting, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Meeting not found"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		handleError(c, http.StatusBadRequest, "Missing file", err)
		return
	}
	if fileHeader.Size > services.MaxAttachmentSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File too large (max 10 MB)"})
		return
	}

	kind, err := services.AttachmentKind(fileHeader.Filename)
	if err != nil {
		handleError(c, http.StatusBadRequest, "Unsupported file type", err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to read upload", err)
		return
	}
	defer file.Close()

	publicID, url, err := attachmentService.UploadMeetingAttachment(c.Request.Context(), file, fileHeader.Filename, meeting.ID)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to store attachment", err)
		return
	}

	attachment := models.MeetingAttachment{
		MeetingID:      meeting.ID,
		FileName:       fileHeader.Filename,
		PublicID:       publicID,
		URL:            url,
		FileSize:       fileHeader.Size,
		MimeType:       fileHeader.Header.Get("Content-Type"),
		AttachmentType: kind,
	}
	if err := db.Create(&attachment).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to record attachment", err)
		return
	}

	c.JSON(http.StatusCreated, attachment)
}

// DeleteAttachment removes a meeting attachment and its stored file
func DeleteAttachment(c *gin.Context) {
	if attachmentService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Attachment storage is not configured"})
		return
	}

	db := database.GetDB()
	var attachment models.MeetingAttachment
	err := db.Where("meeting_id = ?", c.Param("id")).
		First(&attachment, c.Param("attachmentId")).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Attachment not found"})
		return
	}

	if err := attachmentService.DeleteMeetingAttachment(c.Request.Context(), attachment.PublicID); err != nil {
		log.WithError(err).Warn("failed to delete stored attachment file")
	}
	if err := db.Delete(&attachment).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to delete attachment", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Attachment deleted"})
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"meetman/internal/database"
	"meetman/internal/models"
	"meetman/internal/notifier"
)

// GetNotifications lists ledger entries, newest first, with optional
// status/type filters.
func GetNotifications(c *gin.Context) {
	db := database.GetDB()
	query := db.Model(&models.WhatsappNotification{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if recipientType := c.Query("recipient_type"); recipientType != "" {
		query = query.Where("recipient_type = ?", recipientType)
	}
	if meetingID := c.Query("meeting_id"); meetingID != "" {
		query = query.Where("meeting_id = ?", meetingID)
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to count notifications", err)
		return
	}

	var notifications []models.WhatsappNotification
	err := query.Order("created_at DESC").
		Limit(pageSize).Offset((page - 1) * pageSize).
		Find(&notifications).Error
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch notifications", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"total":         total,
		"page":          page,
		"page_size":     pageSize,
	})
}

// acquireJobLock takes the lease lock for a job and writes the HTTP
// error response itself when it cannot. An on-demand sweep contends
// with the cron runs for the same job, so it holds the same lock.
func acquireJobLock(c *gin.Context, jobName string) (func(), bool) {
	release, err := engine.AcquireLock(jobName, notifier.DefaultLockLease)
	if err != nil {
		if errors.Is(err, notifier.ErrLockHeld) {
			c.JSON(http.StatusConflict, gin.H{"error": "Another run of this job is in progress"})
			return nil, false
		}
		handleError(c, http.StatusInternalServerError, "Failed to acquire job lock", err)
		return nil, false
	}
	return release, true
}

// RunReminderSweep invokes the individual-reminder sweep on demand.
// force=true bypasses the reminder_sent_at marker.
func RunReminderSweep(c *gin.Context) {
	force := c.Query("force") == "true"

	release, ok := acquireJobLock(c, notifier.JobReminders)
	if !ok {
		return
	}
	defer release()

	summary, err := engine.SendReminders(c.Request.Context(), force)
	if err != nil {
		if errors.Is(err, notifier.ErrGatewayUnreachable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":   "WhatsApp gateway unreachable",
				"summary": summary,
			})
			return
		}
		handleError(c, http.StatusInternalServerError, "Reminder sweep failed", err)
		return
	}

	status := http.StatusOK
	if !summary.Ok() {
		status = http.StatusMultiStatus
	}
	c.JSON(status, gin.H{"summary": summary})
}

// RunDailyNotifications invokes the group broadcast on demand for an
// optional specific date (default: today).
func RunDailyNotifications(c *gin.Context) {
	force := c.Query("force") == "true"

	date := time.Now().In(engine.Location())
	if raw := c.Query("date"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			handleError(c, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", err)
			return
		}
		date = parsed
	}

	release, ok := acquireJobLock(c, notifier.JobDailyAgenda)
	if !ok {
		return
	}
	defer release()

	summary, err := engine.SendDailyAgenda(c.Request.Context(), date, force)
	if err != nil {
		if errors.Is(err, notifier.ErrGatewayUnreachable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":   "WhatsApp gateway unreachable",
				"summary": summary,
			})
			return
		}
		handleError(c, http.StatusInternalServerError, "Daily notification failed", err)
		return
	}

	status := http.StatusOK
	if !summary.Ok() {
		status = http.StatusMultiStatus
	}
	c.JSON(status, gin.H{"summary": summary})
}

// PruneNotifications deletes ledger entries older than the retention
// horizon. Destructive: requires confirm=true, otherwise it only
// reports how many entries would be deleted.
func PruneNotifications(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", strconv.Itoa(notifier.DefaultRetentionDays)))
	if err != nil || days <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
		return
	}

	if c.Query("confirm") != "true" {
		count, cutoff, err := engine.CountPrunable(days)
		if err != nil {
			handleError(c, http.StatusInternalServerError, "Failed to count prunable notifications", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"would_delete": count,
			"cutoff":       cutoff,
			"message":      "Pass confirm=true to delete",
		})
		return
	}

	result, err := engine.PruneLedger(days)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Pruning failed", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"meetman/internal/database"
	"meetman/internal/models"
	"meetman/internal/notifier"
)

// stubGateway is a controllable in-memory messaging gateway.
type stubGateway struct {
	down    bool
	failAll bool
	sent    int
}

func (g *stubGateway) TestConnection(context.Context) bool { return !g.down }

func (g *stubGateway) Send(_ context.Context, to, body string) (string, error) {
	if g.down {
		return "", errors.New("gateway down")
	}
	if g.failAll {
		return "", errors.New("send rejected")
	}
	g.sent++
	return fmt.Sprintf("wamid.%d", g.sent), nil
}

func setupHandlerTest(t *testing.T) (*gin.Engine, *stubGateway, *gorm.DB, *notifier.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.DB = db
	t.Cleanup(func() { database.DB = nil })

	gateway := &stubGateway{}
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	engine := notifier.New(db, gateway, logger, notifier.Options{
		Location:    time.UTC,
		GroupNumber: "628999000111",
	})
	Init(logger, engine, nil, nil, nil)

	router := gin.New()
	router.GET("/health", HealthHandler)
	router.GET("/api/notifications", GetNotifications)
	router.POST("/api/notifications/send-reminders", RunReminderSweep)
	router.POST("/api/notifications/send-daily", RunDailyNotifications)
	router.DELETE("/api/notifications/prune", PruneNotifications)
	router.POST("/api/participants/import", ImportParticipants)
	router.GET("/api/participants/export", ExportParticipants)
	return router, gateway, db, engine
}

func doRequest(router *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	router.ServeHTTP(w, req)
	return w
}

func seedDueMeeting(t *testing.T, db *gorm.DB) *models.Meeting {
	t.Helper()
	p := &models.Participant{Name: "Dana", PhoneNumber: "628111", Division: "secretariat", Active: true}
	require.NoError(t, db.Create(p).Error)

	// Anchor the date to the start instant so a run close to midnight
	// does not land the meeting on yesterday.
	start := time.Now().UTC().Add(30 * time.Minute)
	m := &models.Meeting{
		Title:                     "Budget review",
		Date:                      datatypes.Date(time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)),
		StartTime:                 models.TimeOfDay{Hour: start.Hour(), Minute: start.Minute()},
		EndTime:                   models.TimeOfDay{Hour: 23, Minute: 59},
		Location:                  "Main meeting room",
		ParticipantID:             &p.ID,
		IndividualReminderEnabled: true,
		GroupNotificationEnabled:  true,
	}
	require.NoError(t, db.Create(m).Error)
	return m
}

func TestHealthHandler(t *testing.T) {
	router, _, _, _ := setupHandlerTest(t)

	w := doRequest(router, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
}

func TestRunReminderSweep(t *testing.T) {
	router, gateway, db, _ := setupHandlerTest(t)
	seedDueMeeting(t, db)

	w := doRequest(router, http.MethodPost, "/api/notifications/send-reminders")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, gateway.sent)

	var body struct {
		Summary notifier.Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, notifier.Summary{Attempted: 1, Succeeded: 1}, body.Summary)

	// Repeat without force: the marker suppresses a resend.
	w = doRequest(router, http.MethodPost, "/api/notifications/send-reminders")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, gateway.sent)

	// force=true resends.
	w = doRequest(router, http.MethodPost, "/api/notifications/send-reminders?force=true")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, gateway.sent)
}

func TestRunReminderSweepGatewayDown(t *testing.T) {
	router, gateway, db, _ := setupHandlerTest(t)
	seedDueMeeting(t, db)

	gateway.down = true
	w := doRequest(router, http.MethodPost, "/api/notifications/send-reminders")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var count int64
	require.NoError(t, db.Model(&models.WhatsappNotification{}).Count(&count).Error)
	assert.Zero(t, count, "an aborted sweep must not write ledger entries")
}

func TestRunReminderSweepPartialFailure(t *testing.T) {
	router, gateway, db, _ := setupHandlerTest(t)
	seedDueMeeting(t, db)

	gateway.failAll = true
	w := doRequest(router, http.MethodPost, "/api/notifications/send-reminders")
	assert.Equal(t, http.StatusMultiStatus, w.Code)
}

func TestRunReminderSweepHeldLock(t *testing.T) {
	router, gateway, db, engine := setupHandlerTest(t)
	seedDueMeeting(t, db)

	// While the cron run holds the reminder lease, the on-demand
	// endpoint must back off instead of double-sending.
	release, err := engine.AcquireLock(notifier.JobReminders, notifier.DefaultLockLease)
	require.NoError(t, err)

	w := doRequest(router, http.MethodPost, "/api/notifications/send-reminders")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Zero(t, gateway.sent)

	var count int64
	require.NoError(t, db.Model(&models.WhatsappNotification{}).Count(&count).Error)
	assert.Zero(t, count)

	release()
	w = doRequest(router, http.MethodPost, "/api/notifications/send-reminders")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, gateway.sent)
}

func TestRunDailyNotificationsHeldLock(t *testing.T) {
	router, gateway, db, engine := setupHandlerTest(t)
	m := seedDueMeeting(t, db)

	release, err := engine.AcquireLock(notifier.JobDailyAgenda, notifier.DefaultLockLease)
	require.NoError(t, err)
	defer release()

	date := time.Time(m.Date).Format("2006-01-02")
	w := doRequest(router, http.MethodPost, "/api/notifications/send-daily?date="+date)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Zero(t, gateway.sent)
}

func TestRunDailyNotifications(t *testing.T) {
	router, gateway, db, _ := setupHandlerTest(t)
	m := seedDueMeeting(t, db)

	date := time.Time(m.Date).Format("2006-01-02")
	w := doRequest(router, http.MethodPost, "/api/notifications/send-daily?date="+date)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, gateway.sent)

	w = doRequest(router, http.MethodPost, "/api/notifications/send-daily?date=31-08-2026")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetNotificationsFilters(t *testing.T) {
	router, _, db, _ := setupHandlerTest(t)

	for _, status := range []string{models.StatusSent, models.StatusSent, models.StatusFailed} {
		entry := models.WhatsappNotification{
			RecipientType:   models.RecipientIndividual,
			RecipientNumber: "628111",
			MessageContent:  "hello",
			Status:          status,
		}
		require.NoError(t, db.Create(&entry).Error)
	}

	w := doRequest(router, http.MethodGet, "/api/notifications?status=failed")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Notifications []models.WhatsappNotification `json:"notifications"`
		Total         int64                         `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(1), body.Total)
	require.Len(t, body.Notifications, 1)
	assert.Equal(t, models.StatusFailed, body.Notifications[0].Status)
}

func TestPruneNotificationsRequiresConfirm(t *testing.T) {
	router, _, db, _ := setupHandlerTest(t)

	old := models.WhatsappNotification{
		RecipientType:   models.RecipientIndividual,
		RecipientNumber: "628111",
		MessageContent:  "stale",
		Status:          models.StatusSent,
		CreatedAt:       time.Now().UTC().AddDate(0, 0, -60),
	}
	require.NoError(t, db.Create(&old).Error)

	// Without confirm: dry run only.
	w := doRequest(router, http.MethodDelete, "/api/notifications/prune?days=30")
	require.Equal(t, http.StatusOK, w.Code)

	var dryRun struct {
		WouldDelete int64 `json:"would_delete"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dryRun))
	assert.Equal(t, int64(1), dryRun.WouldDelete)

	var count int64
	require.NoError(t, db.Model(&models.WhatsappNotification{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// With confirm: the entry is gone.
	w = doRequest(router, http.MethodDelete, "/api/notifications/prune?days=30&confirm=true")
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, db.Model(&models.WhatsappNotification{}).Count(&count).Error)
	assert.Zero(t, count)

	// Invalid horizon.
	w = doRequest(router, http.MethodDelete, "/api/notifications/prune?days=-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

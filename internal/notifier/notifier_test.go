package notifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"meetman/internal/database"
	"meetman/internal/models"
)

// testClock is an adjustable clock injected through Options.Now.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type sentMessage struct {
	To   string
	Body string
}

// fakeGateway implements Gateway in memory. Destinations listed in
// failFor error out; down makes the pre-flight check fail.
type fakeGateway struct {
	mu      sync.Mutex
	down    bool
	failFor map[string]string
	sent    []sentMessage
	nextID  int
}

func (g *fakeGateway) TestConnection(context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.down
}

func (g *fakeGateway) Send(_ context.Context, to string, body string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.down {
		return "", errors.New("gateway down")
	}
	if reason, ok := g.failFor[to]; ok {
		return "", errors.New(reason)
	}
	g.nextID++
	g.sent = append(g.sent, sentMessage{To: to, Body: body})
	return fmt.Sprintf("wamid.%d", g.nextID), nil
}

func (g *fakeGateway) sentCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sent)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newTestEngine(t *testing.T, now time.Time) (*Service, *fakeGateway, *gorm.DB, *testClock) {
	t.Helper()
	db := newTestDB(t)
	gateway := &fakeGateway{failFor: map[string]string{}}
	clk := &testClock{t: now}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc := New(db, gateway, logger, Options{
		Location:    time.UTC,
		GroupNumber: "628999000111",
		Now:         clk.Now,
	})
	return svc, gateway, db, clk
}

func newParticipant(t *testing.T, db *gorm.DB, name, phone string) *models.Participant {
	t.Helper()
	p := &models.Participant{Name: name, PhoneNumber: phone, Division: "secretariat", Active: true}
	require.NoError(t, db.Create(p).Error)
	return p
}

type meetingOpts struct {
	participant *models.Participant
	reminderOff bool
	groupOff    bool
}

func newMeeting(t *testing.T, db *gorm.DB, title string, date time.Time, start string, opts meetingOpts) *models.Meeting {
	t.Helper()
	m := &models.Meeting{
		Title:                     title,
		Date:                      datatypes.Date(date),
		StartTime:                 models.MustTimeOfDay(start),
		EndTime:                   models.MustTimeOfDay("23:59"),
		Location:                  "Main meeting room",
		IndividualReminderEnabled: !opts.reminderOff,
		GroupNotificationEnabled:  !opts.groupOff,
	}
	if opts.participant != nil {
		m.ParticipantID = &opts.participant.ID
	}
	require.NoError(t, db.Create(m).Error)
	return m
}

func reloadMeeting(t *testing.T, db *gorm.DB, id uint) *models.Meeting {
	t.Helper()
	var m models.Meeting
	require.NoError(t, db.First(&m, id).Error)
	return &m
}

func ledgerEntries(t *testing.T, db *gorm.DB) []models.WhatsappNotification {
	t.Helper()
	var entries []models.WhatsappNotification
	require.NoError(t, db.Order("id").Find(&entries).Error)
	return entries
}

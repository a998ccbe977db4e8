package notifier

import (
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Job names used for the cross-invocation lease locks.
const (
	JobReminders    = "meeting:send-reminders"
	JobDailyAgenda  = "meeting:send-daily-notifications"
	JobConnectivity = "whatsapp:test-connection"
	JobCleanup      = "meeting:cleanup-notifications"
)

// Service runs the notification scheduling and dispatch engine: due-set
// computation, dispatch against the gateway, ledger writes and
// retention pruning. It is driven by periodic single-pass invocations
// (cron or the ops CLI), never by an internal event loop.
type Service struct {
	db          *gorm.DB
	gateway     Gateway
	log         *logrus.Logger
	loc         *time.Location
	groupNumber string
	sendTimeout time.Duration
	now         func() time.Time
}

// Options configures optional Service behavior.
type Options struct {
	// Location is the timezone used to resolve "today" and meeting
	// start instants. Defaults to time.Local.
	Location *time.Location

	// GroupNumber is the destination of the daily group broadcast.
	GroupNumber string

	// SendTimeout bounds each gateway call. Defaults to 30s.
	SendTimeout time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// New creates the engine around a database handle and a gateway.
func New(db *gorm.DB, gateway Gateway, logger *logrus.Logger, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 30 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		db:          db,
		gateway:     gateway,
		log:         logger,
		loc:         opts.Location,
		groupNumber: opts.GroupNumber,
		sendTimeout: opts.SendTimeout,
		now:         opts.Now,
	}
}

// Location returns the timezone the engine resolves calendar dates in.
func (s *Service) Location() *time.Location {
	return s.loc
}

// dateOf truncates an instant to its calendar date, normalized to UTC
// midnight, which is how meeting dates are stored.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

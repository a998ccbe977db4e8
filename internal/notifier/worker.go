package notifier

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"meetman/internal/models"
)

// StartScheduler registers the four recurring jobs and starts the cron
// runner: reminder sweep every minute, daily agenda at the configured
// send time, connectivity self-test daily at 06:00 and ledger pruning
// weekly on Sunday night. Each job runs under its lease lock so
// overlapping invocations skip instead of double-sending.
//
// The daily agenda schedule is read from settings at startup; changing
// group_notification_time takes effect on the next restart. On-demand
// runs through the API or CLI cover the gap.
func (s *Service) StartScheduler() (*cron.Cron, error) {
	settings, err := models.GetSettings(s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings for scheduler: %w", err)
	}

	c := cron.New(cron.WithLocation(s.loc))

	_, err = c.AddFunc("* * * * *", func() {
		s.withLock(JobReminders, func() {
			if _, err := s.SendReminders(context.Background(), false); err != nil {
				s.log.WithError(err).Error("reminder sweep failed")
			}
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule reminder sweep: %w", err)
	}

	agendaSpec := fmt.Sprintf("%d %d * * *",
		settings.GroupNotificationTime.Minute, settings.GroupNotificationTime.Hour)
	_, err = c.AddFunc(agendaSpec, func() {
		s.withLock(JobDailyAgenda, func() {
			if _, err := s.SendDailyAgenda(context.Background(), s.now().In(s.loc), false); err != nil {
				s.log.WithError(err).Error("daily agenda failed")
			}
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule daily agenda: %w", err)
	}

	_, err = c.AddFunc("0 6 * * *", func() {
		s.withLock(JobConnectivity, func() {
			if _, err := s.TestGateway(context.Background()); err != nil {
				s.log.WithError(err).Error("connectivity self-test failed")
			}
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule connectivity self-test: %w", err)
	}

	_, err = c.AddFunc("0 2 * * 0", func() {
		s.withLock(JobCleanup, func() {
			if _, err := s.PruneLedger(DefaultRetentionDays); err != nil {
				s.log.WithError(err).Error("ledger pruning failed")
			}
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule ledger pruning: %w", err)
	}

	c.Start()
	s.log.WithField("agenda_time", settings.GroupNotificationTime.Short()).
		Info("notification scheduler started")
	return c, nil
}

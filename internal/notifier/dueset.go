package notifier

import (
	"fmt"
	"time"

	"meetman/internal/models"
)

// ReminderWindow is the width of the due window for individual
// reminders. The sweep is invoked nominally every minute; the window
// tolerates missed or delayed invocations without re-firing, because
// the reminder_sent_at marker excludes meetings once sent. If sweeps
// pause for longer than the window, reminders whose instant fell inside
// the gap are skipped permanently — an accepted trade-off. Widening the
// window is not a fix: it reopens the duplicate-send race across
// invocation boundaries that the marker plus window closes.
const ReminderWindow = 5 * time.Minute

// reminderDue reports whether now falls inside the due window
// [reminderAt, reminderAt+window) for a meeting starting at startsAt
// with the given lead time. A reminder never fires early; it fires at
// its instant or up to the window width late.
func reminderDue(startsAt time.Time, lead time.Duration, now time.Time) bool {
	reminderAt := startsAt.Add(-lead)
	return !now.Before(reminderAt) && now.Before(reminderAt.Add(ReminderWindow))
}

// DueReminders returns the meetings whose individual reminder should
// fire now, given the configured lead time. Unless force is set,
// meetings already stamped with reminder_sent_at are excluded. The
// result carries preloaded participants. No side effects.
func (s *Service) DueReminders(now time.Time, leadMinutes int, force bool) ([]models.Meeting, error) {
	query := s.db.
		Where("individual_reminder_enabled = ?", true).
		Preload("Participant").
		Order("date, start_time")

	if !force {
		query = query.Where("reminder_sent_at IS NULL")
	}

	// A due meeting starts within [now-window, now+lead+window]; bound
	// the scan to those dates instead of the whole table. The extra day
	// on each side absorbs midnight edges.
	lead := time.Duration(leadMinutes) * time.Minute
	lower := dateOf(now.In(s.loc)).AddDate(0, 0, -1)
	upper := dateOf(now.In(s.loc).Add(lead + ReminderWindow)).AddDate(0, 0, 1)
	query = query.Where("date >= ? AND date <= ?", lower, upper)

	var candidates []models.Meeting
	if err := query.Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("failed to query reminder candidates: %w", err)
	}

	due := make([]models.Meeting, 0, len(candidates))
	for _, meeting := range candidates {
		if reminderDue(meeting.StartsAt(s.loc), lead, now) {
			due = append(due, meeting)
		}
	}
	return due, nil
}

// GroupMeetings returns all meetings on the given calendar date with
// group notification enabled, ordered by start time. The sent marker is
// deliberately not filtered here; the dispatcher decides whether a
// stamped day is re-broadcast (force).
func (s *Service) GroupMeetings(date time.Time) ([]models.Meeting, error) {
	day := dateOf(date)
	var meetings []models.Meeting
	err := s.db.
		Where("date >= ? AND date < ?", day, day.AddDate(0, 0, 1)).
		Where("group_notification_enabled = ?", true).
		Order("start_time").
		Find(&meetings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query meetings for %s: %w", day.Format("2006-01-02"), err)
	}
	return meetings, nil
}

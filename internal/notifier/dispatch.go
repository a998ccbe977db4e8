package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meetman/internal/models"
)

// ErrGatewayUnreachable is returned when the pre-flight connectivity
// check fails. The whole batch is aborted: no ledger entries are
// written and no markers change.
var ErrGatewayUnreachable = errors.New("messaging gateway unreachable")

// Summary reports the outcome of one dispatch batch.
type Summary struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Ok reports whether the batch completed without any failure.
func (s Summary) Ok() bool {
	return s.Failed == 0
}

func (s Summary) String() string {
	return fmt.Sprintf("attempted=%d succeeded=%d failed=%d", s.Attempted, s.Succeeded, s.Failed)
}

// SendReminders runs one individual-reminder sweep: compute the due
// set, pre-flight the gateway, send one message per meeting, write a
// ledger entry per attempt and stamp reminder_sent_at on success.
// Item-level failures are counted and never abort the batch; only a
// failed pre-flight does.
func (s *Service) SendReminders(ctx context.Context, force bool) (Summary, error) {
	var summary Summary

	settings, err := models.GetSettings(s.db)
	if err != nil {
		return summary, err
	}
	if !settings.IndividualReminderEnabled {
		s.log.Warn("individual reminders are disabled in settings")
		return summary, nil
	}

	now := s.now()
	due, err := s.DueReminders(now, settings.IndividualReminderMinutes, force)
	if err != nil {
		return summary, err
	}
	if len(due) == 0 {
		s.log.Debug("no meetings require reminders at this time")
		return summary, nil
	}

	s.log.WithFields(map[string]interface{}{
		"count": len(due),
		"lead":  settings.IndividualReminderMinutes,
		"force": force,
	}).Info("sending meeting reminders")

	if !s.gateway.TestConnection(ctx) {
		s.log.Error("gateway pre-flight check failed, aborting reminder batch")
		return summary, ErrGatewayUnreachable
	}

	for i := range due {
		meeting := &due[i]
		summary.Attempted++

		participant := meeting.Participant
		if participant == nil || !participant.Active {
			summary.Failed++
			s.recordUnresolvableRecipient(meeting)
			continue
		}

		body := BuildReminderMessage(meeting, participant, settings.IndividualReminderMinutes, s.loc)
		entry, sendErr := s.deliver(ctx, &models.WhatsappNotification{
			MeetingID:       &meeting.ID,
			RecipientType:   models.RecipientIndividual,
			RecipientNumber: participant.PhoneNumber,
			MessageContent:  body,
		})
		if sendErr != nil {
			summary.Failed++
			s.log.WithError(sendErr).WithField("meeting_id", meeting.ID).
				Error("failed to send reminder")
			continue
		}

		// The marker must be written only after the send completed, and
		// a write failure is an item failure: an unwritten marker risks
		// a duplicate send on the next cycle.
		sentAt := *entry.SentAt
		if err := s.db.Model(meeting).Update("reminder_sent_at", sentAt).Error; err != nil {
			summary.Failed++
			s.log.WithError(err).WithField("meeting_id", meeting.ID).
				Error("reminder sent but marker update failed")
			continue
		}

		summary.Succeeded++
		s.log.WithFields(map[string]interface{}{
			"meeting_id": meeting.ID,
			"recipient":  participant.Name,
		}).Info("reminder sent")
	}

	s.log.Infof("reminder sweep finished: %s", summary)
	return summary, nil
}

// SendDailyAgenda sends the single group broadcast carrying the full
// agenda for the given calendar date. Marker stamping is all-or-nothing
// across the day's meetings: on failure none are stamped, so a retry
// never sees a partially-stamped day.
func (s *Service) SendDailyAgenda(ctx context.Context, date time.Time, force bool) (Summary, error) {
	var summary Summary

	settings, err := models.GetSettings(s.db)
	if err != nil {
		return summary, err
	}
	if !settings.GroupNotificationEnabled {
		s.log.Warn("group notifications are disabled in settings")
		return summary, nil
	}

	meetings, err := s.GroupMeetings(date)
	if err != nil {
		return summary, err
	}
	if len(meetings) == 0 {
		s.log.WithField("date", dateOf(date).Format("2006-01-02")).
			Info("no meetings found for group notification")
		return summary, nil
	}

	// Stamping is atomic, so one stamped meeting means the whole day
	// already went out. Only a forced re-run resends it.
	if !force {
		for _, meeting := range meetings {
			if meeting.GroupNotificationSentAt != nil {
				s.log.Info("daily agenda already sent for this date, skipping")
				return summary, nil
			}
		}
	}

	if !s.gateway.TestConnection(ctx) {
		s.log.Error("gateway pre-flight check failed, aborting daily agenda")
		return summary, ErrGatewayUnreachable
	}

	body := BuildDailyAgenda(dateOf(date), meetings)
	summary.Attempted = 1

	entry, sendErr := s.deliver(ctx, &models.WhatsappNotification{
		RecipientType:   models.RecipientGroup,
		RecipientNumber: s.groupNumber,
		MessageContent:  body,
	})
	if sendErr != nil {
		summary.Failed = 1
		s.log.WithError(sendErr).Error("failed to send daily agenda")
		return summary, nil
	}

	day := dateOf(date)
	err = s.db.Model(&models.Meeting{}).
		Where("date >= ? AND date < ?", day, day.AddDate(0, 0, 1)).
		Where("group_notification_enabled = ?", true).
		Update("group_notification_sent_at", *entry.SentAt).Error
	if err != nil {
		// The broadcast went out but the day is unstamped; surface it
		// rather than pretend nothing happened.
		summary.Failed = 1
		s.log.WithError(err).Error("daily agenda sent but marker stamping failed")
		return summary, nil
	}

	summary.Succeeded = 1
	s.log.WithFields(map[string]interface{}{
		"date":     day.Format("2006-01-02"),
		"meetings": len(meetings),
	}).Info("daily agenda sent")
	return summary, nil
}

// SendMeetingReminder force-sends the individual reminder for one
// meeting, bypassing the due window and the idempotency marker. This is
// the manual resend path used when a reminder's instant has already
// slipped past the sweep window.
func (s *Service) SendMeetingReminder(ctx context.Context, meetingID uint) error {
	var meeting models.Meeting
	if err := s.db.Preload("Participant").First(&meeting, meetingID).Error; err != nil {
		return fmt.Errorf("meeting %d not found: %w", meetingID, err)
	}

	participant := meeting.Participant
	if participant == nil || !participant.Active {
		s.recordUnresolvableRecipient(&meeting)
		return fmt.Errorf("meeting %d has no active participant", meetingID)
	}

	settings, err := models.GetSettings(s.db)
	if err != nil {
		return err
	}

	if !s.gateway.TestConnection(ctx) {
		return ErrGatewayUnreachable
	}

	body := BuildReminderMessage(&meeting, participant, settings.IndividualReminderMinutes, s.loc)
	entry, err := s.deliver(ctx, &models.WhatsappNotification{
		MeetingID:       &meeting.ID,
		RecipientType:   models.RecipientIndividual,
		RecipientNumber: participant.PhoneNumber,
		MessageContent:  body,
	})
	if err != nil {
		return err
	}

	if err := s.db.Model(&meeting).Update("reminder_sent_at", *entry.SentAt).Error; err != nil {
		return fmt.Errorf("reminder sent but marker update failed: %w", err)
	}
	s.log.WithField("meeting_id", meeting.ID).Info("manual reminder sent")
	return nil
}

// SendDirect sends an arbitrary message to a destination and records it
// in the ledger. Used by the settings test-message endpoints.
func (s *Service) SendDirect(ctx context.Context, to string, recipientType string, body string) error {
	if !s.gateway.TestConnection(ctx) {
		return ErrGatewayUnreachable
	}
	_, err := s.deliver(ctx, &models.WhatsappNotification{
		RecipientType:   recipientType,
		RecipientNumber: to,
		MessageContent:  body,
	})
	return err
}

// GroupNumber exposes the configured broadcast destination.
func (s *Service) GroupNumber() string {
	return s.groupNumber
}

// TestGateway probes the gateway and records the result on the
// settings row so the dashboard can display last-known health.
func (s *Service) TestGateway(ctx context.Context) (bool, error) {
	connected := s.gateway.TestConnection(ctx)

	if _, err := models.GetSettings(s.db); err != nil {
		return connected, err
	}
	err := s.db.Model(&models.Settings{}).Where("id = ?", 1).
		Update("whatsapp_connected", connected).Error
	if err != nil {
		return connected, fmt.Errorf("failed to record gateway status: %w", err)
	}

	if connected {
		s.log.Info("gateway connection test succeeded")
	} else {
		s.log.Error("gateway connection test failed")
	}
	return connected, nil
}

// deliver creates a pending ledger entry, performs the gateway send
// under the configured timeout, and moves the entry to its terminal
// status. Exactly one entry is written per attempt; the entry is never
// touched again after reaching sent or failed.
func (s *Service) deliver(ctx context.Context, entry *models.WhatsappNotification) (*models.WhatsappNotification, error) {
	entry.Status = models.StatusPending
	if err := s.db.Create(entry).Error; err != nil {
		// No audit row could be written; do not attempt the send, the
		// history would be lost.
		return nil, fmt.Errorf("failed to create ledger entry: %w", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	messageID, sendErr := s.gateway.Send(sendCtx, entry.RecipientNumber, entry.MessageContent)
	if sendErr != nil {
		reason := sendErr.Error()
		if err := s.db.Model(entry).Updates(map[string]interface{}{
			"status":        models.StatusFailed,
			"error_message": reason,
		}).Error; err != nil {
			s.log.WithError(err).Error("failed to record send failure in ledger")
		}
		return nil, sendErr
	}

	sentAt := s.now()
	if err := s.db.Model(entry).Updates(map[string]interface{}{
		"status":              models.StatusSent,
		"sent_at":             sentAt,
		"whatsapp_message_id": messageID,
	}).Error; err != nil {
		// The message is out but unrecorded; treat as an item failure
		// so the operator sees it.
		return nil, fmt.Errorf("message sent but ledger update failed: %w", err)
	}
	entry.SentAt = &sentAt
	entry.WhatsappMessageID = &messageID
	entry.Status = models.StatusSent
	return entry, nil
}

// recordUnresolvableRecipient writes a failed ledger entry for a due
// meeting with no usable participant. The batch moves on; a missing
// recipient must never abort the other sends.
func (s *Service) recordUnresolvableRecipient(meeting *models.Meeting) {
	reason := "no active participant assigned to meeting"
	s.log.WithField("meeting_id", meeting.ID).Warn(reason)

	entry := models.WhatsappNotification{
		MeetingID:       &meeting.ID,
		RecipientType:   models.RecipientIndividual,
		RecipientNumber: "",
		MessageContent:  "",
		Status:          models.StatusFailed,
		ErrorMessage:    &reason,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		s.log.WithError(err).Error("failed to record validation failure in ledger")
	}
}

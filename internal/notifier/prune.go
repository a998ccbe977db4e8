package notifier

import (
	"fmt"
	"time"

	"meetman/internal/models"
)

// DefaultRetentionDays is how long ledger entries are kept before the
// weekly cleanup sweep purges them.
const DefaultRetentionDays = 30

// PruneResult reports the outcome of one retention sweep.
type PruneResult struct {
	Cutoff    time.Time `json:"cutoff"`
	Deleted   int64     `json:"deleted"`
	Remaining int64     `json:"remaining"`
}

// CountPrunable returns how many ledger entries would be deleted for
// the given retention horizon, along with the cutoff instant. Used by
// the CLI to ask for confirmation before the destructive step.
func (s *Service) CountPrunable(retentionDays int) (int64, time.Time, error) {
	cutoff := s.pruneCutoff(retentionDays)
	var count int64
	err := s.db.Model(&models.WhatsappNotification{}).
		Where("created_at < ?", cutoff).
		Count(&count).Error
	if err != nil {
		return 0, cutoff, fmt.Errorf("failed to count prunable notifications: %w", err)
	}
	return count, cutoff, nil
}

// PruneLedger deletes ledger entries strictly older than the retention
// horizon, measured from entry creation time, and reports how many
// remain. Entries younger than the horizon are never touched.
func (s *Service) PruneLedger(retentionDays int) (PruneResult, error) {
	cutoff := s.pruneCutoff(retentionDays)
	result := PruneResult{Cutoff: cutoff}

	res := s.db.Unscoped().
		Where("created_at < ?", cutoff).
		Delete(&models.WhatsappNotification{})
	if res.Error != nil {
		return result, fmt.Errorf("failed to prune notifications: %w", res.Error)
	}
	result.Deleted = res.RowsAffected

	if err := s.db.Model(&models.WhatsappNotification{}).Count(&result.Remaining).Error; err != nil {
		return result, fmt.Errorf("failed to count remaining notifications: %w", err)
	}

	s.log.WithFields(map[string]interface{}{
		"deleted":   result.Deleted,
		"remaining": result.Remaining,
		"cutoff":    cutoff.Format(time.RFC3339),
	}).Info("notification ledger pruned")
	return result, nil
}

func (s *Service) pruneCutoff(retentionDays int) time.Time {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return s.now().AddDate(0, 0, -retentionDays)
}

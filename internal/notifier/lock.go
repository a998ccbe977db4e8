package notifier

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"meetman/internal/models"
)

// ErrLockHeld is returned when another invocation of the same job
// currently holds the lease.
var ErrLockHeld = errors.New("job lock already held")

// DefaultLockLease bounds how long a hung run can block its job.
const DefaultLockLease = 10 * time.Minute

// AcquireLock takes the lease lock for a job name. Two concurrent runs
// of the same job must not both proceed: the idempotency markers close
// most of the duplicate-send window, but not the race between reading a
// marker as null and writing it. The returned release function is safe
// to defer; an expired lease is treated as abandoned and can be taken
// over.
func (s *Service) AcquireLock(jobName string, lease time.Duration) (func(), error) {
	if lease <= 0 {
		lease = DefaultLockLease
	}
	now := s.now()
	holder := uuid.NewString()

	// Take over an expired lease first.
	res := s.db.Model(&models.JobLock{}).
		Where("job_name = ? AND locked_until < ?", jobName, now).
		Updates(map[string]interface{}{
			"holder":       holder,
			"locked_until": now.Add(lease),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update job lock: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		// No expired row to take over: either no row exists yet, or a
		// live holder has it. The primary key decides.
		lock := models.JobLock{
			JobName:     jobName,
			LockedUntil: now.Add(lease),
			Holder:      holder,
		}
		if err := s.db.Create(&lock).Error; err != nil {
			// Only a key conflict means the lock is held. Anything
			// else is a storage failure and must surface as one, not
			// masquerade as a running job.
			var existing models.JobLock
			if lookupErr := s.db.Where("job_name = ?", jobName).
				First(&existing).Error; lookupErr == nil {
				return nil, ErrLockHeld
			}
			return nil, fmt.Errorf("failed to create job lock: %w", err)
		}
	}

	release := func() {
		err := s.db.
			Where("job_name = ? AND holder = ?", jobName, holder).
			Delete(&models.JobLock{}).Error
		if err != nil {
			s.log.WithError(err).WithField("job", jobName).
				Warn("failed to release job lock, lease will expire on its own")
		}
	}
	return release, nil
}

// withLock runs fn under the job's lease lock, skipping the run
// entirely if another invocation holds it.
func (s *Service) withLock(jobName string, fn func()) {
	release, err := s.AcquireLock(jobName, DefaultLockLease)
	if err != nil {
		if errors.Is(err, ErrLockHeld) {
			s.log.WithField("job", jobName).Warn("previous run still in progress, skipping")
		} else {
			s.log.WithError(err).WithField("job", jobName).Error("failed to acquire job lock")
		}
		return
	}
	defer release()
	fn()
}

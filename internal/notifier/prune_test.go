package notifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"meetman/internal/models"
)

func seedLedgerEntry(t *testing.T, db *gorm.DB, createdAt time.Time) {
	t.Helper()
	entry := models.WhatsappNotification{
		RecipientType:   models.RecipientIndividual,
		RecipientNumber: "628111",
		MessageContent:  "old reminder",
		Status:          models.StatusSent,
		CreatedAt:       createdAt,
	}
	require.NoError(t, db.Create(&entry).Error)
}

func TestPruneLedgerStrictCutoff(t *testing.T) {
	now := time.Date(2026, 8, 31, 2, 0, 0, 0, time.UTC)
	svc, _, db, _ := newTestEngine(t, now)

	cutoff := now.AddDate(0, 0, -30)
	seedLedgerEntry(t, db, cutoff.Add(-time.Second)) // just past the horizon
	seedLedgerEntry(t, db, cutoff)                   // exactly at it: kept
	seedLedgerEntry(t, db, cutoff.Add(time.Second))
	seedLedgerEntry(t, db, now.Add(-time.Hour))

	result, err := svc.PruneLedger(30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Deleted)
	assert.Equal(t, int64(3), result.Remaining)
	assert.True(t, result.Cutoff.Equal(cutoff))

	// A second run finds nothing left to delete.
	result, err = svc.PruneLedger(30)
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Deleted)
	assert.Equal(t, int64(3), result.Remaining)
}

func TestPruneLedgerDefaultsRetention(t *testing.T) {
	now := time.Date(2026, 8, 31, 2, 0, 0, 0, time.UTC)
	svc, _, db, _ := newTestEngine(t, now)

	seedLedgerEntry(t, db, now.AddDate(0, 0, -31))
	seedLedgerEntry(t, db, now.AddDate(0, 0, -7))

	// Zero and negative horizons fall back to the 30-day default
	// instead of deleting everything.
	result, err := svc.PruneLedger(0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Deleted)
	assert.Equal(t, int64(1), result.Remaining)
}

func TestPruneLedgerNothingPrunable(t *testing.T) {
	now := time.Date(2026, 8, 31, 2, 0, 0, 0, time.UTC)
	svc, _, db, _ := newTestEngine(t, now)

	seedLedgerEntry(t, db, now.Add(-time.Hour))
	seedLedgerEntry(t, db, now.AddDate(0, 0, -7))

	// Even a no-op sweep reports the remaining ledger size.
	result, err := svc.PruneLedger(30)
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Deleted)
	assert.Equal(t, int64(2), result.Remaining)
}

func TestCountPrunable(t *testing.T) {
	now := time.Date(2026, 8, 31, 2, 0, 0, 0, time.UTC)
	svc, _, db, _ := newTestEngine(t, now)

	seedLedgerEntry(t, db, now.AddDate(0, 0, -40))
	seedLedgerEntry(t, db, now.AddDate(0, 0, -35))
	seedLedgerEntry(t, db, now.AddDate(0, 0, -5))

	count, cutoff, err := svc.CountPrunable(30)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.True(t, cutoff.Equal(now.AddDate(0, 0, -30)))

	// Counting must not delete anything.
	var total int64
	require.NoError(t, db.Model(&models.WhatsappNotification{}).Count(&total).Error)
	assert.Equal(t, int64(3), total)
}

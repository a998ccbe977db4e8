package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("07:00")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 7}, tod)

	tod, err = ParseTimeOfDay("14:30:15")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 14, Minute: 30, Second: 15}, tod)

	for _, bad := range []string{"", "25:00", "7am", "14-30", "14:30:15:00"} {
		_, err := ParseTimeOfDay(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestTimeOfDayFormatting(t *testing.T) {
	tod := TimeOfDay{Hour: 7, Minute: 5}
	assert.Equal(t, "07:05:00", tod.String())
	assert.Equal(t, "07:05", tod.Short())
}

func TestTimeOfDayOn(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	date := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	got := TimeOfDay{Hour: 14, Minute: 30}.On(date, loc)
	assert.Equal(t, time.Date(2026, 8, 31, 14, 30, 0, 0, loc), got)
}

func TestTimeOfDayBefore(t *testing.T) {
	assert.True(t, MustTimeOfDay("08:00").Before(MustTimeOfDay("13:00")))
	assert.True(t, MustTimeOfDay("08:00").Before(MustTimeOfDay("08:01")))
	assert.True(t, MustTimeOfDay("08:00:01").Before(MustTimeOfDay("08:00:02")))
	assert.False(t, MustTimeOfDay("13:00").Before(MustTimeOfDay("08:00")))
	assert.False(t, MustTimeOfDay("08:00").Before(MustTimeOfDay("08:00")))
}

func TestTimeOfDayScan(t *testing.T) {
	var tod TimeOfDay
	require.NoError(t, tod.Scan("09:15:30"))
	assert.Equal(t, TimeOfDay{Hour: 9, Minute: 15, Second: 30}, tod)

	require.NoError(t, tod.Scan([]byte("23:59")))
	assert.Equal(t, TimeOfDay{Hour: 23, Minute: 59}, tod)

	require.NoError(t, tod.Scan(time.Date(2026, 1, 1, 6, 45, 0, 0, time.UTC)))
	assert.Equal(t, TimeOfDay{Hour: 6, Minute: 45}, tod)

	assert.Error(t, tod.Scan(42))
}

func TestTimeOfDayValueRoundTrip(t *testing.T) {
	v, err := MustTimeOfDay("14:30:15").Value()
	require.NoError(t, err)

	var tod TimeOfDay
	require.NoError(t, tod.Scan(v))
	assert.Equal(t, MustTimeOfDay("14:30:15"), tod)
}

func TestTimeOfDayJSON(t *testing.T) {
	data, err := json.Marshal(MustTimeOfDay("07:00"))
	require.NoError(t, err)
	assert.Equal(t, `"07:00"`, string(data))

	var tod TimeOfDay
	require.NoError(t, json.Unmarshal([]byte(`"14:30"`), &tod))
	assert.Equal(t, MustTimeOfDay("14:30"), tod)

	assert.Error(t, json.Unmarshal([]byte(`"later"`), &tod))
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// TimeOfDay represents a wall-clock time stored in a TIME column,
// e.g. a meeting's start time. The date part is irrelevant.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ParseTimeOfDay parses "15:04" or "15:04:05" strings.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var t TimeOfDay
	layouts := []string{"15:04:05", "15:04"}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Hour = parsed.Hour()
			t.Minute = parsed.Minute()
			t.Second = parsed.Second()
			return t, nil
		}
	}
	return t, fmt.Errorf("invalid time of day %q, expected HH:MM or HH:MM:SS", s)
}

// MustTimeOfDay is a test/fixture helper that panics on bad input.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Short returns the HH:MM form used in rendered messages.
func (t TimeOfDay) Short() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On anchors the time of day to a calendar date in the given location.
func (t TimeOfDay) On(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour, t.Minute, t.Second, 0, loc)
}

// Before reports whether t is earlier in the day than other.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	if t.Hour != other.Hour {
		return t.Hour < other.Hour
	}
	if t.Minute != other.Minute {
		return t.Minute < other.Minute
	}
	return t.Second < other.Second
}

// Implement driver.Valuer and sql.Scanner so GORM maps it to a TIME column.
func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String(), nil
}

func (t *TimeOfDay) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		parsed, err := ParseTimeOfDay(v)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case []byte:
		parsed, err := ParseTimeOfDay(string(v))
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case time.Time:
		*t = TimeOfDay{Hour: v.Hour(), Minute: v.Minute(), Second: v.Second()}
		return nil
	default:
		return fmt.Errorf("unsupported type for TimeOfDay: %T", value)
	}
}

// GormDataType tells GORM which column type to use.
func (TimeOfDay) GormDataType() string {
	return "time"
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Short())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

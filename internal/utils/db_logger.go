package utils

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm/logger"
)

// FilteredGormLogger wraps a GORM logger and drops trace lines whose
// SQL matches one of the configured patterns. Used to keep the
// once-a-minute scheduler polling queries out of the SQL log.
type FilteredGormLogger struct {
	logger.Interface
	ignoredQueryPatterns []string
}

// NewFilteredGormLogger creates a logger that ignores queries containing
// any of the given substrings
func NewFilteredGormLogger(l logger.Interface, ignoredPatterns ...string) *FilteredGormLogger {
	return &FilteredGormLogger{
		Interface:            l,
		ignoredQueryPatterns: ignoredPatterns,
	}
}

// LogMode implements logger.Interface
func (l *FilteredGormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &FilteredGormLogger{
		Interface:            l.Interface.LogMode(level),
		ignoredQueryPatterns: l.ignoredQueryPatterns,
	}
}

// Trace implements logger.Interface
func (l *FilteredGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	sql, _ := fc()

	// Skip logging if the SQL matches any of the ignored patterns
	for _, pattern := range l.ignoredQueryPatterns {
		if strings.Contains(sql, pattern) {
			return
		}
	}

	l.Interface.Trace(ctx, begin, fc, err)
}

package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds the application logger: human-readable output on stdout,
// mirrored into a size-rotated file under logs/. Level comes from
// LOG_LEVEL (default info).
func New() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "logs/meetman.log"
	}
	rotator := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    20, // megabytes
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	}
	logger.SetOutput(io.MultiWriter(os.Stdout, rotator))

	return logger
}

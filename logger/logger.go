package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus.Logger with the field helpers used across the service.
type Logger struct {
	*logrus.Logger
}

// New creates a JSON logger writing to stdout at the given level.
// Unknown levels fall back to info.
func New(level string) *Logger {
	return NewWithOutput(level, os.Stdout)
}

func NewWithOutput(level string, out io.Writer) *Logger {
	log := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	log.SetLevel(logLevel)

	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	log.SetOutput(out)

	return &Logger{Logger: log}
}

func (l *Logger) WithComponent(component string) *logrus.Entry {
	return l.Logger.WithField("component", component)
}

func (l *Logger) WithRequestID(requestID string) *logrus.Entry {
	return l.Logger.WithField("request_id", requestID)
}

// Consent logs a consent lifecycle event for a submission.
func (l *Logger) Consent(action string, submissionID uint, status string, fields logrus.Fields) {
	entry := l.Logger.WithFields(logrus.Fields{
		"consent":       true,
		"action":        action,
		"submission_id": submissionID,
		"status":        status,
	})
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Info("Consent event")
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *Logger {
	return NewWithOutput("panic", io.Discard)
}

package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Fields is an alias so callers don't import logrus for structured entries.
type Fields = logrus.Fields

var Logger *logrus.Logger

func Init(level string) {
	InitWithOutput(level, os.Stdout)
}

// InitWithOutput sets up the JSON logger writing to w.
func InitWithOutput(level string, w io.Writer) {
	Logger = logrus.New()
	Logger.SetOutput(w)
	Logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	Logger.SetLevel(logLevel)
}

// Entry is a field-scoped logger. The zero value discards everything.
type Entry struct {
	entry *logrus.Entry
}

// WithFields returns an entry carrying fields such as meeting_id or participant_id.
func WithFields(fields Fields) Entry {
	if Logger == nil {
		return Entry{}
	}
	return Entry{entry: Logger.WithFields(fields)}
}

func (e Entry) Debugf(format string, args ...interface{}) {
	if e.entry != nil {
		e.entry.Debugf(format, args...)
	}
}

func (e Entry) Infof(format string, args ...interface{}) {
	if e.entry != nil {
		e.entry.Infof(format, args...)
	}
}

func (e Entry) Warnf(format string, args ...interface{}) {
	if e.entry != nil {
		e.entry.Warnf(format, args...)
	}
}

func (e Entry) Errorf(format string, args ...interface{}) {
	if e.entry != nil {
		e.entry.Errorf(format, args...)
	}
}

// Convenience functions
func Debug(args ...interface{}) {
	if Logger != nil {
		Logger.Debug(args...)
	}
}

func Debugf(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Debugf(format, args...)
	}
}

func Info(args ...interface{}) {
	if Logger != nil {
		Logger.Info(args...)
	}
}

func Infof(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Infof(format, args...)
	}
}

func Warn(args ...interface{}) {
	if Logger != nil {
		Logger.Warn(args...)
	}
}

func Warnf(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Warnf(format, args...)
	}
}

func Error(args ...interface{}) {
	if Logger != nil {
		Logger.Error(args...)
	}
}

func Errorf(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Errorf(format, args...)
	}
}

func Fatal(args ...interface{}) {
	if Logger != nil {
		Logger.Fatal(args...)
	}
	os.Exit(1)
}

func Fatalf(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Fatalf(format, args...)
	}
	os.Exit(1)
}

// Package logger wraps logrus with the structured service/action fields
// every component of the system logs with.
package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger emits JSON log lines tagged with a service name and an action.
// Action returns a derived logger so call sites read as
// log.Action("order_created").Info("...").
type Logger interface {
	Action(action string) Logger
	With(key string, value any) Logger
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string, err error)
}

type logger struct {
	entry *logrus.Entry
}

// New builds the root logger for a service.
func New(service string) Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05Z07:00"})
	hostname, _ := os.Hostname()
	return &logger{entry: l.WithFields(logrus.Fields{
		"service":  service,
		"hostname": hostname,
	})}
}

// NewNop discards everything; used by tests.
func NewNop() Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(logrus.PanicLevel)
	return &logger{entry: logrus.NewEntry(l)}
}

func (l *logger) Action(action string) Logger {
	return &logger{entry: l.entry.WithField("action", action)}
}

func (l *logger) With(key string, value any) Logger {
	return &logger{entry: l.entry.WithField(key, value)}
}

func (l *logger) Debug(msg string) { l.entry.Debug(msg) }
func (l *logger) Info(msg string)  { l.entry.Info(msg) }
func (l *logger) Warn(msg string)  { l.entry.Warn(msg) }

func (l *logger) Error(msg string, err error) {
	l.entry.WithError(err).Error(msg)
}

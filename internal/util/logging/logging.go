// Package logging provides a single process-wide structured logger, set up
// once and narrowed per-component with WithGroup/WithField, mirroring how
// the rest of this code base expects to log.
package logging

import (
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	once     sync.Once
	instance *logrus.Logger
)

// Get returns the process-wide logger, creating it on first use.
func Get() *logrus.Logger {
	once.Do(func() {
		instance = logrus.New()
		instance.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	})
	return instance
}

// WithGroup returns a log entry tagged with the given component/group name.
func WithGroup(group string) *logrus.Entry {
	return Get().WithField("group", group)
}

// SetLevel adjusts the verbosity of the process-wide logger.
func SetLevel(level logrus.Level) {
	Get().SetLevel(level)
}

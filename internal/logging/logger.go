// Package logging decouples the application from a concrete logging
// framework. Production code logs through the Logger interface; the
// logrus adapter is the only implementation shipped.
package logging

// Field is a key-value pair attached to a log message.
type Field struct {
	Key   string
	Value interface{}
}

// Logger is the structured logging interface used across the service.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// WithError returns a logger with an error field attached.
	WithError(err error) Logger
	// WithField returns a logger with one extra field attached.
	WithField(key string, value interface{}) Logger
	// WithFields returns a logger with several extra fields attached.
	WithFields(fields ...Field) Logger
}

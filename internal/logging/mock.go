package logging

// NopLogger discards everything. Useful in tests where log output is
// irrelevant.
type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}

// WithError returns the logger unchanged.
func (n NopLogger) WithError(error) Logger { return n }

// WithField returns the logger unchanged.
func (n NopLogger) WithField(string, interface{}) Logger { return n }

// WithFields returns the logger unchanged.
func (n NopLogger) WithFields(...Field) Logger { return n }

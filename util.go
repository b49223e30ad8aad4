package homa

// nullLogger is the zero-effort [Logger] [NewEngine] falls back to when
// the caller passes a nil logger.
type nullLogger struct{}

func (nullLogger) Debug(message string)           {}
func (nullLogger) Debugf(format string, v ...any) {}
func (nullLogger) Info(message string)            {}
func (nullLogger) Infof(format string, v ...any)  {}
func (nullLogger) Warn(message string)            {}
func (nullLogger) Warnf(format string, v ...any)  {}

var _ Logger = nullLogger{}

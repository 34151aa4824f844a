package core

// LogLevel is a logging severity
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// Logger is the structured logger every layer writes to.
// Fields are flat key/value pairs; values that are errors are rendered as error fields.
type Logger interface {
	Debug(message string, fields map[string]any)
	Info(message string, fields map[string]any)
	Warn(message string, fields map[string]any)
	Error(message string, fields map[string]any)
	// With returns a child logger that adds fields to every entry
	With(fields map[string]any) Logger
	// Flush writes buffered entries
	Flush() error
}

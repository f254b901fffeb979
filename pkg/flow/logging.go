package flow

// LogEvent describes a notable step of a submission.
type LogEvent struct {
	Level   string
	Message string
	Fields  map[string]any
}

// Logger records flow events.
type Logger interface {
	Log(LogEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(LogEvent)

// Log implements Logger.
func (f LoggerFunc) Log(event LogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) Log(LogEvent) {}

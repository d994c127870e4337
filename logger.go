package logsink

import "github.com/rs/zerolog"

// Logger emits records for one module through the installed sink. It holds
// no reference to the sink, so a Logger may be created before Initialize and
// kept across refreshes.
type Logger struct {
	module string
}

// Module returns the Logger for name. Module names are matched against the
// module filter by their "/", "." or ":" separated prefixes.
func Module(name string) Logger {
	if name == emptyString {
		name = DefaultModule
	}
	return Logger{module: name}
}

// Name returns the module name records are tagged with.
func (l Logger) Name() string {
	return l.module
}

// Enabled reports whether a record at level would currently be emitted.
func (l Logger) Enabled(level zerolog.Level) bool {
	s := active.Load()
	if s == nil {
		return false
	}
	st := s.state()
	return st != nil && st.spec.Enabled(l.module, level)
}

func (l Logger) Trace() LogEvent { return l.at(zerolog.TraceLevel) }
func (l Logger) Debug() LogEvent { return l.at(zerolog.DebugLevel) }
func (l Logger) Info() LogEvent  { return l.at(zerolog.InfoLevel) }
func (l Logger) Warn() LogEvent  { return l.at(zerolog.WarnLevel) }
func (l Logger) Error() LogEvent { return l.at(zerolog.ErrorLevel) }

// At returns an event at an arbitrary level. Fatal and panic levels are
// written like any other level; they do not exit or panic.
func (l Logger) At(level zerolog.Level) LogEvent {
	return l.at(level)
}

func (l Logger) at(level zerolog.Level) LogEvent {
	s := active.Load()
	if s == nil {
		return newLogEvent(nil)
	}
	return newLogEvent(s.event(l.module, level))
}

package logsink

import (
	"io"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

// filterState is what a record is evaluated against. Both halves come from
// the same refresh and are published with one pointer store.
type filterState struct {
	spec      *Specification
	duplicate zerolog.Level
}

// sink is the installed backend. filter is read on every record without a
// lock; file carries its own mutex for rotation state.
type sink struct {
	file    *rotatingFile
	modules ModuleFilter
	toFile  zerolog.Logger
	toBoth  zerolog.Logger
	filter  atomic.Pointer[filterState]
}

// active is the process-wide destination used by Module loggers.
var active atomic.Pointer[sink]

func newSink(p RotationPolicy, console io.Writer, modules ModuleFilter) (*sink, error) {
	file, err := openRotatingFile(p)
	if err != nil {
		return nil, err
	}
	fileOut := fileFormatter(file)
	consoleOut := consoleFormatter(console)

	s := &sink{
		file:    file,
		modules: modules.clone(),
		toFile:  zerolog.New(fileOut).With().Timestamp().Logger(),
		toBoth:  zerolog.New(zerolog.MultiLevelWriter(fileOut, consoleOut)).With().Timestamp().Logger(),
	}
	return s, nil
}

// setLevel publishes a freshly built specification and the matching console
// duplication threshold.
func (s *sink) setLevel(level zerolog.Level) {
	s.filter.Store(&filterState{
		spec:      NewSpecification(level, s.modules),
		duplicate: level,
	})
}

func (s *sink) state() *filterState {
	return s.filter.Load()
}

// event returns a zerolog event for the record, or nil when it is filtered.
// A nil *zerolog.Event is a valid no-op.
func (s *sink) event(module string, level zerolog.Level) *zerolog.Event {
	st := s.filter.Load()
	if st == nil || !st.spec.Enabled(module, level) {
		return nil
	}
	logger := &s.toFile
	if st.duplicate != zerolog.Disabled && level >= st.duplicate {
		logger = &s.toBoth
	}
	return logger.WithLevel(level).Str(ModuleFieldName, module)
}

func (s *sink) close() error {
	return s.file.Close()
}

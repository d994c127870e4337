package logsink

import "github.com/rs/zerolog"

// Config supplies the persisted logging settings. It is consulted on
// Initialize and on every refresh.
type Config interface {
	LogLevel() zerolog.Level
	// LogMaxSizeKB reports the rotation threshold in kilobytes; ok is false
	// when the setting is absent.
	LogMaxSizeKB() (sizeKB uint64, ok bool)
	// LogMaxCount reports how many archives to keep; ok is false when the
	// setting is absent. Zero is a valid setting.
	LogMaxCount() (count int, ok bool)
}

// DirResolver resolves the directory that holds the log files.
type DirResolver interface {
	LogDir() (string, error)
}

// DirFunc adapts a function to DirResolver.
type DirFunc func() (string, error)

func (f DirFunc) LogDir() (string, error) {
	return f()
}

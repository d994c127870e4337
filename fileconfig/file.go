package fileconfig

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Station-Manager/logsink"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
	"gopkg.in/yaml.v3"
)

// DefaultLevel applies when the file has no usable level.
const DefaultLevel = zerolog.InfoLevel

// Settings is the on-disk shape of the settings file. Pointer fields are
// absent when nil.
type Settings struct {
	Level     string  `yaml:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic off none disabled"`
	MaxSizeKB *uint64 `yaml:"max_size_kb" validate:"omitempty,gt=0"`
	MaxCount  *int    `yaml:"max_count" validate:"omitempty,gte=0"`
	Dir       string  `yaml:"dir"`
}

// Changes reports which half of the sink configuration differs between two
// loads of the file.
type Changes struct {
	Level bool
	File  bool
}

// Any reports whether anything changed.
func (c Changes) Any() bool {
	return c.Level || c.File
}

// File is a settings file. It implements logsink.Config and
// logsink.DirResolver; reads always see the last successful load.
type File struct {
	path       string
	defaultDir string
	current    atomic.Pointer[Settings]
}

var (
	_ logsink.Config      = (*File)(nil)
	_ logsink.DirResolver = (*File)(nil)
)

// Load reads path. defaultDir is used when the file names no directory.
func Load(path, defaultDir string) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve settings path %s", path)
	}
	f := &File{path: abs, defaultDir: defaultDir}
	settings, err := readSettings(abs)
	if err != nil {
		return nil, err
	}
	f.current.Store(settings)
	return f, nil
}

// Path returns the absolute path of the settings file.
func (f *File) Path() string {
	return f.path
}

// Settings returns a copy of the last loaded settings.
func (f *File) Settings() Settings {
	return *f.current.Load()
}

// Reload re-reads the file. On error the previous settings are kept.
func (f *File) Reload() (Changes, error) {
	next, err := readSettings(f.path)
	if err != nil {
		return Changes{}, err
	}
	prev := f.current.Swap(next)
	return diff(prev, next), nil
}

func (f *File) LogLevel() zerolog.Level {
	s := f.current.Load()
	if s.Level == "" {
		return DefaultLevel
	}
	l, err := logsink.ParseLevel(s.Level)
	if err != nil {
		return DefaultLevel
	}
	return l
}

func (f *File) LogMaxSizeKB() (uint64, bool) {
	s := f.current.Load()
	if s.MaxSizeKB == nil {
		return 0, false
	}
	return *s.MaxSizeKB, true
}

func (f *File) LogMaxCount() (int, bool) {
	s := f.current.Load()
	if s.MaxCount == nil {
		return 0, false
	}
	return *s.MaxCount, true
}

// LogDir resolves the configured directory against the settings file's
// directory. It fails when no directory is configured or when the path
// exists and is not a directory.
func (f *File) LogDir() (string, error) {
	dir := f.current.Load().Dir
	switch {
	case dir == "" && f.defaultDir == "":
		return "", errors.New("no log directory configured")
	case dir == "":
		dir = f.defaultDir
	case !filepath.IsAbs(dir):
		dir = filepath.Join(filepath.Dir(f.path), dir)
	}
	info, err := os.Stat(dir)
	switch {
	case err == nil && !info.IsDir():
		return "", errors.Errorf("log path %s is not a directory", dir)
	case err != nil && !os.IsNotExist(err):
		return "", errors.Wrapf(err, "stat log directory %s", dir)
	}
	return filepath.Clean(dir), nil
}

func readSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read settings %s", path)
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrapf(err, "parse settings %s", path)
	}
	// Level names are case-insensitive, as in logsink.ParseLevel.
	s.Level = strings.ToLower(strings.TrimSpace(s.Level))
	if err := logsink.Validator().Struct(&s); err != nil {
		return nil, errors.Wrapf(err, "validate settings %s", path)
	}
	return &s, nil
}

func diff(prev, next *Settings) Changes {
	return Changes{
		Level: prev.Level != next.Level,
		File: !equalPtr(prev.MaxSizeKB, next.MaxSizeKB) ||
			!equalPtr(prev.MaxCount, next.MaxCount) ||
			prev.Dir != next.Dir,
	}
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

package logsink

import (
	"io"
	"os"
	"sync"

	smerrors "github.com/Station-Manager/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Service owns the process-wide sink. Initialize it once; afterwards
// RefreshLevel and RefreshFile may be called from any goroutine, including
// concurrently with each other and with record emission.
type Service struct {
	Config Config      `di.inject:"logconfig"`
	Dirs   DirResolver `di.inject:"logdirs"`
	// Filter is captured by Initialize; later changes have no effect.
	Filter ModuleFilter
	// EnvVar names the level override variable; empty means EnvLogLevel.
	EnvVar string
	// Console receives duplicated records; nil means os.Stdout.
	Console io.Writer

	mu     sync.RWMutex
	handle *sink
}

// NewService returns a Service using the default module filter.
func NewService(cfg Config, dirs DirResolver) *Service {
	return &Service{
		Config: cfg,
		Dirs:   dirs,
		Filter: DefaultModuleFilter,
	}
}

// Initialize builds the sink from the current configuration and installs it
// as the process-wide destination. On error nothing is installed.
//
// Initialize is meant to run once. A second call builds and installs a new
// sink and closes the previous file; records racing that swap may be lost.
func (s *Service) Initialize() error {
	const op smerrors.Op = "logsink.Service.Initialize"
	if s == nil {
		return newError(op, ErrBackendConstruction, errors.New(errMsgNilService))
	}
	if s.Config == nil {
		return newError(op, ErrBackendConstruction, errors.New(errMsgNilConfig))
	}
	if s.Dirs == nil {
		return newError(op, ErrBackendConstruction, errors.New(errMsgNilDirs))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	policy, err := s.rotationPolicy(op)
	if err != nil {
		return err
	}
	sk, err := newSink(policy, s.console(), s.Filter)
	if err != nil {
		return newError(op, ErrBackendConstruction, err)
	}
	sk.setLevel(s.level())

	previous := s.handle
	s.handle = sk
	active.Store(sk)
	if previous != nil {
		_ = previous.close()
	}
	return nil
}

// RefreshLevel re-reads the level and swaps the specification and console
// duplication threshold in one step. Rotation state is not touched.
func (s *Service) RefreshLevel() error {
	const op smerrors.Op = "logsink.Service.RefreshLevel"
	if !s.initialized() {
		return newError(op, ErrNotInitialized, nil)
	}
	level := s.level()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil {
		return newError(op, ErrNotInitialized, nil)
	}
	s.handle.setLevel(level)
	return nil
}

// RefreshFile re-reads the rotation settings and log directory and resets the
// live writer's policy. On error the previous policy stays in force.
//
// A write racing the reset is checked against whichever policy the writer
// sees first; that straddle is accepted.
func (s *Service) RefreshFile() error {
	const op smerrors.Op = "logsink.Service.RefreshFile"
	if !s.initialized() {
		return newError(op, ErrNotInitialized, nil)
	}
	policy, err := s.rotationPolicy(op)
	if err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.handle == nil {
		return newError(op, ErrNotInitialized, nil)
	}
	if err := s.handle.file.Reset(policy); err != nil {
		return newError(op, ErrBackendConstruction, err)
	}
	return nil
}

// Close uninstalls the sink if it is still the active one and closes the
// live file. It's safe to call Close multiple times.
func (s *Service) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil {
		return nil
	}
	active.CompareAndSwap(s.handle, nil)
	err := s.handle.close()
	s.handle = nil
	return err
}

func (s *Service) initialized() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handle != nil
}

// level resolves the effective level: the environment override when it is
// set and parses, otherwise the configured level.
func (s *Service) level() zerolog.Level {
	name := s.EnvVar
	if name == emptyString {
		name = EnvLogLevel
	}
	if l, ok := envLevel(name); ok {
		return l
	}
	return s.Config.LogLevel()
}

func (s *Service) rotationPolicy(op smerrors.Op) (RotationPolicy, error) {
	dir, err := s.Dirs.LogDir()
	if err != nil {
		return RotationPolicy{}, newError(op, ErrDirectoryResolution, err)
	}
	if dir == emptyString {
		return RotationPolicy{}, newError(op, ErrDirectoryResolution, errors.New("empty log directory"))
	}
	sizeKB, ok := s.Config.LogMaxSizeKB()
	if !ok {
		sizeKB = DefaultMaxSizeKB
	}
	count, ok := s.Config.LogMaxCount()
	if !ok {
		count = DefaultMaxCount
	}
	policy, err := NewRotationPolicy(dir, sizeKB, count)
	if err != nil {
		return RotationPolicy{}, newError(op, ErrBackendConstruction, err)
	}
	return policy, nil
}

func (s *Service) console() io.Writer {
	if s.Console != nil {
		return s.Console
	}
	return os.Stdout
}

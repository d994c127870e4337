package logsink

import (
	"io"
	"path/filepath"
	"strings"

	smerrors "github.com/Station-Manager/errors"
	"github.com/pkg/errors"
	"gopkg.in/natefinch/lumberjack.v2"
)

const megabyte = 1024 * 1024

// SidecarWriter returns a size-rotated writer for the output of a child
// process, stored as <logdir>/sidecar/<name>.log. Its limits follow the
// active rotation policy, rounded up to whole megabytes, and it keeps at
// least one backup. The caller owns and closes the writer.
func (s *Service) SidecarWriter(name string) (io.WriteCloser, error) {
	const op smerrors.Op = "logsink.Service.SidecarWriter"
	if name == emptyString || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, newError(op, ErrBackendConstruction, errors.Errorf("invalid sidecar name %q", name))
	}

	s.mu.RLock()
	h := s.handle
	s.mu.RUnlock()
	if h == nil {
		return nil, newError(op, ErrNotInitialized, nil)
	}

	p := h.file.currentPolicy()
	return &lumberjack.Logger{
		Filename:   filepath.Join(p.Dir, sidecarDirName, name+archiveExt),
		MaxSize:    int((p.MaxBytes + megabyte - 1) / megabyte),
		MaxBackups: max(p.Keep, 1),
		LocalTime:  true,
	}, nil
}

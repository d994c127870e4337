package logsink

import (
	smerrors "github.com/Station-Manager/errors"
	"github.com/pkg/errors"
)

var (
	// ErrNotInitialized is returned by refresh operations called before
	// Initialize succeeded.
	ErrNotInitialized = errors.New("logging service not initialized")
	// ErrDirectoryResolution is returned when the log directory could not be
	// resolved.
	ErrDirectoryResolution = errors.New("log directory resolution failed")
	// ErrBackendConstruction is returned when the sink or its file writer could
	// not be built or reconfigured.
	ErrBackendConstruction = errors.New("log backend construction failed")
)

// newError returns a DetailedError for op whose chain matches kind, and err
// when it is set, under errors.Is.
func newError(op smerrors.Op, kind, err error) error {
	if err == nil {
		return smerrors.New(op).Err(kind).Msg(kind.Error())
	}
	return smerrors.New(op).Err(&kindError{kind: kind, err: err}).Msg(kind.Error() + ": " + err.Error())
}

// kindError tags a cause with one of the sentinel kinds.
type kindError struct {
	kind error
	err  error
}

func (e *kindError) Error() string { return e.err.Error() }
func (e *kindError) Unwrap() error { return e.err }
func (e *kindError) Is(target error) bool { return target == e.kind }

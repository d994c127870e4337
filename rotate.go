package logsink

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

const maxArchiveRestarts = 9999

// rotatingFile is the file half of the sink. It appends to the live file,
// archives it once it has grown past the policy threshold and prunes old
// archives. All state is guarded by mu; the level specification never takes
// it.
type rotatingFile struct {
	mu     sync.Mutex
	policy RotationPolicy
	file   *os.File
	size   int64
	closed bool
	now    func() time.Time
}

func openRotatingFile(p RotationPolicy) (*rotatingFile, error) {
	f, size, err := openLiveFile(p.Dir)
	if err != nil {
		return nil, err
	}
	return &rotatingFile{policy: p, file: f, size: size, now: time.Now}, nil
}

func openLiveFile(dir string) (*os.File, int64, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, 0, errors.Wrap(err, "create log directory")
	}
	f, err := os.OpenFile(filepath.Join(dir, liveFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, 0, errors.Wrap(err, "open live log file")
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, errors.Wrap(err, "stat live log file")
	}
	return f, info.Size(), nil
}

// Write appends p to the live file. Once the live file has grown past the
// threshold, the next write archives it first and lands in a fresh live file.
// A live file lost to a failed rotation is reopened here.
func (r *rotatingFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, errors.New(errMsgWriterClosed)
	}
	if r.file == nil {
		f, size, err := openLiveFile(r.policy.Dir)
		if err != nil {
			return 0, err
		}
		r.file, r.size = f, size
	}

	var rotateErr error
	if r.size > r.policy.MaxBytes {
		rotateErr = r.rotate()
		if r.file == nil {
			return 0, rotateErr
		}
	}
	n, err := r.file.Write(p)
	r.size += int64(n)
	if err != nil {
		return n, multierr.Append(rotateErr, errors.Wrap(err, "write live log file"))
	}
	return n, rotateErr
}

// Reset adopts a new policy without closing the live file. The byte counter
// is re-read from disk. When the directory changes, the new live file is
// opened before the old one is closed, so a failure leaves the writer as it
// was. Threshold and retention take effect on the next write.
func (r *rotatingFile) Reset(p RotationPolicy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errors.New(errMsgWriterClosed)
	}
	if filepath.Clean(p.Dir) != filepath.Clean(r.policy.Dir) {
		f, size, err := openLiveFile(p.Dir)
		if err != nil {
			return err
		}
		old := r.file
		r.file, r.size, r.policy = f, size, p
		if old != nil {
			// The switch is complete; a failed close only leaks the old handle.
			_ = old.Close()
		}
		return nil
	}
	if r.file != nil {
		if info, err := r.file.Stat(); err == nil {
			r.size = info.Size()
		}
	}
	r.policy = p
	return nil
}

func (r *rotatingFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return errors.Wrap(err, "close live log file")
}

func (r *rotatingFile) currentPolicy() RotationPolicy {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.policy
}

func (r *rotatingFile) currentSize() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// rotate must be called with mu held. The live file is reopened even when
// closing or archiving the old one failed; r.file is nil only when that
// reopen failed too.
func (r *rotatingFile) rotate() error {
	live := filepath.Join(r.policy.Dir, liveFileName)
	archive, err := archivePath(r.policy.Dir, r.now())
	if err != nil {
		return err
	}

	var errs error
	if err := r.file.Close(); err != nil {
		errs = errors.Wrap(err, "close live log file")
	}
	r.file = nil
	if err := os.Rename(live, archive); err != nil {
		errs = multierr.Append(errs, errors.Wrap(err, "archive live log file"))
	}
	f, size, err := openLiveFile(r.policy.Dir)
	if err != nil {
		return multierr.Append(errs, err)
	}
	r.file, r.size = f, size
	return multierr.Append(errs, r.cleanup())
}

// cleanup deletes the oldest archives beyond the retention count. The live
// file is never an archive, so Keep == 0 leaves it alone.
func (r *rotatingFile) cleanup() error {
	archives, err := listArchives(r.policy.Dir)
	if err != nil {
		return err
	}
	if len(archives) <= r.policy.Keep {
		return nil
	}
	var errs error
	for _, name := range archives[:len(archives)-r.policy.Keep] {
		if err := os.Remove(filepath.Join(r.policy.Dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = multierr.Append(errs, errors.Wrapf(err, "remove archive %s", name))
		}
	}
	return errs
}

// archivePath returns the archive path for a rotation at t. Further
// rotations within the same second get an increasing ".restart-NNNN" infix so
// that names keep sorting in rotation order.
func archivePath(dir string, t time.Time) (string, error) {
	base := t.Format(archiveTimeFormat)
	archives, err := listArchives(dir)
	if err != nil {
		return emptyString, err
	}
	next := 0
	for _, name := range archives {
		if !strings.HasPrefix(name, base) {
			continue
		}
		next = max(next, restartIndex(name[len(base):])+1)
	}
	if next > maxArchiveRestarts {
		return emptyString, errors.Errorf("no free archive name for %s", base)
	}
	if next == 0 {
		return filepath.Join(dir, base+archiveExt), nil
	}
	return filepath.Join(dir, fmt.Sprintf("%s.restart-%04d%s", base, next, archiveExt)), nil
}

// restartIndex parses the part of an archive name after its timestamp:
// ".log" is 0, ".restart-0003.log" is 3.
func restartIndex(suffix string) int {
	digits, ok := strings.CutPrefix(strings.TrimSuffix(suffix, archiveExt), ".restart-")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

// listArchives returns archive file names in dir, oldest first. The name
// format sorts chronologically.
func listArchives(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "list log directory")
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !isArchiveName(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func isArchiveName(name string) bool {
	if name == liveFileName || !strings.HasSuffix(name, archiveExt) || len(name) < len(archiveTimeFormat) {
		return false
	}
	_, err := time.Parse(archiveTimeFormat, name[:len(archiveTimeFormat)])
	return err == nil
}

package logsink

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// steppingClock returns a clock that advances one second per call.
func steppingClock() func() time.Time {
	t := time.Date(2026, 10, 18, 9, 30, 0, 0, time.Local)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestRotatingFile(t *testing.T, maxBytes int64, keep int) (*rotatingFile, string) {
	t.Helper()
	dir := t.TempDir()
	r, err := openRotatingFile(RotationPolicy{Dir: dir, MaxBytes: maxBytes, Keep: keep})
	require.NoError(t, err)
	r.now = steppingClock()
	t.Cleanup(func() { _ = r.Close() })
	return r, dir
}

func fileSize(t *testing.T, path string) int64 {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	return info.Size()
}

func TestRotatingFile_ThresholdRotation(t *testing.T) {
	r, dir := newTestRotatingFile(t, 1024, 2)

	chunk := bytes.Repeat([]byte("a"), 100)
	for i := 0; i < 20; i++ {
		_, err := r.Write(chunk)
		require.NoError(t, err)
	}
	_, err := r.Write(bytes.Repeat([]byte("b"), 48))
	require.NoError(t, err)

	archives, err := listArchives(dir)
	require.NoError(t, err)
	require.Len(t, archives, 1)
	assert.Equal(t, int64(1100), fileSize(t, filepath.Join(dir, archives[0])))

	assert.Equal(t, int64(948), r.currentSize())
	assert.Equal(t, int64(948), fileSize(t, filepath.Join(dir, liveFileName)))
	assert.Less(t, r.currentSize(), int64(1024))
}

// 2 KB of 128-byte records against a 1 KB threshold: one archive, and a
// live file below the threshold.
func TestRotatingFile_TwoKilobytesOfRecords(t *testing.T) {
	r, dir := newTestRotatingFile(t, 1024, 2)

	record := append(bytes.Repeat([]byte("r"), 127), '\n')
	for i := 0; i < 16; i++ {
		_, err := r.Write(record)
		require.NoError(t, err)
	}

	archives, err := listArchives(dir)
	require.NoError(t, err)
	require.Len(t, archives, 1)
	assert.Equal(t, int64(9*128), fileSize(t, filepath.Join(dir, archives[0])))
	assert.Equal(t, int64(7*128), fileSize(t, filepath.Join(dir, liveFileName)))
	assert.Less(t, r.currentSize(), int64(1024))
}

func TestRotatingFile_ExactThresholdDoesNotRotate(t *testing.T) {
	r, dir := newTestRotatingFile(t, 1024, 2)

	_, err := r.Write(bytes.Repeat([]byte("a"), 1024))
	require.NoError(t, err)
	_, err = r.Write([]byte("b"))
	require.NoError(t, err)

	archives, err := listArchives(dir)
	require.NoError(t, err)
	assert.Empty(t, archives)
	assert.Equal(t, int64(1025), r.currentSize())

	_, err = r.Write([]byte("c"))
	require.NoError(t, err)
	archives, err = listArchives(dir)
	require.NoError(t, err)
	require.Len(t, archives, 1)
	assert.Equal(t, int64(1025), fileSize(t, filepath.Join(dir, archives[0])))
	assert.Equal(t, int64(1), r.currentSize())
}

func TestRotatingFile_Retention(t *testing.T) {
	r, dir := newTestRotatingFile(t, 10, 2)

	for _, c := range []string{"1", "2", "3", "4", "5"} {
		_, err := r.Write(bytes.Repeat([]byte(c), 11))
		require.NoError(t, err)
	}

	archives, err := listArchives(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"2026-10-18_09-30-03.log", "2026-10-18_09-30-04.log"}, archives)

	oldest, err := os.ReadFile(filepath.Join(dir, archives[0]))
	require.NoError(t, err)
	assert.Equal(t, "33333333333", string(oldest))
	assert.FileExists(t, filepath.Join(dir, liveFileName))
}

func TestRotatingFile_RetentionZero(t *testing.T) {
	r, dir := newTestRotatingFile(t, 10, 0)

	for i := 0; i < 3; i++ {
		_, err := r.Write(bytes.Repeat([]byte("z"), 12))
		require.NoError(t, err)
	}

	archives, err := listArchives(dir)
	require.NoError(t, err)
	assert.Empty(t, archives)
	assert.FileExists(t, filepath.Join(dir, liveFileName))

	_, err = r.Write([]byte("after"))
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, liveFileName))
	require.NoError(t, err)
	assert.Equal(t, "after", string(data))
}

func TestRotatingFile_SameSecondArchives(t *testing.T) {
	r, dir := newTestRotatingFile(t, 10, 5)
	fixed := time.Date(2026, 10, 18, 9, 30, 0, 0, time.Local)
	r.now = func() time.Time { return fixed }

	for i := 0; i < 4; i++ {
		_, err := r.Write(bytes.Repeat([]byte("x"), 11))
		require.NoError(t, err)
	}

	archives, err := listArchives(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"2026-10-18_09-30-00.log",
		"2026-10-18_09-30-00.restart-0001.log",
		"2026-10-18_09-30-00.restart-0002.log",
	}, archives)
}

func TestRotatingFile_SameSecondRetentionKeepsNewest(t *testing.T) {
	r, dir := newTestRotatingFile(t, 10, 1)
	fixed := time.Date(2026, 10, 18, 9, 30, 0, 0, time.Local)
	r.now = func() time.Time { return fixed }

	for _, c := range []string{"1", "2", "3", "4"} {
		_, err := r.Write(bytes.Repeat([]byte(c), 11))
		require.NoError(t, err)
	}

	archives, err := listArchives(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"2026-10-18_09-30-00.restart-0002.log"}, archives)
	data, err := os.ReadFile(filepath.Join(dir, archives[0]))
	require.NoError(t, err)
	assert.Equal(t, "33333333333", string(data))
}

func TestRotatingFile_Reset(t *testing.T) {
	t.Run("keeps the open file and its size", func(t *testing.T) {
		r, dir := newTestRotatingFile(t, 1024, 2)
		_, err := r.Write(bytes.Repeat([]byte("a"), 500))
		require.NoError(t, err)

		require.NoError(t, r.Reset(RotationPolicy{Dir: dir, MaxBytes: 2048, Keep: 1}))
		assert.Equal(t, int64(500), r.currentSize())

		_, err = r.Write(bytes.Repeat([]byte("b"), 1600))
		require.NoError(t, err)
		archives, err := listArchives(dir)
		require.NoError(t, err)
		assert.Empty(t, archives)

		_, err = r.Write([]byte("c"))
		require.NoError(t, err)
		archives, err = listArchives(dir)
		require.NoError(t, err)
		require.Len(t, archives, 1)
		assert.Equal(t, int64(2100), fileSize(t, filepath.Join(dir, archives[0])))
	})

	t.Run("smaller threshold rotates on next write", func(t *testing.T) {
		r, dir := newTestRotatingFile(t, 1024, 2)
		_, err := r.Write(bytes.Repeat([]byte("a"), 500))
		require.NoError(t, err)

		require.NoError(t, r.Reset(RotationPolicy{Dir: dir, MaxBytes: 256, Keep: 2}))
		archives, err := listArchives(dir)
		require.NoError(t, err)
		assert.Empty(t, archives)

		_, err = r.Write([]byte("c"))
		require.NoError(t, err)
		archives, err = listArchives(dir)
		require.NoError(t, err)
		assert.Len(t, archives, 1)
		assert.Equal(t, int64(1), r.currentSize())
	})

	t.Run("lower retention applies on next rotation", func(t *testing.T) {
		r, dir := newTestRotatingFile(t, 10, 5)
		for i := 0; i < 5; i++ {
			_, err := r.Write(bytes.Repeat([]byte("a"), 11))
			require.NoError(t, err)
		}
		require.NoError(t, r.Reset(RotationPolicy{Dir: dir, MaxBytes: 10, Keep: 1}))
		archives, err := listArchives(dir)
		require.NoError(t, err)
		assert.Len(t, archives, 4)

		_, err = r.Write(bytes.Repeat([]byte("a"), 11))
		require.NoError(t, err)
		archives, err = listArchives(dir)
		require.NoError(t, err)
		assert.Len(t, archives, 1)
	})

	t.Run("switches directory", func(t *testing.T) {
		r, dir := newTestRotatingFile(t, 1024, 2)
		_, err := r.Write([]byte("old"))
		require.NoError(t, err)

		moved := filepath.Join(t.TempDir(), "nested", "logs")
		require.NoError(t, r.Reset(RotationPolicy{Dir: moved, MaxBytes: 1024, Keep: 2}))
		_, err = r.Write([]byte("new"))
		require.NoError(t, err)

		old, err := os.ReadFile(filepath.Join(dir, liveFileName))
		require.NoError(t, err)
		assert.Equal(t, "old", string(old))
		fresh, err := os.ReadFile(filepath.Join(moved, liveFileName))
		require.NoError(t, err)
		assert.Equal(t, "new", string(fresh))
		assert.Equal(t, int64(3), r.currentSize())
	})

	t.Run("directory switch succeeds when the old file fails to close", func(t *testing.T) {
		r, _ := newTestRotatingFile(t, 1024, 2)
		require.NoError(t, r.file.Close())

		moved := filepath.Join(t.TempDir(), "moved")
		require.NoError(t, r.Reset(RotationPolicy{Dir: moved, MaxBytes: 1024, Keep: 2}))
		assert.Equal(t, moved, r.currentPolicy().Dir)

		_, err := r.Write([]byte("new"))
		require.NoError(t, err)
		data, err := os.ReadFile(filepath.Join(moved, liveFileName))
		require.NoError(t, err)
		assert.Equal(t, "new", string(data))
	})

	t.Run("failed directory switch keeps writer", func(t *testing.T) {
		r, dir := newTestRotatingFile(t, 1024, 2)
		before := r.currentPolicy()
		blocker := filepath.Join(t.TempDir(), "blocker")
		require.NoError(t, os.WriteFile(blocker, nil, 0o644))

		err := r.Reset(RotationPolicy{Dir: filepath.Join(blocker, "logs"), MaxBytes: 10, Keep: 0})
		require.Error(t, err)
		assert.Equal(t, before, r.currentPolicy())

		_, err = r.Write([]byte("kept"))
		require.NoError(t, err)
		data, err := os.ReadFile(filepath.Join(dir, liveFileName))
		require.NoError(t, err)
		assert.Equal(t, "kept", string(data))
	})
}

func TestRotatingFile_RecoversFromFailedClose(t *testing.T) {
	r, dir := newTestRotatingFile(t, 10, 2)
	_, err := r.Write(bytes.Repeat([]byte("a"), 11))
	require.NoError(t, err)

	// The handle is already closed, so closing it during rotation fails.
	require.NoError(t, r.file.Close())
	_, err = r.Write([]byte("x"))
	require.Error(t, err)

	_, err = r.Write([]byte("y"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, liveFileName))
	require.NoError(t, err)
	assert.Equal(t, "xy", string(data))
	archives, err := listArchives(dir)
	require.NoError(t, err)
	assert.Len(t, archives, 1)
}

func TestRotatingFile_OpensExistingLiveFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, liveFileName), bytes.Repeat([]byte("p"), 100), 0o644))

	r, err := openRotatingFile(RotationPolicy{Dir: dir, MaxBytes: 1024, Keep: 1})
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, int64(100), r.currentSize())
}

func TestRotatingFile_Closed(t *testing.T) {
	r, _ := newTestRotatingFile(t, 1024, 1)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	_, err := r.Write([]byte("late"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), errMsgWriterClosed)
	assert.Error(t, r.Reset(RotationPolicy{Dir: t.TempDir(), MaxBytes: 1, Keep: 0}))
}

func TestIsArchiveName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"2026-10-18_09-30-00.log", true},
		{"2026-10-18_09-30-00.restart-0001.log", true},
		{liveFileName, false},
		{"2026-10-18_09-30-00.txt", false},
		{"core-2026-10-18T09-30-00.000.log", false},
		{"notes.log", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isArchiveName(tt.name))
		})
	}
}

func TestNewRotationPolicy(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		p, err := NewRotationPolicy("/var/log/app", 128, 8)
		require.NoError(t, err)
		assert.Equal(t, RotationPolicy{Dir: "/var/log/app", MaxBytes: 128 * 1024, Keep: 8}, p)
	})

	t.Run("zero retention is valid", func(t *testing.T) {
		_, err := NewRotationPolicy("/var/log/app", 1, 0)
		assert.NoError(t, err)
	})

	t.Run("invalid", func(t *testing.T) {
		for name, args := range map[string]struct {
			dir  string
			size uint64
			keep int
		}{
			"zero size":      {"/var/log/app", 0, 1},
			"negative keep":  {"/var/log/app", 1, -1},
			"empty dir":      {"", 1, 1},
			"size overflows": {"/var/log/app", 1 << 60, 1},
		} {
			_, err := NewRotationPolicy(args.dir, args.size, args.keep)
			assert.Error(t, err, name)
		}
	})
}

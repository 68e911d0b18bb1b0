package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/lockstate/lockstate/lock"
)

func TestNewAndOpen(t *testing.T) {
	d := t.TempDir()
	dir := filepath.Join(d, "locks")

	_, err := Open(dir)
	assert.Error(t, err)

	fw, err := New(dir)
	require.NoError(t, err)
	require.NotNil(t, fw)

	_, err = New(dir)
	assert.Error(t, err)

	fw, err = Open(dir)
	require.NoError(t, err)
	require.NotNil(t, fw)
}

func TestCreateAndDestroy(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "locks")
	fw, err := New(dir)
	require.NoError(t, err)

	attr := &lock.Attributes{Name: "ctr"}
	h, status := fw.CreateLock(attr)
	require.Equal(t, lock.StatusSuccess, status)
	assert.FileExists(t, filepath.Join(dir, "ctr"))

	// Same name twice is refused.
	_, status = fw.CreateLock(attr)
	assert.Equal(t, lock.StatusInvalidParameter, status)

	// Unnamed locks get generated names.
	h2, status := fw.CreateLock(nil)
	require.Equal(t, lock.StatusSuccess, status)
	assert.NotEqual(t, h, h2)

	require.NoError(t, fw.DestroyLock(h))
	_, err = os.Stat(filepath.Join(dir, "ctr"))
	assert.True(t, os.IsNotExist(err))

	err = fw.DestroyLock(h)
	assert.ErrorIs(t, err, lock.ErrNoSuchLock)
}

func TestSafeLockRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "locks")
	fw, err := New(dir)
	require.NoError(t, err)

	l, err := lock.SafeLock{}.Create(fw, &lock.Attributes{Name: "vm"})
	require.NoError(t, err)

	l, err = l.Acquire()
	require.NoError(t, err)
	assert.Equal(t, lock.Held, l.State())

	l, err = l.Release()
	require.NoError(t, err)
	assert.Equal(t, lock.Initialized, l.State())

	// Reacquirable after release.
	l, err = l.Acquire()
	require.NoError(t, err)
	_, err = l.Release()
	require.NoError(t, err)
}

func TestMutualExclusion(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "locks")
	fw, err := New(dir)
	require.NoError(t, err)

	h, status := fw.CreateLock(&lock.Attributes{Name: "shared"})
	require.Equal(t, lock.StatusSuccess, status)

	fw.AcquireLock(h)

	// An independent flock on the same lock file must be excluded while
	// the framework holds it. A fresh instance is required here: flock(2)
	// excludes per open file description, so contending through the same
	// handle would trivially succeed.
	contender := flock.New(filepath.Join(dir, "shared"))
	locked, err := contender.TryLock()
	require.NoError(t, err)
	assert.False(t, locked)

	// A blocked contender gets the lock once the holder releases.
	var eg errgroup.Group
	eg.Go(func() error {
		if err := contender.Lock(); err != nil {
			return err
		}
		return contender.Unlock()
	})
	fw.ReleaseLock(h)
	require.NoError(t, eg.Wait())
}

func TestClose(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "locks")
	fw, err := New(dir)
	require.NoError(t, err)

	_, status := fw.CreateLock(&lock.Attributes{Name: "a"})
	require.Equal(t, lock.StatusSuccess, status)
	_, status = fw.CreateLock(&lock.Attributes{Name: "b"})
	require.Equal(t, lock.StatusSuccess, status)

	require.NoError(t, fw.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Nothing left to remove.
	require.NoError(t, fw.Close())
}

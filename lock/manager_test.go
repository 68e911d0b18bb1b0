package lock

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenDestroyFramework struct {
	stubFramework
}

func (f *brokenDestroyFramework) DestroyLock(Handle) error {
	return errors.New("destroy refused")
}

func TestManagerAllocateAndRetrieve(t *testing.T) {
	fw := &stubFramework{}
	m := NewManager(fw)

	id, l, err := m.Allocate(&Attributes{Name: "ctr"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	require.NotNil(t, l)

	got, err := m.Retrieve(id)
	require.NoError(t, err)
	assert.Same(t, l, got)

	id2, _, err := m.Allocate(nil)
	require.NoError(t, err)
	assert.NotEqual(t, id, id2)
}

func TestManagerAllocateFailure(t *testing.T) {
	fw := &stubFramework{refuse: StatusInsufficientResources}
	m := NewManager(fw)

	_, _, err := m.Allocate(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, StatusInsufficientResources)
}

func TestManagerFree(t *testing.T) {
	fw := &stubFramework{}
	m := NewManager(fw)

	id, _, err := m.Allocate(nil)
	require.NoError(t, err)

	require.NoError(t, m.Free(id))
	assert.Equal(t, 1, fw.destroys)

	_, err = m.Retrieve(id)
	assert.ErrorIs(t, err, ErrNoSuchLock)

	err = m.Free(id)
	assert.ErrorIs(t, err, ErrNoSuchLock)
}

func TestManagerClose(t *testing.T) {
	fw := &stubFramework{}
	m := NewManager(fw)

	_, _, err := m.Allocate(nil)
	require.NoError(t, err)
	_, _, err = m.Allocate(nil)
	require.NoError(t, err)

	require.NoError(t, m.Close())
	assert.Equal(t, 2, fw.destroys)

	// Idempotent once drained.
	require.NoError(t, m.Close())
	assert.Equal(t, 2, fw.destroys)
}

func TestManagerCloseAggregatesFailures(t *testing.T) {
	fw := &brokenDestroyFramework{}
	m := NewManager(fw)

	_, _, err := m.Allocate(nil)
	require.NoError(t, err)
	_, _, err = m.Allocate(nil)
	require.NoError(t, err)

	err = m.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "destroy refused")
}

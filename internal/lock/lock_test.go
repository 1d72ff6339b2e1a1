package lock

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLock_AcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lock")
	l := New(path)

	require.NoError(t, l.Acquire(context.Background()))
	require.NoError(t, l.Release())

	require.NoError(t, l.Acquire(context.Background()))
	require.NoError(t, l.Release())
}

func TestFileLock_SecondAcquireBlocksUntilReleased(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lock")
	first := New(path)
	require.NoError(t, first.Acquire(context.Background()))

	second := New(path)
	done := make(chan error, 1)
	go func() { done <- second.Acquire(context.Background()) }()

	select {
	case <-done:
		t.Fatal("second acquire should not have succeeded yet")
	case <-time.After(150 * time.Millisecond):
	}

	require.NoError(t, first.Release())
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("second acquire never completed after release")
	}
	require.NoError(t, second.Release())
}

func TestFileLock_AcquireRespectsCancellation(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lock")
	held := New(path)
	require.NoError(t, held.Acquire(context.Background()))
	defer held.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := New(path).Acquire(ctx)
	assert.Error(t, err)
}

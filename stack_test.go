package actorcore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStackArena_AllocSplitAndExhaustion(t *testing.T) {
	a := newStackArena(1024)
	require.Equal(t, 1024, a.freeBytes())

	off1, ok := a.alloc(256)
	require.True(t, ok)
	require.Equal(t, 0, off1)
	require.Equal(t, 768, a.freeBytes())

	off2, ok := a.alloc(256)
	require.True(t, ok)
	require.Equal(t, 256, off2)
	require.Equal(t, 512, a.freeBytes())

	// exhaust the remainder
	off3, ok := a.alloc(512)
	require.True(t, ok)
	require.Equal(t, 512, off3)
	require.Equal(t, 0, a.freeBytes())

	_, ok = a.alloc(1)
	require.False(t, ok, "arena should be exhausted")
}

func TestStackArena_SmallRemainderIsNotSplitOff(t *testing.T) {
	a := newStackArena(100)
	// remainder after allocating 50 is 50, which is below
	// arenaSplitThreshold (64) only if threshold > 50; verify using a
	// remainder smaller than the threshold so no new free block appears.
	off, ok := a.alloc(100 - 32) // remainder 32 < arenaSplitThreshold
	require.True(t, ok)
	require.Equal(t, 0, off)
	// entire arena consumed by the single block; nothing free left over
	require.Equal(t, 0, a.freeBytes())
}

func TestStackArena_ReleaseCoalesces(t *testing.T) {
	a := newStackArena(1024)
	off1, ok := a.alloc(256)
	require.True(t, ok)
	off2, ok := a.alloc(256)
	require.True(t, ok)
	off3, ok := a.alloc(256)
	require.True(t, ok)

	a.release(off2)
	require.Equal(t, 256+256, a.freeBytes()) // off2 block + original remainder

	a.release(off1)
	a.release(off3)
	require.Equal(t, 1024, a.freeBytes())

	// after full coalesce, a single 1024-byte allocation should succeed
	off, ok := a.alloc(1024)
	require.True(t, ok)
	require.Equal(t, 0, off)
}

func TestStackArena_ReleaseUnknownOffsetPanics(t *testing.T) {
	a := newStackArena(64)
	require.Panics(t, func() { a.release(999) })
}

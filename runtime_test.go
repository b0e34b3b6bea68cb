package actorcore

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRuntime_AliveReflectsActorLifecycle(t *testing.T) {
	rt := New()
	id, st := rt.Spawn(func(ctx *Ctx, _ any) {
		ctx.Receive(-1)
		ctx.Exit(ExitNormal)
	})
	require.True(t, st.Ok())
	require.True(t, rt.Alive(id))

	rt.kill(id)
	rt.Run()
	require.False(t, rt.Alive(id))
}

func TestRuntime_ActorIDGenerationGuardsAgainstStaleAliasing(t *testing.T) {
	rt := New()
	// first yields so that it dies last: the actor table's free list
	// hands out the most recently released slot first.
	first, _ := rt.Spawn(func(ctx *Ctx, _ any) {
		ctx.Yield()
		ctx.Exit(ExitNormal)
	})
	_, _ = rt.Spawn(func(ctx *Ctx, _ any) { ctx.Exit(ExitNormal) })
	rt.Run()
	require.False(t, rt.Alive(first))

	second, _ := rt.Spawn(func(ctx *Ctx, _ any) { ctx.Exit(ExitNormal) })
	firstIdx, _ := decodeActorID(first)
	secondIdx, _ := decodeActorID(second)
	require.Equal(t, firstIdx, secondIdx, "slot should be reused")
	require.NotEqual(t, first, second, "but the full id must differ (generation bump)")
	require.False(t, rt.Alive(first), "the stale id must not alias the new occupant")
	rt.Run()
}

func TestDumpState_ReportsLiveActors(t *testing.T) {
	rt := New()
	_, _ = rt.Spawn(func(ctx *Ctx, _ any) {
		ctx.Receive(-1)
		ctx.Exit(ExitNormal)
	}, WithName("probe"))
	step(t, rt) // probe: parks in Receive

	var buf bytes.Buffer
	require.NoError(t, rt.DumpState(&buf))
	out := buf.String()
	require.Contains(t, out, `"name":"probe"`)
	require.Contains(t, out, `"state":"WAITING"`)
	require.Contains(t, out, `"actor_count":1`)
}

func TestDumpState_EmptyRuntime(t *testing.T) {
	rt := New()
	var buf bytes.Buffer
	require.NoError(t, rt.DumpState(&buf))
	require.Equal(t, `{"actors":[],"buses":0,"actor_count":0}`, buf.String())
}

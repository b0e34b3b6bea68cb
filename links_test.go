package actorcore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLink_SelfLinkIsInvalid(t *testing.T) {
	rt := New()
	var status Status
	_, _ = rt.Spawn(func(ctx *Ctx, _ any) {
		status = ctx.Link(ctx.Self())
		ctx.Exit(ExitNormal)
	})
	rt.Run()
	require.Equal(t, INVALID, status.Code)
}

func TestLink_BidirectionalExitNotification(t *testing.T) {
	rt := New()
	var gotReason ExitReason
	done := make(chan struct{})

	a, _ := rt.Spawn(func(ctx *Ctx, _ any) {
		ctx.MatchReceive(SenderAny, ClassNotify, crashTrigger, -1)
		ctx.Exit(ExitCrash)
	})

	_, _ = rt.Spawn(func(ctx *Ctx, _ any) {
		require.True(t, ctx.Link(a).Ok())
		ctx.Notify(a, crashTrigger, nil)
		msg, st := ctx.MatchReceive(a, ClassExit, TagAny, -1)
		require.True(t, st.Ok())
		info := DecodeExitInfo(msg)
		require.Equal(t, a, info.Actor)
		require.Equal(t, uint32(0), info.MonitorID, "link-originated exit carries no monitor ref")
		gotReason = info.Reason
		close(done)
		ctx.Exit(ExitNormal)
	})

	rt.Run()
	<-done
	require.Equal(t, ExitCrash, gotReason)
}

func TestLink_ToDeadActorIsInvalid(t *testing.T) {
	rt := New()
	dead, _ := rt.Spawn(func(ctx *Ctx, _ any) { ctx.Exit(ExitNormal) })

	var status Status
	_, _ = rt.Spawn(func(ctx *Ctx, _ any) {
		// give "dead" a turn to actually die first
		ctx.Yield()
		status = ctx.Link(dead)
		ctx.Exit(ExitNormal)
	})
	rt.Run()
	require.Equal(t, INVALID, status.Code)
}

func TestLink_DoubleLinkIsNoop(t *testing.T) {
	rt := New()
	var st1, st2 Status
	b, _ := rt.Spawn(func(ctx *Ctx, _ any) {
		ctx.Receive(-1)
		ctx.Exit(ExitNormal)
	})
	_, _ = rt.Spawn(func(ctx *Ctx, _ any) {
		st1 = ctx.Link(b)
		st2 = ctx.Link(b)
		ctx.Kill(b)
		ctx.Exit(ExitNormal)
	})
	rt.Run()
	require.True(t, st1.Ok())
	require.True(t, st2.Ok())
}

func TestUnlink_RemovesNotification(t *testing.T) {
	rt := New()
	var receivedExit bool
	a, _ := rt.Spawn(func(ctx *Ctx, _ any) {
		ctx.MatchReceive(SenderAny, ClassNotify, crashTrigger, -1)
		ctx.Exit(ExitCrash)
	})

	_, _ = rt.Spawn(func(ctx *Ctx, _ any) {
		require.True(t, ctx.Link(a).Ok())
		require.True(t, ctx.Unlink(a).Ok())
		ctx.Notify(a, crashTrigger, nil)
		ctx.Yield() // let a actually run and die before checking
		ctx.Yield()
		_, st := ctx.MatchReceive(a, ClassExit, TagAny, 0)
		receivedExit = st.Ok()
		ctx.Exit(ExitNormal)
	})
	rt.Run()
	require.False(t, receivedExit)
}

func TestMonitor_RefIsUniqueAndExitCarriesIt(t *testing.T) {
	rt := New()
	var ref1, ref2 uint32
	var info1, info2 ExitInfo
	a, _ := rt.Spawn(func(ctx *Ctx, _ any) {
		ctx.Receive(-1)
		ctx.Exit(ExitNormal)
	})

	_, _ = rt.Spawn(func(ctx *Ctx, _ any) {
		r1, st := ctx.Monitor(a)
		require.True(t, st.Ok())
		r2, st := ctx.Monitor(a)
		require.True(t, st.Ok())
		ref1, ref2 = r1, r2
		require.NotEqual(t, ref1, ref2)

		ctx.Kill(a)

		msg, st := ctx.MatchReceive(a, ClassExit, Tag(ref1), -1)
		require.True(t, st.Ok())
		info1 = DecodeExitInfo(msg)

		msg2, st := ctx.MatchReceive(a, ClassExit, Tag(ref2), -1)
		require.True(t, st.Ok())
		info2 = DecodeExitInfo(msg2)

		ctx.Exit(ExitNormal)
	})
	rt.Run()
	require.Equal(t, ref1, info1.MonitorID)
	require.Equal(t, ref2, info2.MonitorID)
}

func TestCancelMonitor_SuppressesNotification(t *testing.T) {
	rt := New()
	var gotAnything bool
	a, _ := rt.Spawn(func(ctx *Ctx, _ any) {
		ctx.Receive(-1)
		ctx.Exit(ExitNormal)
	})
	_, _ = rt.Spawn(func(ctx *Ctx, _ any) {
		ref, st := ctx.Monitor(a)
		require.True(t, st.Ok())
		require.True(t, ctx.CancelMonitor(ref).Ok())
		ctx.Kill(a)
		ctx.Yield()
		ctx.Yield()
		_, st = ctx.MatchReceive(a, ClassExit, TagAny, 0)
		gotAnything = st.Ok()
		ctx.Exit(ExitNormal)
	})
	rt.Run()
	require.False(t, gotAnything)
}

func TestTerminate_ReleasesTableSlotForReuse(t *testing.T) {
	rt := New()
	first, _ := rt.Spawn(func(ctx *Ctx, _ any) { ctx.Exit(ExitNormal) })
	_, _ = rt.Spawn(func(ctx *Ctx, _ any) {
		ctx.Yield() // let "first" die before spawning its replacement
		ctx.Exit(ExitNormal)
	})
	rt.Run()
	require.False(t, rt.Alive(first))

	// a freshly spawned actor should be able to reuse the freed slot
	// without the old, stale ActorID aliasing it.
	second, _ := rt.Spawn(func(ctx *Ctx, _ any) { ctx.Exit(ExitNormal) })
	require.False(t, rt.Alive(first))
	rt.Run()
	_ = second
}

func TestTerminate_DiesWithPendingMailboxDiscardsIt(t *testing.T) {
	rt := New()
	target, _ := rt.Spawn(func(ctx *Ctx, _ any) {
		ctx.Receive(-1)
		ctx.Exit(ExitNormal)
	})
	_, _ = rt.Spawn(func(ctx *Ctx, _ any) {
		// queue a message the target will never consume, then kill it
		ctx.Notify(target, TagAny, []byte("orphaned"))
		ctx.Kill(target)
		ctx.Exit(ExitNormal)
	})
	rt.Run()
	require.False(t, rt.Alive(target))
	require.Equal(t, 0, rt.entryPool.Len(), "the orphaned entry is released")
	require.Equal(t, 0, rt.payloadPool.Len(), "the orphaned payload is released")
}

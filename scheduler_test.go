package actorcore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSpawnAndExitNormal(t *testing.T) {
	rt := New()
	var ran bool
	_, st := rt.Spawn(func(ctx *Ctx, _ any) {
		ran = true
		ctx.Exit(ExitNormal)
	})
	require.True(t, st.Ok())

	rt.Run()
	require.True(t, ran)
}

func TestSpawnWithInitArg(t *testing.T) {
	rt := New()
	got := make(chan any, 1)
	_, st := rt.Spawn(func(ctx *Ctx, arg any) {
		got <- arg
		ctx.Exit(ExitNormal)
	}, WithInit(func() any { return "seed" }))
	require.True(t, st.Ok())

	rt.Run()
	require.Equal(t, "seed", <-got)
}

// Both crash variants below need the watcher to monitor the child
// before the child actually dies. Since dispatch turns are strictly
// sequential (never concurrent), a child spawned first would run to
// completion — and die — in its very first turn, before a watcher
// spawned afterward ever gets to call Monitor. So the child parks on
// a receive first and only crashes once notified, giving the watcher
// a turn in between to install its monitor.
const crashTrigger Tag = 1

func TestEntryReturningWithoutExitIsCrash(t *testing.T) {
	rt := New()
	var reason ExitReason
	done := make(chan struct{})

	child, _ := rt.Spawn(func(ctx *Ctx, _ any) {
		ctx.MatchReceive(SenderAny, ClassNotify, crashTrigger, -1)
		// falls off the end without calling Exit
	})

	_, _ = rt.Spawn(func(ctx *Ctx, _ any) {
		ref, st := ctx.Monitor(child)
		require.True(t, st.Ok())
		ctx.Notify(child, crashTrigger, nil)
		msg, st := ctx.MatchReceive(child, ClassExit, Tag(ref), -1)
		require.True(t, st.Ok())
		reason = DecodeExitInfo(msg).Reason
		close(done)
		ctx.Exit(ExitNormal)
	})

	rt.Run()
	<-done
	require.Equal(t, ExitCrash, reason)
}

func TestEntryPanicIsCrash(t *testing.T) {
	rt := New()
	var reason ExitReason
	done := make(chan struct{})

	child, _ := rt.Spawn(func(ctx *Ctx, _ any) {
		ctx.MatchReceive(SenderAny, ClassNotify, crashTrigger, -1)
		panic("boom")
	})

	_, _ = rt.Spawn(func(ctx *Ctx, _ any) {
		ref, st := ctx.Monitor(child)
		require.True(t, st.Ok())
		ctx.Notify(child, crashTrigger, nil)
		msg, st := ctx.MatchReceive(child, ClassExit, Tag(ref), -1)
		require.True(t, st.Ok())
		reason = DecodeExitInfo(msg).Reason
		close(done)
		ctx.Exit(ExitNormal)
	})

	rt.Run()
	<-done
	require.Equal(t, ExitCrash, reason)
}

func TestYieldReschedulesToTail(t *testing.T) {
	rt := New()
	var order []string

	_, _ = rt.Spawn(func(ctx *Ctx, _ any) {
		order = append(order, "a1")
		ctx.Yield()
		order = append(order, "a2")
		ctx.Exit(ExitNormal)
	}, WithName("a"))

	_, _ = rt.Spawn(func(ctx *Ctx, _ any) {
		order = append(order, "b1")
		ctx.Exit(ExitNormal)
	}, WithName("b"))

	rt.Run()
	require.Equal(t, []string{"a1", "b1", "a2"}, order)
}

func TestPrioritySchedulingOrder(t *testing.T) {
	rt := New()
	var order []string

	_, _ = rt.Spawn(func(ctx *Ctx, _ any) {
		order = append(order, "low")
		ctx.Exit(ExitNormal)
	}, WithPriority(PriorityLow))

	_, _ = rt.Spawn(func(ctx *Ctx, _ any) {
		order = append(order, "critical")
		ctx.Exit(ExitNormal)
	}, WithPriority(PriorityCritical))

	_, _ = rt.Spawn(func(ctx *Ctx, _ any) {
		order = append(order, "normal")
		ctx.Exit(ExitNormal)
	}, WithPriority(PriorityNormal))

	rt.Run()
	require.Equal(t, []string{"critical", "normal", "low"}, order)
}

func TestKillWakesWaitingActor(t *testing.T) {
	rt := New()
	target, _ := rt.Spawn(func(ctx *Ctx, _ any) {
		ctx.Receive(-1) // parked forever, until externally killed
	})

	_, _ = rt.Spawn(func(ctx *Ctx, _ any) {
		ctx.Kill(target)
		ctx.Exit(ExitNormal)
	})

	rt.Run()
	require.False(t, rt.Alive(target))
}

func TestSpawnExhaustionReturnsNoMem(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxActors = 1
	rt := New(WithLimits(limits))

	block := make(chan struct{})
	_, st := rt.Spawn(func(ctx *Ctx, _ any) {
		<-block
		ctx.Exit(ExitNormal)
	})
	require.True(t, st.Ok())

	_, st = rt.Spawn(func(ctx *Ctx, _ any) { ctx.Exit(ExitNormal) })
	require.Equal(t, NOMEM, st.Code)

	close(block)
	rt.Run()
}

func TestShutdownRequestStopsRunWithActorsStillBlocked(t *testing.T) {
	rt := New()
	_, _ = rt.Spawn(func(ctx *Ctx, _ any) {
		ctx.Receive(-1) // never resolves; ShutdownRequest must still let Run return
	})
	_, _ = rt.Spawn(func(ctx *Ctx, _ any) {
		ctx.rt.ShutdownRequest()
		ctx.Exit(ExitNormal)
	})
	rt.Run()
}

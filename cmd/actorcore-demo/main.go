// Command actorcore-demo runs a tiny ping-pong scenario over
// actorcore, as a smoke test of the scheduler, mailbox, and receive
// timeout wiring outside of the test suite.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/orbital-robotics/actorcore"
)

func main() {
	rounds := flag.Int("rounds", 5, "number of ping/pong exchanges before exiting")
	verbose := flag.Bool("v", false, "log to stderr at info level")
	flag.Parse()

	var opts []actorcore.Option
	if *verbose {
		opts = append(opts, actorcore.WithLogger(actorcore.NewStderrLogger(logiface.LevelInformational)))
	}
	rt := actorcore.New(opts...)

	pongID := make(chan actorcore.ActorID, 1)

	pingEntry := func(ctx *actorcore.Ctx, arg any) {
		pong := <-pongID
		for i := 0; i < *rounds; i++ {
			ctx.Notify(pong, actorcore.Tag(i), []byte("ping"))
			msg, st := ctx.MatchReceive(pong, actorcore.ClassNotify, actorcore.Tag(i), 1000)
			if !st.Ok() {
				fmt.Fprintf(os.Stderr, "ping: round %d: %v\n", i, st)
				ctx.Exit(actorcore.ExitCrash)
			}
			fmt.Printf("ping received: %s\n", msg.Payload)
		}
		ctx.Kill(pong)
		ctx.Exit(actorcore.ExitNormal)
	}

	pongEntry := func(ctx *actorcore.Ctx, arg any) {
		for {
			msg, st := ctx.Receive(-1)
			if !st.Ok() {
				ctx.Exit(actorcore.ExitCrash)
			}
			ctx.Notify(msg.Sender, msg.Tag, []byte("pong"))
		}
	}

	pong, st := rt.Spawn(pongEntry, actorcore.WithName("pong"))
	if !st.Ok() {
		fmt.Fprintln(os.Stderr, "spawn pong:", st)
		os.Exit(1)
	}
	pongID <- pong

	if _, st := rt.Spawn(pingEntry, actorcore.WithName("ping")); !st.Ok() {
		fmt.Fprintln(os.Stderr, "spawn ping:", st)
		os.Exit(1)
	}

	start := time.Now()
	rt.Run()
	fmt.Printf("done in %s\n", time.Since(start))
}

package actorcore

import (
	"io"
	"strconv"

	"github.com/joeycumines/go-utilpkg/jsonenc"
)

// DumpState writes a JSON snapshot of every live actor's scheduling
// state to w: id, name, priority, state, mailbox depth, and pending
// timer count. This is a supplemented introspection feature (not named
// by the original specification) useful for debugging a stuck actor
// or a supervisor restart storm without attaching a real debugger to
// the single host process. It never blocks the scheduler: call it
// only between Run() calls, or from a dedicated host goroutine that
// does not touch the Runtime concurrently.
func (rt *Runtime) DumpState(w io.Writer) error {
	buf := make([]byte, 0, 1024)
	buf = append(buf, '{')
	buf = appendKey(buf, "actors", true)
	buf = append(buf, '[')

	first := true
	for i := 0; i < rt.actorPool.Cap(); i++ {
		if !rt.actorPool.isInUse(i) {
			continue
		}
		a := rt.actorPool.at(i).a
		if a == nil {
			continue
		}
		if !first {
			buf = append(buf, ',')
		}
		first = false

		buf = append(buf, '{')
		buf = appendKey(buf, "id", true)
		buf = strconv.AppendUint(buf, uint64(a.id), 10)
		buf = appendKey(buf, "name", false)
		buf = jsonenc.AppendString(buf, a.name)
		buf = appendKey(buf, "priority", false)
		buf = jsonenc.AppendString(buf, a.priority.String())
		buf = appendKey(buf, "state", false)
		buf = jsonenc.AppendString(buf, a.state.String())
		buf = appendKey(buf, "mailbox_count", false)
		buf = strconv.AppendInt(buf, int64(a.mailbox.count), 10)
		buf = appendKey(buf, "timer_count", false)
		buf = strconv.AppendInt(buf, int64(len(a.timers)), 10)
		buf = appendKey(buf, "link_count", false)
		buf = strconv.AppendInt(buf, int64(len(a.links)), 10)
		if a.state == StateWaiting && a.waitPred != nil {
			buf = appendKey(buf, "wait_mode", false)
			if a.waitPred.single {
				buf = jsonenc.AppendString(buf, "receive")
			} else {
				buf = jsonenc.AppendString(buf, "select")
			}
		}
		buf = append(buf, '}')
	}

	buf = append(buf, ']')
	buf = appendKey(buf, "buses", false)
	buf = strconv.AppendInt(buf, int64(len(rt.buses)), 10)
	buf = appendKey(buf, "actor_count", false)
	buf = strconv.AppendInt(buf, int64(rt.actorPool.Len()), 10)
	buf = append(buf, '}')

	_, err := w.Write(buf)
	return err
}

func appendKey(dst []byte, key string, first bool) []byte {
	if !first {
		dst = append(dst, ',')
	}
	dst = jsonenc.AppendString(dst, key)
	return append(dst, ':')
}

package actorcore

// BusID identifies a bus created by NewBus (§3 "Bus entry", consumed by
// the core only via the select primitive).
type BusID int

// IPCFilter matches a mailbox entry by (sender, class, tag), with
// SenderAny/ClassAny/TagAny wildcards (§4.3, §4.5).
type IPCFilter struct {
	Sender ActorID
	Class  Class
	Tag    Tag
}

// Matches reports whether the filter matches a candidate message.
func (f IPCFilter) Matches(sender ActorID, class Class, tag Tag) bool {
	if f.Sender != SenderAny && f.Sender != sender {
		return false
	}
	if f.Class != ClassAny && f.Class != class {
		return false
	}
	if f.Tag != TagAny && f.Tag != tag {
		return false
	}
	return true
}

// SourceKindSelect distinguishes the two kinds of select source (§4.5).
type SourceKindSelect uint8

const (
	SourceKindIPC SourceKindSelect = iota
	SourceKindBus
)

// SelectSource is one element of the array passed to Select: a tagged
// union of an IPC filter or a bus subscription.
type SelectSource struct {
	Kind   SourceKindSelect
	Filter IPCFilter
	Bus    BusID
}

// IPCSource builds an IPC-filter select source.
func IPCSource(filter IPCFilter) SelectSource {
	return SelectSource{Kind: SourceKindIPC, Filter: filter}
}

// BusSource builds a bus-subscription select source.
func BusSource(bus BusID) SelectSource {
	return SelectSource{Kind: SourceKindBus, Bus: bus}
}

// SelectResult reports which source matched (§4.5). For SourceKindIPC,
// Message is populated; for SourceKindBus, BusData is populated.
type SelectResult struct {
	Kind    SourceKindSelect
	Index   int
	Message Message
	BusData []byte
}

// selectWait is the unified wait primitive (§4.5). All other blocking
// receive variants reduce to it.
func (rt *Runtime) selectWait(id ActorID, sources []SelectSource, timeoutMs int) (SelectResult, Status) {
	a := rt.mustActor(id)

	for _, s := range sources {
		if s.Kind != SourceKindBus {
			continue
		}
		b, ok := rt.busAt(s.Bus)
		if !ok {
			return SelectResult{}, withMsg(INVALID, "unknown bus id")
		}
		if _, ok := b.subscribers[id]; !ok {
			return SelectResult{}, withMsg(INVALID, "not subscribed to bus")
		}
	}

	var deadline int64
	hasDeadline := timeoutMs > 0
	if hasDeadline {
		deadline = rt.clock.NowMicros() + int64(timeoutMs)*1000
	}

	for {
		if res, ok := rt.pollSelectSources(a, sources); ok {
			return res, StatusOK
		}
		if timeoutMs == 0 {
			return SelectResult{}, StatusWouldBlock
		}

		pred := &waitPredicate{single: len(sources) == 1}
		for _, s := range sources {
			switch s.Kind {
			case SourceKindIPC:
				pred.filters = append(pred.filters, s.Filter)
			case SourceKindBus:
				pred.buses = append(pred.buses, s.Bus)
			}
		}

		a.parkAndResume(StateWaiting, pred, deadline, hasDeadline)

		if a.hasDeadline && rt.clock.NowMicros() >= a.waitDeadline {
			// Re-check once more before declaring timeout: a message
			// may have arrived in the same tick that produced the wake.
			if res, ok := rt.pollSelectSources(a, sources); ok {
				a.waitPred = nil
				return res, StatusOK
			}
			a.waitPred = nil
			return SelectResult{}, StatusTimeout
		}
		// spurious wake (e.g. an unrelated message arrived); loop and
		// re-poll from the top, per §4.5 step 4.
	}
}

// pollSelectSources implements §4.5 steps 1-2: busses first in array
// order, then a single mailbox scan matching every IPC filter in array
// order.
func (rt *Runtime) pollSelectSources(a *actor, sources []SelectSource) (SelectResult, bool) {
	for i, s := range sources {
		if s.Kind != SourceKindBus {
			continue
		}
		if data, ok := rt.busConsume(a.id, s.Bus); ok {
			return SelectResult{Kind: SourceKindBus, Index: i, BusData: data}, true
		}
	}

	for entryIdx := a.mailbox.head; entryIdx >= 0; {
		e := rt.entryPool.at(entryIdx)
		for i, s := range sources {
			if s.Kind != SourceKindIPC {
				continue
			}
			if s.Filter.Matches(e.sender, e.header.class(), e.header.tag()) {
				msg := rt.detachEntry(a, entryIdx)
				return SelectResult{Kind: SourceKindIPC, Index: i, Message: msg}, true
			}
		}
		entryIdx = e.next
	}
	return SelectResult{}, false
}

package actorcore

import "fmt"

// stackArena is a first-fit block allocator over a contiguous static
// byte budget, used to account for actor stack sizes (§4.2). Go
// manages the actual goroutine stacks that back each actor; this arena
// exists so that spawn respects the same static-memory discipline the
// specification requires (bounded total stack budget, NOMEM on
// exhaustion, split-on-alloc, coalesce-on-release) rather than silently
// growing host memory per actor.
//
// No pack dependency implements a coalescing first-fit arena (the
// closest relative, the ublk BufferPool, is a fixed power-of-two
// bucket pool with no splitting/coalescing); this is one of the few
// components built directly against the standard library — see
// DESIGN.md.
type stackArena struct {
	size   int
	blocks []arenaBlock // ordered by offset, contiguous coverage of [0, size)
}

type arenaBlock struct {
	offset int
	length int
	free   bool
}

// arenaSplitThreshold: a free block's remainder of at most this many
// bytes is left with the allocation rather than becoming its own
// (likely useless) free fragment.
const arenaSplitThreshold = 64

func newStackArena(size int) *stackArena {
	return &stackArena{
		size:   size,
		blocks: []arenaBlock{{offset: 0, length: size, free: true}},
	}
}

// alloc finds the first free block large enough to satisfy n bytes,
// splitting it if the remainder exceeds arenaSplitThreshold. Returns
// the block's offset, or ok=false on exhaustion/fragmentation.
func (a *stackArena) alloc(n int) (offset int, ok bool) {
	if n <= 0 {
		return 0, false
	}
	for i := range a.blocks {
		b := &a.blocks[i]
		if !b.free || b.length < n {
			continue
		}
		remainder := b.length - n
		offset = b.offset
		if remainder > arenaSplitThreshold {
			b.length = n
			b.free = false
			newBlock := arenaBlock{offset: b.offset + n, length: remainder, free: true}
			a.blocks = append(a.blocks, arenaBlock{})
			copy(a.blocks[i+2:], a.blocks[i+1:])
			a.blocks[i+1] = newBlock
		} else {
			b.free = false
		}
		return offset, true
	}
	return 0, false
}

// release frees the block starting at offset and coalesces it with any
// adjacent free neighbours.
func (a *stackArena) release(offset int) {
	for i := range a.blocks {
		if a.blocks[i].offset != offset {
			continue
		}
		a.blocks[i].free = true
		a.coalesceAt(i)
		return
	}
	panic(fmt.Sprintf("actorcore: stack arena: release of unknown offset %d", offset))
}

func (a *stackArena) coalesceAt(i int) {
	// merge with next
	if i+1 < len(a.blocks) && a.blocks[i+1].free {
		a.blocks[i].length += a.blocks[i+1].length
		a.blocks = append(a.blocks[:i+1], a.blocks[i+2:]...)
	}
	// merge with previous
	if i > 0 && a.blocks[i-1].free {
		a.blocks[i-1].length += a.blocks[i].length
		a.blocks = append(a.blocks[:i], a.blocks[i+1:]...)
	}
}

// freeBytes reports the total bytes currently available across all
// free blocks (not necessarily contiguous).
func (a *stackArena) freeBytes() int {
	total := 0
	for _, b := range a.blocks {
		if b.free {
			total += b.length
		}
	}
	return total
}

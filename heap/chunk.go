package heap

import (
	"strconv"
	"unsafe"

	"github.com/davecgh/go-spew/spew"
)

// wordSize is the granularity at which the stack and chunk interiors are
// scanned by the collector.
const wordSize = unsafe.Sizeof(uintptr(0))

// Chunk is the metadata record for one contiguous sub-region of a Heap's
// backing region. Its identity is the *Chunk value itself, not its address
// range: two chunks may legally describe disjoint ranges that share an
// endpoint.
type Chunk struct {
	Start  uintptr
	Size   uintptr
	Marked bool
}

// end returns the address one past the chunk's last byte.
func (c *Chunk) end() uintptr {
	return c.Start + c.Size
}

// contains reports whether the address w falls within [c.Start, c.end()).
func (c *Chunk) contains(w uintptr) bool {
	return c.Start <= w && w < c.end()
}

// Snapshot captures the chunk's fields at a point in time, decoupled from
// the live *Chunk so profiler events don't alias mutable state.
type Snapshot struct {
	Start  uintptr
	Size   uintptr
	Marked bool
}

func (c *Chunk) snapshot() Snapshot {
	return Snapshot{Start: c.Start, Size: c.Size, Marked: c.Marked}
}

// ChunkList is the chunk registry: an ordered, index-stable (within one list
// between mutations) sequence of chunks, with the splice operations recycle,
// sweep and free need.
type ChunkList struct {
	chunks []*Chunk
}

func newChunkList() *ChunkList {
	return &ChunkList{chunks: make([]*Chunk, 0, 16)}
}

// Len reports the number of chunks currently registered.
func (l *ChunkList) Len() int { return len(l.chunks) }

// At returns the chunk at index i.
func (l *ChunkList) At(i int) *Chunk { return l.chunks[i] }

// Insert appends a new chunk and returns it.
func (l *ChunkList) Insert(start, size uintptr) *Chunk {
	c := &Chunk{Start: start, Size: size}
	l.chunks = append(l.chunks, c)
	return c
}

// Append registers an already-constructed chunk.
func (l *ChunkList) Append(c *Chunk) {
	l.chunks = append(l.chunks, c)
}

// RemoveAt deletes the chunk at index i, preserving the order of the rest.
func (l *ChunkList) RemoveAt(i int) {
	l.chunks = append(l.chunks[:i], l.chunks[i+1:]...)
}

// IndexOf returns the index of the chunk starting at ptr, or -1.
func (l *ChunkList) IndexOf(ptr uintptr) int {
	for i, c := range l.chunks {
		if c.Start == ptr {
			return i
		}
	}
	return -1
}

// Clone returns a shallow copy of the chunk list's backing slice, used as
// the mark phase's worklist so mark never mutates allocated/freed directly.
func (l *ChunkList) Clone() []*Chunk {
	out := make([]*Chunk, len(l.chunks))
	copy(out, l.chunks)
	return out
}

// Reset empties the list in place.
func (l *ChunkList) Reset() {
	l.chunks = l.chunks[:0]
}

// Dump renders the list's chunks for debugging as a printable registry
// snapshot, backed by spew instead of a hand-rolled fmt.Printf loop.
func (l *ChunkList) Dump(name string) string {
	snaps := make([]Snapshot, len(l.chunks))
	for i, c := range l.chunks {
		snaps[i] = c.snapshot()
	}
	return name + " chunks (" + strconv.Itoa(len(snaps)) + "):\n" + spew.Sdump(snaps)
}

package heap

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

// fakeStack builds a small, fully-controlled memory region standing in for
// a slice of the mutator's stack, so mark's reachability logic can be
// tested deterministically without depending on where the real Go stack
// happens to place a given local variable.
type fakeStack struct {
	words []uintptr
}

func newFakeStack(n int) *fakeStack {
	return &fakeStack{words: make([]uintptr, n)}
}

func (s *fakeStack) set(i int, v uintptr) { s.words[i] = v }

func (s *fakeStack) bounds() (start, end uintptr) {
	start = uintptr(unsafe.Pointer(&s.words[0]))
	end = uintptr(unsafe.Pointer(&s.words[len(s.words)-1]))
	return start, end
}

// backedChunk returns a Chunk whose [Start, Start+Size) is real,
// addressable memory (backed by the returned slice, which the caller must
// keep referenced for as long as the chunk is used). mark marks a chunk's
// *interior* by dereferencing real memory at Start, so any chunk a test
// expects to be marked needs real backing -- a bare sentinel like 0x1000
// would segfault once mark rescans it.
//
// The backing slice carries one extra trailing word beyond Size: mark's
// documented inclusive-high bound rescans a freshly marked chunk's
// interior as [Start, Start+Size] (one word past the nominal end), and
// that read needs somewhere safe to land.
func backedChunk(words int) (c *Chunk, backing []uintptr) {
	backing = make([]uintptr, words+1)
	return &Chunk{Start: uintptr(unsafe.Pointer(&backing[0])), Size: uintptr(words) * wordSize}, backing
}

// P5 / scenario 3 -- a chunk whose address appears as a word in the scanned
// range is marked; one that doesn't isn't.
func TestMark_PinsOnlyReferencedChunk(t *testing.T) {
	pinned, pinnedBacking := backedChunk(4)
	dropped, droppedBacking := backedChunk(4)
	worklist := []*Chunk{pinned, dropped}

	stack := newFakeStack(8)
	stack.set(3, pinned.Start)
	start, end := stack.bounds()

	mark(start, end, worklist, nil)

	require.True(t, pinned.Marked)
	require.False(t, dropped.Marked)
	_, _ = pinnedBacking, droppedBacking
}

// A stack word landing strictly inside a chunk's range (not just at its
// start) still pins it -- the scan treats [start, start+size) as the
// chunk's extent.
func TestMark_PinsOnInteriorWord(t *testing.T) {
	c, backing := backedChunk(4)
	worklist := []*Chunk{c}

	stack := newFakeStack(4)
	stack.set(1, c.Start+2*wordSize)
	start, end := stack.bounds()

	mark(start, end, worklist, nil)

	require.True(t, c.Marked)
	_ = backing
}

// P6 -- a chunk with no root anywhere in the scanned range, and not
// referenced transitively by any marked chunk's interior, is left
// unmarked.
func TestMark_LeavesUnreferencedChunkUnmarked(t *testing.T) {
	c, backing := backedChunk(4)
	worklist := []*Chunk{c}

	stack := newFakeStack(4) // all zero: no word falls inside c
	start, end := stack.bounds()

	mark(start, end, worklist, nil)

	require.False(t, c.Marked)
	_ = backing
}

// Transitive closure: chunk A, reachable from the stack, has chunk B's
// start address stored in its own interior bytes. Marking A must also
// discover and mark B by rescanning A's interior.
func TestMark_TransitiveClosureThroughChunkInterior(t *testing.T) {
	a, aBacking := backedChunk(4)
	b, bBacking := backedChunk(4)
	unreachable, unreachableBacking := backedChunk(4)

	aBacking[1] = b.Start // A's interior holds a pointer to B

	worklist := []*Chunk{a, b, unreachable}

	stack := newFakeStack(4)
	stack.set(2, a.Start)
	start, end := stack.bounds()

	mark(start, end, worklist, nil)

	require.True(t, a.Marked)
	require.True(t, b.Marked)
	require.False(t, unreachable.Marked)
	_ = bBacking
	_ = unreachableBacking
}

// Edge case: an empty worklist exits immediately without touching memory
// beyond the scan bounds check.
func TestMark_EmptyWorklist(t *testing.T) {
	stack := newFakeStack(2)
	start, end := stack.bounds()

	require.NotPanics(t, func() { mark(start, end, nil, nil) })
}

// Edge case: start > end is a no-op. Chunk carries a bare sentinel address
// since, on a correct implementation, it's never dereferenced.
func TestMark_InvertedRangeIsNoop(t *testing.T) {
	c := &Chunk{Start: 0x1000, Size: 64}
	worklist := []*Chunk{c}

	mark(0x2000, 0x1000, worklist, nil)

	require.False(t, c.Marked)
}

// onMarked is invoked exactly once per newly marked chunk, used by
// collectPhases to emit ChunkMarked profiler events.
func TestMark_InvokesCallbackOncePerChunk(t *testing.T) {
	c, backing := backedChunk(4)
	worklist := []*Chunk{c}

	stack := newFakeStack(4)
	stack.set(0, c.Start)
	stack.set(1, c.Start) // same chunk referenced twice
	start, end := stack.bounds()

	calls := 0
	mark(start, end, worklist, func(*Chunk) { calls++ })

	require.Equal(t, 1, calls)
	_ = backing
}

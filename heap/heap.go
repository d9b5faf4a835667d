// Package heap implements a conservative, stop-the-world, mark-and-sweep
// garbage collector over a fixed-capacity region. The host requests raw
// memory through Alloc and receives an untyped address (a uintptr);
// reachability from that address onward is determined conservatively by
// scanning the native stack for words that happen to fall inside a live
// chunk.
//
// The collector is type-oblivious: it knows nothing about what a mutator
// stores in a chunk, only where chunks begin and how big they are.
package heap

import (
	"log"
	"os"
	"unsafe"

	"github.com/kraytos17/marksweep/heap/profiler"
)

// CollectOption bitmasks which phases a debug-gated Collect call runs.
type CollectOption int

const (
	Mark CollectOption = 1 << iota
	Sweep
	Free
)

const allPhases = Mark | Sweep | Free

// Heap is the process-wide GC singleton: it owns the backing region, the
// allocated and freed chunk lists, and the captured stack range to scan.
type Heap struct {
	cfg    Config
	region []byte
	used   uintptr

	allocated *ChunkList
	freed     *ChunkList

	stackTop    uintptr
	initialized bool

	profiler *profiler.Profiler
	logger   *log.Logger
}

var defaultHeap *Heap

// New constructs a Heap from cfg without installing it as the process-wide
// default. Tests use this to get a fresh, isolated instance per case.
func New(cfg Config) *Heap {
	return &Heap{
		cfg:       cfg,
		region:    make([]byte, cfg.HeapSize),
		allocated: newChunkList(),
		freed:     newChunkList(),
		profiler:  profiler.New(cfg.LogFolder, cfg.ProfilerEnabled),
		logger:    log.New(os.Stderr, "heap: ", 0),
	}
}

// The returns the process-wide default Heap, lazily constructing it from
// DefaultConfig on first use.
func The() *Heap {
	if defaultHeap == nil {
		defaultHeap = New(DefaultConfig())
	}
	return defaultHeap
}

// SetDefault installs h as the process-wide default, letting tests swap in
// a fresh instance between cases instead of sharing mutable global state.
func SetDefault(h *Heap) {
	defaultHeap = h
}

// regionBase is the real machine address backing h.region, the base that
// chunk addresses are computed relative to so stack words can be compared
// against them directly.
func (h *Heap) regionBase() uintptr {
	return uintptr(unsafe.Pointer(&h.region[0]))
}

//go:noinline
func captureFrame() uintptr {
	var sentinel byte
	return uintptr(unsafe.Pointer(&sentinel))
}

// Init captures a stack address from inside its own call (see captureFrame
// below) as the upper bound (stack_top) of the range later scanned
// conservatively by collect. It must
// be called once, from a frame that outlives every later Alloc call --
// failing that, mark may miss roots.
//
// There's no portable way in Go to ask for the address of a function's
// caller's frame the way a compiler builtin can in C; a called function
// can only take the address of its own locals, and those always sit
// deeper on the stack (lower address, since the stack grows down) than
// anything in the frame that called it. So captureFrame reports its own
// frame's address rather than Init's caller's, and any local variable the
// caller declares *after* calling Init necessarily falls outside
// [stackBottom, stackTop] -- it can never be found as a root by scanning
// that range. runtime.KeepAlive in the caller does not change this: it
// keeps a value live for Go's own collector but does not place it inside
// the scanned range, and this package has no root-registration API.
func (h *Heap) Init() {
	if h.initialized {
		fatal(kindAlreadyInitialized, "Init called twice")
	}
	h.profiler.Record(profiler.Bare(profiler.HeapInit))
	h.stackTop = captureFrame()
	h.initialized = true
}

// Dispose drains the profiler (so no teardown event is recorded against a
// heap about to disappear) and releases the heap's chunk metadata and
// backing region.
func (h *Heap) Dispose() (tracePath string, err error) {
	tracePath, err = h.profiler.Dispose()
	h.allocated = newChunkList()
	h.freed = newChunkList()
	h.region = nil
	return tracePath, err
}

// SetProfiler toggles event recording.
func (h *Heap) SetProfiler(enabled bool) {
	h.profiler.SetEnabled(enabled)
}

// Used reports bytes consumed by bump allocation from the low end of the
// region. Exposed for tests asserting property P1 (used <= HeapSize).
func (h *Heap) Used() uintptr { return h.used }

// Allocated exposes the live-chunk registry, read-only in spirit (tests use
// it to assert properties, not to mutate heap state directly).
func (h *Heap) Allocated() *ChunkList { return h.allocated }

// Freed exposes the reclaimed-chunk registry.
func (h *Heap) Freed() *ChunkList { return h.freed }

// Alloc returns an address within the heap region, or 0 (the null address)
// for a zero-size request. size==0 is reported as a diagnostic, not an
// error; insufficient capacity triggers a synchronous collection, and if
// afterwards no freed chunk can hold the request and the bump region still
// has no room for it, Alloc panics with OutOfMemory -- there is no
// recoverable error-return path, per the heap's succeed-or-terminate
// contract.
func (h *Heap) Alloc(size uintptr) uintptr {
	h.profiler.Record(profiler.Sized(profiler.AllocStart, size))

	if size == 0 {
		h.logger.Println("cannot alloc 0 bytes, no allocation performed")
		return 0
	}

	if h.used+size > h.cfg.HeapSize {
		h.collect()
	}

	if reused := tryRecycleChunks(h.allocated, h.freed, size); reused != nil {
		h.profiler.Record(profiler.WithChunk(profiler.ReusedChunk, reused.Start, reused.Size, reused.Marked))
		return reused.Start
	}

	if h.used+size > h.cfg.HeapSize {
		fatal(kindOutOfMemory, "heap exhausted after collection")
	}

	start := h.regionBase() + h.used
	newChunk := h.allocated.Insert(start, size)
	h.used += size
	h.profiler.Record(profiler.WithChunk(profiler.NewChunk, newChunk.Start, newChunk.Size, newChunk.Marked))

	return newChunk.Start
}

// collect runs mark, sweep and free in that fixed order. Alloc calls it on
// capacity failure; the exported Collect runs the same phases on demand.
func (h *Heap) collect() {
	h.collectPhases(allPhases)
}

// Collect runs the subset of collection phases selected by flags, for
// debugging and testing; it is not part of the normal allocation path. It
// is exported unconditionally: no build tag or debug flag gates it, so any
// caller can trigger a collection. Calling it before Init has captured
// stack_top is fatal.
func (h *Heap) Collect(flags CollectOption) {
	h.collectPhases(flags)
}

func (h *Heap) collectPhases(flags CollectOption) {
	h.profiler.Record(profiler.Bare(profiler.CollectStart))

	if !h.initialized {
		fatal(kindNotInitialized, "collect called before Init")
	}

	stackBottom := captureFrame()
	stackTop := h.stackTop
	worklist := h.allocated.Clone()

	if flags&Mark != 0 {
		h.profiler.Record(profiler.Bare(profiler.MarkStart))
		mark(stackBottom, stackTop, worklist, func(c *Chunk) {
			h.profiler.Record(profiler.WithChunk(profiler.ChunkMarked, c.Start, c.Size, c.Marked))
		})
	}

	if flags&Sweep != 0 {
		sweep(h.allocated, h.freed, func(c *Chunk) {
			h.profiler.Record(profiler.WithChunk(profiler.ChunkSwept, c.Start, c.Size, c.Marked))
		})
	}

	if flags&Free != 0 {
		free(h.freed, h.cfg.FreeThresh, func(c *Chunk) {
			h.profiler.Record(profiler.WithChunk(profiler.ChunkFreed, c.Start, c.Size, c.Marked))
		})
	}
}

// PrintContents renders the allocated and freed registries for debugging.
func (h *Heap) PrintContents() string {
	return h.allocated.Dump("Allocated") + h.freed.Dump("Freed")
}

// --- process-wide default-instance convenience wrappers ---

// Init captures stack_top on the process-wide default Heap.
func Init() { The().Init() }

// Alloc allocates size bytes on the process-wide default Heap.
func Alloc(size uintptr) uintptr { return The().Alloc(size) }

// Dispose tears down the process-wide default Heap.
func Dispose() (string, error) { return The().Dispose() }

// SetProfiler toggles profiling on the process-wide default Heap.
func SetProfiler(enabled bool) { The().SetProfiler(enabled) }

// Collect runs the selected subset of collection phases on the
// process-wide default Heap.
func Collect(flags CollectOption) { The().Collect(flags) }

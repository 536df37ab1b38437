package malloc

import "sync/atomic"
import "unsafe"

import "github.com/bnclabs/colstore/api"
import "github.com/bnclabs/colstore/lib"
import "github.com/bnclabs/golog"
import "github.com/dustin/go-humanize"
import s "github.com/bnclabs/gosettings"

// garbage list node, allocated from the arena itself. DeallocateGarbage
// frees each node along with the chunk it holds, Recycle drops the
// whole list with the arena.
type gcnode struct {
	next unsafe.Pointer
	data unsafe.Pointer
}

var gcnodesize = int64(unsafe.Sizeof(gcnode{}))

// Pool is a thread safe arena with deferred reclamation. Alloc, Free
// and ScheduleForCollection can be called concurrently.
// DeallocateGarbage, Recycle and Release require callers to quiesce
// every consumer of the pool first.
type Pool struct {
	garbage unsafe.Pointer // head of retired chunk list

	spin     lib.Spinlock
	arena    *Arena
	capacity int64
	setts    s.Settings
	logpref  string
}

// NewPool create a new pool with given capacity, 0 means unbounded
// (limited only by Maxarenasize).
func NewPool(capacity int64, setts s.Settings) *Pool {
	if capacity == 0 {
		capacity = Maxarenasize
	}
	pool := &Pool{
		arena:    NewArena(capacity, setts),
		capacity: capacity,
		setts:    setts,
		logpref:  "pool",
	}
	fmsg := "%v new pool %v capacity, %q allocator\n"
	log.Infof(fmsg, pool.logpref,
		humanize.Bytes(uint64(capacity)), setts.String("allocator"))
	return pool
}

//---- operations

// Alloc a chunk of `n` bytes, zeroed and 64-bit aligned. Returns
// api.ErrorOutofMemory when the capacity is exhausted.
func (pool *Pool) Alloc(n int64) (unsafe.Pointer, error) {
	pool.spin.Lock()
	ptr, err := pool.arena.Alloc(n)
	pool.spin.Unlock()
	return ptr, err
}

// Free chunk back to the pool. Undefined for pointers that were not
// obtained from this pool.
func (pool *Pool) Free(ptr unsafe.Pointer) {
	pool.spin.Lock()
	pool.arena.Free(ptr)
	pool.spin.Unlock()
}

// ScheduleForCollection enqueue chunk on the garbage list without
// releasing it, concurrent readers holding the chunk stay valid
// until the next DeallocateGarbage or Recycle.
func (pool *Pool) ScheduleForCollection(ptr unsafe.Pointer) {
	pool.spin.Lock()
	nodemem, err := pool.arena.Alloc(gcnodesize)
	pool.spin.Unlock()
	if err != nil {
		panic(api.ErrorOutofMemory)
	}
	node := (*gcnode)(nodemem)
	node.data = ptr
	for {
		head := atomic.LoadPointer(&pool.garbage)
		node.next = head
		if atomic.CompareAndSwapPointer(&pool.garbage, head, nodemem) {
			return
		}
	}
}

// DeallocateGarbage drain the garbage list, freeing chunks in the
// order they were scheduled. Single consumer, safe against concurrent
// producers.
func (pool *Pool) DeallocateGarbage() {
	head := atomic.SwapPointer(&pool.garbage, nil)
	// the list grows by prepending, reverse for FIFO release.
	var fifo unsafe.Pointer
	for ptr := head; ptr != nil; {
		node := (*gcnode)(ptr)
		next := node.next
		node.next = fifo
		fifo = ptr
		ptr = next
	}
	pool.spin.Lock()
	for ptr := fifo; ptr != nil; {
		node := (*gcnode)(ptr)
		next := node.next
		pool.arena.Free(node.data)
		pool.arena.Free(ptr)
		ptr = next
	}
	pool.spin.Unlock()
}

// Recycle drop the garbage list and return every outstanding chunk
// to the OS. The pool remains usable, all pointers handed out
// previously are invalid. Idempotent on an empty pool.
func (pool *Pool) Recycle() {
	pool.spin.Lock()
	atomic.StorePointer(&pool.garbage, nil)
	pool.arena.Release()
	pool.arena = NewArena(pool.capacity, pool.setts)
	pool.spin.Unlock()
	log.Infof("%v recycled\n", pool.logpref)
}

// Release the pool and all its resources, the pool is unusable
// afterwards.
func (pool *Pool) Release() {
	pool.spin.Lock()
	atomic.StorePointer(&pool.garbage, nil)
	pool.arena.Release()
	pool.arena = nil
	pool.spin.Unlock()
	log.Infof("%v released\n", pool.logpref)
}

//---- statistics and maintenance

// Slabs implement api.Mallocer{} interface.
func (pool *Pool) Slabs() []int64 {
	pool.spin.Lock()
	defer pool.spin.Unlock()
	return pool.arena.Slabs()
}

// Slabsize implement api.Mallocer{} interface.
func (pool *Pool) Slabsize(ptr unsafe.Pointer) int64 {
	pool.spin.Lock()
	defer pool.spin.Unlock()
	return pool.arena.Slabsize(ptr)
}

// Chunklen usable length of an allocated chunk.
func (pool *Pool) Chunklen(ptr unsafe.Pointer) int64 {
	pool.spin.Lock()
	defer pool.spin.Unlock()
	return pool.arena.Chunklen(ptr)
}

// Info implement api.Mallocer{} interface.
func (pool *Pool) Info() (capacity, heap, alloc, overhead int64) {
	pool.spin.Lock()
	defer pool.spin.Unlock()
	return pool.arena.Info()
}

// Utilization implement api.Mallocer{} interface.
func (pool *Pool) Utilization() ([]int, []float64) {
	pool.spin.Lock()
	defer pool.spin.Unlock()
	return pool.arena.Utilization()
}

// Logutilization log slab-wise utilization of this pool.
func (pool *Pool) Logutilization() {
	sizes, zs := pool.Utilization()
	for i, size := range sizes {
		fmsg := "%v slab %v utilization %.2f%%\n"
		log.Verbosef(fmsg, pool.logpref, humanize.Bytes(uint64(size)), zs[i])
	}
}

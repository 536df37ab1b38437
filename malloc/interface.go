package malloc

import "unsafe"

// MemoryPool manages a single OS block sliced up into equal sized
// chunks.
type MemoryPool interface {
	// Slabsize of chunks managed by this pool, including the chunk
	// header.
	Slabsize() int64

	// Poolid under which this pool is registered with its arena.
	Poolid() int64

	// Allocchunk allocate a zeroed chunk from pool. Returned pointer
	// is the chunk base, header included.
	Allocchunk() (ptr unsafe.Pointer, ok bool)

	// Free chunk back to pool, `ptr` is the chunk base.
	Free(ptr unsafe.Pointer)

	// Info return memory accounting for this pool.
	Info() (capacity, heap, alloc, overhead int64)

	// Release this pool and all its resources.
	Release()
}

// MemoryPools manages the list of MemoryPool for a single slab size.
type MemoryPools interface {
	// Allocchunk allocate a zeroed chunk from one of the pools,
	// creating a new pool if the current ones are exhausted. Returns
	// nil if the arena's capacity is exhausted.
	Allocchunk(arena *Arena, size int64) (unsafe.Pointer, MemoryPool)

	// Info return memory accounting across pools.
	Info() (capacity, heap, alloc, overhead int64)

	// Release all pools and their resources.
	Release()
}

package api

import "unsafe"

// Mallocer interface for custom memory management. All memory handed
// out by a Mallocer becomes invalid when the mallocer is recycled or
// released.
type Mallocer interface {
	// Slabs allocatable slab of sizes.
	Slabs() (sizes []int64)

	// Alloc allocate a chunk of `n` bytes. Allocated memory is zeroed
	// and always 64-bit aligned. Returns ErrorOutofMemory when the
	// configured capacity is exhausted.
	Alloc(n int64) (unsafe.Pointer, error)

	// Slabsize return the size of the chunk's slab.
	Slabsize(ptr unsafe.Pointer) int64

	// Free chunk back to the mallocer.
	Free(ptr unsafe.Pointer)

	// ScheduleForCollection enqueue chunk on the garbage list without
	// releasing it. Concurrent readers holding the chunk stay valid
	// until the next DeallocateGarbage or Recycle.
	ScheduleForCollection(ptr unsafe.Pointer)

	// DeallocateGarbage drain the garbage list, freeing entries in
	// the order they were scheduled. Single consumer.
	DeallocateGarbage()

	// Recycle drop the garbage list and return all outstanding memory
	// to the OS. The mallocer remains usable, previously handed out
	// pointers do not.
	Recycle()

	// Release the mallocer and all its resources.
	Release()

	// Info of memory accounting for this mallocer.
	Info() (capacity, heap, alloc, overhead int64)

	// Utilization map of slab-size and its utilization.
	Utilization() ([]int, []float64)
}

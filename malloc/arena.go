// Functions and methods are not thread safe, Pool wraps an Arena for
// concurrent use.

package malloc

import "sort"
import "unsafe"

import "github.com/bnclabs/colstore/api"
import s "github.com/bnclabs/gosettings"

// chunk header, prefixed to every allocation, names the owning pool.
const chunkhdrsize = int64(8)

// Arena defines a large memory area that is divided into memory
// pools of fixed sized chunks. Every chunk carries an 8-byte header
// naming its pool, so Free and Slabsize work from the bare pointer.
type Arena struct {
	slabs   []int64                // sorted list of slab-sizes in this arena
	maxslab int64                  // slabs[len(slabs)-1]
	mpools  map[int64]MemoryPools  // size -> pools of fixed size chunks
	pools   []MemoryPool           // registry, poolid -> pool
	heap    int64                  // bytes mapped from OS

	// configuration
	capacity  int64  // memory capacity to be managed by this arena
	minblock  int64  // minimum chunk size allocatable by arena
	maxblock  int64  // maximum chunk size allocatable by arena
	pcapacity int64  // maximum capacity for a single pool
	maxpools  int64  // maximum number of pool-sizes
	maxchunks int64  // maximum number of chunks allowed in a pool
	allocator string // allocator algorithm
}

// NewArena create a new memory arena.
func NewArena(capacity int64, setts s.Settings) *Arena {
	minblock, maxblock := setts.Int64("minblock"), setts.Int64("maxblock")
	arena := &Arena{
		slabs:  Blocksizes(minblock, maxblock),
		mpools: make(map[int64]MemoryPools),
		pools:  make([]MemoryPool, 0, 64),
		// configuration
		capacity:  capacity,
		minblock:  minblock,
		maxblock:  maxblock,
		pcapacity: setts.Int64("pool.capacity"),
		maxpools:  setts.Int64("maxpools"),
		maxchunks: setts.Int64("maxchunks"),
		allocator: setts.String("allocator"),
	}
	arena.maxslab = arena.slabs[len(arena.slabs)-1]
	if int64(len(arena.slabs)) > arena.maxpools {
		panicerr("number of pools in arena exceeds %v", arena.maxpools)
	} else if capacity > Maxarenasize {
		panicerr("arena cannot exceed %v bytes (%v)", Maxarenasize, capacity)
	}
	switch arena.allocator {
	case "flist", "fbit":
	default:
		panicerr("invalid allocator %q", arena.allocator)
	}
	return arena
}

//---- operations

// Alloc a chunk of `n` bytes, same contract as api.Mallocer{}.Alloc.
// The chunk is zeroed.
func (arena *Arena) Alloc(n int64) (unsafe.Pointer, error) {
	if arena.mpools == nil {
		panicerr("arena released")
	} else if n < 0 {
		panicerr("Alloc size %v is negative", n)
	}
	chunksize := n + chunkhdrsize
	var size int64
	if chunksize > arena.maxslab {
		// oversize allocations get a dedicated slab, outside the
		// configured ladder, with single-chunk pools.
		size = ceilmultiple(chunksize, Sizeinterval)
	} else {
		size = SuitableSize(arena.slabs, chunksize)
	}
	mpools, ok := arena.mpools[size]
	if !ok {
		mpools = arena.newmpools(size)
		arena.mpools[size] = mpools
	}
	ptr, pool := mpools.Allocchunk(arena, size)
	if ptr == nil {
		return nil, api.ErrorOutofMemory
	}
	*((*int64)(ptr)) = pool.Poolid()
	return unsafe.Pointer(uintptr(ptr) + uintptr(chunkhdrsize)), nil
}

// Free chunk back to its pool, same contract as api.Mallocer{}.Free.
func (arena *Arena) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		panic("arena.free(): nil pointer")
	}
	chunk := unsafe.Pointer(uintptr(ptr) - uintptr(chunkhdrsize))
	arena.pools[*((*int64)(chunk))].Free(chunk)
}

// Slabsize return the size of the chunk's slab, same contract as
// api.Mallocer{}.Slabsize. The size includes the chunk header.
func (arena *Arena) Slabsize(ptr unsafe.Pointer) int64 {
	chunk := unsafe.Pointer(uintptr(ptr) - uintptr(chunkhdrsize))
	return arena.pools[*((*int64)(chunk))].Slabsize()
}

// Chunklen usable length of an allocated chunk.
func (arena *Arena) Chunklen(ptr unsafe.Pointer) int64 {
	return arena.Slabsize(ptr) - chunkhdrsize
}

// Slabs allocatable slab sizes, same contract as api.Mallocer{}.Slabs.
// Arena itself is not an api.Mallocer, Pool is.
func (arena *Arena) Slabs() []int64 {
	return arena.slabs
}

// Release the arena and all its pools back to the OS.
func (arena *Arena) Release() {
	for _, mpools := range arena.mpools {
		mpools.Release()
	}
	arena.slabs, arena.mpools, arena.pools = nil, nil, nil
	arena.heap = 0
}

//---- statistics and maintenance

// Info of memory accounting, same contract as api.Mallocer{}.Info.
func (arena *Arena) Info() (capacity, heap, alloc, overhead int64) {
	capacity = arena.capacity
	self := int64(unsafe.Sizeof(*arena))
	slicesz := int64(cap(arena.slabs)) * int64(unsafe.Sizeof(int64(1)))
	overhead += self + slicesz
	for _, mpools := range arena.mpools {
		_, h, a, o := mpools.Info()
		heap, alloc, overhead = heap+h, alloc+a, overhead+o
	}
	return
}

// Allocated memory allocated to application.
func (arena *Arena) Allocated() int64 {
	_, _, alloc, _ := arena.Info()
	return alloc
}

// Available memory from this arena.
func (arena *Arena) Available() int64 {
	return arena.capacity - arena.Allocated()
}

// Utilization of each slab size, same contract as
// api.Mallocer{}.Utilization.
func (arena *Arena) Utilization() ([]int, []float64) {
	var sizes []int
	for size := range arena.mpools {
		sizes = append(sizes, int(size))
	}
	sort.Ints(sizes)

	ss, zs := make([]int, 0), make([]float64, 0)
	for _, size := range sizes {
		heap, alloc := float64(0), float64(0)
		_, h, a, _ := arena.mpools[int64(size)].Info()
		heap, alloc = heap+float64(h), alloc+float64(a)
		if heap > 0 {
			ss = append(ss, size)
			zs = append(zs, (alloc/heap)*100)
		}
	}
	return ss, zs
}

//---- local functions

func (arena *Arena) newmpools(size int64) MemoryPools {
	// oversize slabs always use the freelist variant, their pools
	// hold a single chunk.
	if arena.allocator == "fbit" && size <= arena.maxslab {
		return newfbitpools()
	}
	return newflistpools()
}

// adaptiveNumchunks start with one chunk per pool and double the
// chunk count with every new pool for the same slab, bounded by
// pool.capacity and maxchunks.
func (arena *Arena) adaptiveNumchunks(size, npools int64) int64 {
	numchunks := int64(1)
	if npools < 62 {
		numchunks = int64(1) << uint64(npools)
	} else {
		numchunks = arena.maxchunks
	}
	if numchunks > arena.maxchunks {
		numchunks = arena.maxchunks
	}
	if pcap := arena.pcapacity / size; numchunks > pcap {
		numchunks = pcap
	}
	if numchunks <= 0 {
		numchunks = 1
	}
	return numchunks
}

func (arena *Arena) chargeheap(bytes int64) bool {
	if (arena.heap + bytes) > arena.capacity {
		return false
	}
	arena.heap += bytes
	return true
}

func (arena *Arena) dischargeheap(bytes int64) {
	arena.heap -= bytes
}

func (arena *Arena) register(pool MemoryPool) int64 {
	arena.pools = append(arena.pools, pool)
	return int64(len(arena.pools) - 1)
}

// Functions and methods are not thread safe.

package malloc

import "fmt"
import "unsafe"

// poolfbit manages a memory block sliced up into equal sized chunks,
// with a hierarchical free-bitmap tracking chunk occupancy.
type poolfbit struct {
	// 64-bit aligned stats
	mallocated int64

	capacity int64          // memory managed by this pool
	size     int64          // fixed size chunks in this pool
	mem      []byte         // OS mapping backing this pool
	base     unsafe.Pointer // pool's base pointer
	id       int64          // registration with the arena
	fbits    *freebits
}

// size of each chunk in the block and no. of chunks in the block,
// n should be a multiple of 8.
func newpoolfbit(arena *Arena, size, n int64) *poolfbit {
	capacity := size * n
	mem := osmalloc(capacity)
	if mem == nil {
		return nil
	}
	pool := &poolfbit{
		capacity: capacity,
		size:     size,
		mem:      mem,
		base:     unsafe.Pointer(&mem[0]),
		fbits:    newfreebits(cacheline, n),
	}
	pool.id = arena.register(pool)
	return pool
}

// Slabsize implement MemoryPool{} interface.
func (pool *poolfbit) Slabsize() int64 {
	return pool.size
}

// Poolid implement MemoryPool{} interface.
func (pool *poolfbit) Poolid() int64 {
	return pool.id
}

// Allocchunk implement MemoryPool{} interface.
func (pool *poolfbit) Allocchunk() (unsafe.Pointer, bool) {
	if pool.base == nil {
		panic(fmt.Errorf("pool already released"))
	} else if pool.mallocated == pool.capacity {
		return nil, false
	}
	nthchunk, _ := pool.fbits.alloc()
	if nthchunk < 0 {
		return nil, false
	}
	ptr := uintptr(pool.base) + uintptr(nthchunk*pool.size)
	initblock(ptr, pool.size)
	pool.mallocated += pool.size
	mask := uintptr(Alignment - 1)
	if (ptr & mask) != 0 {
		fmsg := "allocated pointer is not %v byte aligned"
		panic(fmt.Errorf(fmsg, Alignment))
	}
	return unsafe.Pointer(ptr), true
}

// Free implement MemoryPool{} interface.
func (pool *poolfbit) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		panic("poolfbit.free(): nil pointer")
	}
	diffptr := uint64(uintptr(ptr) - uintptr(pool.base))
	if (diffptr % uint64(pool.size)) != 0 {
		panic("poolfbit.free(): unaligned pointer")
	}
	pool.fbits.free(int64(diffptr / uint64(pool.size)))
	pool.mallocated -= pool.size
}

// Info implement MemoryPool{} interface.
func (pool *poolfbit) Info() (capacity, heap, alloc, overhead int64) {
	self := int64(unsafe.Sizeof(*pool))
	slicesz := int64(pool.fbits.sizeof())
	return pool.capacity, pool.capacity, pool.mallocated, slicesz + self
}

// Release implement MemoryPool{} interface.
func (pool *poolfbit) Release() {
	osfree(pool.mem)
	pool.fbits = nil
	pool.capacity, pool.mem, pool.base = 0, nil, nil
	pool.mallocated = 0
}

//---- local functions

// can be costly operation.
func (pool *poolfbit) checkallocated() int64 {
	return pool.capacity - (pool.fbits.freeblocks() * pool.size)
}

// fbitPools manages the list of poolfbit for one slab size.
type fbitPools struct {
	pools []*poolfbit
}

func newfbitpools() *fbitPools {
	return &fbitPools{pools: make([]*poolfbit, 0, 8)}
}

// Allocchunk implement MemoryPools{} interface.
func (pools *fbitPools) Allocchunk(
	arena *Arena, size int64) (unsafe.Pointer, MemoryPool) {

	for _, pool := range pools.pools {
		if ptr, ok := pool.Allocchunk(); ok {
			return ptr, pool
		}
	}
	numchunks := arena.adaptiveNumchunks(size, int64(len(pools.pools)))
	numchunks = ceilmultiple(numchunks, 8) // freebits granularity
	if arena.chargeheap(size*numchunks) == false {
		return nil, nil
	}
	pool := newpoolfbit(arena, size, numchunks)
	if pool == nil {
		arena.dischargeheap(size * numchunks)
		return nil, nil
	}
	pools.pools = append(pools.pools, pool)
	ptr, ok := pool.Allocchunk()
	if !ok {
		return nil, nil
	}
	return ptr, pool
}

// Release implement MemoryPools{} interface.
func (pools *fbitPools) Release() {
	for _, pool := range pools.pools {
		pool.Release()
	}
	pools.pools = nil
}

// Info implement MemoryPools{} interface.
func (pools *fbitPools) Info() (capacity, heap, alloc, overhead int64) {
	for _, pool := range pools.pools {
		c, h, a, o := pool.Info()
		capacity, heap, alloc, overhead = capacity+c, heap+h, alloc+a, overhead+o
	}
	return
}

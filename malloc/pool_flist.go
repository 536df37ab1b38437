// Functions and methods are not thread safe.

package malloc

import "fmt"
import "unsafe"

// poolflist manages a memory block sliced up into equal sized chunks,
// with a free-list of chunk indexes.
type poolflist struct {
	// 64-bit aligned stats
	mallocated int64

	capacity int64          // memory managed by this pool
	size     int64          // fixed size chunks in this pool
	mem      []byte         // OS mapping backing this pool
	base     unsafe.Pointer // pool's base pointer
	id       int64          // registration with the arena
	freelist []uint16
	freeoff  int
	prev     **poolflist
	next     *poolflist
	pools    *flistPools
}

// size of each chunk in the block and no. of chunks in the block.
func newpoolflist(
	arena *Arena, size, n int64, pools *flistPools,
	prev **poolflist, next *poolflist) *poolflist {

	capacity := size * n
	mem := osmalloc(capacity)
	if mem == nil {
		return nil
	}
	pool := &poolflist{
		capacity: capacity,
		size:     size,
		mem:      mem,
		base:     unsafe.Pointer(&mem[0]),
		freelist: make([]uint16, n),
		freeoff:  int(n - 1),
		pools:    pools,
	}
	pool.id = arena.register(pool)
	pool.prev, pool.next = prev, next
	for i := 0; i < int(n); i++ {
		pool.freelist[i] = uint16(i)
	}
	return pool
}

// Slabsize implement MemoryPool{} interface.
func (pool *poolflist) Slabsize() int64 {
	return pool.size
}

// Poolid implement MemoryPool{} interface.
func (pool *poolflist) Poolid() int64 {
	return pool.id
}

// Allocchunk implement MemoryPool{} interface.
func (pool *poolflist) Allocchunk() (unsafe.Pointer, bool) {
	if pool.base == nil {
		panic("pool already released")
	} else if pool.mallocated == pool.capacity {
		return nil, false
	}
	nthchunk := int64(pool.freelist[pool.freeoff])
	pool.freelist = pool.freelist[:pool.freeoff]
	pool.freeoff--
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
func (pool *poolflist) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		panic("poolflist.free(): nil pointer")
	}
	diffptr := uint64(uintptr(ptr) - uintptr(pool.base))
	if (diffptr % uint64(pool.size)) != 0 {
		fmsg := "poolflist.free(): unaligned pointer: %x,%v"
		panic(fmt.Errorf(fmsg, diffptr, pool.size))
	}
	nthchunk := uint16(diffptr / uint64(pool.size))
	pool.freelist = append(pool.freelist, nthchunk)
	pool.freeoff++
	pool.mallocated -= pool.size
	// unlink and re-link.
	pool.pools.unlink(pool).toheadfree(pool)
}

// Info implement MemoryPool{} interface.
func (pool *poolflist) Info() (capacity, heap, alloc, overhead int64) {
	self := int64(unsafe.Sizeof(*pool))
	slicesz := int64(cap(pool.freelist) * 2)
	return pool.capacity, pool.capacity, pool.mallocated, slicesz + self
}

// Release implement MemoryPool{} interface.
func (pool *poolflist) Release() {
	osfree(pool.mem)
	pool.freelist, pool.freeoff = nil, -1
	pool.capacity, pool.mem, pool.base = 0, nil, nil
	pool.mallocated = 0
}

//---- local functions

func (pool *poolflist) checkallocated() int64 {
	return pool.capacity - int64(len(pool.freelist))*pool.size
}

// flistPools manages the full/free lists of poolflist for one slab
// size.
type flistPools struct {
	full   *poolflist
	free   *poolflist
	npools int64 // number of active pools
	cpools int64 // number of created pools, including released ones
}

func newflistpools() *flistPools {
	return &flistPools{}
}

// shift next free to head.
func (pools *flistPools) shiftupfree() *flistPools {
	pools.free = pools.free.next
	if pools.free != nil {
		pools.free.prev = &pools.free
	}
	return pools
}

// move head of free list to head of full list.
func (pools *flistPools) movetofull() *flistPools {
	tempfull, tempfree := pools.full, pools.free
	// unlink from head of free list
	pools.free = pools.free.next
	if pools.free != nil {
		pools.free.prev = &pools.free
	}
	// link to head of full list
	tempfree.prev, tempfree.next = &pools.full, tempfull
	pools.full = tempfree
	if tempfull != nil {
		tempfull.prev = &pools.full.next
	}
	return pools
}

// unlink pool from this list, can be from full or free list.
func (pools *flistPools) unlink(pool *poolflist) *flistPools {
	if pool.prev != nil {
		(*(pool.prev)) = pool.next
	}
	if pool.next != nil {
		pool.next.prev = pool.prev
	}
	return pools
}

// insert pool to the head of the free list.
func (pools *flistPools) toheadfree(pool *poolflist) *flistPools {
	next := pools.free
	pools.free, pool.next = pool, next
	pool.prev = &pools.free
	if pool.next != nil {
		pool.next.prev = &pool.next
	}
	return pools
}

// Allocchunk implement MemoryPools{} interface.
func (pools *flistPools) Allocchunk(
	arena *Arena, size int64) (unsafe.Pointer, MemoryPool) {

	if pools.free == nil {
		numchunks := arena.adaptiveNumchunks(size, pools.cpools)
		if arena.chargeheap(size*numchunks) == false {
			return nil, nil
		}
		pool := newpoolflist(arena, size, numchunks, pools, &pools.free, nil)
		if pool == nil {
			arena.dischargeheap(size * numchunks)
			return nil, nil
		}
		pools.free = pool
		pools.npools++
		pools.cpools++

	} else if pools.npools > 5 && pools.free.mallocated == 0 {
		if (pools.free.capacity / size) < 64 { // release pool to OS
			arena.dischargeheap(pools.free.capacity)
			pools.free.Release()
			pools.npools--
			return pools.shiftupfree().Allocchunk(arena, size)
		}
	}
	ptr, ok := pools.free.Allocchunk()
	if !ok { // full
		return pools.movetofull().Allocchunk(arena, size)
	}
	return ptr, pools.free
}

// Release implement MemoryPools{} interface.
func (pools *flistPools) Release() {
	for pool := pools.full; pool != nil; pool = pool.next {
		pool.Release()
	}
	for pool := pools.free; pool != nil; pool = pool.next {
		pool.Release()
	}
	pools.full, pools.free, pools.npools = nil, nil, 0
}

// Info implement MemoryPools{} interface.
func (pools *flistPools) Info() (capacity, heap, alloc, overhead int64) {
	for pool := pools.full; pool != nil; pool = pool.next {
		c, h, a, o := pool.Info()
		capacity, heap, alloc, overhead = capacity+c, heap+h, alloc+a, overhead+o
	}
	for pool := pools.free; pool != nil; pool = pool.next {
		c, h, a, o := pool.Info()
		capacity, heap, alloc, overhead = capacity+c, heap+h, alloc+a, overhead+o
	}
	return
}

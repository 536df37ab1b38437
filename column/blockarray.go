package column

import "sync/atomic"
import "time"
import "unsafe"

import "github.com/bnclabs/colstore/api"
import "github.com/bnclabs/colstore/lib"
import "github.com/bnclabs/colstore/malloc"

const ptrsize = int64(unsafe.Sizeof(uintptr(0)))

// BlockArray is a growable indexed sequence of fixed width elements.
// A spine of pointers to fixed-size blocks is grown under a
// spin-mutex, element access never locks. Block pointers are stable
// for the life of the pool, replaced spines are retired through the
// pool's garbage list so that concurrent readers holding the old
// spine stay valid until the next collection.
type BlockArray[T any] struct {
	spine      unsafe.Pointer // array of block pointers
	blockcount int64          // populated blocks

	pool      *malloc.Pool
	elemsize  int64
	perblock  int64 // elements per block
	growth    int64 // spine growth multiple, in blocks
	spin      lib.Spinlock
	spinecap  int64 // spine slots allocated, guarded by spin
}

// NewBlockArray construct an empty block array drawing memory from
// pool. Capacity grows in blocks of `perblock` elements, the spine
// grows in multiples of `growth` blocks.
func NewBlockArray[T any](
	pool *malloc.Pool, perblock, growth int64) *BlockArray[T] {

	if pool == nil {
		panic(api.ErrorNullArgument)
	} else if perblock <= 0 || growth <= 0 {
		panic(api.ErrorOutofRange)
	}
	var zero T
	return &BlockArray[T]{
		pool:     pool,
		elemsize: int64(unsafe.Sizeof(zero)),
		perblock: perblock,
		growth:   growth,
	}
}

// Capacity current populated element capacity.
func (arr *BlockArray[T]) Capacity() int64 {
	return atomic.LoadInt64(&arr.blockcount) * arr.perblock
}

// Reference return a stable pointer to element at index. Valid for
// index < Capacity(), and until the pool is recycled. Callers that
// have not observed a covering Capacity() must call EnsureCapacity
// themselves.
func (arr *BlockArray[T]) Reference(index int64) *T {
	spine := atomic.LoadPointer(&arr.spine)
	slot := (*unsafe.Pointer)(unsafe.Pointer(
		uintptr(spine) + uintptr((index/arr.perblock)*ptrsize)))
	block := atomic.LoadPointer(slot)
	return (*T)(unsafe.Pointer(
		uintptr(block) + uintptr((index%arr.perblock)*arr.elemsize)))
}

// Get element at index.
func (arr *BlockArray[T]) Get(index int64) T {
	return *arr.Reference(index)
}

// Set element at index.
func (arr *BlockArray[T]) Set(index int64, value T) {
	*arr.Reference(index) = value
}

// TryEnsureCapacity grow populated capacity to hold at least `n`
// elements. Timeout bounds the lock acquisition: zero tries once,
// negative waits forever. Returns false if the lock could not be
// acquired or the pool is exhausted; on allocation failure partial
// progress is published, Capacity() reflects the blocks that were
// initialized.
func (arr *BlockArray[T]) TryEnsureCapacity(n int64, timeout time.Duration) bool {
	if n <= 0 || arr.Capacity() >= n {
		return true
	}
	if !arr.spin.Trylock(timeout) {
		return false
	}
	defer arr.spin.Unlock()

	if arr.Capacity() >= n {
		return true
	}

	// adjust to granularity, may be larger than this request needs.
	requested := 1 + n/arr.perblock
	newspinecap := (1 + n/(arr.perblock*arr.growth)) * arr.growth

	if newspinecap > arr.spinecap {
		newspine, err := arr.pool.Alloc(newspinecap * ptrsize)
		if err != nil {
			errorf("blockarray: spine growth to %v slots failed: %v\n",
				newspinecap, err)
			return false
		}
		oldspine := atomic.LoadPointer(&arr.spine)
		if oldspine != nil {
			count := atomic.LoadInt64(&arr.blockcount)
			lib.Memcpy(newspine, oldspine, int(count*ptrsize))
		}
		atomic.StorePointer(&arr.spine, newspine)
		if oldspine != nil {
			// never free the old spine in place, readers may still
			// hold it.
			arr.pool.ScheduleForCollection(oldspine)
		}
		arr.spinecap = newspinecap
	}

	spine := atomic.LoadPointer(&arr.spine)
	for ix := atomic.LoadInt64(&arr.blockcount); ix < requested; ix++ {
		block, err := arr.pool.Alloc(arr.perblock * arr.elemsize)
		if err != nil {
			errorf("blockarray: block %v allocation failed: %v\n", ix, err)
			atomic.StoreInt64(&arr.blockcount, ix)
			return false
		}
		slot := (*unsafe.Pointer)(unsafe.Pointer(
			uintptr(spine) + uintptr(ix*ptrsize)))
		atomic.StorePointer(slot, block)
	}
	atomic.StoreInt64(&arr.blockcount, requested)
	return true
}

// EnsureCapacity grow populated capacity to hold at least `n`
// elements, waiting on the grower lock as long as needed. Panics with
// api.ErrorOutofMemory if the pool is exhausted.
func (arr *BlockArray[T]) EnsureCapacity(n int64) {
	if !arr.TryEnsureCapacity(n, -1) {
		panic(api.ErrorOutofMemory)
	}
}

// Release walk the populated blocks and the spine, returning them to
// the pool. Not safe against concurrent readers.
func (arr *BlockArray[T]) Release() {
	arr.spin.Lock()
	defer arr.spin.Unlock()

	spine := atomic.LoadPointer(&arr.spine)
	if spine == nil {
		return
	}
	count := atomic.LoadInt64(&arr.blockcount)
	for ix := int64(0); ix < count; ix++ {
		slot := (*unsafe.Pointer)(unsafe.Pointer(
			uintptr(spine) + uintptr(ix*ptrsize)))
		if block := atomic.LoadPointer(slot); block != nil {
			arr.pool.Free(block)
		}
	}
	atomic.StorePointer(&arr.spine, nil)
	atomic.StoreInt64(&arr.blockcount, 0)
	arr.spinecap = 0
	arr.pool.Free(spine)
}

package column

import "io"
import "sync/atomic"
import "time"
import "unsafe"

import "github.com/bnclabs/colstore/api"
import "github.com/bnclabs/colstore/malloc"

const bitsPerItem = int64(8)
const itemsPerBlock = int64(65536)
const bitsPerBlock = itemsPerBlock * bitsPerItem
const blocksGrowth = int64(64)

// Bitvector is a growable bitmap over a block array of bytes,
// typically tracking which entries of a companion container are
// valid. Scalar operations read-modify-write the underlying byte
// directly, Safe* operations loop a compare-and-swap on the enclosing
// word. The two disciplines do not linearize against each other,
// callers must pick one per address.
type Bitvector struct {
	pool *malloc.Pool
	arr  *BlockArray[byte]
}

// NewBitvector construct an empty bit vector drawing memory from
// pool.
func NewBitvector(pool *malloc.Pool) *Bitvector {
	if pool == nil {
		panic(api.ErrorNullArgument)
	}
	return &Bitvector{
		pool: pool,
		arr:  NewBlockArray[byte](pool, itemsPerBlock, blocksGrowth),
	}
}

// NewBitvectorFrom construct a bit vector with the same capacity and
// contents as src.
func NewBitvectorFrom(src *Bitvector, pool *malloc.Pool) (*Bitvector, error) {
	if src == nil {
		return nil, api.ErrorNullArgument
	}
	bv := NewBitvector(pool)
	cap := src.Capacity()
	if cap == 0 {
		return bv, nil
	}
	if !bv.TryEnsureCapacity(cap, -1) {
		return nil, api.ErrorOutofMemory
	}
	for ix := int64(0); ix < cap; ix += bitsPerItem {
		bv.SetGroup(ix, src.GetGroup(ix))
	}
	return bv, nil
}

// Capacity in bits.
func (bv *Bitvector) Capacity() int64 {
	return bv.arr.Capacity() * bitsPerItem
}

// TryEnsureCapacity grow the vector to hold at least `capacity` bits.
func (bv *Bitvector) TryEnsureCapacity(capacity int64, timeout time.Duration) bool {
	if capacity > 0 {
		return bv.arr.TryEnsureCapacity(1+capacity/bitsPerItem, timeout)
	}
	return true
}

// EnsureCapacity grow the vector to hold at least `capacity` bits,
// panics with api.ErrorOutofMemory if the pool is exhausted.
func (bv *Bitvector) EnsureCapacity(capacity int64) {
	if !bv.TryEnsureCapacity(capacity, -1) {
		panic(api.ErrorOutofMemory)
	}
}

// Get bit at index.
func (bv *Bitvector) Get(index int64) bool {
	byt := bv.arr.Reference(index / bitsPerItem)
	return 0 != (*byt & (byte(1) << uint(index%bitsPerItem)))
}

// Set bit at index.
func (bv *Bitvector) Set(index int64) {
	byt := bv.arr.Reference(index / bitsPerItem)
	*byt |= byte(1) << uint(index%bitsPerItem)
}

// Clear bit at index.
func (bv *Bitvector) Clear(index int64) {
	byt := bv.arr.Reference(index / bitsPerItem)
	*byt &= ^(byte(1) << uint(index%bitsPerItem))
}

// GetGroup return the byte holding bit at index.
func (bv *Bitvector) GetGroup(index int64) byte {
	return *bv.arr.Reference(index / bitsPerItem)
}

// SetGroup overwrite the byte holding bit at index.
func (bv *Bitvector) SetGroup(index int64, group byte) {
	*bv.arr.Reference(index / bitsPerItem) = group
}

// ChangeAll set or clear every bit. Not safe against concurrent
// Safe* writers.
func (bv *Bitvector) ChangeAll(value bool) {
	newvalue := byte(0)
	if value {
		newvalue = 0xff
	}
	for ix, items := int64(0), bv.arr.Capacity(); ix < items; ix++ {
		*bv.arr.Reference(ix) = newvalue
	}
}

// SafeSet set bit at index atomically.
func (bv *Bitvector) SafeSet(index int64) {
	word, mask := bv.wordref(index)
	for {
		old := atomic.LoadUint32(word)
		if atomic.CompareAndSwapUint32(word, old, old|mask) {
			return
		}
	}
}

// SafeClear clear bit at index atomically.
func (bv *Bitvector) SafeClear(index int64) {
	word, mask := bv.wordref(index)
	for {
		old := atomic.LoadUint32(word)
		if atomic.CompareAndSwapUint32(word, old, old & ^mask) {
			return
		}
	}
}

// SafeGetAndSet set bit at index atomically, returning its previous
// state.
func (bv *Bitvector) SafeGetAndSet(index int64) bool {
	word, mask := bv.wordref(index)
	for {
		old := atomic.LoadUint32(word)
		if atomic.CompareAndSwapUint32(word, old, old|mask) {
			return (old & mask) != 0
		}
	}
}

// SafeGetAndClear clear bit at index atomically, returning its
// previous state.
func (bv *Bitvector) SafeGetAndClear(index int64) bool {
	word, mask := bv.wordref(index)
	for {
		old := atomic.LoadUint32(word)
		if atomic.CompareAndSwapUint32(word, old, old & ^mask) {
			return (old & mask) != 0
		}
	}
}

// Write serialize the first `count` bits, one byte per eight bits,
// bit i lands in byte i/8 bit i%8.
func (bv *Bitvector) Write(w io.Writer, count int64) error {
	if w == nil {
		return api.ErrorNullArgument
	} else if count > bv.Capacity() {
		return api.ErrorInvalidOperation
	}
	buf := make([]byte, 0, ceilbits(count))
	for ix := int64(0); ix < count; ix += bitsPerItem {
		buf = append(buf, bv.GetGroup(ix))
	}
	_, err := w.Write(buf)
	return err
}

// Read deserialize `count` bits into this vector. The vector must be
// empty, capacity is grown to cover count bits before reading.
func (bv *Bitvector) Read(r io.Reader, count int64) error {
	if r == nil {
		return api.ErrorNullArgument
	} else if bv.Capacity() > 0 {
		return api.ErrorInvalidOperation
	} else if count == 0 {
		return nil
	}
	if !bv.TryEnsureCapacity(count, -1) {
		return api.ErrorOutofMemory
	}
	buf := make([]byte, ceilbits(count))
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}
	for i, ix := 0, int64(0); ix < count; i, ix = i+1, ix+bitsPerItem {
		bv.SetGroup(ix, buf[i])
	}
	return nil
}

// Release the underlying block array back to the pool.
func (bv *Bitvector) Release() {
	bv.arr.Release()
}

//---- local functions

// locate the aligned 32-bit word enclosing bit at index, and the
// bit's mask within it.
func (bv *Bitvector) wordref(index int64) (*uint32, uint32) {
	byt := bv.arr.Reference(index / bitsPerItem)
	addr := uintptr(unsafe.Pointer(byt))
	word := (*uint32)(unsafe.Pointer(addr & ^uintptr(3)))
	shift := uint((addr&3)<<3) + uint(index%bitsPerItem)
	return word, uint32(1) << shift
}

func ceilbits(count int64) int64 {
	return (count + (bitsPerItem - 1)) / bitsPerItem
}

package column

import "io"
import "sync/atomic"
import "time"
import "unsafe"

import "github.com/bnclabs/colstore/api"
import "github.com/bnclabs/colstore/lib"
import "github.com/bnclabs/colstore/malloc"

// MaxKeylen longest content allowed in a key slot. The length prefix
// is a single byte and zero is reserved to encode a null slot in the
// serializer.
const MaxKeylen = int64(254)

// Keyarray is a growable array of exclusively owned slots, each
// either null or pointing to a pool-allocated length-prefixed byte
// buffer: byte 0 holds the content length L in [1,254], bytes 1..L
// hold the content. Slots are installed with a compare-and-swap,
// replaced buffers are retired through the pool's garbage list.
type Keyarray struct {
	pool *malloc.Pool
	arr  *BlockArray[unsafe.Pointer]
}

// NewKeyarray construct an empty key array drawing memory from pool.
func NewKeyarray(pool *malloc.Pool) *Keyarray {
	if pool == nil {
		panic(api.ErrorNullArgument)
	}
	return &Keyarray{
		pool: pool,
		arr:  NewBlockArray[unsafe.Pointer](pool, itemsPerBlock, blocksGrowth),
	}
}

// NewKeyarrayFrom construct a key array with the same capacity and
// contents as src.
func NewKeyarrayFrom(src *Keyarray, pool *malloc.Pool) (*Keyarray, error) {
	if src == nil {
		return nil, api.ErrorNullArgument
	}
	ka := NewKeyarray(pool)
	cap := src.Capacity()
	if cap == 0 {
		return ka, nil
	}
	if !ka.TryEnsureCapacity(cap, -1) {
		return nil, api.ErrorOutofMemory
	}
	for ix := int64(0); ix < cap; ix++ {
		ptr, _ := src.GetAt(ix)
		if ptr == nil {
			continue
		}
		ok, err := ka.TrySetAt(ix, Keybytes(ptr))
		if err != nil {
			return nil, err
		} else if !ok {
			return nil, api.ErrorOutofMemory
		}
	}
	return ka, nil
}

// Capacity in slots.
func (ka *Keyarray) Capacity() int64 {
	return ka.arr.Capacity()
}

// TryEnsureCapacity grow the array to hold at least `capacity` slots.
func (ka *Keyarray) TryEnsureCapacity(capacity int64, timeout time.Duration) bool {
	if capacity > 0 {
		return ka.arr.TryEnsureCapacity(capacity, timeout)
	}
	return true
}

// EnsureCapacity grow the array to hold at least `capacity` slots,
// panics with api.ErrorOutofMemory if the pool is exhausted.
func (ka *Keyarray) EnsureCapacity(capacity int64) {
	if !ka.TryEnsureCapacity(capacity, -1) {
		panic(api.ErrorOutofMemory)
	}
}

// TrySetAt install data, a length-prefixed buffer, into the slot at
// index. Passing nil data installs a null slot. The install races a
// single compare-and-swap against other writers: on loss the
// candidate buffer is freed and TrySetAt returns false, on win the
// replaced buffer is scheduled for deferred collection.
func (ka *Keyarray) TrySetAt(index int64, data []byte) (bool, error) {
	if index >= ka.Capacity() {
		return false, api.ErrorOutofRange
	}

	var pnew unsafe.Pointer
	if data != nil {
		if len(data) < 2 {
			return false, api.ErrorOutofRange
		}
		contentlen := int64(data[0])
		if contentlen == 0 || contentlen > MaxKeylen {
			return false, api.ErrorOutofRange
		} else if contentlen > int64(len(data)-1) {
			return false, api.ErrorOutofRange
		}
		ptr, err := ka.pool.Alloc(contentlen + 1)
		if err != nil {
			return false, err
		}
		lib.Memcpy(ptr, unsafe.Pointer(&data[0]), int(contentlen+1))
		pnew = ptr
	}

	slot := ka.arr.Reference(index)
	prev := atomic.LoadPointer(slot)
	if !atomic.CompareAndSwapPointer(slot, prev, pnew) {
		// somebody else just updated the same entry, discard our
		// work here.
		if pnew != nil {
			ka.pool.Free(pnew)
		}
		return false, nil
	}
	if prev != nil {
		ka.pool.ScheduleForCollection(prev)
	}
	return true, nil
}

// GetAt return the slot's current buffer, nil for a null slot. The
// read is not synchronized with writers, the buffer stays valid until
// the pool is recycled.
func (ka *Keyarray) GetAt(index int64) (unsafe.Pointer, error) {
	if index >= ka.Capacity() {
		return nil, api.ErrorOutofRange
	}
	return atomic.LoadPointer(ka.arr.Reference(index)), nil
}

// CopyAt copy the slot's prefix and content into data, returning the
// number of bytes copied, zero for a null slot.
func (ka *Keyarray) CopyAt(index int64, data []byte) (int, error) {
	if data == nil {
		return 0, api.ErrorNullArgument
	}
	ptr, err := ka.GetAt(index)
	if err != nil {
		return 0, err
	} else if ptr == nil {
		return 0, nil
	}
	bytecount := int(*(*byte)(ptr)) + 1
	if bytecount > len(data) {
		return 0, api.ErrorInsufficientSpace
	}
	lib.Memcpy(unsafe.Pointer(&data[0]), ptr, bytecount)
	return bytecount, nil
}

// Write serialize slots [0,count) whose bit is set in validentries:
// one length byte L, followed by L content bytes, L = 0 encodes a
// null slot. Slots not marked valid are skipped.
func (ka *Keyarray) Write(w io.Writer, count int64, validentries *Bitvector) error {
	if w == nil || validentries == nil {
		return api.ErrorNullArgument
	} else if count > ka.Capacity() {
		return api.ErrorInvalidOperation
	}
	var scratch [1]byte
	for ix := int64(0); ix < count; ix++ {
		if !validentries.Get(ix) {
			continue
		}
		ptr, _ := ka.GetAt(ix)
		if ptr == nil {
			scratch[0] = 0
			if _, err := w.Write(scratch[:]); err != nil {
				return err
			}
			continue
		}
		if _, err := w.Write(Keybytes(ptr)); err != nil {
			return err
		}
	}
	return nil
}

// Read deserialize `count` slots into this array, selecting
// participants with validentries. The array must be empty, capacity
// is grown to cover count slots before reading.
func (ka *Keyarray) Read(r io.Reader, count int64, validentries *Bitvector) error {
	if r == nil || validentries == nil {
		return api.ErrorNullArgument
	} else if ka.Capacity() > 0 {
		return api.ErrorInvalidOperation
	} else if count == 0 {
		return nil
	}
	if !ka.TryEnsureCapacity(count, -1) {
		return api.ErrorOutofMemory
	}
	var buf [256]byte
	for ix := int64(0); ix < count; ix++ {
		if !validentries.Get(ix) {
			continue
		}
		if _, err := io.ReadFull(r, buf[:1]); err != nil {
			return err
		}
		if buf[0] == 0 {
			continue // null slot, freshly grown slots are already null
		}
		contentlen := int(buf[0])
		if _, err := io.ReadFull(r, buf[1:contentlen+1]); err != nil {
			return err
		}
		ok, err := ka.TrySetAt(ix, buf[:contentlen+1])
		if err != nil {
			return err
		} else if !ok {
			return api.ErrorOutofMemory
		}
	}
	return nil
}

// Release every non-null slot buffer and the underlying block array
// back to the pool. Not safe against concurrent users.
func (ka *Keyarray) Release() {
	for ix, cap := int64(0), ka.Capacity(); ix < cap; ix++ {
		if ptr := atomic.LoadPointer(ka.arr.Reference(ix)); ptr != nil {
			ka.pool.Free(ptr)
		}
	}
	ka.arr.Release()
}

// Keybytes view a length-prefixed key buffer as a byte slice covering
// the prefix and the content.
func Keybytes(ptr unsafe.Pointer) []byte {
	ln := int(*(*byte)(ptr))
	return unsafe.Slice((*byte)(ptr), ln+1)
}

package column

import "time"

import "github.com/bnclabs/colstore/api"
import "github.com/bnclabs/colstore/malloc"

// Decimal 128-bit fixed point value: 96-bit integer magnitude with
// scale and sign packed into Flags.
type Decimal struct {
	Flags uint32
	Hi    uint32
	Lo    uint64
}

// DateTime instant as ticks of 100 nanoseconds.
type DateTime int64

// Timespan interval as ticks of 100 nanoseconds.
type Timespan int64

// DateTimeOffset instant as ticks plus the originating UTC offset in
// minutes.
type DateTimeOffset struct {
	Ticks  int64
	Offset int64
}

// Guid 128-bit globally unique identifier.
type Guid [16]byte

// Scalar constrains column stores to fixed width value types.
type Scalar interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64 |
		Decimal | DateTimeOffset | Guid
}

// Store is a typed column of fixed width values paired with a
// not-null bitmap. Element i is logically null iff bit i is clear,
// the raw value at a null index is unspecified.
type Store[T Scalar] struct {
	data     *BlockArray[T]
	notnulls *Bitvector
}

// NewStore construct an empty column store drawing memory from pool.
func NewStore[T Scalar](pool *malloc.Pool) *Store[T] {
	if pool == nil {
		panic(api.ErrorNullArgument)
	}
	return &Store[T]{
		data:     NewBlockArray[T](pool, itemsPerBlock, blocksGrowth),
		notnulls: NewBitvector(pool),
	}
}

// NewStoreFrom construct a column store with the same capacity and
// contents as src.
func NewStoreFrom[T Scalar](src *Store[T], pool *malloc.Pool) (*Store[T], error) {
	if src == nil {
		return nil, api.ErrorNullArgument
	}
	store := NewStore[T](pool)
	cap := src.Capacity()
	if cap == 0 {
		return store, nil
	}
	if !store.TryEnsureCapacity(cap, -1) {
		return nil, api.ErrorOutofMemory
	}
	for ix := int64(0); ix < cap; ix++ {
		if src.IsNotNull(ix) {
			store.Set(ix, src.Get(ix))
		}
	}
	return store, nil
}

// Capacity user visible capacity, the minimum across the value
// column and the not-null bitmap.
func (store *Store[T]) Capacity() int64 {
	datacap, bitcap := store.data.Capacity(), store.notnulls.Capacity()
	if datacap < bitcap {
		return datacap
	}
	return bitcap
}

// TryEnsureCapacity grow both containers to hold at least `n`
// elements.
func (store *Store[T]) TryEnsureCapacity(n int64, timeout time.Duration) bool {
	if !store.notnulls.TryEnsureCapacity(n, timeout) {
		return false
	}
	return store.data.TryEnsureCapacity(n, timeout)
}

// EnsureCapacity grow both containers to hold at least `n` elements,
// panics with api.ErrorOutofMemory if the pool is exhausted.
func (store *Store[T]) EnsureCapacity(n int64) {
	if !store.TryEnsureCapacity(n, -1) {
		panic(api.ErrorOutofMemory)
	}
}

// Get the raw value at index, meaningful only if IsNotNull(index).
func (store *Store[T]) Get(index int64) T {
	return store.data.Get(index)
}

// Set the value at index and mark it not-null.
func (store *Store[T]) Set(index int64, value T) {
	store.data.Set(index, value)
	store.notnulls.Set(index)
}

// IsNotNull report whether index holds a value.
func (store *Store[T]) IsNotNull(index int64) bool {
	return store.notnulls.Get(index)
}

// SetIsNotNull mark index as holding a value without writing one.
func (store *Store[T]) SetIsNotNull(index int64) {
	store.notnulls.Set(index)
}

// ClearIsNotNull mark index as null without clearing the value.
func (store *Store[T]) ClearIsNotNull(index int64) {
	store.notnulls.Clear(index)
}

// Release both containers back to the pool.
func (store *Store[T]) Release() {
	store.data.Release()
	store.notnulls.Release()
}

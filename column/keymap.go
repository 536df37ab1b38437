package column

import "sync/atomic"
import "unsafe"

import "github.com/bnclabs/colstore/api"
import "github.com/bnclabs/colstore/malloc"
import s "github.com/bnclabs/gosettings"

const fnvOffset = uint64(14695981039346656037)
const fnvPrime = uint64(1099511628211)

// hash bucket node, allocated from the pool. Nodes are immutable
// once published on a bucket list.
type mapnode struct {
	next  unsafe.Pointer
	key   unsafe.Pointer
	hash  uint64
	value uint64
}

var mapnodesize = int64(unsafe.Sizeof(mapnode{}))

// Keymap is a concurrent map from length-prefixed byte keys to 64-bit
// values. Keys are compared by content, the map stores only the
// pointer: key buffers are owned elsewhere, typically by a Keyarray,
// and must stay valid for the map's lifetime. TryAdd and TryGetValue
// can be called concurrently, Clear requires callers to quiesce every
// mutator first.
type Keymap struct {
	pool     *malloc.Pool
	buckets  *BlockArray[unsafe.Pointer]
	nbuckets int64
	mask     uint64
}

// NewKeymap construct an empty map with a fixed power-of-two bucket
// table, drawing nodes from pool.
func NewKeymap(pool *malloc.Pool, setts s.Settings) (*Keymap, error) {
	if pool == nil {
		return nil, api.ErrorNullArgument
	}
	nbuckets := setts.Int64("buckets")
	if nbuckets <= 0 || (nbuckets&(nbuckets-1)) != 0 {
		panic(api.ErrorOutofRange)
	}
	kmap := &Keymap{
		pool:     pool,
		buckets:  NewBlockArray[unsafe.Pointer](pool, itemsPerBlock, blocksGrowth),
		nbuckets: nbuckets,
		mask:     uint64(nbuckets - 1),
	}
	if !kmap.buckets.TryEnsureCapacity(nbuckets, -1) {
		return nil, api.ErrorOutofMemory
	}
	return kmap, nil
}

// NewKeymapFrom construct a map holding src's entries. Values index
// into srckeys, whose slots supply the key buffers for the new map.
func NewKeymapFrom(
	src *Keymap, srckeys *Keyarray,
	pool *malloc.Pool, setts s.Settings) (*Keymap, error) {

	if src == nil || srckeys == nil {
		return nil, api.ErrorNullArgument
	}
	kmap, err := NewKeymap(pool, setts)
	if err != nil {
		return nil, err
	}
	for b := int64(0); b < src.nbuckets; b++ {
		head := atomic.LoadPointer(src.buckets.Reference(b))
		for ptr := head; ptr != nil; {
			node := (*mapnode)(ptr)
			key, err := srckeys.GetAt(int64(node.value))
			if err != nil {
				return nil, err
			}
			if ok, err := kmap.TryAdd(key, node.value); err != nil {
				return nil, err
			} else if !ok {
				return nil, api.ErrorOutofMemory
			}
			ptr = node.next
		}
	}
	return kmap, nil
}

// TryAdd insert key with value iff no equal key is present, reporting
// whether the insertion took place. Allocation failure also reports
// false. The key buffer must stay valid for the map's lifetime.
func (kmap *Keymap) TryAdd(key unsafe.Pointer, value uint64) (bool, error) {
	if key == nil {
		return false, api.ErrorNullArgument
	} else if *(*byte)(key) == 0 {
		return false, api.ErrorOutofRange
	}

	hash := hashkey(key)
	slot := kmap.buckets.Reference(int64(hash & kmap.mask))

	head := atomic.LoadPointer(slot)
	if kmap.lookup(head, hash, key) != nil {
		return false, nil
	}

	nodemem, err := kmap.pool.Alloc(mapnodesize)
	if err != nil {
		return false, nil // insufficient memory reports a failed add
	}
	node := (*mapnode)(nodemem)
	node.key, node.hash, node.value = key, hash, value

	for {
		node.next = head
		if atomic.CompareAndSwapPointer(slot, head, nodemem) {
			return true, nil
		}
		// lost the race, rescan the entries that came in ahead.
		head = atomic.LoadPointer(slot)
		if kmap.lookup(head, hash, key) != nil {
			kmap.pool.Free(nodemem)
			return false, nil
		}
	}
}

// TryGetValue look up a key given as a length-prefixed buffer, the
// buffer must be at least L+1 bytes long.
func (kmap *Keymap) TryGetValue(key []byte) (uint64, bool, error) {
	if key == nil {
		return 0, false, api.ErrorNullArgument
	} else if len(key) < 2 {
		return 0, false, api.ErrorOutofRange
	} else if ln := int(key[0]); ln == 0 || ln > len(key)-1 {
		return 0, false, api.ErrorOutofRange
	}
	return kmap.TryGetValuePtr(unsafe.Pointer(&key[0]))
}

// TryGetValuePtr look up a key by its buffer pointer.
func (kmap *Keymap) TryGetValuePtr(key unsafe.Pointer) (uint64, bool, error) {
	if key == nil {
		return 0, false, api.ErrorNullArgument
	} else if *(*byte)(key) == 0 {
		return 0, false, api.ErrorOutofRange
	}
	hash := hashkey(key)
	head := atomic.LoadPointer(kmap.buckets.Reference(int64(hash & kmap.mask)))
	if node := kmap.lookup(head, hash, key); node != nil {
		return node.value, true, nil
	}
	return 0, false, nil
}

// GetAt look up a key that is required to be present.
func (kmap *Keymap) GetAt(key []byte) (uint64, error) {
	value, ok, err := kmap.TryGetValue(key)
	if err != nil {
		return 0, err
	} else if !ok {
		return 0, api.ErrorKeyNotFound
	}
	return value, nil
}

// Clear empty the map, retiring nodes through the pool's garbage
// list. Not safe against concurrent mutators.
func (kmap *Keymap) Clear() {
	for b := int64(0); b < kmap.nbuckets; b++ {
		slot := kmap.buckets.Reference(b)
		for ptr := atomic.LoadPointer(slot); ptr != nil; {
			node := (*mapnode)(ptr)
			next := node.next
			kmap.pool.ScheduleForCollection(ptr)
			ptr = next
		}
		atomic.StorePointer(slot, nil)
	}
}

// Release the map's nodes and bucket table back to the pool. Not
// safe against concurrent users.
func (kmap *Keymap) Release() {
	for b := int64(0); b < kmap.nbuckets; b++ {
		slot := kmap.buckets.Reference(b)
		for ptr := atomic.LoadPointer(slot); ptr != nil; {
			node := (*mapnode)(ptr)
			next := node.next
			kmap.pool.Free(ptr)
			ptr = next
		}
		atomic.StorePointer(slot, nil)
	}
	kmap.buckets.Release()
}

//---- local functions

func (kmap *Keymap) lookup(
	head unsafe.Pointer, hash uint64, key unsafe.Pointer) *mapnode {

	for ptr := head; ptr != nil; {
		node := (*mapnode)(ptr)
		if node.hash == hash && equalkeys(node.key, key) {
			return node
		}
		ptr = node.next
	}
	return nil
}

// FNV-1a over the content bytes, the length prefix seeds the
// comparison but not the hash.
func hashkey(key unsafe.Pointer) uint64 {
	ln := uintptr(*(*byte)(key))
	hash := fnvOffset
	for off := uintptr(1); off <= ln; off++ {
		hash ^= uint64(*(*byte)(unsafe.Pointer(uintptr(key) + off)))
		hash *= fnvPrime
	}
	return hash
}

func equalkeys(a, b unsafe.Pointer) bool {
	ln := uintptr(*(*byte)(a))
	if ln != uintptr(*(*byte)(b)) {
		return false
	}
	for off := uintptr(1); off <= ln; off++ {
		x := *(*byte)(unsafe.Pointer(uintptr(a) + off))
		y := *(*byte)(unsafe.Pointer(uintptr(b) + off))
		if x != y {
			return false
		}
	}
	return true
}

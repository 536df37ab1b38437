// Package column implements a family of off-heap, pool-allocated
// containers to back an in-memory columnar database engine:
//
//   - BlockArray, a two-level growable vector of fixed width elements
//     with wait-free readers and a single locked grower.
//   - Bitvector, a bitmap over a BlockArray of bytes, with scalar and
//     compare-and-swap bit operations, typically used for tracking
//     null entries.
//   - Keyarray, a parallel array of exclusively owned length-prefixed
//     byte slots with install-once compare-and-swap semantics.
//   - Keymap, a concurrent map from length-prefixed byte keys to
//     64-bit values.
//   - Store, a typed column of fixed width scalar values paired with
//     a not-null bitmap.
//
// All containers draw memory from a malloc.Pool so that an entire
// working set can be dropped with a single Recycle, and memory
// replaced while readers are active is retired through the pool's
// garbage list instead of being freed in place.
package column

// Package malloc supplies custom memory management for off-heap
// columnar containers, with a limited scope:
//
//   - Arena types and functions are not thread safe, Pool wraps an
//     arena for concurrent use.
//   - Work best when memory behaviour is known apriori.
//   - Memory is allocated in pools, of several Megabytes, where each
//     pool manages several memory-chunks of same size.
//   - Once a pool block is allocated from OS, it is given back when
//     the arena is Recycled or Released. The flist allocator also
//     gives back an empty pool of fewer than 64 chunks found at the
//     head of its free list while more than 5 pools of that size are
//     active.
//   - There is no pointer re-write, if copying garbage collector is
//     necessary it can be implemented on top of this implementation.
//   - Memory-chunks allocated by this package will always be 64-bit
//     aligned.
//
// Arena is a bucket space of memory, with a maximum capacity, that
// is empty to begin with and starts filling up as and when new
// allocations are requested by application. For performance reasons
// arena allocate memory from OS in large blocks, called pool,
// where each pool contains several memory-chunks of same size.
//
// Pool layers two facilities over an arena: a spin-mutex serializing
// writers, and a garbage list holding chunks that may still be
// observed by concurrent readers. Chunks scheduled for collection
// are released only by DeallocateGarbage or Recycle, after callers
// have quiesced the readers.
package malloc

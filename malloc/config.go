package malloc

import "fmt"

import s "github.com/bnclabs/gosettings"
import "github.com/cloudfoundry/gosigar"

// Alignment chunks allocated by this package are aligned to this
// boundary. Minblock and maxblock should be multiples of Alignment.
const Alignment = int64(8)

// MEMUtilization is the ratio between allocated memory to application
// and useful memory allocated from OS.
const MEMUtilization = float64(0.95)

// Sizeinterval slab sizes are multiples of this value.
const Sizeinterval = int64(32)

// Maxarenasize maximum size of a memory arena. Can be used as default
// capacity for NewArena().
const Maxarenasize = int64(1024 * 1024 * 1024 * 1024) // 1TB

// Maxpools maximum number of pool-sizes allowed in an arena.
const Maxpools = int64(512)

// Maxchunks maximum number of chunks allowed in a pool.
const Maxchunks = int64(65536)

// Defaultsettings for this package, applicable to both Arena and Pool.
//
// "minblock" (int64, default: <minblock>)
//		Minimum size of a chunk.
//
// "maxblock" (int64, default: <maxblock>)
//		Maximum size of a chunk.
//
// "capacity" (int64, default: half of free system RAM)
//		Memory capacity for callers to pass to NewArena or NewPool.
//		Neither constructor reads this key, both take capacity as an
//		argument.
//
// "pool.capacity" (int64, default: 2MB)
//		Limit the size of a pool.
//
// "maxpools" (int64, default: Maxpools)
//		Maximum number of pool-sizes allowed.
//
// "maxchunks" (int64, default: Maxchunks)
//		Maximum number of chunks allowed in a pool.
//
// "allocator" (string, default: "flist")
//		Allocator algorithm, can be "flist" or "fbit".
//
func Defaultsettings(minblock, maxblock int64) s.Settings {
	if minblock > maxblock {
		panic(fmt.Errorf("minblock(%v) > maxblock(%v)", minblock, maxblock))
	}
	_, _, free := getsysmem()
	capacity := int64(free / 2)
	if capacity > Maxarenasize {
		capacity = Maxarenasize
	}
	return s.Settings{
		"minblock":      minblock,
		"maxblock":      maxblock,
		"capacity":      capacity,
		"pool.capacity": int64(2 * 1024 * 1024),
		"maxpools":      Maxpools,
		"maxchunks":     Maxchunks,
		"allocator":     "flist",
	}
}

func getsysmem() (total, used, free uint64) {
	mem := sigar.Mem{}
	mem.Get()
	return mem.Total, mem.Used, mem.Free
}

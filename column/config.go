package column

import s "github.com/bnclabs/gosettings"

import "github.com/bnclabs/colstore/malloc"

// Defaultsettings for this package's containers, composable with the
// pool's settings via Mixin.
//
// "buckets" (int64, default: 16384)
//		Number of hash buckets in a Keymap, must be a power of two.
//		The table is fixed for the map's lifetime, size it for the
//		expected key population.
//
// Pool settings are documented with malloc.Defaultsettings. Blocks
// of 65536 elements are the largest chunks containers request, the
// default maxblock leaves headroom for the widest value type.
func Defaultsettings() s.Settings {
	setts := s.Settings{
		"buckets": int64(16384),
	}
	poolsetts := malloc.Defaultsettings(32, 2*1024*1024)
	return setts.Mixin(poolsetts)
}

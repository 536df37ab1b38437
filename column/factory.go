package column

import "github.com/bnclabs/colstore/api"
import "github.com/bnclabs/colstore/malloc"

// storemakers registry of value kinds to typed column store
// constructors.
var storemakers = map[string]func(pool *malloc.Pool) interface{}{
	"int8":           func(pool *malloc.Pool) interface{} { return NewStore[int8](pool) },
	"int16":          func(pool *malloc.Pool) interface{} { return NewStore[int16](pool) },
	"int32":          func(pool *malloc.Pool) interface{} { return NewStore[int32](pool) },
	"int64":          func(pool *malloc.Pool) interface{} { return NewStore[int64](pool) },
	"uint8":          func(pool *malloc.Pool) interface{} { return NewStore[uint8](pool) },
	"uint16":         func(pool *malloc.Pool) interface{} { return NewStore[uint16](pool) },
	"uint32":         func(pool *malloc.Pool) interface{} { return NewStore[uint32](pool) },
	"uint64":         func(pool *malloc.Pool) interface{} { return NewStore[uint64](pool) },
	"float32":        func(pool *malloc.Pool) interface{} { return NewStore[float32](pool) },
	"float64":        func(pool *malloc.Pool) interface{} { return NewStore[float64](pool) },
	"decimal":        func(pool *malloc.Pool) interface{} { return NewStore[Decimal](pool) },
	"datetime":       func(pool *malloc.Pool) interface{} { return NewStore[DateTime](pool) },
	"datetimeoffset": func(pool *malloc.Pool) interface{} { return NewStore[DateTimeOffset](pool) },
	"timespan":       func(pool *malloc.Pool) interface{} { return NewStore[Timespan](pool) },
	"guid":           func(pool *malloc.Pool) interface{} { return NewStore[Guid](pool) },
}

// NewStoreByKind construct a typed column store for a value kind
// named at runtime. Returns api.ErrorKeyNotFound for kinds outside
// the registry.
func NewStoreByKind(kind string, pool *malloc.Pool) (interface{}, error) {
	if maker, ok := storemakers[kind]; ok {
		return maker(pool), nil
	}
	return nil, api.ErrorKeyNotFound
}

// StoreKinds value kinds known to the registry.
func StoreKinds() []string {
	kinds := make([]string, 0, len(storemakers))
	for kind := range storemakers {
		kinds = append(kinds, kind)
	}
	return kinds
}

package column

import "github.com/bnclabs/colstore/malloc"

func newtestpool(capacity int64) *malloc.Pool {
	setts := Defaultsettings()
	return malloc.NewPool(capacity, setts)
}

package column

import "bytes"
import "sync/atomic"
import "testing"

import "github.com/bnclabs/colstore/api"
import "golang.org/x/sync/errgroup"

func TestBitvectorBasic(t *testing.T) {
	pool := newtestpool(256 * 1024 * 1024)
	defer pool.Release()

	bv := NewBitvector(pool)
	if x := bv.Capacity(); x != 0 {
		t.Errorf("expected %v, got %v", 0, x)
	}
	bv.EnsureCapacity(10)
	if x := bv.Capacity(); x < 10 {
		t.Errorf("expected at least %v, got %v", 10, x)
	}

	for _, ix := range []int64{0, 7, 8, 9} {
		if bv.Get(ix) {
			t.Errorf("bit %v expected clear", ix)
		}
		bv.Set(ix)
		if !bv.Get(ix) {
			t.Errorf("bit %v expected set", ix)
		}
	}
	if bv.Get(1) || bv.Get(6) || bv.Get(10) {
		t.Errorf("unexpected set bits")
	}
	bv.Clear(7)
	if bv.Get(7) {
		t.Errorf("bit %v expected clear", 7)
	}
	if x := bv.GetGroup(0); x != 0x01 {
		t.Errorf("expected %x, got %x", 0x01, x)
	}
	bv.SetGroup(0, 0xa5)
	if x := bv.GetGroup(3); x != 0xa5 {
		t.Errorf("expected %x, got %x", 0xa5, x)
	}
	bv.Release()
}

func TestBitvectorSafeOps(t *testing.T) {
	pool := newtestpool(256 * 1024 * 1024)
	defer pool.Release()

	bv := NewBitvector(pool)
	bv.EnsureCapacity(64)

	bv.SafeSet(13)
	if !bv.Get(13) {
		t.Errorf("bit %v expected set", 13)
	}
	bv.SafeClear(13)
	if bv.Get(13) {
		t.Errorf("bit %v expected clear", 13)
	}
	if x := bv.SafeGetAndSet(13); x != false {
		t.Errorf("expected %v, got %v", false, x)
	}
	if x := bv.SafeGetAndSet(13); x != true {
		t.Errorf("expected %v, got %v", true, x)
	}
	if x := bv.SafeGetAndClear(13); x != true {
		t.Errorf("expected %v, got %v", true, x)
	}
	if x := bv.SafeGetAndClear(13); x != false {
		t.Errorf("expected %v, got %v", false, x)
	}
	// neighbouring bits are untouched by the word-wide CAS.
	bv.Set(12)
	bv.Set(14)
	bv.SafeSet(13)
	bv.SafeClear(13)
	if !bv.Get(12) || !bv.Get(14) {
		t.Errorf("neighbour bits clobbered")
	}
	bv.Release()
}

func TestBitvectorChangeAll(t *testing.T) {
	pool := newtestpool(256 * 1024 * 1024)
	defer pool.Release()

	bv := NewBitvector(pool)
	bv.EnsureCapacity(100)
	bv.ChangeAll(true)
	for _, ix := range []int64{0, 1, 50, 99, bv.Capacity() - 1} {
		if !bv.Get(ix) {
			t.Errorf("bit %v expected set", ix)
		}
	}
	bv.ChangeAll(false)
	for _, ix := range []int64{0, 1, 50, 99, bv.Capacity() - 1} {
		if bv.Get(ix) {
			t.Errorf("bit %v expected clear", ix)
		}
	}
	bv.Release()
}

func TestBitvectorSerialize(t *testing.T) {
	pool := newtestpool(256 * 1024 * 1024)
	defer pool.Release()

	bv := NewBitvector(pool)
	bv.EnsureCapacity(10)
	for _, ix := range []int64{0, 7, 8, 9} {
		bv.Set(ix)
	}
	var buf bytes.Buffer
	if err := bv.Write(&buf, 10); err != nil {
		t.Fatalf("unexpected failure: %v", err)
	}
	if ref := []byte{0x81, 0x03}; bytes.Compare(buf.Bytes(), ref) != 0 {
		t.Errorf("expected %x, got %x", ref, buf.Bytes())
	}

	fresh := NewBitvector(pool)
	if err := fresh.Read(bytes.NewReader(buf.Bytes()), 10); err != nil {
		t.Fatalf("unexpected failure: %v", err)
	}
	for ix := int64(0); ix < 10; ix++ {
		if fresh.Get(ix) != bv.Get(ix) {
			t.Errorf("bit %v mismatch", ix)
		}
	}

	// Read on a non-empty vector is rejected.
	if err := fresh.Read(bytes.NewReader(buf.Bytes()), 10); err != api.ErrorInvalidOperation {
		t.Errorf("expected %v, got %v", api.ErrorInvalidOperation, err)
	}
	// Write beyond capacity is rejected.
	if err := bv.Write(&buf, bv.Capacity()+1); err != api.ErrorInvalidOperation {
		t.Errorf("expected %v, got %v", api.ErrorInvalidOperation, err)
	}
	bv.Release()
	fresh.Release()
}

func TestBitvectorFrom(t *testing.T) {
	pool := newtestpool(256 * 1024 * 1024)
	defer pool.Release()

	bv := NewBitvector(pool)
	bv.EnsureCapacity(1000)
	for ix := int64(0); ix < 1000; ix += 7 {
		bv.Set(ix)
	}
	clone, err := NewBitvectorFrom(bv, pool)
	if err != nil {
		t.Fatalf("unexpected failure: %v", err)
	}
	if x, y := clone.Capacity(), bv.Capacity(); x < y {
		t.Errorf("expected at least %v, got %v", y, x)
	}
	for ix := int64(0); ix < 1000; ix++ {
		if clone.Get(ix) != bv.Get(ix) {
			t.Errorf("bit %v mismatch", ix)
		}
	}

	if _, err := NewBitvectorFrom(nil, pool); err != api.ErrorNullArgument {
		t.Errorf("expected %v, got %v", api.ErrorNullArgument, err)
	}
	bv.Release()
	clone.Release()
}

func TestBitvectorSafeWinner(t *testing.T) {
	pool := newtestpool(256 * 1024 * 1024)
	defer pool.Release()

	bv := NewBitvector(pool)
	bv.EnsureCapacity(64)

	// exactly one contender observes the clear bit.
	var winners int64
	var eg errgroup.Group
	for n := 0; n < 16; n++ {
		eg.Go(func() error {
			if bv.SafeGetAndSet(42) == false {
				atomic.AddInt64(&winners, 1)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		t.Fatalf("unexpected failure: %v", err)
	}
	if winners != 1 {
		t.Errorf("expected %v, got %v", 1, winners)
	}
	bv.Release()
}

func BenchmarkBitvectorSet(b *testing.B) {
	pool := newtestpool(256 * 1024 * 1024)
	defer pool.Release()

	bv := NewBitvector(pool)
	bv.EnsureCapacity(1000000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bv.Set(int64(i) % 1000000)
	}
}

func BenchmarkBitvectorSafeSet(b *testing.B) {
	pool := newtestpool(256 * 1024 * 1024)
	defer pool.Release()

	bv := NewBitvector(pool)
	bv.EnsureCapacity(1000000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bv.SafeSet(int64(i) % 1000000)
	}
}

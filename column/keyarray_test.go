package column

import "bytes"
import "testing"

import "github.com/bnclabs/colstore/api"

func TestKeyarrayBasic(t *testing.T) {
	pool := newtestpool(256 * 1024 * 1024)
	defer pool.Release()

	ka := NewKeyarray(pool)
	ka.EnsureCapacity(100)

	if ok, err := ka.TrySetAt(0, []byte{2, 'a', 'b'}); err != nil || !ok {
		t.Fatalf("expected install, got %v %v", ok, err)
	}
	ptr, err := ka.GetAt(0)
	if err != nil {
		t.Fatalf("unexpected failure: %v", err)
	} else if ptr == nil {
		t.Fatalf("expected non-null slot")
	}
	if ref := []byte{2, 'a', 'b'}; bytes.Compare(Keybytes(ptr), ref) != 0 {
		t.Errorf("expected %v, got %v", ref, Keybytes(ptr))
	}

	// fresh slots are null.
	if ptr, err := ka.GetAt(1); err != nil || ptr != nil {
		t.Errorf("expected null slot, got %v %v", ptr, err)
	}

	// replace retires the old buffer through the garbage list.
	if ok, err := ka.TrySetAt(0, []byte{3, 'x', 'y', 'z'}); err != nil || !ok {
		t.Fatalf("expected install, got %v %v", ok, err)
	}
	ptr, _ = ka.GetAt(0)
	if ref := []byte{3, 'x', 'y', 'z'}; bytes.Compare(Keybytes(ptr), ref) != 0 {
		t.Errorf("expected %v, got %v", ref, Keybytes(ptr))
	}
	pool.DeallocateGarbage()

	// install null.
	if ok, err := ka.TrySetAt(0, nil); err != nil || !ok {
		t.Fatalf("expected install, got %v %v", ok, err)
	}
	if ptr, _ := ka.GetAt(0); ptr != nil {
		t.Errorf("expected null slot, got %v", ptr)
	}
	ka.Release()
}

func TestKeyarrayCopyAt(t *testing.T) {
	pool := newtestpool(256 * 1024 * 1024)
	defer pool.Release()

	ka := NewKeyarray(pool)
	ka.EnsureCapacity(10)
	ka.TrySetAt(3, []byte{4, 'd', 'a', 't', 'a'})

	buf := make([]byte, 16)
	n, err := ka.CopyAt(3, buf)
	if err != nil {
		t.Fatalf("unexpected failure: %v", err)
	} else if n != 5 {
		t.Errorf("expected %v, got %v", 5, n)
	}
	if ref := []byte{4, 'd', 'a', 't', 'a'}; bytes.Compare(buf[:n], ref) != 0 {
		t.Errorf("expected %v, got %v", ref, buf[:n])
	}

	// null slot copies nothing.
	if n, err := ka.CopyAt(4, buf); err != nil || n != 0 {
		t.Errorf("expected empty copy, got %v %v", n, err)
	}
	// undersized buffer is rejected.
	if _, err := ka.CopyAt(3, make([]byte, 2)); err != api.ErrorInsufficientSpace {
		t.Errorf("expected %v, got %v", api.ErrorInsufficientSpace, err)
	}
	if _, err := ka.CopyAt(3, nil); err != api.ErrorNullArgument {
		t.Errorf("expected %v, got %v", api.ErrorNullArgument, err)
	}
	ka.Release()
}

func TestKeyarrayBoundary(t *testing.T) {
	pool := newtestpool(256 * 1024 * 1024)
	defer pool.Release()

	ka := NewKeyarray(pool)
	ka.EnsureCapacity(10)
	capacity := ka.Capacity()

	// index at capacity is rejected.
	if _, err := ka.TrySetAt(capacity, []byte{1, 'a'}); err != api.ErrorOutofRange {
		t.Errorf("expected %v, got %v", api.ErrorOutofRange, err)
	}
	if _, err := ka.GetAt(capacity); err != api.ErrorOutofRange {
		t.Errorf("expected %v, got %v", api.ErrorOutofRange, err)
	}
	// zero length prefix is rejected.
	if _, err := ka.TrySetAt(0, []byte{0, 'a'}); err != api.ErrorOutofRange {
		t.Errorf("expected %v, got %v", api.ErrorOutofRange, err)
	}
	// prefix beyond the buffer is rejected.
	if _, err := ka.TrySetAt(0, []byte{5, 'a', 'b'}); err != api.ErrorOutofRange {
		t.Errorf("expected %v, got %v", api.ErrorOutofRange, err)
	}
	// single byte buffers are rejected.
	if _, err := ka.TrySetAt(0, []byte{1}); err != api.ErrorOutofRange {
		t.Errorf("expected %v, got %v", api.ErrorOutofRange, err)
	}
	ka.Release()
}

func TestKeyarraySerialize(t *testing.T) {
	pool := newtestpool(256 * 1024 * 1024)
	defer pool.Release()

	ka := NewKeyarray(pool)
	ka.EnsureCapacity(2)
	ka.TrySetAt(0, []byte{2, 'a', 'b'})
	ka.TrySetAt(1, []byte{3, 'x', 'y', 'z'})

	valids := NewBitvector(pool)
	valids.EnsureCapacity(2)
	valids.Set(0)
	valids.Set(1)

	var buf bytes.Buffer
	if err := ka.Write(&buf, 2, valids); err != nil {
		t.Fatalf("unexpected failure: %v", err)
	}
	ref := []byte{0x02, 0x61, 0x62, 0x03, 0x78, 0x79, 0x7A}
	if bytes.Compare(buf.Bytes(), ref) != 0 {
		t.Errorf("expected %x, got %x", ref, buf.Bytes())
	}

	fresh := NewKeyarray(pool)
	if err := fresh.Read(bytes.NewReader(buf.Bytes()), 2, valids); err != nil {
		t.Fatalf("unexpected failure: %v", err)
	}
	for ix := int64(0); ix < 2; ix++ {
		p, _ := ka.GetAt(ix)
		q, _ := fresh.GetAt(ix)
		if bytes.Compare(Keybytes(p), Keybytes(q)) != 0 {
			t.Errorf("slot %v mismatch: %v %v", ix, Keybytes(p), Keybytes(q))
		}
	}

	// Read on a non-empty array is rejected.
	err := fresh.Read(bytes.NewReader(buf.Bytes()), 2, valids)
	if err != api.ErrorInvalidOperation {
		t.Errorf("expected %v, got %v", api.ErrorInvalidOperation, err)
	}
	ka.Release()
	fresh.Release()
	valids.Release()
}

func TestKeyarraySerializeSkips(t *testing.T) {
	pool := newtestpool(256 * 1024 * 1024)
	defer pool.Release()

	ka := NewKeyarray(pool)
	ka.EnsureCapacity(4)
	ka.TrySetAt(0, []byte{1, 'a'})
	ka.TrySetAt(1, []byte{1, 'b'})
	ka.TrySetAt(3, []byte{1, 'd'})

	// only entries marked valid participate, slot 2 encodes null.
	valids := NewBitvector(pool)
	valids.EnsureCapacity(4)
	valids.Set(0)
	valids.Set(2)
	valids.Set(3)

	var buf bytes.Buffer
	if err := ka.Write(&buf, 4, valids); err != nil {
		t.Fatalf("unexpected failure: %v", err)
	}
	ref := []byte{0x01, 'a', 0x00, 0x01, 'd'}
	if bytes.Compare(buf.Bytes(), ref) != 0 {
		t.Errorf("expected %x, got %x", ref, buf.Bytes())
	}

	fresh := NewKeyarray(pool)
	if err := fresh.Read(bytes.NewReader(buf.Bytes()), 4, valids); err != nil {
		t.Fatalf("unexpected failure: %v", err)
	}
	if p, _ := fresh.GetAt(1); p != nil { // skipped, stays null
		t.Errorf("expected null slot, got %v", p)
	}
	if p, _ := fresh.GetAt(2); p != nil { // explicit null
		t.Errorf("expected null slot, got %v", p)
	}
	p, _ := fresh.GetAt(3)
	if ref := []byte{1, 'd'}; bytes.Compare(Keybytes(p), ref) != 0 {
		t.Errorf("expected %v, got %v", ref, Keybytes(p))
	}
	ka.Release()
	fresh.Release()
	valids.Release()
}

func TestKeyarrayFrom(t *testing.T) {
	pool := newtestpool(256 * 1024 * 1024)
	defer pool.Release()

	ka := NewKeyarray(pool)
	ka.EnsureCapacity(100)
	ka.TrySetAt(0, []byte{2, 'a', 'b'})
	ka.TrySetAt(42, []byte{1, 'z'})

	clone, err := NewKeyarrayFrom(ka, pool)
	if err != nil {
		t.Fatalf("unexpected failure: %v", err)
	}
	p, _ := clone.GetAt(0)
	if ref := []byte{2, 'a', 'b'}; bytes.Compare(Keybytes(p), ref) != 0 {
		t.Errorf("expected %v, got %v", ref, Keybytes(p))
	}
	p, _ = clone.GetAt(42)
	if ref := []byte{1, 'z'}; bytes.Compare(Keybytes(p), ref) != 0 {
		t.Errorf("expected %v, got %v", ref, Keybytes(p))
	}
	if p, _ := clone.GetAt(1); p != nil {
		t.Errorf("expected null slot, got %v", p)
	}
	ka.Release()
	clone.Release()
}

func BenchmarkKeyarraySet(b *testing.B) {
	pool := newtestpool(1024 * 1024 * 1024)
	defer pool.Release()

	ka := NewKeyarray(pool)
	ka.EnsureCapacity(1000000)
	key := []byte{8, 1, 2, 3, 4, 5, 6, 7, 8}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ka.TrySetAt(int64(i)%1000000, key)
		if i%100000 == 99999 {
			pool.DeallocateGarbage()
		}
	}
}

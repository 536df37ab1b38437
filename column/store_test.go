package column

import "testing"

func TestStoreBasic(t *testing.T) {
	pool := newtestpool(256 * 1024 * 1024)
	defer pool.Release()

	store := NewStore[int32](pool)
	store.EnsureCapacity(1000)
	if x := store.Capacity(); x < 1000 {
		t.Errorf("expected at least %v, got %v", 1000, x)
	}

	// fresh entries are null.
	for _, ix := range []int64{0, 1, 999} {
		if store.IsNotNull(ix) {
			t.Errorf("index %v expected null", ix)
		}
	}

	store.Set(7, -42)
	if !store.IsNotNull(7) {
		t.Errorf("index %v expected not-null", 7)
	}
	if x := store.Get(7); x != -42 {
		t.Errorf("expected %v, got %v", -42, x)
	}

	// clearing nullness leaves the raw value in place.
	store.ClearIsNotNull(7)
	if store.IsNotNull(7) {
		t.Errorf("index %v expected null", 7)
	}
	if x := store.Get(7); x != -42 {
		t.Errorf("expected %v, got %v", -42, x)
	}
	store.SetIsNotNull(7)
	if !store.IsNotNull(7) {
		t.Errorf("index %v expected not-null", 7)
	}
	store.Release()
}

func TestStoreWideTypes(t *testing.T) {
	pool := newtestpool(256 * 1024 * 1024)
	defer pool.Release()

	decimals := NewStore[Decimal](pool)
	decimals.EnsureCapacity(10)
	decimals.Set(3, Decimal{Flags: 1 << 16, Hi: 2, Lo: 3})
	if x := decimals.Get(3); x != (Decimal{Flags: 1 << 16, Hi: 2, Lo: 3}) {
		t.Errorf("unexpected decimal %v", x)
	}

	guids := NewStore[Guid](pool)
	guids.EnsureCapacity(10)
	guid := Guid{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}
	guids.Set(9, guid)
	if x := guids.Get(9); x != guid {
		t.Errorf("unexpected guid %v", x)
	}

	offsets := NewStore[DateTimeOffset](pool)
	offsets.EnsureCapacity(10)
	offsets.Set(0, DateTimeOffset{Ticks: 637134336000000000, Offset: -480})
	if x := offsets.Get(0); x.Offset != -480 {
		t.Errorf("unexpected offset %v", x)
	}

	instants := NewStore[DateTime](pool)
	instants.EnsureCapacity(10)
	instants.Set(1, DateTime(637134336000000000))
	if x := instants.Get(1); x != 637134336000000000 {
		t.Errorf("unexpected instant %v", x)
	}

	decimals.Release()
	guids.Release()
	offsets.Release()
	instants.Release()
}

func TestStoreFrom(t *testing.T) {
	pool := newtestpool(256 * 1024 * 1024)
	defer pool.Release()

	store := NewStore[uint64](pool)
	store.EnsureCapacity(100)
	store.Set(0, 11)
	store.Set(99, 22)

	clone, err := NewStoreFrom(store, pool)
	if err != nil {
		t.Fatalf("unexpected failure: %v", err)
	}
	if x := clone.Get(0); !clone.IsNotNull(0) || x != 11 {
		t.Errorf("expected %v, got %v", 11, x)
	}
	if x := clone.Get(99); !clone.IsNotNull(99) || x != 22 {
		t.Errorf("expected %v, got %v", 22, x)
	}
	if clone.IsNotNull(50) {
		t.Errorf("index %v expected null", 50)
	}
	store.Release()
	clone.Release()
}

func TestStoreByKind(t *testing.T) {
	pool := newtestpool(256 * 1024 * 1024)
	defer pool.Release()

	for _, kind := range StoreKinds() {
		obj, err := NewStoreByKind(kind, pool)
		if err != nil {
			t.Fatalf("kind %v: %v", kind, err)
		} else if obj == nil {
			t.Fatalf("kind %v: nil store", kind)
		}
	}

	obj, err := NewStoreByKind("int64", pool)
	if err != nil {
		t.Fatalf("unexpected failure: %v", err)
	}
	store, ok := obj.(*Store[int64])
	if !ok {
		t.Fatalf("unexpected type %T", obj)
	}
	store.EnsureCapacity(10)
	store.Set(0, 1234)
	if x := store.Get(0); x != 1234 {
		t.Errorf("expected %v, got %v", 1234, x)
	}

	if _, err := NewStoreByKind("complex128", pool); err == nil {
		t.Errorf("expected failure for unknown kind")
	}
}

func BenchmarkStoreSet(b *testing.B) {
	pool := newtestpool(256 * 1024 * 1024)
	defer pool.Release()

	store := NewStore[int64](pool)
	store.EnsureCapacity(1000000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		store.Set(int64(i)%1000000, int64(i))
	}
}

package handle

import (
	"sync"
	"testing"
)

func TestIDLayout(t *testing.T) {
	id := Make(3, 0x00abcdef, 0xdeadbeef)
	if id.Kind() != 3 {
		t.Errorf("Kind() = %d", id.Kind())
	}
	if id.Generation() != 0x00abcdef {
		t.Errorf("Generation() = %x", id.Generation())
	}
	if id.Index() != 0xdeadbeef {
		t.Errorf("Index() = %x", id.Index())
	}
	if Null.String() != "null" || !Null.IsNull() {
		t.Error("Null misrendered")
	}
}

func TestInsertGetRemove(t *testing.T) {
	tbl := New[string](1)

	a := tbl.Insert("a")
	b := tbl.Insert("b")
	if a == Null || b == Null || a == b {
		t.Fatalf("ids = %v, %v", a, b)
	}
	if tbl.Len() != 2 {
		t.Errorf("Len() = %d", tbl.Len())
	}

	if v, ok := tbl.Get(a); !ok || v != "a" {
		t.Errorf("Get(a) = %q, %v", v, ok)
	}

	if v, ok := tbl.Remove(a); !ok || v != "a" {
		t.Errorf("Remove(a) = %q, %v", v, ok)
	}
	if _, ok := tbl.Get(a); ok {
		t.Error("removed id still resolves")
	}
	if _, ok := tbl.Remove(a); ok {
		t.Error("double Remove succeeded")
	}
	if tbl.Len() != 1 {
		t.Errorf("Len() = %d", tbl.Len())
	}
}

func TestStaleAfterReuse(t *testing.T) {
	tbl := New[int](1)

	old := tbl.Insert(1)
	tbl.Remove(old)
	reused := tbl.Insert(2)

	if reused.Index() != old.Index() {
		t.Fatalf("slot not reused: %v vs %v", reused, old)
	}
	if reused == old {
		t.Fatal("reused slot issued identical id")
	}
	if _, ok := tbl.Get(old); ok {
		t.Error("stale id resolved to the new value")
	}
	if v, ok := tbl.Get(reused); !ok || v != 2 {
		t.Errorf("Get(reused) = %d, %v", v, ok)
	}
}

func TestForeignIDs(t *testing.T) {
	keys := New[int](1)
	paths := New[int](2)

	k := keys.Insert(10)
	p := paths.Insert(20)

	if k.Index() != p.Index() || k.Generation() != p.Generation() {
		t.Fatal("expected identical slot and generation in fresh tables")
	}
	if _, ok := keys.Get(p); ok {
		t.Error("key table accepted a path id")
	}
	if _, ok := paths.Get(k); ok {
		t.Error("path table accepted a key id")
	}
	if keys.Valid(Null) {
		t.Error("Null is valid")
	}
	if keys.Valid(Make(1, 1, 999)) {
		t.Error("out of range id is valid")
	}
}

func TestGenerationRetire(t *testing.T) {
	tbl := New[int](1)
	id := tbl.Insert(1)
	tbl.slots[id.Index()].gen = genMask
	id = Make(1, genMask, id.Index())

	if _, ok := tbl.Remove(id); !ok {
		t.Fatal("Remove failed")
	}
	next := tbl.Insert(2)
	if next.Index() == id.Index() {
		t.Error("exhausted slot was reused")
	}
}

func TestConcurrentInsertRemove(t *testing.T) {
	tbl := New[int](1)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				id := tbl.Insert(n)
				if v, ok := tbl.Get(id); !ok || v != n {
					t.Errorf("Get() = %d, %v", v, ok)
					return
				}
				tbl.Remove(id)
			}
		}(i)
	}
	wg.Wait()
	if tbl.Len() != 0 {
		t.Errorf("Len() = %d after all removals", tbl.Len())
	}
}

func TestNewReservedKind(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("New(0) did not panic")
		}
	}()
	New[int](0)
}

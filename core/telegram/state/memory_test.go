package state

import (
	"sync"
	"testing"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	s := NewMemoryStore[string]()
	if _, ok := s.Get(1); ok {
		t.Fatal("expected empty store")
	}
	s.Set(1, "a")
	s.Set(1, "b")
	if v, ok := s.Get(1); !ok || v != "b" {
		t.Fatalf("Get = %q, %v; want replaced value", v, ok)
	}
	s.Delete(1)
	s.Delete(1)
	if s.Len() != 0 {
		t.Fatalf("Len = %d after delete", s.Len())
	}
}

func TestMemoryStoreIsolatesUsers(t *testing.T) {
	s := NewMemoryStore[int]()
	var wg sync.WaitGroup
	for i := int64(1); i <= 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s.Set(id, int(id))
		}(i)
	}
	wg.Wait()
	if s.Len() != 50 {
		t.Fatalf("Len = %d, want 50", s.Len())
	}
	if v, _ := s.Get(7); v != 7 {
		t.Fatalf("Get(7) = %d", v)
	}
}

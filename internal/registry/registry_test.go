package registry

import (
	"sync"
	"testing"
)

func TestRegister_DuplicateNameFails(t *testing.T) {
	r := New[int]()
	if err := r.Register("a", 1); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	if err := r.Register("a", 2); err == nil {
		t.Fatal("expected error re-registering name \"a\", got nil")
	}
}

func TestRegister_EmptyNameFails(t *testing.T) {
	r := New[int]()
	if err := r.Register("", 1); err == nil {
		t.Fatal("expected error registering empty name, got nil")
	}
}

func TestList_PreservesRegistrationOrder(t *testing.T) {
	r := New[string]()
	names := []string{"schema_info", "list_widgets", "execute_sql_query", "create_widget", "edit_widget"}
	for _, n := range names {
		if err := r.Register(n, n); err != nil {
			t.Fatalf("Register(%q) failed: %v", n, err)
		}
	}

	got := r.Names()
	if len(got) != len(names) {
		t.Fatalf("Names() returned %d entries, want %d", len(got), len(names))
	}
	for i, n := range names {
		if got[i] != n {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], n)
		}
	}

	list := r.List()
	for i, n := range names {
		if list[i] != n {
			t.Errorf("List()[%d] = %q, want %q", i, list[i], n)
		}
	}
}

func TestGet_UnknownNameMisses(t *testing.T) {
	r := New[int]()
	if _, ok := r.Get("missing"); ok {
		t.Fatal("Get(\"missing\") reported ok=true for unregistered name")
	}
}

func TestRegistry_ConcurrentReadsDuringWrites(t *testing.T) {
	r := New[int]()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = r.Register(string(rune('a'+i%26))+string(rune(i)), i)
			r.List()
			r.Count()
		}(i)
	}
	wg.Wait()
}

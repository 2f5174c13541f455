package chat

import (
	"sync"
	"testing"
)

func TestStoreAcquireSharesOneRecord(t *testing.T) {
	store := NewStore(0)

	const workers = 16
	records := make([]*Session, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			records[i] = store.Acquire("same-id")
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if records[i] != records[0] {
			t.Fatal("concurrent Acquire must return one shared record")
		}
	}
	if store.Count() != 1 {
		t.Fatalf("expected 1 session, got %d", store.Count())
	}
}

func TestStoreRemoveFiresEviction(t *testing.T) {
	store := NewStore(0)

	var evicted []*Session
	store.OnEvicted(func(sess *Session) {
		evicted = append(evicted, sess)
	})

	sess := store.Acquire("s1")
	store.Remove("s1")

	if _, ok := store.Get("s1"); ok {
		t.Fatal("expected session to be gone")
	}
	if len(evicted) != 1 || evicted[0] != sess {
		t.Fatalf("expected eviction callback for the removed session, got %d", len(evicted))
	}

	// removing an absent id is a no-op and must not re-fire the callback
	store.Remove("s1")
	if len(evicted) != 1 {
		t.Fatalf("expected no further evictions, got %d", len(evicted))
	}
}

package shared

import (
	"sync"
	"testing"
)

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 20, 45)
	if p.Pages != 3 {
		t.Fatalf("expected 3 pages, got %d", p.Pages)
	}
	if p.Offset() != 20 {
		t.Fatalf("expected offset 20, got %d", p.Offset())
	}

	p = NewPagination(0, 0, 0)
	if p.Page != 1 || p.Limit != 20 || p.Pages != 0 {
		t.Fatalf("unexpected defaults %+v", p)
	}
}

func TestContractLocksSerialize(t *testing.T) {
	locks := NewContractLocks()
	var counter int

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(7)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Fatalf("expected 50 serialized increments, got %d", counter)
	}
}

func TestReconLockKey(t *testing.T) {
	if got := ReconLockKey(42); got != "recon:contract:42:lock" {
		t.Fatalf("unexpected key %q", got)
	}
}

package buzzdb

import "testing"

func TestLRUPolicyTouchReportsExisted(t *testing.T) {
	p := NewLRUPolicy(2)
	if existed := p.Touch(1); existed {
		t.Error("first touch of a new id reported existed=true")
	}
	if existed := p.Touch(1); !existed {
		t.Error("second touch of the same id reported existed=false")
	}
}

func TestLRUPolicyEvictsLeastRecentlyUsed(t *testing.T) {
	p := NewLRUPolicy(2)
	p.Touch(1)
	p.Touch(2)
	p.Touch(1) // 1 is now MRU, 2 is LRU

	id, ok := p.Evict()
	if !ok || id != 2 {
		t.Fatalf("Evict() = %d, %v, want 2, true", id, ok)
	}
}

func TestLRUPolicyEvictOnEmptyReturnsFalse(t *testing.T) {
	p := NewLRUPolicy(2)
	if _, ok := p.Evict(); ok {
		t.Error("Evict() on empty policy reported ok=true")
	}
}

func TestLRUPolicyTouchEvictsAtCapacity(t *testing.T) {
	p := NewLRUPolicy(1)
	p.Touch(1)
	p.Touch(2) // should evict 1 to make room

	if _, ok := p.elems[1]; ok {
		t.Error("id 1 should have been evicted when touching id 2 at capacity")
	}
	if _, ok := p.elems[2]; !ok {
		t.Error("id 2 should be tracked after touch")
	}
}

package buzzdb

import "testing"

func newTestBufferManager(t *testing.T, capacity int) *BufferManager {
	t.Helper()
	sm, err := OpenMemoryStorageManager(discardLogger())
	if err != nil {
		t.Fatalf("OpenMemoryStorageManager: %v", err)
	}
	t.Cleanup(func() { sm.Close() })
	return NewBufferManager(sm, capacity, discardLogger())
}

func TestBufferManagerGetPageCachesResidentPage(t *testing.T) {
	bm := newTestBufferManager(t, 10)

	p1, err := bm.GetPage(0)
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	p2, err := bm.GetPage(0)
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if p1 != p2 {
		t.Error("expected the same *Page instance on a cache hit")
	}
}

func TestBufferManagerEvictsAtCapacity(t *testing.T) {
	bm := newTestBufferManager(t, 2)

	for i := 0; i < 3; i++ {
		if err := bm.Extend(); err != nil {
			t.Fatalf("Extend: %v", err)
		}
	}
	// 4 pages total (1 from open + 3 extends), capacity 2.
	for pageID := 0; pageID < bm.NumPages(); pageID++ {
		if _, err := bm.GetPage(pageID); err != nil {
			t.Fatalf("GetPage(%d): %v", pageID, err)
		}
	}

	if bm.Resident() > 2 {
		t.Errorf("Resident() = %d, want <= 2", bm.Resident())
	}
}

func TestBufferManagerEvictedPageIsFlushedBeforeDrop(t *testing.T) {
	bm := newTestBufferManager(t, 1)

	page0, err := bm.GetPage(0)
	if err != nil {
		t.Fatalf("GetPage(0): %v", err)
	}
	if _, ok := page0.AddTuple(NewRowTuple(1, 1)); !ok {
		t.Fatal("AddTuple failed")
	}

	if err := bm.Extend(); err != nil {
		t.Fatalf("Extend: %v", err)
	}
	// Loading page 1 at capacity 1 evicts page 0, which must flush the
	// mutated tuple to storage rather than discarding it.
	if _, err := bm.GetPage(1); err != nil {
		t.Fatalf("GetPage(1): %v", err)
	}

	reloaded, err := bm.GetPage(0)
	if err != nil {
		t.Fatalf("GetPage(0) after eviction: %v", err)
	}
	if !reloaded.IsLive(0) {
		t.Error("mutation to page 0 was lost across eviction")
	}
}

func TestBufferManagerFlushPageOfNonResidentFails(t *testing.T) {
	bm := newTestBufferManager(t, 10)
	if err := bm.FlushPage(99); err == nil {
		t.Error("expected error flushing a non-resident page")
	}
}

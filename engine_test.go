package buzzdb

import "testing"

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := OpenInMemory(MaxPagesInMemory, discardLogger())
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func TestEngineInsertAndScan(t *testing.T) {
	e := newTestEngine(t)

	if err := e.Insert(1, 100); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := e.Insert(2, 200); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	rows, err := e.ExecuteQuery(nil)
	if err != nil {
		t.Fatalf("ExecuteQuery: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
}

func TestEngineInsertGrowsStorageWhenPagesFull(t *testing.T) {
	e := newTestEngine(t)

	before := e.NumPages()
	inserted := 0
	// Insert enough rows to force at least one page extension. Slot 0 of
	// page 0 is recycled after each insert, but the first row (0, 0) is
	// the shortest one (36 bytes), so every later, longer row (37-39
	// bytes) cannot reuse slot 0 and takes a fresh slot instead; with a
	// ~1KB usable heap per page, page 0 fills well before 60 inserts.
	for i := int32(0); i < 60; i++ {
		if err := e.Insert(i, i*10); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
		inserted++
	}

	if e.NumPages() <= before {
		t.Errorf("NumPages() = %d, expected growth from %d after %d inserts", e.NumPages(), before, inserted)
	}
}

func TestEngineInsertRecyclesPageZeroSlotZero(t *testing.T) {
	e := newTestEngine(t)

	for i := int32(1); i <= 5; i++ {
		if err := e.Insert(i, i); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}

	// None of attempts 1-5 are multiples of 100, so slot 0 of page 0
	// should have been deleted on every one of them: the very first
	// tuple ever placed at page 0 slot 0 must no longer be live.
	page0, err := e.bm.GetPage(0)
	if err != nil {
		t.Fatalf("GetPage(0): %v", err)
	}
	if page0.IsLive(0) {
		t.Error("expected page 0 slot 0 to have been recycled away by attempt 5")
	}
}

func TestEngineScanTableToBuildIndexAggregates(t *testing.T) {
	e := newTestEngine(t)

	// The rows go straight into page 0 rather than through Insert, whose
	// page-0-slot-0 recycling would delete both of them: the second row
	// fits the slot the first one vacated and is recycled in turn.
	page, err := e.bm.GetPage(0)
	if err != nil {
		t.Fatalf("GetPage(0): %v", err)
	}
	for _, v := range []int32{10, 5} {
		if _, ok := page.AddTuple(NewRowTuple(1, v)); !ok {
			t.Fatalf("AddTuple(1, %d) failed", v)
		}
	}

	if err := e.ScanTableToBuildIndex(); err != nil {
		t.Fatalf("ScanTableToBuildIndex: %v", err)
	}

	if got := e.Index().GetValue(1); got != 15 {
		t.Errorf("aggregated value for key 1 = %d, want 15", got)
	}
}

func TestEngineSelectGroupBySum(t *testing.T) {
	e := newTestEngine(t)

	// The leading 36-byte row (0, 0) is the one page-0-slot-0 recycling
	// deletes; the longer rows after it cannot reuse that slot and survive.
	for _, kv := range [][2]int32{{0, 0}, {1, 10}, {2, 20}, {3, 30}} {
		if err := e.Insert(kv[0], kv[1]); err != nil {
			t.Fatalf("Insert(%d, %d): %v", kv[0], kv[1], err)
		}
	}
	if err := e.ScanTableToBuildIndex(); err != nil {
		t.Fatalf("ScanTableToBuildIndex: %v", err)
	}

	values, dump := e.SelectGroupBySum(2, 3)
	if len(values) != 2 {
		t.Fatalf("got %d values in range, want 2", len(values))
	}
	if dump == "" {
		t.Error("expected a non-empty index dump")
	}
}

func TestEngineExecuteQueryWithPredicate(t *testing.T) {
	e := newTestEngine(t)
	for _, kv := range [][2]int32{{1, 5}, {2, 50}} {
		if err := e.Insert(kv[0], kv[1]); err != nil {
			t.Fatalf("Insert(%d, %d): %v", kv[0], kv[1], err)
		}
	}

	pred := NewPredicate(IndirectOperand(1), OpGT, DirectOperand(NewIntField(10)), discardLogger())
	rows, err := e.ExecuteQuery(&pred)
	if err != nil {
		t.Fatalf("ExecuteQuery: %v", err)
	}
	if len(rows) != 1 || rows[0][1].AsInt32() != 50 {
		t.Fatalf("got %v, want a single row with value 50", rows)
	}
}

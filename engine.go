package buzzdb

import (
	"fmt"

	"github.com/rs/zerolog"
)

// maxInsertAttempts is the hard cap on insert attempts over Engine's
// lifetime, counted regardless of success or failure: the attempt that
// brings the count to this value and every later one is dropped, so at
// most maxInsertAttempts-1 inserts are accepted.
const maxInsertAttempts = 5000

// Engine is the single-table facade tying the buffer pool, storage
// manager, and hash aggregation index together into the read/write
// surface a driver program uses.
type Engine struct {
	storage        *StorageManager
	bm             *BufferManager
	index          *HashIndex
	attemptCounter int
	logger         zerolog.Logger
}

// Open opens (creating if absent) the database file at path with a
// buffer pool of poolSize pages.
func Open(path string, poolSize int, logger zerolog.Logger) (*Engine, error) {
	sm, err := OpenStorageManager(path, logger)
	if err != nil {
		return nil, fmt.Errorf("engine: open: %w", err)
	}
	return newEngine(sm, poolSize, logger), nil
}

// OpenInMemory opens a throwaway, in-memory-backed database, for
// tests and ephemeral use.
func OpenInMemory(poolSize int, logger zerolog.Logger) (*Engine, error) {
	sm, err := OpenMemoryStorageManager(logger)
	if err != nil {
		return nil, fmt.Errorf("engine: open in-memory: %w", err)
	}
	return newEngine(sm, poolSize, logger), nil
}

func newEngine(sm *StorageManager, poolSize int, logger zerolog.Logger) *Engine {
	return &Engine{
		storage: sm,
		bm:      NewBufferManager(sm, poolSize, logger),
		index:   NewHashIndex(logger),
		logger:  logger,
	}
}

// Close releases the underlying storage.
func (e *Engine) Close() error { return e.storage.Close() }

// NumPages reports how many pages the backing store currently holds.
func (e *Engine) NumPages() int { return e.bm.NumPages() }

// Index exposes the engine's hash aggregation index.
func (e *Engine) Index() *HashIndex { return e.index }

// Insert writes a fixed-schema (key, value) row tuple, then applies
// the page-0-slot-0 recycling behavior described in the design: every
// insert whose attempt counter is not a multiple of 100 deletes slot 0
// of page 0 immediately after, continually freeing space at the head
// of the file; every 100th insert leaves it alone. Insert is a no-op
// once the lifetime attempt cap is reached.
func (e *Engine) Insert(key, value int32) error {
	e.attemptCounter++
	if e.attemptCounter >= maxInsertAttempts {
		e.logger.Warn().Int("attempts", e.attemptCounter).Msg("engine: insert attempt cap reached, dropping insert")
		return nil
	}

	t := NewRowTuple(key, value)

	placed := false
	for pageID := 0; pageID < e.bm.NumPages(); pageID++ {
		page, err := e.bm.GetPage(pageID)
		if err != nil {
			return fmt.Errorf("engine: insert: get page %d: %w", pageID, err)
		}
		if _, ok := page.AddTuple(t); ok {
			if err := e.bm.FlushPage(pageID); err != nil {
				return fmt.Errorf("engine: insert: flush page %d: %w", pageID, err)
			}
			placed = true
			break
		}
	}

	if !placed {
		if err := e.bm.Extend(); err != nil {
			return fmt.Errorf("engine: insert: extend: %w", err)
		}
		newPageID := e.bm.NumPages() - 1
		page, err := e.bm.GetPage(newPageID)
		if err != nil {
			return fmt.Errorf("engine: insert: get new page %d: %w", newPageID, err)
		}
		if _, ok := page.AddTuple(t); !ok {
			return fmt.Errorf("engine: insert: tuple did not fit in freshly extended page %d", newPageID)
		}
		if err := e.bm.FlushPage(newPageID); err != nil {
			return fmt.Errorf("engine: insert: flush new page %d: %w", newPageID, err)
		}
	}

	if e.attemptCounter%100 != 0 {
		page0, err := e.bm.GetPage(0)
		if err != nil {
			return fmt.Errorf("engine: insert: recycle: get page 0: %w", err)
		}
		page0.DeleteTuple(0)
		if err := e.bm.FlushPage(0); err != nil {
			return fmt.Errorf("engine: insert: recycle: flush page 0: %w", err)
		}
	}

	return nil
}

// ScanTableToBuildIndex walks every live tuple in the table and folds
// its (key, value) fields into the hash aggregation index via
// InsertOrUpdate, so the index holds a per-key running sum.
func (e *Engine) ScanTableToBuildIndex() error {
	scan := NewScanOperator(e.bm)
	if err := scan.Open(); err != nil {
		return fmt.Errorf("engine: scan to build index: %w", err)
	}
	defer scan.Close()

	for {
		ok, err := scan.Next()
		if err != nil {
			return fmt.Errorf("engine: scan to build index: %w", err)
		}
		if !ok {
			return nil
		}
		row := scan.GetOutput()
		e.index.InsertOrUpdate(row[0].AsInt32(), row[1].AsInt32())
	}
}

// SelectGroupBySum returns the index's pre-aggregated per-key sums for
// keys in [lo, hi], along with a diagnostic rendering of the whole
// index, effectively implementing "select sum(value) group by key
// where key between lo and hi" against the pre-aggregated index.
func (e *Engine) SelectGroupBySum(lo, hi int32) (values []int32, indexDump string) {
	return e.index.RangeQuery(lo, hi), e.index.Print()
}

// ExecuteQuery runs a full table scan, optionally filtered by pred
// (pass nil for an unfiltered scan), and materializes every matching
// row's fields.
func (e *Engine) ExecuteQuery(pred *Predicate) ([][]Field, error) {
	var op Operator = NewScanOperator(e.bm)
	if pred != nil {
		op = NewFilterOperator(op, *pred)
	}

	if err := op.Open(); err != nil {
		return nil, fmt.Errorf("engine: execute query: %w", err)
	}
	defer op.Close()

	var rows [][]Field
	for {
		ok, err := op.Next()
		if err != nil {
			return nil, fmt.Errorf("engine: execute query: %w", err)
		}
		if !ok {
			return rows, nil
		}
		out := op.GetOutput()
		row := make([]Field, len(out))
		copy(row, out)
		rows = append(rows, row)
	}
}

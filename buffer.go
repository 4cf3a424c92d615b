package buzzdb

import (
	"fmt"

	"github.com/rs/zerolog"
)

// MaxPagesInMemory is the default buffer pool capacity. It is a
// constructor parameter of BufferManager, not a hard limit; callers may
// size a pool differently (tests use a small one to exercise eviction
// cheaply).
const MaxPagesInMemory = 10

// BufferManager is the bounded, resident page_id -> *Page cache that
// mediates all access to pages. It exclusively owns resident pages: a
// *Page returned by GetPage must not be retained across a later
// GetPage/Extend call for a different id, since that call may evict and
// flush it out from under the caller.
type BufferManager struct {
	storage  *StorageManager
	capacity int
	policy   EvictionPolicy
	pages    map[int]*Page
	logger   zerolog.Logger
}

// NewBufferManager creates a buffer manager over storage with the given
// resident-page capacity, evicting via an LRU policy.
func NewBufferManager(storage *StorageManager, capacity int, logger zerolog.Logger) *BufferManager {
	return &BufferManager{
		storage:  storage,
		capacity: capacity,
		policy:   NewLRUPolicy(capacity),
		pages:    make(map[int]*Page),
		logger:   logger,
	}
}

// GetPage returns page_id, loading it from storage (and evicting a
// victim if the pool is already full) if it is not already resident.
func (bm *BufferManager) GetPage(pageID int) (*Page, error) {
	if p, ok := bm.pages[pageID]; ok {
		bm.policy.Touch(pageID)
		return p, nil
	}

	if len(bm.pages) >= bm.capacity {
		if victim, ok := bm.policy.Evict(); ok {
			if vp, ok := bm.pages[victim]; ok {
				if err := bm.storage.Flush(victim, vp); err != nil {
					return nil, fmt.Errorf("buffer: flush evicted page %d: %w", victim, err)
				}
				delete(bm.pages, victim)
				bm.logger.Debug().Int("evicted_page", victim).Msg("buffer: evicted page")
			}
		}
	}

	p, err := bm.storage.Load(pageID)
	if err != nil {
		return nil, fmt.Errorf("buffer: load page %d: %w", pageID, err)
	}
	bm.pages[pageID] = p
	bm.policy.Touch(pageID)
	return p, nil
}

// FlushPage writes a resident page through to storage. The page stays
// resident.
func (bm *BufferManager) FlushPage(pageID int) error {
	p, ok := bm.pages[pageID]
	if !ok {
		return fmt.Errorf("buffer: flush of non-resident page %d", pageID)
	}
	return bm.storage.Flush(pageID, p)
}

// Extend delegates to the storage manager, growing the backing store by
// one page.
func (bm *BufferManager) Extend() error {
	return bm.storage.Extend()
}

// NumPages delegates to the storage manager.
func (bm *BufferManager) NumPages() int {
	return bm.storage.NumPages()
}

// Resident reports how many pages are currently cached, for tests that
// assert the pool never exceeds its capacity (P4).
func (bm *BufferManager) Resident() int {
	return len(bm.pages)
}

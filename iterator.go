package buzzdb

import "fmt"

// Operator is the pull-based iterator protocol every pipeline node
// implements: Open resets state, Next advances and reports whether a
// tuple is available, GetOutput is only valid right after Next returns
// true, and Close releases any held resources. Close is idempotent.
type Operator interface {
	Open() error
	Next() (bool, error)
	Close() error
	GetOutput() []Field
}

// ScanOperator is the sole source operator: it iterates every live
// tuple across all pages, in page_id order and slot-index order within
// a page.
type ScanOperator struct {
	bm        *BufferManager
	pageID    int
	slotIndex int
	current   *Tuple
}

// NewScanOperator creates a scan over bm's pages.
func NewScanOperator(bm *BufferManager) *ScanOperator {
	return &ScanOperator{bm: bm}
}

func (s *ScanOperator) Open() error {
	s.pageID = 0
	s.slotIndex = 0
	s.current = nil
	return nil
}

func (s *ScanOperator) Next() (bool, error) {
	for s.pageID < s.bm.NumPages() {
		page, err := s.bm.GetPage(s.pageID)
		if err != nil {
			return false, fmt.Errorf("scan: get page %d: %w", s.pageID, err)
		}
		for s.slotIndex < NumSlots {
			idx := s.slotIndex
			s.slotIndex++
			if !page.IsLive(idx) {
				continue
			}
			t, err := DeserializeTupleBytes(page.TupleBytes(idx))
			if err != nil {
				return false, fmt.Errorf("scan: decode page %d slot %d: %w", s.pageID, idx, err)
			}
			s.current = &t
			return true, nil
		}
		s.pageID++
		s.slotIndex = 0
	}
	s.current = nil
	return false, nil
}

func (s *ScanOperator) Close() error {
	s.current = nil
	return nil
}

func (s *ScanOperator) GetOutput() []Field {
	if s.current == nil {
		return nil
	}
	return s.current.Fields
}

package buzzdb

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// DefaultDBFileName is the default backing file name, used unless a
// caller overrides it. The path is a constructor parameter of
// StorageManager rather than a compile-time constant.
const DefaultDBFileName = "buzzdb.dat"

// store is the narrow I/O surface StorageManager needs. fileStore backs
// it with an *os.File; memStore backs it with an in-memory buffer so
// tests (and callers that want a throwaway database) don't need a
// filesystem.
type store interface {
	io.ReaderAt
	io.WriterAt
	Sync() error
	Size() (int64, error)
	Close() error
}

type fileStore struct {
	f *os.File
}

func newFileStore(path string) (*fileStore, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &fileStore{f: f}, nil
}

func (s *fileStore) ReadAt(p []byte, off int64) (int, error)  { return s.f.ReadAt(p, off) }
func (s *fileStore) WriteAt(p []byte, off int64) (int, error) { return s.f.WriteAt(p, off) }
func (s *fileStore) Sync() error                              { return s.f.Sync() }
func (s *fileStore) Close() error                              { return s.f.Close() }
func (s *fileStore) Size() (int64, error) {
	fi, err := s.f.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

type memStore struct {
	buf []byte
}

func newMemStore() *memStore { return &memStore{} }

func (s *memStore) ReadAt(p []byte, off int64) (int, error) {
	end := off + int64(len(p))
	if off < 0 || end > int64(len(s.buf)) {
		return 0, io.ErrUnexpectedEOF
	}
	copy(p, s.buf[off:end])
	return len(p), nil
}

func (s *memStore) WriteAt(p []byte, off int64) (int, error) {
	end := off + int64(len(p))
	if end > int64(len(s.buf)) {
		grown := make([]byte, end)
		copy(grown, s.buf)
		s.buf = grown
	}
	copy(s.buf[off:end], p)
	return len(p), nil
}

func (s *memStore) Sync() error         { return nil }
func (s *memStore) Close() error        { return nil }
func (s *memStore) Size() (int64, error) { return int64(len(s.buf)), nil }

// StorageManager owns the backing file (or in-memory buffer) of fixed
// PageSize pages. Every operation that touches the store is either
// fully successful or returns a wrapped error; callers that consider
// storage errors unrecoverable (the engine's top-level driver does) are
// responsible for reporting the error and exiting, matching the "I/O
// failures are fatal" rule of the design without making the library
// itself call os.Exit.
type StorageManager struct {
	s        store
	numPages int
	logger   zerolog.Logger
}

// OpenStorageManager opens (creating if absent) the file at path. If the
// file is empty, it is extended once so page 0 always exists.
func OpenStorageManager(path string, logger zerolog.Logger) (*StorageManager, error) {
	fs, err := newFileStore(path)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	return newStorageManager(fs, logger)
}

// OpenMemoryStorageManager backs the manager with an in-memory buffer
// instead of a file, for tests and throwaway databases.
func OpenMemoryStorageManager(logger zerolog.Logger) (*StorageManager, error) {
	return newStorageManager(newMemStore(), logger)
}

func newStorageManager(s store, logger zerolog.Logger) (*StorageManager, error) {
	size, err := s.Size()
	if err != nil {
		return nil, fmt.Errorf("storage: stat: %w", err)
	}
	sm := &StorageManager{
		s:        s,
		numPages: int(size / PageSize),
		logger:   logger,
	}
	if sm.numPages == 0 {
		if err := sm.Extend(); err != nil {
			return nil, fmt.Errorf("storage: initial extend: %w", err)
		}
	}
	return sm, nil
}

// NumPages returns the number of pages currently in the backing store.
func (sm *StorageManager) NumPages() int { return sm.numPages }

// Load reads page_id's PageSize bytes and decodes them into a Page.
func (sm *StorageManager) Load(pageID int) (*Page, error) {
	buf := make([]byte, PageSize)
	n, err := sm.s.ReadAt(buf, int64(pageID)*PageSize)
	if err != nil {
		return nil, fmt.Errorf("storage: read page %d: %w", pageID, err)
	}
	if n != PageSize {
		return nil, fmt.Errorf("storage: short read on page %d: got %d bytes", pageID, n)
	}
	p, err := LoadPage(buf)
	if err != nil {
		return nil, fmt.Errorf("storage: decode page %d: %w", pageID, err)
	}
	return p, nil
}

// Flush writes page's PageSize-byte image to page_id's offset and syncs
// the store.
func (sm *StorageManager) Flush(pageID int, page *Page) error {
	if _, err := sm.s.WriteAt(page.Bytes(), int64(pageID)*PageSize); err != nil {
		return fmt.Errorf("storage: write page %d: %w", pageID, err)
	}
	if err := sm.s.Sync(); err != nil {
		return fmt.Errorf("storage: sync after page %d: %w", pageID, err)
	}
	return nil
}

// Extend appends one zero-initialized slotted page to the store.
func (sm *StorageManager) Extend() error {
	empty := NewEmptyPage()
	if _, err := sm.s.WriteAt(empty.Bytes(), int64(sm.numPages)*PageSize); err != nil {
		return fmt.Errorf("storage: extend write: %w", err)
	}
	if err := sm.s.Sync(); err != nil {
		return fmt.Errorf("storage: extend sync: %w", err)
	}
	sm.numPages++
	sm.logger.Debug().Int("num_pages", sm.numPages).Msg("storage: extended database file")
	return nil
}

// Close releases the underlying store.
func (sm *StorageManager) Close() error { return sm.s.Close() }

package buzzdb

import (
	"encoding/binary"
	"fmt"
)

// Page layout constants. The slot directory occupies a fixed prefix of
// the page; tuple payloads are appended after it at increasing offsets.
const (
	PageSize = 4096
	NumSlots = 512

	// Each on-disk slot is a 1-byte empty flag, a 1-byte pad (kept for
	// alignment, unused), and two little-endian uint16s for offset and
	// length.
	slotSize      = 6
	DirectorySize = NumSlots * slotSize

	// sentinelU16 marks an offset or length that has never been set.
	sentinelU16 = uint16(0xFFFF)
)

// Slot describes one tuple's location and length within a page. Both
// Offset and Length default to sentinelU16. A slot is live when
// !Empty. A slot can have Empty=true with a real Offset/Length: that
// records reusable space of known size left behind by a delete.
type Slot struct {
	Empty  bool
	Offset uint16
	Length uint16
}

func emptySlot() Slot { return Slot{Empty: true, Offset: sentinelU16, Length: sentinelU16} }

// Page is a fixed 4096-byte unit of disk and memory transfer: a slot
// directory followed by a tuple heap. slots is the typed, decoded view
// of the directory; data is the byte-for-byte on-disk image. The two
// are kept in sync by encodeDirectory/decodeDirectory rather than by
// reinterpreting one as the other.
type Page struct {
	slots [NumSlots]Slot
	data  [PageSize]byte
}

// NewEmptyPage returns a page whose directory is entirely empty
// sentinel slots.
func NewEmptyPage() *Page {
	p := &Page{}
	for i := range p.slots {
		p.slots[i] = emptySlot()
	}
	p.encodeDirectory()
	return p
}

// LoadPage decodes a page from exactly PageSize raw bytes, as read off
// disk by the storage manager.
func LoadPage(raw []byte) (*Page, error) {
	if len(raw) != PageSize {
		return nil, fmt.Errorf("page: expected %d bytes, got %d", PageSize, len(raw))
	}
	p := &Page{}
	copy(p.data[:], raw)
	p.decodeDirectory()
	return p, nil
}

func (p *Page) encodeDirectory() {
	for i, s := range p.slots {
		off := i * slotSize
		if s.Empty {
			p.data[off] = 1
		} else {
			p.data[off] = 0
		}
		binary.LittleEndian.PutUint16(p.data[off+2:off+4], s.Offset)
		binary.LittleEndian.PutUint16(p.data[off+4:off+6], s.Length)
	}
}

func (p *Page) decodeDirectory() {
	for i := range p.slots {
		off := i * slotSize
		p.slots[i] = Slot{
			Empty:  p.data[off] != 0,
			Offset: binary.LittleEndian.Uint16(p.data[off+2 : off+4]),
			Length: binary.LittleEndian.Uint16(p.data[off+4 : off+6]),
		}
	}
}

// Bytes returns the PageSize-byte on-disk image, directory re-encoded
// from the current slot state.
func (p *Page) Bytes() []byte {
	p.encodeDirectory()
	out := make([]byte, PageSize)
	copy(out, p.data[:])
	return out
}

// AddTuple serializes t and places it in the first slot whose current
// length is at least the serialized size. A brand-new slot's length is
// still the sentinel (max uint16), which is always "large enough" -
// this is deliberate (see Q1 in DESIGN.md): a fresh slot must accept the
// first tuple that reaches it regardless of size. Returns the slot
// index and true on success, or false if no slot fits.
func (p *Page) AddTuple(t Tuple) (slotIndex int, ok bool) {
	serialized := []byte(t.Serialize())
	size := uint16(len(serialized))

	idx := -1
	for i := 0; i < NumSlots; i++ {
		if p.slots[i].Empty && p.slots[i].Length >= size {
			idx = i
			break
		}
	}
	if idx == -1 {
		return 0, false
	}

	p.slots[idx].Empty = false

	var offset uint16
	if p.slots[idx].Offset == sentinelU16 {
		if idx == 0 {
			offset = DirectorySize
		} else {
			offset = p.slots[idx-1].Offset + p.slots[idx-1].Length
		}
		p.slots[idx].Offset = offset
	} else {
		offset = p.slots[idx].Offset
	}

	if int(offset)+int(size) >= PageSize {
		// Revert: this slot cannot hold the tuple after all. The length
		// field is left untouched, matching the original's ordering
		// (length is only assigned below, after this check).
		p.slots[idx].Empty = true
		p.slots[idx].Offset = sentinelU16
		p.encodeDirectory()
		return 0, false
	}

	if p.slots[idx].Length == sentinelU16 {
		p.slots[idx].Length = size
	}

	copy(p.data[offset:offset+size], serialized)
	p.encodeDirectory()
	return idx, true
}

// DeleteTuple marks slot index empty without compacting or clearing its
// offset/length, so the space can be reused by a later tuple of the
// same or smaller size. Returns false if the slot was already empty or
// out of range.
func (p *Page) DeleteTuple(index int) bool {
	if index < 0 || index >= NumSlots {
		return false
	}
	if p.slots[index].Empty {
		return false
	}
	p.slots[index].Empty = true
	p.encodeDirectory()
	return true
}

// IsLive reports whether slot index currently holds a tuple.
func (p *Page) IsLive(index int) bool {
	return !p.slots[index].Empty
}

// TupleBytes returns the raw serialized bytes stored at slot index. The
// caller must check IsLive first.
func (p *Page) TupleBytes(index int) []byte {
	s := p.slots[index]
	out := make([]byte, s.Length)
	copy(out, p.data[s.Offset:s.Offset+s.Length])
	return out
}

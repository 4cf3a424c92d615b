package buzzdb

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// hashIndexCapacity is the fixed slot count of the hash aggregation
// table.
const hashIndexCapacity = 100

type hashEntry struct {
	key    int32
	value  int32
	exists bool
}

// HashIndex is a fixed-capacity, open-addressed {key -> sum(value)}
// table. Insertion probes quadratically and lookup probes linearly;
// this asymmetry is a preserved quirk (see DESIGN.md Q2) rather than a
// bug to fix, since lookups can miss entries that insertion placed via
// a quadratic jump past where a linear scan would look.
type HashIndex struct {
	entries [hashIndexCapacity]hashEntry
	logger  zerolog.Logger
}

// NewHashIndex returns an empty hash aggregation index.
func NewHashIndex(logger zerolog.Logger) *HashIndex {
	return &HashIndex{logger: logger}
}

func hashBucket(key int32) int {
	h := int(key) % hashIndexCapacity
	if h < 0 {
		h += hashIndexCapacity
	}
	return h
}

// InsertOrUpdate accumulates value into the running sum for key,
// quadratically probing for a slot: attempt i tries (h + i*i) mod
// capacity. If key is already present at a probed slot, its value is
// incremented rather than overwritten. If no slot is found within
// capacity attempts, the insert is dropped and logged as a non-fatal
// diagnostic.
func (h *HashIndex) InsertOrUpdate(key, value int32) {
	base := hashBucket(key)
	for i := 0; i < hashIndexCapacity; i++ {
		idx := (base + i*i) % hashIndexCapacity
		e := &h.entries[idx]
		if !e.exists {
			e.key = key
			e.value = value
			e.exists = true
			return
		}
		if e.key == key {
			e.value += value
			return
		}
	}
	h.logger.Warn().Int32("key", key).Msg("hashindex: table full, insert dropped")
}

// GetValue looks up key by linear probing: attempt i tries (h + i) mod
// capacity, stopping at the first empty slot or a full wraparound.
// Returns -1 if not found. Because insertion probes quadratically,
// this can miss an entry insertion placed beyond an empty slot on the
// linear probe path (see DESIGN.md Q2).
func (h *HashIndex) GetValue(key int32) int32 {
	base := hashBucket(key)
	for i := 0; i < hashIndexCapacity; i++ {
		idx := (base + i) % hashIndexCapacity
		e := &h.entries[idx]
		if !e.exists {
			return -1
		}
		if e.key == key {
			return e.value
		}
	}
	return -1
}

// RangeQuery scans all live entries in physical slot order and returns
// the values of those with lo <= key <= hi.
func (h *HashIndex) RangeQuery(lo, hi int32) []int32 {
	var out []int32
	for _, e := range h.entries {
		if e.exists && e.key >= lo && e.key <= hi {
			out = append(out, e.value)
		}
	}
	return out
}

// Print renders every live entry in physical slot order, one per line,
// for diagnostic/REPL output.
func (h *HashIndex) Print() string {
	var b strings.Builder
	for i, e := range h.entries {
		if !e.exists {
			continue
		}
		fmt.Fprintf(&b, "slot %d: key=%d value=%d\n", i, e.key, e.value)
	}
	return b.String()
}

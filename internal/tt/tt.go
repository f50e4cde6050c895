// Package tt is the transposition table shared by successive searches of
// one engine session.
//
// The table is a power-of-two array of slots indexed by the low bits of the
// Zobrist hash. Each slot keeps the full 64-bit key, so a probe never returns
// statistics for a different position. Replacement is overwrite on
// collision: storing a key into a slot held by another key evicts it. The
// table holds at most Capacity positions.
//
// Slots are written by a single search goroutine. Counters are atomic so
// Stats can be read while a search runs.
package tt

import (
	"fmt"
	"math/bits"
	"sync/atomic"

	"github.com/zyrachess/zyra/internal/board"
)

// Entry is the aggregate statistics for one position.
type Entry struct {
	Key    uint64
	Visits uint32
	Value  float64
	Hint   board.Move
}

// entrySize is the in-memory footprint used to size tables in megabytes.
const entrySize = 24

// MinEntries is the smallest table New will build.
const MinEntries = 1024

// Table is a fixed-size transposition table.
type Table struct {
	slots []Entry
	mask  uint64

	used       atomic.Int64
	probes     atomic.Uint64
	hits       atomic.Uint64
	stores     atomic.Uint64
	overwrites atomic.Uint64
}

// New returns a table with room for at least entries positions, rounded up
// to a power of two.
func New(entries int) *Table {
	if entries < MinEntries {
		entries = MinEntries
	}
	n := 1 << bits.Len(uint(entries-1))
	return &Table{slots: make([]Entry, n), mask: uint64(n - 1)}
}

// NewMB sizes a table to roughly mb megabytes.
func NewMB(mb int) *Table {
	if mb < 1 {
		mb = 1
	}
	n := mb << 20 / entrySize
	// Round down so the table stays within the budget.
	return New(1 << (bits.Len(uint(n)) - 1))
}

// Capacity returns the number of slots.
func (t *Table) Capacity() int { return len(t.slots) }

// Len returns the number of occupied slots.
func (t *Table) Len() int { return int(t.used.Load()) }

// Probe returns the entry stored for key.
func (t *Table) Probe(key uint64) (Entry, bool) {
	t.probes.Add(1)
	e := t.slots[key&t.mask]
	if e.Visits == 0 || e.Key != key {
		return Entry{}, false
	}
	t.hits.Add(1)
	return e, true
}

// Store adds visits and value to the entry for key. A slot already holding
// key is merged by summing; a slot holding another key is overwritten.
func (t *Table) Store(key uint64, visits uint32, value float64) {
	if visits == 0 {
		return
	}
	t.stores.Add(1)
	e := &t.slots[key&t.mask]
	switch {
	case e.Visits == 0:
		if e.Key != 0 || e.Value != 0 || e.Hint != board.NoMove {
			panic(fmt.Sprintf("tt: slot %d holds data without visits", key&t.mask))
		}
		t.used.Add(1)
	case e.Key == key:
		e.Visits += visits
		e.Value += value
		return
	default:
		t.overwrites.Add(1)
	}
	*e = Entry{Key: key, Visits: visits, Value: value}
}

// SetHint records a best-move hint for key if the entry exists.
func (t *Table) SetHint(key uint64, m board.Move) {
	e := &t.slots[key&t.mask]
	if e.Visits > 0 && e.Key == key {
		e.Hint = m
	}
}

// Clear empties the table and resets its counters.
func (t *Table) Clear() {
	clear(t.slots)
	t.used.Store(0)
	t.probes.Store(0)
	t.hits.Store(0)
	t.stores.Store(0)
	t.overwrites.Store(0)
}

// Stats is a snapshot of table counters.
type Stats struct {
	Capacity   int     `json:"capacity"`
	Used       int     `json:"used"`
	Probes     uint64  `json:"probes"`
	Hits       uint64  `json:"hits"`
	Stores     uint64  `json:"stores"`
	Overwrites uint64  `json:"overwrites"`
	HitRate    float64 `json:"hit_rate"`
	Fill       float64 `json:"fill"`
}

// Stats returns current counters. Safe to call concurrently with a search.
func (t *Table) Stats() Stats {
	s := Stats{
		Capacity:   len(t.slots),
		Used:       int(t.used.Load()),
		Probes:     t.probes.Load(),
		Hits:       t.hits.Load(),
		Stores:     t.stores.Load(),
		Overwrites: t.overwrites.Load(),
	}
	if s.Probes > 0 {
		s.HitRate = float64(s.Hits) / float64(s.Probes)
	}
	s.Fill = float64(s.Used) / float64(s.Capacity)
	return s
}

// Range calls fn for every occupied slot in slot order.
func (t *Table) Range(fn func(Entry)) {
	for _, e := range t.slots {
		if e.Visits > 0 {
			fn(e)
		}
	}
}

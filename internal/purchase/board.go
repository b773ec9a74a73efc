package purchase

import (
	"fmt"
	"slices"
	"sync"
)

// Ticket identifies one fetch against a slot. Only the most recent ticket of a
// slot may commit.
type Ticket struct {
	Slot Slot
	Seq  uint64
}

// Update is the state change a successful fetch applies on commit.
type Update struct {
	Records []Record
	Flags   map[Flag]bool
}

// Board holds the datasets and visibility flags shown by the dashboard.
type Board struct {
	mu    sync.RWMutex
	seq   map[Slot]uint64
	slots map[Slot][]Record
	flags map[Flag]bool
}

// NewBoard returns a board in its initial state.
func NewBoard() *Board {
	b := &Board{seq: make(map[Slot]uint64)}
	b.clear()
	return b
}

func (b *Board) clear() {
	b.slots = make(map[Slot][]Record, len(AllSlots()))
	for _, slot := range AllSlots() {
		b.slots[slot] = []Record{}
	}
	b.flags = DefaultFlags()
}

// Begin issues a ticket for slot, superseding every earlier ticket of it.
func (b *Board) Begin(slot Slot) Ticket {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq[slot]++
	return Ticket{Slot: slot, Seq: b.seq[slot]}
}

// Commit publishes the update when t is still current for its slot.
func (b *Board) Commit(t Ticket, u Update) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.slots[t.Slot]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSlot, t.Slot)
	}
	if b.seq[t.Slot] != t.Seq {
		return ErrStaleTicket
	}
	records := slices.Clone(u.Records)
	if records == nil {
		records = []Record{}
	}
	b.slots[t.Slot] = records
	for flag, v := range u.Flags {
		b.flags[flag] = v
	}
	return nil
}

// SetFlag sets a visibility flag outside a fetch.
func (b *Board) SetFlag(flag Flag, v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.flags[flag] = v
}

// Reset empties every slot and restores the default flags. Fetches started
// before the reset can no longer commit.
func (b *Board) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, slot := range AllSlots() {
		b.seq[slot]++
	}
	b.clear()
}

// Dataset returns a copy of the records held by slot.
func (b *Board) Dataset(slot Slot) []Record {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := slices.Clone(b.slots[slot])
	if out == nil {
		out = []Record{}
	}
	return out
}

// Flag reads one visibility flag.
func (b *Board) Flag(flag Flag) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.flags[flag]
}

// BoardSnapshot is a point-in-time copy of a Board.
type BoardSnapshot struct {
	Slots map[Slot][]Record `json:"slots"`
	Flags map[Flag]bool     `json:"flags"`
}

// Snapshot copies the board for rendering.
func (b *Board) Snapshot() BoardSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	snap := BoardSnapshot{
		Slots: make(map[Slot][]Record, len(b.slots)),
		Flags: make(map[Flag]bool, len(b.flags)),
	}
	for slot, records := range b.slots {
		snap.Slots[slot] = slices.Clone(records)
	}
	for flag, v := range b.flags {
		snap.Flags[flag] = v
	}
	return snap
}

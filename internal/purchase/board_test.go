package purchase

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoardDefaults(t *testing.T) {
	b := NewBoard()
	snap := b.Snapshot()
	require.True(t, snap.Flags[FlagChart1])
	require.False(t, snap.Flags[FlagChart2])
	require.True(t, snap.Flags[FlagChart7])
	require.False(t, snap.Flags[FlagQuarterSelected])
	require.Len(t, snap.Slots, len(AllSlots()))
	require.Empty(t, snap.Slots[SlotAllDue])
}

func TestBoardLatestTicketWins(t *testing.T) {
	b := NewBoard()
	older := b.Begin(SlotAllDue)
	newer := b.Begin(SlotAllDue)

	require.NoError(t, b.Commit(newer, Update{Records: []Record{{SupplierName: "new"}}}))
	require.ErrorIs(t, b.Commit(older, Update{Records: []Record{{SupplierName: "old"}}}), ErrStaleTicket)
	require.Equal(t, "new", b.Dataset(SlotAllDue)[0].SupplierName)
}

func TestBoardTicketsArePerSlot(t *testing.T) {
	b := NewBoard()
	due := b.Begin(SlotAllDue)
	_ = b.Begin(SlotTop5Due)
	require.NoError(t, b.Commit(due, Update{Records: []Record{}}))
}

func TestBoardCommitAppliesFlags(t *testing.T) {
	b := NewBoard()
	ticket := b.Begin(SlotAllTurnoverQuarterly)
	require.NoError(t, b.Commit(ticket, Update{Flags: map[Flag]bool{FlagChart2: true, FlagChart1: false}}))
	require.True(t, b.Flag(FlagChart2))
	require.False(t, b.Flag(FlagChart1))
	require.NotNil(t, b.Dataset(SlotAllTurnoverQuarterly))
}

func TestBoardResetInvalidatesInflight(t *testing.T) {
	b := NewBoard()
	ticket := b.Begin(SlotTotalDue)
	b.SetFlag(FlagChart1, false)
	b.Reset()
	require.ErrorIs(t, b.Commit(ticket, Update{Records: []Record{{}}}), ErrStaleTicket)
	require.True(t, b.Flag(FlagChart1))
	require.Empty(t, b.Dataset(SlotTotalDue))
}

func TestBoardUnknownSlot(t *testing.T) {
	b := NewBoard()
	ticket := b.Begin(Slot("elsewhere"))
	require.ErrorIs(t, b.Commit(ticket, Update{}), ErrUnknownSlot)
}

func TestBoardSnapshotIsACopy(t *testing.T) {
	b := NewBoard()
	ticket := b.Begin(SlotAllDue)
	require.NoError(t, b.Commit(ticket, Update{Records: []Record{{SupplierName: "ACME"}}}))
	snap := b.Snapshot()
	snap.Slots[SlotAllDue][0].SupplierName = "mutated"
	snap.Flags[FlagChart1] = false
	require.Equal(t, "ACME", b.Dataset(SlotAllDue)[0].SupplierName)
	require.True(t, b.Flag(FlagChart1))
}

func TestBoardConcurrentCommits(t *testing.T) {
	b := NewBoard()
	var wg sync.WaitGroup
	tickets := make([]Ticket, 20)
	for i := range tickets {
		tickets[i] = b.Begin(SlotAllDue)
	}
	errs := make([]error, len(tickets))
	for i := range tickets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = b.Commit(tickets[i], Update{Records: []Record{{SupplierCode: string(rune('a' + i))}}})
		}(i)
	}
	wg.Wait()
	committed := 0
	for _, err := range errs {
		if err == nil {
			committed++
		}
	}
	require.Equal(t, 1, committed)
	require.Equal(t, string(rune('a'+len(tickets)-1)), b.Dataset(SlotAllDue)[0].SupplierCode)
}

package purchase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRedisSessionStoreRoundTrip(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisSessionStore(client, time.Hour)
	ctx := context.Background()

	sess := NewSession(CompanyCodeMulti)
	sess.Selection = sess.Selection.SelectCompanyCode("1000", "India").WithFiscalYears("2024")
	sess.View = sess.View.WithMode(ModeSupplierDueAsOfDate).WithTab(TabsSupplierDue, "scenario4")
	saved, err := store.Save(ctx, sess)
	require.NoError(t, err)
	require.Equal(t, uint64(1), saved.Revision)
	require.True(t, mr.Exists("purchase:session:"+sess.ID))

	mr.FastForward(30 * time.Minute)
	loaded, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, sess.Selection, loaded.Selection)
	require.Equal(t, sess.View, loaded.View)
	require.Equal(t, uint64(1), loaded.Revision)
	require.Equal(t, time.Hour, mr.TTL("purchase:session:"+sess.ID))

	require.NoError(t, store.Delete(ctx, sess.ID))
	_, err = store.Get(ctx, sess.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisSessionStoreExpires(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisSessionStore(client, time.Minute)
	sess := NewSession(CompanyCodeSingle)
	_, err := store.Save(context.Background(), sess)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	_, err = store.Get(context.Background(), sess.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemorySessionStore(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()
	_, err := store.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrSessionNotFound)

	sess := NewSession(CompanyCodeSingle)
	_, err = store.Save(ctx, sess)
	require.NoError(t, err)
	loaded, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, sess.ID, loaded.ID)
	require.NoError(t, store.Delete(ctx, sess.ID))
	_, err = store.Get(ctx, sess.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionReset(t *testing.T) {
	sess := NewSession(CompanyCodeMulti)
	sess.Selection = sess.Selection.SelectCompanyCode("1000", "India")
	sess.View = sess.View.WithMode(ModeQuarterlyTurnover)

	reset := sess.Reset()
	require.Equal(t, sess.ID, reset.ID)
	require.Equal(t, DefaultView(), reset.View)
	require.Empty(t, reset.Selection.CompanyCodeIDs)
	require.Equal(t, CompanyCodeMulti, reset.Selection.CompanyCodeMode)
}

func TestRedisSessionStoreRejectsStaleSave(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewRedisSessionStore(client, time.Hour)
	testSessionStoreRejectsStaleSave(t, store)
}

func TestMemorySessionStoreRejectsStaleSave(t *testing.T) {
	testSessionStoreRejectsStaleSave(t, NewMemorySessionStore())
}

func testSessionStoreRejectsStaleSave(t *testing.T, store SessionStore) {
	t.Helper()
	ctx := context.Background()
	saved, err := store.Save(ctx, NewSession(CompanyCodeSingle))
	require.NoError(t, err)

	first, err := store.Get(ctx, saved.ID)
	require.NoError(t, err)
	second, err := store.Get(ctx, saved.ID)
	require.NoError(t, err)

	first.Selection = first.Selection.WithFiscalYears("2024")
	_, err = store.Save(ctx, first)
	require.NoError(t, err)

	second.View = second.View.WithMode(ModeQuarterlyTurnover)
	_, err = store.Save(ctx, second)
	require.ErrorIs(t, err, ErrSessionConflict)

	loaded, err := store.Get(ctx, saved.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"2024"}, loaded.Selection.FiscalYears)
	require.Equal(t, ModeFiscalYearTurnover, loaded.View.Mode)
	require.Equal(t, uint64(2), loaded.Revision)

	loaded.View = loaded.View.WithMode(ModeQuarterlyTurnover)
	_, err = store.Save(ctx, loaded)
	require.NoError(t, err)
}

func TestRedisSessionStoreConcurrentSavesKeepOneWinner(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewRedisSessionStore(client, time.Hour)
	ctx := context.Background()
	saved, err := store.Save(ctx, NewSession(CompanyCodeSingle))
	require.NoError(t, err)

	const writers = 8
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			next := saved
			next.Selection = next.Selection.WithFiscalYears("2024")
			_, errs[i] = store.Save(ctx, next)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		require.ErrorIs(t, err, ErrSessionConflict)
	}
	require.Equal(t, 1, wins)
}

func TestBoardsRegistry(t *testing.T) {
	boards := NewBoards(0)
	var wg sync.WaitGroup
	got := make([]*Board, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = boards.For("s1")
		}(i)
	}
	wg.Wait()
	for _, b := range got {
		require.Same(t, got[0], b)
	}
	require.NotSame(t, got[0], boards.For("s2"))

	boards.Drop("s1")
	require.NotSame(t, got[0], boards.For("s1"))
}

func TestBoardsSweepIdleBoards(t *testing.T) {
	boards := NewBoards(time.Hour)
	now := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	boards.now = func() time.Time { return now }

	stale := boards.For("stale")
	boards.For("active")
	now = now.Add(50 * time.Minute)
	boards.For("active")
	now = now.Add(20 * time.Minute)
	boards.For("fresh")

	_, ok := boards.Peek("stale")
	require.False(t, ok)
	_, ok = boards.Peek("active")
	require.True(t, ok)
	require.Equal(t, 2, boards.Len())
	require.NotSame(t, stale, boards.For("stale"))
}

func TestBoardsEvictLeastRecentlyUsed(t *testing.T) {
	boards := NewBoards(time.Hour)
	boards.max = 2
	now := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	boards.now = func() time.Time { return now }

	boards.For("a")
	now = now.Add(time.Second)
	boards.For("b")
	now = now.Add(time.Second)
	_, ok := boards.Peek("a")
	require.True(t, ok)
	now = now.Add(time.Second)
	boards.For("c")

	require.Equal(t, 2, boards.Len())
	_, ok = boards.Peek("b")
	require.False(t, ok)
	_, ok = boards.Peek("a")
	require.True(t, ok)
}

func TestBoardsPeekDoesNotCreate(t *testing.T) {
	boards := NewBoards(0)
	_, ok := boards.Peek("missing")
	require.False(t, ok)
	require.Zero(t, boards.Len())
}

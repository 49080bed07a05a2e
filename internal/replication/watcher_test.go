package replication

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"diamond-hands/internal/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const watchHost = ledger.Identity("0x1111111111111111111111111111111111111111")

type fetchResult struct {
	record ledger.RoomState
	ok     bool
	err    error
}

// scriptedFetcher hands each call its own reply channel.
type scriptedFetcher struct {
	mu      sync.Mutex
	replies []chan fetchResult
}

func (f *scriptedFetcher) Fetch(ctx context.Context, roomCode string, host ledger.Identity) (ledger.RoomState, bool, error) {
	reply := make(chan fetchResult, 1)
	f.mu.Lock()
	f.replies = append(f.replies, reply)
	f.mu.Unlock()
	select {
	case res := <-reply:
		return res.record, res.ok, res.err
	case <-ctx.Done():
		return ledger.RoomState{}, false, ctx.Err()
	}
}

func (f *scriptedFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.replies)
}

func (f *scriptedFetcher) reply(i int, res fetchResult) {
	f.mu.Lock()
	ch := f.replies[i]
	f.mu.Unlock()
	ch <- res
}

func roomRecord(round uint8) ledger.RoomState {
	return ledger.RoomState{
		RoomCode:       "DIAMOND-1234",
		CurrentRound:   round,
		TotalRounds:    5,
		ActivePlayerID: 1,
		GameStatus:     "playing",
	}
}

func startWatcher(t *testing.T, fetcher Fetcher, opts ...WatcherOption) *Watcher {
	t.Helper()
	opts = append([]WatcherOption{WithInterval(time.Hour)}, opts...)
	w := NewWatcher(fetcher, "DIAMOND-1234", watchHost, opts...)
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)
	return w
}

func TestWatcherNeedsTarget(t *testing.T) {
	w := NewWatcher(&scriptedFetcher{}, "", watchHost)
	assert.ErrorIs(t, w.Start(context.Background()), ErrNoTarget)
	w = NewWatcher(&scriptedFetcher{}, "DIAMOND-1234", "")
	assert.ErrorIs(t, w.Start(context.Background()), ErrNoTarget)
}

func TestWatcherFetchesImmediately(t *testing.T) {
	fetcher := &scriptedFetcher{}
	updates := make(chan ledger.RoomState, 4)
	w := startWatcher(t, fetcher, WithOnUpdate(func(r ledger.RoomState) { updates <- r }))

	require.Eventually(t, func() bool { return fetcher.calls() == 1 }, time.Second, time.Millisecond)
	fetcher.reply(0, fetchResult{record: roomRecord(2), ok: true})

	select {
	case got := <-updates:
		assert.Equal(t, uint8(2), got.CurrentRound)
	case <-time.After(time.Second):
		t.Fatal("expected update")
	}
	latest, ok := w.Latest()
	require.True(t, ok)
	assert.Equal(t, roomRecord(2), latest)
}

func TestWatcherPollsOnInterval(t *testing.T) {
	fetcher := &scriptedFetcher{}
	w := NewWatcher(fetcher, "DIAMOND-1234", watchHost, WithInterval(10*time.Millisecond))
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.Eventually(t, func() bool { return fetcher.calls() >= 3 }, time.Second, time.Millisecond)
}

func TestWatcherDropsOlderResults(t *testing.T) {
	fetcher := &scriptedFetcher{}
	w := startWatcher(t, fetcher)
	require.Eventually(t, func() bool { return fetcher.calls() == 1 }, time.Second, time.Millisecond)
	w.Refresh()
	require.Eventually(t, func() bool { return fetcher.calls() == 2 }, time.Second, time.Millisecond)

	fetcher.reply(1, fetchResult{record: roomRecord(3), ok: true})
	require.Eventually(t, func() bool {
		latest, ok := w.Latest()
		return ok && latest.CurrentRound == 3
	}, time.Second, time.Millisecond)

	fetcher.reply(0, fetchResult{record: roomRecord(1), ok: true})
	time.Sleep(20 * time.Millisecond)
	latest, _ := w.Latest()
	assert.Equal(t, uint8(3), latest.CurrentRound)
}

func TestWatcherKeepsLastGoodRecord(t *testing.T) {
	fetcher := &scriptedFetcher{}
	w := startWatcher(t, fetcher)
	require.Eventually(t, func() bool { return fetcher.calls() == 1 }, time.Second, time.Millisecond)
	fetcher.reply(0, fetchResult{record: roomRecord(2), ok: true})
	require.Eventually(t, func() bool { _, ok := w.Latest(); return ok }, time.Second, time.Millisecond)

	w.Refresh()
	require.Eventually(t, func() bool { return fetcher.calls() == 2 }, time.Second, time.Millisecond)
	fetcher.reply(1, fetchResult{err: errors.New("rpc timeout")})
	w.Refresh()
	require.Eventually(t, func() bool { return fetcher.calls() == 3 }, time.Second, time.Millisecond)
	fetcher.reply(2, fetchResult{ok: false})

	require.Eventually(t, func() bool {
		stats := w.Stats()
		return stats.Errors == 1 && stats.Misses == 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, "rpc timeout", w.Stats().LastError)
	latest, ok := w.Latest()
	require.True(t, ok)
	assert.Equal(t, uint8(2), latest.CurrentRound)
}

func TestWatcherIgnoresResultsAfterStop(t *testing.T) {
	fetcher := &blockingFetcher{release: make(chan struct{})}
	updates := make(chan ledger.RoomState, 1)
	w := NewWatcher(fetcher, "DIAMOND-1234", watchHost,
		WithInterval(time.Hour),
		WithOnUpdate(func(r ledger.RoomState) { updates <- r }),
	)
	require.NoError(t, w.Start(context.Background()))
	require.Eventually(t, func() bool { return fetcher.started() }, time.Second, time.Millisecond)

	w.Stop()
	w.Stop()
	close(fetcher.release)

	select {
	case r := <-updates:
		t.Fatalf("expected late result to be dropped, got %+v", r)
	case <-time.After(30 * time.Millisecond):
	}
	_, ok := w.Latest()
	assert.False(t, ok)
}

// blockingFetcher ignores cancellation so the late result really arrives.
type blockingFetcher struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
}

func (f *blockingFetcher) Fetch(ctx context.Context, roomCode string, host ledger.Identity) (ledger.RoomState, bool, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	<-f.release
	return roomRecord(4), true, nil
}

func (f *blockingFetcher) started() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls > 0
}

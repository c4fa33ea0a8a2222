package ranking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	entries map[string][]Entry
	calls   int
}

func (s *stubRepo) TopBy(_ context.Context, board string) ([]Entry, error) {
	if _, ok := boardQueries[board]; !ok {
		return nil, ErrUnknownBoard
	}
	s.calls++
	out := make([]Entry, len(s.entries[board]))
	copy(out, s.entries[board])
	return out, nil
}

type memCache struct {
	boards    map[string][]Entry
	snapshots map[string][]Entry
}

func newMemCache() *memCache {
	return &memCache{boards: map[string][]Entry{}, snapshots: map[string][]Entry{}}
}

func (c *memCache) Get(_ context.Context, board string) ([]Entry, bool) {
	e, ok := c.boards[board]
	return e, ok
}

func (c *memCache) Set(_ context.Context, board string, entries []Entry, _ time.Duration) {
	c.boards[board] = entries
}

func (c *memCache) GetSnapshot(_ context.Context, board string) ([]Entry, bool) {
	e, ok := c.snapshots[board]
	return e, ok
}

func (c *memCache) SetSnapshot(_ context.Context, board string, entries []Entry) {
	c.snapshots[board] = entries
}

func hotEntries(ids ...string) []Entry {
	out := make([]Entry, 0, len(ids))
	for i, id := range ids {
		out = append(out, Entry{Rank: i + 1, ProductID: id, Title: "商品" + id, Score: "100"})
	}
	return out
}

func TestBoardCachesResult(t *testing.T) {
	repo := &stubRepo{entries: map[string][]Entry{BoardHot: hotEntries("a", "b")}}
	svc := NewService(repo, newMemCache())

	_, err := svc.Board(context.Background(), BoardHot)
	require.NoError(t, err)
	_, err = svc.Board(context.Background(), BoardHot)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.calls)
}

func TestBoardUnknownType(t *testing.T) {
	repo := &stubRepo{entries: map[string][]Entry{}}
	svc := NewService(repo, newMemCache())

	_, err := svc.Board(context.Background(), "weird")
	assert.ErrorIs(t, err, ErrUnknownBoard)
}

func TestBoardWorksWithoutCache(t *testing.T) {
	repo := &stubRepo{entries: map[string][]Entry{BoardHot: hotEntries("a")}}
	svc := NewService(repo, nil)

	got, err := svc.Board(context.Background(), BoardHot)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "same", got[0].Trend)

	// No cache: every call hits the repo.
	_, err = svc.Board(context.Background(), BoardHot)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}

func TestTrendAgainstPreviousSnapshot(t *testing.T) {
	cache := newMemCache()
	repo := &stubRepo{entries: map[string][]Entry{BoardHot: hotEntries("a", "b", "c")}}
	svc := NewService(repo, cache)

	first, err := svc.Board(context.Background(), BoardHot)
	require.NoError(t, err)
	for _, e := range first {
		assert.Equal(t, "same", e.Trend)
	}

	// New order: b overtakes a, d debuts, c drops off.
	repo.entries[BoardHot] = hotEntries("b", "a", "d")
	delete(cache.boards, BoardHot)

	second, err := svc.Board(context.Background(), BoardHot)
	require.NoError(t, err)
	require.Len(t, second, 3)
	assert.Equal(t, "up", second[0].Trend)   // b: 2 -> 1
	assert.Equal(t, "down", second[1].Trend) // a: 1 -> 2
	assert.Equal(t, "new", second[2].Trend)  // d: unseen
}

func TestBoardEmptyIsNotNil(t *testing.T) {
	repo := &stubRepo{entries: map[string][]Entry{}}
	svc := NewService(repo, newMemCache())

	got, err := svc.Board(context.Background(), BoardRating)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

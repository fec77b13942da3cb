package store_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pedidos/internal/events"
	"github.com/noah-isme/backend-pedidos/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &store.Store{R: client}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	type product struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Cost int64  `json:"cost"`
	}
	saved := []product{{ID: "p1", Name: "Chipa", Cost: 5000}}
	require.NoError(t, s.Save(ctx, store.KeyProducts, saved))

	var loaded []product
	found, err := s.Load(ctx, store.KeyProducts, &loaded)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, saved, loaded)
}

func TestLoadMissingKeyReportsNotFound(t *testing.T) {
	s := newTestStore(t)

	var dest []string
	found, err := s.Load(context.Background(), store.KeyClosures, &dest)
	require.NoError(t, err)
	require.False(t, found)
	require.Nil(t, dest)
}

func TestLoadCorruptValueFallsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.R.Set(ctx, store.KeyProducts, "{not json", 0).Err())

	var dest []string
	found, err := s.Load(ctx, store.KeyProducts, &dest)
	require.NoError(t, err)
	require.False(t, found)
}

func TestEventJournalIsCapped(t *testing.T) {
	s := newTestStore(t)
	s.EventJournalMax = 3
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ev := events.Event{
			ID:         string(rune('a' + i)),
			Topic:      events.TopicOrderCommitted,
			OccurredAt: time.Now(),
		}
		require.NoError(t, s.AppendEvent(ctx, ev))
	}

	recent, err := s.RecentEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	require.Equal(t, "c", recent[0].ID)
	require.Equal(t, "e", recent[2].ID)
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-pedidos/internal/events"
)

// Keys under which tracker state is persisted.
const (
	KeyProducts = "products"
	KeyClosures = "closures"

	eventJournalKey = "events"
)

// Store persists tracker state as JSON values in Redis. Orders and the
// in-progress builder are deliberately not persisted; only the catalog and
// the closure history survive a restart.
type Store struct {
	R *redis.Client
	// Prefix namespaces all keys, so multiple trackers can share one Redis.
	Prefix string
	// EventJournalMax caps the event journal length; 0 uses a default.
	EventJournalMax int64
}

func (s *Store) key(name string) string {
	return s.Prefix + name
}

// Save serialises v as JSON under the given key.
func (s *Store) Save(ctx context.Context, key string, v any) error {
	if s == nil || s.R == nil {
		return errors.New("store: redis client not configured")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}
	if err := s.R.Set(ctx, s.key(key), data, 0).Err(); err != nil {
		return fmt.Errorf("store: save %s: %w", key, err)
	}
	return nil
}

// Load reads the JSON value stored under key into dest. A missing key or a
// value that fails to decode reports found=false and leaves dest untouched,
// so callers fall back to their zero state instead of refusing to start.
func (s *Store) Load(ctx context.Context, key string, dest any) (found bool, err error) {
	if s == nil || s.R == nil {
		return false, errors.New("store: redis client not configured")
	}
	data, err := s.R.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("store: load %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, nil
	}
	return true, nil
}

// AppendEvent implements events.Journal on a capped Redis list.
func (s *Store) AppendEvent(ctx context.Context, event events.Event) error {
	if s == nil || s.R == nil {
		return errors.New("store: redis client not configured")
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("store: encode event: %w", err)
	}
	max := s.EventJournalMax
	if max <= 0 {
		max = 1000
	}
	key := s.key(eventJournalKey)
	pipe := s.R.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -max, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store: journal event: %w", err)
	}
	return nil
}

// RecentEvents returns up to limit journal entries, oldest first.
func (s *Store) RecentEvents(ctx context.Context, limit int64) ([]events.Event, error) {
	if s == nil || s.R == nil {
		return nil, errors.New("store: redis client not configured")
	}
	if limit <= 0 {
		limit = 100
	}
	raw, err := s.R.LRange(ctx, s.key(eventJournalKey), -limit, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("store: read event journal: %w", err)
	}
	out := make([]events.Event, 0, len(raw))
	for _, entry := range raw {
		var ev events.Event
		if err := json.Unmarshal([]byte(entry), &ev); err != nil {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

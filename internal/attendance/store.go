package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store keeps the open roster of each session. Save replaces whatever the
// session held before.
type Store interface {
	Load(ctx context.Context, sessionID string) (*Roster, error)
	Save(ctx context.Context, r *Roster) error
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu      sync.RWMutex
	rosters map[string]*Roster
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rosters: make(map[string]*Roster)}
}

// Load returns a copy of the session's roster or ErrRosterNotFound.
func (s *MemoryStore) Load(_ context.Context, sessionID string) (*Roster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rosters[sessionID]
	if !ok {
		return nil, ErrRosterNotFound
	}
	return r.Clone(), nil
}

// Save stores a copy of r.
func (s *MemoryStore) Save(_ context.Context, r *Roster) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rosters[r.SessionID] = r.Clone()
	return nil
}

// Delete drops the session's roster.
func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rosters, sessionID)
	return nil
}

// RedisStore keeps rosters as JSON snapshots so an API restart does not lose
// a marking session in progress. Snapshots expire after ttl.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore builds a store under keys prefix+sessionID.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "rollcall:roster:"
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// Load reads and decodes a snapshot.
func (s *RedisStore) Load(ctx context.Context, sessionID string) (*Roster, error) {
	raw, err := s.client.Get(ctx, s.prefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRosterNotFound
		}
		return nil, fmt.Errorf("attendance: load roster %s: %w", sessionID, err)
	}
	var r Roster
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("attendance: decode roster %s: %w", sessionID, err)
	}
	return &r, nil
}

// Save writes a snapshot and refreshes its expiry.
func (s *RedisStore) Save(ctx context.Context, r *Roster) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("attendance: encode roster %s: %w", r.SessionID, err)
	}
	return s.client.Set(ctx, s.prefix+r.SessionID, raw, s.ttl).Err()
}

// Delete removes a snapshot.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.prefix+sessionID).Err()
}

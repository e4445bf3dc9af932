// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/danielhkuo/quickly-survey/pagination"
	"github.com/redis/go-redis/v9"
)

// Store keeps the navigation state of each respondent session between
// requests. Get returns the zero State when nothing is stored.
type Store interface {
	Get(ctx context.Context, sessionID string) (pagination.State, error)
	Put(ctx context.Context, sessionID string, state pagination.State) error
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore keeps state in process. Entries expire after ttl and are
// swept from Put at most once per ttl.
type MemoryStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	entries   map[string]memoryEntry
	lastSweep time.Time
}

type memoryEntry struct {
	state   pagination.State
	expires time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, entries: make(map[string]memoryEntry)}
}

func (m *MemoryStore) Get(_ context.Context, sessionID string) (pagination.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[sessionID]
	if !ok {
		return pagination.State{}, nil
	}
	if m.ttl > 0 && m.now().After(e.expires) {
		delete(m.entries, sessionID)
		return pagination.State{}, nil
	}
	return e.state, nil
}

func (m *MemoryStore) Put(_ context.Context, sessionID string, state pagination.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)
	m.entries[sessionID] = memoryEntry{state: state, expires: now.Add(m.ttl)}
	return nil
}

// sweep drops expired entries. Caller holds mu.
func (m *MemoryStore) sweep(now time.Time) {
	if m.ttl <= 0 || now.Sub(m.lastSweep) < m.ttl {
		return
	}
	m.lastSweep = now
	for id, e := range m.entries {
		if now.After(e.expires) {
			delete(m.entries, id)
		}
	}
}

func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, sessionID)
	return nil
}

// RedisStore keeps state as JSON under "nav:<session>" with a TTL, so any
// server instance can continue a session.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func navKey(sessionID string) string {
	return "nav:" + sessionID
}

func (r *RedisStore) Get(ctx context.Context, sessionID string) (pagination.State, error) {
	raw, err := r.client.Get(ctx, navKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return pagination.State{}, nil
	}
	if err != nil {
		return pagination.State{}, fmt.Errorf("failed to read navigation state: %w", err)
	}

	var state pagination.State
	if err := json.Unmarshal(raw, &state); err != nil {
		// Corrupt entries reset navigation to the first page
		return pagination.State{}, nil
	}
	return state, nil
}

func (r *RedisStore) Put(ctx context.Context, sessionID string, state pagination.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode navigation state: %w", err)
	}
	if err := r.client.Set(ctx, navKey(sessionID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store navigation state: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, navKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete navigation state: %w", err)
	}
	return nil
}

package core

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/breachsim/breachsim/utils"
)

// SessionStore persists one game-state document per session id. Load
// for an unknown session returns a fresh default state; Save commits
// the whole document at once.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (*GameState, error)
	Save(ctx context.Context, sessionID string, state *GameState) error
	Close() error
}

// MemoryStore keeps sessions in process memory. The default backend.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*GameState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*GameState)}
}

func (m *MemoryStore) Load(ctx context.Context, sessionID string) (*GameState, error) {
	m.mu.RLock()
	state, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return NewGameState(), nil
	}
	return state.Clone(), nil
}

func (m *MemoryStore) Save(ctx context.Context, sessionID string, state *GameState) error {
	m.mu.Lock()
	m.sessions[sessionID] = state.Clone()
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// RedisStore persists sessions in Redis, one JSON document per session
// with a rolling TTL. Lets multiple server instances share sessions.
type RedisStore struct {
	client *redis.Client
	logger *utils.Logger
	ttl    time.Duration
}

// NewRedisStore connects to redisURL and verifies the connection
// before returning.
func NewRedisStore(redisURL string, ttl time.Duration, logger *utils.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	logger.Info("Connected to redis session store at %s", opts.Addr)
	return &RedisStore{client: client, logger: logger, ttl: ttl}, nil
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("breachsim:session:%s", sessionID)
}

func (r *RedisStore) Load(ctx context.Context, sessionID string) (*GameState, error) {
	data, err := r.client.Get(ctx, sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return NewGameState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	state := NewGameState()
	if err := json.Unmarshal([]byte(data), state); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", sessionID, err)
	}
	if state.Hacker.Cooldowns == nil {
		state.Hacker.Cooldowns = make(map[Attack]int64)
	}
	if state.Hacker.AttackFlows == nil {
		state.Hacker.AttackFlows = make(map[Attack]AttackFlow)
	}
	return state, nil
}

func (r *RedisStore) Save(ctx context.Context, sessionID string, state *GameState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", sessionID, err)
	}
	if err := r.client.Set(ctx, sessionKey(sessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", sessionID, err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/authportal/authportal-go/internal/cache"
	"github.com/authportal/authportal-go/internal/model"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidSession  = errors.New("session has no id")
)

// SessionRepository stores login results keyed by session ID. Entries are
// removed explicitly by Delete or implicitly when their TTL runs out.
type SessionRepository interface {
	Save(ctx context.Context, s model.Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (model.Session, error)
	Delete(ctx context.Context, id string) error
}

// MemorySessionRepository keeps sessions in process memory.
type MemorySessionRepository struct {
	sessions *cache.Memory[string, model.Session]
}

// NewMemorySessionRepository creates an empty in-memory repository.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: cache.NewMemory[string, model.Session]()}
}

func (r *MemorySessionRepository) Save(_ context.Context, s model.Session, ttl time.Duration) error {
	if s.ID == "" {
		return ErrInvalidSession
	}
	r.sessions.Set(s.ID, s, ttl)
	return nil
}

func (r *MemorySessionRepository) Get(_ context.Context, id string) (model.Session, error) {
	s, ok := r.sessions.Get(id)
	if !ok {
		return model.Session{}, ErrSessionNotFound
	}
	return s, nil
}

func (r *MemorySessionRepository) Delete(_ context.Context, id string) error {
	r.sessions.Del(id)
	return nil
}

// StartJanitor sweeps expired sessions until ctx is done.
func (r *MemorySessionRepository) StartJanitor(ctx context.Context, interval time.Duration) {
	r.sessions.StartJanitor(ctx, interval)
}

// RedisSessionRepository keeps sessions in Redis as JSON values.
type RedisSessionRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisSessionRepository creates a repository storing keys under prefix.
func NewRedisSessionRepository(client *redis.Client, prefix string) *RedisSessionRepository {
	if prefix == "" {
		prefix = "authportal:session:"
	}
	return &RedisSessionRepository{client: client, prefix: prefix}
}

func (r *RedisSessionRepository) key(id string) string {
	return r.prefix + id
}

func (r *RedisSessionRepository) Save(ctx context.Context, s model.Session, ttl time.Duration) error {
	if s.ID == "" {
		return ErrInvalidSession
	}

	data, err := sonic.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, r.key(s.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func (r *RedisSessionRepository) Get(ctx context.Context, id string) (model.Session, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.Session{}, ErrSessionNotFound
		}
		return model.Session{}, fmt.Errorf("loading session: %w", err)
	}

	var s model.Session
	if err := sonic.Unmarshal(data, &s); err != nil {
		return model.Session{}, fmt.Errorf("decoding session: %w", err)
	}
	return s, nil
}

func (r *RedisSessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

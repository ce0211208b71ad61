package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Ironclad/ironclad/internal/domain"
	"github.com/Ironclad/ironclad/pkg/cache"
	"github.com/Ironclad/ironclad/pkg/logger"
)

// memoryConversationStore keeps histories in process. Entries expire after
// ttl of inactivity.
type memoryConversationStore struct {
	cache       *cache.InMemoryCache[[]domain.ConversationMessage]
	ttl         time.Duration
	maxMessages int
}

func NewMemoryConversationStore(ttl time.Duration, maxMessages int) domain.ConversationStore {
	return &memoryConversationStore{
		cache:       cache.NewInMemoryCache[[]domain.ConversationMessage](time.Minute),
		ttl:         ttl,
		maxMessages: maxMessages,
	}
}

func (s *memoryConversationStore) Load(_ context.Context, sessionID string) ([]domain.ConversationMessage, error) {
	history, ok := s.cache.Get(sessionID)
	if !ok {
		return []domain.ConversationMessage{}, nil
	}
	// Callers append to the returned slice.
	out := make([]domain.ConversationMessage, len(history))
	copy(out, history)
	return out, nil
}

func (s *memoryConversationStore) Save(_ context.Context, sessionID string, history []domain.ConversationMessage) error {
	trimmed := domain.TrimHistory(history, s.maxMessages)
	stored := make([]domain.ConversationMessage, len(trimmed))
	copy(stored, trimmed)
	s.cache.Set(sessionID, stored, s.ttl)
	return nil
}

func (s *memoryConversationStore) Delete(_ context.Context, sessionID string) error {
	s.cache.Delete(sessionID)
	return nil
}

// RedisKV is the part of *redis.Client the conversation store needs.
type RedisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// redisConversationStore shares histories across API instances. Each
// session is one JSON value whose TTL is refreshed on every save.
type redisConversationStore struct {
	client      RedisKV
	prefix      string
	ttl         time.Duration
	maxMessages int
	logger      logger.Logger
}

type RedisConversationConfig struct {
	Prefix      string
	TTL         time.Duration
	MaxMessages int
}

func NewRedisConversationStore(client RedisKV, cfg RedisConversationConfig, logger logger.Logger) domain.ConversationStore {
	return &redisConversationStore{
		client:      client,
		prefix:      cfg.Prefix,
		ttl:         cfg.TTL,
		maxMessages: cfg.MaxMessages,
		logger:      logger,
	}
}

func (s *redisConversationStore) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *redisConversationStore) Load(ctx context.Context, sessionID string) ([]domain.ConversationMessage, error) {
	raw, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []domain.ConversationMessage{}, nil
	}
	if err != nil {
		s.logger.WithField("session_id", sessionID).WithField("error", err.Error()).Error("Failed to load conversation")
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	var history []domain.ConversationMessage
	if err := json.Unmarshal(raw, &history); err != nil {
		// A corrupt entry is dropped rather than blocking the session.
		s.logger.WithField("session_id", sessionID).WithField("error", err.Error()).Warn("Discarding unreadable conversation")
		return []domain.ConversationMessage{}, nil
	}
	return history, nil
}

func (s *redisConversationStore) Save(ctx context.Context, sessionID string, history []domain.ConversationMessage) error {
	raw, err := json.Marshal(domain.TrimHistory(history, s.maxMessages))
	if err != nil {
		return fmt.Errorf("failed to encode conversation: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sessionID), raw, s.ttl).Err(); err != nil {
		s.logger.WithField("session_id", sessionID).WithField("error", err.Error()).Error("Failed to save conversation")
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

func (s *redisConversationStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

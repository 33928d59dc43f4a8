package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"HelmetGuard/internal/entity"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrResultNotFound = errors.New("no detection result for session")

const keyPrefix = "helmetguard:result:"

// IResultStore keeps the latest detection result of each browser session.
// SetLatest replaces whatever was stored before.
type IResultStore interface {
	SetLatest(ctx context.Context, sessionID string, result *entity.DetectionResult) error
	GetLatest(ctx context.Context, sessionID string) (*entity.DetectionResult, error)
	Clear(ctx context.Context, sessionID string) error
	Close() error
}

type Config struct {
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
	log    *logrus.Logger
}

// New connects to redis when an address is configured and falls back to an
// in-process store otherwise or when redis does not answer.
func New(cfg Config, log *logrus.Logger) IResultStore {
	if cfg.Address == "" {
		log.Info("REDIS_ADDRESS not set, keeping detection results in memory")
		return NewMemoryStore(cfg.TTL)
	}

	log.Info(fmt.Sprintf("Connecting to Redis at %s...", cfg.Address))

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
		_ = client.Close()
		return NewMemoryStore(cfg.TTL)
	}

	log.Info("Successfully connected to Redis")
	return &redisStore{client: client, ttl: cfg.TTL, log: log}
}

func (r *redisStore) SetLatest(ctx context.Context, sessionID string, result *entity.DetectionResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode detection result: %w", err)
	}

	if err := r.client.Set(ctx, keyPrefix+sessionID, payload, r.ttl).Err(); err != nil {
		r.log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Error storing detection result")
		return err
	}

	r.log.WithField("session_id", sessionID).Debug("Stored latest detection result")
	return nil
}

func (r *redisStore) GetLatest(ctx context.Context, sessionID string) (*entity.DetectionResult, error) {
	val, err := r.client.Get(ctx, keyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrResultNotFound
	} else if err != nil {
		r.log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Error reading detection result")
		return nil, err
	}

	var result entity.DetectionResult
	if err := json.Unmarshal(val, &result); err != nil {
		return nil, fmt.Errorf("failed to decode detection result: %w", err)
	}
	return &result, nil
}

func (r *redisStore) Clear(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, keyPrefix+sessionID).Err()
}

func (r *redisStore) Close() error {
	return r.client.Close()
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

type memoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore keeps results in process. A zero ttl never expires.
func NewMemoryStore(ttl time.Duration) IResultStore {
	return &memoryStore{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *memoryStore) SetLatest(_ context.Context, sessionID string, result *entity.DetectionResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode detection result: %w", err)
	}

	entry := memoryEntry{payload: payload}
	if m.ttl > 0 {
		entry.expiresAt = m.now().Add(m.ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[sessionID] = entry
	m.sweep()
	return nil
}

func (m *memoryStore) GetLatest(_ context.Context, sessionID string) (*entity.DetectionResult, error) {
	m.mu.Lock()
	entry, ok := m.entries[sessionID]
	if ok && m.expired(entry) {
		delete(m.entries, sessionID)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return nil, ErrResultNotFound
	}

	var result entity.DetectionResult
	if err := json.Unmarshal(entry.payload, &result); err != nil {
		return nil, fmt.Errorf("failed to decode detection result: %w", err)
	}
	return &result, nil
}

func (m *memoryStore) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, sessionID)
	return nil
}

func (m *memoryStore) Close() error {
	return nil
}

func (m *memoryStore) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && m.now().After(e.expiresAt)
}

// sweep drops expired entries; callers hold mu.
func (m *memoryStore) sweep() {
	for id, e := range m.entries {
		if m.expired(e) {
			delete(m.entries, id)
		}
	}
}

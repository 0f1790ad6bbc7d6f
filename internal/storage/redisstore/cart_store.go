// Package redisstore хранит корзины сессий в Redis.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	defaultTTL = 24 * time.Hour
	opTimeout  = 2 * time.Second
)

// CartStore сохраняет сериализованную корзину под ключом cart:<session>.
type CartStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewCartStore создаёт CartStore. ttl <= 0 заменяется значением по умолчанию.
func NewCartStore(client redis.UniversalClient, ttl time.Duration) *CartStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &CartStore{client: client, ttl: ttl}
}

// Open подключается к Redis и проверяет доступность через PING.
func Open(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (s *CartStore) Load(ctx context.Context, sessionID string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	data, err := s.client.Get(ctx, cartKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get cart: %w", err)
	}
	return data, nil
}

// Save перезаписывает корзину и продлевает TTL ключа.
func (s *CartStore) Save(ctx context.Context, sessionID string, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := s.client.Set(ctx, cartKey(sessionID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

func (s *CartStore) Delete(ctx context.Context, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := s.client.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete cart: %w", err)
	}
	return nil
}

// Ping проверяет доступность Redis (для health checks).
func (s *CartStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.client.Ping(ctx).Err()
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}

var _ domain.CartStore = (*CartStore)(nil)

// Package cache guarda los balances mensuales en Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Fabrica-api/internal/application/finance"
	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	"github.com/jhoicas/Fabrica-api/pkg/config"
)

var (
	_ finance.BalanceCache = (*BalanceCache)(nil)
	_ finance.BalanceCache = NoopCache{}
)

const keyPrefix = "fabrica:balance"

// NewClient crea el cliente Redis y verifica la conexión.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// BalanceCache implementación de finance.BalanceCache sobre Redis (JSON por período).
type BalanceCache struct {
	client *redis.Client
}

// NewBalanceCache construye la caché.
func NewBalanceCache(client *redis.Client) *BalanceCache {
	return &BalanceCache{client: client}
}

func balanceKey(month, year int) string {
	return fmt.Sprintf("%s:%04d-%02d", keyPrefix, year, month)
}

func (c *BalanceCache) Get(ctx context.Context, month, year int) (*entity.MonthlyBalance, bool, error) {
	raw, err := c.client.Get(ctx, balanceKey(month, year)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("balance cache get: %w", err)
	}
	var b entity.MonthlyBalance
	if err := json.Unmarshal(raw, &b); err != nil {
		// entrada corrupta: se trata como miss y se borra
		_ = c.client.Del(ctx, balanceKey(month, year)).Err()
		return nil, false, nil
	}
	return &b, true, nil
}

func (c *BalanceCache) Set(ctx context.Context, b *entity.MonthlyBalance, ttl time.Duration) error {
	if b == nil {
		return nil
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("balance cache encode: %w", err)
	}
	if err := c.client.Set(ctx, balanceKey(b.Month, b.Year), raw, ttl).Err(); err != nil {
		return fmt.Errorf("balance cache set: %w", err)
	}
	return nil
}

func (c *BalanceCache) Delete(ctx context.Context, month, year int) error {
	if err := c.client.Del(ctx, balanceKey(month, year)).Err(); err != nil {
		return fmt.Errorf("balance cache delete: %w", err)
	}
	return nil
}

// NoopCache caché desactivada (REDIS_ADDR vacío): siempre miss.
type NoopCache struct{}

func (NoopCache) Get(context.Context, int, int) (*entity.MonthlyBalance, bool, error) {
	return nil, false, nil
}

func (NoopCache) Set(context.Context, *entity.MonthlyBalance, time.Duration) error { return nil }

func (NoopCache) Delete(context.Context, int, int) error { return nil }

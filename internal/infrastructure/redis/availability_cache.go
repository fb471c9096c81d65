package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/concert"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

// AvailabilityCacheInterface はコンサート空席状況キャッシュの窓口
type AvailabilityCacheInterface interface {
	Get(ctx context.Context, concertID int64) (*concert.Availability, error)
	Set(ctx context.Context, a concert.Availability, ttl time.Duration) error
	Invalidate(ctx context.Context, concertID int64) error
}

var _ AvailabilityCacheInterface = (*AvailabilityCache)(nil)

// AvailabilityCache はコンサートの空席状況をJSONでキャッシュする
type AvailabilityCache struct {
	client *redis.Client
}

// NewAvailabilityCache は新しいAvailabilityCacheインスタンスを作成する
func NewAvailabilityCache(client *redis.Client) *AvailabilityCache {
	return &AvailabilityCache{client: client}
}

// Get はコンサートの空席状況をキャッシュから取得する
func (c *AvailabilityCache) Get(ctx context.Context, concertID int64) (*concert.Availability, error) {
	val, err := c.client.Get(ctx, AvailabilityKey(concertID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	var a concert.Availability
	if err := json.Unmarshal([]byte(val), &a); err != nil {
		return nil, fmt.Errorf("キャッシュのデコードに失敗: %w", err)
	}
	return &a, nil
}

// Set はコンサートの空席状況をキャッシュに保存する
func (c *AvailabilityCache) Set(ctx context.Context, a concert.Availability, ttl time.Duration) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("キャッシュのエンコードに失敗: %w", err)
	}
	if err := c.client.Set(ctx, AvailabilityKey(a.ConcertID), string(payload), ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate はコンサートのキャッシュを無効化する
func (c *AvailabilityCache) Invalidate(ctx context.Context, concertID int64) error {
	if err := c.client.Del(ctx, AvailabilityKey(concertID)).Err(); err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

// AvailabilityKey はキャッシュキーを返す
func AvailabilityKey(concertID int64) string {
	return fmt.Sprintf("concert:availability:%d", concertID)
}

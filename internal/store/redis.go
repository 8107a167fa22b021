package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"tank-monitor/analytics/internal/config"
	"tank-monitor/analytics/internal/domain"
)

const (
	// AllGroups is the stored scope value for keys that see every tank.
	AllGroups = "*"

	StatusChannelPattern = "tankalert:status:*"
)

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(ctx context.Context, cfg *config.Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     20,
		MinIdleConns: 5,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Client() *redis.Client {
	return r.client
}

func APIKeyKey(apiKey string) string {
	return fmt.Sprintf("tankalert:auth:%s", apiKey)
}

func StatusChannel(group string) string {
	if group == "" {
		group = "_"
	}
	return fmt.Sprintf("tankalert:status:%s", group)
}

func AlertChannel(group string) string {
	if group == "" {
		group = "_"
	}
	return fmt.Sprintf("tankalert:alerts:%s", group)
}

func alertDedupKey(tankID string, alertType domain.AlertType) string {
	return fmt.Sprintf("tankalert:alert:%s:%s", tankID, string(alertType))
}

// GetAPIKey resolves an API key to its group scope. found is false for
// unknown keys and for keys stored with a blank scope; only AllGroups is
// returned as "".
func (r *RedisStore) GetAPIKey(ctx context.Context, apiKey string) (scope string, found bool, err error) {
	val, err := r.client.Get(ctx, APIKeyKey(apiKey)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get api key failed: %w", err)
	}
	return parseScope(val)
}

func parseScope(val string) (string, bool, error) {
	val = strings.TrimSpace(val)
	switch val {
	case "":
		return "", false, nil
	case AllGroups:
		return "", true, nil
	}
	return val, true, nil
}

func (r *RedisStore) CheckAlertDedup(ctx context.Context, tankID string, alertType domain.AlertType) (bool, error) {
	count, err := r.client.Exists(ctx, alertDedupKey(tankID, alertType)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check failed: %w", err)
	}
	return count > 0, nil
}

func (r *RedisStore) SetAlertDedup(ctx context.Context, tankID string, alertType domain.AlertType, ttl time.Duration) error {
	return r.client.Set(ctx, alertDedupKey(tankID, alertType), "1", ttl).Err()
}

// ClearAlertDedup forgets past alerts once a tank recovers, so the next
// drop alerts straight away.
func (r *RedisStore) ClearAlertDedup(ctx context.Context, tankID string, alertType domain.AlertType) error {
	return r.client.Del(ctx, alertDedupKey(tankID, alertType)).Err()
}

func (r *RedisStore) PublishAlert(ctx context.Context, a domain.Alert) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}
	return r.client.Publish(ctx, AlertChannel(a.Group), payload).Err()
}

// PublishStatuses pushes a batch of evaluated statuses to the per-group
// status channels in one round trip.
func (r *RedisStore) PublishStatuses(ctx context.Context, statuses []domain.FillStatus) error {
	if len(statuses) == 0 {
		return nil
	}

	pipe := r.client.Pipeline()
	for i := range statuses {
		payload, err := json.Marshal(&statuses[i])
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		pipe.Publish(ctx, StatusChannel(statuses[i].Group), payload)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline failed: %w", err)
	}
	return nil
}

func (r *RedisStore) SubscribeStatuses(ctx context.Context) *redis.PubSub {
	return r.client.PSubscribe(ctx, StatusChannelPattern)
}

package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tank-monitor/analytics/internal/config"
	"tank-monitor/analytics/internal/domain"
)

func newTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r, err := NewRedisStore(context.Background(), &config.Config{RedisAddr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r, mr
}

func TestGetAPIKey(t *testing.T) {
	r, mr := newTestRedis(t)
	require.NoError(t, mr.Set(APIKeyKey("north"), "depot_north"))
	require.NoError(t, mr.Set(APIKeyKey("office"), AllGroups))
	require.NoError(t, mr.Set(APIKeyKey("blank"), ""))
	require.NoError(t, mr.Set(APIKeyKey("spaces"), "   "))

	tests := []struct {
		key   string
		scope string
		found bool
	}{
		{"north", "depot_north", true},
		{"office", "", true},
		{"blank", "", false},
		{"spaces", "", false},
		{"unknown", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			scope, found, err := r.GetAPIKey(context.Background(), tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.scope, scope)
		})
	}
}

func TestGetAPIKeyBlankScopeSeesNothing(t *testing.T) {
	r, mr := newTestRedis(t)
	require.NoError(t, mr.Set(APIKeyKey("blank"), ""))

	scope, found, err := r.GetAPIKey(context.Background(), "blank")
	require.NoError(t, err)
	require.False(t, found)
	assert.False(t, found && domain.Tank{Group: "depot_north"}.InScope(scope))
}

func TestAlertDedupLifecycle(t *testing.T) {
	r, mr := newTestRedis(t)
	ctx := context.Background()

	seen, err := r.CheckAlertDedup(ctx, "t-1", domain.AlertTankLow)
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, r.SetAlertDedup(ctx, "t-1", domain.AlertTankLow, time.Hour))
	seen, err = r.CheckAlertDedup(ctx, "t-1", domain.AlertTankLow)
	require.NoError(t, err)
	assert.True(t, seen)
	assert.Equal(t, time.Hour, mr.TTL(alertDedupKey("t-1", domain.AlertTankLow)))

	require.NoError(t, r.ClearAlertDedup(ctx, "t-1", domain.AlertTankLow))
	seen, err = r.CheckAlertDedup(ctx, "t-1", domain.AlertTankLow)
	require.NoError(t, err)
	assert.False(t, seen)
}

package quota

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Khangurai/zap-admin/internal/entities"
)

type memCounter struct {
	mu sync.Mutex
	n  map[string]int64
}

func (m *memCounter) IncDailyCounter(_ context.Context, name string, limit int, now time.Time) (bool, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.n == nil {
		m.n = map[string]int64{}
	}
	key := name + now.Format("20060102")
	m.n[key]++
	return limit <= 0 || m.n[key] <= int64(limit), m.n[key], nil
}

func TestSpendDailyLimit(t *testing.T) {
	g := NewGuard(&memCounter{})
	g.Register(Rule{Name: "google", DailyLimit: 2})
	ctx := context.Background()

	require.NoError(t, g.Spend(ctx, "google"))
	require.NoError(t, g.Spend(ctx, "google"))
	err := g.Spend(ctx, "google")
	require.ErrorIs(t, err, entities.ErrQuotaExceeded)
}

func TestSpendUnknownRuleIsFree(t *testing.T) {
	g := NewGuard(&memCounter{})
	for i := 0; i < 5; i++ {
		require.NoError(t, g.Spend(context.Background(), "other"))
	}
}

func TestSpendMinInterval(t *testing.T) {
	g := NewGuard(&memCounter{})
	g.Register(Rule{Name: "vrp", MinInterval: 50 * time.Millisecond})
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, g.Spend(ctx, "vrp"))
	require.NoError(t, g.Spend(ctx, "vrp"))
	require.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestSpendMinIntervalHonoursContext(t *testing.T) {
	g := NewGuard(&memCounter{})
	g.Register(Rule{Name: "vrp", MinInterval: time.Hour})

	require.NoError(t, g.Spend(context.Background(), "vrp"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, g.Spend(ctx, "vrp"), context.DeadlineExceeded)
}

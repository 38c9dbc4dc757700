// Package quota spends the daily budget of paid mapping APIs.
package quota

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Khangurai/zap-admin/internal/entities"
	"github.com/Khangurai/zap-admin/internal/observability"
)

/* =======================================================================
                           RULE DEFINITION
======================================================================= */

type Rule struct {
	Name        string
	DailyLimit  int
	MinInterval time.Duration
}

// Counter is the persistent daily counter, backed by redis in production.
type Counter interface {
	IncDailyCounter(ctx context.Context, name string, limit int, now time.Time) (bool, int64, error)
}

type Guard struct {
	counter Counter
	now     func() time.Time

	mu    sync.Mutex
	rules map[string]Rule
	last  map[string]time.Time
}

func NewGuard(counter Counter) *Guard {
	return &Guard{
		counter: counter,
		now:     time.Now,
		rules:   map[string]Rule{},
		last:    map[string]time.Time{},
	}
}

func (g *Guard) Register(r Rule) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rules[r.Name] = r
}

/* =======================================================================
                               SPEND
======================================================================= */

// Spend blocks until MinInterval has passed since the previous call for the
// rule, then takes one unit of the daily budget. Unknown rules are free.
func (g *Guard) Spend(ctx context.Context, name string) error {
	g.mu.Lock()
	rule, ok := g.rules[name]
	if !ok {
		g.mu.Unlock()
		return nil
	}
	now := g.now()
	wait := time.Duration(0)
	if last := g.last[name]; !last.IsZero() && now.Sub(last) < rule.MinInterval {
		wait = rule.MinInterval - now.Sub(last)
	}
	g.last[name] = now.Add(wait)
	g.mu.Unlock()

	if wait > 0 {
		t := time.NewTimer(wait)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}

	allowed, count, err := g.counter.IncDailyCounter(ctx, name, rule.DailyLimit, g.now())
	if err != nil {
		return fmt.Errorf("quota %s: %w", name, err)
	}
	if !allowed {
		observability.QuotaRejected.WithLabelValues(name).Inc()
		return fmt.Errorf("%s daily limit %d reached (%d): %w", name, rule.DailyLimit, count, entities.ErrQuotaExceeded)
	}
	return nil
}

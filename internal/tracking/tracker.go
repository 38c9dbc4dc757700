package tracking

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Khangurai/zap-admin/internal/observability"
	"github.com/Khangurai/zap-admin/internal/store"
)

type VehicleStore interface {
	SaveVehicle(ctx context.Context, v store.VehicleState) error
	TouchVehicle(ctx context.Context, v store.VehicleState) error
	Vehicles(ctx context.Context) ([]store.VehicleState, error)
}

// Broadcaster receives the full vehicle list whenever it changes.
type Broadcaster interface {
	Broadcast(vehicles []store.VehicleState)
}

// Tracker merges positions from every source, persists the ones that
// moved and publishes the merged snapshot.
type Tracker struct {
	log   *zap.SugaredLogger
	store VehicleStore
	out   Broadcaster
	now   func() time.Time

	mu   sync.Mutex
	last map[string]store.VehicleState
}

func NewTracker(log *zap.SugaredLogger, st VehicleStore, out Broadcaster) *Tracker {
	return &Tracker{
		log:   log.Named("tracking"),
		store: st,
		out:   out,
		now:   time.Now,
		last:  map[string]store.VehicleState{},
	}
}

// Ingest records a batch of positions and returns how many changed.
// Reports older than VehicleTTL are dropped. A vehicle reporting from the
// same place keeps its entry alive without a broadcast.
func (t *Tracker) Ingest(ctx context.Context, source string, in []store.VehicleState) int {
	observability.PositionsReceived.WithLabelValues(source).Add(float64(len(in)))

	now := t.now()
	cutoff := now.Add(-store.VehicleTTL).UnixMilli()
	var moved, seen []store.VehicleState

	t.mu.Lock()
	for _, v := range in {
		if v.ID == "" {
			continue
		}
		if v.LastUpdate == 0 {
			v.LastUpdate = now.UnixMilli()
		}
		if v.LastUpdate < cutoff {
			continue
		}
		v.Source = source
		prev, ok := t.last[v.ID]
		if ok && prev.Lat == v.Lat && prev.Lon == v.Lon && prev.Live == v.Live {
			if v.LastUpdate > prev.LastUpdate {
				prev.LastUpdate = v.LastUpdate
				t.last[v.ID] = prev
			}
			seen = append(seen, prev)
			continue
		}
		t.last[v.ID] = v
		moved = append(moved, v)
	}
	for id, v := range t.last {
		if v.LastUpdate < cutoff {
			delete(t.last, id)
		}
	}
	var snapshot []store.VehicleState
	if len(moved) > 0 {
		snapshot = t.snapshotLocked()
	}
	t.mu.Unlock()

	for _, v := range moved {
		if err := t.store.SaveVehicle(ctx, v); err != nil {
			t.log.Errorw("failed to store vehicle", "vehicle_id", v.ID, "error", err)
		}
	}
	for _, v := range seen {
		if err := t.store.TouchVehicle(ctx, v); err != nil {
			t.log.Errorw("failed to refresh vehicle", "vehicle_id", v.ID, "error", err)
		}
	}
	if len(moved) > 0 {
		t.log.Debugw("vehicles updated", "source", source, "moved", len(moved), "total", len(snapshot))
		if t.out != nil {
			t.out.Broadcast(snapshot)
		}
	}
	return len(moved)
}

// Snapshot is the in-memory merged view ordered by id.
func (t *Tracker) Snapshot() []store.VehicleState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() []store.VehicleState {
	out := make([]store.VehicleState, 0, len(t.last))
	for _, v := range t.last {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Vehicles reads the stored positions, which survive restarts of this
// process for VehicleTTL.
func (t *Tracker) Vehicles(ctx context.Context) ([]store.VehicleState, error) {
	return t.store.Vehicles(ctx)
}

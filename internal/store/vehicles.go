package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/Khangurai/zap-admin/internal/observability"
)

// VehicleTTL bounds how long a silent vehicle stays on the map.
const VehicleTTL = 10 * time.Minute

type VehicleState struct {
	ID         string  `json:"id"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Speed      int     `json:"spd"`
	Course     int     `json:"crs"`
	Fix        bool    `json:"fix"`
	Live       bool    `json:"live"`
	Source     string  `json:"source"`
	LastUpdate int64   `json:"lastUpdate"`
}

func (r *Redis) SaveVehicle(ctx context.Context, v VehicleState) error {
	key := VehicleKey(v.ID)
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"lat":    strconv.FormatFloat(v.Lat, 'f', 6, 64),
		"lon":    strconv.FormatFloat(v.Lon, 'f', 6, 64),
		"spd":    v.Speed,
		"crs":    v.Course,
		"fix":    boolInt(v.Fix),
		"live":   boolInt(v.Live),
		"source": v.Source,
		"ts":     v.LastUpdate,
	})
	pipe.Expire(ctx, key, VehicleTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		observability.RedisErrors.Inc()
		return fmt.Errorf("redis HSET %s: %w", key, err)
	}
	return nil
}

// TouchVehicle records a fresh report from an unmoved vehicle and extends
// its TTL. An expired hash is written again in full.
func (r *Redis) TouchVehicle(ctx context.Context, v VehicleState) error {
	key := VehicleKey(v.ID)
	n, err := r.rdb.Exists(ctx, key).Result()
	if err != nil {
		observability.RedisErrors.Inc()
		return fmt.Errorf("redis EXISTS %s: %w", key, err)
	}
	if n == 0 {
		return r.SaveVehicle(ctx, v)
	}
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, key, "ts", v.LastUpdate)
	pipe.Expire(ctx, key, VehicleTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		observability.RedisErrors.Inc()
		return fmt.Errorf("redis touch %s: %w", key, err)
	}
	return nil
}

// Vehicles returns every stored vehicle ordered by id.
func (r *Redis) Vehicles(ctx context.Context) ([]VehicleState, error) {
	var keys []string
	iter := r.rdb.Scan(ctx, 0, VehicleKey("*"), 200).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		observability.RedisErrors.Inc()
		return nil, fmt.Errorf("redis SCAN vehicles: %w", err)
	}

	out := make([]VehicleState, 0, len(keys))
	for _, key := range keys {
		m, err := r.rdb.HGetAll(ctx, key).Result()
		if err != nil {
			observability.RedisErrors.Inc()
			return nil, fmt.Errorf("redis HGETALL %s: %w", key, err)
		}
		if len(m) == 0 {
			continue
		}
		out = append(out, vehicleFromHash(key[len("veh:"):], m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func vehicleFromHash(id string, m map[string]string) VehicleState {
	lat, _ := strconv.ParseFloat(m["lat"], 64)
	lon, _ := strconv.ParseFloat(m["lon"], 64)
	spd, _ := strconv.Atoi(m["spd"])
	crs, _ := strconv.Atoi(m["crs"])
	ts, _ := strconv.ParseInt(m["ts"], 10, 64)
	return VehicleState{
		ID:         id,
		Lat:        lat,
		Lon:        lon,
		Speed:      spd,
		Course:     crs,
		Fix:        m["fix"] == "1",
		Live:       m["live"] == "1",
		Source:     m["source"],
		LastUpdate: ts,
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', 5, 64)
}

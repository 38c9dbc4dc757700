package tracking

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/Khangurai/zap-admin/internal/entities"
	"github.com/Khangurai/zap-admin/internal/observability"
	"github.com/Khangurai/zap-admin/internal/store"
)

// Feed is a pollable source of vehicle positions.
type Feed interface {
	Fetch(ctx context.Context) ([]store.VehicleState, error)
}

type GTFSRTFeed struct {
	url        string
	httpClient *http.Client
	now        func() time.Time
}

func NewGTFSRTFeed(url string, timeout time.Duration) *GTFSRTFeed {
	return &GTFSRTFeed{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

func (s *GTFSRTFeed) Fetch(ctx context.Context) (_ []store.VehicleState, err error) {
	start := time.Now()
	defer func() { observability.ObserveExternal(SourceGTFSRT, "fetch", start, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gtfs-rt: %s: %w", err.Error(), entities.ErrUpstream)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gtfs-rt http status %d: %w", resp.StatusCode, entities.ErrUpstream)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var feed gtfs.FeedMessage
	if err := proto.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("gtfs-rt decode: %w", err)
	}
	return vehiclesFromFeed(&feed, s.now()), nil
}

func vehiclesFromFeed(feed *gtfs.FeedMessage, now time.Time) []store.VehicleState {
	vehicles := make([]store.VehicleState, 0, len(feed.GetEntity()))
	for _, ent := range feed.GetEntity() {
		vp := ent.GetVehicle()
		if vp == nil || vp.GetVehicle() == nil || vp.GetPosition() == nil {
			continue
		}
		id := vp.GetVehicle().GetId()
		if id == "" {
			continue
		}
		pos := vp.GetPosition()
		if pos.Latitude == nil || pos.Longitude == nil {
			continue
		}

		var ts time.Time
		if vp.Timestamp != nil {
			ts = time.Unix(int64(vp.GetTimestamp()), 0)
		}
		v := store.VehicleState{
			ID:     id,
			Lat:    float64(pos.GetLatitude()),
			Lon:    float64(pos.GetLongitude()),
			Speed:  int(math.Round(float64(pos.GetSpeed()) * 3.6)), // m/s to km/h
			Course: int(math.Round(float64(pos.GetBearing()))),
			Source: SourceGTFSRT,
			Live:   IsLive(false, ts, now),
		}
		v.Fix = v.Lat != 0 || v.Lon != 0
		if !ts.IsZero() {
			v.LastUpdate = ts.UnixMilli()
		}
		vehicles = append(vehicles, v)
	}
	return vehicles
}

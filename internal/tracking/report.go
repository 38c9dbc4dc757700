// Package tracking collects live vehicle positions from the GTFS-RT feed
// and the device link, stores them and pushes them to map clients.
package tracking

import (
	"fmt"
	"time"

	"github.com/Khangurai/zap-admin/internal/geo"
	"github.com/Khangurai/zap-admin/internal/store"
)

// liveWindow is how old a fix may be and still count as live.
const liveWindow = 120 * time.Second

const (
	SourceLink   = "link"
	SourceGTFSRT = "gtfsrt"
)

// Report is one NDJSON tracking line from the device link.
type Report struct {
	IMEI     string `json:"imei"`
	Model    string `json:"model,omitempty"`
	FWVer    string `json:"fw_ver,omitempty"`
	Datetime string `json:"dt"`

	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Spd  int     `json:"spd"`
	Crs  int     `json:"crs"`
	Sats int     `json:"sats"`

	PermIO map[string]uint64 `json:"perm_io,omitempty"`

	MsgType int `json:"msg_type"` // 1=live, 0=buffer
	Fix     int `json:"fix"`
}

// CalcFix needs more than three satellites and a plausible coordinate.
func CalcFix(sats int, lat, lon float64) bool {
	return sats > 3 && geo.Point{Lat: lat, Lng: lon}.Valid()
}

// IsLive reports whether a position belongs on the live map rather than
// the buffered history.
func IsLive(buffered bool, ts, now time.Time) bool {
	if buffered {
		return false
	}
	if !ts.IsZero() && now.Sub(ts) > liveWindow {
		return false
	}
	return true
}

// State converts the report into the stored vehicle view.
func (r Report) State(now time.Time) (store.VehicleState, error) {
	if r.IMEI == "" {
		return store.VehicleState{}, fmt.Errorf("tracking report without imei")
	}
	var ts time.Time
	if r.Datetime != "" {
		t, err := time.Parse(time.RFC3339, r.Datetime)
		if err != nil {
			return store.VehicleState{}, fmt.Errorf("imei %s: bad dt %q: %w", r.IMEI, r.Datetime, err)
		}
		ts = t
	}
	last := now
	if !ts.IsZero() {
		last = ts
	}
	return store.VehicleState{
		ID:         r.IMEI,
		Lat:        r.Lat,
		Lon:        r.Lon,
		Speed:      r.Spd,
		Course:     r.Crs,
		Fix:        CalcFix(r.Sats, r.Lat, r.Lon),
		Live:       IsLive(r.MsgType == 0, ts, now),
		Source:     SourceLink,
		LastUpdate: last.UnixMilli(),
	}, nil
}

package tracking

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"

	"github.com/Khangurai/zap-admin/internal/store"
)

type recorder struct {
	mu    sync.Mutex
	calls [][]store.VehicleState
}

func (r *recorder) Broadcast(v []store.VehicleState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, v)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func newRedis(t *testing.T) *store.Redis {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return store.NewRedis(rdb)
}

func TestCalcFix(t *testing.T) {
	require.True(t, CalcFix(4, 16.77, 96.17))
	require.False(t, CalcFix(3, 16.77, 96.17))
	require.False(t, CalcFix(9, 0, 0))
	require.False(t, CalcFix(9, 91, 0))
}

func TestIsLive(t *testing.T) {
	now := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	require.True(t, IsLive(false, now.Add(-119*time.Second), now))
	require.False(t, IsLive(false, now.Add(-121*time.Second), now))
	require.False(t, IsLive(true, now, now))
	require.True(t, IsLive(false, time.Time{}, now))
}

func TestReportState(t *testing.T) {
	now := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	r := Report{IMEI: "356307042441013", Datetime: "2025-10-01T11:59:30Z", Lat: 16.77, Lon: 96.17, Spd: 42, Crs: 180, Sats: 7, MsgType: 1}

	st, err := r.State(now)
	require.NoError(t, err)
	require.Equal(t, "356307042441013", st.ID)
	require.True(t, st.Fix)
	require.True(t, st.Live)
	require.Equal(t, 42, st.Speed)
	require.Equal(t, now.Add(-30*time.Second).UnixMilli(), st.LastUpdate)

	r.MsgType = 0
	st, err = r.State(now)
	require.NoError(t, err)
	require.False(t, st.Live)

	_, err = Report{IMEI: "x", Datetime: "yesterday"}.State(now)
	require.Error(t, err)
	_, err = Report{}.State(now)
	require.Error(t, err)
}

func TestTrackerIngestDetectsChanges(t *testing.T) {
	rec := &recorder{}
	st := newRedis(t)
	tr := NewTracker(zap.NewNop().Sugar(), st, rec)
	ctx := context.Background()

	batch := []store.VehicleState{
		{ID: "b", Lat: 16.78, Lon: 96.18, Live: true},
		{ID: "a", Lat: 16.77, Lon: 96.17, Live: true},
	}
	require.Equal(t, 2, tr.Ingest(ctx, SourceGTFSRT, batch))
	require.Equal(t, 0, tr.Ingest(ctx, SourceGTFSRT, batch))
	require.Equal(t, 1, rec.count())

	batch[0].Lat = 16.79
	require.Equal(t, 1, tr.Ingest(ctx, SourceGTFSRT, batch))
	require.Equal(t, 2, rec.count())

	snap := tr.Snapshot()
	require.Len(t, snap, 2)
	require.Equal(t, "a", snap[0].ID)
	require.Equal(t, SourceGTFSRT, snap[0].Source)
	require.NotZero(t, snap[0].LastUpdate)

	stored, err := tr.Vehicles(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	require.InDelta(t, 16.79, stored[1].Lat, 1e-6)
}

func TestTrackerKeepsParkedVehicle(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	rec := &recorder{}
	tr := NewTracker(zap.NewNop().Sugar(), store.NewRedis(rdb), rec)
	clock := time.Date(2025, 10, 1, 8, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return clock }
	ctx := context.Background()

	const poll = 10 * time.Second
	for elapsed := time.Duration(0); elapsed <= 15*time.Minute; elapsed += poll {
		bus := store.VehicleState{ID: "bus-9", Lat: 16.8, Lon: 96.15, Live: true, LastUpdate: clock.UnixMilli()}
		tr.Ingest(ctx, SourceGTFSRT, []store.VehicleState{bus})

		snap := tr.Snapshot()
		require.Len(t, snap, 1, "after %s", elapsed)
		require.Equal(t, clock.UnixMilli(), snap[0].LastUpdate)
		require.True(t, mr.Exists(store.VehicleKey("bus-9")), "after %s", elapsed)

		clock = clock.Add(poll)
		mr.FastForward(poll)
	}
	require.Equal(t, 1, rec.count())
}

func TestTrackerDropsStaleReports(t *testing.T) {
	rec := &recorder{}
	tr := NewTracker(zap.NewNop().Sugar(), newRedis(t), rec)
	now := time.Date(2025, 10, 1, 8, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return now }

	stale := store.VehicleState{ID: "old", Lat: 16.8, Lon: 96.15, LastUpdate: now.Add(-store.VehicleTTL - time.Minute).UnixMilli()}
	for i := 0; i < 3; i++ {
		require.Equal(t, 0, tr.Ingest(context.Background(), SourceGTFSRT, []store.VehicleState{stale}))
	}
	require.Empty(t, tr.Snapshot())
	require.Equal(t, 0, rec.count())
}

func TestGTFSRTFeedFetch(t *testing.T) {
	ts := time.Now().Add(-10 * time.Second)
	feed := &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{GtfsRealtimeVersion: proto.String("2.0")},
		Entity: []*gtfs.FeedEntity{
			{
				Id: proto.String("1"),
				Vehicle: &gtfs.VehiclePosition{
					Vehicle: &gtfs.VehicleDescriptor{Id: proto.String("bus-7")},
					Position: &gtfs.Position{
						Latitude:  proto.Float32(16.77),
						Longitude: proto.Float32(96.17),
						Speed:     proto.Float32(10),
						Bearing:   proto.Float32(90),
					},
					Timestamp: proto.Uint64(uint64(ts.Unix())),
				},
			},
			{
				Id:      proto.String("2"),
				Vehicle: &gtfs.VehiclePosition{Vehicle: &gtfs.VehicleDescriptor{Id: proto.String("no-position")}},
			},
			{Id: proto.String("3")},
		},
	}
	body, err := proto.Marshal(feed)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	vehicles, err := NewGTFSRTFeed(srv.URL, time.Second).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, vehicles, 1)
	v := vehicles[0]
	require.Equal(t, "bus-7", v.ID)
	require.InDelta(t, 16.77, v.Lat, 1e-5)
	require.Equal(t, 36, v.Speed)
	require.Equal(t, 90, v.Course)
	require.True(t, v.Live)
	require.Equal(t, ts.Unix()*1000, v.LastUpdate)
}

func TestGTFSRTFeedHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewGTFSRTFeed(srv.URL, time.Second).Fetch(context.Background())
	require.Error(t, err)
}

type feedFunc func(ctx context.Context) ([]store.VehicleState, error)

func (f feedFunc) Fetch(ctx context.Context) ([]store.VehicleState, error) { return f(ctx) }

func TestPollerFeedsTracker(t *testing.T) {
	rec := &recorder{}
	tr := NewTracker(zap.NewNop().Sugar(), newRedis(t), rec)
	feed := feedFunc(func(context.Context) ([]store.VehicleState, error) {
		return []store.VehicleState{{ID: "bus-1", Lat: 16.77, Lon: 96.17}}, nil
	})
	p := NewPoller(zap.NewNop().Sugar(), feed, tr, SourceGTFSRT, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return rec.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done
}

func TestLinkClientReadsTracking(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		dt := time.Now().UTC().Format(time.RFC3339)
		lines := []string{
			`{"device_connect":true,"imei":"356307042441013","model":"FMC130"}`,
			`not json`,
			fmt.Sprintf(`{"imei":"356307042441013","dt":"%s","lat":16.77,"lon":96.17,"spd":30,"crs":45,"sats":8,"msg_type":1,"fix":1}`, dt),
		}
		_, _ = c.Write([]byte(strings.Join(lines, "\n") + "\n"))
		time.Sleep(time.Second)
	}()

	rec := &recorder{}
	tr := NewTracker(zap.NewNop().Sugar(), newRedis(t), rec)
	lc := NewLinkClient(zap.NewNop().Sugar(), ln.Addr().String(), tr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		lc.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return rec.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	snap := tr.Snapshot()
	require.Len(t, snap, 1)
	require.Equal(t, SourceLink, snap[0].Source)
	require.True(t, snap[0].Fix)
	require.True(t, snap[0].Live)

	cancel()
	<-done
}

func TestHubSnapshotAndBroadcast(t *testing.T) {
	hub := NewHub(zap.NewNop().Sugar())
	hub.Broadcast([]store.VehicleState{{ID: "a", Lat: 1, Lon: 2}})

	srv := httptest.NewServer(hub)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Contains(t, string(msg), `"id":"a"`)

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)
	hub.Broadcast([]store.VehicleState{{ID: "b", Lat: 3, Lon: 4, Live: true}})

	_, msg, err = conn.ReadMessage()
	require.NoError(t, err)
	require.Contains(t, string(msg), `"id":"b"`)
	require.Contains(t, string(msg), `"lastUpdate"`)

	hub.Close()
	require.Equal(t, 0, hub.Clients())
}

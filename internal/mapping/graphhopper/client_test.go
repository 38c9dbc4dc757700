package graphhopper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Khangurai/zap-admin/internal/entities"
	"github.com/Khangurai/zap-admin/internal/geo"
)

var yangon = []geo.Point{
	{Lat: 16.776474, Lng: 96.171004},
	{Lat: 16.77122, Lng: 96.175772},
	{Lat: 16.776539, Lng: 96.168959},
}

func newServer(t *testing.T, finishAfter int32) (*httptest.Server, *int32) {
	t.Helper()
	var polls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/1/vrp/optimize", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "secret", r.URL.Query().Get("key"))

		var p problem
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		require.Len(t, p.Vehicles, 1)
		require.Equal(t, 16.776474, p.Vehicles[0].StartAddress.Lat)
		require.Len(t, p.Services, 2)
		require.Equal(t, "1", p.Services[0].ID)

		_, _ = w.Write([]byte(`{"job_id":"job-42"}`))
	})
	mux.HandleFunc("/api/1/vrp/solution/job-42", func(w http.ResponseWriter, _ *http.Request) {
		n := atomic.AddInt32(&polls, 1)
		if n < finishAfter {
			_, _ = w.Write([]byte(`{"status":"processing"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"finished","solution":{"distance":1800,"time":420,"routes":[{"activities":[
			{"type":"start","address":{"location_id":"start","lat":16.776474,"lon":96.171004}},
			{"type":"service","id":"2","address":{"location_id":"loc_2","lat":16.776539,"lon":96.168959}},
			{"type":"service","id":"1","address":{"location_id":"loc_1","lat":16.77122,"lon":96.175772}}
		]}]}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &polls
}

func TestOptimizePollsUntilFinished(t *testing.T) {
	srv, polls := newServer(t, 3)
	c := NewClient(srv.URL, "secret", time.Second, time.Millisecond, 20)

	sol, err := c.Optimize(context.Background(), yangon)
	require.NoError(t, err)
	require.Equal(t, int32(3), atomic.LoadInt32(polls))
	require.Equal(t, "job-42", sol.JobID)
	require.Equal(t, 1800, sol.DistanceM)
	require.Equal(t, []geo.Point{yangon[0], yangon[2], yangon[1]}, sol.Stops)
}

func TestOptimizeTimesOut(t *testing.T) {
	srv, polls := newServer(t, 100)
	c := NewClient(srv.URL, "secret", time.Second, time.Millisecond, 4)

	_, err := c.Optimize(context.Background(), yangon)
	require.ErrorIs(t, err, entities.ErrOptimizeTimeout)
	require.Equal(t, int32(4), atomic.LoadInt32(polls))
}

func TestOptimizeNeedsTwoPoints(t *testing.T) {
	c := NewClient("http://unused", "k", time.Second, time.Millisecond, 1)
	_, err := c.Optimize(context.Background(), yangon[:1])
	require.ErrorIs(t, err, entities.ErrInvalidArgument)
}

func TestOptimizeSubmitFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"bad key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", time.Second, time.Millisecond, 1)
	_, err := c.Optimize(context.Background(), yangon)
	require.ErrorIs(t, err, entities.ErrUpstream)
}

func TestOptimizeCanceledKeepsCause(t *testing.T) {
	srv, _ := newServer(t, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(srv.URL, "k", time.Second, time.Millisecond, 1)
	_, err := c.Optimize(ctx, yangon)
	require.ErrorIs(t, err, entities.ErrUpstream)
	require.ErrorIs(t, err, context.Canceled)
}

func TestOptimizeFallbackJobID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/1/vrp/optimize", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"solution_id":"sol-1"}`))
	})
	mux.HandleFunc("/api/1/vrp/solution/sol-1", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"finished","solution":{"routes":[]}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL, "k", time.Second, time.Millisecond, 2)
	_, err := c.Optimize(context.Background(), yangon)
	require.ErrorIs(t, err, entities.ErrNoRoute)
}

// Package graphhopper submits vehicle routing problems and polls for the
// solution.
package graphhopper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Khangurai/zap-admin/internal/entities"
	"github.com/Khangurai/zap-admin/internal/geo"
	"github.com/Khangurai/zap-admin/internal/observability"
)

const provider = "graphhopper"

type Client struct {
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	pollInterval time.Duration
	pollAttempts int
}

func NewClient(baseURL, apiKey string, timeout, pollInterval time.Duration, pollAttempts int) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		httpClient:   &http.Client{Timeout: timeout},
		pollInterval: pollInterval,
		pollAttempts: pollAttempts,
	}
}

type address struct {
	LocationID string  `json:"location_id"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
}

type vehicle struct {
	VehicleID     string  `json:"vehicle_id"`
	TypeID        string  `json:"type_id"`
	StartAddress  address `json:"start_address"`
	ReturnToDepot bool    `json:"return_to_depot"`
}

type vehicleType struct {
	TypeID  string `json:"type_id"`
	Profile string `json:"profile"`
}

type service struct {
	ID      string  `json:"id"`
	Address address `json:"address"`
}

type problem struct {
	Vehicles     []vehicle     `json:"vehicles"`
	VehicleTypes []vehicleType `json:"vehicle_types"`
	Services     []service     `json:"services"`
}

type submitResponse struct {
	JobID      string `json:"job_id"`
	SolutionID string `json:"solution_id"`
	ID         string `json:"id"`
}

type solutionResponse struct {
	Status   string `json:"status"`
	Solution *struct {
		Distance int `json:"distance"`
		Time     int `json:"time"`
		Routes   []struct {
			Activities []struct {
				Type    string  `json:"type"`
				ID      string  `json:"id"`
				Address address `json:"address"`
			} `json:"activities"`
		} `json:"routes"`
	} `json:"solution"`
}

// Solution is the first vehicle route in visit order.
type Solution struct {
	JobID     string      `json:"job_id"`
	Stops     []geo.Point `json:"stops"`
	DistanceM int         `json:"distance_m"`
	DurationS int         `json:"duration_s"`
}

// Optimize treats points[0] as the depot and the rest as services. It
// submits the problem, then polls every pollInterval until the job is
// finished or pollAttempts is exhausted.
func (c *Client) Optimize(ctx context.Context, points []geo.Point) (*Solution, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("at least 2 coordinates are required for optimization: %w", entities.ErrInvalidArgument)
	}

	jobID, err := c.submit(ctx, points)
	if err != nil {
		return nil, err
	}

	for i := 0; i < c.pollAttempts; i++ {
		t := time.NewTimer(c.pollInterval)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}

		sol, err := c.solution(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if sol.Status != "finished" {
			continue
		}
		if sol.Solution == nil || len(sol.Solution.Routes) == 0 {
			return nil, fmt.Errorf("job %s: no routes found in solution: %w", jobID, entities.ErrNoRoute)
		}
		out := &Solution{
			JobID:     jobID,
			DistanceM: sol.Solution.Distance,
			DurationS: sol.Solution.Time,
		}
		for _, act := range sol.Solution.Routes[0].Activities {
			out.Stops = append(out.Stops, geo.Point{Lat: act.Address.Lat, Lng: act.Address.Lon})
		}
		return out, nil
	}
	return nil, fmt.Errorf("job %s after %d polls: %w", jobID, c.pollAttempts, entities.ErrOptimizeTimeout)
}

func (c *Client) submit(ctx context.Context, points []geo.Point) (id string, err error) {
	start := time.Now()
	defer func() { observability.ObserveExternal(provider, "optimize", start, err) }()

	p := problem{
		Vehicles: []vehicle{{
			VehicleID: "vehicle_1",
			TypeID:    "vehicleType_1",
			StartAddress: address{
				LocationID: "start",
				Lat:        points[0].Lat,
				Lon:        points[0].Lng,
			},
		}},
		VehicleTypes: []vehicleType{{TypeID: "vehicleType_1", Profile: "car"}},
	}
	for i, pt := range points[1:] {
		sid := strconv.Itoa(i + 1)
		p.Services = append(p.Services, service{
			ID:      sid,
			Address: address{LocationID: "loc_" + sid, Lat: pt.Lat, Lon: pt.Lng},
		})
	}

	body, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/1/vrp/optimize"), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var sr submitResponse
	if err := c.do(req, &sr); err != nil {
		return "", err
	}
	id = sr.JobID
	if id == "" {
		id = sr.SolutionID
	}
	if id == "" {
		id = sr.ID
	}
	if id == "" {
		return "", fmt.Errorf("no job id returned from optimization request: %w", entities.ErrUpstream)
	}
	return id, nil
}

func (c *Client) solution(ctx context.Context, jobID string) (sr *solutionResponse, err error) {
	start := time.Now()
	defer func() { observability.ObserveExternal(provider, "solution", start, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/api/1/vrp/solution/"+url.PathEscape(jobID)), nil)
	if err != nil {
		return nil, err
	}
	sr = &solutionResponse{}
	if err := c.do(req, sr); err != nil {
		return nil, err
	}
	return sr, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + path + "?key=" + url.QueryEscape(c.apiKey)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", entities.ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("HTTP %d: %s: %w", resp.StatusCode, strings.TrimSpace(string(text)), entities.ErrUpstream)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

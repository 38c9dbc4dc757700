// Package google is a thin client for the Directions and Geocoding web APIs.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Khangurai/zap-admin/internal/entities"
	"github.com/Khangurai/zap-admin/internal/geo"
	"github.com/Khangurai/zap-admin/internal/observability"
)

const (
	provider  = "google"
	QuotaRule = "google"
)

// Spender charges one call against a daily budget.
type Spender interface {
	Spend(ctx context.Context, name string) error
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	quota      Spender
}

func NewClient(baseURL, apiKey string, timeout time.Duration, quota Spender) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		quota:      quota,
	}
}

func (c *Client) get(ctx context.Context, op, path string, q url.Values, out any) (err error) {
	start := time.Now()
	defer func() { observability.ObserveExternal(provider, op, start, err) }()

	if c.quota != nil {
		if err := c.quota.Spend(ctx, QuotaRule); err != nil {
			return err
		}
	}

	q.Set("key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, entities.ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s http status %d: %s: %w", op, resp.StatusCode, strings.TrimSpace(string(b)), entities.ErrUpstream)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s decode: %w", op, err)
	}
	return nil
}

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (l latLng) point() geo.Point { return geo.Point{Lat: l.Lat, Lng: l.Lng} }

type textValue struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}

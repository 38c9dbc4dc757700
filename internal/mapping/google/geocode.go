package google

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/Khangurai/zap-admin/internal/entities"
	"github.com/Khangurai/zap-admin/internal/geo"
	"github.com/Khangurai/zap-admin/internal/observability"
	"github.com/Khangurai/zap-admin/internal/store"
)

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress  string `json:"formatted_address"`
		PlaceID           string `json:"place_id"`
		AddressComponents []struct {
			LongName string `json:"long_name"`
		} `json:"address_components"`
	} `json:"results"`
}

// ReverseGeocode resolves the first result for the point. The returned
// place carries the queried point as its location.
func (c *Client) ReverseGeocode(ctx context.Context, p geo.Point) (*entities.Place, error) {
	q := url.Values{}
	q.Set("latlng", p.String())

	var resp geocodeResponse
	if err := c.get(ctx, "geocode", "/maps/api/geocode/json", q, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "OK" || len(resp.Results) == 0 {
		return nil, fmt.Errorf("geocode status %s %s: %w", resp.Status, resp.ErrorMessage, entities.ErrGeocodeFailed)
	}

	r := resp.Results[0]
	name := r.FormattedAddress
	if len(r.AddressComponents) > 0 && r.AddressComponents[0].LongName != "" {
		name = r.AddressComponents[0].LongName
	}
	loc := p
	return &entities.Place{
		Name:             name,
		FormattedAddress: r.FormattedAddress,
		PlaceID:          r.PlaceID,
		Location:         &loc,
	}, nil
}

// Geocoder is what the planner needs for drag reconciliation.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, p geo.Point) (*entities.Place, error)
}

type Cache interface {
	SaveJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	LoadJSON(ctx context.Context, key string, v any) (bool, error)
}

// CachedGeocoder memoises reverse geocodes per ~1 m bucket.
type CachedGeocoder struct {
	next  Geocoder
	cache Cache
	ttl   time.Duration
}

func NewCachedGeocoder(next Geocoder, cache Cache, ttl time.Duration) *CachedGeocoder {
	return &CachedGeocoder{next: next, cache: cache, ttl: ttl}
}

func (g *CachedGeocoder) ReverseGeocode(ctx context.Context, p geo.Point) (*entities.Place, error) {
	key := store.GeocodeKey(p.Lat, p.Lng)

	var cached entities.Place
	if ok, err := g.cache.LoadJSON(ctx, key, &cached); err == nil && ok {
		observability.GeocodeCache.WithLabelValues("hit").Inc()
		loc := p
		cached.Location = &loc
		return &cached, nil
	}
	observability.GeocodeCache.WithLabelValues("miss").Inc()

	place, err := g.next.ReverseGeocode(ctx, p)
	if err != nil {
		return nil, err
	}
	_ = g.cache.SaveJSON(ctx, key, place, g.ttl)
	return place, nil
}

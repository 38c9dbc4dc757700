// Package mapbox renders saved routes through the Static Images API.
package mapbox

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/Khangurai/zap-admin/internal/entities"
)

const (
	style         = "mapbox/streets-v11"
	DefaultWidth  = 600
	DefaultHeight = 300
)

type Client struct {
	baseURL string
	token   string
}

func NewClient(baseURL, token string) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), token: token}
}

// StaticImageURL overlays every feature of fc on an auto-fitted map. The
// overlay is drawn as a red line. Zero sizes fall back to 600x300.
func (c *Client) StaticImageURL(fc []byte, width, height int) (string, error) {
	if len(fc) == 0 {
		return "", fmt.Errorf("empty geojson: %w", entities.ErrInvalidArgument)
	}
	collection, err := geojson.UnmarshalFeatureCollection(fc)
	if err != nil {
		return "", fmt.Errorf("parse geojson: %s: %w", err.Error(), entities.ErrInvalidArgument)
	}
	if len(collection.Features) == 0 {
		return "", fmt.Errorf("geojson has no features: %w", entities.ErrInvalidArgument)
	}
	for _, f := range collection.Features {
		if f.Properties == nil {
			f.Properties = geojson.Properties{}
		}
		f.Properties["stroke"] = "#ff0000"
		f.Properties["stroke-width"] = 3
		f.Properties["stroke-opacity"] = 0.8
	}
	overlay, err := json.Marshal(collection)
	if err != nil {
		return "", err
	}

	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return fmt.Sprintf("%s/styles/v1/%s/static/geojson(%s)/auto/%dx%d?access_token=%s",
		c.baseURL, style, url.PathEscape(string(overlay)), width, height, url.QueryEscape(c.token)), nil
}

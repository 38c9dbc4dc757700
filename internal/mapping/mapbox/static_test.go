package mapbox

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Khangurai/zap-admin/internal/entities"
	"github.com/Khangurai/zap-admin/internal/geo"
)

func TestStaticImageURL(t *testing.T) {
	fc, err := geo.LineStringFeatureCollection([]geo.Point{
		{Lat: 16.7765, Lng: 96.1710},
		{Lat: 16.7712, Lng: 96.1758},
	}, nil)
	require.NoError(t, err)

	c := NewClient("https://api.mapbox.com/", "pk.test")
	u, err := c.StaticImageURL(fc, 0, 0)
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(u, "https://api.mapbox.com/styles/v1/mapbox/streets-v11/static/geojson("))
	require.True(t, strings.HasSuffix(u, ")/auto/600x300?access_token=pk.test"))

	start := strings.Index(u, "geojson(") + len("geojson(")
	end := strings.LastIndex(u, ")/auto/")
	overlay, err := url.PathUnescape(u[start:end])
	require.NoError(t, err)
	require.Contains(t, overlay, `"stroke":"#ff0000"`)
	require.Contains(t, overlay, `"stroke-width":3`)
	require.Contains(t, overlay, `"stroke-opacity":0.8`)
	require.Contains(t, overlay, `[96.171,16.7765]`)
}

func TestStaticImageURLCustomSize(t *testing.T) {
	fc, err := geo.LineStringFeatureCollection([]geo.Point{{Lat: 1, Lng: 2}, {Lat: 3, Lng: 4}}, nil)
	require.NoError(t, err)

	u, err := NewClient("https://api.mapbox.com", "t").StaticImageURL(fc, 320, 200)
	require.NoError(t, err)
	require.Contains(t, u, "/auto/320x200?")
}

func TestStaticImageURLRejectsEmpty(t *testing.T) {
	c := NewClient("https://api.mapbox.com", "t")

	_, err := c.StaticImageURL(nil, 0, 0)
	require.ErrorIs(t, err, entities.ErrInvalidArgument)

	_, err = c.StaticImageURL([]byte(`{"type":"FeatureCollection","features":[]}`), 0, 0)
	require.ErrorIs(t, err, entities.ErrInvalidArgument)

	_, err = c.StaticImageURL([]byte(`not json`), 0, 0)
	require.ErrorIs(t, err, entities.ErrInvalidArgument)
}

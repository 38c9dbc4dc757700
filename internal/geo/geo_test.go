package geo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPointValid(t *testing.T) {
	require.True(t, Point{Lat: 16.8409, Lng: 96.1735}.Valid())
	require.False(t, Point{}.Valid())
	require.False(t, Point{Lat: 91, Lng: 10}.Valid())
	require.False(t, Point{Lat: 10, Lng: -181}.Valid())
}

func TestDistance(t *testing.T) {
	a := Point{Lat: 16.776474, Lng: 96.171004}
	require.InDelta(t, 0, Distance(a, a), 1e-9)

	// ~0.001 deg of latitude is ~111 m
	b := Point{Lat: 16.777474, Lng: 96.171004}
	require.InDelta(t, 111, Distance(a, b), 1.5)

	// ~0.0003 deg is well inside the drag radius
	c := Point{Lat: 16.776774, Lng: 96.171004}
	require.Less(t, Distance(a, c), 52.75)

	// long east-west spans at high latitude follow the great circle
	far1, far2 := Point{Lat: 60, Lng: 10}, Point{Lat: 60, Lng: 170}
	require.InDelta(t, 6567561, Distance(far1, far2), 10)
}

func TestBounds(t *testing.T) {
	_, ok := Bounds(nil)
	require.False(t, ok)

	b, ok := Bounds([]Point{
		{Lat: 16.80, Lng: 96.12},
		{Lat: 16.77, Lng: 96.17},
		{Lat: 16.78, Lng: 96.15},
	})
	require.True(t, ok)
	require.Equal(t, Point{Lat: 16.77, Lng: 96.12}, b.SouthWest)
	require.Equal(t, Point{Lat: 16.80, Lng: 96.17}, b.NorthEast)
	require.InDelta(t, 16.785, b.Center().Lat, 1e-9)
}

func TestPolylineRoundTrip(t *testing.T) {
	// Example from the encoded polyline algorithm format documentation.
	path, err := DecodePolyline("_p~iF~ps|U_ulLnnqC_mqNvxq`@")
	require.NoError(t, err)
	require.Len(t, path, 3)
	require.InDelta(t, 38.5, path[0].Lat, 1e-6)
	require.InDelta(t, -120.2, path[0].Lng, 1e-6)
	require.InDelta(t, 43.252, path[2].Lat, 1e-6)
	require.Equal(t, "_p~iF~ps|U_ulLnnqC_mqNvxq`@", EncodePolyline(path))

	empty, err := DecodePolyline("")
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestLineStringFeatureCollection(t *testing.T) {
	raw, err := LineStringFeatureCollection([]Point{{Lat: 1, Lng: 2}, {Lat: 3, Lng: 4}}, map[string]any{"edited": false})
	require.NoError(t, err)

	var doc struct {
		Type     string `json:"type"`
		Features []struct {
			Type       string         `json:"type"`
			Properties map[string]any `json:"properties"`
			Geometry   struct {
				Type        string      `json:"type"`
				Coordinates [][]float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Equal(t, "FeatureCollection", doc.Type)
	require.Len(t, doc.Features, 1)
	require.Equal(t, "LineString", doc.Features[0].Geometry.Type)
	require.Equal(t, [][]float64{{2, 1}, {4, 3}}, doc.Features[0].Geometry.Coordinates)
	require.Equal(t, false, doc.Features[0].Properties["edited"])

	path, err := PathFromGeoJSON(raw)
	require.NoError(t, err)
	require.Equal(t, []Point{{Lat: 1, Lng: 2}, {Lat: 3, Lng: 4}}, path)
}

func TestFormat(t *testing.T) {
	require.Equal(t, "12.35 km", FormatKm(12346))
	require.Equal(t, "20.50 min", FormatMinutes(1230))
	require.Equal(t, "1 hours 5 minutes", FormatHoursMinutes(3930))
}

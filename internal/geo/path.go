package geo

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/twpayne/go-polyline"
)

// DecodePolyline expands an encoded polyline (precision 5) into points.
func DecodePolyline(encoded string) ([]Point, error) {
	if encoded == "" {
		return nil, nil
	}
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode polyline: %w", err)
	}
	out := make([]Point, 0, len(coords))
	for _, c := range coords {
		out = append(out, Point{Lat: c[0], Lng: c[1]})
	}
	return out, nil
}

// EncodePolyline is the inverse of DecodePolyline.
func EncodePolyline(path []Point) string {
	coords := make([][]float64, 0, len(path))
	for _, p := range path {
		coords = append(coords, []float64{p.Lat, p.Lng})
	}
	return string(polyline.EncodeCoords(coords))
}

// LineStringFeatureCollection wraps the path as a single LineString feature.
// Coordinates are emitted in GeoJSON [lng, lat] order.
func LineStringFeatureCollection(path []Point, props map[string]any) ([]byte, error) {
	ls := make(orb.LineString, 0, len(path))
	for _, p := range path {
		ls = append(ls, p.orb())
	}
	f := geojson.NewFeature(ls)
	for k, v := range props {
		f.Properties[k] = v
	}
	fc := geojson.NewFeatureCollection()
	fc.Append(f)
	return json.Marshal(fc)
}

// PathFromGeoJSON extracts the first LineString of a FeatureCollection.
func PathFromGeoJSON(raw []byte) ([]Point, error) {
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}
	for _, f := range fc.Features {
		if ls, ok := f.Geometry.(orb.LineString); ok {
			out := make([]Point, 0, len(ls))
			for _, c := range ls {
				out = append(out, Point{Lat: c.Lat(), Lng: c.Lon()})
			}
			return out, nil
		}
	}
	return nil, fmt.Errorf("no linestring in feature collection")
}

package utils

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Coordinate is a geographic point with latitude and longitude
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// SiteBoundary is a polygonal boundary around a tower compound
type SiteBoundary struct {
	Coordinates []Coordinate `json:"coordinates"`
	Name        string       `json:"name,omitempty"`
}

// ValidateBoundary validates site boundary data
func ValidateBoundary(boundaryJSON string) error {
	if boundaryJSON == "" {
		return nil // boundary is optional
	}

	var boundary SiteBoundary
	if err := json.Unmarshal([]byte(boundaryJSON), &boundary); err != nil {
		return fmt.Errorf("invalid boundary JSON format: %w", err)
	}

	// A valid polygon needs at least 3 points
	if len(boundary.Coordinates) < 3 {
		return errors.New("boundary must have at least 3 coordinates to form a polygon")
	}

	for i, coord := range boundary.Coordinates {
		if err := validateCoordinate(coord); err != nil {
			return fmt.Errorf("invalid coordinate at index %d: %w", i, err)
		}
	}

	return nil
}

func validateCoordinate(coord Coordinate) error {
	if coord.Lat < -90 || coord.Lat > 90 {
		return fmt.Errorf("latitude %.6f is out of valid range [-90, 90]", coord.Lat)
	}
	if coord.Lng < -180 || coord.Lng > 180 {
		return fmt.Errorf("longitude %.6f is out of valid range [-180, 180]", coord.Lng)
	}
	return nil
}

// polygon converts the boundary to an orb ring, closing it if needed.
func (b *SiteBoundary) polygon() orb.Polygon {
	ring := make(orb.Ring, 0, len(b.Coordinates)+1)
	for _, c := range b.Coordinates {
		ring = append(ring, orb.Point{c.Lng, c.Lat})
	}
	if len(ring) > 0 && ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	return orb.Polygon{ring}
}

// ContainsPoint checks whether a point lies inside the site boundary.
func (b *SiteBoundary) ContainsPoint(point Coordinate) bool {
	if b == nil || len(b.Coordinates) < 3 {
		return false
	}
	return planar.PolygonContains(b.polygon(), orb.Point{point.Lng, point.Lat})
}

// Center returns the centroid of the boundary polygon.
func (b *SiteBoundary) Center() Coordinate {
	if b == nil || len(b.Coordinates) == 0 {
		return Coordinate{}
	}
	centroid, _ := planar.CentroidArea(b.polygon())
	return Coordinate{Lat: centroid[1], Lng: centroid[0]}
}

// ParseBoundary parses a boundary JSON string
func ParseBoundary(boundaryJSON string) (*SiteBoundary, error) {
	if boundaryJSON == "" {
		return nil, nil
	}

	var boundary SiteBoundary
	if err := json.Unmarshal([]byte(boundaryJSON), &boundary); err != nil {
		return nil, fmt.Errorf("failed to parse boundary: %w", err)
	}

	return &boundary, nil
}

// MapBounds returns the bounding box that frames a set of points, padded so
// markers near the edge are not clipped by the situating map.
func MapBounds(points []Coordinate, padding float64) (minLat, minLng, maxLat, maxLng float64) {
	if len(points) == 0 {
		return 0, 0, 0, 0
	}
	mp := make(orb.MultiPoint, 0, len(points))
	for _, p := range points {
		mp = append(mp, orb.Point{p.Lng, p.Lat})
	}
	bound := mp.Bound().Pad(padding)
	return bound.Min[1], bound.Min[0], bound.Max[1], bound.Max[0]
}

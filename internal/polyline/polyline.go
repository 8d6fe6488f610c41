// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package polyline converts between the encoded polyline format used by directions services
// (5 decimal precision) and coordinate sequences.
package polyline

import (
	"fmt"

	"github.com/twpayne/go-polyline"

	"github.com/wneessen/waybar-tracker/internal/geo"
)

// Decode decodes an encoded polyline into a coordinate sequence. The empty string decodes into
// an empty, non-nil sequence.
func Decode(encoded string) ([]geo.Coordinate, error) {
	coords := make([]geo.Coordinate, 0)
	if encoded == "" {
		return coords, nil
	}

	points, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to decode polyline: %w", err)
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("failed to decode polyline: %d trailing bytes", len(rest))
	}
	for _, p := range points {
		if len(p) != 2 {
			return nil, fmt.Errorf("failed to decode polyline: point with %d dimensions", len(p))
		}
		coords = append(coords, geo.Coordinate{Lat: p[0], Lon: p[1]})
	}
	return coords, nil
}

// Encode encodes a coordinate sequence into a polyline string.
func Encode(coords []geo.Coordinate) string {
	points := make([][]float64, 0, len(coords))
	for _, c := range coords {
		points = append(points, []float64{c.Lat, c.Lon})
	}
	return string(polyline.EncodeCoords(points))
}

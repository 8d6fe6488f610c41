// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package track

import (
	"github.com/wneessen/waybar-tracker/internal/geo"
)

// Marker is a directional arrow drawn at Position, rotated by Rotation degrees.
type Marker struct {
	Position geo.Coordinate `json:"position"`
	Rotation float64        `json:"rotation"`
}

// BuildArrows returns one marker per consecutive waypoint pair, placed at the earlier waypoint and
// pointing at the next one. If live is not nil and there is at least one waypoint, a trailing
// marker at the last waypoint points at the live location.
func BuildArrows(waypoints []geo.Coordinate, live *geo.Coordinate) []Marker {
	if len(waypoints) == 0 {
		return []Marker{}
	}

	markers := make([]Marker, 0, len(waypoints))
	for i := 0; i < len(waypoints)-1; i++ {
		markers = append(markers, Marker{
			Position: waypoints[i],
			Rotation: geo.Bearing(waypoints[i], waypoints[i+1]),
		})
	}
	if live != nil {
		last := waypoints[len(waypoints)-1]
		markers = append(markers, Marker{Position: last, Rotation: geo.Bearing(last, *live)})
	}
	return markers
}

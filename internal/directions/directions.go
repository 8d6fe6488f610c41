// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package directions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/waybar-tracker/internal/geo"
)

var (
	// ErrNoRoute is returned if the directions service answered but had no route for the request.
	ErrNoRoute = errors.New("no route found")

	// ErrTooFewWaypoints is returned for requests with less than two waypoints.
	ErrTooFewWaypoints = errors.New("at least two waypoints are required")
)

// Route is a driving route as returned by a directions service.
type Route struct {
	Path     []geo.Coordinate
	Distance float64 // meters
	Duration time.Duration
	Source   string
}

// Provider requests a driving route from a directions service.
type Provider interface {
	Name() string
	Route(ctx context.Context, waypoints []geo.Coordinate, destination geo.Coordinate) (Route, error)
}

// Origin validates the request and returns its origin, the first waypoint.
func Origin(waypoints []geo.Coordinate, destination geo.Coordinate) (geo.Coordinate, error) {
	if len(waypoints) < 2 {
		return geo.Coordinate{}, fmt.Errorf("%w: got %d", ErrTooFewWaypoints, len(waypoints))
	}
	if err := destination.Validate(); err != nil {
		return geo.Coordinate{}, fmt.Errorf("invalid destination: %w", err)
	}
	return waypoints[0], nil
}

// Intermediate returns the intermediate waypoints of a request: every waypoint but the last one,
// since the last recorded waypoint is the destination.
func Intermediate(waypoints []geo.Coordinate) []geo.Coordinate {
	if len(waypoints) == 0 {
		return nil
	}
	return waypoints[:len(waypoints)-1]
}

// JoinWaypoints formats waypoints as "lat,lng" pairs separated by "|".
func JoinWaypoints(waypoints []geo.Coordinate) string {
	parts := make([]string, 0, len(waypoints))
	for _, wp := range waypoints {
		parts = append(parts, wp.String())
	}
	return strings.Join(parts, "|")
}

// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package geo holds the coordinate type shared by the tracker and the planar bearing math used
// to orient the arrow markers.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

const (
	// TruncPrecision is the number of decimals kept for coordinates coming from location providers.
	TruncPrecision = 6

	radToDeg = 180 / math.Pi
)

var ErrInvalidCoordinate = errors.New("coordinate is out of range")

// Coordinate is a WGS84 latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Valid checks if the coordinate is valid according to the EPSG:4326 bounds.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Validate returns ErrInvalidCoordinate if the coordinate is not valid.
func (c Coordinate) Validate() error {
	if !c.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidCoordinate, c)
	}
	return nil
}

// String returns the coordinate in the "lat,lng" form directions services expect.
func (c Coordinate) String() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}

// Point converts the coordinate into an orb.Point. Note that orb uses [lon, lat] order.
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

// Bearing returns the heading in degrees from a to b. It is a planar approximation, atan2 of the
// latitude delta over the longitude delta, not a great-circle bearing. The result is always within
// [-180, 180]; identical points yield 0.
func Bearing(a, b Coordinate) float64 {
	return math.Atan2(b.Lat-a.Lat, b.Lon-a.Lon) * radToDeg
}

// LineString converts a coordinate sequence into an orb.LineString.
func LineString(coords []Coordinate) orb.LineString {
	ls := make(orb.LineString, 0, len(coords))
	for _, c := range coords {
		ls = append(ls, c.Point())
	}
	return ls
}

// Length returns the geodesic length of the coordinate sequence in meters.
func Length(coords []Coordinate) float64 {
	if len(coords) < 2 {
		return 0
	}
	return orbgeo.Length(LineString(coords))
}

// Distance returns the geodesic distance between a and b in meters.
func Distance(a, b Coordinate) float64 {
	return orbgeo.Distance(a.Point(), b.Point())
}

// Truncate cuts x down to the given number of decimals.
func Truncate(x float64, precision int) float64 {
	p := math.Pow(10, float64(precision))
	return math.Trunc(x*p) / p
}

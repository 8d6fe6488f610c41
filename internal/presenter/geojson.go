// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package presenter

import (
	"github.com/paulmach/orb/geojson"

	"github.com/wneessen/waybar-tracker/internal/geo"
	"github.com/wneessen/waybar-tracker/internal/track"
)

const (
	KindRoute    = "route"
	KindArrow    = "arrow"
	KindLocation = "location"

	routeStroke      = "#FF0000"
	routeStrokeWidth = 3
)

// FeatureCollection builds a GeoJSON representation of the session: the route as LineString, one
// Point per arrow marker and the live location.
func FeatureCollection(snap track.Snapshot) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	if len(snap.Route.Path) > 0 {
		route := geojson.NewFeature(geo.LineString(snap.Route.Path))
		route.Properties["kind"] = KindRoute
		route.Properties["stroke"] = routeStroke
		route.Properties["stroke-width"] = routeStrokeWidth
		route.Properties["distance"] = snap.Route.Distance
		route.Properties["provider"] = snap.Route.Source
		fc.Append(route)
	}

	for i, marker := range snap.Markers {
		fc.Append(ArrowFeature(i, marker))
	}

	if snap.HasLocation {
		loc := geojson.NewFeature(snap.Location.Point())
		loc.Properties["kind"] = KindLocation
		loc.Properties["source"] = snap.Source
		loc.Properties["timestamp"] = snap.LastFix.UTC()
		fc.Append(loc)
	}

	return fc
}

// ArrowFeature returns the GeoJSON Point of the arrow marker at index.
func ArrowFeature(index int, marker track.Marker) *geojson.Feature {
	arrow := geojson.NewFeature(marker.Position.Point())
	arrow.Properties["kind"] = KindArrow
	arrow.Properties["index"] = index
	arrow.Properties["rotation"] = marker.Rotation
	// anchor the arrow at its bottom center
	arrow.Properties["anchor"] = []float64{0.5, 0}
	arrow.Properties["flat"] = true
	return arrow
}

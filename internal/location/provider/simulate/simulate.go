// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package simulate

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/wneessen/waybar-tracker/internal/geo"
	"github.com/wneessen/waybar-tracker/internal/location"
)

const (
	name = "simulate"

	// metersPerDegree is the approximate length of one degree of latitude
	metersPerDegree = 111320
)

// Provider returns random coordinates in a square around a base location. It is meant for
// demos and for testing the tracking pipeline without a GPS receiver.
type Provider struct {
	name   string
	base   geo.Coordinate
	radius float64
	randFn func() float64
}

// New returns a simulation Provider around base with the given radius in meters.
func New(base geo.Coordinate, radius float64) *Provider {
	return &Provider{
		name:   name,
		base:   base,
		radius: radius,
		randFn: rand.Float64,
	}
}

// Name returns the name of the provider.
func (p *Provider) Name() string {
	return p.name
}

// Locate returns a random coordinate at most radius/2 meters (per axis) away from the base.
func (p *Provider) Locate(ctx context.Context) (location.Fix, error) {
	if err := ctx.Err(); err != nil {
		return location.Fix{}, err
	}
	if err := p.base.Validate(); err != nil {
		return location.Fix{}, err
	}

	degrees := p.radius / metersPerDegree
	coord := geo.Coordinate{
		Lat: geo.Truncate(p.base.Lat+(p.randFn()-0.5)*degrees, geo.TruncPrecision),
		Lon: geo.Truncate(p.base.Lon+(p.randFn()-0.5)*degrees, geo.TruncPrecision),
	}
	return location.Fix{Coordinate: coord, Source: p.name, At: time.Now()}, nil
}

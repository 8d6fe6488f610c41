// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package simulate

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/wneessen/waybar-tracker/internal/geo"
)

var testBase = geo.Coordinate{Lat: 37.7749, Lon: -122.4194}

func TestProvider_Locate(t *testing.T) {
	t.Run("locations stay within radius", func(t *testing.T) {
		provider := New(testBase, 500)
		maxOffset := 500.0 / metersPerDegree / 2
		for i := 0; i < 1000; i++ {
			fix, err := provider.Locate(t.Context())
			if err != nil {
				t.Fatalf("failed to locate: %s", err)
			}
			if math.Abs(fix.Lat-testBase.Lat) > maxOffset+1e-6 {
				t.Fatalf("latitude %f is too far from base %f", fix.Lat, testBase.Lat)
			}
			if math.Abs(fix.Lon-testBase.Lon) > maxOffset+1e-6 {
				t.Fatalf("longitude %f is too far from base %f", fix.Lon, testBase.Lon)
			}
			if fix.Source != name {
				t.Errorf("expected source to be %s, got %s", name, fix.Source)
			}
		}
	})
	t.Run("fixed random source yields deterministic location", func(t *testing.T) {
		provider := New(testBase, metersPerDegree)
		provider.randFn = func() float64 { return 1 }
		fix, err := provider.Locate(t.Context())
		if err != nil {
			t.Fatalf("failed to locate: %s", err)
		}
		want := geo.Coordinate{
			Lat: geo.Truncate(testBase.Lat+0.5, geo.TruncPrecision),
			Lon: geo.Truncate(testBase.Lon+0.5, geo.TruncPrecision),
		}
		if fix.Coordinate != want {
			t.Errorf("expected location to be %s, got %s", want, fix.Coordinate)
		}
	})
	t.Run("zero radius returns base", func(t *testing.T) {
		provider := New(testBase, 0)
		fix, err := provider.Locate(t.Context())
		if err != nil {
			t.Fatalf("failed to locate: %s", err)
		}
		if math.Abs(fix.Lat-testBase.Lat) > 1e-6 || math.Abs(fix.Lon-testBase.Lon) > 1e-6 {
			t.Errorf("expected location to be %s, got %s", testBase, fix.Coordinate)
		}
	})
	t.Run("invalid base fails", func(t *testing.T) {
		provider := New(geo.Coordinate{Lat: 100, Lon: 0}, 500)
		_, err := provider.Locate(t.Context())
		if !errors.Is(err, geo.ErrInvalidCoordinate) {
			t.Errorf("expected error to be %s, got %v", geo.ErrInvalidCoordinate, err)
		}
	})
	t.Run("cancelled context fails", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		provider := New(testBase, 500)
		_, err := provider.Locate(ctx)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected error to be %s, got %v", context.Canceled, err)
		}
	})
}

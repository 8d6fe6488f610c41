// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package polyline

import (
	"math"
	"testing"

	"github.com/wneessen/waybar-tracker/internal/geo"
)

// referencePolyline is the example from the encoded polyline algorithm format documentation.
const referencePolyline = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"

var referenceCoords = []geo.Coordinate{
	{Lat: 38.5, Lon: -120.2},
	{Lat: 40.7, Lon: -120.95},
	{Lat: 43.252, Lon: -126.453},
}

func TestDecode(t *testing.T) {
	t.Run("empty polyline decodes into empty sequence", func(t *testing.T) {
		coords, err := Decode("")
		if err != nil {
			t.Fatalf("failed to decode polyline: %s", err)
		}
		if coords == nil {
			t.Fatal("expected coordinates to be non-nil")
		}
		if len(coords) != 0 {
			t.Errorf("expected no coordinates, got %d", len(coords))
		}
	})
	t.Run("reference polyline decodes into reference coordinates", func(t *testing.T) {
		coords, err := Decode(referencePolyline)
		if err != nil {
			t.Fatalf("failed to decode polyline: %s", err)
		}
		if len(coords) != len(referenceCoords) {
			t.Fatalf("expected %d coordinates, got %d", len(referenceCoords), len(coords))
		}
		for i, want := range referenceCoords {
			if math.Abs(coords[i].Lat-want.Lat) > 1e-5 || math.Abs(coords[i].Lon-want.Lon) > 1e-5 {
				t.Errorf("coordinate %d: expected %s, got %s", i, want, coords[i])
			}
		}
	})
	t.Run("truncated polyline fails", func(t *testing.T) {
		_, err := Decode("_p~iF~ps|U_")
		if err == nil {
			t.Fatal("expected decoding to fail")
		}
	})
}

func TestEncode(t *testing.T) {
	t.Run("reference coordinates encode into reference polyline", func(t *testing.T) {
		if got := Encode(referenceCoords); got != referencePolyline {
			t.Errorf("expected polyline to be %q, got %q", referencePolyline, got)
		}
	})
	t.Run("empty sequence encodes into empty string", func(t *testing.T) {
		if got := Encode(nil); got != "" {
			t.Errorf("expected empty polyline, got %q", got)
		}
	})
}

// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package google

import (
	"errors"
	"io"
	"log/slog"
	"math"
	stdhttp "net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/wneessen/waybar-tracker/internal/directions"
	"github.com/wneessen/waybar-tracker/internal/geo"
	"github.com/wneessen/waybar-tracker/internal/http"
	"github.com/wneessen/waybar-tracker/internal/logger"
	"github.com/wneessen/waybar-tracker/internal/testhelper"
)

const (
	testAPIKey   = "test-key"
	testPolyline = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"
	routeFile    = "../../../../testdata/google_directions.json"
)

var (
	testWaypoints   = []geo.Coordinate{{Lat: 38.5, Lon: -120.2}, {Lat: 40.7, Lon: -120.95}, {Lat: 43.252, Lon: -126.453}}
	testDestination = geo.Coordinate{Lat: 43.252, Lon: -126.453}
)

func TestNew(t *testing.T) {
	t.Run("creating a new provider succeeds", func(t *testing.T) {
		provider := New(testClient(nil), testAPIKey, "")
		if provider == nil {
			t.Fatal("expected a non-nil provider")
		}
		if provider.endpoint != APIEndpoint {
			t.Errorf("expected endpoint to be %s, got %s", APIEndpoint, provider.endpoint)
		}
	})
	t.Run("provider name is correct", func(t *testing.T) {
		provider := New(testClient(nil), testAPIKey, "")
		if provider.Name() != name {
			t.Errorf("expected provider name to be %q, got %q", name, provider.Name())
		}
	})
}

func TestGoogle_Route(t *testing.T) {
	t.Run("request is formatted correctly", func(t *testing.T) {
		var gotReq *stdhttp.Request
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			gotReq = req
			return openResponse(t, routeFile), nil
		}
		provider := New(testClient(rtFn), testAPIKey, "")
		if _, err := provider.Route(t.Context(), testWaypoints, testDestination); err != nil {
			t.Fatalf("failed to fetch route: %s", err)
		}
		if gotReq == nil {
			t.Fatal("expected request to be sent")
		}
		query := gotReq.URL.Query()
		expect := map[string]string{
			"origin":      "38.5,-120.2",
			"destination": "43.252,-126.453",
			"waypoints":   "38.5,-120.2|40.7,-120.95",
			"key":         testAPIKey,
		}
		for key, want := range expect {
			if got := query.Get(key); got != want {
				t.Errorf("expected query parameter %s to be %q, got %q", key, want, got)
			}
		}
		if !strings.HasPrefix(gotReq.URL.String(), APIEndpoint) {
			t.Errorf("expected request to go to %s, got %s", APIEndpoint, gotReq.URL)
		}
	})
	t.Run("route is decoded", func(t *testing.T) {
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			return openResponse(t, routeFile), nil
		}
		provider := New(testClient(rtFn), testAPIKey, "")
		route, err := provider.Route(t.Context(), testWaypoints, testDestination)
		if err != nil {
			t.Fatalf("failed to fetch route: %s", err)
		}
		if len(route.Path) != 3 {
			t.Fatalf("expected 3 route coordinates, got %d", len(route.Path))
		}
		for i, want := range testWaypoints {
			if math.Abs(route.Path[i].Lat-want.Lat) > 1e-9 || math.Abs(route.Path[i].Lon-want.Lon) > 1e-9 {
				t.Errorf("expected route coordinate %d to be %s, got %s", i, want, route.Path[i])
			}
		}
		if route.Distance != 1195000 {
			t.Errorf("expected distance to be 1195000m, got %f", route.Distance)
		}
		if route.Duration != time.Hour*12 {
			t.Errorf("expected duration to be 12h, got %s", route.Duration)
		}
		if route.Source != name {
			t.Errorf("expected source to be %s, got %s", name, route.Source)
		}
	})
	t.Run("route without legs computes its length", func(t *testing.T) {
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			body := `{"status":"OK","routes":[{"overview_polyline":{"points":"` + testPolyline + `"}}]}`
			return testhelper.JSONResponse(200, body), nil
		}
		provider := New(testClient(rtFn), testAPIKey, "")
		route, err := provider.Route(t.Context(), testWaypoints, testDestination)
		if err != nil {
			t.Fatalf("failed to fetch route: %s", err)
		}
		if route.Distance <= 0 {
			t.Errorf("expected distance to be computed, got %f", route.Distance)
		}
	})
	t.Run("zero routes returns ErrNoRoute", func(t *testing.T) {
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			return testhelper.JSONResponse(200, `{"status":"ZERO_RESULTS","routes":[]}`), nil
		}
		provider := New(testClient(rtFn), testAPIKey, "")
		_, err := provider.Route(t.Context(), testWaypoints, testDestination)
		if !errors.Is(err, directions.ErrNoRoute) {
			t.Errorf("expected error to be %s, got %v", directions.ErrNoRoute, err)
		}
	})
	t.Run("empty routes with OK status returns ErrNoRoute", func(t *testing.T) {
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			return testhelper.JSONResponse(200, `{"routes":[]}`), nil
		}
		provider := New(testClient(rtFn), testAPIKey, "")
		_, err := provider.Route(t.Context(), testWaypoints, testDestination)
		if !errors.Is(err, directions.ErrNoRoute) {
			t.Errorf("expected error to be %s, got %v", directions.ErrNoRoute, err)
		}
	})
	t.Run("denied request fails", func(t *testing.T) {
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			body := `{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid.","routes":[]}`
			return testhelper.JSONResponse(200, body), nil
		}
		provider := New(testClient(rtFn), testAPIKey, "")
		_, err := provider.Route(t.Context(), testWaypoints, testDestination)
		if err == nil {
			t.Fatal("expected route request to fail")
		}
		if errors.Is(err, directions.ErrNoRoute) {
			t.Error("expected error not to be ErrNoRoute")
		}
		if !strings.Contains(err.Error(), "REQUEST_DENIED") {
			t.Errorf("expected error to contain status, got %s", err)
		}
	})
	t.Run("non-2xx status fails", func(t *testing.T) {
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			return testhelper.JSONResponse(500, `{"routes":[]}`), nil
		}
		provider := New(testClient(rtFn), testAPIKey, "")
		_, err := provider.Route(t.Context(), testWaypoints, testDestination)
		if !errors.Is(err, http.ErrUnexpectedStatus) {
			t.Errorf("expected error to be %s, got %v", http.ErrUnexpectedStatus, err)
		}
	})
	t.Run("network error fails", func(t *testing.T) {
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			return nil, errors.New("intentionally failing")
		}
		provider := New(testClient(rtFn), testAPIKey, "")
		if _, err := provider.Route(t.Context(), testWaypoints, testDestination); err == nil {
			t.Fatal("expected route request to fail")
		}
	})
	t.Run("single waypoint is rejected without request", func(t *testing.T) {
		called := false
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			called = true
			return nil, errors.New("unexpected request")
		}
		provider := New(testClient(rtFn), testAPIKey, "")
		_, err := provider.Route(t.Context(), testWaypoints[:1], testDestination)
		if !errors.Is(err, directions.ErrTooFewWaypoints) {
			t.Errorf("expected error to be %s, got %v", directions.ErrTooFewWaypoints, err)
		}
		if called {
			t.Error("expected no request to be sent")
		}
	})
}

func TestGoogle_Route_integration(t *testing.T) {
	testhelper.PerformIntegrationTests(t)
	apikey := os.Getenv("GOOGLE_MAPS_APIKEY")
	if apikey == "" {
		t.Skip("no Google Maps API key set, skipping tests")
	}
	provider := New(testClient(nil), apikey, "")
	waypoints := []geo.Coordinate{{Lat: 37.7749, Lon: -122.4194}, {Lat: 37.7793, Lon: -122.4192}}
	route, err := provider.Route(t.Context(), waypoints, geo.Coordinate{Lat: 37.7858, Lon: -122.4064})
	if err != nil {
		t.Fatal(err)
	}
	if len(route.Path) == 0 {
		t.Error("expected route to have coordinates")
	}
}

func testClient(fn func(req *stdhttp.Request) (*stdhttp.Response, error)) *http.Client {
	client := http.New(logger.NewLogger(slog.LevelDebug, io.Discard))
	if fn != nil {
		client.Transport = testhelper.MockRoundTripper{Fn: fn}
	}
	return client
}

func openResponse(t *testing.T, file string) *stdhttp.Response {
	t.Helper()
	data, err := os.Open(file)
	if err != nil {
		t.Fatalf("failed to open JSON response file: %s", err)
	}
	return &stdhttp.Response{
		StatusCode: 200,
		Body:       data,
		Header:     make(stdhttp.Header),
	}
}

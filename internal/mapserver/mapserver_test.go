// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package mapserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/wneessen/waybar-tracker/internal/battery"
	"github.com/wneessen/waybar-tracker/internal/directions"
	"github.com/wneessen/waybar-tracker/internal/geo"
	"github.com/wneessen/waybar-tracker/internal/logger"
	"github.com/wneessen/waybar-tracker/internal/track"
	"github.com/wneessen/waybar-tracker/internal/vartype"
)

type staticSource struct {
	snap track.Snapshot
}

func (s staticSource) Snapshot() track.Snapshot {
	return s.snap
}

func TestServer_Handler(t *testing.T) {
	server := New("", staticSource{testSnapshot()}, testLogger())

	t.Run("GeoJSON is served", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		server.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/map.geojson", nil))
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", recorder.Code)
		}
		if ct := recorder.Header().Get("Content-Type"); ct != contentTypeGeoJSON {
			t.Errorf("expected content type %s, got %s", contentTypeGeoJSON, ct)
		}
		fc, err := geojson.UnmarshalFeatureCollection(recorder.Body.Bytes())
		if err != nil {
			t.Fatalf("failed to decode feature collection: %s", err)
		}
		if len(fc.Features) != 4 {
			t.Errorf("expected 4 features, got %d", len(fc.Features))
		}
	})
	t.Run("status is served", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		server.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/status", nil))
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", recorder.Code)
		}
		var status Status
		if err := json.NewDecoder(recorder.Body).Decode(&status); err != nil {
			t.Fatalf("failed to decode status: %s", err)
		}
		if status.SessionID != "test-session" {
			t.Errorf("expected session id to be test-session, got %s", status.SessionID)
		}
		if status.Waypoints != 2 || status.Markers != 2 {
			t.Errorf("expected 2 waypoints and markers, got %d and %d", status.Waypoints, status.Markers)
		}
		if status.Battery == nil || status.Battery.Percentage != 50 {
			t.Errorf("expected battery at 50%%, got %+v", status.Battery)
		}
		if status.Location == nil {
			t.Error("expected location to be set")
		}
	})
	t.Run("single marker is served", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		server.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/markers/0", nil))
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", recorder.Code)
		}
		feature, err := geojson.UnmarshalFeature(recorder.Body.Bytes())
		if err != nil {
			t.Fatalf("failed to decode feature: %s", err)
		}
		if feature.Properties.MustFloat64("rotation") != 90 {
			t.Errorf("expected rotation to be 90, got %f", feature.Properties.MustFloat64("rotation"))
		}
		if !feature.Properties.MustBool("flat", false) {
			t.Error("expected marker to be flat")
		}
		anchor, ok := feature.Properties["anchor"].([]any)
		if !ok || len(anchor) != 2 {
			t.Fatalf("expected anchor with two values, got %v", feature.Properties["anchor"])
		}
		if anchor[0] != 0.5 || anchor[1] != float64(0) {
			t.Errorf("expected anchor [0.5 0], got %v", anchor)
		}
	})
	t.Run("unknown marker returns 404", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		server.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/markers/42", nil))
		if recorder.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", recorder.Code)
		}
	})
	t.Run("wrong method is rejected", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		server.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/map.geojson", nil))
		if recorder.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected status 405, got %d", recorder.Code)
		}
	})
}

func TestServer_Run(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %s", err)
	}
	addr := listener.Addr().String()
	_ = listener.Close()

	ctx, cancel := context.WithCancel(t.Context())
	server := New(addr, staticSource{testSnapshot()}, testLogger())
	errCh := make(chan error, 1)
	go func() { errCh <- server.Run(ctx) }()

	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get("http://" + addr + "/health")
		if err == nil {
			break
		}
		time.Sleep(time.Millisecond * 20)
	}
	if err != nil {
		t.Fatalf("failed to reach map server: %s", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}

	cancel()
	if err = <-errCh; err != nil {
		t.Errorf("expected clean shutdown, got %s", err)
	}
}

func TestWriteFile(t *testing.T) {
	t.Run("file is written", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "map.geojson")
		if err := WriteFile(file, testSnapshot()); err != nil {
			t.Fatalf("failed to write GeoJSON file: %s", err)
		}
		data, err := os.ReadFile(file)
		if err != nil {
			t.Fatalf("failed to read GeoJSON file: %s", err)
		}
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			t.Fatalf("failed to decode feature collection: %s", err)
		}
		if len(fc.Features) != 4 {
			t.Errorf("expected 4 features, got %d", len(fc.Features))
		}
		entries, _ := os.ReadDir(filepath.Dir(file))
		if len(entries) != 1 {
			t.Errorf("expected no temporary files to be left, got %d entries", len(entries))
		}
	})
	t.Run("missing directory fails", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "missing", "map.geojson")
		if err := WriteFile(file, testSnapshot()); err == nil {
			t.Error("expected write to fail, but didn't")
		}
	})
}

func testSnapshot() track.Snapshot {
	waypoints := []geo.Coordinate{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 0}}
	live := geo.Coordinate{Lat: 1, Lon: 1}
	return track.Snapshot{
		ID:          "test-session",
		Started:     time.Now(),
		Waypoints:   waypoints,
		Location:    live,
		HasLocation: true,
		LastFix:     time.Now(),
		Source:      "mock",
		Route:       directions.Route{Path: []geo.Coordinate{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}}, Distance: 157000},
		Markers:     track.BuildArrows(waypoints, &live),
		Battery:     vartype.NewVariable(battery.NewState(0.5, true)),
	}
}

func testLogger() *logger.Logger {
	return logger.NewLogger(slog.LevelDebug, io.Discard)
}

// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package mapserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wneessen/waybar-tracker/internal/geo"
	"github.com/wneessen/waybar-tracker/internal/logger"
	"github.com/wneessen/waybar-tracker/internal/presenter"
	"github.com/wneessen/waybar-tracker/internal/track"
)

const (
	contentTypeGeoJSON = "application/geo+json"
	contentTypeJSON    = "application/json"

	readHeaderTimeout = time.Second * 5
	shutdownTimeout   = time.Second * 5
)

// Source provides the session state to serve.
type Source interface {
	Snapshot() track.Snapshot
}

// Status is the JSON document served on /status.
type Status struct {
	SessionID     string          `json:"session_id"`
	Started       time.Time       `json:"started"`
	Waypoints     int             `json:"waypoints"`
	Location      *geo.Coordinate `json:"location,omitempty"`
	LastFix       *time.Time      `json:"last_fix,omitempty"`
	Source        string          `json:"source,omitempty"`
	Markers       int             `json:"markers"`
	RoutePoints   int             `json:"route_points"`
	RouteDistance float64         `json:"route_distance"`
	Battery       *BatteryStatus  `json:"battery,omitempty"`
	Alert         string          `json:"alert,omitempty"`
}

type BatteryStatus struct {
	Percentage float64 `json:"percentage"`
	Charging   bool    `json:"charging"`
}

// Server serves the session as GeoJSON for web map frontends.
type Server struct {
	listen string
	source Source
	logger *logger.Logger
	router *mux.Router
}

func New(listen string, source Source, log *logger.Logger) *Server {
	s := &Server{
		listen: listen,
		source: source,
		logger: log,
	}
	s.router = s.newRouter()
	return s
}

func (s *Server) newRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/map.geojson", s.handleGeoJSON).Methods(http.MethodGet)
	r.HandleFunc("/markers/{index:[0-9]+}", s.handleMarker).Methods(http.MethodGet)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	return r
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.listen,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting map server", slog.String("listen", s.listen))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to run map server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down map server: %w", err)
	}
	return nil
}

func (s *Server) handleGeoJSON(w http.ResponseWriter, _ *http.Request) {
	fc := presenter.FeatureCollection(s.source.Snapshot())
	data, err := fc.MarshalJSON()
	if err != nil {
		s.logger.Error("failed to encode feature collection", logger.Err(err))
		http.Error(w, "failed to encode feature collection", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeGeoJSON)
	w.Header().Set("Cache-Control", "no-store")
	if _, err = w.Write(data); err != nil {
		s.logger.Debug("failed to write response", logger.Err(err))
	}
}

func (s *Server) handleMarker(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		http.Error(w, "invalid marker index", http.StatusBadRequest)
		return
	}
	markers := s.source.Snapshot().Markers
	if index < 0 || index >= len(markers) {
		http.NotFound(w, r)
		return
	}

	s.writeJSON(w, contentTypeGeoJSON, presenter.ArrowFeature(index, markers[index]))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, contentTypeJSON, NewStatus(s.source.Snapshot()))
}

func (s *Server) writeJSON(w http.ResponseWriter, contentType string, v any) {
	w.Header().Set("Content-Type", contentType)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", logger.Err(err))
	}
}

// NewStatus summarizes a snapshot.
func NewStatus(snap track.Snapshot) Status {
	status := Status{
		SessionID:     snap.ID,
		Started:       snap.Started,
		Waypoints:     len(snap.Waypoints),
		Markers:       len(snap.Markers),
		RoutePoints:   len(snap.Route.Path),
		RouteDistance: snap.Route.Distance,
		Source:        snap.Source,
	}
	if snap.HasLocation {
		loc, fix := snap.Location, snap.LastFix
		status.Location = &loc
		status.LastFix = &fix
	}
	if state, ok := snap.Battery.Get(); ok {
		status.Battery = &BatteryStatus{Percentage: state.Percentage, Charging: state.IsCharging}
	}
	if snap.HasAlert {
		status.Alert = snap.Alert.String()
	}
	return status
}

// WriteFile atomically replaces file with the GeoJSON representation of snap.
func WriteFile(file string, snap track.Snapshot) error {
	data, err := presenter.FeatureCollection(snap).MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode feature collection: %w", err)
	}

	dir := filepath.Dir(file)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(file)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary GeoJSON file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write GeoJSON file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close GeoJSON file: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set GeoJSON file permissions: %w", err)
	}
	if err = os.Rename(tmp.Name(), file); err != nil {
		return fmt.Errorf("failed to replace GeoJSON file: %w", err)
	}
	return nil
}

// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package track

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/wneessen/waybar-tracker/internal/alert"
	"github.com/wneessen/waybar-tracker/internal/battery"
	"github.com/wneessen/waybar-tracker/internal/directions"
	"github.com/wneessen/waybar-tracker/internal/geo"
	"github.com/wneessen/waybar-tracker/internal/location"
	"github.com/wneessen/waybar-tracker/internal/logger"
	"github.com/wneessen/waybar-tracker/internal/vartype"
)

// Session holds the state of one tracking session: the recorded waypoints, the live location,
// the last route and the derived arrow markers. It is safe for concurrent use. After Close, all
// writes are dropped.
type Session struct {
	id         uuid.UUID
	started    time.Time
	directions directions.Provider
	alerter    alert.Alerter
	logger     *logger.Logger

	// fetching is the single in-flight slot for route requests
	fetching *semaphore.Weighted
	changed  chan struct{}

	mu          sync.RWMutex
	closed      bool
	waypoints   []geo.Coordinate
	location    geo.Coordinate
	hasLocation bool
	lastFix     time.Time
	source      string
	route       directions.Route
	markers     []Marker
	battery     vartype.Variable[battery.State]
	lastAlert   alert.Alert
	hasAlert    bool
	routeCalls  int
}

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	ID          string
	Started     time.Time
	Waypoints   []geo.Coordinate
	Location    geo.Coordinate
	HasLocation bool
	LastFix     time.Time
	Source      string
	Route       directions.Route
	Markers     []Marker
	Battery     vartype.Variable[battery.State]
	Alert       alert.Alert
	HasAlert    bool
}

// NewSession returns a new, empty tracking session.
func NewSession(dirs directions.Provider, alerter alert.Alerter, log *logger.Logger) *Session {
	return &Session{
		id:         uuid.New(),
		started:    time.Now(),
		directions: dirs,
		alerter:    alerter,
		logger:     log,
		fetching:   semaphore.NewWeighted(1),
		changed:    make(chan struct{}, 1),
		waypoints:  make([]geo.Coordinate, 0),
		markers:    make([]Marker, 0),
	}
}

// ID returns the unique session identifier.
func (s *Session) ID() string {
	return s.id.String()
}

// Changed returns a channel that receives a value whenever the session state changed. Multiple
// changes between two reads are coalesced.
func (s *Session) Changed() <-chan struct{} {
	return s.changed
}

// RecordFix stores fix as the live location, appends it to the waypoints and rebuilds the arrow
// markers. It returns a copy of the waypoints after the update. An invalid coordinate is rejected.
func (s *Session) RecordFix(fix location.Fix) ([]geo.Coordinate, error) {
	if err := fix.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, nil
	}
	s.location = fix.Coordinate
	s.hasLocation = true
	s.lastFix = fix.At
	s.source = fix.Source
	s.waypoints = append(s.waypoints, fix.Coordinate)
	live := s.location
	s.markers = BuildArrows(s.waypoints, &live)
	waypoints := slices.Clone(s.waypoints)
	s.mu.Unlock()

	s.notify()
	return waypoints, nil
}

// FetchRoute requests a route through waypoints to destination and replaces the current route on
// success. Only one request can be in flight; a call while another one is running is dropped
// and FetchRoute returns false. On failure, the previous route is kept and an alert is raised.
func (s *Session) FetchRoute(ctx context.Context, waypoints []geo.Coordinate, destination geo.Coordinate) bool {
	if !s.fetching.TryAcquire(1) {
		s.logger.Debug("route request already in flight, dropping request")
		return false
	}
	defer s.fetching.Release(1)

	if s.isClosed() {
		return false
	}

	s.mu.Lock()
	s.routeCalls++
	s.mu.Unlock()

	route, err := s.directions.Route(ctx, waypoints, destination)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		s.logger.Debug("route request cancelled", logger.Err(err))
		return true
	case errors.Is(err, directions.ErrNoRoute):
		s.logger.Warn("no route found", slog.String("provider", s.directions.Name()), logger.Err(err))
		s.Raise(ctx, alert.New(alert.TitleError, alert.MessageNoRoute))
		return true
	default:
		s.logger.Error("failed to fetch route", slog.String("provider", s.directions.Name()), logger.Err(err))
		s.Raise(ctx, alert.New(alert.TitleError, alert.MessageFetchFailed))
		return true
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return true
	}
	s.route = route
	s.mu.Unlock()

	s.logger.Debug("route updated", slog.Int("points", len(route.Path)),
		slog.Float64("distance", route.Distance), slog.String("provider", route.Source))
	s.notify()
	return true
}

// SetBattery stores a battery sample.
func (s *Session) SetBattery(state battery.State) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.battery = vartype.NewVariable(state)
	s.mu.Unlock()
	s.notify()
}

// Raise records alert as the latest alert and hands it to the alerter.
func (s *Session) Raise(ctx context.Context, a alert.Alert) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.lastAlert = a
	s.hasAlert = true
	s.mu.Unlock()

	if s.alerter != nil {
		if err := s.alerter.Alert(ctx, a); err != nil {
			s.logger.Error("failed to deliver alert", slog.String("alert", a.String()), logger.Err(err))
		}
	}
	s.notify()
}

// Snapshot returns a copy of the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	route := s.route
	route.Path = slices.Clone(s.route.Path)
	return Snapshot{
		ID:          s.id.String(),
		Started:     s.started,
		Waypoints:   slices.Clone(s.waypoints),
		Location:    s.location,
		HasLocation: s.hasLocation,
		LastFix:     s.lastFix,
		Source:      s.source,
		Route:       route,
		Markers:     slices.Clone(s.markers),
		Battery:     s.battery,
		Alert:       s.lastAlert,
		HasAlert:    s.hasAlert,
	}
}

// RouteRequests returns how many route requests were sent to the directions provider.
func (s *Session) RouteRequests() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.routeCalls
}

// Close tears the session down. Results arriving afterward are discarded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Session) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Session) notify() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

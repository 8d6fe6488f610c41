// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/vorlif/spreak"

	"github.com/wneessen/waybar-tracker/internal/alert"
	"github.com/wneessen/waybar-tracker/internal/battery"
	"github.com/wneessen/waybar-tracker/internal/config"
	"github.com/wneessen/waybar-tracker/internal/directions"
	"github.com/wneessen/waybar-tracker/internal/job"
	"github.com/wneessen/waybar-tracker/internal/location"
	"github.com/wneessen/waybar-tracker/internal/logger"
	"github.com/wneessen/waybar-tracker/internal/mapserver"
	"github.com/wneessen/waybar-tracker/internal/presenter"
	"github.com/wneessen/waybar-tracker/internal/track"
)

const (
	batteryTimeout = time.Second * 10
	pollJobName    = "location_poll_job"
)

type Service struct {
	config    *config.Config
	logger    *logger.Logger
	t         *spreak.Localizer
	output    io.Writer
	presenter *presenter.Presenter
	scheduler gocron.Scheduler
	outputJob *job.Job
	SignalSrc signalSource

	locator    location.Provider
	directions directions.Provider
	battery    battery.Provider
	alerter    alert.Alerter
	session    *track.Session

	// monitorSleep watches for system resume events, replaced in tests
	monitorSleep func(context.Context)

	outputLock     sync.Mutex
	displayAltLock sync.RWMutex
	displayAltText bool
}

func New(conf *config.Config, log *logger.Logger, t *spreak.Localizer) (*Service, error) {
	if log == nil {
		return nil, errors.New("logger is required")
	}
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	pres, err := presenter.New(conf, t)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	service := &Service{
		config:    conf,
		logger:    log,
		t:         t,
		output:    os.Stdout,
		presenter: pres,
		scheduler: scheduler,
		SignalSrc: stdLibSignalSource{},
	}
	service.monitorSleep = service.monitorSleepResume
	return service, nil
}

func (s *Service) Run(ctx context.Context) (err error) {
	if s.locator == nil {
		if s.locator, err = s.selectLocationProvider(); err != nil {
			return fmt.Errorf("failed to create geolocation provider: %w", err)
		}
	}
	if s.directions == nil {
		if s.directions, err = s.selectDirectionsProvider(); err != nil {
			return fmt.Errorf("failed to create directions provider: %w", err)
		}
	}
	if s.battery == nil {
		if s.battery, err = s.selectBatteryProvider(); err != nil {
			return fmt.Errorf("failed to create battery provider: %w", err)
		}
	}
	if s.alerter == nil {
		s.alerter = s.selectAlerter()
	}

	s.session = track.NewSession(s.directions, s.alerter, s.logger)
	defer s.session.Close()
	s.logger.Debug("tracking session started", slog.String("session", s.session.ID()),
		slog.String("directions", s.directions.Name()), slog.String("battery", s.battery.Name()))

	// Start streaming location providers before the first poll
	if starter, ok := s.locator.(location.Starter); ok {
		starter.Start(ctx)
	}

	// Start scheduled jobs
	if err = s.createScheduledJob(ctx, s.config.Intervals.LocationPoll, s.pollLocation, pollJobName,
		gocron.WithStartAt(gocron.WithStartImmediately())); err != nil {
		return err
	}
	s.scheduler.Start()
	s.outputJob = job.New(s.config.Intervals.Output, s.printOutput)
	go s.outputJob.Start(ctx)

	// Battery is only sampled once
	go s.readBattery(ctx)
	go s.watchSession(ctx)
	go s.monitorSleep(ctx)
	if s.config.MapServer.Listen != "" {
		server := mapserver.New(s.config.MapServer.Listen, s.session, s.logger)
		go func() {
			if err := server.Run(ctx); err != nil {
				s.logger.Error("map server stopped", logger.Err(err))
			}
		}()
	}

	// Signal handling
	sigChan := make(chan os.Signal, 1)
	s.SignalSrc.Notify(sigChan, syscall.SIGUSR1, syscall.SIGUSR2)
	defer s.SignalSrc.Stop(sigChan)
	go s.HandleSignals(ctx, sigChan)

	// Wait for the context to cancel
	<-ctx.Done()
	return s.scheduler.Shutdown()
}

func (s *Service) createScheduledJob(ctx context.Context, interval time.Duration, task func(context.Context),
	jobName string, opts ...gocron.JobOption,
) error {
	options := []gocron.JobOption{
		gocron.WithContext(ctx),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName(jobName),
	}
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		append(options, opts...)...,
	)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", jobName, err)
	}
	return nil
}

// pollLocation requests the current location, records it in the session and triggers a route
// update once there are at least two waypoints.
func (s *Service) pollLocation(ctx context.Context) {
	fix, err := s.locator.Locate(ctx)
	if err != nil {
		if errors.Is(err, location.ErrPermissionDenied) {
			s.logger.Warn("location permission denied", logger.Err(err))
			s.session.Raise(ctx, alert.New(alert.TitlePermissionDenied, alert.MessageEnableLocation))
			return
		}
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.Error("failed to get current location", logger.Err(err))
		return
	}

	waypoints, err := s.session.RecordFix(fix)
	if err != nil {
		s.logger.Error("rejected location update", slog.String("source", fix.Source), logger.Err(err))
		return
	}
	s.logger.Debug("received location update", slog.Float64("lat", fix.Lat), slog.Float64("lon", fix.Lon),
		slog.String("source", fix.Source), slog.Int("waypoints", len(waypoints)))

	if len(waypoints) > 1 {
		go s.session.FetchRoute(ctx, waypoints, fix.Coordinate)
	}
}

// readBattery samples the battery state once. On failure the battery stays in loading state.
func (s *Service) readBattery(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, batteryTimeout)
	defer cancel()

	state, err := s.battery.Read(ctx)
	if err != nil {
		s.logger.Error("failed to read battery state", slog.String("provider", s.battery.Name()), logger.Err(err))
		return
	}
	s.session.SetBattery(state)
}

// watchSession prints the module output and updates the GeoJSON file whenever the session changed.
func (s *Service) watchSession(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.session.Changed():
			s.outputJob.Trigger()
			s.writeGeoJSON()
		}
	}
}

func (s *Service) writeGeoJSON() {
	if s.config.MapServer.GeoJSONFile == "" {
		return
	}
	if err := mapserver.WriteFile(s.config.MapServer.GeoJSONFile, s.session.Snapshot()); err != nil {
		s.logger.Error("failed to write GeoJSON file", slog.String("file", s.config.MapServer.GeoJSONFile),
			logger.Err(err))
	}
}

// printOutput renders the current session state and writes it as waybar JSON line to the output.
func (s *Service) printOutput(context.Context) {
	if s.session == nil {
		return
	}

	s.displayAltLock.RLock()
	alt := s.displayAltText
	s.displayAltLock.RUnlock()

	output, err := s.presenter.Output(s.presenter.BuildContext(s.session.Snapshot()), alt)
	if err != nil {
		s.logger.Error("failed to render output", logger.Err(err))
		return
	}

	s.outputLock.Lock()
	defer s.outputLock.Unlock()
	if err = json.NewEncoder(s.output).Encode(output); err != nil {
		s.logger.Error("failed to encode output", logger.Err(err))
	}
}

// logState writes a summary of the current session to the log.
func (s *Service) logState() {
	if s.session == nil {
		s.logger.Info("no tracking session running")
		return
	}
	snap := s.session.Snapshot()
	s.logger.Info("current tracking session", slog.String("session", snap.ID),
		slog.Int("waypoints", len(snap.Waypoints)), slog.Int("markers", len(snap.Markers)),
		slog.Int("route_points", len(snap.Route.Path)), slog.Float64("route_distance", snap.Route.Distance),
		slog.String("location", snap.Location.String()), slog.String("battery", snap.Battery.String()))
}

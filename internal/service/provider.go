// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/waybar-tracker/internal/alert"
	"github.com/wneessen/waybar-tracker/internal/battery"
	"github.com/wneessen/waybar-tracker/internal/battery/provider/sysfs"
	"github.com/wneessen/waybar-tracker/internal/battery/provider/upower"
	"github.com/wneessen/waybar-tracker/internal/directions"
	"github.com/wneessen/waybar-tracker/internal/directions/provider/google"
	"github.com/wneessen/waybar-tracker/internal/directions/provider/osrm"
	"github.com/wneessen/waybar-tracker/internal/geo"
	"github.com/wneessen/waybar-tracker/internal/http"
	"github.com/wneessen/waybar-tracker/internal/location"
	"github.com/wneessen/waybar-tracker/internal/location/provider/file"
	"github.com/wneessen/waybar-tracker/internal/location/provider/gpsd"
	"github.com/wneessen/waybar-tracker/internal/location/provider/ichnaea"
	"github.com/wneessen/waybar-tracker/internal/location/provider/simulate"
)

const notificationTimeout = time.Second * 10

func (s *Service) selectLocationProvider() (location.Provider, error) {
	conf := s.config.GeoLocation
	providers := make([]location.Provider, 0, len(conf.Providers))

	for _, name := range conf.Providers {
		switch strings.ToLower(name) {
		case "gpsd":
			providers = append(providers, gpsd.New(conf.GPSDHost, conf.GPSDPort, conf.GPSDMaxAge, s.logger))
		case "file":
			providers = append(providers, file.New(conf.File))
		case "ichnaea":
			providers = append(providers, ichnaea.New(http.New(s.logger), conf.Ichnaea, conf.IchnaeaReuse, s.logger))
		case "simulate":
			base := geo.Coordinate{Lat: conf.SimulateLat, Lon: conf.SimulateLon}
			if err := base.Validate(); err != nil {
				return nil, fmt.Errorf("invalid simulation base location: %w", err)
			}
			providers = append(providers, simulate.New(base, conf.SimulateRadius))
		default:
			return nil, fmt.Errorf("unsupported geolocation provider: %s", name)
		}
	}

	return location.NewChain(providers...)
}

func (s *Service) selectDirectionsProvider() (directions.Provider, error) {
	switch strings.ToLower(s.config.Directions.Provider) {
	case "google":
		if s.config.Directions.APIKey == "" {
			return nil, fmt.Errorf("google directions provider requires an API key")
		}
		return google.New(http.New(s.logger), s.config.Directions.APIKey, s.config.Directions.Endpoint), nil
	case "osrm":
		return osrm.New(http.New(s.logger), s.config.Directions.Endpoint), nil
	default:
		return nil, fmt.Errorf("unsupported directions provider: %s", s.config.Directions.Provider)
	}
}

func (s *Service) selectBatteryProvider() (battery.Provider, error) {
	switch strings.ToLower(s.config.Battery.Provider) {
	case "upower":
		return upower.New(s.config.Battery.Device), nil
	case "sysfs":
		return sysfs.New(s.config.Battery.Device), nil
	default:
		return nil, fmt.Errorf("unsupported battery provider: %s", s.config.Battery.Provider)
	}
}

// selectAlerter always logs alerts and additionally sends desktop notifications unless disabled.
func (s *Service) selectAlerter() alert.Alerter {
	alerters := alert.Multi{alert.NewLog(s.logger)}
	if !s.config.Alerts.DisableNotify {
		alerters = append(alerters, alert.NewDesktop(notificationTimeout))
	}
	return alerters
}

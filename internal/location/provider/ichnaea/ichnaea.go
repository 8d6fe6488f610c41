// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package ichnaea locates the device through an Ichnaea compatible geolocation API (BeaconDB by
// default) using the WiFi access points visible to the local wireless interfaces.
package ichnaea

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	stdhttp "net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mdlayher/wifi"

	"github.com/wneessen/waybar-tracker/internal/geo"
	"github.com/wneessen/waybar-tracker/internal/http"
	"github.com/wneessen/waybar-tracker/internal/location"
	"github.com/wneessen/waybar-tracker/internal/logger"
)

const (
	APIEndpoint   = "https://api.beacondb.net/v1/geolocate"
	lookupTimeout = time.Second * 5
	wifiScanTime  = time.Minute * 2
	name          = "ichnaea"
)

// scanner lists wireless interfaces and the access points they see. *wifi.Client implements it.
type scanner interface {
	Interfaces() ([]*wifi.Interface, error)
	AccessPoints(ifi *wifi.Interface) ([]*wifi.BSS, error)
	Close() error
}

type Provider struct {
	name        string
	endpoint    string
	interval    time.Duration
	http        *http.Client
	log         *logger.Logger
	openScanner func() (scanner, error)

	startOnce sync.Once
	mu        sync.RWMutex
	aps       []AccessPoint
	last      location.Fix
	haveFix   bool
}

type APIResult struct {
	Location struct {
		Latitude  float64 `json:"lat"`
		Longitude float64 `json:"lng"`
	} `json:"location"`
	Accuracy float64 `json:"accuracy"`
}

type AccessPoint struct {
	Age            int64  `json:"age"`
	MACAddress     string `json:"macAddress"`
	SignalStrength int32  `json:"signalStrength"`
}

type request struct {
	ConsiderIP   bool          `json:"considerIp"`
	AccessPoints []AccessPoint `json:"wifiAccessPoints,omitempty"`
}

// New returns an Ichnaea Provider. An empty endpoint selects BeaconDB. A located fix is reused for
// interval before the API is asked again.
func New(client *http.Client, endpoint string, interval time.Duration, log *logger.Logger) *Provider {
	if endpoint == "" {
		endpoint = APIEndpoint
	}
	return &Provider{
		name:        name,
		endpoint:    endpoint,
		interval:    interval,
		http:        client,
		log:         log,
		openScanner: openWifi,
	}
}

func (p *Provider) Name() string {
	return p.name
}

// Start scans for WiFi access points in the background until ctx is done. Without WiFi support the
// API is asked with the IP address only. Calling Start more than once has no effect.
func (p *Provider) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		go p.scan(ctx)
	})
}

// Locate asks the geolocation API for the current position.
func (p *Provider) Locate(ctx context.Context) (location.Fix, error) {
	p.mu.RLock()
	if p.haveFix && time.Since(p.last.At) < p.interval {
		fix := p.last
		p.mu.RUnlock()
		return fix, nil
	}
	aps := slices.Clone(p.aps)
	p.mu.RUnlock()

	body, err := json.Marshal(request{ConsiderIP: true, AccessPoints: aps})
	if err != nil {
		return location.Fix{}, fmt.Errorf("failed to encode access point list: %w", err)
	}
	result := new(APIResult)
	if _, err = p.http.PostWithTimeout(ctx, p.endpoint, result, bytes.NewReader(body),
		map[string]string{"Content-Type": "application/json"}, lookupTimeout); err != nil {
		var statusErr *http.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == stdhttp.StatusNotFound {
			return location.Fix{}, location.ErrNoFix
		}
		return location.Fix{}, fmt.Errorf("failed to get geolocation data from API: %w", err)
	}

	coord := geo.Coordinate{
		Lat: geo.Truncate(result.Location.Latitude, geo.TruncPrecision),
		Lon: geo.Truncate(result.Location.Longitude, geo.TruncPrecision),
	}
	if err = coord.Validate(); err != nil {
		return location.Fix{}, err
	}
	fix := location.Fix{Coordinate: coord, Source: p.name, At: time.Now()}
	p.log.Debug("located via wifi geolocation", slog.Int("access_points", len(aps)),
		slog.Float64("accuracy", result.Accuracy))

	p.mu.Lock()
	p.last = fix
	p.haveFix = true
	p.mu.Unlock()
	return fix, nil
}

func (p *Provider) scan(ctx context.Context) {
	wlan, err := p.openScanner()
	if err != nil {
		p.log.Debug("wifi scanning unavailable, locating by IP address only", logger.Err(err))
		return
	}
	defer func() {
		if err := wlan.Close(); err != nil {
			p.log.Debug("failed to close wifi client", logger.Err(err))
		}
	}()

	for {
		aps, err := accessPoints(wlan)
		if err != nil {
			p.log.Debug("failed to scan wifi access points", logger.Err(err))
		} else {
			p.mu.Lock()
			p.aps = aps
			p.mu.Unlock()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wifiScanTime):
		}
	}
}

// accessPoints returns the access points seen by all station interfaces. Hidden networks and
// networks that opted out of mapping with a "_nomap" suffix are left out.
func accessPoints(wlan scanner) ([]AccessPoint, error) {
	ifaces, err := wlan.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}

	var list []AccessPoint
	for _, iface := range ifaces {
		if iface.Type != wifi.InterfaceTypeStation {
			continue
		}
		bss, err := wlan.AccessPoints(iface)
		if err != nil {
			continue
		}
		for _, ap := range bss {
			if ap.SSID == "" || ap.SSID[0] == '\x00' || strings.HasSuffix(ap.SSID, "_nomap") {
				continue
			}
			list = append(list, AccessPoint{
				Age:            ap.LastSeen.Milliseconds(),
				MACAddress:     ap.BSSID.String(),
				SignalStrength: ap.Signal / 100,
			})
		}
	}
	return list, nil
}

func openWifi() (scanner, error) {
	client, err := wifi.New()
	if err != nil {
		return nil, err
	}
	return client, nil
}

// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wneessen/waybar-tracker/internal/geo"
	"github.com/wneessen/waybar-tracker/internal/location"
)

const name = "file"

var ErrNoCoordinates = errors.New("no valid coordinates found in geolocation file")

// Provider reads the device location from a text file. The first line holding a "lat,lon" pair
// wins, lines starting with # are ignored. The file is read on every lookup so an external
// process can keep it up to date.
type Provider struct {
	name     string
	path     string
	readFn   func(string) ([]byte, error)
	modTimes func(string) (time.Time, error)
}

// New returns a file Provider for path.
func New(path string) *Provider {
	return &Provider{
		name:     name,
		path:     path,
		readFn:   os.ReadFile,
		modTimes: modTime,
	}
}

// Name returns the name of the provider.
func (p *Provider) Name() string {
	return p.name
}

// Locate reads the current coordinate from the file. A permission error is reported as
// location.ErrPermissionDenied.
func (p *Provider) Locate(context.Context) (location.Fix, error) {
	coord, err := p.readFile()
	if err != nil {
		return location.Fix{}, err
	}
	fix := location.Fix{Coordinate: coord, Source: p.name, At: time.Now()}
	if at, err := p.modTimes(p.path); err == nil {
		fix.At = at
	}
	return fix, nil
}

// readFile reads geolocation data from the file at the configured path.
func (p *Provider) readFile() (geo.Coordinate, error) {
	data, err := p.readFn(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return geo.Coordinate{}, fmt.Errorf("%w: %w", location.ErrPermissionDenied, err)
		}
		return geo.Coordinate{}, fmt.Errorf("failed to read geolocation file %q: %w", p.path, err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		coords := strings.Split(line, ",")
		if len(coords) != 2 {
			continue
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(coords[0]), 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(coords[1]), 64)
		if err != nil {
			continue
		}
		return geo.Coordinate{Lat: lat, Lon: lon}, nil
	}
	return geo.Coordinate{}, ErrNoCoordinates
}

func modTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}
